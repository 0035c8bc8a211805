// Copyright 2026 The Tidelake Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package datafile

import (
	"bufio"
	"bytes"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/oserror"
	"github.com/golang/snappy"
	"github.com/tidelake/tidelake/internal/manifest"
	"github.com/tidelake/tidelake/storage"
)

// Read returns every row of the data file at path. When the checksum
// sidecar is present the file's digest is verified first; a missing sidecar
// is tolerated for compatibility with writers that do not produce one.
func Read(store storage.Store, path string) ([]manifest.Row, error) {
	data, err := store.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "datafile: reading %q", path)
	}
	if sum, err := store.ReadFile(SidecarPath(path)); err == nil {
		if string(bytes.TrimSpace(sum)) != sumHex(data) {
			return nil, errors.Mark(
				errors.Newf("datafile: checksum mismatch for %q", path), ErrCorrupt)
		}
	} else if !oserror.IsNotExist(err) {
		return nil, errors.Wrapf(err, "datafile: reading sidecar for %q", path)
	}
	return decode(path, data)
}

func decode(path string, data []byte) ([]manifest.Row, error) {
	if len(data) < len(fileMagic)+1 || string(data[:len(fileMagic)]) != fileMagic {
		return nil, errors.Mark(errors.Newf("datafile: bad magic in %q", path), ErrCorrupt)
	}
	codec := Codec(data[len(fileMagic)])
	payload := data[len(fileMagic)+1:]
	var lines []byte
	var err error
	switch codec {
	case SnappyCodec:
		lines, err = snappy.Decode(nil, payload)
	case ZstdCodec:
		_, dec := zstdCoders()
		lines, err = dec.DecodeAll(payload, nil)
	default:
		return nil, errors.Mark(errors.Newf("datafile: unknown codec %d in %q", codec, path), ErrCorrupt)
	}
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "datafile: decompressing %q", path), ErrCorrupt)
	}
	var rows []manifest.Row
	sc := bufio.NewScanner(bytes.NewReader(lines))
	sc.Buffer(nil, 16<<20)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var row manifest.Row
		if err := json.Unmarshal(line, &row); err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "datafile: decoding row in %q", path), ErrCorrupt)
		}
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrapf(err, "datafile: scanning %q", path)
	}
	return rows, nil
}
