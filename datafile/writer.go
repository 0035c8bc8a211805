// Copyright 2026 The Tidelake Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package datafile

import (
	"bytes"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/golang/snappy"
	"github.com/tidelake/tidelake/internal/manifest"
	"github.com/tidelake/tidelake/storage"
)

// WriteSpec configures a Writer.
type WriteSpec struct {
	// Metadata supplies the schema and constraints rows are validated
	// against. Rows violating a not-null column or a check constraint are
	// rejected at Add time, so no invalid row ever reaches storage.
	Metadata *manifest.TableMetadata
	Codec    Codec
}

// FileDesc describes a written data file.
type FileDesc struct {
	Path string
	Size int64
	Rows int64
}

// Writer accumulates validated rows and writes them as a single data file
// plus its checksum sidecar on Close. A Writer is not safe for concurrent
// use.
type Writer struct {
	store storage.Store
	path  string
	spec  WriteSpec
	buf   bytes.Buffer
	rows  int64
	err   error
}

// NewWriter returns a Writer that will write to path in store.
func NewWriter(store storage.Store, path string, spec WriteSpec) *Writer {
	return &Writer{store: store, path: path, spec: spec}
}

// Add validates and buffers one row.
func (w *Writer) Add(row manifest.Row) error {
	if w.err != nil {
		return w.err
	}
	if w.spec.Metadata != nil {
		if err := w.spec.Metadata.ValidateRow(row); err != nil {
			return err
		}
	}
	line, err := json.Marshal(row)
	if err != nil {
		w.err = errors.Wrap(err, "datafile: encoding row")
		return w.err
	}
	w.buf.Write(line)
	w.buf.WriteByte('\n')
	w.rows++
	return nil
}

// Close compresses the buffered rows, writes the file and its sidecar, and
// returns the file's descriptor. The file is written even when no rows were
// added; an empty data file is valid.
func (w *Writer) Close() (FileDesc, error) {
	if w.err != nil {
		return FileDesc{}, w.err
	}
	var payload []byte
	switch w.spec.Codec {
	case SnappyCodec:
		payload = snappy.Encode(nil, w.buf.Bytes())
	case ZstdCodec:
		enc, _ := zstdCoders()
		payload = enc.EncodeAll(w.buf.Bytes(), nil)
	default:
		return FileDesc{}, errors.Newf("datafile: unknown codec %d", w.spec.Codec)
	}
	data := make([]byte, 0, len(fileMagic)+1+len(payload))
	data = append(data, fileMagic...)
	data = append(data, byte(w.spec.Codec))
	data = append(data, payload...)
	if err := w.store.WriteFile(w.path, data); err != nil {
		return FileDesc{}, errors.Wrapf(err, "datafile: writing %q", w.path)
	}
	if err := w.store.WriteFile(SidecarPath(w.path), []byte(sumHex(data))); err != nil {
		return FileDesc{}, errors.Wrapf(err, "datafile: writing sidecar for %q", w.path)
	}
	return FileDesc{Path: w.path, Size: int64(len(data)), Rows: w.rows}, nil
}
