// Copyright 2026 The Tidelake Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// Package datafile reads and writes tidelake row data files.
//
// A data file is a 4-byte magic, one codec byte, and a codec-compressed
// payload of JSON lines, one row object per line. Each file is accompanied
// by a sidecar at <path>.xxh64 holding the hex xxhash64 digest of the file's
// bytes; readers verify the digest when the sidecar is present.
package datafile

import (
	"encoding/hex"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/zstd"
)

// ErrCorrupt marks data files whose contents fail structural or checksum
// verification.
var ErrCorrupt = errors.New("datafile: corrupt data file")

const fileMagic = "TDF1"

// Codec selects the compression applied to a data file's payload.
type Codec int8

// Supported codecs.
const (
	SnappyCodec Codec = iota
	ZstdCodec
)

// String implements fmt.Stringer.
func (c Codec) String() string {
	switch c {
	case SnappyCodec:
		return "snappy"
	case ZstdCodec:
		return "zstd"
	default:
		return "unknown"
	}
}

// SidecarPath returns the checksum sidecar path for a data file path.
func SidecarPath(path string) string {
	return path + ".xxh64"
}

func sumHex(data []byte) string {
	var b [8]byte
	s := xxhash.Sum64(data)
	for i := 7; i >= 0; i-- {
		b[i] = byte(s)
		s >>= 8
	}
	return hex.EncodeToString(b[:])
}

var (
	zstdOnce sync.Once
	zstdEnc  *zstd.Encoder
	zstdDec  *zstd.Decoder
)

func zstdCoders() (*zstd.Encoder, *zstd.Decoder) {
	zstdOnce.Do(func() {
		zstdEnc, _ = zstd.NewWriter(nil)
		zstdDec, _ = zstd.NewReader(nil)
	})
	return zstdEnc, zstdDec
}
