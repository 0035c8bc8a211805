// Copyright 2026 The Tidelake Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package tablelog

import (
	"fmt"
	"strconv"
	"strings"
)

// DirName is the directory under the table root holding the commit log.
const DirName = "_tablelog"

type fileKind int8

const (
	fileKindSegment fileKind = iota
	fileKindCheckpoint
)

const (
	segmentSuffix    = ".log"
	checkpointSuffix = ".ckpt"
)

// segmentPath returns the store path of the segment holding version v.
// Versions are zero-padded so lexical order equals version order.
func segmentPath(v int64) string {
	return fmt.Sprintf("%s/%020d%s", DirName, v, segmentSuffix)
}

// checkpointPath returns the store path of the checkpoint at version v.
func checkpointPath(v int64) string {
	return fmt.Sprintf("%s/%020d%s", DirName, v, checkpointSuffix)
}

// parseLogPath extracts the version and kind from a log directory path.
// Unrecognized files yield ok=false and are ignored by listings.
func parseLogPath(path string) (v int64, kind fileKind, ok bool) {
	name, found := strings.CutPrefix(path, DirName+"/")
	if !found || strings.ContainsRune(name, '/') {
		return 0, 0, false
	}
	switch {
	case strings.HasSuffix(name, segmentSuffix):
		kind = fileKindSegment
		name = strings.TrimSuffix(name, segmentSuffix)
	case strings.HasSuffix(name, checkpointSuffix):
		kind = fileKindCheckpoint
		name = strings.TrimSuffix(name, checkpointSuffix)
	default:
		return 0, 0, false
	}
	v, err := strconv.ParseInt(name, 10, 64)
	if err != nil || v < 1 {
		return 0, 0, false
	}
	return v, kind, true
}
