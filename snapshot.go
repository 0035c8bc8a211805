// Copyright 2026 The Tidelake Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package tidelake

import (
	"github.com/cockroachdb/errors"
	"github.com/tidelake/tidelake/internal/manifest"
	"github.com/tidelake/tidelake/tablelog"
)

// ErrTableNotInitialized means the table has no committed version.
var ErrTableNotInitialized = errors.New("tidelake: table has no committed version")

// ErrNoCheckpoint means the log history holds no checkpoint, so snapshots
// cannot be reconstructed safely.
var ErrNoCheckpoint = errors.New("tidelake: no checkpoint recorded in log history")

// ErrVersionNotFound exports the tablelog.ErrVersionNotFound error.
var ErrVersionNotFound = tablelog.ErrVersionNotFound

// ErrUnknownPartitionColumn means a partition filter references a column
// that is not a declared partition column of the table.
var ErrUnknownPartitionColumn = errors.New("tidelake: filter references unknown partition column")

// readSnapshot obtains the consistent file list and metadata the round
// operates on. Every precondition failure here is fatal and pre-attempt: no
// file has been written yet, so there is nothing to roll back.
func readSnapshot(opts *Options) (*manifest.Snapshot, error) {
	head, err := opts.Log.Head()
	if err != nil {
		return nil, err
	}
	if head < 1 {
		return nil, ErrTableNotInitialized
	}
	if _, ok, err := opts.Log.LatestCheckpointVersion(); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrNoCheckpoint
	}

	target := opts.TargetVersion
	if target == 0 {
		target = head
	}
	if target < 1 || target > head {
		return nil, errors.Mark(
			errors.Newf("tidelake: version %d not committed (head is %d)", target, head),
			ErrVersionNotFound)
	}
	snap, err := opts.Log.ReadSnapshot(target)
	if err != nil {
		return nil, err
	}

	if len(opts.PartitionFilter) == 0 {
		return snap, nil
	}
	for _, m := range opts.PartitionFilter {
		if !snap.Metadata.IsPartitionColumn(m.Column) {
			return nil, errors.Mark(
				errors.Newf("tidelake: %q is not a partition column", m.Column),
				ErrUnknownPartitionColumn)
		}
	}
	filtered := snap.Live[:0:0]
	for i := range snap.Live {
		if matchesFilter(snap.Live[i].PartitionValues, opts.PartitionFilter) {
			filtered = append(filtered, snap.Live[i])
		}
	}
	return &manifest.Snapshot{
		Version:  snap.Version,
		Metadata: snap.Metadata,
		Live:     filtered,
	}, nil
}

func matchesFilter(pv map[string]string, filter []PartitionMatch) bool {
	for _, m := range filter {
		if pv[m.Column] != m.Value {
			return false
		}
	}
	return true
}
