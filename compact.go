// Copyright 2026 The Tidelake Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// Package tidelake implements compaction for tidelake tables: it merges the
// many small data files of a log-structured, versioned table into fewer
// large ones while preserving the table's logical content, and commits the
// change atomically against the table's append-only log under optimistic
// concurrency control.
//
// A round proceeds snapshot -> group -> rewrite -> commit, then reclaims
// obsolete log history and superseded files on success or deletes its
// speculatively written files on failure. Concurrent rounds on one table
// are safe: the log's compare-and-append lets at most one of two rounds
// with overlapping removes commit.
package tidelake

import (
	"context"
	"time"

	"github.com/tidelake/tidelake/internal/manifest"
)

// Aliases for the manifest types appearing in the public API.
type (
	// Record is one serialized log entry.
	Record = manifest.Record
	// Add records a data file entering the live-file set.
	Add = manifest.Add
	// Remove records a data file leaving the live-file set.
	Remove = manifest.Remove
	// FileStats holds per-file statistics recorded on an Add.
	FileStats = manifest.FileStats
	// TableMetadata describes a table's identity, schema and partitioning.
	TableMetadata = manifest.TableMetadata
	// Schema is the ordered column list of a table.
	Schema = manifest.Schema
	// Column describes one column of a table schema.
	Column = manifest.Column
	// CheckConstraint is a pre-parsed single-column check constraint.
	CheckConstraint = manifest.CheckConstraint
	// Row is one logical row of a table.
	Row = manifest.Row
)

// Result describes a committed compaction round: the new version and the
// serialized actions that produced it, adds before removes. A failed or
// no-op round carries no records.
type Result struct {
	Version int64
	Records []Record
}

// Compact runs one compaction round against the table in opts.Store. On
// success the returned result holds the committed version and one record
// per action; on any failure the result is empty, the log is logically
// untouched, and files written by this round have been deleted on a
// best-effort basis.
func Compact(ctx context.Context, opts Options) (Result, error) {
	opts.EnsureDefaults()
	start := time.Now()

	// Precondition failures are pre-attempt: nothing has been written,
	// so there is nothing to roll back.
	snap, err := readSnapshot(&opts)
	if err != nil {
		return Result{}, err
	}
	units := groupSnapshot(snap)

	set, written, stats, err := rewriteUnits(ctx, &opts, snap, units, start.UnixMilli())
	if err != nil {
		rollbackWritten(&opts, written)
		opts.EventListener.CompactionEnd(CompactionInfo{
			ReadVersion: snap.Version, Duration: time.Since(start), Err: err,
		})
		return Result{}, err
	}
	if set.Empty() {
		// Every unit was below the threshold (or the snapshot was
		// empty): compaction of an already-compact table is a no-op
		// and attempts no commit.
		opts.EventListener.CompactionEnd(CompactionInfo{
			ReadVersion: snap.Version, Duration: time.Since(start),
		})
		return Result{Version: snap.Version}, nil
	}
	if err := set.Validate(snap); err != nil {
		rollbackWritten(&opts, written)
		opts.EventListener.CompactionEnd(CompactionInfo{
			ReadVersion: snap.Version, Duration: time.Since(start), Err: err,
		})
		return Result{}, err
	}

	version, err := commitActions(ctx, &opts, snap.Version, set)
	if err != nil {
		rollbackWritten(&opts, written)
		opts.EventListener.CompactionEnd(CompactionInfo{
			ReadVersion: snap.Version, Duration: time.Since(start), Err: err,
		})
		return Result{}, err
	}

	opts.Metrics.Compactions.Inc()
	opts.Metrics.UnitsRewritten.Add(float64(stats.unitsRewritten))
	opts.Metrics.FilesWritten.Add(float64(len(set.Adds)))
	opts.Metrics.FilesRemoved.Add(float64(len(set.Removes)))

	sizes := make(map[string]int64, len(snap.Live))
	for i := range snap.Live {
		sizes[snap.Live[i].Path] = snap.Live[i].Size
	}
	cleanAfterCommit(&opts, version, set, sizes)

	opts.EventListener.CompactionEnd(CompactionInfo{
		ReadVersion:      snap.Version,
		CommittedVersion: version,
		UnitsRewritten:   stats.unitsRewritten,
		FilesIn:          stats.filesIn,
		FilesOut:         stats.filesOut,
		BytesIn:          stats.bytesIn,
		BytesOut:         stats.bytesOut,
		Duration:         time.Since(start),
	})
	return Result{Version: version, Records: set.Records()}, nil
}
