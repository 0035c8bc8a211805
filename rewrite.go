// Copyright 2026 The Tidelake Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package tidelake

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/tidelake/tidelake/datafile"
	"github.com/tidelake/tidelake/internal/manifest"
	"golang.org/x/sync/errgroup"
)

type rewriteStats struct {
	unitsRewritten int
	filesIn        int
	filesOut       int
	bytesIn        int64
	bytesOut       int64
}

// unitResult is filled by exactly one worker; workers share no state.
type unitResult struct {
	adds    []manifest.Add
	removes []manifest.Remove
	// written records every output path handed to storage, including
	// those of a unit that failed partway. Rollback deletes them all.
	written  []string
	bytesIn  int64
	bytesOut int64
}

// rewriteUnits merges each eligible unit's files into opts.FilesPerDir new
// files, written to storage before any commit attempt. Units are rewritten
// in parallel; results are merged in unit order so the produced action set
// is deterministic. The returned written list covers every path handed to
// storage regardless of outcome.
func rewriteUnits(
	ctx context.Context,
	opts *Options,
	snap *manifest.Snapshot,
	units []CompactionUnit,
	deletionTimestamp int64,
) (*manifest.ActionSet, []string, rewriteStats, error) {
	results := make([]unitResult, len(units))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.RewriteConcurrency)
	for i := range units {
		if len(units[i].Files) < opts.MinFilesPerUnit {
			// An already-compact unit is a no-op: zero files
			// written, zero actions produced.
			continue
		}
		i := i
		g.Go(func() error {
			if gctx.Err() != nil {
				// Another unit failed before this one started.
				// A started unit always runs to completion.
				return nil
			}
			return rewriteUnit(opts, snap, &units[i], &results[i], deletionTimestamp)
		})
	}
	err := g.Wait()
	if err == nil {
		// Cancellation with no failed unit still ends the round; an empty
		// result must not read as a successfully compacted table.
		err = ctx.Err()
	}

	var set manifest.ActionSet
	var written []string
	var stats rewriteStats
	for i := range results {
		written = append(written, results[i].written...)
		if err != nil {
			continue
		}
		if len(results[i].adds) > 0 {
			stats.unitsRewritten++
			stats.filesIn += len(results[i].removes)
			stats.filesOut += len(results[i].adds)
			stats.bytesIn += results[i].bytesIn
			stats.bytesOut += results[i].bytesOut
		}
		set.Adds = append(set.Adds, results[i].adds...)
		set.Removes = append(set.Removes, results[i].removes...)
	}
	if err != nil {
		return nil, written, rewriteStats{}, err
	}
	return &set, written, stats, nil
}

func rewriteUnit(
	opts *Options,
	snap *manifest.Snapshot,
	unit *CompactionUnit,
	res *unitResult,
	deletionTimestamp int64,
) error {
	var rows []manifest.Row
	for i := range unit.Files {
		fileRows, err := datafile.Read(opts.Store, unit.Files[i].Path)
		if err != nil {
			return err
		}
		rows = append(rows, fileRows...)
		res.bytesIn += unit.Files[i].Size
	}

	spec := datafile.WriteSpec{Metadata: &snap.Metadata, Codec: opts.Codec}
	n := opts.FilesPerDir
	for i := 0; i < n; i++ {
		// Rows are split into n contiguous, balanced chunks; trailing
		// chunks may be empty when a unit has fewer rows than outputs.
		lo := i * len(rows) / n
		hi := (i + 1) * len(rows) / n
		path := outputPath(unit.Prefix, i)
		res.written = append(res.written, path)
		w := datafile.NewWriter(opts.Store, path, spec)
		for _, row := range rows[lo:hi] {
			if err := w.Add(row); err != nil {
				return err
			}
		}
		desc, err := w.Close()
		if err != nil {
			return err
		}
		res.adds = append(res.adds, manifest.Add{
			Path:            path,
			PartitionValues: unit.Partition,
			Size:            desc.Size,
			Stats:           &manifest.FileStats{NumRows: desc.Rows},
		})
		res.bytesOut += desc.Size
	}
	for i := range unit.Files {
		res.removes = append(res.removes, manifest.Remove{
			Path:              unit.Files[i].Path,
			DeletionTimestamp: deletionTimestamp,
		})
	}
	return nil
}

// outputPath names a rewritten file under the unit's original directory
// prefix. The random component keeps concurrent jobs from clobbering each
// other's output.
func outputPath(prefix string, seq int) string {
	name := fmt.Sprintf("part-%05d-%s.rows", seq, uuid.NewString())
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}
