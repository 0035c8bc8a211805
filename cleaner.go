// Copyright 2026 The Tidelake Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package tidelake

import (
	"time"

	"github.com/cockroachdb/errors/oserror"
	"github.com/cockroachdb/tokenbucket"
	"github.com/tidelake/tidelake/datafile"
	"github.com/tidelake/tidelake/internal/manifest"
)

// cleanAfterCommit reclaims obsolete log history and superseded physical
// files. It runs only after a commit and is entirely best-effort: every
// failure is counted and reported through the event listener, never
// propagated, since reclamation affects storage usage but not table
// correctness or visibility.
//
// Deleting log segments below the committed version makes point-in-time
// reads of earlier versions unsupported; that is the documented trade-off
// of retention.
func cleanAfterCommit(
	opts *Options, committed int64, set *manifest.ActionSet, sizes map[string]int64,
) {
	if opts.CheckpointOnCommit {
		err := opts.Log.WriteCheckpoint(committed)
		opts.EventListener.CheckpointWritten(CheckpointInfo{Version: committed, Err: err})
		if err != nil {
			opts.Metrics.CleanupFailures.Inc()
		}
	}

	cleanLogHistory(opts, committed)
	reclaimFiles(opts, set, sizes)
}

// cleanLogHistory deletes segments and checkpoint markers that are
// guaranteed unreachable: strictly below the committed version and strictly
// below the latest checkpoint, so a later checkpoint always covers them for
// reconstructing the committed or any future snapshot.
func cleanLogHistory(opts *Options, committed int64) {
	latestCkpt, ok, err := opts.Log.LatestCheckpointVersion()
	if err != nil {
		opts.Metrics.CleanupFailures.Inc()
		opts.Logger.Errorf("tidelake: log retention skipped: %v", err)
		return
	}
	if !ok {
		return
	}
	limit := committed
	if latestCkpt < limit {
		limit = latestCkpt
	}

	segments, err := opts.Log.ListSegmentsFrom(1)
	if err != nil {
		opts.Metrics.CleanupFailures.Inc()
		opts.Logger.Errorf("tidelake: log retention skipped: %v", err)
		return
	}
	for _, seg := range segments {
		if seg.Version >= limit {
			break
		}
		err := opts.Log.DeleteSegment(seg.Version)
		if oserror.IsNotExist(err) {
			err = nil
		}
		opts.EventListener.SegmentDeleted(SegmentDeleteInfo{Version: seg.Version, Err: err})
		if err != nil {
			opts.Metrics.CleanupFailures.Inc()
		} else {
			opts.Metrics.SegmentsDeleted.Inc()
		}
	}

	checkpoints, err := opts.Log.ListCheckpoints()
	if err != nil {
		opts.Metrics.CleanupFailures.Inc()
		opts.Logger.Errorf("tidelake: log retention skipped: %v", err)
		return
	}
	for _, v := range checkpoints {
		if v >= limit {
			break
		}
		err := opts.Log.DeleteCheckpoint(v)
		if oserror.IsNotExist(err) {
			err = nil
		}
		opts.EventListener.SegmentDeleted(SegmentDeleteInfo{Version: v, Checkpoint: true, Err: err})
		if err != nil {
			opts.Metrics.CleanupFailures.Inc()
		} else {
			opts.Metrics.SegmentsDeleted.Inc()
		}
	}
}

// reclaimFiles deletes the physical files superseded by the committed
// action set, plus their checksum sidecars, pacing by file size when a
// deletion rate is configured.
func reclaimFiles(opts *Options, set *manifest.ActionSet, sizes map[string]int64) {
	var limiter tokenbucket.TokenBucket
	useLimiter := opts.TargetDeletionRate > 0
	if useLimiter {
		r := opts.TargetDeletionRate
		limiter.Init(tokenbucket.TokensPerSecond(r), tokenbucket.Tokens(r))
	}
	for i := range set.Removes {
		path := set.Removes[i].Path
		if useLimiter {
			for {
				ok, d := limiter.TryToFulfill(tokenbucket.Tokens(sizes[path]))
				if ok {
					break
				}
				time.Sleep(d)
			}
		}
		deleteDataFile(opts, path, false /* rollback */)
	}
}

// deleteDataFile removes a data file and its sidecar. Deletion is
// idempotent: an already-absent file is success.
func deleteDataFile(opts *Options, path string, rollback bool) {
	failures := opts.Metrics.CleanupFailures
	if rollback {
		failures = opts.Metrics.RollbackFailures
	}
	err := opts.Store.Delete(path)
	if oserror.IsNotExist(err) {
		err = nil
	}
	opts.EventListener.FileDeleted(FileDeleteInfo{Path: path, Rollback: rollback, Err: err})
	if err != nil {
		failures.Inc()
	}
	if err := opts.Store.Delete(datafile.SidecarPath(path)); err != nil && !oserror.IsNotExist(err) {
		opts.EventListener.FileDeleted(FileDeleteInfo{
			Path: datafile.SidecarPath(path), Rollback: rollback, Err: err,
		})
		failures.Inc()
	}
}
