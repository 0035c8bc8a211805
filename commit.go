// Copyright 2026 The Tidelake Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package tidelake

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/tidelake/tidelake/internal/manifest"
	"github.com/tidelake/tidelake/tablelog"
)

// ErrRetriesExhausted means every commit attempt was rejected by a
// concurrent intervening commit and the retry bound is spent.
var ErrRetriesExhausted = errors.New("tidelake: commit retries exhausted")

// commitActions appends the action set to the log under optimistic
// concurrency with bounded retry. Attempts are strictly sequential; a
// conflict refreshes the append's conditional base from the current head
// but never recomputes the action set. The retry state is carried in
// explicit locals, discarded on the terminal outcome.
func commitActions(
	ctx context.Context, opts *Options, readVersion int64, set *manifest.ActionSet,
) (int64, error) {
	base := readVersion
	attemptsRemaining := opts.MaxRetries
	for {
		res := opts.Log.Append(base, *set)
		switch res.Status {
		case tablelog.AppendCommitted:
			return res.Version, nil

		case tablelog.AppendConflict:
			opts.Metrics.CommitConflicts.Inc()
			opts.EventListener.CommitConflict(CommitConflictInfo{
				Base:              base,
				AttemptsRemaining: attemptsRemaining,
			})
			if attemptsRemaining == 0 {
				return 0, errors.Mark(
					errors.Newf("tidelake: version %d taken by a concurrent commit (%d retries used)",
						base+1, opts.MaxRetries),
					ErrRetriesExhausted)
			}
			attemptsRemaining--
			opts.Metrics.CommitRetries.Inc()
			if err := sleepCtx(ctx, opts.RetryBackoff); err != nil {
				return 0, err
			}
			head, err := opts.Log.Head()
			if err != nil {
				return 0, errors.Wrap(err, "tidelake: refreshing head after conflict")
			}
			base = head

		case tablelog.AppendFatal:
			return 0, errors.Wrap(res.Err, "tidelake: commit failed")

		default:
			panic(errors.Newf("unknown append status %d", res.Status))
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
