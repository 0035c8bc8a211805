// Copyright 2026 The Tidelake Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package tidelake

import (
	"time"

	"github.com/cockroachdb/redact"
	"github.com/tidelake/tidelake/internal/base"
)

// CompactionInfo contains the info for a compaction event.
type CompactionInfo struct {
	ReadVersion      int64
	CommittedVersion int64
	// UnitsRewritten counts the units at or above the eligibility
	// threshold; skipped units are not included.
	UnitsRewritten int
	FilesIn        int
	FilesOut       int
	BytesIn        int64
	BytesOut       int64
	Duration       time.Duration
	Err            error
}

func (i CompactionInfo) String() string {
	return redact.StringWithoutMarkers(i)
}

// SafeFormat implements redact.SafeFormatter.
func (i CompactionInfo) SafeFormat(w redact.SafePrinter, _ rune) {
	if i.Err != nil {
		w.Printf("compaction of version %d failed: %v", redact.Safe(i.ReadVersion), i.Err)
		return
	}
	if i.CommittedVersion == 0 {
		w.Printf("compaction of version %d was a no-op", redact.Safe(i.ReadVersion))
		return
	}
	w.Printf("compacted version %d -> %d (%d units, %d -> %d files, %d -> %d bytes) in %.1fs",
		redact.Safe(i.ReadVersion), redact.Safe(i.CommittedVersion),
		redact.Safe(i.UnitsRewritten), redact.Safe(i.FilesIn), redact.Safe(i.FilesOut),
		redact.Safe(i.BytesIn), redact.Safe(i.BytesOut), redact.Safe(i.Duration.Seconds()))
}

// CommitConflictInfo contains the info for a commit conflict event.
type CommitConflictInfo struct {
	// Base is the version the rejected append was conditioned on.
	Base              int64
	AttemptsRemaining int
}

func (i CommitConflictInfo) String() string {
	return redact.StringWithoutMarkers(i)
}

// SafeFormat implements redact.SafeFormatter.
func (i CommitConflictInfo) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Printf("commit conflict at version %d (%d attempts remaining)",
		redact.Safe(i.Base+1), redact.Safe(i.AttemptsRemaining))
}

// SegmentDeleteInfo contains the info for a log segment deletion event.
type SegmentDeleteInfo struct {
	Version int64
	// Checkpoint is true when the deleted file is a checkpoint marker
	// rather than a segment.
	Checkpoint bool
	Err        error
}

func (i SegmentDeleteInfo) String() string {
	return redact.StringWithoutMarkers(i)
}

// SafeFormat implements redact.SafeFormatter.
func (i SegmentDeleteInfo) SafeFormat(w redact.SafePrinter, _ rune) {
	kind := redact.SafeString("segment")
	if i.Checkpoint {
		kind = "checkpoint"
	}
	if i.Err != nil {
		w.Printf("log %s %d deletion failed: %v", kind, redact.Safe(i.Version), i.Err)
		return
	}
	w.Printf("log %s %d deleted", kind, redact.Safe(i.Version))
}

// FileDeleteInfo contains the info for a data file deletion event, during
// either post-commit cleanup or rollback.
type FileDeleteInfo struct {
	Path     string
	Rollback bool
	Err      error
}

func (i FileDeleteInfo) String() string {
	return redact.StringWithoutMarkers(i)
}

// SafeFormat implements redact.SafeFormatter.
func (i FileDeleteInfo) SafeFormat(w redact.SafePrinter, _ rune) {
	reason := redact.SafeString("cleanup")
	if i.Rollback {
		reason = "rollback"
	}
	if i.Err != nil {
		w.Printf("%s deletion of %s failed: %v", reason, i.Path, i.Err)
		return
	}
	w.Printf("%s deleted %s", reason, i.Path)
}

// CheckpointInfo contains the info for a checkpoint write event.
type CheckpointInfo struct {
	Version int64
	Err     error
}

func (i CheckpointInfo) String() string {
	return redact.StringWithoutMarkers(i)
}

// SafeFormat implements redact.SafeFormatter.
func (i CheckpointInfo) SafeFormat(w redact.SafePrinter, _ rune) {
	if i.Err != nil {
		w.Printf("checkpoint at version %d failed: %v", redact.Safe(i.Version), i.Err)
		return
	}
	w.Printf("checkpoint written at version %d", redact.Safe(i.Version))
}

// EventListener contains a set of functions that will be invoked when
// various significant compaction events occur. Note that the functions
// should not run for an excessive amount of time as they are invoked
// synchronously and block further progress of the round.
type EventListener struct {
	// CompactionEnd is invoked once per round, after the terminal
	// outcome is known.
	CompactionEnd func(CompactionInfo)

	// CommitConflict is invoked each time an append is rejected by a
	// concurrent intervening commit.
	CommitConflict func(CommitConflictInfo)

	// SegmentDeleted is invoked after each log retention deletion
	// attempt.
	SegmentDeleted func(SegmentDeleteInfo)

	// FileDeleted is invoked after each physical file deletion attempt.
	FileDeleted func(FileDeleteInfo)

	// CheckpointWritten is invoked after a post-commit checkpoint
	// attempt.
	CheckpointWritten func(CheckpointInfo)
}

// EnsureDefaults ensures that background error events are logged to the
// given logger if a handler was not previously installed, and fills any
// unspecified handlers with no-ops.
func (l *EventListener) EnsureDefaults(logger base.Logger) {
	if l.CompactionEnd == nil {
		l.CompactionEnd = func(CompactionInfo) {}
	}
	if l.CommitConflict == nil {
		l.CommitConflict = func(CommitConflictInfo) {}
	}
	if l.SegmentDeleted == nil {
		l.SegmentDeleted = func(i SegmentDeleteInfo) {
			if i.Err != nil {
				logger.Errorf("%s", i)
			}
		}
	}
	if l.FileDeleted == nil {
		l.FileDeleted = func(i FileDeleteInfo) {
			if i.Err != nil {
				logger.Errorf("%s", i)
			}
		}
	}
	if l.CheckpointWritten == nil {
		l.CheckpointWritten = func(i CheckpointInfo) {
			if i.Err != nil {
				logger.Errorf("%s", i)
			}
		}
	}
}

// MakeLoggingEventListener creates an EventListener that logs all events to
// the given logger.
func MakeLoggingEventListener(logger base.Logger) EventListener {
	if logger == nil {
		logger = base.DefaultLogger
	}
	return EventListener{
		CompactionEnd: func(i CompactionInfo) {
			logger.Infof("%s", i)
		},
		CommitConflict: func(i CommitConflictInfo) {
			logger.Infof("%s", i)
		},
		SegmentDeleted: func(i SegmentDeleteInfo) {
			logger.Infof("%s", i)
		},
		FileDeleted: func(i FileDeleteInfo) {
			logger.Infof("%s", i)
		},
		CheckpointWritten: func(i CheckpointInfo) {
			logger.Infof("%s", i)
		},
	}
}
