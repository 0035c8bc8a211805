// Copyright 2026 The Tidelake Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package tidelake

import (
	"runtime"
	"time"

	"github.com/tidelake/tidelake/datafile"
	"github.com/tidelake/tidelake/internal/base"
	"github.com/tidelake/tidelake/storage"
	"github.com/tidelake/tidelake/tablelog"
)

// Logger exports the base.Logger type.
type Logger = base.Logger

// DefaultLogger exports the base.DefaultLogger logger.
var DefaultLogger = base.DefaultLogger

// PartitionMatch is one column=value equality of a partition filter. A
// filter is the conjunction of its matches and may only reference declared
// partition columns.
type PartitionMatch struct {
	Column string
	Value  string
}

// Options holds the parameters for a compaction round.
type Options struct {
	// Store is the object store holding the table's data files and log.
	Store storage.Store

	// Log is the table's commit log.
	Log *tablelog.Log

	// TargetVersion is the version to compact as of. 0 means the log
	// head.
	TargetVersion int64

	// FilesPerDir is the number of output files each compacted unit is
	// rewritten into.
	//
	// The default is 1.
	FilesPerDir int

	// MinFilesPerUnit is the smallest file count that makes a unit
	// eligible for rewriting. Units below the threshold are skipped
	// entirely.
	//
	// The default is 1: every unit is eligible.
	MinFilesPerUnit int

	// MaxRetries bounds how many times a conflicting commit is retried
	// against the refreshed head. The action set is never recomputed.
	//
	// The default is 0: a conflicting first attempt fails the round.
	MaxRetries int

	// RetryBackoff is the fixed interval slept between conflicting
	// commit attempts.
	//
	// The default is 500ms.
	RetryBackoff time.Duration

	// PartitionFilter restricts the round to files whose partition
	// values satisfy every match. Nil compacts the whole table.
	PartitionFilter []PartitionMatch

	// RewriteConcurrency is the number of compaction units rewritten in
	// parallel.
	//
	// The default is GOMAXPROCS.
	RewriteConcurrency int

	// Codec selects the compression of rewritten data files.
	Codec datafile.Codec

	// CheckpointOnCommit writes a checkpoint at the committed version
	// before log retention runs, making retention effective every round.
	CheckpointOnCommit bool

	// TargetDeletionRate paces physical reclamation to roughly this many
	// bytes per second. 0 disables pacing.
	TargetDeletionRate int

	// Logger is used for messages not routed through EventListener.
	Logger Logger

	// EventListener receives notifications about round progress. Unset
	// hooks are filled with loggers during EnsureDefaults.
	EventListener *EventListener

	// Metrics accumulates counters across rounds. Optional; a round
	// without metrics allocates throwaway collectors.
	Metrics *Metrics
}

// EnsureDefaults ensures that the default values for all options are set if
// a valid value was not already specified. Returns the receiver for
// chaining.
func (o *Options) EnsureDefaults() *Options {
	if o.FilesPerDir <= 0 {
		o.FilesPerDir = 1
	}
	if o.MinFilesPerUnit <= 0 {
		o.MinFilesPerUnit = 1
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 500 * time.Millisecond
	}
	if o.RewriteConcurrency <= 0 {
		o.RewriteConcurrency = runtime.GOMAXPROCS(0)
	}
	if o.Logger == nil {
		o.Logger = DefaultLogger
	}
	if o.EventListener == nil {
		o.EventListener = &EventListener{}
	}
	o.EventListener.EnsureDefaults(o.Logger)
	if o.Metrics == nil {
		o.Metrics = NewMetrics()
	}
	return o
}
