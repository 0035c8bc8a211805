// Copyright 2026 The Tidelake Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package tidelake

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the counters a compaction round advances. A Metrics may be
// shared by successive rounds and registered once with a prometheus
// registry.
type Metrics struct {
	// Compactions counts rounds that committed.
	Compactions prometheus.Counter
	// UnitsRewritten counts eligible units rewritten.
	UnitsRewritten prometheus.Counter
	// FilesWritten counts new data files produced by rewrites.
	FilesWritten prometheus.Counter
	// FilesRemoved counts data files superseded by committed rounds.
	FilesRemoved prometheus.Counter
	// CommitConflicts counts appends rejected by concurrent commits.
	CommitConflicts prometheus.Counter
	// CommitRetries counts retried appends.
	CommitRetries prometheus.Counter
	// SegmentsDeleted counts log segments and checkpoint markers removed
	// by retention.
	SegmentsDeleted prometheus.Counter
	// CleanupFailures counts best-effort post-commit deletions that
	// failed. Failures are logged, never propagated.
	CleanupFailures prometheus.Counter
	// RollbackFailures counts best-effort rollback deletions that
	// failed.
	RollbackFailures prometheus.Counter
}

func newCounter(name, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tidelake",
		Subsystem: "compaction",
		Name:      name,
		Help:      help,
	})
}

// NewMetrics returns a Metrics with fresh, unregistered counters.
func NewMetrics() *Metrics {
	return &Metrics{
		Compactions:      newCounter("total", "Compaction rounds committed."),
		UnitsRewritten:   newCounter("units_rewritten", "Compaction units rewritten."),
		FilesWritten:     newCounter("files_written", "Data files written by compaction."),
		FilesRemoved:     newCounter("files_removed", "Data files superseded by compaction."),
		CommitConflicts:  newCounter("commit_conflicts", "Commit attempts rejected by concurrent commits."),
		CommitRetries:    newCounter("commit_retries", "Commit attempts retried after a conflict."),
		SegmentsDeleted:  newCounter("segments_deleted", "Log segments and checkpoints deleted by retention."),
		CleanupFailures:  newCounter("cleanup_failures", "Failed best-effort post-commit deletions."),
		RollbackFailures: newCounter("rollback_failures", "Failed best-effort rollback deletions."),
	}
}

// MustRegister registers every counter with r, panicking on duplicate
// registration.
func (m *Metrics) MustRegister(r prometheus.Registerer) {
	r.MustRegister(
		m.Compactions,
		m.UnitsRewritten,
		m.FilesWritten,
		m.FilesRemoved,
		m.CommitConflicts,
		m.CommitRetries,
		m.SegmentsDeleted,
		m.CleanupFailures,
		m.RollbackFailures,
	)
}
