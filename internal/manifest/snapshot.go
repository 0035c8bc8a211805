// Copyright 2026 The Tidelake Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package manifest

import "sort"

// Snapshot is the reconstructed live-file state of a table as of a committed
// version. It is derived and read-only; a compaction round builds one and
// never mutates it.
type Snapshot struct {
	Version  int64
	Metadata TableMetadata
	// Live holds one Add per live data file, sorted by path.
	Live []Add
}

// Builder accumulates log records in version order and materializes a
// Snapshot. Replaying an add inserts (or replaces) the file; a remove drops
// it; a metadata record supersedes the previous metadata.
type Builder struct {
	version int64
	meta    TableMetadata
	hasMeta bool
	live    map[string]Add
}

// NewBuilder returns a Builder with no state applied.
func NewBuilder() *Builder {
	return &Builder{live: make(map[string]Add)}
}

// SetBase seeds the builder from checkpointed state at the given version.
func (b *Builder) SetBase(version int64, meta TableMetadata, live []Add) {
	b.version = version
	b.meta = meta
	b.hasMeta = true
	for i := range live {
		b.live[live[i].Path] = live[i]
	}
}

// Apply replays one version's records on top of the current state.
func (b *Builder) Apply(version int64, recs []Record) {
	b.version = version
	for i := range recs {
		switch {
		case recs[i].Add != nil:
			b.live[recs[i].Add.Path] = *recs[i].Add
		case recs[i].Remove != nil:
			delete(b.live, recs[i].Remove.Path)
		case recs[i].Metadata != nil:
			b.meta = *recs[i].Metadata
			b.hasMeta = true
		}
	}
}

// Finish materializes the snapshot. The live file list is sorted by path so
// snapshots are deterministic regardless of replay details.
func (b *Builder) Finish() *Snapshot {
	live := make([]Add, 0, len(b.live))
	for _, a := range b.live {
		live = append(live, a)
	}
	sort.Slice(live, func(i, j int) bool { return live[i].Path < live[j].Path })
	return &Snapshot{Version: b.version, Metadata: b.meta, Live: live}
}
