// Copyright 2026 The Tidelake Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// Package tablelog implements a table's append-only commit log: an arena of
// segment files indexed by monotonically increasing version numbers, plus
// periodic checkpoints that materialize the state at a version and bound
// how far back reconstruction has to replay.
//
// The log is the table's linearization point. Appending at version v+1 is a
// compare-and-append: the segment file for the slot is created exclusively,
// so of any number of concurrent writers exactly one occupies the slot and
// the rest observe a conflict.
package tablelog

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/oserror"
	"github.com/tidelake/tidelake/internal/manifest"
	"github.com/tidelake/tidelake/storage"
)

// ErrVersionNotFound means the requested version is not present in the log
// history, either because it was never committed or because retention has
// deleted the segments needed to reconstruct it.
var ErrVersionNotFound = errors.New("tablelog: version not in log history")

// ErrExists means Create was called on a store that already holds a log.
var ErrExists = errors.New("tablelog: log already exists")

// Log provides access to the commit log stored under DirName in a Store.
type Log struct {
	store storage.Store
}

// Open returns a Log reading from and appending to store. It does not
// verify that a log is present; Head reports 0 for an empty store.
func Open(store storage.Store) *Log {
	return &Log{store: store}
}

// Create initializes a new table: version 1 carries the table metadata and
// a checkpoint is recorded at it, so a fresh table satisfies the positive
// version and checkpoint requirements of every reader.
func Create(store storage.Store, meta manifest.TableMetadata) (*Log, error) {
	l := Open(store)
	head, err := l.Head()
	if err != nil {
		return nil, err
	}
	if head > 0 {
		return nil, errors.Mark(
			errors.Newf("tablelog: store already holds a log at version %d", head), ErrExists)
	}
	data, err := manifest.EncodeRecords([]manifest.Record{{Metadata: &meta}})
	if err != nil {
		return nil, err
	}
	if err := store.CreateExclusive(segmentPath(1), data); err != nil {
		return nil, errors.Wrap(err, "tablelog: creating log")
	}
	if err := l.WriteCheckpoint(1); err != nil {
		return nil, err
	}
	return l, nil
}

// SegmentInfo describes one segment file.
type SegmentInfo struct {
	Version int64
	Path    string
	Size    int64
}

func (l *Log) list() (segments []SegmentInfo, checkpoints []int64, err error) {
	infos, err := l.store.List(DirName + "/")
	if err != nil {
		return nil, nil, errors.Wrap(err, "tablelog: listing log")
	}
	for _, fi := range infos {
		v, kind, ok := parseLogPath(fi.Path)
		if !ok {
			continue
		}
		switch kind {
		case fileKindSegment:
			segments = append(segments, SegmentInfo{Version: v, Path: fi.Path, Size: fi.Size})
		case fileKindCheckpoint:
			checkpoints = append(checkpoints, v)
		}
	}
	// Store listings are sorted by path and versions are zero-padded, so
	// both slices are already in version order.
	return segments, checkpoints, nil
}

// Head returns the highest committed version, or 0 for an empty log.
func (l *Log) Head() (int64, error) {
	segments, checkpoints, err := l.list()
	if err != nil {
		return 0, err
	}
	var head int64
	if n := len(segments); n > 0 {
		head = segments[n-1].Version
	}
	if n := len(checkpoints); n > 0 && checkpoints[n-1] > head {
		head = checkpoints[n-1]
	}
	return head, nil
}

// LatestCheckpointVersion returns the highest checkpointed version.
// ok is false when the log has no checkpoint.
func (l *Log) LatestCheckpointVersion() (v int64, ok bool, err error) {
	_, checkpoints, err := l.list()
	if err != nil {
		return 0, false, err
	}
	if len(checkpoints) == 0 {
		return 0, false, nil
	}
	return checkpoints[len(checkpoints)-1], true, nil
}

// ListSegmentsFrom returns segments with version >= v, in version order.
func (l *Log) ListSegmentsFrom(v int64) ([]SegmentInfo, error) {
	segments, _, err := l.list()
	if err != nil {
		return nil, err
	}
	out := segments[:0:0]
	for _, s := range segments {
		if s.Version >= v {
			out = append(out, s)
		}
	}
	return out, nil
}

// ListCheckpoints returns every checkpointed version, in version order.
func (l *Log) ListCheckpoints() ([]int64, error) {
	_, checkpoints, err := l.list()
	return checkpoints, err
}

// checkpointFile is the serialized form of a checkpoint.
type checkpointFile struct {
	Version  int64                  `json:"version"`
	Metadata manifest.TableMetadata `json:"metadata"`
	Live     []manifest.Add         `json:"live"`
}

func (l *Log) readCheckpoint(v int64) (*checkpointFile, error) {
	data, err := l.store.ReadFile(checkpointPath(v))
	if err != nil {
		return nil, errors.Wrapf(err, "tablelog: reading checkpoint %d", v)
	}
	var ck checkpointFile
	if err := json.Unmarshal(data, &ck); err != nil {
		return nil, errors.Wrapf(err, "tablelog: decoding checkpoint %d", v)
	}
	return &ck, nil
}

// ReadSegment returns the records committed at exactly version v.
func (l *Log) ReadSegment(v int64) ([]manifest.Record, error) {
	data, err := l.store.ReadFile(segmentPath(v))
	if err != nil {
		if oserror.IsNotExist(err) {
			return nil, errors.Mark(
				errors.Newf("tablelog: segment %d not found", v), ErrVersionNotFound)
		}
		return nil, errors.Wrapf(err, "tablelog: reading segment %d", v)
	}
	return manifest.DecodeRecords(bytes.NewReader(data))
}

// ReadSnapshot reconstructs the table state as of version. It starts from
// the latest checkpoint at or before the version and replays the segments
// after it. Missing history yields ErrVersionNotFound.
func (l *Log) ReadSnapshot(version int64) (*manifest.Snapshot, error) {
	if version < 1 {
		return nil, errors.Mark(
			errors.Newf("tablelog: version %d not committed", version), ErrVersionNotFound)
	}
	segments, checkpoints, err := l.list()
	if err != nil {
		return nil, err
	}
	head := int64(0)
	if n := len(segments); n > 0 {
		head = segments[n-1].Version
	}
	if n := len(checkpoints); n > 0 && checkpoints[n-1] > head {
		head = checkpoints[n-1]
	}
	if version > head {
		return nil, errors.Mark(
			errors.Newf("tablelog: version %d beyond head %d", version, head), ErrVersionNotFound)
	}

	b := manifest.NewBuilder()
	base := int64(0)
	for _, cv := range checkpoints {
		if cv <= version && cv > base {
			base = cv
		}
	}
	if base > 0 {
		ck, err := l.readCheckpoint(base)
		if err != nil {
			return nil, err
		}
		b.SetBase(ck.Version, ck.Metadata, ck.Live)
	}
	have := make(map[int64]bool, len(segments))
	for _, s := range segments {
		have[s.Version] = true
	}
	for v := base + 1; v <= version; v++ {
		if !have[v] {
			return nil, errors.Mark(
				errors.Newf("tablelog: segment %d missing reconstructing version %d", v, version),
				ErrVersionNotFound)
		}
		recs, err := l.ReadSegment(v)
		if err != nil {
			return nil, err
		}
		b.Apply(v, recs)
	}
	return b.Finish(), nil
}

// AppendStatus is the outcome kind of an Append.
type AppendStatus int8

const (
	// AppendCommitted means the action set occupies a new version slot.
	AppendCommitted AppendStatus = iota
	// AppendConflict means a concurrent commit took the slot first. The
	// caller may retry against the new head.
	AppendConflict
	// AppendFatal means the append failed for a reason retrying cannot
	// cure.
	AppendFatal
)

// String implements fmt.Stringer.
func (s AppendStatus) String() string {
	switch s {
	case AppendCommitted:
		return "committed"
	case AppendConflict:
		return "conflict"
	case AppendFatal:
		return "fatal"
	default:
		return fmt.Sprintf("AppendStatus(%d)", s)
	}
}

// AppendResult is the explicit three-way outcome of an Append. Version is
// meaningful only for AppendCommitted; Err only for AppendFatal.
type AppendResult struct {
	Status  AppendStatus
	Version int64
	Err     error
}

// Append proposes set as version base+1, conditioned on the head not having
// moved past base. The condition is enforced by the slot itself: if any
// writer already occupies base+1 the exclusive create fails and the result
// is AppendConflict.
func (l *Log) Append(base int64, set manifest.ActionSet) AppendResult {
	data, err := manifest.EncodeRecords(set.Records())
	if err != nil {
		return AppendResult{Status: AppendFatal, Err: err}
	}
	next := base + 1
	if err := l.store.CreateExclusive(segmentPath(next), data); err != nil {
		if oserror.IsExist(err) {
			return AppendResult{Status: AppendConflict}
		}
		return AppendResult{Status: AppendFatal, Err: errors.Wrapf(err, "tablelog: appending version %d", next)}
	}
	return AppendResult{Status: AppendCommitted, Version: next}
}

// WriteCheckpoint materializes the state at version as a checkpoint file.
// An existing checkpoint at the version is replaced.
func (l *Log) WriteCheckpoint(version int64) error {
	snap, err := l.ReadSnapshot(version)
	if err != nil {
		return err
	}
	data, err := json.Marshal(checkpointFile{
		Version:  snap.Version,
		Metadata: snap.Metadata,
		Live:     snap.Live,
	})
	if err != nil {
		return errors.Wrapf(err, "tablelog: encoding checkpoint %d", version)
	}
	if err := l.store.WriteFile(checkpointPath(version), data); err != nil {
		return errors.Wrapf(err, "tablelog: writing checkpoint %d", version)
	}
	return nil
}

// DeleteSegment removes the segment at version v.
func (l *Log) DeleteSegment(v int64) error {
	return l.store.Delete(segmentPath(v))
}

// DeleteCheckpoint removes the checkpoint at version v.
func (l *Log) DeleteCheckpoint(v int64) error {
	return l.store.Delete(checkpointPath(v))
}
