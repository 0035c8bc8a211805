// Copyright 2026 The Tidelake Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package manifest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/cockroachdb/errors"
)

// Action describes one file's entry into or exit from the table's live-file
// set. It is a closed variant: Add and Remove are the only implementations,
// and code switching over an Action must handle exactly those two cases.
type Action interface {
	// FilePath returns the table-relative path of the data file the action
	// refers to.
	FilePath() string

	isAction()
}

// FileStats holds per-file statistics recorded on an Add.
type FileStats struct {
	NumRows int64 `json:"numRows"`
}

// Add records a data file entering the live-file set. An Add is immutable
// once constructed.
type Add struct {
	// Path is the file's path relative to the table root, always
	// /-separated.
	Path string `json:"path"`
	// PartitionValues holds the partition column values the file belongs
	// to. Empty for unpartitioned tables.
	PartitionValues map[string]string `json:"partitionValues,omitempty"`
	// Size is the file's size in bytes.
	Size int64 `json:"size"`
	// Stats are optional; files written by older writers may lack them.
	Stats *FileStats `json:"stats,omitempty"`
}

// FilePath implements the Action interface.
func (a Add) FilePath() string { return a.Path }

func (Add) isAction() {}

// Remove records a data file leaving the live-file set. The file itself is
// reclaimed later, after the removal has committed.
type Remove struct {
	Path string `json:"path"`
	// DeletionTimestamp is the wall-clock time the removal was decided,
	// in milliseconds since the Unix epoch.
	DeletionTimestamp int64 `json:"deletionTimestamp"`
}

// FilePath implements the Action interface.
func (r Remove) FilePath() string { return r.Path }

func (Remove) isAction() {}

// Record is the serialized form of a single log entry: exactly one of the
// fields is set. Segment files hold one JSON-encoded Record per line.
type Record struct {
	Add      *Add           `json:"add,omitempty"`
	Remove   *Remove        `json:"remove,omitempty"`
	Metadata *TableMetadata `json:"metadata,omitempty"`
}

// Action returns the Add or Remove carried by the record, or false for a
// metadata record.
func (r Record) Action() (Action, bool) {
	switch {
	case r.Add != nil:
		return *r.Add, true
	case r.Remove != nil:
		return *r.Remove, true
	default:
		return nil, false
	}
}

func (r Record) String() string {
	switch {
	case r.Add != nil:
		return fmt.Sprintf("add %s (%d bytes)", r.Add.Path, r.Add.Size)
	case r.Remove != nil:
		return fmt.Sprintf("remove %s", r.Remove.Path)
	case r.Metadata != nil:
		return fmt.Sprintf("metadata %s", r.Metadata.ID)
	default:
		return "empty record"
	}
}

// ActionSet is the atomic unit proposed for commit: the files a compaction
// adds and the files it supersedes.
type ActionSet struct {
	Adds    []Add
	Removes []Remove
}

// Empty reports whether the set carries no actions.
func (s *ActionSet) Empty() bool {
	return len(s.Adds) == 0 && len(s.Removes) == 0
}

// Records returns the set's serialized form, adds first, preserving order
// within each kind.
func (s *ActionSet) Records() []Record {
	recs := make([]Record, 0, len(s.Adds)+len(s.Removes))
	for i := range s.Adds {
		a := s.Adds[i]
		recs = append(recs, Record{Add: &a})
	}
	for i := range s.Removes {
		r := s.Removes[i]
		recs = append(recs, Record{Remove: &r})
	}
	return recs
}

// Validate checks the set against the snapshot it was derived from: every
// removed path must be live in the snapshot, and every added path must be
// new, distinct from any live path and from every other added path.
func (s *ActionSet) Validate(snap *Snapshot) error {
	live := make(map[string]bool, len(snap.Live))
	for i := range snap.Live {
		live[snap.Live[i].Path] = true
	}
	for i := range s.Removes {
		if !live[s.Removes[i].Path] {
			return errors.Newf("manifest: remove of %q which is not live at version %d",
				s.Removes[i].Path, snap.Version)
		}
	}
	added := make(map[string]bool, len(s.Adds))
	for i := range s.Adds {
		p := s.Adds[i].Path
		if live[p] {
			return errors.Newf("manifest: add of %q which is already live at version %d",
				p, snap.Version)
		}
		if added[p] {
			return errors.Newf("manifest: duplicate add of %q", p)
		}
		added[p] = true
	}
	return nil
}

// EncodeRecords writes records as JSON lines.
func EncodeRecords(recs []Record) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i := range recs {
		if err := enc.Encode(&recs[i]); err != nil {
			return nil, errors.Wrap(err, "manifest: encoding record")
		}
	}
	return buf.Bytes(), nil
}

// DecodeRecords reads JSON-line records until EOF.
func DecodeRecords(r io.Reader) ([]Record, error) {
	var recs []Record
	sc := bufio.NewScanner(r)
	sc.Buffer(nil, 16<<20)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, errors.Wrap(err, "manifest: decoding record")
		}
		recs = append(recs, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "manifest: reading records")
	}
	return recs, nil
}
