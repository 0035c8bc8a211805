// Copyright 2026 The Tidelake Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package manifest

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecordRoundTrip(t *testing.T) {
	recs := []Record{
		{Metadata: &TableMetadata{
			ID:               "t-1",
			Schema:           Schema{{Name: "id", Type: "long", NotNull: true}},
			PartitionColumns: []string{"date"},
		}},
		{Add: &Add{
			Path:            "date=2026-01-01/part-00000.rows",
			PartitionValues: map[string]string{"date": "2026-01-01"},
			Size:            128,
			Stats:           &FileStats{NumRows: 10},
		}},
		{Remove: &Remove{Path: "date=2026-01-01/old.rows", DeletionTimestamp: 1700000000000}},
	}
	data, err := EncodeRecords(recs)
	require.NoError(t, err)

	got, err := DecodeRecords(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, recs, got)
}

func TestRecordAction(t *testing.T) {
	add := Add{Path: "a.rows", Size: 1}
	rm := Remove{Path: "b.rows"}

	a, ok := Record{Add: &add}.Action()
	require.True(t, ok)
	require.Equal(t, "a.rows", a.FilePath())

	r, ok := Record{Remove: &rm}.Action()
	require.True(t, ok)
	require.Equal(t, "b.rows", r.FilePath())

	_, ok = Record{Metadata: &TableMetadata{}}.Action()
	require.False(t, ok)

	// The variant is closed: every action is an Add or a Remove.
	for _, act := range []Action{a, r} {
		switch act.(type) {
		case Add, Remove:
		default:
			t.Fatalf("unexpected action type %T", act)
		}
	}
}

func TestActionSetRecordsOrder(t *testing.T) {
	set := ActionSet{
		Adds:    []Add{{Path: "new-1.rows"}, {Path: "new-2.rows"}},
		Removes: []Remove{{Path: "old-1.rows"}, {Path: "old-2.rows"}},
	}
	recs := set.Records()
	require.Len(t, recs, 4)
	require.Equal(t, "new-1.rows", recs[0].Add.Path)
	require.Equal(t, "new-2.rows", recs[1].Add.Path)
	require.Equal(t, "old-1.rows", recs[2].Remove.Path)
	require.Equal(t, "old-2.rows", recs[3].Remove.Path)
}

func TestActionSetValidate(t *testing.T) {
	snap := &Snapshot{
		Version: 3,
		Live:    []Add{{Path: "live-1.rows"}, {Path: "live-2.rows"}},
	}

	ok := ActionSet{
		Adds:    []Add{{Path: "new.rows"}},
		Removes: []Remove{{Path: "live-1.rows"}, {Path: "live-2.rows"}},
	}
	require.NoError(t, ok.Validate(snap))

	removeNotLive := ActionSet{Removes: []Remove{{Path: "ghost.rows"}}}
	require.Error(t, removeNotLive.Validate(snap))

	addExisting := ActionSet{Adds: []Add{{Path: "live-1.rows"}}}
	require.Error(t, addExisting.Validate(snap))

	addDuplicate := ActionSet{Adds: []Add{{Path: "new.rows"}, {Path: "new.rows"}}}
	require.Error(t, addDuplicate.Validate(snap))
}

func TestDecodeRecordsSkipsBlankLines(t *testing.T) {
	data := []byte("\n{\"add\":{\"path\":\"a.rows\",\"size\":1}}\n\n")
	recs, err := DecodeRecords(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, "a.rows", recs[0].Add.Path)
}
