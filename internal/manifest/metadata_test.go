// Copyright 2026 The Tidelake Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package manifest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testMetadata() *TableMetadata {
	return &TableMetadata{
		ID: "t-1",
		Schema: Schema{
			{Name: "id", Type: "long", NotNull: true},
			{Name: "name", Type: "string"},
			{Name: "qty", Type: "long"},
		},
		PartitionColumns: []string{"region"},
		Constraints: []CheckConstraint{
			{Name: "qty_nonneg", Column: "qty", Op: CheckGE, Value: 0},
		},
	}
}

func TestValidateRow(t *testing.T) {
	meta := testMetadata()

	require.NoError(t, meta.ValidateRow(Row{"id": 1, "name": "a", "qty": 3}))
	// Null in a nullable column is fine.
	require.NoError(t, meta.ValidateRow(Row{"id": 1, "qty": 0}))
	// Check constraints accept null values; only NotNull rejects them.
	require.NoError(t, meta.ValidateRow(Row{"id": 1}))

	err := meta.ValidateRow(Row{"name": "a"})
	require.ErrorContains(t, err, "non-null column")

	err = meta.ValidateRow(Row{"id": 1, "qty": -2})
	require.ErrorContains(t, err, "qty_nonneg")

	// Numeric comparison is kind-insensitive: a float row value checks
	// against an int constraint literal.
	require.NoError(t, meta.ValidateRow(Row{"id": 1, "qty": float64(7)}))
}

func TestCheckConstraintOps(t *testing.T) {
	cases := []struct {
		op   CheckOp
		v    interface{}
		pass bool
	}{
		{CheckEQ, 5, true}, {CheckEQ, 4, false},
		{CheckNE, 4, true}, {CheckNE, 5, false},
		{CheckLT, 4, true}, {CheckLT, 5, false},
		{CheckLE, 5, true}, {CheckLE, 6, false},
		{CheckGT, 6, true}, {CheckGT, 5, false},
		{CheckGE, 5, true}, {CheckGE, 4, false},
	}
	for _, c := range cases {
		meta := &TableMetadata{
			Constraints: []CheckConstraint{{Name: "c", Column: "x", Op: c.op, Value: 5}},
		}
		err := meta.ValidateRow(Row{"x": c.v})
		if c.pass {
			require.NoErrorf(t, err, "x=%v %s 5", c.v, c.op)
		} else {
			require.Errorf(t, err, "x=%v %s 5", c.v, c.op)
		}
	}
}

func TestCanonicalPartition(t *testing.T) {
	require.Equal(t, "", CanonicalPartition(nil))
	require.Equal(t, "a=1", CanonicalPartition(map[string]string{"a": "1"}))
	// Columns are ordered by name regardless of map iteration.
	require.Equal(t, "a=1/b=2",
		CanonicalPartition(map[string]string{"b": "2", "a": "1"}))
}

func TestSamePartition(t *testing.T) {
	require.True(t, SamePartition(nil, map[string]string{}))
	require.True(t, SamePartition(map[string]string{"a": "1"}, map[string]string{"a": "1"}))
	require.False(t, SamePartition(map[string]string{"a": "1"}, map[string]string{"a": "2"}))
	require.False(t, SamePartition(map[string]string{"a": "1"}, map[string]string{"a": "1", "b": "2"}))
}

func TestSnapshotBuilder(t *testing.T) {
	meta := *testMetadata()
	b := NewBuilder()
	b.Apply(1, []Record{{Metadata: &meta}})
	b.Apply(2, []Record{
		{Add: &Add{Path: "b.rows", Size: 2}},
		{Add: &Add{Path: "a.rows", Size: 1}},
	})
	b.Apply(3, []Record{
		{Remove: &Remove{Path: "b.rows"}},
		{Add: &Add{Path: "c.rows", Size: 3}},
	})
	snap := b.Finish()
	require.EqualValues(t, 3, snap.Version)
	require.Equal(t, "t-1", snap.Metadata.ID)
	require.Len(t, snap.Live, 2)
	// Live files come back sorted by path.
	require.Equal(t, "a.rows", snap.Live[0].Path)
	require.Equal(t, "c.rows", snap.Live[1].Path)
}

func TestSnapshotBuilderFromBase(t *testing.T) {
	meta := *testMetadata()
	b := NewBuilder()
	b.SetBase(5, meta, []Add{{Path: "a.rows", Size: 1}, {Path: "b.rows", Size: 2}})
	b.Apply(6, []Record{{Remove: &Remove{Path: "a.rows"}}})
	snap := b.Finish()
	require.EqualValues(t, 6, snap.Version)
	require.Len(t, snap.Live, 1)
	require.Equal(t, "b.rows", snap.Live[0].Path)
}
