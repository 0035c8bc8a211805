// Copyright 2026 The Tidelake Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package datafile

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tidelake/tidelake/internal/manifest"
	"github.com/tidelake/tidelake/storage"
)

func testMeta() *manifest.TableMetadata {
	return &manifest.TableMetadata{
		ID: "t-1",
		Schema: manifest.Schema{
			{Name: "id", Type: "long", NotNull: true},
			{Name: "qty", Type: "long"},
		},
		Constraints: []manifest.CheckConstraint{
			{Name: "qty_nonneg", Column: "qty", Op: manifest.CheckGE, Value: 0},
		},
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	for _, codec := range []Codec{SnappyCodec, ZstdCodec} {
		t.Run(codec.String(), func(t *testing.T) {
			store := storage.NewMem()
			w := NewWriter(store, "part-0.rows", WriteSpec{Metadata: testMeta(), Codec: codec})
			require.NoError(t, w.Add(manifest.Row{"id": 1, "qty": 5}))
			require.NoError(t, w.Add(manifest.Row{"id": 2}))
			desc, err := w.Close()
			require.NoError(t, err)
			require.Equal(t, "part-0.rows", desc.Path)
			require.EqualValues(t, 2, desc.Rows)
			require.Positive(t, desc.Size)

			// The sidecar is written alongside the file.
			_, err = store.ReadFile(SidecarPath("part-0.rows"))
			require.NoError(t, err)

			rows, err := Read(store, "part-0.rows")
			require.NoError(t, err)
			require.Len(t, rows, 2)
			// JSON numbers decode as float64.
			require.Equal(t, float64(1), rows[0]["id"])
			require.Equal(t, float64(5), rows[0]["qty"])
		})
	}
}

func TestWriterRejectsInvalidRows(t *testing.T) {
	store := storage.NewMem()
	w := NewWriter(store, "part-0.rows", WriteSpec{Metadata: testMeta()})
	require.ErrorContains(t, w.Add(manifest.Row{"qty": 1}), "non-null")
	require.ErrorContains(t, w.Add(manifest.Row{"id": 1, "qty": -1}), "qty_nonneg")
	// The writer stays usable after a rejected row.
	require.NoError(t, w.Add(manifest.Row{"id": 1, "qty": 1}))
	desc, err := w.Close()
	require.NoError(t, err)
	require.EqualValues(t, 1, desc.Rows)
}

func TestEmptyFile(t *testing.T) {
	store := storage.NewMem()
	w := NewWriter(store, "empty.rows", WriteSpec{})
	desc, err := w.Close()
	require.NoError(t, err)
	require.EqualValues(t, 0, desc.Rows)

	rows, err := Read(store, "empty.rows")
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestReadChecksumMismatch(t *testing.T) {
	store := storage.NewMem()
	w := NewWriter(store, "a.rows", WriteSpec{})
	require.NoError(t, w.Add(manifest.Row{"id": 1}))
	_, err := w.Close()
	require.NoError(t, err)

	require.NoError(t, store.WriteFile(SidecarPath("a.rows"), []byte("0000000000000000")))
	_, err = Read(store, "a.rows")
	require.ErrorIs(t, err, ErrCorrupt)
}

func TestReadMissingSidecarTolerated(t *testing.T) {
	store := storage.NewMem()
	w := NewWriter(store, "a.rows", WriteSpec{})
	require.NoError(t, w.Add(manifest.Row{"id": 1}))
	_, err := w.Close()
	require.NoError(t, err)

	require.NoError(t, store.Delete(SidecarPath("a.rows")))
	rows, err := Read(store, "a.rows")
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestReadBadMagic(t *testing.T) {
	store := storage.NewMem()
	require.NoError(t, store.WriteFile("junk.rows", []byte("not a data file")))
	_, err := Read(store, "junk.rows")
	require.ErrorIs(t, err, ErrCorrupt)
}
