// Copyright 2026 The Tidelake Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package storage

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/oserror"
	"github.com/stretchr/testify/require"
)

// Both implementations must behave identically; the compactor is developed
// against MemStore and deployed against Local.
func runStoreTest(t *testing.T, name string, fn func(t *testing.T, s Store)) {
	t.Run(name+"/mem", func(t *testing.T) { fn(t, NewMem()) })
	t.Run(name+"/local", func(t *testing.T) { fn(t, NewLocal(t.TempDir())) })
}

func TestStoreReadWrite(t *testing.T) {
	runStoreTest(t, "read-write", func(t *testing.T, s Store) {
		require.NoError(t, s.WriteFile("dir/a.rows", []byte("one")))
		data, err := s.ReadFile("dir/a.rows")
		require.NoError(t, err)
		require.Equal(t, []byte("one"), data)

		// Overwrite replaces contents.
		require.NoError(t, s.WriteFile("dir/a.rows", []byte("two")))
		data, err = s.ReadFile("dir/a.rows")
		require.NoError(t, err)
		require.Equal(t, []byte("two"), data)

		_, err = s.ReadFile("missing")
		require.True(t, oserror.IsNotExist(err))
	})
}

func TestStoreCreateExclusive(t *testing.T) {
	runStoreTest(t, "create-exclusive", func(t *testing.T, s Store) {
		require.NoError(t, s.CreateExclusive("slot", []byte("first")))
		err := s.CreateExclusive("slot", []byte("second"))
		require.True(t, oserror.IsExist(err), "got %v", err)

		// The loser's write must not clobber the winner's.
		data, err := s.ReadFile("slot")
		require.NoError(t, err)
		require.Equal(t, []byte("first"), data)
	})
}

func TestStoreDelete(t *testing.T) {
	runStoreTest(t, "delete", func(t *testing.T, s Store) {
		require.NoError(t, s.WriteFile("a", nil))
		require.NoError(t, s.Delete("a"))
		require.True(t, oserror.IsNotExist(s.Delete("a")))
	})
}

func TestStoreList(t *testing.T) {
	runStoreTest(t, "list", func(t *testing.T, s Store) {
		require.NoError(t, s.WriteFile("log/2.seg", []byte("yy")))
		require.NoError(t, s.WriteFile("log/1.seg", []byte("x")))
		require.NoError(t, s.WriteFile("data/a.rows", []byte("zzz")))

		infos, err := s.List("log/")
		require.NoError(t, err)
		require.Equal(t, []FileInfo{
			{Path: "log/1.seg", Size: 1},
			{Path: "log/2.seg", Size: 2},
		}, infos)

		all, err := s.List("")
		require.NoError(t, err)
		require.Len(t, all, 3)

		none, err := s.List("nope/")
		require.NoError(t, err)
		require.Empty(t, none)
	})
}

func TestMemStoreInjectErrors(t *testing.T) {
	boom := errors.New("boom")
	m := NewMem()
	require.NoError(t, m.WriteFile("a", []byte("x")))

	m.InjectErrors(func(op Op, path string) error {
		if op == OpDelete && path == "a" {
			return boom
		}
		return nil
	})
	require.ErrorIs(t, m.Delete("a"), boom)
	// The injected failure left the file in place.
	m.InjectErrors(nil)
	_, err := m.ReadFile("a")
	require.NoError(t, err)
}
