// Copyright 2026 The Tidelake Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// Package storage abstracts the object store a table lives in. Paths are
// /-separated keys relative to the table root. Typically a table is backed
// by Local; test code substitutes the memory-backed store from NewMem.
package storage

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/oserror"
)

// Op identifies the kind of store operation, for error injection.
type Op int

// Store operations.
const (
	OpWrite Op = iota
	OpCreateExclusive
	OpRead
	OpDelete
	OpList
)

// FileInfo describes one stored file.
type FileInfo struct {
	Path string
	Size int64
}

// Store is a namespace for immutable files. Implementations must make
// CreateExclusive atomic: when two writers race on the same path, exactly
// one succeeds and the other observes an exists error.
type Store interface {
	// WriteFile writes data to path, creating it or replacing previous
	// contents.
	WriteFile(path string, data []byte) error

	// CreateExclusive writes data to path, failing with an error
	// satisfying oserror.IsExist if the path is already present.
	CreateExclusive(path string, data []byte) error

	// ReadFile returns the contents of path. A missing path yields an
	// error satisfying oserror.IsNotExist.
	ReadFile(path string) ([]byte, error)

	// Delete removes path. Deleting an absent path yields an error
	// satisfying oserror.IsNotExist; callers treating deletion as
	// idempotent check for it.
	Delete(path string) error

	// List returns files whose path starts with prefix, sorted by path.
	List(prefix string) ([]FileInfo, error)
}

// Local is a Store backed by the operating system's file system, rooted at
// a directory.
type Local struct {
	root string
}

var _ Store = (*Local)(nil)

// NewLocal returns a Store rooted at dir.
func NewLocal(dir string) *Local {
	return &Local{root: dir}
}

func (l *Local) osPath(path string) string {
	return filepath.Join(l.root, filepath.FromSlash(path))
}

// WriteFile implements the Store interface.
func (l *Local) WriteFile(path string, data []byte) error {
	p := l.osPath(path)
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return err
	}
	return os.WriteFile(p, data, 0644)
}

// CreateExclusive implements the Store interface.
func (l *Local) CreateExclusive(path string, data []byte) error {
	p := l.osPath(path)
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// ReadFile implements the Store interface.
func (l *Local) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(l.osPath(path))
}

// Delete implements the Store interface.
func (l *Local) Delete(path string) error {
	return os.Remove(l.osPath(path))
}

// List implements the Store interface.
func (l *Local) List(prefix string) ([]FileInfo, error) {
	var infos []FileInfo
	err := filepath.WalkDir(l.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if oserror.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(l.root, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		infos = append(infos, FileInfo{Path: key, Size: fi.Size()})
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "storage: listing %q", prefix)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Path < infos[j].Path })
	return infos, nil
}
