// Copyright 2026 The Tidelake Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package storage

import (
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
)

// InjectorFn is consulted before every MemStore operation. A non-nil return
// is surfaced as the operation's error, leaving the store untouched. Used by
// tests to exercise storage failure paths.
type InjectorFn func(op Op, path string) error

// MemStore is an in-memory Store for tests.
type MemStore struct {
	mu     sync.Mutex
	files  map[string][]byte
	inject InjectorFn
}

var _ Store = (*MemStore)(nil)

// NewMem returns an empty memory-backed store.
func NewMem() *MemStore {
	return &MemStore{files: make(map[string][]byte)}
}

// InjectErrors installs fn as the store's error injector. Passing nil
// removes injection.
func (m *MemStore) InjectErrors(fn InjectorFn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inject = fn
}

func (m *MemStore) injected(op Op, path string) error {
	if m.inject == nil {
		return nil
	}
	return m.inject(op, path)
}

// WriteFile implements the Store interface.
func (m *MemStore) WriteFile(path string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected(OpWrite, path); err != nil {
		return err
	}
	m.files[path] = append([]byte(nil), data...)
	return nil
}

// CreateExclusive implements the Store interface.
func (m *MemStore) CreateExclusive(path string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected(OpCreateExclusive, path); err != nil {
		return err
	}
	if _, ok := m.files[path]; ok {
		return errors.Mark(errors.Newf("memstore: %s: file already exists", path), os.ErrExist)
	}
	m.files[path] = append([]byte(nil), data...)
	return nil
}

// ReadFile implements the Store interface.
func (m *MemStore) ReadFile(path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected(OpRead, path); err != nil {
		return nil, err
	}
	data, ok := m.files[path]
	if !ok {
		return nil, errors.Mark(errors.Newf("memstore: %s: file does not exist", path), os.ErrNotExist)
	}
	return append([]byte(nil), data...), nil
}

// Delete implements the Store interface.
func (m *MemStore) Delete(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected(OpDelete, path); err != nil {
		return err
	}
	if _, ok := m.files[path]; !ok {
		return errors.Mark(errors.Newf("memstore: %s: file does not exist", path), os.ErrNotExist)
	}
	delete(m.files, path)
	return nil
}

// List implements the Store interface.
func (m *MemStore) List(prefix string) ([]FileInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected(OpList, prefix); err != nil {
		return nil, err
	}
	var infos []FileInfo
	for p, data := range m.files {
		if strings.HasPrefix(p, prefix) {
			infos = append(infos, FileInfo{Path: p, Size: int64(len(data))})
		}
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Path < infos[j].Path })
	return infos, nil
}
