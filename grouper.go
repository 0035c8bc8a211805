// Copyright 2026 The Tidelake Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package tidelake

import (
	"sort"
	"strings"

	"github.com/tidelake/tidelake/internal/manifest"
)

// CompactionUnit is a group of live files eligible to be merged together:
// the files sharing both a partition and a directory prefix. Units are
// ephemeral, built once per round.
type CompactionUnit struct {
	// Partition holds the unit's partition values; every file in the
	// unit carries the same values and every file the unit is rewritten
	// into is tagged with them.
	Partition map[string]string
	// Prefix is the directory portion of the unit's file paths, without
	// a trailing separator. Empty for root-level files. Rewritten files
	// are placed under the same prefix; compaction never moves data
	// across directories.
	Prefix string
	// Files is ordered by path.
	Files []manifest.Add
}

type unitKey struct {
	partition string
	prefix    string
}

// pathPrefix returns path with its trailing filename component removed.
func pathPrefix(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[:i]
	}
	return ""
}

// groupSnapshot partitions the snapshot's live files into compaction units.
// The grouping is deterministic: units are ordered by (partition, prefix)
// and files within a unit by path.
func groupSnapshot(snap *manifest.Snapshot) []CompactionUnit {
	byKey := make(map[unitKey]*CompactionUnit)
	var keys []unitKey
	for i := range snap.Live {
		f := snap.Live[i]
		key := unitKey{
			partition: manifest.CanonicalPartition(f.PartitionValues),
			prefix:    pathPrefix(f.Path),
		}
		u, ok := byKey[key]
		if !ok {
			u = &CompactionUnit{Partition: f.PartitionValues, Prefix: key.prefix}
			byKey[key] = u
			keys = append(keys, key)
		}
		u.Files = append(u.Files, f)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].partition != keys[j].partition {
			return keys[i].partition < keys[j].partition
		}
		return keys[i].prefix < keys[j].prefix
	})
	units := make([]CompactionUnit, 0, len(keys))
	for _, key := range keys {
		u := byKey[key]
		sort.Slice(u.Files, func(i, j int) bool { return u.Files[i].Path < u.Files[j].Path })
		units = append(units, *u)
	}
	return units
}
