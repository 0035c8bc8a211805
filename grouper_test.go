// Copyright 2026 The Tidelake Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package tidelake

import (
	"fmt"
	"strings"
	"testing"

	"github.com/cockroachdb/datadriven"
	"github.com/stretchr/testify/require"
	"github.com/tidelake/tidelake/internal/manifest"
)

// Input lines are "path [col=value ...]"; output is one line per unit in
// the grouper's order.
func TestGroupSnapshot(t *testing.T) {
	datadriven.RunTest(t, "testdata/grouper", func(t *testing.T, td *datadriven.TestData) string {
		switch td.Cmd {
		case "group":
			var live []manifest.Add
			for _, line := range strings.Split(strings.TrimSpace(td.Input), "\n") {
				fields := strings.Fields(line)
				if len(fields) == 0 {
					continue
				}
				add := manifest.Add{Path: fields[0]}
				for _, kv := range fields[1:] {
					col, val, ok := strings.Cut(kv, "=")
					if !ok {
						return fmt.Sprintf("bad partition value %q", kv)
					}
					if add.PartitionValues == nil {
						add.PartitionValues = make(map[string]string)
					}
					add.PartitionValues[col] = val
				}
				live = append(live, add)
			}
			var sb strings.Builder
			for _, u := range groupSnapshot(&manifest.Snapshot{Version: 1, Live: live}) {
				fmt.Fprintf(&sb, "partition=%s prefix=%s:",
					manifest.CanonicalPartition(u.Partition), u.Prefix)
				for i := range u.Files {
					fmt.Fprintf(&sb, " %s", u.Files[i].Path)
				}
				sb.WriteByte('\n')
			}
			return sb.String()
		default:
			return fmt.Sprintf("unknown command: %s", td.Cmd)
		}
	})
}

func TestPathPrefix(t *testing.T) {
	require.Equal(t, "", pathPrefix("file.rows"))
	require.Equal(t, "a", pathPrefix("a/file.rows"))
	require.Equal(t, "a/b", pathPrefix("a/b/file.rows"))
}
