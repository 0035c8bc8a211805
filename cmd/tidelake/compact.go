// Copyright 2026 The Tidelake Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/tidelake/tidelake"
	"github.com/tidelake/tidelake/datafile"
	"github.com/tidelake/tidelake/storage"
	"github.com/tidelake/tidelake/tablelog"
)

var (
	targetVersion int64
	filesPerDir   int
	minFiles      int
	retries       int
	backoff       time.Duration
	partitions    []string
	checkpoint    bool
	concurrency   int
	deleteRate    int
	zstdOutput    bool
	verbose       bool
)

var compactCmd = &cobra.Command{
	Use:   "compact <table-dir>",
	Short: "merge a table's small data files into fewer large ones",
	Args:  cobra.ExactArgs(1),
	RunE:  runCompact,
}

func init() {
	compactCmd.Flags().Int64Var(
		&targetVersion, "target-version", 0, "version to compact as of (0 = log head)")
	compactCmd.Flags().IntVar(
		&filesPerDir, "files-per-dir", 1, "output files per compaction unit")
	compactCmd.Flags().IntVar(
		&minFiles, "min-files", 1, "minimum files for a unit to be rewritten")
	compactCmd.Flags().IntVarP(
		&retries, "retries", "r", 0, "max commit retries on conflict")
	compactCmd.Flags().DurationVar(
		&backoff, "backoff", 500*time.Millisecond, "interval between conflicting commit attempts")
	compactCmd.Flags().StringArrayVarP(
		&partitions, "partition", "p", nil, "partition filter as col=value (repeatable)")
	compactCmd.Flags().BoolVar(
		&checkpoint, "checkpoint", false, "write a checkpoint at the committed version")
	compactCmd.Flags().IntVarP(
		&concurrency, "concurrency", "c", 0, "units rewritten in parallel (0 = GOMAXPROCS)")
	compactCmd.Flags().IntVar(
		&deleteRate, "delete-rate", 0, "cleanup deletion pacing in bytes/sec (0 = unpaced)")
	compactCmd.Flags().BoolVar(
		&zstdOutput, "zstd", false, "compress rewritten files with zstd instead of snappy")
	compactCmd.Flags().BoolVarP(
		&verbose, "verbose", "v", false, "log every event")
}

func parsePartitionFlags(flags []string) ([]tidelake.PartitionMatch, error) {
	var filter []tidelake.PartitionMatch
	for _, f := range flags {
		col, val, ok := strings.Cut(f, "=")
		if !ok || col == "" {
			return nil, errors.Newf("bad partition filter %q, want col=value", f)
		}
		filter = append(filter, tidelake.PartitionMatch{Column: col, Value: val})
	}
	return filter, nil
}

func runCompact(cmd *cobra.Command, args []string) error {
	filter, err := parsePartitionFlags(partitions)
	if err != nil {
		return err
	}
	store := storage.NewLocal(args[0])
	opts := tidelake.Options{
		Store:              store,
		Log:                tablelog.Open(store),
		TargetVersion:      targetVersion,
		FilesPerDir:        filesPerDir,
		MinFilesPerUnit:    minFiles,
		MaxRetries:         retries,
		RetryBackoff:       backoff,
		PartitionFilter:    filter,
		RewriteConcurrency: concurrency,
		CheckpointOnCommit: checkpoint,
		TargetDeletionRate: deleteRate,
	}
	if zstdOutput {
		opts.Codec = datafile.ZstdCodec
	}
	if verbose {
		el := tidelake.MakeLoggingEventListener(tidelake.DefaultLogger)
		opts.EventListener = &el
	}

	res, err := tidelake.Compact(cmd.Context(), opts)
	if err != nil {
		return err
	}
	if len(res.Records) == 0 {
		fmt.Printf("nothing to compact at version %d\n", res.Version)
		return nil
	}
	fmt.Printf("committed version %d\n", res.Version)
	printRecords(res.Records)
	return nil
}

func printRecords(recs []tidelake.Record) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"action", "path", "partition", "size", "rows"})
	for _, rec := range recs {
		switch {
		case rec.Add != nil:
			rows := ""
			if rec.Add.Stats != nil {
				rows = strconv.FormatInt(rec.Add.Stats.NumRows, 10)
			}
			table.Append([]string{
				"add", rec.Add.Path, partitionString(rec.Add.PartitionValues),
				strconv.FormatInt(rec.Add.Size, 10), rows,
			})
		case rec.Remove != nil:
			table.Append([]string{"remove", rec.Remove.Path, "", "", ""})
		}
	}
	table.Render()
}

func partitionString(pv map[string]string) string {
	var parts []string
	for c, v := range pv {
		parts = append(parts, c+"="+v)
	}
	sort.Strings(parts)
	return strings.Join(parts, "/")
}
