// Copyright 2026 The Tidelake Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package main

import (
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/tidelake/tidelake/storage"
	"github.com/tidelake/tidelake/tablelog"
)

var historyCmd = &cobra.Command{
	Use:   "history <table-dir>",
	Short: "list the table's log versions",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	l := tablelog.Open(storage.NewLocal(args[0]))
	segments, err := l.ListSegmentsFrom(1)
	if err != nil {
		return err
	}
	checkpoints, err := l.ListCheckpoints()
	if err != nil {
		return err
	}
	ckptSet := make(map[int64]bool, len(checkpoints))
	for _, v := range checkpoints {
		ckptSet[v] = true
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"version", "adds", "removes", "checkpoint"})
	for _, seg := range segments {
		recs, err := l.ReadSegment(seg.Version)
		if err != nil {
			return err
		}
		var adds, removes int
		for i := range recs {
			switch {
			case recs[i].Add != nil:
				adds++
			case recs[i].Remove != nil:
				removes++
			}
		}
		ckpt := ""
		if ckptSet[seg.Version] {
			ckpt = "yes"
		}
		table.Append([]string{
			strconv.FormatInt(seg.Version, 10),
			strconv.Itoa(adds),
			strconv.Itoa(removes),
			ckpt,
		})
	}
	table.Render()
	return nil
}
