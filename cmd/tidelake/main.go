// Copyright 2026 The Tidelake Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// Command tidelake is a maintenance tool for tidelake tables.
package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tidelake [command] (flags)",
	Short: "tidelake table maintenance tool",
	Long:  ``,
}

func main() {
	log.SetFlags(0)

	cobra.EnableCommandSorting = false
	rootCmd.AddCommand(
		compactCmd,
		historyCmd,
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
