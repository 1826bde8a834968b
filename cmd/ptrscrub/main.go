// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package main

import (
	"log"
	"os"

	"github.com/cockroachdb/ptrscrub/tool"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ptrscrub [command] (flags)",
	Short: "minidump pointer scrubbing tool",
	Long: `
ptrscrub removes potentially sensitive heap and stack addresses from minidump
crash reports, keeping only pointers into trusted loaded modules.
`,
}

func main() {
	log.SetFlags(0)

	cobra.EnableCommandSorting = false
	t := tool.New()
	rootCmd.AddCommand(t.Commands...)

	if err := rootCmd.Execute(); err != nil {
		// Cobra has already printed the error message.
		os.Exit(1)
	}
}
