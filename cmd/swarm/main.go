// Copyright 2026 The Swarm Authors
// SPDX-License-Identifier: Apache-2.0

// Command swarm coordinates multiple agents working in tmux sessions
// on a shared task graph. The coordinator runs "swarm td" commands;
// worker groups run "swarm group <name>" commands; both operate on
// the same project state directory.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := run(); err != nil {
		// Commands that print their own output return an ExitError
		// with the desired code. Don't print a redundant "error:"
		// line for those.
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return root().Execute(os.Args[1:])
}
