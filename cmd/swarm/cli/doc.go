// Copyright 2026 The Swarm Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the lean command-tree framework behind the swarm
// binary: named subcommands with pflag flag sets, tabwriter help
// output, and an ExitCode convention for commands whose non-zero exit
// is an answer rather than an error.
package cli
