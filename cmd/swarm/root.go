// Copyright 2026 The Swarm Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/swarmforge/swarm/cmd/swarm/cli"
)

func root() *cli.Command {
	return &cli.Command{
		Name:    "swarm",
		Summary: "multi-agent task coordination over tmux sessions",
		Description: "swarm coordinates a team of agents working in tmux sessions on a\n" +
			"shared task graph. Tasks carry dependency edges; a task cannot\n" +
			"complete while any of its blockers is incomplete. State lives in a\n" +
			"plain directory of JSON documents that every command reads and\n" +
			"writes directly.",
		Subcommands: []*cli.Command{
			initCommand(),
			tdCommand(),
			groupCommand(),
		},
	}
}
