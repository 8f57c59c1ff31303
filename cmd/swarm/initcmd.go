// Copyright 2026 The Swarm Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/swarmforge/swarm/cmd/swarm/cli"
)

func initCommand() *cli.Command {
	var common commonFlags
	return &cli.Command{
		Name:    "init",
		Summary: "initialize a project state directory",
		Usage:   "swarm init <project-name> [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("init", pflag.ContinueOnError)
			common.register(flags)
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: swarm init <project-name>")
			}
			app, err := common.open()
			if err != nil {
				return err
			}
			if err := app.engine.Init(args[0]); err != nil {
				return err
			}
			fmt.Printf("initialized project %q in %s\n", args[0], app.store.Dir())
			return nil
		},
	}
}
