// Copyright 2026 The Swarm Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestExecuteDispatchesSubcommands(t *testing.T) {
	var gotArgs []string
	root := &Command{
		Name: "swarm",
		Subcommands: []*Command{
			{
				Name: "td",
				Subcommands: []*Command{
					{
						Name: "list",
						Run: func(args []string) error {
							gotArgs = args
							return nil
						},
					},
				},
			},
		},
	}

	if err := root.Execute([]string{"td", "list", "extra"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(gotArgs) != 1 || gotArgs[0] != "extra" {
		t.Fatalf("args = %v", gotArgs)
	}

	if err := root.Execute([]string{"bogus"}); err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Fatalf("unknown subcommand: %v", err)
	}
	if err := root.Execute(nil); err == nil || !strings.Contains(err.Error(), "subcommand required") {
		t.Fatalf("missing subcommand: %v", err)
	}
}

func TestExecuteParsesFlags(t *testing.T) {
	var assignee string
	command := &Command{
		Name: "create-task",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("create-task", pflag.ContinueOnError)
			flags.StringVar(&assignee, "assign", "", "group to assign")
			return flags
		},
		Run: func(args []string) error { return nil },
	}

	if err := command.Execute([]string{"--assign", "alpha", "title"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if assignee != "alpha" {
		t.Fatalf("assignee = %q", assignee)
	}

	if err := command.Execute([]string{"--bogus"}); err == nil {
		t.Fatal("unknown flag accepted")
	}
}

func TestHelpListsSubcommands(t *testing.T) {
	root := &Command{
		Name:    "swarm",
		Summary: "multi-agent task coordination",
		Subcommands: []*Command{
			{Name: "init", Summary: "initialize a project"},
			{Name: "td", Summary: "coordinator operations"},
		},
	}

	var help strings.Builder
	root.PrintHelp(&help)
	for _, want := range []string{"init", "td", "coordinator operations"} {
		if !strings.Contains(help.String(), want) {
			t.Errorf("help output missing %q:\n%s", want, help.String())
		}
	}
}
