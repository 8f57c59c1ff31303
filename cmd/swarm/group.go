// Copyright 2026 The Swarm Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/swarmforge/swarm/cmd/swarm/cli"
	"github.com/swarmforge/swarm/lib/schema"
	"github.com/swarmforge/swarm/lib/watch"
)

func groupCommand() *cli.Command {
	return &cli.Command{
		Name:    "group",
		Summary: "worker group operations",
		Usage:   "swarm group <name> <command> [flags]",
		Run: func(args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("usage: swarm group <name> <command>")
			}
			return groupSubtree(args[0]).Execute(args[1:])
		},
	}
}

// groupSubtree builds the per-group command tree. The group name is
// positional, so the tree is constructed after it is known.
func groupSubtree(name string) *cli.Command {
	return &cli.Command{
		Name:    "group " + name,
		Summary: fmt.Sprintf("operations acting as group %q", name),
		Subcommands: []*cli.Command{
			groupRegisterCommand(name),
			groupTasksCommand(name),
			groupCompleteCommand(name),
			groupProgressCommand(name),
			groupMessagesCommand(name),
			groupWatchCommand(name),
		},
	}
}

func groupRegisterCommand(name string) *cli.Command {
	var common commonFlags
	var session string
	return &cli.Command{
		Name:    "register",
		Summary: "join the project and record the group's tmux session",
		Usage:   fmt.Sprintf("swarm group %s register --session <name> [flags]", name),
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("register", pflag.ContinueOnError)
			common.register(flags)
			flags.StringVar(&session, "session", "", "tmux session that receives assignments")
			return flags
		},
		Run: func(args []string) error {
			if session == "" {
				return fmt.Errorf("--session is required")
			}
			app, err := common.open()
			if err != nil {
				return err
			}
			if err := app.engine.RegisterGroup(name, session); err != nil {
				return err
			}
			fmt.Printf("group %s registered with session %q\n", name, session)
			return nil
		},
	}
}

func groupTasksCommand(name string) *cli.Command {
	var common commonFlags
	return &cli.Command{
		Name:    "tasks",
		Summary: "list the group's assigned tasks",
		Usage:   fmt.Sprintf("swarm group %s tasks [flags]", name),
		Flags:   commonOnlyFlags("tasks", &common),
		Run: func(args []string) error {
			app, err := common.open()
			if err != nil {
				return err
			}
			printTasks(app, app.engine.TasksFor(name))
			return nil
		},
	}
}

func groupCompleteCommand(name string) *cli.Command {
	var common commonFlags
	return &cli.Command{
		Name:    "complete",
		Summary: "complete an assigned task",
		Usage:   fmt.Sprintf("swarm group %s complete <task-id> [flags]", name),
		Flags:   commonOnlyFlags("complete", &common),
		Run:     completeRun(&common, name),
	}
}

func groupProgressCommand(name string) *cli.Command {
	var common commonFlags
	return &cli.Command{
		Name:    "progress",
		Summary: "log progress on a task and tell the coordinator",
		Usage:   fmt.Sprintf("swarm group %s progress <task-id> <text...> [flags]", name),
		Flags:   commonOnlyFlags("progress", &common),
		Run: func(args []string) error {
			if len(args) < 2 {
				return fmt.Errorf("usage: swarm group %s progress <task-id> <text...>", name)
			}
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			app, err := common.open()
			if err != nil {
				return err
			}
			delivered, err := app.engine.ReportProgress(name, id, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			if !delivered {
				fmt.Println("progress logged (coordinator session not reachable)")
				return nil
			}
			fmt.Println("progress logged and reported")
			return nil
		},
	}
}

func groupMessagesCommand(name string) *cli.Command {
	var common commonFlags
	return &cli.Command{
		Name:    "messages",
		Summary: "show the group's message history",
		Usage:   fmt.Sprintf("swarm group %s messages [flags]", name),
		Flags:   commonOnlyFlags("messages", &common),
		Run: func(args []string) error {
			app, err := common.open()
			if err != nil {
				return err
			}
			for _, message := range app.store.LoadMessages() {
				if message.From != name && message.To != name {
					continue
				}
				fmt.Printf("[%s] %s -> %s: %s\n",
					message.SentAt.Format("2006-01-02T15:04:05"),
					message.From, message.To, message.Content)
			}
			return nil
		},
	}
}

func groupWatchCommand(name string) *cli.Command {
	var common commonFlags
	return &cli.Command{
		Name:    "watch",
		Summary: "stream the group's task assignments and changes",
		Usage:   fmt.Sprintf("swarm group %s watch [flags]", name),
		Flags:   commonOnlyFlags("watch", &common),
		Run: func(args []string) error {
			app, err := common.open()
			if err != nil {
				return err
			}

			watcher := watch.NewTaskWatcher(app.store, app.clock, name, func(task schema.Task) {
				fmt.Printf("task #%d (%s) is %s\n", task.ID, task.Title, task.Status)
			})
			watcher.PollInterval = app.settings.Watch.TaskPollInterval.Std()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			watcher.Run(ctx)
			return nil
		},
	}
}
