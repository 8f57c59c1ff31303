// Copyright 2026 The Swarm Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/swarmforge/swarm/cmd/swarm/cli"
	"github.com/swarmforge/swarm/lib/notify"
	"github.com/swarmforge/swarm/lib/schema"
	"github.com/swarmforge/swarm/lib/watch"
)

func tdCommand() *cli.Command {
	return &cli.Command{
		Name:    "td",
		Summary: "coordinator operations",
		Subcommands: []*cli.Command{
			tdRegisterCommand(),
			tdCreateTaskCommand(),
			tdAssignCommand(),
			tdCompleteCommand(),
			tdUncompleteCommand(),
			tdDeleteTaskCommand(),
			tdDepCommand(),
			tdListCommand(),
			tdSendCommand(),
			tdPeekCommand(),
			tdMonitorCommand(),
		},
	}
}

func tdRegisterCommand() *cli.Command {
	var common commonFlags
	var session string
	return &cli.Command{
		Name:    "register",
		Summary: "record the coordinator's tmux session",
		Usage:   "swarm td register --session <name> [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("register", pflag.ContinueOnError)
			common.register(flags)
			flags.StringVar(&session, "session", "", "tmux session that receives reports")
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
			if err := app.engine.SetCoordinatorSession(session); err != nil {
				return err
			}
			fmt.Printf("coordinator session set to %q\n", session)
			return nil
		},
	}
}

func tdCreateTaskCommand() *cli.Command {
	var common commonFlags
	var description, assign string
	return &cli.Command{
		Name:    "create-task",
		Summary: "add a task to the graph",
		Usage:   "swarm td create-task <title> [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("create-task", pflag.ContinueOnError)
			common.register(flags)
			flags.StringVar(&description, "description", "", "longer task description")
			flags.StringVar(&assign, "assign", "", "group to assign at creation")
			return flags
		},
		Run: func(args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("usage: swarm td create-task <title>")
			}
			app, err := common.open()
			if err != nil {
				return err
			}
			task, err := app.engine.Create(strings.Join(args, " "), description, assign)
			if err != nil {
				return err
			}
			fmt.Printf("created task #%d: %s\n", task.ID, task.Title)
			return nil
		},
	}
}

func tdAssignCommand() *cli.Command {
	var common commonFlags
	return &cli.Command{
		Name:    "assign",
		Summary: "assign a task to a group",
		Usage:   "swarm td assign <task-id> <group> [flags]",
		Flags:   commonOnlyFlags("assign", &common),
		Run: func(args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("usage: swarm td assign <task-id> <group>")
			}
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			app, err := common.open()
			if err != nil {
				return err
			}
			if err := app.engine.Assign(id, args[1]); err != nil {
				return err
			}
			fmt.Printf("assigned task #%d to %s\n", id, args[1])
			return nil
		},
	}
}

func tdCompleteCommand() *cli.Command {
	var common commonFlags
	return &cli.Command{
		Name:    "complete",
		Summary: "mark a task completed",
		Usage:   "swarm td complete <task-id> [flags]",
		Flags:   commonOnlyFlags("complete", &common),
		Run:     completeRun(&common, schema.Coordinator),
	}
}

func tdUncompleteCommand() *cli.Command {
	var common commonFlags
	return &cli.Command{
		Name:    "uncomplete",
		Summary: "revert a completed task to pending",
		Usage:   "swarm td uncomplete <task-id> [flags]",
		Flags:   commonOnlyFlags("uncomplete", &common),
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: swarm td uncomplete <task-id>")
			}
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			app, err := common.open()
			if err != nil {
				return err
			}
			if err := app.engine.Uncomplete(id, schema.Coordinator); err != nil {
				return err
			}
			fmt.Printf("task #%d is pending again\n", id)
			return nil
		},
	}
}

func tdDeleteTaskCommand() *cli.Command {
	var common commonFlags
	return &cli.Command{
		Name:    "delete-task",
		Summary: "remove a task and prune its edges",
		Usage:   "swarm td delete-task <task-id> [flags]",
		Flags:   commonOnlyFlags("delete-task", &common),
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: swarm td delete-task <task-id>")
			}
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			app, err := common.open()
			if err != nil {
				return err
			}
			if err := app.engine.Delete(id); err != nil {
				return err
			}
			fmt.Printf("deleted task #%d\n", id)
			return nil
		},
	}
}

func tdDepCommand() *cli.Command {
	return &cli.Command{
		Name:    "dep",
		Summary: "manage dependency edges",
		Subcommands: []*cli.Command{
			tdDepEdgeCommand("add", "record that <blocker> must complete before <blocked>"),
			tdDepEdgeCommand("remove", "delete the edge between <blocker> and <blocked>"),
		},
	}
}

func tdDepEdgeCommand(verb, summary string) *cli.Command {
	var common commonFlags
	return &cli.Command{
		Name:    verb,
		Summary: summary,
		Usage:   fmt.Sprintf("swarm td dep %s <blocker-id> <blocked-id> [flags]", verb),
		Flags:   commonOnlyFlags("dep "+verb, &common),
		Run: func(args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("usage: swarm td dep %s <blocker-id> <blocked-id>", verb)
			}
			blocker, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			blocked, err := parseTaskID(args[1])
			if err != nil {
				return err
			}
			app, err := common.open()
			if err != nil {
				return err
			}
			if verb == "add" {
				err = app.engine.AddDependency(blocker, blocked)
			} else {
				err = app.engine.RemoveDependency(blocker, blocked)
			}
			if err != nil {
				return err
			}
			fmt.Printf("dep %s: #%d blocks #%d\n", verb, blocker, blocked)
			return nil
		},
	}
}

func tdListCommand() *cli.Command {
	var common commonFlags
	var filter string
	return &cli.Command{
		Name:    "list",
		Summary: "list tasks",
		Usage:   "swarm td list [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("list", pflag.ContinueOnError)
			common.register(flags)
			flags.StringVar(&filter, "status", "", "filter: pending, completed, blocked, or ready")
			return flags
		},
		Run: func(args []string) error {
			app, err := common.open()
			if err != nil {
				return err
			}
			tasks, err := app.engine.List(filter)
			if err != nil {
				return err
			}
			printTasks(app, tasks)
			return nil
		},
	}
}

func tdSendCommand() *cli.Command {
	var common commonFlags
	return &cli.Command{
		Name:    "send",
		Summary: "send a message to a group",
		Usage:   "swarm td send <group> <text...> [flags]",
		Flags:   commonOnlyFlags("send", &common),
		Run: func(args []string) error {
			if len(args) < 2 {
				return fmt.Errorf("usage: swarm td send <group> <text...>")
			}
			app, err := common.open()
			if err != nil {
				return err
			}
			delivered, err := app.engine.SendMessage(schema.Coordinator, args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			if !delivered {
				fmt.Printf("logged for %s (session not reachable)\n", args[0])
				return nil
			}
			fmt.Printf("delivered to %s\n", args[0])
			return nil
		},
	}
}

func tdPeekCommand() *cli.Command {
	var common commonFlags
	var lines int
	return &cli.Command{
		Name:    "peek",
		Summary: "capture the tail of a group's session pane",
		Usage:   "swarm td peek <group> [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("peek", pflag.ContinueOnError)
			common.register(flags)
			flags.IntVar(&lines, "lines", 40, "number of trailing pane lines to show")
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: swarm td peek <group>")
			}
			app, err := common.open()
			if err != nil {
				return err
			}
			config := app.store.LoadConfig()
			if config == nil {
				return fmt.Errorf("project not initialized")
			}
			session := config.SessionFor(args[0])
			if session == "" {
				return fmt.Errorf("group %s has no registered session", args[0])
			}
			output, err := app.server.CapturePane(session, lines)
			if err != nil {
				return err
			}
			fmt.Print(output)
			return nil
		},
	}
}

func tdMonitorCommand() *cli.Command {
	var common commonFlags
	var relay bool
	return &cli.Command{
		Name:    "monitor",
		Summary: "stream group logs and task changes",
		Usage:   "swarm td monitor [flags]",
		Description: "monitor tails every registered group's log file and watches the\n" +
			"task graph, printing both streams to stdout until interrupted.\n" +
			"With --relay, log lines are also typed into the coordinator's\n" +
			"tmux session.",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("monitor", pflag.ContinueOnError)
			common.register(flags)
			flags.BoolVar(&relay, "relay", false, "also deliver log lines to the coordinator session")
			return flags
		},
		Run: func(args []string) error {
			app, err := common.open()
			if err != nil {
				return err
			}
			logger := cli.NewCommandLogger().With("command", "td/monitor")

			coordinatorSession := ""
			if config := app.store.LoadConfig(); config != nil {
				coordinatorSession = config.CoordinatorSession
			}

			logWatcher := watch.NewLogWatcher(app.store, app.clock, func(group, line string) {
				fmt.Printf("[%s] %s\n", group, line)
				if relay && coordinatorSession != "" {
					app.notifier.Deliver(coordinatorSession, notify.LogRelay(group, line))
				}
			})
			logWatcher.PollInterval = app.settings.Watch.LogPollInterval.Std()
			logWatcher.DiscoverInterval = app.settings.Watch.DiscoverInterval.Std()

			taskWatcher := watch.NewTaskWatcher(app.store, app.clock, schema.Coordinator, func(task schema.Task) {
				fmt.Printf("task #%d (%s) is %s\n", task.ID, task.Title, task.Status)
			})
			taskWatcher.PollInterval = app.settings.Watch.TaskPollInterval.Std()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Info("monitoring", "dir", app.store.Dir())
			var wg sync.WaitGroup
			for _, run := range []func(context.Context){logWatcher.Run, taskWatcher.Run} {
				wg.Add(1)
				go func() {
					defer wg.Done()
					run(ctx)
				}()
			}
			wg.Wait()
			return nil
		},
	}
}

// commonOnlyFlags builds a Flags func for commands whose only flags
// are the shared ones.
func commonOnlyFlags(name string, common *commonFlags) func() *pflag.FlagSet {
	return func() *pflag.FlagSet {
		flags := pflag.NewFlagSet(name, pflag.ContinueOnError)
		common.register(flags)
		return flags
	}
}

// completeRun builds the Run handler shared by "td complete" and
// "group <name> complete"; only the acting identity differs.
func completeRun(common *commonFlags, actor string) func(args []string) error {
	return func(args []string) error {
		if len(args) != 1 {
			return fmt.Errorf("usage: complete <task-id>")
		}
		id, err := parseTaskID(args[0])
		if err != nil {
			return err
		}
		app, err := common.open()
		if err != nil {
			return err
		}
		if err := app.engine.Complete(id, actor); err != nil {
			return err
		}
		fmt.Printf("task #%d completed\n", id)
		return nil
	}
}

func parseTaskID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(arg, "#"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid task id %q", arg)
	}
	return id, nil
}

// printTasks renders tasks in a table with the derived display
// status: stored "pending" shows as "blocked" while any blocker is
// incomplete.
func printTasks(app *appContext, tasks []schema.Task) {
	tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tASSIGNEE\tTITLE")
	for _, task := range tasks {
		status := task.Status
		if !task.Completed() {
			if blockers, err := app.engine.Blockers(task.ID); err == nil && len(blockers) > 0 {
				status = "blocked"
			}
		}
		assignee := task.Assignee
		if assignee == "" {
			assignee = "-"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", task.ID, status, assignee, task.Title)
	}
	tw.Flush()
}
