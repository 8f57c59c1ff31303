// Copyright 2026 The Swarm Authors
// SPDX-License-Identifier: Apache-2.0

// Package notify delivers formatted text messages into external tmux
// sessions. Delivery is best-effort and unacknowledged: a message
// either lands in the target session's input or it is dropped, and
// the caller learns only a boolean. The durable record of
// communication is the store's message log, not this channel.
package notify

import (
	"fmt"

	"github.com/swarmforge/swarm/lib/schema"
)

// Kind discriminates the message variants. Each variant renders with
// a fixed template.
type Kind int

const (
	// KindNewTask announces a task assignment to the assignee.
	KindNewTask Kind = iota

	// KindTaskUpdated reports a task state change (completion,
	// progress) to the coordinator.
	KindTaskUpdated

	// KindDirect carries free-form text from one agent to another.
	KindDirect

	// KindLogRelay forwards one line of a group's log into the
	// coordinator's session.
	KindLogRelay
)

// Message is one notification to be typed into a session. Construct
// messages with [NewTask], [TaskUpdated], [Direct], or [LogRelay];
// the zero value renders as an empty comment.
type Message struct {
	Kind Kind

	// From identifies the acting agent (updater, sender, or log
	// owner). Unused for KindNewTask.
	From string

	// TaskID and Title identify the task for task-bearing variants.
	TaskID int64
	Title  string

	// Text is the variant's free-form payload: the update detail,
	// the direct message body, or the relayed log line.
	Text string
}

// NewTask builds the assignment announcement for a task.
func NewTask(task schema.Task) Message {
	return Message{Kind: KindNewTask, TaskID: task.ID, Title: task.Title}
}

// TaskUpdated builds a task state change report. detail is a short
// phrase such as "completed" or "progress: tests passing".
func TaskUpdated(task schema.Task, actor, detail string) Message {
	return Message{Kind: KindTaskUpdated, From: actor, TaskID: task.ID, Title: task.Title, Text: detail}
}

// Direct builds a free-form message from one agent to another.
func Direct(from, text string) Message {
	return Message{Kind: KindDirect, From: from, Text: text}
}

// LogRelay builds the relay of one log line from a group's log file.
func LogRelay(group, line string) Message {
	return Message{Kind: KindLogRelay, From: group, Text: line}
}

// Render produces the exact line typed into the target session. Every
// rendering starts with "# MESSAGE:" so a session whose foreground
// process is a shell treats the injected text as a comment rather
// than a command.
func (m Message) Render() string {
	switch m.Kind {
	case KindNewTask:
		return fmt.Sprintf("# MESSAGE: new task #%d: %s", m.TaskID, m.Title)
	case KindTaskUpdated:
		return fmt.Sprintf("# MESSAGE: task #%d (%s) %s by %s", m.TaskID, m.Title, m.Text, m.From)
	case KindDirect:
		return fmt.Sprintf("# MESSAGE: from %s: %s", m.From, m.Text)
	case KindLogRelay:
		return fmt.Sprintf("# MESSAGE: [%s] %s", m.From, m.Text)
	default:
		return "# MESSAGE:"
	}
}
