// Copyright 2026 The Swarm Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import "time"

// Coordinator is the reserved identity of the single privileged role
// permitted to mutate any task regardless of assignee. It is also the
// "to" address for completion reports and progress messages from
// groups. Group ids may not collide with it.
const Coordinator = "coordinator"

// Task status values. These are the only statuses ever persisted.
// "in progress" and "blocked" are derived at query time and never
// stored — a task is blocked iff any task in BlockedBy is not
// completed.
const (
	TaskPending   = "pending"
	TaskCompleted = "completed"
)

// GroupActive is the status tag recorded for a group at registration.
const GroupActive = "active"

// Config is the per-project configuration document. It is persisted
// as a whole-document JSON snapshot; a missing or corrupt file reads
// as nil (uninitialized project).
type Config struct {
	// Name uniquely identifies the project.
	Name string `json:"name"`

	// CreatedAt is when the project was initialized.
	CreatedAt time.Time `json:"created_at"`

	// CoordinatorSession is the tmux session addressed by completion
	// and progress notifications. Empty until the coordinator
	// registers.
	CoordinatorSession string `json:"coordinator_session,omitempty"`

	// Groups are the registered worker identities, in registration
	// order. Re-registration replaces the session reference in place.
	Groups []Group `json:"groups"`

	// TaskVersion is a monotonic counter incremented on every write
	// of the task document. Watchers compare it against their last
	// seen value to detect change without diffing the full document.
	TaskVersion uint64 `json:"task_version"`
}

// Group returns the registered group with the given id, or nil.
func (c *Config) Group(id string) *Group {
	for i := range c.Groups {
		if c.Groups[i].ID == id {
			return &c.Groups[i]
		}
	}
	return nil
}

// SessionFor resolves the session reference for an addressee: the
// coordinator's session for [Coordinator], a group's session
// otherwise. Returns "" when the addressee is unknown or has no
// session.
func (c *Config) SessionFor(addressee string) string {
	if addressee == Coordinator {
		return c.CoordinatorSession
	}
	if group := c.Group(addressee); group != nil {
		return group.Session
	}
	return ""
}

// Group is one worker identity within a project.
type Group struct {
	// ID uniquely identifies the group within the project.
	ID string `json:"id"`

	// Session is the opaque reference naming the group's external
	// tmux session. Replaced on re-registration (reconnect/restart).
	Session string `json:"session"`

	// JoinedAt is when the group first registered. Preserved across
	// re-registrations.
	JoinedAt time.Time `json:"joined_at"`

	// Status is a free-form tag, currently always [GroupActive].
	Status string `json:"status"`
}

// Task is one unit of work in the shared task graph.
type Task struct {
	// ID is a creation-time-derived integer, unique within the
	// project, monotonically increasing, never reused.
	ID int64 `json:"id"`

	Title       string `json:"title"`
	Description string `json:"description,omitempty"`

	// Assignee is the id of the group working the task, or empty.
	Assignee string `json:"assignee,omitempty"`

	// Status is [TaskPending] or [TaskCompleted].
	Status string `json:"status"`

	// Blocks lists ids of tasks that cannot complete until this task
	// completes. Mirrored: t.Blocks contains u.ID iff u.BlockedBy
	// contains t.ID. The Blocks graph is acyclic at all times.
	Blocks []int64 `json:"blocks,omitempty"`

	// BlockedBy lists ids of tasks that must complete before this
	// task may complete.
	BlockedBy []int64 `json:"blocked_by,omitempty"`

	CreatedAt time.Time `json:"created_at"`

	// CompletedAt is non-zero iff Status is [TaskCompleted].
	CompletedAt time.Time `json:"completed_at,omitzero"`
}

// Completed reports whether the task's stored status is completed.
func (t *Task) Completed() bool { return t.Status == TaskCompleted }

// Message is one entry in the project's append-only message log.
// The log is the durable record; live delivery into a session is
// best-effort and separate.
type Message struct {
	From    string    `json:"from"`
	To      string    `json:"to"`
	Content string    `json:"content"`
	SentAt  time.Time `json:"sent_at"`
}
