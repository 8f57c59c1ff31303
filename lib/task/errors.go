// Copyright 2026 The Swarm Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"errors"
	"fmt"
	"strings"

	"github.com/swarmforge/swarm/lib/schema"
)

// ErrUninitialized is returned by every engine operation when the
// state directory has no project configuration yet.
var ErrUninitialized = errors.New("project not initialized (run init first)")

// ErrSelfReference is returned when a dependency would make a task
// its own blocker.
var ErrSelfReference = errors.New("a task cannot block itself")

// NotFoundError reports that a referenced task or group does not
// exist. Callers can use errors.As to distinguish it from other
// failures:
//
//	var notFound *NotFoundError
//	if errors.As(err, &notFound) { ... }
type NotFoundError struct {
	// Kind names what was looked up: "task" or "group".
	Kind string
	// Ref is the identifier that failed to resolve, formatted for
	// display ("#42" for tasks, the id for groups).
	Ref string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.Ref)
}

func taskNotFound(id int64) *NotFoundError {
	return &NotFoundError{Kind: "task", Ref: fmt.Sprintf("#%d", id)}
}

func groupNotFound(id string) *NotFoundError {
	return &NotFoundError{Kind: "group", Ref: id}
}

// PermissionDeniedError reports that the acting agent is neither the
// coordinator nor the task's assignee.
type PermissionDeniedError struct {
	Actor    string
	TaskID   int64
	Assignee string
}

func (e *PermissionDeniedError) Error() string {
	assignee := e.Assignee
	if assignee == "" {
		assignee = "nobody"
	}
	return fmt.Sprintf("%s may not modify task #%d (assigned to %s)", e.Actor, e.TaskID, assignee)
}

// BlockedError reports a completion attempt gated by incomplete
// blockers. Blockers carries the full blocking tasks so callers can
// name them.
type BlockedError struct {
	TaskID   int64
	Blockers []schema.Task
}

func (e *BlockedError) Error() string {
	parts := make([]string, len(e.Blockers))
	for i, blocker := range e.Blockers {
		parts[i] = fmt.Sprintf("#%d (%s)", blocker.ID, blocker.Title)
	}
	return fmt.Sprintf("task #%d is blocked by %s", e.TaskID, strings.Join(parts, ", "))
}

// CycleError reports a rejected dependency edge that would make the
// blocking graph cyclic.
type CycleError struct {
	BlockerID int64
	BlockedID int64
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency #%d -> #%d would create a cycle", e.BlockerID, e.BlockedID)
}
