// Copyright 2026 The Swarm Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/swarmforge/swarm/lib/clock"
	"github.com/swarmforge/swarm/lib/notify"
	"github.com/swarmforge/swarm/lib/schema"
	"github.com/swarmforge/swarm/lib/store"
)

// List filters accepted by [Engine.List]. "blocked" and "ready" are
// derived from the dependency graph at query time; only "pending" and
// "completed" are ever stored.
const (
	FilterAll       = ""
	FilterPending   = schema.TaskPending
	FilterCompleted = schema.TaskCompleted
	FilterBlocked   = "blocked"
	FilterReady     = "ready"
)

// Engine owns all reads and writes of the task graph for one project.
// It is safe for concurrent use; the store lock, not the engine,
// provides mutual exclusion, so independent Engine values (including
// ones in other processes) pointed at the same directory compose
// correctly.
type Engine struct {
	store    *store.Store
	notifier notify.Notifier
	clock    clock.Clock
}

// New returns an engine over the given store. The notifier receives a
// best-effort push for task assignments, completions, progress
// reports, and direct messages.
func New(st *store.Store, notifier notify.Notifier, clk clock.Clock) *Engine {
	return &Engine{store: st, notifier: notifier, clock: clk}
}

// Init creates the project configuration. It fails if the directory
// already holds an initialized project.
func (e *Engine) Init(projectName string) error {
	if err := schema.ValidateID(projectName, "project name"); err != nil {
		return err
	}

	unlock, err := e.store.Lock()
	if err != nil {
		return err
	}
	defer unlock()

	if existing := e.store.LoadConfig(); existing != nil {
		return fmt.Errorf("project already initialized as %q", existing.Name)
	}
	return e.store.SaveConfig(&schema.Config{
		Name:      projectName,
		CreatedAt: e.clock.Now(),
	})
}

// RegisterGroup records a worker group and the tmux session it can be
// reached at. Re-registering an existing group replaces its session
// reference in place, which is how a restarted agent reconnects.
func (e *Engine) RegisterGroup(groupID, sessionRef string) error {
	if err := schema.ValidateID(groupID, "group id"); err != nil {
		return err
	}
	if groupID == schema.Coordinator {
		return fmt.Errorf("group id %q is reserved for the coordinator", groupID)
	}

	unlock, err := e.store.Lock()
	if err != nil {
		return err
	}
	defer unlock()

	config := e.store.LoadConfig()
	if config == nil {
		return ErrUninitialized
	}

	if group := config.Group(groupID); group != nil {
		group.Session = sessionRef
		group.Status = schema.GroupActive
	} else {
		config.Groups = append(config.Groups, schema.Group{
			ID:       groupID,
			Session:  sessionRef,
			JoinedAt: e.clock.Now(),
			Status:   schema.GroupActive,
		})
	}
	return e.store.SaveConfig(config)
}

// SetCoordinatorSession records the tmux session that receives
// completion reports and progress messages.
func (e *Engine) SetCoordinatorSession(sessionRef string) error {
	unlock, err := e.store.Lock()
	if err != nil {
		return err
	}
	defer unlock()

	config := e.store.LoadConfig()
	if config == nil {
		return ErrUninitialized
	}
	config.CoordinatorSession = sessionRef
	return e.store.SaveConfig(config)
}

// Create adds a pending task with no dependency edges. When assignee
// is non-empty it must name a registered group, and the group's
// session is notified of the new assignment after the task is
// persisted.
func (e *Engine) Create(title, description, assignee string) (schema.Task, error) {
	if title == "" {
		return schema.Task{}, fmt.Errorf("task title cannot be empty")
	}

	created, session, err := func() (schema.Task, string, error) {
		unlock, err := e.store.Lock()
		if err != nil {
			return schema.Task{}, "", err
		}
		defer unlock()

		config := e.store.LoadConfig()
		if config == nil {
			return schema.Task{}, "", ErrUninitialized
		}
		if assignee != "" && config.Group(assignee) == nil {
			return schema.Task{}, "", groupNotFound(assignee)
		}

		tasks := e.store.LoadTasks()

		// Millisecond timestamps are unique enough in practice, but
		// a burst of creations inside one millisecond (or a clock
		// step backwards) must still yield fresh monotonic ids.
		id := e.clock.Now().UnixMilli()
		for i := range tasks {
			if tasks[i].ID >= id {
				id = tasks[i].ID + 1
			}
		}

		task := schema.Task{
			ID:          id,
			Title:       title,
			Description: description,
			Assignee:    assignee,
			Status:      schema.TaskPending,
			CreatedAt:   e.clock.Now(),
		}
		if err := e.store.SaveTasks(append(tasks, task)); err != nil {
			return schema.Task{}, "", err
		}
		return task, config.SessionFor(assignee), nil
	}()
	if err != nil {
		return schema.Task{}, err
	}

	if assignee != "" {
		e.push(session, notify.NewTask(created))
	}
	return created, nil
}

// AddDependency records that blockedID cannot complete until
// blockerID does. Both edge mirrors are written; an edge that already
// exists is a no-op. The edge is rejected when it would make a task
// its own blocker, directly or through existing edges.
func (e *Engine) AddDependency(blockerID, blockedID int64) error {
	if blockerID == blockedID {
		return ErrSelfReference
	}

	unlock, err := e.store.Lock()
	if err != nil {
		return err
	}
	defer unlock()

	tasks := e.store.LoadTasks()
	byID := indexTasks(tasks)
	blocker, ok := byID[blockerID]
	if !ok {
		return taskNotFound(blockerID)
	}
	blocked, ok := byID[blockedID]
	if !ok {
		return taskNotFound(blockedID)
	}

	// A cycle forms exactly when the task being blocked already
	// reaches the proposed blocker over existing blocks edges.
	if reaches(byID, blockedID, blockerID) {
		return &CycleError{BlockerID: blockerID, BlockedID: blockedID}
	}

	changed := false
	if !slices.Contains(blocker.Blocks, blockedID) {
		blocker.Blocks = append(blocker.Blocks, blockedID)
		changed = true
	}
	if !slices.Contains(blocked.BlockedBy, blockerID) {
		blocked.BlockedBy = append(blocked.BlockedBy, blockerID)
		changed = true
	}
	if !changed {
		return nil
	}
	return e.store.SaveTasks(tasks)
}

// RemoveDependency deletes the dependency edge between two tasks.
// Removing an edge that does not exist is not an error; referencing a
// task that does not exist is.
func (e *Engine) RemoveDependency(blockerID, blockedID int64) error {
	unlock, err := e.store.Lock()
	if err != nil {
		return err
	}
	defer unlock()

	tasks := e.store.LoadTasks()
	byID := indexTasks(tasks)
	blocker, ok := byID[blockerID]
	if !ok {
		return taskNotFound(blockerID)
	}
	blocked, ok := byID[blockedID]
	if !ok {
		return taskNotFound(blockedID)
	}

	beforeBlocks := len(blocker.Blocks)
	beforeBlockedBy := len(blocked.BlockedBy)
	blocker.Blocks = slices.DeleteFunc(blocker.Blocks, func(id int64) bool { return id == blockedID })
	blocked.BlockedBy = slices.DeleteFunc(blocked.BlockedBy, func(id int64) bool { return id == blockerID })
	if len(blocker.Blocks) == beforeBlocks && len(blocked.BlockedBy) == beforeBlockedBy {
		return nil
	}
	return e.store.SaveTasks(tasks)
}

// Blockers returns the tasks that currently prevent taskID from
// completing: the members of its blocked_by set whose stored status
// is not completed. Dangling ids are skipped. An empty result means
// the task is free to complete; this is the only place "blocked" is
// ever derived.
func (e *Engine) Blockers(taskID int64) ([]schema.Task, error) {
	tasks := e.store.LoadTasks()
	byID := indexTasks(tasks)
	task, ok := byID[taskID]
	if !ok {
		return nil, taskNotFound(taskID)
	}
	return incompleteBlockers(byID, task), nil
}

// Assign sets the task's assignee to a registered group and notifies
// the group's session. Assignment is orthogonal to blocking: a
// blocked task can be assigned, worked on, just not completed.
func (e *Engine) Assign(taskID int64, groupID string) error {
	assigned, session, err := func() (schema.Task, string, error) {
		unlock, err := e.store.Lock()
		if err != nil {
			return schema.Task{}, "", err
		}
		defer unlock()

		config := e.store.LoadConfig()
		if config == nil {
			return schema.Task{}, "", ErrUninitialized
		}
		if config.Group(groupID) == nil {
			return schema.Task{}, "", groupNotFound(groupID)
		}

		tasks := e.store.LoadTasks()
		byID := indexTasks(tasks)
		task, ok := byID[taskID]
		if !ok {
			return schema.Task{}, "", taskNotFound(taskID)
		}
		task.Assignee = groupID
		if err := e.store.SaveTasks(tasks); err != nil {
			return schema.Task{}, "", err
		}
		return *task, config.SessionFor(groupID), nil
	}()
	if err != nil {
		return err
	}

	e.push(session, notify.NewTask(assigned))
	return nil
}

// Complete marks the task completed, stamping completed_at. Only the
// coordinator or the task's assignee may complete it, and only when
// no blocker is incomplete. Completing an already-completed task is a
// no-op. When a group (not the coordinator) completes a task, the
// coordinator's session is notified.
//
// Completion never walks the dependent tasks it may have unblocked;
// dependents learn they are free through the task-change watcher's
// polling.
func (e *Engine) Complete(taskID int64, actor string) error {
	completed, session, err := func() (schema.Task, string, error) {
		unlock, err := e.store.Lock()
		if err != nil {
			return schema.Task{}, "", err
		}
		defer unlock()

		config := e.store.LoadConfig()
		if config == nil {
			return schema.Task{}, "", ErrUninitialized
		}

		tasks := e.store.LoadTasks()
		byID := indexTasks(tasks)
		task, ok := byID[taskID]
		if !ok {
			return schema.Task{}, "", taskNotFound(taskID)
		}
		if err := checkActor(task, actor); err != nil {
			return schema.Task{}, "", err
		}
		if task.Completed() {
			return schema.Task{}, "", nil
		}
		if blockers := incompleteBlockers(byID, task); len(blockers) > 0 {
			return schema.Task{}, "", &BlockedError{TaskID: taskID, Blockers: blockers}
		}

		task.Status = schema.TaskCompleted
		task.CompletedAt = e.clock.Now()
		if err := e.store.SaveTasks(tasks); err != nil {
			return schema.Task{}, "", err
		}
		return *task, config.SessionFor(schema.Coordinator), nil
	}()
	if err != nil {
		return err
	}

	if completed.ID != 0 && actor != schema.Coordinator {
		e.push(session, notify.TaskUpdated(completed, actor, "completed"))
	}
	return nil
}

// Uncomplete reverts a completed task to pending and clears
// completed_at. The permission rule matches [Engine.Complete].
// Dependents that were unblocked by the completion silently become
// blocked again; no notification is pushed for that.
func (e *Engine) Uncomplete(taskID int64, actor string) error {
	unlock, err := e.store.Lock()
	if err != nil {
		return err
	}
	defer unlock()

	tasks := e.store.LoadTasks()
	byID := indexTasks(tasks)
	task, ok := byID[taskID]
	if !ok {
		return taskNotFound(taskID)
	}
	if err := checkActor(task, actor); err != nil {
		return err
	}
	if !task.Completed() {
		return nil
	}

	task.Status = schema.TaskPending
	task.CompletedAt = time.Time{}
	return e.store.SaveTasks(tasks)
}

// Delete removes the task and prunes its id from every other task's
// edge sets, so no dangling references survive.
func (e *Engine) Delete(taskID int64) error {
	unlock, err := e.store.Lock()
	if err != nil {
		return err
	}
	defer unlock()

	tasks := e.store.LoadTasks()
	if !slices.ContainsFunc(tasks, func(t schema.Task) bool { return t.ID == taskID }) {
		return taskNotFound(taskID)
	}

	tasks = slices.DeleteFunc(tasks, func(t schema.Task) bool { return t.ID == taskID })
	for i := range tasks {
		tasks[i].Blocks = slices.DeleteFunc(tasks[i].Blocks, func(id int64) bool { return id == taskID })
		tasks[i].BlockedBy = slices.DeleteFunc(tasks[i].BlockedBy, func(id int64) bool { return id == taskID })
	}
	return e.store.SaveTasks(tasks)
}

// TasksFor returns the tasks assigned to the given group, in stored
// (creation) order.
func (e *Engine) TasksFor(groupID string) []schema.Task {
	var assigned []schema.Task
	for _, task := range e.store.LoadTasks() {
		if task.Assignee == groupID {
			assigned = append(assigned, task)
		}
	}
	return assigned
}

// List returns tasks matching the filter: [FilterAll] for everything,
// a stored status for exact match, or the derived [FilterBlocked]
// (pending with an incomplete blocker) and [FilterReady] (pending
// with none).
func (e *Engine) List(filter string) ([]schema.Task, error) {
	tasks := e.store.LoadTasks()
	byID := indexTasks(tasks)

	var matched []schema.Task
	for _, task := range tasks {
		switch filter {
		case FilterAll:
		case FilterPending, FilterCompleted:
			if task.Status != filter {
				continue
			}
		case FilterBlocked:
			if task.Completed() || len(incompleteBlockers(byID, &task)) == 0 {
				continue
			}
		case FilterReady:
			if task.Completed() || len(incompleteBlockers(byID, &task)) > 0 {
				continue
			}
		default:
			return nil, fmt.Errorf("unknown task filter %q", filter)
		}
		matched = append(matched, task)
	}
	return matched, nil
}

// SendMessage appends a message to the durable project log and
// best-effort delivers it into the recipient's session. The returned
// boolean reports live delivery only; the log append is the
// authoritative effect.
func (e *Engine) SendMessage(from, to, content string) (bool, error) {
	session, err := func() (string, error) {
		unlock, err := e.store.Lock()
		if err != nil {
			return "", err
		}
		defer unlock()

		config := e.store.LoadConfig()
		if config == nil {
			return "", ErrUninitialized
		}
		if to != schema.Coordinator && config.Group(to) == nil {
			return "", groupNotFound(to)
		}

		err = e.store.AppendMessage(schema.Message{
			From:    from,
			To:      to,
			Content: content,
			SentAt:  e.clock.Now(),
		})
		if err != nil {
			return "", err
		}
		return config.SessionFor(to), nil
	}()
	if err != nil {
		return false, err
	}
	return e.push(session, notify.Direct(from, content)), nil
}

// ReportProgress appends a timestamped line to the group's log file
// and pushes a progress message to the coordinator's session. The
// task must exist and be assigned to the reporting group.
func (e *Engine) ReportProgress(groupID string, taskID int64, text string) (bool, error) {
	config := e.store.LoadConfig()
	if config == nil {
		return false, ErrUninitialized
	}
	if config.Group(groupID) == nil {
		return false, groupNotFound(groupID)
	}

	tasks := e.store.LoadTasks()
	byID := indexTasks(tasks)
	task, ok := byID[taskID]
	if !ok {
		return false, taskNotFound(taskID)
	}
	if task.Assignee != groupID {
		return false, &PermissionDeniedError{Actor: groupID, TaskID: taskID, Assignee: task.Assignee}
	}

	if err := e.store.AppendAgentLog(groupID, fmt.Sprintf("task #%d: %s", taskID, text)); err != nil {
		return false, err
	}

	message := notify.TaskUpdated(*task, groupID, "progress: "+text)
	return e.push(config.SessionFor(schema.Coordinator), message), nil
}

// push delivers one message, logging a failed or skipped delivery at
// debug level. Delivery failure is never an error: the target session
// may simply not be running.
func (e *Engine) push(session string, message notify.Message) bool {
	if e.notifier == nil {
		return false
	}
	delivered := e.notifier.Deliver(session, message)
	if !delivered {
		slog.Debug("notification not delivered", "session", session, "text", message.Render())
	}
	return delivered
}

func checkActor(task *schema.Task, actor string) error {
	if actor == schema.Coordinator || actor == task.Assignee {
		return nil
	}
	return &PermissionDeniedError{Actor: actor, TaskID: task.ID, Assignee: task.Assignee}
}

// indexTasks maps ids to pointers into the backing slice, so edits
// through the map mutate the slice that will be saved.
func indexTasks(tasks []schema.Task) map[int64]*schema.Task {
	byID := make(map[int64]*schema.Task, len(tasks))
	for i := range tasks {
		byID[tasks[i].ID] = &tasks[i]
	}
	return byID
}

// incompleteBlockers returns the tasks in blocked_by that are not
// completed, skipping ids with no surviving task.
func incompleteBlockers(byID map[int64]*schema.Task, task *schema.Task) []schema.Task {
	var blockers []schema.Task
	for _, id := range task.BlockedBy {
		blocker, ok := byID[id]
		if ok && !blocker.Completed() {
			blockers = append(blockers, *blocker)
		}
	}
	return blockers
}

// reaches reports whether `to` is reachable from `from` over blocks
// edges. Depth-first with an explicit stack; the graph is acyclic by
// construction, the visited set guards against diamonds.
func reaches(byID map[int64]*schema.Task, from, to int64) bool {
	visited := make(map[int64]bool)
	stack := []int64{from}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == to {
			return true
		}
		if visited[id] {
			continue
		}
		visited[id] = true
		if task, ok := byID[id]; ok {
			stack = append(stack, task.Blocks...)
		}
	}
	return false
}
