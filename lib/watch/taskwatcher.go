// Copyright 2026 The Swarm Authors
// SPDX-License-Identifier: Apache-2.0

package watch

import (
	"context"
	"log/slog"
	"time"

	"github.com/zeebo/blake3"

	"github.com/swarmforge/swarm/lib/clock"
	"github.com/swarmforge/swarm/lib/codec"
	"github.com/swarmforge/swarm/lib/schema"
	"github.com/swarmforge/swarm/lib/store"
)

// defaultTaskPollInterval is how often the task version counter is
// checked.
const defaultTaskPollInterval = 2 * time.Second

// TaskConsumer receives one task whose observable state is new to the
// watcher. Called on the watcher's goroutine.
type TaskConsumer func(task schema.Task)

// TaskWatcher reports tasks the scope has not yet seen in their
// current state: a fresh task, or a known one whose status flipped.
//
// The cheap path is a version check against the config document's
// task counter; the task document is loaded and diffed only when the
// counter moved. "Seen" is a fingerprint of (id, title, description,
// status), so toggling a status re-notifies but an exactly repeated
// state does not, even across an intervening change.
type TaskWatcher struct {
	store    *store.Store
	clock    clock.Clock
	consumer TaskConsumer

	// Scope selects which tasks are observed: every task for
	// [schema.Coordinator], otherwise the tasks assigned to the
	// named group.
	Scope string

	// PollInterval overrides the default when set before Run.
	PollInterval time.Duration

	lastVersion uint64
	seen        map[[32]byte]struct{}
}

// NewTaskWatcher returns a watcher reporting scope's task changes to
// consumer. The first tick after any task write reports every task
// currently in scope.
func NewTaskWatcher(st *store.Store, clk clock.Clock, scope string, consumer TaskConsumer) *TaskWatcher {
	return &TaskWatcher{
		store:        st,
		clock:        clk,
		consumer:     consumer,
		Scope:        scope,
		PollInterval: defaultTaskPollInterval,
		seen:         make(map[[32]byte]struct{}),
	}
}

// Run polls until ctx is cancelled.
func (w *TaskWatcher) Run(ctx context.Context) {
	ticker := w.clock.NewTicker(w.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.tick()
		case <-ctx.Done():
			return
		}
	}
}

// tick performs one poll cycle.
func (w *TaskWatcher) tick() {
	version := w.store.TaskVersion()
	if version == w.lastVersion {
		return
	}

	for _, task := range w.store.LoadTasks() {
		if w.Scope != schema.Coordinator && task.Assignee != w.Scope {
			continue
		}
		key, err := fingerprint(task)
		if err != nil {
			slog.Debug("task fingerprint failed", "task", task.ID, "error", err)
			continue
		}
		if _, ok := w.seen[key]; ok {
			continue
		}
		w.seen[key] = struct{}{}
		w.consumer(task)
	}
	w.lastVersion = version
}

// taskState is the observable slice of a task that the seen-set keys
// on. Assignment changes do not re-notify; status changes do.
type taskState struct {
	ID          int64  `cbor:"id"`
	Title       string `cbor:"title"`
	Description string `cbor:"description"`
	Status      string `cbor:"status"`
}

func fingerprint(task schema.Task) ([32]byte, error) {
	encoded, err := codec.Marshal(taskState{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
	})
	if err != nil {
		return [32]byte{}, err
	}
	return blake3.Sum256(encoded), nil
}
