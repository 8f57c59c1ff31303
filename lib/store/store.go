// Copyright 2026 The Swarm Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"

	"github.com/swarmforge/swarm/lib/clock"
	"github.com/swarmforge/swarm/lib/schema"
)

const (
	configFile   = "config.json"
	tasksFile    = "tasks.json"
	messagesFile = "messages.json"
	lockFile     = ".lock"
)

// Store reads and writes one project's state directory.
type Store struct {
	dir   string
	clock clock.Clock
}

// Open returns a Store rooted at dir, creating the directory if
// needed. clk stamps agent log lines; pass clock.Real() outside of
// tests.
func Open(dir string, clk clock.Clock) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating state directory %s: %w", dir, err)
	}
	return &Store{dir: dir, clock: clk}, nil
}

// Dir returns the project state directory.
func (s *Store) Dir() string { return s.dir }

// LoadConfig reads the project configuration document. Returns nil
// when the project has not been initialized or the document cannot be
// read or parsed — callers must treat nil as "empty project", not as
// a fatal condition.
//
// The file is parsed comment-tolerantly (JSONC): operators hand-edit
// the config, and a stray comment must not wipe the project state.
func (s *Store) LoadConfig() *schema.Config {
	data, err := os.ReadFile(filepath.Join(s.dir, configFile))
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("config document unreadable, treating as empty",
				"path", filepath.Join(s.dir, configFile), "error", err)
		}
		return nil
	}

	var config schema.Config
	if err := json.Unmarshal(jsonc.ToJSON(data), &config); err != nil {
		slog.Warn("config document corrupt, treating as empty",
			"path", filepath.Join(s.dir, configFile), "error", err)
		return nil
	}
	return &config
}

// SaveConfig atomically replaces the project configuration document.
func (s *Store) SaveConfig(config *schema.Config) error {
	data, err := marshalDocument(config)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return writeDocument(filepath.Join(s.dir, configFile), data)
}

// LoadTasks reads the task collection. A missing or corrupt document
// loads as an empty collection.
func (s *Store) LoadTasks() []schema.Task {
	data, err := os.ReadFile(filepath.Join(s.dir, tasksFile))
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("task document unreadable, treating as empty",
				"path", filepath.Join(s.dir, tasksFile), "error", err)
		}
		return nil
	}

	var tasks []schema.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		slog.Warn("task document corrupt, treating as empty",
			"path", filepath.Join(s.dir, tasksFile), "error", err)
		return nil
	}
	return tasks
}

// SaveTasks atomically replaces the task collection and increments the
// config document's task version counter. The tasks are durable before
// the version that announces them: a watcher that observes the new
// version is guaranteed to read the new task list.
//
// Must be called under [Store.Lock] — the version bump is a
// read-modify-write of the config document.
func (s *Store) SaveTasks(tasks []schema.Task) error {
	data, err := marshalDocument(tasks)
	if err != nil {
		return fmt.Errorf("encoding tasks: %w", err)
	}
	if err := writeDocument(filepath.Join(s.dir, tasksFile), data); err != nil {
		return err
	}

	config := s.LoadConfig()
	if config == nil {
		return fmt.Errorf("project not initialized in %s", s.dir)
	}
	config.TaskVersion++
	return s.SaveConfig(config)
}

// TaskVersion returns the current task version counter, or 0 for an
// uninitialized project.
func (s *Store) TaskVersion() uint64 {
	config := s.LoadConfig()
	if config == nil {
		return 0
	}
	return config.TaskVersion
}
