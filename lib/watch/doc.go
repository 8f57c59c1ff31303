// Copyright 2026 The Swarm Authors
// SPDX-License-Identifier: Apache-2.0

// Package watch polls the project state directory and turns changes
// into callbacks: LogWatcher tails the per-group log files, and
// TaskWatcher surfaces task creations and status changes.
//
// Both watchers are pull-based. Nothing in the engine pushes to them;
// they observe the same documents any other process could read, so a
// watcher can run in a different process from the writers it
// observes. Time comes from an injected clock, which is how the tests
// drive the tick loops deterministically.
package watch
