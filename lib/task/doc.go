// Copyright 2026 The Swarm Authors
// SPDX-License-Identifier: Apache-2.0

// Package task implements the shared task graph: creation,
// assignment, mirrored dependency edges, completion gating, and the
// project-level operations built on top of them (group registration,
// messaging, progress reporting).
//
// Every mutating operation holds the store's advisory lock for its
// whole load-mutate-save span, so concurrent engines in separate
// processes serialize instead of overwriting each other. Session
// notifications fire only after the store write has landed and the
// lock is released; delivery is best-effort and never fails the
// mutation.
package task
