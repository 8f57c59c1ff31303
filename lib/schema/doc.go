// Copyright 2026 The Swarm Authors
// SPDX-License-Identifier: Apache-2.0

// Package schema defines the persisted document types shared across
// the swarm packages: the per-project configuration document, the
// task collection, and the message log. These are plain serializable
// structs with no behavior beyond lookups and validation — the task
// engine owns all mutation rules.
package schema
