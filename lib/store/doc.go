// Copyright 2026 The Swarm Authors
// SPDX-License-Identifier: Apache-2.0

// Package store persists a project's shared state as whole-document
// JSON snapshots in a single directory: the configuration document
// (config.json, carrying the group registry and the monotonic task
// version counter), the task collection (tasks.json), the message log
// (messages.json), and one append-only text log per agent.
//
// Reads are tolerant: a missing or corrupt document loads as empty,
// never as a fatal error, so a freshly initialized project and a
// damaged one both present a usable (if empty) state.
//
// Writes are whole-document replacements, made atomic with the
// write-temp-fsync-rename pattern so readers never observe a partial
// document.
//
// The store itself does not serialize concurrent writers. Every
// load-mutate-save sequence must run under [Store.Lock], an advisory
// flock held for the duration of the sequence; without it, two
// concurrent mutations can both load the same snapshot and the second
// save silently discards the first (lost update).
package store
