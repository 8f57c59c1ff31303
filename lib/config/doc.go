// Copyright 2026 The Swarm Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads swarm's own settings file.
//
// Settings are loaded from a single file named by:
//   - the SWARM_CONFIG environment variable, or
//   - the --config flag passed to the command
//
// There are no fallbacks or automatic discovery, so the effective
// configuration is always auditable. The settings file is distinct
// from a project's state directory: settings describe the local
// installation (tmux socket, poll intervals), the state directory
// holds the shared project documents.
package config
