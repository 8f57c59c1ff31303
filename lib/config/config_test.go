// Copyright 2026 The Swarm Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "swarm.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing settings file: %v", err)
	}
	return path
}

func TestLoadFileLayersOverDefaults(t *testing.T) {
	path := writeSettings(t, `
state_dir: /srv/swarm/project
tmux:
  socket_path: /tmp/swarm-tmux.sock
watch:
  log_poll_interval: 250ms
`)

	settings, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if settings.StateDir != "/srv/swarm/project" {
		t.Errorf("StateDir = %q", settings.StateDir)
	}
	if settings.Tmux.SocketPath != "/tmp/swarm-tmux.sock" {
		t.Errorf("SocketPath = %q", settings.Tmux.SocketPath)
	}
	if settings.Watch.LogPollInterval.Std() != 250*time.Millisecond {
		t.Errorf("LogPollInterval = %v", settings.Watch.LogPollInterval.Std())
	}

	// Fields the file does not mention keep their defaults.
	if settings.Watch.TaskPollInterval.Std() != 2*time.Second {
		t.Errorf("TaskPollInterval = %v", settings.Watch.TaskPollInterval.Std())
	}
	if settings.Notify.SettleDelay.Std() != 100*time.Millisecond {
		t.Errorf("SettleDelay = %v", settings.Notify.SettleDelay.Std())
	}
}

func TestLoadFileRejectsBadDuration(t *testing.T) {
	path := writeSettings(t, "watch:\n  log_poll_interval: fast\n")
	if _, err := LoadFile(path); err == nil {
		t.Fatal("LoadFile accepted an unparseable duration")
	}
}

func TestLoadRequiresEnvVar(t *testing.T) {
	t.Setenv("SWARM_CONFIG", "")
	if _, err := Load(); err == nil {
		t.Fatal("Load succeeded without SWARM_CONFIG")
	}

	t.Setenv("SWARM_CONFIG", writeSettings(t, "state_dir: /elsewhere\n"))
	settings, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if settings.StateDir != "/elsewhere" {
		t.Errorf("StateDir = %q", settings.StateDir)
	}
}
