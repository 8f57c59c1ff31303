// Copyright 2026 The Swarm Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings is swarm's installation-level configuration.
type Settings struct {
	// StateDir is the default project state directory, used when a
	// command is not given an explicit --dir.
	StateDir string `yaml:"state_dir"`

	// Tmux configures how sessions are reached.
	Tmux TmuxSettings `yaml:"tmux"`

	// Watch configures the polling watchers.
	Watch WatchSettings `yaml:"watch"`

	// Notify configures session message delivery.
	Notify NotifySettings `yaml:"notify"`
}

// TmuxSettings locates the tmux server that hosts agent sessions.
type TmuxSettings struct {
	// SocketPath is the tmux server socket. Empty means the user's
	// default server.
	SocketPath string `yaml:"socket_path"`

	// ConfigFile is passed to tmux -f when starting a server. Empty
	// means tmux's own default.
	ConfigFile string `yaml:"config_file"`
}

// WatchSettings sets the watcher poll cadences.
type WatchSettings struct {
	// LogPollInterval is how often group log files are checked for
	// appended lines.
	LogPollInterval Duration `yaml:"log_poll_interval"`

	// TaskPollInterval is how often the task version counter is
	// checked.
	TaskPollInterval Duration `yaml:"task_poll_interval"`

	// DiscoverInterval is how often the group registry is rescanned
	// for new groups to watch.
	DiscoverInterval Duration `yaml:"discover_interval"`
}

// NotifySettings tunes session message delivery.
type NotifySettings struct {
	// SettleDelay is the pause between typing a message into a
	// session and pressing Enter.
	SettleDelay Duration `yaml:"settle_delay"`
}

// Default returns the settings used when no file overrides them.
func Default() *Settings {
	return &Settings{
		StateDir: ".swarm",
		Watch: WatchSettings{
			LogPollInterval:  Duration(1 * time.Second),
			TaskPollInterval: Duration(2 * time.Second),
			DiscoverInterval: Duration(5 * time.Second),
		},
		Notify: NotifySettings{
			SettleDelay: Duration(100 * time.Millisecond),
		},
	}
}

// Load reads settings from the file named by SWARM_CONFIG. It fails
// when the variable is unset; there is no discovery fallback.
func Load() (*Settings, error) {
	path := os.Getenv("SWARM_CONFIG")
	if path == "" {
		return nil, fmt.Errorf("SWARM_CONFIG environment variable not set; " +
			"set it to the path of your swarm.yaml settings file, or use --config")
	}
	return LoadFile(path)
}

// LoadFile reads settings from the given file, layered over
// [Default]. Fields absent from the file keep their defaults.
func LoadFile(path string) (*Settings, error) {
	settings := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading settings file: %w", err)
	}
	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("parsing settings file %s: %w", path, err)
	}
	return settings, nil
}

// Duration is a time.Duration that unmarshals from the usual Go
// duration syntax ("100ms", "2s") in YAML.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler, so settings round-trip in
// the same syntax they are written in.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}
