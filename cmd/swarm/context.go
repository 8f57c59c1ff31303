// Copyright 2026 The Swarm Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/swarmforge/swarm/lib/clock"
	"github.com/swarmforge/swarm/lib/config"
	"github.com/swarmforge/swarm/lib/notify"
	"github.com/swarmforge/swarm/lib/store"
	"github.com/swarmforge/swarm/lib/task"
	"github.com/swarmforge/swarm/lib/tmux"
)

// appContext is everything a command handler needs: settings, the
// project store, the engine wired to a tmux notifier, and the server
// handle for direct session operations (peek, monitor relay).
type appContext struct {
	settings *config.Settings
	store    *store.Store
	engine   *task.Engine
	server   *tmux.Server
	notifier notify.Notifier
	clock    clock.Clock
}

// commonFlags are shared by every command that touches project state.
type commonFlags struct {
	configPath string
	stateDir   string
	socketPath string
}

func (f *commonFlags) register(flags *pflag.FlagSet) {
	flags.StringVar(&f.configPath, "config", "", "swarm settings file (default $SWARM_CONFIG)")
	flags.StringVar(&f.stateDir, "dir", "", "project state directory (default from settings)")
	flags.StringVar(&f.socketPath, "socket", "", "tmux server socket (default from settings)")
}

// open resolves settings and builds the application context. Flag
// values win over the settings file, which wins over built-in
// defaults.
func (f *commonFlags) open() (*appContext, error) {
	settings, err := loadSettings(f.configPath)
	if err != nil {
		return nil, err
	}

	dir := f.stateDir
	if dir == "" {
		dir = settings.StateDir
	}

	clk := clock.Real()
	st, err := store.Open(dir, clk)
	if err != nil {
		return nil, err
	}

	socket := f.socketPath
	if socket == "" {
		socket = settings.Tmux.SocketPath
	}
	if socket == "" {
		socket = filepath.Join(os.TempDir(), fmt.Sprintf("swarm-%d.sock", os.Getuid()))
	}
	server := tmux.NewServer(socket, settings.Tmux.ConfigFile)
	notifier := notify.NewTmuxNotifier(server, clk, settings.Notify.SettleDelay.Std())

	return &appContext{
		settings: settings,
		store:    st,
		engine:   task.New(st, notifier, clk),
		server:   server,
		notifier: notifier,
		clock:    clk,
	}, nil
}

// loadSettings loads the settings file named by --config, then
// SWARM_CONFIG, falling back to built-in defaults when neither is
// set.
func loadSettings(flagPath string) (*config.Settings, error) {
	if flagPath != "" {
		return config.LoadFile(flagPath)
	}
	if os.Getenv("SWARM_CONFIG") != "" {
		return config.Load()
	}
	return config.Default(), nil
}
