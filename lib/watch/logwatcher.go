// Copyright 2026 The Swarm Authors
// SPDX-License-Identifier: Apache-2.0

package watch

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/swarmforge/swarm/lib/clock"
	"github.com/swarmforge/swarm/lib/store"
)

const (
	// defaultLogPollInterval is how often watched log files are
	// checked for appended bytes.
	defaultLogPollInterval = 1 * time.Second

	// defaultDiscoverInterval is how often the group registry is
	// rescanned for newly registered groups.
	defaultDiscoverInterval = 5 * time.Second
)

// LineConsumer receives one non-empty log line from one group's log.
// Called on the watcher's goroutine; a slow consumer delays the next
// poll.
type LineConsumer func(group, line string)

// LogWatcher tails every registered group's log file by byte offset.
// A newly discovered group starts at the file's current end, so only
// lines written after discovery are reported.
type LogWatcher struct {
	store    *store.Store
	clock    clock.Clock
	consumer LineConsumer

	// PollInterval and DiscoverInterval override the defaults when
	// set before Run.
	PollInterval     time.Duration
	DiscoverInterval time.Duration

	// offsets is the next unread byte per group. Touched only by the
	// Run goroutine (or a test calling the tick methods directly).
	offsets map[string]int64
}

// NewLogWatcher returns a watcher that reports appended log lines to
// consumer.
func NewLogWatcher(st *store.Store, clk clock.Clock, consumer LineConsumer) *LogWatcher {
	return &LogWatcher{
		store:            st,
		clock:            clk,
		consumer:         consumer,
		PollInterval:     defaultLogPollInterval,
		DiscoverInterval: defaultDiscoverInterval,
		offsets:          make(map[string]int64),
	}
}

// Run polls until ctx is cancelled. Cancellation only suppresses
// future ticks; a tick in progress finishes first.
func (w *LogWatcher) Run(ctx context.Context) {
	w.tickDiscover()

	poll := w.clock.NewTicker(w.PollInterval)
	defer poll.Stop()
	discover := w.clock.NewTicker(w.DiscoverInterval)
	defer discover.Stop()

	for {
		select {
		case <-poll.C:
			w.tickPoll()
		case <-discover.C:
			w.tickDiscover()
		case <-ctx.Done():
			return
		}
	}
}

// tickDiscover begins watching any group registered since the last
// scan, starting at its log's current end. An unreadable registry is
// retried on the next tick.
func (w *LogWatcher) tickDiscover() {
	config := w.store.LoadConfig()
	if config == nil {
		return
	}
	for _, group := range config.Groups {
		if _, watched := w.offsets[group.ID]; watched {
			continue
		}
		w.offsets[group.ID] = fileSize(w.store.AgentLogPath(group.ID))
	}
}

// tickPoll reads the appended bytes of every watched log and emits
// the complete non-empty lines in file order. Per-file errors are
// logged and retried next tick.
func (w *LogWatcher) tickPoll() {
	for group, offset := range w.offsets {
		path := w.store.AgentLogPath(group)

		info, err := os.Stat(path)
		if err != nil {
			if !os.IsNotExist(err) {
				slog.Debug("log file unreadable", "group", group, "error", err)
			}
			continue
		}
		if info.Size() < offset {
			// The file was truncated or replaced; re-read it from
			// the start, the way tail -F does.
			offset = 0
		}
		if info.Size() == offset {
			continue
		}

		data, err := readFrom(path, offset)
		if err != nil {
			slog.Debug("log file unreadable", "group", group, "error", err)
			continue
		}

		// Only complete lines are consumed; a partially written
		// final line stays unread until its newline arrives.
		complete := strings.LastIndexByte(string(data), '\n') + 1
		for _, line := range strings.Split(string(data[:complete]), "\n") {
			if line != "" {
				w.consumer(group, line)
			}
		}
		w.offsets[group] = offset + int64(complete)
	}
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

func readFrom(path string, offset int64) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return nil, err
	}
	return io.ReadAll(file)
}
