// Copyright 2026 The Swarm Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/swarmforge/swarm/lib/schema"
)

// LoadMessages reads the project message log. A missing or corrupt
// document loads as empty.
func (s *Store) LoadMessages() []schema.Message {
	data, err := os.ReadFile(filepath.Join(s.dir, messagesFile))
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("message document unreadable, treating as empty",
				"path", filepath.Join(s.dir, messagesFile), "error", err)
		}
		return nil
	}

	var messages []schema.Message
	if err := json.Unmarshal(data, &messages); err != nil {
		slog.Warn("message document corrupt, treating as empty",
			"path", filepath.Join(s.dir, messagesFile), "error", err)
		return nil
	}
	return messages
}

// AppendMessage appends one message to the project message log. The
// log is a whole-document JSON array, so the append is a
// load-append-save; call under [Store.Lock].
func (s *Store) AppendMessage(message schema.Message) error {
	messages := append(s.LoadMessages(), message)
	data, err := marshalDocument(messages)
	if err != nil {
		return fmt.Errorf("encoding messages: %w", err)
	}
	return writeDocument(filepath.Join(s.dir, messagesFile), data)
}

// AgentLogPath returns the path of the append-only text log for the
// named agent (a group id or the coordinator).
func (s *Store) AgentLogPath(agent string) string {
	return filepath.Join(s.dir, agent+".log")
}

// AppendAgentLog appends one timestamped line to the named agent's
// log file, creating it on first use. The log watcher tails these
// files by byte offset, so lines are only ever appended, never
// rewritten.
func (s *Store) AppendAgentLog(agent, text string) error {
	file, err := os.OpenFile(s.AgentLogPath(agent), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("opening agent log for %s: %w", agent, err)
	}
	defer file.Close()

	line := fmt.Sprintf("[%s] %s\n", s.clock.Now().Format("2006-01-02T15:04:05"), text)
	if _, err := file.WriteString(line); err != nil {
		return fmt.Errorf("appending to agent log for %s: %w", agent, err)
	}
	return nil
}
