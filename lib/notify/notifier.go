// Copyright 2026 The Swarm Authors
// SPDX-License-Identifier: Apache-2.0

package notify

import (
	"log/slog"
	"time"

	"github.com/swarmforge/swarm/lib/clock"
)

// DefaultSettleDelay is the pause between typing a message and
// pressing Enter. Some terminal front-ends debounce on keystroke
// boundaries and would otherwise process a partial line.
const DefaultSettleDelay = 100 * time.Millisecond

// Notifier delivers one message to one session. Implementations are
// best-effort: Deliver reports false when the target cannot be
// reached, and the caller must treat that as information, never as a
// reason to fail or roll back the mutation that triggered the
// notification.
type Notifier interface {
	Deliver(sessionRef string, message Message) bool
}

// SessionWriter is the slice of the tmux server surface the notifier
// needs. *tmux.Server satisfies it.
type SessionWriter interface {
	HasSession(sessionName string) bool
	SendText(sessionName, text string) error
	SendEnter(sessionName string) error
}

// TmuxNotifier types messages into live tmux sessions. Delivery is
// two sequential effects — write the rendered text, then send Enter —
// separated by a settle delay.
type TmuxNotifier struct {
	sessions SessionWriter
	clock    clock.Clock
	settle   time.Duration
}

// NewTmuxNotifier returns a notifier that writes through sessions.
// settle <= 0 selects [DefaultSettleDelay].
func NewTmuxNotifier(sessions SessionWriter, clk clock.Clock, settle time.Duration) *TmuxNotifier {
	if settle <= 0 {
		settle = DefaultSettleDelay
	}
	return &TmuxNotifier{sessions: sessions, clock: clk, settle: settle}
}

// Deliver types the rendered message into the named session and
// submits it. Returns false, without error, when the session does not
// exist or either send fails — the target may simply not be running,
// which is a normal condition.
//
// Within one Deliver call the two effects are sequential; nothing
// serializes separate concurrent Deliver calls against each other.
func (n *TmuxNotifier) Deliver(sessionRef string, message Message) bool {
	if sessionRef == "" || !n.sessions.HasSession(sessionRef) {
		return false
	}

	if err := n.sessions.SendText(sessionRef, message.Render()); err != nil {
		slog.Debug("notification text not delivered", "session", sessionRef, "error", err)
		return false
	}

	// Let the target process the typed text before the submitting
	// keystroke arrives.
	n.clock.Sleep(n.settle)

	if err := n.sessions.SendEnter(sessionRef); err != nil {
		slog.Debug("notification enter not delivered", "session", sessionRef, "error", err)
		return false
	}
	return true
}
