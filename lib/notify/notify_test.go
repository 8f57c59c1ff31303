// Copyright 2026 The Swarm Authors
// SPDX-License-Identifier: Apache-2.0

package notify

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/swarmforge/swarm/lib/clock"
	"github.com/swarmforge/swarm/lib/schema"
	"github.com/swarmforge/swarm/lib/testutil"
)

var epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func TestRenderTemplates(t *testing.T) {
	task := schema.Task{ID: 12, Title: "wire the parser"}

	tests := []struct {
		name    string
		message Message
		want    string
	}{
		{"new task", NewTask(task), "# MESSAGE: new task #12: wire the parser"},
		{"completed", TaskUpdated(task, "alpha", "completed"), "# MESSAGE: task #12 (wire the parser) completed by alpha"},
		{"progress", TaskUpdated(task, "alpha", "progress: tests passing"), "# MESSAGE: task #12 (wire the parser) progress: tests passing by alpha"},
		{"direct", Direct("coordinator", "ship it"), "# MESSAGE: from coordinator: ship it"},
		{"log relay", LogRelay("beta", "build ok"), "# MESSAGE: [beta] build ok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.message.Render(); got != tt.want {
				t.Errorf("Render() = %q, want %q", got, tt.want)
			}
		})
	}
}

// fakeSessions records the sequence of writer calls for one target.
type fakeSessions struct {
	mu       sync.Mutex
	exists   bool
	sendErr  error
	sequence []string
}

func (f *fakeSessions) HasSession(string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sequence = append(f.sequence, "has-session")
	return f.exists
}

func (f *fakeSessions) SendText(_, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sequence = append(f.sequence, "text:"+text)
	return f.sendErr
}

func (f *fakeSessions) SendEnter(string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sequence = append(f.sequence, "enter")
	return nil
}

func (f *fakeSessions) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sequence...)
}

func TestDeliverTwoStepShape(t *testing.T) {
	sessions := &fakeSessions{exists: true}
	fakeClock := clock.Fake(epoch)
	notifier := NewTmuxNotifier(sessions, fakeClock, 0)

	result := make(chan bool, 1)
	go func() {
		result <- notifier.Deliver("swarm_alpha", Direct("coordinator", "hello"))
	}()

	// Deliver must write the text, then settle, then press Enter. The
	// settle shows up as a pending fake-clock sleep between the two
	// sends.
	fakeClock.WaitForTimers(1)
	calls := sessions.calls()
	if len(calls) != 2 || calls[1] != "text:# MESSAGE: from coordinator: hello" {
		t.Fatalf("calls before settle = %v, want has-session then text", calls)
	}

	fakeClock.Advance(DefaultSettleDelay)
	if !testutil.RequireReceive(t, result, 5*time.Second, "waiting for Deliver") {
		t.Fatal("Deliver returned false for a reachable session")
	}

	calls = sessions.calls()
	if calls[len(calls)-1] != "enter" {
		t.Fatalf("calls after settle = %v, want enter last", calls)
	}
}

func TestDeliverMissingSession(t *testing.T) {
	sessions := &fakeSessions{exists: false}
	notifier := NewTmuxNotifier(sessions, clock.Real(), time.Nanosecond)

	if notifier.Deliver("gone", Direct("a", "b")) {
		t.Fatal("Deliver returned true for a missing session")
	}
	for _, call := range sessions.calls() {
		if call != "has-session" {
			t.Fatalf("unexpected call %q after missing session", call)
		}
	}
}

func TestDeliverEmptySessionRef(t *testing.T) {
	sessions := &fakeSessions{exists: true}
	notifier := NewTmuxNotifier(sessions, clock.Real(), time.Nanosecond)

	if notifier.Deliver("", Direct("a", "b")) {
		t.Fatal("Deliver returned true for an empty session ref")
	}
	if calls := sessions.calls(); len(calls) != 0 {
		t.Fatalf("calls = %v, want none for empty ref", calls)
	}
}

func TestDeliverSendFailure(t *testing.T) {
	sessions := &fakeSessions{exists: true, sendErr: errors.New("pane gone")}
	notifier := NewTmuxNotifier(sessions, clock.Real(), time.Nanosecond)

	if notifier.Deliver("swarm_alpha", Direct("a", "b")) {
		t.Fatal("Deliver returned true when SendText failed")
	}
}

func TestRecorder(t *testing.T) {
	recorder := NewRecorder()

	if !recorder.Deliver("swarm_alpha", Direct("coordinator", "hi")) {
		t.Fatal("Deliver to reachable target returned false")
	}
	recorder.FailFor("swarm_beta")
	if recorder.Deliver("swarm_beta", Direct("coordinator", "hi")) {
		t.Fatal("Deliver to failing target returned true")
	}

	deliveries := recorder.Deliveries()
	if len(deliveries) != 1 || deliveries[0].Target != "swarm_alpha" {
		t.Fatalf("deliveries = %+v", deliveries)
	}
}
