// Copyright 2026 The Swarm Authors
// SPDX-License-Identifier: Apache-2.0

package notify

import "sync"

// Delivery is one recorded Deliver call: the target session and the
// rendered message text.
type Delivery struct {
	Target string
	Text   string
}

// Recorder is a Notifier for tests. It records every delivery and
// reports success unless FailFor marks the target as unreachable.
type Recorder struct {
	mu         sync.Mutex
	deliveries []Delivery
	failing    map[string]bool
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{failing: make(map[string]bool)}
}

// Deliver records the call and reports whether the target is
// reachable.
func (r *Recorder) Deliver(sessionRef string, message Message) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sessionRef == "" || r.failing[sessionRef] {
		return false
	}
	r.deliveries = append(r.deliveries, Delivery{Target: sessionRef, Text: message.Render()})
	return true
}

// FailFor marks a target session as unreachable: subsequent Deliver
// calls to it return false and record nothing.
func (r *Recorder) FailFor(sessionRef string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failing[sessionRef] = true
}

// Deliveries returns a copy of the recorded deliveries in order.
func (r *Recorder) Deliveries() []Delivery {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Delivery(nil), r.deliveries...)
}
