// Copyright 2026 The Swarm Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import "testing"

func TestValidateID(t *testing.T) {
	valid := []string{"alpha", "group-1", "API_team", "a", "0"}
	for _, id := range valid {
		if err := ValidateID(id, "group id"); err != nil {
			t.Errorf("ValidateID(%q) = %v, want nil", id, err)
		}
	}

	invalid := []string{"", "has space", "semi;colon", "dot.dot", "slash/", "../escape"}
	for _, id := range invalid {
		if err := ValidateID(id, "group id"); err == nil {
			t.Errorf("ValidateID(%q) = nil, want error", id)
		}
	}
}

func TestConfigGroupLookup(t *testing.T) {
	config := Config{
		Groups: []Group{
			{ID: "alpha", Session: "swarm_alpha"},
			{ID: "beta", Session: "swarm_beta"},
		},
	}

	if got := config.Group("beta"); got == nil || got.Session != "swarm_beta" {
		t.Fatalf("Group(beta) = %+v, want session swarm_beta", got)
	}
	if got := config.Group("gamma"); got != nil {
		t.Fatalf("Group(gamma) = %+v, want nil", got)
	}
}

func TestConfigSessionFor(t *testing.T) {
	config := Config{
		CoordinatorSession: "swarm_td",
		Groups:             []Group{{ID: "alpha", Session: "swarm_alpha"}},
	}

	if got := config.SessionFor(Coordinator); got != "swarm_td" {
		t.Errorf("SessionFor(coordinator) = %q, want swarm_td", got)
	}
	if got := config.SessionFor("alpha"); got != "swarm_alpha" {
		t.Errorf("SessionFor(alpha) = %q, want swarm_alpha", got)
	}
	if got := config.SessionFor("missing"); got != "" {
		t.Errorf("SessionFor(missing) = %q, want empty", got)
	}
}
