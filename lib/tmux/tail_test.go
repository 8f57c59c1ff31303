// Copyright 2026 The Swarm Authors
// SPDX-License-Identifier: Apache-2.0

package tmux

import "testing"

func TestTailString(t *testing.T) {
	tests := []struct {
		name  string
		input string
		n     int
		want  string
	}{
		{"empty", "", 3, ""},
		{"fewer lines than n", "a\nb\n", 5, "a\nb\n"},
		{"exact", "a\nb\nc\n", 3, "a\nb\nc\n"},
		{"truncates", "a\nb\nc\nd\n", 2, "c\nd\n"},
		{"no trailing newline", "a\nb\nc", 2, "b\nc"},
		{"single line", "only\n", 1, "only\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tailString(tt.input, tt.n); got != tt.want {
				t.Errorf("tailString(%q, %d) = %q, want %q", tt.input, tt.n, got, tt.want)
			}
		})
	}
}

func TestNewSessionArgs(t *testing.T) {
	withConfig := NewServer("/tmp/s.sock", "/dev/null")
	got := withConfig.newSessionArgs("work")
	want := []string{"-f", "/dev/null", "-S", "/tmp/s.sock", "new-session", "-d", "-s", "work"}
	if len(got) != len(want) {
		t.Fatalf("args = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("args[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	noConfig := NewServer("/tmp/s.sock", "")
	if args := noConfig.newSessionArgs("work"); args[0] != "-S" {
		t.Fatalf("without config file, args should start with -S, got %v", args)
	}
}
