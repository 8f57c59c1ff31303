// Copyright 2026 The Swarm Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// Lock acquires the project's advisory write lock, blocking until it
// is available, and returns the function that releases it. Hold the
// lock for the whole load-mutate-save span of a mutation:
//
//	unlock, err := st.Lock()
//	if err != nil { ... }
//	defer unlock()
//
// The lock is a POSIX flock on a dedicated file in the state
// directory, so it arbitrates between independent processes, not just
// goroutines. It serializes writers against each other; lock-free
// readers are safe because every document write is an atomic rename.
func (s *Store) Lock() (func(), error) {
	path := filepath.Join(s.dir, lockFile)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening lock file %s: %w", path, err)
	}

	if err := unix.Flock(int(file.Fd()), unix.LOCK_EX); err != nil {
		file.Close()
		return nil, fmt.Errorf("acquiring project lock: %w", err)
	}

	return func() {
		// Closing the descriptor releases the flock; the explicit
		// unlock makes the release immediate rather than waiting on
		// descriptor teardown.
		unix.Flock(int(file.Fd()), unix.LOCK_UN)
		file.Close()
	}, nil
}
