// Copyright 2026 The Swarm Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import "fmt"

// ExitError signals a non-zero exit code without printing an extra
// error message. The main function checks for the ExitCode interface
// on returned errors to distinguish "handled non-zero exit" from
// "unexpected error to display"; commands returning it are expected
// to have already written their own output.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode returns the exit code.
func (e *ExitError) ExitCode() int {
	return e.Code
}
