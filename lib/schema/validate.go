// Copyright 2026 The Swarm Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"fmt"
	"regexp"
)

// idPattern matches identifiers safe to embed in file names and tmux
// target arguments: project names and group ids.
var idPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateID checks that id is non-empty and contains only letters,
// digits, underscores, and hyphens. kind names what is being validated
// ("project name", "group id") for the error message.
func ValidateID(id, kind string) error {
	if id == "" {
		return fmt.Errorf("%s cannot be empty", kind)
	}
	if !idPattern.MatchString(id) {
		return fmt.Errorf("%s %q contains invalid characters (use letters, digits, underscores, and hyphens)", kind, id)
	}
	return nil
}
