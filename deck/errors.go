// Copyright 2024 The Csgeom Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package deck

import (
	"fmt"

	"github.com/cpmech/gosl/chk"
)

// CircularDependencyError names the cell cards whose complement/like-but
// references form a cycle the dependency-resolution pass could not break,
// each paired with the source location its card was read from.
type CircularDependencyError struct {
	Members []string
	Locs    []SourceLoc
	// Confirmed reports whether lvlath's topological sort actually found a
	// cycle among Members (true) or merely stalled because one of them
	// references a name outside the depending set entirely, e.g. a typo
	// (false) -- either way every member is equally stuck.
	Confirmed bool
}

func (e *CircularDependencyError) Error() string {
	reason := "an unresolved reference outside this set"
	if e.Confirmed {
		reason = "a confirmed cycle"
	}
	msg := fmt.Sprintf("CircularDependency (%s): cells ", reason)
	for i, m := range e.Members {
		if i > 0 {
			msg += ", "
		}
		loc := SourceLoc{}
		if i < len(e.Locs) {
			loc = e.Locs[i]
		}
		msg += fmt.Sprintf("%s (%s:%d)", m, loc.File, loc.Line)
	}
	return msg + " never resolve"
}

func unresolvedReference(format string, args ...interface{}) error {
	return chk.Err("UnresolvedReference: "+format, args...)
}

func invalidEquation(format string, args ...interface{}) error {
	return chk.Err("InvalidEquation: "+format, args...)
}

func cancelledError() error {
	return chk.Err("Cancelled: fill operation was cancelled")
}
