// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package pack

import (
	"errors"
	"fmt"
)

// AssemblyError reports an invalid pack manifest input: a bad
// metadata overlay, an unparseable version, an empty entry-flow list.
type AssemblyError struct {
	Reason string
	Err    error
}

func (e *AssemblyError) Error() string {
	msg := "pack manifest assembly: " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AssemblyError) Unwrap() error { return e.Err }

// BuildError reports a failure writing or serializing the archive.
// Stage names the pipeline step that failed.
type BuildError struct {
	Stage string
	Err   error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("pack build failed at %s: %v", e.Stage, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

// ErrNondeterministic is returned by strict-mode builds when the
// proving rebuild produced different archive bytes.
var ErrNondeterministic = errors.New("nondeterministic build: rebuilt archive differs from the first")
