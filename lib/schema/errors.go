// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"fmt"
)

// ExtractError reports a failure deriving a component's config schema
// or checking it against the meta-schema.
type ExtractError struct {
	Component string
	Reason    string
	Err       error
}

func (e *ExtractError) Error() string {
	msg := fmt.Sprintf("config schema for component %q: %s", e.Component, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ExtractError) Unwrap() error { return e.Err }

// Violation is a single config finding: one node, one JSON pointer
// into the flow document, one message.
type Violation struct {
	NodeID    string `json:"node_id"`
	Component string `json:"component"`
	Pointer   string `json:"pointer"`
	Message   string `json:"message"`
}

// ValidationError aggregates every violation found across a flow. It
// is only returned once all nodes have been checked, so callers can
// report the full set in one pass.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 1 {
		return "config validation failed with 1 violation"
	}
	return fmt.Sprintf("config validation failed with %d violations", len(e.Violations))
}
