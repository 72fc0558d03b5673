// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package flowdef

import "fmt"

// ParseError reports malformed YAML. Line is 1-based; Column is
// 1-based when known and 0 when the underlying parser did not report
// one.
type ParseError struct {
	Line    int
	Column  int
	Message string
}

func (e *ParseError) Error() string {
	switch {
	case e.Line > 0 && e.Column > 0:
		return fmt.Sprintf("flow parse error at line %d, column %d: %s", e.Line, e.Column, e.Message)
	case e.Line > 0:
		return fmt.Sprintf("flow parse error at line %d: %s", e.Line, e.Message)
	default:
		return "flow parse error: " + e.Message
	}
}

// StructureError reports a well-formed YAML document that is not a
// valid flow: missing nodes, a node that is not a mapping, a missing
// component reference, a missing or duplicate node id, an unsupported
// kind.
type StructureError struct {
	Reason string
}

func (e *StructureError) Error() string {
	return "invalid flow structure: " + e.Reason
}

func structureErrorf(format string, args ...any) *StructureError {
	return &StructureError{Reason: fmt.Sprintf(format, args...)}
}
