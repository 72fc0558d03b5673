// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package component

import (
	"fmt"
)

// ResolveReason classifies why a component could not be resolved.
type ResolveReason string

const (
	ReasonNotFound        ResolveReason = "not found"
	ReasonVersionMismatch ResolveReason = "version mismatch"
	ReasonHashMismatch    ResolveReason = "hash mismatch"
	ReasonWorldMismatch   ResolveReason = "world mismatch"
	ReasonManifestInvalid ResolveReason = "manifest invalid"
	ReasonDescribeMissing ResolveReason = "describe missing"
)

// ResolveError reports a component that failed loading or version
// selection. Name is the component name as the flow references it.
type ResolveError struct {
	Name       string
	VersionReq string
	Reason     ResolveReason
	Err        error
}

func (e *ResolveError) Error() string {
	msg := fmt.Sprintf("component %q", e.Name)
	if e.VersionReq != "" {
		msg += fmt.Sprintf(" (version %s)", e.VersionReq)
	}
	msg += ": " + string(e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ResolveError) Unwrap() error { return e.Err }
