// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts the current time so that pack builds can be
// made reproducible. Production code injects Real(); deterministic
// builds and tests inject Fixed() with a pinned instant.
package clock

import "time"

// Clock supplies the current time. Every production function that
// would call time.Now should accept a Clock instead, so a build can
// pin its timestamps for byte-reproducible output.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// Real returns a Clock backed by the standard time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Fixed returns a Clock that always reports t. Used for reproducible
// builds and deterministic tests.
func Fixed(t time.Time) Clock { return fixedClock{t: t} }

type fixedClock struct {
	t time.Time
}

func (c fixedClock) Now() time.Time { return c.t }
