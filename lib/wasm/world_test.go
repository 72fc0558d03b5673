// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package wasm

import "testing"

func TestNormalizeWorldRef(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"weft:proc/echo@1.0.0", "weft:proc/echo@1.0.0"},
		{"  weft:proc/echo  ", "weft:proc/echo"},
		{"echo", "echo"},
		{"weft:templating/handlebars", "weft:templating/handlebars"},
		// A trailing @ has no version to split off.
		{"weft:proc/echo@", "weft:proc/echo@"},
		// No '/' passes through untouched whatever else it contains.
		{"@1.0.0", "@1.0.0"},
	}
	for _, tc := range cases {
		got, err := NormalizeWorldRef(tc.input)
		if err != nil {
			t.Errorf("NormalizeWorldRef(%q): %v", tc.input, err)
			continue
		}
		if got != tc.want {
			t.Errorf("NormalizeWorldRef(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestNormalizeWorldRefInvalid(t *testing.T) {
	for _, input := range []string{"proc/echo", "a/b/c"} {
		if _, err := NormalizeWorldRef(input); err == nil {
			t.Errorf("NormalizeWorldRef(%q) accepted a reference without a namespace", input)
		}
	}
}

func TestWorldsMatch(t *testing.T) {
	cases := []struct {
		found    string
		expected string
		want     bool
	}{
		{"weft:proc/echo@1.0.0", "weft:proc/echo@1.0.0", true},
		{"weft:proc/echo@1.0.0", "weft:proc/echo@2.0.0", true},
		{"weft:proc/echo@1.0.0", "weft:proc/echo", true},
		{"weft:proc/echo@1.0.0", "echo", true},
		{"echo", "echo", true},
		{"weft:proc/echo", "weft:proc/other", false},
		{"weft:proc/echo@1.0.0", "other", false},
		{"weft:proc/echo", "acme:proc/echo", false},
	}
	for _, tc := range cases {
		if got := WorldsMatch(tc.found, tc.expected); got != tc.want {
			t.Errorf("WorldsMatch(%q, %q) = %v, want %v", tc.found, tc.expected, got, tc.want)
		}
	}
}

func TestWorldShortName(t *testing.T) {
	cases := []struct {
		ref  string
		want string
	}{
		{"weft:proc/echo@1.0.0", "echo"},
		{"weft:proc/echo", "echo"},
		{"echo", "echo"},
		{"echo@2.1.0", "echo"},
	}
	for _, tc := range cases {
		if got := WorldShortName(tc.ref); got != tc.want {
			t.Errorf("WorldShortName(%q) = %q, want %q", tc.ref, got, tc.want)
		}
	}
}

func TestWorldVersion(t *testing.T) {
	cases := []struct {
		ref  string
		want string
	}{
		{"weft:proc/echo@1.0.0", "1.0.0"},
		{"weft:proc/echo", ""},
		{"echo@0.3.0", "0.3.0"},
	}
	for _, tc := range cases {
		if got := WorldVersion(tc.ref); got != tc.want {
			t.Errorf("WorldVersion(%q) = %q, want %q", tc.ref, got, tc.want)
		}
	}
}
