// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package wasm

import (
	"fmt"
	"strings"
)

// NormalizeWorldRef canonicalizes a world reference of the form
// namespace:package/world[@version]. References without a package
// separator (bare world names) pass through unchanged; anything with
// a '/' must carry the full namespace:package prefix.
func NormalizeWorldRef(input string) (string, error) {
	raw := strings.TrimSpace(input)
	if !strings.Contains(raw, "/") {
		return raw, nil
	}

	pkgPart := raw
	version := ""
	if at := strings.Index(raw, "@"); at > 0 && at+1 < len(raw) {
		pkgPart = raw[:at]
		version = raw[at+1:]
	}

	slash := strings.LastIndex(pkgPart, "/")
	if slash < 0 {
		return "", invalidWorldRef(input)
	}
	pkg, world := pkgPart[:slash], pkgPart[slash+1:]

	colon := strings.LastIndex(pkg, ":")
	if colon < 0 {
		return "", invalidWorldRef(input)
	}
	namespace, name := pkg[:colon], pkg[colon+1:]

	id := namespace + ":" + name + "/" + world
	if version != "" {
		id += "@" + version
	}
	return id, nil
}

func invalidWorldRef(raw string) error {
	return fmt.Errorf("invalid world reference %q; expected namespace:package/world[@version]", raw)
}

// WorldsMatch reports whether a binary's declared world satisfies the
// manifest's expected world. Exact matches win; otherwise versions are
// ignored, and a bare expected name matches the world segment of a
// fully qualified reference.
func WorldsMatch(found, expected string) bool {
	if found == expected {
		return true
	}
	foundBase := worldBase(found)
	expectedBase := worldBase(expected)
	if foundBase == expectedBase {
		return true
	}
	if !strings.Contains(expectedBase, "/") {
		if slash := strings.LastIndex(foundBase, "/"); slash >= 0 {
			return foundBase[slash+1:] == expectedBase
		}
		return foundBase == expectedBase
	}
	return false
}

// WorldShortName returns the bare world segment of a reference:
// "weft:proc/echo@1.0.0" yields "echo".
func WorldShortName(ref string) string {
	base := worldBase(ref)
	if slash := strings.LastIndex(base, "/"); slash >= 0 {
		return base[slash+1:]
	}
	return base
}

// WorldVersion returns the version suffix of a reference, or the
// empty string when it has none.
func WorldVersion(ref string) string {
	if at := strings.Index(ref, "@"); at >= 0 {
		return ref[at+1:]
	}
	return ""
}

// worldBase strips the version suffix.
func worldBase(ref string) string {
	if at := strings.Index(ref, "@"); at >= 0 {
		return ref[:at]
	}
	return ref
}
