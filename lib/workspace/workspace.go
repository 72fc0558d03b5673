// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

// Package workspace locates the developer workspace on disk and owns
// the files weft writes into it: the .weft directory with installed
// components and the workspace manifest, the user config file, and
// the resolved-config sidecar directory produced by pack builds.
package workspace

import (
	"os"
	"path/filepath"
)

// DirName is the marker directory that roots a workspace.
const DirName = ".weft"

// FindRoot walks up from start looking for a directory containing
// .weft. When none exists, start itself is the root: weft creates
// .weft there on first use.
func FindRoot(start string) string {
	dir, err := filepath.Abs(start)
	if err != nil {
		return start
	}
	for current := dir; ; {
		if info, err := os.Stat(filepath.Join(current, DirName)); err == nil && info.IsDir() {
			return current
		}
		parent := filepath.Dir(current)
		if parent == current {
			return dir
		}
		current = parent
	}
}

// ComponentsDir returns the workspace-local component install
// directory, .weft/components under the root.
func ComponentsDir(root string) string {
	return filepath.Join(root, DirName, "components")
}

// ManifestPath returns the workspace manifest path, .weft/workspace.json.
func ManifestPath(root string) string {
	return filepath.Join(root, DirName, "workspace.json")
}

// ResolvedConfigDir returns the sidecar directory that pack builds
// populate with one resolved-config record per node.
func ResolvedConfigDir(root string) string {
	return filepath.Join(root, ".cache", "resolved_config")
}
