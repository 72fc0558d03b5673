// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

// Package git provides typed access to the git CLI for the repository
// metadata recorded in pack provenance. All commands target a specific
// directory via the -C flag, which every Repository method injects.
// Provenance collection is best-effort: a missing git binary, a
// directory outside any repository, or a repository without a remote
// all surface as errors the caller is expected to tolerate.
package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Repository represents a git repository at a specific directory. All
// operations target this directory via "git -C <dir>". There is no
// default directory — callers must always specify which repository
// they mean.
type Repository struct {
	dir string
}

// NewRepository returns a Repository targeting the given directory.
func NewRepository(dir string) *Repository {
	return &Repository{dir: dir}
}

// Dir returns the repository directory.
func (r *Repository) Dir() string {
	return r.dir
}

// Run executes a git command targeting this repository and returns
// trimmed stdout. Stderr is captured separately and included in error
// messages on failure.
func (r *Repository) Run(ctx context.Context, args ...string) (string, error) {
	fullArgs := append([]string{"-C", r.dir}, args...)
	var stdout, stderr bytes.Buffer
	command := exec.CommandContext(ctx, "git", fullArgs...)
	command.Stdout = &stdout
	command.Stderr = &stderr

	if err := command.Run(); err != nil {
		return "", fmt.Errorf("git %s in %s: %w (stderr: %s)",
			strings.Join(args, " "), r.dir, err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

// Head returns the full commit hash of HEAD.
func (r *Repository) Head(ctx context.Context) (string, error) {
	return r.Run(ctx, "rev-parse", "HEAD")
}

// RemoteURL returns the URL of the "origin" remote.
func (r *Repository) RemoteURL(ctx context.Context) (string, error) {
	return r.Run(ctx, "config", "--get", "remote.origin.url")
}
