// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package pack

import (
	"fmt"
	"io"
	"strings"

	"github.com/weftworks/weft/lib/codec"
	"github.com/weftworks/weft/lib/digest"
)

// Policy selects how strictly a pack's signature is judged.
type Policy string

const (
	// PolicyDevOK accepts valid dev signatures and, with a warning,
	// unsigned packs.
	PolicyDevOK Policy = "dev-ok"

	// PolicyStrict rejects dev-signed and unsigned packs outright.
	// This producer never emits a production signature, so strict
	// verification of its own output always fails — the policy exists
	// so scripts can assert that property.
	PolicyStrict Policy = "strict"
)

// ParsePolicy validates a verification policy string. Empty defaults
// to PolicyDevOK.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "":
		return PolicyDevOK, nil
	case PolicyDevOK, PolicyStrict:
		return Policy(s), nil
	default:
		return "", fmt.Errorf("unsupported verify policy %q (want dev-ok or strict)", s)
	}
}

// Archive is a pack read back from disk.
type Archive struct {
	Manifest      *Manifest
	ManifestBytes []byte

	// Signature is nil for unsigned packs.
	Signature *Signature

	// Entries maps every other archive path to its bytes.
	Entries map[string][]byte
}

// ReadArchive opens and fully reads the pack at path.
func ReadArchive(path string) (*Archive, error) {
	reader, err := openReader(path)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	archive := &Archive{Entries: make(map[string][]byte)}
	for _, file := range reader.File {
		opened, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("opening entry %s: %w", file.Name, err)
		}
		data, err := io.ReadAll(opened)
		opened.Close()
		if err != nil {
			return nil, fmt.Errorf("reading entry %s: %w", file.Name, err)
		}

		switch file.Name {
		case ManifestEntryName:
			archive.ManifestBytes = data
			var manifest Manifest
			if err := codec.Unmarshal(data, &manifest); err != nil {
				return nil, fmt.Errorf("parsing %s: %w", ManifestEntryName, err)
			}
			archive.Manifest = &manifest
		case SignatureEntryName:
			var signature Signature
			if err := codec.Unmarshal(data, &signature); err != nil {
				return nil, fmt.Errorf("parsing %s: %w", SignatureEntryName, err)
			}
			archive.Signature = &signature
		default:
			archive.Entries[file.Name] = data
		}
	}
	if archive.Manifest == nil {
		return nil, fmt.Errorf("pack %s has no %s entry", path, ManifestEntryName)
	}
	if archive.Manifest.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("pack %s has schema version %d, this build reads %d",
			path, archive.Manifest.SchemaVersion, SchemaVersion)
	}
	return archive, nil
}

// Report summarizes a verification run.
type Report struct {
	PackID       string   `json:"pack_id"`
	Version      string   `json:"version"`
	ManifestHash string   `json:"manifest_hash"`
	Components   int      `json:"components"`
	Signed       bool     `json:"signed"`
	KeyID        string   `json:"key_id,omitempty"`
	Warnings     []string `json:"warnings,omitempty"`
}

// Verify reads the pack at path and checks its integrity: every
// component entry's bytes against the manifest-recorded hash, the
// presence of every declared entry, and the signature under policy.
func Verify(path string, policy Policy) (*Report, error) {
	archive, err := ReadArchive(path)
	if err != nil {
		return nil, err
	}
	manifest := archive.Manifest

	report := &Report{
		PackID:       manifest.PackID,
		Version:      manifest.Version,
		ManifestHash: digest.HashBytes(archive.ManifestBytes).String(),
		Components:   len(manifest.Components),
		Signed:       archive.Signature != nil,
	}

	var problems []string
	for _, artifact := range manifest.Components {
		data, ok := archive.Entries[artifact.Path]
		if !ok {
			problems = append(problems, fmt.Sprintf("missing component entry %s", artifact.Path))
			continue
		}
		if got := digest.HashBytes(data).Hex(); got != artifact.HashBlake3 {
			problems = append(problems, fmt.Sprintf("component %s@%s hash is %s, manifest records %s",
				artifact.Name, artifact.Version, got, artifact.HashBlake3))
		}
		if artifact.SchemaJSON != "" {
			schemaPath := SchemaEntryPath(artifact.Name, artifact.Version)
			if embedded, ok := archive.Entries[schemaPath]; !ok {
				problems = append(problems, fmt.Sprintf("missing schema entry %s", schemaPath))
			} else if string(embedded) != artifact.SchemaJSON {
				problems = append(problems, fmt.Sprintf("schema entry %s differs from the manifest copy", schemaPath))
			}
		}
	}
	if len(problems) > 0 {
		return report, fmt.Errorf("pack integrity check failed:\n  %s", strings.Join(problems, "\n  "))
	}

	switch policy {
	case PolicyStrict:
		if archive.Signature == nil {
			return report, fmt.Errorf("strict policy: pack is unsigned")
		}
		return report, fmt.Errorf("strict policy: pack carries a dev signature (key %s), which proves nothing about its origin", archive.Signature.KeyID)
	case PolicyDevOK, "":
		if archive.Signature == nil {
			report.Warnings = append(report.Warnings, "pack is unsigned")
			return report, nil
		}
		if err := archive.Signature.Verify(archive.ManifestBytes); err != nil {
			return report, fmt.Errorf("signature check failed: %w", err)
		}
		report.KeyID = archive.Signature.KeyID
		return report, nil
	default:
		return report, fmt.Errorf("unsupported verify policy %q", policy)
	}
}
