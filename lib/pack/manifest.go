// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

// Package pack assembles and writes pack archives: deterministic zip
// containers bundling a flow document, the component artifacts its
// nodes resolved to, and a CBOR manifest that content-addresses all
// of it. The same package proves determinism in strict mode and
// verifies existing archives.
package pack

import (
	"encoding/json"
	"fmt"

	"github.com/weftworks/weft/lib/flowdef"
)

// SchemaVersion is the pack manifest format revision. Any change to
// entry paths, serialization, or compression is a new revision.
const SchemaVersion = 1

// Kind classifies a pack.
type Kind string

const (
	// KindApplication is a runnable pack: its entry flows are started
	// by the runner.
	KindApplication Kind = "application"
	// KindLibrary is a pack imported by other packs for its
	// components and flows.
	KindLibrary Kind = "library"
)

// ParseKind validates a pack kind string. Empty defaults to
// KindApplication.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case "":
		return KindApplication, nil
	case KindApplication, KindLibrary:
		return Kind(s), nil
	default:
		return "", &AssemblyError{Reason: fmt.Sprintf("unsupported pack kind %q", s)}
	}
}

// Manifest is the pack's logical manifest, serialized into the
// archive as deterministic CBOR (manifest.cbor) and surfaced through
// "weft pack verify --json" as JSON.
type Manifest struct {
	SchemaVersion int    `json:"schema_version"`
	PackID        string `json:"pack_id"`
	Version       string `json:"version"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`

	Authors []string `json:"authors,omitempty"`
	License string   `json:"license,omitempty"`
	Kind    Kind     `json:"kind"`

	EntryFlows  []string       `json:"entry_flows"`
	Imports     []ImportRef    `json:"imports,omitempty"`
	Events      map[string]any `json:"events,omitempty"`
	Annotations map[string]any `json:"annotations"`

	CreatedAtUTC string `json:"created_at_utc"`

	Flow       FlowImage           `json:"flow"`
	Components []ComponentArtifact `json:"components"`
	Provenance Provenance          `json:"provenance"`
}

// FlowImage is the flow document as embedded in the manifest: the
// source YAML verbatim, the canonical JSON, its hash, and the node
// references in source order. Node configs live inside the flow JSON
// and are not repeated per node.
type FlowImage struct {
	ID    string `json:"id"`
	Kind  string `json:"kind"`
	Entry string `json:"entry,omitempty"`
	YAML  string `json:"yaml"`
	JSON  string `json:"json"`
	// Hash is the bare hex blake3 digest of the canonical JSON.
	Hash  string         `json:"hash"`
	Nodes []ManifestNode `json:"nodes"`
}

// ManifestNode is one flow node in the manifest: its id, the
// component pin exactly as authored, and the optional schema pin.
type ManifestNode struct {
	NodeID    string               `json:"node_id"`
	Component flowdef.ComponentPin `json:"component"`
	SchemaID  string               `json:"schema_id,omitempty"`
}

// ComponentArtifact is one embedded component. Path is the archive
// entry holding the wasm bytes; HashBlake3 is their bare hex digest.
type ComponentArtifact struct {
	Name         string          `json:"name"`
	Version      string          `json:"version"`
	Path         string          `json:"path"`
	World        string          `json:"world,omitempty"`
	SchemaJSON   string          `json:"schema_json,omitempty"`
	ManifestJSON string          `json:"manifest_json,omitempty"`
	Capabilities json.RawMessage `json:"capabilities,omitempty"`
	HashBlake3   string          `json:"hash_blake3"`
}

// Provenance records how the pack was built. Git fields are absent —
// not empty — when the build environment had no usable repository.
type Provenance struct {
	Builder    string `json:"builder"`
	GitCommit  string `json:"git_commit,omitempty"`
	GitRepo    string `json:"git_repo,omitempty"`
	Toolchain  string `json:"toolchain,omitempty"`
	BuiltAtUTC string `json:"built_at_utc"`
	Host       string `json:"host,omitempty"`
	Notes      string `json:"notes,omitempty"`
}
