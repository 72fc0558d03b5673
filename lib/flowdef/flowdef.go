// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

// Package flowdef loads flow documents: YAML graphs whose nodes pin
// WebAssembly components by name and version requirement.
//
// Loading produces a Bundle carrying the source YAML verbatim, the
// RFC 8785 canonical JSON projection of the whole document, the BLAKE3
// hash of that canonical form, and the ordered node references. The
// canonical JSON is what gets embedded in pack manifests and hashed,
// so two textually different YAML files describing the same document
// yield the same hash.
package flowdef

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"encoding/json"

	"github.com/weftworks/weft/lib/digest"
)

// Kind classifies a flow document.
type Kind string

const (
	// KindMessaging is a request/response message-handling flow.
	KindMessaging Kind = "messaging"
	// KindEvent is a flow triggered by platform events.
	KindEvent Kind = "event"
	// KindComponentConfig is a configuration-only flow used to carry
	// component settings without an execution graph.
	KindComponentConfig Kind = "component-config"
)

// ParseKind validates a flow kind string. The empty string maps to
// KindMessaging, the default for documents that omit the key.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case "":
		return KindMessaging, nil
	case KindMessaging, KindEvent, KindComponentConfig:
		return Kind(s), nil
	default:
		return "", &StructureError{Reason: fmt.Sprintf("unsupported flow kind %q", s)}
	}
}

// ComponentPin references a component by name plus a semver
// requirement. An absent or blank requirement means any version.
type ComponentPin struct {
	Name       string `json:"name"`
	VersionReq string `json:"version_req"`
}

// NodeRef is one node of a flow as the build pipeline sees it.
type NodeRef struct {
	// NodeID is the node's unique identifier within the flow.
	NodeID string

	// Component pins the component implementing this node.
	Component ComponentPin

	// SchemaID optionally pins the expected schema variant. It is
	// opaque to the pipeline and carried through to the manifest.
	SchemaID string

	// ConfigPointer is the JSON Pointer to this node in the canonical
	// flow document. Used only in error reports.
	ConfigPointer string

	// Config is the node's configuration subtree as canonical JSON:
	// the node mapping minus the component reference and the reserved
	// routing, telemetry, and identity keys.
	Config json.RawMessage
}

// Bundle is a fully loaded flow document.
type Bundle struct {
	// ID identifies the flow. Defaults to the source file's stem when
	// the document has no top-level id key.
	ID string

	// Kind classifies the flow. Defaults to KindMessaging.
	Kind Kind

	// Entry optionally names the flow's entrypoint node.
	Entry string

	// YAML is the source text exactly as read.
	YAML []byte

	// JSON is the RFC 8785 canonical JSON projection of the document.
	JSON []byte

	// Hash is the BLAKE3 digest of JSON.
	Hash digest.Digest

	// Nodes are the flow's nodes in document order.
	Nodes []NodeRef
}

// Load reads and parses the flow document at path. The flow id
// defaults to the file name without its extension.
func Load(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading flow %s: %w", path, err)
	}
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	bundle, err := Parse(data, stem)
	if err != nil {
		return nil, fmt.Errorf("loading flow %s: %w", path, err)
	}
	return bundle, nil
}
