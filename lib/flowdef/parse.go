// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package flowdef

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/weftworks/weft/lib/codec"
	"github.com/weftworks/weft/lib/digest"
)

// reservedNodeKeys never appear in a node's config subtree. The
// component reference keys identify the implementation, routing and
// telemetry are consumed by the runtime, and id/schema_id belong to
// the node itself.
var reservedNodeKeys = map[string]bool{
	"component": true,
	"type":      true,
	"routing":   true,
	"telemetry": true,
	"id":        true,
	"schema_id": true,
}

// Parse parses flow YAML into a Bundle. defaultID is used when the
// document carries no top-level id key (callers pass the file stem).
func Parse(source []byte, defaultID string) (*Bundle, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(source, &doc); err != nil {
		return nil, wrapYAMLError(err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, structureErrorf("flow document is empty")
	}

	tree, err := projectNode(doc.Content[0], 0)
	if err != nil {
		return nil, err
	}

	canonical, err := codec.CanonicalJSON(tree)
	if err != nil {
		return nil, structureErrorf("flow has no JSON representation: %v", err)
	}

	bundle := &Bundle{
		ID:   defaultID,
		Kind: KindMessaging,
		YAML: source,
		JSON: canonical,
		Hash: digest.HashBytes(canonical),
	}

	var nodeItems []any
	var pointerBase string

	switch root := tree.(type) {
	case []any:
		// The whole document is the node sequence.
		nodeItems = root
		pointerBase = ""

	case map[string]any:
		if raw, ok := root["id"]; ok {
			id, ok := raw.(string)
			if !ok {
				return nil, structureErrorf("flow id is not a string")
			}
			if id == "" {
				return nil, structureErrorf("flow id is empty")
			}
			bundle.ID = id
		}
		if raw, ok := root["kind"]; ok {
			kindString, ok := raw.(string)
			if !ok {
				return nil, structureErrorf("flow kind is not a string")
			}
			kind, err := ParseKind(kindString)
			if err != nil {
				return nil, err
			}
			bundle.Kind = kind
		}
		if raw, ok := root["entry"]; ok {
			entry, ok := raw.(string)
			if !ok {
				return nil, structureErrorf("flow entry is not a string")
			}
			bundle.Entry = entry
		}

		rawNodes, ok := root["nodes"]
		if !ok {
			return nil, structureErrorf("flow has no nodes")
		}
		nodeItems, ok = rawNodes.([]any)
		if !ok {
			return nil, structureErrorf("nodes is not a sequence")
		}
		pointerBase = "/nodes"

	default:
		return nil, structureErrorf("flow root must be a mapping or a node sequence")
	}

	if bundle.ID == "" {
		return nil, structureErrorf("flow has no id")
	}
	if len(nodeItems) == 0 {
		return nil, structureErrorf("flow has no nodes")
	}

	seen := make(map[string]bool, len(nodeItems))
	bundle.Nodes = make([]NodeRef, 0, len(nodeItems))
	for i, item := range nodeItems {
		node, err := extractNode(i, item, pointerBase)
		if err != nil {
			return nil, err
		}
		if seen[node.NodeID] {
			return nil, structureErrorf("duplicate node id %q", node.NodeID)
		}
		seen[node.NodeID] = true
		bundle.Nodes = append(bundle.Nodes, *node)
	}

	return bundle, nil
}

// extractNode builds the NodeRef for the node at the given sequence
// index.
func extractNode(index int, item any, pointerBase string) (*NodeRef, error) {
	fields, ok := item.(map[string]any)
	if !ok {
		return nil, structureErrorf("node %d is not a mapping", index)
	}

	rawID, ok := fields["id"]
	if !ok {
		return nil, structureErrorf("node %d has no id", index)
	}
	nodeID, ok := rawID.(string)
	if !ok || nodeID == "" {
		return nil, structureErrorf("node %d id must be a non-empty string", index)
	}

	pin, err := extractPin(index, fields)
	if err != nil {
		return nil, err
	}

	var schemaID string
	if raw, ok := fields["schema_id"]; ok {
		schemaID, ok = raw.(string)
		if !ok {
			return nil, structureErrorf("node %q schema_id is not a string", nodeID)
		}
	}

	config := make(map[string]any, len(fields))
	for key, value := range fields {
		if reservedNodeKeys[key] {
			continue
		}
		config[key] = value
	}
	configJSON, err := codec.CanonicalJSON(config)
	if err != nil {
		return nil, structureErrorf("node %q config has no JSON representation: %v", nodeID, err)
	}

	return &NodeRef{
		NodeID:        nodeID,
		Component:     pin,
		SchemaID:      schemaID,
		ConfigPointer: fmt.Sprintf("%s/%d", pointerBase, index),
		Config:        configJSON,
	}, nil
}

// extractPin reads the node's component reference: either a plain
// string (any version) or a mapping with name and version_req.
func extractPin(index int, fields map[string]any) (ComponentPin, error) {
	raw, ok := fields["component"]
	if !ok {
		raw, ok = fields["type"]
	}
	if !ok {
		return ComponentPin{}, structureErrorf("node %d has no component reference", index)
	}

	switch ref := raw.(type) {
	case string:
		if ref == "" {
			return ComponentPin{}, structureErrorf("node %d component name is empty", index)
		}
		return ComponentPin{Name: ref, VersionReq: "*"}, nil

	case map[string]any:
		rawName, ok := ref["name"]
		if !ok {
			return ComponentPin{}, structureErrorf("node %d component reference has no name", index)
		}
		name, ok := rawName.(string)
		if !ok || name == "" {
			return ComponentPin{}, structureErrorf("node %d component name must be a non-empty string", index)
		}
		versionReq := "*"
		if rawReq, ok := ref["version_req"]; ok {
			s, ok := rawReq.(string)
			if !ok {
				return ComponentPin{}, structureErrorf("node %d version_req is not a string", index)
			}
			if trimmed := strings.TrimSpace(s); trimmed != "" {
				versionReq = trimmed
			}
		}
		return ComponentPin{Name: name, VersionReq: versionReq}, nil

	default:
		return ComponentPin{}, structureErrorf("node %d component reference must be a string or mapping", index)
	}
}

// yamlLinePattern matches the position prefix of yaml.v3 error
// strings ("yaml: line 7: ...").
var yamlLinePattern = regexp.MustCompile(`yaml: line (\d+): (.+)`)

// wrapYAMLError converts a yaml.v3 decode error into a ParseError,
// recovering the line number when the message carries one.
func wrapYAMLError(err error) error {
	message := err.Error()
	if m := yamlLinePattern.FindStringSubmatch(message); m != nil {
		line, _ := strconv.Atoi(m[1])
		return &ParseError{Line: line, Message: m[2]}
	}
	return &ParseError{Message: strings.TrimPrefix(message, "yaml: ")}
}
