// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package flowdef

import (
	"fmt"
	"math"

	"gopkg.in/yaml.v3"
)

// maxAliasDepth bounds alias expansion so self-referential anchors
// fail instead of looping.
const maxAliasDepth = 1000

// projectNode converts a parsed YAML node into plain Go values that
// serialize losslessly to JSON: map[string]any, []any, string, bool,
// int64, uint64, float64, nil. Timestamps and binary scalars stay as
// their source text. Aliases are resolved; merge keys are NOT
// expanded, so "<<" stays a literal key mapped to the anchored value.
func projectNode(n *yaml.Node, aliasDepth int) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return projectNode(n.Content[0], aliasDepth)

	case yaml.AliasNode:
		if aliasDepth >= maxAliasDepth {
			return nil, &ParseError{Line: n.Line, Column: n.Column, Message: "excessive aliasing"}
		}
		return projectNode(n.Alias, aliasDepth+1)

	case yaml.ScalarNode:
		return projectScalar(n)

	case yaml.SequenceNode:
		items := make([]any, 0, len(n.Content))
		for _, child := range n.Content {
			value, err := projectNode(child, aliasDepth)
			if err != nil {
				return nil, err
			}
			items = append(items, value)
		}
		return items, nil

	case yaml.MappingNode:
		result := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			keyNode := n.Content[i]
			key, err := mappingKey(keyNode, aliasDepth)
			if err != nil {
				return nil, err
			}
			if _, exists := result[key]; exists {
				return nil, &ParseError{
					Line:    keyNode.Line,
					Column:  keyNode.Column,
					Message: fmt.Sprintf("mapping key %q already defined", key),
				}
			}
			value, err := projectNode(n.Content[i+1], aliasDepth)
			if err != nil {
				return nil, err
			}
			result[key] = value
		}
		return result, nil

	default:
		return nil, structureErrorf("unsupported YAML node at line %d", n.Line)
	}
}

// projectScalar maps a YAML scalar to its JSON-representable value.
func projectScalar(n *yaml.Node) (any, error) {
	switch n.Tag {
	case "!!null":
		return nil, nil

	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, &ParseError{Line: n.Line, Column: n.Column, Message: fmt.Sprintf("invalid boolean %q", n.Value)}
		}
		return b, nil

	case "!!int":
		var i int64
		if err := n.Decode(&i); err == nil {
			return i, nil
		}
		var u uint64
		if err := n.Decode(&u); err == nil {
			return u, nil
		}
		return nil, &ParseError{Line: n.Line, Column: n.Column, Message: fmt.Sprintf("integer %q out of range", n.Value)}

	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, &ParseError{Line: n.Line, Column: n.Column, Message: fmt.Sprintf("invalid number %q", n.Value)}
		}
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return nil, &ParseError{Line: n.Line, Column: n.Column, Message: fmt.Sprintf("number %q has no JSON representation", n.Value)}
		}
		return f, nil

	default:
		// Strings, timestamps, binary, and custom tags keep their
		// source text.
		return n.Value, nil
	}
}

// mappingKey resolves a mapping key node to its string form. Scalar
// keys of any tag are accepted by their text (YAML `5:` becomes the
// JSON key "5"); collection keys have no JSON form and are rejected.
func mappingKey(keyNode *yaml.Node, aliasDepth int) (string, error) {
	for keyNode.Kind == yaml.AliasNode {
		if aliasDepth >= maxAliasDepth {
			return "", &ParseError{Line: keyNode.Line, Column: keyNode.Column, Message: "excessive aliasing"}
		}
		keyNode = keyNode.Alias
		aliasDepth++
	}
	if keyNode.Kind != yaml.ScalarNode {
		return "", structureErrorf("mapping key at line %d is not a scalar", keyNode.Line)
	}
	return keyNode.Value, nil
}
