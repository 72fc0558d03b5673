// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package wit

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ConfigSchema locates the `config` type for the world selected by
// worldRef and translates it into a JSON Schema value tree. The world
// is matched by the bare world segment of worldRef, falling back to
// the package's first world. The config type must be owned by that
// world or one of its interfaces.
func (p *Package) ConfigSchema(worldRef string) (any, error) {
	world, err := p.selectWorld(worldRef)
	if err != nil {
		return nil, err
	}
	sc := &scope{world: world, interfaces: p.interfacesFor(world)}

	config := sc.findConfig()
	if config == nil {
		return nil, fmt.Errorf("no config record found in WIT")
	}

	switch config.Kind {
	case KindRecord:
		return sc.configRecordSchema(config)
	case KindAlias:
		shape, err := sc.mapRef(config.Alias, map[*TypeDef]bool{config: true})
		if err != nil {
			return nil, err
		}
		return shape.schema, nil
	default:
		return nil, fmt.Errorf("config type must be a record")
	}
}

// selectWorld picks the world named by the reference's world segment,
// or the package's first world when the segment does not match.
func (p *Package) selectWorld(worldRef string) (*World, error) {
	if target := parseWorldName(worldRef); target != "" {
		for _, world := range p.Worlds {
			if world.Name == target {
				return world, nil
			}
		}
	}
	if len(p.Worlds) > 0 {
		return p.Worlds[0], nil
	}
	return nil, fmt.Errorf("no world found in %s", p.Name)
}

// parseWorldName extracts the bare world segment from
// namespace:package/world[@version], or returns empty when the
// reference has no world segment.
func parseWorldName(raw string) string {
	parts := strings.Split(raw, "/")
	if len(parts) < 2 {
		return ""
	}
	world, _, _ := strings.Cut(parts[1], "@")
	return world
}

// scope is the set of type definitions visible to a world's config.
type scope struct {
	world      *World
	interfaces []*Interface
}

// findConfig locates a type named config owned by the world or its
// interfaces.
func (sc *scope) findConfig() *TypeDef {
	return sc.lookup("config")
}

// lookup resolves a type name: world-owned types first, then the
// world's interfaces in reference order.
func (sc *scope) lookup(name string) *TypeDef {
	for _, def := range sc.world.Types {
		if def.Name == name {
			return def
		}
	}
	for _, iface := range sc.interfaces {
		for _, def := range iface.Types {
			if def.Name == name {
				return def
			}
		}
	}
	return nil
}

// configRecordSchema maps the top-level config record: a closed
// object whose properties carry the doc-comment directives.
func (sc *scope) configRecordSchema(def *TypeDef) (any, error) {
	properties := make(map[string]any, len(def.Fields))
	var required []string

	for _, field := range def.Fields {
		shape, err := sc.mapRef(field.Type, map[*TypeDef]bool{def: true})
		if err != nil {
			return nil, err
		}
		directives := parseDirectives(field.Docs)
		if directives.description != nil {
			shape.schema["description"] = *directives.description
		}
		if directives.defaultValue != nil {
			shape.schema["default"] = directives.defaultValue
		}
		if directives.hidden {
			shape.schema["x_flow_hidden"] = true
		}
		properties[field.Name] = shape.schema
		if !shape.optional {
			required = append(required, field.Name)
		}
	}

	schema := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema, nil
}

// typeShape is a mapped type: its schema plus whether an option<>
// wrapper made the field non-required.
type typeShape struct {
	schema   map[string]any
	optional bool
}

// builtinFallbacks are anonymous WIT type constructors with no JSON
// Schema shape of their own; they map to string like any other
// unmappable type.
var builtinFallbacks = map[string]bool{
	"tuple":  true,
	"result": true,
	"future": true,
	"stream": true,
	"borrow": true,
	"own":    true,
	"_":      true,
}

// mapRef translates one type reference. The visiting set breaks
// definition cycles.
func (sc *scope) mapRef(ref *TypeRef, visiting map[*TypeDef]bool) (typeShape, error) {
	switch ref.Base {
	case "bool":
		return typeShape{schema: jsonType("boolean")}, nil
	case "string", "char":
		return typeShape{schema: jsonType("string")}, nil
	case "u8", "u16", "u32", "u64", "s8", "s16", "s32", "s64":
		return typeShape{schema: jsonType("integer")}, nil
	case "f32", "f64", "float32", "float64":
		return typeShape{schema: jsonType("number")}, nil

	case "option":
		if len(ref.Args) != 1 {
			return typeShape{}, fmt.Errorf("option takes one type argument")
		}
		inner, err := sc.mapRef(ref.Args[0], visiting)
		if err != nil {
			return typeShape{}, err
		}
		return typeShape{schema: inner.schema, optional: true}, nil

	case "list":
		if len(ref.Args) != 1 {
			return typeShape{}, fmt.Errorf("list takes one type argument")
		}
		inner, err := sc.mapRef(ref.Args[0], visiting)
		if err != nil {
			return typeShape{}, err
		}
		return typeShape{schema: map[string]any{"type": "array", "items": inner.schema}}, nil
	}

	if builtinFallbacks[ref.Base] {
		return typeShape{schema: jsonType("string")}, nil
	}

	def := sc.lookup(ref.Base)
	if def == nil {
		return typeShape{}, fmt.Errorf("unknown type %q", ref.Base)
	}
	if visiting[def] {
		return typeShape{}, fmt.Errorf("type cycle involving %q", def.Name)
	}

	switch def.Kind {
	case KindAlias:
		visiting[def] = true
		shape, err := sc.mapRef(def.Alias, visiting)
		delete(visiting, def)
		return shape, err

	case KindEnum:
		return typeShape{schema: map[string]any{"type": "string", "enum": append([]string{}, def.Cases...)}}, nil

	case KindRecord:
		// Nested records stay open: only the top-level config object
		// closes additionalProperties.
		visiting[def] = true
		defer delete(visiting, def)
		properties := make(map[string]any, len(def.Fields))
		var required []string
		for _, field := range def.Fields {
			shape, err := sc.mapRef(field.Type, visiting)
			if err != nil {
				return typeShape{}, err
			}
			properties[field.Name] = shape.schema
			if !shape.optional {
				required = append(required, field.Name)
			}
		}
		schema := map[string]any{"type": "object", "properties": properties}
		if len(required) > 0 {
			schema["required"] = required
		}
		return typeShape{schema: schema}, nil

	default:
		return typeShape{schema: jsonType("string")}, nil
	}
}

func jsonType(kind string) map[string]any {
	return map[string]any{"type": kind}
}

// directives are the recognized doc-comment annotations on config
// record fields.
type directives struct {
	description  *string
	defaultValue any
	hidden       bool
}

func parseDirectives(docs string) directives {
	if docs == "" {
		return directives{}
	}
	return directives{
		description:  renderDescription(docs),
		defaultValue: extractDefault(docs),
		hidden:       strings.Contains(docs, "@flow:hidden"),
	}
}

// extractDefault reads the body of @default(...). The body parses as
// a JSON literal when possible and falls back to a bare string.
func extractDefault(docs string) any {
	const marker = "@default("
	start := strings.Index(docs, marker)
	if start < 0 {
		return nil
	}
	after := docs[start+len(marker):]
	end := strings.Index(after, ")")
	if end < 0 {
		return nil
	}
	body := strings.TrimSpace(after[:end])
	if body == "" {
		return nil
	}
	var value any
	if err := json.Unmarshal([]byte(body), &value); err == nil {
		return value
	}
	return body
}

// renderDescription keeps the non-directive doc lines, right-trimmed
// and joined by newlines. Nil means the docs held nothing but
// directives.
func renderDescription(docs string) *string {
	var lines []string
	for _, line := range strings.Split(docs, "\n") {
		if strings.HasPrefix(strings.TrimLeft(line, " \t"), "@") {
			continue
		}
		lines = append(lines, strings.TrimRight(line, " \t"))
	}
	if len(lines) == 0 {
		return nil
	}
	joined := strings.Join(lines, "\n")
	return &joined
}
