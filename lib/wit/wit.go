// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

// Package wit parses the subset of the WIT interface-definition
// language that config-schema inference needs: package and world
// declarations, interfaces, records, enums, and type aliases, with
// doc comments attached to record fields. Function signatures,
// resources, and foreign packages are tolerated and skipped.
//
// The parsed model feeds ConfigSchema, which locates a world's
// `config` record and translates it field by field into a JSON
// Schema. Doc-comment directives refine the translation: @default(v)
// sets a property default, @flow:hidden marks a property hidden, and
// the remaining doc lines become the property description.
package wit

// Package is a parsed WIT package: one directory of .wit files.
type Package struct {
	// Namespace and Name identify the package (namespace:name).
	Namespace string
	Name      string

	// Version is the raw version suffix of the package declaration,
	// or empty when it has none.
	Version string

	// Worlds in declaration order.
	Worlds []*World

	// Interfaces in declaration order.
	Interfaces []*Interface
}

// World is a world declaration.
type World struct {
	Name string

	// Imports and Exports hold the names of locally referenced
	// interfaces. Foreign references (namespace:package/name) and
	// function imports are dropped during parsing.
	Imports []string
	Exports []string

	// Inline holds interfaces declared inline in import/export
	// statements.
	Inline []*Interface

	// Types declared directly in the world body.
	Types []*TypeDef
}

// Interface is an interface declaration.
type Interface struct {
	Name  string
	Types []*TypeDef
}

// TypeKind classifies a type definition.
type TypeKind int

const (
	// KindRecord is a record with named fields.
	KindRecord TypeKind = iota
	// KindEnum is an enumeration of bare cases.
	KindEnum
	// KindAlias is a `type name = target` alias.
	KindAlias
	// KindOther covers definitions the schema mapping has no use
	// for (variants, flags, resources). They map to string.
	KindOther
)

// TypeDef is a named type definition.
type TypeDef struct {
	Name   string
	Kind   TypeKind
	Fields []Field   // KindRecord
	Cases  []string  // KindEnum
	Alias  *TypeRef  // KindAlias
}

// Field is one record field.
type Field struct {
	Name string
	Type *TypeRef

	// Docs is the field's doc-comment text with markers stripped,
	// lines joined by newlines.
	Docs string
}

// TypeRef references a type by name, with type arguments for
// parameterized builtins (option<T>, list<T>).
type TypeRef struct {
	Base string
	Args []*TypeRef
}

// interfacesFor resolves a world's interface set: locally named
// imports and exports plus inline declarations. Unresolvable names
// (foreign interfaces) are skipped.
func (p *Package) interfacesFor(world *World) []*Interface {
	byName := make(map[string]*Interface, len(p.Interfaces))
	for _, iface := range p.Interfaces {
		byName[iface.Name] = iface
	}
	var result []*Interface
	seen := make(map[string]bool)
	for _, name := range append(append([]string{}, world.Imports...), world.Exports...) {
		if iface, ok := byName[name]; ok && !seen[name] {
			seen[name] = true
			result = append(result, iface)
		}
	}
	return append(result, world.Inline...)
}
