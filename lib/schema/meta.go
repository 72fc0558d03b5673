// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/kaptinlin/jsonschema"
)

// Draft-07 meta-schema body with the dialect pragmas stripped so it
// compiles offline under the default dialect.
//
//go:embed draft07.schema.json
var metaSchemaJSON []byte

var meta struct {
	once   sync.Once
	schema *jsonschema.Schema
	err    error
}

func metaSchema() (*jsonschema.Schema, error) {
	meta.once.Do(func() {
		meta.schema, meta.err = jsonschema.NewCompiler().Compile(metaSchemaJSON)
	})
	if meta.err != nil {
		return nil, fmt.Errorf("compiling embedded meta-schema: %w", meta.err)
	}
	return meta.schema, nil
}

// CheckSchema validates candidate against the JSON Schema meta-schema.
// Every extracted config schema passes through here before it is used
// to validate node configs or embedded in a pack.
func CheckSchema(candidate []byte) error {
	ms, err := metaSchema()
	if err != nil {
		return err
	}
	result := ms.ValidateJSON(candidate)
	if result.IsValid() {
		return nil
	}
	seen := make(map[string]bool)
	var parts []string
	for _, f := range collectFindings(result) {
		part := f.message
		if f.pointer != "" {
			part = f.pointer + ": " + f.message
		}
		if !seen[part] {
			seen[part] = true
			parts = append(parts, part)
		}
	}
	sort.Strings(parts)
	return fmt.Errorf("not a valid JSON Schema: %s", strings.Join(parts, "; "))
}
