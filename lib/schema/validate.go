// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/kaptinlin/jsonschema"
)

// Validator compiles config schemas on demand and validates node
// configs against them. Compiled schemas are cached by schema text, so
// a flow whose nodes share a component compiles that schema once.
type Validator struct {
	compiler *jsonschema.Compiler
	cache    map[string]*jsonschema.Schema
}

func NewValidator() *Validator {
	return &Validator{
		compiler: jsonschema.NewCompiler(),
		cache:    make(map[string]*jsonschema.Schema),
	}
}

// Compile returns the compiled form of schemaText, reusing a prior
// compilation when the text matches byte for byte.
func (v *Validator) Compile(schemaText string) (*jsonschema.Schema, error) {
	if compiled, ok := v.cache[schemaText]; ok {
		return compiled, nil
	}
	compiled, err := v.compiler.Compile([]byte(schemaText))
	if err != nil {
		return nil, fmt.Errorf("compiling config schema: %w", err)
	}
	v.cache[schemaText] = compiled
	return compiled, nil
}

// ValidateConfig checks one node's config against schemaText. base is
// the node's config pointer in the flow document and prefixes every
// violation pointer. Violations are sorted by pointer, then message.
// A nil slice means the config passed.
func (v *Validator) ValidateConfig(nodeID, component, base, schemaText string, config []byte) ([]Violation, error) {
	compiled, err := v.Compile(schemaText)
	if err != nil {
		return nil, err
	}
	result := compiled.ValidateJSON(config)
	if result.IsValid() {
		return nil, nil
	}
	findings := collectFindings(result)
	violations := make([]Violation, 0, len(findings))
	for _, f := range findings {
		violations = append(violations, Violation{
			NodeID:    nodeID,
			Component: component,
			Pointer:   JoinPointer(base, f.pointer),
			Message:   f.message,
		})
	}
	sort.Slice(violations, func(i, j int) bool {
		if violations[i].Pointer != violations[j].Pointer {
			return violations[i].Pointer < violations[j].Pointer
		}
		return violations[i].Message < violations[j].Message
	})
	return violations, nil
}

// JoinPointer appends an instance location to a base JSON pointer
// without doubling or trailing slashes.
func JoinPointer(base, loc string) string {
	base = strings.TrimSuffix(base, "/")
	if loc == "" || loc == "/" {
		return base
	}
	if !strings.HasPrefix(loc, "/") {
		loc = "/" + loc
	}
	return base + loc
}

type finding struct {
	pointer string
	message string
}

// aggregateKeywords restate the failures of their subschemas. When the
// walk into a sub-result already produced the underlying cause, the
// aggregate entry is dropped to keep findings at the deepest location.
var aggregateKeywords = map[string]bool{
	"$dynamicRef":           true,
	"$ref":                  true,
	"additionalItems":       true,
	"additionalProperties":  true,
	"allOf":                 true,
	"anyOf":                 true,
	"contains":              true,
	"dependentSchemas":      true,
	"else":                  true,
	"items":                 true,
	"oneOf":                 true,
	"patternProperties":     true,
	"prefixItems":           true,
	"properties":            true,
	"propertyNames":         true,
	"then":                  true,
	"unevaluatedItems":      true,
	"unevaluatedProperties": true,
}

var quotedProperty = regexp.MustCompile(`'([^']+)'`)

func collectFindings(result *jsonschema.EvaluationResult) []finding {
	var out []finding
	walkResult(result, &out)
	return out
}

func walkResult(res *jsonschema.EvaluationResult, out *[]finding) {
	missing := missingRequired(res)
	childHandled := false
	for _, detail := range res.Details {
		if detail.IsValid() {
			continue
		}
		// The engine evaluates the subschema of a property the
		// `required` failure just reported absent; those sub-results
		// describe a value that does not exist in the config.
		if underMissingProperty(detail.InstanceLocation, missing) {
			childHandled = true
			continue
		}
		before := len(*out)
		walkResult(detail, out)
		if len(*out) > before {
			childHandled = true
		}
	}
	for keyword, evalErr := range res.Errors {
		if childHandled && aggregateKeywords[keyword] {
			continue
		}
		message := evalErr.Error()
		if keyword == "required" {
			// Point at each missing property rather than the
			// enclosing object.
			matches := quotedProperty.FindAllStringSubmatch(message, -1)
			if len(matches) > 0 {
				for _, m := range matches {
					*out = append(*out, finding{pointer: res.InstanceLocation + "/" + m[1], message: message})
				}
				continue
			}
		}
		*out = append(*out, finding{pointer: res.InstanceLocation, message: message})
	}
}

// missingRequired returns the instance locations of the properties a
// `required` failure at res names.
func missingRequired(res *jsonschema.EvaluationResult) []string {
	evalErr, ok := res.Errors["required"]
	if !ok {
		return nil
	}
	var locations []string
	for _, m := range quotedProperty.FindAllStringSubmatch(evalErr.Error(), -1) {
		locations = append(locations, res.InstanceLocation+"/"+m[1])
	}
	return locations
}

func underMissingProperty(loc string, missing []string) bool {
	for _, m := range missing {
		if loc == m || strings.HasPrefix(loc, m+"/") {
			return true
		}
	}
	return false
}
