// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"strings"
	"testing"
)

const textSchema = `{"additionalProperties":false,"properties":{"text":{"type":"string"}},"required":["text"],"type":"object"}`

func TestValidateConfigPasses(t *testing.T) {
	v := NewValidator()
	violations, err := v.ValidateConfig("n0", "demo", "/nodes/0", textSchema, []byte(`{"text":"hi"}`))
	if err != nil {
		t.Fatalf("ValidateConfig: %v", err)
	}
	if len(violations) != 0 {
		t.Fatalf("violations = %v, want none", violations)
	}
}

func TestValidateConfigMissingRequired(t *testing.T) {
	v := NewValidator()
	violations, err := v.ValidateConfig("n0", "demo", "/nodes/0", textSchema, []byte(`{}`))
	if err != nil {
		t.Fatalf("ValidateConfig: %v", err)
	}
	if len(violations) != 1 {
		t.Fatalf("violations = %v, want exactly one", violations)
	}
	got := violations[0]
	if got.NodeID != "n0" || got.Component != "demo" {
		t.Fatalf("violation attribution = %q/%q, want n0/demo", got.NodeID, got.Component)
	}
	if got.Pointer != "/nodes/0/text" {
		t.Fatalf("Pointer = %q, want %q", got.Pointer, "/nodes/0/text")
	}
	if !strings.Contains(strings.ToLower(got.Message), "required") {
		t.Fatalf("Message = %q, want mention of required", got.Message)
	}
}

func TestValidateConfigAbsentPropertySubschemaSuppressed(t *testing.T) {
	// The engine evaluates the absent property's subschema anyway;
	// only the required failure may surface, never a verdict about a
	// value the config does not contain.
	schema := `{"properties":{"text":{"type":"string"}},"required":["text"],"type":"object"}`
	v := NewValidator()
	violations, err := v.ValidateConfig("n0", "demo", "/nodes/0", schema, []byte(`{}`))
	if err != nil {
		t.Fatalf("ValidateConfig: %v", err)
	}
	if len(violations) != 1 {
		t.Fatalf("violations = %v, want exactly one", violations)
	}
	if strings.Contains(strings.ToLower(violations[0].Message), "null") {
		t.Fatalf("Message = %q, reports the absent property's subschema", violations[0].Message)
	}
}

func TestValidateConfigMissingAndWrongType(t *testing.T) {
	schema := `{"properties":{"text":{"type":"string"},"count":{"type":"integer"}},"required":["text"],"type":"object"}`
	v := NewValidator()
	violations, err := v.ValidateConfig("n0", "demo", "/nodes/0", schema, []byte(`{"count":"three"}`))
	if err != nil {
		t.Fatalf("ValidateConfig: %v", err)
	}
	if len(violations) != 2 {
		t.Fatalf("violations = %v, want the required failure and the type failure", violations)
	}
	if violations[0].Pointer != "/nodes/0/count" {
		t.Fatalf("first pointer = %q, want %q", violations[0].Pointer, "/nodes/0/count")
	}
	if violations[1].Pointer != "/nodes/0/text" {
		t.Fatalf("second pointer = %q, want %q", violations[1].Pointer, "/nodes/0/text")
	}
	if !strings.Contains(strings.ToLower(violations[1].Message), "required") {
		t.Fatalf("Message = %q, want mention of required", violations[1].Message)
	}
}

func TestValidateConfigWrongType(t *testing.T) {
	v := NewValidator()
	violations, err := v.ValidateConfig("n0", "demo", "/nodes/0", textSchema, []byte(`{"text":5}`))
	if err != nil {
		t.Fatalf("ValidateConfig: %v", err)
	}
	if len(violations) == 0 {
		t.Fatal("wrong type produced no violations")
	}
	for _, violation := range violations {
		if violation.Pointer != "/nodes/0/text" {
			t.Fatalf("Pointer = %q, want %q", violation.Pointer, "/nodes/0/text")
		}
		if violation.Message == "" {
			t.Fatal("violation with empty message")
		}
	}
}

func TestValidateConfigAdditionalProperty(t *testing.T) {
	v := NewValidator()
	violations, err := v.ValidateConfig("n0", "demo", "/nodes/0", textSchema, []byte(`{"text":"hi","extra":1}`))
	if err != nil {
		t.Fatalf("ValidateConfig: %v", err)
	}
	if len(violations) == 0 {
		t.Fatal("extra property produced no violations")
	}
	for _, violation := range violations {
		if !strings.HasPrefix(violation.Pointer, "/nodes/0") {
			t.Fatalf("Pointer = %q, want /nodes/0 prefix", violation.Pointer)
		}
	}
}

func TestValidateConfigSortedByPointer(t *testing.T) {
	schema := `{"properties":{"a":{"type":"string"},"b":{"type":"string"}},"type":"object"}`
	v := NewValidator()
	violations, err := v.ValidateConfig("n0", "demo", "/nodes/3", schema, []byte(`{"a":1,"b":2}`))
	if err != nil {
		t.Fatalf("ValidateConfig: %v", err)
	}
	if len(violations) < 2 {
		t.Fatalf("violations = %v, want one per bad property", violations)
	}
	for i := 1; i < len(violations); i++ {
		if violations[i-1].Pointer > violations[i].Pointer {
			t.Fatalf("violations out of order: %q before %q", violations[i-1].Pointer, violations[i].Pointer)
		}
	}
	if violations[0].Pointer != "/nodes/3/a" {
		t.Fatalf("first pointer = %q, want %q", violations[0].Pointer, "/nodes/3/a")
	}
}

func TestValidateConfigStubRejectsNonEmpty(t *testing.T) {
	v := NewValidator()
	violations, err := v.ValidateConfig("n0", "demo", "/0", StubSchema, []byte(`{"x":1}`))
	if err != nil {
		t.Fatalf("ValidateConfig: %v", err)
	}
	if len(violations) == 0 {
		t.Fatal("stub schema accepted a non-empty config")
	}

	violations, err = v.ValidateConfig("n0", "demo", "/0", StubSchema, []byte(`{}`))
	if err != nil {
		t.Fatalf("ValidateConfig: %v", err)
	}
	if len(violations) != 0 {
		t.Fatalf("stub schema rejected an empty config: %v", violations)
	}
}

func TestCompileReusesCache(t *testing.T) {
	v := NewValidator()
	first, err := v.Compile(textSchema)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	second, err := v.Compile(textSchema)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if first != second {
		t.Fatal("identical schema text compiled twice")
	}
}

func TestCompileError(t *testing.T) {
	v := NewValidator()
	if _, err := v.Compile(`{"type":`); err == nil {
		t.Fatal("Compile accepted malformed JSON")
	}
}

func TestJoinPointer(t *testing.T) {
	cases := []struct {
		name string
		base string
		loc  string
		want string
	}{
		{"both empty", "", "", ""},
		{"empty location", "/nodes/0", "", "/nodes/0"},
		{"root location", "/nodes/0", "/", "/nodes/0"},
		{"nested", "/nodes/0", "/text", "/nodes/0/text"},
		{"trailing slash base", "/nodes/0/", "/text", "/nodes/0/text"},
		{"missing leading slash", "/0", "config/x", "/0/config/x"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := JoinPointer(tc.base, tc.loc); got != tc.want {
				t.Fatalf("JoinPointer(%q, %q) = %q, want %q", tc.base, tc.loc, got, tc.want)
			}
		})
	}
}

func TestValidationErrorMessage(t *testing.T) {
	one := &ValidationError{Violations: make([]Violation, 1)}
	if got := one.Error(); got != "config validation failed with 1 violation" {
		t.Fatalf("Error() = %q", got)
	}
	three := &ValidationError{Violations: make([]Violation, 3)}
	if got := three.Error(); got != "config validation failed with 3 violations" {
		t.Fatalf("Error() = %q", got)
	}
}
