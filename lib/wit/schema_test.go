// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package wit

import (
	"strings"
	"testing"

	"github.com/weftworks/weft/lib/codec"
)

// canonicalConfigSchema parses source, infers the config schema for
// worldRef, and renders it as canonical JSON for stable comparison.
func canonicalConfigSchema(t *testing.T, source, worldRef string) string {
	t.Helper()
	pkg, err := Parse(source)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	schema, err := pkg.ConfigSchema(worldRef)
	if err != nil {
		t.Fatalf("ConfigSchema: %v", err)
	}
	data, err := codec.CanonicalJSON(schema)
	if err != nil {
		t.Fatalf("CanonicalJSON: %v", err)
	}
	return string(data)
}

func TestConfigSchemaPrimitives(t *testing.T) {
	source := `package weft:proc;
world w {
	record config {
		name: string,
		count: u32,
		ratio: f64,
		on: bool,
	}
}
`
	got := canonicalConfigSchema(t, source, "weft:proc/w")
	want := `{"additionalProperties":false,"properties":{"count":{"type":"integer"},"name":{"type":"string"},"on":{"type":"boolean"},"ratio":{"type":"number"}},"required":["name","count","ratio","on"],"type":"object"}`
	if got != want {
		t.Fatalf("schema = %s, want %s", got, want)
	}
}

func TestConfigSchemaOptionAndList(t *testing.T) {
	source := `package weft:proc;
world w {
	record config {
		tags: list<string>,
		timeout: option<u64>,
	}
}
`
	got := canonicalConfigSchema(t, source, "weft:proc/w")
	want := `{"additionalProperties":false,"properties":{"tags":{"items":{"type":"string"},"type":"array"},"timeout":{"type":"integer"}},"required":["tags"],"type":"object"}`
	if got != want {
		t.Fatalf("schema = %s, want %s", got, want)
	}
}

func TestConfigSchemaEnum(t *testing.T) {
	source := `package weft:proc;
world w {
	enum level {
		info,
		warn,
		error,
	}
	record config {
		mode: level,
	}
}
`
	got := canonicalConfigSchema(t, source, "weft:proc/w")
	want := `{"additionalProperties":false,"properties":{"mode":{"enum":["info","warn","error"],"type":"string"}},"required":["mode"],"type":"object"}`
	if got != want {
		t.Fatalf("schema = %s, want %s", got, want)
	}
}

func TestConfigSchemaNestedRecord(t *testing.T) {
	source := `package weft:proc;
world w {
	record bounds {
		max: u64,
		note: option<string>,
	}
	record config {
		limits: bounds,
	}
}
`
	got := canonicalConfigSchema(t, source, "weft:proc/w")
	want := `{"additionalProperties":false,"properties":{"limits":{"properties":{"max":{"type":"integer"},"note":{"type":"string"}},"required":["max"],"type":"object"}},"required":["limits"],"type":"object"}`
	if got != want {
		t.Fatalf("schema = %s, want %s", got, want)
	}
	// Only the top-level object closes additionalProperties.
	if strings.Count(got, "additionalProperties") != 1 {
		t.Fatalf("additionalProperties appears %d times, want 1", strings.Count(got, "additionalProperties"))
	}
}

func TestConfigSchemaDirectives(t *testing.T) {
	source := `package weft:proc;
world w {
	record config {
		/// Greeting template.
		/// Rendered per message.
		/// @default("hello")
		greeting: string,
		/// @default(3)
		retries: u32,
		/// @default(not-json)
		mode: string,
		/// @flow:hidden
		/// @default(true)
		debug: bool,
	}
}
`
	pkg, err := Parse(source)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	schema, err := pkg.ConfigSchema("weft:proc/w")
	if err != nil {
		t.Fatalf("ConfigSchema: %v", err)
	}
	props := schema.(map[string]any)["properties"].(map[string]any)

	greeting := props["greeting"].(map[string]any)
	if greeting["description"] != "Greeting template.\nRendered per message." {
		t.Fatalf("greeting description = %q", greeting["description"])
	}
	if greeting["default"] != "hello" {
		t.Fatalf("greeting default = %v, want %q", greeting["default"], "hello")
	}

	retries := props["retries"].(map[string]any)
	if retries["default"] != float64(3) {
		t.Fatalf("retries default = %v (%T), want 3", retries["default"], retries["default"])
	}
	if _, ok := retries["description"]; ok {
		t.Fatalf("retries description = %v, want absent", retries["description"])
	}

	mode := props["mode"].(map[string]any)
	if mode["default"] != "not-json" {
		t.Fatalf("mode default = %v, want bare string not-json", mode["default"])
	}

	debug := props["debug"].(map[string]any)
	if debug["x_flow_hidden"] != true {
		t.Fatalf("debug x_flow_hidden = %v, want true", debug["x_flow_hidden"])
	}
	if debug["default"] != true {
		t.Fatalf("debug default = %v, want true", debug["default"])
	}
}

func TestConfigSchemaAliasToRecord(t *testing.T) {
	source := `package weft:proc;
world w {
	type config = settings;
	record settings {
		name: string,
	}
}
`
	got := canonicalConfigSchema(t, source, "weft:proc/w")
	want := `{"properties":{"name":{"type":"string"}},"required":["name"],"type":"object"}`
	if got != want {
		t.Fatalf("schema = %s, want %s", got, want)
	}
}

func TestConfigSchemaAliasToPrimitive(t *testing.T) {
	source := `package weft:proc;
world w {
	type config = string;
}
`
	got := canonicalConfigSchema(t, source, "weft:proc/w")
	want := `{"type":"string"}`
	if got != want {
		t.Fatalf("schema = %s, want %s", got, want)
	}
}

func TestConfigSchemaAliasChain(t *testing.T) {
	source := `package weft:proc;
world w {
	type label = string;
	record config {
		name: label,
	}
}
`
	got := canonicalConfigSchema(t, source, "weft:proc/w")
	want := `{"additionalProperties":false,"properties":{"name":{"type":"string"}},"required":["name"],"type":"object"}`
	if got != want {
		t.Fatalf("schema = %s, want %s", got, want)
	}
}

func TestConfigSchemaWorldSelection(t *testing.T) {
	source := `package weft:proc;
world sender {
	record config {
		endpoint: string,
	}
}
world receiver {
	record config {
		queue: string,
	}
}
`
	got := canonicalConfigSchema(t, source, "weft:proc/receiver@1.0.0")
	if !strings.Contains(got, `"queue"`) {
		t.Fatalf("schema = %s, want receiver config", got)
	}

	// An unmatched or bare reference falls back to the first world.
	got = canonicalConfigSchema(t, source, "unrelated")
	if !strings.Contains(got, `"endpoint"`) {
		t.Fatalf("schema = %s, want sender config", got)
	}
}

func TestConfigSchemaFromImportedInterface(t *testing.T) {
	source := `package weft:proc;
interface conf {
	record config {
		size: u32,
	}
}
world w {
	import conf;
}
`
	got := canonicalConfigSchema(t, source, "weft:proc/w")
	if !strings.Contains(got, `"size"`) {
		t.Fatalf("schema = %s, want config from imported interface", got)
	}
}

func TestConfigSchemaFromInlineInterface(t *testing.T) {
	source := `package weft:proc;
world w {
	import settings: interface {
		record config {
			size: u32,
		}
	};
}
`
	got := canonicalConfigSchema(t, source, "weft:proc/w")
	if !strings.Contains(got, `"size"`) {
		t.Fatalf("schema = %s, want config from inline interface", got)
	}
}

func TestConfigSchemaWorldTypeWinsOverInterface(t *testing.T) {
	source := `package weft:proc;
interface conf {
	record config {
		from-interface: u32,
	}
}
world w {
	import conf;
	record config {
		from-world: u32,
	}
}
`
	got := canonicalConfigSchema(t, source, "weft:proc/w")
	if !strings.Contains(got, `"from-world"`) {
		t.Fatalf("schema = %s, want world-owned config", got)
	}
}

func TestConfigSchemaVariantFallsBackToString(t *testing.T) {
	source := `package weft:proc;
world w {
	variant shape {
		circle(f32),
		square(f32),
	}
	record config {
		s: shape,
	}
}
`
	got := canonicalConfigSchema(t, source, "weft:proc/w")
	want := `{"additionalProperties":false,"properties":{"s":{"type":"string"}},"required":["s"],"type":"object"}`
	if got != want {
		t.Fatalf("schema = %s, want %s", got, want)
	}
}

func TestConfigSchemaEmptyRecord(t *testing.T) {
	source := `package weft:proc;
world w {
	record config {
	}
}
`
	got := canonicalConfigSchema(t, source, "weft:proc/w")
	want := `{"additionalProperties":false,"properties":{},"type":"object"}`
	if got != want {
		t.Fatalf("schema = %s, want %s", got, want)
	}
}

func TestConfigSchemaErrors(t *testing.T) {
	cases := []struct {
		name   string
		source string
		want   string
	}{
		{
			"no config type",
			"package weft:proc;\nworld w {\n}\n",
			"no config record",
		},
		{
			"config is an enum",
			"package weft:proc;\nworld w {\n\tenum config { a, b }\n}\n",
			"must be a record",
		},
		{
			"unknown field type",
			"package weft:proc;\nworld w {\n\trecord config { x: missing }\n}\n",
			`unknown type "missing"`,
		},
		{
			"recursive record",
			"package weft:proc;\nworld w {\n\trecord looper { next: looper }\n\trecord config { x: looper }\n}\n",
			"cycle",
		},
		{
			"no worlds",
			"package weft:proc;\n",
			"no world found in proc",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pkg, err := Parse(tc.source)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			_, err = pkg.ConfigSchema("weft:proc/w")
			if err == nil {
				t.Fatalf("ConfigSchema succeeded, want error containing %q", tc.want)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error = %q, want containing %q", err, tc.want)
			}
		})
	}
}

func TestParseWorldName(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"weft:proc/echo@1.0.0", "echo"},
		{"weft:proc/echo", "echo"},
		{"weft:proc/echo/extra", "echo"},
		{"echo", ""},
		{"", ""},
		{"weft:proc/@1.0.0", ""},
	}
	for _, tc := range cases {
		if got := parseWorldName(tc.raw); got != tc.want {
			t.Fatalf("parseWorldName(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}
