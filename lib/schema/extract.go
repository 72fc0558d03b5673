// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

// Package schema derives config schemas for components and validates
// node configs against them. A schema is always produced: from the
// component manifest, from WIT inference, from a schema file beside
// the manifest, or as a closed empty stub.
package schema

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/weftworks/weft/lib/codec"
	"github.com/weftworks/weft/lib/wit"
)

// StubSchema is the schema of last resort. It is a closed empty
// object, so a component without any declared schema rejects every
// non-empty config instead of silently accepting it.
const StubSchema = `{"additionalProperties":false,"properties":{},"required":[],"type":"object"}`

// Source identifies where a config schema came from.
type Source string

const (
	SourceManifest Source = "manifest"
	SourceWIT      Source = "wit"
	SourceFile     Source = "file"
	SourceStub     Source = "stub"
)

// Extracted is a derived config schema in canonical JSON form.
type Extracted struct {
	Schema []byte
	Source Source
	// Path is the WIT directory or schema file the schema was read
	// from, for the wit and file sources.
	Path string
}

// Extractor derives component config schemas.
type Extractor struct {
	logger *slog.Logger
}

func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Extractor{logger: logger}
}

// ComponentSchema derives the config schema for the component rooted
// at dir. Sources are tried in order: the inline manifest schema, WIT
// inference from dir/wit, dir/schemas/component.schema.json, and
// finally StubSchema. A WIT failure logs a warning and falls through
// to the next source; a schema file that exists but cannot be read or
// parsed is fatal. Whatever wins must satisfy the meta-schema.
func (e *Extractor) ComponentSchema(component, dir, worldRef string, inline json.RawMessage) (*Extracted, error) {
	extracted, err := e.derive(component, dir, worldRef, inline)
	if err != nil {
		return nil, err
	}
	if err := CheckSchema(extracted.Schema); err != nil {
		return nil, &ExtractError{Component: component, Reason: fmt.Sprintf("%s schema rejected", extracted.Source), Err: err}
	}
	return extracted, nil
}

func (e *Extractor) derive(component, dir, worldRef string, inline json.RawMessage) (*Extracted, error) {
	if len(inline) > 0 {
		canonical, err := codec.CanonicalizeJSON(inline)
		if err != nil {
			return nil, &ExtractError{Component: component, Reason: "invalid config_schema in manifest", Err: err}
		}
		return &Extracted{Schema: canonical, Source: SourceManifest}, nil
	}

	witDir := filepath.Join(dir, "wit")
	if info, err := os.Stat(witDir); err == nil && info.IsDir() {
		canonical, err := witConfigSchema(witDir, worldRef)
		if err == nil {
			return &Extracted{Schema: canonical, Source: SourceWIT, Path: witDir}, nil
		}
		e.logger.Warn("config schema inference from wit failed",
			"component", component,
			"dir", witDir,
			"error", err)
	}

	schemaPath := filepath.Join(dir, "schemas", "component.schema.json")
	if _, err := os.Stat(schemaPath); err == nil {
		raw, err := os.ReadFile(schemaPath)
		if err != nil {
			return nil, &ExtractError{Component: component, Reason: "reading schema file", Err: err}
		}
		canonical, err := codec.CanonicalizeJSON(raw)
		if err != nil {
			return nil, &ExtractError{Component: component, Reason: fmt.Sprintf("invalid schema file %s", schemaPath), Err: err}
		}
		return &Extracted{Schema: canonical, Source: SourceFile, Path: schemaPath}, nil
	}

	return &Extracted{Schema: []byte(StubSchema), Source: SourceStub}, nil
}

func witConfigSchema(witDir, worldRef string) ([]byte, error) {
	pkg, err := wit.ParseDir(witDir)
	if err != nil {
		return nil, err
	}
	configSchema, err := pkg.ConfigSchema(worldRef)
	if err != nil {
		return nil, err
	}
	return codec.CanonicalJSON(configSchema)
}
