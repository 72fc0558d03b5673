// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package pack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/weftworks/weft/lib/clock"
	"github.com/weftworks/weft/lib/component"
	"github.com/weftworks/weft/lib/schema"
	"github.com/weftworks/weft/lib/testutil"
	"github.com/weftworks/weft/lib/workspace"
)

var echoSchema = json.RawMessage(`{"type":"object","properties":{"text":{"type":"string"}},"required":["text"]}`)

const echoFlow = `id: greet
kind: messaging
entry: start
nodes:
  - id: start
    component:
      name: echo
      version_req: "^0.1"
    text: hello
`

// buildWorkspace lays out a workspace with a .weft marker, an echo
// component, and a flow document, and returns ready-to-run Options.
func buildWorkspace(t *testing.T, flowYAML string) Options {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, workspace.DirName), 0o755); err != nil {
		t.Fatalf("mkdir .weft: %v", err)
	}
	componentsDir := filepath.Join(root, "components")
	testutil.WriteComponent(t, filepath.Join(componentsDir, "echo"), testutil.ComponentSpec{
		ConfigSchema: echoSchema,
	})
	flowPath := testutil.WriteFlow(t, root, "greet.flow.yaml", flowYAML)

	// Pin both determinism inputs so tests never depend on the wall
	// clock or ambient environment.
	t.Setenv("WEFT_STRICT", "")
	t.Setenv("WEFT_BUILD_TIMESTAMP", "")
	return Options{
		FlowPath:      flowPath,
		OutPath:       filepath.Join(root, "dist", "greet.wpack"),
		ComponentsDir: componentsDir,
		WorkspaceRoot: root,
		Clock:         clock.Fixed(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
	}
}

func TestBuildHappyPath(t *testing.T) {
	opts := buildWorkspace(t, echoFlow)

	result, err := Build(context.Background(), opts)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if result.OutPath != opts.OutPath {
		t.Errorf("OutPath = %q, want %q", result.OutPath, opts.OutPath)
	}
	if !strings.HasPrefix(result.ManifestHash.String(), "blake3:") {
		t.Errorf("ManifestHash = %q, want a blake3 digest", result.ManifestHash)
	}

	archive, err := ReadArchive(result.OutPath)
	if err != nil {
		t.Fatalf("ReadArchive: %v", err)
	}
	manifest := archive.Manifest
	if manifest.SchemaVersion != SchemaVersion {
		t.Errorf("SchemaVersion = %d, want %d", manifest.SchemaVersion, SchemaVersion)
	}
	if manifest.PackID != "dev.local.greet" {
		t.Errorf("PackID = %q, want %q", manifest.PackID, "dev.local.greet")
	}
	if manifest.Version != "0.1.0" {
		t.Errorf("Version = %q, want %q", manifest.Version, "0.1.0")
	}
	if manifest.Kind != KindApplication {
		t.Errorf("Kind = %q, want %q", manifest.Kind, KindApplication)
	}
	if got, want := manifest.EntryFlows, []string{"greet"}; len(got) != 1 || got[0] != want[0] {
		t.Errorf("EntryFlows = %v, want %v", got, want)
	}
	if manifest.CreatedAtUTC != "2026-03-01T12:00:00Z" {
		t.Errorf("CreatedAtUTC = %q, want the fixed clock instant", manifest.CreatedAtUTC)
	}
	if manifest.Provenance.BuiltAtUTC != manifest.CreatedAtUTC {
		t.Errorf("BuiltAtUTC = %q, want %q", manifest.Provenance.BuiltAtUTC, manifest.CreatedAtUTC)
	}
	if manifest.Flow.ID != "greet" || len(manifest.Flow.Nodes) != 1 {
		t.Fatalf("Flow = %+v, want id greet with one node", manifest.Flow)
	}
	if manifest.Flow.Nodes[0].Component.Name != "echo" {
		t.Errorf("node component = %q, want %q", manifest.Flow.Nodes[0].Component.Name, "echo")
	}

	if len(manifest.Components) != 1 {
		t.Fatalf("len(Components) = %d, want 1", len(manifest.Components))
	}
	artifact := manifest.Components[0]
	if artifact.Name != "echo" || artifact.Version != "0.1.0" {
		t.Errorf("artifact = %s@%s, want echo@0.1.0", artifact.Name, artifact.Version)
	}
	if artifact.Path != "components/echo-0.1.0.wasm" {
		t.Errorf("artifact path = %q", artifact.Path)
	}

	if archive.Signature == nil {
		t.Fatal("default build should carry a dev signature")
	}
	if archive.Signature.KeyID != DevKeyID {
		t.Errorf("KeyID = %q, want %q", archive.Signature.KeyID, DevKeyID)
	}
	if !archive.Signature.Unproven {
		t.Error("dev signature must be marked unproven")
	}
	if err := archive.Signature.Verify(archive.ManifestBytes); err != nil {
		t.Errorf("Verify: %v", err)
	}
}

func TestBuildWritesSidecars(t *testing.T) {
	opts := buildWorkspace(t, echoFlow)
	if _, err := Build(context.Background(), opts); err != nil {
		t.Fatalf("Build: %v", err)
	}

	sidecar := filepath.Join(workspace.ResolvedConfigDir(opts.WorkspaceRoot), "start.json")
	data, err := os.ReadFile(sidecar)
	if err != nil {
		t.Fatalf("reading sidecar: %v", err)
	}
	var record struct {
		NodeID    string          `json:"node_id"`
		Component string          `json:"component"`
		Version   string          `json:"version"`
		Config    json.RawMessage `json:"config"`
	}
	if err := json.Unmarshal(data, &record); err != nil {
		t.Fatalf("parsing sidecar: %v", err)
	}
	if record.NodeID != "start" || record.Component != "echo" || record.Version != "0.1.0" {
		t.Errorf("sidecar = %+v", record)
	}
	// The record is pretty-printed, so the embedded config carries the
	// record's indentation; compare it compacted.
	var config bytes.Buffer
	if err := json.Compact(&config, record.Config); err != nil {
		t.Fatalf("compacting sidecar config: %v", err)
	}
	if config.String() != `{"text":"hello"}` {
		t.Errorf("sidecar config = %s", config.String())
	}
}

func TestBuildConfigViolation(t *testing.T) {
	opts := buildWorkspace(t, `id: greet
nodes:
  - id: start
    component: echo
`)
	_, err := Build(context.Background(), opts)
	var validationErr *schema.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("Build error = %v, want a validation error", err)
	}
	if len(validationErr.Violations) != 1 {
		t.Fatalf("violations = %v, want exactly one", validationErr.Violations)
	}
	v := validationErr.Violations[0]
	if v.NodeID != "start" {
		t.Errorf("NodeID = %q, want %q", v.NodeID, "start")
	}
	if v.Pointer != "/nodes/0/text" {
		t.Errorf("Pointer = %q, want %q", v.Pointer, "/nodes/0/text")
	}
	if !strings.Contains(v.Message, "required") {
		t.Errorf("Message = %q, want it to mention the missing required property", v.Message)
	}

	if _, statErr := os.Stat(opts.OutPath); !os.IsNotExist(statErr) {
		t.Errorf("failed build must not leave an archive at %s", opts.OutPath)
	}
}

func TestBuildVersionMismatch(t *testing.T) {
	opts := buildWorkspace(t, `id: greet
nodes:
  - id: start
    component:
      name: echo
      version_req: "^2.0"
    text: hi
`)
	_, err := Build(context.Background(), opts)
	var resolveErr *component.ResolveError
	if !errors.As(err, &resolveErr) {
		t.Fatalf("Build error = %v, want a resolve error", err)
	}
	if resolveErr.Reason != component.ReasonVersionMismatch {
		t.Errorf("Reason = %v, want %v", resolveErr.Reason, component.ReasonVersionMismatch)
	}
	if resolveErr.Name != "echo" || resolveErr.VersionReq != "^2.0" {
		t.Errorf("error identifies %s@%s, want echo@^2.0", resolveErr.Name, resolveErr.VersionReq)
	}
}

func TestBuildHashMismatch(t *testing.T) {
	opts := buildWorkspace(t, echoFlow)

	// Corrupt the binary after the manifest recorded its hash.
	wasmPath := filepath.Join(opts.ComponentsDir, "echo", "component.wasm")
	data, err := os.ReadFile(wasmPath)
	if err != nil {
		t.Fatalf("reading wasm: %v", err)
	}
	if err := os.WriteFile(wasmPath, append(data, 0x00), 0o644); err != nil {
		t.Fatalf("corrupting wasm: %v", err)
	}

	_, err = Build(context.Background(), opts)
	var resolveErr *component.ResolveError
	if !errors.As(err, &resolveErr) {
		t.Fatalf("Build error = %v, want a resolve error", err)
	}
	if resolveErr.Reason != component.ReasonHashMismatch {
		t.Errorf("Reason = %v, want %v", resolveErr.Reason, component.ReasonHashMismatch)
	}
}

func TestBuildDeduplicatesComponents(t *testing.T) {
	opts := buildWorkspace(t, `id: greet
nodes:
  - id: start
    component: echo
    text: one
  - id: again
    component: echo
    text: two
`)
	result, err := Build(context.Background(), opts)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	archive, err := ReadArchive(result.OutPath)
	if err != nil {
		t.Fatalf("ReadArchive: %v", err)
	}
	if len(archive.Manifest.Flow.Nodes) != 2 {
		t.Errorf("manifest nodes = %d, want 2", len(archive.Manifest.Flow.Nodes))
	}
	if len(archive.Manifest.Components) != 1 {
		t.Errorf("component artifacts = %d, want echo@0.1.0 embedded once", len(archive.Manifest.Components))
	}
	wasmEntries := 0
	for name := range archive.Entries {
		if strings.HasPrefix(name, "components/") {
			wasmEntries++
		}
	}
	if wasmEntries != 1 {
		t.Errorf("wasm entries = %d, want 1", wasmEntries)
	}
}

func TestBuildDeterministicWithPinnedTimestamp(t *testing.T) {
	opts := buildWorkspace(t, echoFlow)
	t.Setenv("WEFT_BUILD_TIMESTAMP", "2024-01-01T00:00:00Z")
	t.Setenv("WEFT_STRICT", "1")

	first, err := Build(context.Background(), opts)
	if err != nil {
		t.Fatalf("first Build: %v", err)
	}
	firstBytes, err := os.ReadFile(first.OutPath)
	if err != nil {
		t.Fatalf("read first: %v", err)
	}

	opts.OutPath = filepath.Join(filepath.Dir(opts.OutPath), "second.wpack")
	second, err := Build(context.Background(), opts)
	if err != nil {
		t.Fatalf("second Build: %v", err)
	}
	secondBytes, err := os.ReadFile(second.OutPath)
	if err != nil {
		t.Fatalf("read second: %v", err)
	}

	if string(firstBytes) != string(secondBytes) {
		t.Error("pinned-timestamp builds must be byte-identical")
	}
	if first.ManifestHash != second.ManifestHash {
		t.Errorf("manifest hashes differ: %s vs %s", first.ManifestHash, second.ManifestHash)
	}
}

func TestBuildTimestampChangesOutput(t *testing.T) {
	opts := buildWorkspace(t, echoFlow)

	first, err := Build(context.Background(), opts)
	if err != nil {
		t.Fatalf("first Build: %v", err)
	}
	firstBytes, err := os.ReadFile(first.OutPath)
	if err != nil {
		t.Fatalf("read first: %v", err)
	}

	opts.Clock = clock.Fixed(time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC))
	opts.OutPath = filepath.Join(filepath.Dir(opts.OutPath), "later.wpack")
	second, err := Build(context.Background(), opts)
	if err != nil {
		t.Fatalf("second Build: %v", err)
	}
	secondBytes, err := os.ReadFile(second.OutPath)
	if err != nil {
		t.Fatalf("read second: %v", err)
	}

	if string(firstBytes) == string(secondBytes) {
		t.Error("a different build instant must change the archive bytes")
	}
}

func TestBuildRejectsBadTimestampOverride(t *testing.T) {
	opts := buildWorkspace(t, echoFlow)
	t.Setenv("WEFT_BUILD_TIMESTAMP", "yesterday")

	_, err := Build(context.Background(), opts)
	var assemblyErr *AssemblyError
	if !errors.As(err, &assemblyErr) {
		t.Fatalf("Build error = %v, want an assembly error", err)
	}
}

func TestBuildWithMetaOverlay(t *testing.T) {
	opts := buildWorkspace(t, echoFlow)
	metaPath := filepath.Join(filepath.Dir(opts.FlowPath), "pack.toml")
	meta := `pack_id = "com.example.greeter"
version = "1.2.3"
name = "Greeter"
kind = "library"
license = "Apache-2.0"
entry_flows = ["greet"]
created_at_utc = "2025-06-01T00:00:00Z"

[annotations]
tier = "demo"
`
	if err := os.WriteFile(metaPath, []byte(meta), 0o644); err != nil {
		t.Fatalf("write pack.toml: %v", err)
	}
	opts.MetaPath = metaPath

	result, err := Build(context.Background(), opts)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	archive, err := ReadArchive(result.OutPath)
	if err != nil {
		t.Fatalf("ReadArchive: %v", err)
	}
	manifest := archive.Manifest
	if manifest.PackID != "com.example.greeter" {
		t.Errorf("PackID = %q", manifest.PackID)
	}
	if manifest.Version != "1.2.3" {
		t.Errorf("Version = %q", manifest.Version)
	}
	if manifest.Kind != KindLibrary {
		t.Errorf("Kind = %q", manifest.Kind)
	}
	if manifest.CreatedAtUTC != "2025-06-01T00:00:00Z" {
		t.Errorf("CreatedAtUTC = %q, want the overlay instant", manifest.CreatedAtUTC)
	}
	if manifest.Annotations["tier"] != "demo" {
		t.Errorf("Annotations = %v", manifest.Annotations)
	}
}

func TestBuildTimestampOverrideBeatsOverlay(t *testing.T) {
	opts := buildWorkspace(t, echoFlow)
	metaPath := filepath.Join(filepath.Dir(opts.FlowPath), "pack.toml")
	meta := `created_at_utc = "2025-06-01T00:00:00Z"` + "\n"
	if err := os.WriteFile(metaPath, []byte(meta), 0o644); err != nil {
		t.Fatalf("write pack.toml: %v", err)
	}
	opts.MetaPath = metaPath
	t.Setenv("WEFT_BUILD_TIMESTAMP", "2024-01-01T00:00:00Z")

	result, err := Build(context.Background(), opts)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	archive, err := ReadArchive(result.OutPath)
	if err != nil {
		t.Fatalf("ReadArchive: %v", err)
	}
	manifest := archive.Manifest
	if manifest.CreatedAtUTC != "2024-01-01T00:00:00Z" {
		t.Errorf("CreatedAtUTC = %q, want the override instant", manifest.CreatedAtUTC)
	}
	if manifest.Provenance.BuiltAtUTC != manifest.CreatedAtUTC {
		t.Errorf("BuiltAtUTC = %q, want %q", manifest.Provenance.BuiltAtUTC, manifest.CreatedAtUTC)
	}
}

func TestBuildUnsigned(t *testing.T) {
	opts := buildWorkspace(t, echoFlow)
	opts.Signing = SignNone

	result, err := Build(context.Background(), opts)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	archive, err := ReadArchive(result.OutPath)
	if err != nil {
		t.Fatalf("ReadArchive: %v", err)
	}
	if archive.Signature != nil {
		t.Error("sign=none build must not carry a signature entry")
	}
}
