// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package wasm

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func putUvarint(v int) []byte {
	buf := make([]byte, binary.MaxVarintLen64)
	n := binary.PutUvarint(buf, uint64(v))
	return buf[:n]
}

func section(id byte, content []byte) []byte {
	out := []byte{id}
	out = append(out, putUvarint(len(content))...)
	return append(out, content...)
}

func customSection(name string, payload []byte) []byte {
	content := putUvarint(len(name))
	content = append(content, name...)
	content = append(content, payload...)
	return section(0, content)
}

type coreExport struct {
	name string
	kind byte
}

func coreExportSection(exports []coreExport) []byte {
	content := putUvarint(len(exports))
	for _, e := range exports {
		content = append(content, putUvarint(len(e.name))...)
		content = append(content, e.name...)
		content = append(content, e.kind)
		content = append(content, putUvarint(0)...)
	}
	return section(7, content)
}

type componentExport struct {
	name   string
	sort   byte
	option byte
}

func componentExportSection(exports []componentExport) []byte {
	content := putUvarint(len(exports))
	for _, e := range exports {
		content = append(content, 0x00)
		content = append(content, putUvarint(len(e.name))...)
		content = append(content, e.name...)
		content = append(content, e.sort)
		content = append(content, putUvarint(0)...)
		content = append(content, e.option)
	}
	return section(11, content)
}

func coreModule(sections ...[]byte) []byte {
	out := []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00}
	for _, s := range sections {
		out = append(out, s...)
	}
	return out
}

func componentBinary(sections ...[]byte) []byte {
	out := []byte{0x00, 0x61, 0x73, 0x6D, 0x0D, 0x00, 0x01, 0x00}
	for _, s := range sections {
		out = append(out, s...)
	}
	return out
}

func TestScanCoreModule(t *testing.T) {
	data := coreModule(
		coreExportSection([]coreExport{
			{name: "run", kind: 0},
			{name: "memory", kind: 2},
			{name: "init", kind: 0},
			{name: "Health", kind: 0},
		}),
		customSection("producers", []byte("language\x00rust wasm32-wasip2")),
		customSection(WorldSection, []byte("weft:proc/echo@1.0.0\n")),
	)

	info, err := Scan(data)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if info.Component {
		t.Error("Component = true for a core module")
	}
	wantExports := []string{"run", "init", "Health"}
	if !reflect.DeepEqual(info.FuncExports, wantExports) {
		t.Errorf("FuncExports = %v, want %v", info.FuncExports, wantExports)
	}
	if info.World != "weft:proc/echo@1.0.0" {
		t.Errorf("World = %q, want %q", info.World, "weft:proc/echo@1.0.0")
	}
	if !info.HasWASITarget {
		t.Error("HasWASITarget = false, marker present in producers")
	}
	lifecycle := info.Lifecycle()
	if !lifecycle.Init || !lifecycle.Health || lifecycle.Shutdown {
		t.Errorf("Lifecycle = %+v, want init+health only", lifecycle)
	}
}

func TestScanComponentBinary(t *testing.T) {
	data := componentBinary(
		componentExportSection([]componentExport{
			{name: "describe", sort: 0x01, option: 0x00},
			{name: "an-instance", sort: 0x05, option: 0x00},
			{name: "handle-message", sort: 0x01, option: 0x00},
		}),
		customSection("producers", []byte("wasm32-wasip2")),
		customSection(WorldSection, []byte("weft:templating/handlebars@0.5.1")),
	)

	info, err := Scan(data)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if !info.Component {
		t.Error("Component = false for a layer-1 binary")
	}
	wantExports := []string{"describe", "handle-message"}
	if !reflect.DeepEqual(info.FuncExports, wantExports) {
		t.Errorf("FuncExports = %v, want %v", info.FuncExports, wantExports)
	}
	if !info.HasExport("DESCRIBE") {
		t.Error("HasExport should ignore case")
	}
	if info.World != "weft:templating/handlebars@0.5.1" {
		t.Errorf("World = %q", info.World)
	}
}

func TestScanComponentAscribedTypeStopsSoftly(t *testing.T) {
	data := componentBinary(
		componentExportSection([]componentExport{
			{name: "first", sort: 0x01, option: 0x00},
			{name: "second", sort: 0x01, option: 0x01},
			{name: "never-reached", sort: 0x01, option: 0x00},
		}),
	)

	info, err := Scan(data)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	wantExports := []string{"first", "second"}
	if !reflect.DeepEqual(info.FuncExports, wantExports) {
		t.Errorf("FuncExports = %v, want %v", info.FuncExports, wantExports)
	}
}

func TestScanNoWASIMarker(t *testing.T) {
	data := coreModule(coreExportSection([]coreExport{{name: "run", kind: 0}}))
	info, err := Scan(data)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if info.HasWASITarget {
		t.Error("HasWASITarget = true without a marker")
	}
	if info.World != "" {
		t.Errorf("World = %q, want empty", info.World)
	}
}

func TestScanRejectsNonWasm(t *testing.T) {
	if _, err := Scan([]byte("definitely not wasm")); err == nil {
		t.Error("Scan accepted non-wasm bytes")
	}
	if _, err := Scan(nil); err == nil {
		t.Error("Scan accepted empty input")
	}
}

func TestScanRejectsTruncatedSection(t *testing.T) {
	data := coreModule()
	// Export section claiming 100 bytes of content with none present.
	data = append(data, 7)
	data = append(data, putUvarint(100)...)
	if _, err := Scan(data); err == nil {
		t.Error("Scan accepted a truncated section")
	}
}

func TestScanFile(t *testing.T) {
	data := coreModule(
		coreExportSection([]coreExport{{name: "describe", kind: 0}}),
		customSection("producers", []byte("wasm32-wasip2")),
	)
	path := filepath.Join(t.TempDir(), "component.wasm")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	info, err := ScanFile(path)
	if err != nil {
		t.Fatalf("ScanFile: %v", err)
	}
	if !info.HasExport("describe") {
		t.Error("describe export not found")
	}

	if _, err := ScanFile(filepath.Join(t.TempDir(), "missing.wasm")); err == nil {
		t.Error("ScanFile on a missing file succeeded")
	}
}
