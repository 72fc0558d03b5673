// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

// Package wasm inspects WebAssembly binaries just enough for the pack
// build pipeline: function export names, lifecycle exports, the
// toolchain-stamped world reference, and the wasm32-wasip2 target
// marker. It walks the section framing directly rather than pulling in
// a runtime; the pipeline never executes components.
package wasm

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"strings"
)

// WorldSection is the custom section the component toolchain stamps
// with the binary's world reference (namespace:package/world[@version]).
const WorldSection = "weft-world"

// wasiTargetMarker must appear somewhere in a component's raw bytes.
// Toolchains record it in the producers section.
const wasiTargetMarker = "wasm32-wasip2"

var wasmMagic = []byte{0x00, 0x61, 0x73, 0x6D}

// Info is what a scan reports about a binary.
type Info struct {
	// Component is true for component-model binaries (layer 1) and
	// false for core modules.
	Component bool

	// FuncExports lists function export names in section order.
	FuncExports []string

	// World is the world reference from the weft-world custom
	// section, or empty when the binary carries none. Binaries
	// without a world declaration skip the manifest world check.
	World string

	// HasWASITarget reports whether the wasm32-wasip2 marker occurs
	// in the raw bytes.
	HasWASITarget bool
}

// HasExport reports whether the binary exports a function with the
// given name, ignoring ASCII case.
func (i *Info) HasExport(name string) bool {
	for _, export := range i.FuncExports {
		if strings.EqualFold(export, name) {
			return true
		}
	}
	return false
}

// Lifecycle reports which of the optional lifecycle entrypoints the
// binary exports.
type Lifecycle struct {
	Init     bool `json:"init"`
	Health   bool `json:"health"`
	Shutdown bool `json:"shutdown"`
}

// Lifecycle detects the optional init/health/shutdown exports,
// ignoring ASCII case.
func (i *Info) Lifecycle() Lifecycle {
	return Lifecycle{
		Init:     i.HasExport("init"),
		Health:   i.HasExport("health"),
		Shutdown: i.HasExport("shutdown"),
	}
}

// ScanFile scans the binary at path.
func ScanFile(path string) (*Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading component binary: %w", err)
	}
	info, err := Scan(data)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}
	return info, nil
}

// Scan inspects a WebAssembly binary. Both core modules and
// component-model binaries are accepted; section contents the
// pipeline does not need are skipped without validation.
func Scan(data []byte) (*Info, error) {
	if len(data) < 8 || !bytes.Equal(data[:4], wasmMagic) {
		return nil, fmt.Errorf("not a WebAssembly binary")
	}

	info := &Info{
		Component:     binary.LittleEndian.Uint16(data[6:8]) == 1,
		HasWASITarget: bytes.Contains(data, []byte(wasiTargetMarker)),
	}

	s := &scanner{data: data, offset: 8}
	for s.remaining() > 0 {
		sectionID, err := s.readByte()
		if err != nil {
			return nil, err
		}
		size, err := s.uvarint()
		if err != nil {
			return nil, err
		}
		content, err := s.read(size)
		if err != nil {
			return nil, fmt.Errorf("section %d: %w", sectionID, err)
		}

		switch {
		case sectionID == 0:
			name, payload, err := splitCustomSection(content)
			if err != nil {
				return nil, err
			}
			if name == WorldSection && info.World == "" {
				info.World = strings.TrimSpace(string(payload))
			}

		case !info.Component && sectionID == 7:
			exports, err := parseCoreExports(content)
			if err != nil {
				return nil, err
			}
			info.FuncExports = append(info.FuncExports, exports...)

		case info.Component && sectionID == 11:
			exports, err := parseComponentExports(content)
			if err != nil {
				return nil, err
			}
			info.FuncExports = append(info.FuncExports, exports...)
		}
	}

	return info, nil
}

// splitCustomSection separates a custom section into its name and
// payload.
func splitCustomSection(content []byte) (string, []byte, error) {
	s := &scanner{data: content}
	nameLen, err := s.uvarint()
	if err != nil {
		return "", nil, fmt.Errorf("custom section: %w", err)
	}
	name, err := s.read(nameLen)
	if err != nil {
		return "", nil, fmt.Errorf("custom section name: %w", err)
	}
	return string(name), content[s.offset:], nil
}

// parseCoreExports reads a core module export section and returns the
// function export names.
func parseCoreExports(content []byte) ([]string, error) {
	s := &scanner{data: content}
	count, err := s.uvarint()
	if err != nil {
		return nil, fmt.Errorf("export section: %w", err)
	}
	var names []string
	for range count {
		nameLen, err := s.uvarint()
		if err != nil {
			return nil, fmt.Errorf("export name: %w", err)
		}
		name, err := s.read(nameLen)
		if err != nil {
			return nil, fmt.Errorf("export name: %w", err)
		}
		kind, err := s.readByte()
		if err != nil {
			return nil, fmt.Errorf("export kind: %w", err)
		}
		if _, err := s.uvarint(); err != nil {
			return nil, fmt.Errorf("export index: %w", err)
		}
		// Kind 0 is a function export; tables, memories, and globals
		// are irrelevant here.
		if kind == 0 {
			names = append(names, string(name))
		}
	}
	return names, nil
}

// parseComponentExports reads a component export section and returns
// the function export names (sort byte 0x01). Entries carrying an
// ascribed type have a parser-specific tail this scanner cannot skip;
// the names collected up to that point suffice for lifecycle and
// describe synthesis, so the scan stops there.
func parseComponentExports(content []byte) ([]string, error) {
	s := &scanner{data: content}
	count, err := s.uvarint()
	if err != nil {
		return nil, fmt.Errorf("component export section: %w", err)
	}
	var names []string
	for range count {
		disc, err := s.readByte()
		if err != nil {
			return nil, fmt.Errorf("export name form: %w", err)
		}
		if disc != 0x00 && disc != 0x01 {
			return names, nil
		}
		nameLen, err := s.uvarint()
		if err != nil {
			return nil, fmt.Errorf("export name: %w", err)
		}
		name, err := s.read(nameLen)
		if err != nil {
			return nil, fmt.Errorf("export name: %w", err)
		}
		sort, err := s.readByte()
		if err != nil {
			return nil, fmt.Errorf("export sort: %w", err)
		}
		if sort == 0x00 {
			// Core sorts carry an extra discriminator byte.
			if _, err := s.readByte(); err != nil {
				return nil, fmt.Errorf("core sort: %w", err)
			}
		}
		if _, err := s.uvarint(); err != nil {
			return nil, fmt.Errorf("export index: %w", err)
		}
		option, err := s.readByte()
		if err != nil {
			return nil, fmt.Errorf("export type option: %w", err)
		}
		if sort == 0x01 {
			names = append(names, string(name))
		}
		if option != 0x00 {
			return names, nil
		}
	}
	return names, nil
}

// scanner is a bounds-checked cursor over binary data.
type scanner struct {
	data   []byte
	offset int
}

func (s *scanner) remaining() int {
	return len(s.data) - s.offset
}

func (s *scanner) readByte() (byte, error) {
	if s.remaining() < 1 {
		return 0, fmt.Errorf("truncated at offset %d", s.offset)
	}
	b := s.data[s.offset]
	s.offset++
	return b, nil
}

func (s *scanner) read(n uint64) ([]byte, error) {
	if n > uint64(s.remaining()) {
		return nil, fmt.Errorf("length %d exceeds remaining %d bytes at offset %d", n, s.remaining(), s.offset)
	}
	out := s.data[s.offset : s.offset+int(n)]
	s.offset += int(n)
	return out, nil
}

// uvarint reads an unsigned LEB128 value (the same wire form as Go's
// binary varints).
func (s *scanner) uvarint() (uint64, error) {
	value, n := binary.Uvarint(s.data[s.offset:])
	if n <= 0 {
		return 0, fmt.Errorf("invalid varint at offset %d", s.offset)
	}
	s.offset += n
	return value, nil
}
