// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package cbor

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestDecodeHexInput(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []byte
		wantErr bool
	}{
		{
			name:  "lowercase hex",
			input: "a1636b6579",
			want:  []byte{0xA1, 0x63, 0x6B, 0x65, 0x79},
		},
		{
			name:  "uppercase hex",
			input: "A1636B6579",
			want:  []byte{0xA1, 0x63, 0x6B, 0x65, 0x79},
		},
		{
			name:  "spaces between pairs",
			input: "a1 63 6b 65 79",
			want:  []byte{0xA1, 0x63, 0x6B, 0x65, 0x79},
		},
		{
			name:  "newlines and tabs",
			input: "a1\n63\t6b\n65 79\n",
			want:  []byte{0xA1, 0x63, 0x6B, 0x65, 0x79},
		},
		{
			name:    "invalid hex characters",
			input:   "zz",
			wantErr: true,
		},
		{
			name:    "odd number of digits",
			input:   "a16",
			wantErr: true,
		},
		{
			name:    "empty after stripping whitespace",
			input:   "  \n\t ",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeHexInput([]byte(tt.input))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("decodeHexInput(%q) succeeded, want error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("decodeHexInput(%q): %v", tt.input, err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("decodeHexInput(%q) = %x, want %x", tt.input, got, tt.want)
			}
		})
	}
}

func TestReadInput_ConsumesFileArg(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.cbor")
	content := []byte{0xA1, 0x61, 0x61, 0x01}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write test file: %v", err)
	}

	data, remaining, err := readInput([]string{path}, false)
	if err != nil {
		t.Fatalf("readInput: %v", err)
	}
	if !bytes.Equal(data, content) {
		t.Errorf("data = %x, want %x", data, content)
	}
	if len(remaining) != 0 {
		t.Errorf("remaining args = %v, want none", remaining)
	}
}

func TestReadInput_HexFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dump.hex")
	if err := os.WriteFile(path, []byte("a1 61 61 01\n"), 0o644); err != nil {
		t.Fatalf("write test file: %v", err)
	}

	data, _, err := readInput([]string{path}, true)
	if err != nil {
		t.Fatalf("readInput: %v", err)
	}
	want := []byte{0xA1, 0x61, 0x61, 0x01}
	if !bytes.Equal(data, want) {
		t.Errorf("data = %x, want %x", data, want)
	}
}

func TestReadInput_LeavesNonFileArgs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "input.cbor")
	if err := os.WriteFile(path, []byte{0x01}, 0o644); err != nil {
		t.Fatalf("write test file: %v", err)
	}

	_, remaining, err := readInput([]string{"stray", path}, false)
	if err != nil {
		t.Fatalf("readInput: %v", err)
	}
	if len(remaining) != 1 || remaining[0] != "stray" {
		t.Errorf("remaining args = %v, want [stray]", remaining)
	}
}
