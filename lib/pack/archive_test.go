// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package pack

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"

	"github.com/klauspost/compress/flate"
)

func zipReader(t *testing.T, data []byte) *zip.Reader {
	t.Helper()
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("zip.NewReader: %v", err)
	}
	reader.RegisterDecompressor(zip.Deflate, func(r io.Reader) io.ReadCloser {
		return flate.NewReader(r)
	})
	return reader
}

func archiveEntryNames(t *testing.T, data []byte) []string {
	t.Helper()
	reader := zipReader(t, data)
	names := make([]string, 0, len(reader.File))
	for _, file := range reader.File {
		names = append(names, file.Name)
	}
	return names
}

func TestWriteArchiveOrdersEntries(t *testing.T) {
	// Deliberately shuffled input.
	entries := []Entry{
		{Category: categorySignature, Path: SignatureEntryName, Data: []byte("sig")},
		{Category: categorySchema, Path: "schemas/echo-0.1.0.schema.json", Data: []byte("{}")},
		{Category: categoryComponent, Path: "components/zeta-0.1.0.wasm", Data: []byte("z"), Store: true},
		{Category: categoryComponent, Path: "components/alpha-0.1.0.wasm", Data: []byte("a"), Store: true},
		{Category: categoryManifest, Path: ManifestEntryName, Data: []byte("m")},
	}

	var buf bytes.Buffer
	if err := WriteArchive(&buf, entries); err != nil {
		t.Fatalf("WriteArchive: %v", err)
	}

	got := archiveEntryNames(t, buf.Bytes())
	want := []string{
		ManifestEntryName,
		"components/alpha-0.1.0.wasm",
		"components/zeta-0.1.0.wasm",
		"schemas/echo-0.1.0.schema.json",
		SignatureEntryName,
	}
	if len(got) != len(want) {
		t.Fatalf("entries = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestWriteArchiveDeterministic(t *testing.T) {
	entries := []Entry{
		{Category: categoryManifest, Path: ManifestEntryName, Data: []byte("manifest bytes")},
		{Category: categoryComponent, Path: "components/echo-0.1.0.wasm", Data: bytes.Repeat([]byte{0xAB}, 4096), Store: true},
	}

	var first, second bytes.Buffer
	if err := WriteArchive(&first, entries); err != nil {
		t.Fatalf("first WriteArchive: %v", err)
	}
	if err := WriteArchive(&second, entries); err != nil {
		t.Fatalf("second WriteArchive: %v", err)
	}
	if !bytes.Equal(first.Bytes(), second.Bytes()) {
		t.Error("identical entry sets must produce identical archives")
	}
}

func TestWriteArchiveZeroTimestamps(t *testing.T) {
	entries := []Entry{
		{Category: categoryManifest, Path: ManifestEntryName, Data: []byte("m")},
	}
	var buf bytes.Buffer
	if err := WriteArchive(&buf, entries); err != nil {
		t.Fatalf("WriteArchive: %v", err)
	}

	reader := zipReader(t, buf.Bytes())
	for _, file := range reader.File {
		// A zero Modified lands on the MS-DOS epoch after zip's
		// encoding; any real wall-clock time would be later.
		if file.Modified.Year() > 1980 {
			t.Errorf("entry %s carries timestamp %v", file.Name, file.Modified)
		}
	}
}

func TestWriteArchiveRoundTrip(t *testing.T) {
	wasm := bytes.Repeat([]byte{0x00, 0x61, 0x73, 0x6D}, 64)
	entries := []Entry{
		{Category: categoryManifest, Path: ManifestEntryName, Data: []byte("manifest")},
		{Category: categoryComponent, Path: "components/echo-0.1.0.wasm", Data: wasm, Store: true},
		{Category: categorySchema, Path: "schemas/echo-0.1.0.schema.json", Data: []byte(`{"type":"object"}`)},
	}
	var buf bytes.Buffer
	if err := WriteArchive(&buf, entries); err != nil {
		t.Fatalf("WriteArchive: %v", err)
	}

	reader := zipReader(t, buf.Bytes())
	for _, entry := range entries {
		var found bool
		for _, file := range reader.File {
			if file.Name != entry.Path {
				continue
			}
			found = true
			opened, err := file.Open()
			if err != nil {
				t.Fatalf("open %s: %v", file.Name, err)
			}
			data, err := io.ReadAll(opened)
			opened.Close()
			if err != nil {
				t.Fatalf("read %s: %v", file.Name, err)
			}
			if !bytes.Equal(data, entry.Data) {
				t.Errorf("entry %s bytes differ after round trip", file.Name)
			}
		}
		if !found {
			t.Errorf("entry %s missing from archive", entry.Path)
		}
	}
}
