// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package pack

import (
	"archive/zip"
	"fmt"
	"io"
	"sort"

	"github.com/klauspost/compress/flate"
)

// Archive entry names and path prefixes are part of the frozen
// format; they only move under a new SchemaVersion.
const (
	// ManifestEntryName is the CBOR pack manifest at the archive root.
	ManifestEntryName = "manifest.cbor"

	// SignatureEntryName is the optional dev signature entry.
	SignatureEntryName = "signature.cbor"

	componentPrefix = "components/"
	schemaPrefix    = "schemas/"
)

// Entry categories order the archive: the manifest first, then
// component binaries, then schema and component-manifest JSON, then
// the signature.
const (
	categoryManifest = iota
	categoryComponent
	categorySchema
	categorySignature
)

// ComponentEntryPath is the archive path of a component's wasm bytes.
func ComponentEntryPath(name, version string) string {
	return componentPrefix + name + "-" + version + ".wasm"
}

// SchemaEntryPath is the archive path of a component's config schema.
func SchemaEntryPath(name, version string) string {
	return schemaPrefix + name + "-" + version + ".schema.json"
}

// ComponentManifestEntryPath is the archive path of a component's
// embedded manifest text.
func ComponentManifestEntryPath(name, version string) string {
	return schemaPrefix + name + "-" + version + ".component.json"
}

// Entry is one archive member awaiting serialization.
type Entry struct {
	Category int
	Path     string
	Data     []byte

	// Store disables compression. Component binaries are
	// content-addressed by their exact bytes, so they are stored
	// verbatim and never recompressed.
	Store bool
}

// compressionLevel is frozen: changing it changes archive bytes and
// therefore requires a new SchemaVersion.
const compressionLevel = flate.BestCompression

// WriteArchive serializes entries to w as a deterministic zip: total
// entry order (category rank, then lexicographic path), fixed zero
// timestamps, and one frozen Deflate level for every compressed
// entry.
func WriteArchive(w io.Writer, entries []Entry) error {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Category != sorted[j].Category {
			return sorted[i].Category < sorted[j].Category
		}
		return sorted[i].Path < sorted[j].Path
	})

	writer := zip.NewWriter(w)
	writer.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, compressionLevel)
	})

	for _, entry := range sorted {
		method := uint16(zip.Deflate)
		if entry.Store {
			method = zip.Store
		}
		// The header's Modified time stays zero: every build stamps
		// the same fixed epoch.
		header := &zip.FileHeader{
			Name:   entry.Path,
			Method: method,
		}
		file, err := writer.CreateHeader(header)
		if err != nil {
			return fmt.Errorf("creating archive entry %s: %w", entry.Path, err)
		}
		if _, err := file.Write(entry.Data); err != nil {
			return fmt.Errorf("writing archive entry %s: %w", entry.Path, err)
		}
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("finalizing archive: %w", err)
	}
	return nil
}

// openReader wraps a zip reader with the same flate implementation
// the writer uses.
func openReader(path string) (*zip.ReadCloser, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening archive %s: %w", path, err)
	}
	reader.RegisterDecompressor(zip.Deflate, func(r io.Reader) io.ReadCloser {
		return flate.NewReader(r)
	})
	return reader, nil
}
