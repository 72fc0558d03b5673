// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test fixtures for Weft packages.
//
// [Wasm] assembles a minimal WebAssembly core module with function
// exports, an optional world declaration, and the wasm32-wasip2
// producers marker — just enough structure for lib/wasm's scanner.
// [WriteComponent] lays a component directory on disk: the wasm
// binary plus a manifest whose recorded hash matches it. [WriteFlow]
// writes a flow document.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
package testutil
