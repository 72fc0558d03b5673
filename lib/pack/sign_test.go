// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package pack

import (
	"bytes"
	"strings"
	"testing"

	"github.com/weftworks/weft/lib/digest"
)

func TestSignManifest(t *testing.T) {
	manifest := []byte("manifest bytes")
	sig := SignManifest(manifest)

	if sig.Alg != "ed25519" {
		t.Errorf("Alg = %q, want %q", sig.Alg, "ed25519")
	}
	if sig.KeyID != DevKeyID {
		t.Errorf("KeyID = %q, want %q", sig.KeyID, DevKeyID)
	}
	if !sig.Unproven {
		t.Error("dev signatures must be marked unproven")
	}
	if sig.SignedDigest != digest.HashBytes(manifest).String() {
		t.Errorf("SignedDigest = %q, want the manifest digest", sig.SignedDigest)
	}
	if err := sig.Verify(manifest); err != nil {
		t.Errorf("Verify: %v", err)
	}
}

func TestSignManifestDeterministic(t *testing.T) {
	manifest := []byte("same input")
	first := SignManifest(manifest)
	second := SignManifest(manifest)
	if !bytes.Equal(first.Sig, second.Sig) {
		t.Error("ed25519 over a fixed key and message must be deterministic")
	}
}

func TestVerifyRejectsTamperedManifest(t *testing.T) {
	sig := SignManifest([]byte("original"))
	err := sig.Verify([]byte("tampered"))
	if err == nil {
		t.Fatal("Verify accepted a different message")
	}
}

func TestVerifyRejectsTamperedSignature(t *testing.T) {
	sig := SignManifest([]byte("original"))
	sig.Sig[0] ^= 0xFF
	if err := sig.Verify([]byte("original")); err == nil {
		t.Fatal("Verify accepted a corrupted signature")
	}
}

func TestParseSigningMode(t *testing.T) {
	cases := []struct {
		in      string
		want    SigningMode
		wantErr bool
	}{
		{"", SignDev, false},
		{"dev", SignDev, false},
		{"none", SignNone, false},
		{"production", "", true},
	}
	for _, tc := range cases {
		got, err := ParseSigningMode(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseSigningMode(%q) succeeded, want error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseSigningMode(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseSigningMode(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParsePolicy(t *testing.T) {
	if got, err := ParsePolicy(""); err != nil || got != PolicyDevOK {
		t.Errorf("ParsePolicy(\"\") = %q, %v", got, err)
	}
	if got, err := ParsePolicy("strict"); err != nil || got != PolicyStrict {
		t.Errorf("ParsePolicy(strict) = %q, %v", got, err)
	}
	if _, err := ParsePolicy("lenient"); err == nil || !strings.Contains(err.Error(), "lenient") {
		t.Errorf("ParsePolicy(lenient) = %v, want an error naming the input", err)
	}
}
