// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package pack

import (
	"crypto/ed25519"
	"fmt"

	"github.com/weftworks/weft/lib/digest"
)

// SigningMode selects how the archive is signed.
type SigningMode string

const (
	// SignDev signs the manifest with the well-known developer key.
	// Dev-signed packs are explicitly unproven: the signature binds
	// the bytes, not any identity.
	SignDev SigningMode = "dev"

	// SignNone omits the signature entry.
	SignNone SigningMode = "none"
)

// ParseSigningMode validates a signing mode string. Empty defaults to
// SignDev.
func ParseSigningMode(s string) (SigningMode, error) {
	switch SigningMode(s) {
	case "":
		return SignDev, nil
	case SignDev, SignNone:
		return SigningMode(s), nil
	default:
		return "", fmt.Errorf("unsupported signing mode %q (want dev or none)", s)
	}
}

// DevKeyID identifies the well-known developer key.
const DevKeyID = "weft-dev-2026"

// devSeed is the fixed, public developer signing seed. A dev
// signature proves nothing about who built the pack, only that the
// manifest bytes have not changed since signing.
var devSeed = func() []byte {
	seed := make([]byte, ed25519.SeedSize)
	copy(seed, "weft developer signing key v1")
	return seed
}()

func devKey() ed25519.PrivateKey {
	return ed25519.NewKeyFromSeed(devSeed)
}

// Signature is the archive's signature.cbor entry. It covers exactly
// the serialized manifest bytes. Ed25519 signatures are deterministic
// (RFC 8032), so signing never perturbs archive reproducibility.
type Signature struct {
	Alg          string `cbor:"alg"`
	KeyID        string `cbor:"key_id"`
	Sig          []byte `cbor:"sig"`
	SignedDigest string `cbor:"signed_digest"`
	Unproven     bool   `cbor:"unproven"`
}

// SignManifest produces the dev signature over manifestBytes.
func SignManifest(manifestBytes []byte) *Signature {
	return &Signature{
		Alg:          "ed25519",
		KeyID:        DevKeyID,
		Sig:          ed25519.Sign(devKey(), manifestBytes),
		SignedDigest: digest.HashBytes(manifestBytes).String(),
		Unproven:     true,
	}
}

// Verify checks the signature against manifestBytes.
func (s *Signature) Verify(manifestBytes []byte) error {
	if s.Alg != "ed25519" {
		return fmt.Errorf("unsupported signature algorithm %q", s.Alg)
	}
	if s.KeyID != DevKeyID {
		return fmt.Errorf("unknown signing key %q", s.KeyID)
	}
	if got := digest.HashBytes(manifestBytes).String(); s.SignedDigest != got {
		return fmt.Errorf("signed digest %s does not match manifest digest %s", s.SignedDigest, got)
	}
	public := devKey().Public().(ed25519.PublicKey)
	if !ed25519.Verify(public, manifestBytes, s.Sig) {
		return fmt.Errorf("signature does not verify against the manifest")
	}
	return nil
}
