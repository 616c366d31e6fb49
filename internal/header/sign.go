// Copyright (c) 2024 The dexios authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.

package header

import (
	"crypto/subtle"
	"fmt"

	"github.com/zeebo/blake3"
)

// SignatureSize is the fixed size of a header signature.
const SignatureSize = 32

// Sign computes a keyed BLAKE3 tag over the exact bytes that will be
// written to disk for raw, keyed by derivedKey (which must be 32
// bytes, the KDF's fixed output). The signature binds the derived key
// — and therefore the password or keyfile it came from — to every
// field of the header, so a tampered header fails before any AEAD
// work runs.
func Sign(raw [Size]byte, derivedKey []byte) ([SignatureSize]byte, error) {
	var out [SignatureSize]byte
	h, err := blake3.NewKeyed(derivedKey)
	if err != nil {
		return out, fmt.Errorf("header: sign: %w", err)
	}
	h.Write(raw[:])
	copy(out[:], h.Sum(nil))
	return out, nil
}

// Verify checks sig against raw under derivedKey in constant time.
func Verify(raw [Size]byte, sig [SignatureSize]byte, derivedKey []byte) (bool, error) {
	want, err := Sign(raw, derivedKey)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare(want[:], sig[:]) == 1, nil
}
