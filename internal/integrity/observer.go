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

// Package integrity provides the optional, user-visible attestation
// hash over a container's on-disk bytes. It is never part of the
// container itself and never required for decryption.
package integrity

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Observer folds the literal bytes written to (or that would be
// written to) disk into a running BLAKE3 hash. It satisfies io.Writer
// so the stream pipeline can tee ciphertext blocks into it with no
// extra branching beyond checking whether hashing was requested.
type Observer struct {
	h *blake3.Hasher
}

// New starts a fresh observer.
func New() *Observer {
	return &Observer{h: blake3.New()}
}

// Feed folds the header and its signature into the hash. Must be
// called before any Write, and exactly once.
func (o *Observer) Feed(header, signature []byte) {
	o.h.Write(header)
	o.h.Write(signature)
}

// Write folds ciphertext bytes into the hash. Always returns
// len(p), nil: hashing cannot fail.
func (o *Observer) Write(p []byte) (int, error) {
	return o.h.Write(p)
}

// Sum returns the hex-encoded digest of everything fed so far.
func (o *Observer) Sum() string {
	sum := o.h.Sum(nil)
	return hex.EncodeToString(sum)
}
