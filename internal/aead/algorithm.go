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

// Package aead is the uniform authenticated-encryption surface the
// pipelines are built on: a closed set of algorithms dispatched by a
// stable ordinal, one-shot Encrypt/Decrypt, and a STREAM-construction
// state machine for block-by-block use.
package aead

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// Algorithm is the stable header ordinal for an AEAD choice. It is the
// authoritative registry: there is no open-ended plugin mechanism,
// only this closed tagged union plus the dispatch below.
type Algorithm uint8

const (
	// Invalid is the zero value; a header carrying it is malformed
	// rather than silently defaulting to any particular cipher.
	Invalid Algorithm = 0

	AES256GCM         Algorithm = 1
	XChaCha20Poly1305 Algorithm = 2
	DeoxysII256       Algorithm = 3
)

// TagSize is the authentication tag length shared by all three AEADs.
const TagSize = 16

// BlockSize is the fixed plaintext chunk size for stream mode. Both
// the encoder and the decoder use this constant; changing it breaks
// compatibility with every container written under the old value.
const BlockSize = 1 << 20 // 1 MiB

// ErrUnknownAlgorithm is returned for any ordinal outside the closed set.
var ErrUnknownAlgorithm = errors.New("aead: unknown algorithm ordinal")

// Algorithms returns every valid algorithm, in header-ordinal order.
func Algorithms() []Algorithm {
	return []Algorithm{AES256GCM, XChaCha20Poly1305, DeoxysII256}
}

// String names the algorithm for diagnostics; never parsed back.
func (a Algorithm) String() string {
	switch a {
	case AES256GCM:
		return "AES-256-GCM"
	case XChaCha20Poly1305:
		return "XChaCha20-Poly1305"
	case DeoxysII256:
		return "Deoxys-II-256"
	default:
		return fmt.Sprintf("Algorithm(%d)", uint8(a))
	}
}

// Valid reports whether a is one of the three recognized ordinals.
func (a Algorithm) Valid() bool {
	switch a {
	case AES256GCM, XChaCha20Poly1305, DeoxysII256:
		return true
	default:
		return false
	}
}

// NonceSize is the base-nonce length used for one-shot encryption and
// as the STREAM base nonce for stream mode (spec'd per algorithm in
// the header's fixed nonce slot).
func (a Algorithm) NonceSize() int {
	switch a {
	case AES256GCM:
		return 12
	case XChaCha20Poly1305:
		return 24
	case DeoxysII256:
		return 15
	default:
		return 0
	}
}

// New builds the cipher.AEAD for a keyed with key, which must be
// exactly 32 bytes (the KDF's fixed output size).
func New(a Algorithm, key []byte) (cipher.AEAD, error) {
	switch a {
	case AES256GCM:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, fmt.Errorf("aead: aes-256-gcm: %w", err)
		}
		g, err := cipher.NewGCM(block)
		if err != nil {
			return nil, fmt.Errorf("aead: aes-256-gcm: %w", err)
		}
		return g, nil
	case XChaCha20Poly1305:
		c, err := chacha20poly1305.NewX(key)
		if err != nil {
			return nil, fmt.Errorf("aead: xchacha20poly1305: %w", err)
		}
		return c, nil
	case DeoxysII256:
		return newDeoxysII256(key)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownAlgorithm, uint8(a))
	}
}

// Encrypt performs a one-shot AEAD seal: ciphertext‖tag, TagSize
// bytes of overhead. No partial output is ever returned on failure.
func Encrypt(a Algorithm, key, nonce, plaintext []byte) ([]byte, error) {
	c, err := New(a, key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != c.NonceSize() {
		return nil, fmt.Errorf("aead: bad nonce length %d, want %d", len(nonce), c.NonceSize())
	}
	return c.Seal(nil, nonce, plaintext, nil), nil
}

// Decrypt is the inverse of Encrypt. Any authentication failure
// returns ErrAuthenticationFailed and no plaintext.
func Decrypt(a Algorithm, key, nonce, ciphertext []byte) ([]byte, error) {
	c, err := New(a, key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != c.NonceSize() {
		return nil, fmt.Errorf("aead: bad nonce length %d, want %d", len(nonce), c.NonceSize())
	}
	pt, err := c.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrAuthenticationFailed
	}
	return pt, nil
}

// ErrAuthenticationFailed covers header-signature mismatch, AEAD tag
// mismatch, and stream terminal-flag mismatch alike; all three are the
// same caller-visible failure mode.
var ErrAuthenticationFailed = errors.New("aead: authentication failed")
