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

// Package header implements the fixed-length, self-describing
// container header: serialization, parsing, and the keyed-MAC
// signature that binds a derived key to the exact header bytes.
package header

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/x0f5c3/dexios/internal/aead"
	"github.com/x0f5c3/dexios/internal/key"
)

// Mode is the cipher-mode ordinal stored in the header.
type Mode uint16

const (
	ModeInvalid Mode = 0
	ModeMemory  Mode = 1
	ModeStream  Mode = 2
)

func (m Mode) Valid() bool { return m == ModeMemory || m == ModeStream }

func (m Mode) String() string {
	switch m {
	case ModeMemory:
		return "memory"
	case ModeStream:
		return "stream"
	default:
		return fmt.Sprintf("Mode(%d)", uint16(m))
	}
}

// Wire layout, fixed at Size bytes regardless of header version:
//
//	offset  size  field
//	0       2     magic
//	2       2     version (little-endian uint16)
//	4       2     algorithm ordinal
//	6       2     cipher-mode ordinal
//	8       16    salt
//	24      24    nonce, zero-padded to the widest algorithm's size
//	48      16    reserved, always zero
const (
	Size        = 64
	magicHi     = 0xD7
	magicLo     = 0x0F
	saltOffset  = 8
	saltSize    = key.SaltSize
	nonceOffset = 24
	nonceSlot   = 24 // widest nonce (XChaCha20-Poly1305) fits with no truncation
	reservedOff = 48
	reservedLen = 16
)

// Header is the fixed-layout, version-bearing prefix of a container.
// It uniquely determines KDF parameters (via Version), algorithm, and
// nonce layout; tampering is caught by the signature in sign.go, not
// by anything in this file.
type Header struct {
	Version    uint16
	Algorithm  aead.Algorithm
	CipherMode Mode
	Salt       [saltSize]byte
	Nonce      []byte // for Marshal: caller-sized, at most 24 bytes; from Parse: the full zero-padded 24-byte slot
}

var (
	// ErrMalformed covers any fixed-length field that fails to parse
	// or marshal: bad magic, non-zero reserved bytes, an oversized
	// nonce, unknown version/algorithm/mode.
	ErrMalformed = errors.New("header: malformed")
)

// Marshal serializes h into exactly Size bytes.
func (h *Header) Marshal() ([Size]byte, error) {
	var out [Size]byte
	if len(h.Nonce) > nonceSlot {
		return out, fmt.Errorf("%w: nonce too long (%d > %d)", ErrMalformed, len(h.Nonce), nonceSlot)
	}

	out[0], out[1] = magicHi, magicLo
	binary.LittleEndian.PutUint16(out[2:4], h.Version)
	binary.LittleEndian.PutUint16(out[4:6], uint16(h.Algorithm))
	binary.LittleEndian.PutUint16(out[6:8], uint16(h.CipherMode))
	copy(out[saltOffset:saltOffset+saltSize], h.Salt[:])
	copy(out[nonceOffset:nonceOffset+nonceSlot], h.Nonce)
	// out[reservedOff:reservedOff+reservedLen] is already zero.
	return out, nil
}

// Parse validates and decodes a raw Size-byte header.
func Parse(raw [Size]byte) (*Header, error) {
	if raw[0] != magicHi || raw[1] != magicLo {
		return nil, fmt.Errorf("%w: bad magic", ErrMalformed)
	}
	for _, b := range raw[reservedOff : reservedOff+reservedLen] {
		if b != 0 {
			return nil, fmt.Errorf("%w: reserved bytes not zero", ErrMalformed)
		}
	}

	algOrd := binary.LittleEndian.Uint16(raw[4:6])
	h := &Header{
		Version:    binary.LittleEndian.Uint16(raw[2:4]),
		Algorithm:  aead.Algorithm(algOrd),
		CipherMode: Mode(binary.LittleEndian.Uint16(raw[6:8])),
	}
	copy(h.Salt[:], raw[saltOffset:saltOffset+saltSize])
	nonce := make([]byte, nonceSlot)
	copy(nonce, raw[nonceOffset:nonceOffset+nonceSlot])
	h.Nonce = nonce

	if !h.CipherMode.Valid() {
		return nil, fmt.Errorf("%w: cipher mode %d", ErrMalformed, h.CipherMode)
	}
	if algOrd > 0xFF || !h.Algorithm.Valid() {
		return nil, fmt.Errorf("%w: algorithm ordinal %d", ErrMalformed, algOrd)
	}
	if _, _, _, err := key.Params(h.Version); err != nil {
		return nil, fmt.Errorf("%w: version %d: %v", ErrMalformed, h.Version, err)
	}
	return h, nil
}

// LooksLikeContainer reports whether raw's magic bytes mark it as a
// container, without attempting to derive a key or decrypt anything.
// Mirrors minio-madmin-go's encrypt.go IsEncrypted helper. Only the two
// magic bytes are checked; version, algorithm, mode and reserved bytes
// are not.
func LooksLikeContainer(raw [Size]byte) bool {
	return raw[0] == magicHi && raw[1] == magicLo
}
