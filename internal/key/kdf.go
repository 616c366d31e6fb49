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

package key

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// DerivedKeySize is the fixed output length of the KDF.
const DerivedKeySize = 32

// argon2Params holds the frozen Argon2id tuning for one header version.
// CRITICAL: these MUST NOT change once a version has shipped, or every
// container written under that version becomes undecryptable.
type argon2Params struct {
	time    uint32
	memory  uint32 // KiB
	threads uint8
}

// paramTable is keyed by HeaderVersion. Looking up an unknown version
// is a HeaderFailure at the caller, never a silent default.
var paramTable = map[uint16]argon2Params{
	1: {time: 3, memory: 64 * 1024, threads: 4},
}

// ErrUnknownVersion is returned when a header claims a version this
// build has no frozen Argon2id parameters for.
var ErrUnknownVersion = errors.New("key: unknown header version")

// ErrEmptyKey is returned when raw is empty: deriving from zero bytes
// of entropy is a caller usage error, not a KDF failure.
var ErrEmptyKey = errors.New("key: raw key material is empty")

// Params returns the frozen Argon2id parameters for version, or
// ErrUnknownVersion if version has none.
func Params(version uint16) (time, memory uint32, threads uint8, err error) {
	p, ok := paramTable[version]
	if !ok {
		return 0, 0, 0, fmt.Errorf("%w: %d", ErrUnknownVersion, version)
	}
	return p.time, p.memory, p.threads, nil
}

// Derive runs Argon2id over raw.Expose() and salt using the parameter
// table for version, producing a DerivedKeySize-byte Material.
//
// raw is always destroyed before Derive returns, on every path,
// including failure: the caller's raw key cannot outlive derivation
// unless it explicitly cloned another holder first.
func Derive(raw *Material, salt [SaltSize]byte, version uint16) (*Material, error) {
	defer raw.Destroy()

	if raw.Len() == 0 {
		return nil, ErrEmptyKey
	}

	t, m, p, err := Params(version)
	if err != nil {
		return nil, err
	}

	derived := argon2.IDKey(raw.Expose(), salt[:], t, m, p, DerivedKeySize)
	return New(derived), nil
}
