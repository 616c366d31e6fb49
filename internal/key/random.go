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
	"fmt"

	"github.com/secure-io/sio-go/sioutil"
)

// SaltSize is the fixed size of an Argon2id salt (header version 1).
const SaltSize = 16

// GenSalt draws a fresh salt from the OS CSPRNG. Never deterministic.
func GenSalt() ([SaltSize]byte, error) {
	var out [SaltSize]byte
	b, err := random(SaltSize)
	if err != nil {
		return out, fmt.Errorf("generate salt: %w", err)
	}
	copy(out[:], b)
	return out, nil
}

// GenNonce draws n fresh nonce bytes from the OS CSPRNG.
func GenNonce(n int) ([]byte, error) {
	b, err := random(n)
	if err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return b, nil
}

// random is the single entropy source for the package: sioutil wraps
// crypto/rand and panics only on a broken OS CSPRNG, so it is called
// through a recover guard to turn that into a regular error instead of
// crashing the calling process. Grounded on minio-madmin-go/encrypt.go,
// which draws its salt and nonce with exactly sioutil.MustRandom.
func random(n int) (b []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("os csprng unavailable: %v", r)
		}
	}()
	return sioutil.MustRandom(n), nil
}
