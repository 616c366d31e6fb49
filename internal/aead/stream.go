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

package aead

import (
	"crypto/cipher"
	"encoding/binary"
	"errors"
	"fmt"
)

// streamState is the {Fresh, Flowing, Terminated} machine shared by
// StreamEncrypter and StreamDecrypter.
type streamState int8

const (
	stateFresh streamState = iota
	stateFlowing
	stateTerminated
)

// ErrStreamExhausted is returned by any call made after the terminal
// block has already been processed.
var ErrStreamExhausted = errors.New("aead: stream already terminated")

// reservedSuffix is how much of the algorithm's base nonce is
// overwritten per block with counter‖last_flag (4 bytes big-endian
// counter + 1 byte terminal flag). Grounded on the per-segment nonce
// scheme in dapr-kit's schemes/enc/v1/filekey.go
// (nonceForSegment(num uint32, last bool)), generalized here from a
// single fixed cipher to any of the three registered AEADs.
const reservedSuffix = 5

// BasePrefixSize returns how many bytes of a's nonce are free for
// random fill in stream mode; the remaining reservedSuffix bytes are
// overwritten every block.
func (a Algorithm) BasePrefixSize() int {
	return a.NonceSize() - reservedSuffix
}

func blockNonce(prefix []byte, nonceSize int, counter uint32, last bool) []byte {
	n := make([]byte, nonceSize)
	copy(n, prefix)
	binary.BigEndian.PutUint32(n[nonceSize-reservedSuffix:nonceSize-1], counter)
	if last {
		n[nonceSize-1] = 1
	}
	return n
}

// StreamEncrypter drives one directional half of the STREAM
// construction: a fixed AEAD, a fixed random prefix, and a block
// counter that must be used exactly once per block, terminated by
// exactly one EncryptLast call.
type StreamEncrypter struct {
	aead    cipher.AEAD
	prefix  []byte
	counter uint32
	state   streamState
}

// NewStreamEncrypter builds an encrypter for algorithm a under key,
// using prefix (exactly a.BasePrefixSize() bytes) as the random
// portion of the STREAM base nonce.
func NewStreamEncrypter(a Algorithm, key, prefix []byte) (*StreamEncrypter, error) {
	c, err := New(a, key)
	if err != nil {
		return nil, err
	}
	if len(prefix) != a.BasePrefixSize() {
		return nil, fmt.Errorf("aead: bad nonce prefix length %d, want %d", len(prefix), a.BasePrefixSize())
	}
	return &StreamEncrypter{aead: c, prefix: prefix}, nil
}

// EncryptNext seals a full-size, non-terminal block.
func (s *StreamEncrypter) EncryptNext(block []byte) ([]byte, error) {
	if s.state == stateTerminated {
		return nil, ErrStreamExhausted
	}
	s.state = stateFlowing
	nonce := blockNonce(s.prefix, s.aead.NonceSize(), s.counter, false)
	s.counter++
	return s.aead.Seal(nil, nonce, block, nil), nil
}

// EncryptLast seals the terminal block (possibly short, possibly
// empty) and transitions the state machine to Terminated. Any later
// call on this encrypter fails with ErrStreamExhausted.
func (s *StreamEncrypter) EncryptLast(block []byte) ([]byte, error) {
	if s.state == stateTerminated {
		return nil, ErrStreamExhausted
	}
	nonce := blockNonce(s.prefix, s.aead.NonceSize(), s.counter, true)
	out := s.aead.Seal(nil, nonce, block, nil)
	s.state = stateTerminated
	return out, nil
}

// StreamDecrypter is the mirror image of StreamEncrypter.
type StreamDecrypter struct {
	aead    cipher.AEAD
	prefix  []byte
	counter uint32
	state   streamState
}

// NewStreamDecrypter builds a decrypter matching NewStreamEncrypter.
func NewStreamDecrypter(a Algorithm, key, prefix []byte) (*StreamDecrypter, error) {
	c, err := New(a, key)
	if err != nil {
		return nil, err
	}
	if len(prefix) != a.BasePrefixSize() {
		return nil, fmt.Errorf("aead: bad nonce prefix length %d, want %d", len(prefix), a.BasePrefixSize())
	}
	return &StreamDecrypter{aead: c, prefix: prefix}, nil
}

// DecryptNext opens a full-size, non-terminal block. Any tag mismatch
// (including a block that was actually the terminal one, since the
// terminal flag is bound into the tag) returns ErrAuthenticationFailed.
func (s *StreamDecrypter) DecryptNext(block []byte) ([]byte, error) {
	if s.state == stateTerminated {
		return nil, ErrStreamExhausted
	}
	s.state = stateFlowing
	nonce := blockNonce(s.prefix, s.aead.NonceSize(), s.counter, false)
	s.counter++
	pt, err := s.aead.Open(nil, nonce, block, nil)
	if err != nil {
		return nil, ErrAuthenticationFailed
	}
	return pt, nil
}

// DecryptLast opens the terminal block and transitions to Terminated.
func (s *StreamDecrypter) DecryptLast(block []byte) ([]byte, error) {
	if s.state == stateTerminated {
		return nil, ErrStreamExhausted
	}
	nonce := blockNonce(s.prefix, s.aead.NonceSize(), s.counter, true)
	pt, err := s.aead.Open(nil, nonce, block, nil)
	s.state = stateTerminated
	if err != nil {
		return nil, ErrAuthenticationFailed
	}
	return pt, nil
}
