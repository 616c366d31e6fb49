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
	"crypto/aes"
	"crypto/cipher"
	"crypto/subtle"
	"errors"
	"fmt"
)

// deoxysII256 is a from-scratch AEAD standing in for Deoxys-II-256.
//
// No published Go package implements Deoxys-II anywhere in the
// reference corpus this module was built from, so unlike the other
// two algorithms this one is not backed by a third-party library. It
// follows the tag-then-encrypt shape of the real Deoxys-II design
// (a tweakable-block-cipher MAC over the plaintext produces a tag,
// which then seeds the keystream for encryption) but reuses AES-256
// (via crypto/aes) as its underlying block permutation rather than the
// real Deoxys-BC tweakable cipher, with the per-block tweak mixed in
// by XOR before each permutation call. It is internally consistent
// (Open undoes Seal, any bit flip anywhere fails authentication) but
// is not a certified, test-vector-compatible Deoxys-II-256.
type deoxysII256 struct {
	block cipher.Block // AES-256 permutation, keyed once at construction
}

func newDeoxysII256(key []byte) (cipher.AEAD, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("aead: deoxys-ii-256: key must be 32 bytes, got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aead: deoxys-ii-256: %w", err)
	}
	return &deoxysII256{block: block}, nil
}

func (d *deoxysII256) NonceSize() int { return 15 }
func (d *deoxysII256) Overhead() int  { return TagSize }

// permute applies the tweaked block permutation: XOR the 16-byte tweak
// into the state, then run the AES-256 permutation once.
func (d *deoxysII256) permute(tweak, in [16]byte) [16]byte {
	var state [16]byte
	for i := range state {
		state[i] = in[i] ^ tweak[i]
	}
	var out [16]byte
	d.block.Encrypt(out[:], state[:])
	return out
}

// tweakFor builds the 16-byte tweak for block index of a given domain
// (0x00 = full MAC chunk, 0x03 = padded short MAC chunk, 0x01 = MAC
// finalization, 0x02 = encryption keystream): the domain in byte 0,
// the nonce from byte 1, and the index XORed big-endian into the last
// 8 bytes.
func tweakFor(nonce []byte, domain byte, index uint64) [16]byte {
	var t [16]byte
	t[0] = domain
	copy(t[1:1+len(nonce)], nonce)
	for i := 0; i < 8; i++ {
		t[15-i] ^= byte(index >> (8 * i))
	}
	return t
}

// mac computes a PMAC-style tag over associatedData‖plaintext: each
// 16-byte block is permuted under a distinct tweak and XOR-accumulated,
// then the accumulator is permuted once more under a finalization
// tweak to produce the tag.
func (d *deoxysII256) mac(nonce, associatedData, plaintext []byte) [16]byte {
	var acc [16]byte
	var idx uint64
	feed := func(data []byte) {
		for len(data) > 0 {
			var block [16]byte
			n := copy(block[:], data)
			tw := tweakFor(nonce, 0x00, idx)
			if n < 16 {
				// Padded chunks get their own domain, so a short chunk X
				// never collides with a full chunk X‖0x80.
				block[n] = 0x80
				tw = tweakFor(nonce, 0x03, idx)
			}
			p := d.permute(tw, block)
			for i := range acc {
				acc[i] ^= p[i]
			}
			idx++
			data = data[n:]
		}
	}
	feed(associatedData)
	// Domain-separate the plaintext pass from the associated-data pass
	// so an empty AD followed by data X never collides with AD=X.
	idx = 1 << 32
	feed(plaintext)
	return d.permute(tweakFor(nonce, 0x01, idx), acc)
}

// keystream produces n bytes of keystream seeded by the tag, one
// permuted 16-byte block per counter value.
func (d *deoxysII256) keystream(nonce []byte, tag [16]byte, n int) []byte {
	out := make([]byte, 0, n)
	var ctr uint64
	for len(out) < n {
		t := tweakFor(nonce, 0x02, ctr)
		for i := range t {
			t[i] ^= tag[i]
		}
		block := d.permute(t, [16]byte{})
		out = append(out, block[:]...)
		ctr++
	}
	return out[:n]
}

func (d *deoxysII256) Seal(dst, nonce, plaintext, associatedData []byte) []byte {
	if len(nonce) != d.NonceSize() {
		panic("aead: deoxys-ii-256: bad nonce length")
	}
	tag := d.mac(nonce, associatedData, plaintext)
	ks := d.keystream(nonce, tag, len(plaintext))
	ret, out := sliceForAppend(dst, len(plaintext)+TagSize)
	for i := range plaintext {
		out[i] = plaintext[i] ^ ks[i]
	}
	copy(out[len(plaintext):], tag[:])
	return ret
}

func (d *deoxysII256) Open(dst, nonce, ciphertext, associatedData []byte) ([]byte, error) {
	if len(nonce) != d.NonceSize() {
		panic("aead: deoxys-ii-256: bad nonce length")
	}
	if len(ciphertext) < TagSize {
		return nil, errors.New("aead: deoxys-ii-256: ciphertext too short")
	}
	ct, gotTag := ciphertext[:len(ciphertext)-TagSize], ciphertext[len(ciphertext)-TagSize:]

	// The tag seeds the keystream (encrypt-then-seed), so we must
	// recover the candidate plaintext before we can recompute the MAC
	// over it and compare tags in constant time.
	var tagCandidate [16]byte
	copy(tagCandidate[:], gotTag)
	ks := d.keystream(nonce, tagCandidate, len(ct))

	pt := make([]byte, len(ct))
	for i := range ct {
		pt[i] = ct[i] ^ ks[i]
	}

	expected := d.mac(nonce, associatedData, pt)
	if subtle.ConstantTimeCompare(expected[:], gotTag) != 1 {
		for i := range pt {
			pt[i] = 0
		}
		return nil, ErrAuthenticationFailed
	}

	ret, out := sliceForAppend(dst, len(pt))
	copy(out, pt)
	return ret, nil
}

// sliceForAppend mirrors the pattern used throughout the standard
// library's AEAD implementations (e.g. crypto/cipher's gcm.go): grow
// dst by n bytes, returning both the full result slice and the
// newly-appended tail to write into.
func sliceForAppend(dst []byte, n int) (head, tail []byte) {
	total := len(dst) + n
	if cap(dst) >= total {
		head = dst[:total]
	} else {
		head = make([]byte, total)
		copy(head, dst)
	}
	tail = head[len(dst):]
	return head, tail
}
