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
	"bytes"
	"testing"
)

func TestDeoxysEmptyPlaintext(t *testing.T) {
	c, err := newDeoxysII256(key32(t))
	if err != nil {
		t.Fatalf("newDeoxysII256: %v", err)
	}
	nonce := make([]byte, c.NonceSize())
	ct := c.Seal(nil, nonce, nil, nil)
	if len(ct) != TagSize {
		t.Fatalf("empty-plaintext ciphertext length = %d, want %d", len(ct), TagSize)
	}
	pt, err := c.Open(nil, nonce, ct, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if len(pt) != 0 {
		t.Fatalf("Open of empty plaintext returned %d bytes", len(pt))
	}
}

func TestDeoxysAssociatedDataBindsTag(t *testing.T) {
	c, _ := newDeoxysII256(key32(t))
	nonce := make([]byte, c.NonceSize())
	plaintext := []byte("payload")

	ct := c.Seal(nil, nonce, plaintext, []byte("ad-one"))
	if _, err := c.Open(nil, nonce, ct, []byte("ad-two")); err == nil {
		t.Fatalf("Open accepted mismatched associated data")
	}
	if _, err := c.Open(nil, nonce, ct, nil); err == nil {
		t.Fatalf("Open accepted missing associated data")
	}
}

func TestDeoxysDstIsPrepended(t *testing.T) {
	c, _ := newDeoxysII256(key32(t))
	nonce := make([]byte, c.NonceSize())
	prefix := []byte("prefix:")
	ct := c.Seal(append([]byte(nil), prefix...), nonce, []byte("x"), nil)
	if !bytes.HasPrefix(ct, prefix) {
		t.Fatalf("Seal did not preserve dst prefix")
	}
}

func TestDeoxysRejectsShortCiphertext(t *testing.T) {
	c, _ := newDeoxysII256(key32(t))
	nonce := make([]byte, c.NonceSize())
	if _, err := c.Open(nil, nonce, []byte("short"), nil); err == nil {
		t.Fatalf("Open accepted a ciphertext shorter than the tag")
	}
}
