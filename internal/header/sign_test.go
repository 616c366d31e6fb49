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

import "testing"

func TestSignVerifyRoundTrip(t *testing.T) {
	h := sampleHeader()
	raw, err := h.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	derivedKey := make([]byte, 32)
	for i := range derivedKey {
		derivedKey[i] = byte(i * 3)
	}

	sig, err := Sign(raw, derivedKey)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	ok, err := Verify(raw, sig, derivedKey)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Fatalf("Verify of a freshly signed header = false")
	}
}

func TestVerifyRejectsTamperedHeader(t *testing.T) {
	h := sampleHeader()
	raw, _ := h.Marshal()
	derivedKey := make([]byte, 32)

	sig, err := Sign(raw, derivedKey)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	raw[10] ^= 0x01

	ok, err := Verify(raw, sig, derivedKey)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if ok {
		t.Fatalf("Verify accepted a tampered header")
	}
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	h := sampleHeader()
	raw, _ := h.Marshal()

	sig, err := Sign(raw, make([]byte, 32))
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	wrongKey := make([]byte, 32)
	wrongKey[0] = 1

	ok, err := Verify(raw, sig, wrongKey)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if ok {
		t.Fatalf("Verify accepted the wrong key")
	}
}
