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
	"errors"
	"testing"

	"github.com/x0f5c3/dexios/internal/aead"
)

func sampleHeader() *Header {
	h := &Header{
		Version:    1,
		Algorithm:  aead.XChaCha20Poly1305,
		CipherMode: ModeStream,
		Nonce:      make([]byte, aead.XChaCha20Poly1305.NonceSize()),
	}
	for i := range h.Salt {
		h.Salt[i] = byte(i)
	}
	for i := range h.Nonce {
		h.Nonce[i] = byte(i + 100)
	}
	return h
}

func TestMarshalParseRoundTrip(t *testing.T) {
	h := sampleHeader()
	raw, err := h.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if len(raw) != Size {
		t.Fatalf("Marshal produced %d bytes, want %d", len(raw), Size)
	}

	got, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.Version != h.Version || got.Algorithm != h.Algorithm || got.CipherMode != h.CipherMode {
		t.Fatalf("Parse roundtrip mismatch: %+v vs %+v", got, h)
	}
	if got.Salt != h.Salt {
		t.Fatalf("salt mismatch")
	}
	for i, b := range h.Nonce {
		if got.Nonce[i] != b {
			t.Fatalf("nonce byte %d mismatch: got %d want %d", i, got.Nonce[i], b)
		}
	}
}

func TestMarshalRejectsOversizedNonce(t *testing.T) {
	h := sampleHeader()
	h.Nonce = make([]byte, nonceSlot+1)
	if _, err := h.Marshal(); !errors.Is(err, ErrMalformed) {
		t.Fatalf("Marshal with oversized nonce = %v, want ErrMalformed", err)
	}
}

func TestParseRejectsBadMagic(t *testing.T) {
	h := sampleHeader()
	raw, _ := h.Marshal()
	raw[0] ^= 0xFF
	if _, err := Parse(raw); !errors.Is(err, ErrMalformed) {
		t.Fatalf("Parse with bad magic = %v, want ErrMalformed", err)
	}
}

func TestParseRejectsNonZeroReserved(t *testing.T) {
	h := sampleHeader()
	raw, _ := h.Marshal()
	raw[reservedOff] = 1
	if _, err := Parse(raw); !errors.Is(err, ErrMalformed) {
		t.Fatalf("Parse with non-zero reserved bytes = %v, want ErrMalformed", err)
	}
}

func TestParseRejectsUnknownAlgorithm(t *testing.T) {
	h := sampleHeader()
	h.Algorithm = aead.Algorithm(200)
	raw, _ := h.Marshal()
	if _, err := Parse(raw); !errors.Is(err, ErrMalformed) {
		t.Fatalf("Parse with unknown algorithm = %v, want ErrMalformed", err)
	}
}

func TestParseRejectsUnknownCipherMode(t *testing.T) {
	h := sampleHeader()
	h.CipherMode = Mode(99)
	raw, _ := h.Marshal()
	if _, err := Parse(raw); !errors.Is(err, ErrMalformed) {
		t.Fatalf("Parse with unknown cipher mode = %v, want ErrMalformed", err)
	}
}

func TestParseRejectsUnknownVersion(t *testing.T) {
	h := sampleHeader()
	h.Version = 9999
	raw, _ := h.Marshal()
	if _, err := Parse(raw); !errors.Is(err, ErrMalformed) {
		t.Fatalf("Parse with unknown version = %v, want ErrMalformed", err)
	}
}

func TestLooksLikeContainer(t *testing.T) {
	h := sampleHeader()
	raw, _ := h.Marshal()
	if !LooksLikeContainer(raw) {
		t.Fatalf("LooksLikeContainer(valid header) = false")
	}
	raw[1] ^= 0xFF
	if LooksLikeContainer(raw) {
		t.Fatalf("LooksLikeContainer(corrupted magic) = true")
	}
}

func TestModeString(t *testing.T) {
	cases := map[Mode]string{ModeMemory: "memory", ModeStream: "stream"}
	for m, want := range cases {
		if got := m.String(); got != want {
			t.Fatalf("%d.String() = %q, want %q", m, got, want)
		}
	}
	if Mode(7).String() == "" {
		t.Fatalf("unknown Mode.String() returned empty")
	}
}
