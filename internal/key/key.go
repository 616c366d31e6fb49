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

// Package key holds the sensitive byte buffers (passwords, keyfile
// contents, derived keys) that flow through the encryption engine, and
// the primitives used to turn them into a fixed-size derived key.
package key

// Material wraps a byte buffer that must never outlive its owner.
// The zero value is not usable; construct with New or Derive.
//
// A Material is not safe to copy. Copying the struct by value would
// alias the backing slice and defeat Destroy's zeroing guarantee, so
// callers are expected to pass *Material or rely on Clone.
type Material struct {
	b        []byte
	consumed bool
}

// New takes ownership of b. The caller must not retain or mutate b
// after this call; New does not copy.
func New(b []byte) *Material {
	return &Material{b: b}
}

// Expose returns a read-only view of the held bytes.
// The returned slice MUST NOT be retained past the Material's
// lifetime: it aliases the backing buffer, and Destroy zeroes it.
func (m *Material) Expose() []byte {
	if m == nil {
		return nil
	}
	return m.b
}

// Len reports the number of held bytes.
func (m *Material) Len() int {
	if m == nil {
		return 0
	}
	return len(m.b)
}

// Clone makes an independent copy of the held bytes. Discouraged:
// every clone is another buffer that must be separately destroyed.
func (m *Material) Clone() *Material {
	cp := make([]byte, len(m.b))
	copy(cp, m.b)
	return &Material{b: cp}
}

// Destroy overwrites the backing buffer with zeros and releases it.
// Safe to call multiple times and on a nil receiver.
func (m *Material) Destroy() {
	if m == nil || m.consumed {
		return
	}
	for i := range m.b {
		m.b[i] = 0
	}
	m.b = nil
	m.consumed = true
}
