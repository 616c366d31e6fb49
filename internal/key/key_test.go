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

import "testing"

func TestMaterialExposeAndLen(t *testing.T) {
	m := New([]byte("hunter2"))
	if m.Len() != 7 {
		t.Fatalf("Len() = %d, want 7", m.Len())
	}
	if string(m.Expose()) != "hunter2" {
		t.Fatalf("Expose() = %q, want hunter2", m.Expose())
	}
}

func TestMaterialDestroyZeroes(t *testing.T) {
	b := []byte("top-secret-value")
	m := New(b)
	m.Destroy()
	for i, c := range b {
		if c != 0 {
			t.Fatalf("byte %d not zeroed after Destroy: %d", i, c)
		}
	}
	if m.Len() != 0 {
		t.Fatalf("Len() after Destroy = %d, want 0", m.Len())
	}
	if m.Expose() != nil {
		t.Fatalf("Expose() after Destroy = %v, want nil", m.Expose())
	}
}

func TestMaterialDestroyIdempotent(t *testing.T) {
	m := New([]byte("abc"))
	m.Destroy()
	m.Destroy() // must not panic
}

func TestMaterialDestroyNilSafe(t *testing.T) {
	var m *Material
	m.Destroy() // must not panic
	if m.Len() != 0 {
		t.Fatalf("Len() on nil = %d, want 0", m.Len())
	}
	if m.Expose() != nil {
		t.Fatalf("Expose() on nil = %v, want nil", m.Expose())
	}
}

func TestMaterialCloneIsIndependent(t *testing.T) {
	m := New([]byte("abc"))
	c := m.Clone()
	c.Expose()[0] = 'x'
	if string(m.Expose()) != "abc" {
		t.Fatalf("original mutated through clone: %q", m.Expose())
	}
}
