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

package dexios

import "fmt"

// Kind classifies an Error into the fixed taxonomy callers can branch
// on without parsing strings.
type Kind int

const (
	KindUnknown Kind = iota
	KindInputIO
	KindOutputIO
	KindKdf
	KindAead
	KindAuth
	KindHeader
	KindStreamExhausted
	KindUsage
)

func (k Kind) String() string {
	switch k {
	case KindInputIO:
		return "input-io"
	case KindOutputIO:
		return "output-io"
	case KindKdf:
		return "kdf"
	case KindAead:
		return "aead"
	case KindAuth:
		return "authentication"
	case KindHeader:
		return "header"
	case KindStreamExhausted:
		return "stream-exhausted"
	case KindUsage:
		return "usage"
	default:
		return "unknown"
	}
}

// Error wraps a Kind and the underlying cause. Use KindOf to branch
// on the Kind and errors.Is/As against the wrapped sentinel; Error
// itself is never compared with ==.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("dexios: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func wrapErr(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// KindOf returns the Kind of err if it (or something it wraps) is a
// *Error, and KindUnknown otherwise.
func KindOf(err error) Kind {
	var e *Error
	if as(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// as is a small hand-rolled equivalent of errors.As for *Error, so
// this file only needs one stdlib import line; kept unexported since
// callers should use errors.As/errors.Is directly against *Error.
func as(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
