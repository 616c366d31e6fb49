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

// Package dexios implements a self-describing file-encryption
// container format: Argon2id key derivation, a uniform AEAD
// abstraction over three ciphers, and both whole-buffer and
// block-streamed pipelines over it.
package dexios

import (
	"errors"
	"io"

	"github.com/x0f5c3/dexios/internal/aead"
	"github.com/x0f5c3/dexios/internal/header"
	"github.com/x0f5c3/dexios/internal/integrity"
	"github.com/x0f5c3/dexios/internal/key"
)

// HeaderVersion is the header version this build writes. Bumping it
// requires adding a new entry to internal/key's frozen parameter
// table, never editing an existing one.
const HeaderVersion uint16 = 1

// ObserverFlags controls the two independent side effects of an
// encryption pipeline: whether ciphertext actually reaches out, and
// whether a running BLAKE3 digest is accumulated over it. Callers that
// want the digest without touching the filesystem pass out as
// io.Discard and set CalculateHash alone.
type ObserverFlags struct {
	WriteToFilesystem bool
	CalculateHash     bool
}

// Result carries a pipeline's side-channel outputs.
type Result struct {
	// Hash is the hex-encoded BLAKE3 digest of the exact bytes that
	// would appear on disk (header, signature, ciphertext blocks), or
	// "" if ObserverFlags.CalculateHash was false.
	Hash string
}

// Algorithms re-exports the closed set of registered AEAD algorithms.
func Algorithms() []aead.Algorithm { return aead.Algorithms() }

// LooksLikeContainer sniffs raw's magic bytes without deriving a key
// or attempting to decrypt anything.
func LooksLikeContainer(raw [header.Size]byte) bool {
	return header.LooksLikeContainer(raw)
}

// sink multiplexes a real writer (or io.Discard) and an optional
// integrity observer behind one type, so the pipelines never branch on
// ObserverFlags after construction.
type sink struct {
	out io.Writer
	obs *integrity.Observer
}

func newSink(out io.Writer, wantHash, writeToFS bool) *sink {
	s := &sink{out: io.Discard}
	if writeToFS {
		s.out = out
	}
	if wantHash {
		s.obs = integrity.New()
	}
	return s
}

func (s *sink) writeHeader(raw [header.Size]byte, sig [header.SignatureSize]byte) error {
	if s.obs != nil {
		s.obs.Feed(raw[:], sig[:])
	}
	if _, err := s.out.Write(raw[:]); err != nil {
		return err
	}
	_, err := s.out.Write(sig[:])
	return err
}

func (s *sink) writeBlock(p []byte) error {
	if s.obs != nil {
		s.obs.Write(p)
	}
	_, err := s.out.Write(p)
	return err
}

func (s *sink) result() Result {
	if s.obs == nil {
		return Result{}
	}
	return Result{Hash: s.obs.Sum()}
}

// wrapDeriveErr classifies a key.Derive failure. An empty raw key is a
// caller usage error, not a KDF failure (key.ErrEmptyKey's own doc
// comment says as much); an unrecognized header version is a header
// failure, since the KDF primitive never ran — only its parameter
// lookup did. Anything else is a genuine KDF-layer failure.
func wrapDeriveErr(err error) error {
	switch {
	case errors.Is(err, key.ErrEmptyKey):
		return wrapErr(KindUsage, err)
	case errors.Is(err, key.ErrUnknownVersion):
		return wrapErr(KindHeader, err)
	default:
		return wrapErr(KindKdf, err)
	}
}

// buildHeader derives a key from rawKey, generates a fresh salt and
// nonce/prefix, and returns the marshaled header, its signature, and
// the derived key material (which the caller owns and must Destroy).
func buildHeader(rawKey []byte, alg aead.Algorithm, mode header.Mode, nonceLen int) ([header.Size]byte, [header.SignatureSize]byte, *key.Material, error) {
	var raw [header.Size]byte
	var sig [header.SignatureSize]byte

	salt, err := key.GenSalt()
	if err != nil {
		return raw, sig, nil, wrapErr(KindKdf, err)
	}
	nonce, err := key.GenNonce(nonceLen)
	if err != nil {
		return raw, sig, nil, wrapErr(KindAead, err)
	}

	derived, err := key.Derive(key.New(rawKey), salt, HeaderVersion)
	if err != nil {
		return raw, sig, nil, wrapDeriveErr(err)
	}

	h := &header.Header{
		Version:    HeaderVersion,
		Algorithm:  alg,
		CipherMode: mode,
		Salt:       salt,
		Nonce:      nonce,
	}
	raw, err = h.Marshal()
	if err != nil {
		derived.Destroy()
		return raw, sig, nil, wrapErr(KindHeader, err)
	}
	sig, err = header.Sign(raw, derived.Expose())
	if err != nil {
		derived.Destroy()
		return raw, sig, nil, wrapErr(KindHeader, err)
	}
	return raw, sig, derived, nil
}

// readHeader reads and validates the fixed header+signature prefix of
// in, deriving and returning the matching key. The caller owns the
// returned Material.
func readHeader(in io.Reader, rawKey []byte) (*header.Header, *key.Material, error) {
	var raw [header.Size]byte
	if _, err := io.ReadFull(in, raw[:]); err != nil {
		return nil, nil, wrapErr(KindInputIO, err)
	}
	var sig [header.SignatureSize]byte
	if _, err := io.ReadFull(in, sig[:]); err != nil {
		return nil, nil, wrapErr(KindInputIO, err)
	}

	h, err := header.Parse(raw)
	if err != nil {
		return nil, nil, wrapErr(KindHeader, err)
	}

	derived, err := key.Derive(key.New(rawKey), h.Salt, h.Version)
	if err != nil {
		return nil, nil, wrapDeriveErr(err)
	}

	ok, err := header.Verify(raw, sig, derived.Expose())
	if err != nil {
		derived.Destroy()
		return nil, nil, wrapErr(KindHeader, err)
	}
	if !ok {
		derived.Destroy()
		return nil, nil, wrapErr(KindAuth, aead.ErrAuthenticationFailed)
	}
	return h, derived, nil
}

// EncryptMemory encrypts the whole of plaintext as a single AEAD-sealed
// blob: one header, one signature, one ciphertext. Suited to data that
// already fits in memory.
func EncryptMemory(plaintext []byte, out io.Writer, rawKey []byte, alg aead.Algorithm, obs ObserverFlags) (Result, error) {
	if !alg.Valid() {
		return Result{}, wrapErr(KindUsage, aead.ErrUnknownAlgorithm)
	}

	raw, sig, derived, err := buildHeader(rawKey, alg, header.ModeMemory, alg.NonceSize())
	if err != nil {
		return Result{}, err
	}
	defer derived.Destroy()

	h, err := header.Parse(raw)
	if err != nil {
		return Result{}, wrapErr(KindHeader, err)
	}
	nonce := h.Nonce[:alg.NonceSize()]

	ciphertext, err := aead.Encrypt(alg, derived.Expose(), nonce, plaintext)
	if err != nil {
		return Result{}, wrapErr(KindAead, err)
	}

	s := newSink(out, obs.CalculateHash, obs.WriteToFilesystem)
	if err := s.writeHeader(raw, sig); err != nil {
		return Result{}, wrapErr(KindOutputIO, err)
	}
	if err := s.writeBlock(ciphertext); err != nil {
		return Result{}, wrapErr(KindOutputIO, err)
	}
	return s.result(), nil
}

// DecryptMemory is the inverse of EncryptMemory. On any authentication
// failure, no plaintext bytes are written to out.
func DecryptMemory(in io.Reader, out io.Writer, rawKey []byte) (Result, error) {
	h, derived, err := readHeader(in, rawKey)
	if err != nil {
		return Result{}, err
	}
	defer derived.Destroy()
	if h.CipherMode != header.ModeMemory {
		return Result{}, wrapErr(KindUsage, header.ErrMalformed)
	}

	ciphertext, err := io.ReadAll(in)
	if err != nil {
		return Result{}, wrapErr(KindInputIO, err)
	}

	nonce := h.Nonce[:h.Algorithm.NonceSize()]
	plaintext, err := aead.Decrypt(h.Algorithm, derived.Expose(), nonce, ciphertext)
	if err != nil {
		return Result{}, wrapErr(KindAuth, err)
	}

	if _, err := out.Write(plaintext); err != nil {
		return Result{}, wrapErr(KindOutputIO, err)
	}
	return Result{}, nil
}

// readBlock reads up to size bytes from r. eof reports whether fewer
// than size bytes were available, including zero; err is non-nil only
// for a genuine I/O failure, never for a short read caused by EOF.
func readBlock(r io.Reader, size int) (data []byte, eof bool, err error) {
	buf := make([]byte, size)
	n, rerr := io.ReadFull(r, buf)
	switch rerr {
	case nil:
		return buf, false, nil
	case io.EOF, io.ErrUnexpectedEOF:
		return buf[:n], true, nil
	default:
		return nil, false, rerr
	}
}

// EncryptStream encrypts in block by block under the STREAM
// construction, writing each sealed block to out as soon as it is
// produced. Suited to input that should never be fully buffered.
//
// A block read at exactly BlockSize is ambiguous — it might be the
// last bytes of the input, or there might be more — so the loop always
// reads one block further before deciding. An input whose length is an
// exact multiple of BlockSize therefore ends with one extra, empty
// terminal block; this is deliberate, matching the STREAM
// construction's own handling of that boundary rather than papering
// over it.
func EncryptStream(in io.Reader, out io.Writer, rawKey []byte, alg aead.Algorithm, obs ObserverFlags) (Result, error) {
	if !alg.Valid() {
		return Result{}, wrapErr(KindUsage, aead.ErrUnknownAlgorithm)
	}

	raw, sig, derived, err := buildHeader(rawKey, alg, header.ModeStream, alg.BasePrefixSize())
	if err != nil {
		return Result{}, err
	}
	defer derived.Destroy()

	h, err := header.Parse(raw)
	if err != nil {
		return Result{}, wrapErr(KindHeader, err)
	}
	prefix := h.Nonce[:alg.BasePrefixSize()]

	enc, err := aead.NewStreamEncrypter(alg, derived.Expose(), prefix)
	if err != nil {
		return Result{}, wrapErr(KindAead, err)
	}

	s := newSink(out, obs.CalculateHash, obs.WriteToFilesystem)
	if err := s.writeHeader(raw, sig); err != nil {
		return Result{}, wrapErr(KindOutputIO, err)
	}

	pending, pendEOF, err := readBlock(in, aead.BlockSize)
	if err != nil {
		return Result{}, wrapErr(KindInputIO, err)
	}

	for {
		if pendEOF {
			block, serr := enc.EncryptLast(pending)
			if serr != nil {
				return Result{}, wrapErr(KindAead, serr)
			}
			if err := s.writeBlock(block); err != nil {
				return Result{}, wrapErr(KindOutputIO, err)
			}
			break
		}

		next, nextEOF, err := readBlock(in, aead.BlockSize)
		if err != nil {
			return Result{}, wrapErr(KindInputIO, err)
		}
		if nextEOF && len(next) == 0 {
			block, serr := enc.EncryptNext(pending)
			if serr != nil {
				return Result{}, wrapErr(KindAead, serr)
			}
			if err := s.writeBlock(block); err != nil {
				return Result{}, wrapErr(KindOutputIO, err)
			}
			last, serr := enc.EncryptLast(next)
			if serr != nil {
				return Result{}, wrapErr(KindAead, serr)
			}
			if err := s.writeBlock(last); err != nil {
				return Result{}, wrapErr(KindOutputIO, err)
			}
			break
		}

		block, serr := enc.EncryptNext(pending)
		if serr != nil {
			return Result{}, wrapErr(KindAead, serr)
		}
		if err := s.writeBlock(block); err != nil {
			return Result{}, wrapErr(KindOutputIO, err)
		}
		pending, pendEOF = next, nextEOF
	}

	return s.result(), nil
}

// DecryptStream is the inverse of EncryptStream. Blocks are written to
// out as they are verified; the moment a block fails authentication
// (tampering, truncation, or reordering) the pipeline stops, returning
// whatever was already written plus the error — it never rolls back
// bytes already emitted.
func DecryptStream(in io.Reader, out io.Writer, rawKey []byte) (Result, error) {
	h, derived, err := readHeader(in, rawKey)
	if err != nil {
		return Result{}, err
	}
	defer derived.Destroy()
	if h.CipherMode != header.ModeStream {
		return Result{}, wrapErr(KindUsage, header.ErrMalformed)
	}

	alg := h.Algorithm
	prefix := h.Nonce[:alg.BasePrefixSize()]
	dec, err := aead.NewStreamDecrypter(alg, derived.Expose(), prefix)
	if err != nil {
		return Result{}, wrapErr(KindAead, err)
	}

	sealedSize := aead.BlockSize + aead.TagSize

	pending, pendEOF, err := readBlock(in, sealedSize)
	if err != nil {
		return Result{}, wrapErr(KindInputIO, err)
	}

	for {
		if pendEOF {
			pt, derr := dec.DecryptLast(pending)
			if derr != nil {
				return Result{}, wrapErr(KindAuth, derr)
			}
			if _, err := out.Write(pt); err != nil {
				return Result{}, wrapErr(KindOutputIO, err)
			}
			break
		}

		next, nextEOF, err := readBlock(in, sealedSize)
		if err != nil {
			return Result{}, wrapErr(KindInputIO, err)
		}
		if nextEOF && len(next) == 0 {
			pt, derr := dec.DecryptNext(pending)
			if derr != nil {
				return Result{}, wrapErr(KindAuth, derr)
			}
			if _, err := out.Write(pt); err != nil {
				return Result{}, wrapErr(KindOutputIO, err)
			}
			lastPt, derr := dec.DecryptLast(next)
			if derr != nil {
				return Result{}, wrapErr(KindAuth, derr)
			}
			if _, err := out.Write(lastPt); err != nil {
				return Result{}, wrapErr(KindOutputIO, err)
			}
			break
		}

		pt, derr := dec.DecryptNext(pending)
		if derr != nil {
			return Result{}, wrapErr(KindAuth, derr)
		}
		if _, err := out.Write(pt); err != nil {
			return Result{}, wrapErr(KindOutputIO, err)
		}
		pending, pendEOF = next, nextEOF
	}

	return Result{}, nil
}
