// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package witness implements the transaction witness wire format and the
// monolithic verifier that is meant to run as the program inside a
// zero-knowledge virtual machine guest. The verifier is a pure function:
// given witness bytes it either emits public output bytes or aborts. It
// never partially succeeds: every failure is a *FatalError and comes with no
// public output. The FatalError's Reason is a host-side classification of
// the abort only.
package witness

import (
	"encoding/binary"
	"errors"
)

// ErrTruncated is returned by Decode when the input ends before a
// length-prefixed field's declared size.
var ErrTruncated = errors.New("witness: truncated input")

// StealthRecord is a witness-carried stealth record: a variable-length
// compressed public key and the 20-byte address it resolves to. The
// verifier parses these for shape validity but does not otherwise inspect
// them; stealth matching happens host-side (package stealth), outside the
// guest.
type StealthRecord struct {
	PubKey []byte
	Addr   [20]byte
}

// Witness is the decoded form of the wire format described in the external
// interfaces table: input/output commitments, key image, ring, stealth
// records, private amounts/blindings, ring-signature scalars, and the
// signer's secret index.
type Witness struct {
	InputCommitments  [][32]byte
	OutputCommitments [][32]byte
	KeyImage          [32]byte
	Ring              [][32]byte
	Stealth           []StealthRecord

	InputAmounts    []uint64
	InputBlindings  [][32]byte
	OutputAmounts   []uint64
	OutputBlindings [][32]byte

	// RingSigC holds the per-step challenge trace c[0..n); only c[0] is
	// required to re-verify the ring signature, but the full trace rides
	// along as zkVM-circuit advice so each step's relation can be checked as
	// an independent local constraint instead of a serial hash chain.
	RingSigC [][32]byte
	RingSigR [][32]byte

	SecretIndex uint64
}

type byteReader struct {
	data []byte
	pos  int
}

func (r *byteReader) u64() (uint64, error) {
	if r.pos+8 > len(r.data) {
		return 0, ErrTruncated
	}
	v := binary.LittleEndian.Uint64(r.data[r.pos:])
	r.pos += 8
	return v, nil
}

func (r *byteReader) fixed32() ([32]byte, error) {
	var out [32]byte
	if r.pos+32 > len(r.data) {
		return out, ErrTruncated
	}
	copy(out[:], r.data[r.pos:r.pos+32])
	r.pos += 32
	return out, nil
}

func (r *byteReader) fixed20() ([20]byte, error) {
	var out [20]byte
	if r.pos+20 > len(r.data) {
		return out, ErrTruncated
	}
	copy(out[:], r.data[r.pos:r.pos+20])
	r.pos += 20
	return out, nil
}

func (r *byteReader) bytes(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.data) {
		return nil, ErrTruncated
	}
	out := make([]byte, n)
	copy(out, r.data[r.pos:r.pos+n])
	r.pos += n
	return out, nil
}

// Decode parses the fixed wire format into a Witness. It only enforces that
// length-prefixed fields do not overrun the buffer; the richer shape and
// value invariants (k == len(commitments), secret_index < n, ...) are
// enforced by Verify, which is the only place a malformed witness becomes a
// fatal abort.
func Decode(data []byte) (*Witness, error) {
	r := &byteReader{data: data}
	w := &Witness{}

	k, err := r.u64()
	if err != nil {
		return nil, err
	}
	w.InputCommitments = make([][32]byte, k)
	for i := range w.InputCommitments {
		if w.InputCommitments[i], err = r.fixed32(); err != nil {
			return nil, err
		}
	}

	m, err := r.u64()
	if err != nil {
		return nil, err
	}
	w.OutputCommitments = make([][32]byte, m)
	for i := range w.OutputCommitments {
		if w.OutputCommitments[i], err = r.fixed32(); err != nil {
			return nil, err
		}
	}

	if w.KeyImage, err = r.fixed32(); err != nil {
		return nil, err
	}

	n, err := r.u64()
	if err != nil {
		return nil, err
	}
	w.Ring = make([][32]byte, n)
	for i := range w.Ring {
		if w.Ring[i], err = r.fixed32(); err != nil {
			return nil, err
		}
	}

	q, err := r.u64()
	if err != nil {
		return nil, err
	}
	w.Stealth = make([]StealthRecord, q)
	for i := range w.Stealth {
		pkLen, err := r.u64()
		if err != nil {
			return nil, err
		}
		pk, err := r.bytes(int(pkLen))
		if err != nil {
			return nil, err
		}
		addr, err := r.fixed20()
		if err != nil {
			return nil, err
		}
		w.Stealth[i] = StealthRecord{PubKey: pk, Addr: addr}
	}

	w.InputAmounts = make([]uint64, k)
	for i := range w.InputAmounts {
		if w.InputAmounts[i], err = r.u64(); err != nil {
			return nil, err
		}
	}
	w.InputBlindings = make([][32]byte, k)
	for i := range w.InputBlindings {
		if w.InputBlindings[i], err = r.fixed32(); err != nil {
			return nil, err
		}
	}

	w.OutputAmounts = make([]uint64, m)
	for i := range w.OutputAmounts {
		if w.OutputAmounts[i], err = r.u64(); err != nil {
			return nil, err
		}
	}
	w.OutputBlindings = make([][32]byte, m)
	for i := range w.OutputBlindings {
		if w.OutputBlindings[i], err = r.fixed32(); err != nil {
			return nil, err
		}
	}

	w.RingSigC = make([][32]byte, n)
	for i := range w.RingSigC {
		if w.RingSigC[i], err = r.fixed32(); err != nil {
			return nil, err
		}
	}
	w.RingSigR = make([][32]byte, n)
	for i := range w.RingSigR {
		if w.RingSigR[i], err = r.fixed32(); err != nil {
			return nil, err
		}
	}

	if w.SecretIndex, err = r.u64(); err != nil {
		return nil, err
	}

	return w, nil
}

// Encode serializes w back into the fixed wire format. It round-trips
// whatever Decode produced and is also how test fixtures and callers
// assembling a witness host-side build the bytes fed to Verify.
func (w *Witness) Encode() []byte {
	size := 8 + len(w.InputCommitments)*32 +
		8 + len(w.OutputCommitments)*32 +
		32 +
		8 + len(w.Ring)*32 +
		8
	for _, s := range w.Stealth {
		size += 8 + len(s.PubKey) + 20
	}
	size += len(w.InputAmounts)*8 + len(w.InputBlindings)*32
	size += len(w.OutputAmounts)*8 + len(w.OutputBlindings)*32
	size += len(w.RingSigC)*32 + len(w.RingSigR)*32
	size += 8

	out := make([]byte, 0, size)
	var tmp [8]byte

	putU64 := func(v uint64) {
		binary.LittleEndian.PutUint64(tmp[:], v)
		out = append(out, tmp[:]...)
	}

	putU64(uint64(len(w.InputCommitments)))
	for _, c := range w.InputCommitments {
		out = append(out, c[:]...)
	}

	putU64(uint64(len(w.OutputCommitments)))
	for _, c := range w.OutputCommitments {
		out = append(out, c[:]...)
	}

	out = append(out, w.KeyImage[:]...)

	putU64(uint64(len(w.Ring)))
	for _, p := range w.Ring {
		out = append(out, p[:]...)
	}

	putU64(uint64(len(w.Stealth)))
	for _, s := range w.Stealth {
		putU64(uint64(len(s.PubKey)))
		out = append(out, s.PubKey...)
		out = append(out, s.Addr[:]...)
	}

	for _, a := range w.InputAmounts {
		putU64(a)
	}
	for _, b := range w.InputBlindings {
		out = append(out, b[:]...)
	}

	for _, a := range w.OutputAmounts {
		putU64(a)
	}
	for _, b := range w.OutputBlindings {
		out = append(out, b[:]...)
	}

	for _, c := range w.RingSigC {
		out = append(out, c[:]...)
	}
	for _, s := range w.RingSigR {
		out = append(out, s[:]...)
	}

	putU64(w.SecretIndex)

	return out
}

// PublicOutput is the fixed subset of the witness the verifier commits:
// input/output commitments, key image, and ring, in that order. It
// deliberately omits amounts, blindings, and secret_index.
type PublicOutput struct {
	InputCommitments  [][32]byte
	OutputCommitments [][32]byte
	KeyImage          [32]byte
	Ring              [][32]byte
}

// Encode serializes the public output in the fixed wire order.
func (o *PublicOutput) Encode() []byte {
	size := 8 + len(o.InputCommitments)*32 + 8 + len(o.OutputCommitments)*32 + 32 + 8 + len(o.Ring)*32
	out := make([]byte, 0, size)
	var tmp [8]byte

	putU64 := func(v uint64) {
		binary.LittleEndian.PutUint64(tmp[:], v)
		out = append(out, tmp[:]...)
	}

	putU64(uint64(len(o.InputCommitments)))
	for _, c := range o.InputCommitments {
		out = append(out, c[:]...)
	}
	putU64(uint64(len(o.OutputCommitments)))
	for _, c := range o.OutputCommitments {
		out = append(out, c[:]...)
	}
	out = append(out, o.KeyImage[:]...)
	putU64(uint64(len(o.Ring)))
	for _, p := range o.Ring {
		out = append(out, p[:]...)
	}

	return out
}
