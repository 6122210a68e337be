// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package pedersen implements Pedersen commitments over the prime-order
// group G (see package group): amount hiding with homomorphic balance
// checks, domain-separated independent generator H.
//
// WARNING: Pedersen commitments are binding under the discrete-log
// assumption and are not post-quantum secure. They carry no range proof —
// nothing prevents a committed amount from being negative or wrapping modulo
// the group order except the 64-bit/2^63 guardrails enforced by the
// transaction verifier (package witness).
package pedersen

import (
	"crypto/subtle"
	"errors"
	"sync"

	"github.com/luxfi/shielded-core/group"
)

// domainH is the fixed domain-separation tag used to derive the independent
// generator H, per the External Interfaces table.
const domainH = "Pedersen_H_GENERATOR_V2"

var (
	// ErrDecoding is returned when a commitment does not decode to a valid
	// canonical point.
	ErrDecoding = errors.New("pedersen: invalid commitment encoding")
)

var (
	hOnce sync.Once
	hGen  *group.Point
)

// H returns the independent generator h = hash_to_point_G(DS_H || encode(g)).
// It is computed once and cached, so every caller within the process (and,
// because the derivation is a fixed nothing-up-my-sleeve construction, every
// other implementation of this spec) converges on the same point.
func H() *group.Point {
	hOnce.Do(func() {
		msg := group.Generator().Bytes()
		hGen = group.HashToPoint([]byte(domainH), msg)
	})
	return hGen
}

// Commitment is a Pedersen commitment C = a*g + r*h.
type Commitment struct {
	point *group.Point
}

// Commit returns C = a*g + r*h for a 64-bit amount a and blinding scalar r.
// It is pure and total: it cannot fail on well-formed (amount, blinding)
// pairs.
func Commit(amount uint64, blinding *group.Scalar) *Commitment {
	a := group.NewScalar().SetUint64(amount)

	aG := group.NewPoint().MulGen(a)
	rH := group.NewPoint().Mul(H(), blinding)

	c := group.NewPoint().Add(aG, rH)
	return &Commitment{point: c}
}

// VerifyCommit reports whether c opens to (amount, blinding), using a
// constant-time comparison of the encoded points so that adversarial inputs
// cannot leak timing information about which byte first differed.
func VerifyCommit(c *Commitment, amount uint64, blinding *group.Scalar) bool {
	expected := Commit(amount, blinding)
	return subtle.ConstantTimeCompare(c.Bytes(), expected.Bytes()) == 1
}

// Add returns c1 + c2. Since commit(a1,r1) + commit(a2,r2) =
// commit(a1+a2, r1+r2), this lets a verifier check balance conservation
// without ever learning the individual amounts or blindings.
func Add(c1, c2 *Commitment) *Commitment {
	return &Commitment{point: group.NewPoint().Add(c1.point, c2.point)}
}

// Sub returns c1 - c2.
func Sub(c1, c2 *Commitment) *Commitment {
	return &Commitment{point: group.NewPoint().Sub(c1.point, c2.point)}
}

// Bytes returns the 32-byte compressed encoding of the commitment.
func (c *Commitment) Bytes() []byte {
	return c.point.Bytes()
}

// Point exposes the underlying group element, for callers (package witness)
// that need to combine commitments algebraically rather than by re-decoding
// bytes on every step.
func (c *Commitment) Point() *group.Point {
	return c.point
}

// FromPoint wraps an already-decoded group element as a Commitment.
func FromPoint(p *group.Point) *Commitment {
	return &Commitment{point: p}
}

// Decode parses a 32-byte compressed commitment, rejecting any non-canonical
// encoding (3. Data model invariant: "any encoding of C must decode to the
// same group element").
func Decode(data []byte) (*Commitment, error) {
	p, err := group.DecodePoint(data)
	if err != nil {
		return nil, ErrDecoding
	}
	return &Commitment{point: p}, nil
}

// Sum folds a slice of commitments with group addition, returning the
// identity commitment for an empty slice.
func Sum(commitments []*Commitment) *Commitment {
	acc := group.Identity()
	for _, c := range commitments {
		acc = group.NewPoint().Add(acc, c.point)
	}
	return &Commitment{point: acc}
}
