// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package group wraps the prime-order group G used throughout the shielded
// transaction core. G is instantiated as Ristretto255 (via
// github.com/cloudflare/circl/group): a cofactor-free group with 32-byte
// canonical point encodings and 32-byte scalars, which is exactly the shape
// the commitment and ring-signature layers above it assume. No small-subgroup
// or malleability classes survive the choice of a prime-order group.
package group

import (
	"crypto/rand"
	"crypto/sha512"
	"errors"
	"io"
	"math/big"

	"github.com/cloudflare/circl/group"
)

// G is the prime-order group backing every Point/Scalar in this package.
var G = group.Ristretto255

// groupOrder is the order L of Ristretto255 (same as edwards25519):
// 2^252 + 27742317777372353535851937790883648493.
var groupOrder = mustParseOrder("27742317777372353535851937790883648493")

func mustParseOrder(lowBits string) *big.Int {
	// L = 2^252 + lowBits
	base := new(big.Int).Lsh(big.NewInt(1), 252)
	low, ok := new(big.Int).SetString(lowBits, 10)
	if !ok {
		panic("group: invalid order constant")
	}
	return base.Add(base, low)
}

// ErrDecoding is returned when a 32-byte encoding does not decode to a valid,
// canonical point or scalar.
var ErrDecoding = errors.New("group: non-canonical or invalid encoding")

// Scalar is an integer modulo the order of G, serialized as 32 little-endian
// bytes. The zero value is not usable; construct via NewScalar, RandomScalar,
// or ScalarFromUniform64.
type Scalar struct {
	s group.Scalar
}

// Point is an element of G, serialized as 32 compressed bytes.
type Point struct {
	e group.Element
}

// NewScalar returns the scalar zero.
func NewScalar() *Scalar {
	return &Scalar{s: G.NewScalar()}
}

// NewPoint returns the identity element.
func NewPoint() *Point {
	return &Point{e: G.NewElement()}
}

// Generator returns the group's standard base point g.
func Generator() *Point {
	return &Point{e: G.Generator()}
}

// Identity returns the identity element of G.
func Identity() *Point {
	return &Point{e: G.Identity()}
}

// RandomScalar draws a scalar uniformly from a CSPRNG. csprng must be a
// cryptographically secure source; callers outside tests should pass
// crypto/rand.Reader.
func RandomScalar(csprng io.Reader) (*Scalar, error) {
	s := G.RandomNonZeroScalar(csprng)
	return &Scalar{s: s}, nil
}

// RandomScalarSystem draws a scalar using the system CSPRNG, per 4.A.
func RandomScalarSystem() (*Scalar, error) {
	return RandomScalar(rand.Reader)
}

// ScalarFromUniform64 reduces a 64-byte uniform input modulo the group order,
// per the 4.A contract `scalar_from_uniform_64`. The input should come from a
// wide-output hash (H512) so the reduction does not bias the output scalar.
func ScalarFromUniform64(data [64]byte) (*Scalar, error) {
	n := new(big.Int).SetBytes(reverse(data[:]))
	n.Mod(n, groupOrder)

	var le [32]byte
	b := n.Bytes() // big-endian, shorter than 32 if leading zeros
	for i := 0; i < len(b); i++ {
		le[i] = b[len(b)-1-i]
	}

	s := G.NewScalar()
	if err := s.UnmarshalBinary(le[:]); err != nil {
		return nil, ErrDecoding
	}
	return &Scalar{s: s}, nil
}

func reverse(b []byte) []byte {
	out := make([]byte, len(b))
	for i, v := range b {
		out[len(b)-1-i] = v
	}
	return out
}

// HashToScalar derives a scalar deterministically from a domain-separated
// message, used for ring-signature challenges (H_scalar in 4.C).
func HashToScalar(domain, msg []byte) *Scalar {
	h := sha512.New()
	h.Write(domain)
	h.Write(msg)
	var sum [64]byte
	copy(sum[:], h.Sum(nil))
	s, err := ScalarFromUniform64(sum)
	if err != nil {
		// sha512 output is always 64 uniform bytes; reduction cannot fail.
		panic(err)
	}
	return s
}

// HashToPoint maps a domain-separated message into a group element
// (hash_to_point_G in 3/4.A), via Ristretto255's native hash-to-group.
func HashToPoint(domain, msg []byte) *Point {
	return &Point{e: G.HashToElement(msg, domain)}
}

// SetUint64 sets s to the given small integer value.
func (s *Scalar) SetUint64(v uint64) *Scalar {
	s.s.SetUint64(v)
	return s
}

// Add sets s = a + b and returns s.
func (s *Scalar) Add(a, b *Scalar) *Scalar {
	s.s.Add(a.s, b.s)
	return s
}

// Sub sets s = a - b and returns s.
func (s *Scalar) Sub(a, b *Scalar) *Scalar {
	s.s.Sub(a.s, b.s)
	return s
}

// Mul sets s = a * b and returns s.
func (s *Scalar) Mul(a, b *Scalar) *Scalar {
	s.s.Mul(a.s, b.s)
	return s
}

// Neg sets s = -a and returns s.
func (s *Scalar) Neg(a *Scalar) *Scalar {
	s.s.Neg(a.s)
	return s
}

// IsEqual reports whether s and other represent the same scalar, in constant
// time (per the ct-eq discipline mandated by 4.A).
func (s *Scalar) IsEqual(other *Scalar) bool {
	return s.s.IsEqual(other.s)
}

// Bytes returns the canonical 32-byte little-endian encoding of s.
func (s *Scalar) Bytes() []byte {
	b, err := s.s.MarshalBinary()
	if err != nil {
		panic(err) // circl scalars always marshal
	}
	return b
}

// DecodeScalar parses a canonical 32-byte scalar encoding, rejecting
// non-canonical (unreduced) representations as mandated by the spec's
// "Scalar canonicalization" design note.
func DecodeScalar(data []byte) (*Scalar, error) {
	if len(data) != 32 {
		return nil, ErrDecoding
	}
	s := G.NewScalar()
	if err := s.UnmarshalBinary(data); err != nil {
		return nil, ErrDecoding
	}
	return &Scalar{s: s}, nil
}

// Zero overwrites the scalar's backing storage. Callers must call this on any
// Scalar holding secret material (signing keys, blinding factors, ephemeral
// nonces) once it is no longer needed.
func (s *Scalar) Zero() {
	s.s.SetUint64(0)
}

// Add sets p = a + b and returns p.
func (p *Point) Add(a, b *Point) *Point {
	p.e.Add(a.e, b.e)
	return p
}

// Sub sets p = a - b and returns p.
func (p *Point) Sub(a, b *Point) *Point {
	neg := G.NewElement()
	neg.Neg(b.e)
	p.e.Add(a.e, neg)
	return p
}

// Mul sets p = s*base and returns p.
func (p *Point) Mul(base *Point, s *Scalar) *Point {
	p.e.Mul(base.e, s.s)
	return p
}

// MulGen sets p = s*g and returns p.
func (p *Point) MulGen(s *Scalar) *Point {
	p.e.MulGen(s.s)
	return p
}

// IsEqual reports whether p and other are the same group element.
func (p *Point) IsEqual(other *Point) bool {
	return p.e.IsEqual(other.e)
}

// IsIdentity reports whether p is the identity element.
func (p *Point) IsIdentity() bool {
	return p.e.IsIdentity()
}

// Bytes returns the 32-byte compressed encoding of p.
func (p *Point) Bytes() []byte {
	b, err := p.e.MarshalBinary()
	if err != nil {
		panic(err)
	}
	return b
}

// DecodePoint parses a 32-byte compressed point encoding, rejecting any
// encoding that is not the canonical representation of a valid group element,
// and rejecting the identity element.
func DecodePoint(data []byte) (*Point, error) {
	p, err := DecodePointAllowIdentity(data)
	if err != nil {
		return nil, err
	}
	if p.IsIdentity() {
		return nil, ErrDecoding
	}
	return p, nil
}

// DecodePointAllowIdentity is DecodePoint but additionally accepts the
// identity element, for call sites where the spec explicitly allows it
// (e.g. an all-zero ring slot is never produced by this package, but callers
// parsing adversarial witnesses may need to distinguish "bad encoding" from
// "valid identity").
func DecodePointAllowIdentity(data []byte) (*Point, error) {
	if len(data) != 32 {
		return nil, ErrDecoding
	}
	e := G.NewElement()
	if err := e.UnmarshalBinary(data); err != nil {
		return nil, ErrDecoding
	}
	return &Point{e: e}, nil
}
