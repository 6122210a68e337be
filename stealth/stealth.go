// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package stealth implements one-time stealth addresses over the secondary
// curve E (secp256k1, Ethereum-compatible). A sender derives a fresh,
// unlinkable address for a receiver from the receiver's published view and
// spend public points; the receiver scans candidate records with its view
// secret to discover which ones are addressed to it.
package stealth

import (
	"crypto/elliptic"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"math/big"

	"github.com/luxfi/crypto"
	"github.com/luxfi/crypto/secp256k1"
	"github.com/luxfi/geth/common"
)

// domainStealthTag separates the stealth-address shared-secret hash from
// every other Keccak-256 use in the system.
const domainStealthTag = "STEALTH_ADDR_V1"

// curve is E, the Ethereum-compatible secondary curve.
var curve = secp256k1.S256()

var (
	// ErrInvalidPoint is returned when a 33-byte compressed point does not
	// decode to a valid point on E.
	ErrInvalidPoint = errors.New("stealth: invalid curve point encoding")
	// ErrStealthNotMine is returned by Scan when the record does not belong
	// to the given view key.
	ErrStealthNotMine = errors.New("stealth: record does not belong to this viewer")
)

// Scalar is an integer modulo the order of E.
type Scalar struct {
	v *big.Int
}

// NewScalarFromBigInt reduces v modulo the curve order and wraps it.
func NewScalarFromBigInt(v *big.Int) *Scalar {
	n := new(big.Int).Mod(v, curve.Params().N)
	return &Scalar{v: n}
}

// RandomScalar draws a scalar uniformly from the system CSPRNG.
func RandomScalar() (*Scalar, error) {
	v, err := rand.Int(rand.Reader, curve.Params().N)
	if err != nil {
		return nil, err
	}
	return &Scalar{v: v}, nil
}

// Bytes returns the 32-byte big-endian encoding of s.
func (s *Scalar) Bytes() []byte {
	b := s.v.Bytes()
	out := make([]byte, 32)
	copy(out[32-len(b):], b)
	return out
}

// BigInt exposes the underlying integer for scalar arithmetic callers need
// to perform when combining a stealth tag with a spend secret.
func (s *Scalar) BigInt() *big.Int {
	return s.v
}

// Add returns (s + other) mod N.
func (s *Scalar) Add(other *Scalar) *Scalar {
	sum := new(big.Int).Add(s.v, other.v)
	return NewScalarFromBigInt(sum)
}

// Zero overwrites the scalar's backing integer. Must be called on any Scalar
// holding ephemeral or view secret material once it is no longer needed.
func (s *Scalar) Zero() {
	s.v.SetInt64(0)
}

// Point is an affine point on E.
type Point struct {
	X, Y *big.Int
}

// ScalarBaseMult returns s*g_E.
func ScalarBaseMult(s *Scalar) *Point {
	x, y := curve.ScalarBaseMult(s.v.Bytes())
	return &Point{X: x, Y: y}
}

// ScalarMult returns s*p.
func (p *Point) ScalarMult(s *Scalar) *Point {
	x, y := curve.ScalarMult(p.X, p.Y, s.v.Bytes())
	return &Point{X: x, Y: y}
}

// Add returns p + q.
func (p *Point) Add(q *Point) *Point {
	x, y := curve.Add(p.X, p.Y, q.X, q.Y)
	return &Point{X: x, Y: y}
}

// Compressed returns the 33-byte compressed encoding of p.
func (p *Point) Compressed() []byte {
	return secp256k1.CompressPubkey(p.X, p.Y)
}

// DecodePoint parses a 33-byte compressed point on E.
func DecodePoint(data []byte) (*Point, error) {
	x, y := secp256k1.DecompressPubkey(data)
	if x == nil {
		return nil, ErrInvalidPoint
	}
	return &Point{X: x, Y: y}, nil
}

// address derives the 20-byte Ethereum-style address of p: the last 20 bytes
// of keccak256 over the 64-byte uncompressed X||Y encoding.
func address(p *Point) common.Address {
	uncompressed := elliptic.Marshal(curve, p.X, p.Y)
	h := crypto.Keccak256(uncompressed[1:]) // drop the 0x04 prefix byte
	var addr common.Address
	copy(addr[:], h[12:])
	return addr
}

// sharedSecretTag reduces H256k(domainStealthTag || encode(S)) to a scalar.
func sharedSecretTag(shared *Point) *Scalar {
	h := crypto.Keccak256(append([]byte(domainStealthTag), shared.Compressed()...))
	return NewScalarFromBigInt(new(big.Int).SetBytes(h))
}

// Record is a published stealth record: an ephemeral public point and the
// one-time address it resolves to.
type Record struct {
	R    []byte // 33-byte compressed ephemeral point on E
	Addr common.Address
}

// Generate derives a fresh stealth record for a receiver identified by view
// public point viewPub and spend public point spendPub. It returns the
// record to publish and the ephemeral secret the sender drew, which the
// sender must zero once it no longer needs it.
func Generate(viewPub, spendPub *Point) (*Record, *Scalar, error) {
	r, err := RandomScalar()
	if err != nil {
		return nil, nil, err
	}

	ephemeralPub := ScalarBaseMult(r)
	shared := viewPub.ScalarMult(r)
	tag := sharedSecretTag(shared)

	oneTime := spendPub.Add(ScalarBaseMult(tag))
	addr := address(oneTime)

	return &Record{R: ephemeralPub.Compressed(), Addr: addr}, r, nil
}

// Scan checks whether record belongs to the viewer holding viewSecret, given
// the receiver's published spend public point. On success it returns the tag
// scalar t such that the one-time private key is (spendSecret + t) mod N.
func Scan(record *Record, viewSecret *Scalar, spendPub *Point) (*Scalar, error) {
	ephemeralPub, err := DecodePoint(record.R)
	if err != nil {
		return nil, err
	}

	shared := ephemeralPub.ScalarMult(viewSecret)
	tag := sharedSecretTag(shared)

	oneTime := spendPub.Add(ScalarBaseMult(tag))
	candidate := address(oneTime)

	if subtle.ConstantTimeCompare(candidate[:], record.Addr[:]) != 1 {
		return nil, ErrStealthNotMine
	}
	return tag, nil
}
