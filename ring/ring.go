// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package ring implements LSAG (Linkable Spontaneous Anonymous Group) ring
// signatures over the prime-order group G (see package group).
//
// Ring signatures let a sender prove membership in an anonymity set without
// revealing which member signed, while still emitting a deterministic key
// image that lets an external registry (outside this package, per spec §1)
// detect double-spends. This package owns signing and verification only; it
// never tracks or dedupes key images itself.
package ring

import (
	"errors"

	"github.com/luxfi/shielded-core/group"
)

const (
	// domainHashToPoint hashes a ring member's public point to the secondary
	// base used for key-image computation, per 4.C step 1.
	domainHashToPoint = "HASH_TO_POINTS_V1"
	// domainChallenge separates ring-signature Fiat-Shamir challenges from
	// every other hash in the system.
	domainChallenge = "RING_SIG_V1"
)

var (
	// ErrRingTooSmall is returned when a ring has fewer than one member.
	ErrRingTooSmall = errors.New("ring: ring must have at least one member")
	// ErrSignerIndexOutOfRange is a fatal precondition violation: the caller
	// is buggy, not the ring. Per 4.C, signing with s >= n must panic rather
	// than silently fail.
	ErrSignerIndexOutOfRange = errors.New("ring: signer index out of range")
	// ErrShapeMismatch names a length mismatch between the ring and the
	// response vector. Verify does not return it: it reports such a
	// signature as invalid by returning false.
	ErrShapeMismatch = errors.New("ring: ring and signature length mismatch")
)

// Signature is an LSAG ring signature (I, c0, r[0..n)).
type Signature struct {
	KeyImage *group.Point
	C0       *group.Scalar
	R        []*group.Scalar
}

// hashToPoint computes Hs = hash_to_point_G(DS_HP || encode(p)).
func hashToPoint(p *group.Point) *group.Point {
	return group.HashToPoint([]byte(domainHashToPoint), p.Bytes())
}

// challenge computes H_scalar(DS_RS || msg || encode(L) || encode(R)).
func challenge(msg []byte, l, r *group.Point) *group.Scalar {
	buf := make([]byte, 0, len(msg)+64)
	buf = append(buf, msg...)
	buf = append(buf, l.Bytes()...)
	buf = append(buf, r.Bytes()...)
	return group.HashToScalar([]byte(domainChallenge), buf)
}

// ComputeKeyImage returns I = x * Hs where Hs = hash_to_point_G(DS_HP ||
// encode(x*g)). The key image is a deterministic function of x alone: it
// never depends on the ring, the message, or any randomness, which is what
// makes it a valid double-spend tag.
func ComputeKeyImage(x *group.Scalar) *group.Point {
	pubPoint := group.NewPoint().MulGen(x)
	hs := hashToPoint(pubPoint)
	return group.NewPoint().Mul(hs, x)
}

// Sign produces an LSAG ring signature over msg for signer index s in ring,
// where ring[s] == x*g. csprng must be a cryptographically secure source
// (the spec requires scalar_random to draw only from a system CSPRNG).
//
// Signing is total on well-formed input; calling with s >= len(ring) is a
// caller bug, so this panics rather than returning an error (4.C: "it is a
// bug to call with s >= n and implementations must assert this (fatal)").
func Sign(csprng randReader, msg []byte, x *group.Scalar, s int, ring []*group.Point) (*Signature, error) {
	n := len(ring)
	if n < 1 {
		return nil, ErrRingTooSmall
	}
	if s < 0 || s >= n {
		panic(ErrSignerIndexOutOfRange)
	}

	keyImage := ComputeKeyImage(x)
	hsSigner := hashToPoint(ring[s])

	alpha, err := group.RandomScalar(csprng)
	if err != nil {
		return nil, err
	}

	r := make([]*group.Scalar, n)
	c := make([]*group.Scalar, n)

	l := group.NewPoint().MulGen(alpha)
	rr := group.NewPoint().Mul(hsSigner, alpha)

	// c[(s+1) % n] = H(m, L_s, R_s). When n == 1 this index is s itself,
	// closing the ring immediately.
	c[(s+1)%n] = challenge(msg, l, rr)

	for i := 1; i < n; i++ {
		cur := (s + i) % n

		ri, err := group.RandomScalar(csprng)
		if err != nil {
			return nil, err
		}
		r[cur] = ri

		// L_i = r_i*g + c_i*ring[i]
		rg := group.NewPoint().MulGen(ri)
		cp := group.NewPoint().Mul(ring[cur], c[cur])
		li := group.NewPoint().Add(rg, cp)

		// R_i = r_i*Hi + c_i*I
		hsi := hashToPoint(ring[cur])
		rh := group.NewPoint().Mul(hsi, ri)
		ci := group.NewPoint().Mul(keyImage, c[cur])
		rOut := group.NewPoint().Add(rh, ci)

		// c[(cur+1) % n] = H(m, L_i, R_i). The final iteration lands this on
		// c[s], closing the loop.
		c[(cur+1)%n] = challenge(msg, li, rOut)
	}

	// r_s = alpha - c_s * x (mod group order)
	cx := group.NewScalar().Mul(c[s], x)
	r[s] = group.NewScalar().Sub(alpha, cx)

	alpha.Zero()

	return &Signature{
		KeyImage: keyImage,
		C0:       c[0],
		R:        r,
	}, nil
}

// Verify checks sig against msg and ring. It returns false (never panics or
// errors) for any malformed or adversarial input: mismatched lengths,
// non-canonical encodings upstream, an identity key image, or a recomputed
// c0 that does not match the supplied one.
func Verify(sig *Signature, msg []byte, ring []*group.Point) bool {
	n := len(ring)
	if n < 1 || sig == nil || len(sig.R) != n {
		return false
	}
	if sig.KeyImage == nil || sig.KeyImage.IsIdentity() {
		return false
	}

	cPrev := sig.C0
	for i := 0; i < n; i++ {
		// L_i = r_i*g + c_i*ring[i]
		rg := group.NewPoint().MulGen(sig.R[i])
		cp := group.NewPoint().Mul(ring[i], cPrev)
		li := group.NewPoint().Add(rg, cp)

		// R_i = r_i*Hi + c_i*I
		hsi := hashToPoint(ring[i])
		rh := group.NewPoint().Mul(hsi, sig.R[i])
		ci := group.NewPoint().Mul(sig.KeyImage, cPrev)
		ri := group.NewPoint().Add(rh, ci)

		cNext := challenge(msg, li, ri)
		cPrev = cNext
	}

	return cPrev.IsEqual(sig.C0)
}

// randReader is the minimal interface Sign needs from a CSPRNG; it is
// satisfied by crypto/rand.Reader and by deterministic test readers.
type randReader = interface {
	Read(p []byte) (n int, err error)
}
