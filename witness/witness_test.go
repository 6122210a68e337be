// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package witness

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/shielded-core/group"
	"github.com/luxfi/shielded-core/pedersen"
	"github.com/luxfi/shielded-core/ring"
)

// txFixture holds a well-formed witness built by buildWitness for a single
// signer spending inputAmounts into outputAmounts, with the signer placed at
// ring position signerPos in a ring of size ringSize.
type txFixture struct {
	w          *Witness
	signerX    *group.Scalar
	ringPoints []*group.Point
}

func buildWitness(t *testing.T, inputAmounts, outputAmounts []uint64, ringSize, signerPos int) *txFixture {
	t.Helper()

	inBlindScalars := make([]*group.Scalar, len(inputAmounts))
	inCommitments := make([][32]byte, len(inputAmounts))
	for i, a := range inputAmounts {
		b, err := group.RandomScalarSystem()
		require.NoError(t, err)
		inBlindScalars[i] = b
		c := pedersen.Commit(a, b)
		copy(inCommitments[i][:], c.Bytes())
	}

	outBlindScalars := make([]*group.Scalar, len(outputAmounts))
	outCommitments := make([][32]byte, len(outputAmounts))
	for i, a := range outputAmounts {
		b, err := group.RandomScalarSystem()
		require.NoError(t, err)
		outBlindScalars[i] = b
		c := pedersen.Commit(a, b)
		copy(outCommitments[i][:], c.Bytes())
	}

	signerX, err := group.RandomScalarSystem()
	require.NoError(t, err)

	ringPoints := make([]*group.Point, ringSize)
	for i := range ringPoints {
		if i == signerPos {
			ringPoints[i] = group.NewPoint().MulGen(signerX)
			continue
		}
		x, err := group.RandomScalarSystem()
		require.NoError(t, err)
		ringPoints[i] = group.NewPoint().MulGen(x)
	}

	msg := make([]byte, 0, len(txBindDomain)+32*(len(inCommitments)+len(outCommitments)))
	msg = append(msg, []byte(txBindDomain)...)
	for _, c := range inCommitments {
		msg = append(msg, c[:]...)
	}
	for _, c := range outCommitments {
		msg = append(msg, c[:]...)
	}

	sig, err := ring.Sign(rand.Reader, msg, signerX, signerPos, ringPoints)
	require.NoError(t, err)

	w := &Witness{
		InputCommitments:  inCommitments,
		OutputCommitments: outCommitments,
		InputAmounts:      inputAmounts,
		InputBlindings:    scalarsToBytes(inBlindScalars),
		OutputAmounts:     outputAmounts,
		OutputBlindings:   scalarsToBytes(outBlindScalars),
		SecretIndex:       uint64(signerPos),
	}
	copy(w.KeyImage[:], sig.KeyImage.Bytes())

	w.Ring = make([][32]byte, ringSize)
	for i, p := range ringPoints {
		copy(w.Ring[i][:], p.Bytes())
	}

	// Only c[0] is load-bearing for verification; the rest of the trace is
	// advisory, so fixtures leave it zeroed.
	w.RingSigC = make([][32]byte, ringSize)
	copy(w.RingSigC[0][:], sig.C0.Bytes())

	w.RingSigR = make([][32]byte, ringSize)
	for i, r := range sig.R {
		copy(w.RingSigR[i][:], r.Bytes())
	}

	return &txFixture{w: w, signerX: signerX, ringPoints: ringPoints}
}

func scalarsToBytes(scalars []*group.Scalar) [][32]byte {
	out := make([][32]byte, len(scalars))
	for i, s := range scalars {
		copy(out[i][:], s.Bytes())
	}
	return out
}

func TestVerifyBalancedSingleInSingleOut(t *testing.T) {
	fx := buildWitness(t, []uint64{100}, []uint64{100}, 4, 1)

	out, err := Verify(fx.w.Encode())
	require.NoError(t, err)
	require.Equal(t, fx.w.InputCommitments, out.InputCommitments)
	require.Equal(t, fx.w.OutputCommitments, out.OutputCommitments)
	require.Equal(t, fx.w.KeyImage, out.KeyImage)
	require.Equal(t, fx.w.Ring, out.Ring)
}

func TestVerifySplitOutput(t *testing.T) {
	fx := buildWitness(t, []uint64{100}, []uint64{60, 40}, 5, 2)

	_, err := Verify(fx.w.Encode())
	require.NoError(t, err)
}

func TestVerifyRejectsImbalance(t *testing.T) {
	fx := buildWitness(t, []uint64{100}, []uint64{60, 41}, 3, 0)

	_, err := Verify(fx.w.Encode())
	var fe *FatalError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, ReasonBalanceMismatch, fe.Reason)
}

func TestVerifyRejectsSignatureRebound(t *testing.T) {
	fx1 := buildWitness(t, []uint64{100}, []uint64{100}, 4, 1)
	fx2 := buildWitness(t, []uint64{100}, []uint64{100}, 4, 1)

	// Paste tx1's signature material and ring onto tx2's commitments.
	grafted := *fx2.w
	grafted.KeyImage = fx1.w.KeyImage
	grafted.RingSigC = fx1.w.RingSigC
	grafted.RingSigR = fx1.w.RingSigR
	grafted.Ring = fx1.w.Ring

	_, err := Verify(grafted.Encode())
	var fe *FatalError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, ReasonVerificationFailed, fe.Reason)
}

func TestVerifyRejectsTamperedRing(t *testing.T) {
	fx := buildWitness(t, []uint64{100}, []uint64{100}, 4, 1)

	tampered := *fx.w
	tampered.Ring = append([][32]byte{}, fx.w.Ring...)
	otherX, err := group.RandomScalarSystem()
	require.NoError(t, err)
	other := group.NewPoint().MulGen(otherX)
	copy(tampered.Ring[0][:], other.Bytes())

	_, err = Verify(tampered.Encode())
	var fe *FatalError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, ReasonVerificationFailed, fe.Reason)
}

func TestKeyImageReplayAcrossTransactions(t *testing.T) {
	signerX, err := group.RandomScalarSystem()
	require.NoError(t, err)

	build := func(amount uint64) *Witness {
		ringSize, pos := 4, 1
		ringPoints := make([]*group.Point, ringSize)
		for i := range ringPoints {
			if i == pos {
				ringPoints[i] = group.NewPoint().MulGen(signerX)
				continue
			}
			x, err := group.RandomScalarSystem()
			require.NoError(t, err)
			ringPoints[i] = group.NewPoint().MulGen(x)
		}

		blinding, err := group.RandomScalarSystem()
		require.NoError(t, err)
		c := pedersen.Commit(amount, blinding)
		var commitBytes [32]byte
		copy(commitBytes[:], c.Bytes())

		outBlinding, err := group.RandomScalarSystem()
		require.NoError(t, err)
		outC := pedersen.Commit(amount, outBlinding)
		var outCommitBytes [32]byte
		copy(outCommitBytes[:], outC.Bytes())

		msg := make([]byte, 0)
		msg = append(msg, []byte(txBindDomain)...)
		msg = append(msg, commitBytes[:]...)
		msg = append(msg, outCommitBytes[:]...)

		sig, err := ring.Sign(rand.Reader, msg, signerX, pos, ringPoints)
		require.NoError(t, err)

		w := &Witness{
			InputCommitments:  [][32]byte{commitBytes},
			OutputCommitments: [][32]byte{outCommitBytes},
			InputAmounts:      []uint64{amount},
			InputBlindings:    [][32]byte{bytes32(blinding)},
			OutputAmounts:     []uint64{amount},
			OutputBlindings:   [][32]byte{bytes32(outBlinding)},
			SecretIndex:       uint64(pos),
		}
		copy(w.KeyImage[:], sig.KeyImage.Bytes())
		w.Ring = make([][32]byte, ringSize)
		for i, p := range ringPoints {
			copy(w.Ring[i][:], p.Bytes())
		}
		w.RingSigC = make([][32]byte, ringSize)
		copy(w.RingSigC[0][:], sig.C0.Bytes())
		w.RingSigR = make([][32]byte, ringSize)
		for i, r := range sig.R {
			copy(w.RingSigR[i][:], r.Bytes())
		}
		return w
	}

	w1 := build(50)
	w2 := build(75)

	out1, err := Verify(w1.Encode())
	require.NoError(t, err)
	out2, err := Verify(w2.Encode())
	require.NoError(t, err)

	require.Equal(t, out1.KeyImage, out2.KeyImage)
}

func bytes32(s *group.Scalar) [32]byte {
	var out [32]byte
	copy(out[:], s.Bytes())
	return out
}

func TestVerifyRejectsShapeMismatch(t *testing.T) {
	fx := buildWitness(t, []uint64{100}, []uint64{100}, 4, 1)
	broken := *fx.w
	broken.InputAmounts = append(broken.InputAmounts, 1)

	// The wire format derives the amount count from k, so this mismatch
	// cannot survive an Encode/Decode round trip; check the decoded-witness
	// shape step Verify runs directly.
	err := checkShape(&broken)
	var fe *FatalError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, ReasonShapeError, fe.Reason)
}

func TestVerifyRejectsSecretIndexOutOfRange(t *testing.T) {
	fx := buildWitness(t, []uint64{100}, []uint64{100}, 4, 1)
	broken := *fx.w
	broken.SecretIndex = 99

	_, err := Verify(broken.Encode())
	var fe *FatalError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, ReasonIndexOutOfRange, fe.Reason)
}

func TestVerifyRejectsAmountAtLimit(t *testing.T) {
	fx := buildWitness(t, []uint64{100}, []uint64{100}, 2, 0)
	broken := *fx.w
	broken.InputAmounts = []uint64{1 << 63}

	_, err := Verify(broken.Encode())
	var fe *FatalError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, ReasonAmountOutOfRange, fe.Reason)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	fx := buildWitness(t, []uint64{100}, []uint64{60, 40}, 5, 2)
	fx.w.Stealth = []StealthRecord{{PubKey: []byte{1, 2, 3}, Addr: [20]byte{9, 9, 9}}}

	encoded := fx.w.Encode()
	decoded, err := Decode(encoded)
	require.NoError(t, err)
	require.Equal(t, fx.w.InputCommitments, decoded.InputCommitments)
	require.Equal(t, fx.w.OutputCommitments, decoded.OutputCommitments)
	require.Equal(t, fx.w.KeyImage, decoded.KeyImage)
	require.Equal(t, fx.w.Ring, decoded.Ring)
	require.Equal(t, fx.w.Stealth, decoded.Stealth)
	require.Equal(t, fx.w.SecretIndex, decoded.SecretIndex)
}

func TestDecodeRejectsTruncatedInput(t *testing.T) {
	_, err := Decode([]byte{1, 2, 3})
	require.ErrorIs(t, err, ErrTruncated)
}
