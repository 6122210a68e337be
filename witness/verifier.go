// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package witness

import (
	"math/bits"

	"github.com/luxfi/shielded-core/group"
	"github.com/luxfi/shielded-core/pedersen"
	"github.com/luxfi/shielded-core/ring"
)

// txBindDomain separates transaction message binding from every other hash
// use in the system; it ties a ring signature to the exact set of
// commitments it authorizes.
const txBindDomain = "TX_BIND_V1"

// amountLimit is the mandatory guardrail: no amount may reach 2^63, which
// would otherwise let a 64-bit sum wrap around the balance check.
const amountLimit = uint64(1) << 63

// Verify runs the full transaction verification procedure over the wire
// bytes of a witness: structural checks, commitment reconstruction, balance
// conservation, and ring signature verification, in that order. It is
// monolithically all-or-nothing: the first failing check aborts with a
// *FatalError and no PublicOutput is returned. It consumes no ambient
// randomness or clock state and is safe to call concurrently.
func Verify(witnessBytes []byte) (*PublicOutput, error) {
	w, err := Decode(witnessBytes)
	if err != nil {
		return nil, fatal(ReasonDecodingError, err.Error())
	}

	if err := checkShape(w); err != nil {
		return nil, err
	}
	if err := checkAmountRange(w); err != nil {
		return nil, err
	}

	inputCommitments, err := reconstructCommitments(w.InputCommitments, w.InputAmounts, w.InputBlindings)
	if err != nil {
		return nil, err
	}
	outputCommitments, err := reconstructCommitments(w.OutputCommitments, w.OutputAmounts, w.OutputBlindings)
	if err != nil {
		return nil, err
	}

	if err := checkBalance(w.InputAmounts, w.OutputAmounts); err != nil {
		return nil, err
	}

	if err := checkRingSignature(w, inputCommitments, outputCommitments); err != nil {
		return nil, err
	}

	return &PublicOutput{
		InputCommitments:  w.InputCommitments,
		OutputCommitments: w.OutputCommitments,
		KeyImage:          w.KeyImage,
		Ring:              w.Ring,
	}, nil
}

func checkShape(w *Witness) error {
	k := len(w.InputCommitments)
	m := len(w.OutputCommitments)
	n := len(w.Ring)

	if k < 1 {
		return fatal(ReasonShapeError, "at least one input required")
	}
	if m < 1 {
		return fatal(ReasonShapeError, "at least one output required")
	}
	if len(w.InputAmounts) != k || len(w.InputBlindings) != k {
		return fatal(ReasonShapeError, "input amount/blinding count mismatch")
	}
	if len(w.OutputAmounts) != m || len(w.OutputBlindings) != m {
		return fatal(ReasonShapeError, "output amount/blinding count mismatch")
	}
	if len(w.RingSigR) != n || len(w.RingSigC) != n {
		return fatal(ReasonShapeError, "ring signature scalar count mismatch")
	}
	if n < 1 {
		return fatal(ReasonShapeError, "ring must have at least one member")
	}
	if w.SecretIndex >= uint64(n) {
		return fatal(ReasonIndexOutOfRange, "secret_index >= ring size")
	}
	return nil
}

func checkAmountRange(w *Witness) error {
	for _, a := range w.InputAmounts {
		if a >= amountLimit {
			return fatal(ReasonAmountOutOfRange, "input amount >= 2^63")
		}
	}
	for _, a := range w.OutputAmounts {
		if a >= amountLimit {
			return fatal(ReasonAmountOutOfRange, "output amount >= 2^63")
		}
	}
	return nil
}

// reconstructCommitments recomputes commit(amount, blinding) for each entry
// and asserts it equals the declared commitment, in constant time.
func reconstructCommitments(declared [][32]byte, amounts []uint64, blindings [][32]byte) ([]*pedersen.Commitment, error) {
	out := make([]*pedersen.Commitment, len(declared))
	for i := range declared {
		want, err := pedersen.Decode(declared[i][:])
		if err != nil {
			return nil, fatal(ReasonDecodingError, "commitment decode failed")
		}
		blinding, err := group.DecodeScalar(blindings[i][:])
		if err != nil {
			return nil, fatal(ReasonDecodingError, "blinding decode failed")
		}
		if !pedersen.VerifyCommit(want, amounts[i], blinding) {
			return nil, fatal(ReasonCommitmentMismatch, "commitment does not open to declared amount/blinding")
		}
		out[i] = want
	}
	return out, nil
}

// checkBalance sums inputs and outputs with checked 128-bit accumulators and
// asserts equality. fee is fixed at 0 per the current contract.
func checkBalance(inputAmounts, outputAmounts []uint64) error {
	inHi, inLo, err := checkedSum(inputAmounts)
	if err != nil {
		return err
	}
	outHi, outLo, err := checkedSum(outputAmounts)
	if err != nil {
		return err
	}
	if inHi != outHi || inLo != outLo {
		return fatal(ReasonBalanceMismatch, "sum_in != sum_out")
	}
	return nil
}

func checkedSum(amounts []uint64) (hi, lo uint64, err error) {
	for _, a := range amounts {
		var carry uint64
		lo, carry = bits.Add64(lo, a, 0)
		var hiCarry uint64
		hi, hiCarry = bits.Add64(hi, carry, 0)
		if hiCarry != 0 {
			// Only reachable with more than 2^64 summands, which cannot
			// happen for any witness representable in memory; the spec
			// treats it as adversarial rather than as dead code.
			return 0, 0, fatal(ReasonBalanceOverflow, "accumulator overflow")
		}
	}
	return hi, lo, nil
}

// checkRingSignature re-derives the binding message from the reconstructed
// commitments and invokes the ring-signature verifier over it.
func checkRingSignature(w *Witness, inputCommitments, outputCommitments []*pedersen.Commitment) error {
	msg := make([]byte, 0, len(txBindDomain)+32*(len(inputCommitments)+len(outputCommitments)))
	msg = append(msg, []byte(txBindDomain)...)
	for _, c := range inputCommitments {
		msg = append(msg, c.Bytes()...)
	}
	for _, c := range outputCommitments {
		msg = append(msg, c.Bytes()...)
	}

	ringPoints := make([]*group.Point, len(w.Ring))
	for i, p := range w.Ring {
		pt, err := group.DecodePoint(p[:])
		if err != nil {
			return fatal(ReasonDecodingError, "ring member decode failed")
		}
		ringPoints[i] = pt
	}

	rScalars := make([]*group.Scalar, len(w.RingSigR))
	for i, s := range w.RingSigR {
		sc, err := group.DecodeScalar(s[:])
		if err != nil {
			return fatal(ReasonDecodingError, "ring response scalar decode failed")
		}
		rScalars[i] = sc
	}

	c0, err := group.DecodeScalar(w.RingSigC[0][:])
	if err != nil {
		return fatal(ReasonDecodingError, "ring challenge scalar decode failed")
	}

	keyImage, err := group.DecodePoint(w.KeyImage[:])
	if err != nil {
		return fatal(ReasonDecodingError, "key image decode failed")
	}

	sig := &ring.Signature{KeyImage: keyImage, C0: c0, R: rScalars}
	if !ring.Verify(sig, msg, ringPoints) {
		return fatal(ReasonVerificationFailed, "ring signature did not verify")
	}
	return nil
}
