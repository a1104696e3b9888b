// Package builder assembles token-thread spends off-chain: it derives the
// witness values with the curve library, serialises the transaction, and
// signs the canonical digest. Consensus nodes re-run consensus.VerifyTransition
// against its output; nothing here is trusted.
package builder

import (
	"fmt"

	sha256 "github.com/minio/sha256-simd"

	"kestrel.dev/ledger/consensus"
	"kestrel.dev/ledger/crypto"
	"kestrel.dev/ledger/curve"
)

// SlotID is the convenience commitment binding an owner to an asset class:
// SHA-256(ownerKeyHash ‖ tokenId). The verifier never re-derives it.
func SlotID(ownerKeyHash [20]byte, tokenID [32]byte) [32]byte {
	buf := make([]byte, 0, 52)
	buf = append(buf, ownerKeyHash[:]...)
	buf = append(buf, tokenID[:]...)
	return sha256.Sum256(buf)
}

// NewThread creates the genesis TokenState of a token/owner thread, with the
// accumulator seeded at amount·H(tokenId).
func NewThread(tokenID [32]byte, ownerKeyHash [20]byte, typ byte, amount uint64) (*consensus.TokenState, error) {
	base, _, err := curve.HashToCurve(tokenID[:])
	if err != nil {
		return nil, err
	}
	acc := curve.ScalarMul(base, amount)
	accX, accY := acc.Coords()
	return &consensus.TokenState{
		TokenID:      tokenID,
		OwnerKeyHash: ownerKeyHash,
		SlotID:       SlotID(ownerKeyHash, tokenID),
		Type:         typ,
		Amount:       amount,
		AccX:         accX,
		AccY:         accY,
	}, nil
}

// Advance computes the accumulator step for one transfer: the delta point
// transfer·H(tokenId), the slope hint joining it to prevAcc, and the
// resulting next accumulator.
func Advance(tokenID [32]byte, prevAcc curve.Point, transfer uint64) (delta, next curve.Point, slope [32]byte, err error) {
	base, _, err := curve.HashToCurve(tokenID[:])
	if err != nil {
		return delta, next, slope, err
	}
	delta = curve.ScalarMul(base, transfer)
	if delta.IsInfinity() {
		return delta, next, slope, fmt.Errorf("builder: zero-value transfer has no delta point")
	}
	s, err := curve.Slope(prevAcc, delta)
	if err != nil {
		return delta, next, slope, err
	}
	next = curve.Add(prevAcc, delta)
	slope = s.Bytes()
	return delta, next, slope, nil
}

// NextState derives the honest successor TokenState for a transfer to
// nextOwner. The advisory amount tag advances in lockstep with the
// accumulator; only the accumulator is enforced on-chain.
func NextState(prev *consensus.TokenState, transfer uint64, nextOwner [20]byte) (*consensus.TokenState, error) {
	prevAcc := curve.NewPoint(prev.AccX, prev.AccY)
	_, next, _, err := Advance(prev.TokenID, prevAcc, transfer)
	if err != nil {
		return nil, err
	}
	accX, accY := next.Coords()
	return &consensus.TokenState{
		TokenID:      prev.TokenID,
		OwnerKeyHash: nextOwner,
		SlotID:       SlotID(nextOwner, prev.TokenID),
		Type:         prev.Type,
		Amount:       prev.Amount + transfer,
		AccX:         accX,
		AccY:         accY,
	}, nil
}

// TransferParams describes one single-input, single-output thread spend.
type TransferParams struct {
	PrevOutpoint consensus.Outpoint
	PrevValue    uint64 // satoshi value locked in the spent output
	Transfer     uint64 // units moved through the accumulator
	NextOwner    [20]byte
	NextValue    uint64 // satoshi value of the successor output
}

// BuildTransfer assembles the complete spend: successor state, transaction,
// and the witness in the binding push order. The returned transaction
// carries the serialised witness as its input's unlocking data.
func BuildTransfer(
	p crypto.Provider,
	kp *Keypair,
	prev *consensus.TokenState,
	params TransferParams,
) (*consensus.Tx, *consensus.TransitionWitness, *consensus.TokenState, error) {
	nextState, err := NextState(prev, params.Transfer, params.NextOwner)
	if err != nil {
		return nil, nil, nil, err
	}
	tx, w, err := BuildSpend(p, kp, prev, nextState, params)
	if err != nil {
		return nil, nil, nil, err
	}
	return tx, w, nextState, nil
}

// BuildSpend assembles the transaction and witness for an explicit successor
// state. Split out from BuildTransfer so tooling (and tests) can commit
// successor states whose advisory fields deviate from the honest derivation.
func BuildSpend(
	p crypto.Provider,
	kp *Keypair,
	prev *consensus.TokenState,
	nextState *consensus.TokenState,
	params TransferParams,
) (*consensus.Tx, *consensus.TransitionWitness, error) {
	prevAcc := curve.NewPoint(prev.AccX, prev.AccY)
	delta, next, slope, err := Advance(prev.TokenID, prevAcc, params.Transfer)
	if err != nil {
		return nil, nil, err
	}

	tx := &consensus.Tx{
		Version: 1,
		Inputs: []consensus.TxInput{{
			Prevout:  params.PrevOutpoint,
			Sequence: 0xffffffff,
		}},
		Outputs: []consensus.TxOutput{{
			Value:  params.NextValue,
			Script: consensus.StateScriptBytes(nextState),
		}},
	}

	pre, err := consensus.BuildPreimage(p, tx, 0, consensus.StateScriptBytes(prev), params.PrevValue)
	if err != nil {
		return nil, nil, err
	}
	digest := pre.Bytes()

	deltaX, deltaY := delta.Coords()
	nextX, nextY := next.Coords()
	w := &consensus.TransitionWitness{
		Signature:           kp.SignPreimage(p, digest),
		PublicKey:           kp.PubKeyBytes(),
		Slope:               slope,
		DeltaX:              deltaX,
		DeltaY:              deltaY,
		PrevAccX:            prev.AccX,
		PrevAccY:            prev.AccY,
		NextAccX:            nextX,
		NextAccY:            nextY,
		TransactionDigest:   digest,
		CommittedOutputBlob: consensus.TxOutputBytes(tx.Outputs[0]),
	}
	tx.Inputs[0].ScriptSig = consensus.WitnessBytes(w)
	return tx, w, nil
}
