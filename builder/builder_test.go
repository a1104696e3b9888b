package builder

import (
	"bytes"
	"testing"

	"kestrel.dev/ledger/consensus"
	"kestrel.dev/ledger/crypto"
	"kestrel.dev/ledger/curve"
)

var tp = crypto.DevStdProvider{}

func testTokenID() [32]byte {
	var id [32]byte
	copy(id[:], []byte("builder-test-asset"))
	return id
}

func testParams() TransferParams {
	return TransferParams{
		PrevOutpoint: consensus.Outpoint{TxID: [32]byte{0x01}, Vout: 0},
		PrevValue:    546,
		Transfer:     100,
		NextValue:    546,
	}
}

func TestBuildTransferVerifies(t *testing.T) {
	kp := KeypairFromBytes(bytes.Repeat([]byte{0x11}, 32))
	prev, err := NewThread(testTokenID(), kp.OwnerKeyHash(tp), consensus.TOKEN_TYPE_FUNGIBLE, 1000)
	if err != nil {
		t.Fatalf("NewThread: %v", err)
	}

	params := testParams()
	params.NextOwner = kp.OwnerKeyHash(tp)
	_, w, next, err := BuildTransfer(tp, kp, prev, params)
	if err != nil {
		t.Fatalf("BuildTransfer: %v", err)
	}
	if err := consensus.VerifyTransition(tp, prev, w); err != nil {
		t.Fatalf("built transfer rejected: %v", err)
	}
	if next.Amount != 1100 {
		t.Fatalf("successor amount %d, want 1100", next.Amount)
	}
}

func TestBuiltWitnessRoundTripsThroughScriptSig(t *testing.T) {
	kp := KeypairFromBytes(bytes.Repeat([]byte{0x12}, 32))
	prev, err := NewThread(testTokenID(), kp.OwnerKeyHash(tp), consensus.TOKEN_TYPE_FUNGIBLE, 1000)
	if err != nil {
		t.Fatalf("NewThread: %v", err)
	}

	params := testParams()
	params.NextOwner = kp.OwnerKeyHash(tp)
	tx, w, _, err := BuildTransfer(tp, kp, prev, params)
	if err != nil {
		t.Fatalf("BuildTransfer: %v", err)
	}

	parsed, err := consensus.ParseWitnessBytes(tx.Inputs[0].ScriptSig)
	if err != nil {
		t.Fatalf("ParseWitnessBytes: %v", err)
	}
	if err := consensus.VerifyTransition(tp, prev, parsed); err != nil {
		t.Fatalf("witness parsed from the unlocking data rejected: %v", err)
	}
	if !bytes.Equal(parsed.Signature, w.Signature) {
		t.Fatalf("scriptSig does not carry the emitted witness")
	}
}

func TestBuildTransferSlopeTamperRejects(t *testing.T) {
	kp := KeypairFromBytes(bytes.Repeat([]byte{0x13}, 32))
	prev, err := NewThread(testTokenID(), kp.OwnerKeyHash(tp), consensus.TOKEN_TYPE_FUNGIBLE, 1000)
	if err != nil {
		t.Fatalf("NewThread: %v", err)
	}

	params := testParams()
	params.NextOwner = kp.OwnerKeyHash(tp)
	_, w, _, err := BuildTransfer(tp, kp, prev, params)
	if err != nil {
		t.Fatalf("BuildTransfer: %v", err)
	}
	w.Slope[31] ^= 0x01
	err = consensus.VerifyTransition(tp, prev, w)
	if consensus.CodeOf(err) != consensus.TX_ERR_INVALID_TRANSITION {
		t.Fatalf("want TX_ERR_INVALID_TRANSITION, got %v", err)
	}
}

func TestBuildSpendCommitsSpoofedAmount(t *testing.T) {
	kp := KeypairFromBytes(bytes.Repeat([]byte{0x14}, 32))
	prev, err := NewThread(testTokenID(), kp.OwnerKeyHash(tp), consensus.TOKEN_TYPE_FUNGIBLE, 1000)
	if err != nil {
		t.Fatalf("NewThread: %v", err)
	}

	params := testParams()
	params.NextOwner = kp.OwnerKeyHash(tp)
	next, err := NextState(prev, params.Transfer, params.NextOwner)
	if err != nil {
		t.Fatalf("NextState: %v", err)
	}
	next.Amount = 3000

	_, w, err := BuildSpend(tp, kp, prev, next, params)
	if err != nil {
		t.Fatalf("BuildSpend: %v", err)
	}
	// The amount tag is advisory, so the spoofed successor still verifies.
	if err := consensus.VerifyTransition(tp, prev, w); err != nil {
		t.Fatalf("spoofed amount tag must still verify: %v", err)
	}
}

func TestNextStateAdvancesAccumulator(t *testing.T) {
	kp := KeypairFromBytes(bytes.Repeat([]byte{0x15}, 32))
	prev, err := NewThread(testTokenID(), kp.OwnerKeyHash(tp), consensus.TOKEN_TYPE_FUNGIBLE, 7)
	if err != nil {
		t.Fatalf("NewThread: %v", err)
	}
	next, err := NextState(prev, 5, kp.OwnerKeyHash(tp))
	if err != nil {
		t.Fatalf("NextState: %v", err)
	}

	base, _, err := curve.HashToCurve(prev.TokenID[:])
	if err != nil {
		t.Fatalf("HashToCurve: %v", err)
	}
	want := curve.ScalarMul(base, 12)
	got := curve.NewPoint(next.AccX, next.AccY)
	if !got.Equal(want) {
		t.Fatalf("successor accumulator is not 12·H(tokenId)")
	}
}

func TestAdvanceRejectsZeroTransfer(t *testing.T) {
	base, _, err := curve.HashToCurve([]byte("zero-transfer-asset"))
	if err != nil {
		t.Fatalf("HashToCurve: %v", err)
	}
	if _, _, _, err := Advance(testTokenID(), base, 0); err == nil {
		t.Fatalf("zero-value transfer must be rejected")
	}
}

func TestSlotIDDeterministic(t *testing.T) {
	var owner [20]byte
	owner[0] = 0x0a
	token := testTokenID()
	if SlotID(owner, token) != SlotID(owner, token) {
		t.Fatalf("slot id must be deterministic")
	}
	var other [20]byte
	other[0] = 0x0b
	if SlotID(owner, token) == SlotID(other, token) {
		t.Fatalf("distinct owners must get distinct slots")
	}
}

// Appending a second output to the built transaction invalidates nothing the
// verifier sees: the witness keeps the original single-output digest and
// blob, so the spend still verifies. This is the documented single-output
// soundness envelope.
func TestAppendedOutputInvisibleToVerifier(t *testing.T) {
	kp := KeypairFromBytes(bytes.Repeat([]byte{0x16}, 32))
	prev, err := NewThread(testTokenID(), kp.OwnerKeyHash(tp), consensus.TOKEN_TYPE_FUNGIBLE, 1000)
	if err != nil {
		t.Fatalf("NewThread: %v", err)
	}

	params := testParams()
	params.NextOwner = kp.OwnerKeyHash(tp)
	tx, w, _, err := BuildTransfer(tp, kp, prev, params)
	if err != nil {
		t.Fatalf("BuildTransfer: %v", err)
	}
	tx.Outputs = append(tx.Outputs, consensus.TxOutput{Value: 1, Script: []byte{0x6a}})

	if err := consensus.VerifyTransition(tp, prev, w); err != nil {
		t.Fatalf("verifier must not observe outputs outside the witness: %v", err)
	}
}
