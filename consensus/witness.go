package consensus

// TransitionWitness is the spender-supplied proof material for one state
// transition. It is consumed exactly once by VerifyTransition and never
// stored.
//
// Slope is a hint: the verifier has no modular inverse, so it cannot derive
// the secant slope itself and instead checks the supplied value against the
// curve-addition identities.
type TransitionWitness struct {
	Signature []byte
	PublicKey []byte
	Slope     [32]byte
	DeltaX    [32]byte
	DeltaY    [32]byte
	PrevAccX  [32]byte
	PrevAccY  [32]byte
	NextAccX  [32]byte
	NextAccY  [32]byte
	// TransactionDigest is the exact sighash-preimage byte sequence the
	// signature is claimed to cover.
	TransactionDigest []byte
	// CommittedOutputBlob is the serialised first output of the spending
	// transaction (value ‖ length prefix ‖ locking script).
	CommittedOutputBlob []byte
}

// witnessItems returns the witness fields in push order. The ordering is a
// binding contract with the builder (any deviation breaks verification), so
// both the encoder and the parser are defined in terms of this one list:
// signature, publicKey, slope, deltaX, deltaY, prevAccX, prevAccY, nextAccX,
// nextAccY, transactionDigest, committedOutputBlob.
func (w *TransitionWitness) witnessItems() [][]byte {
	return [][]byte{
		w.Signature,
		w.PublicKey,
		w.Slope[:],
		w.DeltaX[:],
		w.DeltaY[:],
		w.PrevAccX[:],
		w.PrevAccY[:],
		w.NextAccX[:],
		w.NextAccY[:],
		w.TransactionDigest,
		w.CommittedOutputBlob,
	}
}

const witnessItemCount = 11

// WitnessBytes serialises w as a sequence of CompactSize-prefixed items in
// push order.
func WitnessBytes(w *TransitionWitness) []byte {
	out := make([]byte, 0, 512)
	for _, item := range w.witnessItems() {
		out = append(out, CompactSize(len(item)).Encode()...)
		out = append(out, item...)
	}
	return out
}

// ParseWitnessBytes is the inverse of WitnessBytes. Fixed-width fields are
// length-enforced here so a malformed witness aborts at parse time instead
// of failing an arithmetic check with garbage.
func ParseWitnessBytes(b []byte) (*TransitionWitness, error) {
	cur := newCursor(b)
	items := make([][]byte, 0, witnessItemCount)
	for i := 0; i < witnessItemCount; i++ {
		nU64, err := cur.readCompactSize()
		if err != nil {
			return nil, txerr(TX_ERR_PARSE, "witness item length invalid")
		}
		n, err := toIntLen(nU64, "witness_item_len")
		if err != nil {
			return nil, txerr(TX_ERR_PARSE, "witness item length invalid")
		}
		item, err := cur.readExact(n)
		if err != nil {
			return nil, txerr(TX_ERR_PARSE, "witness item truncated")
		}
		items = append(items, append([]byte(nil), item...))
	}
	if cur.pos != len(b) {
		return nil, txerr(TX_ERR_PARSE, "witness trailing bytes")
	}

	var w TransitionWitness
	w.Signature = items[0]
	w.PublicKey = items[1]
	for i, dst := range []*[32]byte{
		&w.Slope, &w.DeltaX, &w.DeltaY,
		&w.PrevAccX, &w.PrevAccY, &w.NextAccX, &w.NextAccY,
	} {
		if len(items[2+i]) != 32 {
			return nil, txerr(TX_ERR_PARSE, "witness field element width invalid")
		}
		copy(dst[:], items[2+i])
	}
	w.TransactionDigest = items[9]
	w.CommittedOutputBlob = items[10]
	return &w, nil
}
