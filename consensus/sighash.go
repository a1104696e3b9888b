package consensus

import (
	"kestrel.dev/ledger/crypto"
)

// SIGHASH_ALL_FORKID is the only sighash mode the protocol uses: every
// input, every output, replay-protected.
const SIGHASH_ALL_FORKID uint32 = 0x41

// Byte geometry of the serialised preimage tail. The lineage check slices
// the aggregate output hash out of the digest at a fixed offset from the
// end: sighash flag (4) + locktime (4) precede it, so it occupies
// [len−40, len−8).
const (
	PREIMAGE_TAIL_AFTER_HASH_OUTPUTS = 8
	PREIMAGE_HASH_OUTPUTS_OFFSET     = 40

	// version + hashPrevouts + hashSequences + outpoint + minimal script
	// prefix + value + sequence + hashOutputs + locktime + flag
	PREIMAGE_MIN_BYTES = 4 + 32 + 32 + 36 + 1 + 8 + 4 + 32 + 4 + 4
)

// SighashPreimage is the canonical transaction digest structure. Its exact
// byte layout is load-bearing: the signature covers Hash256 of these bytes,
// and the lineage check extracts HashOutputs from them by offset.
type SighashPreimage struct {
	Version       uint32
	HashPrevouts  [32]byte
	HashSequences [32]byte
	Outpoint      Outpoint
	ScriptCode    []byte
	Value         uint64
	Sequence      uint32
	HashOutputs   [32]byte
	Locktime      uint32
	SighashFlag   uint32
}

// Bytes serialises the preimage in canonical order.
func (pre *SighashPreimage) Bytes() []byte {
	out := make([]byte, 0, PREIMAGE_MIN_BYTES+len(pre.ScriptCode))
	out = appendU32le(out, pre.Version)
	out = append(out, pre.HashPrevouts[:]...)
	out = append(out, pre.HashSequences[:]...)
	out = append(out, OutpointBytes(pre.Outpoint)...)
	out = append(out, CompactSize(len(pre.ScriptCode)).Encode()...)
	out = append(out, pre.ScriptCode...)
	out = appendU64le(out, pre.Value)
	out = appendU32le(out, pre.Sequence)
	out = append(out, pre.HashOutputs[:]...)
	out = appendU32le(out, pre.Locktime)
	out = appendU32le(out, pre.SighashFlag)
	return out
}

// BuildPreimage assembles the digest structure for one input of tx.
// scriptCode is the locking script of the output being spent and inputValue
// its committed value.
func BuildPreimage(
	p crypto.Provider,
	tx *Tx,
	inputIndex int,
	scriptCode []byte,
	inputValue uint64,
) (*SighashPreimage, error) {
	if inputIndex < 0 || inputIndex >= len(tx.Inputs) {
		return nil, txerr(TX_ERR_PARSE, "sighash input index out of bounds")
	}

	prevouts := make([]byte, 0, len(tx.Inputs)*36)
	for _, in := range tx.Inputs {
		prevouts = append(prevouts, OutpointBytes(in.Prevout)...)
	}

	sequences := make([]byte, 0, len(tx.Inputs)*4)
	for _, in := range tx.Inputs {
		sequences = appendU32le(sequences, in.Sequence)
	}

	outputs := make([]byte, 0)
	for _, o := range tx.Outputs {
		outputs = append(outputs, TxOutputBytes(o)...)
	}

	in := tx.Inputs[inputIndex]
	return &SighashPreimage{
		Version:       tx.Version,
		HashPrevouts:  p.Hash256(prevouts),
		HashSequences: p.Hash256(sequences),
		Outpoint:      in.Prevout,
		ScriptCode:    append([]byte(nil), scriptCode...),
		Value:         inputValue,
		Sequence:      in.Sequence,
		HashOutputs:   p.Hash256(outputs),
		Locktime:      tx.Locktime,
		SighashFlag:   SIGHASH_ALL_FORKID,
	}, nil
}

// ExtractHashOutputs slices the 32-byte aggregate output hash out of a
// serialised preimage.
func ExtractHashOutputs(digest []byte) ([32]byte, error) {
	var out [32]byte
	if len(digest) < PREIMAGE_MIN_BYTES {
		return out, txerr(TX_ERR_PARSE, "transaction digest too short")
	}
	start := len(digest) - PREIMAGE_HASH_OUTPUTS_OFFSET
	copy(out[:], digest[start:start+32])
	return out, nil
}
