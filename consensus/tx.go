package consensus

// Minimal transaction model: enough structure for the builder to assemble a
// spend and for the sighash preimage to be computed over it. Relay, block
// and mempool concerns live elsewhere.

type Outpoint struct {
	TxID [32]byte // display order; reversed on the wire
	Vout uint32
}

type TxInput struct {
	Prevout   Outpoint
	ScriptSig []byte
	Sequence  uint32
}

type TxOutput struct {
	Value  uint64
	Script []byte
}

type Tx struct {
	Version  uint32
	Inputs   []TxInput
	Outputs  []TxOutput
	Locktime uint32
}

// OutpointBytes serialises an outpoint for hashing: txid reversed into wire
// order, then vout as 4 bytes little-endian.
func OutpointBytes(o Outpoint) []byte {
	out := make([]byte, 0, 36)
	for i := len(o.TxID) - 1; i >= 0; i-- {
		out = append(out, o.TxID[i])
	}
	return appendU32le(out, o.Vout)
}

// TxOutputBytes serialises one output exactly as it is committed into the
// aggregate output hash.
func TxOutputBytes(o TxOutput) []byte {
	return OutputBytes(o.Value, o.Script)
}
