package consensus

import "encoding/binary"

// Token type tags. The verifier carries the tag through the state layout but
// enforces nothing about it; it is a policy hook for higher layers (e.g.
// refusing to relay a SOULBOUND transfer), not a consensus rule.
const (
	TOKEN_TYPE_FUNGIBLE      byte = 0
	TOKEN_TYPE_NFT           byte = 1
	TOKEN_TYPE_SOULBOUND     byte = 2
	TOKEN_TYPE_SOULBOUND_NFT byte = 3
)

// Field widths of the locked-state script layout. The successor-state parser
// is offset-based, so the order and widths here are a consensus contract.
const (
	TOKEN_ID_BYTES       = 32
	OWNER_KEY_HASH_BYTES = 20
	SLOT_ID_BYTES        = 32
	AMOUNT_BYTES         = 8
	ACC_COORD_BYTES      = 32

	// tokenId ‖ ownerKeyHash ‖ slotId ‖ type ‖ amount ‖ accX ‖ accY
	STATE_SCRIPT_BYTES = TOKEN_ID_BYTES + OWNER_KEY_HASH_BYTES + SLOT_ID_BYTES +
		1 + AMOUNT_BYTES + 2*ACC_COORD_BYTES
)

// TokenState is the committed state of one token/owner thread. It is
// immutable once created: spending the output that carries it destroys it,
// and the spending transaction's first output creates exactly one successor.
//
// Amount is advisory metadata: only the accumulator point is proven at spend
// time, and the wallet is trusted to keep the tag consistent with it.
// SlotID is a convenience commitment over ownerKeyHash ‖ tokenId that the
// verifier never re-derives.
type TokenState struct {
	TokenID      [32]byte
	OwnerKeyHash [20]byte
	SlotID       [32]byte
	Type         byte
	Amount       uint64
	AccX         [32]byte
	AccY         [32]byte
}

// StateScriptBytes serialises st into the fixed 157-byte locking-script
// layout.
func StateScriptBytes(st *TokenState) []byte {
	out := make([]byte, 0, STATE_SCRIPT_BYTES)
	out = append(out, st.TokenID[:]...)
	out = append(out, st.OwnerKeyHash[:]...)
	out = append(out, st.SlotID[:]...)
	out = append(out, st.Type)
	out = appendU64le(out, st.Amount)
	out = append(out, st.AccX[:]...)
	out = append(out, st.AccY[:]...)
	return out
}

// ParseStateScript is the exact inverse of StateScriptBytes. It rejects any
// script that is not exactly STATE_SCRIPT_BYTES long.
func ParseStateScript(b []byte) (*TokenState, error) {
	if len(b) != STATE_SCRIPT_BYTES {
		return nil, txerr(TX_ERR_PARSE, "state script length invalid")
	}
	var st TokenState
	cur := newCursor(b)

	tokenID, _ := cur.readExact(TOKEN_ID_BYTES)
	copy(st.TokenID[:], tokenID)
	owner, _ := cur.readExact(OWNER_KEY_HASH_BYTES)
	copy(st.OwnerKeyHash[:], owner)
	slot, _ := cur.readExact(SLOT_ID_BYTES)
	copy(st.SlotID[:], slot)
	st.Type, _ = cur.readU8()
	st.Amount = binary.LittleEndian.Uint64(b[cur.pos : cur.pos+AMOUNT_BYTES])
	cur.pos += AMOUNT_BYTES
	accX, _ := cur.readExact(ACC_COORD_BYTES)
	copy(st.AccX[:], accX)
	accY, _ := cur.readExact(ACC_COORD_BYTES)
	copy(st.AccY[:], accY)
	return &st, nil
}

// OutputBytes serialises a transaction output carrying the given locking
// script: value (8B LE) ‖ CompactSize(len) ‖ script. This is the blob the
// lineage check hashes against the digest's aggregate output hash.
func OutputBytes(value uint64, script []byte) []byte {
	out := make([]byte, 0, 8+9+len(script))
	out = appendU64le(out, value)
	out = append(out, CompactSize(len(script)).Encode()...)
	out = append(out, script...)
	return out
}

// ParseOutput decodes value and script from a serialised output and rejects
// trailing bytes.
func ParseOutput(b []byte) (value uint64, script []byte, err error) {
	cur := newCursor(b)
	value, err = cur.readU64LE()
	if err != nil {
		return 0, nil, txerr(TX_ERR_PARSE, "output value truncated")
	}
	scriptLenU64, err := cur.readCompactSize()
	if err != nil {
		return 0, nil, txerr(TX_ERR_PARSE, "output script length invalid")
	}
	scriptLen, err := toIntLen(scriptLenU64, "script_len")
	if err != nil {
		return 0, nil, txerr(TX_ERR_PARSE, "output script length invalid")
	}
	script, err = cur.readExact(scriptLen)
	if err != nil {
		return 0, nil, txerr(TX_ERR_PARSE, "output script truncated")
	}
	if cur.pos != len(b) {
		return 0, nil, txerr(TX_ERR_PARSE, "output trailing bytes")
	}
	return value, append([]byte(nil), script...), nil
}
