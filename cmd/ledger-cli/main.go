package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"kestrel.dev/ledger/consensus"
	"kestrel.dev/ledger/crypto"
	"kestrel.dev/ledger/curve"
)

type Request struct {
	Op         string  `json:"op"`
	StateHex   string  `json:"state_hex,omitempty"`
	WitnessHex string  `json:"witness_hex,omitempty"`
	IDHex      string  `json:"id_hex,omitempty"`
	Tx         *TxJSON `json:"tx,omitempty"`
	InputIndex int     `json:"input_index,omitempty"`
	InputValue uint64  `json:"input_value,omitempty"`
}

type TxInputJSON struct {
	TxIDHex  string `json:"txid"`
	Vout     uint32 `json:"vout"`
	Sequence uint32 `json:"sequence"`
}

type TxOutputJSON struct {
	Value     uint64 `json:"value"`
	ScriptHex string `json:"script_hex"`
}

type TxJSON struct {
	Version  uint32         `json:"version"`
	Inputs   []TxInputJSON  `json:"inputs"`
	Outputs  []TxOutputJSON `json:"outputs"`
	Locktime uint32         `json:"locktime"`
}

type Response struct {
	Ok          bool            `json:"ok"`
	Err         string          `json:"err,omitempty"`
	XHex        string          `json:"x,omitempty"`
	YHex        string          `json:"y,omitempty"`
	Counter     uint8           `json:"counter,omitempty"`
	State       json.RawMessage `json:"state,omitempty"`
	PreimageHex string          `json:"preimage,omitempty"`
	DigestHex   string          `json:"digest,omitempty"`
}

func decodeTx(in *TxJSON) (*consensus.Tx, error) {
	tx := &consensus.Tx{Version: in.Version, Locktime: in.Locktime}
	for _, i := range in.Inputs {
		txid, err := hex.DecodeString(i.TxIDHex)
		if err != nil || len(txid) != 32 {
			return nil, fmt.Errorf("bad input txid")
		}
		var op consensus.Outpoint
		copy(op.TxID[:], txid)
		op.Vout = i.Vout
		tx.Inputs = append(tx.Inputs, consensus.TxInput{Prevout: op, Sequence: i.Sequence})
	}
	for _, o := range in.Outputs {
		script, err := hex.DecodeString(o.ScriptHex)
		if err != nil {
			return nil, fmt.Errorf("bad output script hex")
		}
		tx.Outputs = append(tx.Outputs, consensus.TxOutput{Value: o.Value, Script: script})
	}
	return tx, nil
}

func writeResp(w io.Writer, resp Response) {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(resp)
}

func fail(err error) Response {
	if te, ok := err.(*consensus.TxError); ok {
		return Response{Ok: false, Err: string(te.Code)}
	}
	return Response{Ok: false, Err: err.Error()}
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResp(os.Stdout, Response{Ok: false, Err: fmt.Sprintf("bad request: %v", err)})
		return
	}

	switch req.Op {
	case "verify_transition":
		stateBytes, err := hex.DecodeString(req.StateHex)
		if err != nil {
			writeResp(os.Stdout, Response{Ok: false, Err: "bad state hex"})
			return
		}
		witnessBytes, err := hex.DecodeString(req.WitnessHex)
		if err != nil {
			writeResp(os.Stdout, Response{Ok: false, Err: "bad witness hex"})
			return
		}
		st, err := consensus.ParseStateScript(stateBytes)
		if err != nil {
			writeResp(os.Stdout, fail(err))
			return
		}
		w, err := consensus.ParseWitnessBytes(witnessBytes)
		if err != nil {
			writeResp(os.Stdout, fail(err))
			return
		}
		if err := consensus.VerifyTransition(crypto.DevStdProvider{}, st, w); err != nil {
			writeResp(os.Stdout, fail(err))
			return
		}
		writeResp(os.Stdout, Response{Ok: true})

	case "hash_to_curve":
		id, err := hex.DecodeString(req.IDHex)
		if err != nil {
			writeResp(os.Stdout, Response{Ok: false, Err: "bad id hex"})
			return
		}
		p, counter, err := curve.HashToCurve(id)
		if err != nil {
			writeResp(os.Stdout, fail(err))
			return
		}
		x, y := p.Coords()
		writeResp(os.Stdout, Response{
			Ok:      true,
			XHex:    hex.EncodeToString(x[:]),
			YHex:    hex.EncodeToString(y[:]),
			Counter: counter,
		})

	case "parse_state":
		stateBytes, err := hex.DecodeString(req.StateHex)
		if err != nil {
			writeResp(os.Stdout, Response{Ok: false, Err: "bad state hex"})
			return
		}
		st, err := consensus.ParseStateScript(stateBytes)
		if err != nil {
			writeResp(os.Stdout, fail(err))
			return
		}
		raw, err := json.Marshal(map[string]any{
			"token_id":       hex.EncodeToString(st.TokenID[:]),
			"owner_key_hash": hex.EncodeToString(st.OwnerKeyHash[:]),
			"slot_id":        hex.EncodeToString(st.SlotID[:]),
			"type":           st.Type,
			"amount":         st.Amount,
			"acc_x":          hex.EncodeToString(st.AccX[:]),
			"acc_y":          hex.EncodeToString(st.AccY[:]),
		})
		if err != nil {
			writeResp(os.Stdout, Response{Ok: false, Err: err.Error()})
			return
		}
		writeResp(os.Stdout, Response{Ok: true, State: raw})

	case "sighash_digest":
		if req.Tx == nil {
			writeResp(os.Stdout, Response{Ok: false, Err: "tx required"})
			return
		}
		tx, err := decodeTx(req.Tx)
		if err != nil {
			writeResp(os.Stdout, Response{Ok: false, Err: err.Error()})
			return
		}
		scriptCode, err := hex.DecodeString(req.StateHex)
		if err != nil {
			writeResp(os.Stdout, Response{Ok: false, Err: "bad state hex"})
			return
		}
		pre, err := consensus.BuildPreimage(crypto.DevStdProvider{}, tx, req.InputIndex, scriptCode, req.InputValue)
		if err != nil {
			writeResp(os.Stdout, fail(err))
			return
		}
		preBytes := pre.Bytes()
		digest := crypto.DevStdProvider{}.Hash256(preBytes)
		writeResp(os.Stdout, Response{
			Ok:          true,
			PreimageHex: hex.EncodeToString(preBytes),
			DigestHex:   hex.EncodeToString(digest[:]),
		})

	default:
		writeResp(os.Stdout, Response{Ok: false, Err: "unknown op"})
	}
}
