// ledger-scenarios drives the transition verifier end-to-end through the
// protocol's reference scenarios and prints PASS/FAIL per case. With
// -datadir it also persists the surviving thread heads through the store.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"

	"kestrel.dev/ledger/builder"
	"kestrel.dev/ledger/consensus"
	"kestrel.dev/ledger/crypto"
	"kestrel.dev/ledger/store"
)

var provider = crypto.DevStdProvider{}

type scenario struct {
	name     string
	wantCode consensus.ErrorCode // "" means the verifier must accept
	note     string
	run      func() error
}

func fixedKeypair() *builder.Keypair {
	seed := bytes.Repeat([]byte{0x2a}, 32)
	return builder.KeypairFromBytes(seed)
}

func fixtureThread(amount uint64) (*builder.Keypair, *consensus.TokenState, builder.TransferParams, error) {
	kp := fixedKeypair()
	var tokenID [32]byte
	copy(tokenID[:], []byte("kestrel-scenario-asset-0001"))
	prev, err := builder.NewThread(tokenID, kp.OwnerKeyHash(provider), consensus.TOKEN_TYPE_FUNGIBLE, amount)
	if err != nil {
		return nil, nil, builder.TransferParams{}, err
	}
	params := builder.TransferParams{
		PrevOutpoint: consensus.Outpoint{TxID: [32]byte{1}, Vout: 0},
		PrevValue:    546,
		Transfer:     100,
		NextOwner:    kp.OwnerKeyHash(provider),
		NextValue:    546,
	}
	return kp, prev, params, nil
}

// bump32 increments a 32-byte big-endian value by one.
func bump32(b *[32]byte) {
	for i := len(b) - 1; i >= 0; i-- {
		b[i]++
		if b[i] != 0 {
			return
		}
	}
}

func scenarios() []scenario {
	return []scenario{
		{
			name: "transfer_100_accepts",
			run: func() error {
				kp, prev, params, err := fixtureThread(1000)
				if err != nil {
					return err
				}
				_, w, _, err := builder.BuildTransfer(provider, kp, prev, params)
				if err != nil {
					return err
				}
				return consensus.VerifyTransition(provider, prev, w)
			},
		},
		{
			name:     "slope_corrupted_by_one_rejects",
			wantCode: consensus.TX_ERR_INVALID_TRANSITION,
			run: func() error {
				kp, prev, params, err := fixtureThread(1000)
				if err != nil {
					return err
				}
				_, w, _, err := builder.BuildTransfer(provider, kp, prev, params)
				if err != nil {
					return err
				}
				bump32(&w.Slope)
				return consensus.VerifyTransition(provider, prev, w)
			},
		},
		{
			name: "amount_tag_spoof_accepts",
			note: "advisory amount is NOT enforced on-chain; consistency is a wallet-layer duty",
			run: func() error {
				kp, prev, params, err := fixtureThread(1000)
				if err != nil {
					return err
				}
				next, err := builder.NextState(prev, params.Transfer, params.NextOwner)
				if err != nil {
					return err
				}
				next.Amount = 3000 // curve delta still encodes 100
				_, w, err := builder.BuildSpend(provider, kp, prev, next, params)
				if err != nil {
					return err
				}
				return consensus.VerifyTransition(provider, prev, w)
			},
		},
		{
			name:     "token_thread_switch_rejects",
			wantCode: consensus.TX_ERR_LINEAGE_BROKEN,
			run: func() error {
				kp, prev, params, err := fixtureThread(1000)
				if err != nil {
					return err
				}
				next, err := builder.NextState(prev, params.Transfer, params.NextOwner)
				if err != nil {
					return err
				}
				next.TokenID[0] ^= 0xff
				_, w, err := builder.BuildSpend(provider, kp, prev, next, params)
				if err != nil {
					return err
				}
				return consensus.VerifyTransition(provider, prev, w)
			},
		},
		{
			name: "second_output_hidden_from_lineage",
			note: "single-output soundness envelope: a digest claiming one output passes even when the real tx appends another",
			run: func() error {
				kp, prev, params, err := fixtureThread(1000)
				if err != nil {
					return err
				}
				tx, w, _, err := builder.BuildTransfer(provider, kp, prev, params)
				if err != nil {
					return err
				}
				// The spender broadcasts a second output the witness's
				// digest never committed to; the verifier cannot see it.
				tx.Outputs = append(tx.Outputs, consensus.TxOutput{Value: 1, Script: []byte{0x6a}})
				return consensus.VerifyTransition(provider, prev, w)
			},
		},
	}
}

func main() {
	datadir := flag.String("datadir", "", "persist surviving thread heads to this directory")
	flag.Parse()

	failures := 0
	for _, sc := range scenarios() {
		err := sc.run()
		got := consensus.CodeOf(err)
		ok := got == sc.wantCode && (sc.wantCode != "" || err == nil)
		status := "PASS"
		if !ok {
			status = "FAIL"
			failures++
		}
		fmt.Printf("%s  %-36s want=%q got=%v\n", status, sc.name, sc.wantCode, err)
		if sc.note != "" {
			fmt.Printf("      note: %s\n", sc.note)
		}
	}

	if *datadir != "" {
		if err := persistThread(*datadir); err != nil {
			fmt.Fprintf(os.Stderr, "store: %v\n", err)
			failures++
		}
	}

	if failures > 0 {
		os.Exit(1)
	}
}

func persistThread(datadir string) error {
	kp, prev, params, err := fixtureThread(1000)
	if err != nil {
		return err
	}
	_, w, next, err := builder.BuildTransfer(provider, kp, prev, params)
	if err != nil {
		return err
	}
	if err := consensus.VerifyTransition(provider, prev, w); err != nil {
		return err
	}

	db, err := store.Open(datadir)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.PutThread(&store.ThreadRecord{
		Outpoint: consensus.Outpoint{TxID: [32]byte{2}, Vout: 0},
		State:    *next,
	})
}
