package builder

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"

	"kestrel.dev/ledger/crypto"
)

// Keypair holds the owner key controlling a token thread.
type Keypair struct {
	priv *btcec.PrivateKey
}

func NewKeypair() (*Keypair, error) {
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, err
	}
	return &Keypair{priv: priv}, nil
}

// KeypairFromBytes derives a keypair from raw 32-byte key material. Intended
// for tests and tooling that need deterministic keys.
func KeypairFromBytes(b []byte) *Keypair {
	priv, _ := btcec.PrivKeyFromBytes(b)
	return &Keypair{priv: priv}
}

// PubKeyBytes returns the 33-byte compressed public key.
func (k *Keypair) PubKeyBytes() []byte {
	return k.priv.PubKey().SerializeCompressed()
}

// OwnerKeyHash returns Hash160 of the compressed public key, the commitment
// the locked state carries.
func (k *Keypair) OwnerKeyHash(p crypto.Provider) [20]byte {
	return p.Hash160(k.PubKeyBytes())
}

// SignPreimage produces the DER signature over Hash256 of the serialised
// sighash preimage, i.e. the data signature the verifier's auth check
// expects.
func (k *Keypair) SignPreimage(p crypto.Provider, preimage []byte) []byte {
	digest := p.Hash256(preimage)
	return ecdsa.Sign(k.priv, digest[:]).Serialize()
}
