package crypto

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	sha256 "github.com/minio/sha256-simd"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // consensus-mandated digest
)

// DevStdProvider is the default software provider.
type DevStdProvider struct{}

func (p DevStdProvider) Hash256(input []byte) [32]byte {
	first := sha256.Sum256(input)
	return sha256.Sum256(first[:])
}

func (p DevStdProvider) Hash160(input []byte) [20]byte {
	first := sha256.Sum256(input)
	h := ripemd160.New()
	_, _ = h.Write(first[:])
	var out [20]byte
	copy(out[:], h.Sum(nil))
	return out
}

func (p DevStdProvider) VerifyECDSA(pubkey []byte, sig []byte, digest32 [32]byte) bool {
	pub, err := btcec.ParsePubKey(pubkey)
	if err != nil {
		return false
	}
	parsed, err := ecdsa.ParseDERSignature(sig)
	if err != nil {
		return false
	}
	return parsed.Verify(digest32[:], pub)
}
