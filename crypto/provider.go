package crypto

// Provider is the narrow crypto interface used by consensus code.
// Implementations may swap in hardware-backed or accelerated backends.
type Provider interface {
	// Hash256 is the chain's double SHA-256 digest.
	Hash256(input []byte) [32]byte
	// Hash160 is RIPEMD-160 over SHA-256, the owner-key commitment digest.
	Hash160(input []byte) [20]byte
	// VerifyECDSA checks a DER-encoded secp256k1 signature over digest32
	// for the given SEC-encoded public key.
	VerifyECDSA(pubkey []byte, sig []byte, digest32 [32]byte) bool
}
