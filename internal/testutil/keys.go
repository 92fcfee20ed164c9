package testutil

import (
	"crypto/ed25519"
	"crypto/sha256"

	"github.com/gagliardetto/solana-go"
)

// Key returns a deterministic ed25519 keypair for name. The seed is
// SHA-256("tokenledger/testkey/" + name), so the same name always yields the
// same address across runs and packages.
func Key(name string) solana.PrivateKey {
	seed := sha256.Sum256([]byte("tokenledger/testkey/" + name))
	return solana.PrivateKey(ed25519.NewKeyFromSeed(seed[:]))
}

// Address returns the public key of Key(name).
func Address(name string) solana.PublicKey {
	return Key(name).PublicKey()
}
