// Package ir provides the canonical types shared by every tokenledger package.
//
// This package contains type definitions and identity helpers only. All other
// internal packages import ir; ir imports nothing internal, which keeps it the
// foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Addresses are 32-byte ed25519 public keys (solana.PublicKey), rendered in base58
//   - Balances and supply are uint64 base units, never floats
//   - Instruction is a sealed sum type; only the four operations implement it
//   - Logical clocks (seq) only, never wall-clock timestamps
package ir
