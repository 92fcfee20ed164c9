package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/mr-tron/base58"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainInstruction = "tokenledger/instruction/v1"
	DomainState       = "tokenledger/state/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// InstructionID computes the content-addressed ID of a logged instruction.
// The ID is stable across replays given the same trace, seq, bytes and accounts.
// Signer flags are included: the same bytes with a different attestation are a
// different invocation.
func InstructionID(traceID string, seq int64, data []byte, accounts []AccountRef) (string, error) {
	refs := make([]any, len(accounts))
	for i, a := range accounts {
		refs[i] = map[string]any{
			"address": a.Address.String(),
			"signer":  a.Signer,
		}
	}
	obj := map[string]any{
		"trace_id": traceID,
		"seq":      seq,
		"data":     base58.Encode(data),
		"accounts": refs,
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("InstructionID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainInstruction, canonical), nil
}

// StateHash summarizes a set of slots, ordered as given, for replay comparison.
func StateHash(slots []AccountSlot) string {
	h := sha256.New()
	h.Write([]byte(DomainState))
	h.Write([]byte{0x00})
	for _, s := range slots {
		h.Write(s.Address[:])
		h.Write([]byte(s.Kind))
		h.Write(s.Data)
	}
	return hex.EncodeToString(h.Sum(nil))
}
