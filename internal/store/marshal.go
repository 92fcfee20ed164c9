package store

import (
	"encoding/json"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/roach88/tokenledger/internal/ir"
)

// accountRefJSON is the stored shape of one positional account.
type accountRefJSON struct {
	Address string `json:"address"`
	Signer  bool   `json:"signer"`
}

// marshalAccounts converts the positional account list to canonical JSON TEXT.
func marshalAccounts(refs []ir.AccountRef) (string, error) {
	list := make([]any, len(refs))
	for i, r := range refs {
		list[i] = map[string]any{
			"address": r.Address.String(),
			"signer":  r.Signer,
		}
	}
	data, err := ir.MarshalCanonical(list)
	if err != nil {
		return "", fmt.Errorf("marshal accounts: %w", err)
	}
	return string(data), nil
}

// unmarshalAccounts parses the stored account list.
func unmarshalAccounts(data string) ([]ir.AccountRef, error) {
	var raw []accountRefJSON
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return nil, fmt.Errorf("unmarshal accounts: %w", err)
	}
	refs := make([]ir.AccountRef, len(raw))
	for i, r := range raw {
		addr, err := solana.PublicKeyFromBase58(r.Address)
		if err != nil {
			return nil, fmt.Errorf("unmarshal accounts[%d]: %w", i, err)
		}
		refs[i] = ir.AccountRef{Address: addr, Signer: r.Signer}
	}
	return refs, nil
}

// parseAddress parses a base58 address column.
func parseAddress(s string) (ir.Address, error) {
	addr, err := solana.PublicKeyFromBase58(s)
	if err != nil {
		return ir.Address{}, fmt.Errorf("parse address %q: %w", s, err)
	}
	return addr, nil
}
