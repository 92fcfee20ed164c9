package ir

import "github.com/gagliardetto/solana-go"

// Address identifies an account slot, a token definition or a key holder.
type Address = solana.PublicKey

// AddressLength is the fixed width of an Address in persisted records.
const AddressLength = solana.PublicKeyLength

// Persisted record sizes in bytes.
const (
	TokenDefinitionSize = AddressLength + 8
	BalanceAccountSize  = 2*AddressLength + 8
)

// TokenDefinition describes one fungible token type.
type TokenDefinition struct {
	Authority Address `json:"authority"` // permitted to mint; set once at creation
	Supply    uint64  `json:"supply"`    // total minted units outstanding
}

// BalanceAccount holds one holder's balance of one token type.
type BalanceAccount struct {
	Owner  Address `json:"owner"`  // permitted to transfer out; immutable
	Token  Address `json:"token"`  // token definition this balance belongs to; immutable
	Amount uint64  `json:"amount"` // balance in base units
}

// SlotKind names the record type a storage slot was provisioned for.
type SlotKind string

const (
	SlotToken   SlotKind = "token"
	SlotBalance SlotKind = "balance"
)

// Size returns the persisted byte size for records of this kind, or 0 if unknown.
func (k SlotKind) Size() int {
	switch k {
	case SlotToken:
		return TokenDefinitionSize
	case SlotBalance:
		return BalanceAccountSize
	default:
		return 0
	}
}

// ValidSlotKinds defines allowed slot kinds.
var ValidSlotKinds = map[SlotKind]bool{
	SlotToken:   true,
	SlotBalance: true,
}
