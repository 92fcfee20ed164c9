package ir

import "fmt"

// Tag is the one-byte discriminant of an encoded instruction.
type Tag uint8

const (
	TagCreateToken        Tag = 0
	TagCreateTokenAccount Tag = 1
	TagMint               Tag = 2
	TagTransfer           Tag = 3
)

// String returns the operation name for the tag.
func (t Tag) String() string {
	switch t {
	case TagCreateToken:
		return "CreateToken"
	case TagCreateTokenAccount:
		return "CreateTokenAccount"
	case TagMint:
		return "Mint"
	case TagTransfer:
		return "Transfer"
	default:
		return fmt.Sprintf("Tag(%d)", uint8(t))
	}
}

// Instruction is a sealed interface over the four ledger operations.
// Only CreateToken, CreateTokenAccount, Mint and Transfer implement it.
type Instruction interface {
	Tag() Tag
	// Accounts is the number of positional accounts the operation consumes.
	Accounts() int
	instruction()
}

// CreateToken initializes a token definition slot.
// Accounts: [token definition slot, authority].
type CreateToken struct{}

// CreateTokenAccount initializes a balance account slot.
// Accounts: [balance slot, token definition, owner].
type CreateTokenAccount struct{}

// Mint creates new supply into a balance account.
// Accounts: [destination balance, token definition, authority (signer)].
type Mint struct {
	Amount uint64 `json:"amount"`
}

// Transfer moves balance between two accounts of the same token.
// Accounts: [source balance, destination balance, owner (signer)].
type Transfer struct {
	Amount uint64 `json:"amount"`
}

func (CreateToken) Tag() Tag        { return TagCreateToken }
func (CreateTokenAccount) Tag() Tag { return TagCreateTokenAccount }
func (Mint) Tag() Tag               { return TagMint }
func (Transfer) Tag() Tag           { return TagTransfer }

func (CreateToken) Accounts() int        { return 2 }
func (CreateTokenAccount) Accounts() int { return 3 }
func (Mint) Accounts() int               { return 3 }
func (Transfer) Accounts() int           { return 3 }

func (CreateToken) instruction()        {}
func (CreateTokenAccount) instruction() {}
func (Mint) instruction()               {}
func (Transfer) instruction()           {}
