package processor

import (
	"fmt"

	"github.com/roach88/tokenledger/internal/account"
	"github.com/roach88/tokenledger/internal/ir"
)

// OperationContext holds the resolved, role-named handles for one
// instruction. It is built once, before any record is loaded, so every later
// check works on validated positions rather than re-walking the account list.
//
// Roles per operation:
//
//	Operation           Target               Token        Recipient    Authority
//	CreateToken         token slot           -            -            authority
//	CreateTokenAccount  balance slot         definition   -            owner
//	Mint                destination balance  definition   -            authority (signer)
//	Transfer            source balance       -            destination  owner (signer)
type OperationContext struct {
	Instruction ir.Instruction
	Target      *account.Handle
	Token       *account.Handle
	Recipient   *account.Handle
	Authority   *account.Handle
}

// resolveContext pulls the accounts an instruction needs, in order. The account
// count is checked up front; nothing has been loaded or written when it fails.
func resolveContext(ins ir.Instruction, accounts []*account.Handle) (*OperationContext, error) {
	handles, err := account.NewResolver(accounts).Take(ins.Accounts())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ins.Tag(), err)
	}

	oc := &OperationContext{Instruction: ins, Target: handles[0]}
	switch ins.(type) {
	case ir.CreateToken:
		oc.Authority = handles[1]
	case ir.CreateTokenAccount, ir.Mint:
		oc.Token = handles[1]
		oc.Authority = handles[2]
	case ir.Transfer:
		oc.Recipient = handles[1]
		oc.Authority = handles[2]
	}
	return oc, nil
}

// pendingWrite is one encoded record waiting for the commit phase.
type pendingWrite struct {
	handle *account.Handle
	data   []byte
}

// commit copies every pending record into its buffer. Lengths were checked
// when the records were loaded, so commit cannot fail.
func commit(writes ...pendingWrite) {
	for _, w := range writes {
		copy(w.handle.Data, w.data)
	}
}
