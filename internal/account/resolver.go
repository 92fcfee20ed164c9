// Package account exposes host-supplied accounts to the ledger core as
// positional, typed handles.
//
// The resolver performs no business validation; it only hands out accounts in
// the order the instruction declares them and reports when too few were
// supplied.
package account

import (
	"errors"
	"fmt"

	"github.com/roach88/tokenledger/internal/ir"
)

// ErrMissingAccount is returned when an instruction declares more positional
// accounts than the host supplied.
var ErrMissingAccount = errors.New("missing account")

// Handle is one host-supplied account for the duration of one instruction.
//
// Data is the slot's current bytes. The core writes new record bytes into it
// in place; the host commits the buffer after a successful return.
type Handle struct {
	Key      ir.Address
	Data     []byte
	IsSigner bool
}

// Resolver walks the host's ordered account list.
type Resolver struct {
	accounts []*Handle
	pos      int
}

// NewResolver creates a resolver positioned at the first account.
func NewResolver(accounts []*Handle) *Resolver {
	return &Resolver{accounts: accounts}
}

// Next returns the next positional account.
func (r *Resolver) Next() (*Handle, error) {
	if r.pos >= len(r.accounts) {
		return nil, fmt.Errorf("%w: position %d of %d supplied", ErrMissingAccount, r.pos, len(r.accounts))
	}
	h := r.accounts[r.pos]
	r.pos++
	return h, nil
}

// Take resolves n accounts at once. Either all n are returned or none are and
// the cursor does not move.
func (r *Resolver) Take(n int) ([]*Handle, error) {
	if remaining := len(r.accounts) - r.pos; remaining < n {
		return nil, fmt.Errorf("%w: need %d accounts, %d remaining", ErrMissingAccount, n, remaining)
	}
	out := r.accounts[r.pos : r.pos+n]
	r.pos += n
	return out, nil
}

// Remaining reports how many accounts have not been resolved.
func (r *Resolver) Remaining() int {
	return len(r.accounts) - r.pos
}
