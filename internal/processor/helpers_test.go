package processor

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/tokenledger/internal/account"
	"github.com/roach88/tokenledger/internal/codec"
	"github.com/roach88/tokenledger/internal/ir"
	"github.com/roach88/tokenledger/internal/testutil"
)

func newTestProcessor() *Processor {
	return New(WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

// ledger is an in-memory stand-in for the host: named slots plus signer flags.
type ledger struct {
	t     *testing.T
	p     *Processor
	slots map[string][]byte
}

func newLedger(t *testing.T) *ledger {
	t.Helper()
	return &ledger{t: t, p: newTestProcessor(), slots: make(map[string][]byte)}
}

func (l *ledger) provision(name string, kind ir.SlotKind) {
	l.slots[name] = make([]byte, kind.Size())
}

// handle builds the handle for name. A trailing "!" marks the account as signer.
func (l *ledger) handle(ref string) *account.Handle {
	name, signer := ref, false
	if n := len(ref); n > 0 && ref[n-1] == '!' {
		name, signer = ref[:n-1], true
	}
	return &account.Handle{
		Key:      testutil.Address(name),
		Data:     l.slots[name],
		IsSigner: signer,
	}
}

func (l *ledger) run(ins ir.Instruction, refs ...string) error {
	handles := make([]*account.Handle, len(refs))
	for i, ref := range refs {
		handles[i] = l.handle(ref)
	}
	return l.p.Process(handles, codec.EncodeInstruction(ins))
}

func (l *ledger) mustRun(ins ir.Instruction, refs ...string) {
	l.t.Helper()
	require.NoError(l.t, l.run(ins, refs...))
}

func (l *ledger) token(name string) ir.TokenDefinition {
	l.t.Helper()
	td, err := codec.DecodeTokenDefinition(l.slots[name])
	require.NoError(l.t, err)
	return td
}

func (l *ledger) balance(name string) ir.BalanceAccount {
	l.t.Helper()
	ba, err := codec.DecodeBalanceAccount(l.slots[name])
	require.NoError(l.t, err)
	return ba
}

// snapshot copies every slot so tests can assert nothing changed.
func (l *ledger) snapshot() map[string][]byte {
	out := make(map[string][]byte, len(l.slots))
	for k, v := range l.slots {
		out[k] = append([]byte(nil), v...)
	}
	return out
}

// setup creates token "gold" with authority "authority", and balance accounts
// "alice_gold" (owner alice) and "bob_gold" (owner bob), then mints 100 to alice.
func setup(t *testing.T) *ledger {
	t.Helper()
	l := newLedger(t)
	l.provision("gold", ir.SlotToken)
	l.provision("alice_gold", ir.SlotBalance)
	l.provision("bob_gold", ir.SlotBalance)

	l.mustRun(ir.CreateToken{}, "gold", "authority")
	l.mustRun(ir.CreateTokenAccount{}, "alice_gold", "gold", "alice")
	l.mustRun(ir.CreateTokenAccount{}, "bob_gold", "gold", "bob")
	l.mustRun(ir.Mint{Amount: 100}, "alice_gold", "gold", "authority!")
	return l
}
