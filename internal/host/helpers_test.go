package host

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tokenledger/internal/codec"
	"github.com/roach88/tokenledger/internal/ir"
	"github.com/roach88/tokenledger/internal/store"
	"github.com/roach88/tokenledger/internal/testutil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestRuntime creates a runtime over a fresh in-memory store with a
// deterministic clock and trace ID.
func newTestRuntime(t *testing.T) *Runtime {
	t.Helper()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	rt, err := New(context.Background(), st,
		WithLogger(discardLogger()),
		WithClock(testutil.NewDeterministicClock()),
		WithTraceGenerator(testutil.NewFixedTraceGenerator("trace-host")),
	)
	require.NoError(t, err)
	return rt
}

// request builds a request over named accounts, signed by signers.
func request(t *testing.T, ins ir.Instruction, accounts []string, signers ...string) Request {
	t.Helper()
	req := Request{Data: codec.EncodeInstruction(ins)}
	for _, name := range accounts {
		req.Accounts = append(req.Accounts, testutil.Address(name))
	}
	keys := make([]solana.PrivateKey, len(signers))
	for i, name := range signers {
		keys[i] = testutil.Key(name)
	}
	require.NoError(t, req.Sign(keys...))
	return req
}

func mustExecute(t *testing.T, rt *Runtime, req Request) *Receipt {
	t.Helper()
	receipt, err := rt.Execute(context.Background(), req)
	require.NoError(t, err)
	require.NoError(t, receipt.Err)
	return receipt
}

func mustProvision(t *testing.T, rt *Runtime, name string, kind ir.SlotKind) {
	t.Helper()
	_, err := rt.Provision(context.Background(), testutil.Address(name), kind)
	require.NoError(t, err)
}

// setupGold provisions and initializes the "gold" token with balance accounts
// for alice and bob, then mints 100 to alice.
func setupGold(t *testing.T, rt *Runtime) {
	t.Helper()
	mustProvision(t, rt, "gold", ir.SlotToken)
	mustProvision(t, rt, "alice_gold", ir.SlotBalance)
	mustProvision(t, rt, "bob_gold", ir.SlotBalance)

	mustExecute(t, rt, request(t, ir.CreateToken{}, []string{"gold", "alice"}))
	mustExecute(t, rt, request(t, ir.CreateTokenAccount{}, []string{"alice_gold", "gold", "alice"}))
	mustExecute(t, rt, request(t, ir.CreateTokenAccount{}, []string{"bob_gold", "gold", "bob"}))
	mustExecute(t, rt, request(t, ir.Mint{Amount: 100}, []string{"alice_gold", "gold", "alice"}, "alice"))
}

func balanceOf(t *testing.T, rt *Runtime, name string) uint64 {
	t.Helper()
	slot, err := rt.Store().LoadAccount(context.Background(), testutil.Address(name))
	require.NoError(t, err)
	ba, err := codec.DecodeBalanceAccount(slot.Data)
	require.NoError(t, err)
	return ba.Amount
}

func supplyOf(t *testing.T, rt *Runtime, name string) uint64 {
	t.Helper()
	slot, err := rt.Store().LoadAccount(context.Background(), testutil.Address(name))
	require.NoError(t, err)
	td, err := codec.DecodeTokenDefinition(slot.Data)
	require.NoError(t, err)
	return td.Supply
}
