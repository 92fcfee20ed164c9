package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tokenledger/internal/config"
)

// response is CLIResponse with a typed payload.
type response[T any] struct {
	Status  string    `json:"status"`
	Data    T         `json:"data"`
	Error   *CLIError `json:"error"`
	TraceID string    `json:"trace_id"`
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func decode[T any](t *testing.T, out string) response[T] {
	t.Helper()
	var resp response[T]
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	return resp
}

// ledger is an initialized ledger in a temp dir, addressed through its
// config file.
type ledger struct {
	t      *testing.T
	dir    string
	config string
}

func newLedger(t *testing.T) *ledger {
	t.Helper()
	dir := t.TempDir()
	l := &ledger{t: t, dir: dir, config: filepath.Join(dir, "ledger.cue")}

	out, err := runCLI(t,
		"--config", l.config,
		"--db", filepath.Join(dir, "ledger.db"),
		"--keyring", filepath.Join(dir, "keys"),
		"--format", "json",
		"init")
	require.NoError(t, err)
	resp := decode[InitResult](t, out)
	require.True(t, resp.Data.ConfigWritten)
	return l
}

func (l *ledger) run(args ...string) (string, error) {
	l.t.Helper()
	return runCLI(l.t, append([]string{"--config", l.config}, args...)...)
}

func (l *ledger) must(args ...string) string {
	l.t.Helper()
	out, err := l.run(args...)
	require.NoError(l.t, err, out)
	return out
}

// gold sets up issuer, alice and bob with a gold token, both balance
// accounts created and 100 minted to alice. Seqs 1-7 are used.
func (l *ledger) gold() {
	l.t.Helper()
	for _, name := range []string{"issuer", "alice", "bob"} {
		l.must("keygen", name)
	}
	l.must("provision", "gold", "--kind", "token")
	l.must("provision", "alice_gold", "--kind", "balance")
	l.must("provision", "bob_gold", "--kind", "balance")
	l.must("create-token", "gold", "--authority", "issuer")
	l.must("create-account", "alice_gold", "--token", "gold", "--owner", "alice")
	l.must("create-account", "bob_gold", "--token", "gold", "--owner", "bob")
	l.must("mint", "alice_gold", "100", "--token", "gold", "--authority", "issuer")
}

func TestInit_WritesConfig(t *testing.T) {
	l := newLedger(t)

	data, err := os.ReadFile(l.config)
	require.NoError(t, err)
	assert.Contains(t, string(data), filepath.Join(l.dir, "ledger.db"))
	assert.DirExists(t, filepath.Join(l.dir, "keys"))

	// Re-running keeps the existing config.
	out := l.must("--format", "json", "init")
	assert.False(t, decode[InitResult](t, out).Data.ConfigWritten)
}

func TestRenderConfig_ParsesBack(t *testing.T) {
	cfg := config.Default()
	cfg.DB = `/tmp/my "ledger"/ledger.db`
	cfg.Keyring = `C:\keys`
	cfg.LogLevel = "debug"

	got, err := config.Parse([]byte(renderConfig(cfg)))
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestCommands_RequireInit(t *testing.T) {
	dir := t.TempDir()
	_, err := runCLI(t, "--db", filepath.Join(dir, "missing.db"), "--keyring", filepath.Join(dir, "keys"), "log")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "tokenledger init")
}

func TestLedger_TransferFlow(t *testing.T) {
	l := newLedger(t)
	l.gold()

	out := l.must("--format", "json", "transfer", "alice_gold", "bob_gold", "40", "--owner", "alice")
	receipt := decode[ReceiptResult](t, out)
	assert.Equal(t, "ok", receipt.Status)
	assert.Equal(t, int64(8), receipt.Data.Seq)
	assert.Equal(t, "Transfer", receipt.Data.Op)
	assert.Equal(t, "ok", receipt.Data.Status)
	assert.NotEmpty(t, receipt.TraceID)

	out = l.must("--format", "json", "show", "alice_gold")
	alice := decode[SlotView](t, out).Data
	assert.True(t, alice.Initialized)
	assert.Equal(t, "alice_gold", alice.Name)
	assert.Equal(t, "alice", alice.Owner)
	assert.Equal(t, "gold", alice.Token)
	require.NotNil(t, alice.Amount)
	assert.Equal(t, uint64(60), *alice.Amount)

	out = l.must("show", "gold")
	assert.Contains(t, out, "authority: issuer")
	assert.Contains(t, out, "supply:    100")
}

func TestLedger_RejectedInstructionIsLogged(t *testing.T) {
	l := newLedger(t)
	l.gold()

	out, err := l.run("--format", "json", "transfer", "alice_gold", "bob_gold", "1000", "--owner", "alice")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.True(t, Reported(err), "the JSON response already carries the error")
	resp := decode[any](t, out)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INSUFFICIENT_FUNDS", resp.Error.Code)

	// Bob does not own alice_gold.
	_, err = l.run("transfer", "alice_gold", "bob_gold", "1", "--owner", "bob")
	assert.Equal(t, ExitFailure, GetExitCode(err))

	out = l.must("--format", "json", "log")
	entries := decode[LogResult](t, out).Data
	require.Equal(t, 6, entries.Total)
	assert.Equal(t, int64(4), entries.Entries[0].Seq)
	assert.Equal(t, "CreateToken", entries.Entries[0].Op)
	assert.Equal(t, []string{"gold", "issuer"}, entries.Entries[0].Accounts)
	assert.Equal(t, []string{"issuer"}, entries.Entries[3].Signers)

	out = l.must("--format", "json", "log", "--failed")
	failed := decode[LogResult](t, out).Data
	require.Equal(t, 2, failed.Total)
	assert.Equal(t, int64(8), failed.Entries[0].Seq)
	assert.Equal(t, "INSUFFICIENT_FUNDS", failed.Entries[0].Status)
	assert.Equal(t, int64(9), failed.Entries[1].Seq)
	assert.Equal(t, "UNAUTHORIZED", failed.Entries[1].Status)

	// Balances are untouched.
	out = l.must("--format", "json", "show", "alice_gold")
	assert.Equal(t, uint64(100), *decode[SlotView](t, out).Data.Amount)
}

func TestLedger_Exec(t *testing.T) {
	l := newLedger(t)
	l.gold()

	// Transfer(40) from alice_gold to bob_gold.
	out := l.must("--format", "json", "exec",
		"--data", "3L9cWFEdYKAw",
		"--account", "alice_gold", "--account", "bob_gold", "--account", "alice",
		"--signer", "alice")
	assert.Equal(t, "Transfer", decode[ReceiptResult](t, out).Data.Op)

	out = l.must("--format", "json", "show", "bob_gold")
	assert.Equal(t, uint64(40), *decode[SlotView](t, out).Data.Amount)

	// Unsigned: the owner is listed but no signature is attached.
	out, err := l.run("--format", "json", "exec",
		"--data", "3L9cWFEdYKAw",
		"--account", "alice_gold", "--account", "bob_gold", "--account", "alice")
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "MISSING_SIGNATURE", decode[any](t, out).Error.Code)

	_, err = l.run("exec", "--data", "0OIl", "--account", "alice_gold")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestLedger_CommandErrors(t *testing.T) {
	l := newLedger(t)
	l.gold()

	tests := []struct {
		name string
		args []string
	}{
		{"bad amount", []string{"mint", "alice_gold", "ten", "--token", "gold", "--authority", "issuer"}},
		{"amount overflows u64", []string{"transfer", "alice_gold", "bob_gold", "18446744073709551616", "--owner", "alice"}},
		{"unknown account", []string{"transfer", "alice_gold", "carol_gold", "1", "--owner", "alice"}},
		{"duplicate slot", []string{"provision", "gold", "--kind", "token"}},
		{"bad kind", []string{"provision", "silver", "--kind", "coin"}},
		{"no slot", []string{"show", "issuer"}},
		{"duplicate key", []string{"keygen", "alice"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.run(tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
		})
	}
}

func TestLedger_ShowUninitialized(t *testing.T) {
	l := newLedger(t)
	l.must("provision", "silver", "--kind", "token")

	out := l.must("--format", "json", "show", "silver")
	view := decode[SlotView](t, out).Data
	assert.False(t, view.Initialized)
	assert.Equal(t, "token", view.Kind)
	assert.Equal(t, int64(1), view.CreatedSeq)
	assert.Nil(t, view.Supply)
}

func TestLedger_KeygenList(t *testing.T) {
	l := newLedger(t)
	l.must("keygen", "bob")
	l.must("keygen", "alice")

	out := l.must("--format", "json", "keygen", "--list")
	keys := decode[KeyList](t, out).Data
	require.Len(t, keys, 2)
	assert.Equal(t, "alice", keys[0].Name)
	assert.Equal(t, "bob", keys[1].Name)
}

func TestLedger_Replay(t *testing.T) {
	l := newLedger(t)
	l.gold()
	l.must("transfer", "alice_gold", "bob_gold", "40", "--owner", "alice")
	_, _ = l.run("transfer", "alice_gold", "bob_gold", "1000", "--owner", "alice")

	out := l.must("--format", "json", "replay")
	report := decode[ReplayResult](t, out).Data
	assert.Equal(t, 3, report.Slots)
	assert.Equal(t, 6, report.Instructions)
	assert.Empty(t, report.Divergences)
	assert.Equal(t, report.StateHash, report.ReplayHash)

	out = l.must("replay")
	assert.Contains(t, out, "✓ Replay matches")
}
