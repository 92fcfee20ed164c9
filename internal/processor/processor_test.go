package processor

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tokenledger/internal/account"
	"github.com/roach88/tokenledger/internal/codec"
	"github.com/roach88/tokenledger/internal/ir"
	"github.com/roach88/tokenledger/internal/testutil"
)

func TestLedgerScenario(t *testing.T) {
	l := newLedger(t)
	l.provision("gold", ir.SlotToken)
	l.provision("alice_gold", ir.SlotBalance)
	l.provision("bob_gold", ir.SlotBalance)

	l.mustRun(ir.CreateToken{}, "gold", "authority")
	assert.Equal(t, ir.TokenDefinition{Authority: testutil.Address("authority"), Supply: 0}, l.token("gold"))

	l.mustRun(ir.CreateTokenAccount{}, "alice_gold", "gold", "alice")
	assert.Equal(t, ir.BalanceAccount{
		Owner:  testutil.Address("alice"),
		Token:  testutil.Address("gold"),
		Amount: 0,
	}, l.balance("alice_gold"))
	l.mustRun(ir.CreateTokenAccount{}, "bob_gold", "gold", "bob")

	l.mustRun(ir.Mint{Amount: 100}, "alice_gold", "gold", "authority!")
	assert.Equal(t, uint64(100), l.token("gold").Supply)
	assert.Equal(t, uint64(100), l.balance("alice_gold").Amount)

	l.mustRun(ir.Transfer{Amount: 40}, "alice_gold", "bob_gold", "alice!")
	assert.Equal(t, uint64(60), l.balance("alice_gold").Amount)
	assert.Equal(t, uint64(40), l.balance("bob_gold").Amount)
	assert.Equal(t, uint64(100), l.token("gold").Supply)

	before := l.snapshot()
	err := l.run(ir.Transfer{Amount: 1000}, "alice_gold", "bob_gold", "alice!")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientFunds))
	assert.Equal(t, before, l.snapshot())
	assert.Equal(t, uint64(60), l.balance("alice_gold").Amount)
	assert.Equal(t, uint64(40), l.balance("bob_gold").Amount)
}

func TestCreateToken_AlreadyInitialized(t *testing.T) {
	l := setup(t)
	before := l.snapshot()

	err := l.run(ir.CreateToken{}, "gold", "mallory")
	assert.ErrorIs(t, err, ErrAlreadyInitialized)
	assert.Equal(t, before, l.snapshot(), "supply must not be reset")
}

func TestCreate_ZeroAddressRejected(t *testing.T) {
	l := newLedger(t)
	l.provision("gold", ir.SlotToken)
	l.provision("alice_gold", ir.SlotBalance)
	zero := &account.Handle{Key: ir.Address{}}

	err := l.p.Process([]*account.Handle{l.handle("gold"), zero}, codec.EncodeInstruction(ir.CreateToken{}))
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.True(t, codec.IsZeroed(l.slots["gold"]))

	// With a real authority in place, nobody can take the token over.
	l.mustRun(ir.CreateToken{}, "gold", "authority")
	err = l.run(ir.CreateToken{}, "gold", "mallory")
	assert.ErrorIs(t, err, ErrAlreadyInitialized)
	assert.Equal(t, testutil.Address("authority"), l.token("gold").Authority)

	err = l.p.Process(
		[]*account.Handle{l.handle("alice_gold"), l.handle("gold"), zero},
		codec.EncodeInstruction(ir.CreateTokenAccount{}),
	)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.True(t, codec.IsZeroed(l.slots["alice_gold"]))
}

func TestCreateTokenAccount_AlreadyInitialized(t *testing.T) {
	l := setup(t)
	before := l.snapshot()

	err := l.run(ir.CreateTokenAccount{}, "alice_gold", "gold", "mallory")
	assert.ErrorIs(t, err, ErrAlreadyInitialized)
	assert.Equal(t, before, l.snapshot())
}

func TestCreate_WrongSlotSize(t *testing.T) {
	l := newLedger(t)
	l.provision("balance_slot", ir.SlotBalance)
	l.provision("token_slot", ir.SlotToken)

	err := l.run(ir.CreateToken{}, "balance_slot", "authority")
	assert.ErrorIs(t, err, ErrDecode)

	err = l.run(ir.CreateTokenAccount{}, "token_slot", "gold", "alice")
	assert.ErrorIs(t, err, ErrDecode)
}

func TestMint_Authorization(t *testing.T) {
	tests := []struct {
		name      string
		authority string
		want      *ProgramError
	}{
		{"authority not signing", "authority", ErrMissingSignature},
		{"other signer", "mallory!", ErrUnauthorized},
		{"owner of destination signing", "alice!", ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := setup(t)
			before := l.snapshot()

			err := l.run(ir.Mint{Amount: 5}, "alice_gold", "gold", tt.authority)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, before, l.snapshot(), "rejected mint must not mutate any record")
		})
	}
}

func TestMint_TokenMismatch(t *testing.T) {
	l := setup(t)
	l.provision("silver", ir.SlotToken)
	l.provision("alice_silver", ir.SlotBalance)
	l.mustRun(ir.CreateToken{}, "silver", "authority")
	l.mustRun(ir.CreateTokenAccount{}, "alice_silver", "silver", "alice")
	before := l.snapshot()

	err := l.run(ir.Mint{Amount: 5}, "alice_silver", "gold", "authority!")
	assert.ErrorIs(t, err, ErrTokenMismatch)
	assert.Equal(t, before, l.snapshot())
}

func TestMint_Overflow(t *testing.T) {
	l := setup(t)
	before := l.snapshot()

	err := l.run(ir.Mint{Amount: math.MaxUint64}, "bob_gold", "gold", "authority!")
	assert.ErrorIs(t, err, ErrOverflow)
	assert.Equal(t, before, l.snapshot())
}

func TestMint_UpToMax(t *testing.T) {
	l := setup(t)
	l.mustRun(ir.Mint{Amount: math.MaxUint64 - 100}, "bob_gold", "gold", "authority!")
	assert.Equal(t, uint64(math.MaxUint64), l.token("gold").Supply)
	assert.Equal(t, uint64(math.MaxUint64-100), l.balance("bob_gold").Amount)
}

func TestMint_SignatureCheckedBeforeArithmetic(t *testing.T) {
	l := setup(t)
	err := l.run(ir.Mint{Amount: math.MaxUint64}, "alice_gold", "gold", "authority")
	assert.ErrorIs(t, err, ErrMissingSignature, "authorization precedes overflow detection")
}

func TestTransfer_Authorization(t *testing.T) {
	tests := []struct {
		name  string
		owner string
		want  *ProgramError
	}{
		{"owner not signing", "alice", ErrMissingSignature},
		{"recipient signing", "bob!", ErrUnauthorized},
		{"token authority signing", "authority!", ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := setup(t)
			before := l.snapshot()

			err := l.run(ir.Transfer{Amount: 10}, "alice_gold", "bob_gold", tt.owner)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, before, l.snapshot(), "rejected transfer must not mutate any record")
		})
	}
}

func TestTransfer_SignatureCheckedBeforeFunds(t *testing.T) {
	l := setup(t)
	err := l.run(ir.Transfer{Amount: 1000}, "alice_gold", "bob_gold", "alice")
	assert.ErrorIs(t, err, ErrMissingSignature)
}

func TestTransfer_EntireBalance(t *testing.T) {
	l := setup(t)
	l.mustRun(ir.Transfer{Amount: 100}, "alice_gold", "bob_gold", "alice!")
	assert.Equal(t, uint64(0), l.balance("alice_gold").Amount)
	assert.Equal(t, uint64(100), l.balance("bob_gold").Amount)
}

func TestTransfer_InsufficientFunds(t *testing.T) {
	l := setup(t)
	before := l.snapshot()

	err := l.run(ir.Transfer{Amount: 101}, "alice_gold", "bob_gold", "alice!")
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, before, l.snapshot())

	err = l.run(ir.Transfer{Amount: 1}, "bob_gold", "alice_gold", "bob!")
	assert.ErrorIs(t, err, ErrInsufficientFunds, "empty account cannot send")
}

func TestTransfer_ZeroAmount(t *testing.T) {
	l := setup(t)
	l.mustRun(ir.Transfer{Amount: 0}, "bob_gold", "alice_gold", "bob!")
	assert.Equal(t, uint64(100), l.balance("alice_gold").Amount)
}

func TestTransfer_TokenMismatch(t *testing.T) {
	l := setup(t)
	l.provision("silver", ir.SlotToken)
	l.provision("bob_silver", ir.SlotBalance)
	l.mustRun(ir.CreateToken{}, "silver", "authority")
	l.mustRun(ir.CreateTokenAccount{}, "bob_silver", "silver", "bob")
	before := l.snapshot()

	err := l.run(ir.Transfer{Amount: 10}, "alice_gold", "bob_silver", "alice!")
	assert.ErrorIs(t, err, ErrTokenMismatch)
	assert.Equal(t, before, l.snapshot())
}

func TestTransfer_SelfTransferIsNoOp(t *testing.T) {
	l := setup(t)
	before := l.snapshot()

	l.mustRun(ir.Transfer{Amount: 30}, "alice_gold", "alice_gold", "alice!")
	assert.Equal(t, before, l.snapshot())

	err := l.run(ir.Transfer{Amount: 101}, "alice_gold", "alice_gold", "alice!")
	assert.ErrorIs(t, err, ErrInsufficientFunds, "self transfer still checks funds")
}

func TestTransfer_DestinationOverflow(t *testing.T) {
	l := newLedger(t)
	l.provision("gold", ir.SlotToken)
	l.provision("alice_gold", ir.SlotBalance)
	l.provision("bob_gold", ir.SlotBalance)
	l.mustRun(ir.CreateToken{}, "gold", "authority")
	l.mustRun(ir.CreateTokenAccount{}, "alice_gold", "gold", "alice")
	l.mustRun(ir.CreateTokenAccount{}, "bob_gold", "gold", "bob")

	// Forge balances that violate conservation so the destination add overflows.
	l.slots["alice_gold"] = codec.EncodeBalanceAccount(ir.BalanceAccount{
		Owner: testutil.Address("alice"), Token: testutil.Address("gold"), Amount: 10,
	})
	l.slots["bob_gold"] = codec.EncodeBalanceAccount(ir.BalanceAccount{
		Owner: testutil.Address("bob"), Token: testutil.Address("gold"), Amount: math.MaxUint64,
	})
	before := l.snapshot()

	err := l.run(ir.Transfer{Amount: 10}, "alice_gold", "bob_gold", "alice!")
	assert.ErrorIs(t, err, ErrOverflow)
	assert.Equal(t, before, l.snapshot())
}

func TestTransfer_UninitializedSource(t *testing.T) {
	l := setup(t)
	l.provision("empty", ir.SlotBalance)

	// A zeroed balance account has the zero address as owner, which no key signs as.
	err := l.run(ir.Transfer{Amount: 0}, "empty", "bob_gold", "alice!")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestProcess_DecodeErrors(t *testing.T) {
	p := newTestProcessor()
	accounts := []*account.Handle{{}, {}, {}}

	tests := []struct {
		name string
		data []byte
		kind codec.DecodeErrorKind
	}{
		{"empty", nil, codec.KindTruncated},
		{"unknown variant", []byte{7}, codec.KindUnknownVariant},
		{"short amount", []byte{2, 1}, codec.KindTruncated},
		{"trailing", []byte{1, 0}, codec.KindTrailingBytes},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := p.Process(accounts, tt.data)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrDecode)
			assert.Equal(t, CodeDecodeError, CodeOf(err))
			assert.True(t, errors.Is(err, &codec.DecodeError{Kind: tt.kind}))
		})
	}
}

func TestProcess_MissingAccount(t *testing.T) {
	tests := []struct {
		name     string
		ins      ir.Instruction
		accounts int
	}{
		{"create token", ir.CreateToken{}, 1},
		{"create token account", ir.CreateTokenAccount{}, 2},
		{"mint", ir.Mint{Amount: 1}, 2},
		{"transfer", ir.Transfer{Amount: 1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := setup(t)
			before := l.snapshot()
			refs := []string{"alice_gold", "gold", "authority!"}[:tt.accounts]

			err := l.run(tt.ins, refs...)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMissingAccount)
			assert.True(t, errors.Is(err, account.ErrMissingAccount))
			assert.Equal(t, before, l.snapshot())
		})
	}
}

func TestProcess_ExtraAccountsIgnored(t *testing.T) {
	l := setup(t)
	l.mustRun(ir.Transfer{Amount: 1}, "alice_gold", "bob_gold", "alice!", "gold")
	assert.Equal(t, uint64(99), l.balance("alice_gold").Amount)
}

func TestConservationProperty(t *testing.T) {
	l := newLedger(t)
	l.provision("gold", ir.SlotToken)
	l.mustRun(ir.CreateToken{}, "gold", "authority")

	holders := []string{"alice", "bob", "carol", "dave"}
	for _, h := range holders {
		l.provision(h+"_gold", ir.SlotBalance)
		l.mustRun(ir.CreateTokenAccount{}, h+"_gold", "gold", h)
	}

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		from := holders[rng.Intn(len(holders))]
		to := holders[rng.Intn(len(holders))]
		amount := uint64(rng.Intn(50))

		var err error
		switch rng.Intn(3) {
		case 0:
			err = l.run(ir.Mint{Amount: amount}, to+"_gold", "gold", "authority!")
		case 1:
			err = l.run(ir.Transfer{Amount: amount}, from+"_gold", to+"_gold", from+"!")
		case 2:
			// Signed by the wrong party: must always be rejected.
			err = l.run(ir.Transfer{Amount: amount}, from+"_gold", to+"_gold", "mallory!")
			require.ErrorIs(t, err, ErrUnauthorized)
		}
		if err != nil {
			code := CodeOf(err)
			require.Contains(t, []ErrorCode{CodeInsufficientFunds, CodeUnauthorized}, code)
		}

		var sum uint64
		for _, h := range holders {
			sum += l.balance(h + "_gold").Amount
		}
		require.Equal(t, l.token("gold").Supply, sum, "step %d", i)
	}
}
