package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"github.com/spf13/cobra"

	"github.com/roach88/tokenledger/internal/codec"
	"github.com/roach88/tokenledger/internal/host"
	"github.com/roach88/tokenledger/internal/ir"
)

// ReceiptResult is the CLI rendering of a host.Receipt.
type ReceiptResult struct {
	Seq     int64  `json:"seq"`
	ID      string `json:"id"`
	TraceID string `json:"trace_id"`
	Op      string `json:"op"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func (r ReceiptResult) String() string {
	return fmt.Sprintf("%s committed at seq %d (trace %s)", r.Op, r.Seq, r.TraceID)
}

// submit signs and executes one instruction and reports the receipt.
// Account and signer arguments are key names or base58 addresses; signers
// must be names in the keyring.
func submit(opts *RootOptions, cmd *cobra.Command, data []byte, accounts []string, signers []string) error {
	ctx := context.Background()
	s, err := openSession(ctx, opts, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	f := newFormatter(opts, cmd)

	req := host.Request{Data: data}
	for _, name := range accounts {
		addr, err := s.resolve(name)
		if err != nil {
			return err
		}
		req.Accounts = append(req.Accounts, addr)
	}

	keys := make([]solana.PrivateKey, 0, len(signers))
	for _, name := range signers {
		key, err := s.keys.Get(name)
		if err != nil {
			return f.fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("signer %s: %v", name, err), nil)
		}
		keys = append(keys, key)
	}
	if err := req.Sign(keys...); err != nil {
		return WrapExitError(ExitCommandError, "failed to sign request", err)
	}

	f.VerboseLog("submitting %d bytes with %d accounts, %d signers", len(data), len(accounts), len(keys))

	receipt, err := s.runtime.Execute(ctx, req)
	if he, ok := host.AsSignatureError(err); ok {
		return f.fail(ExitFailure, string(he.Code), he.Message, map[string]string{"address": he.Address})
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to execute instruction", err)
	}

	result := ReceiptResult{
		Seq:     receipt.Seq,
		ID:      receipt.ID,
		TraceID: receipt.TraceID,
		Op:      receipt.Op,
		Status:  receipt.Status,
	}
	if !receipt.OK() {
		result.Message = receipt.Err.Error()
		return f.fail(ExitFailure, receipt.Status, result.Message, result)
	}
	return f.SuccessWithTrace(result, receipt.TraceID)
}

func parseAmount(s string) (uint64, error) {
	amount, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, NewExitError(ExitCommandError, fmt.Sprintf("invalid amount %q: must be an unsigned 64-bit integer", s))
	}
	return amount, nil
}

// NewCreateTokenCommand creates the create-token command.
func NewCreateTokenCommand(rootOpts *RootOptions) *cobra.Command {
	var authority string

	cmd := &cobra.Command{
		Use:   "create-token <token>",
		Short: "Initialize a provisioned token definition slot",
		Long: `Initialize a provisioned token definition slot with a mint authority
and zero supply.

Examples:
  tokenledger create-token gold --authority issuer`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			data := codec.EncodeInstruction(ir.CreateToken{})
			return submit(rootOpts, cmd, data, []string{args[0], authority}, nil)
		},
	}

	cmd.Flags().StringVar(&authority, "authority", "", "mint authority (key name or address)")
	_ = cmd.MarkFlagRequired("authority")

	return cmd
}

// NewCreateAccountCommand creates the create-account command.
func NewCreateAccountCommand(rootOpts *RootOptions) *cobra.Command {
	var token, owner string

	cmd := &cobra.Command{
		Use:   "create-account <account>",
		Short: "Initialize a provisioned balance account slot",
		Long: `Initialize a provisioned balance account slot for one token and owner,
with a zero balance.

Examples:
  tokenledger create-account alice_gold --token gold --owner alice`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			data := codec.EncodeInstruction(ir.CreateTokenAccount{})
			return submit(rootOpts, cmd, data, []string{args[0], token, owner}, nil)
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "token definition (key name or address)")
	cmd.Flags().StringVar(&owner, "owner", "", "account owner (key name or address)")
	_ = cmd.MarkFlagRequired("token")
	_ = cmd.MarkFlagRequired("owner")

	return cmd
}

// NewMintCommand creates the mint command.
func NewMintCommand(rootOpts *RootOptions) *cobra.Command {
	var token, authority string

	cmd := &cobra.Command{
		Use:   "mint <account> <amount>",
		Short: "Mint new supply into a balance account",
		Long: `Mint new supply into a balance account. The request is signed with
the authority's key from the keyring.

Exit codes:
  0 - Minted
  1 - Rejected (MISSING_SIGNATURE, UNAUTHORIZED, OVERFLOW, ...)
  2 - Command error

Examples:
  tokenledger mint alice_gold 100 --token gold --authority issuer`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			data := codec.EncodeInstruction(ir.Mint{Amount: amount})
			return submit(rootOpts, cmd, data, []string{args[0], token, authority}, []string{authority})
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "token definition (key name or address)")
	cmd.Flags().StringVar(&authority, "authority", "", "mint authority key name (signs)")
	_ = cmd.MarkFlagRequired("token")
	_ = cmd.MarkFlagRequired("authority")

	return cmd
}

// NewTransferCommand creates the transfer command.
func NewTransferCommand(rootOpts *RootOptions) *cobra.Command {
	var owner string

	cmd := &cobra.Command{
		Use:   "transfer <from> <to> <amount>",
		Short: "Move balance between two accounts of the same token",
		Long: `Move balance between two accounts of the same token. The request is
signed with the source owner's key from the keyring.

Exit codes:
  0 - Transferred
  1 - Rejected (INSUFFICIENT_FUNDS, UNAUTHORIZED, TOKEN_MISMATCH, ...)
  2 - Command error

Examples:
  tokenledger transfer alice_gold bob_gold 40 --owner alice`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[2])
			if err != nil {
				return err
			}
			data := codec.EncodeInstruction(ir.Transfer{Amount: amount})
			return submit(rootOpts, cmd, data, []string{args[0], args[1], owner}, []string{owner})
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "source owner key name (signs)")
	_ = cmd.MarkFlagRequired("owner")

	return cmd
}

// NewExecCommand creates the exec command.
func NewExecCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		data     string
		accounts []string
		signers  []string
	)

	cmd := &cobra.Command{
		Use:   "exec",
		Short: "Execute raw base58 instruction bytes",
		Long: `Execute raw instruction bytes against an ordered account list.

The bytes are passed to the processor unchanged, so malformed input is
logged with DECODE_ERROR like any other rejected instruction.

Examples:
  tokenledger exec --data 3L9cWFEdYKAw --account alice_gold --account bob_gold --account alice --signer alice`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := base58.Decode(data)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid --data", err)
			}
			return submit(rootOpts, cmd, raw, accounts, signers)
		},
	}

	cmd.Flags().StringVar(&data, "data", "", "instruction bytes, base58")
	cmd.Flags().StringArrayVar(&accounts, "account", nil, "positional account (repeatable, in order)")
	cmd.Flags().StringArrayVar(&signers, "signer", nil, "signing key name (repeatable)")
	_ = cmd.MarkFlagRequired("data")

	return cmd
}
