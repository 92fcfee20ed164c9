package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/tokenledger/internal/codec"
	"github.com/roach88/tokenledger/internal/ir"
	"github.com/roach88/tokenledger/internal/store"
)

// SlotView is the decoded view of one slot.
type SlotView struct {
	Name        string `json:"name,omitempty"`
	Address     string `json:"address"`
	Kind        string `json:"kind"`
	CreatedSeq  int64  `json:"created_seq"`
	UpdatedSeq  int64  `json:"updated_seq"`
	Initialized bool   `json:"initialized"`

	// Token definition fields.
	Authority string  `json:"authority,omitempty"`
	Supply    *uint64 `json:"supply,omitempty"`

	// Balance account fields.
	Owner  string  `json:"owner,omitempty"`
	Token  string  `json:"token,omitempty"`
	Amount *uint64 `json:"amount,omitempty"`
}

func (v SlotView) String() string {
	var b strings.Builder
	label := v.Address
	if v.Name != "" {
		label = fmt.Sprintf("%s (%s)", v.Name, v.Address)
	}
	fmt.Fprintf(&b, "%s slot %s\n", v.Kind, label)
	fmt.Fprintf(&b, "  created seq %d, updated seq %d\n", v.CreatedSeq, v.UpdatedSeq)
	if !v.Initialized {
		b.WriteString("  uninitialized")
		return b.String()
	}
	switch ir.SlotKind(v.Kind) {
	case ir.SlotToken:
		fmt.Fprintf(&b, "  authority: %s\n  supply:    %d", v.Authority, *v.Supply)
	case ir.SlotBalance:
		fmt.Fprintf(&b, "  owner:  %s\n  token:  %s\n  amount: %d", v.Owner, v.Token, *v.Amount)
	}
	return b.String()
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <account>",
		Short: "Show a slot's decoded record",
		Long: `Show a slot's decoded token definition or balance account.

Addresses with a keyring name are shown by name.

Examples:
  tokenledger show gold
  tokenledger show alice_gold --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(rootOpts, args[0], cmd)
		},
	}
}

func runShow(opts *RootOptions, name string, cmd *cobra.Command) error {
	ctx := context.Background()
	s, err := openSession(ctx, opts, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	f := newFormatter(opts, cmd)

	addr, err := s.resolve(name)
	if err != nil {
		return err
	}
	slot, err := s.store.LoadAccount(ctx, addr)
	if errors.Is(err, store.ErrAccountNotFound) {
		return f.fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("no slot at %s", name), nil)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load slot", err)
	}

	view, err := viewSlot(slot, s.names())
	if err != nil {
		return WrapExitError(ExitFailure, "slot holds an invalid record", err)
	}
	return f.Success(view)
}

// viewSlot decodes slot into a SlotView. An all-zero slot is reported as
// uninitialized rather than decoded.
func viewSlot(slot ir.AccountSlot, names map[ir.Address]string) (SlotView, error) {
	view := SlotView{
		Name:       names[slot.Address],
		Address:    slot.Address.String(),
		Kind:       string(slot.Kind),
		CreatedSeq: slot.CreatedSeq,
		UpdatedSeq: slot.UpdatedSeq,
	}
	if codec.IsZeroed(slot.Data) {
		return view, nil
	}
	view.Initialized = true

	switch slot.Kind {
	case ir.SlotToken:
		td, err := codec.DecodeTokenDefinition(slot.Data)
		if err != nil {
			return view, err
		}
		view.Authority = display(names, td.Authority)
		view.Supply = &td.Supply
	case ir.SlotBalance:
		ba, err := codec.DecodeBalanceAccount(slot.Data)
		if err != nil {
			return view, err
		}
		view.Owner = display(names, ba.Owner)
		view.Token = display(names, ba.Token)
		view.Amount = &ba.Amount
	}
	return view, nil
}
