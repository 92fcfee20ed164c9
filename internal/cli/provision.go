package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tokenledger/internal/ir"
	"github.com/roach88/tokenledger/internal/store"
)

// ProvisionOptions holds flags for the provision command.
type ProvisionOptions struct {
	*RootOptions
	Kind string
}

// ProvisionResult describes a newly allocated slot.
type ProvisionResult struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Kind    string `json:"kind"`
	Size    int    `json:"size"`
	Seq     int64  `json:"seq"`
}

func (r ProvisionResult) String() string {
	return fmt.Sprintf("Provisioned %s slot %s (%s, %d bytes) at seq %d", r.Kind, r.Name, r.Address, r.Size, r.Seq)
}

// NewProvisionCommand creates the provision command.
func NewProvisionCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ProvisionOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "provision <name>",
		Short: "Allocate a zero-filled account slot",
		Long: `Allocate a zero-filled slot sized for a token definition (40 bytes)
or a balance account (72 bytes).

The slot address is the named key's public key. A name with no key in
the keyring gets a freshly generated one; a base58 address is used as is.

Examples:
  tokenledger provision gold --kind token
  tokenledger provision alice_gold --kind balance`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProvision(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Kind, "kind", "", "slot kind (token|balance)")
	_ = cmd.MarkFlagRequired("kind")

	return cmd
}

func runProvision(opts *ProvisionOptions, name string, cmd *cobra.Command) error {
	kind := ir.SlotKind(opts.Kind)
	if !ir.ValidSlotKinds[kind] {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid kind %q: must be token or balance", opts.Kind))
	}

	ctx := context.Background()
	s, err := openSession(ctx, opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	f := newFormatter(opts.RootOptions, cmd)

	addr, err := s.keys.Resolve(name)
	if err != nil {
		key, genErr := s.keys.Generate(name)
		if genErr != nil {
			return WrapExitError(ExitCommandError, "failed to create slot key", errors.Join(err, genErr))
		}
		addr = key.PublicKey()
		f.VerboseLog("generated key %s for slot", name)
	}

	slot, err := s.runtime.Provision(ctx, addr, kind)
	if errors.Is(err, store.ErrAccountExists) {
		return f.fail(ExitCommandError, ErrCodeGeneric, fmt.Sprintf("slot %s already exists", name), nil)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to provision slot", err)
	}

	return f.Success(ProvisionResult{
		Name:    name,
		Address: addr.String(),
		Kind:    string(kind),
		Size:    len(slot.Data),
		Seq:     slot.CreatedSeq,
	})
}
