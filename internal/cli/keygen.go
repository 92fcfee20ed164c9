package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/tokenledger/internal/keyring"
)

// KeygenOptions holds flags for the keygen command.
type KeygenOptions struct {
	*RootOptions
	List bool
}

// KeyList is the text-renderable keyring listing.
type KeyList []keyring.Entry

func (l KeyList) String() string {
	if len(l) == 0 {
		return "No keys."
	}
	var b strings.Builder
	for i, e := range l {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(e.Name + "  " + e.Address)
	}
	return b.String()
}

// NewKeygenCommand creates the keygen command.
func NewKeygenCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &KeygenOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "keygen [name]",
		Short: "Generate a named ed25519 keypair",
		Long: `Generate a named ed25519 keypair in the keyring.

Keys are stored as Solana keygen JSON files and can be used anywhere a
command takes an account name: as authority, owner, or slot address.

Examples:
  tokenledger keygen alice
  tokenledger keygen --list`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeygen(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.List, "list", false, "list keys instead of generating")

	return cmd
}

func runKeygen(opts *KeygenOptions, args []string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	keys, err := keyring.Open(cfg.Keyring)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open keyring", err)
	}

	if opts.List {
		entries, err := keys.List()
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list keys", err)
		}
		return f.Success(KeyList(entries))
	}

	if len(args) != 1 {
		return NewExitError(ExitCommandError, "keygen requires a name (or --list)")
	}
	key, err := keys.Generate(args[0])
	if err != nil {
		return f.fail(ExitCommandError, ErrCodeWriteFailed, err.Error(), nil)
	}
	return f.Success(KeyList{{Name: args[0], Address: key.PublicKey().String()}})
}
