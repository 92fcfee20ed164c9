package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/tokenledger/internal/config"
	"github.com/roach88/tokenledger/internal/host"
	"github.com/roach88/tokenledger/internal/ir"
	"github.com/roach88/tokenledger/internal/keyring"
	"github.com/roach88/tokenledger/internal/store"
)

// session bundles what a ledger command needs: config, store, runtime and
// keyring. Close releases the store.
type session struct {
	cfg     *config.Config
	store   *store.Store
	runtime *host.Runtime
	keys    *keyring.Keyring
	logger  *slog.Logger
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	return applyOverrides(cfg, opts), nil
}

// applyOverrides replaces config values with the ones given as flags.
func applyOverrides(cfg *config.Config, opts *RootOptions) *config.Config {
	if opts.Database != "" {
		cfg.DB = opts.Database
	}
	if opts.Keyring != "" {
		cfg.Keyring = opts.Keyring
	}
	return cfg
}

// openSession opens an existing ledger. A missing database is a command
// error pointing at init.
func openSession(ctx context.Context, opts *RootOptions, cmd *cobra.Command) (*session, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	if cfg.DB != ":memory:" {
		if _, err := os.Stat(cfg.DB); os.IsNotExist(err) {
			return nil, NewExitError(ExitCommandError,
				fmt.Sprintf("database not found: %s (run 'tokenledger init' first)", cfg.DB))
		}
	}

	st, err := store.Open(cfg.DB)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	logger := cfg.NewLogger(cmd.ErrOrStderr(), opts.Verbose)
	rt, err := host.New(ctx, st, host.WithLogger(logger))
	if err != nil {
		st.Close()
		return nil, WrapExitError(ExitCommandError, "failed to start runtime", err)
	}

	keys, err := keyring.Open(cfg.Keyring)
	if err != nil {
		st.Close()
		return nil, WrapExitError(ExitCommandError, "failed to open keyring", err)
	}

	return &session{cfg: cfg, store: st, runtime: rt, keys: keys, logger: logger}, nil
}

func (s *session) Close() error {
	return s.store.Close()
}

// resolve turns a key name or base58 address into an address.
func (s *session) resolve(nameOrAddress string) (ir.Address, error) {
	addr, err := s.keys.Resolve(nameOrAddress)
	if err != nil {
		return ir.Address{}, WrapExitError(ExitCommandError, "unknown account", err)
	}
	return addr, nil
}

// names maps every keyring address to its name for display.
func (s *session) names() map[ir.Address]string {
	out := make(map[ir.Address]string)
	entries, err := s.keys.List()
	if err != nil {
		s.logger.Warn("keyring listing failed", "error", err)
		return out
	}
	for _, e := range entries {
		addr, err := s.keys.Resolve(e.Name)
		if err == nil {
			out[addr] = e.Name
		}
	}
	return out
}

// display renders addr as a keyring name when one exists.
func display(names map[ir.Address]string, addr ir.Address) string {
	if n, ok := names[addr]; ok {
		return n
	}
	return addr.String()
}
