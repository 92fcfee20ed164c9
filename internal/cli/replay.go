package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/tokenledger/internal/host"
)

// ReplayResult wraps a replay report for text rendering.
type ReplayResult struct {
	*host.ReplayReport
}

func (r ReplayResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Replayed %d slots and %d instructions\n", r.Slots, r.Instructions)
	fmt.Fprintf(&b, "  state hash:  %s\n", r.StateHash)
	fmt.Fprintf(&b, "  replay hash: %s", r.ReplayHash)
	for _, d := range r.Divergences {
		b.WriteString("\n  ")
		if d.Seq != 0 {
			fmt.Fprintf(&b, "seq %d ", d.Seq)
		}
		if d.Address != "" {
			fmt.Fprintf(&b, "%s ", d.Address)
		}
		fmt.Fprintf(&b, "%s: recorded %q, replayed %q", d.Field, d.Recorded, d.Replayed)
	}
	if r.OK() {
		b.WriteString("\n✓ Replay matches")
	}
	return b.String()
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "replay",
		Short: "Verify the ledger by replaying its log",
		Long: `Rebuild the ledger from the instruction log in a scratch store and
compare the result with the live database.

Exit codes:
  0 - Replay matches the recorded state
  1 - Divergence detected
  2 - Command error

Examples:
  tokenledger replay
  tokenledger replay --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(rootOpts, cmd)
		},
	}
}

func runReplay(opts *RootOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	s, err := openSession(ctx, opts, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	f := newFormatter(opts, cmd)

	report, err := s.runtime.Replay(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "replay failed", err)
	}

	if !report.OK() {
		if opts.Format == "json" {
			return f.fail(ExitFailure, ErrCodeDivergence,
				fmt.Sprintf("%d divergence(s) detected", len(report.Divergences)), report)
		}
		fmt.Fprintln(f.Writer, ReplayResult{report})
		return NewExitError(ExitFailure, fmt.Sprintf("%d divergence(s) detected", len(report.Divergences)))
	}
	return f.Success(ReplayResult{report})
}
