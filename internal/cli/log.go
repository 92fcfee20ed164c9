package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/spf13/cobra"

	"github.com/roach88/tokenledger/internal/ir"
)

// LogOptions holds flags for the log command.
type LogOptions struct {
	*RootOptions
	TraceID string
	Failed  bool
}

// LogEntry is one rendered instruction log row.
type LogEntry struct {
	Seq      int64    `json:"seq"`
	ID       string   `json:"id"`
	TraceID  string   `json:"trace_id"`
	Op       string   `json:"op"`
	Data     string   `json:"data"` // base58
	Accounts []string `json:"accounts"`
	Signers  []string `json:"signers"`
	Status   string   `json:"status"`
	Message  string   `json:"message,omitempty"`
}

// LogResult is the log listing.
type LogResult struct {
	Entries []LogEntry `json:"entries"`
	Total   int        `json:"total"`
}

func (r LogResult) String() string {
	if r.Total == 0 {
		return "No instructions logged."
	}
	var b strings.Builder
	for i, e := range r.Entries {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%6d  %-18s  %-19s  %s", e.Seq, e.Op, e.Status, strings.Join(e.Accounts, ","))
		if e.Message != "" {
			fmt.Fprintf(&b, "\n        %s", e.Message)
		}
	}
	return b.String()
}

// NewLogCommand creates the log command.
func NewLogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "log",
		Short: "List the instruction log",
		Long: `List every logged instruction in seq order, committed or rejected.

Examples:
  tokenledger log
  tokenledger log --failed
  tokenledger log --trace 0192f3c4-... --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLog(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.TraceID, "trace", "", "only instructions with this trace ID")
	cmd.Flags().BoolVar(&opts.Failed, "failed", false, "only rejected instructions")

	return cmd
}

func runLog(opts *LogOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	s, err := openSession(ctx, opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	records, err := s.store.ReadInstructions(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read log", err)
	}

	names := s.names()
	result := LogResult{Entries: []LogEntry{}}
	for _, rec := range records {
		if opts.TraceID != "" && rec.TraceID != opts.TraceID {
			continue
		}
		if opts.Failed && rec.OK() {
			continue
		}
		result.Entries = append(result.Entries, logEntry(rec, names))
	}
	result.Total = len(result.Entries)

	return newFormatter(opts.RootOptions, cmd).Success(result)
}

func logEntry(rec ir.InstructionRecord, names map[ir.Address]string) LogEntry {
	e := LogEntry{
		Seq:      rec.Seq,
		ID:       rec.ID,
		TraceID:  rec.TraceID,
		Op:       rec.Op,
		Data:     base58.Encode(rec.Data),
		Accounts: make([]string, len(rec.Accounts)),
		Signers:  []string{},
		Status:   rec.Status,
		Message:  rec.Message,
	}
	for i, ref := range rec.Accounts {
		e.Accounts[i] = display(names, ref.Address)
		if ref.Signer {
			e.Signers = append(e.Signers, e.Accounts[i])
		}
	}
	return e
}
