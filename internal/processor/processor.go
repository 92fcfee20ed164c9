package processor

import (
	"log/slog"

	"github.com/roach88/tokenledger/internal/account"
	"github.com/roach88/tokenledger/internal/codec"
	"github.com/roach88/tokenledger/internal/ir"
)

// Processor decodes and executes ledger instructions.
//
// A Processor is stateless apart from its logger and is safe to share, but
// Process must not run concurrently on overlapping account buffers.
type Processor struct {
	logger *slog.Logger
}

// Option configures a Processor.
type Option func(*Processor)

// WithLogger sets the logger used for per-instruction diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) {
		p.logger = logger
	}
}

// New creates a Processor. Without options it logs to slog.Default().
func New(opts ...Option) *Processor {
	p := &Processor{logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process is the single entry point exposed to the host: decode the
// instruction bytes and execute them against the supplied accounts.
//
// On success the touched handles' Data buffers hold the new record bytes. On
// failure no buffer has been modified and the error is a *ProgramError.
func (p *Processor) Process(accounts []*account.Handle, data []byte) error {
	ins, err := codec.DecodeInstruction(data)
	if err != nil {
		p.logger.Warn("invalid instruction data", "error", err)
		return translate(err)
	}
	return p.Execute(ins, accounts)
}

// Execute routes an already decoded instruction to its state transition.
func (p *Processor) Execute(ins ir.Instruction, accounts []*account.Handle) error {
	p.logger.Debug("instruction", "op", ins.Tag().String(), "accounts", len(accounts))

	oc, err := resolveContext(ins, accounts)
	if err != nil {
		p.logger.Warn("account resolution failed", "op", ins.Tag().String(), "error", err)
		return translate(err)
	}

	switch v := ins.(type) {
	case ir.CreateToken:
		err = p.createToken(oc)
	case ir.CreateTokenAccount:
		err = p.createTokenAccount(oc)
	case ir.Mint:
		err = p.mint(oc, v.Amount)
	case ir.Transfer:
		err = p.transfer(oc, v.Amount)
	default:
		err = newError(CodeDecodeError, "unsupported instruction %T", ins)
	}
	if err != nil {
		err = translate(err)
		p.logger.Info("instruction rejected", "op", ins.Tag().String(), "code", string(CodeOf(err)), "error", err)
		return err
	}
	return nil
}
