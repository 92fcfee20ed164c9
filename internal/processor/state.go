package processor

import (
	"math/bits"

	"github.com/roach88/tokenledger/internal/codec"
	"github.com/roach88/tokenledger/internal/ir"
)

// createToken initializes a freshly provisioned token definition slot.
func (p *Processor) createToken(oc *OperationContext) error {
	slot := oc.Target
	token, err := codec.LoadTokenDefinitionUnchecked(slot.Data)
	if err != nil {
		return err
	}
	if !codec.IsZeroed(slot.Data) {
		return newError(CodeAlreadyInitialized, "token definition %s already holds a record", slot.Key)
	}
	// A zero authority would leave an all-zero record that reads as
	// uninitialized, letting anyone create the token again.
	if oc.Authority.Key == (ir.Address{}) {
		return newError(CodeUnauthorized, "the zero address cannot be a mint authority")
	}

	token.Authority = oc.Authority.Key
	token.Supply = 0

	commit(pendingWrite{slot, codec.EncodeTokenDefinition(token)})
	p.logger.Info("token created", "token", slot.Key.String(), "authority", token.Authority.String())
	return nil
}

// createTokenAccount initializes a freshly provisioned balance account slot.
func (p *Processor) createTokenAccount(oc *OperationContext) error {
	slot := oc.Target
	balance, err := codec.LoadBalanceAccountUnchecked(slot.Data)
	if err != nil {
		return err
	}
	if !codec.IsZeroed(slot.Data) {
		return newError(CodeAlreadyInitialized, "balance account %s already holds a record", slot.Key)
	}
	if oc.Authority.Key == (ir.Address{}) {
		return newError(CodeUnauthorized, "the zero address cannot own a balance account")
	}

	balance.Owner = oc.Authority.Key
	balance.Token = oc.Token.Key
	balance.Amount = 0

	commit(pendingWrite{slot, codec.EncodeBalanceAccount(balance)})
	p.logger.Info("token account created",
		"account", slot.Key.String(), "token", balance.Token.String(), "owner", balance.Owner.String())
	return nil
}

// mint adds amount to the token's supply and to the destination balance.
// Only the token's recorded authority, signing, may mint.
func (p *Processor) mint(oc *OperationContext, amount uint64) error {
	dest, err := codec.DecodeBalanceAccount(oc.Target.Data)
	if err != nil {
		return err
	}
	token, err := codec.DecodeTokenDefinition(oc.Token.Data)
	if err != nil {
		return err
	}

	authority := oc.Authority
	if !authority.IsSigner {
		return newError(CodeMissingSignature, "only the token authority can mint tokens")
	}
	if authority.Key != token.Authority {
		return newError(CodeUnauthorized, "%s is not the mint authority of %s", authority.Key, oc.Token.Key)
	}
	if dest.Token != oc.Token.Key {
		return newError(CodeTokenMismatch, "account %s holds %s, not %s", oc.Target.Key, dest.Token, oc.Token.Key)
	}

	supply, carry := bits.Add64(token.Supply, amount, 0)
	if carry != 0 {
		return newError(CodeOverflow, "supply %d + %d overflows", token.Supply, amount)
	}
	balance, carry := bits.Add64(dest.Amount, amount, 0)
	if carry != 0 {
		return newError(CodeOverflow, "balance %d + %d overflows", dest.Amount, amount)
	}
	token.Supply = supply
	dest.Amount = balance

	commit(
		pendingWrite{oc.Target, codec.EncodeBalanceAccount(dest)},
		pendingWrite{oc.Token, codec.EncodeTokenDefinition(token)},
	)
	p.logger.Info("minted", "token", oc.Token.Key.String(), "account", oc.Target.Key.String(),
		"amount", amount, "supply", token.Supply)
	return nil
}

// transfer moves amount from the source to the recipient balance. Only the
// source's recorded owner, signing, may transfer. Transferring the entire
// balance is allowed.
func (p *Processor) transfer(oc *OperationContext, amount uint64) error {
	src, err := codec.DecodeBalanceAccount(oc.Target.Data)
	if err != nil {
		return err
	}
	dst, err := codec.DecodeBalanceAccount(oc.Recipient.Data)
	if err != nil {
		return err
	}

	owner := oc.Authority
	if !owner.IsSigner {
		return newError(CodeMissingSignature, "the token account owner must sign the transfer")
	}
	if owner.Key != src.Owner {
		return newError(CodeUnauthorized, "%s does not own %s", owner.Key, oc.Target.Key)
	}
	if src.Token != dst.Token {
		return newError(CodeTokenMismatch, "cannot transfer %s into an account holding %s", src.Token, dst.Token)
	}
	if src.Amount < amount {
		return newError(CodeInsufficientFunds, "balance %d is below transfer amount %d", src.Amount, amount)
	}

	// Source and destination are the same slot: both views alias one buffer,
	// the checks above have passed and the balance does not change.
	if oc.Target.Key == oc.Recipient.Key {
		p.logger.Info("self transfer", "account", oc.Target.Key.String(), "amount", amount)
		return nil
	}

	received, carry := bits.Add64(dst.Amount, amount, 0)
	if carry != 0 {
		return newError(CodeOverflow, "balance %d + %d overflows", dst.Amount, amount)
	}
	src.Amount -= amount
	dst.Amount = received

	commit(
		pendingWrite{oc.Target, codec.EncodeBalanceAccount(src)},
		pendingWrite{oc.Recipient, codec.EncodeBalanceAccount(dst)},
	)
	p.logger.Info("transferred", "from", oc.Target.Key.String(), "to", oc.Recipient.Key.String(), "amount", amount)
	return nil
}
