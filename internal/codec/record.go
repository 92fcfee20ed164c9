package codec

import (
	"bytes"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/roach88/tokenledger/internal/ir"
)

const (
	targetToken   = "TokenDefinition"
	targetBalance = "BalanceAccount"
)

// DecodeTokenDefinition parses a persisted token definition.
func DecodeTokenDefinition(data []byte) (ir.TokenDefinition, error) {
	if len(data) != ir.TokenDefinitionSize {
		return ir.TokenDefinition{}, wrongLength(targetToken, ir.TokenDefinitionSize, len(data))
	}
	dec := bin.NewBorshDecoder(data)

	authority, err := readAddress(dec, targetToken)
	if err != nil {
		return ir.TokenDefinition{}, err
	}
	supply, err := readUint64(dec, targetToken)
	if err != nil {
		return ir.TokenDefinition{}, err
	}
	return ir.TokenDefinition{Authority: authority, Supply: supply}, nil
}

// EncodeTokenDefinition serializes a token definition.
func EncodeTokenDefinition(td ir.TokenDefinition) []byte {
	var buf bytes.Buffer
	buf.Grow(ir.TokenDefinitionSize)
	enc := bin.NewBorshEncoder(&buf)
	// Writes into a bytes.Buffer cannot fail.
	_ = enc.WriteBytes(td.Authority[:], false)
	_ = enc.WriteUint64(td.Supply, bin.LE)
	return buf.Bytes()
}

// DecodeBalanceAccount parses a persisted balance account.
func DecodeBalanceAccount(data []byte) (ir.BalanceAccount, error) {
	if len(data) != ir.BalanceAccountSize {
		return ir.BalanceAccount{}, wrongLength(targetBalance, ir.BalanceAccountSize, len(data))
	}
	dec := bin.NewBorshDecoder(data)

	owner, err := readAddress(dec, targetBalance)
	if err != nil {
		return ir.BalanceAccount{}, err
	}
	token, err := readAddress(dec, targetBalance)
	if err != nil {
		return ir.BalanceAccount{}, err
	}
	amount, err := readUint64(dec, targetBalance)
	if err != nil {
		return ir.BalanceAccount{}, err
	}
	return ir.BalanceAccount{Owner: owner, Token: token, Amount: amount}, nil
}

// EncodeBalanceAccount serializes a balance account.
func EncodeBalanceAccount(ba ir.BalanceAccount) []byte {
	var buf bytes.Buffer
	buf.Grow(ir.BalanceAccountSize)
	enc := bin.NewBorshEncoder(&buf)
	_ = enc.WriteBytes(ba.Owner[:], false)
	_ = enc.WriteBytes(ba.Token[:], false)
	_ = enc.WriteUint64(ba.Amount, bin.LE)
	return buf.Bytes()
}

// LoadTokenDefinitionUnchecked returns a zero token definition for a freshly
// provisioned slot. The slot contents are not interpreted; only the capacity
// is checked so the record can later be written back in place.
func LoadTokenDefinitionUnchecked(data []byte) (ir.TokenDefinition, error) {
	if len(data) != ir.TokenDefinitionSize {
		return ir.TokenDefinition{}, wrongLength(targetToken, ir.TokenDefinitionSize, len(data))
	}
	return ir.TokenDefinition{}, nil
}

// LoadBalanceAccountUnchecked is the balance account counterpart of
// LoadTokenDefinitionUnchecked.
func LoadBalanceAccountUnchecked(data []byte) (ir.BalanceAccount, error) {
	if len(data) != ir.BalanceAccountSize {
		return ir.BalanceAccount{}, wrongLength(targetBalance, ir.BalanceAccountSize, len(data))
	}
	return ir.BalanceAccount{}, nil
}

// IsZeroed reports whether every byte of a slot is zero, which is how the host
// hands out freshly provisioned storage.
func IsZeroed(data []byte) bool {
	for _, b := range data {
		if b != 0 {
			return false
		}
	}
	return true
}

func readAddress(dec *bin.Decoder, target string) (ir.Address, error) {
	raw, err := dec.ReadNBytes(ir.AddressLength)
	if err != nil {
		return ir.Address{}, &DecodeError{Kind: KindTruncated, Target: target, Message: err.Error()}
	}
	return solana.PublicKeyFromBytes(raw), nil
}

func readUint64(dec *bin.Decoder, target string) (uint64, error) {
	v, err := dec.ReadUint64(bin.LE)
	if err != nil {
		return 0, &DecodeError{Kind: KindTruncated, Target: target, Message: err.Error()}
	}
	return v, nil
}
