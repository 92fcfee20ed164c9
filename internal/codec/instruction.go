package codec

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"

	"github.com/roach88/tokenledger/internal/ir"
)

const targetInstruction = "Instruction"

// DecodeInstruction parses instruction bytes into one of the four operations.
// Unknown tags fail with KindUnknownVariant; bytes left over after the payload
// fail with KindTrailingBytes.
func DecodeInstruction(data []byte) (ir.Instruction, error) {
	if len(data) == 0 {
		return nil, &DecodeError{Kind: KindTruncated, Target: targetInstruction, Message: "empty instruction"}
	}
	dec := bin.NewBorshDecoder(data)

	rawTag, err := dec.ReadUint8()
	if err != nil {
		return nil, &DecodeError{Kind: KindTruncated, Target: targetInstruction, Message: err.Error()}
	}

	var ins ir.Instruction
	switch tag := ir.Tag(rawTag); tag {
	case ir.TagCreateToken:
		ins = ir.CreateToken{}
	case ir.TagCreateTokenAccount:
		ins = ir.CreateTokenAccount{}
	case ir.TagMint:
		amount, err := readUint64(dec, targetInstruction)
		if err != nil {
			return nil, err
		}
		ins = ir.Mint{Amount: amount}
	case ir.TagTransfer:
		amount, err := readUint64(dec, targetInstruction)
		if err != nil {
			return nil, err
		}
		ins = ir.Transfer{Amount: amount}
	default:
		return nil, &DecodeError{
			Kind:    KindUnknownVariant,
			Target:  targetInstruction,
			Message: fmt.Sprintf("unknown tag %d", rawTag),
		}
	}

	if n := dec.Remaining(); n > 0 {
		return nil, &DecodeError{
			Kind:    KindTrailingBytes,
			Target:  targetInstruction,
			Message: fmt.Sprintf("%d unread bytes after %s", n, ins.Tag()),
		}
	}
	return ins, nil
}

// EncodeInstruction serializes an instruction.
func EncodeInstruction(ins ir.Instruction) []byte {
	var buf bytes.Buffer
	enc := bin.NewBorshEncoder(&buf)
	_ = enc.WriteUint8(uint8(ins.Tag()))

	switch v := ins.(type) {
	case ir.Mint:
		_ = enc.WriteUint64(v.Amount, bin.LE)
	case ir.Transfer:
		_ = enc.WriteUint64(v.Amount, bin.LE)
	}
	return buf.Bytes()
}
