// Package codec converts ledger records and instructions to and from their
// persisted Borsh byte representation.
//
// Layouts (little-endian, fields in declaration order):
//
//	TokenDefinition  authority[32] supply:u64                 40 bytes
//	BalanceAccount   owner[32] token[32] amount:u64           72 bytes
//	Instruction      tag:u8 [amount:u64 for Mint/Transfer]
//
// Encode is the exact inverse of Decode for every value Decode can produce.
package codec
