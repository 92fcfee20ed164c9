// Package processor implements the ledger's instruction dispatcher and state
// machine.
//
// A host calls Process once per instruction with the ordered account list and
// the serialized instruction. The processor decodes the instruction, resolves
// the positional accounts into an OperationContext, loads the records it
// needs, checks authorization and balance invariants and finally writes the
// new record bytes back into the handles' buffers.
//
// EXECUTION MODEL:
//
// Every operation runs in two phases:
//  1. Check: resolve, decode, verify signer/identity, verify balances and
//     compute all new values with checked arithmetic.
//  2. Commit: copy the encoded records into the account buffers in one
//     exit path.
//
// A failure in phase 1 returns before any buffer is touched, so a rejected
// instruction leaves every account byte-identical. Phase 2 cannot fail.
//
// The processor holds no state between calls and performs no I/O. Callers
// that run instructions concurrently against the same accounts must
// serialize them (host.Runtime does this).
//
// ERROR VOCABULARY:
//
// Every failure is a *ProgramError carrying one ErrorCode. Codec and
// resolver failures are translated into DECODE_ERROR and MISSING_ACCOUNT.
package processor
