// Package host is the execution environment around the ledger processor.
//
// The processor only sees raw account buffers and signer flags. The Runtime
// supplies them: it verifies ed25519 signatures over each request, loads slot
// bytes from the store, invokes the processor, and commits the resulting
// buffers together with an instruction log entry in one transaction.
//
// Invocations are serialized. Every provisioning and every instruction is
// stamped with a seq from a monotonic logical clock, so the log can be
// replayed into a scratch store and compared byte for byte.
package host
