// Package harness runs YAML ledger scenarios through the real host runtime.
//
// A scenario names its slots and keys; names map to deterministic ed25519
// keypairs (testutil.Key), so the same scenario always touches the same
// addresses. Each run uses a fresh in-memory store, a DeterministicClock and
// a fixed trace ID, which makes the produced trace stable enough for golden
// comparison.
//
// Scenario shape:
//
//	name: transfer_basic
//	description: Alice mints and pays Bob
//	slots:
//	  - {name: gold, kind: token}
//	  - {name: alice_gold, kind: balance}
//	flow:
//	  - {op: CreateToken, accounts: [gold, alice]}
//	  - {op: Mint, accounts: [alice_gold, gold, alice], signers: [alice], amount: 100}
//	  - {op: Transfer, accounts: [alice_gold, bob_gold, alice], signers: [alice], amount: 1000, expect: INSUFFICIENT_FUNDS}
//	assertions:
//	  - {type: balance_state, account: alice_gold, amount: 100}
//	  - {type: conservation, token: gold}
//
// Steps expect "ok" unless told otherwise. A step may carry raw base58
// instruction bytes in data instead of op.
package harness
