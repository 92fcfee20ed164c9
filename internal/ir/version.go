package ir

// LedgerVersion is the tokenledger runtime version.
const LedgerVersion = "0.1.0"
