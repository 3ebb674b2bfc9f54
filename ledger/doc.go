// Package ledger implements an append-only, hash-linked ledger with an
// unmined mode and a proof-of-work mode.
//
// # Core Components
//
// Hasher: Maps the canonical encoding of a block to a 64 character hex
// digest. SHA-256 is the default; SHA3-256, BLAKE2b-256 and BLAKE2Xb are
// available for comparison.
//
// Block: A single record holding index, timestamp, payload, the digest of
// its predecessor, a nonce and its own stored digest. The stored digest is a
// cache: it is only refreshed when RecomputeDigest is called.
//
// Blockchain: The ordered sequence of blocks starting from a fixed genesis
// block. In proof-of-work mode every appended block is mined against the
// live difficulty before it is stored.
//
// Validator: Walks the chain and re-derives trust in every block after
// genesis, reporting the first violated rule.
//
// # Tampering
//
// Blocks are handed out by pointer and expose narrow mutators so that
// tampering and repair can be simulated. Nothing is checked on mutation;
// the validator detects inconsistencies after the fact.
//
// # Difficulty
//
// Validation always uses the difficulty that is live at the time of the
// call. Raising the difficulty therefore invalidates blocks that were mined
// under a lower one.
package ledger
