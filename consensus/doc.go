// Package consensus simulates how three families of consensus protocols pick
// the participant that produces the next block.
//
// # Selection Rules
//
// Proof-of-Work: the miner with the highest computational power wins, since
// it is the most likely to find a qualifying nonce first.
//
// Proof-of-Stake: the staker with the largest pledged stake wins.
//
// Delegated Proof-of-Stake: every voter gives all of its voting power to one
// delegate chosen uniformly at random; the delegate with the most votes wins.
//
// Ties are broken in favour of the participant listed first. The package is
// a demonstration: it does not talk to the ledger and does not model forks.
//
// # Randomness
//
// All random choices read from a cipher.Stream, so a kyber XOF seeded with a
// fixed value reproduces the same election.
package consensus
