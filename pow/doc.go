// Package pow implements the proof-of-work search.
//
// A digest meets difficulty d when its hex form starts with d '0'
// characters. Each extra character narrows the accepted space by a factor
// of 16, so the expected number of attempts grows as 16^d: difficulty 4
// needs about 65 thousand hashes, difficulty 6 about 16 million. There is
// no retry cap; the search runs until a qualifying nonce is found or, for
// the context-aware variants, until the context is cancelled.
package pow
