package consensus

import (
	"crypto/cipher"
	"encoding/binary"

	"github.com/pkg/errors"
)

// ErrNoCandidates is returned when an election has nobody to choose from.
var ErrNoCandidates = errors.New("no candidates")

// Miner is a proof-of-work participant.
type Miner struct {
	ID    string `json:"id"`
	Power int    `json:"power"`
}

// Staker is a proof-of-stake participant.
type Staker struct {
	ID    string `json:"id"`
	Stake int    `json:"stake"`
}

type Delegate struct {
	ID string `json:"id"`
}

// Voter holds Votes units of voting power in a delegated election.
type Voter struct {
	ID    string `json:"id"`
	Votes int    `json:"votes"`
}

// Ballot records which delegate a voter backed.
type Ballot struct {
	Voter    Voter
	Delegate Delegate
}

// Tally is the outcome of a delegated election. Counts is aligned with the
// delegates passed to SelectDelegated.
type Tally struct {
	Winner  Delegate
	Counts  []int
	Ballots []Ballot
}

// SelectProofOfWork returns the miner with the highest power.
func SelectProofOfWork(miners []Miner) (Miner, error) {
	if len(miners) == 0 {
		return Miner{}, errors.Wrap(ErrNoCandidates, "proof-of-work")
	}
	best := miners[0]
	for _, m := range miners[1:] {
		if m.Power > best.Power {
			best = m
		}
	}
	return best, nil
}

// SelectProofOfStake returns the staker with the largest stake.
func SelectProofOfStake(stakers []Staker) (Staker, error) {
	if len(stakers) == 0 {
		return Staker{}, errors.Wrap(ErrNoCandidates, "proof-of-stake")
	}
	best := stakers[0]
	for _, s := range stakers[1:] {
		if s.Stake > best.Stake {
			best = s
		}
	}
	return best, nil
}

// SelectDelegated lets each voter back a random delegate with all of its
// votes and returns the tally.
func SelectDelegated(delegates []Delegate, voters []Voter, rand cipher.Stream) (Tally, error) {
	if len(delegates) == 0 {
		return Tally{}, errors.Wrap(ErrNoCandidates, "delegated proof-of-stake")
	}
	t := Tally{Counts: make([]int, len(delegates))}
	for _, v := range voters {
		i := pick(len(delegates), rand)
		t.Counts[i] += v.Votes
		t.Ballots = append(t.Ballots, Ballot{Voter: v, Delegate: delegates[i]})
	}
	winner := 0
	for i, c := range t.Counts {
		if c > t.Counts[winner] {
			winner = i
		}
	}
	t.Winner = delegates[winner]
	return t, nil
}

// RandomInRange returns a value in [lo, hi] drawn from rand. It is used to
// give mock participants their power, stake or votes.
func RandomInRange(lo, hi int, rand cipher.Stream) int {
	if hi <= lo {
		return lo
	}
	return lo + pick(hi-lo+1, rand)
}

// pick returns an index in [0, n) read from the key stream.
func pick(n int, rand cipher.Stream) int {
	var buf [8]byte
	rand.XORKeyStream(buf[:], buf[:])
	return int(binary.BigEndian.Uint64(buf[:]) % uint64(n))
}
