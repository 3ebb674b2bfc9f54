package main

import (
	"crypto/cipher"
	"log/slog"
	"strconv"

	"github.com/pterm/pterm"
	"go.dedis.ch/kyber/v4/util/random"
	"go.dedis.ch/kyber/v4/xof/blake2xb"

	"github.com/luca-patrignani/powchain/consensus"
)

func runConsensus(cfg *config, logger *slog.Logger) error {
	var stream cipher.Stream
	if cfg.Consensus.Seed != "" {
		stream = blake2xb.New([]byte(cfg.Consensus.Seed))
		logger.Debug("using seeded randomness", "seed", cfg.Consensus.Seed)
	} else {
		stream = random.New()
	}

	miners := make([]consensus.Miner, 0, 3)
	for _, id := range []string{"Miner A", "Miner B", "Miner C"} {
		miners = append(miners, consensus.Miner{ID: id, Power: consensus.RandomInRange(10, 100, stream)})
	}
	pterm.DefaultSection.Println("Proof-of-Work")
	pterm.Info.Println("The miner with the highest hash rate is the most likely to find the next block.")
	rows := pterm.TableData{{"Miner", "Power"}}
	for _, m := range miners {
		rows = append(rows, []string{m.ID, strconv.Itoa(m.Power)})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(rows).Render(); err != nil {
		return err
	}
	miner, err := consensus.SelectProofOfWork(miners)
	if err != nil {
		return err
	}
	pterm.Success.Printfln("Selected PoW validator: %s with power %d", miner.ID, miner.Power)

	stakers := make([]consensus.Staker, 0, 3)
	for _, id := range []string{"Staker X", "Staker Y", "Staker Z"} {
		stakers = append(stakers, consensus.Staker{ID: id, Stake: consensus.RandomInRange(50, 500, stream)})
	}
	pterm.DefaultSection.Println("Proof-of-Stake")
	pterm.Info.Println("The staker with the largest pledged stake is chosen.")
	rows = pterm.TableData{{"Staker", "Stake"}}
	for _, s := range stakers {
		rows = append(rows, []string{s.ID, strconv.Itoa(s.Stake)})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(rows).Render(); err != nil {
		return err
	}
	staker, err := consensus.SelectProofOfStake(stakers)
	if err != nil {
		return err
	}
	pterm.Success.Printfln("Selected PoS validator: %s with stake %d", staker.ID, staker.Stake)

	delegates := []consensus.Delegate{{ID: "Delegate P"}, {ID: "Delegate Q"}, {ID: "Delegate R"}}
	voters := make([]consensus.Voter, 0, 4)
	for i := 1; i <= 4; i++ {
		voters = append(voters, consensus.Voter{ID: "Voter " + strconv.Itoa(i), Votes: consensus.RandomInRange(1, 10, stream)})
	}
	pterm.DefaultSection.Println("Delegated Proof-of-Stake")
	pterm.Info.Println("Token holders vote for delegates; the delegate with the most votes validates the next block.")
	tally, err := consensus.SelectDelegated(delegates, voters, stream)
	if err != nil {
		return err
	}
	for _, b := range tally.Ballots {
		logger.Debug("ballot", "voter", b.Voter.ID, "votes", b.Voter.Votes, "delegate", b.Delegate.ID)
	}
	rows = pterm.TableData{{"Delegate", "Votes"}}
	for i, d := range delegates {
		rows = append(rows, []string{d.ID, strconv.Itoa(tally.Counts[i])})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(rows).Render(); err != nil {
		return err
	}
	pterm.Success.Printfln("Selected DPoS validator: %s", tally.Winner.ID)
	return nil
}
