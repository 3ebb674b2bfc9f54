package main

import (
	"log/slog"

	"github.com/pkg/errors"
	"github.com/pterm/pterm"

	"github.com/luca-patrignani/powchain/ledger"
)

func runMine(cfg *config, logger *slog.Logger, hasher ledger.Hasher) error {
	opts := cfg.Mine
	bc := ledger.NewBlockchain(
		ledger.WithMode(ledger.ModeProofOfWork),
		ledger.WithDifficulty(opts.Difficulty),
		ledger.WithParallelMining(opts.Workers),
		ledger.WithHasher(hasher),
		ledger.WithLogger(logger),
		ledger.WithOrderCheck(),
	)

	pterm.DefaultSection.Printfln("Mining %d blocks with difficulty %d", opts.Blocks, bc.Difficulty())
	for i := 0; i < opts.Blocks; i++ {
		if err := mineNext(bc, samplePayload(i)); err != nil {
			return err
		}
	}
	if err := printChain(bc, cfg.Dump); err != nil {
		return err
	}
	validate(bc, "After mining", opts.FullReport)

	pterm.DefaultSection.Printfln("Raising the difficulty to %d", opts.RaiseTo)
	bc.SetDifficulty(opts.RaiseTo)
	if err := mineNext(bc, samplePayload(opts.Blocks)); err != nil {
		return err
	}
	validate(bc, "After mining with the new difficulty", opts.FullReport)
	pterm.Info.Println("Validation always uses the live difficulty, so earlier blocks are judged against it too.")
	return nil
}

func mineNext(bc *ledger.Blockchain, payload ledger.Payload) error {
	b := bc.NextBlock(payload)
	spinner, _ := pterm.DefaultSpinner.Start("Mining block ", b.Index(), " at difficulty ", bc.Difficulty(), "...")
	report, err := bc.Append(b)
	if err != nil {
		spinner.Fail()
		return errors.Wrapf(err, "failed to mine block %d", b.Index())
	}
	spinner.Success("Block ", b.Index(), " mined")
	pterm.Println(miningSummary(b, report))
	return nil
}

func validate(bc *ledger.Blockchain, label string, fullReport bool) {
	if fullReport {
		pterm.Info.Printfln("%s: full report", label)
		printReport(bc.ValidateAll())
		return
	}
	printVerdict(label, bc.Validate())
}
