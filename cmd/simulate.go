package main

import (
	"log/slog"

	"github.com/pkg/errors"
	"github.com/pterm/pterm"

	"github.com/luca-patrignani/powchain/ledger"
)

var transfers = []ledger.Payload{
	{"amount": 10, "from": "Alice", "to": "Bob"},
	{"amount": 5, "from": "Bob", "to": "Charlie"},
	{"amount": 3, "from": "Charlie", "to": "Alice"},
	{"amount": 7, "from": "Dave", "to": "Eve"},
}

// samplePayload returns the i-th demo transfer, cycling through the list.
func samplePayload(i int) ledger.Payload {
	src := transfers[i%len(transfers)]
	p := make(ledger.Payload, len(src))
	for k, v := range src {
		p[k] = v
	}
	return p
}

func runSimulate(cfg *config, logger *slog.Logger, hasher ledger.Hasher) error {
	opts := cfg.Simulate
	bc := ledger.NewBlockchain(
		ledger.WithHasher(hasher),
		ledger.WithLogger(logger),
		ledger.WithOrderCheck(),
	)

	pterm.DefaultSection.Printfln("Building an unmined chain with %d blocks", opts.Blocks)
	for i := 0; i < opts.Blocks; i++ {
		b := bc.NextBlock(samplePayload(i))
		if _, err := bc.Append(b); err != nil {
			return errors.Wrapf(err, "failed to append block %d", b.Index())
		}
		pterm.Info.Printfln("Block %d digest: %s", b.Index(), b.Digest())
	}
	if err := printChain(bc, cfg.Dump); err != nil {
		return err
	}
	printVerdict("Initial check", bc.Validate())

	pterm.DefaultSection.Printfln("Tampering with block %d", opts.Tamper)
	tampered, err := bc.GetByIndex(opts.Tamper)
	if err != nil {
		return err
	}
	tampered.SetPayload(ledger.Payload{"amount": 10000, "from": "Alice", "to": "Bob (Tampered)"})
	pterm.Warning.Printfln("Block %d data tampered!", opts.Tamper)
	printVerdict("After tampering without recomputing the digest", bc.Validate())

	tampered.RecomputeDigest()
	pterm.Info.Printfln("New block %d digest: %s", opts.Tamper, tampered.Digest())
	printVerdict("After recomputing only the tampered block", bc.Validate())

	if next := opts.Tamper + 1; next < bc.Len() {
		pterm.DefaultSection.Println("Recomputing the following blocks to restore validity")
		if err := bc.Repair(next); err != nil {
			return err
		}
		for _, b := range bc.Blocks()[next:] {
			pterm.Info.Printfln("Recomputed block %d digest: %s", b.Index(), b.Digest())
		}
	}
	printVerdict("After recomputing every following block", bc.Validate())
	return nil
}
