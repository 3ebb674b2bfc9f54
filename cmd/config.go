package main

import (
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
)

type config struct {
	LogLevel string `long:"loglevel" default:"info" choice:"trace" choice:"debug" choice:"info" choice:"warn" choice:"error" description:"Logging level"`
	LogFile  string `long:"logfile" description:"Also write the log to this file, rotated by size"`
	Hasher   string `long:"hasher" default:"sha256" choice:"sha256" choice:"sha3" choice:"blake2b" choice:"blake2xb" description:"Digest function used by every block"`
	Dump     bool   `long:"dump" description:"Dump every block after the chain is built"`

	Simulate  simulateFlags  `command:"simulate" description:"Build an unmined chain, tamper with one block and repair it"`
	Mine      mineFlags      `command:"mine" description:"Build a proof-of-work chain, then raise the difficulty"`
	Consensus consensusFlags `command:"consensus" description:"Simulate PoW, PoS and DPoS validator selection"`
}

type simulateFlags struct {
	Blocks int `short:"n" long:"blocks" default:"3" description:"Number of blocks after genesis"`
	Tamper int `short:"t" long:"tamper" default:"1" description:"Index of the block to tamper with"`
}

type mineFlags struct {
	Blocks     int  `short:"n" long:"blocks" default:"3" description:"Number of blocks to mine before raising the difficulty"`
	Difficulty int  `short:"d" long:"difficulty" default:"2" description:"Initial number of leading zero hex characters"`
	RaiseTo    int  `long:"raise-to" default:"4" description:"Difficulty used for the last block"`
	Workers    int  `short:"w" long:"workers" default:"1" description:"Number of goroutines searching for a nonce"`
	FullReport bool `long:"full-report" description:"Report every violation instead of the first one"`
}

type consensusFlags struct {
	Seed string `long:"seed" description:"Seed for a reproducible election; random if omitted"`
}

// parseConfig parses args and returns the configuration together with the
// name of the selected command.
func parseConfig(args []string) (*config, string, error) {
	cfg := &config{}
	parser := flags.NewParser(cfg, flags.PrintErrors|flags.HelpFlag)
	_, err := parser.ParseArgs(args)
	if err != nil {
		return nil, "", err
	}
	if parser.Active == nil {
		return nil, "", errors.New("a command is required")
	}

	switch parser.Active.Name {
	case "simulate":
		if cfg.Simulate.Blocks < 1 {
			return nil, "", errors.Errorf("--blocks must be at least 1, got %d", cfg.Simulate.Blocks)
		}
		if cfg.Simulate.Tamper < 1 || cfg.Simulate.Tamper > cfg.Simulate.Blocks {
			return nil, "", errors.Errorf("--tamper must be between 1 and %d, got %d", cfg.Simulate.Blocks, cfg.Simulate.Tamper)
		}
	case "mine":
		if cfg.Mine.Blocks < 1 {
			return nil, "", errors.Errorf("--blocks must be at least 1, got %d", cfg.Mine.Blocks)
		}
		if cfg.Mine.Difficulty < 0 || cfg.Mine.RaiseTo < 0 {
			return nil, "", errors.New("difficulty cannot be negative")
		}
		if cfg.Mine.Workers < 1 {
			return nil, "", errors.Errorf("--workers must be at least 1, got %d", cfg.Mine.Workers)
		}
	}
	return cfg, parser.Active.Name, nil
}
