package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"

	"github.com/luca-patrignani/powchain/ledger"
)

func main() {
	cfg, command, err := parseConfig(os.Args[1:])
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
			// go-flags has already printed the error
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Error parsing command-line arguments: %s\n", err)
		os.Exit(1)
	}

	logger, closeLog, err := initLogging(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %s\n", err)
		os.Exit(1)
	}

	_ = pterm.DefaultBigText.WithLetters(
		putils.LettersFromStringWithStyle("Pow", pterm.FgRed.ToStyle()),
		putils.LettersFromStringWithStyle("Chain", pterm.FgDarkGray.ToStyle()),
	).Render()

	err = run(command, cfg, logger)
	if err != nil {
		logger.Error("command failed", "command", command, "error", err)
	}
	closeLog()
	if err != nil {
		os.Exit(1)
	}
}

func run(command string, cfg *config, logger *slog.Logger) error {
	hasher, err := ledger.HasherByName(cfg.Hasher)
	if err != nil {
		return err
	}
	logger.Debug("starting", "command", command, "hasher", hasher.Name())

	switch command {
	case "simulate":
		return runSimulate(cfg, logger, hasher)
	case "mine":
		return runMine(cfg, logger, hasher)
	case "consensus":
		return runConsensus(cfg, logger)
	default:
		return errors.Errorf("unknown command %q", command)
	}
}
