package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jrick/logrotate/rotator"
	"github.com/pkg/errors"
	"github.com/pterm/pterm"
)

const (
	logRotateThresholdKB = 10 * 1024
	logRotateMaxRolls    = 3
)

var logLevels = map[string]pterm.LogLevel{
	"trace": pterm.LogLevelTrace,
	"debug": pterm.LogLevelDebug,
	"info":  pterm.LogLevelInfo,
	"warn":  pterm.LogLevelWarn,
	"error": pterm.LogLevelError,
}

// initLogging builds a slog logger backed by the pterm logger. When logFile
// is set the log stream is also written to a size-rotated file. The returned
// function closes the file.
func initLogging(level, logFile string) (*slog.Logger, func(), error) {
	l, ok := logLevels[level]
	if !ok {
		return nil, nil, errors.Errorf("unknown log level %q", level)
	}
	logger := pterm.DefaultLogger.WithLevel(l)
	closer := func() {}

	if logFile != "" {
		logDir, _ := filepath.Split(logFile)
		if logDir != "" {
			if err := os.MkdirAll(logDir, 0700); err != nil {
				return nil, nil, errors.Wrap(err, "failed to create log directory")
			}
		}
		r, err := rotator.New(logFile, logRotateThresholdKB, false, logRotateMaxRolls)
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed to create file rotator")
		}
		logger = logger.WithWriter(io.MultiWriter(os.Stdout, r))
		closer = func() { _ = r.Close() }
	}

	return slog.New(pterm.NewSlogHandler(logger)), closer, nil
}
