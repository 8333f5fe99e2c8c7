package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/djay/internal/shared"
	"github.com/urfave/cli/v3"
)

const version = "0.1.0"

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	app := &cli.Command{
		Name:     "djay",
		Usage:    "Browse and play playlists from a catalog API",
		Version:  version,
		Flags:    globalFlags(),
		Before:   runner.Before,
		Action:   runner.TUI,
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		}
		logger.Fatalf("application error: %v", err)
	}
}
