package main

import (
	"context"
	"os"

	"github.com/desertthunder/spotexport/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)

	runner := NewRunner(RunnerOpts{Logger: logger})

	if err := runner.app().Run(context.Background(), os.Args); err != nil {
		logger.Error("application error", "error", err)
		os.Exit(1)
	}
}
