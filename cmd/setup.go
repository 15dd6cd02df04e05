package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/spotexport/internal/shared"
)

// Setup writes config.toml from the embedded template when missing and migrates the export ledger.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	if _, err := os.Stat(r.configPath); isNotExist(err) {
		r.logger.Info("config file not found, creating from template", "path", r.configPath)
		if err := shared.CreateConfigFile(r.configPath); err != nil {
			return err
		}

		config, err := shared.LoadConfig(r.configPath)
		if err != nil {
			return fmt.Errorf("failed to load created config: %w", err)
		}
		r.config = config
		r.writePlain("✓ Config file created: %s\n", r.configPath)
	} else {
		r.writePlain("Config file: %s\n", r.configPath)
	}

	if r.config.Database.Path == "" {
		r.writePlain("Export ledger disabled (database.path is empty)\n")
		return nil
	}

	r.logger.Info("initializing database", "path", r.config.Database.Path)
	_, closeLedger, err := r.openLedger()
	if err != nil {
		return fmt.Errorf("failed to initialize export ledger: %w", err)
	}
	closeLedger()

	r.writePlain("✓ Export ledger ready: %s\n", r.config.Database.Path)
	r.writePlainln("Next steps:")
	r.writePlain("1. Put %s and %s in %s\n", shared.EnvClientID, shared.EnvClientSecret, r.env.Path())
	r.writePlain("2. Run 'spotexport auth login' to authorize\n")
	return nil
}
