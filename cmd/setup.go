package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/upl/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup creates config.toml from the embedded template when it is missing,
// then initializes the history database and runs migrations.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := r.configPath

	if _, err := os.Stat(configPath); err != nil {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			return err
		}
		r.writePlain("✓ Created %s\n", configPath)

		config, err := shared.LoadConfig(configPath)
		if err != nil {
			return err
		}
		if err := shared.ApplyEnv(config, r.envFile); err != nil {
			return err
		}
		r.config = config
	}

	r.logger.Info("initializing database", "path", r.config.Database.Path)
	if _, err := r.openHistory(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	if cmd.Bool("reset-history") {
		if err := shared.ResetHistory(r.db); err != nil {
			return fmt.Errorf("failed to reset history: %w", err)
		}
		r.writePlainln("✓ Ingest history cleared")
	}

	r.writePlain("✓ Database ready at %s\n", r.config.Database.Path)
	if err := r.config.Validate(); err != nil {
		r.writePlainln("Next steps:")
		r.writePlain("1. Set credentials.spotify.client_id and client_secret in %s\n", configPath)
		r.writePlain("2. Run 'upl auth login'\n")
	}
	return nil
}
