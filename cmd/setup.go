package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/soundexplorer/internal/repositories"
	"github.com/desertthunder/soundexplorer/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the example configuration to --config.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if err := shared.CreateConfigFile(configPath); err != nil {
		return err
	}
	r.logger.Info("config file created", "path", configPath)

	r.writeStatus("Config written to %s", configPath)
	r.writePlain("%s set %s and %s (or put them in .env), then run 'soundexplorer serve'\n",
		labelStyle.Render("Next:"), shared.EnvClientID, shared.EnvClientSecret)
	return nil
}

// SetupDatabase initializes the sqlite session database and runs migrations, or rolls back the latest one.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.NewDatabase(ctx, config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	if cmd.Bool("rollback") {
		if err := shared.RollbackMigration(ctx, db); err != nil {
			return err
		}
		return r.writeStatus("Rolled back latest migration in %s", config.Database.Path)
	}

	r.logger.Info("running database migrations")
	applied, err := shared.RunMigrations(ctx, db)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	r.logger.Infof("setup complete for database: %v", config.Database.Path)

	return r.writeStatus("Database %s ready (%d migrations applied)", config.Database.Path, applied)
}

// PruneSessions deletes expired rows from the sqlite session table.
func (r *Runner) PruneSessions(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	db, err := shared.NewDatabase(ctx, config.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repositories.NewSessionRepository(db)
	pruned, err := repo.DeleteExpired(ctx)
	if err != nil {
		return err
	}
	remaining, err := repo.Count(ctx)
	if err != nil {
		return err
	}

	r.logger.Info("sessions pruned", "deleted", pruned, "remaining", remaining)
	return r.writeStatus("Deleted %d expired sessions, %d remaining", pruned, remaining)
}
