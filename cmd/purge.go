package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/spotexport/internal/shared"
	"github.com/desertthunder/spotexport/internal/tasks"
)

// newPurger builds a [tasks.Purger] for the output directory, recording removals when the
// ledger is available. The returned func closes the ledger.
func (r *Runner) newPurger(cmd *cli.Command) (*tasks.Purger, func()) {
	ledger, closeLedger := r.optionalLedger()

	opts := []tasks.PurgerOption{
		tasks.WithPurgeLogger(shared.WithLogger(r.logger, "component", "purge")),
		tasks.WithPurgeClock(r.now),
		tasks.WithPurgeProgress(func(u tasks.ProgressUpdate) {
			r.logger.Debug(u.Message)
		}),
	}
	if ledger != nil {
		opts = append(opts, tasks.WithRemovalRecorder(ledger))
	}
	return tasks.NewPurger(r.outDir(cmd), opts...), closeLedger
}

// Purge removes expired exports.
func (r *Runner) Purge(ctx context.Context, cmd *cli.Command) error {
	purger, closeLedger := r.newPurger(cmd)
	defer closeLedger()

	removed, err := purger.PurgeExpired(ctx)
	if err != nil {
		return err
	}
	return r.writePlain("Removed %d files.\n", len(removed))
}

// DeleteOwner removes exports of playlists owned by --delete-owner.
func (r *Runner) DeleteOwner(ctx context.Context, cmd *cli.Command) error {
	owner := cmd.String("delete-owner")
	purger, closeLedger := r.newPurger(cmd)
	defer closeLedger()

	removed, err := purger.DeleteForOwner(ctx, owner)
	if err != nil {
		return err
	}
	return r.writePlain("Deleted %d files for owner %s.\n", len(removed), owner)
}

// PurgeAll removes every export after confirmation.
func (r *Runner) PurgeAll(ctx context.Context, cmd *cli.Command) error {
	dir := r.outDir(cmd)
	if !r.confirm(cmd, fmt.Sprintf("This will permanently delete all exports in '%s'. Continue?", dir)) {
		r.writePlain("Aborted purge-all.\n")
		return fmt.Errorf("%w: purge-all", shared.ErrAborted)
	}

	purger, closeLedger := r.newPurger(cmd)
	defer closeLedger()

	removed, err := purger.PurgeAll(ctx)
	if err != nil {
		return err
	}
	return r.writePlain("Force-removed %d files.\n", len(removed))
}

// Disconnect deletes the stored refresh token after confirmation.
func (r *Runner) Disconnect(ctx context.Context, cmd *cli.Command) error {
	if !r.confirm(cmd, fmt.Sprintf("Remove %s from the .env file and disconnect?", shared.EnvRefreshToken)) {
		r.writePlain("Disconnect aborted.\n")
		return fmt.Errorf("%w: disconnect", shared.ErrAborted)
	}

	removed, err := r.env.Delete(shared.EnvRefreshToken)
	if err != nil {
		return err
	}
	if !removed {
		return r.writePlain("No %s found in %s\n", shared.EnvRefreshToken, r.env.Path())
	}
	return r.writePlain("%s removed from %s\n", shared.EnvRefreshToken, r.env.Path())
}

// ClearEnv truncates the credential store after confirmation.
func (r *Runner) ClearEnv(ctx context.Context, cmd *cli.Command) error {
	if !r.confirm(cmd, fmt.Sprintf("This will truncate/clear the file %s. Continue?", r.env.Path())) {
		r.writePlain("Clear .env aborted.\n")
		return fmt.Errorf("%w: clear-env", shared.ErrAborted)
	}

	if err := r.env.Clear(); err != nil {
		return err
	}
	return r.writePlain("%s truncated (cleared).\n", r.env.Path())
}
