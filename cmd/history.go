package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/spotexport/internal/models"
	"github.com/desertthunder/spotexport/internal/repositories"
	"github.com/desertthunder/spotexport/internal/shared"
)

// History prints recent export runs and the ledger's active files, or one run's files with --run.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	ledger, closeLedger, err := r.openLedger()
	if err != nil {
		return err
	}
	defer closeLedger()
	if ledger == nil {
		return fmt.Errorf("%w: database.path is empty, the export ledger is disabled", shared.ErrMissingConfig)
	}

	if id := cmd.String("run"); id != "" {
		return r.runDetail(ctx, ledger, id)
	}

	runs, err := ledger.Runs.List(ctx, cmd.Int("limit"))
	if err != nil {
		return err
	}

	r.writePlainHeader("Export runs")
	if len(runs) == 0 {
		r.writePlain("No exports recorded yet.\n")
	}
	for _, run := range runs {
		r.writePlain("%s  %s  %d playlists  %s\n", models.FormatTime(run.ExportedAt), run.ID, run.PlaylistCount, run.OutDir)
	}

	files, err := ledger.Files.Active(ctx)
	if err != nil {
		return err
	}

	now := r.now().UTC()
	r.writePlainln("Active files (%d)", len(files))
	for _, f := range files {
		r.writePlain("  %s  %s (%d tracks)  %s\n", f.Path, f.PlaylistName, f.TrackCount, fileStatus(f, now))
	}

	expired, err := ledger.Files.ExpiredBefore(ctx, now)
	if err != nil {
		return err
	}
	if len(expired) > 0 {
		r.writePlain("%d files are past expiry; run 'spotexport --purge' to remove them.\n", len(expired))
	}
	return nil
}

func (r *Runner) runDetail(ctx context.Context, ledger *repositories.Ledger, id string) error {
	run, err := ledger.Runs.Get(ctx, id)
	if err != nil {
		return err
	}
	files, err := ledger.Files.ListByRun(ctx, id)
	if err != nil {
		return err
	}

	now := r.now().UTC()
	r.writePlainHeader("Export run " + run.ID)
	r.writePlain("Exported: %s\n", models.FormatTime(run.ExportedAt))
	r.writePlain("Out dir:  %s\n", run.OutDir)
	r.writePlainln("Files (%d)", len(files))
	for _, f := range files {
		status := fileStatus(f, now)
		if f.RemovedAt != nil {
			status = fmt.Sprintf("removed %s (%s)", models.FormatTime(*f.RemovedAt), f.RemovedReason)
		}
		r.writePlain("  %s  %s (%d tracks)  %s\n", f.Path, f.PlaylistName, f.TrackCount, status)
	}
	return nil
}

func fileStatus(f *models.ExportFile, now time.Time) string {
	if !now.Before(f.ExpiresAt) {
		return "expired " + models.FormatTime(f.ExpiresAt)
	}
	return "expires " + models.FormatTime(f.ExpiresAt)
}
