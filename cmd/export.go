package main

import (
	"context"
	"fmt"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/spotexport/internal/models"
	"github.com/desertthunder/spotexport/internal/shared"
	"github.com/desertthunder/spotexport/internal/tasks"
	"github.com/desertthunder/spotexport/internal/ui"
)

const defaultTTLDays = 2

// Export obtains an access token and writes the selected playlists to the output directory.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	ttl, err := r.ttlDays(cmd)
	if err != nil {
		return err
	}

	token, err := r.accessToken(ctx, cmd)
	if err != nil {
		return err
	}

	ledger, closeLedger := r.optionalLedger()
	defer closeLedger()

	opts := []tasks.ExporterOption{
		tasks.WithExportLogger(shared.WithLogger(r.logger, "component", "export")),
		tasks.WithExportClock(r.now),
	}
	if ledger != nil {
		opts = append(opts, tasks.WithExportRecorder(ledger))
	}
	exporter := tasks.NewExporter(r.spotifyCatalog(), opts...)

	outDir := r.outDir(cmd)
	summary, err := exporter.Export(ctx, token, tasks.ExportOpts{
		OutDir:       outDir,
		All:          cmd.Bool("all"),
		TTLDays:      ttl,
		PlainFiles:   cmd.Bool("plain-files") || r.config.Export.PlainFiles,
		WriteSummary: r.config.Export.Summary && !cmd.Bool("no-summary"),
		Selector:     r.selector(cmd),
		Progress:     r.printProgress,
	})
	if err != nil {
		return err
	}

	if summary == nil {
		return r.writePlain("No playlists found.\n")
	}
	return r.writePlain("Exported %d playlists to %s (expire in %d days).\n", len(summary.Exports), outDir, ttl)
}

func (r *Runner) selector(cmd *cli.Command) tasks.Selector {
	if cmd.Bool("pick") {
		return ui.NewPickerSelector(tea.WithOutput(r.output))
	}
	return tasks.NewPromptSelector(r.input, r.output)
}

func (r *Runner) printProgress(u tasks.ProgressUpdate) {
	switch u.Phase {
	case tasks.ExportPlaylist, tasks.WriteManifest:
		r.writePlain("%s\n", u.Message)
	default:
		r.logger.Debug(u.Message, "phase", u.Phase.String(), "step", u.Step, "total", u.Total)
	}
}

// ttlDays resolves the TTL: --ttl-days, then EXPORT_TTL_DAYS, then the config, then two days.
func (r *Runner) ttlDays(cmd *cli.Command) (int, error) {
	if cmd.IsSet("ttl-days") {
		ttl := cmd.Int("ttl-days")
		if ttl < 0 {
			return 0, fmt.Errorf("%w: --ttl-days must not be negative", shared.ErrInvalidArgument)
		}
		return ttl, nil
	}

	if v := r.env.Lookup(shared.EnvTTLDays); v != "" {
		ttl, err := strconv.Atoi(v)
		if err != nil || ttl < 0 {
			return 0, fmt.Errorf("%w: %s=%q is not a non-negative integer", shared.ErrInvalidConfig, shared.EnvTTLDays, v)
		}
		return ttl, nil
	}

	if r.config.Export.TTLDays > 0 {
		return r.config.Export.TTLDays, nil
	}
	return defaultTTLDays, nil
}

// accessToken refreshes the stored token, or runs the browser flow when none is stored.
func (r *Runner) accessToken(ctx context.Context, cmd *cli.Command) (string, error) {
	creds := r.credentials()
	if err := creds.Validate(); err != nil {
		return "", fmt.Errorf("%w (define %s and %s in %s or the environment)",
			err, shared.EnvClientID, shared.EnvClientSecret, r.env.Path())
	}

	var (
		tok *models.TokenResponse
		err error
	)
	if creds.RefreshToken != "" {
		r.writePlain("Using refresh token from .env to request an access token...\n")
		tok, err = r.authenticator().Refresh(ctx, creds)
	} else {
		tok, err = r.authenticator().AuthorizationCode(ctx, creds)
	}
	if err != nil {
		return "", err
	}
	if tok.AccessToken == "" {
		return "", shared.ErrNoAccessToken
	}

	if err := r.saveRefreshToken(cmd, tok.RefreshToken); err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

// saveRefreshToken stores a newly issued refresh token unless --no-save-refresh was given.
func (r *Runner) saveRefreshToken(cmd *cli.Command, refreshToken string) error {
	if refreshToken == "" || cmd.Bool("no-save-refresh") {
		return nil
	}
	r.writePlain("Saving refresh token into .env for future runs...\n")
	if err := r.env.Set(shared.EnvRefreshToken, refreshToken); err != nil {
		return err
	}
	return r.writePlain("Refresh token written to %s (protect this file!).\n", r.env.Path())
}
