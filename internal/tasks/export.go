package tasks

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/spotexport/internal/formatter"
	"github.com/desertthunder/spotexport/internal/models"
	"github.com/desertthunder/spotexport/internal/services"
	"github.com/desertthunder/spotexport/internal/shared"
)

// SummaryFile is the reserved manifest name in an export directory.
const SummaryFile = "summary.json"

// ArtifactName returns the JSON file name for a playlist.
func ArtifactName(playlistID string) string {
	return "playlist_" + playlistID + ".json"
}

// TextSibling returns the plain text path next to a JSON artifact.
func TextSibling(jsonPath string) string {
	return jsonPath[:len(jsonPath)-len(filepath.Ext(jsonPath))] + ".txt"
}

// LedgerPath is the form of path stored in the ledger: absolute, so rows match regardless of the
// working directory. It falls back to the cleaned path when the working directory is unknown.
func LedgerPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}

// ExportRecorder persists a finished export run.
type ExportRecorder interface {
	RecordExport(ctx context.Context, run *models.ExportRun, files []models.ExportFile) error
}

// ExportOpts contains configuration for a single export run.
type ExportOpts struct {
	OutDir       string       // Directory receiving the artifacts (default: exports)
	All          bool         // Export every playlist without asking the Selector
	TTLDays      int          // Days until the artifacts expire
	PlainFiles   bool         // Also write playlist_<id>.txt
	WriteSummary bool         // Write summary.json
	Selector     Selector     // Chooses playlists when All is false
	Progress     ProgressFunc // Optional progress receiver
}

// Exporter writes playlist artifacts fetched from a [services.Catalog].
type Exporter struct {
	catalog  services.Catalog
	recorder ExportRecorder
	logger   *log.Logger
	now      func() time.Time
}

// ExporterOption configures an [Exporter].
type ExporterOption func(*Exporter)

// WithExportRecorder records each run in a ledger.
func WithExportRecorder(r ExportRecorder) ExporterOption {
	return func(e *Exporter) { e.recorder = r }
}

// WithExportLogger sets the logger.
func WithExportLogger(l *log.Logger) ExporterOption {
	return func(e *Exporter) { e.logger = l }
}

// WithExportClock replaces [time.Now].
func WithExportClock(now func() time.Time) ExporterOption {
	return func(e *Exporter) { e.now = now }
}

// NewExporter creates an [Exporter] reading from catalog.
func NewExporter(catalog services.Catalog, opts ...ExporterOption) *Exporter {
	e := &Exporter{
		catalog: catalog,
		logger:  log.New(io.Discard),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Export writes the selected playlists to opts.OutDir.
//
// It returns nil and writes nothing when the user has no playlists. A failed selection, track
// fetch or JSON write fails the run; a failed plain text write is logged and the JSON kept.
func (e *Exporter) Export(ctx context.Context, token string, opts ExportOpts) (*models.ExportSummary, error) {
	if opts.OutDir == "" {
		opts.OutDir = "exports"
	}
	if err := os.MkdirAll(opts.OutDir, 0755); err != nil {
		return nil, &shared.LocalIOError{Op: "create", Path: opts.OutDir, Err: err}
	}

	opts.Progress.send(fetchingPlaylistsUpdate())
	playlists, err := e.catalog.Playlists(ctx, token)
	if err != nil {
		return nil, err
	}
	opts.Progress.send(foundPlaylistsUpdate(len(playlists)))

	if len(playlists) == 0 {
		e.logger.Info("no playlists found for this user")
		return nil, nil
	}

	selected, err := e.selectPlaylists(playlists, opts)
	if err != nil {
		return nil, err
	}
	opts.Progress.send(selectedPlaylistsUpdate(len(selected), len(playlists)))

	started := e.now().UTC()
	summary := &models.ExportSummary{
		RunID:      shared.GenerateID(),
		ExportedAt: models.FormatTime(started),
		Exports:    make([]models.ExportEntry, 0, len(selected)),
	}
	files := make([]models.ExportFile, 0, len(selected))

	for i, pl := range selected {
		opts.Progress.send(exportingPlaylistUpdate(i+1, len(selected), pl))

		file, err := e.exportOne(ctx, token, pl, opts)
		if err != nil {
			return nil, err
		}
		file.RunID = summary.RunID

		summary.Exports = append(summary.Exports, models.ExportEntry{
			PlaylistID: pl.ID,
			File:       file.Path,
			ExpiresAt:  models.FormatTime(file.ExpiresAt),
		})
		files = append(files, file)
		opts.Progress.send(exportCompletedUpdate(i+1, len(selected), file.Path, file.TrackCount))
	}

	if opts.WriteSummary {
		path := filepath.Join(opts.OutDir, SummaryFile)
		if err := formatter.WriteSummary(summary, path); err != nil {
			return nil, err
		}
		opts.Progress.send(manifestUpdate(path))
	}

	e.record(ctx, summary, started, opts.OutDir, files)
	return summary, nil
}

func (e *Exporter) selectPlaylists(playlists []models.PlaylistSummary, opts ExportOpts) ([]models.PlaylistSummary, error) {
	if opts.All {
		return playlists, nil
	}
	if opts.Selector == nil {
		return nil, fmt.Errorf("%w: no playlist selector configured", shared.ErrMissingArgument)
	}
	return opts.Selector.Select(playlists)
}

func (e *Exporter) exportOne(ctx context.Context, token string, pl models.PlaylistSummary, opts ExportOpts) (models.ExportFile, error) {
	logger := e.logger.With("playlist_id", pl.ID)
	logger.Info("processing playlist", "name", pl.Name, "tracks", pl.TotalTracks)

	tracks, err := e.catalog.Tracks(ctx, token, pl.ID)
	if err != nil {
		return models.ExportFile{}, err
	}

	now := e.now().UTC()
	expiresAt := now.Add(time.Duration(opts.TTLDays) * 24 * time.Hour).Truncate(time.Second)
	artifact := &models.ExportArtifact{
		PlaylistID:   pl.ID,
		PlaylistName: pl.Name,
		OwnerID:      pl.OwnerID,
		TotalTracks:  pl.TotalTracks,
		ExpiresAt:    models.FormatTime(expiresAt),
		Tracks:       tracks,
	}

	path := filepath.Join(opts.OutDir, ArtifactName(pl.ID))
	if err := formatter.WriteJSONExport(artifact, path); err != nil {
		return models.ExportFile{}, err
	}
	logger.Debug("wrote artifact", "path", path, "tracks", len(tracks))

	if opts.PlainFiles {
		txt := TextSibling(path)
		if err := formatter.WriteTextExport(tracks, txt); err != nil {
			logger.Warn("failed to write plain text file", "path", txt, "error", err)
		}
	}

	return models.ExportFile{
		ID:           shared.GenerateID(),
		PlaylistID:   pl.ID,
		PlaylistName: pl.Name,
		OwnerID:      pl.Owner(),
		Path:         path,
		TrackCount:   len(tracks),
		ExpiresAt:    expiresAt,
		CreatedAt:    now,
	}, nil
}

func (e *Exporter) record(ctx context.Context, summary *models.ExportSummary, at time.Time, outDir string, files []models.ExportFile) {
	if e.recorder == nil {
		return
	}
	run := &models.ExportRun{
		ID:            summary.RunID,
		ExportedAt:    at,
		OutDir:        LedgerPath(outDir),
		PlaylistCount: len(files),
	}
	rows := make([]models.ExportFile, len(files))
	for i, f := range files {
		f.Path = LedgerPath(f.Path)
		rows[i] = f
	}
	if err := e.recorder.RecordExport(ctx, run, rows); err != nil {
		e.logger.Warn("failed to record export in ledger", "run_id", run.ID, "error", err)
	}
}
