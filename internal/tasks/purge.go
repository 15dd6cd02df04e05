package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/spotexport/internal/models"
	"github.com/desertthunder/spotexport/internal/shared"
)

var (
	artifactPattern = regexp.MustCompile(`^playlist_.+\.json$`)
	siblingPattern  = regexp.MustCompile(`^playlist_.+\.txt$`)
)

// RemovalRecorder is told about every JSON artifact a [Purger] removes.
type RemovalRecorder interface {
	RecordRemoval(ctx context.Context, path, reason string, at time.Time) error
}

// Purger removes export artifacts from a single directory.
type Purger struct {
	dir      string
	recorder RemovalRecorder
	logger   *log.Logger
	now      func() time.Time
	progress ProgressFunc
}

// PurgerOption configures a [Purger].
type PurgerOption func(*Purger)

// WithRemovalRecorder reports removals to a ledger.
func WithRemovalRecorder(r RemovalRecorder) PurgerOption {
	return func(p *Purger) { p.recorder = r }
}

// WithPurgeLogger sets the logger.
func WithPurgeLogger(l *log.Logger) PurgerOption {
	return func(p *Purger) { p.logger = l }
}

// WithPurgeClock replaces [time.Now].
func WithPurgeClock(now func() time.Time) PurgerOption {
	return func(p *Purger) { p.now = now }
}

// WithPurgeProgress receives one update per removed file.
func WithPurgeProgress(fn ProgressFunc) PurgerOption {
	return func(p *Purger) { p.progress = fn }
}

// NewPurger creates a [Purger] for dir.
func NewPurger(dir string, opts ...PurgerOption) *Purger {
	p := &Purger{
		dir:    dir,
		logger: log.New(io.Discard),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// artifactFields is the part of an artifact the purge rules look at.
type artifactFields struct {
	ExpiresAt *string `json:"expires_at"`
	OwnerID   *string `json:"owner_id"`
}

// PurgeExpired removes artifacts whose expires_at is at or before now, with their .txt siblings.
//
// Artifacts without a parseable expires_at are left alone.
func (p *Purger) PurgeExpired(ctx context.Context) ([]string, error) {
	now := p.now().UTC()
	return p.scan(ctx, models.RemovedExpired, func(path string, a artifactFields) bool {
		if a.ExpiresAt == nil || *a.ExpiresAt == "" {
			return false
		}
		expires, err := models.ParseTime(*a.ExpiresAt)
		if err != nil {
			p.logger.Debug("skipping artifact with unparseable expires_at", "path", path, "expires_at", *a.ExpiresAt)
			return false
		}
		return !now.Before(expires)
	})
}

// DeleteForOwner removes artifacts whose owner_id equals owner, with their .txt siblings.
func (p *Purger) DeleteForOwner(ctx context.Context, owner string) ([]string, error) {
	return p.scan(ctx, models.RemovedOwner, func(_ string, a artifactFields) bool {
		return a.OwnerID != nil && *a.OwnerID == owner
	})
}

// PurgeAll removes every playlist_*.json, every playlist_*.txt and the summary manifest.
func (p *Purger) PurgeAll(ctx context.Context) ([]string, error) {
	entries, err := p.entries()
	if err != nil || entries == nil {
		return nil, err
	}

	removed := []string{}
	at := p.now().UTC()
	for _, entry := range entries {
		name := entry.Name()
		isArtifact := artifactPattern.MatchString(name)
		if !isArtifact && !siblingPattern.MatchString(name) && name != SummaryFile {
			continue
		}

		path := filepath.Join(p.dir, name)
		if !p.remove(path, &removed) {
			continue
		}
		if isArtifact {
			p.recordRemoval(ctx, path, models.RemovedForced, at)
		}
	}
	return removed, nil
}

// scan applies match to every readable artifact and removes the matching ones.
func (p *Purger) scan(ctx context.Context, reason string, match func(path string, a artifactFields) bool) ([]string, error) {
	entries, err := p.entries()
	if err != nil || entries == nil {
		return nil, err
	}

	removed := []string{}
	at := p.now().UTC()
	for _, entry := range entries {
		if !artifactPattern.MatchString(entry.Name()) {
			continue
		}
		path := filepath.Join(p.dir, entry.Name())

		fields, err := readArtifactFields(path)
		if err != nil {
			p.logger.Warn("failed to process export file", "path", path, "error", err)
			continue
		}
		if !match(path, fields) {
			continue
		}

		if p.remove(path, &removed) {
			p.recordRemoval(ctx, path, reason, at)
		}
		p.remove(TextSibling(path), &removed)
	}
	return removed, nil
}

// entries lists regular files of the directory. A missing directory yields nil.
func (p *Purger) entries() ([]fs.DirEntry, error) {
	all, err := os.ReadDir(p.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, &shared.LocalIOError{Op: "read", Path: p.dir, Err: err}
	}

	files := make([]fs.DirEntry, 0, len(all))
	for _, e := range all {
		if !e.IsDir() {
			files = append(files, e)
		}
	}
	return files, nil
}

func readArtifactFields(path string) (artifactFields, error) {
	var fields artifactFields
	data, err := os.ReadFile(path)
	if err != nil {
		return fields, &shared.LocalIOError{Op: "read", Path: path, Err: err}
	}
	if err := json.Unmarshal(data, &fields); err != nil {
		return fields, err
	}
	return fields, nil
}

// remove deletes path and appends it to removed. Missing files are skipped silently and other
// failures are logged.
func (p *Purger) remove(path string, removed *[]string) bool {
	if err := os.Remove(path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			p.logger.Warn("failed to remove export file", "error", &shared.LocalIOError{Op: "remove", Path: path, Err: err})
		}
		return false
	}
	*removed = append(*removed, path)
	p.progress.send(removedFileUpdate(len(*removed), path))
	p.logger.Debug("removed export file", "path", path)
	return true
}

func (p *Purger) recordRemoval(ctx context.Context, path, reason string, at time.Time) {
	if p.recorder == nil {
		return
	}
	if err := p.recorder.RecordRemoval(ctx, LedgerPath(path), reason, at); err != nil {
		p.logger.Warn("failed to record removal in ledger", "path", path, "error", err)
	}
}
