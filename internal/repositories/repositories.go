// package repositories provides the SQLite export ledger.
package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/spotexport/internal/models"
)

// execer is satisfied by both [sql.DB] and [sql.Tx].
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Ledger records export runs and the lifecycle of the artifacts they wrote.
//
// It implements tasks.ExportRecorder and tasks.RemovalRecorder.
type Ledger struct {
	db    *sql.DB
	Runs  *RunRepository
	Files *FileRepository
}

// NewLedger creates a new Ledger over a migrated database.
func NewLedger(db *sql.DB) *Ledger {
	return &Ledger{
		db:    db,
		Runs:  NewRunRepository(db),
		Files: NewFileRepository(db),
	}
}

// RecordExport stores run and its files in one transaction.
//
// Active rows that point at a path being rewritten are closed with [models.RemovedReplaced] so
// each path has at most one active row.
func (l *Ledger) RecordExport(ctx context.Context, run *models.ExportRun, files []models.ExportFile) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	for i := range files {
		if err := files[i].Validate(); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertRun(ctx, tx, run); err != nil {
		return err
	}

	for i := range files {
		if _, err := markRemoved(ctx, tx, files[i].Path, models.RemovedReplaced, run.ExportedAt); err != nil {
			return err
		}
		if err := insertFile(ctx, tx, &files[i]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit export run: %w", err)
	}
	return nil
}

// RecordRemoval closes the active row for path. Paths the ledger never saw are ignored.
func (l *Ledger) RecordRemoval(ctx context.Context, path, reason string, at time.Time) error {
	_, err := l.Files.MarkRemoved(ctx, path, reason, at)
	return err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
