package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/spotexport/internal/models"
)

// RunRepository reads and writes export_runs.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Get retrieves a run by ID
func (r *RunRepository) Get(ctx context.Context, id string) (*models.ExportRun, error) {
	query := `
		SELECT id, exported_at, out_dir, playlist_count
		FROM export_runs
		WHERE id = ?
	`

	run, err := scanRun(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("export run not found: %s", id)
	}
	return run, err
}

// List returns the most recent runs first. A non-positive limit returns every run.
func (r *RunRepository) List(ctx context.Context, limit int) ([]*models.ExportRun, error) {
	query := `
		SELECT id, exported_at, out_dir, playlist_count
		FROM export_runs
		ORDER BY exported_at DESC, rowid DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query export runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.ExportRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

func insertRun(ctx context.Context, ex execer, run *models.ExportRun) error {
	query := `
		INSERT INTO export_runs (id, exported_at, out_dir, playlist_count)
		VALUES (?, ?, ?, ?)
	`
	if _, err := ex.ExecContext(ctx, query, run.ID, run.ExportedAt.UTC(), run.OutDir, run.PlaylistCount); err != nil {
		return fmt.Errorf("failed to insert export run: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*models.ExportRun, error) {
	var (
		run        models.ExportRun
		exportedAt time.Time
	)

	if err := row.Scan(&run.ID, &exportedAt, &run.OutDir, &run.PlaylistCount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan export run: %w", err)
	}

	run.ExportedAt = exportedAt.UTC()
	return &run, nil
}
