package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/spotexport/internal/models"
)

const fileColumns = `id, run_id, playlist_id, playlist_name, owner_id, path, track_count, expires_at, created_at, removed_at, removed_reason`

// FileRepository reads and writes export_files.
//
// A row is active while removed_at is NULL.
type FileRepository struct {
	db *sql.DB
}

// NewFileRepository creates a new FileRepository with the given database connection
func NewFileRepository(db *sql.DB) *FileRepository {
	return &FileRepository{db: db}
}

// ListByRun returns the files written by a run in insertion order.
func (r *FileRepository) ListByRun(ctx context.Context, runID string) ([]*models.ExportFile, error) {
	query := `SELECT ` + fileColumns + ` FROM export_files WHERE run_id = ? ORDER BY rowid ASC`
	return r.query(ctx, query, runID)
}

// Active returns all files not yet removed, soonest expiry first.
func (r *FileRepository) Active(ctx context.Context) ([]*models.ExportFile, error) {
	query := `SELECT ` + fileColumns + ` FROM export_files WHERE removed_at IS NULL ORDER BY expires_at ASC, path ASC`
	return r.query(ctx, query)
}

// ExpiredBefore returns active files whose expiry is at or before t.
func (r *FileRepository) ExpiredBefore(ctx context.Context, t time.Time) ([]*models.ExportFile, error) {
	query := `SELECT ` + fileColumns + ` FROM export_files WHERE removed_at IS NULL AND expires_at <= ? ORDER BY expires_at ASC, path ASC`
	return r.query(ctx, query, t.UTC())
}

// MarkRemoved closes the active row for path and reports how many rows changed.
func (r *FileRepository) MarkRemoved(ctx context.Context, path, reason string, at time.Time) (int64, error) {
	return markRemoved(ctx, r.db, path, reason, at)
}

func (r *FileRepository) query(ctx context.Context, query string, args ...any) ([]*models.ExportFile, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query export files: %w", err)
	}
	defer rows.Close()

	var files []*models.ExportFile
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return files, nil
}

func insertFile(ctx context.Context, ex execer, f *models.ExportFile) error {
	query := `
		INSERT INTO export_files (id, run_id, playlist_id, playlist_name, owner_id, path, track_count, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := ex.ExecContext(ctx, query,
		f.ID,
		f.RunID,
		f.PlaylistID,
		f.PlaylistName,
		nullString(f.OwnerID),
		f.Path,
		f.TrackCount,
		f.ExpiresAt.UTC(),
		f.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert export file: %w", err)
	}
	return nil
}

func markRemoved(ctx context.Context, ex execer, path, reason string, at time.Time) (int64, error) {
	query := `
		UPDATE export_files
		SET removed_at = ?, removed_reason = ?
		WHERE path = ? AND removed_at IS NULL
	`

	result, err := ex.ExecContext(ctx, query, at.UTC(), reason, path)
	if err != nil {
		return 0, fmt.Errorf("failed to mark export file removed: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows, nil
}

func scanFile(row scanner) (*models.ExportFile, error) {
	var (
		f         models.ExportFile
		ownerID   sql.NullString
		expiresAt time.Time
		createdAt time.Time
		removedAt sql.NullTime
		reason    sql.NullString
	)

	err := row.Scan(&f.ID, &f.RunID, &f.PlaylistID, &f.PlaylistName, &ownerID, &f.Path, &f.TrackCount, &expiresAt, &createdAt, &removedAt, &reason)
	if err != nil {
		return nil, fmt.Errorf("failed to scan export file: %w", err)
	}

	f.OwnerID = ownerID.String
	f.ExpiresAt = expiresAt.UTC()
	f.CreatedAt = createdAt.UTC()
	f.RemovedReason = reason.String
	if removedAt.Valid {
		t := removedAt.Time.UTC()
		f.RemovedAt = &t
	}

	return &f, nil
}
