// package models defines the data model for the playlist export tool
package models

import (
	"fmt"
	"time"

	"github.com/desertthunder/spotexport/internal/shared"
)

// TimeLayout is the on-disk timestamp format for expires_at and exported_at.
const TimeLayout = "2006-01-02T15:04:05Z"

// FormatTime renders t in UTC using [TimeLayout].
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime parses a [TimeLayout] timestamp as UTC.
func ParseTime(s string) (time.Time, error) {
	return time.ParseInLocation(TimeLayout, s, time.UTC)
}

// Credentials is the client registration plus the optional long-lived refresh token.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	RefreshToken string
}

// Validate fails unless both halves of the client registration are present.
func (c Credentials) Validate() error {
	if c.ClientID == "" || c.ClientSecret == "" {
		return fmt.Errorf("%w: client id and client secret are required", shared.ErrMissingCredentials)
	}
	return nil
}

// TokenResponse is the token endpoint answer. RefreshToken is empty when the server did not rotate it.
type TokenResponse struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
	TokenType    string
	Scope        string
}

// PlaylistSummary is one entry of the user's playlist listing.
type PlaylistSummary struct {
	ID          string
	Name        string
	OwnerID     *string
	TotalTracks int
}

// Owner returns the owner id or an empty string.
func (p PlaylistSummary) Owner() string {
	if p.OwnerID == nil {
		return ""
	}
	return *p.OwnerID
}

// TrackRecord is a single exported track. Pointer fields serialize as null when the remote omitted them.
type TrackRecord struct {
	TrackID    *string  `json:"track_id"`
	Title      *string  `json:"title"`
	Artists    []string `json:"artists"`
	DurationMS *int64   `json:"duration_ms"`
	Duration   *string  `json:"duration"`
}

// ExportArtifact is the content of one playlist_<id>.json file.
type ExportArtifact struct {
	PlaylistID   string        `json:"playlist_id"`
	PlaylistName string        `json:"playlist_name"`
	OwnerID      *string       `json:"owner_id"`
	TotalTracks  int           `json:"total_tracks"`
	ExpiresAt    string        `json:"expires_at"`
	Tracks       []TrackRecord `json:"tracks"`
}

// ExportEntry is one manifest line.
type ExportEntry struct {
	PlaylistID string `json:"playlist_id"`
	File       string `json:"file"`
	ExpiresAt  string `json:"expires_at"`
}

// ExportSummary is the per-run manifest written to summary.json.
type ExportSummary struct {
	RunID      string        `json:"run_id"`
	ExportedAt string        `json:"exported_at"`
	Exports    []ExportEntry `json:"exports"`
}

// ExportRun is a ledger row describing one export invocation.
type ExportRun struct {
	ID            string
	ExportedAt    time.Time
	OutDir        string
	PlaylistCount int
}

// Validate checks the fields required to persist a run.
func (r *ExportRun) Validate() error {
	if r.ID == "" || r.OutDir == "" {
		return fmt.Errorf("%w: export run requires id and out dir", shared.ErrInvalidInput)
	}
	return nil
}

// ExportFile is a ledger row describing one written artifact.
type ExportFile struct {
	ID            string
	RunID         string
	PlaylistID    string
	PlaylistName  string
	OwnerID       string
	Path          string
	TrackCount    int
	ExpiresAt     time.Time
	CreatedAt     time.Time
	RemovedAt     *time.Time
	RemovedReason string
}

// Validate checks the fields required to persist a file row.
func (f *ExportFile) Validate() error {
	if f.RunID == "" || f.PlaylistID == "" || f.Path == "" {
		return fmt.Errorf("%w: export file requires run id, playlist id and path", shared.ErrInvalidInput)
	}
	return nil
}

// Removal reasons stored in the ledger. RemovedReplaced marks a row superseded by a newer
// export of the same path.
const (
	RemovedExpired  = "expired"
	RemovedOwner    = "owner"
	RemovedForced   = "purge_all"
	RemovedReplaced = "replaced"
)
