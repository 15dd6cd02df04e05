// package formatter renders export artifacts to JSON and plain text and writes them to disk
package formatter

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/spotexport/internal/models"
	"github.com/desertthunder/spotexport/internal/shared"
)

// Placeholders used in plain text output when the remote omitted a field.
const (
	UnknownTitle  = "Unknown Title"
	UnknownArtist = "Unknown Artist"
)

// MsToHHMMSS renders a millisecond duration as H:MM:SS, truncating to whole seconds.
//
// Hours are not zero-padded. A nil input yields nil and negative values clamp to zero.
func MsToHHMMSS(ms *int64) *string {
	if ms == nil {
		return nil
	}
	secs := *ms / 1000
	if secs < 0 {
		secs = 0
	}
	s := fmt.Sprintf("%d:%02d:%02d", secs/3600, (secs%3600)/60, secs%60)
	return &s
}

// PlainTrackLine formats a track as "<title> <artist, artist>".
func PlainTrackLine(t models.TrackRecord) string {
	title := UnknownTitle
	if t.Title != nil && *t.Title != "" {
		title = *t.Title
	}

	artists := UnknownArtist
	if len(t.Artists) > 0 {
		artists = strings.Join(t.Artists, ", ")
	}
	return title + " " + artists
}

// ExportToText renders one line per track. Zero tracks yields an empty document.
func ExportToText(tracks []models.TrackRecord) []byte {
	var buf bytes.Buffer
	for _, t := range tracks {
		buf.WriteString(PlainTrackLine(t))
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// ExportToJSON renders an artifact with two-space indentation and unescaped HTML characters.
func ExportToJSON(artifact *models.ExportArtifact) ([]byte, error) {
	if artifact.Tracks == nil {
		artifact.Tracks = []models.TrackRecord{}
	}
	return shared.MarshalJSON(artifact, true)
}

// WriteJSONExport writes the artifact to path, replacing any previous file.
func WriteJSONExport(artifact *models.ExportArtifact, path string) error {
	data, err := ExportToJSON(artifact)
	if err != nil {
		return fmt.Errorf("failed to encode playlist %s: %w", artifact.PlaylistID, err)
	}
	return writeFile(path, data)
}

// WriteTextExport writes the plain text sibling for an artifact.
func WriteTextExport(tracks []models.TrackRecord, path string) error {
	return writeFile(path, ExportToText(tracks))
}

// WriteSummary writes the run manifest.
func WriteSummary(summary *models.ExportSummary, path string) error {
	if summary.Exports == nil {
		summary.Exports = []models.ExportEntry{}
	}
	data, err := shared.MarshalJSON(summary, true)
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	return writeFile(path, data)
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0644); err != nil {
		return &shared.LocalIOError{Op: "write", Path: path, Err: err}
	}
	return nil
}
