package tasks

import (
	"fmt"

	"github.com/desertthunder/spotexport/internal/models"
)

// ProgressUpdate represents a progress event during an export or purge.
//
// Used to send updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// ProgressFunc receives progress updates synchronously on the calling goroutine.
type ProgressFunc func(ProgressUpdate)

// Operation phase enumeration
type Phase int

const (
	FetchPlaylists Phase = iota
	SelectPlaylists
	ExportPlaylist
	WriteManifest
	PurgeFiles
)

func (p Phase) String() string {
	switch p {
	case FetchPlaylists:
		return "fetch_playlists"
	case SelectPlaylists:
		return "select_playlists"
	case ExportPlaylist:
		return "export_playlist"
	case WriteManifest:
		return "write_manifest"
	case PurgeFiles:
		return "purge_files"
	default:
		return ""
	}
}

// send delivers update when a receiver is registered.
func (fn ProgressFunc) send(update ProgressUpdate) {
	if fn != nil {
		fn(update)
	}
}

func fetchingPlaylistsUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylists,
		Step:    0,
		Total:   1,
		Message: "Fetching playlists...",
	}
}

func foundPlaylistsUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylists,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d playlists", count),
	}
}

func selectedPlaylistsUpdate(selected, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SelectPlaylists,
		Step:    selected,
		Total:   total,
		Message: fmt.Sprintf("Selected %d of %d playlists", selected, total),
	}
}

func exportingPlaylistUpdate(step, total int, pl models.PlaylistSummary) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Processing playlist: %s (id=%s) - %d tracks", step, total, pl.Name, pl.ID, pl.TotalTracks),
		Data:    pl,
	}
}

func exportCompletedUpdate(step, total int, path string, tracks int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] wrote %s (%d tracks)", step, total, path, tracks),
	}
}

func manifestUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteManifest,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Summary: %s", path),
	}
}

func removedFileUpdate(step int, path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PurgeFiles,
		Step:    step,
		Total:   0,
		Message: fmt.Sprintf("Removed: %s", path),
		Data:    path,
	}
}
