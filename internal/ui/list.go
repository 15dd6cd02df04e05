package ui

import (
	"fmt"

	"github.com/sahilm/fuzzy"

	"github.com/desertthunder/spotexport/internal/models"
)

var _ fuzzy.Source = playlistSource(nil)

// playlistSource exposes playlist names to [fuzzy.FindFrom].
type playlistSource []models.PlaylistSummary

func (s playlistSource) String(i int) string { return s[i].Name }
func (s playlistSource) Len() int            { return len(s) }

// matchPlaylists returns the indices of playlists matching query, best match first.
//
// An empty query matches everything in listing order.
func matchPlaylists(playlists []models.PlaylistSummary, query string) []int {
	if query == "" {
		all := make([]int, len(playlists))
		for i := range all {
			all[i] = i
		}
		return all
	}

	matches := fuzzy.FindFrom(query, playlistSource(playlists))
	indices := make([]int, len(matches))
	for i, m := range matches {
		indices[i] = m.Index
	}
	return indices
}

func rowLabel(pl models.PlaylistSummary) string {
	return fmt.Sprintf("%s (tracks: %d)", pl.Name, pl.TotalTracks)
}
