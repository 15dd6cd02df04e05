// Spotify Web API implementation of [Catalog]
//
// Response shapes follow https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/desertthunder/spotexport/internal/formatter"
	"github.com/desertthunder/spotexport/internal/models"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	playlistPageSize = 50
	trackPageSize    = 100
)

// Owner is the playlist owner reference.
type Owner struct {
	ID *string `json:"id"`
}

// SpotifySimplePlaylist is a listing entry of /me/playlists.
type SpotifySimplePlaylist struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Owner  *Owner  `json:"owner"`
	Tracks *struct {
		Total int `json:"total"`
	} `json:"tracks"`
}

// SpotifyArtist is the part of an artist object that is exported.
type SpotifyArtist struct {
	Name string `json:"name"`
}

// SpotifyTrack is the part of a track object that is exported.
type SpotifyTrack struct {
	ID         *string         `json:"id"`
	Name       *string         `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	DurationMS *float64        `json:"duration_ms"`
}

// SpotifyClient reads playlists and tracks through a [Fetcher].
type SpotifyClient struct {
	fetcher *Fetcher
	baseURL string
}

// NewSpotifyClient creates a client for baseURL, defaulting to the public Web API.
func NewSpotifyClient(fetcher *Fetcher, baseURL string) *SpotifyClient {
	if baseURL == "" {
		baseURL = spotifyBaseURL
	}
	return &SpotifyClient{fetcher: fetcher, baseURL: strings.TrimRight(baseURL, "/")}
}

// Playlists retrieves every playlist of the current user.
func (c *SpotifyClient) Playlists(ctx context.Context, token string) ([]models.PlaylistSummary, error) {
	params := url.Values{"limit": {fmt.Sprint(playlistPageSize)}}
	result, err := c.fetcher.FetchAll(ctx, c.baseURL+"/me/playlists", token, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list playlists: %w", err)
	}

	playlists := make([]models.PlaylistSummary, 0, len(result.Items))
	for _, item := range result.Items {
		var sp SpotifySimplePlaylist
		if err := json.Unmarshal(item, &sp); err != nil || sp.ID == "" {
			continue
		}

		summary := models.PlaylistSummary{ID: sp.ID, Name: sp.Name}
		if sp.Owner != nil {
			summary.OwnerID = sp.Owner.ID
		}
		if sp.Tracks != nil {
			summary.TotalTracks = sp.Tracks.Total
		}
		playlists = append(playlists, summary)
	}
	return playlists, nil
}

// Tracks retrieves every track of a playlist.
//
// Items wrapping the track under "track" are unwrapped; null tracks are skipped.
func (c *SpotifyClient) Tracks(ctx context.Context, token, playlistID string) ([]models.TrackRecord, error) {
	endpoint := fmt.Sprintf("%s/playlists/%s/tracks", c.baseURL, url.PathEscape(playlistID))
	params := url.Values{"limit": {fmt.Sprint(trackPageSize)}}
	result, err := c.fetcher.FetchAll(ctx, endpoint, token, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracks of playlist %s: %w", playlistID, err)
	}

	tracks := make([]models.TrackRecord, 0, len(result.Items))
	for _, item := range result.Items {
		st, ok := unwrapTrack(item)
		if !ok {
			continue
		}
		tracks = append(tracks, toTrackRecord(st))
	}
	return tracks, nil
}

func unwrapTrack(item json.RawMessage) (*SpotifyTrack, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(item, &fields); err != nil || fields == nil {
		return nil, false
	}

	data := item
	if wrapped, ok := fields["track"]; ok {
		data = wrapped
		var inner map[string]json.RawMessage
		if err := json.Unmarshal(wrapped, &inner); err != nil || len(inner) == 0 {
			return nil, false
		}
	} else if len(fields) == 0 {
		return nil, false
	}

	var st *SpotifyTrack
	if err := json.Unmarshal(data, &st); err != nil || st == nil {
		return nil, false
	}
	return st, true
}

func toTrackRecord(st *SpotifyTrack) models.TrackRecord {
	record := models.TrackRecord{
		TrackID: st.ID,
		Title:   st.Name,
		Artists: []string{},
	}
	for _, a := range st.Artists {
		if a.Name != "" {
			record.Artists = append(record.Artists, a.Name)
		}
	}
	if st.DurationMS != nil {
		ms := int64(*st.DurationMS)
		record.DurationMS = &ms
		record.Duration = formatter.MsToHHMMSS(&ms)
	}
	return record
}
