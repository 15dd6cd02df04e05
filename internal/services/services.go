// package services implements the Web API and OAuth clients used by the exporter
package services

import (
	"context"

	"github.com/desertthunder/spotexport/internal/models"
)

// Catalog lists a user's playlists and their tracks.
type Catalog interface {
	// Playlists returns every playlist visible to the token's user, in listing order.
	Playlists(ctx context.Context, token string) ([]models.PlaylistSummary, error)

	// Tracks returns the tracks of a playlist, skipping entries without track data.
	Tracks(ctx context.Context, token, playlistID string) ([]models.TrackRecord, error)
}

// Authenticator obtains access tokens for the Web API.
type Authenticator interface {
	// AuthorizationCode runs the interactive browser flow.
	AuthorizationCode(ctx context.Context, creds models.Credentials) (*models.TokenResponse, error)

	// Refresh trades the stored refresh token for a new access token.
	Refresh(ctx context.Context, creds models.Credentials) (*models.TokenResponse, error)
}
