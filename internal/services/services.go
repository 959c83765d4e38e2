// package services implements the Spotify authorization flow and the Web API clients built on it
package services

import (
	"context"
	"encoding/json"

	"github.com/desertthunder/upl/internal/models"
)

// TrackSearcher resolves free text to a track URI.
type TrackSearcher interface {
	// SearchTrack returns the URI of the best match, or false when nothing matched.
	SearchTrack(ctx context.Context, query string) (string, bool, error)
}

// TrackAppender adds tracks to the managed playlist.
type TrackAppender interface {
	AddTrackToManagedPlaylist(ctx context.Context, trackURI string) error
}

// ProfileReader reads the current user's profile and listening history.
type ProfileReader interface {
	GetProfile(ctx context.Context) (*models.Profile, error)
	GetTopArtists(ctx context.Context, limit int) ([]json.RawMessage, error)
	GetTopTracks(ctx context.Context, limit int) ([]json.RawMessage, error)
}

var (
	_ TrackSearcher = (*CatalogClient)(nil)
	_ ProfileReader = (*CatalogClient)(nil)
	_ TrackAppender = (*PlaylistManager)(nil)
	_ TokenProvider = (*Authenticator)(nil)
)
