package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/upl/internal/models"
	"github.com/desertthunder/upl/internal/shared"
	"golang.org/x/text/cases"
)

const (
	DefaultPlaylistName        = "Upl Playlist"
	DefaultPlaylistDescription = "Created by Upl App"
)

// PlaylistManager appends tracks to a single playlist identified by name, creating it on first use.
//
// The playlist is resolved on every call and never cached.
// Find-or-create is serialized within the process so concurrent callers cannot create duplicates.
// Another process can still race the lookup.
type PlaylistManager struct {
	auth        TokenProvider
	catalog     *CatalogClient
	name        string
	description string
	logger      *log.Logger

	mu sync.Mutex
}

// NewPlaylistManager creates a [PlaylistManager]. Empty name and description use the defaults.
func NewPlaylistManager(auth TokenProvider, catalog *CatalogClient, name, description string, logger *log.Logger) *PlaylistManager {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &PlaylistManager{
		auth:        auth,
		catalog:     catalog,
		name:        valueOr(name, DefaultPlaylistName),
		description: valueOr(description, DefaultPlaylistDescription),
		logger:      shared.WithLogger(logger, "component", "playlist", "name", valueOr(name, DefaultPlaylistName)),
	}
}

// Name returns the managed playlist name.
func (m *PlaylistManager) Name() string { return m.name }

// FindPlaylist looks up the managed playlist among the first 50 playlists of userID.
//
// Names are compared case-insensitively.
func (m *PlaylistManager) FindPlaylist(ctx context.Context, userID string) (*models.Playlist, bool, error) {
	page, err := m.catalog.UserPlaylists(ctx, userID, 50)
	if err != nil {
		return nil, false, fmt.Errorf("failed to list playlists: %w", err)
	}

	fold := cases.Fold()
	want := fold.String(m.name)
	for _, p := range page.Items {
		if fold.String(p.Name) == want {
			return &models.Playlist{ID: p.ID, Name: p.Name}, true, nil
		}
	}
	return nil, false, nil
}

// EnsurePlaylist returns the managed playlist for userID, creating it when absent.
func (m *PlaylistManager) EnsurePlaylist(ctx context.Context, userID string) (*models.Playlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pl, ok, err := m.FindPlaylist(ctx, userID)
	if err != nil {
		return nil, err
	}
	if ok {
		return pl, nil
	}

	pl, err = m.catalog.CreatePlaylist(ctx, userID, m.name, m.description)
	if err != nil {
		return nil, fmt.Errorf("failed to create playlist: %w", err)
	}
	m.logger.Info("created playlist", "id", pl.ID)
	return pl, nil
}

// AddTrackToManagedPlaylist appends trackURI to the managed playlist.
//
// Duplicates are not checked. Adding the same URI twice appends it twice.
func (m *PlaylistManager) AddTrackToManagedPlaylist(ctx context.Context, trackURI string) error {
	if trackURI == "" {
		return fmt.Errorf("%w: track uri is required", shared.ErrInvalidInput)
	}

	if err := m.auth.EnsureTokenValid(ctx); err != nil {
		return err
	}

	profile, err := m.catalog.GetProfile(ctx)
	if err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}

	pl, err := m.EnsurePlaylist(ctx, profile.ProviderUserID)
	if err != nil {
		return err
	}

	if err := m.catalog.AddTracks(ctx, pl.ID, trackURI); err != nil {
		return fmt.Errorf("failed to add track to %s: %w", pl.ID, err)
	}

	m.logger.Debug("added track", "playlist", pl.ID, "uri", trackURI)
	return nil
}
