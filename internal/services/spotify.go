// Spotify Web API client
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/upl/internal/models"
	"github.com/desertthunder/upl/internal/shared"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const (
	defaultTopArtists = 4
	defaultTopTracks  = 10
)

type followers struct {
	Total int `json:"total"`
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name"`
	Email       string         `json:"email"`
	Country     string         `json:"country"`
	Product     string         `json:"product"` // premium, free, etc.
	Followers   followers      `json:"followers"`
	Images      []SpotifyImage `json:"images"`
}

// Profile converts the API representation to a [models.Profile].
func (u SpotifyUser) Profile() *models.Profile {
	p := &models.Profile{
		DisplayName:    u.DisplayName,
		Email:          u.Email,
		ProviderUserID: u.ID,
		Country:        u.Country,
		FollowerCount:  u.Followers.Total,
	}
	if len(u.Images) > 0 && u.Images[0].URL != "" {
		img := u.Images[0].URL
		p.ProfileImageURL = &img
	}
	return p
}

// SpotifySimplePlaylist represents a simplified playlist object (used in lists).
type SpotifySimplePlaylist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Public      bool   `json:"public"`
	URI         string `json:"uri"`
}

// SpotifyPaginatedPlaylists represents a paginated response of playlists.
type SpotifyPaginatedPlaylists struct {
	Items  []SpotifySimplePlaylist `json:"items"`
	Total  int                     `json:"total"`
	Limit  int                     `json:"limit"`
	Offset int                     `json:"offset"`
	Next   *string                 `json:"next"`
}

type pagedItems struct {
	Items []json.RawMessage `json:"items"`
}

// CatalogOption configures a [CatalogClient].
type CatalogOption func(*CatalogClient)

// WithBaseURL points the client at another Web API root.
func WithBaseURL(u string) CatalogOption {
	return func(c *CatalogClient) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithHTTPClient sets the client used for Web API requests.
func WithHTTPClient(h *http.Client) CatalogOption {
	return func(c *CatalogClient) { c.httpClient = h }
}

// WithRateLimit throttles outbound requests. A non-positive rps disables throttling.
func WithRateLimit(rps float64, burst int) CatalogOption {
	return func(c *CatalogClient) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) CatalogOption {
	return func(c *CatalogClient) { c.logger = l }
}

// CatalogClient performs authenticated Web API requests.
//
// Every request first ensures the access token is valid, then sends it as a bearer token.
type CatalogClient struct {
	auth       TokenProvider
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

// NewCatalogClient creates a [CatalogClient] backed by auth.
func NewCatalogClient(auth TokenProvider, opts ...CatalogOption) *CatalogClient {
	c := &CatalogClient{
		auth:       auth,
		baseURL:    spotifyBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = shared.NewLogger(nil)
	}
	c.logger = shared.WithLogger(c.logger, "component", "catalog")
	return c
}

// do performs an authenticated request and returns the raw response body.
//
// Non-2xx responses are returned as [*shared.APIError].
func (c *CatalogClient) do(ctx context.Context, method, endpoint string, body any) ([]byte, error) {
	if err := c.auth.EnsureTokenValid(ctx); err != nil {
		return nil, err
	}

	token, err := c.auth.AccessToken()
	if err != nil {
		return nil, err
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", shared.ErrTimeout, err)
		}
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", shared.ErrAPIRequest, method, endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &shared.APIError{
			Method:     method,
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(data)),
		}
	}

	c.logger.Debug("request complete", "method", method, "endpoint", endpoint, "status", resp.StatusCode)
	return data, nil
}

// doRequest performs an authenticated request and decodes the JSON response into result when non-nil.
func (c *CatalogClient) doRequest(ctx context.Context, method, endpoint string, body any, result any) error {
	data, err := c.do(ctx, method, endpoint, body)
	if err != nil {
		return err
	}

	if result != nil && len(data) > 0 {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// UserProfile retrieves the current user's profile as returned by the API.
func (c *CatalogClient) UserProfile(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := c.doRequest(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetProfile retrieves the current user's [models.Profile].
func (c *CatalogClient) GetProfile(ctx context.Context) (*models.Profile, error) {
	user, err := c.UserProfile(ctx)
	if err != nil {
		return nil, err
	}
	return user.Profile(), nil
}

// GetTopArtists returns the user's top artists as raw JSON objects. A non-positive limit uses 4.
func (c *CatalogClient) GetTopArtists(ctx context.Context, limit int) ([]json.RawMessage, error) {
	if limit <= 0 {
		limit = defaultTopArtists
	}
	return c.top(ctx, "artists", limit)
}

// GetTopTracks returns the user's top tracks as raw JSON objects. A non-positive limit uses 10.
func (c *CatalogClient) GetTopTracks(ctx context.Context, limit int) ([]json.RawMessage, error) {
	if limit <= 0 {
		limit = defaultTopTracks
	}
	return c.top(ctx, "tracks", limit)
}

func (c *CatalogClient) top(ctx context.Context, kind string, limit int) ([]json.RawMessage, error) {
	var page pagedItems
	endpoint := fmt.Sprintf("/me/top/%s?limit=%d", kind, limit)
	if err := c.doRequest(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
		return nil, err
	}
	if page.Items == nil {
		return []json.RawMessage{}, nil
	}
	return page.Items, nil
}

// SearchTrack returns the URI of the first track matching query.
//
// An empty query, zero results or a non-2xx response all report no match without an error.
// Errors are only returned when no request could be made, e.g. the credential is unusable.
func (c *CatalogClient) SearchTrack(ctx context.Context, query string) (string, bool, error) {
	if query == "" {
		return "", false, nil
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "track")
	params.Set("limit", "1")

	data, err := c.do(ctx, http.MethodGet, "/search?"+params.Encode(), nil)
	if err != nil {
		var apiErr *shared.APIError
		if errors.As(err, &apiErr) {
			c.logger.Warn("search failed", "query", query, "status", apiErr.StatusCode)
			return "", false, nil
		}
		return "", false, err
	}

	uri := gjson.GetBytes(data, "tracks.items.0.uri")
	if !uri.Exists() || uri.String() == "" {
		return "", false, nil
	}
	return uri.String(), true, nil
}

// UserPlaylists retrieves one page of the given user's playlists.
func (c *CatalogClient) UserPlaylists(ctx context.Context, userID string, limit int) (*SpotifyPaginatedPlaylists, error) {
	if limit <= 0 || limit > 50 {
		limit = 50
	}

	var page SpotifyPaginatedPlaylists
	endpoint := fmt.Sprintf("/users/%s/playlists?limit=%d", url.PathEscape(userID), limit)
	if err := c.doRequest(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// CreatePlaylist creates a private playlist owned by userID.
func (c *CatalogClient) CreatePlaylist(ctx context.Context, userID, name, description string) (*models.Playlist, error) {
	body := map[string]any{
		"name":        name,
		"description": description,
		"public":      false,
	}

	var created SpotifySimplePlaylist
	endpoint := fmt.Sprintf("/users/%s/playlists", url.PathEscape(userID))
	if err := c.doRequest(ctx, http.MethodPost, endpoint, body, &created); err != nil {
		return nil, err
	}
	if created.ID == "" {
		return nil, fmt.Errorf("%w: create playlist response had no id", shared.ErrAPIRequest)
	}
	return &models.Playlist{ID: created.ID, Name: created.Name}, nil
}

// AddTracks appends track URIs to a playlist.
func (c *CatalogClient) AddTracks(ctx context.Context, playlistID string, uris ...string) error {
	body := map[string][]string{"uris": uris}
	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))
	return c.doRequest(ctx, http.MethodPost, endpoint, body, nil)
}
