package testing

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// FakePlaylist is a playlist owned by the [FakeProvider] user.
type FakePlaylist struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Tracks []string `json:"-"`
}

// FakeProvider is an in-process stand-in for the Spotify accounts and Web API endpoints.
//
// Token requests are served at /api/token and Web API requests under /v1.
// Counters record how often each endpoint was hit so tests can assert on call patterns.
type FakeProvider struct {
	Server *httptest.Server

	mu sync.Mutex

	// AccessToken is issued by both grants. RefreshToken is only issued when non-empty.
	AccessToken    string
	RefreshToken   string
	RotatedRefresh string
	ExpiresIn      int
	// TokenError makes the token endpoint answer 400 with this OAuth error code.
	TokenError string

	UserID    string
	Playlists []*FakePlaylist
	// Catalog maps a search query to a track URI. Queries not present return zero results.
	Catalog map[string]string
	// SearchStatus forces a status code for search responses when non-zero.
	SearchStatus int
	// AddStatus forces a status code for add-track responses when non-zero.
	AddStatus int

	ExchangeCalls int
	RefreshCalls  int
	ProfileCalls  int
	SearchCalls   int
	ListCalls     int
	CreateCalls   int
	AddCalls      int

	LastRefreshToken string
	LastAuthHeader   string
	LastBearer       string
	LastCreateBody   map[string]any
}

// NewFakeProvider starts a provider and registers its shutdown with t.
func NewFakeProvider(t *testing.T) *FakeProvider {
	t.Helper()

	p := &FakeProvider{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiresIn:    3600,
		UserID:       "user-1",
		Catalog:      map[string]string{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/token", p.handleToken)
	mux.HandleFunc("GET /v1/me", p.handleProfile)
	mux.HandleFunc("GET /v1/me/top/{kind}", p.handleTop)
	mux.HandleFunc("GET /v1/search", p.handleSearch)
	mux.HandleFunc("GET /v1/users/{user}/playlists", p.handleListPlaylists)
	mux.HandleFunc("POST /v1/users/{user}/playlists", p.handleCreatePlaylist)
	mux.HandleFunc("POST /v1/playlists/{id}/tracks", p.handleAddTracks)

	p.Server = httptest.NewServer(mux)
	t.Cleanup(p.Server.Close)
	return p
}

func (p *FakeProvider) TokenURL() string { return p.Server.URL + "/api/token" }
func (p *FakeProvider) AuthURL() string  { return p.Server.URL + "/authorize" }
func (p *FakeProvider) APIURL() string   { return p.Server.URL + "/v1" }

// Lock and Unlock guard direct field access from tests while requests may be in flight.
func (p *FakeProvider) Lock()   { p.mu.Lock() }
func (p *FakeProvider) Unlock() { p.mu.Unlock() }

// PlaylistNamed returns the first playlist with the exact name.
func (p *FakeProvider) PlaylistNamed(name string) *FakePlaylist {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, pl := range p.Playlists {
		if pl.Name == name {
			return pl
		}
	}
	return nil
}

func (p *FakeProvider) handleToken(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	p.LastAuthHeader = r.Header.Get("Authorization")

	switch r.PostForm.Get("grant_type") {
	case "authorization_code":
		p.ExchangeCalls++
	case "refresh_token":
		p.RefreshCalls++
		p.LastRefreshToken = r.PostForm.Get("refresh_token")
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unsupported_grant_type"})
		return
	}

	if p.TokenError != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": p.TokenError})
		return
	}

	body := map[string]any{
		"access_token": p.AccessToken,
		"token_type":   "Bearer",
	}
	if p.ExpiresIn > 0 {
		body["expires_in"] = p.ExpiresIn
	}
	refresh := p.RefreshToken
	if r.PostForm.Get("grant_type") == "refresh_token" {
		refresh = p.RotatedRefresh
	}
	if refresh != "" {
		body["refresh_token"] = refresh
	}
	writeJSON(w, http.StatusOK, body)
}

func (p *FakeProvider) authorized(w http.ResponseWriter, r *http.Request) bool {
	p.LastBearer = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if p.LastBearer == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": map[string]any{"status": 401, "message": "No token provided"}})
		return false
	}
	return true
}

func (p *FakeProvider) handleProfile(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ProfileCalls++
	if !p.authorized(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":           p.UserID,
		"display_name": "Test User",
		"email":        "test@example.com",
		"country":      "US",
		"followers":    map[string]any{"total": 42},
		"images":       []map[string]any{{"url": "https://img.example.com/me.png"}},
	})
}

func (p *FakeProvider) handleTop(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.authorized(w, r) {
		return
	}
	limit := r.URL.Query().Get("limit")
	n := 0
	fmt.Sscanf(limit, "%d", &n)
	items := make([]map[string]any, 0, n)
	for i := range n {
		items = append(items, map[string]any{"name": fmt.Sprintf("%s %d", r.PathValue("kind"), i+1)})
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (p *FakeProvider) handleSearch(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.SearchCalls++
	if !p.authorized(w, r) {
		return
	}
	if p.SearchStatus != 0 {
		writeJSON(w, p.SearchStatus, map[string]any{"error": map[string]any{"status": p.SearchStatus}})
		return
	}

	items := []map[string]any{}
	if uri, ok := p.Catalog[r.URL.Query().Get("q")]; ok {
		items = append(items, map[string]any{"uri": uri, "name": r.URL.Query().Get("q")})
	}
	writeJSON(w, http.StatusOK, map[string]any{"tracks": map[string]any{"items": items}})
}

func (p *FakeProvider) handleListPlaylists(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ListCalls++
	if !p.authorized(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": p.Playlists})
}

func (p *FakeProvider) handleCreatePlaylist(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.CreateCalls++
	if !p.authorized(w, r) {
		return
	}

	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	p.LastCreateBody = body

	name, _ := body["name"].(string)
	pl := &FakePlaylist{ID: fmt.Sprintf("pl-%d", len(p.Playlists)+1), Name: name}
	p.Playlists = append(p.Playlists, pl)
	writeJSON(w, http.StatusCreated, pl)
}

func (p *FakeProvider) handleAddTracks(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.AddCalls++
	if !p.authorized(w, r) {
		return
	}
	if p.AddStatus != 0 {
		writeJSON(w, p.AddStatus, map[string]any{"error": map[string]any{"status": p.AddStatus}})
		return
	}

	var body struct {
		URIs []string `json:"uris"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	id := r.PathValue("id")
	for _, pl := range p.Playlists {
		if pl.ID == id {
			pl.Tracks = append(pl.Tracks, body.URIs...)
			writeJSON(w, http.StatusCreated, map[string]string{"snapshot_id": "snap"})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]any{"error": map[string]any{"status": 404}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
