package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/upl/internal/models"
	"github.com/desertthunder/upl/internal/shared"
	"github.com/desertthunder/upl/internal/tokens"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// DefaultRedirectURI is the custom-scheme deep link registered with the provider.
	DefaultRedirectURI = "upl://callback"

	// defaultTokenLifetime applies when the provider omits expires_in.
	defaultTokenLifetime = time.Hour

	// singleflight keys; ensure flights may skip the request, forced ones never do
	ensureRefreshKey = "ensure"
	forceRefreshKey  = "force"
)

// Scopes requested during authorization.
var Scopes = []string{
	"user-read-private",
	"user-read-email",
	"user-modify-playback-state",
	"user-library-read",
	"streaming",
	"user-read-recently-played",
	"playlist-read-private",
	"playlist-modify-private",
	"playlist-modify-public",
	"user-top-read",
}

// TokenProvider hands out a valid access token for outbound requests.
type TokenProvider interface {
	EnsureTokenValid(ctx context.Context) error
	AccessToken() (string, error)
}

// Authenticator owns the OAuth2 authorization-code flow and the persisted [models.Credential].
//
// The credential is held in memory and mirrored to a [tokens.Store] on every change.
// Concurrent refreshes are coalesced so the provider sees one refresh grant at a time.
type Authenticator struct {
	config     *oauth2.Config
	store      tokens.Store
	logger     *log.Logger
	httpClient *http.Client
	now        func() time.Time

	mu      sync.RWMutex
	cred    models.Credential
	refresh singleflight.Group
}

// NewAuthenticator creates an [Authenticator] from the given credentials map.
//
// Recognized keys are client_id, client_secret, redirect_uri, auth_url and token_url.
// The last three fall back to the Spotify defaults.
func NewAuthenticator(credentials map[string]string, store tokens.Store, logger *log.Logger) (*Authenticator, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id in credentials", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret in credentials", shared.ErrMissingCredentials)
	}

	if store == nil {
		return nil, fmt.Errorf("%w: token store is required", shared.ErrInvalidConfig)
	}

	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  valueOr(credentials["redirect_uri"], DefaultRedirectURI),
		Scopes:       Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   valueOr(credentials["auth_url"], spotifyAuthURL),
			TokenURL:  valueOr(credentials["token_url"], spotifyTokenURL),
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}

	return &Authenticator{
		config: config,
		store:  store,
		logger: shared.WithLogger(logger, "component", "auth"),
		now:    time.Now,
	}, nil
}

// SetHTTPClient sets the client used for token requests.
func (a *Authenticator) SetHTTPClient(c *http.Client) { a.httpClient = c }

// SetClock replaces the time source used for expiry checks.
func (a *Authenticator) SetClock(now func() time.Time) { a.now = now }

// RedirectURI returns the configured redirect URI.
func (a *Authenticator) RedirectURI() string { return a.config.RedirectURL }

// Restore loads the persisted credential into memory.
func (a *Authenticator) Restore() error {
	cred, err := tokens.Load(a.store)
	if err != nil {
		return fmt.Errorf("failed to restore credential: %w", err)
	}

	a.mu.Lock()
	a.cred = cred
	a.mu.Unlock()

	a.logger.Debug("restored credential", "state", cred.State(a.now()))
	return nil
}

// BuildAuthorizationURL returns the URL the user opens to grant access.
//
// No state parameter is sent.
func (a *Authenticator) BuildAuthorizationURL() string {
	return a.config.AuthCodeURL("")
}

// ParseRedirect extracts the authorization code from a redirect URL.
//
// A provider error parameter yields [shared.ErrAccessDenied].
// A missing or malformed code yields [shared.ErrInvalidRedirect].
func ParseRedirect(redirectURL string) (string, error) {
	if reason, ok := shared.ExtractQueryParam(redirectURL, "error"); ok {
		return "", fmt.Errorf("%w: %s", shared.ErrAccessDenied, reason)
	}

	code, ok := shared.ExtractQueryParam(redirectURL, "code")
	if !ok {
		return "", fmt.Errorf("%w: no code parameter", shared.ErrInvalidRedirect)
	}

	if err := shared.ValidateParamValue("code", code); err != nil {
		return "", err
	}
	return code, nil
}

// HandleRedirect completes authorization from a redirect URL.
//
// It never returns an error. Failures are logged and the stored credential is left untouched.
func (a *Authenticator) HandleRedirect(ctx context.Context, redirectURL string) {
	code, err := ParseRedirect(redirectURL)
	if err != nil {
		a.logger.Error("ignoring redirect", "error", err)
		return
	}

	if err := a.ExchangeCodeForToken(ctx, code); err != nil {
		a.logger.Error("authorization failed", "error", err)
		return
	}
	a.logger.Info("authorization complete")
}

// ExchangeCodeForToken trades an authorization code for a token pair and persists it.
func (a *Authenticator) ExchangeCodeForToken(ctx context.Context, code string) error {
	if code == "" {
		return shared.NewAuthError("exchange", fmt.Errorf("%w: empty authorization code", shared.ErrInvalidRedirect))
	}

	issuedAt := a.now()
	tok, err := a.config.Exchange(a.clientContext(ctx), code)
	if err != nil {
		return shared.NewAuthError("exchange", err)
	}

	if tok.AccessToken == "" {
		return shared.NewAuthError("exchange", errors.New("response did not include an access token"))
	}

	cred := models.NewCredential(tok.AccessToken, tok.RefreshToken, a.expiresAt(issuedAt, tok))
	if err := a.save(cred); err != nil {
		return shared.NewAuthError("exchange", err)
	}

	a.logger.Debug("stored credential", "expires_at", time.UnixMilli(*cred.ExpiresAt))
	return nil
}

// RefreshAccessToken obtains a new access token with the stored refresh token and returns the stored credential.
//
// When the provider omits a new refresh token the previous one is kept.
// A rejected refresh token (invalid_grant) clears the store and returns [shared.ErrReauthRequired].
// Concurrent forced refreshes share one request; they never join an [Authenticator.EnsureTokenValid] check.
func (a *Authenticator) RefreshAccessToken(ctx context.Context) (models.Credential, error) {
	v, err, joined := a.refresh.Do(forceRefreshKey, func() (any, error) {
		return a.doRefresh(ctx)
	})
	if joined {
		a.logger.Debug("joined in-flight refresh")
	}
	if err != nil {
		return models.Credential{}, err
	}
	return v.(models.Credential), nil
}

func (a *Authenticator) doRefresh(ctx context.Context) (models.Credential, error) {
	refreshToken, err := a.currentRefreshToken()
	if err != nil {
		return models.Credential{}, shared.NewAuthError("refresh", err)
	}

	issuedAt := a.now()
	src := a.config.TokenSource(a.clientContext(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.ErrorCode == "invalid_grant" {
			a.logger.Warn("refresh token rejected, clearing credential")
			if clearErr := a.Logout(); clearErr != nil {
				a.logger.Error("failed to clear credential", "error", clearErr)
			}
			return models.Credential{}, shared.NewAuthError("refresh", fmt.Errorf("%w: %w", shared.ErrReauthRequired, err))
		}
		return models.Credential{}, shared.NewAuthError("refresh", fmt.Errorf("%w: %w", shared.ErrRefreshFailed, err))
	}

	if tok.AccessToken == "" {
		return models.Credential{}, shared.NewAuthError("refresh", fmt.Errorf("%w: response did not include an access token", shared.ErrRefreshFailed))
	}

	next := refreshToken
	if tok.RefreshToken != "" {
		next = tok.RefreshToken
	}

	cred := models.NewCredential(tok.AccessToken, next, a.expiresAt(issuedAt, tok))
	if err := a.save(cred); err != nil {
		return models.Credential{}, shared.NewAuthError("refresh", err)
	}

	a.logger.Debug("refreshed access token", "rotated", next != refreshToken)
	return cred.Clone(), nil
}

// currentRefreshToken prefers the in-memory credential and falls back to the store.
func (a *Authenticator) currentRefreshToken() (string, error) {
	a.mu.RLock()
	rt := a.cred.RefreshToken
	a.mu.RUnlock()
	if rt != nil && *rt != "" {
		return *rt, nil
	}

	stored, ok, err := a.store.Get(tokens.RefreshToken)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", shared.ErrNoRefreshToken
	}
	return stored, nil
}

// EnsureTokenValid refreshes the access token when it is expired or has no recorded expiry.
//
// Callers that queued behind a refresh re-check expiry before issuing another one.
func (a *Authenticator) EnsureTokenValid(ctx context.Context) error {
	if !a.expired() {
		return nil
	}

	_, err, _ := a.refresh.Do(ensureRefreshKey, func() (any, error) {
		if !a.expired() {
			return nil, nil
		}
		return a.doRefresh(ctx)
	})
	return err
}

func (a *Authenticator) expired() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cred.Expired(a.now())
}

// AccessToken returns the current access token.
func (a *Authenticator) AccessToken() (string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if !a.cred.HasAccessToken() {
		return "", shared.ErrNotAuthenticated
	}
	return *a.cred.AccessToken, nil
}

// Credential returns a copy of the in-memory credential.
func (a *Authenticator) Credential() models.Credential {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cred.Clone()
}

// Status reports the credential state at the current time.
func (a *Authenticator) Status() models.CredentialState {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cred.State(a.now())
}

// Logout removes the credential from memory and the store.
func (a *Authenticator) Logout() error {
	a.mu.Lock()
	a.cred = models.Credential{}
	a.mu.Unlock()

	if err := a.store.Clear(); err != nil {
		return fmt.Errorf("failed to clear token store: %w", err)
	}
	return nil
}

func (a *Authenticator) save(cred models.Credential) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.store.Set(cred); err != nil {
		return fmt.Errorf("failed to persist credential: %w", err)
	}
	a.cred = cred
	return nil
}

// expiresAt computes the absolute expiry in epoch milliseconds.
func (a *Authenticator) expiresAt(issuedAt time.Time, tok *oauth2.Token) int64 {
	switch {
	case tok.ExpiresIn > 0:
		return issuedAt.Add(time.Duration(tok.ExpiresIn) * time.Second).UnixMilli()
	case !tok.Expiry.IsZero():
		return tok.Expiry.UnixMilli()
	default:
		return issuedAt.Add(defaultTokenLifetime).UnixMilli()
	}
}

func (a *Authenticator) clientContext(ctx context.Context) context.Context {
	if a.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
