package models

import "time"

// Credential is the authenticated session's mutable state.
//
// A nil field is absent. An empty string is never used to mean "no token".
// When AccessToken is set, ExpiresAt is set too and holds the issue time plus expires_in, in epoch milliseconds.
type Credential struct {
	AccessToken  *string
	RefreshToken *string
	ExpiresAt    *int64
}

// CredentialState is a node in the credential lifecycle.
type CredentialState int

const (
	Unauthenticated CredentialState = iota
	Active
	Expired
)

func (s CredentialState) String() string {
	switch s {
	case Active:
		return "active"
	case Expired:
		return "expired"
	default:
		return "unauthenticated"
	}
}

// NewCredential builds a populated credential. An empty refreshToken is stored as absent.
func NewCredential(accessToken, refreshToken string, expiresAt int64) Credential {
	c := Credential{
		AccessToken: &accessToken,
		ExpiresAt:   &expiresAt,
	}
	if refreshToken != "" {
		c.RefreshToken = &refreshToken
	}
	return c
}

// HasAccessToken reports whether an access token is present.
func (c Credential) HasAccessToken() bool { return c.AccessToken != nil }

// HasRefreshToken reports whether the credential can be silently renewed.
func (c Credential) HasRefreshToken() bool { return c.RefreshToken != nil }

// Expired reports whether the expiry is absent or already in the past at now.
func (c Credential) Expired(now time.Time) bool {
	return c.ExpiresAt == nil || now.UnixMilli() > *c.ExpiresAt
}

// State places the credential in its lifecycle at now.
func (c Credential) State(now time.Time) CredentialState {
	switch {
	case c.AccessToken == nil && c.RefreshToken == nil:
		return Unauthenticated
	case c.Expired(now):
		return Expired
	default:
		return Active
	}
}

// Expiry returns the expiry as a [time.Time], or the zero time when absent.
func (c Credential) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return time.UnixMilli(*c.ExpiresAt)
}

// Clone returns a deep copy so callers cannot mutate the owner's pointers.
func (c Credential) Clone() Credential {
	var out Credential
	if c.AccessToken != nil {
		v := *c.AccessToken
		out.AccessToken = &v
	}
	if c.RefreshToken != nil {
		v := *c.RefreshToken
		out.RefreshToken = &v
	}
	if c.ExpiresAt != nil {
		v := *c.ExpiresAt
		out.ExpiresAt = &v
	}
	return out
}
