// Package services talks to Spotify: the accounts service for OAuth2 and the Web API for catalog and playlist operations.
//
// # Authorization
//
// [Authenticator] runs the authorization-code flow with HTTP Basic client authentication.
// The user opens [Authenticator.BuildAuthorizationURL], the provider redirects to the registered
// redirect URI (a custom scheme deep link or the loopback callback server) and
// [Authenticator.HandleRedirect] exchanges the code for a token pair.
//
// The credential lives in memory and is mirrored to a tokens.Store on every change.
// [Authenticator.EnsureTokenValid] refreshes an expired access token before it is used and
// coalesces concurrent refreshes into one request. A refresh rejected with invalid_grant clears
// the credential and reports [shared.ErrReauthRequired].
//
// # Web API
//
// [CatalogClient] sends bearer-authenticated requests through a rate limiter. Non-2xx responses
// become [*shared.APIError]. Track search degrades to "no match" on error statuses so a single bad
// lookup never aborts a batch.
//
// [PlaylistManager] resolves the managed playlist by case-insensitive name on every call and
// creates it as a private playlist when missing.
//
// # Error Handling
//
//   - [shared.ErrAuthFailed] : any failure in the token endpoint exchange or refresh
//   - [shared.ErrNoRefreshToken] : refresh attempted without a stored refresh token
//   - [shared.ErrReauthRequired] : refresh token revoked, run the login flow again
//   - [shared.ErrAPIRequest] : Web API request failed or returned a non-2xx status
package services
