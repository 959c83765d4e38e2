package main

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/desertthunder/upl/internal/models"
	"github.com/desertthunder/upl/internal/server"
	"github.com/desertthunder/upl/internal/services"
	"github.com/desertthunder/upl/internal/shared"
	"github.com/urfave/cli/v3"
)

const defaultLoginTimeout = 2 * time.Minute

// AuthURL prints the authorization URL for a manual login.
func (r *Runner) AuthURL(ctx context.Context, cmd *cli.Command) error {
	auth, err := r.authenticator()
	if err != nil {
		return err
	}
	return r.writePlain("%s\n", auth.BuildAuthorizationURL())
}

// AuthCallback completes authorization from a redirect URL, e.g. one delivered to a custom-scheme handler.
func (r *Runner) AuthCallback(ctx context.Context, cmd *cli.Command) error {
	redirect := cmd.StringArg("url")
	if redirect == "" {
		return fmt.Errorf("%w: redirect URL", shared.ErrMissingArgument)
	}

	auth, err := r.authenticator()
	if err != nil {
		return err
	}

	// HandleRedirect only logs failures, so parse and exchange here to report them.
	code, err := services.ParseRedirect(redirect)
	if err != nil {
		return shared.NewAuthError("callback", err)
	}
	if err := auth.ExchangeCodeForToken(ctx, code); err != nil {
		return err
	}
	return r.writePlain("✓ Authorization successful\n")
}

// AuthLogin performs the authorization-code flow against a loopback redirect.
//
// Starts a local HTTP server, opens browser for user authorization, and exchanges the code for tokens.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	auth, err := r.authenticator()
	if err != nil {
		return err
	}

	redirect, err := url.Parse(auth.RedirectURI())
	if err != nil || redirect.Scheme != "http" || redirect.Host == "" {
		return fmt.Errorf("%w: login needs an http loopback redirect_uri, got %q (use 'upl auth url' and 'upl auth callback' instead)",
			shared.ErrInvalidConfig, auth.RedirectURI())
	}

	handler := server.NewCallbackHandler(auth, redirect.Path)
	router := server.NewBasicRouter()
	router.Use(server.LoggingMiddleware(r.logger))
	router.Handler(handler)

	srv, err := server.Listen(r.listenAddr(redirect), router)
	if err != nil {
		return err
	}
	defer func() {
		if err := srv.Shutdown(context.Background()); err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}()
	r.logger.Info("waiting for redirect", "addr", srv.Addr(), "routes", router.Routes())

	authURL := auth.BuildAuthorizationURL()
	if cmd.Bool("no-browser") {
		r.writePlain("Open this URL in your browser:\n%s\n\n", authURL)
	} else {
		r.writePlain("→ Opening browser for Spotify authorization...\n")
		if err := shared.OpenBrowser(authURL); err != nil {
			r.logger.Warn("failed to open browser automatically", "error", err)
			r.writePlainln("⚠ Could not open browser automatically.")
			r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
		}
	}

	timeout := cmd.Duration("timeout")
	if timeout <= 0 {
		timeout = defaultLoginTimeout
	}
	r.writePlain("→ Waiting for authorization (%s timeout)...\n", timeout)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	select {
	case result := <-handler.Result():
		if err := result.Error(); err != nil {
			return fmt.Errorf("authorization failed: %w", err)
		}
	case <-ctx.Done():
		return fmt.Errorf("%w: authorization not completed within %s", shared.ErrTimeout, timeout)
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("You can now use: upl ingest \"song title\"\n")
	return nil
}

// listenAddr binds the redirect's host, falling back to the configured server port when the redirect has none.
func (r *Runner) listenAddr(redirect *url.URL) string {
	if redirect.Port() != "" {
		return redirect.Host
	}
	host := redirect.Hostname()
	if host == "" {
		host = r.config.Server.Host
	}
	return net.JoinHostPort(host, strconv.Itoa(r.config.Server.Port))
}

// AuthStatus reports the stored credential's lifecycle state.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	auth, err := r.authenticator()
	if err != nil {
		return err
	}

	cred := auth.Credential()
	state := auth.Status()

	r.writePlainHeader("Spotify authorization")
	r.writePlain("State: %s\n", state)
	r.writePlain("Storage: %s\n", r.config.Storage.Backend)
	r.writePlain("Refresh token: %s\n", presence(cred.HasRefreshToken()))
	if cred.ExpiresAt != nil {
		expires := time.UnixMilli(*cred.ExpiresAt)
		r.writePlain("Expires: %s\n", expires.Format(time.RFC3339))
	}

	switch state {
	case models.Unauthenticated:
		r.writePlainln("Run 'upl auth login' to connect your account.")
	case models.Expired:
		if cred.HasRefreshToken() {
			r.writePlainln("The access token will be refreshed on next use.")
		} else {
			r.writePlainln("Run 'upl auth login' to reauthorize.")
		}
	}
	return nil
}

// AuthRefresh forces a token refresh.
func (r *Runner) AuthRefresh(ctx context.Context, cmd *cli.Command) error {
	auth, err := r.authenticator()
	if err != nil {
		return err
	}

	cred, err := auth.RefreshAccessToken(ctx)
	if err != nil {
		return err
	}
	r.writePlain("✓ Access token refreshed\n")
	if expiry := cred.Expiry(); !expiry.IsZero() {
		r.writePlain("Expires: %s\n", expiry.Format(time.RFC3339))
	}
	return nil
}

// AuthLogout clears the credential from memory and storage.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	auth, err := r.authenticator()
	if err != nil {
		return err
	}

	if err := auth.Logout(); err != nil {
		return err
	}
	return r.writePlain("✓ Logged out\n")
}

func presence(ok bool) string {
	if ok {
		return "present"
	}
	return "absent"
}
