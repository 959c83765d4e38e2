package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/upl/internal/models"
	"github.com/desertthunder/upl/internal/shared"
	tu "github.com/desertthunder/upl/internal/testing"
	"github.com/desertthunder/upl/internal/tokens"
)

type harness struct {
	provider *tu.FakeProvider
	store    *tokens.MemoryStore
	config   *shared.Config
	out      *bytes.Buffer
	runner   *Runner
}

func newHarness(t *testing.T, authenticated bool) *harness {
	t.Helper()

	p := tu.NewFakeProvider(t)
	p.Catalog["Bohemian Rhapsody"] = "spotify:track:1"
	p.Catalog["Hey Jude"] = "spotify:track:3"

	config := shared.DefaultConfig()
	config.Credentials.Spotify = shared.SpotifyConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "upl://callback",
		AuthURL:      p.AuthURL(),
		TokenURL:     p.TokenURL(),
		APIURL:       p.APIURL(),
	}
	config.Storage.Backend = "memory"
	config.Database.Path = filepath.Join(t.TempDir(), "upl.db")
	config.Catalog.RequestsPerSecond = 0
	config.Log.Level = "error"

	store := tokens.NewMemoryStore()
	if authenticated {
		cred := models.NewCredential("access-1", "refresh-1", time.Now().Add(time.Hour).UnixMilli())
		if err := store.Set(cred); err != nil {
			t.Fatalf("failed to seed store: %v", err)
		}
	}

	out := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config: config,
		Store:  store,
		Logger: shared.NewLogger(&bytes.Buffer{}),
		Output: out,
		Input:  strings.NewReader(""),
	})
	t.Cleanup(runner.Close)

	return &harness{provider: p, store: store, config: config, out: out, runner: runner}
}

func (h *harness) run(args ...string) error {
	return h.runner.app().Run(context.Background(), append([]string{"upl", "--env-file", ""}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			store := tokens.NewMemoryStore()

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "/test/path/config.toml",
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Store:      store,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.store != store || runner.ownsStore {
				t.Error("expected injected store to be borrowed")
			}
			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
			if runner.input != os.Stdin {
				t.Error("expected input to default to os.Stdin")
			}
		})

		t.Run("with empty configPath uses config.toml", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.configPath != "config.toml" {
				t.Errorf("expected config.toml, got %s", runner.configPath)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, true)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			expected := `{"key":"value"}` + "\n"
			if result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			// channels cannot be marshaled to JSON
			data := make(chan int)
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			data := map[string]string{"key": "value"}
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writePlain("hello %s", "world")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("writes plain text without formatting", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writePlain("simple text")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if result != "simple text" {
				t.Errorf("expected 'simple text', got %q", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			err := runner.writePlain("test")

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})


	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		names := map[string]bool{}
		for _, c := range commands {
			names[c.Name] = true
		}
		for _, want := range []string{"setup", "auth", "me", "search", "add", "ingest", "history"} {
			if !names[want] {
				t.Errorf("expected %s command to be registered", want)
			}
		}
	})
}

func TestCommands(t *testing.T) {
	t.Run("Missing Credentials", func(t *testing.T) {
		h := newHarness(t, true)
		h.config.Credentials.Spotify.ClientSecret = ""

		if err := h.run("search", "Hey Jude"); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("Search", func(t *testing.T) {
		h := newHarness(t, true)

		if err := h.run("search", "Hey Jude"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := strings.TrimSpace(h.out.String()); got != "spotify:track:3" {
			t.Errorf("expected spotify:track:3, got %q", got)
		}

		h.out.Reset()
		if err := h.run("search", "asdkjhqwe"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(h.out.String(), "No match") {
			t.Errorf("expected no match message, got %q", h.out.String())
		}
	})

	t.Run("Search Unauthenticated", func(t *testing.T) {
		h := newHarness(t, false)

		if err := h.run("search", "Hey Jude"); err == nil {
			t.Fatal("expected error without a credential")
		}
		if h.provider.SearchCalls != 0 {
			t.Errorf("expected no search request, got %d", h.provider.SearchCalls)
		}
	})

	t.Run("Add", func(t *testing.T) {
		h := newHarness(t, true)

		if err := h.run("add", "spotify:track:9"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		pl := h.provider.PlaylistNamed("Upl Playlist")
		if pl == nil {
			t.Fatal("expected managed playlist to be created")
		}
		if len(pl.Tracks) != 1 || pl.Tracks[0] != "spotify:track:9" {
			t.Errorf("unexpected tracks %v", pl.Tracks)
		}
	})

	t.Run("Me", func(t *testing.T) {
		h := newHarness(t, true)

		if err := h.run("me", "--tracks", "2"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		output := h.out.String()
		for _, want := range []string{"Test User", "Followers: 42", "Top artists:", "1. artists 1", "Top tracks:"} {
			if !strings.Contains(output, want) {
				t.Errorf("output missing %q:\n%s", want, output)
			}
		}
	})

	t.Run("Me JSON", func(t *testing.T) {
		h := newHarness(t, true)

		if err := h.run("me", "--json"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(h.out.String(), `"display_name": "Test User"`) {
			t.Errorf("expected profile JSON, got:\n%s", h.out.String())
		}
	})

	t.Run("Setup Reset History", func(t *testing.T) {
		h := newHarness(t, true)
		h.runner.configPath = filepath.Join(t.TempDir(), "config.toml")
		tu.MustWriteFile(t, h.runner.configPath, "")

		if err := h.run("ingest", "Hey Jude"); err != nil {
			t.Fatalf("ingest failed: %v", err)
		}

		h.out.Reset()
		if err := h.run("setup", "--reset-history"); err != nil {
			t.Fatalf("setup failed: %v", err)
		}
		if !strings.Contains(h.out.String(), "Ingest history cleared") {
			t.Errorf("expected reset confirmation:\n%s", h.out.String())
		}

		h.out.Reset()
		if err := h.run("history"); err != nil {
			t.Fatalf("history failed: %v", err)
		}
		if !strings.Contains(h.out.String(), "No runs recorded yet.") {
			t.Errorf("expected empty history:\n%s", h.out.String())
		}

		h.out.Reset()
		if err := h.run("ingest", "Hey Jude"); err != nil {
			t.Fatalf("ingest failed: %v", err)
		}
		if !strings.Contains(h.out.String(), "Recorded as run #1") {
			t.Errorf("expected numbering to restart:\n%s", h.out.String())
		}
	})

	t.Run("Ingest And History", func(t *testing.T) {
		h := newHarness(t, true)

		if err := h.run("ingest", "Bohemian Rhapsody", "asdkjhqwe", "Hey Jude"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		pl := h.provider.PlaylistNamed("Upl Playlist")
		if pl == nil || len(pl.Tracks) != 2 || pl.Tracks[0] != "spotify:track:1" || pl.Tracks[1] != "spotify:track:3" {
			t.Fatalf("expected tracks 1 and 3 in order, got %+v", pl)
		}
		if !strings.Contains(h.out.String(), "Added 2, no match 1, failed 0, skipped 0 (of 3)") {
			t.Errorf("unexpected summary:\n%s", h.out.String())
		}
		if !strings.Contains(h.out.String(), "Recorded as run #1") {
			t.Errorf("expected run to be recorded:\n%s", h.out.String())
		}

		h.out.Reset()
		if err := h.run("history"); err != nil {
			t.Fatalf("history failed: %v", err)
		}
		if !strings.Contains(h.out.String(), "completed") {
			t.Errorf("expected completed run in list:\n%s", h.out.String())
		}

		h.out.Reset()
		if err := h.run("history", "show", "--format", "csv", "1"); err != nil {
			t.Fatalf("history show failed: %v", err)
		}
		lines := strings.Split(strings.TrimSpace(h.out.String()), "\n")
		if len(lines) != 4 || lines[2] != "2,asdkjhqwe,no_match,," {
			t.Errorf("unexpected report:\n%s", h.out.String())
		}

		h.out.Reset()
		if err := h.run("history", "delete", "1"); err != nil {
			t.Fatalf("history delete failed: %v", err)
		}
		if err := h.run("history", "show", "1"); err == nil {
			t.Error("expected deleted run to be gone")
		}
	})

	t.Run("Ingest From Stdin", func(t *testing.T) {
		h := newHarness(t, true)
		h.runner.input = strings.NewReader("Hey Jude\n\nasdkjhqwe\n")

		if err := h.run("ingest", "--no-history", "--json", "--file", "-"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		output := h.out.String()
		if !strings.Contains(output, `"added": 1`) || !strings.Contains(output, `"total": 2`) {
			t.Errorf("unexpected JSON:\n%s", output)
		}
		if strings.Contains(output, `"sequence"`) {
			t.Errorf("expected no history sequence:\n%s", output)
		}
	})

	t.Run("Ingest Without Texts", func(t *testing.T) {
		h := newHarness(t, true)

		if err := h.run("ingest"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("History Show Invalid ID", func(t *testing.T) {
		h := newHarness(t, true)

		if err := h.run("history", "show", "abc"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestAuthCommands(t *testing.T) {
	t.Run("URL", func(t *testing.T) {
		h := newHarness(t, false)

		if err := h.run("auth", "url"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		output := h.out.String()
		if !strings.HasPrefix(output, h.provider.AuthURL()) || !strings.Contains(output, "client_id=client-id") {
			t.Errorf("unexpected URL %q", output)
		}
	})

	t.Run("Callback", func(t *testing.T) {
		h := newHarness(t, false)

		if err := h.run("auth", "callback", "upl://callback?code=abc123"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if h.provider.ExchangeCalls != 1 {
			t.Errorf("expected one exchange, got %d", h.provider.ExchangeCalls)
		}
		if v, ok, _ := h.store.Get(tokens.AccessToken); !ok || v != "access-1" {
			t.Errorf("expected stored access token, got %q", v)
		}
	})

	t.Run("Callback Denied", func(t *testing.T) {
		h := newHarness(t, false)

		if err := h.run("auth", "callback", "upl://callback?error=access_denied"); !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
		if h.provider.ExchangeCalls != 0 {
			t.Errorf("expected no exchange, got %d", h.provider.ExchangeCalls)
		}
	})

	t.Run("Callback Denied With Existing Credential", func(t *testing.T) {
		h := newHarness(t, true)

		err := h.run("auth", "callback", "upl://callback?error=access_denied")
		if !errors.Is(err, shared.ErrAccessDenied) {
			t.Errorf("expected ErrAccessDenied, got %v", err)
		}
		if strings.Contains(h.out.String(), "successful") {
			t.Errorf("expected no success message, got %q", h.out.String())
		}
		if h.provider.ExchangeCalls != 0 {
			t.Errorf("expected no exchange, got %d", h.provider.ExchangeCalls)
		}
		if v, _, _ := h.store.Get(tokens.RefreshToken); v != "refresh-1" {
			t.Errorf("expected existing credential to be kept, got %q", v)
		}
	})

	t.Run("Callback Exchange Failure", func(t *testing.T) {
		h := newHarness(t, true)
		h.provider.TokenError = "invalid_grant"

		if err := h.run("auth", "callback", "upl://callback?code=stale"); !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
		if strings.Contains(h.out.String(), "successful") {
			t.Errorf("expected no success message, got %q", h.out.String())
		}
	})

	t.Run("Status And Logout", func(t *testing.T) {
		h := newHarness(t, true)

		if err := h.run("auth", "status"); err != nil {
			t.Fatalf("status failed: %v", err)
		}
		if !strings.Contains(h.out.String(), "State: active") {
			t.Errorf("expected active state:\n%s", h.out.String())
		}

		h.out.Reset()
		if err := h.run("auth", "logout"); err != nil {
			t.Fatalf("logout failed: %v", err)
		}
		if _, ok, _ := h.store.Get(tokens.RefreshToken); ok {
			t.Error("expected store to be cleared")
		}

		h.out.Reset()
		if err := h.run("auth", "status"); err != nil {
			t.Fatalf("status failed: %v", err)
		}
		if !strings.Contains(h.out.String(), "State: unauthenticated") {
			t.Errorf("expected unauthenticated state:\n%s", h.out.String())
		}
	})

	t.Run("Refresh", func(t *testing.T) {
		h := newHarness(t, true)
		h.provider.AccessToken = "access-2"

		if err := h.run("auth", "refresh"); err != nil {
			t.Fatalf("refresh failed: %v", err)
		}
		if v, _, _ := h.store.Get(tokens.AccessToken); v != "access-2" {
			t.Errorf("expected refreshed token, got %q", v)
		}
		if !strings.Contains(h.out.String(), "Expires: ") {
			t.Errorf("expected new expiry in output:\n%s", h.out.String())
		}
	})

	t.Run("Login Needs Loopback Redirect", func(t *testing.T) {
		h := newHarness(t, false)

		if err := h.run("auth", "login", "--no-browser"); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("Login", func(t *testing.T) {
		h := newHarness(t, false)

		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("failed to reserve port: %v", err)
		}
		addr := ln.Addr().String()
		ln.Close()

		redirect := fmt.Sprintf("http://%s/callback", addr)
		h.config.Credentials.Spotify.RedirectURI = redirect

		errc := make(chan error, 1)
		go func() { errc <- h.run("auth", "login", "--no-browser", "--timeout", "5s") }()

		deadline := time.Now().Add(3 * time.Second)
		for {
			resp, err := http.Get(redirect + "?code=abc123")
			if err == nil {
				resp.Body.Close()
				if resp.StatusCode != http.StatusOK {
					t.Errorf("expected 200 from callback, got %d", resp.StatusCode)
				}
				break
			}
			if time.Now().After(deadline) {
				t.Fatalf("callback server never came up: %v", err)
			}
			time.Sleep(20 * time.Millisecond)
		}

		if err := <-errc; err != nil {
			t.Fatalf("login failed: %v", err)
		}
		if v, ok, _ := h.store.Get(tokens.AccessToken); !ok || v != "access-1" {
			t.Errorf("expected stored access token, got %q", v)
		}
	})
}
