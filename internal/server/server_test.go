package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/upl/internal/shared"
)

type fakeExchanger struct {
	codes []string
	err   error
}

func (f *fakeExchanger) ExchangeCodeForToken(ctx context.Context, code string) error {
	f.codes = append(f.codes, code)
	return f.err
}

func TestCallbackHandler(t *testing.T) {
	t.Run("Exchanges Code", func(t *testing.T) {
		ex := &fakeExchanger{}
		h := NewCallbackHandler(ex, "")

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?code=abc123", nil))

		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
		if len(ex.codes) != 1 || ex.codes[0] != "abc123" {
			t.Errorf("expected code abc123, got %v", ex.codes)
		}

		res := <-h.Result()
		if res.Error() != nil {
			t.Errorf("expected success, got %v", res.Error())
		}
	})

	t.Run("Provider Error", func(t *testing.T) {
		ex := &fakeExchanger{}
		h := NewCallbackHandler(ex, "")

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?error=access_denied", nil))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if len(ex.codes) != 0 {
			t.Errorf("expected no exchange, got %v", ex.codes)
		}
		if res := <-h.Result(); !errors.Is(res.Error(), shared.ErrAccessDenied) {
			t.Errorf("expected ErrAccessDenied, got %v", res.Error())
		}
	})

	t.Run("Exchange Failure", func(t *testing.T) {
		ex := &fakeExchanger{err: shared.NewAuthError("exchange", errors.New("bad code"))}
		h := NewCallbackHandler(ex, "")

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?code=abc", nil))

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
		if res := <-h.Result(); !errors.Is(res.Error(), shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", res.Error())
		}
	})

	t.Run("Only First Callback Is Processed", func(t *testing.T) {
		ex := &fakeExchanger{}
		h := NewCallbackHandler(ex, "")

		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/callback?code=a", nil))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?code=b", nil))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400 for replay, got %d", rec.Code)
		}
		if len(ex.codes) != 1 {
			t.Errorf("expected one exchange, got %v", ex.codes)
		}
	})
}

func TestBasicRouter(t *testing.T) {
	t.Run("Method Filtering", func(t *testing.T) {
		r := NewBasicRouter()
		r.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			io.WriteString(w, "pong")
		}))

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
		if rec.Body.String() != "pong" {
			t.Errorf("expected pong, got %q", rec.Body.String())
		}

		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ping", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})

	t.Run("Middleware Order", func(t *testing.T) {
		var order []string
		mw := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		r := NewBasicRouter()
		r.Use(mw("first"), mw("second"))
		r.Handler(NewCallbackHandler(&fakeExchanger{}, "/cb"))

		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/cb?code=x", nil))

		if strings.Join(order, ",") != "first,second" {
			t.Errorf("expected first,second got %v", order)
		}
	})

	t.Run("Callback Routes Are GET Only", func(t *testing.T) {
		ex := &fakeExchanger{}
		r := NewBasicRouter()
		r.Handler(NewCallbackHandler(ex, "/cb"))

		if routes := r.Routes(); len(routes) != 1 || routes[0] != "GET /cb" {
			t.Errorf("expected [GET /cb], got %v", routes)
		}

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/cb?code=x", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
		if len(ex.codes) != 0 {
			t.Errorf("expected no exchange for POST, got %v", ex.codes)
		}

		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/elsewhere", nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})
}

func TestListen(t *testing.T) {
	ex := &fakeExchanger{}
	h := NewCallbackHandler(ex, "")

	r := NewBasicRouter()
	r.Use(LoggingMiddleware(shared.NewLogger(io.Discard)))
	r.Handler(h)

	srv, err := Listen("127.0.0.1:0", r)
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	defer srv.Shutdown(context.Background())

	resp, err := http.Get("http://" + srv.Addr() + "/callback?code=live")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	if res := <-h.Result(); res.Error() != nil {
		t.Errorf("expected success, got %v", res.Error())
	}
	if len(ex.codes) != 1 || ex.codes[0] != "live" {
		t.Errorf("expected code live, got %v", ex.codes)
	}
}
