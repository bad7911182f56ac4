package server

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/oauth2"

	"github.com/desertthunder/spx/internal/shared"
)

type fakeExchanger struct {
	code, verifier string
	err            error
}

func (f *fakeExchanger) Exchange(_ context.Context, code, verifier string) (*oauth2.Token, error) {
	f.code, f.verifier = code, verifier
	if f.err != nil {
		return nil, f.err
	}
	return &oauth2.Token{AccessToken: "access-" + code}, nil
}

func TestOAuthHandler(t *testing.T) {
	const redirect = "http://127.0.0.1:8989/login"

	t.Run("routes follow redirect uri", func(t *testing.T) {
		h, err := NewOAuthHandler(&fakeExchanger{}, redirect, "s", "v")
		if err != nil {
			t.Fatal(err)
		}
		if routes := h.Routes(); len(routes) != 1 || routes[0] != "/login" {
			t.Errorf("unexpected routes %v", routes)
		}

		h, _ = NewOAuthHandler(&fakeExchanger{}, "http://127.0.0.1:8989", "s", "v")
		if h.Routes()[0] != "/" {
			t.Errorf("expected root route, got %v", h.Routes())
		}
	})

	tc := []struct {
		name        string
		query       string
		exchangeErr error
		wantStatus  int
		wantToken   string
		wantErr     bool
	}{
		{name: "success", query: "?state=s&code=abc", wantStatus: http.StatusOK, wantToken: "access-abc"},
		{name: "bad state", query: "?state=x&code=abc", wantStatus: http.StatusBadRequest, wantErr: true},
		{name: "denied", query: "?state=s&error=access_denied", wantStatus: http.StatusBadRequest, wantErr: true},
		{name: "exchange fails", query: "?state=s&code=abc", exchangeErr: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantErr: true},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			ex := &fakeExchanger{err: tt.exchangeErr}
			h, err := NewOAuthHandler(ex, redirect, "s", "verifier")
			if err != nil {
				t.Fatal(err)
			}

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login"+tt.query, nil))
			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}

			result := <-h.Result()
			if tt.wantErr {
				if result.Error() == nil {
					t.Error("expected error result")
				}
				return
			}
			if result.Error() != nil {
				t.Fatalf("unexpected error: %v", result.Error())
			}
			if result.Token.AccessToken != tt.wantToken {
				t.Errorf("unexpected token %+v", result.Token)
			}
			if ex.verifier != "verifier" {
				t.Errorf("verifier not forwarded, got %q", ex.verifier)
			}
		})
	}

	t.Run("only first callback is processed", func(t *testing.T) {
		h, _ := NewOAuthHandler(&fakeExchanger{}, redirect, "s", "v")

		first := httptest.NewRecorder()
		h.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/login?state=s&code=one", nil))
		second := httptest.NewRecorder()
		h.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/login?state=s&code=two", nil))

		if second.Code != http.StatusBadRequest {
			t.Errorf("expected second callback to be rejected, got %d", second.Code)
		}

		var results []OAuthResult
		for r := range h.Result() {
			results = append(results, r)
		}
		if len(results) != 1 || results[0].Token.AccessToken != "access-one" {
			t.Errorf("expected exactly one result, got %+v", results)
		}
	})
}

func TestBasicRouter(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	var logs bytes.Buffer
	logger := shared.NewLogger(&logs)
	logger.SetLevel(shared.ParseLogLevel("debug"))

	router := NewBasicRouter()
	router.Use(mw("outer"), mw("inner"), Logging(logger))
	router.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	t.Run("middleware order", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping?code=secret", nil))
		if rec.Code != http.StatusTeapot {
			t.Errorf("unexpected status %d", rec.Code)
		}
		if strings.Join(order, ",") != "outer,inner" {
			t.Errorf("unexpected middleware order %v", order)
		}
		if !strings.Contains(logs.String(), "/ping") || strings.Contains(logs.String(), "secret") {
			t.Errorf("unexpected log output %q", logs.String())
		}
	})

	t.Run("method filtering", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ping", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})

	t.Run("handler routes", func(t *testing.T) {
		h, _ := NewOAuthHandler(&fakeExchanger{}, "http://127.0.0.1:8989/login", "s", "v")
		router.Handler(h)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login?state=s&code=c", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
	})
}
