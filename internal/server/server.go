package server

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
)

type Middleware func(http.Handler) http.Handler

// Handler is an [http.Handler] that knows the paths it serves.
type Handler interface {
	http.Handler
	Routes() []string
}

// Router registers handlers behind a middleware stack.
type Router interface {
	http.Handler
	Use(middleware ...Middleware)
	Handle(method, path string, handler http.Handler)
	Handler(handler Handler)
}

var _ Router = (*BasicRouter)(nil)

// Exchanger trades an authorization code and its PKCE verifier for a token.
type Exchanger interface {
	Exchange(ctx context.Context, code, verifier string) (*oauth2.Token, error)
}
