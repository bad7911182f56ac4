// Package server provides HTTP routing, middleware, and the OAuth login callback used by `spx authenticate`.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// [BasicRouter] registers method-qualified [http.ServeMux] patterns, so the mux answers 405 for other methods.
//
// # OAuth Callback Handler
//
// [OAuthHandler] completes the OAuth2 authorization code flow with PKCE.
//
// The handler validates the state parameter (CSRF protection), exchanges the authorization code together with the
// PKCE verifier, and sends the result through a channel. It only processes one callback.
//
// The callback path is taken from the configured login redirect URI (http://127.0.0.1:8989/login by default), so
// the same URI registered with the Spotify application is the one served here.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
