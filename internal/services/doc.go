// Package services implements the Spotify Web API client behind the [Client] interface.
//
// # Authentication
//
// [Auth] runs the OAuth2 authorization code flow with PKCE, so no client secret
// is stored. Tokens are cached as JSON in the cache folder; [Auth.Client] wraps
// the cached token in a source that refreshes it and writes every refreshed
// token back to the cache.
//
// # Requests
//
// [SpotifyClient] paces requests with a [rate.Limiter] and follows paging
// "next" links until a listing is complete. Status codes map to shared errors:
//   - 401: [shared.ErrTokenExpired]
//   - 404: [shared.ErrNotFound]
//   - 429: [shared.ErrRateLimited]
//   - anything else outside 2xx: [shared.ErrAPIRequest]
//
// # API Mappings
//
// Spotify JSON types ([SpotifyTrack], [SpotifyAlbum], ...) convert to package
// models through their Model methods. Local files and removed playlist entries
// are dropped because they cannot be played through the Web API.
package services
