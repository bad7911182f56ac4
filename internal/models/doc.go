// Package models defines the Spotify domain entities shared by the API client, the CLI socket and the TUI.
//
// The types are decoupled from the Web API's JSON shapes:
//   - [ID] : a typed Spotify identifier with URI/URL parsing
//   - [Track], [Album], [Artist], [Playlist], [Show], [Episode] : catalog items
//   - [Context] : a playable collection (playlist, album, artist or a plain track list)
//   - [PlaybackState] and [Playback] : what is playing and how to start something new
//   - [UserData] : the current user's library used to decide which actions apply to an item
package models
