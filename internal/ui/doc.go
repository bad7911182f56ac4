// Package ui implements the interactive terminal player using bubbletea's Elm architecture.
//
// The screen is split into a playback block, the current page and a help footer:
//  1. [libraryPage] : playlists (arranged in folders), followed artists and saved albums
//  2. [contextPage] : tracks of a playlist or album; top tracks, albums and related artists of an artist
//  3. [tracksPage] : liked, top, recently played and radio track lists
//  4. [searchPage] : a query input above track, artist, album and playlist results
//  5. [lyricsPage], [queuePage], [commandHelpPage] and [browsePage]
//
// Visited pages form a stack so PreviousPage returns to where the user came from.
// Popups (devices, themes, actions, add to playlist, fuzzy filter, new playlist)
// are drawn in place of the page while open.
//
// Key presses are buffered by a resolver until they form a sequence bound in the
// keymap config. Requests to the Web API run as tea.Cmd functions and report
// back through message types, so the [Model] is only mutated inside Update.
package ui
