package ui

import (
	"fmt"
	"math/rand/v2"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/spx/internal/keymap"
	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/player"
	"github.com/desertthunder/spx/internal/shared"
)

func transferRequest(deviceID string) player.Request {
	return player.Transfer(deviceID, true)
}

// playerRequest sends req to the player and refreshes the playback afterwards.
func (m *Model) playerRequest(text string, req player.Request) tea.Cmd {
	return func() tea.Msg {
		if err := m.player.Handle(m.ctx, req); err != nil {
			return statusMsg{err: err}
		}
		return statusMsg{text: text, refresh: true}
	}
}

func (m *Model) device() string {
	if st := m.player.State(); st != nil {
		return st.Device.ID
	}
	return ""
}

// open shows the page of a playlist, album or artist.
func (m *Model) open(item keymap.Item) tea.Cmd {
	id := item.ID()
	switch id.Type {
	case models.PlaylistType, models.AlbumType, models.ArtistType:
		m.push(m.newContextPage(id))
		return m.loadContext(id)
	case models.TrackType:
		t := *item.Track
		key := "track:" + id.URI()
		m.push(m.newTracksPage(key, t.Name))
		return m.loadTracks(key, t.Name, func() ([]models.Track, error) { return []models.Track{t}, nil })
	default:
		return statusCmd(errUnsupported(id))
	}
}

func (m *Model) openRadio(item keymap.Item) tea.Cmd {
	id := item.ID()
	name := "Radio"
	switch {
	case item.Track != nil:
		name += ": " + item.Track.Name
	case item.Album != nil:
		name += ": " + item.Album.Name
	case item.Artist != nil:
		name += ": " + item.Artist.Name
	case item.Playlist != nil:
		name += ": " + item.Playlist.Name
	}
	key := "radio:" + id.URI()
	m.push(m.newTracksPage(key, name))
	return m.loadTracks(key, name, func() ([]models.Track, error) { return m.client.RadioTracks(m.ctx, id) })
}

// handleAction applies act to item.
func (m *Model) handleAction(act keymap.ActionKind, item keymap.Item) tea.Cmd {
	id := item.ID()
	if id.IsZero() {
		return nil
	}

	switch act {
	case keymap.ActGoToArtist:
		artists := itemArtists(item)
		switch len(artists) {
		case 0:
			return nil
		case 1:
			return m.open(keymap.Item{Artist: &artists[0]})
		default:
			m.openItemsPopup("Artists", artistColumns, artistEntries(artists), false)
			return nil
		}

	case keymap.ActGoToAlbum:
		if item.Track != nil && !item.Track.Album.ID.IsZero() {
			album := item.Track.Album
			return m.open(keymap.Item{Album: &album})
		}

	case keymap.ActGoToRadio:
		return m.openRadio(item)

	case keymap.ActGoToShow:
		if item.Episode != nil && item.Episode.Show != nil {
			return statusCmd(errUnsupported(item.Episode.Show.ID))
		}

	case keymap.ActShowActionsOnAlbum:
		if item.Track != nil {
			album := item.Track.Album
			m.openActionsPopup(keymap.Item{Album: &album}, false)
		}

	case keymap.ActShowActionsOnArtist:
		artists := itemArtists(item)
		switch len(artists) {
		case 0:
		case 1:
			m.openActionsPopup(keymap.Item{Artist: &artists[0]}, false)
		default:
			m.openItemsPopup("Artists", artistColumns, artistEntries(artists), true)
		}

	case keymap.ActShowActionsOnShow:
		if item.Episode != nil && item.Episode.Show != nil {
			m.openActionsPopup(keymap.Item{Show: item.Episode.Show}, false)
		}

	case keymap.ActAddToLibrary, keymap.ActFollow:
		return m.run("saved "+id.URI(), func(m *Model) { m.saveLocal(item, true) }, func() error {
			return m.client.SaveItems(m.ctx, []models.ID{id})
		})

	case keymap.ActDeleteFromLibrary, keymap.ActUnfollow:
		return m.run("removed "+id.URI(), func(m *Model) { m.saveLocal(item, false) }, func() error {
			return m.client.RemoveItems(m.ctx, []models.ID{id})
		})

	case keymap.ActAddToLiked, keymap.ActDeleteFromLiked, keymap.ActToggleLiked:
		if item.Track == nil {
			return nil
		}
		like := act == keymap.ActAddToLiked || (act == keymap.ActToggleLiked && !m.data.IsLikedTrack(*item.Track))
		return m.like(*item.Track, like)

	case keymap.ActAddToPlaylist:
		if m.data == nil {
			return nil
		}
		m.openAddToPlaylistPopup(item)

	case keymap.ActDeleteFromPlaylist:
		pl := m.editablePlaylist()
		if pl == nil {
			return nil
		}
		ctx := m.history.current().ctx
		return m.run("removed from "+pl.Name, func(m *Model) {
			ctx.Tracks = removeTrack(ctx.Tracks, id)
			m.contexts.Delete(ctx.ID.URI())
			m.populate(m.history.current())
		}, func() error {
			return m.client.RemovePlaylistItems(m.ctx, pl.ID.ID, []models.ID{id})
		})

	case keymap.ActAddToQueue:
		return m.addToQueue(item)

	case keymap.ActCopyLink:
		url := id.URL()
		if err := m.copy(url); err != nil {
			return statusCmd(fmt.Errorf("failed to copy link: %w", err))
		}
		m.status = "copied " + url
	}
	return nil
}

func (m *Model) like(t models.Track, like bool) tea.Cmd {
	ids := []models.ID{t.ID}
	if like {
		return m.run("liked "+t.Name, func(m *Model) { m.setLiked(t.ID, true) }, func() error {
			return m.client.SaveItems(m.ctx, ids)
		})
	}
	return m.run("unliked "+t.Name, func(m *Model) { m.setLiked(t.ID, false) }, func() error {
		return m.client.RemoveItems(m.ctx, ids)
	})
}

func (m *Model) setLiked(id models.ID, liked bool) {
	if m.data == nil {
		return
	}
	m.data.SetLiked(id, liked)
	m.contexts.Delete(likedKey)
	m.populate(m.history.current())
}

// saveLocal mirrors a library save or removal in the loaded user data.
func (m *Model) saveLocal(item keymap.Item, saved bool) {
	if m.data == nil {
		return
	}
	d := m.data
	switch {
	case item.Album != nil:
		d.SavedAlbums = toggle(d.SavedAlbums, *item.Album, saved, func(a models.Album) models.ID { return a.ID })
	case item.Artist != nil:
		d.FollowedArtists = toggle(d.FollowedArtists, *item.Artist, saved, func(a models.Artist) models.ID { return a.ID })
	case item.Show != nil:
		d.SavedShows = toggle(d.SavedShows, *item.Show, saved, func(s models.Show) models.ID { return s.ID })
	case item.Playlist != nil:
		d.Playlists = toggle(d.Playlists, *item.Playlist, saved, func(p models.Playlist) models.ID { return p.ID })
		m.restructure()
	}
	for _, p := range m.history.pages {
		if p.kind == libraryPage {
			m.populate(p)
		}
	}
}

func toggle[T any](items []T, item T, add bool, id func(T) models.ID) []T {
	out := make([]T, 0, len(items)+1)
	if add {
		out = append(out, item)
	}
	for _, it := range items {
		if id(it) != id(item) {
			out = append(out, it)
		}
	}
	return out
}

func removeTrack(tracks []models.Track, id models.ID) []models.Track {
	out := make([]models.Track, 0, len(tracks))
	for _, t := range tracks {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}

func itemArtists(item keymap.Item) []models.Artist {
	switch {
	case item.Track != nil:
		return item.Track.Artists
	case item.Album != nil:
		return item.Album.Artists
	case item.Artist != nil:
		return []models.Artist{*item.Artist}
	}
	return nil
}

func (m *Model) addToPlaylist(pl models.Playlist, item keymap.Item) tea.Cmd {
	id := item.ID()
	return m.run("added to "+pl.Name, func(m *Model) { m.contexts.Delete(pl.ID.URI()) }, func() error {
		return m.client.AddPlaylistItems(m.ctx, pl.ID.ID, []models.ID{id})
	})
}

// addToQueue queues a track or episode, or every track of an album or playlist.
func (m *Model) addToQueue(item keymap.Item) tea.Cmd {
	id := item.ID()
	device := m.device()
	return m.run("added to queue", nil, func() error {
		ids := []models.ID{id}
		switch id.Type {
		case models.AlbumType, models.PlaylistType:
			var (
				ctx *models.Context
				err error
			)
			if id.Type == models.AlbumType {
				ctx, err = m.client.AlbumContext(m.ctx, id.ID)
			} else {
				ctx, err = m.client.PlaylistContext(m.ctx, id.ID)
			}
			if err != nil {
				return err
			}
			ids = models.IDs(ctx.Tracks)
		case models.TrackType, models.EpisodeType:
		default:
			return errUnsupported(id)
		}
		for _, id := range ids {
			if err := m.client.AddToQueue(m.ctx, device, id); err != nil {
				return err
			}
		}
		return nil
	})
}

// editablePlaylist returns the playlist shown on the current page when the
// user may edit it.
func (m *Model) editablePlaylist() *models.Playlist {
	p := m.history.current()
	if p.ctx == nil || p.ctx.Kind != models.PlaylistContext || p.ctx.Playlist == nil {
		return nil
	}
	for _, pl := range m.data.ModifiablePlaylists() {
		if pl.ID == p.ctx.ID {
			return p.ctx.Playlist
		}
	}
	return nil
}

// playTrack starts t within the page it is listed on. Playlist and album pages
// start their context at t; other track lists are played as a list of URIs.
func (m *Model) playTrack(p *page, w *window, t models.Track) tea.Cmd {
	var pb models.Playback
	if p.ctx != nil && p.ctx.Playable() && w == p.trackWindow() && p.ctx.Kind != models.ArtistContext {
		pb = models.ContextPlayback(p.ctx.ID, &t.ID)
	} else {
		ids := make([]models.ID, 0, len(w.all))
		for _, e := range w.all {
			if e.item.Track != nil {
				ids = append(ids, e.item.Track.ID)
			}
		}
		pb = models.URIsPlayback(ids, &t.ID).LimitURIs(m.config.TracksPlaybackLimit)
	}
	return m.playerRequest("playing "+t.Name, player.Start(pb, nil))
}

// playRandom starts a random track of the current page's track list.
func (m *Model) playRandom() tea.Cmd {
	p := m.history.current()
	w := p.trackWindow()
	if w == nil || len(w.entries) == 0 {
		return nil
	}
	e := w.entries[m.rand(len(w.entries))]
	return m.playTrack(p, w, *e.item.Track)
}

// moveTrack swaps the selected playlist track with its neighbour.
func (m *Model) moveTrack(step int) tea.Cmd {
	pl := m.editablePlaylist()
	p := m.history.current()
	w := p.trackWindow()
	if pl == nil || w == nil || w.filter != "" {
		return nil
	}
	from := w.table.Cursor()
	to := from + step
	if from < 0 || to < 0 || to >= len(p.ctx.Tracks) {
		return nil
	}
	insertBefore := to
	if step > 0 {
		insertBefore = to + 1
	}
	ctx := p.ctx
	return m.run("moved track", func(m *Model) {
		ctx.Tracks[from], ctx.Tracks[to] = ctx.Tracks[to], ctx.Tracks[from]
		m.populate(p)
		w.selectIndex(to)
	}, func() error {
		return m.client.ReorderPlaylistItems(m.ctx, pl.ID.ID, from, insertBefore)
	})
}

// openLink opens the Spotify URI or URL held in the clipboard.
func (m *Model) openLink() tea.Cmd {
	text, err := m.paste()
	if err != nil {
		return statusCmd(fmt.Errorf("failed to read clipboard: %w", err))
	}
	id, err := models.ParseLink(strings.TrimSpace(text))
	if err != nil {
		return statusCmd(err)
	}
	switch id.Type {
	case models.TrackType:
		key := "track:" + id.URI()
		m.push(m.newTracksPage(key, "Track"))
		return m.loadTracks(key, "Track", func() ([]models.Track, error) {
			t, err := m.client.Track(m.ctx, id.ID)
			if err != nil {
				return nil, err
			}
			return []models.Track{*t}, nil
		})
	case models.PlaylistType, models.AlbumType, models.ArtistType:
		m.push(m.newContextPage(id))
		return m.loadContext(id)
	}
	return statusCmd(errUnsupported(id))
}

func statusCmd(err error) tea.Cmd {
	return func() tea.Msg { return statusMsg{err: err} }
}

func errUnsupported(id models.ID) error {
	return fmt.Errorf("%w: cannot open items of type %s", shared.ErrInvalidInput, id.Type)
}

func defaultRand(n int) int {
	return rand.IntN(n)
}
