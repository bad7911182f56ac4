package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/services"
)

type playbackMsg struct {
	state *models.PlaybackState
	err   error
}

// pollMsg triggers a playback refresh.
type pollMsg time.Time

// redrawMsg advances the progress bar between refreshes.
type redrawMsg time.Time

type userDataMsg struct {
	data *models.UserData
	err  error
}

// contextMsg carries a loaded context. key identifies the page that asked for it.
type contextMsg struct {
	key string
	ctx *models.Context
	err error
}

type searchMsg struct {
	query   string
	results *models.SearchResults
	err     error
}

type lyricsMsg struct {
	track  models.Track
	lyrics *models.Lyrics
	err    error
}

type devicesMsg struct {
	devices []models.Device
	err     error
}

type queueMsg struct {
	queue *models.Queue
	err   error
}

type categoriesMsg struct {
	categories []models.Category
	err        error
}

type categoryPlaylistsMsg struct {
	category  models.Category
	playlists []models.Playlist
	err       error
}

// statusMsg reports the outcome of a request made in the background. When
// refresh is set the playback is fetched again. apply runs on success, inside
// Update, to patch local state.
type statusMsg struct {
	text    string
	err     error
	refresh bool
	apply   func(*Model)
}

// reloadMsg names a config file that changed on disk.
type reloadMsg string

func (m *Model) refreshPlayback() tea.Cmd {
	return func() tea.Msg {
		state, err := m.player.Refresh(m.ctx)
		return playbackMsg{state: state, err: err}
	}
}

func (m *Model) pollPlayback() tea.Cmd {
	d := m.config.PlaybackRefresh()
	if d <= 0 {
		return nil
	}
	return tea.Tick(d, func(t time.Time) tea.Msg { return pollMsg(t) })
}

func (m *Model) redraw() tea.Cmd {
	d := m.config.AppRefresh()
	if d <= 0 {
		d = time.Second
	}
	return tea.Tick(d, func(t time.Time) tea.Msg { return redrawMsg(t) })
}

func (m *Model) loadUserData() tea.Cmd {
	return func() tea.Msg {
		data, err := services.LoadUserData(m.ctx, m.client)
		return userDataMsg{data: data, err: err}
	}
}

// loadContext fetches a playlist, album or artist context, served from the
// cache when present.
func (m *Model) loadContext(id models.ID) tea.Cmd {
	key := id.URI()
	if ctx, ok := m.contexts.Get(key); ok {
		return func() tea.Msg { return contextMsg{key: key, ctx: ctx} }
	}
	return func() tea.Msg {
		var (
			ctx *models.Context
			err error
		)
		switch id.Type {
		case models.PlaylistType:
			ctx, err = m.client.PlaylistContext(m.ctx, id.ID)
		case models.AlbumType:
			ctx, err = m.client.AlbumContext(m.ctx, id.ID)
		case models.ArtistType:
			ctx, err = m.client.ArtistContext(m.ctx, id.ID)
		default:
			return contextMsg{key: key, err: errUnsupported(id)}
		}
		if err == nil {
			m.contexts.Put(key, ctx)
		}
		return contextMsg{key: key, ctx: ctx, err: err}
	}
}

// loadTracks fetches a named track list such as liked or top tracks.
func (m *Model) loadTracks(key, name string, fetch func() ([]models.Track, error)) tea.Cmd {
	if ctx, ok := m.contexts.Get(key); ok {
		return func() tea.Msg { return contextMsg{key: key, ctx: ctx} }
	}
	return func() tea.Msg {
		tracks, err := fetch()
		if err != nil {
			return contextMsg{key: key, err: err}
		}
		ctx := models.TracksCtx(name, tracks)
		m.contexts.Put(key, ctx)
		return contextMsg{key: key, ctx: ctx}
	}
}

func (m *Model) search(query string) tea.Cmd {
	if res, ok := m.searches.Get(query); ok {
		return func() tea.Msg { return searchMsg{query: query, results: res} }
	}
	return func() tea.Msg {
		res, err := m.client.Search(m.ctx, query)
		if err == nil {
			m.searches.Put(query, res)
		}
		return searchMsg{query: query, results: res, err: err}
	}
}

func (m *Model) loadLyrics(track models.Track) tea.Cmd {
	return func() tea.Msg {
		l, err := m.lyrics.Find(m.ctx, track)
		return lyricsMsg{track: track, lyrics: l, err: err}
	}
}

func (m *Model) loadDevices() tea.Cmd {
	return func() tea.Msg {
		devices, err := m.client.Devices(m.ctx)
		return devicesMsg{devices: devices, err: err}
	}
}

func (m *Model) loadQueue() tea.Cmd {
	return func() tea.Msg {
		q, err := m.client.Queue(m.ctx)
		return queueMsg{queue: q, err: err}
	}
}

func (m *Model) loadCategories() tea.Cmd {
	return func() tea.Msg {
		c, err := m.client.Categories(m.ctx)
		return categoriesMsg{categories: c, err: err}
	}
}

func (m *Model) loadCategoryPlaylists(c models.Category) tea.Cmd {
	return func() tea.Msg {
		p, err := m.client.CategoryPlaylists(m.ctx, c.ID)
		return categoryPlaylistsMsg{category: c, playlists: p, err: err}
	}
}

// waitForReload blocks on the watcher channel, in the same way a progress
// channel is drained one update per message.
func (m *Model) waitForReload() tea.Cmd {
	if m.reload == nil {
		return nil
	}
	return func() tea.Msg {
		name, ok := <-m.reload
		if !ok {
			return nil
		}
		return reloadMsg(name)
	}
}

// run executes fn in the background and reports its outcome.
func (m *Model) run(text string, apply func(*Model), fn func() error) tea.Cmd {
	return func() tea.Msg {
		if err := fn(); err != nil {
			return statusMsg{err: err}
		}
		return statusMsg{text: text, apply: apply}
	}
}
