package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/desertthunder/spx/internal/folders"
	"github.com/desertthunder/spx/internal/keymap"
	"github.com/desertthunder/spx/internal/models"
)

type pageKind int

const (
	libraryPage pageKind = iota
	contextPage
	tracksPage
	searchPage
	lyricsPage
	queuePage
	commandHelpPage
	browsePage
)

func (k pageKind) String() string {
	switch k {
	case libraryPage:
		return "Library"
	case contextPage:
		return "Context"
	case tracksPage:
		return "Tracks"
	case searchPage:
		return "Search"
	case lyricsPage:
		return "Lyrics"
	case queuePage:
		return "Queue"
	case commandHelpPage:
		return "Commands"
	case browsePage:
		return "Browse"
	default:
		return ""
	}
}

// page is one screen of the application. Which fields are set depends on kind.
type page struct {
	kind    pageKind
	key     string
	title   string
	windows []*window
	focus   int
	loading bool
	err     error

	ctx *models.Context

	// library
	folder int

	// search
	input   textinput.Model
	editing bool
	results *models.SearchResults

	// lyrics
	track  models.Track
	view   viewport.Model
	lyrics *models.Lyrics

	queue *models.Queue

	// browse
	category   *models.Category
	categories []models.Category
	playlists  []models.Playlist
}

func (p *page) current() *window {
	if p.focus < 0 || p.focus >= len(p.windows) {
		return nil
	}
	return p.windows[p.focus]
}

// cycle moves the focus between windows, wrapping around.
func (p *page) cycle(step int) {
	if len(p.windows) == 0 {
		return
	}
	p.focus = (p.focus + step + len(p.windows)) % len(p.windows)
}

// trackWindow returns the window listing the context's tracks.
func (p *page) trackWindow() *window {
	if p.ctx == nil || len(p.windows) == 0 {
		return nil
	}
	return p.windows[0]
}

// history is the stack of visited pages. The bottom page is never popped.
type history struct {
	pages []*page
}

func (h *history) push(p *page) {
	h.pages = append(h.pages, p)
}

func (h *history) current() *page {
	if len(h.pages) == 0 {
		return nil
	}
	return h.pages[len(h.pages)-1]
}

func (h *history) pop() bool {
	if len(h.pages) <= 1 {
		return false
	}
	h.pages = h.pages[:len(h.pages)-1]
	return true
}

// pageFor returns the most recent page waiting for key.
func (h *history) pageFor(key string) *page {
	for i := len(h.pages) - 1; i >= 0; i-- {
		if h.pages[i].key == key {
			return h.pages[i]
		}
	}
	return nil
}

func (m *Model) newLibraryPage() *page {
	p := &page{kind: libraryPage, key: "library", title: "Library", loading: m.data == nil}
	p.windows = []*window{
		newWindow("Playlists", playlistColumns, nil, m.styles),
		newWindow("Followed Artists", artistColumns, nil, m.styles),
		newWindow("Saved Albums", albumColumns, nil, m.styles),
	}
	m.populate(p)
	return p
}

func (m *Model) newContextPage(id models.ID) *page {
	return &page{kind: contextPage, key: id.URI(), title: "Context", loading: true}
}

func (m *Model) newTracksPage(key, title string) *page {
	return &page{kind: tracksPage, key: key, title: title, loading: true}
}

func (m *Model) newSearchPage() *page {
	input := textinput.New()
	input.Placeholder = "search"
	input.Prompt = "/ "
	input.Focus()
	p := &page{kind: searchPage, key: "search", title: "Search", input: input, editing: true}
	p.windows = []*window{
		newWindow("Tracks", trackColumns, nil, m.styles),
		newWindow("Artists", artistColumns, nil, m.styles),
		newWindow("Albums", albumColumns, nil, m.styles),
		newWindow("Playlists", playlistColumns, nil, m.styles),
	}
	return p
}

func (m *Model) newLyricsPage(track models.Track) *page {
	return &page{
		kind:    lyricsPage,
		key:     "lyrics:" + track.ID.URI(),
		title:   "Lyrics",
		track:   track,
		view:    viewport.New(m.width, max(m.height-8, 3)),
		loading: true,
	}
}

func (m *Model) newQueuePage() *page {
	return &page{kind: queuePage, key: "queue", title: "Queue", loading: true}
}

func (m *Model) newCommandHelpPage() *page {
	p := &page{kind: commandHelpPage, key: "help", title: "Commands"}
	p.windows = []*window{newWindow("Commands", helpColumns, nil, m.styles)}
	m.populate(p)
	return p
}

func (m *Model) newBrowsePage(category *models.Category) *page {
	key := "browse"
	if category != nil {
		key += ":" + category.ID
	}
	return &page{kind: browsePage, key: key, title: "Browse", category: category, loading: true}
}

var helpColumns = []table.Column{col("Keys", 16), col("Command", 30), col("Description", 60)}

// populate rebuilds the rows of every window from the page's data.
func (m *Model) populate(p *page) {
	maxLen := m.config.TrackTableItemMaxLen
	current := models.ID{}
	if st := m.player.State(); st != nil {
		current = st.ItemID()
	}
	tracks := func(ts []models.Track) []entry {
		return trackEntries(ts, maxLen, current, m.data, m.config.LikedIcon)
	}

	switch p.kind {
	case libraryPage:
		if m.data == nil {
			return
		}
		p.loading = false
		p.windows[0].setEntries(folderEntries(m.folderItems, p.folder))
		p.windows[1].setEntries(artistEntries(m.data.FollowedArtists))
		p.windows[2].setEntries(albumEntries(m.data.SavedAlbums))

	case contextPage, tracksPage:
		if p.ctx == nil {
			return
		}
		if len(p.windows) == 0 {
			p.windows = []*window{newWindow("Tracks", trackColumns, nil, m.styles)}
			if p.ctx.Kind == models.ArtistContext {
				p.windows[0].title = "Top Tracks"
				p.windows = append(p.windows,
					newWindow("Albums", albumColumns, nil, m.styles),
					newWindow("Related Artists", artistColumns, nil, m.styles),
				)
			}
		}
		p.windows[0].setEntries(tracks(p.ctx.Tracks))
		if p.ctx.Kind == models.ArtistContext {
			p.windows[1].setEntries(albumEntries(p.ctx.Albums))
			p.windows[2].setEntries(artistEntries(p.ctx.RelatedArtists))
		}

	case searchPage:
		if p.results == nil {
			return
		}
		p.windows[0].setEntries(tracks(p.results.Tracks))
		p.windows[1].setEntries(artistEntries(p.results.Artists))
		p.windows[2].setEntries(albumEntries(p.results.Albums))
		p.windows[3].setEntries(playlistEntries(p.results.Playlists))

	case queuePage:
		if p.queue == nil {
			return
		}
		var ts []models.Track
		if p.queue.CurrentlyPlaying != nil {
			ts = append(ts, *p.queue.CurrentlyPlaying)
		}
		ts = append(ts, p.queue.Queue...)
		if len(p.windows) == 0 {
			p.windows = []*window{newWindow("Queue", trackColumns, nil, m.styles)}
		}
		p.windows[0].setEntries(tracks(ts))

	case commandHelpPage:
		p.windows[0].setEntries(helpEntries(m.keymap))

	case browsePage:
		if len(p.windows) == 0 {
			if p.category == nil {
				p.windows = []*window{newWindow("Categories", nameColumns, nil, m.styles)}
			} else {
				p.windows = []*window{newWindow(p.category.Name, playlistColumns, nil, m.styles)}
			}
		}
		if p.category == nil {
			p.windows[0].setEntries(categoryEntries(p.categories))
		} else {
			p.windows[0].setEntries(playlistEntries(p.playlists))
		}
	}
	m.layout(p)
}

func helpEntries(cfg *keymap.Config) []entry {
	var out []entry
	for _, km := range cfg.Keymaps {
		out = append(out, entry{cols: []string{km.KeySequence.String(), km.Command.String(), km.Command.Desc()}})
	}
	for _, am := range cfg.Actions {
		out = append(out, entry{cols: []string{am.KeySequence.String(), am.Action.String(), fmt.Sprintf("%s (%s)", am.Action.Label(), am.Target)}})
	}
	return out
}

// description is the line shown above a page's windows.
func (m *Model) description(p *page) string {
	switch p.kind {
	case contextPage, tracksPage:
		if p.ctx != nil {
			return p.ctx.Description()
		}
	case libraryPage:
		if p.folder != 0 {
			return fmt.Sprintf("Library | folder %d", p.folder)
		}
	case lyricsPage:
		if p.lyrics != nil && p.lyrics.Found {
			return fmt.Sprintf("%s by %s", p.lyrics.Track, p.lyrics.Artists)
		}
		return p.track.Display()
	case browsePage:
		if p.category != nil {
			return "Category: " + p.category.Name
		}
	case searchPage:
		if p.results != nil {
			return fmt.Sprintf("Results for %q", p.input.Value())
		}
	}
	return p.kind.String()
}

// layout sizes the page's windows for the current terminal.
func (m *Model) layout(p *page) {
	height := max(m.height-playbackHeight-4, 6)
	width := max(m.width, 20)
	switch {
	case p.kind == libraryPage, p.kind == searchPage:
		cols := len(p.windows)
		if p.kind == searchPage {
			cols = 2
			height = height/2 - 3
		}
		for _, w := range p.windows {
			w.resize(width/cols-2, height-4)
		}
	case p.ctx != nil && p.ctx.Kind == models.ArtistContext:
		p.windows[0].resize(width-2, height/2-3)
		p.windows[1].resize(width/2-2, height/2-3)
		p.windows[2].resize(width/2-2, height/2-3)
	case p.kind == lyricsPage:
		p.view.Width = width - 2
		p.view.Height = height - 2
	default:
		for _, w := range p.windows {
			w.resize(width-2, height-4)
		}
	}
	for i, w := range p.windows {
		if i == p.focus {
			w.table.Focus()
		} else {
			w.table.Blur()
		}
	}
}

func (m *Model) viewWindow(p *page, i int, width int) string {
	w := p.windows[i]
	title := w.title
	if w.filter != "" {
		title = fmt.Sprintf("%s [%s]", title, w.filter)
	}
	return m.styles.block(title, w.table.View(), width, i == p.focus)
}

func (m *Model) viewPage(p *page) string {
	desc := m.styles.desc.Render(m.description(p))
	if p.err != nil {
		return desc + "\n" + m.styles.err.Render("Error: "+p.err.Error())
	}
	if p.loading {
		return desc + "\nLoading..."
	}

	width := max(m.width, 20)
	var body string
	switch {
	case p.kind == lyricsPage:
		body = m.styles.block("", p.view.View(), width, true)
	case p.kind == libraryPage:
		cols := make([]string, len(p.windows))
		for i := range p.windows {
			cols[i] = m.viewWindow(p, i, width/len(p.windows))
		}
		body = lipgloss.JoinHorizontal(lipgloss.Top, cols...)
	case p.kind == searchPage:
		top := lipgloss.JoinHorizontal(lipgloss.Top, m.viewWindow(p, 0, width/2), m.viewWindow(p, 1, width/2))
		bottom := lipgloss.JoinHorizontal(lipgloss.Top, m.viewWindow(p, 2, width/2), m.viewWindow(p, 3, width/2))
		body = lipgloss.JoinVertical(lipgloss.Left, m.styles.block("", p.input.View(), width, p.editing), top, bottom)
	case p.ctx != nil && p.ctx.Kind == models.ArtistContext:
		bottom := lipgloss.JoinHorizontal(lipgloss.Top, m.viewWindow(p, 1, width/2), m.viewWindow(p, 2, width/2))
		body = lipgloss.JoinVertical(lipgloss.Left, m.viewWindow(p, 0, width), bottom)
	default:
		rows := make([]string, len(p.windows))
		for i := range p.windows {
			rows[i] = m.viewWindow(p, i, width)
		}
		body = lipgloss.JoinVertical(lipgloss.Left, rows...)
	}
	return desc + "\n" + body
}

// lyricText renders a lookup result for the viewport.
func lyricText(l *models.Lyrics) string {
	if l == nil || !l.Found {
		return "No lyrics found."
	}
	return strings.TrimSpace(l.Lyric)
}

// openFolder switches the library playlist window to folder id.
func (m *Model) openFolder(p *page, f *folders.Folder) {
	p.folder = f.TargetID
	if w := p.current(); w != nil {
		w.applyFilter("")
		w.table.SetCursor(0)
	}
	m.populate(p)
}
