package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/desertthunder/spx/internal/cache"
	"github.com/desertthunder/spx/internal/folders"
	"github.com/desertthunder/spx/internal/keymap"
	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/player"
	"github.com/desertthunder/spx/internal/services"
	"github.com/desertthunder/spx/internal/shared"
	"github.com/desertthunder/spx/internal/theme"
)

const (
	cacheCapacity = 64
	likedKey      = "liked"
	topKey        = "top"
	recentKey     = "recent"
)

// LyricsFinder looks up the lyrics of a track.
type LyricsFinder interface {
	Find(ctx context.Context, track models.Track) (*models.Lyrics, error)
}

// Options holds the dependencies of the TUI. Lyrics and Reload may be nil.
type Options struct {
	Client      services.Client
	Player      *player.Player
	Lyrics      LyricsFinder
	Config      *shared.Config
	Keymap      *keymap.Config
	Themes      *theme.Config
	FolderNodes []folders.Node
	Paths       shared.Paths
	Reload      <-chan string
	Logger      *log.Logger
}

// Model represents the TUI application state.
type Model struct {
	ctx    context.Context
	client services.Client
	player *player.Player
	lyrics LyricsFinder
	config *shared.Config
	keymap *keymap.Config
	themes *theme.Config
	paths  shared.Paths
	reload <-chan string
	logger *log.Logger

	themeName string
	styles    styles
	progress  progress.Model
	help      help.Model
	keys      keyResolver

	data        *models.UserData
	nodes       []folders.Node
	folderItems []folders.Item

	history history
	popup   *popup

	contexts *cache.Cache[*models.Context]
	searches *cache.Cache[*models.SearchResults]

	width, height int
	status        string
	err           error
	connecting    bool

	copy  func(string) error
	paste func() (string, error)
	rand  func(int) int
}

// NewModel creates the TUI model. It starts on the library page.
func NewModel(ctx context.Context, opts Options) *Model {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = shared.DefaultConfig()
	}
	km := opts.Keymap
	if km == nil {
		km = keymap.DefaultConfig()
	}
	themes := opts.Themes
	if themes == nil {
		themes = theme.DefaultConfig()
	}

	m := &Model{
		ctx:      ctx,
		client:   opts.Client,
		player:   opts.Player,
		lyrics:   opts.Lyrics,
		config:   cfg,
		keymap:   km,
		themes:   themes,
		paths:    opts.Paths,
		reload:   opts.Reload,
		logger:   logger,
		help:     help.New(),
		keys:     keyResolver{config: km},
		nodes:    opts.FolderNodes,
		contexts: cache.New[*models.Context](cacheCapacity, cfg.CacheTTL()),
		searches: cache.New[*models.SearchResults](cacheCapacity, cfg.CacheTTL()),
		copy:     clipboard.WriteAll,
		paste:    clipboard.ReadAll,
		rand:     defaultRand,
	}
	if m.player == nil {
		m.player = player.New(opts.Client, logger)
	}
	m.setTheme(cfg.Theme)
	m.history.push(m.newLibraryPage())
	return m
}

// Init loads the user's library and playback and starts the refresh timers.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("spx"),
		m.loadUserData(),
		m.refreshPlayback(),
		m.pollPlayback(),
		m.redraw(),
		m.waitForReload(),
	)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		for _, p := range m.history.pages {
			m.layout(p)
		}
		return m, nil

	case tea.KeyMsg:
		m.status, m.err = "", nil
		return m, m.handleKey(msg)

	case pollMsg:
		return m, tea.Batch(m.refreshPlayback(), m.pollPlayback())

	case redrawMsg:
		return m, m.redraw()

	case playbackMsg:
		return m, m.onPlayback(msg)

	case userDataMsg:
		if msg.err != nil {
			m.fail(fmt.Errorf("failed to load library: %w", msg.err))
			return m, nil
		}
		m.data = msg.data
		m.restructure()
		for _, p := range m.history.pages {
			m.populate(p)
		}
		return m, nil

	case contextMsg:
		p := m.history.pageFor(msg.key)
		if p == nil {
			return m, nil
		}
		p.loading = false
		if msg.err != nil {
			p.err = msg.err
			return m, nil
		}
		p.ctx = msg.ctx
		m.populate(p)
		if st := m.player.State(); st != nil {
			if i := p.ctx.IndexOf(st.ItemID()); i >= 0 && p.kind == contextPage {
				p.windows[0].selectIndex(i)
			}
		}
		return m, nil

	case searchMsg:
		p := m.history.pageFor("search")
		if p == nil || strings.TrimSpace(p.input.Value()) != msg.query {
			return m, nil
		}
		p.loading = false
		if msg.err != nil {
			p.err = msg.err
			return m, nil
		}
		p.err = nil
		p.results = msg.results
		m.populate(p)
		return m, nil

	case lyricsMsg:
		p := m.history.pageFor("lyrics:" + msg.track.ID.URI())
		if p == nil {
			return m, nil
		}
		p.loading = false
		if msg.err != nil {
			p.err = msg.err
			return m, nil
		}
		p.lyrics = msg.lyrics
		p.view.SetContent(lyricText(msg.lyrics))
		p.view.GotoTop()
		m.layout(p)
		return m, nil

	case devicesMsg:
		if msg.err != nil {
			m.fail(msg.err)
			return m, nil
		}
		m.openDevicePopup(msg.devices)
		return m, nil

	case queueMsg:
		p := m.history.pageFor("queue")
		if p == nil {
			return m, nil
		}
		p.loading = false
		if msg.err != nil {
			p.err = msg.err
			return m, nil
		}
		p.queue = msg.queue
		m.populate(p)
		return m, nil

	case categoriesMsg:
		p := m.history.pageFor("browse")
		if p == nil {
			return m, nil
		}
		p.loading = false
		p.err = msg.err
		p.categories = msg.categories
		m.populate(p)
		return m, nil

	case categoryPlaylistsMsg:
		p := m.history.pageFor("browse:" + msg.category.ID)
		if p == nil {
			return m, nil
		}
		p.loading = false
		p.err = msg.err
		p.playlists = msg.playlists
		m.populate(p)
		return m, nil

	case statusMsg:
		if msg.err != nil {
			m.fail(msg.err)
			return m, nil
		}
		m.status = msg.text
		if msg.apply != nil {
			msg.apply(m)
		}
		if msg.refresh {
			return m, m.refreshPlayback()
		}
		return m, nil

	case reloadMsg:
		m.reloadFile(string(msg))
		return m, m.waitForReload()
	}
	return m, nil
}

func (m *Model) fail(err error) {
	m.logger.Error("request failed", "error", err)
	m.err = err
	m.status = ""
}

// onPlayback stores a refreshed playback. The first time no device is active
// the configured default device is connected.
func (m *Model) onPlayback(msg playbackMsg) tea.Cmd {
	if msg.err != nil {
		m.logger.Warn("failed to refresh playback", "error", msg.err)
		return nil
	}

	p := m.history.current()
	if msg.state == nil {
		if m.connecting {
			return nil
		}
		m.connecting = true
		preferred := m.config.DefaultDevice
		return func() tea.Msg {
			d, err := m.player.ConnectDevice(m.ctx, preferred)
			if err != nil {
				return statusMsg{err: err}
			}
			return statusMsg{text: "connected to " + d.Name, refresh: true}
		}
	}

	m.populate(p)
	if p.kind == lyricsPage && msg.state.Track != nil && msg.state.Track.ID != p.track.ID {
		np := m.newLyricsPage(*msg.state.Track)
		m.history.pages[len(m.history.pages)-1] = np
		return m.loadLyrics(*msg.state.Track)
	}
	return nil
}

func (m *Model) restructure() {
	if m.data == nil {
		return
	}
	m.folderItems = folders.Structurize(m.data.Playlists, m.nodes)
}

// push shows p. A page with the same key as the current one replaces it.
func (m *Model) push(p *page) {
	if cur := m.history.current(); cur != nil && cur.key == p.key {
		m.history.pages[len(m.history.pages)-1] = p
	} else {
		m.history.push(p)
	}
	m.keys.reset()
	m.layout(p)
}

func (m *Model) setTheme(name string) {
	t, ok := m.themes.Find(name)
	if !ok {
		m.logger.Warn("theme not found, using the first available theme", "theme", name)
		names := m.themes.Names()
		if len(names) == 0 {
			t, _ = theme.DefaultConfig().Find("default")
		} else {
			t, _ = m.themes.Find(names[0])
		}
	}
	m.themeName = t.Name
	m.styles = newStyles(t)
	m.progress = newProgressBar(t)
	for _, p := range m.history.pages {
		for _, w := range p.windows {
			w.table.SetStyles(m.styles.tableView)
		}
	}
}

// reloadFile applies a config file that changed on disk.
func (m *Model) reloadFile(name string) {
	switch name {
	case shared.KeymapConfigFile:
		cfg, _, err := keymap.Load(m.paths.Keymap())
		if err != nil {
			m.fail(err)
			return
		}
		m.keymap = cfg
		m.keys = keyResolver{config: cfg}
		for _, p := range m.history.pages {
			if p.kind == commandHelpPage {
				m.populate(p)
			}
		}
	case shared.ThemeConfigFile:
		cfg, _, err := theme.Load(m.paths.Theme())
		if err != nil {
			m.fail(err)
			return
		}
		m.themes = cfg
		m.setTheme(m.themeName)
	case shared.FoldersFile:
		nodes, err := folders.LoadNodes(m.paths.Folders())
		if err != nil {
			m.fail(err)
			return
		}
		m.nodes = nodes
		m.restructure()
		for _, p := range m.history.pages {
			if p.kind == libraryPage {
				p.folder = 0
				m.populate(p)
			}
		}
	default:
		return
	}
	m.logger.Info("reloaded config", "file", name)
	m.status = "reloaded " + name
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.Type == tea.KeyCtrlC {
		return tea.Quit
	}
	if m.popup != nil && m.popup.isInput() {
		return m.updateInputPopup(msg)
	}

	p := m.history.current()
	if p.kind == searchPage && p.editing {
		switch msg.Type {
		case tea.KeyEsc:
			p.editing = false
			p.input.Blur()
			return nil
		case tea.KeyEnter:
			q := strings.TrimSpace(p.input.Value())
			if q == "" {
				return nil
			}
			p.editing = false
			p.input.Blur()
			p.loading = true
			return m.search(q)
		}
		var cmd tea.Cmd
		p.input, cmd = p.input.Update(msg)
		return cmd
	}

	k, ok := keymap.FromKeyMsg(msg)
	if !ok {
		m.keys.reset()
		return nil
	}
	res := m.keys.feed(k)
	switch {
	case res.command != nil:
		return m.handleCommand(*res.command)
	case res.action != nil:
		return m.handleActionMap(*res.action)
	}
	return nil
}

func (m *Model) handleActionMap(am keymap.ActionMap) tea.Cmd {
	var item keymap.Item
	switch am.Target {
	case keymap.TargetPlayingTrack:
		st := m.player.State()
		if st == nil || st.Track == nil {
			return nil
		}
		t := *st.Track
		item = keymap.Item{Track: &t}
	default:
		e, ok := m.selected()
		if !ok {
			return nil
		}
		item = e.item
	}
	return m.handleAction(am.Action, item)
}

func (m *Model) selected() (entry, bool) {
	w := m.history.current().current()
	if w == nil {
		return entry{}, false
	}
	return w.selected()
}

// navigate moves the selection of the popup list, the lyrics viewport or the
// focused window.
func (m *Model) navigate(kind keymap.CommandKind) bool {
	p := m.history.current()
	if m.popup == nil && p.kind == lyricsPage {
		switch kind {
		case keymap.CmdSelectNextOrScrollDown:
			p.view.LineDown(1)
		case keymap.CmdSelectPreviousOrScrollUp:
			p.view.LineUp(1)
		case keymap.CmdPageSelectNextOrScrollDown:
			p.view.ViewDown()
		case keymap.CmdPageSelectPreviousOrScrollUp:
			p.view.ViewUp()
		case keymap.CmdSelectFirstOrScrollToTop:
			p.view.GotoTop()
		case keymap.CmdSelectLastOrScrollToBottom:
			p.view.GotoBottom()
		default:
			return false
		}
		return true
	}

	w := p.current()
	if m.popup != nil {
		w = m.popup.list
	}
	if w == nil {
		return false
	}
	switch kind {
	case keymap.CmdSelectNextOrScrollDown:
		w.table.MoveDown(1)
	case keymap.CmdSelectPreviousOrScrollUp:
		w.table.MoveUp(1)
	case keymap.CmdPageSelectNextOrScrollDown:
		w.table.MoveDown(max(w.table.Height(), 1))
	case keymap.CmdPageSelectPreviousOrScrollUp:
		w.table.MoveUp(max(w.table.Height(), 1))
	case keymap.CmdSelectFirstOrScrollToTop:
		w.table.GotoTop()
	case keymap.CmdSelectLastOrScrollToBottom:
		w.table.GotoBottom()
	default:
		return false
	}
	return true
}

// handleCommand runs a bound command.
func (m *Model) handleCommand(cmd keymap.Command) tea.Cmd {
	if m.navigate(cmd.Kind) {
		return nil
	}
	if m.popup != nil {
		switch cmd.Kind {
		case keymap.CmdChooseSelected:
			return m.choosePopup()
		case keymap.CmdClosePopup:
			m.popup = nil
			return nil
		}
	}

	p := m.history.current()
	seek := m.config.SeekDuration()

	switch cmd.Kind {
	case keymap.CmdNextTrack:
		return m.playerRequest("", player.Do(player.NextTrack))
	case keymap.CmdPreviousTrack:
		return m.playerRequest("", player.Do(player.PreviousTrack))
	case keymap.CmdResumePause:
		return m.playerRequest("", player.Do(player.ResumePause))
	case keymap.CmdPlayRandom:
		return m.playRandom()
	case keymap.CmdRepeat:
		return m.playerRequest("", player.Do(player.Repeat))
	case keymap.CmdShuffle:
		return m.playerRequest("", player.Do(player.Shuffle))
	case keymap.CmdVolumeChange:
		return m.playerRequest("", player.ChangeVolume(cmd.Offset))
	case keymap.CmdMute:
		return m.playerRequest("", player.Do(player.ToggleMute))
	case keymap.CmdSeekForward:
		return m.playerRequest("", player.SeekBy(seek))
	case keymap.CmdSeekBackward:
		return m.playerRequest("", player.SeekBy(-seek))
	case keymap.CmdRefreshPlayback:
		return m.refreshPlayback()

	case keymap.CmdQuit:
		return tea.Quit

	case keymap.CmdClosePopup:
		if w := p.current(); w != nil && w.filter != "" {
			w.applyFilter("")
		}
	case keymap.CmdChooseSelected:
		return m.choose()
	case keymap.CmdJumpToCurrentTrackInContext:
		if w, st := p.trackWindow(), m.player.State(); w != nil && st != nil {
			if i := w.indexOf(st.ItemID()); i >= 0 {
				p.focus = 0
				w.selectIndex(i)
				m.layout(p)
			}
		}
	case keymap.CmdFocusNextWindow:
		p.cycle(1)
		m.layout(p)
	case keymap.CmdFocusPreviousWindow:
		p.cycle(-1)
		m.layout(p)

	case keymap.CmdSwitchTheme:
		m.openThemePopup()
	case keymap.CmdSwitchDevice:
		return m.loadDevices()
	case keymap.CmdSearch:
		if p.kind == searchPage {
			p.editing = true
			return p.input.Focus()
		}
		m.openFilterPopup()
	case keymap.CmdCreatePlaylist:
		m.openCreatePlaylistPopup()

	case keymap.CmdShowActionsOnSelectedItem:
		if e, ok := m.selected(); ok && !e.item.ID().IsZero() {
			m.openActionsPopup(e.item, true)
		}
	case keymap.CmdShowActionsOnCurrentTrack:
		if st := m.player.State(); st != nil && st.Track != nil {
			t := *st.Track
			m.openActionsPopup(keymap.Item{Track: &t}, false)
		}
	case keymap.CmdAddSelectedItemToQueue:
		if e, ok := m.selected(); ok && !e.item.ID().IsZero() {
			return m.addToQueue(e.item)
		}

	case keymap.CmdBrowseUserPlaylists:
		if m.data != nil {
			m.openItemsPopup("User Playlists", playlistColumns, playlistEntries(m.data.Playlists), false)
		}
	case keymap.CmdBrowseUserFollowedArtists:
		if m.data != nil {
			m.openItemsPopup("Followed Artists", artistColumns, artistEntries(m.data.FollowedArtists), false)
		}
	case keymap.CmdBrowseUserSavedAlbums:
		if m.data != nil {
			m.openItemsPopup("Saved Albums", albumColumns, albumEntries(m.data.SavedAlbums), false)
		}

	case keymap.CmdOpenCommandHelp:
		m.push(m.newCommandHelpPage())
	case keymap.CmdQueue:
		m.push(m.newQueuePage())
		return m.loadQueue()
	case keymap.CmdCurrentlyPlayingContextPage:
		st := m.player.State()
		if st == nil || st.Context.IsZero() {
			m.status = "no playing context"
			return nil
		}
		m.push(m.newContextPage(st.Context))
		return m.loadContext(st.Context)
	case keymap.CmdTopTrackPage:
		m.push(m.newTracksPage(topKey, "Top Tracks"))
		return m.loadTracks(topKey, "Top Tracks", func() ([]models.Track, error) { return m.client.TopTracks(m.ctx) })
	case keymap.CmdRecentlyPlayedTrackPage:
		m.push(m.newTracksPage(recentKey, "Recently Played"))
		return m.loadTracks(recentKey, "Recently Played", func() ([]models.Track, error) { return m.client.RecentlyPlayed(m.ctx) })
	case keymap.CmdLikedTrackPage:
		m.push(m.newTracksPage(likedKey, "Liked Tracks"))
		return m.loadTracks(likedKey, "Liked Tracks", func() ([]models.Track, error) { return m.client.SavedTracks(m.ctx) })
	case keymap.CmdLyricsPage:
		st := m.player.State()
		if !m.config.EnableLyrics || m.lyrics == nil || st == nil || st.Track == nil {
			m.status = "lyrics are not available"
			return nil
		}
		m.push(m.newLyricsPage(*st.Track))
		return m.loadLyrics(*st.Track)
	case keymap.CmdLibraryPage:
		m.push(m.newLibraryPage())
	case keymap.CmdSearchPage:
		m.push(m.newSearchPage())
		return textinput.Blink
	case keymap.CmdBrowsePage:
		m.push(m.newBrowsePage(nil))
		return m.loadCategories()
	case keymap.CmdPreviousPage:
		if m.history.pop() {
			m.populate(m.history.current())
		}
	case keymap.CmdOpenSpotifyLinkFromClipboard:
		return m.openLink()

	case keymap.CmdSortTrackByTitle:
		m.sortTracks(models.OrderTrackName)
	case keymap.CmdSortTrackByArtists:
		m.sortTracks(models.OrderArtists)
	case keymap.CmdSortTrackByAlbum:
		m.sortTracks(models.OrderAlbum)
	case keymap.CmdSortTrackByDuration:
		m.sortTracks(models.OrderDuration)
	case keymap.CmdSortTrackByAddedDate:
		m.sortTracks(models.OrderAddedAt)
	case keymap.CmdReverseTrackOrder:
		if p.ctx != nil {
			p.ctx.ReverseTracks()
			m.populate(p)
		}
	case keymap.CmdMovePlaylistItemUp:
		return m.moveTrack(-1)
	case keymap.CmdMovePlaylistItemDown:
		return m.moveTrack(1)
	}
	return nil
}

func (m *Model) sortTracks(order models.TrackOrder) {
	p := m.history.current()
	if p.ctx == nil {
		return
	}
	p.ctx.SortTracks(order)
	m.populate(p)
}

// choose acts on the selected row of the current page.
func (m *Model) choose() tea.Cmd {
	p := m.history.current()
	w := p.current()
	if w == nil {
		return nil
	}
	e, ok := w.selected()
	if !ok {
		return nil
	}
	switch {
	case e.folder != nil:
		m.openFolder(p, e.folder)
		return nil
	case e.category != nil:
		c := *e.category
		m.push(m.newBrowsePage(&c))
		return m.loadCategoryPlaylists(c)
	case e.item.Track != nil:
		return m.playTrack(p, w, *e.item.Track)
	case !e.item.ID().IsZero():
		return m.open(e.item)
	}
	return nil
}

// View renders the playback bar, the current page or popup and the footer.
func (m *Model) View() string {
	playback := m.viewPlayback()

	var body string
	if m.popup != nil {
		body = lipgloss.Place(max(m.width, 20), max(m.height-playbackHeight-2, 5), lipgloss.Center, lipgloss.Center, m.viewPopup())
	} else {
		body = m.viewPage(m.history.current())
	}

	var footer string
	switch {
	case m.err != nil:
		footer = m.styles.err.Render("Error: " + m.err.Error())
	case m.status != "":
		footer = m.styles.help.Render(m.status)
	default:
		footer = m.help.View(helpKeys{config: m.keymap})
	}

	return m.styles.app.Render(lipgloss.JoinVertical(lipgloss.Left, playback, body, footer))
}
