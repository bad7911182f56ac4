package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/desertthunder/spx/internal/keymap"
	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/services"
)

type popupKind int

const (
	noPopup popupKind = iota
	devicePopup
	themePopup
	actionsPopup
	addToPlaylistPopup
	itemsPopup
	filterPopup
	createPlaylistPopup
)

// popup is a modal drawn over the page. List popups select by row index, so
// their rows are never filtered.
type popup struct {
	kind  popupKind
	title string
	list  *window

	devices []models.Device
	themes  []string
	actions []keymap.ActionKind
	target  keymap.Item

	// itemsPopup: open the actions popup instead of the item's page
	forActions bool

	input  textinput.Model
	fields []textinput.Model
	field  int
}

func (p *popup) isInput() bool {
	return p.kind == filterPopup || p.kind == createPlaylistPopup
}

func (m *Model) openListPopup(kind popupKind, title string, columns []table.Column, entries []entry) *popup {
	p := &popup{kind: kind, title: title, list: newWindow(title, columns, entries, m.styles)}
	p.list.resize(max(m.width/2, 30), min(max(len(entries)+1, 3), max(m.height/2, 5)))
	p.list.table.Focus()
	m.popup = p
	return p
}

func (m *Model) openDevicePopup(devices []models.Device) {
	entries := make([]entry, len(devices))
	for i, d := range devices {
		name := d.Name
		if d.IsActive {
			name = "▶ " + name
		}
		entries[i] = entry{cols: []string{name, d.Type}}
	}
	p := m.openListPopup(devicePopup, "Devices", []table.Column{col("Device", 32), col("Type", 14)}, entries)
	p.devices = devices
}

func (m *Model) openThemePopup() {
	names := m.themes.Names()
	entries := make([]entry, len(names))
	for i, n := range names {
		if n == m.themeName {
			n = "▶ " + n
		}
		entries[i] = entry{cols: []string{n}}
	}
	p := m.openListPopup(themePopup, "Themes", nameColumns, entries)
	p.themes = names
}

// openActionsPopup lists the actions for item. Tracks shown on a playlist the
// user can edit also get DeleteFromPlaylist.
func (m *Model) openActionsPopup(item keymap.Item, onPage bool) {
	actions := keymap.AvailableActions(item, m.data)
	if onPage && item.Track != nil {
		if pl := m.editablePlaylist(); pl != nil {
			actions = append(actions, keymap.ActDeleteFromPlaylist)
		}
	}
	entries := make([]entry, len(actions))
	for i, a := range actions {
		entries[i] = entry{cols: []string{a.Label()}}
	}
	p := m.openListPopup(actionsPopup, "Actions", nameColumns, entries)
	p.actions = actions
	p.target = item
}

func (m *Model) openAddToPlaylistPopup(item keymap.Item) {
	p := m.openListPopup(addToPlaylistPopup, "Add to playlist", playlistColumns, playlistEntries(m.data.ModifiablePlaylists()))
	p.target = item
}

func (m *Model) openItemsPopup(title string, columns []table.Column, entries []entry, forActions bool) {
	p := m.openListPopup(itemsPopup, title, columns, entries)
	p.forActions = forActions
}

func (m *Model) openFilterPopup() {
	w := m.history.current().current()
	if w == nil {
		return
	}
	input := textinput.New()
	input.Prompt = "/ "
	input.SetValue(w.filter)
	input.Focus()
	m.popup = &popup{kind: filterPopup, title: "Search", input: input}
}

func (m *Model) openCreatePlaylistPopup() {
	name := textinput.New()
	name.Placeholder = "name"
	name.Focus()
	desc := textinput.New()
	desc.Placeholder = "description"
	m.popup = &popup{kind: createPlaylistPopup, title: "New playlist", fields: []textinput.Model{name, desc}}
}

// updateInputPopup forwards key presses to the popup's text inputs. esc and
// enter are handled here; everything else is typed.
func (m *Model) updateInputPopup(msg tea.KeyMsg) tea.Cmd {
	p := m.popup
	w := m.history.current().current()

	switch msg.Type {
	case tea.KeyEsc:
		if p.kind == filterPopup && w != nil {
			w.applyFilter("")
		}
		m.popup = nil
		return nil
	case tea.KeyEnter:
		if p.kind == filterPopup {
			m.popup = nil
			return nil
		}
		return m.submitCreatePlaylist()
	case tea.KeyTab:
		if p.kind == createPlaylistPopup {
			p.fields[p.field].Blur()
			p.field = (p.field + 1) % len(p.fields)
			return p.fields[p.field].Focus()
		}
	}

	var cmd tea.Cmd
	if p.kind == filterPopup {
		p.input, cmd = p.input.Update(msg)
		if w != nil {
			w.applyFilter(p.input.Value())
		}
		return cmd
	}
	p.fields[p.field], cmd = p.fields[p.field].Update(msg)
	return cmd
}

func (m *Model) submitCreatePlaylist() tea.Cmd {
	p := m.popup
	name := strings.TrimSpace(p.fields[0].Value())
	if name == "" {
		m.status = "playlist name is required"
		return nil
	}
	m.popup = nil
	req := services.NewPlaylist{Name: name, Description: strings.TrimSpace(p.fields[1].Value())}
	return func() tea.Msg {
		user := ""
		if m.data != nil && m.data.User != nil {
			user = m.data.User.ID
		} else {
			u, err := m.client.CurrentUser(m.ctx)
			if err != nil {
				return statusMsg{err: err}
			}
			user = u.ID
		}
		pl, err := m.client.CreatePlaylist(m.ctx, user, req)
		if err != nil {
			return statusMsg{err: err}
		}
		return statusMsg{
			text: "created playlist " + pl.Name,
			apply: func(m *Model) {
				if m.data != nil {
					m.data.Playlists = append([]models.Playlist{*pl}, m.data.Playlists...)
					m.restructure()
				}
			},
		}
	}
}

// choosePopup acts on the selected popup row.
func (m *Model) choosePopup() tea.Cmd {
	p := m.popup
	i := p.list.table.Cursor()
	switch p.kind {
	case devicePopup:
		if i >= len(p.devices) {
			return nil
		}
		m.popup = nil
		d := p.devices[i]
		return m.playerRequest("connected to "+d.Name, transferRequest(d.ID))

	case themePopup:
		if i >= len(p.themes) {
			return nil
		}
		m.popup = nil
		m.setTheme(p.themes[i])
		return nil

	case actionsPopup:
		if i >= len(p.actions) {
			return nil
		}
		m.popup = nil
		return m.handleAction(p.actions[i], p.target)

	case addToPlaylistPopup:
		e, ok := p.list.selected()
		if !ok || e.item.Playlist == nil {
			return nil
		}
		m.popup = nil
		return m.addToPlaylist(*e.item.Playlist, p.target)

	case itemsPopup:
		e, ok := p.list.selected()
		if !ok {
			return nil
		}
		m.popup = nil
		if p.forActions {
			m.openActionsPopup(e.item, false)
			return nil
		}
		return m.open(e.item)
	}
	return nil
}

func (m *Model) viewPopup() string {
	p := m.popup
	width := max(m.width/2, 30)
	switch p.kind {
	case filterPopup:
		return m.styles.block(p.title, p.input.View(), width, true)
	case createPlaylistPopup:
		rows := make([]string, len(p.fields))
		for i, f := range p.fields {
			rows[i] = f.View()
		}
		return m.styles.block(p.title, lipgloss.JoinVertical(lipgloss.Left, rows...), width, true)
	default:
		return m.styles.block(p.title, p.list.table.View(), width, true)
	}
}
