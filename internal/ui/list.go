package ui

import (
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	"github.com/dustin/go-humanize"
	"github.com/sahilm/fuzzy"

	"github.com/desertthunder/spx/internal/folders"
	"github.com/desertthunder/spx/internal/keymap"
	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/shared"
)

// entry is one row of a window together with what it refers to.
type entry struct {
	item     keymap.Item
	folder   *folders.Folder
	category *models.Category
	cols     []string
}

func (e entry) filterValue() string {
	if len(e.cols) == 0 {
		return ""
	}
	if e.item.Track != nil {
		return e.item.Track.Name + " " + e.item.Track.ArtistsInfo() + " " + e.item.Track.Album.Name
	}
	return e.cols[0]
}

// window is a focusable table. entries mirror the visible rows; all holds the
// rows before filtering.
type window struct {
	title   string
	columns []table.Column
	all     []entry
	entries []entry
	filter  string
	table   table.Model
}

func newWindow(title string, columns []table.Column, entries []entry, st styles) *window {
	w := &window{title: title, columns: columns}
	w.table = table.New(
		table.WithColumns(columns),
		table.WithStyles(st.tableView),
		table.WithHeight(10),
	)
	w.setEntries(entries)
	return w
}

func (w *window) setEntries(entries []entry) {
	w.all = entries
	w.applyFilter(w.filter)
}

// applyFilter keeps entries fuzzy matching query, best matches first. An empty
// query restores every entry in its original order.
func (w *window) applyFilter(query string) {
	w.filter = query
	if query == "" {
		w.entries = w.all
	} else {
		values := make([]string, len(w.all))
		for i, e := range w.all {
			values[i] = e.filterValue()
		}
		matches := fuzzy.Find(query, values)
		w.entries = make([]entry, 0, len(matches))
		for _, m := range matches {
			w.entries = append(w.entries, w.all[m.Index])
		}
	}

	rows := make([]table.Row, len(w.entries))
	for i, e := range w.entries {
		rows[i] = table.Row(e.cols)
	}
	w.table.SetRows(rows)
	if w.table.Cursor() >= len(rows) {
		w.table.SetCursor(max(len(rows)-1, 0))
	}
}

func (w *window) selected() (entry, bool) {
	i := w.table.Cursor()
	if i < 0 || i >= len(w.entries) {
		return entry{}, false
	}
	return w.entries[i], true
}

func (w *window) selectIndex(i int) {
	if i >= 0 && i < len(w.entries) {
		w.table.SetCursor(i)
	}
}

// indexOf returns the visible row of the item with id, or -1.
func (w *window) indexOf(id models.ID) int {
	for i, e := range w.entries {
		if e.item.ID() == id {
			return i
		}
	}
	return -1
}

func (w *window) resize(width, height int) {
	w.table.SetWidth(width)
	w.table.SetHeight(max(height, 3))
}

func col(title string, width int) table.Column {
	return table.Column{Title: title, Width: width}
}

var (
	trackColumns = []table.Column{
		col("#", 4), col("Title", 32), col("Artists", 28), col("Album", 28), col("Duration", 8), col("Added", 14),
	}
	albumColumns    = []table.Column{col("Album", 36), col("Artists", 28), col("Year", 6)}
	artistColumns   = []table.Column{col("Artist", 36), col("Followers", 12)}
	playlistColumns = []table.Column{col("Playlist", 36), col("Owner", 20), col("Tracks", 8)}
	nameColumns     = []table.Column{col("Name", 48)}
)

// trackEntries builds track rows. current marks the playing track; liked marks
// tracks in the user's library.
func trackEntries(tracks []models.Track, maxLen int, current models.ID, data *models.UserData, likedIcon string) []entry {
	out := make([]entry, 0, len(tracks))
	for i, t := range tracks {
		t := t
		num := strconv.Itoa(i + 1)
		if !current.IsZero() && t.ID == current {
			num = "▶"
		}
		name := t.Name
		if data.IsLikedTrack(t) && likedIcon != "" {
			name = likedIcon + " " + name
		}
		added := ""
		if !t.AddedAt.IsZero() {
			added = humanize.Time(t.AddedAt)
		}
		out = append(out, entry{
			item: keymap.Item{Track: &t},
			cols: []string{
				num,
				shared.Truncate(name, maxLen),
				shared.Truncate(t.ArtistsInfo(), maxLen),
				shared.Truncate(t.Album.Name, maxLen),
				shared.FormatDuration(t.Duration),
				added,
			},
		})
	}
	return out
}

func albumEntries(albums []models.Album) []entry {
	out := make([]entry, 0, len(albums))
	for _, a := range albums {
		a := a
		out = append(out, entry{
			item: keymap.Item{Album: &a},
			cols: []string{a.Name, models.ArtistNames(a.Artists), a.Year()},
		})
	}
	return out
}

func artistEntries(artists []models.Artist) []entry {
	out := make([]entry, 0, len(artists))
	for _, a := range artists {
		a := a
		followers := ""
		if a.Followers > 0 {
			followers = humanize.Comma(int64(a.Followers))
		}
		out = append(out, entry{item: keymap.Item{Artist: &a}, cols: []string{a.Name, followers}})
	}
	return out
}

func playlistEntries(playlists []models.Playlist) []entry {
	out := make([]entry, 0, len(playlists))
	for _, p := range playlists {
		p := p
		out = append(out, entry{
			item: keymap.Item{Playlist: &p},
			cols: []string{p.Name, p.Owner, strconv.Itoa(p.TrackCount)},
		})
	}
	return out
}

// folderEntries lists the playlists and sub folders of one folder.
func folderEntries(items []folders.Item, folderID int) []entry {
	visible := folders.InFolder(items, folderID)
	out := make([]entry, 0, len(visible))
	for _, it := range visible {
		if it.Folder != nil {
			f := *it.Folder
			out = append(out, entry{folder: &f, cols: []string{it.String(), "", ""}})
			continue
		}
		p := *it.Playlist
		out = append(out, entry{
			item: keymap.Item{Playlist: &p},
			cols: []string{p.Name, p.Owner, strconv.Itoa(p.TrackCount)},
		})
	}
	return out
}

func categoryEntries(categories []models.Category) []entry {
	out := make([]entry, 0, len(categories))
	for _, c := range categories {
		c := c
		out = append(out, entry{category: &c, cols: []string{c.Name}})
	}
	return out
}
