package formatter

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/shared"
)

// Now is the reference time for relative "added" columns.
var Now = time.Now

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// maxCellLen bounds free-text cells so rows fit a terminal.
const maxCellLen = 40

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := range columns {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

func cell(s string) string {
	return shared.Truncate(s, maxCellLen)
}

// AddedAgo renders t relative to [Now], or "" for the zero time.
func AddedAgo(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return humanize.RelTime(t, Now(), "ago", "from now")
}

// PlaylistsTable renders playlists with owner, size and visibility.
func PlaylistsTable(playlists []models.Playlist) string {
	rows := make([][]string, 0, len(playlists))
	for i, p := range playlists {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			cell(p.Name),
			cell(p.Owner),
			strconv.Itoa(p.TrackCount),
			shared.VisibilityString(p.Public),
			p.ID.ID,
		})
	}
	return renderTable(
		[]string{"#", "Name", "Owner", "Tracks", "Visibility", "ID"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight},
	)
}

// DevicesTable renders devices, marking the active one.
func DevicesTable(devices []models.Device) string {
	rows := make([][]string, 0, len(devices))
	for _, d := range devices {
		active := ""
		if d.IsActive {
			active = "●"
		}
		rows = append(rows, []string{active, cell(d.Name), d.Type, fmt.Sprintf("%d%%", d.Volume), d.ID})
	}
	return renderTable(
		[]string{"", "Name", "Type", "Volume", "ID"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
	)
}

// TracksTable renders tracks with duration and when they were added.
func TracksTable(tracks []models.Track) string {
	rows := make([][]string, 0, len(tracks))
	for i, t := range tracks {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			cell(t.Name),
			cell(t.ArtistsInfo()),
			cell(t.Album.Name),
			shared.FormatDuration(t.Duration),
			AddedAgo(t.AddedAt),
		})
	}
	return renderTable(
		[]string{"#", "Title", "Artists", "Album", "Duration", "Added"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight},
	)
}

// AlbumsTable renders albums with their release year.
func AlbumsTable(albums []models.Album) string {
	rows := make([][]string, 0, len(albums))
	for i, a := range albums {
		rows = append(rows, []string{strconv.Itoa(i + 1), cell(a.Name), cell(models.ArtistNames(a.Artists)), a.Year(), a.ID.ID})
	}
	return renderTable([]string{"#", "Name", "Artists", "Year", "ID"}, rows, []columnAlignment{alignRight})
}

// ArtistsTable renders artists with follower counts.
func ArtistsTable(artists []models.Artist) string {
	rows := make([][]string, 0, len(artists))
	for i, a := range artists {
		followers := ""
		if a.Followers > 0 {
			followers = humanize.Comma(int64(a.Followers))
		}
		rows = append(rows, []string{strconv.Itoa(i + 1), cell(a.Name), followers, a.ID.ID})
	}
	return renderTable(
		[]string{"#", "Name", "Followers", "ID"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight},
	)
}

// PlaybackTable renders a playback snapshot as key/value rows.
func PlaybackTable(p *models.PlaybackState) string {
	if p == nil {
		return "No playback found!\n"
	}

	item := ""
	switch {
	case p.Track != nil:
		item = p.Track.Display()
	case p.Episode != nil:
		item = p.Episode.Name
	}
	status := "Paused"
	if p.IsPlaying {
		status = "Playing"
	}

	rows := [][]string{
		{"Item", item},
		{"Status", status},
		{"Progress", fmt.Sprintf("%s / %s", shared.FormatDuration(p.Progress), shared.FormatDuration(p.Duration()))},
		{"Device", fmt.Sprintf("%s (%d%%)", p.Device.Name, p.Device.Volume)},
		{"Repeat", string(p.Repeat)},
		{"Shuffle", strconv.FormatBool(p.Shuffle)},
	}
	if uri := p.Context.URI(); uri != "" {
		rows = append(rows, []string{"Context", uri})
	}
	return renderTable([]string{"Field", "Value"}, rows, nil)
}

// SearchTable renders every non-empty result group of a search.
func SearchTable(res *models.SearchResults) string {
	var out string
	if len(res.Tracks) > 0 {
		out += "Tracks\n" + TracksTable(res.Tracks) + "\n"
	}
	if len(res.Artists) > 0 {
		out += "Artists\n" + ArtistsTable(res.Artists) + "\n"
	}
	if len(res.Albums) > 0 {
		out += "Albums\n" + AlbumsTable(res.Albums) + "\n"
	}
	if len(res.Playlists) > 0 {
		out += "Playlists\n" + PlaylistsTable(res.Playlists) + "\n"
	}
	if out == "" {
		return "No results\n"
	}
	return out
}
