package ui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/desertthunder/spx/internal/theme"
)

// styles is the stylesheet derived from the active theme.
type styles struct {
	app       lipgloss.Style
	title     lipgloss.Style
	border    lipgloss.Style
	focused   lipgloss.Style
	track     lipgloss.Style
	artists   lipgloss.Style
	album     lipgloss.Style
	metadata  lipgloss.Style
	playing   lipgloss.Style
	desc      lipgloss.Style
	like      lipgloss.Style
	progress  lipgloss.Style
	err       lipgloss.Style
	help      lipgloss.Style
	tableView table.Styles
}

func newStyles(t *theme.Theme) styles {
	border := t.Style(theme.Border).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(t.Palette.Resolve(theme.ColorBrightBlack))

	ts := table.DefaultStyles()
	ts.Header = t.Style(theme.TableHeader).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		Bold(true)
	ts.Selected = t.Style(theme.Selection)
	ts.Cell = lipgloss.NewStyle().Padding(0, 1)

	return styles{
		app:       t.App(),
		title:     t.Style(theme.BlockTitle),
		border:    border,
		focused:   border.BorderForeground(t.Palette.Resolve(theme.ColorMagenta)),
		track:     t.Style(theme.PlaybackTrack),
		artists:   t.Style(theme.PlaybackArtists),
		album:     t.Style(theme.PlaybackAlbum),
		metadata:  t.Style(theme.PlaybackMetadata),
		playing:   t.Style(theme.CurrentPlaying),
		desc:      t.Style(theme.PageDesc),
		like:      t.Style(theme.Like),
		progress:  t.Style(theme.PlaybackProgressBar),
		err:       lipgloss.NewStyle().Foreground(t.Palette.Resolve(theme.ColorRed)).Bold(true),
		help:      lipgloss.NewStyle().Foreground(t.Palette.Resolve(theme.ColorBrightBlack)).Italic(true),
		tableView: ts,
	}
}

// block draws s inside a titled border.
func (s styles) block(title, body string, width int, focused bool) string {
	style := s.border
	if focused {
		style = s.focused
	}
	if width > 2 {
		style = style.Width(width - 2)
	}
	if title != "" {
		body = s.title.Render(title) + "\n" + body
	}
	return style.Render(body)
}
