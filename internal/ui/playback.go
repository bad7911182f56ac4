package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"

	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/shared"
	"github.com/desertthunder/spx/internal/theme"
)

// playbackHeight is the number of lines taken by the playback block.
const playbackHeight = 7

// playbackFields computes the values substituted into playback_format.
func playbackFields(st *models.PlaybackState, liked, muted bool, cfg *shared.Config) map[string]string {
	status := cfg.PauseIcon
	if st.IsPlaying {
		status = cfg.PlayIcon
	}

	var track, artists, album string
	switch {
	case st.Track != nil:
		track = st.Track.Name
		if liked && cfg.LikedIcon != "" {
			track += " " + cfg.LikedIcon
		}
		artists = st.Track.ArtistsInfo()
		album = st.Track.Album.Name
	case st.Episode != nil:
		track = st.Episode.Name
		if st.Episode.Show != nil {
			artists = st.Episode.Show.Publisher
			album = st.Episode.Show.Name
		}
	}

	volume := fmt.Sprintf("%d%%", st.Device.Volume)
	if muted {
		volume = "muted"
	}
	shuffle := "off"
	if st.Shuffle {
		shuffle = "on"
	}
	repeat := string(st.Repeat)
	if repeat == "" {
		repeat = string(models.RepeatOff)
	}

	return map[string]string{
		"status":   status,
		"track":    track,
		"artists":  artists,
		"album":    album,
		"metadata": fmt.Sprintf("repeat: %s | shuffle: %s | volume: %s | device: %s", repeat, shuffle, volume, st.Device.Name),
	}
}

// formatPlayback replaces each {name} in format with fields[name]. Unknown
// placeholders are kept.
func formatPlayback(format string, fields map[string]string) string {
	var b strings.Builder
	for {
		start := strings.IndexByte(format, '{')
		if start < 0 {
			break
		}
		end := strings.IndexByte(format[start:], '}')
		if end < 0 {
			break
		}
		end += start
		b.WriteString(format[:start])
		if v, ok := fields[format[start+1:end]]; ok {
			b.WriteString(v)
		} else {
			b.WriteString(format[start : end+1])
		}
		format = format[end+1:]
	}
	b.WriteString(format)
	return b.String()
}

func newProgressBar(t *theme.Theme) progress.Model {
	return progress.New(
		progress.WithSolidFill(string(t.Palette.Resolve(theme.ColorGreen))),
		progress.WithoutPercentage(),
	)
}

// progressLabel renders "elapsed/total".
func progressLabel(elapsed, total time.Duration) string {
	return shared.FormatDuration(elapsed) + "/" + shared.FormatDuration(total)
}

func (m *Model) viewPlayback() string {
	width := max(m.width, 20)
	st := m.player.State()
	if st == nil {
		return m.styles.block("Playback", "No playback found. Press D to connect to a device.", width, false)
	}

	liked := st.Track != nil && m.data.IsLikedTrack(*st.Track)
	fields := playbackFields(st, liked, m.player.Muted(), m.config)
	fields["status"] = m.styles.playing.Render(fields["status"])
	fields["track"] = m.styles.track.Render(fields["track"])
	fields["artists"] = m.styles.artists.Render(fields["artists"])
	fields["album"] = m.styles.album.Render(fields["album"])
	fields["metadata"] = m.styles.metadata.Render(fields["metadata"])
	text := formatPlayback(m.config.PlaybackFormat, fields)

	elapsed, total := m.player.Progress(), st.Duration()
	ratio := 0.0
	if total > 0 {
		ratio = float64(elapsed) / float64(total)
	}
	label := progressLabel(elapsed, total)
	m.progress.Width = max(width-len(label)-6, 10)
	bar := m.progress.ViewAs(ratio) + " " + m.styles.progress.Render(label)

	return m.styles.block("Playback", text+"\n"+bar, width, false)
}
