package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/desertthunder/spx/internal/models"
)

type playbackResponse struct {
	Device               SpotifyDevice   `json:"device"`
	RepeatState          string          `json:"repeat_state"`
	ShuffleState         bool            `json:"shuffle_state"`
	IsPlaying            bool            `json:"is_playing"`
	ProgressMS           *int            `json:"progress_ms"`
	CurrentlyPlayingType string          `json:"currently_playing_type"`
	Item                 json.RawMessage `json:"item"`
	Context              *struct {
		URI string `json:"uri"`
	} `json:"context"`
}

// CurrentPlayback returns the user's playback, or nil when nothing is playing anywhere.
func (c *SpotifyClient) CurrentPlayback(ctx context.Context) (*models.PlaybackState, error) {
	var raw json.RawMessage
	if err := c.doRequest(ctx, http.MethodGet, "/me/player?additional_types=episode", nil, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}

	var resp playbackResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode playback: %w", err)
	}

	state := &models.PlaybackState{
		Device:    resp.Device.Model(),
		IsPlaying: resp.IsPlaying,
		Repeat:    models.RepeatState(resp.RepeatState),
		Shuffle:   resp.ShuffleState,
		FetchedAt: time.Now(),
	}
	if state.Repeat == "" {
		state.Repeat = models.RepeatOff
	}
	if resp.ProgressMS != nil {
		state.Progress = time.Duration(*resp.ProgressMS) * time.Millisecond
	}
	if resp.Context != nil {
		if id, err := models.ParseURI(resp.Context.URI); err == nil {
			state.Context = id
		}
	}

	if len(resp.Item) > 0 && string(resp.Item) != "null" {
		switch resp.CurrentlyPlayingType {
		case "episode":
			var ep SpotifyEpisode
			if err := json.Unmarshal(resp.Item, &ep); err != nil {
				return nil, fmt.Errorf("failed to decode episode: %w", err)
			}
			m := ep.Model()
			state.Episode = &m
		default:
			var tr SpotifyTrack
			if err := json.Unmarshal(resp.Item, &tr); err != nil {
				return nil, fmt.Errorf("failed to decode track: %w", err)
			}
			m := tr.Model()
			state.Track = &m
		}
	}
	return state, nil
}

// Devices lists the user's available Spotify Connect devices.
func (c *SpotifyClient) Devices(ctx context.Context) ([]models.Device, error) {
	var resp struct {
		Devices []SpotifyDevice `json:"devices"`
	}
	if err := c.doRequest(ctx, http.MethodGet, "/me/player/devices", nil, &resp); err != nil {
		return nil, err
	}

	devices := make([]models.Device, 0, len(resp.Devices))
	for _, d := range resp.Devices {
		devices = append(devices, d.Model())
	}
	return devices, nil
}

// Queue returns the current item and upcoming tracks.
func (c *SpotifyClient) Queue(ctx context.Context) (*models.Queue, error) {
	var resp struct {
		CurrentlyPlaying *SpotifyTrack  `json:"currently_playing"`
		Queue            []SpotifyTrack `json:"queue"`
	}
	if err := c.doRequest(ctx, http.MethodGet, "/me/player/queue", nil, &resp); err != nil {
		return nil, err
	}

	q := &models.Queue{Queue: make([]models.Track, 0, len(resp.Queue))}
	if resp.CurrentlyPlaying != nil {
		t := resp.CurrentlyPlaying.Model()
		q.CurrentlyPlaying = &t
	}
	for _, t := range resp.Queue {
		q.Queue = append(q.Queue, t.Model())
	}
	return q, nil
}

func playerEndpoint(path, deviceID string, params url.Values) string {
	if params == nil {
		params = url.Values{}
	}
	if deviceID != "" {
		params.Set("device_id", deviceID)
	}
	if len(params) == 0 {
		return path
	}
	return path + "?" + params.Encode()
}

// Resume resumes the current playback.
func (c *SpotifyClient) Resume(ctx context.Context, deviceID string) error {
	return c.doRequest(ctx, http.MethodPut, playerEndpoint("/me/player/play", deviceID, nil), nil, nil)
}

// Pause pauses the current playback.
func (c *SpotifyClient) Pause(ctx context.Context, deviceID string) error {
	return c.doRequest(ctx, http.MethodPut, playerEndpoint("/me/player/pause", deviceID, nil), nil, nil)
}

func (c *SpotifyClient) NextTrack(ctx context.Context, deviceID string) error {
	return c.doRequest(ctx, http.MethodPost, playerEndpoint("/me/player/next", deviceID, nil), nil, nil)
}

func (c *SpotifyClient) PreviousTrack(ctx context.Context, deviceID string) error {
	return c.doRequest(ctx, http.MethodPost, playerEndpoint("/me/player/previous", deviceID, nil), nil, nil)
}

// Seek moves playback to position. Negative positions seek to the start.
func (c *SpotifyClient) Seek(ctx context.Context, deviceID string, position time.Duration) error {
	position = max(position, 0)
	params := url.Values{"position_ms": {strconv.FormatInt(position.Milliseconds(), 10)}}
	return c.doRequest(ctx, http.MethodPut, playerEndpoint("/me/player/seek", deviceID, params), nil, nil)
}

func (c *SpotifyClient) SetRepeat(ctx context.Context, deviceID string, state models.RepeatState) error {
	params := url.Values{"state": {string(state)}}
	return c.doRequest(ctx, http.MethodPut, playerEndpoint("/me/player/repeat", deviceID, params), nil, nil)
}

func (c *SpotifyClient) SetShuffle(ctx context.Context, deviceID string, state bool) error {
	params := url.Values{"state": {strconv.FormatBool(state)}}
	return c.doRequest(ctx, http.MethodPut, playerEndpoint("/me/player/shuffle", deviceID, params), nil, nil)
}

// SetVolume sets the device volume, clamped to 0..100.
func (c *SpotifyClient) SetVolume(ctx context.Context, deviceID string, percent int) error {
	percent = min(max(percent, 0), 100)
	params := url.Values{"volume_percent": {strconv.Itoa(percent)}}
	return c.doRequest(ctx, http.MethodPut, playerEndpoint("/me/player/volume", deviceID, params), nil, nil)
}

// TransferPlayback moves playback to deviceID, starting it when play is set.
func (c *SpotifyClient) TransferPlayback(ctx context.Context, deviceID string, play bool) error {
	body := map[string]any{"device_ids": []string{deviceID}, "play": play}
	return c.doRequest(ctx, http.MethodPut, "/me/player", body, nil)
}

type startPlaybackBody struct {
	ContextURI string   `json:"context_uri,omitempty"`
	URIs       []string `json:"uris,omitempty"`
	Offset     *struct {
		URI string `json:"uri"`
	} `json:"offset,omitempty"`
}

// StartPlayback starts a context or a list of items on deviceID.
func (c *SpotifyClient) StartPlayback(ctx context.Context, deviceID string, p models.Playback) error {
	if err := p.Validate(); err != nil {
		return err
	}

	var body startPlaybackBody
	if !p.Context.IsZero() {
		body.ContextURI = p.Context.URI()
	}
	for _, id := range p.URIs {
		body.URIs = append(body.URIs, id.URI())
	}
	if p.Offset != nil {
		body.Offset = &struct {
			URI string `json:"uri"`
		}{URI: p.Offset.URI()}
	}
	return c.doRequest(ctx, http.MethodPut, playerEndpoint("/me/player/play", deviceID, nil), body, nil)
}

// AddToQueue appends a track or episode to the queue.
func (c *SpotifyClient) AddToQueue(ctx context.Context, deviceID string, id models.ID) error {
	params := url.Values{"uri": {id.URI()}}
	return c.doRequest(ctx, http.MethodPost, playerEndpoint("/me/player/queue", deviceID, params), nil, nil)
}
