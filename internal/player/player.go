// package player controls Spotify Connect playback and keeps the last known
// playback state for the UI and the CLI socket.
package player

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/services"
	"github.com/desertthunder/spx/internal/shared"
)

// Command is a playback control.
type Command int

const (
	NextTrack Command = iota
	PreviousTrack
	Resume
	Pause
	ResumePause
	SeekTrack
	SeekRelative
	Repeat
	Shuffle
	Volume
	VolumeChange
	ToggleMute
	TransferPlayback
	StartPlayback
)

func (c Command) String() string {
	switch c {
	case NextTrack:
		return "next_track"
	case PreviousTrack:
		return "previous_track"
	case Resume:
		return "resume"
	case Pause:
		return "pause"
	case ResumePause:
		return "resume_pause"
	case SeekTrack:
		return "seek_track"
	case SeekRelative:
		return "seek_relative"
	case Repeat:
		return "repeat"
	case Shuffle:
		return "shuffle"
	case Volume:
		return "volume"
	case VolumeChange:
		return "volume_change"
	case ToggleMute:
		return "toggle_mute"
	case TransferPlayback:
		return "transfer_playback"
	case StartPlayback:
		return "start_playback"
	default:
		return ""
	}
}

// Request is a playback control with its arguments. Only the fields used by
// Command are read.
type Request struct {
	Command Command

	Position time.Duration // SeekTrack: absolute; SeekRelative: offset
	Volume   int           // Volume: absolute percent; VolumeChange: offset
	DeviceID string        // TransferPlayback
	Play     bool          // TransferPlayback: start playing on the new device
	Playback models.Playback
	Shuffle  *bool // StartPlayback: overrides the current shuffle state
}

func Do(c Command) Request { return Request{Command: c} }

func Seek(position time.Duration) Request {
	return Request{Command: SeekTrack, Position: position}
}

func SeekBy(offset time.Duration) Request {
	return Request{Command: SeekRelative, Position: offset}
}

func SetVolume(percent int) Request {
	return Request{Command: Volume, Volume: percent}
}

func ChangeVolume(offset int) Request {
	return Request{Command: VolumeChange, Volume: offset}
}

func Transfer(deviceID string, play bool) Request {
	return Request{Command: TransferPlayback, DeviceID: deviceID, Play: play}
}

func Start(p models.Playback, shuffle *bool) Request {
	return Request{Command: StartPlayback, Playback: p, Shuffle: shuffle}
}

// Player issues playback requests and tracks the resulting state.
//
// State is updated optimistically after each successful request so that the UI
// reflects a change before the next [Player.Refresh].
type Player struct {
	client services.Client
	logger *log.Logger
	now    func() time.Time

	mu    sync.RWMutex
	state *models.PlaybackState
	muted *int // volume to restore on unmute
}

// New creates a player without playback state; call [Player.Refresh] to load it.
func New(client services.Client, logger *log.Logger) *Player {
	if logger == nil {
		logger = log.Default()
	}
	return &Player{client: client, logger: logger, now: time.Now}
}

// State returns a copy of the last known playback, or nil.
func (p *Player) State() *models.PlaybackState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.state == nil {
		return nil
	}
	s := *p.state
	return &s
}

// Muted reports whether [ToggleMute] silenced the device.
func (p *Player) Muted() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.muted != nil
}

// Progress extrapolates the current position of the playing item.
func (p *Player) Progress() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.state == nil {
		return 0
	}
	return p.state.ProgressAt(p.now())
}

// Refresh fetches the current playback. A nil state means nothing is playing.
func (p *Player) Refresh(ctx context.Context) (*models.PlaybackState, error) {
	state, err := p.client.CurrentPlayback(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get playback: %w", err)
	}

	p.mu.Lock()
	if state != nil {
		state.FetchedAt = p.now()
	}
	p.state = state
	p.mu.Unlock()

	return p.State(), nil
}

// Handle runs req against the active device.
//
// TransferPlayback and StartPlayback work without an active playback; every other
// command fails with [shared.ErrNoPlayback] when nothing is playing.
func (p *Player) Handle(ctx context.Context, req Request) error {
	p.logger.Debug("handling player request", "command", req.Command)

	switch req.Command {
	case TransferPlayback:
		if err := p.client.TransferPlayback(ctx, req.DeviceID, req.Play); err != nil {
			return err
		}
		p.logger.Info("transferred playback", "device", req.DeviceID)
		return nil
	case StartPlayback:
		return p.start(ctx, req)
	}

	p.mu.RLock()
	if p.state == nil {
		p.mu.RUnlock()
		return shared.ErrNoPlayback
	}
	state := *p.state
	var muted *int
	if p.muted != nil {
		v := *p.muted
		muted = &v
	}
	p.mu.RUnlock()

	apply, err := p.send(ctx, req, state, muted)
	if err != nil || apply == nil {
		return err
	}

	p.mu.Lock()
	if p.state != nil {
		apply(p.state)
	}
	p.mu.Unlock()
	return nil
}

// send issues req against a snapshot of the playback. It runs without p.mu so
// that readers are not blocked by the request. The returned func updates the
// cached state and is called with p.mu held.
func (p *Player) send(ctx context.Context, req Request, state models.PlaybackState, muted *int) (func(*models.PlaybackState), error) {
	device := state.Device.ID

	switch req.Command {
	case NextTrack:
		return nil, p.client.NextTrack(ctx, device)
	case PreviousTrack:
		return nil, p.client.PreviousTrack(ctx, device)
	case Resume:
		if state.IsPlaying {
			return nil, nil
		}
		if err := p.client.Resume(ctx, device); err != nil {
			return nil, err
		}
		return p.setPlaying(true), nil
	case Pause:
		if !state.IsPlaying {
			return nil, nil
		}
		if err := p.client.Pause(ctx, device); err != nil {
			return nil, err
		}
		return p.setPlaying(false), nil
	case ResumePause:
		var err error
		if state.IsPlaying {
			err = p.client.Pause(ctx, device)
		} else {
			err = p.client.Resume(ctx, device)
		}
		if err != nil {
			return nil, err
		}
		return p.setPlaying(!state.IsPlaying), nil
	case SeekTrack, SeekRelative:
		if !state.HasItem() {
			return nil, fmt.Errorf("%w: playback has no progress", shared.ErrNoPlayback)
		}
		pos := req.Position
		if req.Command == SeekRelative {
			pos += state.ProgressAt(p.now())
		}
		pos = max(pos, 0)
		if d := state.Duration(); d > 0 {
			pos = min(pos, d)
		}
		if err := p.client.Seek(ctx, device, pos); err != nil {
			return nil, err
		}
		return func(s *models.PlaybackState) {
			s.Progress = pos
			s.FetchedAt = p.now()
		}, nil
	case Repeat:
		next := state.Repeat.Next()
		if err := p.client.SetRepeat(ctx, device, next); err != nil {
			return nil, err
		}
		return func(s *models.PlaybackState) { s.Repeat = next }, nil
	case Shuffle:
		next := !state.Shuffle
		if err := p.client.SetShuffle(ctx, device, next); err != nil {
			return nil, err
		}
		return func(s *models.PlaybackState) { s.Shuffle = next }, nil
	case Volume, VolumeChange:
		v := req.Volume
		if req.Command == VolumeChange {
			v += state.Device.Volume
		}
		v = clampVolume(v)
		if err := p.client.SetVolume(ctx, device, v); err != nil {
			return nil, err
		}
		return func(s *models.PlaybackState) {
			s.Device.Volume = v
			p.muted = nil
		}, nil
	case ToggleMute:
		if muted == nil {
			if err := p.client.SetVolume(ctx, device, 0); err != nil {
				return nil, err
			}
			prev := state.Device.Volume
			return func(s *models.PlaybackState) {
				p.muted = &prev
				s.Device.Volume = 0
			}, nil
		}
		restore := *muted
		if err := p.client.SetVolume(ctx, device, restore); err != nil {
			return nil, err
		}
		return func(s *models.PlaybackState) {
			s.Device.Volume = restore
			p.muted = nil
		}, nil
	default:
		return nil, fmt.Errorf("%w: unknown player command %d", shared.ErrInvalidInput, req.Command)
	}
}

// setPlaying flips the playing flag, folding elapsed time into Progress first.
func (p *Player) setPlaying(playing bool) func(*models.PlaybackState) {
	return func(s *models.PlaybackState) {
		now := p.now()
		s.Progress = s.ProgressAt(now)
		s.FetchedAt = now
		s.IsPlaying = playing
	}
}

func (p *Player) start(ctx context.Context, req Request) error {
	if err := req.Playback.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	var device string
	want := req.Shuffle
	p.mu.RLock()
	if p.state != nil {
		device = p.state.Device.ID
		if want == nil {
			cached := p.state.Shuffle
			want = &cached
		}
	}
	p.mu.RUnlock()

	if err := p.client.StartPlayback(ctx, device, req.Playback); err != nil {
		return err
	}

	// a new playback does not keep the device's shuffle state
	if want == nil {
		return nil
	}
	if err := p.client.SetShuffle(ctx, device, *want); err != nil {
		return err
	}

	p.mu.Lock()
	if p.state != nil {
		p.state.Shuffle = *want
	}
	p.mu.Unlock()
	return nil
}

func clampVolume(v int) int {
	return min(max(v, 0), 100)
}

// ConnectDevice makes a device active when none is. It prefers the device named
// preferred (case-insensitive), falling back to the first available device.
// It returns the device that is active afterwards.
func (p *Player) ConnectDevice(ctx context.Context, preferred string) (*models.Device, error) {
	devices, err := p.client.Devices(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	for _, d := range devices {
		if d.IsActive {
			return &d, nil
		}
	}
	if len(devices) == 0 {
		return nil, fmt.Errorf("%w: no devices available", shared.ErrDeviceNotFound)
	}

	device := devices[0]
	if preferred != "" {
		if d, ok := FindDevice(devices, "", preferred); ok {
			device = d
		}
	}

	p.logger.Info("connecting to device", "name", device.Name, "id", device.ID)
	if err := p.client.TransferPlayback(ctx, device.ID, false); err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", device.Name, err)
	}
	device.IsActive = true
	return &device, nil
}

// FindDevice looks a device up by id, or by case-insensitive name when id is empty.
func FindDevice(devices []models.Device, id, name string) (models.Device, bool) {
	for _, d := range devices {
		if id != "" && d.ID == id {
			return d, true
		}
		if id == "" && name != "" && strings.EqualFold(d.Name, name) {
			return d, true
		}
	}
	return models.Device{}, false
}
