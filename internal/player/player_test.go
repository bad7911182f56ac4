package player

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/shared"
	tu "github.com/desertthunder/spx/internal/testing"
)

var epoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func setupPlayer(t *testing.T, playing bool) (*Player, *tu.FakeClient, *time.Time) {
	t.Helper()

	song := models.Track{ID: models.TrackID("t1"), Name: "Song", Duration: 3 * time.Minute}
	client := tu.NewFakeClient()
	client.DeviceList = []models.Device{
		{ID: "d1", Name: "Laptop", IsActive: true, Volume: 50},
		{ID: "d2", Name: "Phone"},
	}
	client.AddTrack(song)
	client.Playback = &models.PlaybackState{
		Device:    client.DeviceList[0],
		IsPlaying: playing,
		Repeat:    models.RepeatOff,
		Progress:  time.Minute,
		Track:     &song,
	}

	now := epoch
	p := New(client, nil)
	p.now = func() time.Time { return now }
	if _, err := p.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	client.Reset()
	return p, client, &now
}

func TestHandle(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		playing bool
		reqs    []Request
		calls   []string
		check   func(t *testing.T, s *models.PlaybackState)
	}{
		{
			name:  "NextPrevious",
			reqs:  []Request{Do(NextTrack), Do(PreviousTrack)},
			calls: []string{"NextTrack(d1)", "PreviousTrack(d1)"},
		},
		{
			name:    "ResumeWhenPlayingIsNoop",
			playing: true,
			reqs:    []Request{Do(Resume)},
			calls:   nil,
		},
		{
			name:  "ResumeWhenPaused",
			reqs:  []Request{Do(Resume), Do(Pause)},
			calls: []string{"Resume(d1)", "Pause(d1)"},
			check: func(t *testing.T, s *models.PlaybackState) {
				if s.IsPlaying {
					t.Error("expected paused")
				}
			},
		},
		{
			name:    "ResumePauseToggles",
			playing: true,
			reqs:    []Request{Do(ResumePause), Do(ResumePause)},
			calls:   []string{"Pause(d1)", "Resume(d1)"},
			check: func(t *testing.T, s *models.PlaybackState) {
				if !s.IsPlaying {
					t.Error("expected playing")
				}
			},
		},
		{
			name:  "RepeatCycles",
			reqs:  []Request{Do(Repeat), Do(Repeat), Do(Repeat)},
			calls: []string{"SetRepeat(d1, track)", "SetRepeat(d1, context)", "SetRepeat(d1, off)"},
		},
		{
			name:  "ShuffleToggles",
			reqs:  []Request{Do(Shuffle)},
			calls: []string{"SetShuffle(d1, true)"},
			check: func(t *testing.T, s *models.PlaybackState) {
				if !s.Shuffle {
					t.Error("expected shuffle on")
				}
			},
		},
		{
			name:  "SeekAbsoluteClampedToDuration",
			reqs:  []Request{Seek(2 * time.Minute), Seek(10 * time.Minute)},
			calls: []string{"Seek(d1, 120000)", "Seek(d1, 180000)"},
		},
		{
			name:  "SeekRelative",
			reqs:  []Request{SeekBy(5 * time.Second), SeekBy(-2 * time.Minute)},
			calls: []string{"Seek(d1, 65000)", "Seek(d1, 0)"},
		},
		{
			name:  "VolumeClamped",
			reqs:  []Request{SetVolume(120), ChangeVolume(-30), ChangeVolume(-200)},
			calls: []string{"SetVolume(d1, 100)", "SetVolume(d1, 70)", "SetVolume(d1, 0)"},
		},
		{
			name:  "ToggleMuteRestoresVolume",
			reqs:  []Request{Do(ToggleMute), Do(ToggleMute)},
			calls: []string{"SetVolume(d1, 0)", "SetVolume(d1, 50)"},
			check: func(t *testing.T, s *models.PlaybackState) {
				if s.Device.Volume != 50 {
					t.Errorf("expected volume 50, got %d", s.Device.Volume)
				}
			},
		},
		{
			name:  "VolumeClearsMute",
			reqs:  []Request{Do(ToggleMute), SetVolume(20), Do(ToggleMute)},
			calls: []string{"SetVolume(d1, 0)", "SetVolume(d1, 20)", "SetVolume(d1, 0)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, client, _ := setupPlayer(t, tt.playing)
			for _, req := range tt.reqs {
				if err := p.Handle(ctx, req); err != nil {
					t.Fatalf("Handle(%s) failed: %v", req.Command, err)
				}
			}
			if diff := cmp.Diff(tt.calls, client.Calls); diff != "" {
				t.Errorf("calls mismatch (-want +got):\n%s", diff)
			}
			if tt.check != nil {
				tt.check(t, p.State())
			}
		})
	}
}

func TestHandleWithoutPlayback(t *testing.T) {
	ctx := context.Background()
	client := tu.NewFakeClient()
	client.DeviceList = []models.Device{{ID: "d1", Name: "Laptop"}}
	p := New(client, nil)

	for _, c := range []Command{NextTrack, Resume, ResumePause, Repeat, Shuffle, Volume, ToggleMute, SeekTrack} {
		if err := p.Handle(ctx, Do(c)); !errors.Is(err, shared.ErrNoPlayback) {
			t.Errorf("%s: expected ErrNoPlayback, got %v", c, err)
		}
	}
	if len(client.Calls) != 0 {
		t.Errorf("no API calls expected, got %v", client.Calls)
	}

	t.Run("TransferAllowed", func(t *testing.T) {
		if err := p.Handle(ctx, Transfer("d1", true)); err != nil {
			t.Fatalf("Transfer failed: %v", err)
		}
		if !client.Called("TransferPlayback(d1, true)") {
			t.Errorf("transfer not sent: %v", client.Calls)
		}
	})

	t.Run("StartAllowed", func(t *testing.T) {
		fresh := New(tu.NewFakeClient(), nil)
		err := fresh.Handle(ctx, Start(models.ContextPlayback(models.AlbumID("a1"), nil), nil))
		if err != nil {
			t.Fatalf("Start failed: %v", err)
		}
	})
}

func TestStartPlayback(t *testing.T) {
	ctx := context.Background()

	t.Run("ReappliesShuffle", func(t *testing.T) {
		p, client, _ := setupPlayer(t, true)
		if err := p.Handle(ctx, Do(Shuffle)); err != nil {
			t.Fatal(err)
		}
		client.Reset()

		if err := p.Handle(ctx, Start(models.ContextPlayback(models.PlaylistID("p1"), nil), nil)); err != nil {
			t.Fatalf("Start failed: %v", err)
		}
		want := []string{"StartPlayback(d1, spotify:playlist:p1)", "SetShuffle(d1, true)"}
		if diff := cmp.Diff(want, client.Calls); diff != "" {
			t.Errorf("calls mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("ShuffleOverride", func(t *testing.T) {
		p, client, _ := setupPlayer(t, true)
		on := true
		uris := []models.ID{models.TrackID("t1"), models.TrackID("t2")}
		if err := p.Handle(ctx, Start(models.URIsPlayback(uris, nil), &on)); err != nil {
			t.Fatalf("Start failed: %v", err)
		}
		want := []string{"StartPlayback(d1, 2 uris)", "SetShuffle(d1, true)"}
		if diff := cmp.Diff(want, client.Calls); diff != "" {
			t.Errorf("calls mismatch (-want +got):\n%s", diff)
		}
		if !p.State().Shuffle {
			t.Error("shuffle override not stored")
		}
	})

	t.Run("NoPlaybackShuffleOverride", func(t *testing.T) {
		client := tu.NewFakeClient()
		p := New(client, nil)
		if _, err := p.Refresh(ctx); err != nil {
			t.Fatalf("Refresh failed: %v", err)
		}
		client.Reset()

		on := true
		if err := p.Handle(ctx, Start(models.ContextPlayback(models.PlaylistID("abc"), nil), &on)); err != nil {
			t.Fatalf("Start failed: %v", err)
		}
		want := []string{"StartPlayback(, spotify:playlist:abc)", "SetShuffle(, true)"}
		if diff := cmp.Diff(want, client.Calls); diff != "" {
			t.Errorf("calls mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("FailedStartKeepsShuffle", func(t *testing.T) {
		p, client, _ := setupPlayer(t, true)
		if err := p.Handle(ctx, Do(Shuffle)); err != nil {
			t.Fatal(err)
		}
		client.Err = shared.ErrAPIRequest

		off := false
		if err := p.Handle(ctx, Start(models.ContextPlayback(models.PlaylistID("p1"), nil), &off)); !errors.Is(err, shared.ErrAPIRequest) {
			t.Fatalf("expected ErrAPIRequest, got %v", err)
		}
		if !p.State().Shuffle {
			t.Error("cached shuffle changed by a failed start")
		}
	})

	t.Run("InvalidPlayback", func(t *testing.T) {
		p, client, _ := setupPlayer(t, true)
		if err := p.Handle(ctx, Start(models.Playback{}, nil)); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
		if len(client.Calls) != 0 {
			t.Errorf("no API calls expected, got %v", client.Calls)
		}
	})
}

func TestProgress(t *testing.T) {
	t.Run("ExtrapolatesWhilePlaying", func(t *testing.T) {
		p, _, now := setupPlayer(t, true)
		*now = now.Add(10 * time.Second)
		if got := p.Progress(); got != 70*time.Second {
			t.Errorf("Progress() = %s, want 1m10s", got)
		}
	})

	t.Run("FrozenWhilePaused", func(t *testing.T) {
		p, _, now := setupPlayer(t, false)
		*now = now.Add(10 * time.Second)
		if got := p.Progress(); got != time.Minute {
			t.Errorf("Progress() = %s, want 1m", got)
		}
	})

	t.Run("PauseKeepsElapsed", func(t *testing.T) {
		p, _, now := setupPlayer(t, true)
		*now = now.Add(20 * time.Second)
		if err := p.Handle(context.Background(), Do(Pause)); err != nil {
			t.Fatal(err)
		}
		*now = now.Add(time.Minute)
		if got := p.Progress(); got != 80*time.Second {
			t.Errorf("Progress() = %s, want 1m20s", got)
		}
	})

	t.Run("NoPlayback", func(t *testing.T) {
		if got := New(tu.NewFakeClient(), nil).Progress(); got != 0 {
			t.Errorf("Progress() = %s, want 0", got)
		}
	})
}

func TestConnectDevice(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		devices   []models.Device
		preferred string
		want      string
		transfer  bool
		wantErr   error
	}{
		{
			name:    "AlreadyActive",
			devices: []models.Device{{ID: "d1", Name: "A"}, {ID: "d2", Name: "B", IsActive: true}},
			want:    "d2",
		},
		{
			name:      "Preferred",
			devices:   []models.Device{{ID: "d1", Name: "A"}, {ID: "d2", Name: "spx"}},
			preferred: "SPX",
			want:      "d2",
			transfer:  true,
		},
		{
			name:      "FallsBackToFirst",
			devices:   []models.Device{{ID: "d1", Name: "A"}, {ID: "d2", Name: "B"}},
			preferred: "missing",
			want:      "d1",
			transfer:  true,
		},
		{
			name:    "NoDevices",
			wantErr: shared.ErrDeviceNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := tu.NewFakeClient()
			client.DeviceList = tt.devices
			p := New(client, nil)

			d, err := p.ConnectDevice(ctx, tt.preferred)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ConnectDevice failed: %v", err)
			}
			if d.ID != tt.want {
				t.Errorf("connected to %s, want %s", d.ID, tt.want)
			}
			if got := client.Called("TransferPlayback"); got != tt.transfer {
				t.Errorf("transfer called = %v, want %v", got, tt.transfer)
			}
		})
	}
}

func TestFindDevice(t *testing.T) {
	devices := []models.Device{{ID: "d1", Name: "Laptop"}, {ID: "d2", Name: "Phone"}}

	if d, ok := FindDevice(devices, "d2", ""); !ok || d.Name != "Phone" {
		t.Errorf("lookup by id failed: %+v %v", d, ok)
	}
	if d, ok := FindDevice(devices, "", "laptop"); !ok || d.ID != "d1" {
		t.Errorf("lookup by name failed: %+v %v", d, ok)
	}
	if _, ok := FindDevice(devices, "", ""); ok {
		t.Error("empty lookup should fail")
	}
}

// stalledClient holds NextTrack until release is closed.
type stalledClient struct {
	*tu.FakeClient
	started chan struct{}
	release chan struct{}
}

func (c *stalledClient) NextTrack(ctx context.Context, deviceID string) error {
	close(c.started)
	<-c.release
	return c.FakeClient.NextTrack(ctx, deviceID)
}

func TestHandleDoesNotBlockReaders(t *testing.T) {
	_, fake, _ := setupPlayer(t, true)
	client := &stalledClient{
		FakeClient: fake,
		started:    make(chan struct{}),
		release:    make(chan struct{}),
	}
	p := New(client, nil)
	p.now = func() time.Time { return epoch }
	if _, err := p.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	handled := make(chan error, 1)
	go func() { handled <- p.Handle(context.Background(), Do(NextTrack)) }()
	<-client.started

	read := make(chan struct{})
	go func() {
		p.State()
		p.Progress()
		p.Muted()
		close(read)
	}()

	select {
	case <-read:
	case <-time.After(500 * time.Millisecond):
		t.Error("readers blocked while a request is in flight")
	}

	close(client.release)
	if err := <-handled; err != nil {
		t.Fatalf("NextTrack failed: %v", err)
	}
	<-read
}
