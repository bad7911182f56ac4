package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/repositories"
	"github.com/desertthunder/spx/internal/shared"
	"github.com/desertthunder/spx/internal/socket"
	tu "github.com/desertthunder/spx/internal/testing"
)

// fakeSocket records requests instead of sending them to a running instance.
type fakeSocket struct {
	reqs []*socket.Request
	resp *socket.Response
	err  error
}

func (f *fakeSocket) send(ctx context.Context, req *socket.Request) (*socket.Response, error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	if f.resp == nil {
		return &socket.Response{}, nil
	}
	return f.resp, nil
}

func (f *fakeSocket) last(t *testing.T) *socket.Request {
	t.Helper()
	if len(f.reqs) == 0 {
		t.Fatal("expected a request to be sent")
	}
	return f.reqs[len(f.reqs)-1]
}

type harness struct {
	runner *Runner
	sock   *fakeSocket
	out    *bytes.Buffer
	dir    string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{sock: &fakeSocket{}, out: &bytes.Buffer{}, dir: t.TempDir()}
	h.runner = NewRunner(RunnerOpts{
		Logger: shared.NewLogger(io.Discard),
		Output: h.out,
		Send:   h.sock.send,
	})
	return h
}

// run executes the CLI with the config and cache folders pointed at the harness dir.
func (h *harness) run(args ...string) error {
	h.out.Reset()
	argv := append([]string{shared.AppName, "-c", h.dir, "-C", h.dir}, args...)
	return newApp(h.runner).Run(context.Background(), argv)
}

func okResponse(t *testing.T, v any) *socket.Response {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal response: %v", err)
	}
	return &socket.Response{Ok: data}
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			client := tu.NewFakeClient()

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Client:     client,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.client != client {
				t.Error("expected client to be set")
			}
		})

		t.Run("with nil options uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
			if runner.send == nil {
				t.Error("expected the socket sender to be set")
			}
		})

		t.Run("spotifyClient reuses the provided client", func(t *testing.T) {
			client := tu.NewFakeClient()
			runner := NewRunner(RunnerOpts{Client: client})

			got, err := runner.spotifyClient(context.Background())
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got != client {
				t.Error("expected the provided client")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if result := output.String(); result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FailingWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FailingWriter{OK: 1}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if result := output.String(); result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FailingWriter{}})

			err := runner.writePlain("test")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})

		var names []string
		for _, cmd := range runner.register() {
			names = append(names, cmd.Name)
		}

		want := []string{"authenticate", "generate", "get", "playback", "connect", "like", "playlist", "search", "cache"}
		if diff := cmp.Diff(want, names); diff != "" {
			t.Errorf("commands mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Setup", func(t *testing.T) {
		t.Run("missing app config keeps defaults", func(t *testing.T) {
			h := newHarness(t)

			if err := h.run("cache", "status"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if h.runner.paths.ConfigFolder != h.dir || h.runner.paths.CacheFolder != h.dir {
				t.Errorf("expected folders from flags, got %+v", h.runner.paths)
			}
			if h.runner.config.ClientPort != shared.DefaultConfig().ClientPort {
				t.Errorf("expected default client port, got %d", h.runner.config.ClientPort)
			}
		})

		t.Run("loads app config from the config folder", func(t *testing.T) {
			h := newHarness(t)
			conf := strings.Replace(string(shared.ExampleConfig()), "client_port = 8080", "client_port = 9090", 1)
			tu.MustWriteFile(t, h.dir, shared.AppConfigFile, conf)

			if err := h.run("cache", "status"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if h.runner.config.ClientPort != 9090 {
				t.Errorf("expected client port 9090, got %d", h.runner.config.ClientPort)
			}
		})

		t.Run("invalid app config fails", func(t *testing.T) {
			h := newHarness(t)
			tu.MustWriteFile(t, h.dir, shared.AppConfigFile, "client_port = 0\n")

			err := h.run("cache", "status")
			if !errors.Is(err, shared.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})

		t.Run("theme flag overrides the config", func(t *testing.T) {
			h := newHarness(t)

			if err := h.run("--theme", "dracula", "cache", "status"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if h.runner.config.Theme != "dracula" {
				t.Errorf("expected theme dracula, got %q", h.runner.config.Theme)
			}
		})
	})
}

func TestClientCommands(t *testing.T) {
	t.Run("requests", func(t *testing.T) {
		tests := []struct {
			name string
			args []string
			want *socket.Request
		}{
			{
				name: "get key",
				args: []string{"get", "key", "devices"},
				want: &socket.Request{Get: &socket.GetRequest{Key: socket.KeyDevices}},
			},
			{
				name: "get item by name",
				args: []string{"get", "item", "--name", "Dawn", "album"},
				want: &socket.Request{Get: &socket.GetRequest{Item: &socket.Item{
					Type:     models.AlbumType,
					IdOrName: socket.IdOrName{Name: "Dawn"},
				}}},
			},
			{
				name: "start context with shuffle",
				args: []string{"playback", "start", "context", "--id", "p1", "--shuffle", "playlist"},
				want: &socket.Request{Playback: &socket.PlaybackCommand{
					Command:     socket.StartContext,
					ContextType: models.PlaylistType,
					Target:      &socket.IdOrName{ID: "p1"},
					Shuffle:     true,
				}},
			},
			{
				name: "start liked tracks uses the playback limit",
				args: []string{"playback", "start", "liked", "--random"},
				want: &socket.Request{Playback: &socket.PlaybackCommand{
					Command: socket.StartLikedTracks,
					Limit:   shared.DefaultConfig().TracksPlaybackLimit,
					Random:  true,
				}},
			},
			{
				name: "start radio",
				args: []string{"playback", "start", "radio", "--id", "t1", "track"},
				want: &socket.Request{Playback: &socket.PlaybackCommand{
					Command:  socket.StartRadio,
					ItemType: models.TrackType,
					Target:   &socket.IdOrName{ID: "t1"},
				}},
			},
			{
				name: "play-pause",
				args: []string{"playback", "play-pause"},
				want: &socket.Request{Playback: &socket.PlaybackCommand{Command: socket.PlayPause}},
			},
			{
				name: "repeat",
				args: []string{"playback", "repeat"},
				want: &socket.Request{Playback: &socket.PlaybackCommand{Command: socket.Repeat}},
			},
			{
				name: "volume",
				args: []string{"playback", "volume", "--percent", "70"},
				want: &socket.Request{Playback: &socket.PlaybackCommand{Command: socket.Volume, Percent: 70}},
			},
			{
				name: "volume offset",
				args: []string{"playback", "volume", "--offset", "--percent", "5"},
				want: &socket.Request{Playback: &socket.PlaybackCommand{Command: socket.Volume, Percent: 5, IsOffset: true}},
			},
			{
				name: "seek",
				args: []string{"playback", "seek", "--offset-ms", "5000"},
				want: &socket.Request{Playback: &socket.PlaybackCommand{Command: socket.Seek, OffsetMS: 5000}},
			},
			{
				name: "connect",
				args: []string{"connect", "--name", "Laptop"},
				want: &socket.Request{Connect: &socket.IdOrName{Name: "Laptop"}},
			},
			{
				name: "unlike",
				args: []string{"like", "--unlike"},
				want: &socket.Request{Like: &socket.LikeRequest{Unlike: true}},
			},
			{
				name: "search",
				args: []string{"search", "dawn"},
				want: &socket.Request{Search: &socket.SearchRequest{Query: "dawn"}},
			},
			{
				name: "new playlist",
				args: []string{"playlist", "new", "--public", "--description", "songs", "Road Trip"},
				want: &socket.Request{Playlist: &socket.PlaylistCommand{
					Command:     socket.PlaylistNew,
					Name:        "Road Trip",
					Public:      true,
					Description: "songs",
				}},
			},
			{
				name: "import playlist",
				args: []string{"playlist", "import", "--delete", "p1", "p2"},
				want: &socket.Request{Playlist: &socket.PlaylistCommand{
					Command: socket.PlaylistImport,
					From:    "p1",
					To:      "p2",
					Delete:  true,
				}},
			},
			{
				name: "sync every import",
				args: []string{"playlist", "sync"},
				want: &socket.Request{Playlist: &socket.PlaylistCommand{Command: socket.PlaylistSync}},
			},
			{
				name: "edit playlist",
				args: []string{"playlist", "edit", "--playlist-id", "p1", "--track-id", "t1", "add"},
				want: &socket.Request{Playlist: &socket.PlaylistCommand{
					Command:    socket.PlaylistEdit,
					Action:     socket.EditAdd,
					PlaylistID: "p1",
					TrackID:    "t1",
				}},
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				h := newHarness(t)

				if err := h.run(tt.args...); err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if diff := cmp.Diff(tt.want, h.sock.last(t)); diff != "" {
					t.Errorf("request mismatch (-want +got):\n%s", diff)
				}
				if got := h.out.String(); got != "OK\n" {
					t.Errorf("expected OK, got %q", got)
				}
			})
		}
	})

	t.Run("invalid input is rejected before sending", func(t *testing.T) {
		tests := []struct {
			name string
			args []string
			want error
		}{
			{"unknown key", []string{"get", "key", "lyrics"}, shared.ErrInvalidInput},
			{"id and name", []string{"connect", "--id", "d1", "--name", "Laptop"}, shared.ErrMissingArgument},
			{"neither id nor name", []string{"playback", "start", "track"}, shared.ErrMissingArgument},
			{"track is not a context", []string{"playback", "start", "context", "--id", "t1", "track"}, shared.ErrInvalidArgument},
			{"show is not playable as a context", []string{"playback", "start", "context", "--id", "s1", "show"}, shared.ErrInvalidArgument},
			{"volume out of range", []string{"playback", "volume", "--percent", "150"}, shared.ErrInvalidFlag},
			{"unknown edit action", []string{"playlist", "edit", "--playlist-id", "p1", "--track-id", "t1", "move"}, shared.ErrInvalidArgument},
			{"missing playlist name", []string{"playlist", "new"}, shared.ErrMissingArgument},
			{"empty search", []string{"search"}, shared.ErrMissingArgument},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				h := newHarness(t)

				err := h.run(tt.args...)
				if !errors.Is(err, tt.want) {
					t.Errorf("expected %v, got %v", tt.want, err)
				}
				if len(h.sock.reqs) != 0 {
					t.Errorf("expected no request, got %d", len(h.sock.reqs))
				}
			})
		}
	})

	t.Run("error response", func(t *testing.T) {
		h := newHarness(t)
		h.sock.resp = &socket.Response{Err: "Bad request: no active device"}

		err := h.run("playback", "next")
		if !errors.Is(err, shared.ErrBadRequest) {
			t.Fatalf("expected ErrBadRequest, got %v", err)
		}
		if !strings.Contains(err.Error(), "no active device") {
			t.Errorf("expected the server message, got %v", err)
		}
	})

	t.Run("no running instance", func(t *testing.T) {
		h := newHarness(t)
		h.sock.err = shared.ErrSocketTimeout

		if err := h.run("playback", "pause"); !errors.Is(err, shared.ErrSocketTimeout) {
			t.Errorf("expected ErrSocketTimeout, got %v", err)
		}
	})

	t.Run("json output", func(t *testing.T) {
		h := newHarness(t)
		h.sock.resp = okResponse(t, []models.Device{{ID: "d1", Name: "Laptop", IsActive: true, Volume: 50}})

		if err := h.run("get", "key", "devices"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var got []models.Device
		if err := json.Unmarshal(h.out.Bytes(), &got); err != nil {
			t.Fatalf("expected JSON output, got %q: %v", h.out.String(), err)
		}
		if len(got) != 1 || got[0].Name != "Laptop" {
			t.Errorf("unexpected devices %+v", got)
		}
		if !strings.Contains(h.out.String(), "\n  ") {
			t.Errorf("expected indented JSON, got %q", h.out.String())
		}
	})

	t.Run("table output", func(t *testing.T) {
		h := newHarness(t)
		h.sock.resp = okResponse(t, []models.Device{{ID: "d1", Name: "Laptop", Type: "Computer", IsActive: true, Volume: 50}})

		if err := h.run("--format", "table", "get", "key", "devices"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		out := h.out.String()
		for _, want := range []string{"Laptop", "Computer", "50%"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in table, got:\n%s", want, out)
			}
		}
		if strings.Contains(out, `"name"`) {
			t.Errorf("expected a table instead of JSON, got:\n%s", out)
		}
	})
}

func TestGenerate(t *testing.T) {
	t.Run("writes the config files", func(t *testing.T) {
		h := newHarness(t)

		if err := h.run("generate"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		for _, name := range []string{shared.AppConfigFile, shared.KeymapConfigFile, shared.ThemeConfigFile, shared.FoldersFile} {
			tu.AssertFileExists(t, filepath.Join(h.dir, name))
		}
		if got := tu.MustReadFile(t, filepath.Join(h.dir, shared.AppConfigFile)); got != string(shared.ExampleConfig()) {
			t.Error("expected app config to match the example config")
		}
		if _, err := shared.LoadConfig(filepath.Join(h.dir, shared.AppConfigFile)); err != nil {
			t.Errorf("expected generated config to load, got %v", err)
		}
	})

	t.Run("skips existing files", func(t *testing.T) {
		h := newHarness(t)
		path := tu.MustWriteFile(t, h.dir, shared.KeymapConfigFile, "# mine\n")

		if err := h.run("generate"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if got := tu.MustReadFile(t, path); got != "# mine\n" {
			t.Errorf("expected keymap to be kept, got %q", got)
		}
		if !strings.Contains(h.out.String(), "keymap.toml already exists") {
			t.Errorf("expected a skip notice, got %q", h.out.String())
		}
	})

	t.Run("force overwrites", func(t *testing.T) {
		h := newHarness(t)
		path := tu.MustWriteFile(t, h.dir, shared.KeymapConfigFile, "# mine\n")

		if err := h.run("generate", "--force"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if got := tu.MustReadFile(t, path); got != keymapTemplate {
			t.Errorf("expected keymap template, got %q", got)
		}
	})
}

func TestCacheCommands(t *testing.T) {
	t.Run("status before migrate", func(t *testing.T) {
		h := newHarness(t)

		if err := h.run("cache", "status"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(h.out.String(), "not created") {
			t.Errorf("expected missing database notice, got %q", h.out.String())
		}
	})

	t.Run("migrate, status and rollback", func(t *testing.T) {
		h := newHarness(t)

		if err := h.run("cache", "migrate"); err != nil {
			t.Fatalf("migrate failed: %v", err)
		}
		if !strings.Contains(h.out.String(), "version 2") {
			t.Errorf("expected version 2, got %q", h.out.String())
		}
		tu.AssertFileExists(t, filepath.Join(h.dir, shared.DatabaseFile))

		if err := h.run("cache", "status"); err != nil {
			t.Fatalf("status failed: %v", err)
		}
		for _, want := range []string{"Schema version: 2", "Cached lyrics: 0", "Recorded imports: 0"} {
			if !strings.Contains(h.out.String(), want) {
				t.Errorf("expected %q in status, got:\n%s", want, h.out.String())
			}
		}

		if err := h.run("cache", "rollback"); err != nil {
			t.Fatalf("rollback failed: %v", err)
		}
		if !strings.Contains(h.out.String(), "version 1") {
			t.Errorf("expected version 1, got %q", h.out.String())
		}
	})

	t.Run("rollback without database", func(t *testing.T) {
		h := newHarness(t)

		if err := h.run("cache", "rollback"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("purge", func(t *testing.T) {
		h := newHarness(t)

		db, err := shared.OpenCache(filepath.Join(h.dir, shared.DatabaseFile), shared.DatabaseConfig{})
		if err != nil {
			t.Fatalf("failed to open cache: %v", err)
		}
		repo := repositories.NewLyricRepository(db)
		for _, l := range []*models.Lyrics{
			{Query: "old", CreatedAt: time.Now().Add(-24 * time.Hour)},
			{Query: "fresh", CreatedAt: time.Now()},
		} {
			if err := repo.Put(l); err != nil {
				t.Fatalf("failed to insert lyrics: %v", err)
			}
		}
		db.Close()

		if err := h.run("cache", "purge"); err != nil {
			t.Fatalf("purge failed: %v", err)
		}
		if !strings.Contains(h.out.String(), "Removed 1 cached lyrics") {
			t.Errorf("expected one expired lyric removed, got %q", h.out.String())
		}

		if err := h.run("cache", "purge", "--all"); err != nil {
			t.Fatalf("purge --all failed: %v", err)
		}
		if !strings.Contains(h.out.String(), "Removed 1 cached lyrics") {
			t.Errorf("expected the remaining lyric removed, got %q", h.out.String())
		}
	})

	t.Run("purge keeps everything with a zero ttl", func(t *testing.T) {
		h := newHarness(t)
		conf := strings.Replace(string(shared.ExampleConfig()), "cache_ttl_hours = 3", "cache_ttl_hours = 0", 1)
		tu.MustWriteFile(t, h.dir, shared.AppConfigFile, conf)

		db, err := shared.OpenCache(filepath.Join(h.dir, shared.DatabaseFile), shared.DatabaseConfig{})
		if err != nil {
			t.Fatalf("failed to open cache: %v", err)
		}
		repo := repositories.NewLyricRepository(db)
		if err := repo.Put(&models.Lyrics{Query: "old", CreatedAt: time.Now().Add(-24 * time.Hour)}); err != nil {
			t.Fatalf("failed to insert lyrics: %v", err)
		}

		if err := h.run("cache", "purge"); err != nil {
			t.Fatalf("purge failed: %v", err)
		}
		if !strings.Contains(h.out.String(), "nothing expires") {
			t.Errorf("expected purge to be skipped, got %q", h.out.String())
		}
		n, err := repo.Count()
		if err != nil {
			t.Fatalf("failed to count lyrics: %v", err)
		}
		db.Close()
		if n != 1 {
			t.Errorf("expected the lyric to be kept, got %d rows", n)
		}
	})
}
