package testing

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/services"
	"github.com/desertthunder/spx/internal/shared"
)

var _ services.Client = (*FakeClient)(nil)

// FakeClient is an in-memory [services.Client].
//
// Player and library writes mutate its state the way the Web API would, and every
// call is recorded in Calls. Set Err to make every call fail.
type FakeClient struct {
	mu sync.Mutex

	User       models.User
	Playback   *models.PlaybackState
	DeviceList []models.Device
	QueueState models.Queue

	Playlists         []models.Playlist
	PlaylistItems     map[string][]models.Track
	AlbumContexts     map[string]*models.Context
	ArtistContexts    map[string]*models.Context
	Catalog           map[string]models.Track
	Liked             []models.Track
	Albums            []models.Album
	Shows             []models.Show
	Followed          []models.Artist
	Top               []models.Track
	Recent            []models.Track
	Radio             []models.Track
	CategoryList      []models.Category
	CategoryLists     map[string][]models.Playlist
	FollowedPlaylists map[string]bool

	Err   error
	Calls []string

	created int
}

// NewFakeClient returns an empty fake logged in as user "me".
func NewFakeClient() *FakeClient {
	return &FakeClient{
		User:              models.User{ID: "me", DisplayName: "Me", Product: "premium"},
		PlaylistItems:     make(map[string][]models.Track),
		AlbumContexts:     make(map[string]*models.Context),
		ArtistContexts:    make(map[string]*models.Context),
		Catalog:           make(map[string]models.Track),
		CategoryLists:     make(map[string][]models.Playlist),
		FollowedPlaylists: make(map[string]bool),
	}
}

// AddPlaylist registers a playlist with its tracks, owned by the fake user unless owner is set.
func (f *FakeClient) AddPlaylist(p models.Playlist, tracks ...models.Track) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if p.OwnerID == "" {
		p.OwnerID = f.User.ID
		p.Owner = f.User.DisplayName
	}
	f.Playlists = append(f.Playlists, p)
	f.PlaylistItems[p.ID.ID] = slices.Clone(tracks)
	for _, t := range tracks {
		f.Catalog[t.ID.ID] = t
	}
}

// AddTrack registers a track so that it can be looked up and searched.
func (f *FakeClient) AddTrack(tracks ...models.Track) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range tracks {
		f.Catalog[t.ID.ID] = t
	}
}

// Called reports whether a call with the given prefix was recorded.
func (f *FakeClient) Called(prefix string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.ContainsFunc(f.Calls, func(c string) bool { return strings.HasPrefix(c, prefix) })
}

// Reset clears recorded calls.
func (f *FakeClient) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = nil
}

func (f *FakeClient) record(format string, args ...any) error {
	f.Calls = append(f.Calls, fmt.Sprintf(format, args...))
	return f.Err
}

func (f *FakeClient) playing() error {
	if f.Playback == nil {
		return fmt.Errorf("%w: no active device", shared.ErrNotFound)
	}
	return nil
}

func (f *FakeClient) CurrentUser(ctx context.Context) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CurrentUser"); err != nil {
		return nil, err
	}
	u := f.User
	return &u, nil
}

func (f *FakeClient) CurrentPlayback(ctx context.Context) (*models.PlaybackState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CurrentPlayback"); err != nil {
		return nil, err
	}
	if f.Playback == nil {
		return nil, nil
	}
	state := *f.Playback
	state.FetchedAt = time.Now()
	return &state, nil
}

func (f *FakeClient) Devices(ctx context.Context) ([]models.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("Devices"); err != nil {
		return nil, err
	}
	return slices.Clone(f.DeviceList), nil
}

func (f *FakeClient) Queue(ctx context.Context) (*models.Queue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("Queue"); err != nil {
		return nil, err
	}
	q := f.QueueState
	q.Queue = slices.Clone(q.Queue)
	return &q, nil
}

func (f *FakeClient) Resume(ctx context.Context, deviceID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("Resume(%s)", deviceID); err != nil {
		return err
	}
	if err := f.playing(); err != nil {
		return err
	}
	f.Playback.IsPlaying = true
	return nil
}

func (f *FakeClient) Pause(ctx context.Context, deviceID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("Pause(%s)", deviceID); err != nil {
		return err
	}
	if err := f.playing(); err != nil {
		return err
	}
	f.Playback.IsPlaying = false
	return nil
}

func (f *FakeClient) NextTrack(ctx context.Context, deviceID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.record("NextTrack(%s)", deviceID)
}

func (f *FakeClient) PreviousTrack(ctx context.Context, deviceID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.record("PreviousTrack(%s)", deviceID)
}

func (f *FakeClient) Seek(ctx context.Context, deviceID string, position time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	position = max(position, 0)
	if err := f.record("Seek(%s, %d)", deviceID, position.Milliseconds()); err != nil {
		return err
	}
	if err := f.playing(); err != nil {
		return err
	}
	f.Playback.Progress = position
	return nil
}

func (f *FakeClient) SetRepeat(ctx context.Context, deviceID string, state models.RepeatState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("SetRepeat(%s, %s)", deviceID, state); err != nil {
		return err
	}
	if err := f.playing(); err != nil {
		return err
	}
	f.Playback.Repeat = state
	return nil
}

func (f *FakeClient) SetShuffle(ctx context.Context, deviceID string, state bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("SetShuffle(%s, %t)", deviceID, state); err != nil {
		return err
	}
	if err := f.playing(); err != nil {
		return err
	}
	f.Playback.Shuffle = state
	return nil
}

func (f *FakeClient) SetVolume(ctx context.Context, deviceID string, percent int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	percent = min(max(percent, 0), 100)
	if err := f.record("SetVolume(%s, %d)", deviceID, percent); err != nil {
		return err
	}
	if err := f.playing(); err != nil {
		return err
	}
	f.Playback.Device.Volume = percent
	return nil
}

func (f *FakeClient) TransferPlayback(ctx context.Context, deviceID string, play bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("TransferPlayback(%s, %t)", deviceID, play); err != nil {
		return err
	}

	i := slices.IndexFunc(f.DeviceList, func(d models.Device) bool { return d.ID == deviceID })
	if i < 0 {
		return fmt.Errorf("%w: device %s", shared.ErrNotFound, deviceID)
	}
	for j := range f.DeviceList {
		f.DeviceList[j].IsActive = j == i
	}
	if f.Playback == nil {
		f.Playback = &models.PlaybackState{Repeat: models.RepeatOff}
	}
	f.Playback.Device = f.DeviceList[i]
	f.Playback.IsPlaying = play
	return nil
}

func (f *FakeClient) StartPlayback(ctx context.Context, deviceID string, p models.Playback) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	target := p.Context.URI()
	if target == "" {
		target = fmt.Sprintf("%d uris", len(p.URIs))
	}
	if err := f.record("StartPlayback(%s, %s)", deviceID, target); err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}
	if f.Playback == nil {
		f.Playback = &models.PlaybackState{Repeat: models.RepeatOff}
	}
	f.Playback.IsPlaying = true
	f.Playback.Progress = 0
	f.Playback.Context = p.Context

	first := p.Offset
	if first == nil && len(p.URIs) > 0 {
		first = &p.URIs[0]
	}
	if first != nil {
		if t, ok := f.Catalog[first.ID]; ok {
			f.Playback.Track = &t
		}
	}
	return nil
}

func (f *FakeClient) AddToQueue(ctx context.Context, deviceID string, id models.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("AddToQueue(%s, %s)", deviceID, id); err != nil {
		return err
	}
	t, ok := f.Catalog[id.ID]
	if !ok {
		t = models.Track{ID: id}
	}
	f.QueueState.Queue = append(f.QueueState.Queue, t)
	return nil
}

func (f *FakeClient) UserPlaylists(ctx context.Context) ([]models.Playlist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("UserPlaylists"); err != nil {
		return nil, err
	}
	out := make([]models.Playlist, 0, len(f.Playlists))
	for _, p := range f.Playlists {
		p.TrackCount = len(f.PlaylistItems[p.ID.ID])
		out = append(out, p)
	}
	return out, nil
}

func (f *FakeClient) SavedTracks(ctx context.Context) ([]models.Track, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("SavedTracks"); err != nil {
		return nil, err
	}
	return slices.Clone(f.Liked), nil
}

func (f *FakeClient) SavedAlbums(ctx context.Context) ([]models.Album, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("SavedAlbums"); err != nil {
		return nil, err
	}
	return slices.Clone(f.Albums), nil
}

func (f *FakeClient) SavedShows(ctx context.Context) ([]models.Show, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("SavedShows"); err != nil {
		return nil, err
	}
	return slices.Clone(f.Shows), nil
}

func (f *FakeClient) FollowedArtists(ctx context.Context) ([]models.Artist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("FollowedArtists"); err != nil {
		return nil, err
	}
	return slices.Clone(f.Followed), nil
}

func (f *FakeClient) TopTracks(ctx context.Context) ([]models.Track, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("TopTracks"); err != nil {
		return nil, err
	}
	return slices.Clone(f.Top), nil
}

func (f *FakeClient) RecentlyPlayed(ctx context.Context) ([]models.Track, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("RecentlyPlayed"); err != nil {
		return nil, err
	}
	return slices.Clone(f.Recent), nil
}

func (f *FakeClient) Track(ctx context.Context, id string) (*models.Track, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("Track(%s)", id); err != nil {
		return nil, err
	}
	t, ok := f.Catalog[id]
	if !ok {
		return nil, fmt.Errorf("%w: track %s", shared.ErrNotFound, id)
	}
	return &t, nil
}

func (f *FakeClient) playlist(id string) (models.Playlist, bool) {
	i := slices.IndexFunc(f.Playlists, func(p models.Playlist) bool { return p.ID.ID == id })
	if i < 0 {
		for _, lists := range f.CategoryLists {
			if j := slices.IndexFunc(lists, func(p models.Playlist) bool { return p.ID.ID == id }); j >= 0 {
				return lists[j], true
			}
		}
		return models.Playlist{}, false
	}
	p := f.Playlists[i]
	p.TrackCount = len(f.PlaylistItems[id])
	return p, true
}

func (f *FakeClient) Playlist(ctx context.Context, id string) (*models.Playlist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("Playlist(%s)", id); err != nil {
		return nil, err
	}
	p, ok := f.playlist(id)
	if !ok {
		return nil, fmt.Errorf("%w: playlist %s", shared.ErrNotFound, id)
	}
	return &p, nil
}

func (f *FakeClient) PlaylistTracks(ctx context.Context, id string) ([]models.Track, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("PlaylistTracks(%s)", id); err != nil {
		return nil, err
	}
	if _, ok := f.playlist(id); !ok {
		return nil, fmt.Errorf("%w: playlist %s", shared.ErrNotFound, id)
	}
	return slices.Clone(f.PlaylistItems[id]), nil
}

func (f *FakeClient) PlaylistContext(ctx context.Context, id string) (*models.Context, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("PlaylistContext(%s)", id); err != nil {
		return nil, err
	}
	p, ok := f.playlist(id)
	if !ok {
		return nil, fmt.Errorf("%w: playlist %s", shared.ErrNotFound, id)
	}
	return models.PlaylistCtx(p, slices.Clone(f.PlaylistItems[id])), nil
}

func (f *FakeClient) AlbumContext(ctx context.Context, id string) (*models.Context, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("AlbumContext(%s)", id); err != nil {
		return nil, err
	}
	c, ok := f.AlbumContexts[id]
	if !ok {
		return nil, fmt.Errorf("%w: album %s", shared.ErrNotFound, id)
	}
	return c, nil
}

func (f *FakeClient) ArtistContext(ctx context.Context, id string) (*models.Context, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ArtistContext(%s)", id); err != nil {
		return nil, err
	}
	c, ok := f.ArtistContexts[id]
	if !ok {
		return nil, fmt.Errorf("%w: artist %s", shared.ErrNotFound, id)
	}
	return c, nil
}

func matches(name, query string) bool {
	return strings.Contains(strings.ToLower(name), strings.ToLower(query))
}

// search matches names case-insensitively; results are sorted by id for stable output.
func (f *FakeClient) search(query string) *models.SearchResults {
	res := &models.SearchResults{}
	for _, t := range f.Catalog {
		if matches(t.Name, query) {
			res.Tracks = append(res.Tracks, t)
		}
	}
	for _, c := range f.ArtistContexts {
		if c.Artist != nil && matches(c.Name, query) {
			res.Artists = append(res.Artists, *c.Artist)
		}
	}
	for _, c := range f.AlbumContexts {
		if c.Album != nil && matches(c.Name, query) {
			res.Albums = append(res.Albums, *c.Album)
		}
	}
	for _, p := range f.Playlists {
		if matches(p.Name, query) {
			res.Playlists = append(res.Playlists, p)
		}
	}

	slices.SortFunc(res.Tracks, func(a, b models.Track) int { return strings.Compare(a.ID.ID, b.ID.ID) })
	slices.SortFunc(res.Artists, func(a, b models.Artist) int { return strings.Compare(a.ID.ID, b.ID.ID) })
	slices.SortFunc(res.Albums, func(a, b models.Album) int { return strings.Compare(a.ID.ID, b.ID.ID) })
	return res
}

func (f *FakeClient) Search(ctx context.Context, query string) (*models.SearchResults, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("Search(%s)", query); err != nil {
		return nil, err
	}
	return f.search(query), nil
}

func (f *FakeClient) SearchType(ctx context.Context, query string, t models.ItemType, limit int) (*models.SearchResults, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("SearchType(%s, %s)", query, t); err != nil {
		return nil, err
	}

	all := f.search(query)
	res := &models.SearchResults{}
	switch t {
	case models.TrackType:
		res.Tracks = all.Tracks
	case models.ArtistType:
		res.Artists = all.Artists
	case models.AlbumType:
		res.Albums = all.Albums
	case models.PlaylistType:
		res.Playlists = all.Playlists
	default:
		return nil, fmt.Errorf("%w: cannot search for %s", shared.ErrInvalidInput, t)
	}
	return res, nil
}

func (f *FakeClient) RadioTracks(ctx context.Context, seed models.ID) ([]models.Track, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("RadioTracks(%s)", seed); err != nil {
		return nil, err
	}
	return slices.Clone(f.Radio), nil
}

func (f *FakeClient) Categories(ctx context.Context) ([]models.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("Categories"); err != nil {
		return nil, err
	}
	return slices.Clone(f.CategoryList), nil
}

func (f *FakeClient) CategoryPlaylists(ctx context.Context, categoryID string) ([]models.Playlist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CategoryPlaylists(%s)", categoryID); err != nil {
		return nil, err
	}
	return slices.Clone(f.CategoryLists[categoryID]), nil
}

func (f *FakeClient) CreatePlaylist(ctx context.Context, userID string, p services.NewPlaylist) (*models.Playlist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreatePlaylist(%s, %s)", userID, p.Name); err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.Name) == "" {
		return nil, fmt.Errorf("%w: playlist name is required", shared.ErrMissingArgument)
	}

	f.created++
	created := models.Playlist{
		ID:            models.PlaylistID(fmt.Sprintf("new%d", f.created)),
		Name:          p.Name,
		Desc:          p.Description,
		Owner:         f.User.DisplayName,
		OwnerID:       userID,
		Public:        p.Public && !p.Collaborative,
		Collaborative: p.Collaborative,
	}
	f.Playlists = append(f.Playlists, created)
	f.PlaylistItems[created.ID.ID] = nil
	return &created, nil
}

func (f *FakeClient) AddPlaylistItems(ctx context.Context, playlistID string, ids []models.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("AddPlaylistItems(%s, %d)", playlistID, len(ids)); err != nil {
		return err
	}
	if _, ok := f.playlist(playlistID); !ok {
		return fmt.Errorf("%w: playlist %s", shared.ErrNotFound, playlistID)
	}
	for _, id := range ids {
		t, ok := f.Catalog[id.ID]
		if !ok {
			t = models.Track{ID: id}
		}
		f.PlaylistItems[playlistID] = append(f.PlaylistItems[playlistID], t)
	}
	return nil
}

func (f *FakeClient) RemovePlaylistItems(ctx context.Context, playlistID string, ids []models.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("RemovePlaylistItems(%s, %d)", playlistID, len(ids)); err != nil {
		return err
	}
	if _, ok := f.playlist(playlistID); !ok {
		return fmt.Errorf("%w: playlist %s", shared.ErrNotFound, playlistID)
	}
	f.PlaylistItems[playlistID] = slices.DeleteFunc(f.PlaylistItems[playlistID], func(t models.Track) bool {
		return slices.Contains(ids, t.ID)
	})
	return nil
}

func (f *FakeClient) ReorderPlaylistItems(ctx context.Context, playlistID string, rangeStart, insertBefore int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ReorderPlaylistItems(%s, %d, %d)", playlistID, rangeStart, insertBefore); err != nil {
		return err
	}

	items := f.PlaylistItems[playlistID]
	if rangeStart < 0 || rangeStart >= len(items) || insertBefore < 0 || insertBefore > len(items) {
		return fmt.Errorf("%w: position out of range", shared.ErrInvalidInput)
	}
	item := items[rangeStart]
	items = slices.Delete(items, rangeStart, rangeStart+1)
	if insertBefore > rangeStart {
		insertBefore--
	}
	f.PlaylistItems[playlistID] = slices.Insert(items, insertBefore, item)
	return nil
}

func (f *FakeClient) SaveItems(ctx context.Context, ids []models.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("SaveItems(%v)", ids); err != nil {
		return err
	}
	for _, id := range ids {
		switch id.Type {
		case models.TrackType:
			if !slices.ContainsFunc(f.Liked, func(t models.Track) bool { return t.ID == id }) {
				t, ok := f.Catalog[id.ID]
				if !ok {
					t = models.Track{ID: id}
				}
				f.Liked = append([]models.Track{t}, f.Liked...)
			}
		case models.AlbumType:
			f.Albums = append(f.Albums, models.Album{ID: id})
		case models.ArtistType:
			f.Followed = append(f.Followed, models.Artist{ID: id})
		case models.ShowType:
			f.Shows = append(f.Shows, models.Show{ID: id})
		case models.PlaylistType:
			f.FollowedPlaylists[id.ID] = true
		default:
			return fmt.Errorf("%w: cannot save items of type %s", shared.ErrInvalidInput, id.Type)
		}
	}
	return nil
}

func (f *FakeClient) RemoveItems(ctx context.Context, ids []models.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("RemoveItems(%v)", ids); err != nil {
		return err
	}
	for _, id := range ids {
		switch id.Type {
		case models.TrackType:
			f.Liked = slices.DeleteFunc(f.Liked, func(t models.Track) bool { return t.ID == id })
		case models.AlbumType:
			f.Albums = slices.DeleteFunc(f.Albums, func(a models.Album) bool { return a.ID == id })
		case models.ArtistType:
			f.Followed = slices.DeleteFunc(f.Followed, func(a models.Artist) bool { return a.ID == id })
		case models.ShowType:
			f.Shows = slices.DeleteFunc(f.Shows, func(s models.Show) bool { return s.ID == id })
		case models.PlaylistType:
			delete(f.FollowedPlaylists, id.ID)
			f.Playlists = slices.DeleteFunc(f.Playlists, func(p models.Playlist) bool { return p.ID == id })
		default:
			return fmt.Errorf("%w: cannot remove items of type %s", shared.ErrInvalidInput, id.Type)
		}
	}
	return nil
}
