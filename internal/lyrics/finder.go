package lyrics

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/shared"
)

// Store persists lyric lookups. Implemented by repositories.LyricRepository.
// Get returns an error wrapping [shared.ErrNotFound] on a miss.
type Store interface {
	Get(query string) (*models.Lyrics, error)
	Put(l *models.Lyrics) error
}

// Finder looks lyrics up through a [Client], caching results in a [Store].
type Finder struct {
	client *Client
	store  Store
	ttl    time.Duration
	logger *log.Logger
	now    func() time.Time
}

// NewFinder creates a finder. store may be nil to disable caching; a zero ttl keeps
// cached results forever.
func NewFinder(client *Client, store Store, ttl time.Duration, logger *log.Logger) *Finder {
	if logger == nil {
		logger = log.Default()
	}
	return &Finder{client: client, store: store, ttl: ttl, logger: logger, now: time.Now}
}

// Find returns the lyric for a track.
func (f *Finder) Find(ctx context.Context, track models.Track) (*models.Lyrics, error) {
	return f.Lookup(ctx, track.Query())
}

// Lookup returns the cached lyric for query, fetching it from Genius when the cache
// has no fresh entry. Negative results are cached as well.
func (f *Finder) Lookup(ctx context.Context, query string) (*models.Lyrics, error) {
	if f.store != nil {
		cached, err := f.store.Get(query)
		switch {
		case err == nil && !cached.Expired(f.now(), f.ttl):
			f.logger.Debug("lyric cache hit", "query", query, "found", cached.Found)
			return cached, nil
		case err != nil && !errors.Is(err, shared.ErrNotFound):
			f.logger.Warn("failed to read lyric cache", "query", query, "error", err)
		}
	}

	result, err := f.client.GetLyric(ctx, query)
	if err != nil {
		return nil, err
	}
	result.CreatedAt = f.now()

	if f.store != nil {
		if err := f.store.Put(result); err != nil {
			f.logger.Warn("failed to cache lyric", "query", query, "error", err)
		}
	}
	return result, nil
}
