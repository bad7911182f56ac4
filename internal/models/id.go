package models

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/desertthunder/spx/internal/shared"
)

// ItemType is the kind of a Spotify catalog item.
type ItemType string

const (
	TrackType    ItemType = "track"
	AlbumType    ItemType = "album"
	ArtistType   ItemType = "artist"
	PlaylistType ItemType = "playlist"
	ShowType     ItemType = "show"
	EpisodeType  ItemType = "episode"
	UserType     ItemType = "user"
)

// ParseItemType parses a type name such as "track" or "playlist".
func ParseItemType(s string) (ItemType, error) {
	switch t := ItemType(strings.ToLower(strings.TrimSpace(s))); t {
	case TrackType, AlbumType, ArtistType, PlaylistType, ShowType, EpisodeType, UserType:
		return t, nil
	default:
		return "", fmt.Errorf("%w: unknown item type %q", shared.ErrInvalidInput, s)
	}
}

// IsContext reports whether items of this type can be played as a context.
func (t ItemType) IsContext() bool {
	return t == AlbumType || t == ArtistType || t == PlaylistType || t == ShowType
}

// ID identifies a Spotify item by type and base62 id.
//
// IDs encode to and from JSON as URIs ("spotify:track:...").
type ID struct {
	Type ItemType
	ID   string
}

// NewID builds an ID from its parts.
func NewID(t ItemType, id string) ID {
	return ID{Type: t, ID: id}
}

func TrackID(id string) ID    { return NewID(TrackType, id) }
func AlbumID(id string) ID    { return NewID(AlbumType, id) }
func ArtistID(id string) ID   { return NewID(ArtistType, id) }
func PlaylistID(id string) ID { return NewID(PlaylistType, id) }

// IsZero reports whether the ID is unset.
func (i ID) IsZero() bool {
	return i.ID == ""
}

// URI renders the ID as "spotify:<type>:<id>".
func (i ID) URI() string {
	if i.IsZero() {
		return ""
	}
	return fmt.Sprintf("spotify:%s:%s", i.Type, i.ID)
}

// URL renders the ID as an open.spotify.com link.
func (i ID) URL() string {
	if i.IsZero() {
		return ""
	}
	return fmt.Sprintf("https://open.spotify.com/%s/%s", i.Type, i.ID)
}

func (i ID) String() string {
	return i.URI()
}

func (i ID) MarshalText() ([]byte, error) {
	return []byte(i.URI()), nil
}

func (i *ID) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*i = ID{}
		return nil
	}
	id, err := ParseURI(string(b))
	if err != nil {
		return err
	}
	*i = id
	return nil
}

// ParseURI parses "spotify:<type>:<id>".
// The legacy "spotify:user:<name>:playlist:<id>" form is accepted as well.
func ParseURI(s string) (ID, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) == 5 && parts[0] == "spotify" && parts[1] == "user" {
		parts = []string{parts[0], parts[3], parts[4]}
	}
	if len(parts) != 3 || parts[0] != "spotify" || parts[2] == "" {
		return ID{}, fmt.Errorf("%w: invalid spotify uri %q", shared.ErrInvalidInput, s)
	}

	t, err := ParseItemType(parts[1])
	if err != nil {
		return ID{}, err
	}
	return NewID(t, parts[2]), nil
}

// ParseURL parses an open.spotify.com link, ignoring query parameters and locale prefixes.
func ParseURL(s string) (ID, error) {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return ID{}, fmt.Errorf("%w: invalid url %q: %v", shared.ErrInvalidInput, s, err)
	}
	if u.Host != "open.spotify.com" {
		return ID{}, fmt.Errorf("%w: not a spotify link %q", shared.ErrInvalidInput, s)
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) > 0 && strings.HasPrefix(segments[0], "intl-") {
		segments = segments[1:]
	}
	if len(segments) != 2 || segments[1] == "" {
		return ID{}, fmt.Errorf("%w: unsupported spotify link %q", shared.ErrInvalidInput, s)
	}

	t, err := ParseItemType(segments[0])
	if err != nil {
		return ID{}, err
	}
	return NewID(t, segments[1]), nil
}

// ParseLink accepts either a URI or an open.spotify.com URL.
func ParseLink(s string) (ID, error) {
	if strings.HasPrefix(strings.TrimSpace(s), "spotify:") {
		return ParseURI(s)
	}
	return ParseURL(s)
}

// IDs extracts the ID of every track.
func IDs(tracks []Track) []ID {
	ids := make([]ID, 0, len(tracks))
	for _, t := range tracks {
		ids = append(ids, t.ID)
	}
	return ids
}
