package keymap

import "github.com/desertthunder/spx/internal/models"

// Item is anything actions can be applied to. Exactly one field is set.
type Item struct {
	Track    *models.Track
	Album    *models.Album
	Artist   *models.Artist
	Playlist *models.Playlist
	Show     *models.Show
	Episode  *models.Episode
}

// ID returns the ID of the wrapped item.
func (i Item) ID() models.ID {
	switch {
	case i.Track != nil:
		return i.Track.ID
	case i.Album != nil:
		return i.Album.ID
	case i.Artist != nil:
		return i.Artist.ID
	case i.Playlist != nil:
		return i.Playlist.ID
	case i.Show != nil:
		return i.Show.ID
	case i.Episode != nil:
		return i.Episode.ID
	}
	return models.ID{}
}

// AvailableActions lists the actions offered for item given the user's library.
func AvailableActions(item Item, data *models.UserData) []ActionKind {
	switch {
	case item.Track != nil:
		actions := []ActionKind{
			ActGoToArtist, ActGoToAlbum, ActGoToRadio,
			ActShowActionsOnAlbum, ActShowActionsOnArtist,
			ActCopyLink, ActAddToPlaylist, ActAddToQueue,
		}
		if data.IsLikedTrack(*item.Track) {
			return append(actions, ActDeleteFromLiked)
		}
		return append(actions, ActAddToLiked)

	case item.Album != nil:
		actions := []ActionKind{ActGoToArtist, ActGoToRadio, ActShowActionsOnArtist, ActCopyLink, ActAddToQueue}
		if data.IsSavedAlbum(item.Album.ID) {
			return append(actions, ActDeleteFromLibrary)
		}
		return append(actions, ActAddToLibrary)

	case item.Artist != nil:
		actions := []ActionKind{ActGoToRadio, ActCopyLink}
		if data.IsFollowedArtist(item.Artist.ID) {
			return append(actions, ActUnfollow)
		}
		return append(actions, ActFollow)

	case item.Playlist != nil:
		actions := []ActionKind{ActGoToRadio, ActCopyLink}
		if data.HasPlaylist(item.Playlist.ID) {
			return append(actions, ActDeleteFromLibrary)
		}
		return append(actions, ActAddToLibrary)

	case item.Show != nil:
		actions := []ActionKind{ActCopyLink}
		if data.IsSavedShow(item.Show.ID) {
			return append(actions, ActDeleteFromLibrary)
		}
		return append(actions, ActAddToLibrary)

	case item.Episode != nil:
		actions := []ActionKind{ActCopyLink, ActAddToPlaylist, ActAddToQueue}
		if item.Episode.Show != nil {
			actions = append(actions, ActShowActionsOnShow, ActGoToShow)
		}
		return actions
	}
	return nil
}
