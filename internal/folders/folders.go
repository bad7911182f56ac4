// Package folders arranges the user's flat playlist list into the folder tree
// exported from the desktop client (playlist_folders.json).
package folders

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/shared"
)

// Node is one entry of the folder tree. Type is "folder" or "playlist".
type Node struct {
	Name     *string `json:"name,omitempty"`
	Type     string  `json:"type"`
	URI      string  `json:"uri"`
	Children []Node  `json:"children,omitempty"`
}

// Folder links two folder ids. CurrentID is the folder the entry is listed in,
// TargetID the folder it opens.
type Folder struct {
	Name      string `json:"name"`
	CurrentID int    `json:"current_id"`
	TargetID  int    `json:"target_id"`
}

// Item is either a folder or a playlist.
type Item struct {
	Folder   *Folder
	Playlist *models.Playlist
}

// FolderID returns the id of the folder the item is listed in.
func (i Item) FolderID() int {
	if i.Folder != nil {
		return i.Folder.CurrentID
	}
	return i.Playlist.CurrentFolderID
}

func (i Item) String() string {
	if i.Folder != nil {
		return i.Folder.Name + "/"
	}
	return i.Playlist.Name
}

// Structurize places playlists into the folders described by nodes.
//
// Every folder node produces two items: the folder itself in its parent and a
// "← name" entry inside it pointing back up. Playlists not referenced by any node
// are appended at the root (folder 0) in their original order.
func Structurize(playlists []models.Playlist, nodes []Node) []Item {
	remaining := make(map[string]models.Playlist, len(playlists))
	for _, p := range playlists {
		remaining[p.ID.ID] = p
	}

	var items []Item
	folderID := 0
	addFolders(nodes, remaining, &folderID, &items)

	for _, p := range playlists {
		if rp, ok := remaining[p.ID.ID]; ok {
			rp.CurrentFolderID = 0
			items = append(items, Item{Playlist: &rp})
			delete(remaining, p.ID.ID)
		}
	}
	return items
}

func addFolders(nodes []Node, playlists map[string]models.Playlist, folderID *int, acc *[]Item) {
	current := *folderID
	for _, n := range nodes {
		idx := strings.LastIndex(n.URI, ":")
		if idx < 0 {
			continue
		}
		id := n.URI[idx+1:]

		if n.Type == "folder" {
			*folderID++
			name := fmt.Sprintf("folder_%d", current)
			if n.Name != nil {
				name = *n.Name
			}
			*acc = append(*acc,
				Item{Folder: &Folder{Name: name, CurrentID: current, TargetID: *folderID}},
				Item{Folder: &Folder{Name: "← " + name, CurrentID: *folderID, TargetID: current}},
			)
			addFolders(n.Children, playlists, folderID, acc)
			continue
		}

		if p, ok := playlists[id]; ok {
			delete(playlists, id)
			p.CurrentFolderID = current
			*acc = append(*acc, Item{Playlist: &p})
		}
	}
}

// InFolder filters items listed in folder id.
func InFolder(items []Item, id int) []Item {
	var out []Item
	for _, it := range items {
		if it.FolderID() == id {
			out = append(out, it)
		}
	}
	return out
}

// LoadNodes reads a folder tree file. A missing file yields no nodes.
func LoadNodes(path string) ([]Node, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read playlist folders: %w", err)
	}

	var nodes []Node
	if err := json.Unmarshal(data, &nodes); err != nil {
		return nil, fmt.Errorf("%w: playlist folders: %v", shared.ErrInvalidConfig, err)
	}
	return nodes, nil
}
