package folders

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/shared"
)

func strPtr(s string) *string { return &s }

func TestStructurize(t *testing.T) {
	playlists := []models.Playlist{
		{ID: models.PlaylistID("p1"), Name: "Focus"},
		{ID: models.PlaylistID("p2"), Name: "Gym"},
		{ID: models.PlaylistID("p3"), Name: "Loose"},
		{ID: models.PlaylistID("p4"), Name: "Deep"},
	}
	nodes := []Node{
		{Name: strPtr("Work"), Type: "folder", URI: "spotify:user:me:folder:aa", Children: []Node{
			{Type: "playlist", URI: "spotify:playlist:p1"},
			{Type: "folder", URI: "spotify:user:me:folder:bb", Children: []Node{
				{Type: "playlist", URI: "spotify:playlist:p4"},
			}},
		}},
		{Type: "playlist", URI: "spotify:playlist:p2"},
		{Type: "playlist", URI: "spotify:playlist:missing"},
		{Type: "playlist", URI: "no-colon"},
	}

	items := Structurize(playlists, nodes)

	type row struct {
		Label  string
		Folder int
		Target int
	}
	var got []row
	for _, it := range items {
		r := row{Label: it.String(), Folder: it.FolderID(), Target: -1}
		if it.Folder != nil {
			r.Target = it.Folder.TargetID
		}
		got = append(got, r)
	}

	want := []row{
		{Label: "Work/", Folder: 0, Target: 1},
		{Label: "← Work/", Folder: 1, Target: 0},
		{Label: "Focus", Folder: 1, Target: -1},
		{Label: "folder_1/", Folder: 1, Target: 2},
		{Label: "← folder_1/", Folder: 2, Target: 1},
		{Label: "Deep", Folder: 2, Target: -1},
		{Label: "Gym", Folder: 0, Target: -1},
		{Label: "Loose", Folder: 0, Target: -1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("structure mismatch (-want +got):\n%s", diff)
	}

	t.Run("InFolder", func(t *testing.T) {
		root := InFolder(items, 0)
		if len(root) != 3 {
			t.Errorf("expected 3 root items, got %d", len(root))
		}
		if len(InFolder(items, 2)) != 2 {
			t.Errorf("expected 2 items in folder 2")
		}
	})

	t.Run("no nodes keeps order", func(t *testing.T) {
		items := Structurize(playlists, nil)
		if len(items) != len(playlists) {
			t.Fatalf("expected %d items, got %d", len(playlists), len(items))
		}
		for i, it := range items {
			if it.Playlist.ID != playlists[i].ID {
				t.Errorf("item %d: got %v, want %v", i, it.Playlist.ID, playlists[i].ID)
			}
		}
	})
}

func TestLoadNodes(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		nodes, err := LoadNodes(filepath.Join(dir, "nope.json"))
		if err != nil || nodes != nil {
			t.Errorf("expected no nodes and no error, got %v, %v", nodes, err)
		}
	})

	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(dir, "folders.json")
		data := `[{"name":"Work","type":"folder","uri":"spotify:user:me:folder:1","children":[{"type":"playlist","uri":"spotify:playlist:p1"}]}]`
		if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}

		nodes, err := LoadNodes(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(nodes) != 1 || *nodes[0].Name != "Work" || len(nodes[0].Children) != 1 {
			t.Errorf("unexpected nodes %+v", nodes)
		}
	})

	t.Run("invalid file", func(t *testing.T) {
		path := filepath.Join(dir, "bad.json")
		if err := os.WriteFile(path, []byte("{"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadNodes(path); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}
