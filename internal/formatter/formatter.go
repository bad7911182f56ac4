// package formatter exports playlist contexts to files (CSV, Markdown, plain text, JSON)
// and renders socket responses as terminal tables.
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/shared"
)

// ExportToCSV converts a context's tracks to CSV with columns: URI, Title, Artists, Album, Duration, Added
func ExportToCSV(c *models.Context) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"URI", "Title", "Artists", "Album", "Duration", "Added"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range c.Tracks {
		added := ""
		if !track.AddedAt.IsZero() {
			added = track.AddedAt.UTC().Format(time.RFC3339)
		}
		record := []string{
			track.ID.URI(),
			track.Name,
			track.ArtistsInfo(),
			track.Album.Name,
			shared.FormatDuration(track.Duration),
			added,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a context to a Markdown document
func ExportToMarkdown(c *models.Context) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", c.Name)

	if c.Playlist != nil {
		if c.Playlist.Desc != "" {
			fmt.Fprintf(&buf, "**Description**: %s\n\n", c.Playlist.Desc)
		}
		fmt.Fprintf(&buf, "**Owner**: %s\n", c.Playlist.Owner)
		fmt.Fprintf(&buf, "**Tracks**: %d\n", len(c.Tracks))
		fmt.Fprintf(&buf, "**Visibility**: %s\n\n", shared.VisibilityString(c.Playlist.Public))
	} else {
		fmt.Fprintf(&buf, "**Tracks**: %d\n\n", len(c.Tracks))
	}

	if url := c.ID.URL(); url != "" {
		fmt.Fprintf(&buf, "[Open in Spotify](%s)\n\n", url)
	}

	buf.WriteString("## Tracks\n\n")
	for i, track := range c.Tracks {
		albumPart := ""
		if track.Album.Name != "" {
			albumPart = fmt.Sprintf(" (%s)", track.Album.Name)
		}
		fmt.Fprintf(&buf, "%d. %s - %s%s [%s]\n", i+1, track.ArtistsInfo(), track.Name, albumPart, shared.FormatDuration(track.Duration))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a context to plain text
func ExportToText(c *models.Context) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%s: %s\n", c.Kind, c.Name)
	if c.Playlist != nil && c.Playlist.Desc != "" {
		fmt.Fprintf(&buf, "Description: %s\n", c.Playlist.Desc)
	}
	fmt.Fprintf(&buf, "Tracks: %d\n\n", len(c.Tracks))

	for i, track := range c.Tracks {
		fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, track.ArtistsInfo(), track.Name)
	}

	return buf.Bytes(), nil
}

// ToMetadataJSON renders the context without its tracks
func ToMetadataJSON(c *models.Context) ([]byte, error) {
	meta := struct {
		Kind     string           `json:"kind"`
		URI      string           `json:"uri"`
		Name     string           `json:"name"`
		Playlist *models.Playlist `json:"playlist,omitempty"`
		Album    *models.Album    `json:"album,omitempty"`
		Tracks   int              `json:"tracks"`
	}{c.Kind.String(), c.ID.URI(), c.Name, c.Playlist, c.Album, len(c.Tracks)}
	return shared.MarshalJSON(meta, true)
}

// baseName is the file stem used for a context: its id, or its name for track lists.
func baseName(c *models.Context) string {
	if c.ID.ID != "" {
		return c.ID.ID
	}
	return c.Name
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	TracksFile   string
	MetadataFile string
}

// WriteCSVExport exports a context to CSV with an accompanying metadata JSON file.
//
// Defaults to the context ID as the base filename & creates {base}_tracks.csv and {base}_metadata.json
func WriteCSVExport(c *models.Context, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = baseName(c)
	}

	csvData, err := ExportToCSV(c)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	tracksFile := baseFilepath + "_tracks.csv"
	if err := os.WriteFile(tracksFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ToMetadataJSON(c)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{
		TracksFile:   tracksFile,
		MetadataFile: metadataFile,
	}, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory string
	Files     []string
}

// WriteMarkdownExport writes {dir}/README.md. The directory defaults to the context ID.
func WriteMarkdownExport(c *models.Context, outputDir string) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = baseName(c)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	mdData, err := ExportToMarkdown(c)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	return &MarkdownExportResult{Directory: outputDir, Files: []string{mdFile}}, nil
}

// WriteTextExport exports a context to plain text.
//
// Defaults to {id}_tracks.txt as the filename.
func WriteTextExport(c *models.Context, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("%s_tracks.txt", baseName(c))
	}

	textData, err := ExportToText(c)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(path, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return path, nil
}

// WriteJSONExport writes the full context, tracks included.
func WriteJSONExport(c *models.Context, path string) (string, error) {
	if path == "" {
		path = baseName(c) + ".json"
	}

	data, err := shared.MarshalJSON(c, true)
	if err != nil {
		return "", fmt.Errorf("JSON marshal failed: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("JSON write failed: %w", err)
	}
	return path, nil
}

// Export writes c in format (json, csv, markdown, txt) under dir and returns the created files.
func Export(c *models.Context, format, dir string) ([]string, error) {
	base := filepath.Join(dir, baseName(c))

	switch format {
	case "csv":
		res, err := WriteCSVExport(c, base)
		if err != nil {
			return nil, fmt.Errorf("CSV export failed: %w", err)
		}
		return []string{res.TracksFile, res.MetadataFile}, nil
	case "markdown", "md":
		res, err := WriteMarkdownExport(c, base)
		if err != nil {
			return nil, fmt.Errorf("markdown export failed: %w", err)
		}
		return res.Files, nil
	case "txt", "text":
		path, err := WriteTextExport(c, base+"_tracks.txt")
		if err != nil {
			return nil, fmt.Errorf("text export failed: %w", err)
		}
		return []string{path}, nil
	case "json", "":
		path, err := WriteJSONExport(c, base+".json")
		if err != nil {
			return nil, err
		}
		return []string{path}, nil
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidFlag, format)
	}
}
