// Package formatter renders playlists, snapshot tables and analysis reports to CSV, Markdown and plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/spotsync/internal/analysis"
	"github.com/desertthunder/spotsync/internal/models"
	"github.com/dustin/go-humanize"
)

var trackHeaders = []string{"ID", "Name", "Artist", "Album", "Duration", "Popularity"}

// FormatDuration renders milliseconds as m:ss, or h:mm:ss past an hour.
func FormatDuration(ms int) string {
	d := time.Duration(ms) * time.Millisecond
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// VisibilityString returns "Public" or "Private".
func VisibilityString(public bool) string {
	if public {
		return "Public"
	}
	return "Private"
}

// ExportToCSV converts a PlaylistExport to CSV with columns: ID, Name, Artist, Album, Duration, Popularity
func ExportToCSV(export *models.PlaylistExport) ([]byte, error) {
	rows := make([][]string, 0, len(export.Tracks))
	for _, track := range export.Tracks {
		rows = append(rows, []string{
			track.ID,
			track.Name,
			track.Artist,
			track.Album,
			FormatDuration(track.DurationMS),
			strconv.Itoa(track.Popularity),
		})
	}
	return writeCSV(trackHeaders, rows)
}

// ExportToMarkdown converts a PlaylistExport to Markdown
func ExportToMarkdown(export *models.PlaylistExport) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", export.Playlist.Name)
	if export.Playlist.Description != "" {
		fmt.Fprintf(&buf, "**Description**: %s\n\n", export.Playlist.Description)
	}

	var totalMS int
	for _, t := range export.Tracks {
		totalMS += t.DurationMS
	}
	fmt.Fprintf(&buf, "**Tracks**: %s\n", humanize.Comma(int64(len(export.Tracks))))
	fmt.Fprintf(&buf, "**Length**: %s\n", FormatDuration(totalMS))
	fmt.Fprintf(&buf, "**Visibility**: %s\n\n", VisibilityString(export.Playlist.Public))

	buf.WriteString("## Tracks\n\n")
	for i, track := range export.Tracks {
		albumPart := ""
		if track.Album != "" {
			albumPart = fmt.Sprintf(" (%s)", track.Album)
		}
		fmt.Fprintf(&buf, "%d. %s - %s%s [%s]\n", i+1, track.Artist, track.Name, albumPart, FormatDuration(track.DurationMS))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a PlaylistExport to plain text
func ExportToText(export *models.PlaylistExport) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Playlist: %s\n", export.Playlist.Name)
	if export.Playlist.Description != "" {
		fmt.Fprintf(&buf, "Description: %s\n", export.Playlist.Description)
	}
	fmt.Fprintf(&buf, "Tracks: %d\n\n", len(export.Tracks))

	for i, track := range export.Tracks {
		fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, track.Artist, track.Name)
	}

	return buf.Bytes(), nil
}

// ToMetadataJSON generates an indented JSON representation of playlist metadata (without tracks)
func ToMetadataJSON(playlist models.Playlist) ([]byte, error) {
	return json.MarshalIndent(playlist, "", "  ")
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	TracksFile   string
	MetadataFile string
}

// WriteCSVExport exports a playlist to CSV format with accompanying metadata JSON file.
//
// Defaults to playlist ID as the base filename & creates {base}_tracks.csv and {base}_metadata.json
func WriteCSVExport(export *models.PlaylistExport, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = export.Playlist.ID
	}

	csvData, err := ExportToCSV(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	tracksFile := baseFilepath + "_tracks.csv"
	if err := os.WriteFile(tracksFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ToMetadataJSON(export.Playlist)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{TracksFile: tracksFile, MetadataFile: metadataFile}, nil
}

// WriteMarkdownExport writes {dir}/README.md for a playlist. The directory defaults to the playlist ID.
func WriteMarkdownExport(export *models.PlaylistExport, outputDir string) (string, error) {
	if outputDir == "" {
		outputDir = export.Playlist.ID
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	mdData, err := ExportToMarkdown(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return "", fmt.Errorf("failed to write Markdown file: %w", err)
	}
	return mdFile, nil
}

// WriteTextExport exports a playlist to plain text format.
//
// Defaults to {playlist.ID}_tracks.txt as the filename.
func WriteTextExport(export *models.PlaylistExport, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("%s_tracks.txt", export.Playlist.ID)
	}

	textData, err := ExportToText(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(path, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}
	return path, nil
}

// WriteSnapshotTables writes the cache tables as playlists.csv, tracks.csv, artists.csv and
// playlist_tracks.csv under dir and returns the paths written.
func WriteSnapshotTables(snap *models.Snapshot, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	tables := []struct {
		name    string
		headers []string
		rows    [][]string
	}{
		{"playlists.csv", []string{"playlist_id", "name", "owner_id", "is_owned", "track_count", "snapshot_id", "public"}, playlistRows(snap)},
		{"tracks.csv", []string{"track_id", "name", "artist", "artist_ids", "album", "duration_ms", "popularity"}, trackRows(snap)},
		{"artists.csv", []string{"artist_id", "name", "genres", "popularity"}, artistRows(snap)},
		{"playlist_tracks.csv", []string{"playlist_id", "track_id", "position", "added_at"}, membershipRows(snap)},
	}

	var files []string
	for _, tbl := range tables {
		data, err := writeCSV(tbl.headers, tbl.rows)
		if err != nil {
			return files, fmt.Errorf("failed to generate %s: %w", tbl.name, err)
		}
		path := filepath.Join(dir, tbl.name)
		if err := os.WriteFile(path, data, 0644); err != nil {
			return files, fmt.Errorf("failed to write %s: %w", tbl.name, err)
		}
		files = append(files, path)
	}
	return files, nil
}

func playlistRows(snap *models.Snapshot) [][]string {
	rows := make([][]string, 0, len(snap.Playlists))
	for _, p := range snap.Playlists {
		rows = append(rows, []string{
			p.ID, p.Name, p.OwnerID, strconv.FormatBool(p.IsOwned),
			strconv.Itoa(p.TrackCount), p.SnapshotID, strconv.FormatBool(p.Public),
		})
	}
	return rows
}

func trackRows(snap *models.Snapshot) [][]string {
	rows := make([][]string, 0, len(snap.Tracks))
	for _, t := range snap.Tracks {
		rows = append(rows, []string{
			t.ID, t.Name, t.Artist, strings.Join(t.ArtistIDs, ";"), t.Album,
			strconv.Itoa(t.DurationMS), strconv.Itoa(t.Popularity),
		})
	}
	return rows
}

func artistRows(snap *models.Snapshot) [][]string {
	rows := make([][]string, 0, len(snap.Artists))
	for _, a := range snap.Artists {
		rows = append(rows, []string{a.ID, a.Name, strings.Join(a.Genres, ";"), strconv.Itoa(a.Popularity)})
	}
	return rows
}

func membershipRows(snap *models.Snapshot) [][]string {
	ms := snap.SortedMemberships()
	rows := make([][]string, 0, len(ms))
	for _, m := range ms {
		added := ""
		if !m.AddedAt.IsZero() {
			added = m.AddedAt.UTC().Format(time.RFC3339)
		}
		rows = append(rows, []string{m.PlaylistID, m.TrackID, strconv.Itoa(m.Position), added})
	}
	return rows
}

// ReportToMarkdown renders an analysis report. syncedAt may be zero.
func ReportToMarkdown(r analysis.Report, syncedAt time.Time) []byte {
	var buf bytes.Buffer

	buf.WriteString("# Library Report\n\n")
	if !syncedAt.IsZero() {
		fmt.Fprintf(&buf, "Last synced %s (%s)\n\n", syncedAt.UTC().Format(time.RFC3339), humanize.Time(syncedAt))
	}

	buf.WriteString("## Stats\n\n")
	buf.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&buf, "| Playlists | %s |\n", humanize.Comma(int64(r.Stats.TotalPlaylists)))
	fmt.Fprintf(&buf, "| Tracks | %s |\n", humanize.Comma(int64(r.Stats.TotalTracks)))
	fmt.Fprintf(&buf, "| Artists | %s |\n", humanize.Comma(int64(r.Stats.TotalArtists)))
	fmt.Fprintf(&buf, "| Hours | %s |\n", humanize.CommafWithDigits(r.Stats.TotalHours, 2))
	fmt.Fprintf(&buf, "| Avg popularity | %s |\n", humanize.CommafWithDigits(r.Stats.AvgPopularity, 2))
	fmt.Fprintf(&buf, "| Followed playlists | %s |\n\n", humanize.Comma(int64(r.FollowedPlaylistsCount)))

	fmt.Fprintf(&buf, "## Monthly Playlists (%d)\n\n", r.MonthlyPlaylistsCount)
	for _, name := range r.MonthlyPlaylists {
		fmt.Fprintf(&buf, "- %s\n", name)
	}
	if len(r.MonthlyPlaylists) > 0 {
		buf.WriteString("\n")
	}

	if len(r.GenreCounts) > 0 {
		buf.WriteString("## Genres\n\n")
		buf.WriteString("| Genre | Tracks |\n|---|---|\n")
		for _, c := range r.GenreCounts {
			fmt.Fprintf(&buf, "| %s | %s |\n", c.Genre, humanize.Comma(int64(c.Tracks)))
		}
	}

	return buf.Bytes()
}

// WriteJSON writes v as indented JSON to path.
func WriteJSON(v any, path string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func writeCSV(headers []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, record := range rows {
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
