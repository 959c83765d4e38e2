// package formatter renders ingestion history to various formats (CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/upl/internal/models"
	"github.com/desertthunder/upl/internal/shared"
)

// Format names accepted by [Render] and [WriteRunExport].
const (
	FormatCSV      = "csv"
	FormatMarkdown = "md"
	FormatText     = "txt"
	FormatJSON     = "json"
)

// RunSummary is the JSON shape of a run.
type RunSummary struct {
	ID          string               `json:"id"`
	Sequence    int                  `json:"sequence"`
	Playlist    string               `json:"playlist"`
	Status      models.RunStatus     `json:"status"`
	Total       int                  `json:"total"`
	Added       int                  `json:"added"`
	NoMatch     int                  `json:"no_match"`
	Failed      int                  `json:"failed"`
	Skipped     int                  `json:"skipped"`
	StartedAt   *time.Time           `json:"started_at,omitempty"`
	CompletedAt *time.Time           `json:"completed_at,omitempty"`
	Items       []*models.IngestItem `json:"items,omitempty"`
}

// Summarize converts a run and its items to a [RunSummary].
func Summarize(run *models.IngestRun, items []*models.IngestItem) RunSummary {
	return RunSummary{
		ID:          run.ID(),
		Sequence:    run.Sequence(),
		Playlist:    run.PlaylistName(),
		Status:      run.Status(),
		Total:       run.ItemsTotal(),
		Added:       run.ItemsAdded(),
		NoMatch:     run.ItemsUnmatched(),
		Failed:      run.ItemsFailed(),
		Skipped:     run.ItemsSkipped(),
		StartedAt:   run.StartedAt(),
		CompletedAt: run.CompletedAt(),
		Items:       items,
	}
}

// ExportRunToCSV renders items with columns: Position, Text, Outcome, Track URI, Error
func ExportRunToCSV(items []*models.IngestItem) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "Text", "Outcome", "Track URI", "Error"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, item := range items {
		record := []string{
			strconv.Itoa(item.Position + 1),
			item.Text,
			string(item.Outcome),
			item.TrackURI,
			item.Error,
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

// ExportRunToMarkdown renders a run summary followed by an item table
func ExportRunToMarkdown(run *models.IngestRun, items []*models.IngestItem) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# Run #%d: %s\n\n", run.Sequence(), run.PlaylistName())
	fmt.Fprintf(&buf, "**Status**: %s\n", run.Status())
	if started := run.StartedAt(); started != nil {
		fmt.Fprintf(&buf, "**Started**: %s\n", started.Format(time.RFC3339))
	}
	if completed := run.CompletedAt(); completed != nil {
		fmt.Fprintf(&buf, "**Completed**: %s\n", completed.Format(time.RFC3339))
	}
	fmt.Fprintf(&buf, "**Items**: %d (%d added, %d no match, %d failed, %d skipped)\n\n",
		run.ItemsTotal(), run.ItemsAdded(), run.ItemsUnmatched(), run.ItemsFailed(), run.ItemsSkipped())

	buf.WriteString("## Items\n\n")
	buf.WriteString("| # | Text | Outcome | Track |\n")
	buf.WriteString("|---|------|---------|-------|\n")
	for _, item := range items {
		track := item.TrackURI
		if item.Error != "" {
			track = item.Error
		}
		fmt.Fprintf(&buf, "| %d | %s | %s | %s |\n", item.Position+1, escapeCell(item.Text), item.Outcome, escapeCell(track))
	}

	return buf.Bytes(), nil
}

// ExportRunToText renders a run as plain text
func ExportRunToText(run *models.IngestRun, items []*models.IngestItem) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Run #%d: %s\n", run.Sequence(), run.PlaylistName())
	fmt.Fprintf(&buf, "Status: %s\n", run.Status())
	fmt.Fprintf(&buf, "Items: %d\n\n", run.ItemsTotal())

	for _, item := range items {
		line := fmt.Sprintf("%d. [%s] %s", item.Position+1, item.Outcome, item.Text)
		if item.TrackURI != "" {
			line += " -> " + item.TrackURI
		}
		if item.Error != "" {
			line += " (" + item.Error + ")"
		}
		buf.WriteString(line + "\n")
	}

	return buf.Bytes(), nil
}

// Render renders a run in the named format.
func Render(format string, run *models.IngestRun, items []*models.IngestItem) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ExportRunToCSV(items)
	case FormatMarkdown, "markdown":
		return ExportRunToMarkdown(run, items)
	case FormatText, "text", "":
		return ExportRunToText(run, items)
	case FormatJSON:
		return shared.MarshalJSON(Summarize(run, items), true)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
}

// WriteRunExport renders a run and writes it to path.
//
// Defaults to run_{sequence}.{format} as the filename.
func WriteRunExport(format string, run *models.IngestRun, items []*models.IngestItem, path string) (string, error) {
	data, err := Render(format, run, items)
	if err != nil {
		return "", err
	}

	if path == "" {
		ext := format
		if ext == "" {
			ext = FormatText
		}
		path = fmt.Sprintf("run_%d.%s", run.Sequence(), ext)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	return path, nil
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
