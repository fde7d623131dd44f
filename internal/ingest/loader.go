// Package ingest normalizes the raw anime dataset into the single
// combined_info column consumed by the indexer.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sena/anime-rec/internal/recerr"
)

// Columns the raw CSV header must contain. Per-row blanks are dropped,
// a missing column is a schema failure.
var requiredColumns = []string{"Name", "Genres", "Synopsis"}

type Loader struct {
	rawPath       string
	processedPath string
}

func NewLoader(rawPath, processedPath string) *Loader {
	return &Loader{rawPath: rawPath, processedPath: processedPath}
}

// LoadAndProcess reads the raw CSV, validates the schema, builds the
// combined semantic text field per row and writes the processed CSV.
// It returns the path of the processed file.
func (l *Loader) LoadAndProcess() (string, error) {
	slog.Info("starting data ingestion", "raw", l.rawPath)

	combined, dropped, err := l.process()
	if err != nil {
		return "", fmt.Errorf("%w: %w", recerr.ErrIngestion, err)
	}

	if err := writeProcessed(l.processedPath, combined); err != nil {
		return "", fmt.Errorf("%w: %w", recerr.ErrIngestion, err)
	}

	slog.Info("data ingestion completed",
		"output", l.processedPath,
		"rows", len(combined),
		"dropped", dropped,
	)
	return l.processedPath, nil
}

func (l *Loader) process() ([]string, int, error) {
	f, err := os.Open(l.rawPath)
	if err != nil {
		return nil, 0, fmt.Errorf("open raw dataset: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("read header: %w", err)
	}

	cols, err := columnIndexes(header)
	if err != nil {
		return nil, 0, err
	}

	var combined []string
	dropped := 0
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed row, skip it rather than abort the run.
			dropped++
			continue
		}

		name := fieldAt(row, cols[0])
		genres := fieldAt(row, cols[1])
		synopsis := fieldAt(row, cols[2])
		if name == "" || genres == "" || synopsis == "" {
			dropped++
			continue
		}

		combined = append(combined, CombinedInfo(name, synopsis, genres))
	}

	return combined, dropped, nil
}

func columnIndexes(header []string) ([]int, error) {
	idx := make([]int, len(requiredColumns))
	var missing []string
	for i, want := range requiredColumns {
		idx[i] = -1
		for j, h := range header {
			if strings.TrimSpace(h) == want {
				idx[i] = j
				break
			}
		}
		if idx[i] == -1 {
			missing = append(missing, want)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing required columns %v", recerr.ErrSchema, missing)
	}
	return idx, nil
}

func fieldAt(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return CleanText(row[i])
}

// CombinedInfo builds the consolidated semantic text for one record.
func CombinedInfo(name, synopsis, genres string) string {
	return "Title: " + name + " | Overview: " + synopsis + " | Genres: " + genres
}

// CleanText strips HTML markup left over from scraping and collapses
// whitespace. Synopses in the source dataset routinely carry <br> and
// <i> fragments.
func CleanText(s string) string {
	s = strings.TrimSpace(s)
	if strings.ContainsRune(s, '<') {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(s)); err == nil {
			s = doc.Text()
		}
	}
	return strings.Join(strings.Fields(s), " ")
}

func writeProcessed(path string, combined []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create processed dataset: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"combined_info"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, c := range combined {
		if err := w.Write([]string{c}); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush processed dataset: %w", err)
	}
	return nil
}

// ReadProcessed loads the combined_info column back from a processed
// CSV, for the indexing step.
func ReadProcessed(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open processed dataset: %w", recerr.ErrIngestion, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: read processed header: %w", recerr.ErrIngestion, err)
	}
	col := -1
	for i, h := range header {
		if h == "combined_info" {
			col = i
			break
		}
	}
	if col == -1 {
		return nil, fmt.Errorf("%w: %w: processed dataset has no combined_info column", recerr.ErrIngestion, recerr.ErrSchema)
	}

	var out []string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read processed row: %w", recerr.ErrIngestion, err)
		}
		if col < len(row) && row[col] != "" {
			out = append(out, row[col])
		}
	}
	return out, nil
}
