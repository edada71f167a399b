// Package kb loads knowledge-base source files for indexing.
package kb

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/BlueSinkers/medical-summarizer-t3/internal/domain"
)

// LoadDocuments reads every file matching the glob pattern. CSV files become
// one document per row; everything else is read as UTF-8 text. Per-file
// failures are logged and skipped so one bad file cannot take the KB down.
// PDF extraction is out of scope; .pdf files are skipped.
func LoadDocuments(pattern string) ([]domain.Document, error) {
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to glob %q: %w", pattern, err)
	}

	var docs []domain.Document
	for _, path := range paths {
		base := filepath.Base(path)
		switch strings.ToLower(filepath.Ext(path)) {
		case ".pdf":
			log.Printf("kb: skipping %s (pdf extraction not supported)", base)
		case ".csv":
			rows, err := loadCSV(path)
			if err != nil {
				log.Printf("kb: failed to load %s: %v", base, err)
				continue
			}
			docs = append(docs, rows...)
		default:
			doc, err := loadText(path)
			if err != nil {
				log.Printf("kb: failed to load %s: %v", base, err)
				continue
			}
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

func loadText(path string) (domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Document{}, err
	}
	return domain.Document{
		Source:  filepath.Base(path),
		Content: string(data),
	}, nil
}

// loadCSV renders each row as "column: value" lines, one document per row,
// so tabular reference data stays retrievable as prose.
func loadCSV(path string) ([]domain.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	if len(records) < 2 {
		return nil, nil
	}

	header := records[0]
	base := filepath.Base(path)
	docs := make([]domain.Document, 0, len(records)-1)
	for _, row := range records[1:] {
		lines := make([]string, 0, len(row))
		for i, value := range row {
			col := fmt.Sprintf("col%d", i)
			if i < len(header) {
				col = header[i]
			}
			lines = append(lines, fmt.Sprintf("%s: %s", col, value))
		}
		docs = append(docs, domain.Document{
			Source:  base,
			Content: strings.Join(lines, "\n"),
		})
	}
	return docs, nil
}
