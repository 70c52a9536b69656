package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

var (
	// ErrUnsupportedFormat is returned for any extension outside pdf/txt/csv.
	ErrUnsupportedFormat = errors.New("unsupported document format")
	// ErrParse wraps corrupt or unreadable input; no partial records survive it.
	ErrParse = errors.New("document parse failed")
)

// LoadDocument parses the stored file at path into ordered records. Dispatch
// is by the extension of the original filename: one record per PDF page, one
// per CSV data row, one for a whole TXT file.
func LoadDocument(path, originalName string) ([]Record, error) {
	switch strings.ToLower(filepath.Ext(originalName)) {
	case ".pdf":
		return loadPDF(path, originalName)
	case ".txt":
		return loadTXT(path, originalName)
	case ".csv":
		return loadCSV(path, originalName)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(originalName))
	}
}

func loadPDF(path, originalName string) ([]Record, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open pdf: %v", ErrParse, err)
	}
	defer f.Close()

	total := reader.NumPage()
	records := make([]Record, 0, total)
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("%w: extract page %d: %v", ErrParse, i, err)
		}
		records = append(records, Record{
			Text: strings.TrimSpace(text),
			Provenance: Provenance{
				Source:  originalName,
				Locator: fmt.Sprintf("halaman %d", i),
			},
		})
	}
	return records, nil
}

func loadTXT(path, originalName string) ([]Record, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read txt: %v", ErrParse, err)
	}
	return []Record{{
		Text:       strings.TrimSpace(string(raw)),
		Provenance: Provenance{Source: originalName},
	}}, nil
}

// loadCSV turns each data row into "column: value" lines so tabular content
// stays readable for the embedding model.
func loadCSV(path, originalName string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open csv: %v", ErrParse, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: read csv: %v", ErrParse, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := rows[0]
	records := make([]Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		var b strings.Builder
		for j, value := range row {
			column := fmt.Sprintf("col%d", j+1)
			if j < len(header) {
				column = strings.TrimSpace(header[j])
			}
			fmt.Fprintf(&b, "%s: %s\n", column, strings.TrimSpace(value))
		}
		records = append(records, Record{
			Text: strings.TrimSpace(b.String()),
			Provenance: Provenance{
				Source:  originalName,
				Locator: fmt.Sprintf("baris %d", i+1),
			},
		})
	}
	return records, nil
}
