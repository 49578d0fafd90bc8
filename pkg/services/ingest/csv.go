package ingest

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/signal-works/pulse/pkg/models/domain"
)

// ReadCSV parses a CSV file into a single table named after the file stem.
// The first record is the header; short rows leave trailing cells nil.
func ReadCSV(path string) (map[string]domain.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv %s: %w", filepath.Base(path), err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv %s has no header row", filepath.Base(path))
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(h)
	}

	rows := make([]domain.Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(domain.Row, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = coerceCell(rec[i])
			} else {
				row[col] = nil
			}
		}
		rows = append(rows, row)
	}

	return map[string]domain.Dataset{
		fileStem(path): domain.NewDataset(header, rows),
	}, nil
}

// coerceCell types a raw CSV cell: empty becomes nil, bare numbers become
// float64, everything else stays a string. Formatted numbers ("$1,200",
// "12%") stay strings; the checks parse those lazily.
func coerceCell(s string) any {
	v := strings.TrimSpace(s)
	if v == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return v
}

func fileStem(path string) string {
	base := filepath.Base(path)
	return strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
}
