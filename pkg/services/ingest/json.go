package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/signal-works/pulse/pkg/models/domain"
)

// ReadJSON parses a JSON file into named tables. A top level array becomes
// one table named after the file stem; a top level object contributes one
// table per key holding a list of objects. Objects with no tabular keys
// flatten into a single row so downstream resolution still has something to
// work with.
func ReadJSON(path string) (map[string]domain.Dataset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read json: %w", err)
	}

	var obj any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("parse json %s: %w", filepath.Base(path), err)
	}

	switch v := obj.(type) {
	case []any:
		ds, ok := tableFromList(v)
		if !ok {
			return nil, fmt.Errorf("json %s: array does not hold objects", filepath.Base(path))
		}
		return map[string]domain.Dataset{fileStem(path): ds}, nil
	case map[string]any:
		return tablesFromObject(v, fileStem(path)), nil
	default:
		return nil, fmt.Errorf("json %s: unsupported top level %T", filepath.Base(path), obj)
	}
}

func tablesFromObject(obj map[string]any, stem string) map[string]domain.Dataset {
	tables := make(map[string]domain.Dataset)
	for key, val := range obj {
		list, ok := val.([]any)
		if !ok {
			continue
		}
		if ds, ok := tableFromList(list); ok {
			tables[key] = ds
		}
	}
	if len(tables) > 0 {
		return tables
	}

	// No tabular keys: flatten scalars (and one level of nesting) into a
	// single row keyed by the file stem.
	row := domain.Row{}
	for key, val := range obj {
		switch nested := val.(type) {
		case map[string]any:
			for nk, nv := range nested {
				if scalar(nv) {
					row[key+"."+nk] = nv
				}
			}
		default:
			if scalar(val) {
				row[key] = val
			}
		}
	}
	return map[string]domain.Dataset{stem: domain.FromRecords([]domain.Row{row})}
}

func tableFromList(list []any) (domain.Dataset, bool) {
	rows := make([]domain.Row, 0, len(list))
	for _, item := range list {
		rec, ok := item.(map[string]any)
		if !ok {
			return domain.Dataset{}, false
		}
		rows = append(rows, domain.Row(rec))
	}
	if len(rows) == 0 {
		return domain.Dataset{}, false
	}
	return domain.FromRecords(rows), true
}

func scalar(v any) bool {
	switch v.(type) {
	case nil, bool, float64, string, json.Number:
		return true
	default:
		return false
	}
}
