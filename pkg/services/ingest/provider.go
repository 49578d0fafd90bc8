package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/signal-works/pulse/pkg/models/domain"
)

// Static serves a fixed payload to every domain. The HTTP API wraps inline
// request datasets in one of these. Evaluation never writes to a payload, so
// sharing the tables across domains is safe.
type Static struct {
	tables map[string]domain.Dataset
}

func NewStatic(tables map[string]domain.Dataset) *Static {
	return &Static{tables: tables}
}

func (s *Static) Datasets(_ context.Context, _ domain.Domain) (map[string]domain.Dataset, error) {
	return s.tables, nil
}

// File serves every domain from a single input file, the way one spreadsheet
// export answers for the whole business. The file is read on first use.
type File struct {
	reg  Registry
	path string

	once   sync.Once
	tables map[string]domain.Dataset
	err    error
}

func NewFile(reg Registry, path string) *File {
	return &File{reg: reg, path: path}
}

func (f *File) Datasets(_ context.Context, _ domain.Domain) (map[string]domain.Dataset, error) {
	f.once.Do(func() {
		f.tables, f.err = f.reg.Read(f.path)
	})
	return f.tables, f.err
}

// Dir routes per-domain inputs from a directory. A flat file named after a
// domain or one of its aliases (finance.csv, hr.json) becomes that domain's
// single table; a domain-named subdirectory contributes one table per file
// inside it. Domains with no input at all are an error when asked for.
type Dir struct {
	reg   Registry
	paths map[domain.Domain][]string
}

func NewDir(reg Registry, root string) (*Dir, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read input dir: %w", err)
	}

	paths := make(map[domain.Domain][]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			d, err := domain.ParseDomain(name)
			if err != nil {
				continue
			}
			sub, err := os.ReadDir(filepath.Join(root, name))
			if err != nil {
				return nil, fmt.Errorf("read input dir: %w", err)
			}
			for _, file := range sub {
				if !file.IsDir() {
					paths[d] = append(paths[d], filepath.Join(root, name, file.Name()))
				}
			}
			continue
		}
		d, err := domain.ParseDomain(fileStem(name))
		if err != nil {
			continue
		}
		paths[d] = append(paths[d], filepath.Join(root, name))
	}

	return &Dir{reg: reg, paths: paths}, nil
}

// Available lists the domains the directory holds inputs for, in canonical
// order. Callers use it to narrow a run to what can actually be evaluated.
func (p *Dir) Available() []domain.Domain {
	out := make([]domain.Domain, 0, len(p.paths))
	for _, d := range domain.Domains() {
		if len(p.paths[d]) > 0 {
			out = append(out, d)
		}
	}
	return out
}

func (p *Dir) Datasets(_ context.Context, d domain.Domain) (map[string]domain.Dataset, error) {
	files := p.paths[d]
	if len(files) == 0 {
		return nil, fmt.Errorf("no input files for domain %q", d)
	}
	sort.Strings(files)

	tables := make(map[string]domain.Dataset)
	for _, path := range files {
		read, err := p.reg.Read(path)
		if err != nil {
			return nil, err
		}
		for name, ds := range read {
			tables[name] = ds
		}
	}
	return tables, nil
}

// FromRows converts a decoded request payload into datasets, one table per
// key. Column order is derived, so JSON payloads and file inputs land on the
// same shape.
func FromRows(payload map[string][]map[string]any) map[string]domain.Dataset {
	tables := make(map[string]domain.Dataset, len(payload))
	for name, rows := range payload {
		records := make([]domain.Row, 0, len(rows))
		for _, r := range rows {
			records = append(records, domain.Row(r))
		}
		tables[name] = domain.FromRecords(records)
	}
	return tables
}
