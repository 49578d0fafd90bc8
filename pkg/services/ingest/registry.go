package ingest

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/signal-works/pulse/pkg/models/domain"
)

// ReaderFunc parses one input file into named tables.
type ReaderFunc func(path string) (map[string]domain.Dataset, error)

// Registry manages file format readers
type Registry interface {
	// Register adds a reader for a file extension
	Register(format string, reader ReaderFunc) error
	// Read parses the file at path using the reader registered for its
	// extension
	Read(path string) (map[string]domain.Dataset, error)
	// ListFormats returns the registered extensions
	ListFormats() []string
}

type registry struct {
	mu      sync.RWMutex
	readers map[string]ReaderFunc
}

// NewRegistry creates a reader registry preloaded with the given readers.
func NewRegistry(readers map[string]ReaderFunc) Registry {
	r := &registry{
		readers: make(map[string]ReaderFunc),
	}
	for format, reader := range readers {
		_ = r.Register(format, reader)
	}
	return r
}

// DefaultRegistry covers the built in formats.
func DefaultRegistry() Registry {
	return NewRegistry(map[string]ReaderFunc{
		"csv":  ReadCSV,
		"json": ReadJSON,
	})
}

func (r *registry) Register(format string, reader ReaderFunc) error {
	if format == "" {
		return fmt.Errorf("format name cannot be empty")
	}
	if reader == nil {
		return fmt.Errorf("reader cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := normalizeExt(format)
	if _, exists := r.readers[key]; exists {
		return fmt.Errorf("format %q is already registered", format)
	}

	r.readers[key] = reader
	return nil
}

func (r *registry) Read(path string) (map[string]domain.Dataset, error) {
	ext := normalizeExt(filepath.Ext(path))

	r.mu.RLock()
	reader, exists := r.readers[ext]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("unsupported input file type %q", ext)
	}

	return reader(path)
}

func (r *registry) ListFormats() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	formats := make([]string, 0, len(r.readers))
	for format := range r.readers {
		formats = append(formats, format)
	}
	sort.Strings(formats)
	return formats
}

func normalizeExt(s string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))
}
