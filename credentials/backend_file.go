package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var _ Backend = (*FileBackend)(nil)

// FileBackend stores one JSON document per browser profile
type FileBackend struct {
	mu   sync.Mutex
	path string
}

// NewFileBackend returns a backend persisting to dir/<browserID>.json
func NewFileBackend(dir, browserID string) (*FileBackend, error) {
	if dir == "" {
		return nil, fmt.Errorf("[NewFileBackend] directory is required")
	}
	if browserID == "" || strings.ContainsAny(browserID, `/\.`) {
		return nil, fmt.Errorf("[NewFileBackend] invalid browser id %q", browserID)
	}
	return &FileBackend{path: filepath.Join(dir, browserID+".json")}, nil
}

func (b *FileBackend) Load(_ context.Context) (map[string]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	data, err := os.ReadFile(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("[FileBackend Load] %w", err)
	}

	values := map[string]string{}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("[FileBackend Load] corrupt credential file: %w", err)
	}
	return values, nil
}

// Save writes to a temporary file and renames it over the old one, so a
// reader never sees half of a credential set.
func (b *FileBackend) Save(_ context.Context, values map[string]string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("[FileBackend Save] %w", err)
	}

	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("[FileBackend Save] %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".credentials-*")
	if err != nil {
		return fmt.Errorf("[FileBackend Save] %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("[FileBackend Save] %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("[FileBackend Save] %w", err)
	}
	if err := os.Rename(tmp.Name(), b.path); err != nil {
		return fmt.Errorf("[FileBackend Save] %w", err)
	}
	return nil
}

func (b *FileBackend) Clear(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := os.Remove(b.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("[FileBackend Clear] %w", err)
	}
	return nil
}
