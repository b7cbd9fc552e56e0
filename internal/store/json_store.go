package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// JSONStore keeps the whole feed in one JSON array, the artifact a static
// site reads directly.
type JSONStore struct {
	path string
}

func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

func (s *JSONStore) Load(ctx context.Context) ([]Item, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading feed %s: %w", s.path, err)
	}
	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parsing feed %s: %w", s.path, err)
	}
	return items, nil
}

// Save writes the feed to a temp file and renames it into place, so a
// failed write leaves the previous feed untouched.
func (s *JSONStore) Save(ctx context.Context, items []Item) error {
	if items == nil {
		items = []Item{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding feed: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating feed dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".news-*.json")
	if err != nil {
		return fmt.Errorf("creating temp feed: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing feed: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing feed: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replacing feed: %w", err)
	}
	return nil
}

func (s *JSONStore) Close() error { return nil }
