// Package store persists the curated news feed.
//
// Merge policy: append-and-resort. New items from a run are merged with
// the existing history and the whole feed is rewritten in descending
// effective-date order; history is never wiped except by retention prune.
package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"musicstream/internal/config"
	"musicstream/internal/curator"
)

// Item is a persisted news entry: a curated item stamped with identity
// and provenance. Immutable once written.
type Item struct {
	curator.NewsItem
	ID        string    `json:"id"`
	Artist    string    `json:"artist"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// Store reads and writes the full feed. Save must be atomic: either the
// whole rewritten feed lands or the previous feed stays intact.
type Store interface {
	Load(ctx context.Context) ([]Item, error)
	Save(ctx context.Context, items []Item) error
	Close() error
}

// Open returns the configured backend, defaulting to the JSON file store.
func Open(cfg config.StoreConfig, path string) (Store, error) {
	switch cfg.Backend {
	case "sqlite":
		return OpenSQLite(path)
	case "", "json":
		return NewJSONStore(path), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// EffectiveDate is the date used for feed ordering: the item's reported
// date when parseable, else the retrieval time, else the zero time.
func EffectiveDate(it Item) time.Time {
	if t, err := time.Parse("2006-01-02", it.Date); err == nil {
		return t
	}
	return it.FetchedAt
}

// Sort orders items by descending effective date, stable so ties keep
// their relative order.
func Sort(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return EffectiveDate(items[i]).After(EffectiveDate(items[j]))
	})
}

// Merge combines fresh items with history and returns the resorted feed.
func Merge(history, fresh []Item) []Item {
	merged := make([]Item, 0, len(history)+len(fresh))
	merged = append(merged, fresh...)
	merged = append(merged, history...)
	Sort(merged)
	return merged
}

// Prune drops items whose effective date is older than the retention
// window, returning the surviving items and the number removed.
func Prune(items []Item, retention time.Duration, now time.Time) ([]Item, int) {
	cutoff := now.Add(-retention)
	kept := make([]Item, 0, len(items))
	for _, it := range items {
		if EffectiveDate(it).Before(cutoff) {
			continue
		}
		kept = append(kept, it)
	}
	return kept, len(items) - len(kept)
}
