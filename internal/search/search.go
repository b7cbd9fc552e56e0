// Package search gathers raw web results about an artist from several
// external sources and normalizes them into one Result shape.
package search

import (
	"context"
	"net/url"
	"time"

	"musicstream/internal/config"
)

// Result is the common shape every source adapter produces.
type Result struct {
	Title       string
	URL         string
	Description string
	Age         string // free-form age hint; format varies by source
	Hostname    string
	Thumbnail   string
}

// Host returns the structured hostname, falling back to parsing the URL.
func (r Result) Host() string {
	if r.Hostname != "" {
		return r.Hostname
	}
	u, err := url.Parse(r.URL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// Source wraps one external data source. Implementations must tolerate
// partial failures: an error from one underlying request should be logged
// and skipped, not abort the whole call.
type Source interface {
	Name() string
	Search(ctx context.Context, artist config.Artist) ([]Result, error)
}

// dedupByURL keeps the first occurrence of each URL.
func dedupByURL(results []Result) []Result {
	seen := make(map[string]bool, len(results))
	out := results[:0]
	for _, r := range results {
		if seen[r.URL] {
			continue
		}
		seen[r.URL] = true
		out = append(out, r)
	}
	return out
}

// sleep pauses between successive requests to the same provider,
// returning early when the context is done.
func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
