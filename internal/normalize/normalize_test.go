package normalize

import (
	"testing"

	"musicstream/internal/search"
)

func TestFilterDedupFirstWins(t *testing.T) {
	results := []search.Result{
		{Title: "first", URL: "https://example.com/a"},
		{Title: "second", URL: "https://example.com/b"},
		{Title: "repeat", URL: "https://example.com/a"},
	}
	kept, rep := Filter(results, Options{})
	if len(kept) != 2 {
		t.Fatalf("expected 2 kept, got %d", len(kept))
	}
	if kept[0].Title != "first" || kept[1].Title != "second" {
		t.Errorf("expected first-occurrence order, got %q, %q", kept[0].Title, kept[1].Title)
	}
	if rep.Dupes != 1 {
		t.Errorf("expected 1 dupe, got %d", rep.Dupes)
	}
}

func TestFilterBlockedDomains(t *testing.T) {
	results := []search.Result{
		{URL: "https://genius.com/song", Hostname: "genius.com"},
		{URL: "https://www.genius.com/song2", Hostname: "www.genius.com"},
		{URL: "https://notgenius.com/news", Hostname: "notgenius.com"},
		{URL: "https://en.wikipedia.org/wiki/Band", Hostname: "en.wikipedia.org"},
	}
	kept, rep := Filter(results, Options{})
	if len(kept) != 1 {
		t.Fatalf("expected 1 kept, got %d: %v", len(kept), kept)
	}
	if kept[0].Hostname != "notgenius.com" {
		t.Errorf("suffix match should not block notgenius.com, kept %q", kept[0].Hostname)
	}
	if rep.Blocked != 3 {
		t.Errorf("expected 3 blocked, got %d", rep.Blocked)
	}
}

func TestFilterHostnameFromURL(t *testing.T) {
	// No structured hostname: parsed from the URL instead.
	results := []search.Result{
		{URL: "https://www.discogs.com/release/123"},
	}
	kept, _ := Filter(results, Options{})
	if len(kept) != 0 {
		t.Errorf("expected blocked via parsed hostname, kept %d", len(kept))
	}
}

func TestFilterScenario(t *testing.T) {
	// 5 results, 2 share a URL, 1 blocked hostname: expect 3 survivors.
	results := []search.Result{
		{Title: "a", URL: "https://site.com/1", Hostname: "site.com"},
		{Title: "b", URL: "https://site.com/2", Hostname: "site.com"},
		{Title: "dup of a", URL: "https://site.com/1", Hostname: "site.com"},
		{Title: "lyrics", URL: "https://genius.com/x", Hostname: "genius.com"},
		{Title: "c", URL: "https://other.com/3", Hostname: "other.com"},
	}
	kept, rep := Filter(results, Options{})
	if len(kept) != 3 {
		t.Fatalf("expected 3 kept, got %d", len(kept))
	}
	if rep.Dupes != 1 || rep.Blocked != 1 {
		t.Errorf("report = %+v, want 1 dupe and 1 blocked", rep)
	}
}

func TestFilterStaleHints(t *testing.T) {
	results := []search.Result{
		{URL: "https://a.com/1", Age: "2 years ago"},
		{URL: "https://a.com/2", Age: "3 months ago"},
		{URL: "https://a.com/3", Age: "5 days ago"},
		{URL: "https://a.com/4", Age: "some gibberish"}, // unparseable passes
		{URL: "https://a.com/5"},
	}
	kept, rep := Filter(results, Options{})
	if len(kept) != 3 {
		t.Fatalf("expected 3 kept, got %d", len(kept))
	}
	if rep.Stale != 2 {
		t.Errorf("expected 2 stale, got %d", rep.Stale)
	}
}

func TestFilterExcludeTerms(t *testing.T) {
	results := []search.Result{
		{URL: "https://a.com/1", Title: "New album announced"},
		{URL: "https://a.com/2", Title: "Basketball team wins", Description: "sports"},
	}
	kept, rep := Filter(results, Options{ExcludeTerms: []string{"basketball"}})
	if len(kept) != 1 {
		t.Fatalf("expected 1 kept, got %d", len(kept))
	}
	if rep.Excluded != 1 {
		t.Errorf("expected 1 excluded, got %d", rep.Excluded)
	}
}

func TestFilterEmpty(t *testing.T) {
	kept, rep := Filter(nil, Options{})
	if len(kept) != 0 || rep.Raw != 0 {
		t.Errorf("expected empty output for empty input")
	}
}

func TestHostBlocked(t *testing.T) {
	tests := []struct {
		host string
		want bool
	}{
		{"genius.com", true},
		{"www.genius.com", true},
		{"GENIUS.COM", true},
		{"notgenius.com", false},
		{"genius.com.evil.net", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := hostBlocked(tt.host, BlockedDomains); got != tt.want {
			t.Errorf("hostBlocked(%q) = %v, want %v", tt.host, got, tt.want)
		}
	}
}
