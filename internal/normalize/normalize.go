// Package normalize merges and pre-filters the raw search results for one
// artist before they reach the extraction step.
package normalize

import (
	"strings"

	"musicstream/internal/recency"
	"musicstream/internal/search"
)

// BlockedDomains are hostname suffixes that never carry curatable news:
// lyrics databases, ticket resale, reference sites, and marketplaces.
var BlockedDomains = []string{
	// lyrics
	"genius.com",
	"azlyrics.com",
	"uta-net.com",
	"utaten.com",
	"j-lyric.net",
	// ticket resale
	"stubhub.com",
	"viagogo.com",
	"ticketjam.jp",
	// reference
	"wikipedia.org",
	"fandom.com",
	// marketplace / discography
	"discogs.com",
	"rakuten.co.jp",
	"mercari.com",
	"amazon.co.jp",
}

// Options adjusts filtering for one artist.
type Options struct {
	// Blocked overrides BlockedDomains when non-nil.
	Blocked []string
	// ExcludeTerms drops results mentioning a term in title or snippet,
	// used to screen out same-name noise for ambiguous artist names.
	ExcludeTerms []string
}

// Report counts what happened to the input, for per-artist logging.
type Report struct {
	Raw      int
	Dupes    int
	Blocked  int
	Excluded int
	Stale    int
	Kept     int
}

// Filter deduplicates by URL (first occurrence wins), strips blocked
// domains and excluded terms, and drops results whose age hint marks them
// as clearly stale. Order of survivors is first-seen order.
func Filter(results []search.Result, opts Options) ([]search.Result, Report) {
	blocked := opts.Blocked
	if blocked == nil {
		blocked = BlockedDomains
	}

	rep := Report{Raw: len(results)}
	seen := make(map[string]bool, len(results))
	var kept []search.Result
	for _, r := range results {
		switch {
		case seen[r.URL]:
			rep.Dupes++
		case hostBlocked(r.Host(), blocked):
			seen[r.URL] = true
			rep.Blocked++
		case matchesTerm(r, opts.ExcludeTerms):
			seen[r.URL] = true
			rep.Excluded++
		case recency.Stale(r.Age):
			seen[r.URL] = true
			rep.Stale++
		default:
			seen[r.URL] = true
			kept = append(kept, r)
		}
	}
	rep.Kept = len(kept)
	return kept, rep
}

// hostBlocked matches by exact suffix: "genius.com" blocks "genius.com"
// and "www.genius.com" but not "notgenius.com".
func hostBlocked(host string, blocked []string) bool {
	if host == "" {
		return false
	}
	host = strings.ToLower(host)
	for _, d := range blocked {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

func matchesTerm(r search.Result, terms []string) bool {
	if len(terms) == 0 {
		return false
	}
	text := strings.ToLower(r.Title + " " + r.Description)
	for _, t := range terms {
		if t != "" && strings.Contains(text, strings.ToLower(t)) {
			return true
		}
	}
	return false
}
