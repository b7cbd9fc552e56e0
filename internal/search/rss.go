package search

import (
	"context"
	"log"
	"net/url"
	"strings"

	"github.com/mmcdole/gofeed"

	"musicstream/internal/config"
)

// RSSFetcher pulls results from per-artist feed URLs. Artists without
// configured feeds yield an empty result set.
type RSSFetcher struct {
	parser *gofeed.Parser
	logger *log.Logger
}

func NewRSSFetcher(logger *log.Logger) *RSSFetcher {
	return &RSSFetcher{parser: gofeed.NewParser(), logger: logger}
}

func (f *RSSFetcher) Name() string { return "rss" }

func (f *RSSFetcher) Search(ctx context.Context, artist config.Artist) ([]Result, error) {
	var all []Result
	for _, feedURL := range artist.Feeds {
		feed, err := f.parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			f.logger.Printf("rss: fetching %s: %v", feedURL, err)
			continue
		}
		for _, item := range feed.Items {
			if item.Link == "" || item.Title == "" {
				continue
			}

			desc := item.Description
			if desc == "" {
				desc = item.Content
			}
			desc = truncate(stripHTML(desc), 300)

			var age string
			if item.PublishedParsed != nil {
				age = "Published " + item.PublishedParsed.Format("2006-01-02")
			} else if item.UpdatedParsed != nil {
				age = "Published " + item.UpdatedParsed.Format("2006-01-02")
			}

			all = append(all, Result{
				Title:       item.Title,
				URL:         item.Link,
				Description: desc,
				Age:         age,
				Hostname:    hostOf(item.Link),
			})
		}
	}
	return dedupByURL(all), nil
}

func hostOf(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

func stripHTML(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
