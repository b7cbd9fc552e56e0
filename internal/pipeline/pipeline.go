// Package pipeline runs the curation batch: for each artist, gather
// search results from every source, normalize and pre-filter them, extract
// news with the curator, post-process, and finally persist the merged feed.
//
// Subjects are processed strictly sequentially; a failing subject or
// adapter is logged and skipped, never fatal. Only a failed feed write
// aborts the run.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"musicstream/internal/config"
	"musicstream/internal/curator"
	"musicstream/internal/normalize"
	"musicstream/internal/search"
	"musicstream/internal/store"
)

// Curator is the generative extraction boundary.
type Curator interface {
	Curate(ctx context.Context, artist config.Artist, results []search.Result) ([]curator.NewsItem, error)
}

// ImageGenerator backfills thumbnails for items that lack one.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, item curator.NewsItem) (string, error)
}

// Pipeline holds the run's dependencies, constructed once at start.
type Pipeline struct {
	Sources []search.Source
	Curator Curator
	Images  ImageGenerator // nil disables image backfill
	Store   store.Store
	Logger  *log.Logger

	// Delay is the pause after each artist's external calls, defaulting
	// to 2s when zero.
	Delay time.Duration
	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time
}

// ArtistReport holds the per-artist counters surfaced for operability.
type ArtistReport struct {
	Artist   string
	Raw      int
	Kept     int
	Curated  int
	Accepted int
}

// RunReport summarizes a whole run.
type RunReport struct {
	Artists  []ArtistReport
	NewItems int
}

// Run processes every artist and persists the merged feed. A run that
// finds nothing new is a normal outcome and leaves the store untouched.
func (p *Pipeline) Run(ctx context.Context, artists []config.Artist) (*RunReport, error) {
	now := p.now()

	history, err := p.Store.Load(ctx)
	if err != nil {
		// Unreadable history means "no prior feed", not a failed run.
		p.Logger.Printf("could not read prior feed, starting fresh: %v", err)
		history = nil
	}

	seen := make(map[string]bool, len(history))
	for _, it := range history {
		seen[it.URL] = true
	}

	report := &RunReport{}
	var fresh []store.Item
	for i, artist := range artists {
		ar := p.runArtist(ctx, artist, now, seen, &fresh)
		report.Artists = append(report.Artists, ar)

		if i < len(artists)-1 {
			p.pause(ctx)
		}
		if ctx.Err() != nil {
			break
		}
	}

	report.NewItems = len(fresh)
	if len(fresh) == 0 {
		p.Logger.Printf("no new items found")
		return report, nil
	}

	merged := store.Merge(history, fresh)
	if err := p.Store.Save(ctx, merged); err != nil {
		// Silent data loss is worse than a loud failure.
		return report, fmt.Errorf("saving feed: %w", err)
	}
	p.Logger.Printf("saved %d new items (%d total)", len(fresh), len(merged))
	return report, nil
}

func (p *Pipeline) runArtist(ctx context.Context, artist config.Artist, now time.Time, seen map[string]bool, fresh *[]store.Item) ArtistReport {
	ar := ArtistReport{Artist: artist.Name}

	// Sources run one after another to respect shared rate limits.
	var results []search.Result
	for _, src := range p.Sources {
		found, err := src.Search(ctx, artist)
		if err != nil {
			p.Logger.Printf("%s: source %s failed: %v", artist.Name, src.Name(), err)
			continue
		}
		results = append(results, found...)
	}
	ar.Raw = len(results)

	kept, rep := normalize.Filter(results, normalize.Options{ExcludeTerms: artist.ExcludeTerms})
	ar.Kept = rep.Kept
	p.Logger.Printf("%s: %d raw, %d dupes, %d blocked, %d excluded, %d stale, %d kept",
		artist.Name, rep.Raw, rep.Dupes, rep.Blocked, rep.Excluded, rep.Stale, rep.Kept)
	if len(kept) == 0 {
		return ar
	}

	items, err := p.Curator.Curate(ctx, artist, kept)
	if err != nil {
		// Schema failure is contained here: zero items, next artist.
		p.Logger.Printf("%s: curation failed: %v", artist.Name, err)
		return ar
	}
	ar.Curated = len(items)

	for _, item := range items {
		if seen[item.URL] {
			p.Logger.Printf("%s: skipping duplicate: %s", artist.Name, item.Title)
			continue
		}
		seen[item.URL] = true

		if item.ImageURL == "" && p.Images != nil {
			img, err := p.Images.GenerateImage(ctx, item)
			if err != nil {
				p.Logger.Printf("%s: image generation failed for %q: %v", artist.Name, item.Title, err)
			} else {
				item.ImageURL = img
			}
		}

		*fresh = append(*fresh, store.Item{
			NewsItem:  item,
			ID:        uuid.NewString(),
			Artist:    artist.Name,
			FetchedAt: now,
		})
		ar.Accepted++
	}

	p.Logger.Printf("%s: %d curated, %d accepted", artist.Name, ar.Curated, ar.Accepted)
	return ar
}

func (p *Pipeline) pause(ctx context.Context) {
	d := p.Delay
	if d == 0 {
		d = 2 * time.Second
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}
