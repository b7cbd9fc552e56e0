package search

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"musicstream/internal/config"
)

const scraperUserAgent = "musicstream/1.0 (news aggregator)"

var (
	natalieLinkRe = regexp.MustCompile(`^/music/news/\d+$`)
	barksLinkRe   = regexp.MustCompile(`^/news/\d+/?`)

	// 2024年5月20日 / 5月20日 (current year assumed)
	jaFullDateRe  = regexp.MustCompile(`(\d{4})年(\d{1,2})月(\d{1,2})日`)
	jaShortDateRe = regexp.MustCompile(`(\d{1,2})月(\d{1,2})日`)
	// 2024.05.20
	dottedDateRe = regexp.MustCompile(`(\d{4})\.(\d{2})\.(\d{2})`)
)

// MediaScraper pulls recent article links from fixed artist pages on
// music media sites. Pages without matches yield an empty result, not
// an error; absent dates yield results without an age hint.
type MediaScraper struct {
	client *http.Client
	logger *log.Logger
	now    func() time.Time

	natalieBase string
	barksBase   string
}

func NewMediaScraper(logger *log.Logger) *MediaScraper {
	return &MediaScraper{
		client:      &http.Client{Timeout: 30 * time.Second},
		logger:      logger,
		now:         time.Now,
		natalieBase: "https://natalie.mu",
		barksBase:   "https://www.barks.jp",
	}
}

func (m *MediaScraper) Name() string { return "media-scraper" }

func (m *MediaScraper) Search(ctx context.Context, artist config.Artist) ([]Result, error) {
	var all []Result
	if path := artist.MediaPages.Natalie; path != "" {
		results, err := m.scrape(ctx, m.natalieBase, path, "音楽ナタリー", natalieLinkRe)
		if err != nil {
			m.logger.Printf("scraper: natalie %s: %v", path, err)
		}
		all = append(all, results...)
	}
	if path := artist.MediaPages.Barks; path != "" {
		results, err := m.scrape(ctx, m.barksBase, path, "BARKS", barksLinkRe)
		if err != nil {
			m.logger.Printf("scraper: barks %s: %v", path, err)
		}
		all = append(all, results...)
	}
	return dedupByURL(all), nil
}

func (m *MediaScraper) scrape(ctx context.Context, base, path, site string, linkRe *regexp.Regexp) ([]Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", scraperUserAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", site, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned %d", site, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing %s page: %w", site, err)
	}
	return m.extractArticles(doc, base, site, linkRe), nil
}

func (m *MediaScraper) extractArticles(doc *goquery.Document, base, site string, linkRe *regexp.Regexp) []Result {
	var results []Result
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if !linkRe.MatchString(href) {
			return
		}
		title := strings.TrimSpace(a.Text())
		if utf8.RuneCountInString(title) < 5 {
			return
		}

		var age string
		if date := m.findDate(a); date != "" {
			age = "Published " + date
		}

		results = append(results, Result{
			Title:       title,
			URL:         base + href,
			Description: title, // no snippet on listing pages
			Age:         age,
			Hostname:    strings.TrimPrefix(base, "https://"),
		})
	})
	return results
}

// findDate looks for a date near the link: in the anchor itself, then in
// progressively wider enclosing elements.
func (m *MediaScraper) findDate(a *goquery.Selection) string {
	for sel := a; sel.Length() > 0; sel = sel.Parent() {
		if date := m.parseDate(sel.Text()); date != "" {
			return date
		}
		if goquery.NodeName(sel) == "li" || goquery.NodeName(sel) == "article" {
			break
		}
	}
	return ""
}

func (m *MediaScraper) parseDate(text string) string {
	if match := jaFullDateRe.FindStringSubmatch(text); match != nil {
		return fmt.Sprintf("%s-%s-%s", match[1], pad2(match[2]), pad2(match[3]))
	}
	if match := dottedDateRe.FindStringSubmatch(text); match != nil {
		return fmt.Sprintf("%s-%s-%s", match[1], match[2], match[3])
	}
	if match := jaShortDateRe.FindStringSubmatch(text); match != nil {
		return fmt.Sprintf("%d-%s-%s", m.now().Year(), pad2(match[1]), pad2(match[2]))
	}
	return ""
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
