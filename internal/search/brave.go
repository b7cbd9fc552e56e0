package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"musicstream/internal/config"
)

const braveEndpoint = "https://api.search.brave.com/res/v1/web/search"

// Query keyword sets, mixed into artist queries to bias results toward
// actual news instead of profile pages.
var (
	newsKeywordsEN  = []string{"news", "latest"}
	newsKeywordsJa  = []string{"ニュース", "最新"}
	musicKeywordsEN = []string{"release", "tour", "interview"}
	musicKeywordsJa = []string{"リリース", "ツアー", "インタビュー"}
)

// BraveClient searches the Brave web search API.
type BraveClient struct {
	apiKey    string
	baseURL   string
	client    *http.Client
	logger    *log.Logger
	budget    int
	freshness string
	delay     time.Duration
}

func NewBraveClient(apiKey string, budget int, logger *log.Logger) *BraveClient {
	return &BraveClient{
		apiKey:    apiKey,
		baseURL:   braveEndpoint,
		client:    &http.Client{Timeout: 30 * time.Second},
		logger:    logger,
		budget:    budget,
		freshness: "pw", // past week
		delay:     500 * time.Millisecond,
	}
}

func (b *BraveClient) Name() string { return "brave" }

// Search issues several query variants and merges their results with
// URL-based dedup. A failing sub-query is logged and skipped; the call
// errors only when every sub-query failed and nothing was found.
func (b *BraveClient) Search(ctx context.Context, artist config.Artist) ([]Result, error) {
	queries := buildBraveQueries(artist)
	perQuery := (b.budget + len(queries) - 1) / len(queries)

	var all []Result
	var lastErr error
	for i, q := range queries {
		if i > 0 {
			sleep(ctx, b.delay)
		}
		results, err := b.search(ctx, q, perQuery)
		if err != nil {
			lastErr = err
			b.logger.Printf("brave: query %q failed: %v", q, err)
			continue
		}
		all = append(all, results...)
	}

	all = dedupByURL(all)
	if len(all) > b.budget {
		all = all[:b.budget]
	}
	if len(all) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return all, nil
}

func buildBraveQueries(artist config.Artist) []string {
	quoted := `"` + artist.Name + `"`
	queries := []string{
		quoted + " " + strings.Join(newsKeywordsEN, " ") + " " + strings.Join(musicKeywordsEN, " "),
		quoted + " latest news",
	}
	if artist.NameJa != "" {
		quotedJa := `"` + artist.NameJa + `"`
		queries = append(queries,
			quotedJa+" "+strings.Join(newsKeywordsJa, " ")+" "+strings.Join(musicKeywordsJa, " "),
			quotedJa+" 最新ニュース",
		)
	}
	// One extra variant for the first name not already queried above.
	for _, name := range artist.QueryNames() {
		if name == artist.Name || name == artist.NameJa {
			continue
		}
		queries = append(queries, `"`+name+`" latest news`)
		break
	}
	return queries
}

// braveResult mirrors the fields we use from Brave's response payload.
// The payload is untrusted: entries missing a URL or title are rejected
// at this boundary instead of leaking into the pipeline.
type braveResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Age         string `json:"age"`
	PageAge     string `json:"page_age"`
	MetaURL     struct {
		Hostname string `json:"hostname"`
	} `json:"meta_url"`
	Thumbnail struct {
		Src string `json:"src"`
	} `json:"thumbnail"`
}

type braveResponse struct {
	Web struct {
		Results []braveResult `json:"results"`
	} `json:"web"`
}

func (b *BraveClient) search(ctx context.Context, query string, count int) ([]Result, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("count", strconv.Itoa(count))
	q.Set("freshness", b.freshness)
	q.Set("text_decorations", "0")
	q.Set("result_filter", "web")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("brave API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("brave API %d: %s", resp.StatusCode, string(body))
	}

	var br braveResponse
	if err := json.NewDecoder(resp.Body).Decode(&br); err != nil {
		return nil, fmt.Errorf("decoding brave response: %w", err)
	}
	return convertBraveResults(br.Web.Results), nil
}

func convertBraveResults(raw []braveResult) []Result {
	results := make([]Result, 0, len(raw))
	for _, r := range raw {
		if r.URL == "" || r.Title == "" {
			continue
		}
		age := r.Age
		if age == "" {
			age = r.PageAge
		}
		results = append(results, Result{
			Title:       r.Title,
			URL:         r.URL,
			Description: r.Description,
			Age:         age,
			Hostname:    r.MetaURL.Hostname,
			Thumbnail:   r.Thumbnail.Src,
		})
	}
	return results
}
