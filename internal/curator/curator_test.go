package curator

import (
	"strings"
	"testing"
	"time"

	"musicstream/internal/search"
)

var runTime = time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)

const validResponse = `{
  "news": [
    {
      "title": "新アルバム発売決定",
      "summary": "バンドが6月に新アルバムをリリースすると発表した。全12曲収録で、先行シングルも公開されている。",
      "url": "https://example.com/news/1",
      "source": "example.com",
      "date": "2024-05-18",
      "category": "Release",
      "importance": 4
    }
  ]
}`

func TestDecodeNewsValid(t *testing.T) {
	items, err := decodeNews(validResponse)
	if err != nil {
		t.Fatalf("decodeNews: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].Category != CategoryRelease {
		t.Errorf("category = %q", items[0].Category)
	}
}

func TestDecodeNewsFenced(t *testing.T) {
	fenced := "```json\n" + validResponse + "\n```"
	items, err := decodeNews(fenced)
	if err != nil {
		t.Fatalf("decodeNews fenced: %v", err)
	}
	if len(items) != 1 {
		t.Errorf("expected 1 item, got %d", len(items))
	}
}

func TestDecodeNewsRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"not json", "the model apologizes and returns prose"},
		{"bad category", strings.Replace(validResponse, `"Release"`, `"Gossip"`, 1)},
		{"importance too high", strings.Replace(validResponse, `"importance": 4`, `"importance": 9`, 1)},
		{"importance zero", strings.Replace(validResponse, `"importance": 4`, `"importance": 0`, 1)},
		{"bad date", strings.Replace(validResponse, `"2024-05-18"`, `"next friday"`, 1)},
		{"missing url", strings.Replace(validResponse, `"https://example.com/news/1"`, `""`, 1)},
		{"missing title", strings.Replace(validResponse, `"新アルバム発売決定"`, `""`, 1)},
	}
	for _, tt := range tests {
		if _, err := decodeNews(tt.text); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}

func TestPostValidateImportanceFloor(t *testing.T) {
	items := []NewsItem{
		{Title: "minor", Date: "2024-05-19", Importance: 2},
		{Title: "major", Date: "2024-05-19", Importance: 3},
	}
	out := PostValidate(items, runTime)
	if len(out) != 1 {
		t.Fatalf("expected 1 item, got %d", len(out))
	}
	if out[0].Title != "major" {
		t.Errorf("kept %q, want major", out[0].Title)
	}
}

func TestPostValidateClampsFutureDate(t *testing.T) {
	// A date one day in the future is clamped, not dropped.
	items := []NewsItem{{Title: "early", Date: "2024-05-21", Importance: 4}}
	out := PostValidate(items, runTime)
	if len(out) != 1 {
		t.Fatalf("expected item retained, got %d", len(out))
	}
	if out[0].Date != "2024-05-20" {
		t.Errorf("date = %q, want clamped to 2024-05-20", out[0].Date)
	}
}

func TestPostValidateDropsStale(t *testing.T) {
	// 20 days old is past the 14-day horizon: dropped entirely.
	items := []NewsItem{{Title: "old", Date: "2024-04-30", Importance: 5}}
	out := PostValidate(items, runTime)
	if len(out) != 0 {
		t.Errorf("expected stale item dropped, got %d", len(out))
	}
}

func TestPostValidateHorizonBoundary(t *testing.T) {
	// Exactly 14 days old survives.
	items := []NewsItem{{Title: "edge", Date: "2024-05-06", Importance: 3}}
	out := PostValidate(items, runTime)
	if len(out) != 1 {
		t.Errorf("expected item on horizon boundary retained, got %d", len(out))
	}
}

func TestBuildContextComputedDates(t *testing.T) {
	results := []search.Result{
		{Title: "fresh", URL: "https://a.com/1", Description: "snippet", Age: "12 hours ago"},
		{Title: "dated", URL: "https://a.com/2", Age: "Published 2024-05-18"},
		{Title: "mystery", URL: "https://a.com/3", Age: "???"},
	}
	ctx := buildContext(results, runTime)

	if !strings.Contains(ctx, "Date: 2024-05-20") {
		t.Errorf("relative hint not resolved:\n%s", ctx)
	}
	if !strings.Contains(ctx, "Date: 2024-05-18") {
		t.Errorf("published marker not resolved:\n%s", ctx)
	}
	if !strings.Contains(ctx, "Date: Unknown") {
		t.Errorf("unparseable hint should serialize as Unknown:\n%s", ctx)
	}
	if !strings.Contains(ctx, "[1] Title: fresh") || !strings.Contains(ctx, "[3] Title: mystery") {
		t.Errorf("results not numbered in order:\n%s", ctx)
	}
}

func TestCleanJSON(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"{\"a\":1}", "{\"a\":1}"},
		{"```json\n{\"a\":1}\n```", "{\"a\":1}"},
		{"```\n{\"a\":1}\n```", "{\"a\":1}"},
		{"  {\"a\":1}  ", "{\"a\":1}"},
	}
	for _, tt := range tests {
		if got := cleanJSON(tt.input); got != tt.want {
			t.Errorf("cleanJSON(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestCategoryValid(t *testing.T) {
	for _, c := range Categories() {
		if !c.Valid() {
			t.Errorf("%q should be valid", c)
		}
	}
	if Category("Gossip").Valid() {
		t.Error("Gossip should not be valid")
	}
	if Category("").Valid() {
		t.Error("empty category should not be valid")
	}
}

func TestSVGDataURL(t *testing.T) {
	got := svgDataURL("<svg></svg>")
	if !strings.HasPrefix(got, "data:image/svg+xml;base64,") {
		t.Errorf("unexpected prefix: %s", got)
	}
}
