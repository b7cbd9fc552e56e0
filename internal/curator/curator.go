// Package curator turns pre-filtered search results into validated news
// items using Gemini structured extraction. The model proposes, code
// disposes: every schema and date rule is re-checked here because
// generative output is never trusted to follow numeric instructions.
package curator

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"google.golang.org/genai"

	"musicstream/internal/config"
	"musicstream/internal/recency"
	"musicstream/internal/search"
)

// Category classifies a news item.
type Category string

const (
	CategoryRelease   Category = "Release"
	CategoryTour      Category = "Tour"
	CategoryInterview Category = "Interview"
	CategoryMedia     Category = "Media"
	CategoryOther     Category = "Other"
)

// Categories lists all valid values in canonical order.
func Categories() []Category {
	return []Category{CategoryRelease, CategoryTour, CategoryInterview, CategoryMedia, CategoryOther}
}

func (c Category) Valid() bool {
	for _, v := range Categories() {
		if c == v {
			return true
		}
	}
	return false
}

// NewsItem is one curated news entry. Items persisted to the feed always
// have Importance >= 3 and a Date within the staleness horizon.
type NewsItem struct {
	Title      string   `json:"title"`
	Summary    string   `json:"summary"`
	URL        string   `json:"url"`
	ImageURL   string   `json:"imageUrl,omitempty"`
	Source     string   `json:"source"`
	Date       string   `json:"date"` // YYYY-MM-DD
	Category   Category `json:"category"`
	Importance int      `json:"importance"`
}

// StalenessDays is the maximum age a curated item's date may have
// relative to run time.
const StalenessDays = 14

const dateLayout = "2006-01-02"

const curatePrompt = `あなたは音楽ニュースのプロフェッショナル・キュレーターです。
「%s」に関する以下のWeb検索結果から、ファンにとって価値のある最新ニュースを抽出してください。

## 判断基準
- 対象: 新曲・アルバムのリリース、ツアー・ライブ情報の発表、主要メディアのインタビュー、ミュージックビデオの公開。
- 除外: ゴシップ、噂レベルの情報、非公式な掲示板の書き込み、チケット転売情報、単なる歌詞サイトやグッズ販売、既報の転載。
- 鮮度: 過去1週間以内の情報を優先してください。明らかに数ヶ月前の古い情報は除外してください。
- 日付: 各結果に付記されたDateを優先し、本文からの推測より信頼してください。
- 出典: 信頼できる大手メディアの記事を優先してください。
%s
## 出力トーン
- 日本語で出力してください。
- タイトルは30文字以内、概要は100〜150文字で、知的で落ち着いたシンプルな文章表現を心がけてください。
- 絵文字は使用しないでください。

## 入力データ
%s`

// Curator invokes Gemini for structured news extraction.
type Curator struct {
	client *genai.Client
	model  string
	logger *log.Logger
	now    func() time.Time
}

func New(ctx context.Context, apiKey, model string, logger *log.Logger) (*Curator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &Curator{client: client, model: model, logger: logger, now: time.Now}, nil
}

var curationSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"news": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"title":      {Type: genai.TypeString, Description: "日本語の簡潔なタイトル（30文字以内）。煽り文句は避ける。"},
					"summary":    {Type: genai.TypeString, Description: "落ち着いたトーンの日本語要約（100〜150文字）。"},
					"url":        {Type: genai.TypeString, Description: "情報源のURL（検索結果から引用）。"},
					"imageUrl":   {Type: genai.TypeString, Description: "記事のメイン画像のURL。入力にある場合のみ。"},
					"source":     {Type: genai.TypeString, Description: "情報源のサイト名。"},
					"date":       {Type: genai.TypeString, Description: "記事の日付 (YYYY-MM-DD)。不明な場合は今日の日付。"},
					"category":   {Type: genai.TypeString, Enum: []string{"Release", "Tour", "Interview", "Media", "Other"}},
					"importance": {Type: genai.TypeInteger, Description: "重要度（1:小ネタ 〜 5:超重要）。"},
				},
				Required: []string{"title", "summary", "url", "source", "date", "category", "importance"},
			},
		},
	},
	Required: []string{"news"},
}

// Curate extracts news items for one artist. A response that violates the
// schema fails the whole call; the caller treats that as zero items.
// Surviving items have already passed post-validation: importance >= 3,
// no future dates, nothing older than the staleness horizon.
func (c *Curator) Curate(ctx context.Context, artist config.Artist, results []search.Result) ([]NewsItem, error) {
	if len(results) == 0 {
		return nil, nil
	}

	now := c.now()
	prompt := fmt.Sprintf(curatePrompt, artist.Name, disambiguationSection(artist), buildContext(results, now))

	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0.3),
		ResponseMIMEType: "application/json",
		ResponseSchema:   curationSchema,
	}
	res, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini extraction: %w", err)
	}
	if len(res.Candidates) == 0 || res.Candidates[0].Content == nil || len(res.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty gemini response")
	}

	items, err := decodeNews(res.Candidates[0].Content.Parts[0].Text)
	if err != nil {
		return nil, err
	}
	return PostValidate(items, now), nil
}

// buildContext serializes results for the prompt, attaching a computed
// date derived from each age hint so the model does not have to guess.
func buildContext(results []search.Result, now time.Time) string {
	var sb strings.Builder
	for i, r := range results {
		date := "Unknown"
		if t, ok := recency.Parse(r.Age, now); ok {
			date = t.Format(dateLayout)
		}
		thumb := r.Thumbnail
		if thumb == "" {
			thumb = "None"
		}
		fmt.Fprintf(&sb, "[%d] Title: %s\nURL: %s\nSnippet: %s\nDate: %s\nThumbnail: %s\n\n",
			i+1, r.Title, r.URL, r.Description, date, thumb)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func disambiguationSection(artist config.Artist) string {
	if artist.Disambiguation == "" {
		return ""
	}
	return fmt.Sprintf("- 同名の別対象に注意: %s\n", artist.Disambiguation)
}

type curationResult struct {
	News []NewsItem `json:"news"`
}

// decodeNews parses the model output and rejects the whole batch on any
// schema violation. Partially valid responses are never trusted.
func decodeNews(text string) ([]NewsItem, error) {
	var cr curationResult
	if err := json.Unmarshal([]byte(cleanJSON(text)), &cr); err != nil {
		return nil, fmt.Errorf("malformed curation response: %w", err)
	}
	for i, item := range cr.News {
		if err := validateItem(item); err != nil {
			return nil, fmt.Errorf("curation item %d: %w", i, err)
		}
	}
	return cr.News, nil
}

func validateItem(item NewsItem) error {
	if item.Title == "" {
		return fmt.Errorf("missing title")
	}
	if item.Summary == "" {
		return fmt.Errorf("missing summary")
	}
	if item.URL == "" {
		return fmt.Errorf("missing url")
	}
	if item.Source == "" {
		return fmt.Errorf("missing source")
	}
	if !item.Category.Valid() {
		return fmt.Errorf("unknown category %q", item.Category)
	}
	if item.Importance < 1 || item.Importance > 5 {
		return fmt.Errorf("importance %d out of range", item.Importance)
	}
	if _, err := time.Parse(dateLayout, item.Date); err != nil {
		return fmt.Errorf("invalid date %q", item.Date)
	}
	return nil
}

// PostValidate applies the date and importance rules the model cannot be
// trusted with: low-importance items are dropped, future dates are clamped
// to the run date, and items older than the staleness horizon are dropped.
func PostValidate(items []NewsItem, now time.Time) []NewsItem {
	// Dates parse at midnight, so the horizon compares calendar days.
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	horizon := today.AddDate(0, 0, -StalenessDays)
	var out []NewsItem
	for _, item := range items {
		if item.Importance < 3 {
			continue
		}
		date, err := time.Parse(dateLayout, item.Date)
		if err != nil {
			continue
		}
		if date.After(today) {
			item.Date = today.Format(dateLayout)
		} else if date.Before(horizon) {
			continue
		}
		out = append(out, item)
	}
	return out
}

// cleanJSON strips markdown fences some models wrap around JSON output.
func cleanJSON(input string) string {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(input, "```json")
	input = strings.TrimPrefix(input, "```")
	input = strings.TrimSuffix(input, "```")
	return strings.TrimSpace(input)
}
