package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"musicstream/internal/config"
)

const perplexityEndpoint = "https://api.perplexity.ai/chat/completions"

const perplexitySystemPrompt = `あなたは音楽ニュースに特化した多言語情報収集アシスタントです。

## 検索の指針
- 日本語と英語の両方のソースから網羅的に最新のニュースを検索してください
- 日本のアーティストには日本のメディア（音楽ナタリー、BARKS、Billboard Japan、オリコンなど）を優先
- 海外アーティストには国際メディア（Pitchfork、NME、Rolling Stone、Billboard など）も検索

## 収集対象のニュース
- 新曲・新アルバムのリリース情報
- ツアー・ライブ・フェス出演情報
- インタビュー・メディア出演情報
- コラボレーション・新プロジェクト

## 回答形式
- 各ニュースには日付と出典名を必ず記載してください
- 直近1週間以内の最新情報を優先して報告してください
- 必ず引用元URLを含めてください
- 回答は日本語で行ってください`

// PerplexityClient queries Perplexity's OpenAI-compatible chat API and
// turns the answer plus its citations into search results.
type PerplexityClient struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
	logger  *log.Logger
}

func NewPerplexityClient(apiKey string, logger *log.Logger) *PerplexityClient {
	return &PerplexityClient{
		apiKey:  apiKey,
		baseURL: perplexityEndpoint,
		model:   "sonar",
		client:  &http.Client{Timeout: 60 * time.Second},
		logger:  logger,
	}
}

func (p *PerplexityClient) Name() string { return "perplexity" }

type pplxMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type pplxRequest struct {
	Model    string        `json:"model"`
	Messages []pplxMessage `json:"messages"`
}

type pplxResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Citations []string `json:"citations"`
}

// Search asks for a weekly news roundup about the artist. The answer
// itself becomes one synthetic result and every citation URL becomes
// another, so the curation step can weigh both.
func (p *PerplexityClient) Search(ctx context.Context, artist config.Artist) ([]Result, error) {
	query := buildPerplexityQuery(artist)

	body, err := json.Marshal(pplxRequest{
		Model: p.model,
		Messages: []pplxMessage{
			{Role: "system", Content: perplexitySystemPrompt},
			{Role: "user", Content: query},
		},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("perplexity API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("perplexity API %d: %s", resp.StatusCode, string(b))
	}

	var pr pplxResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("decoding perplexity response: %w", err)
	}
	if len(pr.Choices) == 0 {
		return nil, fmt.Errorf("empty perplexity response")
	}

	results := []Result{{
		Title:       "Perplexity summary: " + artist.Name,
		URL:         "https://www.perplexity.ai/",
		Description: pr.Choices[0].Message.Content,
		Age:         "Just now",
		Hostname:    "perplexity.ai",
	}}

	for i, cited := range pr.Citations {
		u, err := url.Parse(cited)
		if err != nil || u.Hostname() == "" {
			p.logger.Printf("perplexity: skipping invalid citation url %q", cited)
			continue
		}
		results = append(results, Result{
			Title:       fmt.Sprintf("Source [%d] from Perplexity", i+1),
			URL:         cited,
			Description: "Cited source for: " + query,
			Age:         "Unknown",
			Hostname:    u.Hostname(),
		})
	}
	return results, nil
}

func buildPerplexityQuery(artist config.Artist) string {
	name := artist.Name
	if artist.NameJa != "" {
		name = fmt.Sprintf("%s（%s）", artist.Name, artist.NameJa)
	}
	return fmt.Sprintf(`「%s」の最新音楽ニュースを網羅的に教えてください。

検索してほしい内容：
- 新曲・新アルバムのリリース情報
- ツアー・ライブ・フェス出演情報
- インタビュー・メディア出演

日本語メディアと海外メディアの両方から、直近1週間の最新情報を探してください。`, name)
}
