package curator

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const imagePrompt = `以下のニュース記事のために、魅力的でアーティスティックなサムネイル画像をSVGコードとして生成してください。

タイトル: %s
概要: %s
方向性: %s

## 要件
- SVGコードのみを出力してください。マークダウンのコードブロックは不要です。
- アスペクト比は 16:9 に適したデザインにしてください（viewBox="0 0 800 450" など）。
- 抽象的でモダンなデザイン、幾何学模様、または音楽を感じさせるミニマルなイラストが良いです。
- テキストは含めないでください。
- パスやシェイプは適度にシンプルにしてください。`

var imageSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"svg": {Type: genai.TypeString, Description: "生成されたSVGコード"},
	},
	Required: []string{"svg"},
}

// GenerateImage asks the model for an SVG thumbnail and returns it as a
// data URL. Failures never abort curation of the item; the caller keeps
// the item without an image.
func (c *Curator) GenerateImage(ctx context.Context, item NewsItem) (string, error) {
	direction := "抽象的なイメージ"
	if item.Category == CategoryRelease || item.Category == CategoryTour {
		direction = "関連する音楽的な要素を含めてください"
	}
	prompt := fmt.Sprintf(imagePrompt, item.Title, item.Summary, direction)

	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   imageSchema,
	}
	res, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini image generation: %w", err)
	}
	if len(res.Candidates) == 0 || res.Candidates[0].Content == nil || len(res.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty gemini response")
	}

	var out struct {
		SVG string `json:"svg"`
	}
	if err := json.Unmarshal([]byte(cleanJSON(res.Candidates[0].Content.Parts[0].Text)), &out); err != nil {
		return "", fmt.Errorf("malformed image response: %w", err)
	}
	svg := strings.TrimSpace(out.SVG)
	if svg == "" {
		return "", fmt.Errorf("empty svg in image response")
	}
	return svgDataURL(svg), nil
}

func svgDataURL(svg string) string {
	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(svg))
}
