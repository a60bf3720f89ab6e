package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"TrendPress/internal/config"
	"TrendPress/internal/domain"
	"TrendPress/internal/ports"
	"TrendPress/internal/textutil"
	"TrendPress/pkg/httpclient"
)

const excerptRunes = 160

// ChatGPTRewriter implements ports.Rewriter backed by OpenAI-compatible chat APIs.
type ChatGPTRewriter struct {
	client     httpclient.Client
	cfg        config.OpenAIConfig
	categories []string
}

var _ ports.Rewriter = (*ChatGPTRewriter)(nil)

// NewChatGPTRewriter builds a rewriter from configuration.
func NewChatGPTRewriter(client httpclient.Client, cfg config.OpenAIConfig, categories []string) *ChatGPTRewriter {
	if client == nil {
		client = httpclient.NewRestyClient(cfg.Timeout)
	}
	return &ChatGPTRewriter{client: client, cfg: cfg, categories: categories}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Rewrite sends one completion request for the item. There is no retry.
func (c *ChatGPTRewriter) Rewrite(ctx context.Context, item domain.NewsItem) (domain.RewrittenArticle, error) {
	if c == nil {
		return domain.RewrittenArticle{}, fmt.Errorf("%w: chatgpt client is nil", domain.ErrRewriteFailed)
	}
	if c.cfg.APIKey == "" || c.cfg.Endpoint == "" || c.cfg.Model == "" {
		return domain.RewrittenArticle{}, fmt.Errorf("%w: chatgpt client misconfigured", domain.ErrRewriteFailed)
	}

	original := strings.TrimSpace(item.Text())
	if original == "" {
		return domain.RewrittenArticle{}, fmt.Errorf("%w: news item %q has no text", domain.ErrRewriteFailed, item.Title)
	}

	prompt := BuildPrompt(item, textutil.Truncate(original, c.cfg.MaxInputChars), c.cfg.Language)
	completion, err := c.complete(ctx, prompt)
	if err != nil {
		return domain.RewrittenArticle{}, fmt.Errorf("%w: %w", domain.ErrRewriteFailed, err)
	}

	body := cleanCompletion(completion)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return domain.RewrittenArticle{}, fmt.Errorf("%w: parse completion: %w", domain.ErrRewriteFailed, err)
	}

	text := strings.TrimSpace(doc.Text())
	if n := len([]rune(text)); n < c.cfg.MinLength {
		return domain.RewrittenArticle{}, fmt.Errorf("%w: completion too short (%d of %d chars)", domain.ErrRewriteFailed, n, c.cfg.MinLength)
	}
	if body == original || text == original {
		return domain.RewrittenArticle{}, fmt.Errorf("%w: completion repeats the original text", domain.ErrRewriteFailed)
	}

	title := headline(doc)
	if title == "" {
		title = fmt.Sprintf("Tendência: %s - %s", item.Trend.Term, item.Title)
	}

	return domain.RewrittenArticle{
		Item:       item,
		Title:      title,
		Body:       wrapArticle(body),
		Excerpt:    excerpt(doc),
		Tags:       BuildTags(item.Trend.Term),
		Categories: append([]string(nil), c.categories...),
	}, nil
}

func (c *ChatGPTRewriter) complete(ctx context.Context, prompt string) (string, error) {
	req := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: safePrompt(c.cfg.SystemPrompt)},
			{Role: "user", Content: prompt},
		},
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	}

	resp, err := c.client.PostJSON(ctx, c.cfg.Endpoint, map[string]string{
		"Authorization": "Bearer " + c.cfg.APIKey,
	}, req)
	if err != nil {
		return "", fmt.Errorf("send completion: %w", err)
	}
	if !httpclient.IsSuccess(resp) {
		return "", fmt.Errorf("chatgpt error %s: %s", resp.Status(), strings.TrimSpace(httpclient.Snippet(resp, 1024)))
	}

	var payload chatResponse
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return "", fmt.Errorf("decode completion: %w", err)
	}
	if payload.Error != nil {
		return "", fmt.Errorf("chatgpt error %s: %s", payload.Error.Type, payload.Error.Message)
	}
	if len(payload.Choices) == 0 {
		return "", fmt.Errorf("chatgpt returned no choices")
	}

	content := strings.TrimSpace(payload.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("chatgpt returned an empty completion")
	}
	return content, nil
}

func safePrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "You are an experienced journalist who rewrites news articles."
	}
	return prompt
}

// cleanCompletion drops Markdown code fences the model sometimes adds around HTML.
func cleanCompletion(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```html")
	content = strings.TrimPrefix(content, "```HTML")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}

func wrapArticle(body string) string {
	if strings.HasPrefix(strings.ToLower(body), "<article") {
		return body
	}
	return "<article>\n" + body + "\n</article>"
}

func headline(doc *goquery.Document) string {
	for _, selector := range []string{"h1", "h2"} {
		if text := strings.TrimSpace(doc.Find(selector).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

func excerpt(doc *goquery.Document) string {
	text := strings.TrimSpace(doc.Find("p").First().Text())
	runes := []rune(text)
	if len(runes) <= excerptRunes {
		return text
	}
	return strings.TrimSpace(string(runes[:excerptRunes-1])) + "…"
}

// BuildTags returns the trend term followed by its words, without duplicates.
func BuildTags(term string) []string {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil
	}

	seen := map[string]struct{}{}
	tags := make([]string, 0, 4)
	for _, tag := range append([]string{term}, strings.Fields(term)...) {
		key := strings.ToLower(tag)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}
