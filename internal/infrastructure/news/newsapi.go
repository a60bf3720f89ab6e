package news

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"TrendPress/internal/config"
	"TrendPress/internal/domain"
	"TrendPress/internal/search"
	"TrendPress/pkg/httpclient"
)

var truncatedSuffix = regexp.MustCompile(`\s*\[\+\d+ chars\]\s*$`)

// NewsAPIStrategy queries the NewsAPI "everything" endpoint.
type NewsAPIStrategy struct {
	client httpclient.Client
	cfg    config.NewsConfig
	now    func() time.Time
}

var _ search.Strategy = (*NewsAPIStrategy)(nil)

// NewNewsAPIStrategy wires an HTTP client; a nil client gets the configured timeout.
func NewNewsAPIStrategy(client httpclient.Client, cfg config.NewsConfig) *NewsAPIStrategy {
	if client == nil {
		client = httpclient.NewRestyClient(cfg.Timeout)
	}
	return &NewsAPIStrategy{client: client, cfg: cfg, now: time.Now}
}

// Name identifies the strategy inside the registry.
func (n *NewsAPIStrategy) Name() string {
	return "newsapi"
}

// Available reports whether an API key is configured.
func (n *NewsAPIStrategy) Available() bool {
	return strings.TrimSpace(n.cfg.APIKey) != "" && n.cfg.APIEndpoint != ""
}

type newsAPIResponse struct {
	Status       string           `json:"status"`
	Code         string           `json:"code"`
	Message      string           `json:"message"`
	TotalResults int              `json:"totalResults"`
	Articles     []newsAPIArticle `json:"articles"`
}

type newsAPIArticle struct {
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	URLToImage  string    `json:"urlToImage"`
	PublishedAt time.Time `json:"publishedAt"`
	Content     string    `json:"content"`
}

// Search returns articles published today that match the trend term.
func (n *NewsAPIStrategy) Search(ctx context.Context, q search.Query) ([]domain.NewsItem, error) {
	endpoint, err := n.buildURL(q)
	if err != nil {
		return nil, err
	}

	resp, err := n.client.Get(ctx, endpoint, map[string]string{
		"X-Api-Key":  n.cfg.APIKey,
		"User-Agent": n.cfg.UserAgent,
	})
	if err != nil {
		return nil, fmt.Errorf("newsapi request: %w", err)
	}

	var payload newsAPIResponse
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		if !httpclient.IsSuccess(resp) {
			return nil, fmt.Errorf("newsapi returned %s", resp.Status())
		}
		return nil, fmt.Errorf("decode newsapi response: %w", err)
	}
	if !httpclient.IsSuccess(resp) || payload.Status != "ok" {
		return nil, fmt.Errorf("newsapi returned %d: %s %s", resp.StatusCode(), payload.Code, payload.Message)
	}

	items := make([]domain.NewsItem, 0, len(payload.Articles))
	for _, art := range payload.Articles {
		title := strings.TrimSpace(art.Title)
		if title == "" || title == "[Removed]" || art.URL == "" {
			continue
		}
		items = append(items, domain.NewsItem{
			Title:       title,
			Body:        truncatedSuffix.ReplaceAllString(strings.TrimSpace(art.Content), ""),
			Summary:     strings.TrimSpace(art.Description),
			URL:         art.URL,
			SourceName:  art.Source.Name,
			ImageURL:    art.URLToImage,
			PublishedAt: art.PublishedAt,
			Origin:      n.Name(),
		})
		if q.Limit > 0 && len(items) == q.Limit {
			break
		}
	}

	return items, nil
}

func (n *NewsAPIStrategy) buildURL(q search.Query) (string, error) {
	parsed, err := url.Parse(n.cfg.APIEndpoint)
	if err != nil {
		return "", fmt.Errorf("invalid newsapi endpoint %s: %w", n.cfg.APIEndpoint, err)
	}

	query := parsed.Query()
	query.Set("q", q.Trend.Term)
	setIfPresent(query, "language", n.cfg.Language)
	setIfPresent(query, "sortBy", n.cfg.SortBy)
	if q.Limit > 0 {
		query.Set("pageSize", strconv.Itoa(q.Limit))
	}
	query.Set("page", "1")
	query.Set("from", n.now().Format("2006-01-02"))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}
