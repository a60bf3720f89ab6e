package news

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"TrendPress/internal/config"
	"TrendPress/internal/domain"
	"TrendPress/internal/search"
	"TrendPress/pkg/httpclient"
)

const (
	googleNewsBaseURL = "https://news.google.com"
	unknownSource     = "Fonte desconhecida"
)

// GoogleNewsScraper searches the public Google News page when no API is available.
type GoogleNewsScraper struct {
	client  httpclient.Client
	cfg     config.NewsConfig
	baseURL string
}

var _ search.Strategy = (*GoogleNewsScraper)(nil)

// NewGoogleNewsScraper wires an HTTP client; a nil client gets the configured timeout.
func NewGoogleNewsScraper(client httpclient.Client, cfg config.NewsConfig) *GoogleNewsScraper {
	if client == nil {
		client = httpclient.NewRestyClient(cfg.Timeout)
	}
	return &GoogleNewsScraper{client: client, cfg: cfg, baseURL: googleNewsBaseURL}
}

// Name identifies the strategy inside the registry.
func (g *GoogleNewsScraper) Name() string {
	return "googlenews"
}

// Available only needs a search URL; the page requires no credentials.
func (g *GoogleNewsScraper) Available() bool {
	return g.cfg.SearchURL != ""
}

// Search fetches the results page for the trend and parses article cards.
func (g *GoogleNewsScraper) Search(ctx context.Context, q search.Query) ([]domain.NewsItem, error) {
	pageURL, err := buildSearchURL(g.cfg, q.Trend.Term)
	if err != nil {
		return nil, err
	}

	doc, err := g.fetchDocument(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	return extractArticles(doc, g.baseURL, q.Limit), nil
}

func (g *GoogleNewsScraper) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	resp, err := g.client.Get(ctx, pageURL, map[string]string{
		"User-Agent":      g.cfg.UserAgent,
		"Accept-Language": g.cfg.HL,
	})
	if err != nil {
		return nil, fmt.Errorf("request search page: %w", err)
	}
	if !httpclient.IsSuccess(resp) {
		return nil, fmt.Errorf("google news returned %s", resp.Status())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, fmt.Errorf("parse search page: %w", err)
	}

	return doc, nil
}

func extractArticles(doc *goquery.Document, baseURL string, limit int) []domain.NewsItem {
	var (
		collected []domain.NewsItem
		seen      = map[string]struct{}{}
	)

	doc.Find("article").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if limit > 0 && len(collected) >= limit {
			return false
		}

		item, ok := parseArticle(sel, baseURL)
		if !ok {
			return true
		}
		if _, dup := seen[item.URL]; dup {
			return true
		}
		seen[item.URL] = struct{}{}
		collected = append(collected, item)
		return true
	})

	return collected
}

func parseArticle(sel *goquery.Selection, baseURL string) (domain.NewsItem, bool) {
	link := sel.Find("h3 a, h4 a").First()
	if link.Length() == 0 {
		link = sel.Find("a").FilterFunction(func(_ int, a *goquery.Selection) bool {
			return strings.TrimSpace(a.Text()) != ""
		}).First()
	}

	title := strings.TrimSpace(link.Text())
	href, _ := link.Attr("href")
	if title == "" || href == "" {
		return domain.NewsItem{}, false
	}

	item := domain.NewsItem{
		Title:      title,
		URL:        resolveLink(baseURL, href),
		SourceName: unknownSource,
		Origin:     "googlenews",
	}

	if ts := sel.Find("time[datetime]").First(); ts.Length() > 0 {
		if raw, ok := ts.Attr("datetime"); ok {
			if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
				item.PublishedAt = parsed
			}
		}
		source := strings.TrimSpace(strings.Split(ts.Parent().Text(), "·")[0])
		if source != "" && source != strings.TrimSpace(ts.Text()) {
			item.SourceName = source
		}
	}
	if item.SourceName == unknownSource {
		if source := strings.TrimSpace(sel.Find("div[data-n-tid]").First().Text()); source != "" {
			item.SourceName = source
		}
	}

	return item, true
}

func resolveLink(baseURL, href string) string {
	if strings.HasPrefix(href, "./") {
		return strings.TrimSuffix(baseURL, "/") + href[1:]
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

func buildSearchURL(cfg config.NewsConfig, term string) (string, error) {
	parsed, err := url.Parse(cfg.SearchURL)
	if err != nil {
		return "", fmt.Errorf("invalid search url %s: %w", cfg.SearchURL, err)
	}

	query := parsed.Query()
	query.Set("q", term)
	setIfPresent(query, "hl", cfg.HL)
	setIfPresent(query, "gl", cfg.GL)
	setIfPresent(query, "ceid", cfg.CEID)
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func setIfPresent(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}
