package news

import (
	"bytes"
	"context"
	"html"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	readability "codeberg.org/readeck/go-readability/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"TrendPress/internal/domain"
	"TrendPress/pkg/httpclient"
)

const (
	maxHTMLBodyBytes = 1 << 20 // 1 MiB
	minReadableChars = 200
)

var (
	titleSelectors = []string{
		"h1.article-title",
		"h1.entry-title",
		"h1.post-title",
		"article h1",
		".article-header h1",
		".post-header h1",
		"h1",
	}
	noiseSelectors   = "aside, nav, footer, header, .ads, .advertisement, .sidebar, script, style, iframe, noscript, form"
	contentSelectors = []string{"article", "main", ".content", ".article-content", ".post-content"}
	spaceRun         = regexp.MustCompile(`[ \t\f\r]+`)
	blankLines       = regexp.MustCompile(`\n{3,}`)
)

// ContentFetcher downloads article pages and fills in readable text.
type ContentFetcher struct {
	client    httpclient.Client
	userAgent string
	strict    *bluemonday.Policy
	logger    *slog.Logger
}

// NewContentFetcher wires the HTTP client used for article pages.
func NewContentFetcher(client httpclient.Client, userAgent string, log *slog.Logger) *ContentFetcher {
	return &ContentFetcher{
		client:    client,
		userAgent: userAgent,
		strict:    bluemonday.StrictPolicy(),
		logger:    log,
	}
}

// Enrich replaces the item title and body with what the article page offers.
// Failures leave the item untouched.
func (f *ContentFetcher) Enrich(ctx context.Context, item domain.NewsItem) domain.NewsItem {
	if f == nil || f.client == nil || item.URL == "" {
		return item
	}

	resp, err := f.client.Get(ctx, item.URL, map[string]string{"User-Agent": f.userAgent})
	if err != nil {
		f.debug("article fetch failed", "url", item.URL, "error", err)
		return item
	}
	if !httpclient.IsSuccess(resp) {
		f.debug("article fetch returned non-2xx", "url", item.URL, "status", resp.StatusCode())
		return item
	}

	raw := resp.Body()
	if len(raw) > maxHTMLBodyBytes {
		raw = raw[:maxHTMLBodyBytes]
	}

	pageURL, _ := url.Parse(item.URL)
	title, text := f.Extract(raw, pageURL)
	if title != "" {
		item.Title = title
	}
	if text != "" {
		item.Body = text
	}
	return item
}

// Extract returns the page headline and its readable text.
func (f *ContentFetcher) Extract(raw []byte, pageURL *url.URL) (string, string) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return "", ""
	}

	title := extractTitle(doc)

	doc.Find(noiseSelectors).Remove()
	cleaned, err := doc.Html()
	if err != nil {
		cleaned = string(raw)
	}

	if article, err := readability.FromReader(strings.NewReader(cleaned), pageURL); err == nil {
		var buf strings.Builder
		if err := article.RenderText(&buf); err == nil {
			if text := f.plain(buf.String()); len([]rune(text)) >= minReadableChars {
				return title, text
			}
		}
	}

	return title, f.plain(mainContentText(doc))
}

func (f *ContentFetcher) plain(text string) string {
	if f.strict != nil {
		text = html.UnescapeString(f.strict.Sanitize(text))
	}
	return normalizeWhitespace(text)
}

func (f *ContentFetcher) debug(msg string, args ...interface{}) {
	if f.logger != nil {
		f.logger.Debug(msg, args...)
	}
}

func extractTitle(doc *goquery.Document) string {
	for _, selector := range titleSelectors {
		if text := strings.TrimSpace(doc.Find(selector).First().Text()); text != "" {
			return normalizeWhitespace(text)
		}
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

func mainContentText(doc *goquery.Document) string {
	container := doc.Find("body")
	for _, selector := range contentSelectors {
		if sel := doc.Find(selector).First(); sel.Length() > 0 {
			container = sel
			break
		}
	}

	var paragraphs []string
	container.Find("p").Each(func(_ int, p *goquery.Selection) {
		if text := strings.TrimSpace(p.Text()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})
	if len(paragraphs) > 0 {
		return strings.Join(paragraphs, "\n\n")
	}
	return container.Text()
}

func normalizeWhitespace(text string) string {
	text = spaceRun.ReplaceAllString(text, " ")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")
	return strings.TrimSpace(blankLines.ReplaceAllString(text, "\n\n"))
}
