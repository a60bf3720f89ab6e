package trends

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"TrendPress/internal/config"
	"TrendPress/internal/domain"
	"TrendPress/internal/ports"
)

// GoogleTrendsSource reads daily trending searches from the Google Trends RSS feed.
type GoogleTrendsSource struct {
	feedURL string
	client  *http.Client
	logger  *slog.Logger
	now     func() time.Time
}

var _ ports.TrendSource = (*GoogleTrendsSource)(nil)

// NewGoogleTrendsSource wires an HTTP client; a nil client gets the configured timeout.
func NewGoogleTrendsSource(cfg config.TrendsConfig, client *http.Client, log *slog.Logger) *GoogleTrendsSource {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &GoogleTrendsSource{
		feedURL: cfg.FeedURL,
		client:  client,
		logger:  log,
		now:     time.Now,
	}
}

// FetchTrends returns at most maxCount trends in feed order.
func (s *GoogleTrendsSource) FetchTrends(ctx context.Context, maxCount int) ([]domain.Trend, error) {
	if maxCount < 1 {
		return nil, fmt.Errorf("max trends must be at least 1, got %d", maxCount)
	}

	fp := gofeed.NewParser()
	fp.Client = s.client
	feed, err := fp.ParseURLWithContext(s.feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: trends feed: %w", domain.ErrSourceUnavailable, err)
	}

	fetchedAt := s.now().UTC()
	trends := make([]domain.Trend, 0, maxCount)
	for _, item := range feed.Items {
		if len(trends) == maxCount {
			break
		}
		term := strings.TrimSpace(html.UnescapeString(item.Title))
		if term == "" {
			continue
		}
		trends = append(trends, domain.Trend{
			Term:      term,
			Rank:      len(trends) + 1,
			Traffic:   approxTraffic(item),
			FetchedAt: fetchedAt,
		})
	}

	if s.logger != nil {
		s.logger.Info("trends fetched", "count", len(trends), "feed_items", len(feed.Items))
	}
	return trends, nil
}

func approxTraffic(item *gofeed.Item) string {
	if item == nil || item.Extensions == nil {
		return ""
	}
	values := item.Extensions["ht"]["approx_traffic"]
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0].Value)
}
