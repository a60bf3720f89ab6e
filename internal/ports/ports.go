package ports

import (
	"context"
	"time"

	"TrendPress/internal/domain"
)

// TrendSource lists currently trending search terms, most popular first.
type TrendSource interface {
	FetchTrends(ctx context.Context, maxCount int) ([]domain.Trend, error)
}

// NewsSource finds news items related to a trend.
type NewsSource interface {
	FetchNews(ctx context.Context, trend domain.Trend, maxItems int) ([]domain.NewsItem, error)
}

// Rewriter turns a news item into an original article via a text generation API.
type Rewriter interface {
	Rewrite(ctx context.Context, item domain.NewsItem) (domain.RewrittenArticle, error)
}

// Publisher creates a post on the remote content-management system.
type Publisher interface {
	Publish(ctx context.Context, article domain.RewrittenArticle) (domain.PublishResult, error)
}

// ImageGenerator produces a local featured image for an article.
type ImageGenerator interface {
	Generate(ctx context.Context, article domain.RewrittenArticle) (string, error)
}

// SummaryStore persists run artifacts on disk.
type SummaryStore interface {
	SaveTrends(trends []domain.Trend) (string, error)
	SaveArticle(article domain.RewrittenArticle) (string, error)
	WriteSummary(summary domain.RunSummary) (string, error)
	Remove(path string) error
}

// OutcomeRepository keeps per-item outcomes for history.
type OutcomeRepository interface {
	SaveOutcome(ctx context.Context, outcome domain.Outcome) error
	RecentOutcomes(ctx context.Context, limit int) ([]domain.Outcome, error)
}

// Notifier streams run digests to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
