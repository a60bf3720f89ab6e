package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"TrendPress/internal/domain"
	"TrendPress/internal/ports"
)

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Trends     ports.TrendSource
	News       ports.NewsSource
	Rewriter   ports.Rewriter
	Publisher  ports.Publisher
	Images     ports.ImageGenerator
	Store      ports.SummaryStore
	Repository ports.OutcomeRepository
	Notifier   ports.Notifier
	Logger     *slog.Logger

	MaxTrends   int
	MaxPerTrend int
	ItemDelay   time.Duration
	TrendDelay  time.Duration

	SaveArticles     bool
	CleanupPublished bool
}

// Pipeline implements the trend to post workflow.
type Pipeline struct {
	trends     ports.TrendSource
	news       ports.NewsSource
	rewriter   ports.Rewriter
	publisher  ports.Publisher
	images     ports.ImageGenerator
	store      ports.SummaryStore
	repository ports.OutcomeRepository
	notifier   ports.Notifier
	logger     *slog.Logger

	maxTrends   int
	maxPerTrend int
	itemDelay   time.Duration
	trendDelay  time.Duration

	saveArticles     bool
	cleanupPublished bool

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		trends:           deps.Trends,
		news:             deps.News,
		rewriter:         deps.Rewriter,
		publisher:        deps.Publisher,
		images:           deps.Images,
		store:            deps.Store,
		repository:       deps.Repository,
		notifier:         deps.Notifier,
		logger:           deps.Logger,
		maxTrends:        deps.MaxTrends,
		maxPerTrend:      deps.MaxPerTrend,
		itemDelay:        deps.ItemDelay,
		trendDelay:       deps.TrendDelay,
		saveArticles:     deps.SaveArticles,
		cleanupPublished: deps.CleanupPublished,
		now:              time.Now,
		sleep:            sleepContext,
	}
}

// Run executes one pass over the current trends. Per-trend and per-item
// failures end up in the summary; only a failure to write the summary is returned.
func (p *Pipeline) Run(ctx context.Context) (domain.RunSummary, error) {
	summary := domain.RunSummary{
		StartedAt:     p.now(),
		Trends:        []domain.Trend{},
		SkippedTrends: []domain.SkippedTrend{},
		Outcomes:      []domain.Outcome{},
	}
	p.info("pipeline started", "max_trends", p.maxTrends, "max_per_trend", p.maxPerTrend)

	p.process(ctx, &summary)
	summary.FinishedAt = p.now()

	var writeErr error
	if p.store != nil {
		path, err := p.store.WriteSummary(summary)
		if err != nil {
			writeErr = fmt.Errorf("write summary: %w", err)
			p.logError("summary not written", "error", err)
		} else {
			p.info("summary written", "path", path)
		}
	}

	p.notify(ctx, summary)

	p.info("pipeline finished",
		"total", summary.Total(),
		"succeeded", summary.Succeeded(),
		"failed", summary.Failed(),
		"skipped_trends", len(summary.SkippedTrends),
		"aborted", summary.Aborted,
		"duration", summary.FinishedAt.Sub(summary.StartedAt).Round(time.Millisecond))
	return summary, writeErr
}

func (p *Pipeline) process(ctx context.Context, summary *domain.RunSummary) {
	if p.trends == nil {
		summary.Aborted = "trend source is not configured"
		p.logError("run aborted", "reason", summary.Aborted)
		return
	}

	trends, err := p.trends.FetchTrends(ctx, p.maxTrends)
	if err != nil {
		summary.Aborted = fmt.Sprintf("fetch trends: %s", err)
		p.logError("run aborted", "kind", domain.KindOf(err), "error", err)
		return
	}
	if len(trends) == 0 {
		summary.Aborted = "no trends found"
		p.logError("run aborted", "reason", summary.Aborted)
		return
	}
	summary.Trends = trends
	p.info("trends fetched", "count", len(trends), "terms", terms(trends))

	if p.store != nil {
		if path, err := p.store.SaveTrends(trends); err != nil {
			p.warn("trends not saved", "error", err)
		} else {
			p.debug("trends saved", "path", path)
		}
	}

	for i, trend := range trends {
		if i > 0 {
			_ = p.sleep(ctx, p.trendDelay)
		}
		if err := ctx.Err(); err != nil {
			summary.Aborted = fmt.Sprintf("interrupted before trend %q: %s", trend.Term, err)
			p.warn("run interrupted", "trend", trend.Term, "error", err)
			return
		}

		p.processTrend(ctx, trend, summary)
	}
}

func (p *Pipeline) processTrend(ctx context.Context, trend domain.Trend, summary *domain.RunSummary) {
	p.info("processing trend", "trend", trend.Term, "rank", trend.Rank)

	if p.news == nil {
		summary.SkippedTrends = append(summary.SkippedTrends, domain.SkippedTrend{Trend: trend.Term, Reason: "news source is not configured"})
		return
	}

	items, err := p.news.FetchNews(ctx, trend, p.maxPerTrend)
	if err != nil {
		p.warn("trend skipped", "trend", trend.Term, "kind", domain.KindOf(err), "error", err)
		summary.SkippedTrends = append(summary.SkippedTrends, domain.SkippedTrend{Trend: trend.Term, Reason: err.Error()})
		return
	}
	if len(items) == 0 {
		err := fmt.Errorf("%w: trend %q", domain.ErrNoNewsFound, trend.Term)
		p.warn("trend skipped", "trend", trend.Term, "kind", domain.KindOf(err), "error", err)
		summary.SkippedTrends = append(summary.SkippedTrends, domain.SkippedTrend{Trend: trend.Term, Reason: err.Error()})
		return
	}
	if p.maxPerTrend > 0 && len(items) > p.maxPerTrend {
		items = items[:p.maxPerTrend]
	}
	p.info("news fetched", "trend", trend.Term, "count", len(items))

	for i, item := range items {
		if i > 0 {
			_ = p.sleep(ctx, p.itemDelay)
		}
		outcome := p.processItem(ctx, item)
		summary.Outcomes = append(summary.Outcomes, outcome)
		p.record(ctx, outcome)
	}
}

// processItem always yields an outcome so that every fetched item is accounted for.
func (p *Pipeline) processItem(ctx context.Context, item domain.NewsItem) domain.Outcome {
	outcome := domain.Outcome{
		Trend:     item.Trend.Term,
		NewsTitle: item.Title,
		NewsURL:   item.URL,
		Stage:     domain.StageRewrite,
	}

	article, err := p.rewrite(ctx, item)
	if err != nil {
		p.warn("rewrite failed", "trend", item.Trend.Term, "title", item.Title, "error", err)
		outcome.Result = domain.FailedResult(err)
		outcome.ProcessedAt = p.now()
		return outcome
	}
	outcome.Title = article.Title
	outcome.Tags = article.Tags

	if p.saveArticles && p.store != nil {
		if path, err := p.store.SaveArticle(article); err != nil {
			p.warn("article not saved", "title", article.Title, "error", err)
		} else {
			outcome.FilePath = path
		}
	}

	if p.images != nil {
		if path, err := p.images.Generate(ctx, article); err != nil {
			p.warn("featured image skipped", "title", article.Title, "error", err)
		} else {
			article.ImagePath = path
			outcome.ImagePath = path
		}
	}

	outcome.Stage = domain.StagePublish
	result, err := p.publish(ctx, article)
	if err != nil {
		p.warn("publish failed", "title", article.Title, "kind", domain.KindOf(err), "error", err)
		outcome.Result = domain.FailedResult(err)
		outcome.ProcessedAt = p.now()
		return outcome
	}

	outcome.Stage = domain.StageDone
	outcome.Result = result
	p.info("article published", "trend", item.Trend.Term, "post_id", result.PostID, "title", article.Title)

	if p.cleanupPublished {
		p.cleanup(outcome.FilePath, outcome.ImagePath)
	}
	outcome.ProcessedAt = p.now()
	return outcome
}

func (p *Pipeline) rewrite(ctx context.Context, item domain.NewsItem) (domain.RewrittenArticle, error) {
	if p.rewriter == nil {
		return domain.RewrittenArticle{}, fmt.Errorf("%w: rewriter is not configured", domain.ErrRewriteFailed)
	}
	if err := ctx.Err(); err != nil {
		return domain.RewrittenArticle{}, fmt.Errorf("%w: %w", domain.ErrRewriteFailed, err)
	}
	return p.rewriter.Rewrite(ctx, item)
}

func (p *Pipeline) publish(ctx context.Context, article domain.RewrittenArticle) (domain.PublishResult, error) {
	if p.publisher == nil {
		return domain.PublishResult{}, fmt.Errorf("%w: publisher is not configured", domain.ErrPublishFailed)
	}
	result, err := p.publisher.Publish(ctx, article)
	if err != nil {
		return result, err
	}
	if !result.Success {
		return result, fmt.Errorf("%w: %s", domain.ErrPublishFailed, result.Error)
	}
	return result, nil
}

func (p *Pipeline) cleanup(paths ...string) {
	if p.store == nil {
		return
	}
	for _, path := range paths {
		if err := p.store.Remove(path); err != nil {
			p.warn("artifact not removed", "path", path, "error", err)
		}
	}
}

func (p *Pipeline) record(ctx context.Context, outcome domain.Outcome) {
	if p.repository == nil {
		return
	}
	if err := p.repository.SaveOutcome(ctx, outcome); err != nil {
		p.warn("outcome not persisted", "trend", outcome.Trend, "error", err)
	}
}

func (p *Pipeline) notify(ctx context.Context, summary domain.RunSummary) {
	if p.notifier == nil {
		return
	}
	message := buildDigestMessage(summary)
	if message == "" {
		return
	}
	if err := p.notifier.PublishDigest(ctx, message); err != nil {
		p.warn("digest not delivered", "error", err)
	}
}

func buildDigestMessage(summary domain.RunSummary) string {
	var b strings.Builder
	if summary.Aborted != "" {
		fmt.Fprintf(&b, "*Run aborted*: %s\n", escapeMarkdown(summary.Aborted))
		return b.String()
	}
	if summary.Total() == 0 && len(summary.SkippedTrends) == 0 {
		return ""
	}

	fmt.Fprintf(&b, "*TrendPress run*: %d published, %d failed, %d trends skipped\n\n",
		summary.Succeeded(), summary.Failed(), len(summary.SkippedTrends))
	for _, o := range summary.Outcomes {
		if o.Result.Success {
			fmt.Fprintf(&b, "- %s\nPost: %d\n%s\n\n", escapeMarkdown(o.Title), o.Result.PostID, escapeMarkdown(o.NewsURL))
			continue
		}
		fmt.Fprintf(&b, "- %s\nFailed at %s: %s\n\n", escapeMarkdown(o.NewsTitle), o.Stage, o.Result.ErrorKind)
	}
	return b.String()
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

// escapeMarkdown neutralises the Telegram Markdown entity markers in free text.
func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

func terms(trends []domain.Trend) []string {
	out := make([]string, len(trends))
	for i, t := range trends {
		out[i] = t.Term
	}
	return out
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (p *Pipeline) debug(msg string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}

func (p *Pipeline) info(msg string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}

func (p *Pipeline) logError(msg string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Error(msg, args...)
	}
}
