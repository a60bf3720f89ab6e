package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrendPress/internal/domain"
	"TrendPress/internal/infrastructure/simulated"
	"TrendPress/internal/infrastructure/storage"
)

type recordingRepository struct {
	saved []domain.Outcome
	err   error
}

func (r *recordingRepository) SaveOutcome(_ context.Context, outcome domain.Outcome) error {
	r.saved = append(r.saved, outcome)
	return r.err
}

func (r *recordingRepository) RecentOutcomes(_ context.Context, limit int) ([]domain.Outcome, error) {
	return r.saved, nil
}

type recordingNotifier struct {
	digests []string
}

func (n *recordingNotifier) PublishDigest(_ context.Context, digest string) error {
	n.digests = append(n.digests, digest)
	return errors.New("telegram down")
}

type fileImages struct {
	dir string
}

func (g fileImages) Generate(_ context.Context, article domain.RewrittenArticle) (string, error) {
	path := filepath.Join(g.dir, "image_"+article.Item.Trend.Term+".png")
	return path, os.WriteFile(path, []byte("png"), 0o600)
}

type brokenStore struct{}

func (brokenStore) SaveTrends([]domain.Trend) (string, error)           { return "", nil }
func (brokenStore) SaveArticle(domain.RewrittenArticle) (string, error) { return "", nil }
func (brokenStore) WriteSummary(domain.RunSummary) (string, error)      { return "", errors.New("disk full") }
func (brokenStore) Remove(string) error                                 { return nil }

func newTestPipeline(deps PipelineDeps) *Pipeline {
	if deps.MaxTrends == 0 {
		deps.MaxTrends = 5
	}
	if deps.MaxPerTrend == 0 {
		deps.MaxPerTrend = 3
	}
	p := NewPipeline(deps)
	p.sleep = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }
	return p
}

func readResults(t *testing.T, dir string) map[string]any {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join(dir, "results.json"))
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestRunPublishesRewrittenArticle(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	publisher := &simulated.Publisher{NextID: 42}
	p := newTestPipeline(PipelineDeps{
		Trends: &simulated.TrendSource{Trends: []domain.Trend{{Term: "AI regulation", Rank: 1}}},
		News: &simulated.NewsSource{Items: map[string][]domain.NewsItem{
			"AI regulation": {{Title: "EU passes AI law", Body: "The European Union approved..."}},
		}},
		Rewriter: &simulated.Rewriter{Articles: map[string]domain.RewrittenArticle{
			"EU passes AI law": {Title: "New EU AI Law", Body: "Rewritten..."},
		}},
		Publisher: publisher,
		Store:     storage.NewFileStore(dir),
	})

	summary, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, summary.Outcomes, 1)

	outcome := summary.Outcomes[0]
	assert.True(t, outcome.Result.Success)
	assert.Equal(t, 42, outcome.Result.PostID)
	assert.Equal(t, domain.StageDone, outcome.Stage)
	assert.Equal(t, "New EU AI Law", outcome.Title)
	assert.Empty(t, summary.Aborted)
	assert.Equal(t, 1, summary.Succeeded())

	require.Len(t, publisher.Published(), 1)
	assert.Equal(t, "EU passes AI law", publisher.Published()[0].Item.Title)

	results := readResults(t, dir)
	assert.EqualValues(t, 1, results["total_processed"])
	assert.EqualValues(t, 1, results["succeeded"])
	assert.FileExists(t, filepath.Join(dir, "trends.json"))
}

func TestRunSkipsTrendWithoutNews(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	news := &simulated.NewsSource{Items: map[string][]domain.NewsItem{
		"beta": {{Title: "Beta news", Body: "body"}},
	}}
	p := newTestPipeline(PipelineDeps{
		Trends:    &simulated.TrendSource{Trends: []domain.Trend{{Term: "alpha"}, {Term: "beta"}}},
		News:      news,
		Rewriter:  &simulated.Rewriter{},
		Publisher: &simulated.Publisher{},
		Store:     storage.NewFileStore(dir),
	})

	summary, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, summary.Aborted)
	assert.Equal(t, []string{"alpha", "beta"}, news.Calls())
	require.Len(t, summary.SkippedTrends, 1)
	assert.Equal(t, "alpha", summary.SkippedTrends[0].Trend)
	assert.Contains(t, summary.SkippedTrends[0].Reason, "no news found")
	require.Len(t, summary.Outcomes, 1)
	assert.Equal(t, "beta", summary.Outcomes[0].Trend)
}

type staticNews struct {
	items []domain.NewsItem
	calls int
}

func (s *staticNews) FetchNews(_ context.Context, trend domain.Trend, _ int) ([]domain.NewsItem, error) {
	s.calls++
	out := make([]domain.NewsItem, len(s.items))
	for i, item := range s.items {
		item.Trend = trend
		out[i] = item
	}
	return out, nil
}

func TestRunSkipsTrendWhenSourceReturnsEmpty(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	news := &staticNews{items: []domain.NewsItem{}}
	p := newTestPipeline(PipelineDeps{
		Trends:    &simulated.TrendSource{Trends: []domain.Trend{{Term: "AI regulation"}}},
		News:      news,
		Rewriter:  &simulated.Rewriter{},
		Publisher: &simulated.Publisher{},
		Store:     storage.NewFileStore(t.TempDir()),
		Logger:    slog.New(slog.NewTextHandler(&logs, nil)),
	})

	summary, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, summary.Aborted)
	assert.Empty(t, summary.Outcomes)
	assert.Equal(t, 1, news.calls)
	require.Len(t, summary.SkippedTrends, 1)
	assert.Equal(t, "AI regulation", summary.SkippedTrends[0].Trend)
	assert.Contains(t, summary.SkippedTrends[0].Reason, "no news found")
	assert.Contains(t, logs.String(), "kind=NoNewsFound")
}

func TestRunCapsItemsPerTrend(t *testing.T) {
	t.Parallel()

	news := &staticNews{items: []domain.NewsItem{
		{Title: "n1", Body: "a"}, {Title: "n2", Body: "b"}, {Title: "n3", Body: "c"},
	}}
	p := newTestPipeline(PipelineDeps{
		Trends:      &simulated.TrendSource{Trends: []domain.Trend{{Term: "t"}}},
		News:        news,
		Rewriter:    &simulated.Rewriter{},
		Publisher:   &simulated.Publisher{},
		Store:       storage.NewFileStore(t.TempDir()),
		MaxPerTrend: 2,
	})

	summary, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, summary.Outcomes, 2)
	assert.Equal(t, "n2", summary.Outcomes[1].NewsTitle)
}

func TestRunRecordsAuthenticationFailurePerItem(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	authErr := fmt.Errorf("%w: wp.getProfile: bad credentials", domain.ErrAuthenticationFailed)
	p := newTestPipeline(PipelineDeps{
		Trends: &simulated.TrendSource{Trends: []domain.Trend{{Term: "a"}, {Term: "b"}}},
		News: &simulated.NewsSource{Items: map[string][]domain.NewsItem{
			"a": {{Title: "a1", Body: "x"}, {Title: "a2", Body: "y"}},
			"b": {{Title: "b1", Body: "z"}},
		}},
		Rewriter:  &simulated.Rewriter{},
		Publisher: &simulated.Publisher{Err: authErr},
		Store:     storage.NewFileStore(dir),
	})

	summary, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, summary.Outcomes, 3)
	for _, o := range summary.Outcomes {
		assert.False(t, o.Result.Success)
		assert.Equal(t, "AuthenticationFailed", o.Result.ErrorKind)
		assert.Equal(t, domain.StagePublish, o.Stage)
	}
	assert.Equal(t, 3, summary.Failed())

	results := readResults(t, dir)
	assert.EqualValues(t, 3, results["failed"])
}

func TestRunIsolatesRewriteFailures(t *testing.T) {
	t.Parallel()

	repo := &recordingRepository{err: errors.New("db gone")}
	p := newTestPipeline(PipelineDeps{
		Trends: &simulated.TrendSource{Trends: []domain.Trend{{Term: "a"}}},
		News: &simulated.NewsSource{Items: map[string][]domain.NewsItem{
			"a": {{Title: "bad", Body: "x"}, {Title: "good", Body: "y"}},
		}},
		Rewriter: &simulated.Rewriter{Errs: map[string]error{
			"bad": fmt.Errorf("%w: quota exceeded", domain.ErrRewriteFailed),
		}},
		Publisher:  &simulated.Publisher{NextID: 7},
		Repository: repo,
		Store:      storage.NewFileStore(t.TempDir()),
	})

	summary, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, summary.Outcomes, 2)

	assert.Equal(t, domain.StageRewrite, summary.Outcomes[0].Stage)
	assert.Equal(t, "RewriteFailed", summary.Outcomes[0].Result.ErrorKind)
	assert.True(t, summary.Outcomes[1].Result.Success)
	assert.Equal(t, 7, summary.Outcomes[1].Result.PostID)
	assert.Len(t, repo.saved, 2)
}

func TestRunAbortsWhenTrendsUnavailable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	notifier := &recordingNotifier{}
	news := &simulated.NewsSource{}
	p := newTestPipeline(PipelineDeps{
		Trends:   &simulated.TrendSource{Err: fmt.Errorf("%w: status 503", domain.ErrSourceUnavailable)},
		News:     news,
		Store:    storage.NewFileStore(dir),
		Notifier: notifier,
	})

	summary, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, summary.Aborted, "source unavailable")
	assert.Empty(t, summary.Outcomes)
	assert.Empty(t, news.Calls())

	results := readResults(t, dir)
	assert.Contains(t, results["aborted"], "source unavailable")
	require.Len(t, notifier.digests, 1)
	assert.Contains(t, notifier.digests[0], "Run aborted")
}

func TestRunAbortsOnEmptyTrends(t *testing.T) {
	t.Parallel()

	p := newTestPipeline(PipelineDeps{
		Trends: &simulated.TrendSource{},
		Store:  storage.NewFileStore(t.TempDir()),
	})

	summary, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "no trends found", summary.Aborted)
}

func TestRunOutcomeCountMatchesFetchedItems(t *testing.T) {
	t.Parallel()

	fx := simulated.DefaultFixture()
	p := newTestPipeline(PipelineDeps{
		Trends:      fx.Trends,
		News:        fx.News,
		Rewriter:    fx.Rewriter,
		Publisher:   fx.Publisher,
		Store:       storage.NewFileStore(t.TempDir()),
		MaxTrends:   5,
		MaxPerTrend: 3,
	})

	summary, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, summary.Trends, 5)
	assert.Len(t, summary.SkippedTrends, 3)
	assert.Len(t, summary.Outcomes, 2)
	assert.Equal(t, 12345, summary.Outcomes[0].Result.PostID)
	assert.Equal(t, 12346, summary.Outcomes[1].Result.PostID)
}

func TestRunCleansUpPublishedArtifacts(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := newTestPipeline(PipelineDeps{
		Trends: &simulated.TrendSource{Trends: []domain.Trend{{Term: "a"}}},
		News: &simulated.NewsSource{Items: map[string][]domain.NewsItem{
			"a": {{Title: "a1", Body: "x"}},
		}},
		Rewriter:         &simulated.Rewriter{},
		Publisher:        &simulated.Publisher{},
		Images:           fileImages{dir: dir},
		Store:            storage.NewFileStore(dir),
		SaveArticles:     true,
		CleanupPublished: true,
	})

	summary, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, summary.Outcomes, 1)

	outcome := summary.Outcomes[0]
	require.NotEmpty(t, outcome.FilePath)
	require.NotEmpty(t, outcome.ImagePath)
	assert.True(t, strings.HasSuffix(outcome.FilePath, ".html"))
	assert.NoFileExists(t, outcome.FilePath)
	assert.NoFileExists(t, outcome.ImagePath)
}

func TestRunReturnsSummaryWriteError(t *testing.T) {
	t.Parallel()

	p := newTestPipeline(PipelineDeps{
		Trends: &simulated.TrendSource{Trends: []domain.Trend{{Term: "a"}}},
		News:   &simulated.NewsSource{},
		Store:  brokenStore{},
	})

	summary, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Len(t, summary.SkippedTrends, 1)
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	news := &simulated.NewsSource{}
	p := newTestPipeline(PipelineDeps{
		Trends: &simulated.TrendSource{Trends: []domain.Trend{{Term: "a"}, {Term: "b"}}},
		News:   news,
		Store:  storage.NewFileStore(t.TempDir()),
	})

	summary, err := p.Run(ctx)
	require.NoError(t, err)
	assert.Contains(t, summary.Aborted, "interrupted")
	assert.Empty(t, news.Calls())
}

func TestBuildDigestMessage(t *testing.T) {
	t.Parallel()

	assert.Empty(t, buildDigestMessage(domain.RunSummary{}))

	msg := buildDigestMessage(domain.RunSummary{
		Outcomes: []domain.Outcome{
			{Title: "Ok", NewsURL: "https://n.example/1", Result: domain.PublishResult{Success: true, PostID: 9}},
			{NewsTitle: "Broken", Stage: domain.StagePublish, Result: domain.PublishResult{ErrorKind: "PublishFailed"}},
		},
	})
	assert.Contains(t, msg, "1 published, 1 failed")
	assert.Contains(t, msg, "Post: 9")
	assert.Contains(t, msg, "Failed at publish: PublishFailed")
}

func TestBuildDigestMessageEscapesMarkdown(t *testing.T) {
	t.Parallel()

	msg := buildDigestMessage(domain.RunSummary{
		Outcomes: []domain.Outcome{{
			Title:   "Alta do *dólar* [urgente]",
			NewsURL: "https://n.example/economia/alta_do_dolar",
			Result:  domain.PublishResult{Success: true, PostID: 1},
		}},
	})
	assert.Contains(t, msg, `Alta do \*dólar\* \[urgente]`)
	assert.Contains(t, msg, `https://n.example/economia/alta\_do\_dolar`)
	assert.True(t, strings.HasPrefix(msg, "*TrendPress run*"))

	aborted := buildDigestMessage(domain.RunSummary{Aborted: "fetch trends: bad_gateway"})
	assert.Contains(t, aborted, `bad\_gateway`)
}
