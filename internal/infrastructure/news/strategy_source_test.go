package news

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrendPress/internal/domain"
	"TrendPress/internal/search"
)

type fakeStrategy struct {
	name      string
	available bool
	items     []domain.NewsItem
	err       error
	calls     int
}

func (f *fakeStrategy) Name() string    { return f.name }
func (f *fakeStrategy) Available() bool { return f.available }
func (f *fakeStrategy) Search(_ context.Context, q search.Query) ([]domain.NewsItem, error) {
	f.calls++
	return f.items, f.err
}

type upperEnricher struct{}

func (upperEnricher) Enrich(_ context.Context, item domain.NewsItem) domain.NewsItem {
	item.Body = "enriched: " + item.Title
	item.Trend = domain.Trend{Term: "overwritten"}
	return item
}

func newSource(enricher Enricher, strategies ...*fakeStrategy) *StrategySource {
	reg := search.NewRegistry()
	order := make([]string, 0, len(strategies))
	for _, s := range strategies {
		reg.Register(s)
		order = append(order, s.name)
	}
	return NewStrategySource(reg, order, enricher, nil)
}

func TestFetchNewsFallsBackOnceOnError(t *testing.T) {
	t.Parallel()

	primary := &fakeStrategy{name: "newsapi", available: true, err: errors.New("401")}
	fallback := &fakeStrategy{name: "googlenews", available: true, items: []domain.NewsItem{{Title: "a"}}}
	src := newSource(nil, primary, fallback)

	items, err := src.FetchNews(context.Background(), domain.Trend{Term: "copa"}, 3)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, fallback.calls)
	assert.Equal(t, "copa", items[0].Trend.Term)
	assert.Equal(t, "googlenews", items[0].Origin)
}

func TestFetchNewsNoNewsFound(t *testing.T) {
	t.Parallel()

	primary := &fakeStrategy{name: "newsapi", available: true}
	fallback := &fakeStrategy{name: "googlenews", available: true}
	src := newSource(nil, primary, fallback)

	_, err := src.FetchNews(context.Background(), domain.Trend{Term: "nada"}, 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNoNewsFound))
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, fallback.calls)
}

func TestFetchNewsSkipsUnavailablePrimary(t *testing.T) {
	t.Parallel()

	primary := &fakeStrategy{name: "newsapi", available: false}
	fallback := &fakeStrategy{name: "googlenews", available: true, items: []domain.NewsItem{{Title: "a"}, {Title: "b"}, {Title: "c"}}}
	src := newSource(upperEnricher{}, primary, fallback)

	items, err := src.FetchNews(context.Background(), domain.Trend{Term: "chuva"}, 2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Zero(t, primary.calls)
	assert.Equal(t, "enriched: a", items[0].Body)
	assert.Equal(t, "chuva", items[1].Trend.Term)
}

func TestFetchNewsPrimarySuccessSkipsFallback(t *testing.T) {
	t.Parallel()

	primary := &fakeStrategy{name: "newsapi", available: true, items: []domain.NewsItem{{Title: "a", Origin: "newsapi"}}}
	fallback := &fakeStrategy{name: "googlenews", available: true}
	src := newSource(nil, primary, fallback)

	_, err := src.FetchNews(context.Background(), domain.Trend{Term: "x"}, 1)
	require.NoError(t, err)
	assert.Zero(t, fallback.calls)
}

func TestFetchNewsUnknownStrategyIgnored(t *testing.T) {
	t.Parallel()

	fallback := &fakeStrategy{name: "googlenews", available: true, items: []domain.NewsItem{{Title: "a"}}}
	reg := search.NewRegistry()
	reg.Register(fallback)
	src := NewStrategySource(reg, []string{"bing", "googlenews"}, nil, nil)

	items, err := src.FetchNews(context.Background(), domain.Trend{Term: "x"}, 1)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}
