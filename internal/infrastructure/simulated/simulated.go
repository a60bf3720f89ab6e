package simulated

import (
	"context"
	"fmt"
	"html"
	"sync"

	"TrendPress/internal/domain"
	"TrendPress/internal/ports"
	"TrendPress/internal/textutil"
)

// TrendSource returns a fixed list of trends.
type TrendSource struct {
	Trends []domain.Trend
	Err    error
}

var _ ports.TrendSource = (*TrendSource)(nil)

// FetchTrends returns at most maxCount of the configured trends.
func (s *TrendSource) FetchTrends(_ context.Context, maxCount int) ([]domain.Trend, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if maxCount < 1 {
		return nil, fmt.Errorf("max trends must be at least 1, got %d", maxCount)
	}
	n := min(maxCount, len(s.Trends))
	return append([]domain.Trend(nil), s.Trends[:n]...), nil
}

// NewsSource serves canned items keyed by trend term.
type NewsSource struct {
	Items map[string][]domain.NewsItem
	Errs  map[string]error

	mu    sync.Mutex
	calls []string
}

var _ ports.NewsSource = (*NewsSource)(nil)

// FetchNews returns the items registered for the trend or ErrNoNewsFound.
func (s *NewsSource) FetchNews(_ context.Context, trend domain.Trend, maxItems int) ([]domain.NewsItem, error) {
	s.mu.Lock()
	s.calls = append(s.calls, trend.Term)
	s.mu.Unlock()

	if err := s.Errs[trend.Term]; err != nil {
		return nil, err
	}
	items := s.Items[trend.Term]
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: trend %q", domain.ErrNoNewsFound, trend.Term)
	}

	n := min(maxItems, len(items))
	out := make([]domain.NewsItem, n)
	for i := range out {
		out[i] = items[i]
		out[i].Trend = trend
		if out[i].Origin == "" {
			out[i].Origin = "simulated"
		}
	}
	return out, nil
}

// Calls lists the trends that were requested, in order.
func (s *NewsSource) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// Rewriter returns canned articles keyed by news title, or a templated rewrite.
type Rewriter struct {
	Articles map[string]domain.RewrittenArticle
	Errs     map[string]error
	Err      error
}

var _ ports.Rewriter = (*Rewriter)(nil)

// Rewrite never echoes the original body.
func (r *Rewriter) Rewrite(_ context.Context, item domain.NewsItem) (domain.RewrittenArticle, error) {
	if r.Err != nil {
		return domain.RewrittenArticle{}, r.Err
	}
	if err := r.Errs[item.Title]; err != nil {
		return domain.RewrittenArticle{}, err
	}

	if article, ok := r.Articles[item.Title]; ok {
		article.Item = item
		return article, nil
	}

	title := "Reescrito: " + item.Title
	body := fmt.Sprintf("<article><h1>%s</h1><p>%s</p></article>",
		html.EscapeString(title), html.EscapeString("Rewritten: "+textutil.PlainText(item.Text())))
	return domain.RewrittenArticle{
		Item:  item,
		Title: title,
		Body:  body,
		Tags:  []string{item.Trend.Term},
	}, nil
}

// Publisher hands out sequential post IDs or fails every call with Err.
type Publisher struct {
	NextID int
	Err    error

	mu        sync.Mutex
	published []domain.RewrittenArticle
}

var _ ports.Publisher = (*Publisher)(nil)

// Publish records the article and returns the next post ID.
func (p *Publisher) Publish(_ context.Context, article domain.RewrittenArticle) (domain.PublishResult, error) {
	if p.Err != nil {
		return domain.FailedResult(p.Err), p.Err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.NextID == 0 {
		p.NextID = 1
	}
	id := p.NextID
	p.NextID++
	p.published = append(p.published, article)
	return domain.PublishResult{Success: true, PostID: id}, nil
}

// Published returns the articles accepted so far.
func (p *Publisher) Published() []domain.RewrittenArticle {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.RewrittenArticle(nil), p.published...)
}
