package news

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"TrendPress/internal/domain"
	"TrendPress/internal/ports"
	"TrendPress/internal/search"
)

// Enricher fills in article text after a strategy found the item.
type Enricher interface {
	Enrich(ctx context.Context, item domain.NewsItem) domain.NewsItem
}

// StrategySource implements NewsSource via registered search strategies tried in order.
type StrategySource struct {
	registry *search.Registry
	order    []string
	enricher Enricher
	logger   *slog.Logger
}

var _ ports.NewsSource = (*StrategySource)(nil)

// NewStrategySource wires the registry with the configured strategy order.
func NewStrategySource(reg *search.Registry, order []string, enricher Enricher, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry: reg,
		order:    order,
		enricher: enricher,
		logger:   log,
	}
}

// FetchNews asks each available strategy in turn until one returns items.
func (s *StrategySource) FetchNews(ctx context.Context, trend domain.Trend, maxItems int) ([]domain.NewsItem, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("search registry is not configured")
	}
	if maxItems < 1 {
		return nil, fmt.Errorf("max news per trend must be at least 1, got %d", maxItems)
	}

	var attempted []string
	for _, name := range s.order {
		strategy, err := s.registry.Resolve(name)
		if err != nil {
			s.warn("skip strategy", "strategy", name, "error", err)
			continue
		}
		if !strategy.Available() {
			s.debug("strategy unavailable", "strategy", name, "trend", trend.Term)
			continue
		}

		attempted = append(attempted, name)
		items, err := strategy.Search(ctx, search.Query{Trend: trend, Limit: maxItems})
		if err != nil {
			s.warn("strategy failed", "strategy", name, "trend", trend.Term, "error", err)
			continue
		}
		if len(items) == 0 {
			s.debug("strategy returned nothing", "strategy", name, "trend", trend.Term)
			continue
		}

		if len(items) > maxItems {
			items = items[:maxItems]
		}
		for i := range items {
			if s.enricher != nil {
				items[i] = s.enricher.Enrich(ctx, items[i])
			}
			items[i].Trend = trend
			if items[i].Origin == "" {
				items[i].Origin = name
			}
		}
		s.debug("strategy produced news", "strategy", name, "trend", trend.Term, "count", len(items))
		return items, nil
	}

	return nil, fmt.Errorf("%w: trend %q (tried %s)", domain.ErrNoNewsFound, trend.Term, strings.Join(attempted, ", "))
}

func (s *StrategySource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *StrategySource) warn(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
