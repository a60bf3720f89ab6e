package search

import (
	"context"
	"fmt"

	"TrendPress/internal/domain"
)

// Query carries all parameters required to run a news search.
type Query struct {
	Trend domain.Trend
	Limit int
}

// Strategy captures a single way of finding news (API, scraping, etc.).
type Strategy interface {
	Name() string
	// Available reports whether the strategy can run with the current configuration.
	Available() bool
	Search(ctx context.Context, q Query) ([]domain.NewsItem, error)
}

// Registry keeps a mapping from strategy names to their implementations.
type Registry struct {
	strategies map[string]Strategy
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{strategies: map[string]Strategy{}}
}

// Register adds or replaces a strategy implementation.
func (r *Registry) Register(strategy Strategy) {
	if r.strategies == nil {
		r.strategies = map[string]Strategy{}
	}
	r.strategies[strategy.Name()] = strategy
}

// Resolve returns a strategy by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Strategy, error) {
	if strategy, ok := r.strategies[name]; ok {
		return strategy, nil
	}
	return nil, fmt.Errorf("news strategy %s is not registered", name)
}
