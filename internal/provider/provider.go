// Package provider fetches raw candidates from the places job posts live.
// Each source kind (facebook, rss) has one Provider registered under its name.
package provider

import (
	"context"
	"fmt"
	"sort"

	"github.com/MrSnakeDoc/jobscout/internal/domain"
)

// Provider fetches at most limit recent candidates for one source.
// Errors should be *domain.ProviderError so callers can tell auth failures
// and rate limits from plain network trouble.
type Provider interface {
	Fetch(ctx context.Context, src domain.Source, limit int) ([]domain.Candidate, error)
}

// Registry maps a source's provider kind to its implementation.
type Registry map[string]Provider

// Get returns the provider for kind.
func (r Registry) Get(kind string) (Provider, error) {
	p, ok := r[kind]
	if !ok || p == nil {
		return nil, fmt.Errorf("no provider registered for %q", kind)
	}
	return p, nil
}

// Kinds lists the registered provider names in order.
func (r Registry) Kinds() []string {
	kinds := make([]string, 0, len(r))
	for k := range r {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
