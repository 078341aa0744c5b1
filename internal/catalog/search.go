package catalog

import (
	"context"
	"strings"

	"github.com/openrouter-inspector/openrouter-inspector/internal/openrouter"
	"github.com/shopspring/decimal"
)

// SearchFilter is the set of search criteria.
type SearchFilter struct {
	Query      string
	MinContext int
	// MaxPrice is in USD per token. A model matches when its cheapest
	// pricing entry is within it. Models without pricing always match.
	MaxPrice *decimal.Decimal
	// Tools and Reasoning need at least one offer with the capability.
	Tools     *bool
	Reasoning bool
}

func (f SearchFilter) needsEndpoints() bool {
	return f.Tools != nil || f.Reasoning
}

func (f SearchFilter) matchModel(m openrouter.Model) bool {
	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q != "" &&
		!strings.Contains(strings.ToLower(m.ID), q) &&
		!strings.Contains(strings.ToLower(m.Name), q) {
		return false
	}
	if f.MinContext > 0 && m.ContextLength < f.MinContext {
		return false
	}
	if f.MaxPrice != nil && len(m.Pricing) > 0 {
		lowest, ok := m.Pricing.Min()
		if !ok || lowest.GreaterThan(*f.MaxPrice) {
			return false
		}
	}
	return true
}

func (f SearchFilter) matchEndpoint(e openrouter.Endpoint) bool {
	if f.Tools != nil && e.SupportsTools() != *f.Tools {
		return false
	}
	if f.Reasoning && !e.SupportsReasoning() {
		return false
	}
	return true
}

// Search returns the models matching the filter, in API order.
func Search(ctx context.Context, src Source, f SearchFilter, concurrency int) ([]openrouter.Model, error) {
	models, err := src.Models(ctx)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	var candidates []openrouter.Model
	for _, m := range models {
		if f.matchModel(m) {
			candidates = append(candidates, m)
		}
	}
	if !f.needsEndpoints() || len(candidates) == 0 {
		return candidates, nil
	}

	ids := make([]string, 0, len(candidates))
	for _, m := range candidates {
		ids = append(ids, m.ID)
	}
	endpoints, err := FetchEndpoints(ctx, src, ids, concurrency)
	if err != nil {
		return nil, err
	}

	var out []openrouter.Model
	for _, m := range candidates {
		for _, e := range endpoints[m.ID] {
			if f.matchEndpoint(e) {
				out = append(out, m)
				break
			}
		}
	}
	return out, nil
}
