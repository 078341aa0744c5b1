// Package catalog filters, sorts and resolves models and their provider
// offers.
package catalog

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/openrouter-inspector/openrouter-inspector/internal/openrouter"
)

// Model sort keys.
const (
	SortID        = "id"
	SortName      = "name"
	SortContext   = "context"
	SortProviders = "providers"
	SortPriceIn   = "price_in"
	SortPriceOut  = "price_out"
)

// ModelSortKeys lists the accepted model sort keys.
var ModelSortKeys = []string{SortID, SortName, SortContext, SortProviders, SortPriceIn, SortPriceOut}

// ModelFilter narrows a model listing. Zero values match everything.
type ModelFilter struct {
	// Text terms must all appear in the id or name, ignoring case.
	Text       []string
	MinContext int
	// Tools, when set, requires tool support to match.
	Tools     *bool
	Reasoning bool
	Images    bool
}

// Match reports whether the model passes the filter.
func (f ModelFilter) Match(m openrouter.Model) bool {
	id, name := strings.ToLower(m.ID), strings.ToLower(m.Name)
	for _, term := range f.Text {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			continue
		}
		if !strings.Contains(id, term) && !strings.Contains(name, term) {
			return false
		}
	}
	if f.MinContext > 0 && m.ContextLength < f.MinContext {
		return false
	}
	if f.Tools != nil && m.SupportsTools() != *f.Tools {
		return false
	}
	if f.Reasoning && !m.SupportsReasoning() {
		return false
	}
	if f.Images && !m.SupportsImages() {
		return false
	}
	return true
}

// FilterModels returns the models passing the filter, in order.
func FilterModels(models []openrouter.Model, f ModelFilter) []openrouter.Model {
	out := make([]openrouter.Model, 0, len(models))
	for _, m := range models {
		if f.Match(m) {
			out = append(out, m)
		}
	}
	return out
}

// SortModels returns a sorted copy of models. Sorting by providers uses
// the given active provider counts.
func SortModels(models []openrouter.Model, by string, desc bool, providers map[string]int) ([]openrouter.Model, error) {
	by = strings.ToLower(by)
	if by == "" {
		by = SortID
	}
	var less func(a, b openrouter.Model) int
	switch by {
	case SortID:
		less = func(a, b openrouter.Model) int {
			return cmp.Compare(strings.ToLower(a.ID), strings.ToLower(b.ID))
		}
	case SortName:
		less = func(a, b openrouter.Model) int {
			return cmp.Compare(strings.ToLower(a.DisplayName()), strings.ToLower(b.DisplayName()))
		}
	case SortContext:
		less = func(a, b openrouter.Model) int {
			return cmp.Compare(a.ContextLength, b.ContextLength)
		}
	case SortProviders:
		if providers == nil {
			return nil, fmt.Errorf("sorting by %s requires provider counts", by)
		}
		less = func(a, b openrouter.Model) int {
			return cmp.Compare(providers[a.ID], providers[b.ID])
		}
	case SortPriceIn:
		less = func(a, b openrouter.Model) int {
			return comparePrice(a.Pricing, b.Pricing, openrouter.PricePrompt)
		}
	case SortPriceOut:
		less = func(a, b openrouter.Model) int {
			return comparePrice(a.Pricing, b.Pricing, openrouter.PriceCompletion)
		}
	default:
		return nil, fmt.Errorf("unknown sort key %q", by)
	}

	out := slices.Clone(models)
	slices.SortStableFunc(out, func(a, b openrouter.Model) int {
		if desc {
			return less(b, a)
		}
		return less(a, b)
	})
	return out, nil
}

// comparePrice orders missing prices after known ones.
func comparePrice(a, b openrouter.Pricing, kind string) int {
	pa, oka := a.Get(kind)
	pb, okb := b.Get(kind)
	switch {
	case !oka && !okb:
		return 0
	case !oka:
		return 1
	case !okb:
		return -1
	}
	return pa.Cmp(pb)
}
