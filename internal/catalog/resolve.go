package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openrouter-inspector/openrouter-inspector/internal/openrouter"
)

// MaxSuggestions caps the candidates listed for an ambiguous model id.
const MaxSuggestions = 20

// NotFoundError is returned when no model matches the query.
type NotFoundError struct {
	Query string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Model id '%s' not found.", e.Query)
}

func (e *NotFoundError) Unwrap() error {
	return openrouter.ErrNotFound
}

// NoOffersError is returned when the model exists but has no offers.
type NoOffersError struct {
	ID string
}

func (e *NoOffersError) Error() string {
	return fmt.Sprintf("Model '%s' has no provider offers.", e.ID)
}

// AmbiguousError is returned when several models match the query.
type AmbiguousError struct {
	Query      string
	Candidates []openrouter.Model
}

func (e *AmbiguousError) Error() string {
	var sb strings.Builder
	sb.WriteString("Model id not found. Did you mean one of these?")
	for _, m := range e.Suggestions() {
		fmt.Fprintf(&sb, "\n- %s  (%s)", m.ID, m.DisplayName())
	}
	return sb.String()
}

// Suggestions returns up to [MaxSuggestions] candidates.
func (e *AmbiguousError) Suggestions() []openrouter.Model {
	if len(e.Candidates) > MaxSuggestions {
		return e.Candidates[:MaxSuggestions]
	}
	return e.Candidates
}

// Resolve finds the offers for query, which is either an exact model id or
// a substring of a single model's id or name.
func Resolve(ctx context.Context, src Source, query string) (openrouter.ModelEndpoints, error) {
	query = strings.TrimSpace(query)
	res, err := src.Endpoints(ctx, query)
	switch {
	case err == nil && len(res.Endpoints) > 0:
		return res, nil
	case err != nil && !errors.Is(err, openrouter.ErrNotFound):
		var ae *openrouter.APIError
		if !errors.As(err, &ae) || ae.Is(openrouter.ErrUnauthorized) || ae.Is(openrouter.ErrRateLimited) {
			return res, err //nolint:wrapcheck
		}
	}

	models, err := src.Models(ctx)
	if err != nil {
		return openrouter.ModelEndpoints{}, err //nolint:wrapcheck
	}
	candidates := Candidates(models, query)
	switch len(candidates) {
	case 0:
		return openrouter.ModelEndpoints{}, &NotFoundError{Query: query}
	case 1:
		return Offers(ctx, src, candidates[0].ID)
	default:
		return openrouter.ModelEndpoints{}, &AmbiguousError{Query: query, Candidates: candidates}
	}
}

// Offers fetches the offers of an exact model id, failing when it has none.
func Offers(ctx context.Context, src EndpointSource, id string) (openrouter.ModelEndpoints, error) {
	res, err := src.Endpoints(ctx, id)
	if errors.Is(err, openrouter.ErrNotFound) {
		return res, &NotFoundError{Query: id}
	}
	if err != nil {
		return res, err //nolint:wrapcheck
	}
	if len(res.Endpoints) == 0 {
		return res, &NoOffersError{ID: id}
	}
	return res, nil
}

// Candidates returns the models whose id or name contains query. A model
// whose id equals query wins over partial matches.
func Candidates(models []openrouter.Model, query string) []openrouter.Model {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	var out []openrouter.Model
	for _, m := range models {
		if strings.EqualFold(m.ID, q) {
			return []openrouter.Model{m}
		}
		if strings.Contains(strings.ToLower(m.ID), q) || strings.Contains(strings.ToLower(m.Name), q) {
			out = append(out, m)
		}
	}
	return out
}

// Find returns the model with the given id, or the single candidate
// matching query.
func Find(models []openrouter.Model, query string) (openrouter.Model, error) {
	candidates := Candidates(models, query)
	switch len(candidates) {
	case 0:
		return openrouter.Model{}, &NotFoundError{Query: query}
	case 1:
		return candidates[0], nil
	default:
		return openrouter.Model{}, &AmbiguousError{Query: query, Candidates: candidates}
	}
}
