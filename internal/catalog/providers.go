package catalog

import (
	"context"
	"errors"
	"sync"

	"github.com/charmbracelet/x/exp/ordered"
	"github.com/openrouter-inspector/openrouter-inspector/internal/openrouter"
	"golang.org/x/sync/errgroup"
)

// MaxConcurrency caps the number of endpoint requests in flight.
const MaxConcurrency = 16

// Source is where models and their offers come from.
type Source interface {
	Models(ctx context.Context) ([]openrouter.Model, error)
	Endpoints(ctx context.Context, modelID string) (openrouter.ModelEndpoints, error)
}

// EndpointSource fetches the offers of a single model.
type EndpointSource interface {
	Endpoints(ctx context.Context, modelID string) (openrouter.ModelEndpoints, error)
}

// FetchEndpoints fetches the offers of every model, at most concurrency
// requests at a time. Models the API does not know have no offers.
func FetchEndpoints(ctx context.Context, src EndpointSource, ids []string, concurrency int) (map[string][]openrouter.Endpoint, error) {
	var (
		mu  sync.Mutex
		out = make(map[string][]openrouter.Endpoint, len(ids))
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(ordered.Clamp(concurrency, 1, MaxConcurrency))
	for _, id := range ids {
		g.Go(func() error {
			res, err := src.Endpoints(ctx, id)
			if errors.Is(err, openrouter.ErrNotFound) {
				err = nil
			}
			if err != nil {
				return err
			}
			mu.Lock()
			out[id] = res.Endpoints
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err //nolint:wrapcheck
	}
	return out, nil
}

// CountProviders returns the number of online offers per model id.
func CountProviders(ctx context.Context, src EndpointSource, ids []string, concurrency int) (map[string]int, error) {
	endpoints, err := FetchEndpoints(ctx, src, ids, concurrency)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(ids))
	for _, id := range ids {
		counts[id] = ActiveCount(endpoints[id])
	}
	return counts, nil
}
