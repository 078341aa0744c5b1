package catalog

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/openrouter-inspector/openrouter-inspector/internal/format"
	"github.com/openrouter-inspector/openrouter-inspector/internal/openrouter"
	"github.com/shopspring/decimal"
)

// Endpoint sort keys. SortAPI keeps the order the API returned.
const (
	SortAPI      = "api"
	SortProvider = "provider"
	SortModel    = "model"
	SortQuant    = "quant"
	SortMaxOut   = "maxout"
	SortUptime   = "uptime"
)

// EndpointSortKeys lists the accepted endpoint sort keys.
var EndpointSortKeys = []string{
	SortAPI, SortProvider, SortModel, SortQuant, SortContext,
	SortMaxOut, SortPriceIn, SortPriceOut, SortUptime,
}

// EndpointFilter narrows a model's offers. Zero values match everything.
type EndpointFilter struct {
	// Providers restricts offers to these provider names, ignoring case.
	Providers []string
	Tools     bool
	Reasoning bool
	// Images, when set, requires image input support to match.
	Images *bool
	// MinQuant is a quantization label such as fp8. Offers with an
	// unspecified quantization always pass.
	MinQuant   string
	MinContext int
	// Price limits are in USD per million tokens. Offers without a price
	// of the given kind pass.
	MaxPriceIn  *decimal.Decimal
	MaxPriceOut *decimal.Decimal
	// MinUptime is a percentage. Offers without uptime data fail it.
	MinUptime *float64
}

// Match reports whether the endpoint passes the filter.
func (f EndpointFilter) Match(e openrouter.Endpoint) bool {
	if len(f.Providers) > 0 && !slices.ContainsFunc(f.Providers, func(p string) bool {
		return strings.EqualFold(strings.TrimSpace(p), e.ProviderName)
	}) {
		return false
	}
	if f.Tools && !e.SupportsTools() {
		return false
	}
	if f.Reasoning && !e.SupportsReasoning() {
		return false
	}
	if f.Images != nil && e.SupportsImages() != *f.Images {
		return false
	}
	if f.MinQuant != "" && format.QuantBits(e.Quantization) < format.QuantBits(f.MinQuant) {
		return false
	}
	if f.MinContext > 0 && e.ContextLength < f.MinContext {
		return false
	}
	if !withinPerMillion(e.Pricing, openrouter.PricePrompt, f.MaxPriceIn) {
		return false
	}
	if !withinPerMillion(e.Pricing, openrouter.PriceCompletion, f.MaxPriceOut) {
		return false
	}
	if f.MinUptime != nil {
		up, ok := e.Uptime()
		if !ok || up < *f.MinUptime {
			return false
		}
	}
	return true
}

// FilterEndpoints returns the endpoints passing the filter, in order.
func FilterEndpoints(endpoints []openrouter.Endpoint, f EndpointFilter) []openrouter.Endpoint {
	out := make([]openrouter.Endpoint, 0, len(endpoints))
	for _, e := range endpoints {
		if f.Match(e) {
			out = append(out, e)
		}
	}
	return out
}

// SortEndpoints returns a sorted copy of endpoints.
func SortEndpoints(endpoints []openrouter.Endpoint, by string, desc bool) ([]openrouter.Endpoint, error) {
	by = strings.ToLower(by)
	out := slices.Clone(endpoints)
	if by == "" || by == SortAPI {
		if desc {
			slices.Reverse(out)
		}
		return out, nil
	}

	var less func(a, b openrouter.Endpoint) int
	switch by {
	case SortProvider:
		less = func(a, b openrouter.Endpoint) int {
			return cmp.Compare(strings.ToLower(a.ProviderName), strings.ToLower(b.ProviderName))
		}
	case SortModel:
		less = func(a, b openrouter.Endpoint) int {
			return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		}
	case SortQuant:
		less = func(a, b openrouter.Endpoint) int {
			return cmp.Compare(strings.ToLower(a.Quantization), strings.ToLower(b.Quantization))
		}
	case SortContext:
		less = func(a, b openrouter.Endpoint) int {
			return cmp.Compare(a.ContextLength, b.ContextLength)
		}
	case SortMaxOut:
		less = func(a, b openrouter.Endpoint) int {
			return cmp.Compare(deref(a.MaxCompletionTokens), deref(b.MaxCompletionTokens))
		}
	case SortPriceIn:
		less = func(a, b openrouter.Endpoint) int {
			return comparePrice(a.Pricing, b.Pricing, openrouter.PricePrompt)
		}
	case SortPriceOut:
		less = func(a, b openrouter.Endpoint) int {
			return comparePrice(a.Pricing, b.Pricing, openrouter.PriceCompletion)
		}
	case SortUptime:
		less = func(a, b openrouter.Endpoint) int {
			ua, _ := a.Uptime()
			ub, _ := b.Uptime()
			return cmp.Compare(ua, ub)
		}
	default:
		return nil, fmt.Errorf("unknown sort key %q", by)
	}

	slices.SortStableFunc(out, func(a, b openrouter.Endpoint) int {
		if desc {
			return less(b, a)
		}
		return less(a, b)
	})
	return out, nil
}

// ActiveCount counts the endpoints currently online.
func ActiveCount(endpoints []openrouter.Endpoint) int {
	var n int
	for _, e := range endpoints {
		if e.Online() {
			n++
		}
	}
	return n
}

// Status is the health of a single offer.
type Status string

// Offer states.
const (
	Functional Status = "Functional"
	Disabled   Status = "Disabled"
)

// Check finds the offer of provider (and, optionally, the named endpoint)
// and reports whether it is serving.
func Check(endpoints []openrouter.Endpoint, provider, endpoint string) (Status, bool) {
	provider = strings.TrimSpace(provider)
	endpoint = strings.TrimSpace(endpoint)
	var (
		found  bool
		online bool
	)
	for _, e := range endpoints {
		if !strings.EqualFold(e.ProviderName, provider) {
			continue
		}
		if endpoint != "" &&
			!strings.EqualFold(e.Name, endpoint) &&
			!strings.EqualFold(e.Tag, endpoint) &&
			!strings.EqualFold(e.DisplayModel(), endpoint) {
			continue
		}
		found = true
		online = online || e.Online()
	}
	if !found {
		return "", false
	}
	if online {
		return Functional, true
	}
	return Disabled, true
}

func withinPerMillion(p openrouter.Pricing, kind string, limit *decimal.Decimal) bool {
	if limit == nil {
		return true
	}
	v, ok := p.Get(kind)
	if !ok {
		return true
	}
	return format.PerMillion(v).LessThanOrEqual(*limit)
}

func deref(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
