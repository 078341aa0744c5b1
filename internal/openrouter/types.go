package openrouter

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Pricing kinds as reported by the API.
const (
	PricePrompt     = "prompt"
	PriceCompletion = "completion"
	PriceRequest    = "request"
	PriceImage      = "image"
)

// Pricing holds per-token USD prices keyed by kind.
//
// The API reports prices as decimal strings. Negative values mark variable
// pricing (e.g. routers) and are dropped, as are values that do not parse.
type Pricing map[string]decimal.Decimal

// UnmarshalJSON implements json.Unmarshaler.
func (p *Pricing) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("pricing: %w", err)
	}
	out := make(Pricing, len(raw))
	for k, v := range raw {
		s := strings.Trim(string(v), `"`)
		if s == "" || s == "null" {
			continue
		}
		d, err := decimal.NewFromString(s)
		if err != nil || d.IsNegative() {
			continue
		}
		out[k] = d
	}
	*p = out
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (p Pricing) MarshalYAML() (any, error) {
	out := make(map[string]string, len(p))
	for k, v := range p {
		out[k] = v.String()
	}
	return out, nil
}

// Get returns the price for the given kind.
func (p Pricing) Get(kind string) (decimal.Decimal, bool) {
	d, ok := p[kind]
	return d, ok
}

// Prompt is the per-token input price.
func (p Pricing) Prompt() (decimal.Decimal, bool) { return p.Get(PricePrompt) }

// Completion is the per-token output price.
func (p Pricing) Completion() (decimal.Decimal, bool) { return p.Get(PriceCompletion) }

// Min returns the lowest price across all kinds.
func (p Pricing) Min() (decimal.Decimal, bool) {
	var (
		lowest decimal.Decimal
		found  bool
	)
	for _, v := range p {
		if !found || v.LessThan(lowest) {
			lowest = v
			found = true
		}
	}
	return lowest, found
}

// Architecture describes a model's modalities.
type Architecture struct {
	Modality         string   `json:"modality,omitempty" yaml:"modality,omitempty"`
	InputModalities  []string `json:"input_modalities,omitempty" yaml:"input_modalities,omitempty"`
	OutputModalities []string `json:"output_modalities,omitempty" yaml:"output_modalities,omitempty"`
	Tokenizer        string   `json:"tokenizer,omitempty" yaml:"tokenizer,omitempty"`
}

// TopProvider is the model's primary provider limits.
type TopProvider struct {
	ContextLength       int  `json:"context_length,omitempty" yaml:"context_length,omitempty"`
	MaxCompletionTokens int  `json:"max_completion_tokens,omitempty" yaml:"max_completion_tokens,omitempty"`
	IsModerated         bool `json:"is_moderated" yaml:"is_moderated"`
}

// Model is an entry of the /models listing.
type Model struct {
	ID                  string       `json:"id" yaml:"id"`
	Name                string       `json:"name" yaml:"name"`
	Description         string       `json:"description,omitempty" yaml:"description,omitempty"`
	Created             int64        `json:"created" yaml:"created"`
	ContextLength       int          `json:"context_length" yaml:"context_length"`
	Pricing             Pricing      `json:"pricing" yaml:"pricing"`
	Architecture        Architecture `json:"architecture" yaml:"architecture"`
	TopProvider         TopProvider  `json:"top_provider" yaml:"top_provider"`
	SupportedParameters []string     `json:"supported_parameters,omitempty" yaml:"supported_parameters,omitempty"`
}

// CreatedAt returns the creation time.
func (m Model) CreatedAt() time.Time {
	return time.Unix(m.Created, 0)
}

// DisplayName returns the name, falling back to the id.
func (m Model) DisplayName() string {
	if m.Name == "" {
		return m.ID
	}
	return m.Name
}

// SupportsTools reports whether the model advertises tool calling.
func (m Model) SupportsTools() bool {
	return hasParam(m.SupportedParameters, "tools")
}

// SupportsReasoning reports whether the model advertises reasoning.
func (m Model) SupportsReasoning() bool {
	return hasParamPrefix(m.SupportedParameters, "reasoning")
}

// SupportsImages reports whether the model accepts image input.
func (m Model) SupportsImages() bool {
	return hasParam(m.Architecture.InputModalities, "image")
}

// Endpoint is a provider offer for a model.
type Endpoint struct {
	Name                string   `json:"name" yaml:"name"`
	ProviderName        string   `json:"provider_name" yaml:"provider_name"`
	Tag                 string   `json:"tag,omitempty" yaml:"tag,omitempty"`
	ContextLength       int      `json:"context_length" yaml:"context_length"`
	MaxCompletionTokens *int     `json:"max_completion_tokens" yaml:"max_completion_tokens"`
	MaxPromptTokens     *int     `json:"max_prompt_tokens" yaml:"max_prompt_tokens"`
	Quantization        string   `json:"quantization" yaml:"quantization"`
	Pricing             Pricing  `json:"pricing" yaml:"pricing"`
	SupportedParameters []string `json:"supported_parameters,omitempty" yaml:"supported_parameters,omitempty"`
	InputModalities     []string `json:"input_modalities,omitempty" yaml:"input_modalities,omitempty"`
	Status              int      `json:"status" yaml:"status"`
	UptimeLast30m       *float64 `json:"uptime_last_30m" yaml:"uptime_last_30m"`
}

// Online reports whether the endpoint is currently serving requests.
// Negative status codes mean the endpoint is down or disabled.
func (e Endpoint) Online() bool {
	return e.Status >= 0
}

// SupportsTools reports whether the endpoint supports tool calling.
func (e Endpoint) SupportsTools() bool {
	return hasParam(e.SupportedParameters, "tools")
}

// SupportsReasoning reports whether the endpoint supports reasoning.
func (e Endpoint) SupportsReasoning() bool {
	return hasParamPrefix(e.SupportedParameters, "reasoning")
}

// SupportsImages reports whether the endpoint accepts image input.
func (e Endpoint) SupportsImages() bool {
	return hasParamPrefix(e.SupportedParameters, "image") ||
		hasParam(e.InputModalities, "image")
}

// Uptime returns the 30 minute uptime percentage, if known.
func (e Endpoint) Uptime() (float64, bool) {
	if e.UptimeLast30m == nil {
		return 0, false
	}
	return *e.UptimeLast30m, true
}

// Key identifies an endpoint within a model's offer list.
func (e Endpoint) Key() string {
	if e.Tag != "" {
		return e.Tag
	}
	return e.ProviderName + "|" + e.Name
}

// DisplayModel returns the endpoint's model label with provider decorations
// removed.
func (e Endpoint) DisplayModel() string {
	s := strings.TrimSpace(e.Name)
	if s == "" {
		return "—"
	}
	provider := strings.TrimSpace(e.ProviderName)
	if strings.Contains(s, "|") {
		parts := strings.Split(s, "|")
		pick := strings.TrimSpace(parts[len(parts)-1])
		if strings.EqualFold(pick, provider) {
			pick = strings.TrimSpace(parts[0])
		}
		s = pick
	}
	if before, _, ok := strings.Cut(s, " via "); ok {
		s = strings.TrimSpace(before)
	}
	if provider != "" && len(s) > len(provider) &&
		strings.EqualFold(s[:len(provider)], provider) &&
		strings.ContainsRune(" -_|:\t", rune(s[len(provider)])) {
		if trimmed := strings.TrimLeft(s[len(provider):], " -_|:\t"); trimmed != "" {
			s = trimmed
		}
	}
	if s == "" {
		return strings.TrimSpace(e.Name)
	}
	return s
}

// ModelEndpoints is the payload of the endpoints listing.
type ModelEndpoints struct {
	ID           string       `json:"id" yaml:"id"`
	Name         string       `json:"name" yaml:"name"`
	Created      int64        `json:"created" yaml:"created"`
	Description  string       `json:"description,omitempty" yaml:"description,omitempty"`
	Architecture Architecture `json:"architecture" yaml:"architecture"`
	Endpoints    []Endpoint   `json:"endpoints" yaml:"endpoints"`
}

func hasParam(params []string, name string) bool {
	for _, p := range params {
		if p == name {
			return true
		}
	}
	return false
}

func hasParamPrefix(params []string, prefix string) bool {
	for _, p := range params {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}
