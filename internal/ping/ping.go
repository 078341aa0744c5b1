// Package ping measures model round trips with minimal chat completions.
package ping

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/openrouter-inspector/openrouter-inspector/internal/openrouter"
	"github.com/tidwall/gjson"
)

// Prompt is the message sent on every ping.
const Prompt = "Hi! Let's play a game: when I say Ping, you reply with Pong. I say: Ping"

// Ping requests cap the completion to the expected reply size.
const maxTokens = 4

// DefaultTimeout is the per request timeout.
const DefaultTimeout = 60 * time.Second

// Chatter sends chat completions.
type Chatter interface {
	Chat(ctx context.Context, req openrouter.ChatRequest) (openrouter.ChatResponse, error)
}

// Options configure a ping run.
type Options struct {
	Model string
	// Provider pins routing to a single provider when set.
	Provider string
	Count    int
	Timeout  time.Duration
	Interval time.Duration
	// BaseURL prefixes the printed target.
	BaseURL string
}

// Result is the outcome of a single ping.
type Result struct {
	Seq              int           `json:"seq" yaml:"seq"`
	Target           string        `json:"target" yaml:"target"`
	Model            string        `json:"model" yaml:"model"`
	Provider         string        `json:"provider,omitempty" yaml:"provider,omitempty"`
	ServedBy         string        `json:"served_by,omitempty" yaml:"served_by,omitempty"`
	PromptTokens     int64         `json:"prompt_tokens" yaml:"prompt_tokens"`
	CompletionTokens int64         `json:"completion_tokens" yaml:"completion_tokens"`
	Cost             string        `json:"cost" yaml:"cost"`
	Elapsed          time.Duration `json:"elapsed_ns" yaml:"elapsed"`
	Reply            string        `json:"reply,omitempty" yaml:"reply,omitempty"`
	Pong             bool          `json:"pong" yaml:"pong"`
	Error            string        `json:"error,omitempty" yaml:"error,omitempty"`
	TTL              time.Duration `json:"-" yaml:"-"`
}

// OK reports whether a reply was received.
func (r Result) OK() bool {
	return r.Error == ""
}

// Run pings opts.Count times, waiting opts.Interval between requests, and
// calls fn after each one. It stops early when ctx is done.
func Run(ctx context.Context, client Chatter, opts Options, fn func(Result)) []Result {
	if opts.Count < 1 {
		opts.Count = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	results := make([]Result, 0, opts.Count)
	for seq := 1; seq <= opts.Count; seq++ {
		if seq > 1 && opts.Interval > 0 {
			timer := time.NewTimer(opts.Interval)
			select {
			case <-ctx.Done():
				timer.Stop()
				return results
			case <-timer.C:
			}
		}
		if ctx.Err() != nil {
			return results
		}
		res := Once(ctx, client, opts)
		res.Seq = seq
		results = append(results, res)
		if fn != nil {
			fn(res)
		}
	}
	return results
}

// Once sends a single ping.
func Once(ctx context.Context, client Chatter, opts Options) Result {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	start := time.Now()
	resp, err := client.Chat(ctx, openrouter.ChatRequest{
		Model:     opts.Model,
		Provider:  opts.Provider,
		Prompt:    Prompt,
		MaxTokens: maxTokens,
		Timeout:   opts.Timeout,
	})
	elapsed := time.Since(start)

	res := Result{
		Model:    opts.Model,
		Provider: opts.Provider,
		Elapsed:  elapsed,
		TTL:      opts.Timeout,
	}
	if err != nil {
		res.Error = err.Error()
		res.Target = Target(opts.BaseURL, opts.Model, opts.Provider)
		return res
	}

	res.ServedBy = servedBy(resp.Header, resp.Raw)
	res.PromptTokens = resp.PromptTokens
	res.CompletionTokens = resp.CompletionTokens
	res.Cost = cost(resp.Header, resp.Raw)
	res.Reply = resp.Content
	res.Pong = strings.Contains(strings.ToLower(resp.Content), "pong")

	provider := opts.Provider
	if provider == "" {
		provider = res.ServedBy
	}
	if provider == "" {
		provider = "auto"
	}
	res.Target = Target(opts.BaseURL, opts.Model, provider)
	return res
}

// Target is the display address of a ping.
func Target(baseURL, model, provider string) string {
	if baseURL == "" {
		baseURL = openrouter.DefaultBaseURL
	}
	t := strings.TrimRight(baseURL, "/") + "/chat/completions/" + model
	if provider = strings.TrimSpace(provider); provider != "" {
		t += "@" + provider
	}
	return t
}

// SplitTarget splits the model@provider shorthand.
func SplitTarget(s string) (model, provider string) {
	model, provider, _ = strings.Cut(strings.TrimSpace(s), "@")
	return strings.TrimSpace(model), strings.TrimSpace(provider)
}

var (
	providerHeaders = []string{"X-OpenRouter-Provider", "X-Provider", "OpenRouter-Provider"}
	providerPaths   = []string{"provider", "meta.provider"}
	costPaths       = []string{"usage.total_cost", "usage.cost", "meta.cost.total", "meta.cost.usd"}
	costHeaders     = []string{"X-OpenRouter-Cost", "X-Total-Cost"}
)

func servedBy(h http.Header, raw string) string {
	for _, k := range providerHeaders {
		if v := strings.TrimSpace(h.Get(k)); v != "" {
			return v
		}
	}
	for _, p := range providerPaths {
		if v := gjson.Get(raw, p); v.Type == gjson.String && v.String() != "" {
			return strings.TrimSpace(v.String())
		}
	}
	return ""
}

// cost returns the first non-zero cost reported in the body or headers.
func cost(h http.Header, raw string) string {
	var candidates []string
	for _, p := range costPaths {
		if v := gjson.Get(raw, p); v.Exists() && v.Type != gjson.Null {
			candidates = append(candidates, v.String())
		}
	}
	for _, k := range costHeaders {
		if v := h.Get(k); v != "" {
			candidates = append(candidates, v)
		}
	}
	for _, c := range candidates {
		if c = strings.TrimSpace(c); c != "" && !isZero(c) {
			return c
		}
	}
	return ""
}
