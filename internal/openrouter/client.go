// Package openrouter is a small client for the OpenRouter REST API.
package openrouter

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	gocache "github.com/patrickmn/go-cache"
)

// DefaultBaseURL is the public API root.
const DefaultBaseURL = "https://openrouter.ai/api/v1"

const (
	defaultTimeout = 30 * time.Second
	defaultMemoTTL = 5 * time.Minute
	modelsKey      = "models"
)

// Store persists responses between runs.
type Store interface {
	Load(key string, v any) bool
	Save(key string, v any) error
}

// Config represents the configuration for the client.
type Config struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	HTTPClient *http.Client
	// MemoTTL is how long responses stay memoized in process.
	MemoTTL time.Duration
	// Store, when set, caches listings on disk.
	Store  Store
	Logger *log.Logger
}

// Client talks to the API.
type Client struct {
	api     openai.Client
	baseURL string
	store   Store
	memo    *gocache.Cache
	logger  *log.Logger
}

// New creates a new [Client] with the given [Config].
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MemoTTL <= 0 {
		cfg.MemoTTL = defaultMemoTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	base := strings.TrimRight(cfg.BaseURL, "/")

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(base + "/"),
		option.WithRequestTimeout(cfg.Timeout),
		option.WithMaxRetries(max(cfg.MaxRetries, 0)),
		option.WithHeader("X-Title", "openrouter-inspector"),
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	return &Client{
		api:     openai.NewClient(opts...),
		baseURL: base,
		store:   cfg.Store,
		memo:    gocache.New(cfg.MemoTTL, 2*cfg.MemoTTL),
		logger:  cfg.Logger,
	}
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Models lists every model available on the API.
func (c *Client) Models(ctx context.Context) ([]Model, error) {
	if v, ok := c.memo.Get(modelsKey); ok {
		return v.([]Model), nil //nolint:forcetypeassert
	}
	var models []Model
	if c.store != nil && c.store.Load(modelsKey, &models) {
		c.logger.Debug("cache hit", "key", modelsKey)
		c.memo.SetDefault(modelsKey, models)
		return models, nil
	}

	c.logger.Debug("fetching", "path", "models")
	var res struct {
		Data []Model `json:"data"`
	}
	if err := c.api.Get(ctx, "models", nil, &res); err != nil {
		return nil, wrapErr("list models", err)
	}
	models = res.Data

	c.memo.SetDefault(modelsKey, models)
	if c.store != nil {
		if err := c.store.Save(modelsKey, models); err != nil {
			c.logger.Warn("could not cache models", "err", err)
		}
	}
	return models, nil
}

// Endpoints lists the provider offers of a model.
func (c *Client) Endpoints(ctx context.Context, modelID string) (ModelEndpoints, error) {
	author, slug, ok := strings.Cut(modelID, "/")
	if !ok || author == "" || slug == "" {
		return ModelEndpoints{}, fmt.Errorf("list endpoints: invalid model id %q: %w", modelID, ErrNotFound)
	}

	key := "endpoints:" + modelID
	if v, ok := c.memo.Get(key); ok {
		return v.(ModelEndpoints), nil //nolint:forcetypeassert
	}
	var cached ModelEndpoints
	if c.store != nil && c.store.Load(key, &cached) {
		c.logger.Debug("cache hit", "key", key)
		c.memo.SetDefault(key, cached)
		return cached, nil
	}

	path := fmt.Sprintf("models/%s/%s/endpoints", author, slug)
	c.logger.Debug("fetching", "path", path)
	var res struct {
		Data *ModelEndpoints `json:"data"`
	}
	if err := c.api.Get(ctx, path, nil, &res); err != nil {
		return ModelEndpoints{}, wrapErr("list endpoints", err)
	}
	out := ModelEndpoints{ID: modelID}
	if res.Data != nil {
		out = *res.Data
		if out.ID == "" {
			out.ID = modelID
		}
	}
	c.memo.SetDefault(key, out)
	if c.store != nil {
		if err := c.store.Save(key, out); err != nil {
			c.logger.Warn("could not cache endpoints", "key", key, "err", err)
		}
	}
	return out, nil
}

// ChatRequest is a minimal single-message completion request.
type ChatRequest struct {
	Model string
	// Provider pins routing to a single provider when set.
	Provider  string
	Prompt    string
	MaxTokens int64
	Timeout   time.Duration
}

// ChatResponse holds the parts of a completion the caller inspects.
type ChatResponse struct {
	Content          string
	PromptTokens     int64
	CompletionTokens int64
	Header           http.Header
	Raw              string
}

// Chat sends a chat completion request. It never retries, so the elapsed
// time of the call is a single round trip.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	params := openai.ChatCompletionNewParams{
		Model: req.Model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(req.Prompt),
		},
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(req.MaxTokens)
	}

	var httpResp *http.Response
	opts := []option.RequestOption{
		option.WithMaxRetries(0),
		option.WithJSONSet("reasoning", map[string]any{"effort": "low", "exclude": true}),
		option.WithJSONSet("include_reasoning", false),
		option.WithResponseInto(&httpResp),
	}
	if req.Provider != "" {
		opts = append(opts, option.WithJSONSet("provider", map[string]any{
			"order":           []string{req.Provider},
			"allow_fallbacks": false,
		}))
	}
	if req.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(req.Timeout))
	}

	c.logger.Debug("chat completion", "model", req.Model, "provider", req.Provider)
	resp, err := c.api.Chat.Completions.New(ctx, params, opts...)
	if err != nil {
		return ChatResponse{}, wrapErr("chat completion", err)
	}

	out := ChatResponse{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		Raw:              resp.RawJSON(),
	}
	if len(resp.Choices) > 0 {
		out.Content = resp.Choices[0].Message.Content
	}
	if httpResp != nil {
		out.Header = httpResp.Header
	}
	return out, nil
}
