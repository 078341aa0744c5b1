package main

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/x/exp/ordered"
	"github.com/openrouter-inspector/openrouter-inspector/internal/cache"
	"github.com/openrouter-inspector/openrouter-inspector/internal/catalog"
	"github.com/openrouter-inspector/openrouter-inspector/internal/openrouter"
	"github.com/openrouter-inspector/openrouter-inspector/internal/snapshot"
)

// app carries the settings and the lazily opened client and stores shared
// by the commands.
type app struct {
	cfg    *Config
	stdout io.Writer
	stderr io.Writer
	styles styles
	logger *log.Logger
	now    func() time.Time

	// httpClient overrides the API transport.
	httpClient *http.Client
	// pick asks which of several models was meant. Nil when not
	// interactive.
	pick func([]openrouter.Model) (string, error)

	client *openrouter.Client
	store  *snapshot.Store
}

func newApp(cfg *Config, stdout, stderr io.Writer) *app {
	logger := log.NewWithOptions(stderr, log.Options{
		Prefix:          appName,
		ReportTimestamp: true,
		Level:           log.WarnLevel,
	})
	a := &app{
		cfg:    cfg,
		stdout: stdout,
		stderr: stderr,
		styles: stdoutStyles(),
		logger: logger,
		now:    time.Now,
	}
	if isInputTTY() && isOutputTTY() {
		a.pick = pickModel
	}
	return a
}

// setup applies the parsed flags.
func (a *app) setup() error {
	if a.cfg.Debug {
		a.logger.SetLevel(log.DebugLevel)
	}
	a.cfg.Concurrency = ordered.Clamp(a.cfg.Concurrency, 1, catalog.MaxConcurrency)
	return validateConfig(*a.cfg)
}

func (a *app) api() (*openrouter.Client, error) {
	if a.client != nil {
		return a.client, nil
	}
	if strings.TrimSpace(a.cfg.APIKey) == "" {
		return nil, errMissingAPIKey
	}

	cfg := openrouter.Config{
		APIKey:     strings.TrimSpace(a.cfg.APIKey),
		BaseURL:    a.cfg.BaseURL,
		Timeout:    time.Duration(a.cfg.Timeout),
		MaxRetries: a.cfg.MaxRetries,
		HTTPClient: a.httpClient,
		MemoTTL:    time.Duration(a.cfg.CacheTTL),
		Logger:     a.logger,
	}
	if a.cfg.CacheEnabled && !a.cfg.NoCache {
		responses, err := cache.NewResponses(a.cfg.CachePath, time.Duration(a.cfg.CacheTTL), a.logger)
		if err != nil {
			a.logger.Warn("response cache disabled", "err", err)
		} else {
			cfg.Store = responses
		}
	}
	a.client = openrouter.New(cfg)
	return a.client, nil
}

func (a *app) snapshots() (*snapshot.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	store, err := snapshot.OpenDir(a.cfg.CachePath)
	if err != nil {
		return nil, inspectorError{err, "Could not open the snapshot database."}
	}
	a.store = store
	return store, nil
}

// models fetches the model listing behind a spinner.
func (a *app) models(ctx context.Context) ([]openrouter.Model, error) {
	client, err := a.api()
	if err != nil {
		return nil, err
	}
	return withSpinner(ctx, a.cfg.Quiet, "Fetching models", client.Models)
}

func (a *app) close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err //nolint:wrapcheck
}
