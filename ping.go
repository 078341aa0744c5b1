package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/x/exp/ordered"
	"github.com/openrouter-inspector/openrouter-inspector/internal/ping"
	"github.com/spf13/cobra"
)

// maxPings bounds --count.
const maxPings = 1000

func newPingCmd(a *app) *cobra.Command {
	var opts ping.Options
	cmd := &cobra.Command{
		Use:   "ping MODEL[@PROVIDER] [PROVIDER]",
		Short: "Ping a model with a minimal chat completion",
		Args:  cobra.RangeArgs(1, 2), //nolint:mnd
		RunE: func(cmd *cobra.Command, args []string) error {
			model, provider := ping.SplitTarget(args[0])
			if len(args) == 2 { //nolint:mnd
				p := strings.TrimSpace(args[1])
				if provider != "" && !strings.EqualFold(provider, p) {
					return inspectorError{
						err:    newUserErrorf("Got provider %q in the model and %q as an argument.", provider, p),
						reason: "Conflicting providers.",
					}
				}
				provider = p
			}
			if model == "" {
				return inspectorError{newUserErrorf("Model id is empty."), "Missing model."}
			}
			if opts.Count < 1 {
				return inspectorError{newUserErrorf("--count must be at least 1."), "Invalid count."}
			}
			// replies report the TTL in whole seconds.
			if opts.Timeout < time.Second {
				return inspectorError{newUserErrorf("--timeout must be at least 1s."), "Invalid timeout."}
			}
			opts.Model = model
			opts.Provider = provider
			opts.Count = ordered.Clamp(opts.Count, 1, maxPings)
			return a.ping(cmd.Context(), opts)
		},
	}
	flags := cmd.Flags()
	flags.IntVarP(&opts.Count, "count", "n", 1, help["count"])
	flags.Var(newDurationFlag(ping.DefaultTimeout, &opts.Timeout), "timeout", help["ping-timeout"])
	flags.Var(newDurationFlag(time.Second, &opts.Interval), "interval", help["interval"])
	return cmd
}

type pingView struct {
	Results []ping.Result `json:"results" yaml:"results"`
	Stats   ping.Stats    `json:"statistics" yaml:"statistics"`
}

func (a *app) ping(ctx context.Context, opts ping.Options) error {
	client, err := a.api()
	if err != nil {
		return err
	}
	opts.BaseURL = client.BaseURL()

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	text := a.cfg.Format == formatTable || a.cfg.Format == formatMarkdown
	var out strings.Builder
	emit := func(s string) {
		out.WriteString(s)
		_, _ = fmt.Fprint(a.stdout, s)
	}

	a.logger.Debug("ping", "model", opts.Model, "provider", opts.Provider, "count", opts.Count)
	results := ping.Run(ctx, client, opts, func(r ping.Result) {
		if !text {
			return
		}
		if r.Seq == 1 {
			emit(ping.Header(r) + "\n")
		}
		line := ping.Line(r)
		if r.OK() {
			emit(line + "\n")
		} else {
			emit(a.styles.Removed.Render(line) + "\n")
		}
	})
	stats := ping.Summarize(results)

	if text {
		var sb strings.Builder
		_ = ping.WriteStats(&sb, pingName(opts), stats)
		emit(sb.String())
		if err := a.copyOutput(out.String()); err != nil {
			return err
		}
	} else if err := a.print(pingView{Results: results, Stats: stats}, tableData{}); err != nil {
		return err
	}

	if stats.Received == 0 {
		return exitError{code: 1}
	}
	return nil
}

func pingName(opts ping.Options) string {
	if opts.Provider == "" {
		return opts.Model
	}
	return opts.Model + "@" + opts.Provider
}
