package main

import (
	"context"
	"errors"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	xstrings "github.com/charmbracelet/x/exp/strings"
	"github.com/openrouter-inspector/openrouter-inspector/internal/catalog"
	"github.com/openrouter-inspector/openrouter-inspector/internal/format"
	"github.com/openrouter-inspector/openrouter-inspector/internal/openrouter"
	"github.com/openrouter-inspector/openrouter-inspector/internal/snapshot"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

type endpointsOptions struct {
	providers   []string
	tools       bool
	reasoning   bool
	img         bool
	noImg       bool
	minQuant    string
	minContext  int
	maxPriceIn  *decimal.Decimal
	maxPriceOut *decimal.Decimal
	minUptime   float64
	sortBy      string
	desc        bool
	noDiff      bool
}

func newEndpointsCmd(a *app) *cobra.Command {
	var opts endpointsOptions
	cmd := &cobra.Command{
		Use:     "endpoints MODEL",
		Aliases: []string{"offers", "providers"},
		Short:   "Show the provider offers of a model",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := opts.filter()
			if cmd.Flags().Changed("min-uptime") {
				f.MinUptime = &opts.minUptime
			}
			return a.endpoints(cmd.Context(), args[0], f, opts)
		},
	}
	flags := cmd.Flags()
	flags.StringArrayVar(&opts.providers, "provider", nil, help["provider"])
	flags.BoolVar(&opts.tools, "tools", false, help["tools"])
	flags.BoolVar(&opts.reasoning, "reasoning", false, help["reasoning"])
	flags.BoolVar(&opts.img, "img", false, help["img"])
	flags.BoolVar(&opts.noImg, "no-img", false, help["no-img"])
	flags.StringVar(&opts.minQuant, "min-quant", "", help["min-quant"])
	flags.Var(newTokensFlag(&opts.minContext), "min-context", help["min-context"])
	flags.Var(newDecimalFlag(&opts.maxPriceIn), "max-price-in", help["max-price-in"])
	flags.Var(newDecimalFlag(&opts.maxPriceOut), "max-price-out", help["max-price-out"])
	flags.Float64Var(&opts.minUptime, "min-uptime", 0, help["min-uptime"])
	flags.StringVar(&opts.sortBy, "sort-by", catalog.SortAPI, sortUsage(catalog.EndpointSortKeys))
	flags.BoolVar(&opts.desc, "desc", false, help["desc"])
	flags.BoolVar(&opts.noDiff, "no-diff", false, help["no-diff"])
	cmd.MarkFlagsMutuallyExclusive("img", "no-img")
	_ = cmd.RegisterFlagCompletionFunc("sort-by", cobra.FixedCompletions(catalog.EndpointSortKeys, cobra.ShellCompDirectiveNoFileComp))
	_ = cmd.RegisterFlagCompletionFunc("min-quant", cobra.FixedCompletions(
		[]string{"fp4", "int4", "fp6", "fp8", "int8", "bf16", "fp16", "fp32"},
		cobra.ShellCompDirectiveNoFileComp,
	))
	return cmd
}

func (o endpointsOptions) filter() catalog.EndpointFilter {
	f := catalog.EndpointFilter{
		Providers:   o.providers,
		Tools:       o.tools,
		Reasoning:   o.reasoning,
		MinQuant:    o.minQuant,
		MinContext:  o.minContext,
		MaxPriceIn:  o.maxPriceIn,
		MaxPriceOut: o.maxPriceOut,
	}
	switch {
	case o.img:
		f.Images = ptr(true)
	case o.noImg:
		f.Images = ptr(false)
	}
	return f
}

func (a *app) endpoints(ctx context.Context, query string, f catalog.EndpointFilter, opts endpointsOptions) error {
	res, err := a.resolve(ctx, query)
	if err != nil {
		return err
	}

	offers := catalog.FilterEndpoints(res.Endpoints, f)
	offers, err = catalog.SortEndpoints(offers, opts.sortBy, opts.desc)
	if err != nil {
		return inspectorError{err, "Invalid sort key."}
	}

	var diff *snapshot.Diff
	if a.tabular() && !opts.noDiff {
		if d, ok := a.detectChanges(snapshot.FromEndpoints(res.ID, res.Endpoints, a.now())); ok {
			diff = &d
		}
	}
	return a.printOffers(res, offers, diff)
}

// resolve finds the offers of query. On a terminal an ambiguous query
// lets the user pick the model.
func (a *app) resolve(ctx context.Context, query string) (openrouter.ModelEndpoints, error) {
	client, err := a.api()
	if err != nil {
		return openrouter.ModelEndpoints{}, err
	}
	res, err := withSpinner(ctx, a.cfg.Quiet, "Fetching offers", func(ctx context.Context) (openrouter.ModelEndpoints, error) {
		return catalog.Resolve(ctx, client, query)
	})

	var amb *catalog.AmbiguousError
	if !errors.As(err, &amb) || a.pick == nil || a.cfg.Format != formatTable {
		return res, err
	}
	id, perr := a.pick(amb.Suggestions())
	if perr != nil {
		a.logger.Debug("model picker", "err", perr)
		return res, err
	}
	return withSpinner(ctx, a.cfg.Quiet, "Fetching offers", func(ctx context.Context) (openrouter.ModelEndpoints, error) {
		return catalog.Offers(ctx, client, id)
	})
}

func pickModel(models []openrouter.Model) (string, error) {
	opts := make([]huh.Option[string], len(models))
	for i, m := range models {
		opts[i] = huh.NewOption(m.ID+"  "+stdoutStyles().Comment.Render(m.DisplayName()), m.ID)
	}
	var id string
	err := huh.NewSelect[string]().
		Title("Which model did you mean?").
		Options(opts...).
		Value(&id).
		Run()
	return id, err //nolint:wrapcheck
}

// offerView is the JSON and YAML shape of a provider offer.
type offerView struct {
	Provider            string             `json:"provider" yaml:"provider"`
	Model               string             `json:"model" yaml:"model"`
	Tag                 string             `json:"tag,omitempty" yaml:"tag,omitempty"`
	Online              bool               `json:"online" yaml:"online"`
	Reasoning           bool               `json:"reasoning" yaml:"reasoning"`
	Images              bool               `json:"images" yaml:"images"`
	Tools               bool               `json:"tools" yaml:"tools"`
	Quantization        string             `json:"quantization,omitempty" yaml:"quantization,omitempty"`
	ContextLength       int                `json:"context_length" yaml:"context_length"`
	MaxCompletionTokens *int               `json:"max_completion_tokens,omitempty" yaml:"max_completion_tokens,omitempty"`
	Pricing             openrouter.Pricing `json:"pricing,omitempty" yaml:"pricing,omitempty"`
	Uptime              *float64           `json:"uptime_last_30m,omitempty" yaml:"uptime_last_30m,omitempty"`
}

type offersView struct {
	ID     string      `json:"id" yaml:"id"`
	Name   string      `json:"name" yaml:"name"`
	Offers []offerView `json:"offers" yaml:"offers"`
}

func (a *app) printOffers(res openrouter.ModelEndpoints, offers []openrouter.Endpoint, diff *snapshot.Diff) error {
	view := offersView{ID: res.ID, Name: res.Name, Offers: make([]offerView, len(offers))}
	rows := make([][]string, len(offers))
	for i, e := range offers {
		view.Offers[i] = offerView{
			Provider:            e.ProviderName,
			Model:               e.DisplayModel(),
			Tag:                 e.Tag,
			Online:              e.Online(),
			Reasoning:           e.SupportsReasoning(),
			Images:              e.SupportsImages(),
			Tools:               e.SupportsTools(),
			Quantization:        e.Quantization,
			ContextLength:       e.ContextLength,
			MaxCompletionTokens: e.MaxCompletionTokens,
			Pricing:             e.Pricing,
			Uptime:              e.UptimeLast30m,
		}
		in, inOK := e.Pricing.Prompt()
		out, outOK := e.Pricing.Completion()
		rows[i] = []string{
			e.ProviderName,
			e.DisplayModel(),
			format.Mark(e.SupportsReasoning()),
			format.Mark(e.SupportsImages()),
			format.Mark(e.SupportsTools()),
			format.Quant(e.Quantization),
			format.Thousands(e.ContextLength),
			format.OptThousands(e.MaxCompletionTokens),
			format.Price(in, inOK),
			format.Price(out, outOK),
			format.Percent(e.Uptime()),
		}
	}

	t := tableData{
		Title: "Offers for " + res.ID,
		Headers: []string{
			"Provider", "Model", "Reason", "Img", "Tools", "Quant",
			"Context", "Max Out", "Input $/1M", "Output $/1M", "Uptime",
		},
		Rows: rows,
		Style: func(row, col int) (lipgloss.Style, bool) {
			if col != 0 {
				return lipgloss.Style{}, false
			}
			if diff != nil && diff.IsNew(offers[row].Key()) {
				return a.styles.New, true
			}
			if !offers[row].Online() {
				return a.styles.Cell.Inherit(a.styles.Removed), true
			}
			return a.styles.Provider, true
		},
	}
	if diff != nil {
		t.Footer = changesSummary(*diff, a.styles)
	}
	if len(offers) == 0 && len(res.Endpoints) > 0 {
		t.Footer = a.styles.Comment.Render("No offers match the filters.") + "\n" + t.Footer
	}
	return a.print(view, t)
}

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check MODEL PROVIDER [ENDPOINT]",
		Short: "Check whether a provider offer is serving",
		Args:  cobra.RangeArgs(2, 3), //nolint:mnd
		RunE: func(cmd *cobra.Command, args []string) error {
			var endpoint string
			if len(args) == 3 { //nolint:mnd
				endpoint = args[2]
			}
			return a.check(cmd.Context(), args[0], args[1], endpoint)
		},
	}
}

type checkView struct {
	Model    string         `json:"model" yaml:"model"`
	Provider string         `json:"provider" yaml:"provider"`
	Endpoint string         `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	Status   catalog.Status `json:"status" yaml:"status"`
}

func (a *app) check(ctx context.Context, model, provider, endpoint string) error {
	res, err := a.resolve(ctx, model)
	if err != nil {
		return err
	}
	status, ok := catalog.Check(res.Endpoints, provider, endpoint)
	if !ok {
		target := provider
		if endpoint != "" {
			target += " " + endpoint
		}
		providers := make([]string, 0, len(res.Endpoints))
		for _, e := range res.Endpoints {
			providers = append(providers, e.ProviderName)
		}
		return inspectorError{
			err: newUserErrorf(
				"No offer from %s for %s. Available: %s.",
				target, res.ID, xstrings.EnglishJoin(providers, true),
			),
			reason: "Offer not found.",
		}
	}

	if !a.tabular() {
		return a.print(checkView{Model: res.ID, Provider: provider, Endpoint: endpoint, Status: status}, tableData{})
	}
	style := a.styles.Functional
	if status == catalog.Disabled {
		style = a.styles.Disabled
	}
	return a.printText(style.Render(string(status)) + "\n")
}
