package main

import (
	"context"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/openrouter-inspector/openrouter-inspector/internal/catalog"
	"github.com/openrouter-inspector/openrouter-inspector/internal/format"
	"github.com/openrouter-inspector/openrouter-inspector/internal/openrouter"
	"github.com/openrouter-inspector/openrouter-inspector/internal/snapshot"
	"github.com/spf13/cobra"
)

type listOptions struct {
	minContext    int
	tools         bool
	noTools       bool
	reasoning     bool
	img           bool
	withProviders bool
	sortBy        string
	desc          bool
	noDiff        bool
}

func (o listOptions) filter(text []string) catalog.ModelFilter {
	f := catalog.ModelFilter{
		Text:       text,
		MinContext: o.minContext,
		Reasoning:  o.reasoning,
		Images:     o.img,
	}
	switch {
	case o.tools:
		f.Tools = ptr(true)
	case o.noTools:
		f.Tools = ptr(false)
	}
	return f
}

func newListCmd(a *app) *cobra.Command {
	var opts listOptions
	cmd := &cobra.Command{
		Use:   "list [FILTER...]",
		Short: "List models, optionally filtered by id or name",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.list(cmd.Context(), args, opts)
		},
	}
	addListFlags(cmd, &opts)
	return cmd
}

func addListFlags(cmd *cobra.Command, opts *listOptions) {
	flags := cmd.Flags()
	flags.Var(newTokensFlag(&opts.minContext), "min-context", help["min-context"])
	flags.BoolVar(&opts.tools, "tools", false, help["tools"])
	flags.BoolVar(&opts.noTools, "no-tools", false, help["no-tools"])
	flags.BoolVar(&opts.reasoning, "reasoning", false, help["reasoning"])
	flags.BoolVar(&opts.img, "img", false, help["img"])
	flags.BoolVar(&opts.withProviders, "with-providers", false, help["with-providers"])
	flags.StringVar(&opts.sortBy, "sort-by", catalog.SortID, sortUsage(catalog.ModelSortKeys))
	flags.BoolVar(&opts.desc, "desc", false, help["desc"])
	flags.BoolVar(&opts.noDiff, "no-diff", false, help["no-diff"])
	cmd.MarkFlagsMutuallyExclusive("tools", "no-tools")
	_ = cmd.RegisterFlagCompletionFunc("sort-by", cobra.FixedCompletions(catalog.ModelSortKeys, cobra.ShellCompDirectiveNoFileComp))
}

func (a *app) list(ctx context.Context, text []string, opts listOptions) error {
	if strings.EqualFold(opts.sortBy, catalog.SortProviders) && !opts.withProviders {
		return inspectorError{
			err:    newUserErrorf("Sorting by providers needs --with-providers."),
			reason: "Invalid sort key.",
		}
	}

	all, err := a.models(ctx)
	if err != nil {
		return err
	}
	models := catalog.FilterModels(all, opts.filter(text))

	var providers map[string]int
	if opts.withProviders {
		providers, err = a.countProviders(ctx, models)
		if err != nil {
			return err
		}
	}

	models, err = catalog.SortModels(models, opts.sortBy, opts.desc, providers)
	if err != nil {
		return inspectorError{err, "Invalid sort key."}
	}

	var diff *snapshot.Diff
	if a.tabular() && !opts.noDiff {
		if d, ok := a.detectChanges(snapshot.FromModels(all, a.now())); ok {
			diff = &d
		}
	}
	return a.printModels(models, providers, diff)
}

func (a *app) countProviders(ctx context.Context, models []openrouter.Model) (map[string]int, error) {
	client, err := a.api()
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(models))
	for i, m := range models {
		ids[i] = m.ID
	}
	return withSpinner(ctx, a.cfg.Quiet, "Counting providers", func(ctx context.Context) (map[string]int, error) {
		return catalog.CountProviders(ctx, client, ids, a.cfg.Concurrency)
	})
}

// modelView is the JSON and YAML shape of a listed model.
type modelView struct {
	ID            string             `json:"id" yaml:"id"`
	Name          string             `json:"name" yaml:"name"`
	ContextLength int                `json:"context_length" yaml:"context_length"`
	Pricing       openrouter.Pricing `json:"pricing,omitempty" yaml:"pricing,omitempty"`
	Providers     *int               `json:"providers,omitempty" yaml:"providers,omitempty"`
}

func (a *app) printModels(models []openrouter.Model, providers map[string]int, diff *snapshot.Diff) error {
	views := make([]modelView, len(models))
	headers := []string{"Name", "ID", "Context (K)", "Input $/1M", "Output $/1M"}
	if providers != nil {
		headers = append(headers, "Providers")
	}
	rows := make([][]string, len(models))
	for i, m := range models {
		views[i] = modelView{ID: m.ID, Name: m.Name, ContextLength: m.ContextLength, Pricing: m.Pricing}
		in, inOK := m.Pricing.Prompt()
		out, outOK := m.Pricing.Completion()
		rows[i] = []string{
			m.DisplayName(),
			m.ID,
			format.Thousands(m.ContextLength),
			format.Price(in, inOK),
			format.Price(out, outOK),
		}
		if providers != nil {
			n := providers[m.ID]
			views[i].Providers = &n
			rows[i] = append(rows[i], strconv.Itoa(n))
		}
	}

	t := tableData{
		Title:   "Models (" + strconv.Itoa(len(models)) + ")",
		Headers: headers,
		Rows:    rows,
	}
	if diff != nil {
		t.Style = func(row, col int) (lipgloss.Style, bool) {
			if col <= 1 && diff.IsNew(models[row].ID) {
				return a.styles.New, true
			}
			return lipgloss.Style{}, false
		}
		t.Footer = changesSummary(*diff, a.styles)
	}
	return a.print(views, t)
}

// tabular reports whether the output is a table meant for people.
func (a *app) tabular() bool {
	return a.cfg.Format == formatTable || a.cfg.Format == formatMarkdown
}

func sortUsage(keys []string) string {
	return help["sort-by"] + " (" + strings.Join(keys, ", ") + ")"
}

func ptr[T any](v T) *T {
	return &v
}
