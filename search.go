package main

import (
	"context"
	"strings"

	"github.com/openrouter-inspector/openrouter-inspector/internal/catalog"
	"github.com/openrouter-inspector/openrouter-inspector/internal/openrouter"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var searchSortKeys = []string{
	catalog.SortID, catalog.SortName, catalog.SortContext, catalog.SortPriceIn, catalog.SortPriceOut,
}

type searchOptions struct {
	minContext int
	maxPrice   *decimal.Decimal
	tools      bool
	noTools    bool
	reasoning  bool
	sortBy     string
	desc       bool
}

func newSearchCmd(a *app) *cobra.Command {
	var opts searchOptions
	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Search models by id or name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.search(cmd.Context(), strings.Join(args, " "), opts)
		},
	}
	flags := cmd.Flags()
	flags.Var(newTokensFlag(&opts.minContext), "min-context", help["min-context"])
	flags.Var(newDecimalFlag(&opts.maxPrice), "max-price", help["max-price"])
	flags.BoolVar(&opts.tools, "tools", false, help["tools"])
	flags.BoolVar(&opts.noTools, "no-tools", false, help["no-tools"])
	flags.BoolVar(&opts.reasoning, "reasoning", false, help["reasoning"])
	flags.StringVar(&opts.sortBy, "sort-by", catalog.SortID, sortUsage(searchSortKeys))
	flags.BoolVar(&opts.desc, "desc", false, help["desc"])
	cmd.MarkFlagsMutuallyExclusive("tools", "no-tools")
	_ = cmd.RegisterFlagCompletionFunc("sort-by", cobra.FixedCompletions(searchSortKeys, cobra.ShellCompDirectiveNoFileComp))
	return cmd
}

func (a *app) search(ctx context.Context, query string, opts searchOptions) error {
	client, err := a.api()
	if err != nil {
		return err
	}
	f := catalog.SearchFilter{
		Query:      query,
		MinContext: opts.minContext,
		MaxPrice:   opts.maxPrice,
		Reasoning:  opts.reasoning,
	}
	switch {
	case opts.tools:
		f.Tools = ptr(true)
	case opts.noTools:
		f.Tools = ptr(false)
	}

	models, err := withSpinner(ctx, a.cfg.Quiet, "Searching models", func(ctx context.Context) ([]openrouter.Model, error) {
		return catalog.Search(ctx, client, f, a.cfg.Concurrency)
	})
	if err != nil {
		return err
	}
	models, err = catalog.SortModels(models, opts.sortBy, opts.desc, nil)
	if err != nil {
		return inspectorError{err, "Invalid sort key."}
	}
	return a.printModels(models, nil, nil)
}
