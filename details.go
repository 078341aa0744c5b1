package main

import (
	"context"
	"maps"
	"slices"
	"strings"

	timea "github.com/caarlos0/timea.go"
	"github.com/charmbracelet/glamour"
	"github.com/openrouter-inspector/openrouter-inspector/internal/catalog"
	"github.com/openrouter-inspector/openrouter-inspector/internal/format"
	"github.com/openrouter-inspector/openrouter-inspector/internal/openrouter"
	"github.com/spf13/cobra"
)

const descriptionWidth = 80

func newDetailsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "details MODEL",
		Short: "Show everything known about a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.details(cmd.Context(), args[0])
		},
	}
}

func (a *app) details(ctx context.Context, query string) error {
	models, err := a.models(ctx)
	if err != nil {
		return err
	}
	m, err := catalog.Find(models, query)
	if err != nil {
		return err //nolint:wrapcheck
	}
	return a.print(m, tableData{
		Title:   m.DisplayName(),
		Headers: []string{"Field", "Value"},
		Rows:    detailRows(m),
		Footer:  a.description(m.Description),
	})
}

func detailRows(m openrouter.Model) [][]string {
	rows := [][]string{
		{"ID", m.ID},
		{"Name", m.DisplayName()},
		{"Context", format.Thousands(m.ContextLength)},
	}
	if m.TopProvider.MaxCompletionTokens > 0 {
		rows = append(rows, []string{"Max Out", format.Thousands(m.TopProvider.MaxCompletionTokens)})
	}
	for _, kind := range slices.Sorted(maps.Keys(m.Pricing)) {
		v, _ := m.Pricing.Get(kind)
		label := "Price " + kind
		switch kind {
		case openrouter.PricePrompt, openrouter.PriceCompletion:
			rows = append(rows, []string{label + " $/1M", format.Price(v, true)})
		default:
			rows = append(rows, []string{label + " $", v.String()})
		}
	}
	rows = append(rows,
		[]string{"Input", joinOrMissing(m.Architecture.InputModalities)},
		[]string{"Output", joinOrMissing(m.Architecture.OutputModalities)},
		[]string{"Tools", format.Mark(m.SupportsTools())},
		[]string{"Reasoning", format.Mark(m.SupportsReasoning())},
		[]string{"Parameters", joinOrMissing(m.SupportedParameters)},
	)
	if m.Created > 0 {
		rows = append(rows, []string{"Created", timea.Of(m.CreatedAt())})
	}
	return rows
}

// description renders markdown on a terminal and returns it as is
// otherwise.
func (a *app) description(md string) string {
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}
	if a.cfg.Format != formatTable || !isOutputTTY() {
		return "\n" + md + "\n"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(descriptionWidth),
	)
	if err != nil {
		a.logger.Debug("markdown renderer", "err", err)
		return "\n" + md + "\n"
	}
	out, err := r.Render(md)
	if err != nil {
		a.logger.Debug("markdown render", "err", err)
		return "\n" + md + "\n"
	}
	return out
}

func joinOrMissing(s []string) string {
	if len(s) == 0 {
		return format.Missing
	}
	return strings.Join(s, ", ")
}
