package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/x/ansi"
	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"
)

// tableData is the tabular view of a command result.
type tableData struct {
	Title   string
	Headers []string
	Rows    [][]string
	// Style optionally overrides the style of a body cell.
	Style func(row, col int) (lipgloss.Style, bool)
	// Footer is printed after the table in table and markdown formats.
	Footer string
}

// renderOutput renders v as JSON or YAML, or t as a table.
func renderOutput(format string, v any, t tableData, s styles) (string, error) {
	switch format {
	case formatJSON:
		bts, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return "", fmt.Errorf("json: %w", err)
		}
		return string(bts) + "\n", nil
	case formatYAML:
		var b bytes.Buffer
		enc := yaml.NewEncoder(&b)
		enc.SetIndent(2) //nolint:mnd
		if err := enc.Encode(v); err != nil {
			return "", fmt.Errorf("yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return "", fmt.Errorf("yaml: %w", err)
		}
		return b.String(), nil
	case formatMarkdown:
		return renderMarkdown(t), nil
	default:
		return renderTable(t, s), nil
	}
}

func renderTable(t tableData, s styles) string {
	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(s.Border).
		Headers(t.Headers...).
		Rows(t.Rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.Header
			}
			if t.Style != nil {
				if st, ok := t.Style(row, col); ok {
					return st
				}
			}
			return s.Cell
		})

	var b strings.Builder
	if t.Title != "" {
		b.WriteString(s.Title.Render(t.Title))
		b.WriteString("\n")
	}
	b.WriteString(tbl.String())
	b.WriteString("\n")
	if t.Footer != "" {
		b.WriteString(t.Footer)
	}
	return b.String()
}

func renderMarkdown(t tableData) string {
	var b strings.Builder
	if t.Title != "" {
		fmt.Fprintf(&b, "### %s\n\n", t.Title)
	}

	tw := tablewriter.NewWriter(&b)
	tw.SetHeader(t.Headers)
	tw.SetAutoFormatHeaders(false)
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAutoWrapText(false)
	tw.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	tw.SetCenterSeparator("|")
	for _, row := range t.Rows {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = strings.ReplaceAll(c, "|", `\|`)
		}
		tw.Append(cells)
	}
	tw.Render()

	if t.Footer != "" {
		b.WriteString("\n")
		b.WriteString(ansi.Strip(t.Footer))
	}
	return b.String()
}

// printText writes plain text output, honoring --copy.
func (a *app) printText(s string) error {
	if _, err := fmt.Fprint(a.stdout, s); err != nil {
		return inspectorError{err, "Could not write output."}
	}
	return a.copyOutput(s)
}

// print writes the rendered output and copies it to the clipboard when
// asked to.
func (a *app) print(v any, t tableData) error {
	out, err := renderOutput(a.cfg.Format, v, t, a.styles)
	if err != nil {
		return inspectorError{err, "Could not render output."}
	}
	return a.printText(out)
}

func (a *app) copyOutput(out string) error {
	if !a.cfg.Copy {
		return nil
	}
	if err := clipboard.WriteAll(ansi.Strip(out)); err != nil {
		return inspectorError{err, "Could not copy output to clipboard."}
	}
	return nil
}
