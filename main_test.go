package main

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func TestIsCompletionCmd(t *testing.T) {
	for args, is := range map[string]bool{
		"":                                     false,
		"something":                            false,
		"something something":                  false,
		"completion for my bash script how to": false,
		"completion bash how to":               false,
		"completion":                           false,
		"completion -h":                        true,
		"completion --help":                    true,
		"completion help":                      true,
		"completion bash":                      true,
		"completion fish":                      true,
		"completion zsh":                       true,
		"completion powershell":                true,
		"completion bash -h":                   true,
		"completion fish -h":                   true,
		"completion zsh -h":                    true,
		"completion powershell -h":             true,
		"completion bash --help":               true,
		"completion fish --help":               true,
		"completion zsh --help":                true,
		"completion powershell --help":         true,
		"__complete":                           true,
		"__complete blah blah blah":            true,
	} {
		t.Run(args, func(t *testing.T) {
			vargs := append([]string{appName}, strings.Fields(args)...)
			if b := isCompletionCmd(vargs); b != is {
				t.Errorf("%v: expected %v, got %v", vargs, is, b)
			}
		})
	}
}

func TestIsManCmd(t *testing.T) {
	for args, is := range map[string]bool{
		"":                    false,
		"something":           false,
		"something something": false,
		"man is no more":      false,
		"mans":                false,
		"man foo":             false,
		"man":                 true,
		"man -h":              true,
		"man --help":          true,
	} {
		t.Run(args, func(t *testing.T) {
			vargs := append([]string{appName}, strings.Fields(args)...)
			if b := isManCmd(vargs); b != is {
				t.Errorf("%v: expected %v, got %v", vargs, is, b)
			}
		})
	}
}

func TestWriteError(t *testing.T) {
	s := makeStyles(lipgloss.NewRenderer(io.Discard))

	t.Run("flag", func(t *testing.T) {
		var b bytes.Buffer
		writeError(&b, s, newFlagParseError(errors.New("unknown flag: --nope")))
		require.Contains(t, b.String(), appName+" -h")
		require.Contains(t, b.String(), "--nope")
		require.Contains(t, b.String(), "is missing.")
	})

	t.Run("inspector", func(t *testing.T) {
		var b bytes.Buffer
		writeError(&b, s, explainError(errMissingAPIKey))
		require.Contains(t, b.String(), "ERROR")
		require.Contains(t, b.String(), "Missing API key.")
		require.Contains(t, b.String(), "OPENROUTER_API_KEY is required.")
	})

	t.Run("other", func(t *testing.T) {
		var b bytes.Buffer
		writeError(&b, s, errors.New("boom"))
		require.Equal(t, "\n  boom  \n\n", b.String())
	})
}

func TestUsageFunc(t *testing.T) {
	root := &cobra.Command{Use: appName}
	noop := func(*cobra.Command, []string) {}
	endpoints := &cobra.Command{Use: "endpoints MODEL", Short: "List offers", Aliases: []string{"offers"}, Run: noop}
	details := &cobra.Command{Use: "details MODEL", Short: "Show a model", Run: noop}
	root.AddCommand(endpoints, details)

	var b bytes.Buffer
	endpoints.SetOut(&b)
	require.NoError(t, usageFunc(endpoints))
	require.Contains(t, b.String(), "Usage:\n  "+appName+" endpoints MODEL")
	require.Contains(t, b.String(), "Aliases:\n  endpoints, offers\n")

	b.Reset()
	details.SetOut(&b)
	require.NoError(t, usageFunc(details))
	require.NotContains(t, b.String(), "Aliases:")
}
