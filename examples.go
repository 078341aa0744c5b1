package main

import (
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/spf13/cobra"
)

var examples = map[string]string{
	"List models with a large context window":  `openrouter-inspector list --min-context 128K --sort-by context --desc`,
	"Find free models that support tools":      `openrouter-inspector search free --tools`,
	"Compare providers for a model":            `openrouter-inspector endpoints deepseek/deepseek-r1 --sort-by price_out`,
	"Only fast quantizations with good uptime": `openrouter-inspector offers qwen --min-quant fp8 --min-uptime 99`,
	"Check a single provider":                  `openrouter-inspector check openai/gpt-4o OpenAI`,
	"Ping a model through one provider":        `openrouter-inspector ping deepseek/deepseek-r1@Chutes --count 5`,
	"Pick the cheapest offer":                  `openrouter-inspector endpoints mistral --format json | jq ".offers[0]"`,
	"Show everything about a model":            `openrouter-inspector details anthropic/claude-sonnet-4`,
	"Share a table":                            `openrouter-inspector list gemini --format markdown --copy`,
	"See what changed since the last snapshot": `openrouter-inspector snapshots`,
}

// randomExample picks an example for cmd, or any example on the root.
func randomExample(cmd *cobra.Command) (string, string) {
	keys := make([]string, 0, len(examples))
	for k, v := range examples {
		if !cmd.HasParent() || exampleFor(cmd, v) {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		for k := range examples {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	desc := keys[rand.IntN(len(keys))]
	return desc, examples[desc]
}

func exampleFor(cmd *cobra.Command, example string) bool {
	fields := strings.Fields(example)
	if len(fields) < 2 { //nolint:mnd
		return false
	}
	return fields[1] == cmd.Name() || cmd.HasAlias(fields[1])
}
