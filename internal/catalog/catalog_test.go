package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/openrouter-inspector/openrouter-inspector/internal/openrouter"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func price(in, out string) openrouter.Pricing {
	p := openrouter.Pricing{}
	if in != "" {
		p[openrouter.PricePrompt] = decimal.RequireFromString(in)
	}
	if out != "" {
		p[openrouter.PriceCompletion] = decimal.RequireFromString(out)
	}
	return p
}

var testModels = []openrouter.Model{
	{
		ID: "openai/gpt-4o", Name: "OpenAI: GPT-4o", ContextLength: 128000,
		Pricing:             price("0.0000025", "0.00001"),
		Architecture:        openrouter.Architecture{InputModalities: []string{"text", "image"}},
		SupportedParameters: []string{"tools"},
	},
	{
		ID: "openai/gpt-4o-mini", Name: "OpenAI: GPT-4o-mini", ContextLength: 128000,
		Pricing:             price("0.00000015", "0.0000006"),
		SupportedParameters: []string{"tools"},
	},
	{
		ID: "deepseek/deepseek-r1", Name: "DeepSeek: R1", ContextLength: 64000,
		Pricing:             price("0.00000055", "0.00000219"),
		SupportedParameters: []string{"reasoning", "include_reasoning"},
	},
	{
		ID: "openrouter/auto", Name: "Auto Router", ContextLength: 2000000,
	},
}

var testEndpoints = map[string][]openrouter.Endpoint{
	"openai/gpt-4o": {
		{ProviderName: "OpenAI", Name: "OpenAI | openai/gpt-4o", ContextLength: 128000, Pricing: price("0.0000025", "0.00001"), SupportedParameters: []string{"tools"}, UptimeLast30m: ptr(99.9)},
		{ProviderName: "Azure", Name: "Azure | openai/gpt-4o", ContextLength: 128000, Pricing: price("0.000005", "0.000015"), SupportedParameters: []string{"tools"}, Status: -2},
	},
	"openai/gpt-4o-mini": {
		{ProviderName: "OpenAI", Name: "OpenAI | openai/gpt-4o-mini", ContextLength: 128000, Pricing: price("0.00000015", "0.0000006")},
	},
	"deepseek/deepseek-r1": {
		{ProviderName: "DeepInfra", Name: "DeepInfra | deepseek/deepseek-r1", ContextLength: 64000, Quantization: "fp8", MaxCompletionTokens: ptr(8000), Pricing: price("0.00000055", "0.00000219"), SupportedParameters: []string{"reasoning"}, UptimeLast30m: ptr(97.0)},
		{ProviderName: "Together", Name: "Together | deepseek/deepseek-r1", ContextLength: 164000, Quantization: "bf16", MaxCompletionTokens: ptr(16000), Pricing: price("0.000003", "0.000007"), SupportedParameters: []string{"reasoning", "tools"}},
		{ProviderName: "Chutes", Name: "Chutes | deepseek/deepseek-r1", ContextLength: 128000, Quantization: "int4", SupportedParameters: []string{"reasoning"}, UptimeLast30m: ptr(80.0)},
	},
	"openrouter/auto": {},
}

type fakeSource struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeSource) Models(context.Context) ([]openrouter.Model, error) {
	return testModels, nil
}

func (f *fakeSource) Endpoints(_ context.Context, id string) (openrouter.ModelEndpoints, error) {
	f.mu.Lock()
	f.calls = append(f.calls, id)
	f.mu.Unlock()
	if f.err != nil {
		return openrouter.ModelEndpoints{}, f.err
	}
	eps, ok := testEndpoints[id]
	if !ok {
		return openrouter.ModelEndpoints{}, &openrouter.APIError{Op: "list endpoints", StatusCode: 404}
	}
	return openrouter.ModelEndpoints{ID: id, Endpoints: eps}, nil
}

func ids(models []openrouter.Model) []string {
	var out []string
	for _, m := range models {
		out = append(out, m.ID)
	}
	return out
}

func TestFilterModels(t *testing.T) {
	for name, tc := range map[string]struct {
		filter ModelFilter
		want   []string
	}{
		"all":         {ModelFilter{}, []string{"openai/gpt-4o", "openai/gpt-4o-mini", "deepseek/deepseek-r1", "openrouter/auto"}},
		"text and":    {ModelFilter{Text: []string{"OPENAI", "mini"}}, []string{"openai/gpt-4o-mini"}},
		"text name":   {ModelFilter{Text: []string{"r1"}}, []string{"deepseek/deepseek-r1"}},
		"min context": {ModelFilter{MinContext: 100000}, []string{"openai/gpt-4o", "openai/gpt-4o-mini", "openrouter/auto"}},
		"tools":       {ModelFilter{Tools: ptr(true)}, []string{"openai/gpt-4o", "openai/gpt-4o-mini"}},
		"no tools":    {ModelFilter{Tools: ptr(false)}, []string{"deepseek/deepseek-r1", "openrouter/auto"}},
		"reasoning":   {ModelFilter{Reasoning: true}, []string{"deepseek/deepseek-r1"}},
		"images":      {ModelFilter{Images: true}, []string{"openai/gpt-4o"}},
	} {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, tc.want, ids(FilterModels(testModels, tc.filter)))
		})
	}
}

func TestSortModels(t *testing.T) {
	t.Run("context desc is stable", func(t *testing.T) {
		got, err := SortModels(testModels, SortContext, true, nil)
		require.NoError(t, err)
		require.Equal(t, []string{"openrouter/auto", "openai/gpt-4o", "openai/gpt-4o-mini", "deepseek/deepseek-r1"}, ids(got))
	})

	t.Run("price in puts missing last", func(t *testing.T) {
		got, err := SortModels(testModels, SortPriceIn, false, nil)
		require.NoError(t, err)
		require.Equal(t, []string{"openai/gpt-4o-mini", "deepseek/deepseek-r1", "openai/gpt-4o", "openrouter/auto"}, ids(got))
	})

	t.Run("does not mutate input", func(t *testing.T) {
		_, err := SortModels(testModels, SortName, true, nil)
		require.NoError(t, err)
		require.Equal(t, "openai/gpt-4o", testModels[0].ID)
	})

	t.Run("providers requires counts", func(t *testing.T) {
		_, err := SortModels(testModels, SortProviders, false, nil)
		require.Error(t, err)

		got, err := SortModels(testModels, SortProviders, true, map[string]int{
			"deepseek/deepseek-r1": 3,
			"openai/gpt-4o":        1,
		})
		require.NoError(t, err)
		require.Equal(t, "deepseek/deepseek-r1", got[0].ID)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := SortModels(testModels, "nope", false, nil)
		require.Error(t, err)
	})
}

func TestFilterEndpoints(t *testing.T) {
	eps := testEndpoints["deepseek/deepseek-r1"]
	providers := func(eps []openrouter.Endpoint) []string {
		var out []string
		for _, e := range eps {
			out = append(out, e.ProviderName)
		}
		return out
	}

	for name, tc := range map[string]struct {
		filter EndpointFilter
		want   []string
	}{
		"all":           {EndpointFilter{}, []string{"DeepInfra", "Together", "Chutes"}},
		"provider":      {EndpointFilter{Providers: []string{"together", "chutes"}}, []string{"Together", "Chutes"}},
		"tools":         {EndpointFilter{Tools: true}, []string{"Together"}},
		"min quant":     {EndpointFilter{MinQuant: "fp8"}, []string{"DeepInfra", "Together"}},
		"min context":   {EndpointFilter{MinContext: 128000}, []string{"Together", "Chutes"}},
		"max price in":  {EndpointFilter{MaxPriceIn: ptr(decimal.NewFromInt(1))}, []string{"DeepInfra", "Chutes"}},
		"max price out": {EndpointFilter{MaxPriceOut: ptr(decimal.NewFromFloat(2.19))}, []string{"DeepInfra", "Chutes"}},
		"min uptime":    {EndpointFilter{MinUptime: ptr(90.0)}, []string{"DeepInfra"}},
		"no img":        {EndpointFilter{Images: ptr(false)}, []string{"DeepInfra", "Together", "Chutes"}},
		"img":           {EndpointFilter{Images: ptr(true)}, nil},
	} {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, tc.want, providers(FilterEndpoints(eps, tc.filter)))
		})
	}

	t.Run("unspecified quant passes", func(t *testing.T) {
		got := FilterEndpoints(testEndpoints["openai/gpt-4o"], EndpointFilter{MinQuant: "bf16"})
		require.Len(t, got, 2)
	})
}

func TestSortEndpoints(t *testing.T) {
	eps := testEndpoints["deepseek/deepseek-r1"]
	for name, tc := range map[string]struct {
		by   string
		desc bool
		want []string
	}{
		"api":          {SortAPI, false, []string{"DeepInfra", "Together", "Chutes"}},
		"api desc":     {SortAPI, true, []string{"Chutes", "Together", "DeepInfra"}},
		"provider":     {SortProvider, false, []string{"Chutes", "DeepInfra", "Together"}},
		"context desc": {SortContext, true, []string{"Together", "Chutes", "DeepInfra"}},
		"maxout":       {SortMaxOut, false, []string{"Chutes", "DeepInfra", "Together"}},
		"price_out":    {SortPriceOut, false, []string{"DeepInfra", "Together", "Chutes"}},
		"uptime desc":  {SortUptime, true, []string{"DeepInfra", "Chutes", "Together"}},
		"quant":        {SortQuant, false, []string{"Together", "DeepInfra", "Chutes"}},
	} {
		t.Run(name, func(t *testing.T) {
			got, err := SortEndpoints(eps, tc.by, tc.desc)
			require.NoError(t, err)
			var names []string
			for _, e := range got {
				names = append(names, e.ProviderName)
			}
			require.Equal(t, tc.want, names)
		})
	}
}

func TestCheck(t *testing.T) {
	eps := testEndpoints["openai/gpt-4o"]

	status, ok := Check(eps, "openai", "")
	require.True(t, ok)
	require.Equal(t, Functional, status)

	status, ok = Check(eps, "AZURE", "")
	require.True(t, ok)
	require.Equal(t, Disabled, status)

	status, ok = Check(eps, "openai", "openai/gpt-4o")
	require.True(t, ok)
	require.Equal(t, Functional, status)

	_, ok = Check(eps, "openai", "something-else")
	require.False(t, ok)

	_, ok = Check(eps, "groq", "")
	require.False(t, ok)
}

func TestCountProviders(t *testing.T) {
	src := &fakeSource{}
	counts, err := CountProviders(context.Background(), src, ids(testModels), 2)
	require.NoError(t, err)
	require.Equal(t, map[string]int{
		"openai/gpt-4o":        1,
		"openai/gpt-4o-mini":   1,
		"deepseek/deepseek-r1": 3,
		"openrouter/auto":      0,
	}, counts)
	require.Len(t, src.calls, 4)

	t.Run("error", func(t *testing.T) {
		src := &fakeSource{err: errors.New("boom")}
		_, err := CountProviders(context.Background(), src, ids(testModels), 0)
		require.EqualError(t, err, "boom")
	})
}

func TestSearch(t *testing.T) {
	for name, tc := range map[string]struct {
		filter SearchFilter
		want   []string
	}{
		"query":     {SearchFilter{Query: "gpt"}, []string{"openai/gpt-4o", "openai/gpt-4o-mini"}},
		"max price": {SearchFilter{MaxPrice: ptr(decimal.RequireFromString("0.000001"))}, []string{"openai/gpt-4o-mini", "deepseek/deepseek-r1", "openrouter/auto"}},
		"tools":     {SearchFilter{Tools: ptr(true)}, []string{"openai/gpt-4o", "deepseek/deepseek-r1"}},
		"no tools":  {SearchFilter{Tools: ptr(false)}, []string{"openai/gpt-4o-mini", "deepseek/deepseek-r1"}},
		"reasoning": {SearchFilter{Query: "deep", Reasoning: true}, []string{"deepseek/deepseek-r1"}},
		"none":      {SearchFilter{Query: "claude"}, nil},
	} {
		t.Run(name, func(t *testing.T) {
			got, err := Search(context.Background(), &fakeSource{}, tc.filter, 4)
			require.NoError(t, err)
			require.Equal(t, tc.want, ids(got))
		})
	}

	t.Run("no endpoint lookups without capability filters", func(t *testing.T) {
		src := &fakeSource{}
		_, err := Search(context.Background(), src, SearchFilter{Query: "gpt"}, 4)
		require.NoError(t, err)
		require.Empty(t, src.calls)
	})
}

func TestResolve(t *testing.T) {
	ctx := context.Background()

	t.Run("exact", func(t *testing.T) {
		res, err := Resolve(ctx, &fakeSource{}, "openai/gpt-4o")
		require.NoError(t, err)
		require.Equal(t, "openai/gpt-4o", res.ID)
	})

	t.Run("single partial", func(t *testing.T) {
		res, err := Resolve(ctx, &fakeSource{}, "r1")
		require.NoError(t, err)
		require.Equal(t, "deepseek/deepseek-r1", res.ID)
		require.Len(t, res.Endpoints, 3)
	})

	t.Run("ambiguous", func(t *testing.T) {
		_, err := Resolve(ctx, &fakeSource{}, "gpt")
		var ae *AmbiguousError
		require.ErrorAs(t, err, &ae)
		require.Equal(t, []string{"openai/gpt-4o", "openai/gpt-4o-mini"}, ids(ae.Suggestions()))
		require.Equal(t, "Model id not found. Did you mean one of these?\n"+
			"- openai/gpt-4o  (OpenAI: GPT-4o)\n"+
			"- openai/gpt-4o-mini  (OpenAI: GPT-4o-mini)", err.Error())
	})

	t.Run("not found", func(t *testing.T) {
		_, err := Resolve(ctx, &fakeSource{}, "claude")
		require.EqualError(t, err, "Model id 'claude' not found.")
		require.ErrorIs(t, err, openrouter.ErrNotFound)
	})

	t.Run("no offers", func(t *testing.T) {
		_, err := Resolve(ctx, &fakeSource{}, "openrouter/auto")
		var ne *NoOffersError
		require.ErrorAs(t, err, &ne)
		require.EqualError(t, err, "Model 'openrouter/auto' has no provider offers.")
	})

	t.Run("unauthorized is not swallowed", func(t *testing.T) {
		src := &fakeSource{err: &openrouter.APIError{Op: "list endpoints", StatusCode: 401}}
		_, err := Resolve(ctx, src, "openai/gpt-4o")
		require.ErrorIs(t, err, openrouter.ErrUnauthorized)
	})
}

func TestAmbiguousSuggestionsCap(t *testing.T) {
	var models []openrouter.Model
	for range 30 {
		models = append(models, openrouter.Model{ID: "x/model"})
	}
	err := &AmbiguousError{Query: "model", Candidates: models}
	require.Len(t, err.Suggestions(), MaxSuggestions)
}
