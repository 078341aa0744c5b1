package snapshot

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/openrouter-inspector/openrouter-inspector/internal/openrouter"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func testStore(tb testing.TB) *Store {
	tb.Helper()
	s, err := Open(":memory:")
	require.NoError(tb, err)
	tb.Cleanup(func() {
		require.NoError(tb, s.Close())
	})
	return s
}

var t0 = time.Unix(1_700_000_000, 0)

func TestStore(t *testing.T) {
	t.Run("load empty", func(t *testing.T) {
		s := testStore(t)
		_, err := s.Load(ModelsKey)
		require.ErrorIs(t, err, ErrNoSnapshot)

		list, err := s.List()
		require.NoError(t, err)
		require.Empty(t, list)
	})

	t.Run("save and load", func(t *testing.T) {
		s := testStore(t)
		require.NoError(t, s.Save(Snapshot{
			Key:     ModelsKey,
			TakenAt: t0,
			Entries: map[string]map[string]string{
				"a/b": {"context": "1000"},
				"c/d": {"context": "2000", "price_in": "0.1"},
			},
		}))

		snap, err := s.Load(ModelsKey)
		require.NoError(t, err)
		require.Equal(t, t0.Unix(), snap.TakenAt.Unix())
		require.Equal(t, map[string]map[string]string{
			"a/b": {"context": "1000"},
			"c/d": {"context": "2000", "price_in": "0.1"},
		}, snap.Entries)
	})

	t.Run("save replaces", func(t *testing.T) {
		s := testStore(t)
		require.NoError(t, s.Save(Snapshot{Key: ModelsKey, TakenAt: t0, Entries: map[string]map[string]string{
			"a/b": {}, "c/d": {},
		}}))
		require.NoError(t, s.Save(Snapshot{Key: ModelsKey, TakenAt: t0.Add(time.Hour), Entries: map[string]map[string]string{
			"e/f": {},
		}}))

		snap, err := s.Load(ModelsKey)
		require.NoError(t, err)
		require.Equal(t, t0.Add(time.Hour).Unix(), snap.TakenAt.Unix())
		require.Len(t, snap.Entries, 1)
		require.Contains(t, snap.Entries, "e/f")
	})

	t.Run("save no key", func(t *testing.T) {
		s := testStore(t)
		require.Error(t, s.Save(Snapshot{}))
	})

	t.Run("list and delete", func(t *testing.T) {
		s := testStore(t)
		require.NoError(t, s.Save(Snapshot{Key: ModelsKey, TakenAt: t0, Entries: map[string]map[string]string{
			"a/b": {}, "c/d": {},
		}}))
		require.NoError(t, s.Save(Snapshot{Key: EndpointsKey("a/b"), TakenAt: t0.Add(time.Minute)}))

		list, err := s.List()
		require.NoError(t, err)
		require.Len(t, list, 2)
		require.Equal(t, "endpoints:a/b", list[0].Key)
		require.Equal(t, 0, list[0].Entries)
		require.Equal(t, ModelsKey, list[1].Key)
		require.Equal(t, 2, list[1].Entries)
		require.Equal(t, t0.Unix(), list[1].Time().Unix())

		deleted, err := s.Delete(ModelsKey)
		require.NoError(t, err)
		require.True(t, deleted)
		_, err = s.Load(ModelsKey)
		require.ErrorIs(t, err, ErrNoSnapshot)

		list, err = s.List()
		require.NoError(t, err)
		require.Len(t, list, 1)

		deleted, err = s.Delete(ModelsKey)
		require.NoError(t, err)
		require.False(t, deleted, "nothing left to delete")
	})

	t.Run("on disk", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested")
		s, err := OpenDir(dir)
		require.NoError(t, err)
		require.NoError(t, s.Save(Snapshot{Key: ModelsKey, TakenAt: t0}))
		require.NoError(t, s.Close())

		s, err = OpenDir(dir)
		require.NoError(t, err)
		defer s.Close() //nolint:errcheck
		_, err = s.Load(ModelsKey)
		require.NoError(t, err)
	})
}

func TestCompare(t *testing.T) {
	prev := Snapshot{TakenAt: t0, Entries: map[string]map[string]string{
		"a/same":    {"context": "1000"},
		"b/changed": {"context": "1000", "price_in": "0.1"},
		"c/removed": {"context": "1000"},
	}}
	cur := Snapshot{Entries: map[string]map[string]string{
		"a/same":    {"context": "1000"},
		"b/changed": {"context": "2000", "price_out": "0.2"},
		"d/added":   {"context": "1000"},
		"e/added":   {},
	}}

	d := Compare(prev, cur)
	require.False(t, d.Empty())
	require.Equal(t, t0, d.Since)
	require.Equal(t, []string{"d/added", "e/added"}, d.Added)
	require.Equal(t, []string{"c/removed"}, d.Removed)
	require.Equal(t, []Changed{{
		ID: "b/changed",
		Fields: []FieldChange{
			{Field: "context", Before: "1000", After: "2000"},
			{Field: "price_in", Before: "0.1", After: ""},
			{Field: "price_out", Before: "", After: "0.2"},
		},
	}}, d.Changed)
	require.True(t, d.IsNew("e/added"))
	require.False(t, d.IsNew("a/same"))

	require.True(t, Compare(cur, cur).Empty())
}

func TestFromListings(t *testing.T) {
	models := FromModels([]openrouter.Model{{
		ID: "a/b", Name: "A B", ContextLength: 4096,
		Pricing: openrouter.Pricing{openrouter.PricePrompt: decimal.RequireFromString("0.000001")},
	}}, t0)
	require.Equal(t, ModelsKey, models.Key)
	require.Equal(t, map[string]string{
		"name": "A B", "context": "4096", "price_in": "0.000001",
	}, models.Entries["a/b"])

	maxOut := 512
	eps := FromEndpoints("a/b", []openrouter.Endpoint{
		{ProviderName: "X", Name: "X | a/b", ContextLength: 4096, Quantization: "fp8", MaxCompletionTokens: &maxOut},
		{ProviderName: "Y", Tag: "y/fp16", Status: -1},
	}, t0)
	require.Equal(t, "endpoints:a/b", eps.Key)
	require.Equal(t, map[string]string{
		"context": "4096", "quant": "fp8", "status": "online", "max_out": "512",
	}, eps.Entries["X|X | a/b"])
	require.Equal(t, "offline", eps.Entries["y/fp16"]["status"])
}
