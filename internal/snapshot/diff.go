package snapshot

import (
	"maps"
	"slices"
	"strconv"
	"time"

	"github.com/openrouter-inspector/openrouter-inspector/internal/openrouter"
)

// ModelsKey is the snapshot key for the model listing.
const ModelsKey = "models"

// EndpointsKey is the snapshot key for a model's offers.
func EndpointsKey(modelID string) string {
	return "endpoints:" + modelID
}

// FieldChange is a single attribute that changed.
type FieldChange struct {
	Field  string `json:"field" yaml:"field"`
	Before string `json:"before" yaml:"before"`
	After  string `json:"after" yaml:"after"`
}

// Changed is an entry whose attributes changed.
type Changed struct {
	ID     string        `json:"id" yaml:"id"`
	Fields []FieldChange `json:"fields" yaml:"fields"`
}

// Diff is the difference between two snapshots.
type Diff struct {
	Since   time.Time `json:"since" yaml:"since"`
	Added   []string  `json:"added,omitempty" yaml:"added,omitempty"`
	Removed []string  `json:"removed,omitempty" yaml:"removed,omitempty"`
	Changed []Changed `json:"changed,omitempty" yaml:"changed,omitempty"`
}

// Empty reports whether nothing changed.
func (d Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

// IsNew reports whether id was added.
func (d Diff) IsNew(id string) bool {
	_, found := slices.BinarySearch(d.Added, id)
	return found
}

// Compare returns what changed from prev to cur. Ids are sorted.
func Compare(prev, cur Snapshot) Diff {
	d := Diff{Since: prev.TakenAt}
	for _, id := range slices.Sorted(maps.Keys(cur.Entries)) {
		before, ok := prev.Entries[id]
		if !ok {
			d.Added = append(d.Added, id)
			continue
		}
		if fields := compareAttrs(before, cur.Entries[id]); len(fields) > 0 {
			d.Changed = append(d.Changed, Changed{ID: id, Fields: fields})
		}
	}
	for _, id := range slices.Sorted(maps.Keys(prev.Entries)) {
		if _, ok := cur.Entries[id]; !ok {
			d.Removed = append(d.Removed, id)
		}
	}
	return d
}

func compareAttrs(before, after map[string]string) []FieldChange {
	keys := slices.Collect(maps.Keys(before))
	for k := range after {
		if _, ok := before[k]; !ok {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)

	var out []FieldChange
	for _, k := range keys {
		if before[k] != after[k] {
			out = append(out, FieldChange{Field: k, Before: before[k], After: after[k]})
		}
	}
	return out
}

// FromModels builds the models snapshot.
func FromModels(models []openrouter.Model, takenAt time.Time) Snapshot {
	snap := Snapshot{Key: ModelsKey, TakenAt: takenAt, Entries: make(map[string]map[string]string, len(models))}
	for _, m := range models {
		attrs := map[string]string{
			"name":    m.Name,
			"context": strconv.Itoa(m.ContextLength),
		}
		addPrices(attrs, m.Pricing)
		snap.Entries[m.ID] = attrs
	}
	return snap
}

// FromEndpoints builds the snapshot of a model's offers.
func FromEndpoints(modelID string, endpoints []openrouter.Endpoint, takenAt time.Time) Snapshot {
	snap := Snapshot{Key: EndpointsKey(modelID), TakenAt: takenAt, Entries: make(map[string]map[string]string, len(endpoints))}
	for _, e := range endpoints {
		attrs := map[string]string{
			"context": strconv.Itoa(e.ContextLength),
			"quant":   e.Quantization,
			"status":  "online",
		}
		if !e.Online() {
			attrs["status"] = "offline"
		}
		if e.MaxCompletionTokens != nil {
			attrs["max_out"] = strconv.Itoa(*e.MaxCompletionTokens)
		}
		addPrices(attrs, e.Pricing)
		snap.Entries[e.Key()] = attrs
	}
	return snap
}

func addPrices(attrs map[string]string, p openrouter.Pricing) {
	if v, ok := p.Prompt(); ok {
		attrs["price_in"] = v.String()
	}
	if v, ok := p.Completion(); ok {
		attrs["price_out"] = v.String()
	}
}
