package main

import (
	"errors"
	"fmt"
	"strings"

	timea "github.com/caarlos0/timea.go"
	"github.com/openrouter-inspector/openrouter-inspector/internal/format"
	"github.com/openrouter-inspector/openrouter-inspector/internal/snapshot"
)

// detectChanges compares cur against the stored snapshot with the same key
// and stores cur in its place. It reports false when there was nothing to
// compare against.
func (a *app) detectChanges(cur snapshot.Snapshot) (snapshot.Diff, bool) {
	store, err := a.snapshots()
	if err != nil {
		a.logger.Warn("change detection disabled", "err", err)
		return snapshot.Diff{}, false
	}

	var (
		diff snapshot.Diff
		ok   bool
	)
	prev, err := store.Load(cur.Key)
	switch {
	case err == nil:
		diff, ok = snapshot.Compare(prev, cur), true
	case errors.Is(err, snapshot.ErrNoSnapshot):
		a.logger.Debug("no previous snapshot", "key", cur.Key)
	default:
		a.logger.Warn("could not load snapshot", "key", cur.Key, "err", err)
	}

	if err := store.Save(cur); err != nil {
		a.logger.Warn("could not save snapshot", "key", cur.Key, "err", err)
	} else {
		a.logger.Debug("snapshot saved", "key", cur.Key, "entries", len(cur.Entries))
	}
	return diff, ok
}

// changesSummary renders a diff below a table.
func changesSummary(d snapshot.Diff, s styles) string {
	since := "since " + timea.Of(d.Since)
	if d.Empty() {
		return s.Comment.Render("No changes "+since+".") + "\n"
	}

	var b strings.Builder
	fmt.Fprintf(
		&b, "%s: %s, %s, %s\n",
		s.Comment.Render(strings.ToUpper(since[:1])+since[1:]),
		s.Added.Render(fmt.Sprintf("%d new", len(d.Added))),
		s.Removed.Render(fmt.Sprintf("%d removed", len(d.Removed))),
		s.Changed.Render(fmt.Sprintf("%d changed", len(d.Changed))),
	)
	for _, id := range d.Removed {
		fmt.Fprintf(&b, "  %s %s\n", s.Removed.Render("-"), id)
	}
	for _, c := range d.Changed {
		fields := make([]string, 0, len(c.Fields))
		for _, f := range c.Fields {
			fields = append(fields, fmt.Sprintf("%s %s → %s", f.Field, orMissing(f.Before), orMissing(f.After)))
		}
		fmt.Fprintf(&b, "  %s %s: %s\n", s.Changed.Render("~"), c.ID, strings.Join(fields, ", "))
	}
	return b.String()
}

func orMissing(s string) string {
	if s == "" {
		return format.Missing
	}
	return s
}
