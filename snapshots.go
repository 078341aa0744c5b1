package main

import (
	"strconv"
	"time"

	timea "github.com/caarlos0/timea.go"
	"github.com/openrouter-inspector/openrouter-inspector/internal/cache"
	"github.com/spf13/cobra"
)

func newSnapshotsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshots",
		Short: "List the snapshots used for change detection",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return a.listSnapshots()
		},
	}
	var responses bool
	clearCmd := &cobra.Command{
		Use:   "clear [KEY...]",
		Short: "Forget snapshots so the next run starts fresh",
		RunE: func(_ *cobra.Command, args []string) error {
			if err := a.clearSnapshots(args); err != nil {
				return err
			}
			if responses {
				return a.clearResponses(args)
			}
			return nil
		},
	}
	clearCmd.Flags().BoolVar(&responses, "responses", false, help["responses"])
	cmd.AddCommand(clearCmd)
	return cmd
}

type snapshotView struct {
	Key     string `json:"key" yaml:"key"`
	TakenAt int64  `json:"taken_at" yaml:"taken_at"`
	Entries int    `json:"entries" yaml:"entries"`
}

func (a *app) listSnapshots() error {
	store, err := a.snapshots()
	if err != nil {
		return err
	}
	infos, err := store.List()
	if err != nil {
		return inspectorError{err, "Could not list snapshots."}
	}
	views := make([]snapshotView, len(infos))
	rows := make([][]string, len(infos))
	for i, info := range infos {
		views[i] = snapshotView(info)
		rows[i] = []string{info.Key, strconv.Itoa(info.Entries), timea.Of(info.Time())}
	}
	return a.print(views, tableData{
		Title:   "Snapshots",
		Headers: []string{"Key", "Entries", "Taken"},
		Rows:    rows,
	})
}

func (a *app) clearSnapshots(keys []string) error {
	store, err := a.snapshots()
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		infos, err := store.List()
		if err != nil {
			return inspectorError{err, "Could not list snapshots."}
		}
		for _, info := range infos {
			keys = append(keys, info.Key)
		}
	}
	var n int
	for _, key := range keys {
		deleted, err := store.Delete(key)
		if err != nil {
			return inspectorError{err, "Could not delete snapshot " + key + "."}
		}
		if !deleted {
			a.logger.Debug("no snapshot stored", "key", key)
			continue
		}
		a.logger.Debug("snapshot deleted", "key", key)
		n++
	}
	if !a.cfg.Quiet {
		_, _ = a.stderr.Write([]byte("Cleared " + strconv.Itoa(n) + " snapshot(s).\n"))
	}
	return nil
}

// clearResponses drops the cached API responses for keys, or all of them
// when no key is given. Response keys match snapshot keys.
func (a *app) clearResponses(keys []string) error {
	responses, err := cache.NewResponses(a.cfg.CachePath, time.Duration(a.cfg.CacheTTL), a.logger)
	if err != nil {
		return inspectorError{err, "Could not open the response cache."}
	}
	var n int
	if len(keys) == 0 {
		n, err = responses.Clear()
		if err != nil {
			return inspectorError{err, "Could not clear the response cache."}
		}
	}
	for _, key := range keys {
		deleted, err := responses.Delete(key)
		if err != nil {
			return inspectorError{err, "Could not delete cached response " + key + "."}
		}
		if deleted {
			n++
		}
	}
	if !a.cfg.Quiet {
		_, _ = a.stderr.Write([]byte("Cleared " + strconv.Itoa(n) + " cached response(s).\n"))
	}
	return nil
}
