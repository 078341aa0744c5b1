// Package snapshot keeps the previous API listings to report what changed
// between runs.
package snapshot

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // sqlite driver
)

// ErrNoSnapshot is returned when nothing was stored under a key yet.
var ErrNoSnapshot = errors.New("no previous snapshot")

// Snapshot is a listing at a point in time. Entries map an id to its
// tracked attributes.
type Snapshot struct {
	Key     string
	TakenAt time.Time
	Entries map[string]map[string]string
}

// Info describes a stored snapshot.
type Info struct {
	Key     string `db:"key"`
	TakenAt int64  `db:"taken_at"`
	Entries int    `db:"entries"`
}

// Time returns when the snapshot was taken.
func (i Info) Time() time.Time {
	return time.Unix(i.TakenAt, 0)
}

var migrations = []string{
	`create table if not exists snapshots(
		key text not null primary key,
		taken_at integer not null
	)`,
	`create table if not exists snapshot_entries(
		key text not null,
		id text not null,
		attrs text not null,
		primary key (key, id)
	)`,
}

// Store persists snapshots in sqlite.
type Store struct {
	db *sqlx.DB
}

// OpenDir opens the snapshot database inside dir, creating it if needed.
func OpenDir(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("could not create snapshot dir: %w", err)
	}
	return Open(filepath.Join(dir, "snapshots.sqlite"))
}

// Open opens the snapshot database at path. Use ":memory:" for a
// throwaway store.
func Open(path string) (*Store, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("could not create db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("could not ping db: %w", err)
	}
	for _, q := range migrations {
		if _, err := db.Exec(q); err != nil {
			return nil, fmt.Errorf("could not migrate db: %w", err)
		}
	}
	return &Store{db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close() //nolint:wrapcheck
}

// Load returns the snapshot stored under key.
func (s *Store) Load(key string) (Snapshot, error) {
	snap := Snapshot{Key: key, Entries: map[string]map[string]string{}}

	var takenAt int64
	err := s.db.Get(&takenAt, `select taken_at from snapshots where key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return snap, ErrNoSnapshot
	}
	if err != nil {
		return snap, fmt.Errorf("could not load snapshot: %w", err)
	}
	snap.TakenAt = time.Unix(takenAt, 0)

	var rows []struct {
		ID    string `db:"id"`
		Attrs string `db:"attrs"`
	}
	if err := s.db.Select(&rows, `select id, attrs from snapshot_entries where key = ?`, key); err != nil {
		return snap, fmt.Errorf("could not load snapshot: %w", err)
	}
	for _, row := range rows {
		attrs := map[string]string{}
		if err := json.Unmarshal([]byte(row.Attrs), &attrs); err != nil {
			return snap, fmt.Errorf("could not decode snapshot entry %q: %w", row.ID, err)
		}
		snap.Entries[row.ID] = attrs
	}
	return snap, nil
}

// Save replaces the snapshot stored under snap.Key.
func (s *Store) Save(snap Snapshot) error {
	if snap.Key == "" {
		return errors.New("could not save snapshot: empty key")
	}
	if snap.TakenAt.IsZero() {
		snap.TakenAt = time.Now()
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("could not save snapshot: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`delete from snapshot_entries where key = ?`, snap.Key); err != nil {
		return fmt.Errorf("could not save snapshot: %w", err)
	}
	if _, err := tx.Exec(`
		insert into snapshots (key, taken_at) values (?, ?)
		on conflict(key) do update set taken_at = excluded.taken_at
	`, snap.Key, snap.TakenAt.Unix()); err != nil {
		return fmt.Errorf("could not save snapshot: %w", err)
	}

	stmt, err := tx.Preparex(`insert into snapshot_entries (key, id, attrs) values (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("could not save snapshot: %w", err)
	}
	defer stmt.Close() //nolint:errcheck
	for id, attrs := range snap.Entries {
		bts, err := json.Marshal(attrs)
		if err != nil {
			return fmt.Errorf("could not encode snapshot entry %q: %w", id, err)
		}
		if _, err := stmt.Exec(snap.Key, id, string(bts)); err != nil {
			return fmt.Errorf("could not save snapshot: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not save snapshot: %w", err)
	}
	return nil
}

// List returns the stored snapshots, newest first.
func (s *Store) List() ([]Info, error) {
	var infos []Info
	if err := s.db.Select(&infos, `
		select s.key, s.taken_at, count(e.id) as entries
		from snapshots s
		left join snapshot_entries e on e.key = s.key
		group by s.key, s.taken_at
		order by s.taken_at desc, s.key asc
	`); err != nil {
		return infos, fmt.Errorf("could not list snapshots: %w", err)
	}
	return infos, nil
}

// Delete removes the snapshot stored under key and reports whether one
// was stored.
func (s *Store) Delete(key string) (bool, error) {
	tx, err := s.db.Beginx()
	if err != nil {
		return false, fmt.Errorf("could not delete snapshot: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`delete from snapshot_entries where key = ?`, key); err != nil {
		return false, fmt.Errorf("could not delete snapshot: %w", err)
	}
	res, err := tx.Exec(`delete from snapshots where key = ?`, key)
	if err != nil {
		return false, fmt.Errorf("could not delete snapshot: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("could not delete snapshot: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("could not delete snapshot: %w", err)
	}
	return n > 0, nil
}
