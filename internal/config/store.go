package config

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/thehillbeyondthisone/BackendBuddy/internal/errors"
)

// ErrNoConfig is returned by Load when the config row has never been seeded.
var ErrNoConfig = errors.New("no configuration record")

// Store is a single-row SQLite-backed Configuration Store, grounded on the
// teacher's getDaemonState/setDaemonState single-row upsert pattern.
type Store struct {
	db *sql.DB
}

// Open opens (creating if absent) the SQLite database at path and ensures
// the config table exists. Schema evolution beyond this single CREATE TABLE
// IF NOT EXISTS is explicitly out of scope (spec.md §1).
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open configuration database %s", path)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to connect to configuration database")
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS config (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			name TEXT NOT NULL DEFAULT '',
			directory TEXT NOT NULL DEFAULT '',
			command TEXT NOT NULL DEFAULT '',
			frontend_directory TEXT NOT NULL DEFAULT '',
			frontend_command TEXT NOT NULL DEFAULT '',
			port INTEGER NOT NULL DEFAULT 0,
			lan_ip TEXT NOT NULL DEFAULT '',
			lan_enabled INTEGER NOT NULL DEFAULT 0,
			ngrok_enabled INTEGER NOT NULL DEFAULT 0,
			cloudflare_enabled INTEGER NOT NULL DEFAULT 0,
			queue_enabled INTEGER NOT NULL DEFAULT 1,
			concurrency_cap INTEGER NOT NULL DEFAULT 1,
			localhost_priority INTEGER NOT NULL DEFAULT 1,
			heartbeat_timeout_seconds INTEGER NOT NULL DEFAULT 30,
			log_theme TEXT NOT NULL DEFAULT 'everforest',
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`
	if _, err := s.db.Exec(ddl); err != nil {
		return errors.Wrap(err, "failed to migrate configuration table")
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load reads the single config row. Returns ErrNoConfig if the row is absent
// (spec.md §6: "404 if missing" at the API boundary; callers map it there).
func (s *Store) Load(ctx context.Context) (*Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT name, directory, command, frontend_directory, frontend_command,
		       port, lan_ip, lan_enabled, ngrok_enabled, cloudflare_enabled,
		       queue_enabled, concurrency_cap, localhost_priority,
		       heartbeat_timeout_seconds, log_theme
		FROM config WHERE id = 1
	`)

	var snap Snapshot
	err := row.Scan(
		&snap.Name, &snap.Directory, &snap.Command, &snap.FrontendDirectory, &snap.FrontendCommand,
		&snap.Port, &snap.LANIP, &snap.LANEnabled, &snap.NgrokEnabled, &snap.CloudflareEnabled,
		&snap.QueueEnabled, &snap.ConcurrencyCap, &snap.LocalhostPriority,
		&snap.HeartbeatTimeout, &snap.LogTheme,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNoConfig
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read configuration record")
	}

	defaults := Defaults()
	snap.AllowedOrigins = defaults.AllowedOrigins
	return &snap, nil
}

// Seed inserts the default row if none exists yet. Safe to call repeatedly.
func (s *Store) Seed(ctx context.Context) error {
	d := Defaults()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO config (id, queue_enabled, concurrency_cap, localhost_priority,
		                     heartbeat_timeout_seconds, log_theme,
		                     lan_enabled, ngrok_enabled, cloudflare_enabled)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, d.QueueEnabled, d.ConcurrencyCap, d.LocalhostPriority, d.HeartbeatTimeout, d.LogTheme,
		d.LANEnabled, d.NgrokEnabled, d.CloudflareEnabled)
	if err != nil {
		return errors.Wrap(err, "failed to seed configuration record")
	}
	return nil
}

// Update applies a partial update, leaving absent fields unchanged
// (spec.md §6's "Fields absent are left unchanged").
func (s *Store) Update(ctx context.Context, patch PartialUpdate) (*Snapshot, error) {
	if err := s.Seed(ctx); err != nil {
		return nil, err
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE config SET
			name = COALESCE(?, name),
			directory = COALESCE(?, directory),
			command = COALESCE(?, command),
			frontend_directory = COALESCE(?, frontend_directory),
			frontend_command = COALESCE(?, frontend_command),
			port = COALESCE(?, port),
			lan_ip = COALESCE(?, lan_ip),
			lan_enabled = COALESCE(?, lan_enabled),
			ngrok_enabled = COALESCE(?, ngrok_enabled),
			cloudflare_enabled = COALESCE(?, cloudflare_enabled),
			queue_enabled = COALESCE(?, queue_enabled),
			updated_at = CURRENT_TIMESTAMP
		WHERE id = 1
	`,
		nullableString(patch.Name), nullableString(patch.Directory), nullableString(patch.Command),
		nullableString(patch.FrontendDirectory), nullableString(patch.FrontendCommand),
		nullableInt(patch.Port), nullableString(patch.LANIP),
		nullableBool(patch.LANEnabled), nullableBool(patch.NgrokEnabled),
		nullableBool(patch.CloudflareEnabled), nullableBool(patch.QueueEnabled),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to update configuration record")
	}

	return s.Load(ctx)
}

// Watch polls the config row every interval and emits a Snapshot whenever it
// changes. The config table has no native change notification, so this is a
// lightweight poll loop rather than the teacher's fsnotify-based file
// watcher.
func (s *Store) Watch(ctx context.Context, interval time.Duration) <-chan Snapshot {
	out := make(chan Snapshot, 1)

	go func() {
		defer close(out)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		var last *Snapshot
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				snap, err := s.Load(ctx)
				if err != nil {
					continue
				}
				if last == nil || !snapshotsEqual(*snap, *last) {
					select {
					case out <- *snap:
					case <-ctx.Done():
						return
					}
				}
				last = snap
			}
		}
	}()

	return out
}

// snapshotsEqual compares the scalar, persisted fields of two snapshots.
// AllowedOrigins is excluded: it is always the process-wide default, never
// stored per-row, so it carries no change signal.
func snapshotsEqual(a, b Snapshot) bool {
	return a.Name == b.Name &&
		a.Directory == b.Directory &&
		a.Command == b.Command &&
		a.FrontendDirectory == b.FrontendDirectory &&
		a.FrontendCommand == b.FrontendCommand &&
		a.Port == b.Port &&
		a.LANIP == b.LANIP &&
		a.LANEnabled == b.LANEnabled &&
		a.NgrokEnabled == b.NgrokEnabled &&
		a.CloudflareEnabled == b.CloudflareEnabled &&
		a.QueueEnabled == b.QueueEnabled &&
		a.ConcurrencyCap == b.ConcurrencyCap &&
		a.LocalhostPriority == b.LocalhostPriority &&
		a.HeartbeatTimeout == b.HeartbeatTimeout &&
		a.LogTheme == b.LogTheme
}

func nullableString(v *string) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullableInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullableBool(v *bool) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
