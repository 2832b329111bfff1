package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/vetta/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/vetta/internal/core/domain"
	"github.com/custodia-labs/vetta/internal/core/ports/driven"
)

// dbFile is the database file name inside the data directory.
const dbFile = "history.db"

// Ensure Store implements the interface.
var _ driven.HistoryStore = (*Store)(nil)

// Store is a SQLite-backed driven.HistoryStore.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (creating if needed) the history database in dataDir.
// If dataDir is empty, defaults to ~/.vetta/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, errors.Wrap(err, "getting home directory")
		}
		dataDir = filepath.Join(home, ".vetta", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, errors.Wrap(err, "creating data directory")
	}

	dbPath := filepath.Join(dataDir, dbFile)

	// WAL lets a reader (history list) run alongside a writing vet run.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}

	s := &Store{db: db, path: dbPath}
	if err := s.migrate(migrations.FS); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "running migrations")
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate applies every NNN_name.up.sql file newer than the recorded version.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return errors.Wrap(err, "creating schema_migrations table")
	}

	var current int
	if err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return errors.Wrap(err, "getting current version")
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return errors.Wrap(err, "reading migrations directory")
	}
	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil || version <= current {
			continue
		}
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return errors.Wrapf(err, "reading migration %s", name)
		}
		if err := s.apply(version, string(content)); err != nil {
			return errors.Wrapf(err, "executing migration %s", name)
		}
	}
	return nil
}

func (s *Store) apply(version int, script string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(script); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Save stores a run record, replacing any record with the same ID.
func (s *Store) Save(ctx context.Context, rec *domain.RunRecord) error {
	request, err := json.Marshal(rec.Request)
	if err != nil {
		return errors.Wrap(err, "marshalling request")
	}
	sources, err := json.Marshal(rec.Summary.Sources)
	if err != nil {
		return errors.Wrap(err, "marshalling sources")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, company_name, request, started_at, duration_ms,
			success_count, total_count, failed_count, skipped_count, sources)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			company_name = excluded.company_name,
			request = excluded.request,
			started_at = excluded.started_at,
			duration_ms = excluded.duration_ms,
			success_count = excluded.success_count,
			total_count = excluded.total_count,
			failed_count = excluded.failed_count,
			skipped_count = excluded.skipped_count,
			sources = excluded.sources
	`, rec.ID, rec.CompanyName, string(request), rec.StartedAt.UnixMilli(), rec.Duration.Milliseconds(),
		rec.Summary.Success, rec.Summary.Total, rec.Summary.Failed, rec.Summary.Skipped, string(sources))
	if err != nil {
		return errors.Wrap(err, "saving run")
	}
	return nil
}

const selectRun = `
	SELECT id, company_name, request, started_at, duration_ms,
		success_count, total_count, failed_count, skipped_count, sources
	FROM runs`

// Get retrieves a run record by ID.
func (s *Store) Get(ctx context.Context, id string) (*domain.RunRecord, error) {
	row := s.db.QueryRowContext(ctx, selectRun+" WHERE id = ?", id)
	rec, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return rec, err
}

// List returns the most recent run records, newest first.
// A limit of zero or less returns every record.
func (s *Store) List(ctx context.Context, limit int) ([]*domain.RunRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, selectRun+" ORDER BY started_at DESC, id LIMIT ?", limit)
	if err != nil {
		return nil, errors.Wrap(err, "querying runs")
	}
	defer rows.Close()

	var out []*domain.RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterating runs")
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*domain.RunRecord, error) {
	var (
		rec                 domain.RunRecord
		request, sources    string
		startedMS, duration int64
	)
	err := row.Scan(&rec.ID, &rec.CompanyName, &request, &startedMS, &duration,
		&rec.Summary.Success, &rec.Summary.Total, &rec.Summary.Failed, &rec.Summary.Skipped, &sources)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, errors.Wrap(err, "scanning run")
	}

	if err := json.Unmarshal([]byte(request), &rec.Request); err != nil {
		return nil, errors.Wrap(err, "unmarshaling request")
	}
	if err := json.Unmarshal([]byte(sources), &rec.Summary.Sources); err != nil {
		return nil, errors.Wrap(err, "unmarshaling sources")
	}
	rec.StartedAt = time.UnixMilli(startedMS).UTC()
	rec.Duration = time.Duration(duration) * time.Millisecond
	return &rec, nil
}
