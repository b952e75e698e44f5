// Package sqlite is the single-node Store backend built on modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/MrSnakeDoc/jobscout/internal/domain"
	"github.com/MrSnakeDoc/jobscout/internal/store"
)

// Store persists sources and jobs in a SQLite file.
type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

// Open opens (and creates if needed) the database at path and applies the schema.
// ":memory:" gives a private in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite: path is required")
	}

	connStr := path
	if path == ":memory:" {
		connStr = "file::memory:"
	} else if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}

	// A single connection serializes writers and keeps :memory: databases
	// from splitting across the pool.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	if path != ":memory:" {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite: enable WAL: %w", err)
		}
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: busy timeout: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin migration: %w", err)
	}
	for _, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("sqlite: apply schema: %w", err)
		}
	}
	return tx.Commit()
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const sourceColumns = `id, source_id, name, provider, enabled, added_at`

func (s *Store) ListSources(ctx context.Context) ([]domain.Source, error) {
	return s.querySources(ctx, `SELECT `+sourceColumns+` FROM sources ORDER BY added_at DESC, id DESC`)
}

func (s *Store) ListEnabledSources(ctx context.Context) ([]domain.Source, error) {
	return s.querySources(ctx, `SELECT `+sourceColumns+` FROM sources WHERE enabled = 1 ORDER BY id`)
}

func (s *Store) querySources(ctx context.Context, query string) ([]domain.Source, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list sources: %w", err)
	}
	defer rows.Close()

	sources := make([]domain.Source, 0)
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list sources: %w", err)
	}
	return sources, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSource(row scanner) (domain.Source, error) {
	var src domain.Source
	if err := row.Scan(&src.ID, &src.SourceID, &src.Name, &src.Provider, &src.Enabled, &src.AddedAt); err != nil {
		return domain.Source{}, fmt.Errorf("sqlite: scan source: %w", err)
	}
	return src, nil
}

// UpsertSource inserts a source or refreshes the name of an existing one.
func (s *Store) UpsertSource(ctx context.Context, in domain.SourceInput) (domain.Source, error) {
	in, ok := in.Normalize()
	if !ok {
		return domain.Source{}, fmt.Errorf("%w: source_id is required and provider must be facebook or rss", domain.ErrValidation)
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO sources (source_id, name, provider, added_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (source_id) DO UPDATE SET name = excluded.name
		RETURNING `+sourceColumns,
		in.SourceID, in.Name, in.Provider, time.Now().UTC(),
	)
	src, err := scanSource(row)
	if err != nil {
		return domain.Source{}, fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}
	return src, nil
}

func (s *Store) DeleteSource(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sources WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: delete source: %w", err)
	}
	return requireAffected(res)
}

// ToggleSource flips the enabled flag in one statement and returns the new value.
func (s *Store) ToggleSource(ctx context.Context, id int64) (bool, error) {
	var enabled bool
	err := s.db.QueryRowContext(ctx,
		`UPDATE sources SET enabled = NOT enabled WHERE id = ? RETURNING enabled`, id,
	).Scan(&enabled)
	if errors.Is(err, sql.ErrNoRows) {
		return false, store.ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("sqlite: toggle source: %w", err)
	}
	return enabled, nil
}

// SetSourceEnabled writes the enabled flag without reading it first.
func (s *Store) SetSourceEnabled(ctx context.Context, id int64, enabled bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE sources SET enabled = ? WHERE id = ?`, enabled, id)
	if err != nil {
		return fmt.Errorf("sqlite: set source enabled: %w", err)
	}
	return requireAffected(res)
}

// InsertJob stores item unless its fingerprint is already present.
func (s *Store) InsertJob(ctx context.Context, item domain.AcceptedItem) (domain.SubmitStatus, error) {
	if err := item.Validate(); err != nil {
		return 0, err
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO jobs (source_name, text, link, content_hash, source_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (content_hash) DO NOTHING`,
		item.SourceName, item.Text, nullString(item.Link), item.ContentHash, item.SourceType, time.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: sqlite insert job: %w", domain.ErrStorage, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: sqlite insert job: %w", domain.ErrStorage, err)
	}
	if n == 0 {
		return domain.SubmitDuplicate, nil
	}
	return domain.SubmitOK, nil
}

func (s *Store) ListJobs(ctx context.Context, limit int) ([]domain.Job, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source_name, text, link, content_hash, source_type, created_at
		FROM jobs
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, store.ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("sqlite: list jobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]domain.Job, 0)
	for rows.Next() {
		var (
			job  domain.Job
			link sql.NullString
		)
		if err := rows.Scan(&job.ID, &job.SourceName, &job.Text, &link, &job.ContentHash, &job.SourceType, &job.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scan job: %w", err)
		}
		if link.Valid {
			job.Link = &link.String
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list jobs: %w", err)
	}
	return jobs, nil
}

func (s *Store) DeleteJob(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: delete job: %w", err)
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
