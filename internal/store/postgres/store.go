// Package postgres is the Store backend for a shared Postgres database,
// built on pgx/v5 connection pools.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MrSnakeDoc/jobscout/internal/domain"
	"github.com/MrSnakeDoc/jobscout/internal/store"
)

// Store persists sources and jobs in Postgres.
type Store struct {
	pool *pgxpool.Pool
}

var _ store.Store = (*Store)(nil)

// PoolOptions tunes the pgx pool.
type PoolOptions struct {
	MaxConns int32
	// SimpleProtocol disables prepared statements (needed behind pgbouncer).
	SimpleProtocol bool
}

// NewPool parses dsn and builds a pool without contacting the server.
func NewPool(ctx context.Context, dsn string, opts PoolOptions) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse dsn: %w", err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	if opts.SimpleProtocol {
		cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: create pool: %w", err)
	}
	return pool, nil
}

// New wraps a connected pool and creates the schema.
func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin migration: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var freshSources, legacyGroups bool
	if err := tx.QueryRow(ctx,
		`SELECT to_regclass('sources') IS NULL, to_regclass('fb_groups') IS NOT NULL`,
	).Scan(&freshSources, &legacyGroups); err != nil {
		return fmt.Errorf("postgres: inspect schema: %w", err)
	}

	for _, stmt := range schema {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: apply schema: %w", err)
		}
	}

	// fb_groups is copied only when sources is created, so sources deleted
	// later do not come back on restart.
	if freshSources && legacyGroups {
		if err := importLegacyGroups(ctx, tx); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit migration: %w", err)
	}
	return nil
}

type legacyGroup struct {
	in      domain.SourceInput
	enabled bool
	addedAt time.Time
}

func importLegacyGroups(ctx context.Context, tx pgx.Tx) error {
	rows, err := tx.Query(ctx, selectLegacyGroups)
	if err != nil {
		return fmt.Errorf("postgres: read fb_groups: %w", err)
	}
	groups, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (legacyGroup, error) {
		var g legacyGroup
		err := row.Scan(&g.in.SourceID, &g.in.Name, &g.enabled, &g.addedAt)
		return g, err
	})
	if err != nil {
		return fmt.Errorf("postgres: read fb_groups: %w", err)
	}

	for _, g := range groups {
		in, ok := g.in.Normalize()
		if !ok {
			continue
		}
		if _, err := tx.Exec(ctx, insertLegacyGroup, in.SourceID, in.Name, in.Provider, g.enabled, g.addedAt); err != nil {
			return fmt.Errorf("postgres: import fb_groups: %w", err)
		}
	}
	return nil
}

// Close releases every pooled connection.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

const sourceColumns = `id, source_id, name, provider, enabled, added_at`

func (s *Store) ListSources(ctx context.Context) ([]domain.Source, error) {
	return s.querySources(ctx, `SELECT `+sourceColumns+` FROM sources ORDER BY added_at DESC, id DESC`)
}

func (s *Store) ListEnabledSources(ctx context.Context) ([]domain.Source, error) {
	return s.querySources(ctx, `SELECT `+sourceColumns+` FROM sources WHERE enabled = TRUE ORDER BY id`)
}

func (s *Store) querySources(ctx context.Context, query string) ([]domain.Source, error) {
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: list sources: %w", err)
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
		return nil, fmt.Errorf("postgres: list sources: %w", err)
	}
	return sources, nil
}

func scanSource(row pgx.Row) (domain.Source, error) {
	var src domain.Source
	if err := row.Scan(&src.ID, &src.SourceID, &src.Name, &src.Provider, &src.Enabled, &src.AddedAt); err != nil {
		return domain.Source{}, fmt.Errorf("postgres: scan source: %w", err)
	}
	return src, nil
}

// UpsertSource inserts a source or refreshes the name of an existing one.
func (s *Store) UpsertSource(ctx context.Context, in domain.SourceInput) (domain.Source, error) {
	in, ok := in.Normalize()
	if !ok {
		return domain.Source{}, fmt.Errorf("%w: source_id is required and provider must be facebook or rss", domain.ErrValidation)
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO sources (source_id, name, provider)
		VALUES ($1, $2, $3)
		ON CONFLICT (source_id) DO UPDATE SET name = EXCLUDED.name
		RETURNING `+sourceColumns,
		in.SourceID, in.Name, in.Provider,
	)
	src, err := scanSource(row)
	if err != nil {
		return domain.Source{}, fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}
	return src, nil
}

func (s *Store) DeleteSource(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sources WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: delete source: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ToggleSource flips the enabled flag in one statement and returns the new value.
func (s *Store) ToggleSource(ctx context.Context, id int64) (bool, error) {
	var enabled bool
	err := s.pool.QueryRow(ctx,
		`UPDATE sources SET enabled = NOT enabled WHERE id = $1 RETURNING enabled`, id,
	).Scan(&enabled)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, store.ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("postgres: toggle source: %w", err)
	}
	return enabled, nil
}

// SetSourceEnabled writes the enabled flag without reading it first.
func (s *Store) SetSourceEnabled(ctx context.Context, id int64, enabled bool) error {
	tag, err := s.pool.Exec(ctx, `UPDATE sources SET enabled = $2 WHERE id = $1`, id, enabled)
	if err != nil {
		return fmt.Errorf("postgres: set source enabled: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// InsertJob stores item unless its fingerprint is already present. The
// unique index on content_hash arbitrates concurrent writers.
func (s *Store) InsertJob(ctx context.Context, item domain.AcceptedItem) (domain.SubmitStatus, error) {
	if err := item.Validate(); err != nil {
		return 0, err
	}

	tag, err := s.pool.Exec(ctx, `
		INSERT INTO jobs (source_name, text, link, content_hash, source_type)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (content_hash) DO NOTHING`,
		item.SourceName, item.Text, nullString(item.Link), item.ContentHash, item.SourceType,
	)
	if err != nil {
		return 0, fmt.Errorf("%w: postgres insert job: %w", domain.ErrStorage, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.SubmitDuplicate, nil
	}
	return domain.SubmitOK, nil
}

func (s *Store) ListJobs(ctx context.Context, limit int) ([]domain.Job, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, source_name, COALESCE(text, ''), link, COALESCE(content_hash, ''), COALESCE(source_type, 'facebook'), created_at
		FROM jobs
		ORDER BY created_at DESC, id DESC
		LIMIT $1`, store.ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("postgres: list jobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]domain.Job, 0)
	for rows.Next() {
		var job domain.Job
		if err := rows.Scan(&job.ID, &job.SourceName, &job.Text, &job.Link, &job.ContentHash, &job.SourceType, &job.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list jobs: %w", err)
	}
	return jobs, nil
}

func (s *Store) DeleteJob(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: delete job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
