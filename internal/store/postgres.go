package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS kyc_decisions (
    id           UUID PRIMARY KEY,
    record_id    TEXT        NOT NULL,
    accept       BOOLEAN     NOT NULL,
    failing_rule TEXT        NOT NULL DEFAULT '',
    code         TEXT        NOT NULL DEFAULT '',
    reason       TEXT        NOT NULL DEFAULT '',
    trace        JSONB       NOT NULL DEFAULT '[]',
    created_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS kyc_decisions_record_idx ON kyc_decisions (record_id, created_at DESC);
`

// PostgresStore persists decisions in PostgreSQL with the trace as jsonb.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresPool configures, connects and pings a pool.
func NewPostgresPool(ctx context.Context, url string) (*pgxpool.Pool, error) {
	if url == "" {
		return nil, fmt.Errorf("database url is required")
	}
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the decisions table when it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate decisions: %w", err)
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, e Entry) (Entry, error) {
	e = stamp(e, time.Now())
	trace, err := json.Marshal(e.Trace)
	if err != nil {
		return Entry{}, fmt.Errorf("encode trace: %w", err)
	}
	d := e.Decision
	_, err = s.db.Exec(ctx, `INSERT INTO kyc_decisions
        (id, record_id, accept, failing_rule, code, reason, trace, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.RecordID, d.Accept, d.FailingRule, d.Code, d.Reason, trace, e.CreatedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("insert decision %s: %w", e.ID, err)
	}
	return e, nil
}

const selectEntry = `SELECT id, record_id, accept, failing_rule, code, reason, trace, created_at FROM kyc_decisions`

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (Entry, error) {
	e, err := scanEntry(s.db.QueryRow(ctx, selectEntry+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	return e, err
}

func (s *PostgresStore) List(ctx context.Context, opts ListOptions) ([]Entry, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if opts.RecordID != "" {
		rows, err = s.db.Query(ctx, selectEntry+` WHERE record_id = $1 ORDER BY created_at DESC LIMIT $2`, opts.RecordID, opts.limit())
	} else {
		rows, err = s.db.Query(ctx, selectEntry+` ORDER BY created_at DESC LIMIT $1`, opts.limit())
	}
	if err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanEntry(row pgx.Row) (Entry, error) {
	var (
		e     Entry
		trace []byte
	)
	d := &e.Decision
	if err := row.Scan(&e.ID, &e.RecordID, &d.Accept, &d.FailingRule, &d.Code, &d.Reason, &trace, &e.CreatedAt); err != nil {
		return Entry{}, err
	}
	d.RecordID = e.RecordID
	if err := json.Unmarshal(trace, &e.Trace); err != nil {
		return Entry{}, fmt.Errorf("decode trace of %s: %w", e.ID, err)
	}
	return e, nil
}
