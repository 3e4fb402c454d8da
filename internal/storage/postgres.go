package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps blobs in kv_blobs and valuation history in
// portfolio_valuations. The schema is managed by RunMigrations.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL store with connection pooling
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, errors.New("postgres storage requires a database URL")
	}

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 1
	config.MaxConnLifetime = 1 * time.Hour
	config.MaxConnIdleTime = 30 * time.Minute
	config.AfterConnect = func(_ context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.pool.QueryRow(ctx, `SELECT value FROM kv_blobs WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, nil
}

func (s *PostgresStore) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO kv_blobs (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// RecordValuation inserts a valuation snapshot using pgx.Batch
func (s *PostgresStore) RecordValuation(ctx context.Context, records []ValuationRecord) error {
	if len(records) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(`
			INSERT INTO portfolio_valuations
			(recorded_at, scope, token_id, symbol, quantity, price, value, percentage)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			rec.RecordedAt,
			rec.Scope,
			rec.TokenID,
			rec.Symbol,
			rec.Quantity,
			rec.Price,
			rec.Value,
			rec.Percentage,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range records {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch insert failed: %w", err)
		}
	}
	return nil
}

// LatestValuation returns the rows of the most recent valuation for scope
func (s *PostgresStore) LatestValuation(ctx context.Context, scope string) ([]ValuationRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, recorded_at, scope, token_id, symbol, quantity, price, value, percentage
		FROM portfolio_valuations
		WHERE scope = $1 AND recorded_at = (
			SELECT max(recorded_at) FROM portfolio_valuations WHERE scope = $1
		)
		ORDER BY value DESC`, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to query valuations: %w", err)
	}

	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (ValuationRecord, error) {
		var rec ValuationRecord
		err := row.Scan(&rec.ID, &rec.RecordedAt, &rec.Scope, &rec.TokenID, &rec.Symbol,
			&rec.Quantity, &rec.Price, &rec.Value, &rec.Percentage)
		return rec, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan valuations: %w", err)
	}
	return records, nil
}

// Ping verifies the connection is alive
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the connection pool
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
