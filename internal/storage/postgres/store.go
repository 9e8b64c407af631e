package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"subscanFeed/internal/model"
)

// Store provides Postgres persistence for normalized events.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the events table when it does not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS chain_events (
			id BIGSERIAL PRIMARY KEY,
			block_num BIGINT NOT NULL,
			block_timestamp_ms BIGINT NOT NULL,
			extrinsic_hash TEXT NOT NULL,
			params JSONB NOT NULL,
			param_values JSONB NOT NULL,
			ingested_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// PutEventBatch inserts a batch of events.
func (s *Store) PutEventBatch(ctx context.Context, events []model.NormalizedEvent) error {
	if len(events) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, event := range events {
		params, err := json.Marshal(event.Params)
		if err != nil {
			return fmt.Errorf("marshal params: %w", err)
		}
		values, err := json.Marshal(event.Values)
		if err != nil {
			return fmt.Errorf("marshal values: %w", err)
		}

		batch.Queue(`
			INSERT INTO chain_events (
				block_num, block_timestamp_ms, extrinsic_hash, params, param_values
			) VALUES ($1, $2, $3, $4, $5)
		`,
			int64(event.Block),
			int64(event.BlockTimestampMs),
			event.ExtrinsicHash,
			params,
			values,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range events {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
