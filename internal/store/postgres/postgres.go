package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type DB struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, connString string) (*DB, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

func (db *DB) Close() {
	db.Pool.Close()
}

func (db *DB) Migrate(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS orders (
			id         BIGSERIAL PRIMARY KEY,
			client_id  BIGINT NOT NULL,
			address    TEXT NOT NULL,
			total      NUMERIC(10,2) NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS status_entries (
			id        BIGSERIAL PRIMARY KEY,
			order_id  BIGINT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
			status    TEXT NOT NULL CHECK (status IN ('pending', 'in_transit', 'delivered', 'delayed', 'cancelled')),
			timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			note      TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_status_entries_order_id ON status_entries(order_id);
		CREATE INDEX IF NOT EXISTS idx_status_entries_timestamp ON status_entries(order_id, timestamp);
	`

	_, err := db.Pool.Exec(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
