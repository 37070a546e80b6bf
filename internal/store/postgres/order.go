package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Dragoner91/ordertrack/internal/domain"
)

type OrderStore struct {
	db *DB
}

func NewOrderStore(db *DB) *OrderStore {
	return &OrderStore{db: db}
}

func (s *OrderStore) Create(ctx context.Context, o *domain.Order) error {
	query := `
		INSERT INTO orders (client_id, address, total, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, created_at
	`
	err := s.db.Pool.QueryRow(ctx, query, o.ClientID, o.Address, o.Total).
		Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (s *OrderStore) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	query := `
		SELECT id, client_id, address, total, created_at
		FROM orders
		WHERE id = $1
	`
	var o domain.Order
	err := s.db.Pool.QueryRow(ctx, query, id).Scan(
		&o.ID,
		&o.ClientID,
		&o.Address,
		&o.Total,
		&o.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("order %d: %w", id, domain.ErrOrderNotFound)
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return &o, nil
}

func (s *OrderStore) List(ctx context.Context) ([]*domain.Order, error) {
	query := `
		SELECT id, client_id, address, total, created_at
		FROM orders
		ORDER BY id DESC
		LIMIT 100
	`
	rows, err := s.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		var o domain.Order
		err := rows.Scan(&o.ID, &o.ClientID, &o.Address, &o.Total, &o.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, &o)
	}
	return orders, nil
}
