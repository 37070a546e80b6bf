package store

import (
	"context"

	"github.com/Dragoner91/ordertrack/internal/domain"
)

// OrderStore persists orders. Thin boundary for the REST surface; the
// pipeline itself only needs ids.
type OrderStore interface {
	Create(ctx context.Context, o *domain.Order) error
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	List(ctx context.Context) ([]*domain.Order, error)
}

// StatusStore is the append-only status log. AppendStatus and
// CurrentStatus are assumed atomic at the storage layer; the scheduler's
// read-then-write guard builds on that.
type StatusStore interface {
	// AppendStatus appends one entry, rejecting transitions the state
	// machine does not permit from the order's current status.
	AppendStatus(ctx context.Context, entry domain.StatusEntry) error
	// CurrentStatus returns the entry with the latest timestamp, ties
	// broken by insertion order. domain.ErrOrderNotFound when the order
	// has no history.
	CurrentStatus(ctx context.Context, orderID int64) (domain.StatusEntry, error)
	// History returns all entries for an order in insertion order.
	History(ctx context.Context, orderID int64) ([]domain.StatusEntry, error)
}
