package domain

import (
	"errors"
	"time"
)

var (
	ErrUnknownStatus     = errors.New("unknown status")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrOrderNotFound     = errors.New("order not found")
)

// Order is a shipment order. The pipeline references orders by ID only;
// the remaining fields exist for the thin REST boundary.
type Order struct {
	ID        int64     `json:"id"`
	ClientID  int64     `json:"client_id"`
	Address   string    `json:"address"`
	Total     float64   `json:"total"`
	CreatedAt time.Time `json:"created_at"`
}

// StatusEntry is one immutable record in an order's append-only status
// history. The current status of an order is the entry with the latest
// timestamp, ties broken by insertion order.
type StatusEntry struct {
	OrderID   int64     `json:"order_id"`
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Note      string    `json:"note,omitempty"`
}
