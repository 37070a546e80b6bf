package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/Dragoner91/ordertrack/internal/domain"
)

// Store is an in-memory order and status log, used when no Postgres DSN
// is configured and throughout the tests. Appends and reads serialize on
// one mutex, which gives the same atomicity the pipeline assumes from
// the storage layer.
type Store struct {
	mu      sync.Mutex
	nextID  int64
	orders  map[int64]*domain.Order
	entries map[int64][]domain.StatusEntry
}

func New() *Store {
	return &Store{
		nextID:  1,
		orders:  make(map[int64]*domain.Order),
		entries: make(map[int64][]domain.StatusEntry),
	}
}

func (s *Store) Create(ctx context.Context, o *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if o.ID == 0 {
		o.ID = s.nextID
		s.nextID++
	} else if o.ID >= s.nextID {
		s.nextID = o.ID + 1
	}

	cp := *o
	s.orders[o.ID] = &cp
	return nil
}

func (s *Store) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %d: %w", id, domain.ErrOrderNotFound)
	}
	cp := *o
	return &cp, nil
}

func (s *Store) List(ctx context.Context) ([]*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.Order, 0, len(s.orders))
	for _, o := range s.orders {
		cp := *o
		out = append(out, &cp)
	}
	return out, nil
}

func (s *Store) AppendStatus(ctx context.Context, entry domain.StatusEntry) error {
	if err := entry.Status.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.entries[entry.OrderID]
	if len(history) > 0 {
		cur := latest(history)
		if cur.Status == entry.Status {
			return fmt.Errorf("%w: order %d is already %s",
				domain.ErrInvalidTransition, entry.OrderID, entry.Status)
		}
		if !cur.Status.CanProgressTo(entry.Status) {
			return fmt.Errorf("%w: order %d cannot move %s -> %s",
				domain.ErrInvalidTransition, entry.OrderID, cur.Status, entry.Status)
		}
	}

	s.entries[entry.OrderID] = append(history, entry)
	return nil
}

func (s *Store) CurrentStatus(ctx context.Context, orderID int64) (domain.StatusEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.entries[orderID]
	if len(history) == 0 {
		return domain.StatusEntry{}, fmt.Errorf("order %d: %w", orderID, domain.ErrOrderNotFound)
	}
	return latest(history), nil
}

func (s *Store) History(ctx context.Context, orderID int64) ([]domain.StatusEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.entries[orderID]
	out := make([]domain.StatusEntry, len(history))
	copy(out, history)
	return out, nil
}

// latest picks the entry with the greatest timestamp; on equal timestamps
// the later insertion wins.
func latest(history []domain.StatusEntry) domain.StatusEntry {
	cur := history[0]
	for _, e := range history[1:] {
		if !e.Timestamp.Before(cur.Timestamp) {
			cur = e
		}
	}
	return cur
}
