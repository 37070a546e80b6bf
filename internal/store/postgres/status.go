package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Dragoner91/ordertrack/internal/domain"
)

type StatusStore struct {
	db *DB
}

func NewStatusStore(db *DB) *StatusStore {
	return &StatusStore{db: db}
}

// AppendStatus inserts one history entry. The transition guard runs inside
// a transaction holding the parent order row lock, so concurrent appends
// for the same order serialize here even when no history row exists yet
// for FOR UPDATE to pin.
func (s *StatusStore) AppendStatus(ctx context.Context, entry domain.StatusEntry) error {
	if err := entry.Status.Validate(); err != nil {
		return err
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin append status: %w", err)
	}
	defer tx.Rollback(ctx)

	var parentID int64
	err = tx.QueryRow(ctx, `SELECT id FROM orders WHERE id = $1 FOR UPDATE`, entry.OrderID).Scan(&parentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("order %d: %w", entry.OrderID, domain.ErrOrderNotFound)
		}
		return fmt.Errorf("lock order row: %w", err)
	}

	cur, err := currentStatusTx(ctx, tx, entry.OrderID, true)
	if err != nil && !errors.Is(err, domain.ErrOrderNotFound) {
		return err
	}
	if err == nil {
		if cur.Status == entry.Status {
			return fmt.Errorf("%w: order %d is already %s",
				domain.ErrInvalidTransition, entry.OrderID, entry.Status)
		}
		if !cur.Status.CanProgressTo(entry.Status) {
			return fmt.Errorf("%w: order %d cannot move %s -> %s",
				domain.ErrInvalidTransition, entry.OrderID, cur.Status, entry.Status)
		}
	}

	insert := `
		INSERT INTO status_entries (order_id, status, timestamp, note)
		VALUES ($1, $2, $3, NULLIF($4, ''))
	`
	if _, err := tx.Exec(ctx, insert, entry.OrderID, entry.Status.String(), entry.Timestamp, entry.Note); err != nil {
		return fmt.Errorf("insert status entry: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit append status: %w", err)
	}
	return nil
}

func (s *StatusStore) CurrentStatus(ctx context.Context, orderID int64) (domain.StatusEntry, error) {
	return currentStatusTx(ctx, s.db.Pool, orderID, false)
}

type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func currentStatusTx(ctx context.Context, q queryRower, orderID int64, forUpdate bool) (domain.StatusEntry, error) {
	query := `
		SELECT order_id, status, timestamp, COALESCE(note, '')
		FROM status_entries
		WHERE order_id = $1
		ORDER BY timestamp DESC, id DESC
		LIMIT 1
	`
	if forUpdate {
		query += " FOR UPDATE"
	}

	var entry domain.StatusEntry
	var status string
	err := q.QueryRow(ctx, query, orderID).Scan(
		&entry.OrderID,
		&status,
		&entry.Timestamp,
		&entry.Note,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.StatusEntry{}, fmt.Errorf("order %d: %w", orderID, domain.ErrOrderNotFound)
		}
		return domain.StatusEntry{}, fmt.Errorf("get current status: %w", err)
	}
	entry.Status = domain.Status(status)
	return entry, nil
}

func (s *StatusStore) History(ctx context.Context, orderID int64) ([]domain.StatusEntry, error) {
	query := `
		SELECT order_id, status, timestamp, COALESCE(note, '')
		FROM status_entries
		WHERE order_id = $1
		ORDER BY id ASC
	`
	rows, err := s.db.Pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("query status history: %w", err)
	}
	defer rows.Close()

	var entries []domain.StatusEntry
	for rows.Next() {
		var entry domain.StatusEntry
		var status string
		err := rows.Scan(&entry.OrderID, &status, &entry.Timestamp, &entry.Note)
		if err != nil {
			return nil, fmt.Errorf("scan status entry: %w", err)
		}
		entry.Status = domain.Status(status)
		entries = append(entries, entry)
	}
	return entries, nil
}
