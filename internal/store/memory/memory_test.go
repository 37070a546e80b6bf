package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dragoner91/ordertrack/internal/domain"
)

func TestCreateAssignsIDs(t *testing.T) {
	s := New()
	ctx := context.Background()

	a := &domain.Order{Address: "Av. Reforma 123", Total: 150.50, ClientID: 1}
	b := &domain.Order{Address: "Calle 5 de Mayo 8", Total: 99.99, ClientID: 2}
	require.NoError(t, s.Create(ctx, a))
	require.NoError(t, s.Create(ctx, b))

	assert.Equal(t, int64(1), a.ID)
	assert.Equal(t, int64(2), b.ID)

	got, err := s.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.Address, got.Address)
}

func TestGetByIDNotFound(t *testing.T) {
	s := New()
	_, err := s.GetByID(context.Background(), 42)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestAppendStatusGuardedHistory(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.AppendStatus(ctx, domain.StatusEntry{
		OrderID: 1, Status: domain.StatusPending, Timestamp: now,
	}))
	require.NoError(t, s.AppendStatus(ctx, domain.StatusEntry{
		OrderID: 1, Status: domain.StatusInTransit, Timestamp: now.Add(time.Second),
	}))
	require.NoError(t, s.AppendStatus(ctx, domain.StatusEntry{
		OrderID: 1, Status: domain.StatusDelivered, Timestamp: now.Add(2 * time.Second),
	}))

	history, err := s.History(ctx, 1)
	require.NoError(t, err)
	require.Len(t, history, 3)

	// Non-decreasing timestamps, no duplicate consecutive statuses.
	for i := 1; i < len(history); i++ {
		assert.False(t, history[i].Timestamp.Before(history[i-1].Timestamp))
		assert.NotEqual(t, history[i].Status, history[i-1].Status)
	}
}

func TestAppendStatusRejectsInvalidTransition(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.AppendStatus(ctx, domain.StatusEntry{
		OrderID: 1, Status: domain.StatusPending, Timestamp: now,
	}))

	err := s.AppendStatus(ctx, domain.StatusEntry{
		OrderID: 1, Status: domain.StatusDelivered, Timestamp: now.Add(time.Second),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestAppendStatusRejectsDuplicateConsecutive(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.AppendStatus(ctx, domain.StatusEntry{
		OrderID: 1, Status: domain.StatusPending, Timestamp: now,
	}))

	err := s.AppendStatus(ctx, domain.StatusEntry{
		OrderID: 1, Status: domain.StatusPending, Timestamp: now.Add(time.Second),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestAppendStatusExceptionalStatesFromAnywhere(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.AppendStatus(ctx, domain.StatusEntry{
		OrderID: 1, Status: domain.StatusPending, Timestamp: now,
	}))
	require.NoError(t, s.AppendStatus(ctx, domain.StatusEntry{
		OrderID: 1, Status: domain.StatusDelayed, Timestamp: now.Add(time.Second),
	}))
	require.NoError(t, s.AppendStatus(ctx, domain.StatusEntry{
		OrderID: 1, Status: domain.StatusCancelled, Timestamp: now.Add(2 * time.Second),
	}))

	// Terminal: nothing may follow cancelled.
	err := s.AppendStatus(ctx, domain.StatusEntry{
		OrderID: 1, Status: domain.StatusDelayed, Timestamp: now.Add(3 * time.Second),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestCurrentStatusLatestTimestampWins(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.AppendStatus(ctx, domain.StatusEntry{
		OrderID: 1, Status: domain.StatusPending, Timestamp: now,
	}))
	require.NoError(t, s.AppendStatus(ctx, domain.StatusEntry{
		OrderID: 1, Status: domain.StatusInTransit, Timestamp: now.Add(time.Second),
	}))

	cur, err := s.CurrentStatus(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInTransit, cur.Status)
}

func TestCurrentStatusTieBrokenByInsertionOrder(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.AppendStatus(ctx, domain.StatusEntry{
		OrderID: 1, Status: domain.StatusPending, Timestamp: now,
	}))
	// Same timestamp: the later insertion defines the current status.
	require.NoError(t, s.AppendStatus(ctx, domain.StatusEntry{
		OrderID: 1, Status: domain.StatusCancelled, Timestamp: now,
	}))

	cur, err := s.CurrentStatus(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, cur.Status)
}

func TestCurrentStatusNoHistory(t *testing.T) {
	s := New()
	_, err := s.CurrentStatus(context.Background(), 9)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestAppendStatusConcurrentFirstAppend(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Now()

	// Appends for an order with no history yet must still serialize:
	// of N racing initial pending entries exactly one lands.
	const n = 16
	errs := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.AppendStatus(ctx, domain.StatusEntry{
				OrderID:   1,
				Status:    domain.StatusPending,
				Timestamp: now,
			})
		}()
	}
	wg.Wait()
	close(errs)

	var ok, rejected int
	for err := range errs {
		if err == nil {
			ok++
		} else {
			require.ErrorIs(t, err, domain.ErrInvalidTransition)
			rejected++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, rejected)

	history, err := s.History(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}
