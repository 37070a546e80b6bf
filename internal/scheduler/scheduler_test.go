package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Dragoner91/ordertrack/internal/config"
	"github.com/Dragoner91/ordertrack/internal/domain"
	"github.com/Dragoner91/ordertrack/internal/store/memory"
)

// recordingNotifier implements Notifier for testing.
type recordingNotifier struct {
	mu      sync.Mutex
	entries []domain.StatusEntry
}

func (n *recordingNotifier) Dispatch(ctx context.Context, entry domain.StatusEntry) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.entries = append(n.entries, entry)
}

func (n *recordingNotifier) Entries() []domain.StatusEntry {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]domain.StatusEntry, len(n.entries))
	copy(out, n.entries)
	return out
}

const tick = 50 * time.Millisecond

func seedPending(t *testing.T, s *memory.Store, orderID int64) {
	t.Helper()
	err := s.AppendStatus(context.Background(), domain.StatusEntry{
		OrderID: orderID, Status: domain.StatusPending, Timestamp: time.Now(),
	})
	if err != nil {
		t.Fatal(err)
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestScheduleProgressesToDelivered(t *testing.T) {
	st := memory.New()
	notifier := &recordingNotifier{}
	seedPending(t, st, 1)

	sched := New(st, notifier, tick, config.DelayedHalt)
	defer sched.Stop()
	sched.Schedule(domain.CreatedOrderEvent{OrderID: 1, InitialStatus: domain.StatusPending})

	ok := waitFor(t, 10*tick, func() bool {
		cur, err := st.CurrentStatus(context.Background(), 1)
		return err == nil && cur.Status == domain.StatusDelivered
	})
	if !ok {
		t.Fatal("order never reached delivered")
	}

	history, _ := st.History(context.Background(), 1)
	want := []domain.Status{domain.StatusPending, domain.StatusInTransit, domain.StatusDelivered}
	if len(history) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(history))
	}
	for i, s := range want {
		if history[i].Status != s {
			t.Errorf("entry %d: expected %s, got %s", i, s, history[i].Status)
		}
		if i > 0 && history[i].Timestamp.Before(history[i-1].Timestamp) {
			t.Errorf("entry %d: timestamp went backwards", i)
		}
	}

	// Both applied transitions were handed to the notifier, in order.
	entries := notifier.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(entries))
	}
	if entries[0].Status != domain.StatusInTransit || entries[1].Status != domain.StatusDelivered {
		t.Errorf("unexpected notification order: %s, %s", entries[0].Status, entries[1].Status)
	}
}

func TestDuplicateEventIsIdempotent(t *testing.T) {
	st := memory.New()
	notifier := &recordingNotifier{}
	seedPending(t, st, 1)

	sched := New(st, notifier, tick, config.DelayedHalt)
	defer sched.Stop()

	// Duplicate queue delivery arms redundant timers.
	ev := domain.CreatedOrderEvent{OrderID: 1, InitialStatus: domain.StatusPending}
	sched.Schedule(ev)
	sched.Schedule(ev)

	waitFor(t, 10*tick, func() bool {
		cur, err := st.CurrentStatus(context.Background(), 1)
		return err == nil && cur.Status == domain.StatusDelivered
	})
	// Let the redundant timers fire too.
	waitFor(t, 10*tick, func() bool { return sched.PendingTimers() == 0 })

	history, _ := st.History(context.Background(), 1)
	if len(history) != 3 {
		t.Errorf("expected 3 entries despite duplicate event, got %d", len(history))
	}
	if len(notifier.Entries()) != 2 {
		t.Errorf("expected 2 notifications despite duplicate event, got %d", len(notifier.Entries()))
	}
}

func TestCancelledBeforeDelayHaltsProgression(t *testing.T) {
	st := memory.New()
	notifier := &recordingNotifier{}
	seedPending(t, st, 1)

	sched := New(st, notifier, 4*tick, config.DelayedHalt)
	defer sched.Stop()
	sched.Schedule(domain.CreatedOrderEvent{OrderID: 1, InitialStatus: domain.StatusPending})

	// Operator cancels before the first guard fires.
	err := st.AppendStatus(context.Background(), domain.StatusEntry{
		OrderID: 1, Status: domain.StatusCancelled, Timestamp: time.Now(),
	})
	if err != nil {
		t.Fatal(err)
	}

	waitFor(t, 20*tick, func() bool { return sched.PendingTimers() == 0 })

	cur, err := st.CurrentStatus(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if cur.Status != domain.StatusCancelled {
		t.Errorf("expected cancelled to stick, got %s", cur.Status)
	}
	if len(notifier.Entries()) != 0 {
		t.Errorf("expected no notifications for a cancelled order, got %d", len(notifier.Entries()))
	}
}

func TestDelayedPolicyHalt(t *testing.T) {
	st := memory.New()
	notifier := &recordingNotifier{}
	seedPending(t, st, 1)

	sched := New(st, notifier, 4*tick, config.DelayedHalt)
	defer sched.Stop()
	sched.Schedule(domain.CreatedOrderEvent{OrderID: 1, InitialStatus: domain.StatusPending})

	err := st.AppendStatus(context.Background(), domain.StatusEntry{
		OrderID: 1, Status: domain.StatusDelayed, Timestamp: time.Now(),
	})
	if err != nil {
		t.Fatal(err)
	}

	waitFor(t, 20*tick, func() bool { return sched.PendingTimers() == 0 })

	cur, _ := st.CurrentStatus(context.Background(), 1)
	if cur.Status != domain.StatusDelayed {
		t.Errorf("halt policy: expected delayed to stick, got %s", cur.Status)
	}
}

func TestDelayedPolicyResume(t *testing.T) {
	st := memory.New()
	notifier := &recordingNotifier{}
	seedPending(t, st, 1)

	sched := New(st, notifier, 4*tick, config.DelayedResume)
	defer sched.Stop()
	sched.Schedule(domain.CreatedOrderEvent{OrderID: 1, InitialStatus: domain.StatusPending})

	err := st.AppendStatus(context.Background(), domain.StatusEntry{
		OrderID: 1, Status: domain.StatusDelayed, Timestamp: time.Now(),
	})
	if err != nil {
		t.Fatal(err)
	}

	ok := waitFor(t, 20*tick, func() bool {
		cur, err := st.CurrentStatus(context.Background(), 1)
		return err == nil && cur.Status == domain.StatusDelivered
	})
	if !ok {
		cur, _ := st.CurrentStatus(context.Background(), 1)
		t.Errorf("resume policy: expected delivery to proceed, stuck at %s", cur.Status)
	}
}

func TestMissingOrderIsAbandoned(t *testing.T) {
	st := memory.New()
	notifier := &recordingNotifier{}

	sched := New(st, notifier, tick, config.DelayedHalt)
	defer sched.Stop()
	sched.Schedule(domain.CreatedOrderEvent{OrderID: 99, InitialStatus: domain.StatusPending})

	waitFor(t, 10*tick, func() bool { return sched.PendingTimers() == 0 })

	if len(notifier.Entries()) != 0 {
		t.Errorf("expected no notifications for unknown order, got %d", len(notifier.Entries()))
	}
}

func TestStopCancelsPendingTimers(t *testing.T) {
	st := memory.New()
	notifier := &recordingNotifier{}
	seedPending(t, st, 1)

	sched := New(st, notifier, time.Hour, config.DelayedHalt)
	sched.Schedule(domain.CreatedOrderEvent{OrderID: 1, InitialStatus: domain.StatusPending})

	if sched.PendingTimers() != 2 {
		t.Fatalf("expected 2 armed timers, got %d", sched.PendingTimers())
	}

	sched.Stop()
	if sched.PendingTimers() != 0 {
		t.Errorf("expected no timers after Stop, got %d", sched.PendingTimers())
	}

	// Scheduling after Stop is rejected.
	sched.Schedule(domain.CreatedOrderEvent{OrderID: 2, InitialStatus: domain.StatusPending})
	if sched.PendingTimers() != 0 {
		t.Errorf("expected Schedule after Stop to be a no-op")
	}
}
