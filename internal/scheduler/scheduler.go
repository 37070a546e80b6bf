package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/Dragoner91/ordertrack/internal/config"
	"github.com/Dragoner91/ordertrack/internal/domain"
	"github.com/Dragoner91/ordertrack/internal/logging"
	"github.com/Dragoner91/ordertrack/internal/metrics"
	"github.com/Dragoner91/ordertrack/internal/store"
)

// Notifier receives every transition the scheduler applies.
// *webhook.Dispatcher is the production implementation.
type Notifier interface {
	Dispatch(ctx context.Context, entry domain.StatusEntry)
}

// transitionStep is one deferred action: a guard over the order's current
// status and the status to append when the guard holds.
type transitionStep struct {
	guard func(domain.Status) bool
	next  domain.Status
	note  string
}

// Scheduler simulates order progress toward delivery. For every created
// order it arms two timers, at delay and 2*delay; each re-reads the
// persisted current status when it fires and applies its transition only
// if the precondition still holds. The guard is the only idempotency
// safeguard: duplicate events arm redundant timers whose guards observe
// the already-updated status and no-op.
type Scheduler struct {
	statuses store.StatusStore
	notifier Notifier
	delay    time.Duration
	policy   config.DelayedPolicy

	mu      sync.Mutex
	stopped bool
	timers  map[*time.Timer]struct{}
}

func New(statuses store.StatusStore, notifier Notifier, delay time.Duration, policy config.DelayedPolicy) *Scheduler {
	return &Scheduler{
		statuses: statuses,
		notifier: notifier,
		delay:    delay,
		policy:   policy,
		timers:   make(map[*time.Timer]struct{}),
	}
}

// Schedule arms the two deferred transitions for a newly created order.
// Never blocks: the work happens on timer goroutines.
func (s *Scheduler) Schedule(ev domain.CreatedOrderEvent) {
	s.arm(ev.OrderID, s.delay, transitionStep{
		guard: s.pendingGuard,
		next:  domain.StatusInTransit,
	})
	s.arm(ev.OrderID, 2*s.delay, transitionStep{
		guard: func(cur domain.Status) bool { return cur == domain.StatusInTransit },
		next:  domain.StatusDelivered,
	})
}

// pendingGuard admits the first transition. Under the resume policy an
// order parked in delayed may still progress; under halt it may not.
func (s *Scheduler) pendingGuard(cur domain.Status) bool {
	if cur == domain.StatusPending {
		return true
	}
	return s.policy == config.DelayedResume && cur == domain.StatusDelayed
}

func (s *Scheduler) arm(orderID int64, after time.Duration, step transitionStep) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}

	var tm *time.Timer
	tm = time.AfterFunc(after, func() {
		s.fire(orderID, step)
		s.mu.Lock()
		delete(s.timers, tm)
		s.mu.Unlock()
	})
	s.timers[tm] = struct{}{}
}

func (s *Scheduler) fire(orderID int64, step transitionStep) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ctx = logging.WithOrderID(ctx, orderID)
	l := logging.FromContext(ctx)

	cur, err := s.statuses.CurrentStatus(ctx, orderID)
	if err != nil {
		l.Error("failed to read current status, transition abandoned",
			slog.String("code", "TRX_ERROR"),
			slog.Any("error", err),
		)
		return
	}

	if !step.guard(cur.Status) {
		metrics.TransitionsSkippedTotal.Inc()
		l.Info("transition skipped, precondition no longer holds",
			slog.String("code", "TRX_SKIPPED"),
			slog.String("current", cur.Status.String()),
			slog.String("wanted", step.next.String()),
		)
		return
	}

	entry := domain.StatusEntry{
		OrderID:   orderID,
		Status:    step.next,
		Timestamp: time.Now(),
		Note:      step.note,
	}

	if err := s.statuses.AppendStatus(ctx, entry); err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			// Another writer got there between the read and the append.
			metrics.TransitionsSkippedTotal.Inc()
			l.Info("transition skipped, lost the race to a concurrent writer",
				slog.String("code", "TRX_SKIPPED"),
				slog.Any("error", err),
			)
			return
		}
		// No retry, no dead-letter.
		l.Error("failed to append status, transition abandoned",
			slog.String("code", "TRX_ERROR"),
			slog.Any("error", err),
		)
		return
	}

	metrics.TransitionsAppliedTotal.Inc()
	l.Info("transition applied",
		slog.String("code", "TRX_APPLIED"),
		slog.String("from", cur.Status.String()),
		slog.String("to", step.next.String()),
	)

	s.notifier.Dispatch(ctx, entry)
}

// Stop cancels timers that have not fired and rejects new schedules.
// A timer already firing is not interrupted; its guard still applies.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for tm := range s.timers {
		tm.Stop()
	}
	s.timers = make(map[*time.Timer]struct{})
}

// PendingTimers reports how many deferred actions are armed.
func (s *Scheduler) PendingTimers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}
