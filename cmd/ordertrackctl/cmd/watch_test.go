package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Dragoner91/ordertrack/internal/domain"
	"github.com/Dragoner91/ordertrack/internal/events"
)

// notifyWriter collects output and signals each completed line.
type notifyWriter struct {
	mu    sync.Mutex
	buf   strings.Builder
	lines chan string
}

func newNotifyWriter() *notifyWriter {
	return &notifyWriter{lines: make(chan string, 16)}
}

func (w *notifyWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf.Write(p)
	for {
		s := w.buf.String()
		i := strings.IndexByte(s, '\n')
		if i < 0 {
			break
		}
		w.lines <- s[:i]
		w.buf.Reset()
		w.buf.WriteString(s[i+1:])
	}
	return len(p), nil
}

func sseHandler(t *testing.T, updates []domain.StatusUpdateNotification) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		flusher := w.(http.Flusher)

		write := func(msg events.Message) {
			data, _ := json.Marshal(msg)
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}

		write(events.Message{Type: events.TypeConnection, Timestamp: time.Now()})
		for i := range updates {
			write(events.Message{
				Type:      events.TypeOrderUpdate,
				Payload:   &updates[i],
				Timestamp: time.Now(),
			})
		}
		<-r.Context().Done()
	})
}

func TestWatchPlainPrintsUpdates(t *testing.T) {
	withTestServer(t, sseHandler(t, []domain.StatusUpdateNotification{
		{OrderID: "42", Status: domain.StatusInTransit, Timestamp: time.Now()},
		{OrderID: "42", Status: domain.StatusDelivered, Timestamp: time.Now(), Note: "left at door"},
	}))

	watchOrderID = ""
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	out := newNotifyWriter()
	done := make(chan error, 1)
	go func() { done <- runWatchPlain(ctx, out) }()

	var got []string
	for len(got) < 2 {
		select {
		case line := <-out.lines:
			got = append(got, line)
		case <-ctx.Done():
			t.Fatalf("timed out, got lines: %v", got)
		}
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(got[0], "in_transit") {
		t.Errorf("first line should carry in_transit: %q", got[0])
	}
	if !strings.Contains(got[1], "delivered") || !strings.Contains(got[1], "left at door") {
		t.Errorf("second line should carry delivered with note: %q", got[1])
	}
}

func TestWatchPlainFiltersByOrder(t *testing.T) {
	withTestServer(t, sseHandler(t, []domain.StatusUpdateNotification{
		{OrderID: "1", Status: domain.StatusInTransit, Timestamp: time.Now()},
		{OrderID: "2", Status: domain.StatusDelivered, Timestamp: time.Now()},
	}))

	watchOrderID = "2"
	defer func() { watchOrderID = "" }()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	out := newNotifyWriter()
	done := make(chan error, 1)
	go func() { done <- runWatchPlain(ctx, out) }()

	select {
	case line := <-out.lines:
		if !strings.Contains(line, "order 2") {
			t.Errorf("expected only order 2 in output: %q", line)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for filtered update")
	}
	cancel()
	<-done

	select {
	case line := <-out.lines:
		t.Errorf("unexpected extra line: %q", line)
	default:
	}
}

func TestWatchModelAppendsUpdates(t *testing.T) {
	m := NewWatchModel("")

	upd, _ := m.Update(updateMsg(domain.StatusUpdateNotification{
		OrderID: "7", Status: domain.StatusDelayed, Timestamp: time.Now(),
	}))
	m = upd.(*WatchModel)

	if len(m.updates) != 1 {
		t.Fatalf("expected 1 update, got %d", len(m.updates))
	}
	view := m.View()
	if !strings.Contains(view, "delayed") {
		t.Errorf("view should render the delayed status: %s", view)
	}
}

func TestWatchModelFiltersOtherOrders(t *testing.T) {
	m := NewWatchModel("5")

	upd, _ := m.Update(updateMsg(domain.StatusUpdateNotification{
		OrderID: "6", Status: domain.StatusDelivered, Timestamp: time.Now(),
	}))
	m = upd.(*WatchModel)

	if len(m.updates) != 0 {
		t.Errorf("updates for other orders should be dropped, got %d", len(m.updates))
	}
}
