package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Dragoner91/ordertrack/internal/domain"
	"github.com/Dragoner91/ordertrack/internal/events"
	"github.com/Dragoner91/ordertrack/internal/retry"
)

// State is the connection lifecycle state of the subscriber client.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnectScheduled
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnectScheduled:
		return "reconnect-scheduled"
	default:
		return "unknown"
	}
}

type Options struct {
	// URL of the live-update stream endpoint.
	URL string
	// Backoff between reconnect attempts; nil uses retry.DefaultBackoff.
	Backoff *retry.Backoff
	// MaxAttempts bounds consecutive failed reconnects. Zero means 5.
	MaxAttempts int
	// HTTPClient must have no overall timeout: the stream is long-lived.
	HTTPClient *http.Client

	OnUpdate           func(domain.StatusUpdateNotification)
	OnConnectionChange func(connected bool)
}

// Client maintains one live connection to the update stream and recovers
// from transient disconnects with capped exponential backoff. After
// MaxAttempts consecutive failures it stays disconnected until Reconnect
// is called; a successful connect resets the attempt counter.
type Client struct {
	url          string
	httpc        *http.Client
	backoff      *retry.Backoff
	maxAttempts  int
	onUpdate     func(domain.StatusUpdateNotification)
	onConnChange func(bool)

	mu       sync.Mutex
	state    State
	attempts int
	gen      int
	cancel   context.CancelFunc
	timer    *time.Timer
}

func New(opts Options) *Client {
	backoff := opts.Backoff
	if backoff == nil {
		backoff = retry.DefaultBackoff()
	}
	maxAttempts := opts.MaxAttempts
	if maxAttempts == 0 {
		maxAttempts = 5
	}
	httpc := opts.HTTPClient
	if httpc == nil {
		httpc = &http.Client{}
	}
	return &Client{
		url:          opts.URL,
		httpc:        httpc,
		backoff:      backoff,
		maxAttempts:  maxAttempts,
		onUpdate:     opts.OnUpdate,
		onConnChange: opts.OnConnectionChange,
	}
}

// Connect starts the connection loop. No-op when already running.
func (c *Client) Connect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateDisconnected {
		return
	}
	c.startStreamLocked()
}

// Disconnect tears the connection down synchronously and stops any
// scheduled reconnect. The client stays disconnected until Connect or
// Reconnect is called.
func (c *Client) Disconnect() {
	c.mu.Lock()
	wasConnected := c.state == StateConnected
	c.teardownLocked()
	c.state = StateDisconnected
	c.mu.Unlock()

	if wasConnected {
		c.notifyConnection(false)
	}
}

// Reconnect forcibly tears down any existing connection, resets the
// attempt counter and connects again.
func (c *Client) Reconnect() {
	c.mu.Lock()
	wasConnected := c.state == StateConnected
	c.teardownLocked()
	c.attempts = 0
	c.startStreamLocked()
	c.mu.Unlock()

	if wasConnected {
		c.notifyConnection(false)
	}
}

func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Attempts reports consecutive failed connection attempts.
func (c *Client) Attempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
}

// teardownLocked invalidates the running stream goroutine and any armed
// reconnect timer. Later callbacks from the old generation are ignored.
func (c *Client) teardownLocked() {
	c.gen++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Client) startStreamLocked() {
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.state = StateConnecting
	gen := c.gen
	go c.stream(ctx, gen)
}

func (c *Client) stream(ctx context.Context, gen int) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		c.streamFailed(gen)
		return
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.httpc.Do(req)
	if err != nil {
		c.streamFailed(gen)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.streamFailed(gen)
		return
	}

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.state = StateConnected
	c.attempts = 0
	c.mu.Unlock()
	c.notifyConnection(true)

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		c.dispatch(strings.TrimPrefix(line, "data: "))
	}

	// EOF or read error: the stream is gone.
	c.streamFailed(gen)
}

func (c *Client) dispatch(data string) {
	var msg events.Message
	if err := json.Unmarshal([]byte(data), &msg); err != nil {
		slog.Warn("dropping unparseable stream message", slog.String("code", "SSE_MALFORMED"), slog.Any("error", err))
		return
	}

	switch msg.Type {
	case events.TypeOrderUpdate:
		if msg.Payload != nil && c.onUpdate != nil {
			c.onUpdate(*msg.Payload)
		}
	case events.TypeConnection:
		slog.Info("stream connection established", slog.String("code", "SSE_GREETING"), slog.String("message", msg.Message))
	case events.TypePing:
		// Keepalive only.
	default:
		slog.Info("unknown stream message type", slog.String("type", msg.Type))
	}
}

// streamFailed handles an error on the current stream: it surfaces the
// disconnect and schedules the next attempt with exponential backoff.
func (c *Client) streamFailed(gen int) {
	c.mu.Lock()
	if gen != c.gen {
		// Torn down on purpose; not an error.
		c.mu.Unlock()
		return
	}

	wasConnected := c.state == StateConnected

	if c.attempts >= c.maxAttempts {
		c.state = StateDisconnected
		c.mu.Unlock()
		if wasConnected {
			c.notifyConnection(false)
		}
		slog.Warn("giving up on stream after max reconnect attempts",
			slog.String("code", "SSE_GIVEUP"),
			slog.Int("attempts", c.maxAttempts),
		)
		return
	}

	delay := c.backoff.NextDelay(c.attempts)
	c.attempts++
	c.state = StateReconnectScheduled
	c.timer = time.AfterFunc(delay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if gen != c.gen || c.state != StateReconnectScheduled {
			return
		}
		c.startStreamLocked()
	})
	attempt := c.attempts
	c.mu.Unlock()

	if wasConnected {
		c.notifyConnection(false)
	}
	slog.Info(fmt.Sprintf("reconnecting in %v", delay),
		slog.String("code", "SSE_RECONNECT"),
		slog.Int("attempt", attempt),
		slog.Int("maxAttempts", c.maxAttempts),
	)
}

func (c *Client) notifyConnection(connected bool) {
	if c.onConnChange != nil {
		c.onConnChange(connected)
	}
}
