package webhook

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/Dragoner91/ordertrack/internal/domain"
	"github.com/Dragoner91/ordertrack/internal/httpclient"
	"github.com/Dragoner91/ordertrack/internal/logging"
	"github.com/Dragoner91/ordertrack/internal/metrics"
	"github.com/Dragoner91/ordertrack/internal/security"
)

// Dispatcher posts signed status-update webhooks to the configured
// callback URL. Delivery is best effort: one attempt, failures logged
// and dropped. No secret means unsigned requests.
type Dispatcher struct {
	client *httpclient.Client
	url    string
	secret string
}

func NewDispatcher(client *httpclient.Client, url, secret string) *Dispatcher {
	return &Dispatcher{
		client: client,
		url:    url,
		secret: secret,
	}
}

// Dispatch builds the envelope for an applied transition and performs a
// single delivery attempt. The caller does not act on the outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, entry domain.StatusEntry) {
	l := logging.FromContext(logging.WithOrderID(ctx, entry.OrderID))

	envelope := domain.WebhookEnvelope{
		Event:     domain.EventOrderStatusUpdated,
		Data:      domain.NewStatusUpdateNotification(entry),
		Timestamp: time.Now(),
	}

	body, err := json.Marshal(envelope)
	if err != nil {
		l.Error("failed to marshal webhook envelope", slog.String("code", "WH_FAILED"), slog.Any("error", err))
		return
	}

	headers := map[string]string{}
	if d.secret != "" {
		headers[security.SignatureHeader] = security.Sign(d.secret, body)
	}

	resp, err := d.client.Post(ctx, d.url, body, headers)
	if err != nil {
		metrics.WebhooksFailedTotal.Inc()
		l.Warn("webhook delivery failed",
			slog.String("code", "WH_FAILED"),
			slog.String("status", entry.Status.String()),
			slog.Any("error", err),
		)
		return
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.WebhooksFailedTotal.Inc()
		l.Warn("webhook delivery rejected",
			slog.String("code", "WH_FAILED"),
			slog.String("status", entry.Status.String()),
			slog.Int("statusCode", resp.StatusCode),
		)
		return
	}

	metrics.WebhooksDeliveredTotal.Inc()
	l.Info("webhook delivered",
		slog.String("code", "WH_DELIVERED"),
		slog.String("status", entry.Status.String()),
	)
}
