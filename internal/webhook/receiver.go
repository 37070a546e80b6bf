package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dragoner91/ordertrack/internal/domain"
	"github.com/Dragoner91/ordertrack/internal/events"
	"github.com/Dragoner91/ordertrack/internal/security"
)

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrMalformedPayload = errors.New("malformed webhook payload")
)

// Receiver is the inbound half of the webhook hop: it checks the body
// signature when one is carried, validates the payload shape and
// forwards the notification to the broadcast hub. An unsigned request
// is accepted even with a secret configured; only a signature that is
// present and wrong is rejected.
type Receiver struct {
	hub    *events.Hub
	secret string
}

func NewReceiver(hub *events.Hub, secret string) *Receiver {
	return &Receiver{
		hub:    hub,
		secret: secret,
	}
}

// Process handles one raw webhook body. On success the carried
// notification has been handed to the hub.
func (r *Receiver) Process(body []byte, signature string) (*domain.StatusUpdateNotification, error) {
	if !security.Verify(r.secret, body, signature) {
		return nil, ErrInvalidSignature
	}

	var envelope domain.WebhookEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	if envelope.Event == "" || envelope.Data.OrderID == "" || envelope.Data.Status == "" {
		return nil, fmt.Errorf("%w: event, data.orderId and data.status are required", ErrMalformedPayload)
	}

	slog.Info("webhook received",
		slog.String("code", "WH_RECEIVED"),
		slog.String("event", envelope.Event),
		slog.String("orderId", envelope.Data.OrderID),
		slog.String("status", envelope.Data.Status.String()),
	)

	r.hub.BroadcastUpdate(envelope.Data)
	return &envelope.Data, nil
}
