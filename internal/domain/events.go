package domain

import (
	"strconv"
	"time"
)

// EventOrderStatusUpdated is the webhook event name for status changes.
const EventOrderStatusUpdated = "order.status.updated"

// CreatedOrderEvent is the broker message published once when an order is
// created and consumed exactly once by the event consumer. Not persisted.
type CreatedOrderEvent struct {
	OrderID       int64  `json:"order_id"`
	InitialStatus Status `json:"initial_status"`
}

// StatusUpdateNotification is the snapshot carried by a webhook and fanned
// out to subscribers. It references the order by ID only.
type StatusUpdateNotification struct {
	OrderID   string    `json:"orderId"`
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Note      string    `json:"note,omitempty"`
}

// NewStatusUpdateNotification builds a notification from an applied entry.
func NewStatusUpdateNotification(entry StatusEntry) StatusUpdateNotification {
	return StatusUpdateNotification{
		OrderID:   strconv.FormatInt(entry.OrderID, 10),
		Status:    entry.Status,
		Timestamp: entry.Timestamp,
		Note:      entry.Note,
	}
}

// WebhookEnvelope is the body of an outbound status webhook. The signature
// travels in the x-webhook-signature header, computed over the raw body.
type WebhookEnvelope struct {
	Event     string                   `json:"event"`
	Data      StatusUpdateNotification `json:"data"`
	Timestamp time.Time                `json:"timestamp"`
}
