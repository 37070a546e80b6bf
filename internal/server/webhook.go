package server

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Dragoner91/ordertrack/internal/security"
	"github.com/Dragoner91/ordertrack/internal/webhook"
)

type webhookResponse struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	OrderID   string    `json:"orderId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *Server) handleWebhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "unreadable body"})
	}

	signature := c.Request().Header.Get(security.SignatureHeader)

	n, err := s.receiver.Process(body, signature)
	if err != nil {
		switch {
		case errors.Is(err, webhook.ErrInvalidSignature):
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid signature"})
		case errors.Is(err, webhook.ErrMalformedPayload):
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid payload structure"})
		default:
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		}
	}

	return c.JSON(http.StatusOK, webhookResponse{
		Success:   true,
		Message:   "Webhook processed successfully",
		OrderID:   n.OrderID,
		Timestamp: time.Now(),
	})
}

// handleWebhookInfo answers GET probes against the webhook endpoint.
func (s *Server) handleWebhookInfo(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"message":   "Order status webhook endpoint is active",
		"timestamp": time.Now(),
		"endpoints": map[string]string{
			"webhook": "/api/webhooks/order-status",
			"sse":     "/api/sse/order-updates",
		},
	})
}
