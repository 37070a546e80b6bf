package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// handleOrderUpdates serves the live-update stream. One hub subscription
// per request; the subscription is removed synchronously before the
// handler returns, so no later broadcast targets this connection.
func (s *Server) handleOrderUpdates(c echo.Context) error {
	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache, no-transform")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	sub := s.hub.Subscribe()
	defer s.hub.Unsubscribe(sub.ID)

	slog.Info("stream subscriber connected",
		slog.String("code", "SSE_CONNECT"),
		slog.String("subscriber_id", sub.ID),
	)
	defer slog.Info("stream subscriber disconnected",
		slog.String("code", "SSE_DISCONNECT"),
		slog.String("subscriber_id", sub.ID),
	)

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-sub.Events:
			if !ok {
				// Evicted by the hub.
				return nil
			}
			data, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
				return nil
			}
			w.Flush()
		}
	}
}
