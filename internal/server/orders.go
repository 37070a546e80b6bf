package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	natsbroker "github.com/Dragoner91/ordertrack/internal/broker/nats"
	"github.com/Dragoner91/ordertrack/internal/domain"
	"github.com/Dragoner91/ordertrack/internal/logging"
)

type createOrderRequest struct {
	ClientID int64   `json:"client_id"`
	Address  string  `json:"address"`
	Total    float64 `json:"total"`
}

type orderResponse struct {
	*domain.Order
	History []domain.StatusEntry `json:"history"`
}

// handleCreateOrder persists a new order, appends the initial pending
// entry and publishes the created event. The publish is fire and forget:
// a broker outage does not fail order creation, it only costs the
// automatic progression.
func (s *Server) handleCreateOrder(c echo.Context) error {
	var req createOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.Address == "" || req.Total < 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "address is required and total must not be negative"})
	}

	ctx := logging.WithRequestID(c.Request().Context(), uuid.New().String())
	l := logging.FromContext(ctx)

	order := &domain.Order{
		ClientID:  req.ClientID,
		Address:   req.Address,
		Total:     req.Total,
		CreatedAt: time.Now(),
	}
	if err := s.orders.Create(ctx, order); err != nil {
		l.Error("failed to create order", slog.String("code", "DB_ERROR"), slog.Any("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to create order"})
	}

	entry := domain.StatusEntry{
		OrderID:   order.ID,
		Status:    domain.StatusPending,
		Timestamp: time.Now(),
	}
	if err := s.statuses.AppendStatus(ctx, entry); err != nil {
		l.Error("failed to append initial status", slog.String("code", "DB_ERROR"), slog.Any("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to record initial status"})
	}

	s.publishCreated(ctx, order.ID)

	return c.JSON(http.StatusCreated, orderResponse{
		Order:   order,
		History: []domain.StatusEntry{entry},
	})
}

func (s *Server) publishCreated(ctx context.Context, orderID int64) {
	if s.pub == nil {
		return
	}
	l := logging.FromContext(logging.WithOrderID(ctx, orderID))

	data, err := json.Marshal(domain.CreatedOrderEvent{
		OrderID:       orderID,
		InitialStatus: domain.StatusPending,
	})
	if err != nil {
		l.Error("failed to marshal created event", slog.String("code", "SYS_ERR"), slog.Any("error", err))
		return
	}

	if err := s.pub.Publish(ctx, natsbroker.SubjectOrderCreated, data); err != nil {
		l.Error("failed to publish created event", slog.String("code", "BROKER_ERROR"), slog.Any("error", err))
		return
	}
	l.Info("order created event published", slog.String("code", "EVT_PUBLISHED"))
}

func (s *Server) handleGetOrder(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid order id"})
	}

	ctx := c.Request().Context()
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to get order"})
	}

	history, err := s.statuses.History(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to get history"})
	}

	return c.JSON(http.StatusOK, orderResponse{Order: order, History: history})
}

func (s *Server) handleListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	orders, err := s.orders.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to list orders"})
	}

	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		history, err := s.statuses.History(ctx, o.ID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to get history"})
		}
		out = append(out, orderResponse{Order: o, History: history})
	}
	return c.JSON(http.StatusOK, out)
}
