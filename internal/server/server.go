package server

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Dragoner91/ordertrack/internal/broker"
	"github.com/Dragoner91/ordertrack/internal/events"
	"github.com/Dragoner91/ordertrack/internal/store"
	"github.com/Dragoner91/ordertrack/internal/webhook"
)

// Server is the HTTP surface: the live-update stream, the webhook
// receiver and the thin REST boundary around orders.
type Server struct {
	echo     *echo.Echo
	hub      *events.Hub
	receiver *webhook.Receiver
	orders   store.OrderStore
	statuses store.StatusStore
	pub      broker.Publisher
}

func New(
	hub *events.Hub,
	receiver *webhook.Receiver,
	orders store.OrderStore,
	statuses store.StatusStore,
	pub broker.Publisher,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &Server{
		echo:     e,
		hub:      hub,
		receiver: receiver,
		orders:   orders,
		statuses: statuses,
		pub:      pub,
	}

	e.GET("/api/sse/order-updates", s.handleOrderUpdates)
	e.POST("/api/webhooks/order-status", s.handleWebhook)
	e.GET("/api/webhooks/order-status", s.handleWebhookInfo)
	e.POST("/api/orders", s.handleCreateOrder)
	e.GET("/api/orders", s.handleListOrders)
	e.GET("/api/orders/:id", s.handleGetOrder)
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return s
}

func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Handler exposes the routing tree for httptest servers.
func (s *Server) Handler() http.Handler {
	return s.echo
}
