package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dragoner91/ordertrack/internal/broker"
	natsbroker "github.com/Dragoner91/ordertrack/internal/broker/nats"
	"github.com/Dragoner91/ordertrack/internal/config"
	"github.com/Dragoner91/ordertrack/internal/consumer"
	"github.com/Dragoner91/ordertrack/internal/events"
	"github.com/Dragoner91/ordertrack/internal/httpclient"
	"github.com/Dragoner91/ordertrack/internal/logging"
	"github.com/Dragoner91/ordertrack/internal/metrics"
	"github.com/Dragoner91/ordertrack/internal/scheduler"
	"github.com/Dragoner91/ordertrack/internal/server"
	"github.com/Dragoner91/ordertrack/internal/store"
	"github.com/Dragoner91/ordertrack/internal/store/memory"
	"github.com/Dragoner91/ordertrack/internal/store/postgres"
	"github.com/Dragoner91/ordertrack/internal/webhook"
)

func main() {
	logging.Init()
	metrics.Register()

	cfg, err := config.Load("")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		orders   store.OrderStore
		statuses store.StatusStore
	)
	if cfg.PostgresDSN != "" {
		db, err := postgres.New(ctx, cfg.PostgresDSN)
		if err != nil {
			slog.Error("failed to connect to postgres", slog.Any("error", err))
			os.Exit(1)
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			slog.Error("failed to run migrations", slog.Any("error", err))
			os.Exit(1)
		}
		orders = postgres.NewOrderStore(db)
		statuses = postgres.NewStatusStore(db)
		slog.Info("using postgres store")
	} else {
		st := memory.New()
		orders = st
		statuses = st
		slog.Info("using in-memory store")
	}

	dispatcher := webhook.NewDispatcher(
		httpclient.New(10*time.Second),
		cfg.WebhookURL,
		cfg.WebhookSecret,
	)

	sched := scheduler.New(statuses, dispatcher, cfg.TransitionDelay, cfg.DelayedPolicy)
	defer sched.Stop()

	// A broker outage should not take the HTTP surface down with it:
	// orders can still be created and webhooks still fan out, only the
	// automatic progression is lost.
	var pub broker.Publisher
	if nc, err := natsbroker.New(ctx, cfg.NATSURL); err != nil {
		slog.Warn("broker unavailable, automatic progression disabled",
			slog.String("code", "BROKER_ERROR"),
			slog.Any("error", err),
		)
	} else {
		defer nc.Close()
		pub = nc

		jsc, err := nc.Consumer(ctx)
		if err != nil {
			slog.Error("failed to create stream consumer", slog.Any("error", err))
			os.Exit(1)
		}
		cons := consumer.New(jsc, sched)
		go func() {
			if err := cons.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("consumer stopped", slog.Any("error", err))
			}
		}()
	}

	hub := events.NewHub(cfg.HeartbeatInterval)
	go hub.Run(ctx)

	receiver := webhook.NewReceiver(hub, cfg.WebhookSecret)
	srv := server.New(hub, receiver, orders, statuses, pub)

	go func() {
		slog.Info("http server listening", slog.String("addr", cfg.HTTPAddr))
		if err := srv.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown failed", slog.Any("error", err))
	}
}
