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

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Yupiglo/yupimall-warehouse-sub000/internal/auth"
	"github.com/Yupiglo/yupimall-warehouse-sub000/internal/cartstore"
	"github.com/Yupiglo/yupimall-warehouse-sub000/internal/checkout"
	"github.com/Yupiglo/yupimall-warehouse-sub000/internal/config"
	"github.com/Yupiglo/yupimall-warehouse-sub000/internal/httpapi"
	"github.com/Yupiglo/yupimall-warehouse-sub000/internal/money"
	"github.com/Yupiglo/yupimall-warehouse-sub000/internal/remote"
	"github.com/Yupiglo/yupimall-warehouse-sub000/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	telemetry.InitLogger(cfg.LogLevel)

	rates, err := money.LoadRatesFile(cfg.RatesPath)
	if err != nil {
		slog.Error("load currency rates", "err", err)
		os.Exit(1)
	}
	display := money.NewDisplayContext(rates)

	tokens := auth.NewTokenSource(auth.RefreshResolver(cfg.AuthRefreshURL, cfg.RefreshToken, nil))
	client := remote.NewClient(cfg.WarehouseAPIURL, tokens)
	store := cartstore.NewStore(client)
	orchestrator := checkout.NewOrchestrator(store, client)

	router := httpapi.NewRouter(httpapi.Deps{
		Store:        store,
		Orchestrator: orchestrator,
		Orders:       client,
		Display:      display,
		Timeout:      cfg.RequestTimeout,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "gateway"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("gateway starting", "port", cfg.HTTPPort, "warehouse_api", cfg.WarehouseAPIURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down gateway")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("forced shutdown", "err", err)
		os.Exit(1)
	}
	slog.Info("gateway stopped")
}
