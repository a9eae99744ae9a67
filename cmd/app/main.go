package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prostak402/csmrashireniye/internal/app"
	"github.com/prostak402/csmrashireniye/internal/engine"
	"github.com/prostak402/csmrashireniye/internal/infra"
	"github.com/prostak402/csmrashireniye/internal/infra/marketfeed"
	"github.com/prostak402/csmrashireniye/internal/infra/surface"
	"github.com/prostak402/csmrashireniye/internal/notify"
	"github.com/prostak402/csmrashireniye/internal/service"

	_ "net/http/pprof" // For pprof profiling
)

func main() {
	// 1. Pprof Server (for performance profiling)
	go func() {
		// Localhost only for security
		slog.Info("🕵️ Pprof server started on localhost:6060")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			slog.Error("Pprof server failed", slog.Any("error", err))
		}
	}()

	// 2. System Bootstrapping
	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(); err != nil {
		slog.Error("❌ Bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}
	cfg := bootstrap.Config

	// 3. Graceful Shutdown Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Settings Service (derived snapshot over the raw store)
	settingsSvc, err := service.NewSettingsService(bootstrap.Storage)
	if err != nil {
		slog.Error("❌ Failed to load settings", slog.Any("error", err))
		os.Exit(1)
	}
	settingsSvc.Start(ctx)
	slog.InfoContext(ctx, "✅ Settings service started")

	// 5. Market Feed + Price Reconciler
	feed := marketfeed.NewClient(
		cfg.Feed.PricesURL,
		cfg.Feed.OrdersURL,
		func() string { return settingsSvc.Current().APIKey },
		cfg.Feed.RateLimitRPS,
	)
	priceSvc := service.NewPriceService(feed, settingsSvc.Current, cfg.Feed.Currency)
	priceSvc.Start(ctx, time.Duration(cfg.Refresh.ForcedIntervalMin)*time.Minute)
	slog.InfoContext(ctx, "✅ Price reconciler started",
		slog.Int("forced_refresh_min", cfg.Refresh.ForcedIntervalMin))

	// 6. Notification Channels
	var senders []notify.Sender
	if cfg.Notify.Telegram.BotToken != "" && cfg.Notify.Telegram.ChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.Telegram.BotToken, cfg.Notify.Telegram.ChatID))
	} else {
		senders = append(senders, notify.NewLogSender(slog.Default()))
	}
	notifier := notify.NewDispatcher(senders, slog.Default())

	// 7. Surface Hub + Engine. The hub's inbound commands close over the
	// scheduler, which is created after the hub, hence the indirection.
	var sched *engine.Scheduler
	hub := surface.NewHub(slog.Default(), surface.Commands{
		OnToggleAuto: func() {
			if sched != nil {
				sched.Toggle()
			}
		},
		OnForceRefresh: func() {
			if sched != nil {
				sched.ForceRefresh()
			}
		},
		OnCompareBatch: func() {
			if sched != nil {
				sched.RequestCycle()
			}
		},
		OnUpdateSettings: func(partial map[string]string) {
			if err := settingsSvc.Update(partial); err != nil {
				slog.Error("Settings update failed", slog.Any("error", err))
			}
		},
	})

	jitter := func() time.Duration {
		s := settingsSvc.Current()
		return engine.RandDelay(s.AutoRandomMin, s.AutoRandomMax)
	}
	purchaser := engine.NewPurchaser(hub, notifier, jitter, engine.PurchaseTuning{})
	comparator := engine.NewComparator(priceSvc, settingsSvc.Current)

	sched = engine.NewScheduler(engine.SchedulerDeps{
		Comparator:     comparator,
		Surface:        hub,
		Purchaser:      purchaser,
		Notifier:       notifier,
		Icons:          bootstrap.Icons,
		Prices:         priceSvc,
		Settings:       settingsSvc.Current,
		UpdateSettings: settingsSvc.Update,
	})
	settingsSvc.OnChange(sched.ApplySettings)
	go sched.Run(ctx)
	slog.InfoContext(ctx, "✅ Scheduler started", slog.String("phase", sched.Phase().String()))

	// 8. HTTP Server (surface websocket + metrics)
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.HandleWS)
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(infra.GlobalMetrics.Snapshot())
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	server := &http.Server{
		Addr:    cfg.Server.ListenAddr,
		Handler: mux,
	}
	go func() {
		slog.Info("✅ HTTP server listening", slog.String("addr", cfg.Server.ListenAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server failed", slog.Any("error", err))
			stop()
		}
	}()

	slog.InfoContext(ctx, "✨ Arbitrage engine fully operational. Press Ctrl+C to exit.")

	// Wait for shutdown signal
	<-ctx.Done()

	slog.InfoContext(ctx, "👋 Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown failed", slog.Any("error", err))
	}
	if err := bootstrap.Storage.Close(); err != nil {
		slog.Error("Storage close failed", slog.Any("error", err))
	}
}
