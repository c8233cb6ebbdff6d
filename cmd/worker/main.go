package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hourjungle/billingcore/internal/app"
	"github.com/hourjungle/billingcore/pkg/config"
	"github.com/hourjungle/billingcore/pkg/observability"
)

func main() {
	logger := observability.LoggerFromEnv()
	logger.Info("starting billing core worker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		os.Exit(1)
	}
	defer container.Close()

	var wg sync.WaitGroup

	// Daily contract scan
	wg.Add(1)
	go func() {
		defer wg.Done()

		runScan := func() {
			scanCtx := observability.WithCorrelationID(ctx, "")
			result, err := container.Scheduler.ScanAndSchedule(scanCtx, time.Now().UTC())
			if err != nil {
				logger.Error("reminder scan failed", "error", err)
				return
			}
			logger.Info("scheduled reminder scan finished",
				"payment_reminders", result.PaymentReminders,
				"renewal_reminders", result.RenewalReminders,
			)
		}

		runScan()
		ticker := time.NewTicker(cfg.ScanInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runScan()
			}
		}
	}()

	// Due task dispatch
	wg.Add(1)
	go func() {
		defer wg.Done()

		ticker := time.NewTicker(cfg.DispatchInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				dispatchCtx := observability.WithCorrelationID(ctx, "")
				result, err := container.Dispatcher.DispatchDue(dispatchCtx, time.Now().UTC(), cfg.DispatchBatchSize)
				if err != nil {
					logger.Error("reminder dispatch failed", "error", err)
					continue
				}
				if result.Sent > 0 || result.Failed > 0 {
					logger.Info("scheduled reminder dispatch finished",
						"sent", result.Sent,
						"failed", result.Failed,
					)
				}
			}
		}
	}()

	if cfg.WorkerHealthAddr != "" {
		mux := http.NewServeMux()
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{"status": "ok"})
		})
		mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
			checkCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := container.DB.Ping(checkCtx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"status": "not_ready",
					"error":  err.Error(),
				})
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{"status": "ready"})
		})

		healthSrv := &http.Server{
			Addr:              cfg.WorkerHealthAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}

		go func() {
			logger.Info("health server starting", "addr", cfg.WorkerHealthAddr)
			if err := healthSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("health server error", "error", err)
			}
		}()

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := healthSrv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("health server shutdown error", "error", err)
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down worker")
	wg.Wait()
	logger.Info("worker stopped")
}
