// Package main runs a sync queue behind the admin API and the notify
// endpoints. A simulated exam backend rejects writes while the demo is
// offline, so queued answers retry and drain once connectivity returns.
//
// Usage:
//
//	go run ./cmd/syncq-demo
//
// Then in another terminal:
//
//	# Inspect the queue
//	curl http://localhost:8080/v1/queue
//
//	# Go offline, then back online to drain
//	curl -X PUT http://localhost:8080/v1/network -d '{"online":false}'
//	curl -X PUT http://localhost:8080/v1/network -d '{"online":true}'
//
//	# Queue status over RPC
//	curl -X POST http://localhost:8080/syncq/notify/rpc \
//	  -H "Content-Type: application/json" \
//	  -d '{"id":"req-1","type":"request","method":"queue.status","token":"demo-token"}'
//
//	# Watch dropped writes
//	curl -N "http://localhost:8080/syncq/notify/sse?token=demo-token&channel=failures"
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/xraph/forge"

	syncq "github.com/chescoreloaded/SistemaExamenes-sub001"
	"github.com/chescoreloaded/SistemaExamenes-sub001/api"
	"github.com/chescoreloaded/SistemaExamenes-sub001/engine"
	"github.com/chescoreloaded/SistemaExamenes-sub001/notify"
	"github.com/chescoreloaded/SistemaExamenes-sub001/queue"
)

var errOffline = errors.New("backend unreachable")

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	// ──────────────────────────────────────────────────
	// 1. Create the engine
	// ──────────────────────────────────────────────────

	cfg := syncq.DefaultConfig()
	cfg.RetryDelay = 2 * time.Second

	eng, err := engine.New(
		engine.WithConfig(cfg),
		engine.WithLogger(logger),
		engine.WithStreamBroker(),
	)
	if err != nil {
		logger.Error("failed to build engine", slog.String("error", err.Error()))
		os.Exit(1)
	}

	eng.OnFailure(func(f engine.Failure) {
		logger.Warn("write dropped",
			slog.String("item_id", f.ItemID.String()),
			slog.String("name", f.Name),
			slog.Int("retries", f.Retries),
		)
	})

	// ──────────────────────────────────────────────────
	// 2. Simulated exam backend
	// ──────────────────────────────────────────────────

	// The backend follows the engine's connectivity state.
	var reachable atomic.Bool
	reachable.Store(true)
	eng.Monitor().OnChange(func(online bool) { reachable.Store(online) })

	saveAnswer := func(question int, answer string) func(context.Context) error {
		return func(ctx context.Context) error {
			if !reachable.Load() {
				return errOffline
			}
			logger.Info("answer saved", slog.Int("question", question), slog.String("answer", answer))
			return nil
		}
	}

	// ──────────────────────────────────────────────────
	// 3. Set up the notify server and the Forge app
	// ──────────────────────────────────────────────────

	handler := notify.NewHandler(eng, eng.Broker(), logger)
	notifyServer := notify.NewServer(eng.Broker(), handler,
		notify.WithAuth(notify.NewAPIKeyAuthenticator(
			notify.APIKeyEntry{
				Token: "demo-token",
				Identity: notify.Identity{
					Subject: "demo-proctor",
					Scopes:  []string{notify.ScopeAll},
				},
			},
		)),
		notify.WithLogger(logger),
	)

	app := forge.New(
		forge.WithAppName("syncq-demo"),
		forge.WithAppVersion("0.1.0"),
	)
	api.New(eng, app.Router()).RegisterRoutes(app.Router())
	notifyServer.RegisterRoutes(app.Router())

	srv := &http.Server{
		Addr:              ":8080",
		Handler:           app.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// ──────────────────────────────────────────────────
	// 4. Start and run
	// ──────────────────────────────────────────────────

	ctx := context.Background()
	if err := eng.Start(ctx); err != nil {
		logger.Error("failed to start engine", slog.String("error", err.Error()))
		os.Exit(1)
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", slog.String("error", err.Error()))
		}
	}()

	logger.Info("syncq demo running",
		slog.String("api", "http://localhost:8080/v1/queue"),
		slog.String("notify_ws", "ws://localhost:8080"+notifyServer.Path()),
		slog.String("notify_sse", "http://localhost:8080"+notifyServer.Path()+"/sse"),
	)

	// Answer a few questions while offline; they wait in the queue.
	eng.SetOnline(false)
	for q := 1; q <= 3; q++ {
		itemID := eng.Enqueue(saveAnswer(q, fmt.Sprintf("choice-%c", 'a'+q-1)),
			queue.WithName(fmt.Sprintf("save-answer-%d", q)))
		logger.Info("answer queued", slog.String("item_id", itemID.String()))
	}
	// Back online before the head item runs out of attempts.
	time.AfterFunc(3*time.Second, func() { eng.SetOnline(true) })

	// Wait for shutdown signal.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown error", slog.String("error", err.Error()))
	}
	if err := eng.Stop(shutdownCtx); err != nil {
		logger.Error("engine shutdown error", slog.String("error", err.Error()))
	}
	logger.Info("goodbye")
}
