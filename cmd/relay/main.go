package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gpt-signal-relay/internal/command"
	"gpt-signal-relay/internal/interfaces"
	"gpt-signal-relay/internal/journal"
	"gpt-signal-relay/internal/logger"
	"gpt-signal-relay/internal/notify"
	"gpt-signal-relay/internal/server"
	"gpt-signal-relay/internal/trace"
)

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

func main() {
	must(initializeSystem())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := loadConfig(ctx)
	must(err)

	compressOldLogs(ctx)

	ledger, err := journal.NewSQLite(cfg.Journal.Path)
	must(err)
	defer ledger.Close()

	var notifier interfaces.Notifier
	if token := os.Getenv("BOT_TOKEN"); token != "" {
		tg, err := notify.NewTelegram(token)
		must(err)
		notifier = tg
	} else {
		logger.Warn(ctx, "BOT_TOKEN not set - signal forwarding disabled")
		notifier = notify.NewDisabled()
	}

	g := initializeGuard(cfg)
	market := initializeMarketData(cfg)
	newsSvc := initializeNews(ctx, cfg)
	decider := initializeDecider(ctx, cfg)
	pipe := initializePipeline(cfg, g, market, newsSvc, decider, ledger, notifier)
	commands := command.NewHandler(ledger, g)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: server.New(cfg, pipe, ledger, commands, notifier).Router(),
	}

	go func() {
		logger.Info(ctx, "Relay started", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc

	logger.Info(ctx, "Shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorWithErr(ctx, "HTTP shutdown failed", err)
	}
	if err := trace.Shutdown(shutdownCtx); err != nil {
		logger.Warn(ctx, "Tracer shutdown failed", "error", err)
	}
}
