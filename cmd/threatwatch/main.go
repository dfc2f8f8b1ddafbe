package main

import (
	"log/slog"
	"net/http"
	"os"

	"threatwatch/internal/hub"
	"threatwatch/internal/ledger"
	"threatwatch/internal/notify"
	"threatwatch/internal/phishing"
	"threatwatch/internal/pipeline"
	"threatwatch/internal/server"
	"threatwatch/internal/store"
)

func main() {
	cfg := server.LoadConfig()

	var threats store.ThreatStore
	var notifications store.NotificationStore
	if cfg.DataDir != "" {
		b, err := store.OpenBadger(cfg.DataDir)
		if err != nil {
			slog.Error("open store failed", "dir", cfg.DataDir, "err", err)
			os.Exit(1)
		}
		defer b.Close()
		threats, notifications = b, b
	} else {
		m := store.NewMemoryStore()
		threats, notifications = m, m
	}

	h := hub.New()
	defer h.Close()

	logger := ledger.New(ledger.Config{
		Endpoint:        cfg.LedgerEndpoint,
		ContractAddress: cfg.ContractAddress,
		SigningKey:      cfg.SigningKey,
	}, nil)
	notifier := notify.New(notifications, h)
	pipe := pipeline.New(threats, logger, h, notifier)
	scorer := phishing.NewScorer(nil)

	srv := server.New(pipe, scorer, h, notifier, logger)

	go srv.StartMetrics(cfg.MetricsAddr)

	slog.Info("listening", "addr", cfg.HTTPAddr)
	if err := http.ListenAndServe(cfg.HTTPAddr, srv.Router()); err != nil {
		slog.Error("server error", "err", err)
	}
}
