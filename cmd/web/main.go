package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"f0oster/schemadesk/config"
	"f0oster/schemadesk/engine"
	"f0oster/schemadesk/history"
	"f0oster/schemadesk/replicator"
	"f0oster/schemadesk/storage"
	"f0oster/schemadesk/web"
)

func main() {
	configName := flag.String("config", "settings.env", "Path to the dotenv configuration file")
	addr := flag.String("addr", "", "Listen address (overrides SCHEMADESK_LISTEN_ADDR)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.LoadEnvConfig(*configName)
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.ListenAddr = *addr
	}

	ctx := context.Background()

	historyStore, err := history.OpenBolt(cfg.HistoryPath)
	if err != nil {
		logger.Error("failed to open history store", "error", err)
		os.Exit(1)
	}
	defer historyStore.Close()

	var remote storage.Replicator
	if cfg.DatabaseDSN != "" {
		pg, err := replicator.Connect(ctx, cfg.DatabaseDSN)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pg.Close()
		remote = pg
	}

	eng := engine.New(storage.NewDocumentStore(cfg.DocumentPath), historyStore, logger)
	if err := eng.Load(ctx, remote); err != nil {
		logger.Error("failed to load workspace", "error", err)
		os.Exit(1)
	}

	server := web.NewServer(eng, remote, historyStore, cfg.ListenAddr, logger)
	logger.Info("starting web interface", "addr", cfg.ListenAddr)
	if err := server.Start(); err != nil {
		logger.Error("web server error", "error", err)
		os.Exit(1)
	}
}
