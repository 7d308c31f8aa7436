package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"f0oster/schemadesk/config"
	"f0oster/schemadesk/engine"
	"f0oster/schemadesk/history"
	"f0oster/schemadesk/operation"
	"f0oster/schemadesk/plan"
	"f0oster/schemadesk/replicator"
	"f0oster/schemadesk/storage"
)

func main() {
	configName := flag.String("config", "settings.env", "Path to the dotenv configuration file")
	planPath := flag.String("plan", "", "Path to a JSON plan file (an array of operations)")
	apply := flag.Bool("apply", false, "Apply the plan instead of previewing (remote mode)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if *planPath == "" {
		fmt.Fprintln(os.Stderr, "usage: schemadesk -plan plan.json [-apply] [-config settings.env]")
		os.Exit(2)
	}

	cfg, err := config.LoadEnvConfig(*configName)
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	planData, err := os.ReadFile(*planPath)
	if err != nil {
		logger.Error("failed to read plan file", "path", *planPath, "error", err)
		os.Exit(1)
	}
	ops, err := operation.DecodePlan(planData)
	if err != nil {
		logger.Error("failed to decode plan", "error", err)
		os.Exit(1)
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

	executor := plan.NewExecutor(eng, remote, logger)
	report, err := executor.Run(ctx, ops, *apply)
	if err != nil {
		logger.Error("plan execution failed", "error", err)
		os.Exit(1)
	}

	out, _ := json.MarshalIndent(report, "", "  ")
	fmt.Println(string(out))

	if report.Failed {
		os.Exit(1)
	}
	if report.PendingConfirmation {
		logger.Info("preview only: resubmit with -apply to commit")
	}
}
