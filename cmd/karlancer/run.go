package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/czmobin/karlancer/internal/store"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one poll cycle, then exit",
	Long:  "Single-pass mode: fetches the search results once, processes every new project, and exits.",
	RunE:  runOnce,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runOnce(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug, os.Stdout)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// A single pass still submits bids, so it must not run next to the daemon.
	lock, err := acquireInstanceLock(cfg.DataDir)
	if err != nil {
		logger.Error("failed to acquire instance lock", "error", err)
		os.Exit(1)
	}
	defer lock.Unlock()

	db, err := store.Open(filepath.Join(cfg.DataDir, "karlancer.db"))
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	httpClient := &http.Client{Timeout: 30 * time.Second}
	n := setupNotifier(cfg, httpClient, logger)

	p, err := buildPoller(cfg, db, n, httpClient, logger)
	if err != nil {
		logger.Error("failed to build poller", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := p.ProcessCycle(ctx); err != nil {
		logger.Error("poll cycle failed", "error", err)
		os.Exit(1)
	}

	logger.Info("single pass complete")
	return nil
}
