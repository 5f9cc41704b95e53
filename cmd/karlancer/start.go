package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/czmobin/karlancer/internal/config"
	"github.com/czmobin/karlancer/internal/notifier"
	"github.com/czmobin/karlancer/internal/scheduler"
	"github.com/czmobin/karlancer/internal/store"
)

var (
	startInterval   time.Duration
	startAutoSubmit bool
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the polling daemon",
	Long:  "Start the scheduler daemon; blocks until SIGINT/SIGTERM.",
	RunE:  runStart,
}

func init() {
	startCmd.Flags().DurationVar(&startInterval, "interval", 0, "override the poll interval from config")
	startCmd.Flags().BoolVar(&startAutoSubmit, "auto-submit", false, "override auto_submit from config")
	rootCmd.AddCommand(startCmd)
}

// applyStartFlags overlays explicitly-set start flags onto the loaded config.
func applyStartFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("interval") {
		cfg.PollInterval = startInterval
	}
	if cmd.Flags().Changed("auto-submit") {
		cfg.AutoSubmit = startAutoSubmit
	}
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		setupLogger(debug, os.Stdout).Error("failed to load config", "error", err)
		os.Exit(1)
	}
	applyStartFlags(cmd, cfg)

	logFile, err := openLogFile(cfg.DataDir)
	if err != nil {
		setupLogger(debug, os.Stdout).Error("failed to open log file", "error", err)
		os.Exit(1)
	}
	defer logFile.Close()
	logger := setupLogger(debug, io.MultiWriter(os.Stdout, logFile))

	logger.Info("config loaded",
		"interval", cfg.PollInterval.String(),
		"query", cfg.Query,
		"auto_submit", cfg.AutoSubmit,
		"strict_mode", cfg.StrictMode,
		"data_dir", cfg.DataDir,
	)

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

	if err := n.Send(notifier.Startup(cfg.PollInterval, cfg.AutoSubmit, cfg.StrictMode)); err != nil {
		logger.Warn("startup notification failed", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched := scheduler.NewScheduler(p, cfg.PollInterval, db, n, logger)
	if err := sched.Run(ctx); err != nil {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}

	logger.Info("goodbye")
	return nil
}
