package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/czmobin/karlancer/internal/analyze"
	"github.com/czmobin/karlancer/internal/config"
	"github.com/czmobin/karlancer/internal/filter"
	"github.com/czmobin/karlancer/internal/marketplace"
	"github.com/czmobin/karlancer/internal/model"
	"github.com/czmobin/karlancer/internal/notifier"
	"github.com/czmobin/karlancer/internal/poller"
	"github.com/czmobin/karlancer/internal/retry"
	"github.com/czmobin/karlancer/internal/store"
	"github.com/czmobin/karlancer/internal/submit"
)

// Delay between processing consecutive projects within one cycle.
const projectDelay = 2 * time.Second

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "karlancer",
	Short: "Karlancer proposal bot",
	Long:  "Polls Karlancer for new freelance projects, analyzes each one, and submits proposals.",
	// Default to `start` so that `karlancer` with no args runs the daemon.
	// This preserves compatibility with systemd unit files that invoke the binary directly.
	RunE: runStart,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: KARLANCER_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > KARLANCER_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if env := os.Getenv("KARLANCER_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func setupLogger(dbg bool, w io.Writer) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel}))
}

// openLogFile opens the append-only bot log inside the data directory.
func openLogFile(dataDir string) (*os.File, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	return os.OpenFile(filepath.Join(dataDir, "karlancer.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

// acquireInstanceLock takes the exclusive data-dir lock. Only one process may
// mutate the stores at a time; a second writer could race the seen set and
// double-submit a bid. Callers must Unlock the returned lock.
func acquireInstanceLock(dataDir string) (*flock.Flock, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	lock := flock.New(filepath.Join(dataDir, "karlancer.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquiring instance lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("another instance is already running (lock %s)", lock.Path())
	}
	return lock, nil
}

func setupNotifier(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) model.Notifier {
	if cfg.Telegram.Enabled {
		logger.Info("using telegram notifier")
		return notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, httpClient, logger)
	}
	return notifier.NewLogNotifier(logger)
}

func newAPIClient(cfg *config.Config, httpClient *http.Client) *marketplace.Client {
	return marketplace.NewClient(cfg.Marketplace.BaseURL, cfg.Marketplace.BearerToken, cfg.Marketplace.MinGap, httpClient)
}

// buildPoller wires the full processing pipeline around an open store.
func buildPoller(cfg *config.Config, db *store.DB, n model.Notifier, httpClient *http.Client, logger *slog.Logger) (*poller.ProjectPoller, error) {
	client := newAPIClient(cfg, httpClient)
	fetcher := retry.NewFetcher(client, 2, 2*time.Second, logger)

	analyzer, err := analyze.NewInvoker(cfg.Analyzer.Command, cfg.Analyzer.Timeout, cfg.Analyzer.PromptFile, cfg.DataDir, logger)
	if err != nil {
		return nil, fmt.Errorf("setting up analyzer: %w", err)
	}

	techFilter := filter.NewTechFilter(cfg.Filter.TechWhitelist, cfg.Filter.TechBlacklist, cfg.Filter.MinBudget)

	return poller.New(cfg.Query, cfg.AutoSubmit, projectDelay, poller.Deps{
		Fetcher:   fetcher,
		Filter:    techFilter,
		Seen:      db,
		Ledger:    db,
		Analyzer:  analyzer,
		Submitter: submit.NewGateway(client, logger),
		Notifier:  n,
		Logger:    logger,
	}), nil
}
