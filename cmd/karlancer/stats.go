package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/czmobin/karlancer/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print run statistics",
	Long:  "Reads the local store and prints lifetime counters.",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	db, err := store.Open(filepath.Join(cfg.DataDir, "karlancer.db"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open store: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	totals, err := db.Totals()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read totals: %v\n", err)
		os.Exit(1)
	}
	seen, err := db.CountSeen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to count seen projects: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("seen projects:   %d\n", seen)
	fmt.Printf("processed:       %d\n", totals.Fetched)
	fmt.Printf("analyzed:        %d\n", totals.Analyzed)
	fmt.Printf("submitted:       %d\n", totals.Submitted)
	fmt.Printf("failed:          %d\n", totals.Failed)
	return nil
}
