package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/czmobin/karlancer/internal/notifier"
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Notification subcommands",
}

var notifyTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Send a test notification",
	Long:  "Verifies the bot token and sends a test message to the configured chat.",
	RunE:  runNotifyTest,
}

var notifyChatIDCmd = &cobra.Command{
	Use:   "chatid",
	Short: "Discover your Telegram chat ID",
	Long:  "Reads pending bot updates and prints the chat ID of the latest message. Send your bot any message first.",
	RunE:  runNotifyChatID,
}

func init() {
	rootCmd.AddCommand(notifyCmd)
	notifyCmd.AddCommand(notifyTestCmd)
	notifyCmd.AddCommand(notifyChatIDCmd)
}

func runNotifyTest(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug, os.Stdout)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if !cfg.Telegram.Enabled {
		logger.Error("telegram is not enabled in config")
		os.Exit(1)
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}
	n := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, httpClient, logger)

	if err := n.TestConnection(); err != nil {
		logger.Error("test notification failed", "error", err)
		os.Exit(1)
	}
	logger.Info("test notification sent successfully")
	return nil
}

func runNotifyChatID(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug, os.Stdout)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.Telegram.BotToken == "" {
		logger.Error("telegram.bot_token is not set in config")
		os.Exit(1)
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}
	n := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, "", httpClient, logger)

	chatID, err := n.LatestChatID()
	if err != nil {
		logger.Error("failed to read updates", "error", err)
		os.Exit(1)
	}

	fmt.Printf("chat_id: %d\n", chatID)
	fmt.Println("Put this value under telegram.chat_id in your config.")
	return nil
}
