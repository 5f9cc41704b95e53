package notifier

import (
	"log/slog"

	"github.com/czmobin/karlancer/internal/model"
)

// Ensure LogNotifier implements model.Notifier.
var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes status messages to the logger when Telegram is disabled.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Send logs the message. Returns nil (logging does not fail).
func (n *LogNotifier) Send(text string) error {
	n.logger.Info("notification", "text", text)
	return nil
}
