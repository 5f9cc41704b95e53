package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/czmobin/karlancer/internal/model"
)

// Ensure TelegramNotifier implements model.Notifier.
var _ model.Notifier = (*TelegramNotifier)(nil)

const defaultTelegramAPI = "https://api.telegram.org"

// TelegramNotifier relays status messages to a Telegram chat via the bot API.
type TelegramNotifier struct {
	apiBase    string
	botToken   string
	chatID     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewTelegramNotifier returns a notifier posting HTML messages to chatID.
func NewTelegramNotifier(botToken, chatID string, httpClient *http.Client, logger *slog.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		apiBase:    defaultTelegramAPI,
		botToken:   botToken,
		chatID:     chatID,
		httpClient: httpClient,
		logger:     logger,
	}
}

type sendMessagePayload struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

// Send posts one message. A non-200 response is returned as an error; callers
// log it and move on — notification failures are never fatal to the loop.
func (n *TelegramNotifier) Send(text string) error {
	payload := sendMessagePayload{
		ChatID:                n.chatID,
		Text:                  text,
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.apiBase, n.botToken)
	resp, err := n.httpClient.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("post to telegram: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("telegram returned %d: %s", resp.StatusCode, respBody)
	}
	return nil
}

// TestConnection calls getMe and sends a test message. Used by `notify test`.
func (n *TelegramNotifier) TestConnection() error {
	url := fmt.Sprintf("%s/bot%s/getMe", n.apiBase, n.botToken)
	resp, err := n.httpClient.Get(url)
	if err != nil {
		return fmt.Errorf("telegram getMe: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram getMe returned %d", resp.StatusCode)
	}

	var me struct {
		Result struct {
			FirstName string `json:"first_name"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&me); err != nil {
		return fmt.Errorf("parse getMe response: %w", err)
	}

	n.logger.Info("telegram bot reachable", "bot", me.Result.FirstName)
	return n.Send(TestMessage(me.Result.FirstName, n.chatID))
}

// LatestChatID polls getUpdates and returns the chat id of the most recent
// message sent to the bot. Used by `notify chatid` during setup.
func (n *TelegramNotifier) LatestChatID() (int64, error) {
	url := fmt.Sprintf("%s/bot%s/getUpdates", n.apiBase, n.botToken)
	resp, err := n.httpClient.Get(url)
	if err != nil {
		return 0, fmt.Errorf("telegram getUpdates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("telegram getUpdates returned %d", resp.StatusCode)
	}

	var updates struct {
		Result []struct {
			Message struct {
				Chat struct {
					ID int64 `json:"id"`
				} `json:"chat"`
			} `json:"message"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&updates); err != nil {
		return 0, fmt.Errorf("parse getUpdates response: %w", err)
	}

	if len(updates.Result) == 0 {
		return 0, fmt.Errorf("no messages found: send the bot a message first")
	}
	return updates.Result[len(updates.Result)-1].Message.Chat.ID, nil
}
