package notifier

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/czmobin/karlancer/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestNotifier(apiBase string) *TelegramNotifier {
	n := NewTelegramNotifier("bot-token", "12345", http.DefaultClient, discardLogger())
	n.apiBase = apiBase
	return n
}

func TestSendPayload(t *testing.T) {
	var received sendMessagePayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botbot-token/sendMessage" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decoding payload: %v", err)
		}
		w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	if err := newTestNotifier(srv.URL).Send("<b>سلام</b>"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if received.ChatID != "12345" {
		t.Errorf("chat_id = %q, want 12345", received.ChatID)
	}
	if received.Text != "<b>سلام</b>" {
		t.Errorf("text = %q", received.Text)
	}
	if received.ParseMode != "HTML" || !received.DisableWebPagePreview {
		t.Errorf("payload = %+v", received)
	}
}

func TestSendErrorOnNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok": false, "description": "chat not found"}`))
	}))
	defer srv.Close()

	err := newTestNotifier(srv.URL).Send("hi")
	if err == nil {
		t.Fatal("expected error on HTTP 400")
	}
	if !strings.Contains(err.Error(), "chat not found") {
		t.Errorf("error = %v, want response body", err)
	}
}

func TestLatestChatID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botbot-token/getUpdates" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"ok": true, "result": [
			{"message": {"chat": {"id": 111}}},
			{"message": {"chat": {"id": 98765}}}
		]}`))
	}))
	defer srv.Close()

	id, err := newTestNotifier(srv.URL).LatestChatID()
	if err != nil {
		t.Fatalf("LatestChatID: %v", err)
	}
	if id != 98765 {
		t.Errorf("chat id = %d, want 98765 (latest update)", id)
	}
}

func TestLatestChatIDEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok": true, "result": []}`))
	}))
	defer srv.Close()

	if _, err := newTestNotifier(srv.URL).LatestChatID(); err == nil {
		t.Fatal("expected error when no updates exist")
	}
}

func TestLogNotifierNeverFails(t *testing.T) {
	n := NewLogNotifier(discardLogger())
	if err := n.Send("anything"); err != nil {
		t.Errorf("Send: %v", err)
	}
}

func TestMessageBuilders(t *testing.T) {
	totals := model.Totals{Fetched: 5, Analyzed: 3, Submitted: 2, Failed: 1}

	startup := Startup(5*time.Minute, true, false)
	if !strings.Contains(startup, "300 ثانیه") || !strings.Contains(startup, "✅ فعال") {
		t.Errorf("Startup = %q", startup)
	}

	analyzed := ProjectAnalyzed(42, "ساخت ربات تلگرام", 4, "Take")
	if !strings.Contains(analyzed, "ID: 42") || !strings.Contains(analyzed, "⭐⭐⭐⭐") || !strings.Contains(analyzed, "Take") {
		t.Errorf("ProjectAnalyzed = %q", analyzed)
	}

	summary := CycleSummary(3, totals)
	for _, want := range []string{"#3", "دریافت شده: 5", "تحلیل شده: 3", "ارسال شده: 2", "خطا: 1"} {
		if !strings.Contains(summary, want) {
			t.Errorf("CycleSummary missing %q:\n%s", want, summary)
		}
	}

	long := strings.Repeat("ع", 60)
	rejected := ProjectRejected(7, long, "بودجه کم")
	if !strings.Contains(rejected, strings.Repeat("ع", 50)+"...") {
		t.Error("long titles should be truncated to 50 runes")
	}
}
