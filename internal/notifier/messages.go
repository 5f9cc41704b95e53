package notifier

import (
	"fmt"
	"strings"
	"time"

	"github.com/czmobin/karlancer/internal/model"
)

// Persian HTML message builders for the Telegram channel.

func timestamp() string {
	return time.Now().Format("2006-01-02 15:04:05")
}

func truncateTitle(title string) string {
	runes := []rune(title)
	if len(runes) <= 50 {
		return title
	}
	return string(runes[:50]) + "..."
}

func onOff(enabled bool) string {
	if enabled {
		return "✅ فعال"
	}
	return "❌ غیرفعال"
}

// Startup announces the bot configuration at launch.
func Startup(interval time.Duration, autoSubmit, strictMode bool) string {
	mode := "🟢 Normal"
	if strictMode {
		mode = "🔴 Strict"
	}
	return fmt.Sprintf(`🚀 <b>ربات کارلنسر شروع شد</b>

⏰ فاصله بررسی: %d ثانیه (%d دقیقه)
📤 ارسال خودکار: %s
🔒 حالت: %s

📅 %s`,
		int(interval.Seconds()), int(interval.Minutes()), onOff(autoSubmit), mode, timestamp())
}

// NewProjects announces how many unseen projects a cycle found.
func NewProjects(count int) string {
	return fmt.Sprintf(`🆕 <b>%d پروژه جدید پیدا شد!</b>

در حال تحلیل...`, count)
}

// ProjectAnalyzed reports a finished analysis with its recommendation.
func ProjectAnalyzed(projectID int64, title string, stars int, decision string) string {
	emoji := "⚠️"
	if stars >= 3 {
		emoji = "✅"
	}
	decisionEmoji := "❓"
	switch decision {
	case "Take":
		decisionEmoji = "✅"
	case "Skip":
		decisionEmoji = "❌"
	}
	if decision == "" {
		decision = "نامشخص"
	}
	return fmt.Sprintf(`%s <b>پروژه تحلیل شد</b>

📋 ID: %d
📌 عنوان: %s

⭐ امتیاز: %s (%d/5)
📊 توصیه: %s %s`,
		emoji, projectID, truncateTitle(title), strings.Repeat("⭐", stars), stars, decisionEmoji, decision)
}

// ProjectSubmitted reports a successful bid.
func ProjectSubmitted(projectID int64, title string) string {
	return fmt.Sprintf(`✅ <b>پروپوزال ارسال شد!</b>

📋 ID: %d
📌 %s

🔗 لینک: https://www.karlancer.com/project/%d`,
		projectID, truncateTitle(title), projectID)
}

// ProjectRejected reports a project that failed or was rejected, with reason.
func ProjectRejected(projectID int64, title, reason string) string {
	return fmt.Sprintf(`🚫 <b>پروژه رد شد</b>

📋 ID: %d
📌 %s

❌ دلیل: %s`,
		projectID, truncateTitle(title), reason)
}

// CycleSummary reports the running totals after a poll cycle.
func CycleSummary(iteration int, t model.Totals) string {
	return fmt.Sprintf(`📊 <b>خلاصه چرخه #%d</b>

🔍 دریافت شده: %d
🧠 تحلیل شده: %d
📤 ارسال شده: %d
❌ خطا: %d

📅 %s`,
		iteration, t.Fetched, t.Analyzed, t.Submitted, t.Failed, timestamp())
}

// ErrorMessage reports a cycle-level error.
func ErrorMessage(msg string) string {
	return fmt.Sprintf(`❌ <b>خطا رخ داد</b>

%s

📅 %s`, msg, timestamp())
}

// Shutdown reports the final totals when the bot stops.
func Shutdown(t model.Totals) string {
	return fmt.Sprintf(`⛔ <b>ربات متوقف شد</b>

📊 آمار نهایی:
  🔍 دریافت‌ها: %d
  🧠 تحلیل‌ها: %d
  📤 ارسال‌ها: %d
  ❌ خطاها: %d

👋 خداحافظ!
📅 %s`,
		t.Fetched, t.Analyzed, t.Submitted, t.Failed, timestamp())
}

// TestMessage verifies the integration end to end.
func TestMessage(botName, chatID string) string {
	return fmt.Sprintf(`🧪 <b>تست اتصال موفق</b>

بات: %s
Chat ID: %s

📅 %s`, botName, chatID, timestamp())
}
