// Package notify delivers newly created alerts to external channels.
package notify

import (
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/AyushPatiTripathi/Osnit-Sheild/internal/model"
)

// Notifier pushes alerts to a delivery channel.
type Notifier interface {
	NotifyAlert(a model.Alert)
}

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram sends alert messages to a configured chat.
type Telegram struct {
	api    telegramAPI
	chatID int64
	log    *slog.Logger
}

// NewTelegram creates a Telegram notifier for the given bot token and chat.
func NewTelegram(token string, chatID int64, log *slog.Logger) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	return &Telegram{api: api, chatID: chatID, log: log}, nil
}

// NotifyAlert formats and sends one alert. Delivery failures are
// logged, never propagated: alert persistence is the system of record,
// notification is best effort.
func (t *Telegram) NotifyAlert(a model.Alert) {
	msg := tgbotapi.NewMessage(t.chatID, FormatAlert(a))
	if _, err := t.api.Send(msg); err != nil {
		t.log.Error("send alert notification", "alert_id", a.ID, "error", err)
	}
}

// FormatAlert renders an alert as a notification message.
func FormatAlert(a model.Alert) string {
	return fmt.Sprintf("[%s] %s\n%s", a.Level, a.IncidentType, a.Message)
}
