package notify

import (
	"encoding/json"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"shareit/internal/config"
	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/models"
)

// NewBotAPI connects to Telegram with the configured token.
func NewBotAPI(cfg config.TelegramConfig) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	bot.Debug = cfg.Debug
	return bot, nil
}

// TelegramNotifier posts booking and comment events to an operations chat.
type TelegramNotifier struct {
	sender domain.TelegramSender
	chatID int64
	logger *zerolog.Logger
}

func NewTelegramNotifier(sender domain.TelegramSender, chatID int64, logger *zerolog.Logger) *TelegramNotifier {
	return &TelegramNotifier{sender: sender, chatID: chatID, logger: logger}
}

// Subscribe registers the notifier for every event it can render.
func (n *TelegramNotifier) Subscribe(bus *events.EventBus) {
	for _, eventType := range events.BookingEventTypes {
		bus.Subscribe(eventType, n.handleBooking)
	}
	bus.Subscribe(events.EventCommentCreated, n.handleComment)
}

func (n *TelegramNotifier) handleBooking(event *events.Event) error {
	var p events.BookingEventPayload
	if err := json.Unmarshal(event.Payload, &p); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", event.Type, err)
	}
	return n.send(formatBooking(event.Type, &p))
}

func (n *TelegramNotifier) handleComment(event *events.Event) error {
	var p events.CommentEventPayload
	if err := json.Unmarshal(event.Payload, &p); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", event.Type, err)
	}
	return n.send(fmt.Sprintf("💬 New comment on item #%d by %s:\n%s", p.ItemID, p.AuthorName, p.Text))
}

func (n *TelegramNotifier) send(text string) error {
	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.sender.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	n.logger.Debug().Int64("chat_id", n.chatID).Msg("Notification sent")
	return nil
}

func formatBooking(eventType string, p *events.BookingEventPayload) string {
	var title string
	switch eventType {
	case events.EventBookingCreated:
		title = "🆕 New booking request"
	case events.EventBookingApproved:
		title = "✅ Booking approved"
	case events.EventBookingRejected:
		title = "❌ Booking rejected"
	default:
		title = "Booking update"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s #%d\n", title, p.BookingID))
	sb.WriteString(fmt.Sprintf("Item: %s (#%d)\n", p.ItemName, p.ItemID))
	sb.WriteString(fmt.Sprintf("Booker: #%d\n", p.BookerID))
	sb.WriteString(fmt.Sprintf("Period: %s - %s\n",
		p.Start.UTC().Format(models.DateTimeLayout), p.End.UTC().Format(models.DateTimeLayout)))
	sb.WriteString(fmt.Sprintf("Status: %s", p.Status))
	return sb.String()
}
