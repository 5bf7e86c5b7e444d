package notify

import (
	"context"
	"fmt"
	"sort"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// TelegramBus posts events to a single operator chat. Send failures are
// logged and dropped; a broken bot must never stall a trade cycle.
type TelegramBus struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	log    zerolog.Logger
}

// NewTelegramBus authenticates the bot once at startup so a bad token fails
// fast instead of on the first event.
func NewTelegramBus(token string, chatID int64, log zerolog.Logger) (*TelegramBus, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	log.Info().Str("bot", bot.Self.UserName).Msg("telegram bus ready")
	return &TelegramBus{bot: bot, chatID: chatID, log: log}, nil
}

func (b *TelegramBus) Emit(_ context.Context, accountID int64, event Event, payload map[string]any) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] account %d", event, accountID)

	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, "\n%s: %v", k, payload[k])
	}

	if _, err := b.bot.Send(tgbotapi.NewMessage(b.chatID, sb.String())); err != nil {
		b.log.Error().Err(err).Str("event", string(event)).Msg("telegram send failed")
	}
}
