// Package bot is the Telegram dispatch layer. It routes inbound
// commands to the monitor and shell components and relays plain-text
// replies. All state lives in the components; the bot only translates.
package bot

import (
	"context"
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/powergram/powergram/internal/app/shell"
	"github.com/powergram/powergram/internal/infra/sensors"
	"github.com/powergram/powergram/internal/infra/sqlite"
)

// maxMessageLen caps outbound messages below Telegram's ~4096 limit,
// leaving room for the truncation marker.
const maxMessageLen = 3800

// Bot wires the Telegram transport to the core components.
type Bot struct {
	api     *tgbotapi.BotAPI
	store   *sqlite.DB
	sensors *sensors.Reader
	shell   *shell.Manager
}

// New connects to the Telegram API and returns a ready bot.
func New(token string, store *sqlite.DB, reader *sensors.Reader, manager *shell.Manager) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connect telegram: %w", err)
	}
	log.Printf("[bot] authorized as @%s", api.Self.UserName)
	return &Bot{api: api, store: store, sensors: reader, shell: manager}, nil
}

// Send delivers one message to one chat, best-effort. It implements
// monitor.Notifier: a failed delivery is logged and never propagated,
// so one unreachable subscriber cannot block the rest.
func (b *Bot) Send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, shell.Truncate(text, maxMessageLen))
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("[bot] send to %d: %v", chatID, err)
	}
}

// Run consumes updates until ctx is cancelled. Call in a goroutine.
// Each message is handled concurrently; command handlers block on
// subprocess execution for up to their timeout.
func (b *Bot) Run(ctx context.Context) {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := b.api.GetUpdatesChan(cfg)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			go b.handle(ctx, update.Message)
		}
	}
}
