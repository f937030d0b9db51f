// Package bot delivers review reminders over Telegram and lets a chat
// subscribe to them.
package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/example/studyplan/pkg/models"
)

// sender is the part of tgbotapi.BotAPI the bot uses to talk
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// SubscriptionStore persists reminder subscriptions
type SubscriptionStore interface {
	Upsert(ctx context.Context, sub *models.ReminderSubscription) error
	DisableForChat(ctx context.Context, chatID int64) (int64, error)
}

// TokenVerifier resolves a learner's API token to their user ID
type TokenVerifier interface {
	Subject(raw string) (string, error)
}

// Bot represents the Telegram bot application
type Bot struct {
	api      sender
	botAPI   *tgbotapi.BotAPI
	subs     SubscriptionStore
	verifier TokenVerifier
	logger   *zap.Logger
}

// New authorizes against the Telegram API with token. verifier checks the
// API tokens learners send to link a chat to their account.
func New(token string, subs SubscriptionStore, verifier TokenVerifier, logger *zap.Logger) (*Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram token is not set")
	}
	if verifier == nil {
		return nil, fmt.Errorf("token verifier is required")
	}
	botAPI, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("unable to create bot: %w", err)
	}

	b := newBot(botAPI, subs, verifier, logger)
	b.botAPI = botAPI
	b.logger.Info("authorized on telegram", zap.String("account", botAPI.Self.UserName))
	return b, nil
}

func newBot(api sender, subs SubscriptionStore, verifier TokenVerifier, logger *zap.Logger) *Bot {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bot{
		api:      api,
		subs:     subs,
		verifier: verifier,
		logger:   logger.With(zap.String("component", "bot")),
	}
}

// Listen handles incoming commands until ctx is cancelled
func (b *Bot) Listen(ctx context.Context) error {
	if b.botAPI == nil {
		return fmt.Errorf("bot is not connected")
	}

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.botAPI.GetUpdatesChan(updateConfig)
	defer b.botAPI.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			if err := b.HandleCommand(ctx, update.Message); err != nil {
				b.logger.Warn("command failed",
					zap.String("command", update.Message.Command()),
					zap.Int64("chat_id", update.Message.Chat.ID),
					zap.Error(err),
				)
			}
		}
	}
}

// SendReminder tells chatID how many reviews are waiting
func (b *Bot) SendReminder(ctx context.Context, chatID int64, count int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	noun := "reviews"
	if count == 1 {
		noun = "review"
	}
	text := fmt.Sprintf("You have %d %s due. Open your study queue to keep your streak going.", count, noun)

	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("sending reminder: %w", err)
	}
	return nil
}

func (b *Bot) sendText(chatID int64, text string) error {
	_, err := b.api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}
