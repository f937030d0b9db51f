package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/example/studyplan/internal/review"
	"github.com/example/studyplan/pkg/models"
)

const helpText = "Commands:\n" +
	"/remind <api_token> <hour> - get a daily note at <hour> (0-23) when reviews are due\n" +
	"/stop - turn reminders off for this chat"

// HandleCommand handles bot commands
func (b *Bot) HandleCommand(ctx context.Context, message *tgbotapi.Message) error {
	if message == nil || message.Chat == nil {
		return fmt.Errorf("invalid message: required fields are missing")
	}

	switch message.Command() {
	case "start", "help":
		return b.sendText(message.Chat.ID, helpText)
	case "remind":
		return b.handleRemind(ctx, message)
	case "stop":
		return b.handleStop(ctx, message)
	default:
		return b.sendText(message.Chat.ID, "Unknown command.\n\n"+helpText)
	}
}

// handleRemind links the chat to the learner named by the token's subject
func (b *Bot) handleRemind(ctx context.Context, message *tgbotapi.Message) error {
	args := strings.Fields(message.CommandArguments())
	if len(args) != 2 {
		return b.sendText(message.Chat.ID, "Usage: /remind <api_token> <hour>")
	}
	b.deleteMessage(message)

	hour, err := strconv.Atoi(args[1])
	if err != nil || hour < 0 || hour > 23 {
		return b.sendText(message.Chat.ID, "Please give an hour between 0 and 23")
	}

	userID, err := b.verifier.Subject(args[0])
	if err != nil {
		b.logger.Info("rejected reminder token", zap.Int64("chat_id", message.Chat.ID), zap.Error(err))
		return b.sendText(message.Chat.ID, "That token is not valid. Copy a fresh API token from your account and try again.")
	}

	sub := &models.ReminderSubscription{
		UserID:           userID,
		ChatID:           message.Chat.ID,
		NotificationHour: hour,
		Enabled:          true,
	}
	err = b.subs.Upsert(ctx, sub)
	if errors.Is(err, review.ErrConflict) {
		b.logger.Warn("reminder takeover refused", zap.String("user_id", userID), zap.Int64("chat_id", message.Chat.ID))
		return b.sendText(message.Chat.ID, "Reminders for this account go to another chat. Send /stop there first.")
	}
	if err != nil {
		return fmt.Errorf("failed to save subscription: %w", err)
	}

	b.logger.Info("reminders enabled", zap.String("user_id", userID), zap.Int("hour", hour))
	return b.sendText(message.Chat.ID, fmt.Sprintf("Reminders on for %s at %02d:00", userID, hour))
}

func (b *Bot) handleStop(ctx context.Context, message *tgbotapi.Message) error {
	n, err := b.subs.DisableForChat(ctx, message.Chat.ID)
	if err != nil {
		return fmt.Errorf("failed to disable subscriptions: %w", err)
	}
	if n == 0 {
		return b.sendText(message.Chat.ID, "No reminders are set up in this chat")
	}

	b.logger.Info("reminders disabled", zap.Int64("chat_id", message.Chat.ID), zap.Int64("count", n))
	return b.sendText(message.Chat.ID, "Reminders off")
}

// deleteMessage removes a message carrying a token from the chat history
func (b *Bot) deleteMessage(message *tgbotapi.Message) {
	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(message.Chat.ID, message.MessageID)); err != nil {
		b.logger.Debug("could not delete token message", zap.Int64("chat_id", message.Chat.ID), zap.Error(err))
	}
}
