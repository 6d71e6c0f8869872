package runtime

import (
	"chat-relay/contract"
	"chat-relay/errors"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const (
	BotFallbackReply = "❌ The bot ran into a problem. Please try again later."
	BotEmptyReply    = "🤖 I did not get an answer, sorry."
)

// BotAdapter turns a human message into the bot's reply.
// It never fails: errors, panics and timeouts of the completer become BotFallbackReply.
type BotAdapter struct {
	completer contract.ICompleter
	name      string
	timeout   time.Duration
	log       *slog.Logger
}

func NewBotAdapter(completer contract.ICompleter, name string, timeout time.Duration, log *slog.Logger) BotAdapter {
	return BotAdapter{completer: completer, name: name, timeout: timeout, log: log}
}

func (b BotAdapter) Name() string {
	return b.name
}

func (b BotAdapter) Reply(ctx context.Context, text string) (reply string) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("Bot completer panicked", "error", errors.ErrExternalServiceFailure, "panic", r)
			reply = BotFallbackReply
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	answer, err := b.completer.Complete(ctx, text)
	if err != nil {
		b.log.Warn("Bot completion failed", "error", fmt.Errorf("%w: %w", errors.ErrExternalServiceFailure, err))
		return BotFallbackReply
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return BotEmptyReply
	}
	return answer
}
