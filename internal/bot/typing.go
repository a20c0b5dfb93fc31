package bot

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/xaenox/attendant-bot/internal/transport"
	"go.uber.org/zap"
)

const (
	typingPerChar  = 50 * time.Millisecond
	minTypingDelay = 500 * time.Millisecond
	maxTypingDelay = 3 * time.Second
)

// TypingDelay is how long the composing indicator is shown before text is sent.
func TypingDelay(text string) time.Duration {
	d := time.Duration(utf8.RuneCountInString(text)) * typingPerChar
	return min(max(d, minTypingDelay), maxTypingDelay)
}

// simulateTyping never fails the send it precedes.
func (b *Bot) simulateTyping(ctx context.Context, phone, text string) {
	if err := b.transport.SetPresence(ctx, phone, transport.PresenceComposing); err != nil {
		b.logger.Debug("Failed to set composing presence", zap.Error(err), zap.String("phone", phone))
	}
	b.sleep(ctx, TypingDelay(text))
	if err := b.transport.SetPresence(ctx, phone, transport.PresencePaused); err != nil {
		b.logger.Debug("Failed to set paused presence", zap.Error(err), zap.String("phone", phone))
	}
}

func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
