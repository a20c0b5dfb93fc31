// Package transport connects the bot to the messaging network.
package transport

import (
	"context"

	"github.com/xaenox/attendant-bot/internal/models"
)

type Presence string

const (
	PresenceComposing Presence = "composing"
	PresencePaused    Presence = "paused"
)

// Handler receives inbound messages. It is called on its own goroutine per
// message.
type Handler func(ctx context.Context, msg models.InboundMessage)

type Transport interface {
	SendText(ctx context.Context, phone, text string) error
	SetPresence(ctx context.Context, phone string, presence Presence) error
	IsConnected() bool
}
