// Package prompt assembles the messages sent to the language model.
package prompt

import (
	"context"
	"fmt"
	"strings"

	"github.com/xaenox/attendant-bot/internal/models"
)

// KnowledgeSource provides the knowledge context for a message.
type KnowledgeSource interface {
	Context(ctx context.Context, message string) string
}

type Config struct {
	AssistantName string
	CompanyName   string
	// HistoryLimit bounds the history entries included in a prompt.
	HistoryLimit int
}

type Composer struct {
	knowledge KnowledgeSource
	cfg       Config
}

func NewComposer(knowledge KnowledgeSource, cfg Config) *Composer {
	if cfg.AssistantName == "" {
		cfg.AssistantName = "Assistente"
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 10
	}
	return &Composer{knowledge: knowledge, cfg: cfg}
}

// Compose returns a system entry, the bounded history and the user message.
// An empty history selects the first message framing.
func (c *Composer) Compose(ctx context.Context, flow Flow, user models.UserRecord, history []models.HistoryEntry, message string) []models.HistoryEntry {
	if len(history) > c.cfg.HistoryLimit {
		history = history[len(history)-c.cfg.HistoryLimit:]
	}

	messages := make([]models.HistoryEntry, 0, len(history)+2)
	messages = append(messages, models.HistoryEntry{
		Role:    models.RoleSystem,
		Content: c.systemPrompt(ctx, flow, user, len(history) == 0, message),
	})
	messages = append(messages, history...)
	messages = append(messages, models.HistoryEntry{Role: models.RoleUser, Content: message})
	return messages
}

func (c *Composer) systemPrompt(ctx context.Context, flow Flow, user models.UserRecord, first bool, message string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Você é %s", c.cfg.AssistantName)
	if c.cfg.CompanyName != "" {
		fmt.Fprintf(&sb, ", assistente virtual da %s", c.cfg.CompanyName)
	}
	sb.WriteString(", atendendo pelo WhatsApp. Responda em português do Brasil, em mensagens curtas (até 3 parágrafos), sem markdown.\n\n")

	if c.knowledge != nil {
		sb.WriteString("CONHECIMENTO:\n")
		sb.WriteString(c.knowledge.Context(ctx, message))
		sb.WriteString("\n\n")
	}

	sb.WriteString(flow.Instructions(user))
	sb.WriteString("\n\n")

	if first {
		fmt.Fprintf(&sb, "Esta é a primeira mensagem de %s: cumprimente pelo nome e apresente-se brevemente.", user.Name)
	} else {
		sb.WriteString("A conversa já está em andamento: continue naturalmente, sem se apresentar nem cumprimentar de novo.")
	}
	return sb.String()
}
