package prompt

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaenox/attendant-bot/internal/models"
)

type staticKnowledge string

func (s staticKnowledge) Context(ctx context.Context, message string) string { return string(s) }

func TestComposeFirstMessage(t *testing.T) {
	c := NewComposer(staticKnowledge("KB"), Config{AssistantName: "Luna", CompanyName: "Acme"})
	user := models.UserRecord{Name: "Ana"}

	msgs := c.Compose(context.Background(), FlowFor(models.IntentProspect), user, nil, "quanto custa?")

	require.Len(t, msgs, 2)
	assert.Equal(t, models.RoleSystem, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "Luna")
	assert.Contains(t, msgs[0].Content, "Acme")
	assert.Contains(t, msgs[0].Content, "KB")
	assert.Contains(t, msgs[0].Content, "PROSPECÇÃO")
	assert.Contains(t, msgs[0].Content, "primeira mensagem de Ana")
	assert.Equal(t, models.HistoryEntry{Role: models.RoleUser, Content: "quanto custa?"}, msgs[1])
}

func TestComposeContinuationBoundsHistory(t *testing.T) {
	c := NewComposer(nil, Config{HistoryLimit: 4})
	var history []models.HistoryEntry
	for i := 0; i < 6; i++ {
		history = append(history, models.HistoryEntry{Role: models.RoleUser, Content: fmt.Sprint(i)})
	}

	msgs := c.Compose(context.Background(), FlowFor(models.IntentSupport), models.UserRecord{Name: "Ana"}, history, "ainda não funciona")

	require.Len(t, msgs, 6)
	assert.Contains(t, msgs[0].Content, "SUPORTE")
	assert.Contains(t, msgs[0].Content, "continue naturalmente")
	assert.NotContains(t, msgs[0].Content, "CONHECIMENTO")
	assert.Equal(t, "2", msgs[1].Content)
	assert.Equal(t, "ainda não funciona", msgs[5].Content)
}

func TestFlowFor(t *testing.T) {
	assert.Equal(t, models.IntentProspect, FlowFor(models.IntentProspect).Intent())
	assert.Equal(t, models.IntentSupport, FlowFor(models.IntentSupport).Intent())
	assert.Equal(t, models.IntentGeneral, FlowFor("other").Intent())
}
