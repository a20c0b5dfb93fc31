package history

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaenox/attendant-bot/internal/models"
)

func TestAppendKeepsLastEntriesInOrder(t *testing.T) {
	c := New(10, time.Hour)
	for i := 1; i <= 15; i++ {
		c.Append("p", models.RoleUser, fmt.Sprintf("msg %d", i))
	}

	got := c.Get("p")
	require.Len(t, got, 10)
	for i, entry := range got {
		assert.Equal(t, fmt.Sprintf("msg %d", i+6), entry.Content)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	c := New(10, time.Hour)
	c.Append("p", models.RoleUser, "oi")

	got := c.Get("p")
	got[0].Content = "changed"
	assert.Equal(t, "oi", c.Get("p")[0].Content)
}

func TestFirstMessageAndClear(t *testing.T) {
	c := New(10, time.Hour)
	assert.True(t, c.IsFirstMessage("p"))
	assert.NotNil(t, c.Get("p"))

	c.Append("p", models.RoleUser, "oi")
	c.Append("p", models.RoleAssistant, "Olá!")
	assert.False(t, c.IsFirstMessage("p"))
	assert.Equal(t, 1, c.Len())

	c.Clear("p")
	assert.True(t, c.IsFirstMessage("p"))
}

func TestIdleExpiry(t *testing.T) {
	c := New(10, 50*time.Millisecond)
	c.Append("p", models.RoleUser, "oi")

	time.Sleep(120 * time.Millisecond)
	assert.Empty(t, c.Get("p"))
}
