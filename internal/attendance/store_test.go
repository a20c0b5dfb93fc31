package attendance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaenox/attendant-bot/internal/clock"
	"github.com/xaenox/attendant-bot/internal/models"
)

const phone = "5511988887777"

func newStore() (*Store, *clock.Fake) {
	clk := clock.NewFake(time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC))
	return New(Config{Clock: clk}, nil), clk
}

func TestBlockRequiresOwnerMessagesUnlessForced(t *testing.T) {
	s, _ := newStore()
	s.RegisterInbound(phone, "Ana")

	assert.False(t, s.Block(phone, "Operador", false))
	assert.False(t, s.IsBlocked(phone))

	assert.Equal(t, 1, s.IncrementOwnerMessageCount(phone))
	assert.False(t, s.Block(phone, "Operador", false))
	assert.Empty(t, s.ActiveBlocks())

	assert.Equal(t, 2, s.IncrementOwnerMessageCount(phone))
	assert.True(t, s.Block(phone, "Operador", false))
	assert.True(t, s.IsBlocked(phone))
}

func TestForcedBlockIgnoresCounter(t *testing.T) {
	s, _ := newStore()

	assert.True(t, s.Block(phone, "Operador", true))
	assert.True(t, s.IsBlocked(phone))

	block, ok := s.Peek(phone)
	require.True(t, ok)
	assert.Equal(t, "Operador", block.BlockedBy)
}

func TestBlockExpiresLazily(t *testing.T) {
	s, clk := newStore()
	s.RegisterInbound(phone, "")
	s.IncrementOwnerMessageCount(phone)
	s.IncrementOwnerMessageCount(phone)
	require.True(t, s.Block(phone, "Operador", false))

	clk.Advance(59 * time.Minute)
	assert.True(t, s.IsBlocked(phone))

	clk.Advance(2 * time.Minute)
	_, ok := s.Peek(phone)
	assert.False(t, ok)
	assert.False(t, s.IsBlocked(phone))

	user, ok := s.User(phone)
	require.True(t, ok)
	assert.Zero(t, user.OwnerMessageCount)
	assert.Nil(t, user.BlockedAt)
	assert.Zero(t, s.Stats().ActiveBlocks)
}

func TestUnblockResetsOwnerCounter(t *testing.T) {
	s, _ := newStore()
	s.RegisterInbound(phone, "")
	s.IncrementOwnerMessageCount(phone)
	s.IncrementOwnerMessageCount(phone)
	s.IncrementOwnerMessageCount(phone)
	require.True(t, s.Block(phone, "Operador", false))

	s.Unblock(phone)

	assert.False(t, s.IsBlocked(phone))
	user, _ := s.User(phone)
	assert.Zero(t, user.OwnerMessageCount)
}

func TestIncrementOwnerMessageCountUnknownUser(t *testing.T) {
	s, _ := newStore()
	assert.Zero(t, s.IncrementOwnerMessageCount(phone))
	_, ok := s.User(phone)
	assert.False(t, ok)
}

func TestSweepExpired(t *testing.T) {
	s, clk := newStore()
	s.Block("1", "Operador", true)
	clk.Advance(30 * time.Minute)
	s.Block("2", "Operador", true)
	clk.Advance(31 * time.Minute)

	assert.Equal(t, 1, s.SweepExpired())
	blocks := s.ActiveBlocks()
	require.Len(t, blocks, 1)
	assert.Equal(t, "2", blocks[0].Phone)
	assert.Zero(t, s.SweepExpired())
}

func TestRegisterInbound(t *testing.T) {
	s, clk := newStore()

	user, previous, existed := s.RegisterInbound(phone, "")
	assert.False(t, existed)
	assert.True(t, previous.IsZero())
	assert.Equal(t, models.DefaultUserName, user.Name)
	assert.Equal(t, 1, user.MessageCount)

	first := clk.Now()
	clk.Advance(time.Hour)
	user, previous, existed = s.RegisterInbound(phone, "Ana")
	assert.True(t, existed)
	assert.Equal(t, first, previous)
	assert.Equal(t, "Ana", user.Name)
	assert.Equal(t, 2, user.MessageCount)
	assert.Equal(t, first, user.FirstInteractionAt)
	assert.Equal(t, clk.Now(), user.LastInteractionAt)
}

func TestMarkLeadIsSticky(t *testing.T) {
	s, _ := newStore()
	assert.False(t, s.MarkLead(phone))

	s.RegisterInbound(phone, "")
	assert.True(t, s.MarkLead(phone))
	assert.False(t, s.MarkLead(phone))

	user, _ := s.User(phone)
	assert.True(t, user.IsNewLead)
	assert.Equal(t, 1, s.Stats().Leads)
}

func TestUserProjectsBlockedAt(t *testing.T) {
	s, clk := newStore()
	s.RegisterInbound(phone, "")
	s.Block(phone, "Operador", true)

	user, _ := s.User(phone)
	require.NotNil(t, user.BlockedAt)
	assert.Equal(t, clk.Now(), *user.BlockedAt)
}

func TestRecordResponseTimeKeepsWindow(t *testing.T) {
	s, _ := newStore()
	s.RegisterInbound(phone, "")
	for i := 1; i <= 12; i++ {
		s.RecordResponseTime(phone, time.Duration(i)*time.Second)
	}

	user, _ := s.User(phone)
	assert.Len(t, user.ResponseTimes, maxResponseTimes)
	assert.Equal(t, 3*time.Second, user.ResponseTimes[0])
	assert.Equal(t, 12*time.Second, user.LastResponseTime)
}
