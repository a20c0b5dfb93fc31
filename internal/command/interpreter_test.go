package command

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/xaenox/attendant-bot/internal/attendance"
	"github.com/xaenox/attendant-bot/internal/clock"
)

const (
	operator = "5511912345678"
	client   = "5521987654321"
)

func newInterpreter() (*Interpreter, *attendance.Store) {
	store := attendance.New(attendance.Config{Clock: clock.NewFake(time.Unix(1700000000, 0))}, nil)
	return NewInterpreter(store, "+55 11 91234-5678", "Carla"), store
}

func TestParse(t *testing.T) {
	i, _ := newInterpreter()
	cases := []struct {
		text string
		want Parsed
	}{
		{"/assumir", Parsed{IsCommand: true, Command: Assume}},
		{"  /ASSUMIR ", Parsed{IsCommand: true, Command: Assume}},
		{"./assumir", Parsed{IsCommand: true, Command: Assume}},
		{"assumir atendimento", Parsed{IsCommand: true, Command: Assume}},
		{"/asumir", Parsed{IsCommand: true, Command: Assume}},
		{"/assumir 55 21 98765-4321", Parsed{IsCommand: true, Command: Assume, Target: client}},
		{"/liberar", Parsed{IsCommand: true, Command: Release}},
		{"Liberar atendimento", Parsed{IsCommand: true, Command: Release}},
		{"/liberar agora", Parsed{IsCommand: true, Command: Release}},
		{"/assumirr", Parsed{}},
		{"vou assumir o projeto", Parsed{}},
		{"liberar meu acesso por favor, nao consigo entrar", Parsed{}},
		{"assumir o contrato", Parsed{}},
		{"liberar atendimento amanha", Parsed{}},
		{"./liberar 5521987654321", Parsed{IsCommand: true, Command: Release, Target: client}},
		{"", Parsed{}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, i.Parse(tc.text), tc.text)
	}
}

func TestAuthorized(t *testing.T) {
	i, _ := newInterpreter()
	assert.True(t, i.Authorized(operator))
	assert.True(t, i.Authorized(operator+"@s.whatsapp.net"))
	assert.True(t, i.Authorized("11912345678"))
	assert.False(t, i.Authorized(client))
	assert.False(t, i.Authorized("5678"))
	assert.False(t, i.Authorized(""))

	unconfigured := NewInterpreter(attendance.New(attendance.Config{}, nil), "", "Carla")
	assert.False(t, unconfigured.Authorized(operator))
}

func TestExecuteAssumeForcesBlock(t *testing.T) {
	i, store := newInterpreter()

	reply := i.Execute(Assume, client)

	assert.Contains(t, reply, "assumido")
	assert.True(t, store.IsBlocked(client))
	block, _ := store.Peek(client)
	assert.Equal(t, "Carla", block.BlockedBy)
}

func TestExecuteRelease(t *testing.T) {
	i, store := newInterpreter()

	assert.Contains(t, i.Execute(Release, client), "já está ativo")

	store.RegisterInbound(client, "")
	store.IncrementOwnerMessageCount(client)
	i.Execute(Assume, client)

	assert.Contains(t, i.Execute(Release, client), "liberado")
	assert.False(t, store.IsBlocked(client))
	user, _ := store.User(client)
	assert.Zero(t, user.OwnerMessageCount)
}
