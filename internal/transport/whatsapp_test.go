package transport

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaenox/attendant-bot/internal/storage"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"
)

func messageEvent(chat types.JID, fromMe bool, m *waE2E.Message) *events.Message {
	return &events.Message{
		Info: types.MessageInfo{
			MessageSource: types.MessageSource{
				Chat:     chat,
				Sender:   chat,
				IsFromMe: fromMe,
				IsGroup:  chat.Server == types.GroupServer,
			},
			ID:        "3EB0ABC",
			PushName:  "Ana",
			Timestamp: time.Unix(1700000000, 0),
		},
		Message: m,
	}
}

func TestInboundFromEvent(t *testing.T) {
	chat := types.NewJID("5521987654321", types.DefaultUserServer)
	evt := messageEvent(chat, false, &waE2E.Message{Conversation: proto.String("oi")})

	msg, ok := inboundFromEvent(evt, "5511912345678", nil)

	require.True(t, ok)
	assert.Equal(t, "3EB0ABC", msg.ID)
	assert.Equal(t, "5521987654321", msg.ChatPhone)
	assert.Equal(t, "5521987654321", msg.SenderPhone)
	assert.False(t, msg.IsFromSelf)
	assert.False(t, msg.IsGroupOrBroadcast)
	assert.Equal(t, "oi", msg.Text)
	assert.Equal(t, "Ana", msg.PushName)
}

func TestInboundFromEventSelfMessage(t *testing.T) {
	chat := types.NewJID("5521987654321", types.DefaultUserServer)
	evt := messageEvent(chat, true, &waE2E.Message{
		ExtendedTextMessage: &waE2E.ExtendedTextMessage{Text: proto.String("já te respondo")},
	})

	msg, ok := inboundFromEvent(evt, "5511912345678", nil)

	require.True(t, ok)
	assert.True(t, msg.IsFromSelf)
	assert.Equal(t, "5511912345678", msg.SenderPhone)
	assert.Equal(t, "5521987654321", msg.ChatPhone)
}

func TestInboundFromEventGroupsAndMedia(t *testing.T) {
	group := types.NewJID("120363000000000000", types.GroupServer)
	msg, ok := inboundFromEvent(messageEvent(group, false, &waE2E.Message{Conversation: proto.String("oi")}), "", nil)
	require.True(t, ok)
	assert.True(t, msg.IsGroupOrBroadcast)

	status := types.NewJID("status", types.BroadcastServer)
	msg, _ = inboundFromEvent(messageEvent(status, false, &waE2E.Message{Conversation: proto.String("oi")}), "", nil)
	assert.True(t, msg.IsGroupOrBroadcast)

	chat := types.NewJID("5521987654321", types.DefaultUserServer)
	msg, ok = inboundFromEvent(messageEvent(chat, false, &waE2E.Message{
		ImageMessage: &waE2E.ImageMessage{Caption: proto.String("olha esse erro")},
	}), "", nil)
	require.True(t, ok)
	assert.Equal(t, "olha esse erro", msg.Text)

	_, ok = inboundFromEvent(messageEvent(chat, false, &waE2E.Message{}), "", nil)
	assert.False(t, ok)
}

func TestSessionBookkeeping(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStorage()
	w := &WhatsApp{kv: kv, logger: zap.NewNop()}

	w.handleEvent(&events.PairSuccess{ID: types.NewJID("5511912345678", types.DefaultUserServer)})
	device, err := w.LinkedDevice(ctx)
	require.NoError(t, err)
	assert.Equal(t, "5511912345678@s.whatsapp.net", device)
	_, err = kv.Get(ctx, storage.NamespaceSession, sessionPairedAtKey)
	assert.NoError(t, err)

	w.handleEvent(&events.LoggedOut{})
	_, err = w.LinkedDevice(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIsEcho(t *testing.T) {
	w := &WhatsApp{logger: zap.NewNop(), sent: newSentIDs()}
	chat := types.NewJID("5521987654321", types.DefaultUserServer)
	w.sent.Set("3EB0ABC", struct{}{}, ttlcache.DefaultTTL)

	assert.False(t, w.isEcho(messageEvent(chat, false, nil)))
	assert.True(t, w.isEcho(messageEvent(chat, true, nil)))
	assert.False(t, w.isEcho(messageEvent(chat, true, nil)), "echo IDs are consumed once")
}

func TestSentIDsAreBounded(t *testing.T) {
	sent := newSentIDs()

	for i := 0; i < sentIDsCapacity+100; i++ {
		sent.Set(fmt.Sprintf("3EB0%06d", i), struct{}{}, ttlcache.DefaultTTL)
	}

	assert.Equal(t, sentIDsCapacity, sent.Len())
	assert.Nil(t, sent.Get("3EB0000000"), "oldest IDs are evicted")
}

func TestInboundFromEventLIDChat(t *testing.T) {
	lid := types.NewJID("123456789012345", types.HiddenUserServer)
	evt := messageEvent(lid, false, &waE2E.Message{Conversation: proto.String("/assumir 5521987654321")})
	evt.Info.AddressingMode = types.AddressingModeLID
	evt.Info.SenderAlt = types.NewJID("5511900000001", types.DefaultUserServer)

	msg, ok := inboundFromEvent(evt, "5511912345678", nil)

	require.True(t, ok)
	assert.Equal(t, "5511900000001", msg.ChatPhone)
	assert.Equal(t, "5511900000001", msg.SenderPhone)
}

func TestInboundFromEventLIDSelfMessage(t *testing.T) {
	lid := types.NewJID("123456789012345", types.HiddenUserServer)
	evt := messageEvent(lid, true, &waE2E.Message{Conversation: proto.String("já te ligo")})
	evt.Info.Sender = types.NewJID("987654321098765", types.HiddenUserServer)
	evt.Info.SenderAlt = types.NewJID("5511912345678", types.DefaultUserServer)
	evt.Info.RecipientAlt = types.NewJID("5521987654321", types.DefaultUserServer)

	msg, ok := inboundFromEvent(evt, "5511912345678", nil)

	require.True(t, ok)
	assert.Equal(t, "5521987654321", msg.ChatPhone)
	assert.Equal(t, "5511912345678", msg.SenderPhone)
}

func TestInboundFromEventLIDResolvedFromStore(t *testing.T) {
	lid := types.NewJID("123456789012345", types.HiddenUserServer)
	evt := messageEvent(lid, false, &waE2E.Message{Conversation: proto.String("oi")})
	resolve := func(jid types.JID) types.JID {
		if jid == lid {
			return types.NewJID("5521987654321", types.DefaultUserServer)
		}
		return types.EmptyJID
	}

	msg, ok := inboundFromEvent(evt, "", resolve)
	require.True(t, ok)
	assert.Equal(t, "5521987654321", msg.ChatPhone)
	assert.Equal(t, "5521987654321", msg.SenderPhone)

	msg, _ = inboundFromEvent(evt, "", func(types.JID) types.JID { return types.EmptyJID })
	assert.Equal(t, "123456789012345", msg.ChatPhone, "unknown LIDs keep their digits")
}
