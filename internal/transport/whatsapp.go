package transport

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/mdp/qrterminal/v3"
	"github.com/xaenox/attendant-bot/internal/models"
	"github.com/xaenox/attendant-bot/internal/normalize"
	"github.com/xaenox/attendant-bot/internal/storage"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"

	// Session store drivers
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Session keys in the storage.NamespaceSession namespace
const (
	sessionDeviceKey   = "device_jid"
	sessionPairedAtKey = "paired_at"
)

// Sent message IDs are kept briefly so a redelivered copy of a bot reply is
// not counted as an operator message.
const (
	sentIDsTTL      = 2 * time.Minute
	sentIDsCapacity = 4096
)

type WhatsAppConfig struct {
	// SessionDialect is "sqlite3" or "postgres".
	SessionDialect string
	SessionDSN     string
	// LogLevel filters whatsmeow's internal logs.
	LogLevel string
}

// WhatsApp is a Transport backed by a whatsmeow multi-device session.
type WhatsApp struct {
	client    *whatsmeow.Client
	container *sqlstore.Container
	kv        storage.KeyValueStore
	logger    *zap.Logger

	handler Handler
	baseCtx context.Context

	// chats maps a phone to the JID its messages arrived on, so replies
	// follow LID addressed chats.
	chats sync.Map
	sent *ttlcache.Cache[string, struct{}]
}

func newSentIDs() *ttlcache.Cache[string, struct{}] {
	return ttlcache.New[string, struct{}](
		ttlcache.WithTTL[string, struct{}](sentIDsTTL),
		ttlcache.WithCapacity[string, struct{}](sentIDsCapacity),
	)
}

func NewWhatsApp(ctx context.Context, cfg WhatsAppConfig, kv storage.KeyValueStore, logger *zap.Logger) (*WhatsApp, error) {
	container, err := sqlstore.New(ctx, cfg.SessionDialect, cfg.SessionDSN, newWALogger(logger.Named("whatsmeow.db"), cfg.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load device: %w", err)
	}

	w := &WhatsApp{
		client:    whatsmeow.NewClient(device, newWALogger(logger.Named("whatsmeow"), cfg.LogLevel)),
		container: container,
		kv:        kv,
		logger:    logger,
		baseCtx:   context.Background(),
		sent:      newSentIDs(),
	}
	w.client.AddEventHandler(w.handleEvent)
	return w, nil
}

// OnMessage registers the inbound message handler. Must be called before Connect.
func (w *WhatsApp) OnMessage(h Handler) {
	w.handler = h
}

// Connect opens the session, printing a pairing QR code when the device is
// not linked yet.
func (w *WhatsApp) Connect(ctx context.Context) error {
	w.baseCtx = ctx

	if w.client.Store.ID != nil {
		if err := w.client.Connect(); err != nil {
			return fmt.Errorf("failed to connect: %w", err)
		}
		return nil
	}

	qrChan, err := w.client.GetQRChannel(ctx)
	if err != nil {
		return fmt.Errorf("failed to get QR channel: %w", err)
	}
	if err := w.client.Connect(); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	go func() {
		for evt := range qrChan {
			switch evt.Event {
			case whatsmeow.QRChannelEventCode:
				w.logger.Info("Scan the QR code with WhatsApp to link this device")
				qrterminal.GenerateHalfBlock(evt.Code, qrterminal.L, os.Stdout)
			case whatsmeow.QRChannelSuccess.Event:
				w.logger.Info("Device linked")
			default:
				w.logger.Warn("QR pairing event", zap.String("event", evt.Event))
			}
		}
	}()
	return nil
}

func (w *WhatsApp) Disconnect() {
	w.client.Disconnect()
}

func (w *WhatsApp) IsConnected() bool {
	return w.client.IsConnected()
}

// OwnPhone is the phone of the linked account, empty before pairing.
func (w *WhatsApp) OwnPhone() string {
	if w.client.Store.ID == nil {
		return ""
	}
	return normalize.Phone(w.client.Store.ID.User)
}

// LinkedDevice returns the device recorded by a previous session.
func (w *WhatsApp) LinkedDevice(ctx context.Context) (string, error) {
	value, err := w.kv.Get(ctx, storage.NamespaceSession, sessionDeviceKey)
	if err != nil {
		return "", err
	}
	return string(value), nil
}

func (w *WhatsApp) SendText(ctx context.Context, phone, text string) error {
	resp, err := w.client.SendMessage(ctx, w.chatJID(phone), &waE2E.Message{
		Conversation: proto.String(text),
	})
	if err != nil {
		return fmt.Errorf("failed to send message to %s: %w", phone, err)
	}
	w.sent.Set(resp.ID, struct{}{}, ttlcache.DefaultTTL)
	return nil
}

func (w *WhatsApp) SetPresence(ctx context.Context, phone string, presence Presence) error {
	state := types.ChatPresenceComposing
	if presence == PresencePaused {
		state = types.ChatPresencePaused
	}
	return w.client.SendChatPresence(ctx, w.chatJID(phone), state, types.ChatPresenceMediaText)
}

func (w *WhatsApp) chatJID(phone string) types.JID {
	if jid, ok := w.chats.Load(phone); ok {
		return jid.(types.JID)
	}
	return types.NewJID(phone, types.DefaultUserServer)
}

func (w *WhatsApp) handleEvent(evt interface{}) {
	switch v := evt.(type) {
	case *events.Message:
		if w.isEcho(v) {
			return
		}
		msg, ok := inboundFromEvent(v, w.OwnPhone(), w.phoneForLID)
		if !ok {
			w.logger.Debug("Skipping non text message", zap.String("message_id", v.Info.ID))
			return
		}
		if !msg.IsGroupOrBroadcast {
			w.chats.Store(msg.ChatPhone, v.Info.Chat)
		}
		if w.handler != nil {
			go w.handler(w.baseCtx, msg)
		}
	case *events.Connected:
		w.logger.Info("WhatsApp connected")
		if w.client.Store.ID != nil {
			w.saveSession(sessionDeviceKey, w.client.Store.ID.String())
		}
	case *events.PairSuccess:
		w.logger.Info("WhatsApp paired", zap.String("jid", v.ID.String()))
		w.saveSession(sessionDeviceKey, v.ID.String())
		w.saveSession(sessionPairedAtKey, time.Now().UTC().Format(time.RFC3339))
	case *events.Disconnected:
		w.logger.Warn("WhatsApp disconnected, waiting for automatic reconnect")
	case *events.StreamReplaced:
		w.logger.Warn("WhatsApp session replaced by another connection")
	case *events.LoggedOut:
		w.logger.Warn("WhatsApp logged out, a new QR pairing is required",
			zap.Int("reason", int(v.Reason)))
		w.deleteSession(sessionDeviceKey)
		w.deleteSession(sessionPairedAtKey)
	}
}

// isEcho reports whether v is a copy of a message sent by this client.
func (w *WhatsApp) isEcho(v *events.Message) bool {
	if !v.Info.IsFromMe {
		return false
	}
	_, echo := w.sent.GetAndDelete(v.Info.ID)
	return echo
}

// phoneForLID looks up the phone number JID of a LID in the session store.
func (w *WhatsApp) phoneForLID(lid types.JID) types.JID {
	ctx, cancel := context.WithTimeout(w.baseCtx, 2*time.Second)
	defer cancel()
	pn, err := w.client.Store.LIDs.GetPNForLID(ctx, lid)
	if err != nil {
		w.logger.Debug("Failed to resolve LID", zap.Error(err), zap.String("lid", lid.String()))
		return types.EmptyJID
	}
	return pn
}

func (w *WhatsApp) saveSession(key, value string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.kv.Put(ctx, storage.NamespaceSession, key, []byte(value)); err != nil {
		w.logger.Error("Failed to save session info", zap.Error(err), zap.String("key", key))
	}
}

func (w *WhatsApp) deleteSession(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.kv.Delete(ctx, storage.NamespaceSession, key); err != nil && !errors.Is(err, storage.ErrNotFound) {
		w.logger.Error("Failed to delete session info", zap.Error(err), zap.String("key", key))
	}
}

// lidResolver maps a LID to its phone number JID, EmptyJID when unknown.
type lidResolver func(lid types.JID) types.JID

// phoneOf returns the phone digits of jid. LID addresses are replaced by
// alt when it is a phone JID, otherwise by the resolver.
func phoneOf(jid, alt types.JID, resolve lidResolver) string {
	if jid.Server == types.HiddenUserServer {
		switch {
		case alt.Server == types.DefaultUserServer:
			jid = alt
		case resolve != nil:
			if pn := resolve(jid); !pn.IsEmpty() {
				jid = pn
			}
		}
	}
	return normalize.Phone(jid.User)
}

// inboundFromEvent maps a whatsmeow message event. It returns false for
// messages without text. Phones are always phone numbers, also for LID
// addressed chats.
func inboundFromEvent(v *events.Message, ownPhone string, resolve lidResolver) (models.InboundMessage, bool) {
	text := extractText(v.Message)
	if text == "" {
		return models.InboundMessage{}, false
	}

	chat := v.Info.Chat
	// In a DM the chat is the peer: the sender, or the recipient of our own messages.
	chatAlt := v.Info.SenderAlt
	if v.Info.IsFromMe {
		chatAlt = v.Info.RecipientAlt
	}
	msg := models.InboundMessage{
		ID:          v.Info.ID,
		ChatPhone:   phoneOf(chat, chatAlt, resolve),
		SenderPhone: phoneOf(v.Info.Sender, v.Info.SenderAlt, resolve),
		IsFromSelf:  v.Info.IsFromMe,
		IsGroupOrBroadcast: v.Info.IsGroup ||
			chat.Server == types.GroupServer ||
			chat.Server == types.BroadcastServer ||
			chat.User == "status",
		Text:       text,
		PushName:   v.Info.PushName,
		ReceivedAt: v.Info.Timestamp,
	}
	if msg.IsFromSelf && ownPhone != "" {
		msg.SenderPhone = ownPhone
	}
	return msg, true
}

func extractText(m *waE2E.Message) string {
	if m == nil {
		return ""
	}
	switch {
	case m.GetConversation() != "":
		return m.GetConversation()
	case m.GetExtendedTextMessage().GetText() != "":
		return m.GetExtendedTextMessage().GetText()
	case m.GetImageMessage().GetCaption() != "":
		return m.GetImageMessage().GetCaption()
	case m.GetVideoMessage().GetCaption() != "":
		return m.GetVideoMessage().GetCaption()
	}
	return ""
}
