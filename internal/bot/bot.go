package bot

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xaenox/attendant-bot/internal/attendance"
	"github.com/xaenox/attendant-bot/internal/classifier"
	"github.com/xaenox/attendant-bot/internal/clock"
	"github.com/xaenox/attendant-bot/internal/command"
	"github.com/xaenox/attendant-bot/internal/debounce"
	"github.com/xaenox/attendant-bot/internal/history"
	"github.com/xaenox/attendant-bot/internal/llm"
	"github.com/xaenox/attendant-bot/internal/models"
	"github.com/xaenox/attendant-bot/internal/normalize"
	"github.com/xaenox/attendant-bot/internal/prompt"
	"github.com/xaenox/attendant-bot/internal/transport"
	"go.uber.org/zap"
)

const (
	DefaultConversationTimeout   = 7 * 24 * time.Hour
	DefaultBlockSweepInterval    = 5 * time.Minute
	DefaultDebounceSweepInterval = 2 * time.Minute
)

// Prospection stages recorded on the user record
const (
	stageWelcomed = "welcomed"
	stageEngaged  = "engaged"
)

type Config struct {
	OperatorPhone string
	OperatorName  string
	AssistantName string
	CompanyName   string
	// MoreInfoLink is appended to lead replies asking for details. Empty
	// disables it.
	MoreInfoLink string
	// ConversationTimeout is how long after the last interaction a user is
	// still greeted as returning.
	ConversationTimeout   time.Duration
	BlockSweepInterval    time.Duration
	DebounceSweepInterval time.Duration
}

// Deps are the collaborators of the bot. Clock and Sleep default to real time.
type Deps struct {
	Transport  transport.Transport
	LLM        llm.Client
	Store      *attendance.Store
	History    *history.Cache
	Debounce   *debounce.Guard
	Classifier classifier.Classifier
	Composer   *prompt.Composer
	Commands   *command.Interpreter
	Clock      clock.Clock
	Sleep      func(ctx context.Context, d time.Duration)
}

type Bot struct {
	transport  transport.Transport
	llm        llm.Client
	store      *attendance.Store
	history    *history.Cache
	debounce   *debounce.Guard
	classifier classifier.Classifier
	composer   *prompt.Composer
	commands   *command.Interpreter
	clock      clock.Clock
	sleep      func(ctx context.Context, d time.Duration)
	cfg        Config
	logger     *zap.Logger
}

func New(deps Deps, cfg Config, logger *zap.Logger) *Bot {
	if cfg.ConversationTimeout <= 0 {
		cfg.ConversationTimeout = DefaultConversationTimeout
	}
	if cfg.BlockSweepInterval <= 0 {
		cfg.BlockSweepInterval = DefaultBlockSweepInterval
	}
	if cfg.DebounceSweepInterval <= 0 {
		cfg.DebounceSweepInterval = DefaultDebounceSweepInterval
	}
	cfg.OperatorPhone = normalize.Phone(cfg.OperatorPhone)
	if deps.Clock == nil {
		deps.Clock = clock.Real()
	}
	if deps.Sleep == nil {
		deps.Sleep = sleepContext
	}
	return &Bot{
		transport:  deps.Transport,
		llm:        deps.LLM,
		store:      deps.Store,
		history:    deps.History,
		debounce:   deps.Debounce,
		classifier: deps.Classifier,
		composer:   deps.Composer,
		commands:   deps.Commands,
		clock:      deps.Clock,
		sleep:      deps.Sleep,
		cfg:        cfg,
		logger:     logger,
	}
}

// Run drives the periodic sweeps until ctx is done.
func (b *Bot) Run(ctx context.Context) {
	b.history.Start()
	defer b.history.Stop()

	blockTicker := time.NewTicker(b.cfg.BlockSweepInterval)
	defer blockTicker.Stop()
	debounceTicker := time.NewTicker(b.cfg.DebounceSweepInterval)
	defer debounceTicker.Stop()

	b.logger.Info("Bot started",
		zap.Duration("block_sweep", b.cfg.BlockSweepInterval),
		zap.Duration("debounce_sweep", b.cfg.DebounceSweepInterval))

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Bot stopped")
			return
		case <-blockTicker.C:
			if removed := b.store.SweepExpired(); removed > 0 {
				b.logger.Info("Expired attendance blocks removed", zap.Int("count", removed))
			}
		case <-debounceTicker.C:
			if removed := b.debounce.Sweep(); removed > 0 {
				b.logger.Debug("Debounce entries removed", zap.Int("count", removed))
			}
		}
	}
}

// HandleMessage processes one inbound message. It never panics and logs
// its own failures, so it can be used directly as a transport handler.
func (b *Bot) HandleMessage(ctx context.Context, msg models.InboundMessage) {
	logger := b.logger.With(
		zap.String("trace_id", uuid.New().String()),
		zap.String("phone", msg.ChatPhone),
		zap.String("message_id", msg.ID))

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic while handling message",
				zap.Any("panic", r),
				zap.Stack("stack"))
		}
	}()

	if err := b.handle(ctx, msg, logger); err != nil {
		if isTransient(err) {
			logger.Debug("Transient error while handling message", zap.Error(err))
			return
		}
		logger.Error("Failed to handle message", zap.Error(err))
	}
}

func (b *Bot) handle(ctx context.Context, msg models.InboundMessage, logger *zap.Logger) error {
	start := b.clock.Now()

	msg.Text = normalize.Text(msg.Text)
	if msg.Text == "" || msg.ChatPhone == "" {
		logger.Debug("Skipping empty message")
		return nil
	}
	if msg.IsGroupOrBroadcast {
		logger.Debug("Skipping group or broadcast message")
		return nil
	}

	if msg.IsFromSelf {
		return b.handleOwnMessage(ctx, msg, logger)
	}

	if !b.debounce.Allow(msg.ChatPhone) {
		logger.Debug("Dropping message inside debounce window")
		return nil
	}

	if parsed := b.commands.Parse(msg.Text); parsed.IsCommand {
		return b.handleCommand(ctx, msg, parsed, logger)
	}

	user, previous, existed := b.store.RegisterInbound(msg.ChatPhone, msg.PushName)
	if b.store.IsBlocked(msg.ChatPhone) {
		logger.Debug("Conversation under manual attendance, not replying")
		return nil
	}

	switch {
	case !user.IsNewLead && classifier.IsLeadTrigger(msg.Text):
		if b.store.MarkLead(msg.ChatPhone) {
			return b.welcomeLead(ctx, user, msg.Text, start, logger)
		}
		return b.replyLead(ctx, user, msg.Text, start, logger)
	case user.IsNewLead:
		return b.replyLead(ctx, user, msg.Text, start, logger)
	case existed && start.Sub(previous) <= b.cfg.ConversationTimeout:
		return b.replyReturning(ctx, user, msg.Text, start, logger)
	default:
		return b.replyFirstContact(ctx, user, msg.Text, start, logger)
	}
}

// handleOwnMessage handles messages the operator sent from the bot's own
// account. Commands are executed, anything else counts towards taking over
// the conversation.
func (b *Bot) handleOwnMessage(ctx context.Context, msg models.InboundMessage, logger *zap.Logger) error {
	if parsed := b.commands.Parse(msg.Text); parsed.IsCommand {
		return b.handleCommand(ctx, msg, parsed, logger)
	}

	// Notes to self are not conversations.
	if msg.ChatPhone == msg.SenderPhone || msg.ChatPhone == b.cfg.OperatorPhone {
		return nil
	}
	if b.store.IsBlocked(msg.ChatPhone) {
		return nil
	}

	count := b.store.IncrementOwnerMessageCount(msg.ChatPhone)
	if count == 0 {
		logger.Debug("Operator message to unknown user")
		return nil
	}
	b.store.UpdateProspecting(msg.ChatPhone, func(user *models.UserRecord) {
		user.IsOwnerProspecting = true
	})
	if b.store.Block(msg.ChatPhone, b.cfg.OperatorName, false) {
		logger.Info("Operator took over conversation", zap.Int("owner_messages", count))
	}
	return nil
}

func (b *Bot) handleCommand(ctx context.Context, msg models.InboundMessage, parsed command.Parsed, logger *zap.Logger) error {
	logger = logger.With(
		zap.String("command", string(parsed.Command)),
		zap.String("sender", msg.SenderPhone))

	if !b.commands.Authorized(msg.SenderPhone) {
		logger.Warn("Unauthorized command attempt")
		if msg.IsFromSelf {
			return nil
		}
		return b.send(ctx, msg.ChatPhone, command.RejectionMessage)
	}

	target := parsed.Target
	if target == "" {
		if b.commands.Authorized(msg.ChatPhone) {
			return b.send(ctx, b.cfg.OperatorPhone, usageMessage(parsed.Command))
		}
		target = msg.ChatPhone
	}

	reply := b.commands.Execute(parsed.Command, target)
	if parsed.Command == command.Release {
		// The bot resumes with a fresh prompt window.
		b.history.Clear(target)
	}
	logger.Info("Operator command executed", zap.String("target", target))
	return b.send(ctx, b.cfg.OperatorPhone, reply)
}

func (b *Bot) welcomeLead(ctx context.Context, user models.UserRecord, text string, start time.Time, logger *zap.Logger) error {
	logger.Info("New lead detected")
	b.store.UpdateProspecting(user.Phone, func(u *models.UserRecord) {
		u.InterlocutorType = "lead"
		u.ProspectionStage = stageWelcomed
	})
	return b.reply(ctx, user.Phone, text, leadWelcomeMessage(user.Name, b.cfg.AssistantName, b.cfg.CompanyName), start, logger)
}

func (b *Bot) replyLead(ctx context.Context, user models.UserRecord, text string, start time.Time, logger *zap.Logger) error {
	reply := b.generate(ctx, user, models.IntentProspect, text, logger)
	if b.cfg.MoreInfoLink != "" && classifier.WantsMoreInfo(text) {
		reply += "\n\n" + moreInfoMessage(b.cfg.MoreInfoLink)
	}
	b.store.UpdateProspecting(user.Phone, func(u *models.UserRecord) {
		u.ProspectionStage = stageEngaged
	})
	return b.reply(ctx, user.Phone, text, reply, start, logger)
}

func (b *Bot) replyReturning(ctx context.Context, user models.UserRecord, text string, start time.Time, logger *zap.Logger) error {
	if normalize.IsGreeting(text) {
		return b.reply(ctx, user.Phone, text, welcomeBackMessage(user.Name), start, logger)
	}
	return b.replyClassified(ctx, user, text, start, logger)
}

func (b *Bot) replyFirstContact(ctx context.Context, user models.UserRecord, text string, start time.Time, logger *zap.Logger) error {
	if normalize.IsGreeting(text) {
		return b.reply(ctx, user.Phone, text, greetingMessage(user.Name, b.cfg.AssistantName, b.cfg.CompanyName), start, logger)
	}
	return b.replyClassified(ctx, user, text, start, logger)
}

func (b *Bot) replyClassified(ctx context.Context, user models.UserRecord, text string, start time.Time, logger *zap.Logger) error {
	intent := b.classifier.Classify(text)
	if intent == models.IntentSupport {
		b.store.UpdateProspecting(user.Phone, func(u *models.UserRecord) {
			u.InterlocutorType = "client"
		})
	}
	return b.reply(ctx, user.Phone, text, b.generate(ctx, user, intent, text, logger), start, logger)
}

// generate asks the language model for a reply, falling back to a canned
// apology on failure.
func (b *Bot) generate(ctx context.Context, user models.UserRecord, intent models.Intent, text string, logger *zap.Logger) string {
	messages := b.composer.Compose(ctx, prompt.FlowFor(intent), user, b.history.Get(user.Phone), text)

	reply, err := b.llm.Complete(ctx, messages)
	if err != nil {
		logger.Warn("Failed to generate reply, sending fallback",
			zap.Error(err),
			zap.String("kind", string(llm.Kind(err))),
			zap.String("intent", string(intent)))
		b.notifyOperator(ctx, fmt.Sprintf("⚠️ O assistente falhou (%s) ao responder %s. A conversa precisa de um atendente.",
			llm.Kind(err), user.Phone), logger)
		return llm.FallbackMessage(err)
	}
	logger.Debug("Reply generated", zap.String("intent", string(intent)))
	return reply
}

// reply sends text to phone and records the exchange in the history.
func (b *Bot) reply(ctx context.Context, phone, text, reply string, start time.Time, logger *zap.Logger) error {
	b.history.Append(phone, models.RoleUser, text)

	if err := b.send(ctx, phone, reply); err != nil {
		if !isTransient(err) {
			b.notifyOperator(ctx, fmt.Sprintf("⚠️ Não consegui responder %s. Verifique a conversa.", phone), logger)
		}
		return err
	}

	b.history.Append(phone, models.RoleAssistant, reply)
	b.store.RecordResponseTime(phone, b.clock.Now().Sub(start))
	return nil
}

// notifyOperator is best effort.
func (b *Bot) notifyOperator(ctx context.Context, text string, logger *zap.Logger) {
	if b.cfg.OperatorPhone == "" {
		return
	}
	if err := b.transport.SendText(ctx, b.cfg.OperatorPhone, text); err != nil {
		logger.Warn("Failed to notify operator", zap.Error(err))
	}
}

func (b *Bot) send(ctx context.Context, phone, text string) error {
	b.simulateTyping(ctx, phone, text)
	if err := b.transport.SendText(ctx, phone, text); err != nil {
		return fmt.Errorf("failed to send reply: %w", err)
	}
	return nil
}

// isTransient reports network errors that resolve on reconnect.
func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, net.ErrClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection closed", "not connected", "connection reset", "broken pipe"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
