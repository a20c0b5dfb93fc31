package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/xaenox/attendant-bot/internal/attendance"
	"github.com/xaenox/attendant-bot/internal/bot"
	"github.com/xaenox/attendant-bot/internal/classifier"
	"github.com/xaenox/attendant-bot/internal/clock"
	"github.com/xaenox/attendant-bot/internal/command"
	"github.com/xaenox/attendant-bot/internal/debounce"
	"github.com/xaenox/attendant-bot/internal/history"
	"github.com/xaenox/attendant-bot/internal/knowledge"
	"github.com/xaenox/attendant-bot/internal/llm"
	"github.com/xaenox/attendant-bot/internal/prompt"
	"github.com/xaenox/attendant-bot/internal/server"
	"github.com/xaenox/attendant-bot/internal/storage"
	"github.com/xaenox/attendant-bot/internal/transport"
	"github.com/xaenox/attendant-bot/pkg/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if cfg.Development {
		zapCfg = zap.NewDevelopmentConfig()
	}
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	// Load configuration
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		bootstrap, _ := zap.NewProduction()
		bootstrap.Fatal("Failed to load config", zap.Error(err), zap.String("path", configPath))
	}

	// Initialize logger
	logger, err := newLogger(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize storage
	var store storage.Storage
	if cfg.Database.UseInMemory {
		logger.Info("Using in-memory storage")
		memory := storage.NewMemoryStorage()
		if err := knowledge.Seed(ctx, memory); err != nil {
			logger.Fatal("Failed to seed knowledge base", zap.Error(err))
		}
		store = memory
	} else {
		logger.Info("Using PostgreSQL storage")
		store, err = storage.NewPostgresStorage(storage.DatabaseConfig{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			DBName:   cfg.Database.DBName,
			SSLMode:  cfg.Database.SSLMode,
		}, logger.Named("storage"))
		if err != nil {
			logger.Fatal("Failed to initialize storage", zap.Error(err))
		}
	}
	defer store.Close()

	// Initialize WhatsApp transport
	wa, err := transport.NewWhatsApp(ctx, transport.WhatsAppConfig{
		SessionDialect: cfg.WhatsApp.SessionDialect,
		SessionDSN:     cfg.WhatsApp.SessionDSN,
		LogLevel:       cfg.WhatsApp.LogLevel,
	}, store, logger.Named("whatsapp"))
	if err != nil {
		logger.Fatal("Failed to create WhatsApp client", zap.Error(err))
	}
	if device, err := wa.LinkedDevice(ctx); err == nil {
		logger.Info("Resuming WhatsApp session", zap.String("device", device))
	}

	// Attendance state
	clk := clock.Real()
	attendanceStore := attendance.New(attendance.Config{
		BlockDuration:  cfg.Attendance.BlockDuration,
		OwnerThreshold: cfg.Attendance.OwnerThreshold,
		Clock:          clk,
	}, logger.Named("attendance"))
	hist := history.New(cfg.History.Limit, cfg.History.TTL)

	// Reply generation
	composer := prompt.NewComposer(
		knowledge.NewBase(store, cfg.Knowledge.Results, logger.Named("knowledge")),
		prompt.Config{
			AssistantName: cfg.Assistant.Name,
			CompanyName:   cfg.Assistant.Company,
			HistoryLimit:  cfg.History.Limit,
		})
	model := llm.NewOpenAIClient(llm.Config{
		APIKey:      cfg.OpenAI.APIKey,
		BaseURL:     cfg.OpenAI.BaseURL,
		Model:       cfg.OpenAI.Model,
		MaxTokens:   cfg.OpenAI.MaxTokens,
		Temperature: cfg.OpenAI.Temperature,
		Timeout:     cfg.OpenAI.Timeout,
	}, logger.Named("llm"))

	// Initialize bot
	b := bot.New(bot.Deps{
		Transport:  wa,
		LLM:        model,
		Store:      attendanceStore,
		History:    hist,
		Debounce:   debounce.New(cfg.Debounce.Window, cfg.Debounce.Retention, clk),
		Classifier: classifier.NewKeywordClassifier(),
		Composer:   composer,
		Commands:   command.NewInterpreter(attendanceStore, cfg.Operator.Phone, cfg.Operator.Name),
		Clock:      clk,
	}, bot.Config{
		OperatorPhone:         cfg.Operator.Phone,
		OperatorName:          cfg.Operator.Name,
		AssistantName:         cfg.Assistant.Name,
		CompanyName:           cfg.Assistant.Company,
		MoreInfoLink:          cfg.Assistant.MoreInfoLink,
		ConversationTimeout:   cfg.Conversation.Timeout,
		BlockSweepInterval:    cfg.Attendance.SweepInterval,
		DebounceSweepInterval: cfg.Debounce.SweepInterval,
	}, logger.Named("bot"))

	wa.OnMessage(b.HandleMessage)
	if err := wa.Connect(ctx); err != nil {
		logger.Fatal("Failed to connect to WhatsApp", zap.Error(err))
	}
	defer wa.Disconnect()

	go b.Run(ctx)

	srv := server.New(cfg.Server.Addr, attendanceStore, wa, hist, logger.Named("http"))
	go func() {
		if err := srv.Run(ctx); err != nil {
			logger.Error("HTTP server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")
}
