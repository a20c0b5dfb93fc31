package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	WhatsApp     WhatsAppConfig     `mapstructure:"whatsapp"`
	Operator     OperatorConfig     `mapstructure:"operator"`
	Assistant    AssistantConfig    `mapstructure:"assistant"`
	OpenAI       OpenAIConfig       `mapstructure:"openai"`
	Attendance   AttendanceConfig   `mapstructure:"attendance"`
	History      HistoryConfig      `mapstructure:"history"`
	Debounce     DebounceConfig     `mapstructure:"debounce"`
	Conversation ConversationConfig `mapstructure:"conversation"`
	Knowledge    KnowledgeConfig    `mapstructure:"knowledge"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Server       ServerConfig       `mapstructure:"server"`
	Log          LogConfig          `mapstructure:"log"`
}

type WhatsAppConfig struct {
	SessionDialect string `mapstructure:"session_dialect"`
	SessionDSN     string `mapstructure:"session_dsn"`
	LogLevel       string `mapstructure:"log_level"`
}

type OperatorConfig struct {
	Phone string `mapstructure:"phone"`
	Name  string `mapstructure:"name"`
}

type AssistantConfig struct {
	Name         string `mapstructure:"name"`
	Company      string `mapstructure:"company"`
	MoreInfoLink string `mapstructure:"more_info_link"`
}

type OpenAIConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type AttendanceConfig struct {
	BlockDuration  time.Duration `mapstructure:"block_duration"`
	OwnerThreshold int           `mapstructure:"owner_threshold"`
	SweepInterval  time.Duration `mapstructure:"sweep_interval"`
}

type HistoryConfig struct {
	Limit int           `mapstructure:"limit"`
	TTL   time.Duration `mapstructure:"ttl"`
}

type DebounceConfig struct {
	Window        time.Duration `mapstructure:"window"`
	Retention     time.Duration `mapstructure:"retention"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type ConversationConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

type KnowledgeConfig struct {
	Results int `mapstructure:"results"`
}

type DatabaseConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	DBName      string `mapstructure:"dbname"`
	SSLMode     string `mapstructure:"sslmode"`
	UseInMemory bool   `mapstructure:"use_in_memory"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

func parseDatabaseURL(dbURL string) (DatabaseConfig, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return DatabaseConfig{}, err
	}

	password, _ := u.User.Password()
	port := 5432 // default PostgreSQL port
	if u.Port() != "" {
		fmt.Sscanf(u.Port(), "%d", &port)
	}

	sslMode := u.Query().Get("sslmode")
	if sslMode == "" {
		sslMode = "disable"
	}

	return DatabaseConfig{
		Host:     u.Hostname(),
		Port:     port,
		User:     u.User.Username(),
		Password: password,
		DBName:   strings.TrimPrefix(u.Path, "/"),
		SSLMode:  sslMode,
	}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("whatsapp.session_dialect", "sqlite3")
	v.SetDefault("whatsapp.session_dsn", "file:session.db?_foreign_keys=on")
	v.SetDefault("whatsapp.log_level", "warn")
	v.SetDefault("operator.name", "Atendente")
	v.SetDefault("assistant.name", "Assistente")
	v.SetDefault("assistant.company", "nossa empresa")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.max_tokens", 400)
	v.SetDefault("openai.temperature", 0.7)
	v.SetDefault("openai.timeout", 30*time.Second)
	v.SetDefault("attendance.block_duration", 60*time.Minute)
	v.SetDefault("attendance.owner_threshold", 2)
	v.SetDefault("attendance.sweep_interval", 5*time.Minute)
	v.SetDefault("history.limit", 10)
	v.SetDefault("history.ttl", time.Hour)
	v.SetDefault("debounce.window", 500*time.Millisecond)
	v.SetDefault("debounce.retention", 60*time.Second)
	v.SetDefault("debounce.sweep_interval", 2*time.Minute)
	v.SetDefault("conversation.timeout", 7*24*time.Hour)
	v.SetDefault("knowledge.results", 3)
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.use_in_memory", true)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("log.level", "info")
}

// LoadConfig reads the YAML file at path when it exists, then applies the
// environment, including a .env file in the working directory.
func LoadConfig(path string) (*Config, error) {
	// A missing .env is normal in production.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	// Nested keys map to env vars as ATTENDANCE_BLOCK_DURATION etc.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	// Check for DATABASE_URL environment variable
	if dbURL := v.GetString("DATABASE_URL"); dbURL != "" {
		dbConfig, err := parseDatabaseURL(dbURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
		}
		config.Database = dbConfig
	}

	// Get other environment variables
	if apiKey := v.GetString("OPENAI_API_KEY"); apiKey != "" {
		config.OpenAI.APIKey = apiKey
	}
	if phone := v.GetString("OPERATOR_PHONE"); phone != "" {
		config.Operator.Phone = phone
	}
	if dsn := v.GetString("WHATSAPP_SESSION_DSN"); dsn != "" {
		config.WhatsApp.SessionDSN = dsn
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.OpenAI.APIKey == "" {
		errs = append(errs, errors.New("openai api key is required (OPENAI_API_KEY)"))
	}
	if c.Operator.Phone == "" {
		errs = append(errs, errors.New("operator phone is required (OPERATOR_PHONE)"))
	}
	switch c.WhatsApp.SessionDialect {
	case "sqlite3", "postgres":
	default:
		errs = append(errs, fmt.Errorf("unsupported whatsapp session dialect %q", c.WhatsApp.SessionDialect))
	}
	if c.Attendance.BlockDuration <= 0 {
		errs = append(errs, errors.New("attendance block duration must be positive"))
	}
	if c.Attendance.OwnerThreshold < 1 {
		errs = append(errs, errors.New("attendance owner threshold must be at least 1"))
	}
	if c.History.Limit < 1 {
		errs = append(errs, errors.New("history limit must be at least 1"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
