package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/xaenox/attendant-bot/internal/models"
	"github.com/xaenox/attendant-bot/internal/normalize"
	"go.uber.org/zap"
)

//go:embed migrations.sql
var migrations embed.FS

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN renders the lib/pq connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

type PostgresStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresStorage(config DatabaseConfig, logger *zap.Logger) (*PostgresStorage, error) {
	db, err := sql.Open("postgres", config.DSN())
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	storage := &PostgresStorage{db: db, logger: logger}

	// Initialize database schema
	if err := storage.initializeSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error initializing database schema: %w", err)
	}

	logger.Info("Connected to PostgreSQL",
		zap.String("host", config.Host),
		zap.String("database", config.DBName))
	return storage, nil
}

func (s *PostgresStorage) initializeSchema(ctx context.Context) error {
	migrationSQL, err := migrations.ReadFile("migrations.sql")
	if err != nil {
		return fmt.Errorf("error reading migrations file: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, string(migrationSQL)); err != nil {
		return fmt.Errorf("error executing migrations: %w", err)
	}
	return nil
}

func (s *PostgresStorage) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	query := `SELECT value FROM kv_store WHERE namespace = $1 AND key = $2`

	var value []byte
	err := s.db.QueryRowContext(ctx, query, namespace, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error reading %s/%s: %w", namespace, key, err)
	}
	return value, nil
}

func (s *PostgresStorage) Put(ctx context.Context, namespace, key string, value []byte) error {
	query := `
		INSERT INTO kv_store (namespace, key, value, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (namespace, key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`

	if _, err := s.db.ExecContext(ctx, query, namespace, key, value); err != nil {
		return fmt.Errorf("error writing %s/%s: %w", namespace, key, err)
	}
	return nil
}

func (s *PostgresStorage) Delete(ctx context.Context, namespace, key string) error {
	query := `DELETE FROM kv_store WHERE namespace = $1 AND key = $2`

	if _, err := s.db.ExecContext(ctx, query, namespace, key); err != nil {
		return fmt.Errorf("error deleting %s/%s: %w", namespace, key, err)
	}
	return nil
}

func (s *PostgresStorage) AddKnowledge(ctx context.Context, entry *models.KnowledgeEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}

	query := `
		INSERT INTO knowledge (id, topic, content, keywords)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	err := s.db.QueryRowContext(ctx, query,
		entry.ID,
		entry.Topic,
		entry.Content,
		pq.Array(foldAll(entry.Keywords)),
	).Scan(&entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating knowledge entry: %w", err)
	}
	return nil
}

func (s *PostgresStorage) SearchKnowledge(ctx context.Context, terms []string, limit int) ([]models.KnowledgeEntry, error) {
	terms = foldAll(terms)
	if len(terms) == 0 {
		return nil, nil
	}
	patterns := make([]string, len(terms))
	for i, term := range terms {
		patterns[i] = "%" + term + "%"
	}
	if limit <= 0 {
		limit = 3
	}

	query := `
		SELECT id, topic, content, keywords, created_at
		FROM knowledge
		WHERE unaccent(content) ILIKE ANY($1) OR keywords && $2
		ORDER BY created_at DESC
		LIMIT $3`

	rows, err := s.db.QueryContext(ctx, query, pq.Array(patterns), pq.Array(terms), limit)
	if err != nil {
		return nil, fmt.Errorf("error querying knowledge: %w", err)
	}
	defer rows.Close()

	var entries []models.KnowledgeEntry
	for rows.Next() {
		var entry models.KnowledgeEntry
		err := rows.Scan(
			&entry.ID,
			&entry.Topic,
			&entry.Content,
			pq.Array(&entry.Keywords),
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning knowledge entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating knowledge: %w", err)
	}

	return entries, nil
}

// foldAll lowercases and strips accents, matching unaccent on the content.
func foldAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = normalize.Fold(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}
