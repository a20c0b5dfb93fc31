package storage

import (
	"context"
	"errors"

	"github.com/xaenox/attendant-bot/internal/models"
)

var ErrNotFound = errors.New("not found")

// Namespaces used in the key-value store
const (
	NamespaceSession = "session"
)

type Storage interface {
	KeyValueStore
	KnowledgeStore
	Close() error
}

// KeyValueStore persists small values such as session bookkeeping.
// Attendance and history state are never stored here.
type KeyValueStore interface {
	Get(ctx context.Context, namespace, key string) ([]byte, error)
	Put(ctx context.Context, namespace, key string, value []byte) error
	Delete(ctx context.Context, namespace, key string) error
}

type KnowledgeStore interface {
	// SearchKnowledge returns entries whose content or keywords match any of
	// the terms, case-insensitively.
	SearchKnowledge(ctx context.Context, terms []string, limit int) ([]models.KnowledgeEntry, error)
	AddKnowledge(ctx context.Context, entry *models.KnowledgeEntry) error
}
