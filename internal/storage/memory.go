package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xaenox/attendant-bot/internal/models"
	"github.com/xaenox/attendant-bot/internal/normalize"
)

type MemoryStorage struct {
	mu        sync.RWMutex
	values    map[string][]byte
	knowledge []models.KnowledgeEntry
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		values: make(map[string][]byte),
	}
}

func kvKey(namespace, key string) string {
	return namespace + "/" + key
}

func (s *MemoryStorage) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[kvKey(namespace, key)]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), value...), nil
}

func (s *MemoryStorage) Put(ctx context.Context, namespace, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[kvKey(namespace, key)] = append([]byte(nil), value...)
	return nil
}

func (s *MemoryStorage) Delete(ctx context.Context, namespace, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, kvKey(namespace, key))
	return nil
}

func (s *MemoryStorage) AddKnowledge(ctx context.Context, entry *models.KnowledgeEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	s.knowledge = append(s.knowledge, *entry)
	return nil
}

func (s *MemoryStorage) SearchKnowledge(ctx context.Context, terms []string, limit int) ([]models.KnowledgeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found []models.KnowledgeEntry
	for _, entry := range s.knowledge {
		if matchesEntry(entry, terms) {
			found = append(found, entry)
		}
	}
	sort.SliceStable(found, func(i, j int) bool {
		return found[i].CreatedAt.After(found[j].CreatedAt)
	})
	if limit > 0 && len(found) > limit {
		found = found[:limit]
	}
	return found, nil
}

// matchesEntry compares folded text, so accents never prevent a match.
func matchesEntry(entry models.KnowledgeEntry, terms []string) bool {
	content := normalize.Fold(entry.Content)
	for _, term := range terms {
		term = normalize.Fold(term)
		if term == "" {
			continue
		}
		if strings.Contains(content, term) {
			return true
		}
		for _, keyword := range entry.Keywords {
			if normalize.Fold(keyword) == term {
				return true
			}
		}
	}
	return false
}

func (s *MemoryStorage) Close() error {
	// Nothing to close for in-memory storage
	return nil
}
