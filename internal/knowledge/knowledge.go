// Package knowledge builds the knowledge context added to prompts: a static
// description plus rows of the knowledge table matching the message terms.
package knowledge

import (
	"context"
	"strings"
	"unicode"

	"github.com/xaenox/attendant-bot/internal/normalize"
	"github.com/xaenox/attendant-bot/internal/storage"
	"go.uber.org/zap"
)

const (
	minTermLength  = 4
	maxTerms       = 8
	defaultResults = 3
)

var stopwords = map[string]struct{}{
	"para": {}, "como": {}, "qual": {}, "quais": {}, "quero": {}, "voces": {},
	"voce": {}, "sobre": {}, "mais": {}, "esse": {}, "essa": {}, "isso": {},
	"tenho": {}, "gostaria": {}, "preciso": {}, "saber": {}, "pode": {},
	"obrigado": {}, "obrigada": {}, "favor": {}, "aqui": {}, "muito": {},
}

type Base struct {
	store   storage.KnowledgeStore
	results int
	logger  *zap.Logger
}

// NewBase returns a knowledge base. store may be nil, in which case only the
// static text is used.
func NewBase(store storage.KnowledgeStore, results int, logger *zap.Logger) *Base {
	if results <= 0 {
		results = defaultResults
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Base{store: store, results: results, logger: logger}
}

// Context returns the static text followed by the entries matching message.
// Lookup failures degrade to the static text.
func (b *Base) Context(ctx context.Context, message string) string {
	var sb strings.Builder
	sb.WriteString(StaticText)

	if b.store == nil {
		return sb.String()
	}
	terms := Terms(message)
	if len(terms) == 0 {
		return sb.String()
	}

	entries, err := b.store.SearchKnowledge(ctx, terms, b.results)
	if err != nil {
		b.logger.Warn("Knowledge lookup failed", zap.Error(err), zap.Strings("terms", terms))
		return sb.String()
	}
	for _, entry := range entries {
		sb.WriteString("\n\n[")
		sb.WriteString(entry.Topic)
		sb.WriteString("] ")
		sb.WriteString(entry.Content)
	}
	return sb.String()
}

// Terms extracts the searchable words of a message.
func Terms(message string) []string {
	words := strings.FieldsFunc(normalize.Fold(message), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]struct{}, len(words))
	terms := make([]string, 0, len(words))
	for _, word := range words {
		if len([]rune(word)) < minTermLength {
			continue
		}
		if _, stop := stopwords[word]; stop {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		terms = append(terms, word)
		if len(terms) == maxTerms {
			break
		}
	}
	return terms
}

// Seed copies the default entries into store.
func Seed(ctx context.Context, store storage.KnowledgeStore) error {
	for _, entry := range DefaultEntries {
		entry := entry
		if err := store.AddKnowledge(ctx, &entry); err != nil {
			return err
		}
	}
	return nil
}
