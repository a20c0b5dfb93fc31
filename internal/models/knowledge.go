package models

import "time"

// KnowledgeEntry is a row of the knowledge table used to enrich prompts
type KnowledgeEntry struct {
	ID        string    `json:"id"`
	Topic     string    `json:"topic"`
	Content   string    `json:"content"`
	Keywords  []string  `json:"keywords"`
	CreatedAt time.Time `json:"created_at"`
}
