package models

import "time"

// DefaultUserName is used until the transport reports a display name.
const DefaultUserName = "Cliente"

// InboundMessage is a transport-neutral text message event
type InboundMessage struct {
	ID                 string    `json:"id"`
	ChatPhone          string    `json:"chat_phone"`
	SenderPhone        string    `json:"sender_phone"`
	IsFromSelf         bool      `json:"is_from_self"`
	IsGroupOrBroadcast bool      `json:"is_group_or_broadcast"`
	Text               string    `json:"text"`
	PushName           string    `json:"push_name"`
	ReceivedAt         time.Time `json:"received_at"`
}

// UserRecord is the per-phone view of a conversation peer.
// BlockedAt is projected from the attendance block store on read.
type UserRecord struct {
	Phone              string     `json:"phone"`
	Name               string     `json:"name"`
	FirstInteractionAt time.Time  `json:"first_interaction_at"`
	LastInteractionAt  time.Time  `json:"last_interaction_at"`
	IsNewLead          bool       `json:"is_new_lead"`
	MessageCount       int        `json:"message_count"`
	BlockedAt          *time.Time `json:"blocked_at,omitempty"`
	OwnerMessageCount  int        `json:"owner_message_count"`

	// Prospecting metadata, advisory only
	IsOwnerProspecting bool            `json:"is_owner_prospecting"`
	InterlocutorType   string          `json:"interlocutor_type,omitempty"`
	BusinessSegment    string          `json:"business_segment,omitempty"`
	ProspectionStage   string          `json:"prospection_stage,omitempty"`
	LastResponseTime   time.Duration   `json:"last_response_time"`
	ResponseTimes      []time.Duration `json:"response_times,omitempty"`
}

// Role of a conversation entry
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// HistoryEntry is one turn of a conversation, also used as an LLM message
type HistoryEntry struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Intent selects the conversation flow used to answer a message
type Intent string

const (
	IntentProspect Intent = "PROSPECT"
	IntentSupport  Intent = "SUPPORT"
	IntentGeneral  Intent = "GENERAL"
)
