package models

import "time"

// AttendanceBlock marks a conversation as handled by a human operator.
type AttendanceBlock struct {
	Phone     string    `json:"phone"`
	BlockedAt time.Time `json:"blocked_at"`
	BlockedBy string    `json:"blocked_by"`
}

// AttendanceStats are the aggregate counters exposed for operations
type AttendanceStats struct {
	TotalUsers   int `json:"total_users"`
	ActiveBlocks int `json:"active_blocks"`
	Leads        int `json:"leads"`
}
