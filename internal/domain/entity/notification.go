package entity

import "time"

// Notification is one inbox row for a single recipient
type Notification struct {
	ID            int64      `json:"id"`
	RecipientKind string     `json:"recipient_kind"`
	RecipientID   int64      `json:"recipient_id"`
	Title         string     `json:"title"`
	Message       string     `json:"message"`
	ReadAt        *time.Time `json:"read_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}
