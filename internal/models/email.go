package models

import "time"

type EmailStatus string

const (
	StatusPending    EmailStatus = "PENDING"
	StatusProcessing EmailStatus = "PROCESSING"
	StatusSent       EmailStatus = "SENT"
	StatusFailed     EmailStatus = "FAILED"
)

// EmailJob is one row of the email_queue outbox table.
// PostID is a weak reference used only to resolve an attachment.
type EmailJob struct {
	ID      int64  `json:"id"`
	To      string `json:"to_email"`
	Subject string `json:"subject"`
	Body    string `json:"body"`

	Status EmailStatus `json:"status"`
	PostID *int64      `json:"post_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
