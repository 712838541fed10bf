package model

import "time"

type IngestStatus string

const (
	IngestStatusCompleted IngestStatus = "completed"
	IngestStatusPartial   IngestStatus = "partial"
	IngestStatusFailed    IngestStatus = "failed"
	IngestStatusEmpty     IngestStatus = "empty"
)

// Ingest is the bookkeeping record for one inbound email.
type Ingest struct {
	ID              int64        `json:"id"`
	MessageID       string       `json:"message_id"`
	FromEmail       string       `json:"from_email"`
	Subject         string       `json:"subject"`
	AttachmentCount int          `json:"attachment_count"`
	EventCount      int          `json:"event_count"`
	RowCount        int          `json:"row_count"`
	Status          IngestStatus `json:"status"`
	ErrorMessage    string       `json:"error_message,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

type AttachmentStatus string

const (
	AttachmentStatusExtracted AttachmentStatus = "extracted"
	AttachmentStatusFailed    AttachmentStatus = "failed"
)

// IngestAttachment records the per-attachment outcome within one ingest.
type IngestAttachment struct {
	ID           int64            `json:"id"`
	IngestID     int64            `json:"ingest_id"`
	Filename     string           `json:"filename"`
	SourceRef    string           `json:"source_ref"`
	EventCount   int              `json:"event_count"`
	Status       AttachmentStatus `json:"status"`
	ErrorMessage string           `json:"error_message,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}
