package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mhersey/flyerdrop/internal/model"
)

// IngestStore records per-request ingestion outcomes.
type IngestStore struct {
	db *sql.DB
}

func NewIngestStore(db *sql.DB) *IngestStore {
	return &IngestStore{db: db}
}

func (s *IngestStore) Create(messageID, fromEmail, subject string, attachmentCount int) (*model.Ingest, error) {
	now := time.Now().UTC()
	result, err := s.db.Exec(
		`INSERT INTO ingests (message_id, from_email, subject, attachment_count, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		messageID, fromEmail, subject, attachmentCount, model.IngestStatusEmpty, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("create ingest: %w", err)
	}
	id, _ := result.LastInsertId()
	return &model.Ingest{
		ID:              id,
		MessageID:       messageID,
		FromEmail:       fromEmail,
		Subject:         subject,
		AttachmentCount: attachmentCount,
		Status:          model.IngestStatusEmpty,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// Complete records the final outcome of an ingest.
func (s *IngestStore) Complete(id int64, status model.IngestStatus, eventCount, rowCount int, errorMsg string) error {
	var errPtr *string
	if errorMsg != "" {
		errPtr = &errorMsg
	}
	_, err := s.db.Exec(
		`UPDATE ingests SET status = ?, event_count = ?, row_count = ?, error_message = ?, updated_at = ? WHERE id = ?`,
		status, eventCount, rowCount, errPtr, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("complete ingest %d: %w", id, err)
	}
	return nil
}

func (s *IngestStore) AddAttachment(ingestID int64, filename, sourceRef string, eventCount int, status model.AttachmentStatus, errorMsg string) error {
	var errPtr *string
	if errorMsg != "" {
		errPtr = &errorMsg
	}
	_, err := s.db.Exec(
		`INSERT INTO ingest_attachments (ingest_id, filename, source_ref, event_count, status, error_message, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ingestID, filename, sourceRef, eventCount, status, errPtr, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("add attachment record: %w", err)
	}
	return nil
}

func (s *IngestStore) GetByID(id int64) (*model.Ingest, error) {
	ing := &model.Ingest{}
	var errMsg sql.NullString
	err := s.db.QueryRow(
		`SELECT id, message_id, from_email, subject, attachment_count, event_count, row_count, status, error_message, created_at, updated_at
		 FROM ingests WHERE id = ?`, id,
	).Scan(&ing.ID, &ing.MessageID, &ing.FromEmail, &ing.Subject, &ing.AttachmentCount, &ing.EventCount, &ing.RowCount, &ing.Status, &errMsg, &ing.CreatedAt, &ing.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get ingest %d: %w", id, err)
	}
	ing.ErrorMessage = errMsg.String
	return ing, nil
}

func (s *IngestStore) ListRecent(limit int) ([]model.Ingest, error) {
	rows, err := s.db.Query(
		`SELECT id, message_id, from_email, subject, attachment_count, event_count, row_count, status, error_message, created_at, updated_at
		 FROM ingests ORDER BY created_at DESC, id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list ingests: %w", err)
	}
	defer rows.Close()

	var ingests []model.Ingest
	for rows.Next() {
		var ing model.Ingest
		var errMsg sql.NullString
		if err := rows.Scan(&ing.ID, &ing.MessageID, &ing.FromEmail, &ing.Subject, &ing.AttachmentCount, &ing.EventCount, &ing.RowCount, &ing.Status, &errMsg, &ing.CreatedAt, &ing.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan ingest: %w", err)
		}
		ing.ErrorMessage = errMsg.String
		ingests = append(ingests, ing)
	}
	return ingests, rows.Err()
}

func (s *IngestStore) ListAttachments(ingestID int64) ([]model.IngestAttachment, error) {
	rows, err := s.db.Query(
		`SELECT id, ingest_id, filename, source_ref, event_count, status, error_message, created_at
		 FROM ingest_attachments WHERE ingest_id = ? ORDER BY id`, ingestID,
	)
	if err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	defer rows.Close()

	var atts []model.IngestAttachment
	for rows.Next() {
		var att model.IngestAttachment
		var errMsg sql.NullString
		if err := rows.Scan(&att.ID, &att.IngestID, &att.Filename, &att.SourceRef, &att.EventCount, &att.Status, &errMsg, &att.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan attachment: %w", err)
		}
		att.ErrorMessage = errMsg.String
		atts = append(atts, att)
	}
	return atts, rows.Err()
}
