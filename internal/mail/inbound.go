// Package mail parses Postmark inbound-webhook payloads into the attachments
// the ingest pipeline works on.
package mail

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// maxAttachmentSize caps decoded attachment size. Postmark itself rejects
// larger messages, so anything beyond this is malformed input.
const maxAttachmentSize = 10 << 20

// InboundMessage is the Postmark inbound webhook payload, narrowed to the
// fields this service reads.
type InboundMessage struct {
	From        string       `json:"From"`
	FromName    string       `json:"FromName"`
	Subject     string       `json:"Subject"`
	MessageID   string       `json:"MessageID"`
	TextBody    string       `json:"TextBody"`
	Attachments []Attachment `json:"Attachments"`
}

// Attachment is one attachment as delivered by Postmark, content still
// base64-encoded.
type Attachment struct {
	Name          string `json:"Name"`
	Content       string `json:"Content"`
	ContentType   string `json:"ContentType"`
	ContentLength int    `json:"ContentLength"`
}

// ImageAttachment is a decoded image ready for extraction and upload.
type ImageAttachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// SkippedAttachment names an attachment the pipeline will not process and
// why; the caller decides how to log it.
type SkippedAttachment struct {
	Name   string
	Reason string
}

// ParseInbound decodes a Postmark inbound webhook body.
func ParseInbound(r io.Reader) (*InboundMessage, error) {
	var msg InboundMessage
	if err := json.NewDecoder(r).Decode(&msg); err != nil {
		return nil, fmt.Errorf("decode inbound payload: %w", err)
	}
	return &msg, nil
}

// ImageAttachments decodes the message's image attachments, preserving
// attachment order. Non-image, oversized, and undecodable attachments are
// reported as skipped rather than failing the message.
func (m *InboundMessage) ImageAttachments() ([]ImageAttachment, []SkippedAttachment) {
	var images []ImageAttachment
	var skipped []SkippedAttachment

	for _, att := range m.Attachments {
		if !strings.HasPrefix(strings.ToLower(att.ContentType), "image/") {
			skipped = append(skipped, SkippedAttachment{Name: att.Name, Reason: "not an image: " + att.ContentType})
			continue
		}
		data, err := base64.StdEncoding.DecodeString(att.Content)
		if err != nil {
			skipped = append(skipped, SkippedAttachment{Name: att.Name, Reason: "undecodable content: " + err.Error()})
			continue
		}
		if len(data) > maxAttachmentSize {
			skipped = append(skipped, SkippedAttachment{Name: att.Name, Reason: fmt.Sprintf("too large: %d bytes", len(data))})
			continue
		}
		images = append(images, ImageAttachment{
			Name:        att.Name,
			ContentType: att.ContentType,
			Data:        data,
		})
	}
	return images, skipped
}
