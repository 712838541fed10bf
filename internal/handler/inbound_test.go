package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mhersey/flyerdrop/internal/ingest"
	"github.com/mhersey/flyerdrop/internal/mail"
	"github.com/mhersey/flyerdrop/internal/model"
	"github.com/mhersey/flyerdrop/internal/sheet"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubProcessor struct {
	summary *ingest.Summary
	err     error
	gotMsg  *mail.InboundMessage
}

func (s *stubProcessor) Process(_ context.Context, msg *mail.InboundMessage) (*ingest.Summary, error) {
	s.gotMsg = msg
	return s.summary, s.err
}

func TestReceive(t *testing.T) {
	proc := &stubProcessor{summary: &ingest.Summary{
		IngestID:        7,
		Attachments:     1,
		EventsExtracted: 2,
		RowsAppended:    2,
		Status:          model.IngestStatusCompleted,
	}}
	h := NewInboundHandler(proc, discardLogger())

	body := `{"From":"a@b.c","Subject":"Fwd: events","MessageID":"m1","Attachments":[]}`
	req := httptest.NewRequest(http.MethodPost, "/webhooks/inbound", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Receive(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if proc.gotMsg == nil || proc.gotMsg.MessageID != "m1" {
		t.Errorf("processor got %+v", proc.gotMsg)
	}

	var got ingest.Summary
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.RowsAppended != 2 || got.Status != model.IngestStatusCompleted {
		t.Errorf("summary = %+v", got)
	}
}

func TestReceiveBadPayload(t *testing.T) {
	proc := &stubProcessor{}
	h := NewInboundHandler(proc, discardLogger())

	req := httptest.NewRequest(http.MethodPost, "/webhooks/inbound", strings.NewReader("{nope"))
	rec := httptest.NewRecorder()
	h.Receive(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if proc.gotMsg != nil {
		t.Error("pipeline should not run for malformed payloads")
	}
}

func TestReceiveNotConfigured(t *testing.T) {
	proc := &stubProcessor{err: sheet.ErrNotConfigured}
	h := NewInboundHandler(proc, discardLogger())

	req := httptest.NewRequest(http.MethodPost, "/webhooks/inbound", strings.NewReader(`{"MessageID":"m1"}`))
	rec := httptest.NewRecorder()
	h.Receive(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "not configured") {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestReceiveAppendFailure(t *testing.T) {
	proc := &stubProcessor{err: errors.New("sheets API returned status 500")}
	h := NewInboundHandler(proc, discardLogger())

	req := httptest.NewRequest(http.MethodPost, "/webhooks/inbound", strings.NewReader(`{"MessageID":"m1"}`))
	rec := httptest.NewRecorder()
	h.Receive(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}
