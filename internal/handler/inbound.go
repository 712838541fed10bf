package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mhersey/flyerdrop/internal/ingest"
	"github.com/mhersey/flyerdrop/internal/mail"
	"github.com/mhersey/flyerdrop/internal/sheet"
)

// Processor runs the ingest pipeline for one inbound message.
type Processor interface {
	Process(ctx context.Context, msg *mail.InboundMessage) (*ingest.Summary, error)
}

// InboundHandler receives Postmark inbound webhooks.
type InboundHandler struct {
	pipeline Processor
	logger   *slog.Logger
}

func NewInboundHandler(pipeline Processor, logger *slog.Logger) *InboundHandler {
	return &InboundHandler{pipeline: pipeline, logger: logger}
}

// Receive handles one forwarded email. The sender only ever sees a coarse
// success or failure; per-attachment detail stays in the summary and logs.
func (h *InboundHandler) Receive(w http.ResponseWriter, r *http.Request) {
	msg, err := mail.ParseInbound(r.Body)
	if err != nil {
		h.logger.Warn("rejecting malformed inbound payload", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}

	h.logger.Info("inbound email received",
		slog.String("message_id", msg.MessageID),
		slog.String("from", msg.From),
		slog.Int("attachments", len(msg.Attachments)))

	summary, err := h.pipeline.Process(r.Context(), msg)
	if err != nil {
		if errors.Is(err, sheet.ErrNotConfigured) {
			h.logger.Error("destination spreadsheet not configured")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "destination not configured"})
			return
		}
		h.logger.Error("ingest failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "ingest failed"})
		return
	}

	writeJSON(w, http.StatusOK, summary)
}
