package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mhersey/flyerdrop/internal/model"
	"github.com/mhersey/flyerdrop/internal/store"
)

const defaultIngestListLimit = 50

// IngestLogHandler exposes the ingest bookkeeping log for debugging.
type IngestLogHandler struct {
	ingests *store.IngestStore
	logger  *slog.Logger
}

func NewIngestLogHandler(ingests *store.IngestStore, logger *slog.Logger) *IngestLogHandler {
	return &IngestLogHandler{ingests: ingests, logger: logger}
}

func (h *IngestLogHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultIngestListLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 500 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be 1-500"})
			return
		}
		limit = n
	}

	ingests, err := h.ingests.ListRecent(limit)
	if err != nil {
		h.logger.Error("list ingests", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list ingests"})
		return
	}
	if ingests == nil {
		ingests = []model.Ingest{}
	}
	writeJSON(w, http.StatusOK, ingests)
}

func (h *IngestLogHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	ing, err := h.ingests.GetByID(id)
	if err != nil {
		h.logger.Error("get ingest", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get ingest"})
		return
	}
	if ing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "ingest not found"})
		return
	}

	atts, err := h.ingests.ListAttachments(id)
	if err != nil {
		h.logger.Error("list ingest attachments", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get ingest"})
		return
	}
	if atts == nil {
		atts = []model.IngestAttachment{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ingest":      ing,
		"attachments": atts,
	})
}
