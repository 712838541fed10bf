// Package server wires the HTTP surface: the inbound email webhook, the
// ingest log API, health, and metrics.
package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mhersey/flyerdrop/internal/handler"
	"github.com/mhersey/flyerdrop/internal/ingest"
	"github.com/mhersey/flyerdrop/internal/metrics"
	"github.com/mhersey/flyerdrop/internal/middleware"
	"github.com/mhersey/flyerdrop/internal/store"
)

type Server struct {
	db           *sql.DB
	inboundH     *handler.InboundHandler
	ingestLogH   *handler.IngestLogHandler
	webhookToken string
	registry     *prometheus.Registry
	logger       *slog.Logger
}

// Config holds the server's own settings; collaborators come in already
// constructed.
type Config struct {
	WebhookToken string
}

func New(db *sql.DB, cfg Config, extractor ingest.Extractor, uploader ingest.Uploader, writer ingest.RowWriter, logger *slog.Logger) *Server {
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	ingests := store.NewIngestStore(db)
	pipeline := ingest.New(extractor, uploader, writer, ingests, m, logger.With("component", "ingest"))

	return &Server{
		db:           db,
		inboundH:     handler.NewInboundHandler(pipeline, logger.With("component", "inbound")),
		ingestLogH:   handler.NewIngestLogHandler(ingests, logger.With("component", "ingest_log")),
		webhookToken: cfg.WebhookToken,
		registry:     registry,
		logger:       logger,
	}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	webhookAuth := middleware.WebhookAuth(s.webhookToken)
	mux.Handle("POST /webhooks/inbound", webhookAuth(http.HandlerFunc(s.inboundH.Receive)))

	mux.HandleFunc("GET /api/ingests", s.ingestLogH.List)
	mux.HandleFunc("GET /api/ingests/{id}", s.ingestLogH.Get)

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"status": "degraded", "error": "database unreachable"})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
