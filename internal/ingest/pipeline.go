// Package ingest runs the per-request pipeline: fan out over a message's
// image attachments, extract and normalize events, and hand everything to
// the sheet writer as one batch.
package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/mhersey/flyerdrop/internal/mail"
	"github.com/mhersey/flyerdrop/internal/metrics"
	"github.com/mhersey/flyerdrop/internal/model"
	"github.com/mhersey/flyerdrop/internal/normalize"
	"github.com/mhersey/flyerdrop/internal/store"
)

// Extractor turns one image into raw candidate events.
type Extractor interface {
	Extract(ctx context.Context, image []byte, mimeType string) ([]model.RawEvent, error)
}

// Uploader stores one image and returns its public reference. An empty
// reference with a nil error means upload is not configured.
type Uploader interface {
	Upload(ctx context.Context, data []byte, filename, contentType string) (string, error)
}

// RowWriter appends all groups of one request in a single destination write.
type RowWriter interface {
	AppendEvents(ctx context.Context, groups []model.EventGroup) (int, error)
}

// AttachmentFailure names an attachment that produced no rows and why.
type AttachmentFailure struct {
	Filename string `json:"filename"`
	Reason   string `json:"reason"`
}

// Summary is the coarse per-request outcome reported to the webhook caller
// and the ingest log. It never exposes per-event detail.
type Summary struct {
	IngestID        int64               `json:"ingest_id"`
	Attachments     int                 `json:"attachments"`
	EventsExtracted int                 `json:"events_extracted"`
	RowsAppended    int                 `json:"rows_appended"`
	Status          model.IngestStatus  `json:"status"`
	Failures        []AttachmentFailure `json:"failures,omitempty"`
}

// Pipeline wires the collaborators together. All state is request-scoped;
// the pipeline itself is safe for concurrent use.
type Pipeline struct {
	extractor Extractor
	uploader  Uploader
	writer    RowWriter
	ingests   *store.IngestStore
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func New(extractor Extractor, uploader Uploader, writer RowWriter, ingests *store.IngestStore, m *metrics.Metrics, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		extractor: extractor,
		uploader:  uploader,
		writer:    writer,
		ingests:   ingests,
		metrics:   m,
		logger:    logger,
	}
}

// attachmentOutcome is the explicit per-attachment result collected by the
// fan-out; failures here are isolated, never fatal to the batch.
type attachmentOutcome struct {
	filename   string
	sourceRef  string
	eventCount int
	err        error
}

// Process handles one inbound message end to end. The returned error is
// non-nil only for batch-append failures; per-attachment failures are
// reported through the summary.
func (p *Pipeline) Process(ctx context.Context, msg *mail.InboundMessage) (*Summary, error) {
	images, skipped := msg.ImageAttachments()
	for _, sk := range skipped {
		p.logger.Warn("skipping attachment",
			slog.String("filename", sk.Name),
			slog.String("reason", sk.Reason))
	}

	rec, err := p.ingests.Create(msg.MessageID, msg.From, msg.Subject, len(images))
	if err != nil {
		return nil, fmt.Errorf("record ingest: %w", err)
	}

	summary := &Summary{IngestID: rec.ID, Attachments: len(images)}
	if len(images) == 0 {
		p.logger.Info("inbound message has no image attachments",
			slog.String("message_id", msg.MessageID))
		summary.Status = model.IngestStatusEmpty
		p.finish(rec.ID, summary, "")
		return summary, nil
	}

	groups := make([]model.EventGroup, len(images))
	outcomes := make([]attachmentOutcome, len(images))

	var g errgroup.Group
	for i, att := range images {
		g.Go(func() error {
			groups[i], outcomes[i] = p.processAttachment(ctx, att)
			return nil
		})
	}
	g.Wait()

	for _, oc := range outcomes {
		if oc.err != nil {
			p.metrics.AttachmentsTotal.WithLabelValues("failed").Inc()
			summary.Failures = append(summary.Failures, AttachmentFailure{
				Filename: oc.filename,
				Reason:   oc.err.Error(),
			})
			continue
		}
		p.metrics.AttachmentsTotal.WithLabelValues("extracted").Inc()
		summary.EventsExtracted += oc.eventCount
	}
	p.metrics.EventsExtracted.Add(float64(summary.EventsExtracted))

	rows, appendErr := p.writer.AppendEvents(ctx, groups)
	summary.RowsAppended = rows

	p.recordAttachments(rec.ID, outcomes)

	if appendErr != nil {
		summary.Status = model.IngestStatusFailed
		p.finish(rec.ID, summary, appendErr.Error())
		return summary, fmt.Errorf("append batch: %w", appendErr)
	}
	p.metrics.RowsAppended.Add(float64(rows))

	switch {
	case len(summary.Failures) == len(images):
		summary.Status = model.IngestStatusFailed
	case len(summary.Failures) > 0:
		summary.Status = model.IngestStatusPartial
	default:
		summary.Status = model.IngestStatusCompleted
	}
	p.finish(rec.ID, summary, "")
	return summary, nil
}

// processAttachment runs the extraction call with the flyer upload in
// flight alongside it. The upload result is joined before the group is
// assembled so no shared state is mutated from a detached task; a failed or
// unconfigured upload just leaves the group's source reference empty.
func (p *Pipeline) processAttachment(ctx context.Context, att mail.ImageAttachment) (model.EventGroup, attachmentOutcome) {
	refCh := make(chan string, 1)
	go func() {
		ref, err := p.uploader.Upload(ctx, att.Data, att.Name, att.ContentType)
		if err != nil {
			p.logger.Warn("flyer upload failed",
				slog.String("filename", att.Name),
				slog.String("error", err.Error()))
			refCh <- ""
			return
		}
		refCh <- ref
	}()

	raws, err := p.extractor.Extract(ctx, att.Data, att.ContentType)
	ref := <-refCh

	if err != nil {
		p.logger.Error("extraction failed",
			slog.String("filename", att.Name),
			slog.String("error", err.Error()))
		return model.EventGroup{SourceRef: ref}, attachmentOutcome{filename: att.Name, sourceRef: ref, err: err}
	}

	events := make([]model.Event, 0, len(raws))
	for _, raw := range raws {
		events = append(events, normalize.Normalize(raw))
	}
	p.logger.Info("extracted events from flyer",
		slog.String("filename", att.Name),
		slog.Int("events", len(events)))

	return model.EventGroup{Events: events, SourceRef: ref},
		attachmentOutcome{filename: att.Name, sourceRef: ref, eventCount: len(events)}
}

func (p *Pipeline) recordAttachments(ingestID int64, outcomes []attachmentOutcome) {
	for _, oc := range outcomes {
		status := model.AttachmentStatusExtracted
		errMsg := ""
		if oc.err != nil {
			status = model.AttachmentStatusFailed
			errMsg = oc.err.Error()
		}
		if err := p.ingests.AddAttachment(ingestID, oc.filename, oc.sourceRef, oc.eventCount, status, errMsg); err != nil {
			p.logger.Error("record attachment outcome", slog.String("error", err.Error()))
		}
	}
}

func (p *Pipeline) finish(ingestID int64, summary *Summary, errMsg string) {
	p.metrics.IngestsTotal.WithLabelValues(string(summary.Status)).Inc()
	if err := p.ingests.Complete(ingestID, summary.Status, summary.EventsExtracted, summary.RowsAppended, errMsg); err != nil {
		p.logger.Error("record ingest outcome", slog.String("error", err.Error()))
	}
}
