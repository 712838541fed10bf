package sheet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mhersey/flyerdrop/internal/format"
	"github.com/mhersey/flyerdrop/internal/model"
)

// ErrNotConfigured is returned when no spreadsheet ID has been set. It is
// raised before any row is formatted.
var ErrNotConfigured = errors.New("sheet: spreadsheet ID not configured")

// appender is the slice of the Sheets client the writer needs; narrowed for
// tests.
type appender interface {
	Append(ctx context.Context, spreadsheetID, rangeA1 string, rows [][]string) (string, error)
}

// Writer collects the event groups of one inbound request and appends them
// to the destination spreadsheet in a single write.
type Writer struct {
	client        appender
	spreadsheetID string
	rangeA1       string
	policy        format.CostPolicy
	logger        *slog.Logger
}

func NewWriter(client appender, spreadsheetID, rangeA1 string, policy format.CostPolicy, logger *slog.Logger) *Writer {
	if rangeA1 == "" {
		rangeA1 = "Sheet1!A:J"
	}
	return &Writer{
		client:        client,
		spreadsheetID: spreadsheetID,
		rangeA1:       rangeA1,
		policy:        policy,
		logger:        logger,
	}
}

// AppendEvents formats every event in every group, preserving group order and
// per-group event order, and issues exactly one append call. An empty batch
// is a logged no-op. Returns the number of rows appended.
func (w *Writer) AppendEvents(ctx context.Context, groups []model.EventGroup) (int, error) {
	if w.spreadsheetID == "" {
		return 0, ErrNotConfigured
	}

	var rows [][]string
	for _, g := range groups {
		for _, ev := range g.Events {
			rows = append(rows, FormatRow(ev, g.SourceRef, w.policy))
		}
	}
	if len(rows) == 0 {
		w.logger.Info("no events to append, skipping spreadsheet write")
		return 0, nil
	}

	updatedRange, err := w.client.Append(ctx, w.spreadsheetID, w.rangeA1, rows)
	if err != nil {
		return 0, fmt.Errorf("append %d rows: %w", len(rows), err)
	}

	w.logger.Info("appended rows to spreadsheet",
		slog.Int("rows", len(rows)),
		slog.String("updated_range", updatedRange))
	return len(rows), nil
}
