package sheet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/mhersey/flyerdrop/internal/format"
	"github.com/mhersey/flyerdrop/internal/model"
)

func strPtr(s string) *string { return &s }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeAppender struct {
	calls [][][]string
	err   error
}

func (f *fakeAppender) Append(_ context.Context, _, _ string, rows [][]string) (string, error) {
	f.calls = append(f.calls, rows)
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("Sheet1!A1:J%d", len(rows)), nil
}

func TestFormatRowColumns(t *testing.T) {
	ev := model.Event{
		Title:       "Harvest Fair",
		Address:     "400 Main St",
		Location:    "Downtown",
		Type:        "Market",
		StartDay:    strPtr("2026-10-03"),
		StartTime:   strPtr("10:00"),
		EndDay:      strPtr("2026-10-03"),
		EndTime:     strPtr("16:00"),
		Description: "Local vendors and live music",
		Cost:        strPtr("free"),
	}
	row := FormatRow(ev, "https://cdn.example.com/flyers/abc.jpg", format.CostPolicyUnknown)

	want := []string{
		"10/03/2026", "Harvest Fair", "Market", "10:00 AM", "4:00 PM",
		"Downtown", "400 Main St", "Local vendors and live music", "Free",
		"https://cdn.example.com/flyers/abc.jpg",
	}
	if len(row) != len(Columns) {
		t.Fatalf("row has %d columns, want %d", len(row), len(Columns))
	}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("column %s = %q, want %q", Columns[i], row[i], want[i])
		}
	}
}

func TestFormatRowEmptyEvent(t *testing.T) {
	row := FormatRow(model.Event{}, "", format.CostPolicyUnknown)
	for i, col := range row {
		if Columns[i] == "Cost" {
			if col != format.UnknownCostMarker {
				t.Errorf("cost column = %q, want %q", col, format.UnknownCostMarker)
			}
			continue
		}
		if col != "" {
			t.Errorf("column %s = %q, want empty", Columns[i], col)
		}
	}
}

func TestAppendEventsOrdering(t *testing.T) {
	e1 := model.Event{Title: "First"}
	e2 := model.Event{Title: "Second"}
	e3 := model.Event{Title: "Third"}
	groups := []model.EventGroup{
		{Events: []model.Event{e1, e2}, SourceRef: "r1"},
		{Events: nil, SourceRef: "r2"},
		{Events: []model.Event{e3}, SourceRef: "r3"},
	}

	fake := &fakeAppender{}
	w := NewWriter(fake, "sheet-id", "", format.CostPolicyUnknown, discardLogger())

	n, err := w.AppendEvents(context.Background(), groups)
	if err != nil {
		t.Fatalf("append events: %v", err)
	}
	if n != 3 {
		t.Errorf("rows appended = %d, want 3", n)
	}
	if len(fake.calls) != 1 {
		t.Fatalf("append calls = %d, want exactly 1", len(fake.calls))
	}

	rows := fake.calls[0]
	wantTitles := []string{"First", "Second", "Third"}
	wantRefs := []string{"r1", "r1", "r3"}
	for i, row := range rows {
		if row[1] != wantTitles[i] {
			t.Errorf("row %d title = %q, want %q", i, row[1], wantTitles[i])
		}
		if row[9] != wantRefs[i] {
			t.Errorf("row %d link = %q, want %q", i, row[9], wantRefs[i])
		}
	}
}

func TestAppendEventsEmptyBatchIsNoOp(t *testing.T) {
	fake := &fakeAppender{}
	w := NewWriter(fake, "sheet-id", "", format.CostPolicyUnknown, discardLogger())

	for _, groups := range [][]model.EventGroup{
		nil,
		{},
		{{SourceRef: "r1"}, {SourceRef: "r2"}},
	} {
		n, err := w.AppendEvents(context.Background(), groups)
		if err != nil {
			t.Fatalf("append events: %v", err)
		}
		if n != 0 {
			t.Errorf("rows appended = %d, want 0", n)
		}
	}
	if len(fake.calls) != 0 {
		t.Errorf("append calls = %d, want 0", len(fake.calls))
	}
}

func TestAppendEventsNotConfigured(t *testing.T) {
	fake := &fakeAppender{}
	w := NewWriter(fake, "", "", format.CostPolicyUnknown, discardLogger())

	_, err := w.AppendEvents(context.Background(), []model.EventGroup{
		{Events: []model.Event{{Title: "X"}}, SourceRef: "r1"},
	})
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}
	if len(fake.calls) != 0 {
		t.Errorf("append calls = %d, want 0 when not configured", len(fake.calls))
	}
}

func TestAppendEventsPropagatesAPIError(t *testing.T) {
	apiErr := errors.New("quota exceeded")
	fake := &fakeAppender{err: apiErr}
	w := NewWriter(fake, "sheet-id", "", format.CostPolicyUnknown, discardLogger())

	_, err := w.AppendEvents(context.Background(), []model.EventGroup{
		{Events: []model.Event{{Title: "X"}}, SourceRef: "r1"},
	})
	if !errors.Is(err, apiErr) {
		t.Fatalf("err = %v, want wrapped quota error", err)
	}
}
