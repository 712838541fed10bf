// Package normalize fills temporal gaps on raw extracted events before they
// are formatted into spreadsheet rows.
package normalize

import (
	"log/slog"
	"strings"
	"time"

	"github.com/mhersey/flyerdrop/internal/model"
)

const (
	clockLayout     = "15:04"
	defaultDuration = 3 * time.Hour
)

// Normalize resolves missing temporal fields on one extracted event. A
// missing start day borrows the end day and vice versa, a missing start time
// borrows the end time, and a missing end time defaults to three hours after
// the start, wrapping past midnight. Fields absent on both sides stay absent;
// no date or time is ever invented from nothing. Normalize is idempotent.
func Normalize(raw model.RawEvent) model.Event {
	ev := model.Event{
		Title:       raw.Title,
		Address:     raw.Address,
		Location:    raw.Location,
		Type:        raw.Type,
		StartDay:    raw.StartDay,
		StartTime:   raw.StartTime,
		EndDay:      raw.EndDay,
		EndTime:     raw.EndTime,
		Description: raw.Description,
		Cost:        raw.Cost,
	}

	if ev.StartDay == nil {
		ev.StartDay = ev.EndDay
	}
	if ev.EndDay == nil {
		ev.EndDay = ev.StartDay
	}
	if ev.StartTime == nil {
		ev.StartTime = ev.EndTime
	}
	if ev.EndTime == nil && ev.StartTime != nil {
		start, err := time.Parse(clockLayout, strings.TrimSpace(*ev.StartTime))
		if err != nil {
			// Non-fatal: the row keeps its start time and an empty end time.
			slog.Warn("cannot derive end time from start time",
				slog.String("start_time", *ev.StartTime),
				slog.String("error", err.Error()))
		} else {
			end := start.Add(defaultDuration).Format(clockLayout)
			ev.EndTime = &end
		}
	}

	return ev
}
