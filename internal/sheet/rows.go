package sheet

import (
	"github.com/mhersey/flyerdrop/internal/format"
	"github.com/mhersey/flyerdrop/internal/model"
)

// Columns is the fixed output column order.
var Columns = []string{
	"Date", "Event Name", "Type", "Start Time", "End Time",
	"Location", "Address", "Description", "Cost", "Link",
}

// FormatRow turns one normalized event into a ten-column display row.
// sourceRef lands verbatim in the Link column; it may be empty when the
// flyer upload failed.
func FormatRow(ev model.Event, sourceRef string, policy format.CostPolicy) []string {
	return []string{
		format.Date(ev.StartDay),
		ev.Title,
		ev.Type,
		format.Clock(ev.StartTime),
		format.Clock(ev.EndTime),
		ev.Location,
		ev.Address,
		ev.Description,
		format.Cost(ev.Cost, policy),
		sourceRef,
	}
}
