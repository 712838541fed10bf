package model

// RawEvent is one candidate event as returned by the vision extraction call.
// Nullable fields are pointers; the extractor leaves them nil when the flyer
// does not show a value. A RawEvent is never modified after the extractor
// returns it.
type RawEvent struct {
	Title       string  `json:"title"`
	Address     string  `json:"address"`
	Location    string  `json:"location"`
	Type        string  `json:"type"`
	StartDay    *string `json:"startDay"`
	StartTime   *string `json:"startTime"`
	EndDay      *string `json:"endDay"`
	EndTime     *string `json:"endTime"`
	Description string  `json:"description"`
	Cost        *string `json:"cost"`
}

// Event is a RawEvent with temporal gaps resolved by normalize.Normalize.
// After normalization StartDay and EndDay are both nil or both set, and
// EndTime is set whenever StartTime is.
type Event struct {
	Title       string
	Address     string
	Location    string
	Type        string
	StartDay    *string
	StartTime   *string
	EndDay      *string
	EndTime     *string
	Description string
	Cost        *string
}

// EventGroup pairs the normalized events of one attachment with the blob
// reference of the flyer they came from. SourceRef is empty when the upload
// failed or blob storage is not configured.
type EventGroup struct {
	Events    []Event
	SourceRef string
}
