// Package format holds the display formatters that turn raw extracted field
// values into the strings written to the spreadsheet. Every function is
// total: unparseable input falls back to the original string, never an error.
package format

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// CostPolicy selects the sentinel written when the extractor returned no cost
// value at all.
type CostPolicy string

const (
	// CostPolicyUnknown writes the unknown-cost marker for a missing cost.
	CostPolicyUnknown CostPolicy = "unknown"
	// CostPolicyFree writes "Free" for a missing cost.
	CostPolicyFree CostPolicy = "free"
)

// UnknownCostMarker is what CostPolicyUnknown writes for a missing cost. It
// is deliberately distinct from both "Free" and any dollar amount.
const UnknownCostMarker = "Unknown"

// ParseCostPolicy maps a config string to a CostPolicy, defaulting to unknown.
func ParseCostPolicy(s string) CostPolicy {
	if strings.EqualFold(strings.TrimSpace(s), string(CostPolicyFree)) {
		return CostPolicyFree
	}
	return CostPolicyUnknown
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-1-2",
	"01/02/2006",
	"1/2/2006",
	"January 2, 2006",
	"Jan 2, 2006",
}

// Date formats a calendar date as zero-padded MM/DD/YYYY. A nil value
// formats as "". An unparseable value is echoed back unchanged so partial
// model output still lands in the sheet.
func Date(s *string) string {
	if s == nil {
		return ""
	}
	raw := strings.TrimSpace(*s)
	if raw == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("01/02/2006")
		}
	}
	return *s
}

var (
	twelveHourRe     = regexp.MustCompile(`(?i)^\d{1,2}:\d{2}\s*(AM|PM)$`)
	twentyFourHourRe = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
)

// Clock formats a time of day as H:MM AM/PM. A nil value formats as "".
// A value already in 12-hour form is returned upper-cased; a 24-hour HH:mm
// value is converted. Anything else is echoed back trimmed.
func Clock(s *string) string {
	if s == nil {
		return ""
	}
	raw := strings.TrimSpace(*s)
	if twelveHourRe.MatchString(raw) {
		return strings.ToUpper(raw)
	}
	m := twentyFourHourRe.FindStringSubmatch(raw)
	if m == nil {
		return raw
	}
	hour, _ := strconv.Atoi(m[1])
	if hour > 23 {
		return raw
	}
	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}
	switch {
	case hour == 0:
		hour = 12
	case hour > 12:
		hour -= 12
	}
	return fmt.Sprintf("%d:%s %s", hour, m[2], suffix)
}

var amountRe = regexp.MustCompile(`\d+(\.\d+)?`)

// Cost formats a cost value. A nil value formats as the policy's sentinel.
// Free-ish values ("free" anywhere in the string, "0", "$0") become "Free",
// a value already carrying a dollar sign is kept verbatim, and otherwise the
// first numeric substring is prefixed with "$". A value with no number in it
// is echoed back unchanged rather than dropped.
func Cost(s *string, policy CostPolicy) string {
	if s == nil {
		if policy == CostPolicyFree {
			return "Free"
		}
		return UnknownCostMarker
	}
	raw := strings.TrimSpace(*s)
	if strings.Contains(strings.ToLower(raw), "free") || raw == "0" || raw == "$0" {
		return "Free"
	}
	if strings.HasPrefix(raw, "$") {
		return raw
	}
	if m := amountRe.FindString(raw); m != "" {
		return "$" + m
	}
	return *s
}
