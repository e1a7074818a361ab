// Package daterange turns date-like input into whole-day instant ranges.
package daterange

import (
	"strings"
	"time"
)

// ISOLayout is the ISO-8601 rendering used for range bounds.
const ISOLayout = "2006-01-02T15:04:05.000Z07:00"

// layouts without a zone are interpreted in the caller's location.
var localLayouts = []string{
	time.DateOnly,
	"2006-01-02T15:04:05",
	time.DateTime,
}

// Range is an inclusive pair of UTC instants.
type Range struct {
	Start time.Time
	End   time.Time
}

// FormatISO renders t as an ISO-8601 UTC instant with milliseconds.
func FormatISO(t time.Time) string {
	return t.UTC().Format(ISOLayout)
}

// StartISO renders Start as an ISO-8601 UTC instant.
func (r Range) StartISO() string {
	return FormatISO(r.Start)
}

// EndISO renders End as an ISO-8601 UTC instant.
func (r Range) EndISO() string {
	return FormatISO(r.End)
}

// Parse reads a date-like string. Inputs with an explicit offset keep their instant and are
// moved into loc; the rest are read as wall-clock time in loc.
func Parse(input string, loc *time.Location) (time.Time, bool) {
	input = strings.TrimSpace(input)
	if input == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}

	if t, err := time.Parse(time.RFC3339Nano, input); err == nil {
		return t.In(loc), true
	}

	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, input, loc); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

// ForDay returns the calendar day of input in loc, from 00:00:00.000 to 23:59:59.999,
// as UTC instants. ok is false when input is not a date.
func ForDay(input string, loc *time.Location) (Range, bool) {
	t, ok := Parse(input, loc)
	if !ok {
		return Range{}, false
	}

	return Day(t), true
}

// Day clamps t to its calendar day in t's own location.
func Day(t time.Time) Range {
	y, m, d := t.Date()
	loc := t.Location()

	return Range{
		Start: time.Date(y, m, d, 0, 0, 0, 0, loc).UTC(),
		End:   time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), loc).UTC(),
	}
}
