package importer

import (
	"math"
	"strconv"
	"strings"
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"
)

const (
	serialDateMin = 1000
	serialDateMax = 100000
)

// Spreadsheet serial day zero. Matches the 1900 leap-year bug, so serial
// 60 would be the nonexistent 1900-02-29.
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"20060102",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"Mon, Jan 2, 2006",
	"Monday, January 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
	"02-Jan-2006",
	"02-Jan-06",
	time.RFC1123,
	time.RFC1123Z,
	time.UnixDate,
}

// ParseDate parses a cell into a calendar date.
func ParseDate(v Value) (openapi_types.Date, bool) {
	t, ok := ParseTimestamp(v)
	if !ok {
		return openapi_types.Date{}, false
	}
	return dateOnly(t), true
}

// ParseTimestamp accepts spreadsheet serial numbers in (1000, 100000),
// ISO-8601 and common English date strings, then MM/DD/YYYY and DD/MM/YYYY
// with '/', '-' or '.' separators.
func ParseTimestamp(v Value) (time.Time, bool) {
	switch v.Kind() {
	case ValueNumber:
		return serialDate(v.num)
	case ValueString:
	default:
		return time.Time{}, false
	}

	raw := strings.TrimSpace(v.str)
	if raw == "" {
		return time.Time{}, false
	}

	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		if t, ok := serialDate(n); ok {
			return t, true
		}
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}

	return parseNumericDate(raw)
}

func serialDate(n float64) (time.Time, bool) {
	if math.IsNaN(n) || n <= serialDateMin || n >= serialDateMax {
		return time.Time{}, false
	}
	return serialEpoch.AddDate(0, 0, int(math.Floor(n))), true
}

func parseNumericDate(raw string) (time.Time, bool) {
	token := raw
	if i := strings.IndexAny(token, " T"); i > 0 {
		token = token[:i]
	}
	parts := strings.FieldsFunc(token, func(r rune) bool {
		return r == '/' || r == '-' || r == '.'
	})
	if len(parts) != 3 {
		return time.Time{}, false
	}

	first, err1 := strconv.Atoi(parts[0])
	second, err2 := strconv.Atoi(parts[1])
	year, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}
	switch len(parts[2]) {
	case 2:
		year += 2000
	case 4:
	default:
		return time.Time{}, false
	}

	if t, ok := calendarDate(year, first, second); ok {
		return t, true
	}
	return calendarDate(year, second, first)
}

func calendarDate(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Month() != time.Month(month) || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

// dateOnly keeps the calendar date as written, ignoring any offset.
func dateOnly(t time.Time) openapi_types.Date {
	return openapi_types.Date{Time: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

func normalizeDate(d *openapi_types.Date) *openapi_types.Date {
	if d == nil {
		return nil
	}
	out := dateOnly(d.Time)
	return &out
}

const dueLettingOffsetDays = 2

// inferDates fills a missing letting or due date from the other one. When
// both are present and out of order they are kept and a warning returned.
func inferDates(rec *Record) string {
	switch {
	case rec.LettingDate != nil && rec.DueDate == nil:
		due := dateOnly(rec.LettingDate.Time.AddDate(0, 0, -dueLettingOffsetDays))
		rec.DueDate = &due
	case rec.DueDate != nil && rec.LettingDate == nil:
		letting := dateOnly(rec.DueDate.Time.AddDate(0, 0, dueLettingOffsetDays))
		rec.LettingDate = &letting
	case rec.DueDate != nil && rec.LettingDate != nil && rec.DueDate.Time.After(rec.LettingDate.Time):
		return "due date " + rec.DueDate.String() + " is after letting date " + rec.LettingDate.String()
	}
	return ""
}
