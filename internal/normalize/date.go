package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"personnel-registry/internal/excel"
)

const (
	// days between the spreadsheet epoch (1899-12-30) and 1970-01-01
	excelEpochOffsetDays = 25569
	secondsPerDay        = 86400
)

var (
	dayMonthYear = regexp.MustCompile(`^(\d{1,2})-(\d{1,2})-(\d{4})$`)
	yearMonthDay = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
)

// fallbackLayouts are tried in order for text that matches neither dashed
// form. Numeric layouts are day first.
var fallbackLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/1/2",
	"2/1/2006",
	"2.1.2006",
	"2 Jan 2006",
	"2 January 2006",
	"2-Jan-2006",
	"2-January-2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2 2006",
	"January 2 2006",
	"Mon Jan 2 2006",
	time.RFC1123,
	time.RFC1123Z,
}

// Date converts a cell into a calendar date. It returns nil when the cell
// is absent or cannot be read as a date; it never fails.
//
// Numbers are spreadsheet serials. Text is tried as DD-MM-YYYY, then
// YYYY-MM-DD, then the fallback layouts. "03-04-2024" is 3 April.
func Date(v excel.Value) *time.Time {
	switch v.Kind {
	case excel.KindNumber:
		return fromSerial(v.Num)
	case excel.KindString:
		return fromText(v.Str)
	default:
		return nil
	}
}

func fromSerial(serial float64) *time.Time {
	if math.IsNaN(serial) || math.IsInf(serial, 0) {
		return nil
	}

	days := math.Round(serial) - excelEpochOffsetDays
	seconds := days * secondsPerDay
	if math.Abs(seconds) > math.MaxInt64/2 {
		return nil
	}

	t := time.Unix(int64(seconds), 0).UTC()
	return &t
}

func fromText(raw string) *time.Time {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}

	if m := dayMonthYear.FindStringSubmatch(s); m != nil {
		return calendarDate(m[3], m[2], m[1])
	}
	if m := yearMonthDay.FindStringSubmatch(s); m != nil {
		return calendarDate(m[1], m[2], m[3])
	}

	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// calendarDate builds midnight UTC and rejects days that do not exist,
// such as 31-02-2024, instead of rolling them over.
func calendarDate(year, month, day string) *time.Time {
	y, errY := strconv.Atoi(year)
	m, errM := strconv.Atoi(month)
	d, errD := strconv.Atoi(day)
	if errY != nil || errM != nil || errD != nil {
		return nil
	}

	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return nil
	}
	return &t
}
