package enrich

import (
	"strconv"
	"strings"
	"time"
)

// Spreadsheet serial day numbers count from 1899-12-30. Serials are only
// accepted inside [20000, 60000] (roughly 1954-2064) so that a plain integer
// in a date column is not silently misread as a date.
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

const (
	serialMin = 20000
	serialMax = 60000
)

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"Jan 2, 2006",
	"2 Jan 2006",
	"January 2, 2006",
}

// ParseDate parses the date representations seen in HR exports: ISO, US and
// EU slash forms, and spreadsheet serial numbers. Slash ambiguity resolves to
// day-first when the leading number cannot be a month.
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if serial >= serialMin && serial <= serialMax {
			return serialEpoch.AddDate(0, 0, int(serial)), true
		}
		return time.Time{}, false
	}
	return parseSlashDate(s)
}

func parseSlashDate(s string) (time.Time, bool) {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '/' || r == '.'
	})
	if len(parts) != 3 {
		return time.Time{}, false
	}
	a, errA := strconv.Atoi(strings.TrimSpace(parts[0]))
	b, errB := strconv.Atoi(strings.TrimSpace(parts[1]))
	year, errY := strconv.Atoi(strings.TrimSpace(parts[2]))
	if errA != nil || errB != nil || errY != nil {
		return time.Time{}, false
	}
	if year < 100 {
		year += 2000
	}

	month, day := a, b
	if a > 12 {
		month, day = b, a
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (Feb 30 becomes Mar 2); reject those.
	if t.Day() != day || t.Month() != time.Month(month) {
		return time.Time{}, false
	}
	return t, true
}

// monthsBetween counts whole calendar months from one date to another,
// floored at zero.
func monthsBetween(from, to time.Time) int {
	if to.Before(from) {
		return 0
	}
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if to.Day() < from.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}
