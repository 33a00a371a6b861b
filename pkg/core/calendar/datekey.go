package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateKey is a calendar date in canonical DD/MM/YYYY form.
// Sessions, unavailability records and grid cells are joined by string equality on it.
type DateKey string

const isoDateLayout = "2006-01-02"

// ToDateKey formats a date as DD/MM/YYYY. The fields are not validated.
func ToDateKey(year int, month time.Month, day int) DateKey {
	return DateKey(fmt.Sprintf("%02d/%02d/%d", day, int(month), year))
}

// DateKeyFromTime returns the key of t's calendar date in t's location
func DateKeyFromTime(t time.Time) DateKey {
	return ToDateKey(t.Year(), t.Month(), t.Day())
}

// DateKeyFromISO converts an ISO date (YYYY-MM-DD, optionally followed by a time part)
// to a DateKey. It returns false for anything it cannot parse.
func DateKeyFromISO(iso string) (DateKey, bool) {
	iso = strings.TrimSpace(iso)
	if len(iso) < len(isoDateLayout) {
		return "", false
	}
	// Only the date portion matters; "2025-03-15T00:00:00Z" and "2025-03-15 09:00" both map to 15/03/2025.
	t, err := time.Parse(isoDateLayout, iso[:len(isoDateLayout)])
	if err != nil {
		return "", false
	}
	if len(iso) > len(isoDateLayout) {
		sep := iso[len(isoDateLayout)]
		if sep != 'T' && sep != ' ' {
			return "", false
		}
	}
	return DateKeyFromTime(t), true
}

// NormalizeDateKey converts a D/M/YYYY or DD/MM/YYYY string to canonical form.
// It returns false when the string is not a real calendar date.
func NormalizeDateKey(s string) (DateKey, bool) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 3 {
		return "", false
	}

	day, err := strconv.Atoi(parts[0])
	if err != nil {
		return "", false
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", false
	}
	year, err := strconv.Atoi(parts[2])
	if err != nil || len(parts[2]) != 4 {
		return "", false
	}

	if month < 1 || month > 12 || day < 1 || day > daysIn(year, time.Month(month)) {
		return "", false
	}

	return ToDateKey(year, time.Month(month), day), true
}

// Time parses the key back into midnight of that date in loc
func (k DateKey) Time(loc *time.Location) (time.Time, bool) {
	t, err := time.ParseInLocation("02/01/2006", string(k), loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// daysIn returns the number of days in the given month, letting time.Date normalise day 0
// of the following month back to the last day of this one.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
