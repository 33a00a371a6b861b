package calendar

import (
	"time"

	"github.com/facilitatorhub/dashboard/pkg/core/model"
)

// MonthContext identifies the month a grid is being built for
type MonthContext struct {
	Year  int
	Month time.Month
}

// CellFlags is the classification of a single grid cell
type CellFlags struct {
	IsToday       bool
	IsOtherMonth  bool
	IsUnavailable bool
	IsAvailable   bool
}

// UnavailabilitySet is the set of dates marked unavailable for the active unit
type UnavailabilitySet map[DateKey]struct{}

// NewUnavailabilitySet indexes records by the DateKey of their ISO date.
// Records with unparseable dates are skipped.
func NewUnavailabilitySet(records []model.UnavailabilityRecord) UnavailabilitySet {
	set := make(UnavailabilitySet, len(records))
	for _, r := range records {
		if key, ok := DateKeyFromISO(r.Date); ok {
			set[key] = struct{}{}
		}
	}
	return set
}

// Add marks key unavailable
func (s UnavailabilitySet) Add(key DateKey) {
	s[key] = struct{}{}
}

// Contains reports whether key is marked unavailable. A nil set contains nothing.
func (s UnavailabilitySet) Contains(key DateKey) bool {
	_, ok := s[key]
	return ok
}

// HasActiveUnits reports whether at least one unit has "active" status
func HasActiveUnits(units []model.Unit) bool {
	for _, u := range units {
		if u.IsActive() {
			return true
		}
	}
	return false
}

// ClassifyCell classifies a day of the displayed month. Unavailability takes precedence over availability.
// Padding cells from adjacent months are never classified; see otherMonthCell.
func ClassifyCell(day int, month MonthContext, unavailable UnavailabilitySet, hasActiveUnits bool, now time.Time) CellFlags {
	var flags CellFlags

	flags.IsToday = now.Year() == month.Year && now.Month() == month.Month && now.Day() == day
	flags.IsUnavailable = unavailable.Contains(ToDateKey(month.Year, month.Month, day))
	flags.IsAvailable = !flags.IsUnavailable && hasActiveUnits

	return flags
}
