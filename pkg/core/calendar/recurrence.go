package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/facilitatorhub/dashboard/pkg/core/model"
)

// RecurrenceRule builds the rrule for a recurring record starting on its own date.
// It returns nil for records that do not recur.
func RecurrenceRule(r model.UnavailabilityRecord) (*rrule.RRule, error) {
	if r.RecurringPattern == model.RecurringNone {
		return nil, nil
	}

	start, err := time.Parse(isoDateLayout, isoDatePart(r.Date))
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", r.Date, err)
	}

	var opt rrule.ROption
	switch r.RecurringPattern {
	case model.RecurringWeekly:
		opt = rrule.ROption{Freq: rrule.WEEKLY}
	case model.RecurringFortnightly:
		opt = rrule.ROption{Freq: rrule.WEEKLY, Interval: 2}
	case model.RecurringMonthly:
		opt = rrule.ROption{Freq: rrule.MONTHLY}
	case model.RecurringCustom:
		parsed, err := rrule.StrToROption(r.RecurrenceRule)
		if err != nil {
			return nil, fmt.Errorf("invalid rrule %q: %w", r.RecurrenceRule, err)
		}
		opt = *parsed
		if subDaily(opt) {
			return nil, fmt.Errorf("invalid rrule %q: unavailability repeats at most daily", r.RecurrenceRule)
		}
	default:
		return nil, fmt.Errorf("unknown recurring pattern %q", r.RecurringPattern)
	}

	opt.Dtstart = start
	if r.RecurringEndDate != nil && *r.RecurringEndDate != "" {
		until, err := time.Parse(isoDateLayout, isoDatePart(*r.RecurringEndDate))
		if err != nil {
			return nil, fmt.Errorf("invalid recurring end date %q: %w", *r.RecurringEndDate, err)
		}
		opt.Until = until
	}

	return rrule.NewRRule(opt)
}

// ExpandRecurring adds to set every day on which a recurring record occurs within the grid for cursor.
// Records that cannot be expanded are returned as errors and otherwise ignored.
func ExpandRecurring(set UnavailabilitySet, records []model.UnavailabilityRecord, cursor Cursor) []error {
	var errs []error
	rangeStart, rangeEnd := cursor.Range()

	for _, r := range records {
		rule, err := RecurrenceRule(r)
		if err != nil {
			errs = append(errs, fmt.Errorf("unavailability %d: %w", r.ID, err))
			continue
		}
		if rule == nil {
			continue
		}

		expandDays(set, rule, rangeStart, rangeEnd)
	}

	return errs
}

// expandDays marks each day rule lands on from start through the end day
func expandDays(set UnavailabilitySet, rule *rrule.RRule, start, end time.Time) {
	last := end.AddDate(0, 0, 1)
	next := rule.Iterator()
	for {
		occ, ok := next()
		if !ok || !occ.Before(last) {
			return
		}
		if occ.Before(start) {
			continue
		}
		set.Add(DateKeyFromTime(occ))
	}
}

// subDaily reports whether opt can fire more than once a day
func subDaily(opt rrule.ROption) bool {
	switch opt.Freq {
	case rrule.HOURLY, rrule.MINUTELY, rrule.SECONDLY:
		return true
	}
	return len(opt.Byhour) > 1 || len(opt.Byminute) > 1 || len(opt.Bysecond) > 1
}

func isoDatePart(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > len(isoDateLayout) {
		return s[:len(isoDateLayout)]
	}
	return s
}
