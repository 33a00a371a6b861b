package calendar

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/facilitatorhub/dashboard/pkg/core/model"
)

// MaxDisplayEvents is the number of events a grid cell shows before collapsing the rest into an overflow count
const MaxDisplayEvents = 2

const timeRangeSeparator = " - "

// EventSummary is the part of a session a grid cell displays
type EventSummary struct {
	Time     string
	Topic    string
	Location string
	Status   model.SessionStatus
	UnitCode string
}

// CollectEventsForDate returns every session (upcoming and past) of the given units that falls on key,
// ordered by start time. Sessions with the same start time keep their input order.
func CollectEventsForDate(key DateKey, units []model.UnitSessions) []model.SessionEvent {
	events := make([]model.SessionEvent, 0)
	for _, unit := range units {
		events = appendMatching(events, key, unit.Upcoming)
		events = appendMatching(events, key, unit.Past)
	}

	SortByStartTime(events)
	return events
}

func appendMatching(dst []model.SessionEvent, key DateKey, sessions []model.SessionEvent) []model.SessionEvent {
	for _, s := range sessions {
		if k, ok := NormalizeDateKey(s.Date); ok && k == key {
			dst = append(dst, s)
		}
	}
	return dst
}

// SortByStartTime stable-sorts events ascending by the start of their "HH:MM - HH:MM" time range.
// Events whose start time cannot be parsed sort last.
func SortByStartTime(events []model.SessionEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		return startMinutes(events[i].Time) < startMinutes(events[j].Time)
	})
}

// Truncate returns at most MaxDisplayEvents summaries and the number of events left out
func Truncate(events []model.SessionEvent) ([]EventSummary, int) {
	n := len(events)
	if n > MaxDisplayEvents {
		n = MaxDisplayEvents
	}

	display := make([]EventSummary, 0, n)
	for _, e := range events[:n] {
		display = append(display, EventSummary{
			Time:     e.Time,
			Topic:    e.Topic,
			Location: e.Location,
			Status:   e.Status,
			UnitCode: e.UnitCode,
		})
	}

	return display, len(events) - n
}

// startMinutes returns the start of a "HH:MM - HH:MM" range in minutes since midnight,
// or math.MaxInt when it is not a valid 24-hour time.
func startMinutes(timeRange string) int {
	start := timeRange
	if i := strings.Index(timeRange, timeRangeSeparator); i >= 0 {
		start = timeRange[:i]
	}

	mins, ok := ParseClock(start)
	if !ok {
		return math.MaxInt
	}
	return mins
}

// ParseClock parses "HH:MM" (or "H:MM") into minutes since midnight
func ParseClock(s string) (int, bool) {
	hh, mm, found := strings.Cut(strings.TrimSpace(s), ":")
	if !found || len(mm) != 2 || len(hh) == 0 || len(hh) > 2 {
		return 0, false
	}

	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}

	return h*60 + m, true
}
