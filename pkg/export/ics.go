// Package export writes a facilitator's sessions to external calendar formats.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/facilitatorhub/dashboard/pkg/core/calendar"
	"github.com/facilitatorhub/dashboard/pkg/core/model"
)

const (
	productID       = "-//facilitatorhub//dashboard//EN"
	uidDomain       = "facilitator-dashboard"
	defaultDuration = time.Hour
)

// ICSOptions configures an iCalendar export
type ICSOptions struct {
	Location *time.Location // session times are wall-clock times in this zone
	Now      time.Time      // DTSTAMP of every event
}

// WriteICS writes every session (upcoming and past) of units as a VEVENT and returns the number written.
// Sessions with an unparseable date are skipped. Sessions with an unparseable time become all-day events.
func WriteICS(w io.Writer, units []model.UnitSessions, opts ICSOptions, logger *zap.Logger) (int, error) {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	stamp := opts.Now
	if stamp.IsZero() {
		stamp = time.Now()
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	count := 0
	for _, unit := range units {
		for _, sessions := range [][]model.SessionEvent{unit.Upcoming, unit.Past} {
			for _, s := range sessions {
				if addSession(cal, s, loc, stamp) {
					count++
					continue
				}
				logger.Warn("Skipping session with invalid date",
					zap.String("unit_code", s.UnitCode),
					zap.String("date", s.Date),
					zap.String("topic", s.Topic))
			}
		}
	}

	if _, err := io.WriteString(w, cal.Serialize()); err != nil {
		return 0, fmt.Errorf("failed to write calendar: %w", err)
	}

	logger.Debug("Exported sessions", zap.Int("events", count))
	return count, nil
}

func addSession(cal *ical.Calendar, s model.SessionEvent, loc *time.Location, stamp time.Time) bool {
	key, ok := calendar.NormalizeDateKey(s.Date)
	if !ok {
		return false
	}
	day, ok := key.Time(loc)
	if !ok {
		return false
	}

	event := cal.AddEvent(sessionUID(s, key))
	event.SetDtStampTime(stamp.UTC())
	event.SetSummary(sessionSummary(s))
	if s.Location != "" {
		event.SetLocation(s.Location)
	}
	if s.Status != "" {
		event.SetDescription("Status: " + string(s.Status))
	}
	event.SetStatus(eventStatus(s.Status))

	start, end, timed := sessionSpan(day, s.Time)
	if timed {
		event.SetStartAt(start.UTC())
		event.SetEndAt(end.UTC())
	} else {
		event.SetAllDayStartAt(day)
		event.SetAllDayEndAt(day.AddDate(0, 0, 1))
	}

	return true
}

// sessionSpan resolves a "HH:MM - HH:MM" range on day. A missing or non-positive end falls back to a one hour session.
func sessionSpan(day time.Time, timeRange string) (time.Time, time.Time, bool) {
	startText, endText, _ := strings.Cut(timeRange, " - ")

	startMins, ok := calendar.ParseClock(startText)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	start := day.Add(time.Duration(startMins) * time.Minute)

	end := start.Add(defaultDuration)
	if endMins, ok := calendar.ParseClock(endText); ok && endMins > startMins {
		end = day.Add(time.Duration(endMins) * time.Minute)
	}

	return start, end, true
}

func sessionSummary(s model.SessionEvent) string {
	if s.UnitCode == "" {
		return s.Topic
	}
	if s.Topic == "" {
		return s.UnitCode
	}
	return s.UnitCode + ": " + s.Topic
}

// sessionUID derives the same UID for the same session on every export
func sessionUID(s model.SessionEvent, key calendar.DateKey) string {
	name := strings.Join([]string{s.UnitCode, string(key), s.Time, s.Topic}, "|")
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String() + "@" + uidDomain
}

func eventStatus(status model.SessionStatus) ical.ObjectStatus {
	if strings.EqualFold(string(status), string(model.SessionPending)) {
		return ical.ObjectStatusTentative
	}
	return ical.ObjectStatusConfirmed
}
