package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/facilitatorhub/dashboard/pkg/core/calendar"
	"github.com/facilitatorhub/dashboard/pkg/core/model"
)

// UnavailabilityFetcher defines the backend operation the dashboard needs
type UnavailabilityFetcher interface {
	List(ctx context.Context, unitID int) ([]model.UnavailabilityRecord, error)
}

// FetchTicket tags an unavailability request with the state it was issued for.
// A response is only applied while its ticket still matches the dashboard.
type FetchTicket struct {
	UnitID     int
	Generation uint64
	RequestID  string
}

// DashboardOptions configures a Dashboard
type DashboardOptions struct {
	ExpandRecurring bool
	Location        *time.Location
	Now             func() time.Time // defaults to time.Now
}

// Dashboard holds the calendar view state: the facilitator's units and sessions,
// the active unit, the displayed month and the cached unavailability of the active unit.
// All methods are safe for concurrent use; every grid is built from a consistent snapshot.
type Dashboard struct {
	mu sync.Mutex

	fetcher UnavailabilityFetcher
	logger  *zap.Logger

	units    []model.Unit
	sessions []model.UnitSessions

	activeUnitID int
	cursor       calendar.Cursor
	records      []model.UnavailabilityRecord
	generation   uint64

	expandRecurring bool
	location        *time.Location
	now             func() time.Time
}

// NewDashboard creates a dashboard showing the current month. The first active unit
// (or the first unit if none is active) becomes the active unit; no fetch is issued until
// SwitchUnit or RefreshUnavailability is called.
func NewDashboard(
	fetcher UnavailabilityFetcher,
	logger *zap.Logger,
	units []model.Unit,
	sessions []model.UnitSessions,
	opts DashboardOptions,
) *Dashboard {
	d := &Dashboard{
		fetcher:         fetcher,
		logger:          logger,
		units:           units,
		sessions:        sessions,
		expandRecurring: opts.ExpandRecurring,
		location:        opts.Location,
		now:             opts.Now,
	}
	if d.location == nil {
		d.location = time.Local
	}
	if d.now == nil {
		d.now = time.Now
	}

	if active := filterActiveUnits(units); len(active) > 0 {
		d.activeUnitID = active[0].ID
	} else if len(units) > 0 {
		d.activeUnitID = units[0].ID
	}
	d.cursor = calendar.CursorAt(d.currentTime())

	return d
}

func (d *Dashboard) currentTime() time.Time {
	return d.now().In(d.location)
}

// ActiveUnitID returns the id of the unit whose unavailability is displayed
func (d *Dashboard) ActiveUnitID() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.activeUnitID
}

// Units returns the configured units
func (d *Dashboard) Units() []model.Unit {
	out := make([]model.Unit, len(d.units))
	copy(out, d.units)
	return out
}

// Cursor returns the displayed month
func (d *Dashboard) Cursor() calendar.Cursor {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cursor
}

// Unavailability returns the cached records of the active unit
func (d *Dashboard) Unavailability() []model.UnavailabilityRecord {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]model.UnavailabilityRecord, len(d.records))
	copy(out, d.records)
	return out
}

// SwitchUnit makes unitID the active unit, discards the cached unavailability and refetches it.
// Fetch failures are logged and leave the unit with no unavailability.
func (d *Dashboard) SwitchUnit(ctx context.Context, unitID int) error {
	if !containsUnit(d.units, unitID) {
		return fmt.Errorf("unknown unit %d", unitID)
	}

	d.mu.Lock()
	d.activeUnitID = unitID
	d.records = nil
	d.mu.Unlock()

	d.logger.Debug("Switched active unit", zap.Int("unit_id", unitID))

	d.RefreshUnavailability(ctx)
	return nil
}

// RefreshUnavailability fetches the active unit's unavailability and applies it
// unless a newer fetch or unit switch has happened in the meantime.
func (d *Dashboard) RefreshUnavailability(ctx context.Context) bool {
	ticket := d.BeginFetch()
	if ticket.UnitID == 0 {
		return false
	}

	d.logger.Debug("Fetching unavailability",
		zap.Int("unit_id", ticket.UnitID),
		zap.String("request_id", ticket.RequestID))

	records, err := d.fetcher.List(ctx, ticket.UnitID)
	return d.CompleteFetch(ticket, records, err)
}

// BeginFetch issues a ticket for a fetch of the active unit's unavailability.
// Issuing a ticket invalidates every ticket issued before it.
func (d *Dashboard) BeginFetch() FetchTicket {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.generation++
	return FetchTicket{
		UnitID:     d.activeUnitID,
		Generation: d.generation,
		RequestID:  uuid.NewString(),
	}
}

// CompleteFetch applies the result of the fetch issued with ticket and reports whether it was applied.
// Responses for a unit that is no longer active, or superseded by a newer fetch, are discarded.
// A failed fetch resets the unavailability to empty.
func (d *Dashboard) CompleteFetch(ticket FetchTicket, records []model.UnavailabilityRecord, err error) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if ticket.UnitID != d.activeUnitID || ticket.Generation != d.generation {
		d.logger.Debug("Discarding stale unavailability response",
			zap.Int("ticket_unit_id", ticket.UnitID),
			zap.Int("active_unit_id", d.activeUnitID),
			zap.Uint64("ticket_generation", ticket.Generation),
			zap.Uint64("current_generation", d.generation),
			zap.String("request_id", ticket.RequestID))
		return false
	}

	if err != nil {
		d.logger.Warn("Failed to fetch unavailability, showing none",
			zap.Int("unit_id", ticket.UnitID),
			zap.String("request_id", ticket.RequestID),
			zap.Error(err))
		d.records = []model.UnavailabilityRecord{}
		return true
	}

	if records == nil {
		records = []model.UnavailabilityRecord{}
	}
	d.records = records

	d.logger.Debug("Unavailability updated",
		zap.Int("unit_id", ticket.UnitID),
		zap.Int("count", len(records)),
		zap.String("request_id", ticket.RequestID))
	return true
}

// Navigate moves the displayed month by delta months and returns the new grid
func (d *Dashboard) Navigate(delta int) calendar.Grid {
	d.mu.Lock()
	d.cursor = d.cursor.Add(delta)
	d.mu.Unlock()

	return d.Grid()
}

// GoTo displays the given month; out-of-range months are normalised
func (d *Dashboard) GoTo(year int, month time.Month) calendar.Grid {
	d.mu.Lock()
	d.cursor = calendar.Cursor{Year: year, Month: month}.Add(0)
	d.mu.Unlock()

	return d.Grid()
}

// Today displays the current month
func (d *Dashboard) Today() calendar.Grid {
	d.mu.Lock()
	d.cursor = calendar.CursorAt(d.currentTime())
	d.mu.Unlock()

	return d.Grid()
}

// Grid builds the grid of the displayed month from the current state
func (d *Dashboard) Grid() calendar.Grid {
	d.mu.Lock()
	defer d.mu.Unlock()

	unavailable := calendar.NewUnavailabilitySet(d.records)
	if d.expandRecurring {
		for _, err := range calendar.ExpandRecurring(unavailable, d.records, d.cursor) {
			d.logger.Warn("Skipping recurring unavailability", zap.Error(err))
		}
	}

	return calendar.BuildGrid(d.cursor.Year, d.cursor.Month, calendar.GridInput{
		Units:          d.sessions,
		Unavailable:    unavailable,
		HasActiveUnits: calendar.HasActiveUnits(d.units),
		Now:            d.currentTime(),
	})
}

// EventsForDate returns every session on the given date, including those a grid cell collapses into its overflow count
func (d *Dashboard) EventsForDate(key calendar.DateKey) []model.SessionEvent {
	return calendar.CollectEventsForDate(key, d.sessions)
}
