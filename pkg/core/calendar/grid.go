package calendar

import (
	"time"

	"github.com/facilitatorhub/dashboard/pkg/core/model"
)

// GridSize is the number of cells in a month view: 6 weeks of 7 days, weeks starting on Sunday
const GridSize = 42

// Cell is one day slot of the month view. DateKey is empty for padding cells.
type Cell struct {
	DayNumber     int
	DateKey       DateKey
	IsOtherMonth  bool
	IsToday       bool
	IsUnavailable bool
	IsAvailable   bool
	DisplayEvents []EventSummary
	OverflowCount int
}

// Grid is a fully built month view. It is rebuilt, never mutated, whenever data or the cursor changes.
type Grid struct {
	Year  int
	Month time.Month
	Cells [GridSize]Cell
}

// GridInput is the data a grid is overlaid with
type GridInput struct {
	Units          []model.UnitSessions
	Unavailable    UnavailabilitySet
	HasActiveUnits bool
	Now            time.Time
}

// BuildGrid builds the 42-cell view of the given month.
// The leading cells are the tail of the previous month, the trailing cells the start of the next;
// both are padding only and carry no flags or events.
func BuildGrid(year int, month time.Month, in GridInput) Grid {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	ctx := MonthContext{Year: first.Year(), Month: first.Month()}

	firstWeekday := int(first.Weekday())
	daysInPrevMonth := daysIn(ctx.Year, ctx.Month-1)
	daysInMonth := daysIn(ctx.Year, ctx.Month)

	grid := Grid{Year: ctx.Year, Month: ctx.Month}
	i := 0

	for d := daysInPrevMonth - firstWeekday + 1; d <= daysInPrevMonth; d++ {
		grid.Cells[i] = otherMonthCell(d)
		i++
	}

	events := indexEvents(in.Units)
	for d := 1; d <= daysInMonth; d++ {
		grid.Cells[i] = monthCell(d, ctx, events, in)
		i++
	}

	for d := 1; i < GridSize; d++ {
		grid.Cells[i] = otherMonthCell(d)
		i++
	}

	return grid
}

func otherMonthCell(day int) Cell {
	return Cell{DayNumber: day, IsOtherMonth: true}
}

func monthCell(day int, ctx MonthContext, events map[DateKey][]model.SessionEvent, in GridInput) Cell {
	key := ToDateKey(ctx.Year, ctx.Month, day)
	flags := ClassifyCell(day, ctx, in.Unavailable, in.HasActiveUnits, in.Now)
	display, overflow := Truncate(events[key])

	return Cell{
		DayNumber:     day,
		DateKey:       key,
		IsToday:       flags.IsToday,
		IsUnavailable: flags.IsUnavailable,
		IsAvailable:   flags.IsAvailable,
		DisplayEvents: display,
		OverflowCount: overflow,
	}
}

// indexEvents groups sessions by normalized date in a single pass.
// Each bucket ends up in the same order CollectEventsForDate would produce for that date.
func indexEvents(units []model.UnitSessions) map[DateKey][]model.SessionEvent {
	byDate := make(map[DateKey][]model.SessionEvent)
	add := func(sessions []model.SessionEvent) {
		for _, s := range sessions {
			if key, ok := NormalizeDateKey(s.Date); ok {
				byDate[key] = append(byDate[key], s)
			}
		}
	}

	for _, unit := range units {
		add(unit.Upcoming)
		add(unit.Past)
	}

	for _, events := range byDate {
		SortByStartTime(events)
	}

	return byDate
}

// MonthDayCount returns the number of cells in the grid that belong to the displayed month
func (g Grid) MonthDayCount() int {
	n := 0
	for _, c := range g.Cells {
		if !c.IsOtherMonth {
			n++
		}
	}
	return n
}

// Cell returns the cell for the given day of the displayed month
func (g Grid) Cell(day int) (Cell, bool) {
	for _, c := range g.Cells {
		if !c.IsOtherMonth && c.DayNumber == day {
			return c, true
		}
	}
	return Cell{}, false
}
