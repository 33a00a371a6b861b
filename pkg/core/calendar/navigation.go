package calendar

import "time"

// Cursor is the month currently displayed
type Cursor struct {
	Year  int
	Month time.Month
}

// CursorAt returns the cursor for the month containing t
func CursorAt(t time.Time) Cursor {
	return Cursor{Year: t.Year(), Month: t.Month()}
}

// Add moves the cursor by delta months. time.Date normalises month overflow,
// so December + 1 becomes January of the following year.
func (c Cursor) Add(delta int) Cursor {
	t := time.Date(c.Year, c.Month+time.Month(delta), 1, 0, 0, 0, 0, time.UTC)
	return CursorAt(t)
}

// Next returns the following month
func (c Cursor) Next() Cursor {
	return c.Add(1)
}

// Prev returns the preceding month
func (c Cursor) Prev() Cursor {
	return c.Add(-1)
}

// Range returns the first and last dates shown by the 42-cell grid for this month, padding included
func (c Cursor) Range() (time.Time, time.Time) {
	first := time.Date(c.Year, c.Month, 1, 0, 0, 0, 0, time.UTC)
	start := first.AddDate(0, 0, -int(first.Weekday()))
	return start, start.AddDate(0, 0, GridSize-1)
}

func (c Cursor) String() string {
	return time.Date(c.Year, c.Month, 1, 0, 0, 0, 0, time.UTC).Format("January 2006")
}
