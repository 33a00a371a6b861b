package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/facilitatorhub/dashboard/pkg/core/calendar"
	"github.com/facilitatorhub/dashboard/pkg/core/model"
)

const (
	cellWidth    = 16
	daysPerWeek  = 7
	linesPerCell = calendar.MaxDisplayEvents + 2 // day, events, overflow
)

var weekdayHeaders = [daysPerWeek]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// palette holds the ANSI codes used to draw the grid; the zero value draws plain text
type palette struct {
	reset       string
	bold        string
	unavailable string
	available   string
	dim         string
}

var (
	colorPalette = palette{
		reset:       "\033[0m",
		bold:        "\033[1m",
		unavailable: "\033[31m",
		available:   "\033[32m",
		dim:         "\033[2m",
	}
	plainPalette = palette{}
)

func (p palette) paint(code, text string) string {
	if code == "" || p.reset == "" {
		return text
	}
	return code + text + p.reset
}

// renderGrid draws the month as 6 weeks of 7 fixed-width cells
func renderGrid(w io.Writer, grid calendar.Grid, title string, p palette) {
	fmt.Fprintf(w, "\n%s  %s\n\n", calendar.Cursor{Year: grid.Year, Month: grid.Month}, title)

	for _, h := range weekdayHeaders {
		fmt.Fprint(w, pad(h))
	}
	fmt.Fprintln(w)

	for week := 0; week < calendar.GridSize/daysPerWeek; week++ {
		cells := grid.Cells[week*daysPerWeek : (week+1)*daysPerWeek]
		for line := 0; line < linesPerCell; line++ {
			for _, c := range cells {
				text, code := cellLine(c, line, p)
				fmt.Fprint(w, p.paint(code, pad(text)))
			}
			fmt.Fprintln(w)
		}
	}

	fmt.Fprintf(w, "\n* today   %s   %s\n",
		p.paint(p.available, "available"),
		p.paint(p.unavailable, "unavailable"))
}

// cellLine returns the text and colour of one line of a cell
func cellLine(c calendar.Cell, line int, p palette) (string, string) {
	if c.IsOtherMonth {
		if line == 0 {
			return fmt.Sprintf("%2d", c.DayNumber), p.dim
		}
		return "", ""
	}

	if line == 0 {
		label := fmt.Sprintf("%2d", c.DayNumber)
		code := ""
		if c.IsToday {
			label += "*"
			code = p.bold
		}
		switch {
		case c.IsUnavailable:
			label += " unavailable"
			code += p.unavailable
		case c.IsAvailable:
			label += " available"
			code += p.available
		}
		return label, code
	}

	if i := line - 1; i < len(c.DisplayEvents) {
		e := c.DisplayEvents[i]
		return strings.TrimSpace(startTime(e.Time) + " " + e.Topic), ""
	}

	if line == linesPerCell-1 && c.OverflowCount > 0 {
		return fmt.Sprintf("+%d more", c.OverflowCount), p.dim
	}
	return "", ""
}

// renderDay lists every session on a date along with the active unit's unavailability for it
func renderDay(w io.Writer, key calendar.DateKey, events []model.SessionEvent, unavailable []model.UnavailabilityRecord) {
	fmt.Fprintf(w, "\n%s\n\n", key)

	for _, r := range unavailable {
		fmt.Fprintf(w, "  Unavailable: %s\n", describeUnavailability(r))
	}

	if len(events) == 0 {
		fmt.Fprintln(w, "  No sessions")
		fmt.Fprintln(w)
		return
	}

	fmt.Fprintf(w, "  %d session(s):\n", len(events))
	for _, e := range events {
		line := fmt.Sprintf("  %-13s  %-10s %s", e.Time, e.UnitCode, e.Topic)
		if e.Location != "" {
			line += " @ " + e.Location
		}
		if e.Status != "" {
			line += " [" + string(e.Status) + "]"
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w)
}

// recordsOn returns the records whose own date is key
func recordsOn(key calendar.DateKey, records []model.UnavailabilityRecord) []model.UnavailabilityRecord {
	var out []model.UnavailabilityRecord
	for _, r := range records {
		if k, ok := calendar.DateKeyFromISO(r.Date); ok && k == key {
			out = append(out, r)
		}
	}
	return out
}

func describeUnavailability(r model.UnavailabilityRecord) string {
	desc := "full day"
	if !r.IsFullDay && r.StartTime != nil && r.EndTime != nil {
		desc = *r.StartTime + " - " + *r.EndTime
	}
	if r.RecurringPattern != model.RecurringNone {
		desc += ", " + string(r.RecurringPattern)
		if r.RecurringEndDate != nil {
			desc += " until " + *r.RecurringEndDate
		}
	}
	if r.Reason != "" {
		desc += " (" + r.Reason + ")"
	}
	return desc
}

func startTime(timeRange string) string {
	start, _, _ := strings.Cut(timeRange, " - ")
	return strings.TrimSpace(start)
}

// pad truncates text to fit a cell, leaving one column of spacing, and pads it to the cell width
func pad(text string) string {
	runes := []rune(text)
	if len(runes) > cellWidth-1 {
		runes = append(runes[:cellWidth-2], '~')
	}
	return string(runes) + strings.Repeat(" ", cellWidth-len(runes))
}
