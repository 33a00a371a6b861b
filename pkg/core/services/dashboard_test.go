package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/facilitatorhub/dashboard/pkg/core/calendar"
	"github.com/facilitatorhub/dashboard/pkg/core/model"
)

// mockFetcher implements UnavailabilityFetcher
type mockFetcher struct {
	mu      sync.Mutex
	records map[int][]model.UnavailabilityRecord
	errs    map[int]error
	block   map[int]chan struct{} // a fetch for the unit waits until the channel is closed
	started chan int
	calls   []int
}

func (m *mockFetcher) List(ctx context.Context, unitID int) ([]model.UnavailabilityRecord, error) {
	m.mu.Lock()
	m.calls = append(m.calls, unitID)
	wait := m.block[unitID]
	m.mu.Unlock()

	if m.started != nil {
		m.started <- unitID
	}
	if wait != nil {
		<-wait
	}

	if err := m.errs[unitID]; err != nil {
		return nil, err
	}
	return m.records[unitID], nil
}

var fixedNow = time.Date(2025, time.March, 15, 10, 0, 0, 0, time.UTC)

func testUnits() []model.Unit {
	return []model.Unit{
		{ID: 1, Code: "CITS1001", Status: "inactive"},
		{ID: 2, Code: "CITS2200", Status: "active"},
		{ID: 3, Code: "CITS3003", Status: "active"},
	}
}

func testSessions() []model.UnitSessions {
	return []model.UnitSessions{
		{
			UnitCode: "CITS2200",
			Upcoming: []model.SessionEvent{
				{Date: "20/03/2025", Time: "14:00 - 15:00", Topic: "Graphs", UnitCode: "CITS2200"},
				{Date: "20/03/2025", Time: "09:00 - 10:00", Topic: "Trees", UnitCode: "CITS2200"},
			},
			Past: []model.SessionEvent{
				{Date: "3/3/2025", Time: "09:00 - 10:00", Topic: "Lists", UnitCode: "CITS2200"},
			},
		},
		{
			UnitCode: "CITS3003",
			Upcoming: []model.SessionEvent{
				{Date: "20/03/2025", Time: "11:00 - 12:00", Topic: "Shaders", UnitCode: "CITS3003"},
			},
		},
	}
}

func newTestDashboard(fetcher UnavailabilityFetcher, opts DashboardOptions) *Dashboard {
	opts.Location = time.UTC
	opts.Now = func() time.Time { return fixedNow }
	return NewDashboard(fetcher, zap.NewNop(), testUnits(), testSessions(), opts)
}

func unavailableDays(grid calendar.Grid) []int {
	var days []int
	for _, c := range grid.Cells {
		if c.IsUnavailable {
			days = append(days, c.DayNumber)
		}
	}
	return days
}

func TestNewDashboard_Defaults(t *testing.T) {
	d := newTestDashboard(&mockFetcher{}, DashboardOptions{})

	assert.Equal(t, 2, d.ActiveUnitID(), "first active unit is selected")
	assert.Equal(t, calendar.Cursor{Year: 2025, Month: time.March}, d.Cursor())
	assert.Empty(t, d.Unavailability())

	grid := d.Grid()
	assert.Equal(t, 2025, grid.Year)
	assert.Equal(t, time.March, grid.Month)

	today, ok := grid.Cell(15)
	require.True(t, ok)
	assert.True(t, today.IsToday)
	assert.True(t, today.IsAvailable)
}

func TestNewDashboard_NoActiveUnits(t *testing.T) {
	units := []model.Unit{{ID: 9, Code: "X", Status: "inactive"}}
	d := NewDashboard(&mockFetcher{}, zap.NewNop(), units, nil, DashboardOptions{Location: time.UTC, Now: func() time.Time { return fixedNow }})

	assert.Equal(t, 9, d.ActiveUnitID())
	for _, c := range d.Grid().Cells {
		assert.False(t, c.IsAvailable)
	}
}

func TestSwitchUnit_AppliesUnavailability(t *testing.T) {
	fetcher := &mockFetcher{records: map[int][]model.UnavailabilityRecord{
		3: {
			{ID: 1, Date: "2025-03-10", IsFullDay: true},
			{ID: 2, Date: "2025-03-21T00:00:00Z", IsFullDay: true},
			{ID: 3, Date: "2025-04-02", IsFullDay: true},
		},
	}}
	d := newTestDashboard(fetcher, DashboardOptions{})

	require.NoError(t, d.SwitchUnit(context.Background(), 3))

	assert.Equal(t, 3, d.ActiveUnitID())
	assert.Equal(t, []int{3}, fetcher.calls)
	assert.Len(t, d.Unavailability(), 3)

	grid := d.Grid()
	assert.Equal(t, []int{10, 21}, unavailableDays(grid), "April record lands on a padding cell and is not shown")

	cell, _ := grid.Cell(10)
	assert.False(t, cell.IsAvailable)
}

func TestSwitchUnit_UnknownUnit(t *testing.T) {
	fetcher := &mockFetcher{}
	d := newTestDashboard(fetcher, DashboardOptions{})

	err := d.SwitchUnit(context.Background(), 42)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown unit 42")
	assert.Equal(t, 2, d.ActiveUnitID())
	assert.Empty(t, fetcher.calls)
}

func TestSwitchUnit_ErrorResetsToEmpty(t *testing.T) {
	fetcher := &mockFetcher{
		records: map[int][]model.UnavailabilityRecord{
			2: {{ID: 1, Date: "2025-03-10", IsFullDay: true}},
		},
		errs: map[int]error{3: errors.New("unit not found")},
	}
	d := newTestDashboard(fetcher, DashboardOptions{})

	require.True(t, d.RefreshUnavailability(context.Background()))
	require.Len(t, d.Unavailability(), 1)

	require.NoError(t, d.SwitchUnit(context.Background(), 3))

	assert.NotNil(t, d.Unavailability())
	assert.Empty(t, d.Unavailability())
	assert.Empty(t, unavailableDays(d.Grid()))
}

func TestCompleteFetch_DiscardsStaleUnit(t *testing.T) {
	fetcher := &mockFetcher{records: map[int][]model.UnavailabilityRecord{
		3: {{ID: 30, Date: "2025-03-25", IsFullDay: true}},
	}}
	d := newTestDashboard(fetcher, DashboardOptions{})

	stale := d.BeginFetch()
	assert.Equal(t, 2, stale.UnitID)
	assert.NotEmpty(t, stale.RequestID)

	require.NoError(t, d.SwitchUnit(context.Background(), 3))

	applied := d.CompleteFetch(stale, []model.UnavailabilityRecord{{ID: 20, Date: "2025-03-05", IsFullDay: true}}, nil)
	assert.False(t, applied)

	records := d.Unavailability()
	require.Len(t, records, 1)
	assert.Equal(t, 30, records[0].ID)
	assert.Equal(t, []int{25}, unavailableDays(d.Grid()))
}

func TestCompleteFetch_DiscardsSupersededFetch(t *testing.T) {
	d := newTestDashboard(&mockFetcher{}, DashboardOptions{})

	first := d.BeginFetch()
	second := d.BeginFetch()
	assert.NotEqual(t, first.RequestID, second.RequestID)

	assert.True(t, d.CompleteFetch(second, []model.UnavailabilityRecord{{ID: 2, Date: "2025-03-02"}}, nil))
	assert.False(t, d.CompleteFetch(first, []model.UnavailabilityRecord{{ID: 1, Date: "2025-03-01"}}, nil))

	assert.Equal(t, []int{2}, unavailableDays(d.Grid()))
}

func TestCompleteFetch_StaleErrorDoesNotReset(t *testing.T) {
	fetcher := &mockFetcher{records: map[int][]model.UnavailabilityRecord{
		3: {{ID: 30, Date: "2025-03-25", IsFullDay: true}},
	}}
	d := newTestDashboard(fetcher, DashboardOptions{})

	stale := d.BeginFetch()
	require.NoError(t, d.SwitchUnit(context.Background(), 3))

	assert.False(t, d.CompleteFetch(stale, nil, errors.New("timeout")))
	assert.Len(t, d.Unavailability(), 1)
}

func TestRefreshUnavailability_LateResponseForPreviousUnit(t *testing.T) {
	release := make(chan struct{})
	fetcher := &mockFetcher{
		records: map[int][]model.UnavailabilityRecord{
			2: {{ID: 20, Date: "2025-03-05", IsFullDay: true}},
			3: {{ID: 30, Date: "2025-03-25", IsFullDay: true}},
		},
		block:   map[int]chan struct{}{2: release},
		started: make(chan int, 2),
	}
	d := newTestDashboard(fetcher, DashboardOptions{})

	result := make(chan bool, 1)
	go func() {
		result <- d.RefreshUnavailability(context.Background())
	}()
	require.Equal(t, 2, <-fetcher.started)

	require.NoError(t, d.SwitchUnit(context.Background(), 3))
	require.Equal(t, 3, <-fetcher.started)

	close(release)
	assert.False(t, <-result, "the unit 2 response arrives after the switch and must be dropped")

	assert.Equal(t, 3, d.ActiveUnitID())
	assert.Equal(t, []int{25}, unavailableDays(d.Grid()))
}

func TestNavigation(t *testing.T) {
	d := newTestDashboard(&mockFetcher{}, DashboardOptions{})

	grid := d.GoTo(2024, time.December)
	assert.Equal(t, 2024, grid.Year)
	assert.Equal(t, time.December, grid.Month)

	grid = d.Navigate(1)
	assert.Equal(t, 2025, grid.Year)
	assert.Equal(t, time.January, grid.Month)

	grid = d.Navigate(-1)
	assert.Equal(t, time.December, grid.Month)

	grid = d.GoTo(2025, time.Month(13))
	assert.Equal(t, calendar.Cursor{Year: 2026, Month: time.January}, d.Cursor())
	for _, c := range grid.Cells {
		assert.False(t, c.IsToday)
	}

	grid = d.Today()
	assert.Equal(t, calendar.Cursor{Year: 2025, Month: time.March}, d.Cursor())
	cell, _ := grid.Cell(15)
	assert.True(t, cell.IsToday)
}

func TestGrid_EventsAcrossUnits(t *testing.T) {
	d := newTestDashboard(&mockFetcher{}, DashboardOptions{})

	cell, ok := d.Grid().Cell(20)
	require.True(t, ok)
	require.Len(t, cell.DisplayEvents, 2)
	assert.Equal(t, "Trees", cell.DisplayEvents[0].Topic)
	assert.Equal(t, "Shaders", cell.DisplayEvents[1].Topic)
	assert.Equal(t, 1, cell.OverflowCount)

	cell, _ = d.Grid().Cell(3)
	require.Len(t, cell.DisplayEvents, 1)
	assert.Equal(t, "Lists", cell.DisplayEvents[0].Topic)

	all := d.EventsForDate("20/03/2025")
	require.Len(t, all, 3)
	assert.Equal(t, "Graphs", all[2].Topic)
}

func TestGrid_ExpandRecurring(t *testing.T) {
	fetcher := &mockFetcher{records: map[int][]model.UnavailabilityRecord{
		2: {
			{ID: 1, Date: "2025-03-04", IsFullDay: true, RecurringPattern: model.RecurringWeekly},
			{ID: 2, Date: "2025-03-06", IsFullDay: true, RecurringPattern: model.RecurringCustom, RecurrenceRule: "garbage"},
		},
	}}

	plain := newTestDashboard(fetcher, DashboardOptions{})
	require.True(t, plain.RefreshUnavailability(context.Background()))
	assert.Equal(t, []int{4, 6}, unavailableDays(plain.Grid()))

	expanded := newTestDashboard(fetcher, DashboardOptions{ExpandRecurring: true})
	require.True(t, expanded.RefreshUnavailability(context.Background()))
	assert.Equal(t, []int{4, 6, 11, 18, 25}, unavailableDays(expanded.Grid()),
		"weekly record repeats, the invalid custom rule still marks its own date")
}

func TestUnits_ReturnsCopy(t *testing.T) {
	d := newTestDashboard(&mockFetcher{}, DashboardOptions{})

	units := d.Units()
	require.Len(t, units, 3)
	units[0].Code = "CHANGED"

	assert.Equal(t, "CITS1001", d.Units()[0].Code)
}
