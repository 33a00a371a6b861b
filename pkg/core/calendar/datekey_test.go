package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facilitatorhub/dashboard/pkg/core/model"
)

func TestToDateKey(t *testing.T) {
	assert.Equal(t, DateKey("05/03/2025"), ToDateKey(2025, time.March, 5))
	assert.Equal(t, DateKey("31/12/2024"), ToDateKey(2024, time.December, 31))
	assert.Equal(t, DateKey("29/02/2024"), ToDateKey(2024, time.February, 29))
}

func TestDateKeyFromISO(t *testing.T) {
	tests := []struct {
		in     string
		want   DateKey
		wantOK bool
	}{
		{"2025-03-05", "05/03/2025", true},
		{"2025-03-05T00:00:00Z", "05/03/2025", true},
		{"2025-03-05 09:00:00", "05/03/2025", true},
		{" 2025-12-31 ", "31/12/2025", true},
		{"2025-02-30", "", false},
		{"05/03/2025", "", false},
		{"2025-03-05X", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := DateKeyFromISO(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestNormalizeDateKey(t *testing.T) {
	tests := []struct {
		in     string
		want   DateKey
		wantOK bool
	}{
		{"15/03/2025", "15/03/2025", true},
		{"5/3/2025", "05/03/2025", true},
		{"29/02/2024", "29/02/2024", true},
		{"29/02/2025", "", false},
		{"31/04/2025", "", false},
		{"15/13/2025", "", false},
		{"15/03/25", "", false},
		{"2025-03-15", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := NormalizeDateKey(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestDateKey_JoinRoundTrip(t *testing.T) {
	for _, d := range []time.Time{
		time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.October, 9, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC),
	} {
		key := ToDateKey(d.Year(), d.Month(), d.Day())

		units := []model.UnitSessions{{
			Upcoming: []model.SessionEvent{{Date: string(key), Time: "10:00 - 11:00", Topic: "joined"}},
		}}
		events := CollectEventsForDate(key, units)
		require.Len(t, events, 1, "key %s", key)

		iso, ok := DateKeyFromISO(d.Format("2006-01-02"))
		require.True(t, ok)
		assert.Equal(t, key, iso)

		back, ok := key.Time(time.UTC)
		require.True(t, ok)
		assert.True(t, back.Equal(d))
	}
}
