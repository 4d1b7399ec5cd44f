package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateWindow(t *testing.T) {
	anchor := time.Date(2026, 2, 20, 17, 45, 0, 0, time.UTC)
	entries := Generate(30, anchor)

	require.Len(t, entries, 30)
	assert.Equal(t, 20, entries[0].DayOfMonth)
	assert.Equal(t, 1, entries[0].MonthIndex)
	assert.Equal(t, 2026, entries[0].Year)
	assert.Equal(t, "Fri", entries[0].ShortName)
	assert.True(t, entries[0].Date.Equal(time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC)))

	for i := 1; i < len(entries); i++ {
		prev, cur := entries[i-1].Date, entries[i].Date
		assert.True(t, cur.After(prev), "entry %d not ascending", i)
		assert.True(t, prev.AddDate(0, 0, 1).Equal(cur))
	}

	// Crosses the month boundary into March.
	assert.Equal(t, "2026-03-01", entries[9].ISO())
	assert.Equal(t, "2026-03-21", entries[29].ISO())
}

func TestGenerateDefaultsAndIndependence(t *testing.T) {
	anchor := time.Date(2026, 12, 31, 8, 0, 0, 0, time.UTC)
	first := Generate(0, anchor)
	second := Generate(-5, anchor)

	require.Len(t, first, DefaultWindowDays)
	require.Len(t, second, DefaultWindowDays)
	first[0].DayOfMonth = 99
	assert.Equal(t, 31, second[0].DayOfMonth)
	assert.Equal(t, "2027-01-01", second[1].ISO())
}

func TestGenerateAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	anchor := time.Date(2026, 3, 7, 23, 30, 0, 0, loc)
	entries := Generate(3, anchor)
	require.Len(t, entries, 3)
	assert.Equal(t, []string{"2026-03-07", "2026-03-08", "2026-03-09"},
		[]string{entries[0].ISO(), entries[1].ISO(), entries[2].ISO()})
	for _, e := range entries {
		assert.Equal(t, 0, e.Date.Hour())
	}
}

func TestWeekdayName(t *testing.T) {
	entries := Generate(7, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	want := []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}
	for i, e := range entries {
		assert.Equal(t, want[i], WeekdayName(e))
		assert.Equal(t, want[i][:3], e.ShortName)
	}
}

func TestFormatISODateUsesLocalComponents(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*60*60)
	// 07:00 local is still the previous day in UTC.
	local := time.Date(2026, 5, 10, 7, 0, 0, 0, loc)
	assert.Equal(t, "2026-05-10", FormatISODate(local))
	assert.Equal(t, "2026-05-09", local.UTC().Format("2006-01-02"))
	assert.Equal(t, "2026-05-10", ISODate(NewEntry(local)))
}

func TestParseISODate(t *testing.T) {
	got, err := ParseISODate("2026-04-05", time.UTC)
	require.NoError(t, err)
	assert.True(t, time.Date(2026, 4, 5, 0, 0, 0, 0, time.UTC).Equal(got))

	_, err = ParseISODate("05/04/2026", time.UTC)
	assert.Error(t, err)
}

func TestMonthYearLabel(t *testing.T) {
	assert.Equal(t, "Jan 2026", MonthYearLabel(time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "Dec 2025", MonthYearLabel(time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)))
}

func TestIndexOf(t *testing.T) {
	entries := Generate(5, time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC))
	assert.Equal(t, 2, IndexOf(entries, time.Date(2026, 6, 3, 22, 0, 0, 0, time.UTC)))
	assert.Equal(t, -1, IndexOf(entries, time.Date(2026, 7, 3, 0, 0, 0, 0, time.UTC)))
}
