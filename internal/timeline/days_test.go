package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestBuildRange_LengthAndOrder(t *testing.T) {
	now := time.Date(2026, time.August, 28, 15, 42, 7, 0, time.UTC)

	days := BuildRange(now, 10, 3)
	require.Len(t, days, 13)

	// Strictly ascending, no duplicates, columns match positions.
	for i := 1; i < len(days); i++ {
		assert.True(t, days[i].Date.After(days[i-1].Date))
		assert.Equal(t, "24h0m0s", days[i].Date.Sub(days[i-1].Date).String())
	}
	for i, d := range days {
		assert.Equal(t, i, d.Column)
	}

	// Anchored so the last day equals today + futureOffset.
	assert.Equal(t, "2026-08-31", days[len(days)-1].Key())
	assert.Equal(t, "2026-08-19", days[0].Key())
}

func TestBuildRange_NoFutureOffset(t *testing.T) {
	now := date(2026, time.August, 28)

	days := BuildRange(now, 7, 0)
	require.Len(t, days, 7)
	assert.Equal(t, "2026-08-28", days[len(days)-1].Key())
}

func TestBuildRange_Empty(t *testing.T) {
	assert.Empty(t, BuildRange(date(2026, time.August, 28), 0, 0))
}

func TestDayKey_ZeroPadded(t *testing.T) {
	assert.Equal(t, "2026-01-05", DayKey(date(2026, time.January, 5)))
	assert.Equal(t, "0987-09-09", DayKey(date(987, time.September, 9)))
}

func TestDayKey_IndependentOfTimeOfDay(t *testing.T) {
	morning := time.Date(2026, time.March, 3, 0, 0, 1, 0, time.UTC)
	night := time.Date(2026, time.March, 3, 23, 59, 59, 0, time.UTC)

	assert.Equal(t, DayKey(morning), DayKey(night))
}

func TestDayKey_RoundTrip(t *testing.T) {
	d := date(2026, time.February, 7)
	parsed, err := time.Parse("2006-01-02", DayKey(d))
	require.NoError(t, err)

	assert.Equal(t, d.Year(), parsed.Year())
	assert.Equal(t, d.Month(), parsed.Month())
	assert.Equal(t, d.Day(), parsed.Day())
}

func TestHolidayClassification(t *testing.T) {
	// 2024-06-01 is a Saturday.
	sat := date(2024, time.June, 1)
	sun := sat.AddDate(0, 0, 1)

	assert.True(t, IsHoliday(sat))
	assert.True(t, IsHoliday(sun))

	for i := 2; i <= 6; i++ { // Monday through Friday
		weekday := sat.AddDate(0, 0, i)
		assert.False(t, IsHoliday(weekday), "expected %s to be a weekday", DayKey(weekday))
		assert.True(t, IsWeekday(weekday))
	}
}

func TestBuildRange_HolidayFlags(t *testing.T) {
	// Window ending Friday 2024-06-07: contains Sat 1st and Sun 2nd.
	days := BuildRange(date(2024, time.June, 7), 7, 0)
	require.Len(t, days, 7)

	assert.True(t, days[0].Holiday)  // Sat 1st
	assert.True(t, days[1].Holiday)  // Sun 2nd
	assert.False(t, days[2].Holiday) // Mon 3rd
	assert.False(t, days[6].Holiday) // Fri 7th
}
