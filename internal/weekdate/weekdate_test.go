package weekdate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestISOWeekRoundTrip(t *testing.T) {
	for year := 1995; year <= 2040; year++ {
		for week := 1; week <= WeeksInYear(year); week++ {
			monday := WeekDates(year, week)[0]
			require.Equal(t, year, ISOWeekYear(monday), "year %d week %d", year, week)
			require.Equal(t, week, ISOWeekNumber(monday), "year %d week %d", year, week)
			require.Equal(t, time.Monday, monday.Weekday())
		}
	}
}

func TestWeekDatesContiguousAcrossDST(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skip("tzdata not available")
	}
	prev := time.Local
	time.Local = berlin
	t.Cleanup(func() { time.Local = prev })

	// 2024-W13 ends on the spring-forward Sunday (31 March),
	// 2024-W43 ends on the fall-back Sunday (27 October).
	for _, week := range []int{13, 43, 44} {
		dates := WeekDates(2024, week)
		for i := 1; i < 7; i++ {
			a, _ := time.ParseInLocation(keyLayout, DateKey(dates[i-1]), time.UTC)
			b, _ := time.ParseInLocation(keyLayout, DateKey(dates[i]), time.UTC)
			assert.Equal(t, 24*time.Hour, b.Sub(a), "week %d day %d", week, i)
		}
	}
	assert.Equal(t, "2024-03-31", DateKey(WeekDates(2024, 13)[6]))
}

func TestWeeksInYear(t *testing.T) {
	cases := map[int]int{
		2015: 53,
		2019: 52, // Dec 31 2019 is in 2020-W01
		2020: 53,
		2021: 52,
		2024: 52, // Dec 31 2024 is in 2025-W01
		2026: 53,
	}
	for year, want := range cases {
		assert.Equal(t, want, WeeksInYear(year), "year %d", year)
	}
}

func TestISOWeekYearAtBoundaries(t *testing.T) {
	d := time.Date(2024, time.December, 30, 12, 0, 0, 0, time.Local)
	assert.Equal(t, 2025, ISOWeekYear(d))
	assert.Equal(t, 1, ISOWeekNumber(d))

	d = time.Date(2021, time.January, 3, 12, 0, 0, 0, time.Local)
	assert.Equal(t, 2020, ISOWeekYear(d))
	assert.Equal(t, 53, ISOWeekNumber(d))
}

func TestDateKeyUsesLocalComponents(t *testing.T) {
	midnight := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.Local)
	assert.Equal(t, "2024-03-04", DateKey(midnight))

	late := time.Date(2024, time.March, 4, 23, 59, 0, 0, time.Local)
	assert.Equal(t, "2024-03-04", DateKey(late))
}

func TestWeekOf(t *testing.T) {
	year, week, err := WeekOf("2024-03-04")
	require.NoError(t, err)
	assert.Equal(t, 2024, year)
	assert.Equal(t, 10, week)

	_, _, err = WeekOf("04.03.2024")
	assert.Error(t, err)
}

func TestShortDate(t *testing.T) {
	assert.Equal(t, "04.03", ShortDate(WeekDates(2024, 10)[0]))
}
