package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddMonths(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		want  time.Time
		n     int
	}{
		{
			name:  "plain month",
			start: New(2024, time.March, 3),
			n:     1,
			want:  New(2024, time.April, 3),
		},
		{
			name:  "jan 31 to feb in non-leap year",
			start: New(2023, time.January, 31),
			n:     1,
			want:  New(2023, time.February, 28),
		},
		{
			name:  "jan 31 to feb in leap year",
			start: New(2024, time.January, 31),
			n:     1,
			want:  New(2024, time.February, 29),
		},
		{
			name:  "quarter from end of november",
			start: New(2023, time.November, 30),
			n:     3,
			want:  New(2024, time.February, 29),
		},
		{
			name:  "across year boundary",
			start: New(2023, time.December, 15),
			n:     1,
			want:  New(2024, time.January, 15),
		},
		{
			name:  "negative months clamp",
			start: New(2024, time.March, 31),
			n:     -1,
			want:  New(2024, time.February, 29),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AddMonths(tt.start, tt.n))
		})
	}
}

func TestAddYears_LeapDay(t *testing.T) {
	assert.Equal(t, New(2025, time.February, 28), AddYears(New(2024, time.February, 29), 1))
	assert.Equal(t, New(2028, time.February, 29), AddYears(New(2024, time.February, 29), 4))
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 31, DaysBetween(New(2024, time.January, 1), New(2024, time.February, 1)))
	assert.Equal(t, 31, DaysBetween(New(2024, time.February, 1), New(2024, time.March, 3)))
	assert.Equal(t, -1, DaysBetween(New(2024, time.January, 2), New(2024, time.January, 1)))

	// Time of day is ignored.
	late := time.Date(2024, time.January, 1, 23, 59, 0, 0, time.UTC)
	early := time.Date(2024, time.January, 2, 0, 1, 0, 0, time.UTC)
	assert.Equal(t, 1, DaysBetween(late, early))
}

func TestParse(t *testing.T) {
	got, err := Parse("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, New(2024, time.February, 29), got)

	got, err = Parse("2024-03-03T18:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, New(2024, time.March, 3), got)

	for _, bad := range []string{"", "2023-02-29", "03/03/2024", "not a date"} {
		_, err := Parse(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestDate_KeepsLocalCalendarDay(t *testing.T) {
	loc := time.FixedZone("UTC-8", -8*60*60)
	evening := time.Date(2024, time.May, 10, 22, 0, 0, 0, loc)
	assert.Equal(t, New(2024, time.May, 10), Date(evening))
	assert.Equal(t, "2024-05-10", Format(evening))
}
