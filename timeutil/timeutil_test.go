package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWeekStart(t *testing.T) {
	monday := time.Date(2026, time.August, 17, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"monday midnight is its own week start", monday, monday},
		{"mid-week", time.Date(2026, time.August, 19, 14, 30, 12, 0, time.UTC), monday},
		{"sunday belongs to the preceding monday", time.Date(2026, time.August, 23, 23, 59, 59, 0, time.UTC), monday},
		{"next monday starts a new week", monday.AddDate(0, 0, 7), monday.AddDate(0, 0, 7)},
		{"non-utc input is normalized", time.Date(2026, time.August, 17, 1, 0, 0, 0, time.FixedZone("east", 3*3600)), monday},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, WeekStart(tc.in))
		})
	}
}

func TestNextFullSecond(t *testing.T) {
	base := time.Date(2026, time.August, 17, 10, 0, 5, 0, time.UTC)
	assert.Equal(t, base.Add(time.Second), NextFullSecond(base),
		"an exact second still advances")
	assert.Equal(t, base.Add(time.Second), NextFullSecond(base.Add(300*time.Millisecond)))
}

func TestNextFullMinute(t *testing.T) {
	base := time.Date(2026, time.August, 17, 10, 30, 0, 0, time.UTC)
	assert.Equal(t, base.Add(time.Minute), NextFullMinute(base))
	assert.Equal(t, base.Add(time.Minute), NextFullMinute(base.Add(59*time.Second)))
}

func TestSecondIndex(t *testing.T) {
	for _, s := range []int{0, 1, 30, 59} {
		in := time.Date(2026, time.August, 17, 10, 0, s, 500, time.UTC)
		assert.Equal(t, uint8(s), SecondIndex(in))
	}
}
