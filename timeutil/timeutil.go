// Package timeutil provides the wall-clock helpers the rating pipeline is
// built around: week boundaries, full-second alignment, and the
// second-of-minute index used to bucket connected users.
package timeutil

import "time"

// SecondsPerMinute is the size of the per-second announcement ring.
const SecondsPerMinute = 60

// InvalidSecond is the sentinel second-of-minute meaning "disconnected".
const InvalidSecond = uint8(60)

// WeekStart returns the start of the week containing t.
// Weeks begin on Monday 00:00 UTC.
func WeekStart(t time.Time) time.Time {
	t = t.UTC()
	day := t.Truncate(24 * time.Hour)
	// time.Weekday numbers Sunday as 0; shift so Monday is day zero.
	back := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -back)
}

// NextFullSecond returns the earliest whole second strictly after t.
func NextFullSecond(t time.Time) time.Time {
	return t.Truncate(time.Second).Add(time.Second)
}

// NextFullMinute returns the earliest whole minute strictly after t.
func NextFullMinute(t time.Time) time.Time {
	return t.Truncate(time.Minute).Add(time.Minute)
}

// SecondIndex returns the second-of-minute bucket index for t, in [0,59].
func SecondIndex(t time.Time) uint8 {
	return uint8(t.Second())
}
