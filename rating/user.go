// Package rating holds the canonical leaderboard state: user records, the
// per-second online ring, the ingest double buffer and the minutely
// recalculator that folds staged events into the board.
package rating

import "github.com/linchenxuan/ladderd/timeutil"

// InvalidRating marks a user not yet placed on the board.
const InvalidRating = -1

// User is an active user: strictly positive winnings this week and a slot
// on the leaderboard. Records are heap-allocated once at promotion and
// referenced by pointer from the board, the online ring and data jobs;
// only the recalculator mutates them, and only while workers are parked.
type User struct {
	ID              int32
	Winnings        int64
	Rating          int
	SecondConnected uint8
	Name            string
}

// Online reports whether the user currently occupies a ring bucket.
func (u *User) Online() bool {
	return u.SecondConnected < timeutil.SecondsPerMinute
}

// SilentUser is a user known to the system with zero winnings this week.
// Silent users are tracked by value; they gain a stable identity only on
// promotion.
type SilentUser struct {
	SecondConnected uint8
	Name            string
}

func newSilentUser(name string) SilentUser {
	return SilentUser{SecondConnected: timeutil.InvalidSecond, Name: name}
}
