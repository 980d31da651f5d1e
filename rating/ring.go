package rating

import "github.com/linchenxuan/ladderd/timeutil"

// OnlineRing buckets online active users by the second-of-minute they
// connected at. The announcer walks one bucket per second; the
// recalculator is the only mutator, and only while workers are parked.
type OnlineRing struct {
	buckets [timeutil.SecondsPerMinute]map[*User]struct{}
}

// NewOnlineRing creates a ring of empty buckets.
func NewOnlineRing() *OnlineRing {
	r := &OnlineRing{}
	for i := range r.buckets {
		r.buckets[i] = make(map[*User]struct{})
	}
	return r
}

// Add places u into the bucket of its connected second.
func (r *OnlineRing) Add(u *User) {
	r.buckets[u.SecondConnected][u] = struct{}{}
}

// Remove drops u from the bucket of its connected second.
func (r *OnlineRing) Remove(u *User) {
	delete(r.buckets[u.SecondConnected], u)
}

// Bucket returns the users connected at second s.
func (r *OnlineRing) Bucket(s int) map[*User]struct{} {
	return r.buckets[s]
}

// Len returns the total number of ringed users.
func (r *OnlineRing) Len() int {
	n := 0
	for i := range r.buckets {
		n += len(r.buckets[i])
	}
	return n
}

// Clear empties every bucket.
func (r *OnlineRing) Clear() {
	for i := range r.buckets {
		clear(r.buckets[i])
	}
}
