package models

import "time"

// BanEntry is the per-IP failure record backing the brute-force ban
// tracker. At most one live entry exists per IP. An entry exists iff at
// least one failed attempt has been recorded since the IP's history last
// fully expired; expiry removes the row rather than decrementing it.
type BanEntry struct {
	IP    string    `db:"ip"`
	Count int       `db:"count"`
	Time  time.Time `db:"updated_at"`
}

// Banned reports whether the entry has reached the failure threshold.
func (e *BanEntry) Banned(banTries int) bool {
	return e.Count >= banTries
}

// BanExpired reports whether a banned entry's ban duration has lapsed as
// of now. Only meaningful when Banned is true.
func (e *BanEntry) BanExpired(now time.Time, banTime time.Duration) bool {
	return now.Sub(e.Time) > banTime
}

// WindowLapsed reports whether the failure window has passed since the
// last recorded failure, forgetting progress toward the threshold.
func (e *BanEntry) WindowLapsed(now time.Time, banLimit time.Duration) bool {
	return now.Sub(e.Time) > banLimit
}
