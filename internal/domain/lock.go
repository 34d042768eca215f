package domain

import "time"

// SeatLock is a short-lived hold on one seat for one show, owned by an
// opaque client session. The (show, seat) pair is the contended
// resource: at most one unexpired lock may exist for it.
type SeatLock struct {
	ShowID    int
	SeatID    int
	SessionID string
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (l SeatLock) Expired(now time.Time) bool {
	return now.After(l.ExpiresAt)
}

// LockResult reports a successful all-or-nothing lock acquisition.
type LockResult struct {
	ExpiresAt   time.Time
	LockedSeats int
}
