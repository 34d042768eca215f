package domain

type SeatType string

const (
	SeatRegular SeatType = "REGULAR"
	SeatPremium SeatType = "PREMIUM"
	SeatVIP     SeatType = "VIP"
)

type Seat struct {
	ID         int
	ScreenID   int
	SeatNumber string
	Row        int
	Col        int
	Type       SeatType
	Active     bool
}

type SeatStatus string

const (
	SeatAvailable SeatStatus = "available"
	SeatLocked    SeatStatus = "locked"
	SeatBooked    SeatStatus = "booked"
)

// SeatAvailability is the derived per-seat view for one show. It is
// recomputed on every read and never persisted.
type SeatAvailability struct {
	Seat     Seat
	Status   SeatStatus
	LockedBy string
}

type ShowAvailability struct {
	Show       Show
	ScreenName string
	Seats      []SeatAvailability
}
