package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCancelled BookingStatus = "CANCELLED"
	BookingExpired   BookingStatus = "EXPIRED"
)

// Terminal reports whether the status admits no further transitions.
func (s BookingStatus) Terminal() bool {
	return s == BookingConfirmed || s == BookingCancelled || s == BookingExpired
}

type Booking struct {
	ID          int
	Code        string
	ShowID      int
	UserName    string
	UserEmail   string
	UserPhone   string
	TotalAmount decimal.Decimal
	Status      BookingStatus
	PaymentRef  string
	ExpiresAt   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Seats       []BookingSeat
}

// BookingSeat records the price charged for one seat at booking time.
// Entries are created with the booking and immutable afterwards.
type BookingSeat struct {
	SeatID     int
	SeatNumber string
	SeatType   SeatType
	Price      decimal.Decimal
}

// Lapsed reports whether a pending booking's payment window has passed.
// A lapsed pending booking behaves exactly like an EXPIRED one on every
// operation; the stored status catches up whenever it is next touched.
func (b *Booking) Lapsed(now time.Time) bool {
	return b.Status == BookingPending && now.After(b.ExpiresAt)
}

// EffectiveStatus resolves lazy expiry against the given instant.
func (b *Booking) EffectiveStatus(now time.Time) BookingStatus {
	if b.Lapsed(now) {
		return BookingExpired
	}
	return b.Status
}

// Taken reports whether the booking currently holds its seats against
// other buyers.
func (b *Booking) Taken(now time.Time) bool {
	status := b.EffectiveStatus(now)
	return status == BookingPending || status == BookingConfirmed
}

type BuyerInfo struct {
	Name  string
	Email string
	Phone string
}

// BookingDetail is the full receipt view returned by code lookups.
type BookingDetail struct {
	Booking     Booking
	MovieTitle  string
	PosterURL   string
	Duration    int
	Certificate string
	TheaterName string
	TheaterAddr string
	TheaterCity string
	ScreenName  string
	ShowDate    time.Time
	ShowTime    time.Time
}

// ReservationEngine is the single write surface over seat locks and
// bookings. Every state-changing method runs inside one storage
// transaction; no caller ever observes a partial lock set or an
// orphaned booking.
type ReservationEngine interface {
	LockSeats(ctx context.Context, showID int, seatIDs []int, sessionID string) (*LockResult, error)
	ReleaseSeats(ctx context.Context, sessionID string) error
	CreateBooking(ctx context.Context, showID int, seatIDs []int, sessionID string, buyer BuyerInfo) (*BookingDetail, error)
	GetBooking(ctx context.Context, code string) (*BookingDetail, error)
	ConfirmBooking(ctx context.Context, code string) (*Booking, bool, error)
	CancelBooking(ctx context.Context, code string) error
	GetAvailability(ctx context.Context, showID int) (*ShowAvailability, error)
}
