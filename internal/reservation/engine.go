// Package reservation implements the seat reservation and booking
// lifecycle engine. Every state-changing operation runs inside a single
// storage transaction; mutual exclusion on contended seats is delegated
// to row-level locks taken by those transactions, so the engine itself
// is stateless and can be replicated freely.
package reservation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/movietix/booking-api/internal/bookingcode"
	"github.com/movietix/booking-api/internal/domain"
	"github.com/movietix/booking-api/internal/repository"
	"github.com/shopspring/decimal"
)

const (
	DefaultLockTTL    = 5 * time.Minute
	DefaultBookingTTL = 5 * time.Minute

	maxCodeAttempts = 5
)

type Config struct {
	LockTTL    time.Duration
	BookingTTL time.Duration
}

type Engine struct {
	db         *pgxpool.Pool
	logger     *slog.Logger
	clock      domain.Clock
	lockTTL    time.Duration
	bookingTTL time.Duration
	newCode    func() string
}

func NewEngine(db *pgxpool.Pool, logger *slog.Logger, cfg Config) *Engine {
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = DefaultLockTTL
	}
	if cfg.BookingTTL <= 0 {
		cfg.BookingTTL = DefaultBookingTTL
	}

	return &Engine{
		db:         db,
		logger:     logger,
		clock:      domain.SystemClock,
		lockTTL:    cfg.LockTTL,
		bookingTTL: cfg.BookingTTL,
		newCode:    bookingcode.Generate,
	}
}

// WithClock replaces the time source. Tests use it to move deadlines
// around without sleeping.
func (e *Engine) WithClock(clock domain.Clock) *Engine {
	e.clock = clock
	return e
}

// LockSeats places an all-or-nothing hold on the given seats for the
// session. Any previous locks held by the session are superseded.
func (e *Engine) LockSeats(
	ctx context.Context,
	showID int,
	seatIDs []int,
	sessionID string) (*domain.LockResult, error) {

	seatIDs = dedupe(seatIDs)
	now := e.clock.Now()

	var result *domain.LockResult

	err := repository.RunInTx(ctx, e.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		shows := repository.NewShowStore(tx)
		seats := repository.NewSeatStore(tx)
		locks := repository.NewSeatLockStore(tx)
		bookings := repository.NewBookingStore(tx)

		show, err := shows.GetByID(ctx, showID)
		if err != nil {
			return err
		}

		// Row locks on the seats serialize rival lock attempts for
		// overlapping seat sets; one of them commits first and the
		// other then sees its locks.
		seatRows, err := seats.LockForUpdate(ctx, show.ScreenID, seatIDs)
		if err != nil {
			return err
		}
		if len(seatRows) != len(seatIDs) {
			return domain.ErrSeatInvalid
		}

		if err := locks.SweepExpired(ctx, now); err != nil {
			return err
		}

		held, err := locks.FindHeldByOthers(ctx, showID, seatIDs, sessionID, now)
		if err != nil {
			return err
		}
		if len(held) > 0 {
			return fmt.Errorf("seats %v: %w", held, domain.ErrSeatConflict)
		}

		taken, err := bookings.FindActiveSeatIDs(ctx, showID, seatIDs, now)
		if err != nil {
			return err
		}
		if len(taken) > 0 {
			return fmt.Errorf("seats %v: %w", taken, domain.ErrSeatConflict)
		}

		if err := locks.DeleteBySession(ctx, sessionID); err != nil {
			return err
		}

		expiresAt := now.Add(e.lockTTL)
		newLocks := make([]domain.SeatLock, 0, len(seatIDs))
		for _, seatID := range seatIDs {
			newLocks = append(newLocks, domain.SeatLock{
				ShowID:    showID,
				SeatID:    seatID,
				SessionID: sessionID,
				ExpiresAt: expiresAt,
			})
		}

		if err := locks.Insert(ctx, newLocks); err != nil {
			return err
		}

		result = &domain.LockResult{
			ExpiresAt:   expiresAt,
			LockedSeats: len(seatIDs),
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	e.logger.Debug("seats locked", "show_id", showID, "seats", len(seatIDs))

	return result, nil
}

// ReleaseSeats drops every lock the session holds. Idempotent.
func (e *Engine) ReleaseSeats(ctx context.Context, sessionID string) error {
	return repository.NewSeatLockStore(e.db).DeleteBySession(ctx, sessionID)
}

// CreateBooking converts the session's locks into a pending booking.
// Every precondition is re-checked inside the transaction: the locks
// may have expired or rival bookings may have landed since LockSeats.
func (e *Engine) CreateBooking(
	ctx context.Context,
	showID int,
	seatIDs []int,
	sessionID string,
	buyer domain.BuyerInfo) (*domain.BookingDetail, error) {

	seatIDs = dedupe(seatIDs)
	now := e.clock.Now()

	var detail *domain.BookingDetail

	err := repository.RunInTx(ctx, e.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		shows := repository.NewShowStore(tx)
		seats := repository.NewSeatStore(tx)
		locks := repository.NewSeatLockStore(tx)
		bookings := repository.NewBookingStore(tx)

		showDetail, err := shows.GetDetailByID(ctx, showID)
		if err != nil {
			return err
		}
		if !showDetail.Show.Active {
			return domain.ErrShowNotFound
		}

		seatRows, err := seats.LockForUpdate(ctx, showDetail.Show.ScreenID, seatIDs)
		if err != nil {
			return err
		}
		if len(seatRows) != len(seatIDs) {
			return domain.ErrSeatInvalid
		}

		if err := locks.SweepExpired(ctx, now); err != nil {
			return err
		}

		taken, err := bookings.FindActiveSeatIDs(ctx, showID, seatIDs, now)
		if err != nil {
			return err
		}
		if len(taken) > 0 {
			return fmt.Errorf("seats %v: %w", taken, domain.ErrSeatConflict)
		}

		owned, err := locks.FindActiveBySession(ctx, showID, seatIDs, sessionID, now)
		if err != nil {
			return err
		}
		if len(owned) != len(seatIDs) {
			return domain.ErrLockMissing
		}

		totalAmount := decimal.Zero
		bookingSeats := make([]domain.BookingSeat, 0, len(seatRows))

		for _, seat := range seatRows {
			price, ok := showDetail.Show.Pricing.PriceFor(seat.Type)
			if !ok {
				return fmt.Errorf("show %d has no price for seat type %s: %w",
					showID, seat.Type, domain.ErrSeatInvalid)
			}

			totalAmount = totalAmount.Add(price)
			bookingSeats = append(bookingSeats, domain.BookingSeat{
				SeatID:     seat.ID,
				SeatNumber: seat.SeatNumber,
				SeatType:   seat.Type,
				Price:      price,
			})
		}

		code, err := pickCode(ctx, bookings.ExistsByCode, e.newCode)
		if err != nil {
			return err
		}

		booking := &domain.Booking{
			Code:        code,
			ShowID:      showID,
			UserName:    buyer.Name,
			UserEmail:   buyer.Email,
			UserPhone:   buyer.Phone,
			TotalAmount: totalAmount,
			Status:      domain.BookingPending,
			ExpiresAt:   now.Add(e.bookingTTL),
			Seats:       bookingSeats,
		}

		if err := bookings.Create(ctx, booking); err != nil {
			// Lost a race on the final insert despite the pre-check;
			// surface it the same way as generator exhaustion so the
			// caller retries the whole request.
			if errors.Is(err, repository.ErrDuplicateCode) {
				return domain.ErrCodeGeneration
			}

			return err
		}

		// The pending booking itself now reserves the seats.
		if err := locks.DeleteBySession(ctx, sessionID); err != nil {
			return err
		}

		detail = newBookingDetail(booking, showDetail)

		return nil
	})

	if err != nil {
		return nil, err
	}

	e.logger.Info("booking created",
		"booking_code", detail.Booking.Code,
		"show_id", showID,
		"seats", len(seatIDs),
	)

	return detail, nil
}

// GetBooking returns the receipt view for a booking code. The reported
// status resolves lazy expiry against now without writing anything.
func (e *Engine) GetBooking(ctx context.Context, code string) (*domain.BookingDetail, error) {
	bookings := repository.NewBookingStore(e.db)
	shows := repository.NewShowStore(e.db)

	booking, err := bookings.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	seats, err := bookings.FindSeats(ctx, booking.ID)
	if err != nil {
		return nil, err
	}

	booking.Seats = seats
	booking.Status = booking.EffectiveStatus(e.clock.Now())

	showDetail, err := shows.GetDetailByID(ctx, booking.ShowID)
	if err != nil {
		return nil, err
	}

	return newBookingDetail(booking, showDetail), nil
}

// ConfirmBooking finalizes a pending booking, simulating a successful
// payment. Confirming an already confirmed booking succeeds without
// side effects; the returned flag is false in that case so callers can
// skip one-shot actions like the receipt email on retries.
func (e *Engine) ConfirmBooking(ctx context.Context, code string) (*domain.Booking, bool, error) {
	now := e.clock.Now()

	var (
		confirmed    *domain.Booking
		transitioned bool
		stateErr     error
	)

	err := repository.RunInTx(ctx, e.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		bookings := repository.NewBookingStore(tx)

		booking, err := bookings.FindByCodeForUpdate(ctx, code)
		if err != nil {
			return err
		}

		switch booking.Status {
		case domain.BookingConfirmed:
			confirmed = booking
			return nil
		case domain.BookingCancelled:
			stateErr = domain.ErrBookingCancelled
			return nil
		case domain.BookingExpired:
			stateErr = domain.ErrBookingExpired
			return nil
		}

		if booking.Lapsed(now) {
			// Expiry is discovered on access; persist it and report it.
			err := bookings.Transition(ctx, booking.ID,
				[]domain.BookingStatus{domain.BookingPending}, domain.BookingExpired)
			if err != nil {
				return err
			}

			stateErr = domain.ErrBookingExpired
			return nil
		}

		paymentRef := fmt.Sprintf("PAY-%s", uuid.NewString())

		if err := bookings.Confirm(ctx, booking.ID, paymentRef); err != nil {
			return err
		}

		booking.Status = domain.BookingConfirmed
		booking.PaymentRef = paymentRef
		confirmed = booking
		transitioned = true

		return nil
	})

	if err != nil {
		return nil, false, err
	}
	if stateErr != nil {
		return nil, false, stateErr
	}

	if transitioned {
		e.logger.Info("booking confirmed", "booking_code", confirmed.Code)
	}

	return confirmed, transitioned, nil
}

// CancelBooking cancels a pending booking. Cancelling an already
// cancelled booking succeeds without side effects; confirmed bookings
// cannot be cancelled here and go through the support refund path.
func (e *Engine) CancelBooking(ctx context.Context, code string) error {
	now := e.clock.Now()

	var stateErr error

	err := repository.RunInTx(ctx, e.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		bookings := repository.NewBookingStore(tx)

		booking, err := bookings.FindByCodeForUpdate(ctx, code)
		if err != nil {
			return err
		}

		switch booking.Status {
		case domain.BookingCancelled:
			return nil
		case domain.BookingConfirmed:
			stateErr = domain.ErrCannotCancelConfirmed
			return nil
		case domain.BookingExpired:
			stateErr = domain.ErrBookingExpired
			return nil
		}

		if booking.Lapsed(now) {
			err := bookings.Transition(ctx, booking.ID,
				[]domain.BookingStatus{domain.BookingPending}, domain.BookingExpired)
			if err != nil {
				return err
			}

			stateErr = domain.ErrBookingExpired
			return nil
		}

		return bookings.Transition(ctx, booking.ID,
			[]domain.BookingStatus{domain.BookingPending}, domain.BookingCancelled)
	})

	if err != nil {
		return err
	}

	return stateErr
}

// GetAvailability computes the per-seat status for a show: booked takes
// precedence over locked, locked over available. The projection is
// derived on every call and never stored, so it cannot drift from the
// underlying lock and booking state.
func (e *Engine) GetAvailability(ctx context.Context, showID int) (*domain.ShowAvailability, error) {
	now := e.clock.Now()

	var availability *domain.ShowAvailability

	err := repository.RunInTx(ctx, e.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		shows := repository.NewShowStore(tx)
		seats := repository.NewSeatStore(tx)
		locks := repository.NewSeatLockStore(tx)
		bookings := repository.NewBookingStore(tx)

		showDetail, err := shows.GetDetailByID(ctx, showID)
		if err != nil {
			return err
		}
		if !showDetail.Show.Active {
			return domain.ErrShowNotFound
		}

		if err := locks.SweepExpired(ctx, now); err != nil {
			return err
		}
		if _, err := bookings.ExpireLapsed(ctx, now); err != nil {
			return err
		}

		seatRows, err := seats.GetActiveSeatsByScreen(ctx, showDetail.Show.ScreenID)
		if err != nil {
			return err
		}

		bookedSeatIDs, err := bookings.FindActiveSeatIDsByShow(ctx, showID, now)
		if err != nil {
			return err
		}

		activeLocks, err := locks.FindActiveByShow(ctx, showID, now)
		if err != nil {
			return err
		}

		booked := make(map[int]bool, len(bookedSeatIDs))
		for _, seatID := range bookedSeatIDs {
			booked[seatID] = true
		}

		lockedBy := make(map[int]string, len(activeLocks))
		for _, lock := range activeLocks {
			lockedBy[lock.SeatID] = lock.SessionID
		}

		seatStatuses := make([]domain.SeatAvailability, 0, len(seatRows))

		for _, seat := range seatRows {
			status := domain.SeatAvailability{Seat: seat, Status: domain.SeatAvailable}

			switch {
			case booked[seat.ID]:
				status.Status = domain.SeatBooked
			case lockedBy[seat.ID] != "":
				status.Status = domain.SeatLocked
				status.LockedBy = lockedBy[seat.ID]
			}

			seatStatuses = append(seatStatuses, status)
		}

		availability = &domain.ShowAvailability{
			Show:       showDetail.Show,
			ScreenName: showDetail.ScreenName,
			Seats:      seatStatuses,
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return availability, nil
}

func newBookingDetail(booking *domain.Booking, showDetail *domain.ShowDetail) *domain.BookingDetail {
	return &domain.BookingDetail{
		Booking:     *booking,
		MovieTitle:  showDetail.MovieTitle,
		PosterURL:   showDetail.PosterURL,
		Duration:    showDetail.Duration,
		Certificate: showDetail.Certificate,
		TheaterName: showDetail.TheaterName,
		TheaterAddr: showDetail.TheaterAddr,
		TheaterCity: showDetail.TheaterCity,
		ScreenName:  showDetail.ScreenName,
		ShowDate:    showDetail.Show.Date,
		ShowTime:    showDetail.Show.StartTime,
	}
}

func dedupe(seatIDs []int) []int {
	seen := make(map[int]bool, len(seatIDs))
	out := make([]int, 0, len(seatIDs))

	for _, id := range seatIDs {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}

	return out
}
