package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/movietix/booking-api/internal/domain"
)

// ErrDuplicateCode reports a booking_code unique constraint violation.
// The engine reacts by regenerating the code, up to its attempt cap.
var ErrDuplicateCode = errors.New("booking code already exists")

type BookingStore struct {
	db DBTX
}

func NewBookingStore(db DBTX) *BookingStore {
	return &BookingStore{
		db: db,
	}
}

// Create inserts the booking and its seat rows. It is the only write
// path producing a PENDING booking; the engine performs every conflict
// and lock-ownership check in the same transaction before calling it.
func (s *BookingStore) Create(ctx context.Context, booking *domain.Booking) error {
	query := `
		INSERT INTO bookings (booking_code, show_id, user_name, user_email, user_phone, total_amount, status, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	err := s.db.QueryRow(
		ctx,
		query,
		booking.Code,
		booking.ShowID,
		booking.UserName,
		booking.UserEmail,
		booking.UserPhone,
		booking.TotalAmount,
		booking.Status,
		booking.ExpiresAt,
	).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrDuplicateCode
		}

		return err
	}

	rows := make([][]any, 0, len(booking.Seats))
	for _, seat := range booking.Seats {
		rows = append(rows, []any{booking.ID, seat.SeatID, seat.Price})
	}

	_, err = s.db.CopyFrom(
		ctx,
		pgx.Identifier{"booking_seats"},
		[]string{"booking_id", "seat_id", "price"},
		pgx.CopyFromRows(rows),
	)

	return err
}

func (s *BookingStore) ExistsByCode(ctx context.Context, code string) (bool, error) {
	query := `
		SELECT EXISTS (SELECT 1 FROM bookings WHERE booking_code = $1)
	`

	var exists bool

	err := s.db.QueryRow(ctx, query, code).Scan(&exists)

	return exists, err
}

func (s *BookingStore) FindByCode(ctx context.Context, code string) (*domain.Booking, error) {
	return s.findByCode(ctx, code, false)
}

// FindByCodeForUpdate locks the booking row so concurrent confirm and
// cancel attempts on the same booking serialize.
func (s *BookingStore) FindByCodeForUpdate(ctx context.Context, code string) (*domain.Booking, error) {
	return s.findByCode(ctx, code, true)
}

func (s *BookingStore) findByCode(ctx context.Context, code string, forUpdate bool) (*domain.Booking, error) {
	query := `
		SELECT id, booking_code, show_id, user_name, user_email, user_phone,
			total_amount, status, payment_ref, expires_at, created_at, updated_at
		FROM bookings
		WHERE booking_code = $1
	`

	if forUpdate {
		query += " FOR UPDATE"
	}

	var booking domain.Booking

	err := s.db.QueryRow(ctx, query, code).Scan(
		&booking.ID,
		&booking.Code,
		&booking.ShowID,
		&booking.UserName,
		&booking.UserEmail,
		&booking.UserPhone,
		&booking.TotalAmount,
		&booking.Status,
		&booking.PaymentRef,
		&booking.ExpiresAt,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}

		return nil, err
	}

	return &booking, nil
}

// FindSeats returns the seat rows charged on a booking, with their
// catalog attributes for receipt display.
func (s *BookingStore) FindSeats(ctx context.Context, bookingID int) ([]domain.BookingSeat, error) {
	query := `
		SELECT bs.seat_id, se.seat_number, se.seat_type, bs.price
		FROM booking_seats bs
		JOIN seats se ON bs.seat_id = se.id
		WHERE bs.booking_id = $1
		ORDER BY se.seat_row, se.seat_col
	`

	rows, err := s.db.Query(ctx, query, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seats := make([]domain.BookingSeat, 0)

	for rows.Next() {
		var seat domain.BookingSeat

		err := rows.Scan(&seat.SeatID, &seat.SeatNumber, &seat.SeatType, &seat.Price)
		if err != nil {
			return nil, err
		}

		seats = append(seats, seat)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return seats, nil
}

// Transition performs the conditional status update: it succeeds only
// if the current status is one of from. Callers decide how to react to
// ErrInvalidTransition; "already confirmed" and "already cancelled" are
// idempotent successes one level up, others are hard failures.
func (s *BookingStore) Transition(
	ctx context.Context,
	bookingID int,
	from []domain.BookingStatus,
	to domain.BookingStatus) error {

	query := `
		UPDATE bookings
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = ANY($3)
	`

	tag, err := s.db.Exec(ctx, query, to, bookingID, statusStrings(from))
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidTransition
	}

	return nil
}

// Confirm moves a pending booking to CONFIRMED, stamping the payment
// reference produced by the (simulated) payment trigger.
func (s *BookingStore) Confirm(ctx context.Context, bookingID int, paymentRef string) error {
	query := `
		UPDATE bookings
		SET status = $1, payment_ref = $2, updated_at = NOW()
		WHERE id = $3 AND status = $4
	`

	tag, err := s.db.Exec(ctx, query, domain.BookingConfirmed, paymentRef, bookingID, domain.BookingPending)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidTransition
	}

	return nil
}

// ExpireLapsed flips every pending booking whose payment window has
// passed to EXPIRED. It is an opportunistic sweep: readers never depend
// on it having run, since every check also compares expires_at to now.
func (s *BookingStore) ExpireLapsed(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE bookings
		SET status = $1, updated_at = NOW()
		WHERE status = $2 AND expires_at < $3
	`

	tag, err := s.db.Exec(ctx, query, domain.BookingExpired, domain.BookingPending, now)
	if err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}

// FindActiveSeatIDs returns the subset of seatIDs held by a booking
// that still counts as taken for the show: CONFIRMED, or PENDING with
// an unexpired payment window. Lapsed pending bookings are excluded
// whether or not a sweep has flipped them yet.
func (s *BookingStore) FindActiveSeatIDs(
	ctx context.Context,
	showID int,
	seatIDs []int,
	now time.Time) ([]int, error) {

	query := `
		SELECT bs.seat_id
		FROM booking_seats bs
		JOIN bookings b ON bs.booking_id = b.id
		WHERE b.show_id = $1
			AND bs.seat_id = ANY($2)
			AND (b.status = $3 OR (b.status = $4 AND b.expires_at > $5))
	`

	rows, err := s.db.Query(ctx, query, showID, seatIDs, domain.BookingConfirmed, domain.BookingPending, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSeatIDs(rows)
}

// FindActiveSeatIDsByShow is FindActiveSeatIDs over the whole show, for
// the availability projection.
func (s *BookingStore) FindActiveSeatIDsByShow(ctx context.Context, showID int, now time.Time) ([]int, error) {
	query := `
		SELECT bs.seat_id
		FROM booking_seats bs
		JOIN bookings b ON bs.booking_id = b.id
		WHERE b.show_id = $1
			AND (b.status = $2 OR (b.status = $3 AND b.expires_at > $4))
	`

	rows, err := s.db.Query(ctx, query, showID, domain.BookingConfirmed, domain.BookingPending, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSeatIDs(rows)
}

func statusStrings(statuses []domain.BookingStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}

	return out
}
