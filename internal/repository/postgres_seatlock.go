package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/movietix/booking-api/internal/domain"
)

// SeatLockStore holds the short-lived session-scoped seat holds. All
// expiry decisions compare stored deadlines against a caller-supplied
// "now" so correctness never depends on a sweep having run recently.
type SeatLockStore struct {
	db DBTX
}

func NewSeatLockStore(db DBTX) *SeatLockStore {
	return &SeatLockStore{
		db: db,
	}
}

// SweepExpired deletes every lock whose deadline has passed.
func (s *SeatLockStore) SweepExpired(ctx context.Context, now time.Time) error {
	query := `
		DELETE FROM seat_locks
		WHERE expires_at < $1
	`

	_, err := s.db.Exec(ctx, query, now)

	return err
}

// FindHeldByOthers returns the subset of seatIDs currently locked for
// the show by a session other than sessionID.
func (s *SeatLockStore) FindHeldByOthers(
	ctx context.Context,
	showID int,
	seatIDs []int,
	sessionID string,
	now time.Time) ([]int, error) {

	query := `
		SELECT seat_id
		FROM seat_locks
		WHERE show_id = $1
			AND seat_id = ANY($2)
			AND session_id <> $3
			AND expires_at > $4
	`

	rows, err := s.db.Query(ctx, query, showID, seatIDs, sessionID, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSeatIDs(rows)
}

// FindActiveBySession returns the seats of the given set that the
// session holds unexpired locks on for the show.
func (s *SeatLockStore) FindActiveBySession(
	ctx context.Context,
	showID int,
	seatIDs []int,
	sessionID string,
	now time.Time) ([]int, error) {

	query := `
		SELECT seat_id
		FROM seat_locks
		WHERE show_id = $1
			AND seat_id = ANY($2)
			AND session_id = $3
			AND expires_at > $4
	`

	rows, err := s.db.Query(ctx, query, showID, seatIDs, sessionID, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSeatIDs(rows)
}

// FindActiveByShow returns every unexpired lock for the show, for the
// availability projection.
func (s *SeatLockStore) FindActiveByShow(ctx context.Context, showID int, now time.Time) ([]domain.SeatLock, error) {
	query := `
		SELECT show_id, seat_id, session_id, expires_at, created_at
		FROM seat_locks
		WHERE show_id = $1 AND expires_at > $2
	`

	rows, err := s.db.Query(ctx, query, showID, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	locks := make([]domain.SeatLock, 0)

	for rows.Next() {
		var lock domain.SeatLock

		err := rows.Scan(
			&lock.ShowID,
			&lock.SeatID,
			&lock.SessionID,
			&lock.ExpiresAt,
			&lock.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		locks = append(locks, lock)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return locks, nil
}

// DeleteBySession removes every lock owned by the session, across all
// shows. Idempotent: deleting nothing is fine. A session holds at most
// one outstanding lock set, so a fresh acquisition supersedes any
// previous one via this delete.
func (s *SeatLockStore) DeleteBySession(ctx context.Context, sessionID string) error {
	query := `
		DELETE FROM seat_locks
		WHERE session_id = $1
	`

	_, err := s.db.Exec(ctx, query, sessionID)

	return err
}

// Insert creates the given locks. The (show_id, seat_id) primary key
// backs the lock-exclusivity invariant at the storage level.
func (s *SeatLockStore) Insert(ctx context.Context, locks []domain.SeatLock) error {
	rows := make([][]any, 0, len(locks))
	for _, lock := range locks {
		rows = append(rows, []any{lock.ShowID, lock.SeatID, lock.SessionID, lock.ExpiresAt})
	}

	_, err := s.db.CopyFrom(
		ctx,
		pgx.Identifier{"seat_locks"},
		[]string{"show_id", "seat_id", "session_id", "expires_at"},
		pgx.CopyFromRows(rows),
	)

	return err
}

func scanSeatIDs(rows pgx.Rows) ([]int, error) {
	seatIDs := make([]int, 0)

	for rows.Next() {
		var seatID int

		if err := rows.Scan(&seatID); err != nil {
			return nil, err
		}

		seatIDs = append(seatIDs, seatID)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return seatIDs, nil
}
