package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/movietix/booking-api/internal/domain"
)

type SeatStore struct {
	db DBTX
}

func NewSeatStore(db DBTX) *SeatStore {
	return &SeatStore{
		db: db,
	}
}

func (s *SeatStore) GetActiveSeatsByScreen(ctx context.Context, screenID int) ([]domain.Seat, error) {
	query := `
		SELECT id, screen_id, seat_number, seat_row, seat_col, seat_type, is_active
		FROM seats
		WHERE screen_id = $1 AND is_active
		ORDER BY seat_row, seat_col
	`

	rows, err := s.db.Query(ctx, query, screenID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSeats(rows)
}

// LockForUpdate fetches the requested active seats of a screen and takes
// row-level locks on them. Concurrent transactions contending for an
// overlapping seat set serialize here, which is what keeps two lock or
// booking attempts for the same seat from both succeeding.
func (s *SeatStore) LockForUpdate(ctx context.Context, screenID int, seatIDs []int) ([]domain.Seat, error) {
	query := `
		SELECT id, screen_id, seat_number, seat_row, seat_col, seat_type, is_active
		FROM seats
		WHERE id = ANY($1) AND screen_id = $2 AND is_active
		ORDER BY id
		FOR UPDATE
	`

	rows, err := s.db.Query(ctx, query, seatIDs, screenID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSeats(rows)
}

func scanSeats(rows pgx.Rows) ([]domain.Seat, error) {
	seats := make([]domain.Seat, 0)

	for rows.Next() {
		var seat domain.Seat

		err := rows.Scan(
			&seat.ID,
			&seat.ScreenID,
			&seat.SeatNumber,
			&seat.Row,
			&seat.Col,
			&seat.Type,
			&seat.Active,
		)
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
