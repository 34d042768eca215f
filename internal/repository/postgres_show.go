package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/movietix/booking-api/internal/domain"
)

type ShowStore struct {
	db DBTX
}

func NewShowStore(db DBTX) *ShowStore {
	return &ShowStore{
		db: db,
	}
}

func (s *ShowStore) GetByID(ctx context.Context, showID int) (*domain.Show, error) {
	query := `
		SELECT id, movie_id, screen_id, show_date, start_time, end_time, pricing, is_active
		FROM shows
		WHERE id = $1 AND is_active
	`

	var show domain.Show

	err := s.db.QueryRow(ctx, query, showID).Scan(
		&show.ID,
		&show.MovieID,
		&show.ScreenID,
		&show.Date,
		&show.StartTime,
		&show.EndTime,
		&show.Pricing,
		&show.Active,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrShowNotFound
		}

		return nil, err
	}

	return &show, nil
}

func (s *ShowStore) GetDetailByID(ctx context.Context, showID int) (*domain.ShowDetail, error) {
	query := `
		SELECT
			sh.id, sh.movie_id, sh.screen_id, sh.show_date, sh.start_time, sh.end_time,
			sh.pricing, sh.is_active,
			m.title, m.poster_url, m.duration_min, m.certificate,
			t.name, t.address, t.city,
			sc.name
		FROM shows sh
		JOIN movies m ON sh.movie_id = m.id
		JOIN screens sc ON sh.screen_id = sc.id
		JOIN theaters t ON sc.theater_id = t.id
		WHERE sh.id = $1
	`

	var detail domain.ShowDetail

	err := s.db.QueryRow(ctx, query, showID).Scan(
		&detail.Show.ID,
		&detail.Show.MovieID,
		&detail.Show.ScreenID,
		&detail.Show.Date,
		&detail.Show.StartTime,
		&detail.Show.EndTime,
		&detail.Show.Pricing,
		&detail.Show.Active,
		&detail.MovieTitle,
		&detail.PosterURL,
		&detail.Duration,
		&detail.Certificate,
		&detail.TheaterName,
		&detail.TheaterAddr,
		&detail.TheaterCity,
		&detail.ScreenName,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrShowNotFound
		}

		return nil, err
	}

	return &detail, nil
}
