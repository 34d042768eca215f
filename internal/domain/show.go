package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Pricing maps a seat type to its price for one show. A show's pricing
// must cover every seat type present on its screen.
type Pricing map[SeatType]decimal.Decimal

func (p Pricing) PriceFor(seatType SeatType) (decimal.Decimal, bool) {
	price, ok := p[seatType]
	return price, ok
}

type Show struct {
	ID        int
	MovieID   int
	ScreenID  int
	Date      time.Time
	StartTime time.Time
	EndTime   time.Time
	Pricing   Pricing
	Active    bool
}

// ShowDetail carries the catalog context needed by the booking page and
// booking receipts. The catalog itself is maintained elsewhere; this
// service only reads it.
type ShowDetail struct {
	Show        Show
	MovieTitle  string
	PosterURL   string
	Duration    int
	Certificate string
	TheaterName string
	TheaterAddr string
	TheaterCity string
	ScreenName  string
}

type ShowRepository interface {
	GetByID(ctx context.Context, showID int) (*Show, error)
	GetDetailByID(ctx context.Context, showID int) (*ShowDetail, error)
}
