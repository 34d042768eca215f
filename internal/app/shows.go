package app

import (
	"errors"
	"net/http"
	"time"

	"github.com/movietix/booking-api/internal/domain"
	"github.com/shopspring/decimal"
)

type ShowResponse struct {
	Id          int                        `json:"id"`
	MovieTitle  string                     `json:"movieTitle"`
	PosterUrl   string                     `json:"posterUrl,omitempty"`
	Duration    int                        `json:"duration"`
	Certificate string                     `json:"certificate,omitempty"`
	TheaterName string                     `json:"theaterName"`
	TheaterCity string                     `json:"theaterCity"`
	ScreenName  string                     `json:"screenName"`
	Date        string                     `json:"date"`
	StartTime   string                     `json:"startTime"`
	EndTime     string                     `json:"endTime"`
	Pricing     map[string]decimal.Decimal `json:"pricing"`
}

func (app *Application) GetShowHandler(w http.ResponseWriter, r *http.Request) {
	showID, err := app.readIDParam(r, "showID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	detail, err := app.showRepo.GetDetailByID(r.Context(), showID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrShowNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	// Deactivated shows stay resolvable through booking receipts but are
	// not browsable directly.
	if !detail.Show.Active {
		app.notFoundResponse(w, r)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toShowResponse(detail), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func toShowResponse(detail *domain.ShowDetail) ShowResponse {
	pricing := make(map[string]decimal.Decimal, len(detail.Show.Pricing))
	for seatType, price := range detail.Show.Pricing {
		pricing[string(seatType)] = price
	}

	return ShowResponse{
		Id:          detail.Show.ID,
		MovieTitle:  detail.MovieTitle,
		PosterUrl:   detail.PosterURL,
		Duration:    detail.Duration,
		Certificate: detail.Certificate,
		TheaterName: detail.TheaterName,
		TheaterCity: detail.TheaterCity,
		ScreenName:  detail.ScreenName,
		Date:        detail.Show.Date.Format(time.DateOnly),
		StartTime:   detail.Show.StartTime.Format(time.RFC3339),
		EndTime:     detail.Show.EndTime.Format(time.RFC3339),
		Pricing:     pricing,
	}
}
