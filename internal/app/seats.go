package app

import (
	"errors"
	"net/http"
	"time"

	"github.com/movietix/booking-api/internal/domain"
)

type LockSeatsRequest struct {
	ShowId    int    `json:"showId" validate:"required,gt=0"`
	SeatIds   []int  `json:"seatIds" validate:"required,min=1,dive,gt=0"`
	SessionId string `json:"sessionId" validate:"required"`
}

type LockSeatsResponse struct {
	Message     string    `json:"message"`
	LockedSeats int       `json:"lockedSeats"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

type ReleaseSeatsRequest struct {
	SessionId string `json:"sessionId" validate:"required"`
}

type SeatResponse struct {
	Id         int    `json:"id"`
	SeatNumber string `json:"seatNumber"`
	Row        int    `json:"row"`
	Column     int    `json:"column"`
	Type       string `json:"type"`
	Status     string `json:"status"`
	LockedBy   string `json:"lockedBy,omitempty"`
}

type SeatAvailabilityResponse struct {
	ShowId     int            `json:"showId"`
	ScreenName string         `json:"screenName"`
	Seats      []SeatResponse `json:"seats"`
}

func (app *Application) LockSeatsHandler(w http.ResponseWriter, r *http.Request) {
	var req LockSeatsRequest

	err := app.readJSON(w, r, &req)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(req)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	result, err := app.engine.LockSeats(r.Context(), req.ShowId, req.SeatIds, req.SessionId)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrShowNotFound):
			app.notFoundResponse(w, r)
		case errors.Is(err, domain.ErrSeatInvalid):
			app.unprocessableEntityResponse(w, r, err)
		case errors.Is(err, domain.ErrSeatConflict):
			app.conflictResponse(w, r, err)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	resp := LockSeatsResponse{
		Message:     "Seats locked successfully",
		LockedSeats: result.LockedSeats,
		ExpiresAt:   result.ExpiresAt,
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) ReleaseSeatsHandler(w http.ResponseWriter, r *http.Request) {
	var req ReleaseSeatsRequest

	err := app.readJSON(w, r, &req)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(req)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	err = app.engine.ReleaseSeats(r.Context(), req.SessionId)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, map[string]string{"message": "Seats released"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetSeatAvailabilityHandler(w http.ResponseWriter, r *http.Request) {
	showID, err := app.readIDParam(r, "showID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	availability, err := app.engine.GetAvailability(r.Context(), showID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrShowNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, toSeatAvailabilityResponse(availability), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func toSeatAvailabilityResponse(availability *domain.ShowAvailability) SeatAvailabilityResponse {
	seats := make([]SeatResponse, 0, len(availability.Seats))
	for _, s := range availability.Seats {
		seats = append(seats, SeatResponse{
			Id:         s.Seat.ID,
			SeatNumber: s.Seat.SeatNumber,
			Row:        s.Seat.Row,
			Column:     s.Seat.Col,
			Type:       string(s.Seat.Type),
			Status:     string(s.Status),
			LockedBy:   s.LockedBy,
		})
	}

	return SeatAvailabilityResponse{
		ShowId:     availability.Show.ID,
		ScreenName: availability.ScreenName,
		Seats:      seats,
	}
}
