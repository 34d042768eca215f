package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/movietix/booking-api/internal/bookingcode"
	"github.com/movietix/booking-api/internal/domain"
	"github.com/shopspring/decimal"
)

type CreateBookingRequest struct {
	ShowId    int    `json:"showId" validate:"required,gt=0"`
	SeatIds   []int  `json:"seatIds" validate:"required,min=1,dive,gt=0"`
	SessionId string `json:"sessionId" validate:"required"`
	UserName  string `json:"userName" validate:"required,min=2,max=100"`
	UserEmail string `json:"userEmail" validate:"required,email"`
	UserPhone string `json:"userPhone" validate:"required,min=7,max=20"`
}

type BookingSeatResponse struct {
	SeatId     int             `json:"seatId"`
	SeatNumber string          `json:"seatNumber"`
	SeatType   string          `json:"seatType"`
	Price      decimal.Decimal `json:"price"`
}

type BookingResponse struct {
	BookingCode string                `json:"bookingCode"`
	Status      string                `json:"status"`
	UserName    string                `json:"userName"`
	UserEmail   string                `json:"userEmail"`
	TotalAmount decimal.Decimal       `json:"totalAmount"`
	MovieTitle  string                `json:"movieTitle"`
	TheaterName string                `json:"theaterName"`
	TheaterCity string                `json:"theaterCity"`
	ScreenName  string                `json:"screenName"`
	ShowDate    string                `json:"showDate"`
	ShowTime    string                `json:"showTime"`
	Seats       []BookingSeatResponse `json:"seats"`
	ExpiresAt   *time.Time            `json:"expiresAt,omitempty"`
	CreatedAt   time.Time             `json:"createdAt"`
}

type ConfirmBookingResponse struct {
	BookingCode string `json:"bookingCode"`
	Status      string `json:"status"`
	PaymentRef  string `json:"paymentRef"`
}

func (app *Application) CreateBookingHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateBookingRequest

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

	buyer := domain.BuyerInfo{
		Name:  req.UserName,
		Email: req.UserEmail,
		Phone: req.UserPhone,
	}

	detail, err := app.engine.CreateBooking(r.Context(), req.ShowId, req.SeatIds, req.SessionId, buyer)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrShowNotFound):
			app.notFoundResponse(w, r)
		case errors.Is(err, domain.ErrSeatInvalid):
			app.unprocessableEntityResponse(w, r, err)
		case errors.Is(err, domain.ErrSeatConflict), errors.Is(err, domain.ErrLockMissing):
			app.conflictResponse(w, r, err)
		case errors.Is(err, domain.ErrCodeGeneration):
			app.unavailableResponse(w, r, ErrCodeGenRetryNeeded)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusCreated, toBookingResponse(detail), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetBookingHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if !bookingcode.IsValid(code) {
		app.badRequestResponse(w, r, fmt.Errorf("invalid booking code"))
		return
	}

	detail, err := app.engine.GetBooking(r.Context(), code)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrBookingNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, toBookingResponse(detail), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) ConfirmBookingHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if !bookingcode.IsValid(code) {
		app.badRequestResponse(w, r, fmt.Errorf("invalid booking code"))
		return
	}

	booking, transitioned, err := app.engine.ConfirmBooking(r.Context(), code)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrBookingNotFound):
			app.notFoundResponse(w, r)
		case errors.Is(err, domain.ErrBookingExpired), errors.Is(err, domain.ErrBookingCancelled):
			app.conflictResponse(w, r, err)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	// The receipt email goes out once, on the confirm call that actually
	// transitioned the booking. Idempotent retries skip it.
	if transitioned {
		go func(ctx context.Context) {
			defer func() {
				if err := recover(); err != nil {
					app.logger.Error("panic occurred during sending confirmation mail", "panic", err)
				}
			}()

			detail, err := app.engine.GetBooking(ctx, booking.Code)
			if err != nil {
				app.logger.Error("failed to load booking for confirmation email", "error", err)
				return
			}

			data := map[string]any{
				"bookingCode": detail.Booking.Code,
				"userName":    detail.Booking.UserName,
				"movieTitle":  detail.MovieTitle,
				"theaterName": detail.TheaterName,
				"screenName":  detail.ScreenName,
				"showDate":    detail.ShowDate.Format(time.DateOnly),
				"showTime":    detail.ShowTime.Format(time.Kitchen),
				"totalAmount": detail.Booking.TotalAmount.StringFixed(2),
				"seats":       detail.Booking.Seats,
			}

			err = app.mailer.Send(detail.Booking.UserEmail, "booking_confirmation.tmpl", data)
			if err != nil {
				app.logger.Error("failed to send confirmation email", "error", err)
			} else {
				app.logger.Info("confirmation email sent", "booking_code", detail.Booking.Code)
			}
		}(context.WithoutCancel(r.Context()))
	}

	resp := ConfirmBookingResponse{
		BookingCode: booking.Code,
		Status:      string(booking.Status),
		PaymentRef:  booking.PaymentRef,
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) CancelBookingHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if !bookingcode.IsValid(code) {
		app.badRequestResponse(w, r, fmt.Errorf("invalid booking code"))
		return
	}

	err := app.engine.CancelBooking(r.Context(), code)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrBookingNotFound):
			app.notFoundResponse(w, r)
		case errors.Is(err, domain.ErrCannotCancelConfirmed), errors.Is(err, domain.ErrBookingExpired):
			app.conflictResponse(w, r, err)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, map[string]string{"message": "Booking cancelled"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func toBookingResponse(detail *domain.BookingDetail) BookingResponse {
	booking := detail.Booking

	seats := make([]BookingSeatResponse, 0, len(booking.Seats))
	for _, s := range booking.Seats {
		seats = append(seats, BookingSeatResponse{
			SeatId:     s.SeatID,
			SeatNumber: s.SeatNumber,
			SeatType:   string(s.SeatType),
			Price:      s.Price,
		})
	}

	resp := BookingResponse{
		BookingCode: booking.Code,
		Status:      string(booking.Status),
		UserName:    booking.UserName,
		UserEmail:   booking.UserEmail,
		TotalAmount: booking.TotalAmount,
		MovieTitle:  detail.MovieTitle,
		TheaterName: detail.TheaterName,
		TheaterCity: detail.TheaterCity,
		ScreenName:  detail.ScreenName,
		ShowDate:    detail.ShowDate.Format(time.DateOnly),
		ShowTime:    detail.ShowTime.Format(time.RFC3339),
		Seats:       seats,
		CreatedAt:   booking.CreatedAt,
	}

	if booking.Status == domain.BookingPending {
		expiresAt := booking.ExpiresAt
		resp.ExpiresAt = &expiresAt
	}

	return resp
}
