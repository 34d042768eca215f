package mocks

import (
	"context"

	"github.com/movietix/booking-api/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockReservationEngine struct {
	mock.Mock
}

func (m *MockReservationEngine) LockSeats(
	ctx context.Context,
	showID int,
	seatIDs []int,
	sessionID string) (*domain.LockResult, error) {

	args := m.Called(ctx, showID, seatIDs, sessionID)

	result, _ := args.Get(0).(*domain.LockResult)

	return result, args.Error(1)
}

func (m *MockReservationEngine) ReleaseSeats(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)

	return args.Error(0)
}

func (m *MockReservationEngine) CreateBooking(
	ctx context.Context,
	showID int,
	seatIDs []int,
	sessionID string,
	buyer domain.BuyerInfo) (*domain.BookingDetail, error) {

	args := m.Called(ctx, showID, seatIDs, sessionID, buyer)

	detail, _ := args.Get(0).(*domain.BookingDetail)

	return detail, args.Error(1)
}

func (m *MockReservationEngine) GetBooking(ctx context.Context, code string) (*domain.BookingDetail, error) {
	args := m.Called(ctx, code)

	detail, _ := args.Get(0).(*domain.BookingDetail)

	return detail, args.Error(1)
}

func (m *MockReservationEngine) ConfirmBooking(ctx context.Context, code string) (*domain.Booking, bool, error) {
	args := m.Called(ctx, code)

	booking, _ := args.Get(0).(*domain.Booking)

	return booking, args.Bool(1), args.Error(2)
}

func (m *MockReservationEngine) CancelBooking(ctx context.Context, code string) error {
	args := m.Called(ctx, code)

	return args.Error(0)
}

func (m *MockReservationEngine) GetAvailability(ctx context.Context, showID int) (*domain.ShowAvailability, error) {
	args := m.Called(ctx, showID)

	availability, _ := args.Get(0).(*domain.ShowAvailability)

	return availability, args.Error(1)
}
