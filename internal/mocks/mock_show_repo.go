package mocks

import (
	"context"

	"github.com/movietix/booking-api/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockShowRepo struct {
	mock.Mock
}

func (m *MockShowRepo) GetByID(ctx context.Context, showID int) (*domain.Show, error) {
	args := m.Called(ctx, showID)

	show, _ := args.Get(0).(*domain.Show)

	return show, args.Error(1)
}

func (m *MockShowRepo) GetDetailByID(ctx context.Context, showID int) (*domain.ShowDetail, error) {
	args := m.Called(ctx, showID)

	detail, _ := args.Get(0).(*domain.ShowDetail)

	return detail, args.Error(1)
}
