package app

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/movietix/booking-api/internal/domain"
	"github.com/movietix/booking-api/internal/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type SeatsTestSuite struct {
	suite.Suite
	app    *Application
	engine *mocks.MockReservationEngine
}

func (s *SeatsTestSuite) SetupTest() {
	s.engine = new(mocks.MockReservationEngine)

	s.app = newTestApplication(func(a *Application) {
		a.engine = s.engine
	})
}

func TestSeatsSuite(t *testing.T) {
	suite.Run(t, new(SeatsTestSuite))
}

func (s *SeatsTestSuite) TestLockSeats() {
	expiresAt := time.Date(2026, 3, 15, 18, 5, 0, 0, time.UTC)

	tests := []struct {
		name           string
		request        any
		setupMocks     func()
		wantStatus     int
		wantErrMessage string
	}{
		{
			name:           "should fail when session ID is missing",
			request:        LockSeatsRequest{ShowId: 1, SeatIds: []int{1, 2}},
			wantStatus:     http.StatusUnprocessableEntity,
			wantErrMessage: "is required",
		},
		{
			name:           "should fail when seat list is empty",
			request:        LockSeatsRequest{ShowId: 1, SeatIds: []int{}, SessionId: "sess-1"},
			wantStatus:     http.StatusUnprocessableEntity,
			wantErrMessage: "is required",
		},
		{
			name:    "should fail when show does not exist",
			request: LockSeatsRequest{ShowId: 999, SeatIds: []int{1}, SessionId: "sess-1"},
			setupMocks: func() {
				s.engine.On("LockSeats", mock.Anything, 999, []int{1}, "sess-1").
					Return(nil, domain.ErrShowNotFound)
			},
			wantStatus:     http.StatusNotFound,
			wantErrMessage: ErrResourceNotFound,
		},
		{
			name:    "should fail when a seat does not belong to the show's screen",
			request: LockSeatsRequest{ShowId: 1, SeatIds: []int{77}, SessionId: "sess-1"},
			setupMocks: func() {
				s.engine.On("LockSeats", mock.Anything, 1, []int{77}, "sess-1").
					Return(nil, domain.ErrSeatInvalid)
			},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:    "should fail when another session holds one of the seats",
			request: LockSeatsRequest{ShowId: 1, SeatIds: []int{1, 2}, SessionId: "sess-1"},
			setupMocks: func() {
				s.engine.On("LockSeats", mock.Anything, 1, []int{1, 2}, "sess-1").
					Return(nil, domain.ErrSeatConflict)
			},
			wantStatus:     http.StatusConflict,
			wantErrMessage: domain.ErrSeatConflict.Error(),
		},
		{
			name:    "should fail when engine returns unexpected error",
			request: LockSeatsRequest{ShowId: 1, SeatIds: []int{1}, SessionId: "sess-1"},
			setupMocks: func() {
				s.engine.On("LockSeats", mock.Anything, 1, []int{1}, "sess-1").
					Return(nil, fmt.Errorf("database error"))
			},
			wantStatus:     http.StatusInternalServerError,
			wantErrMessage: ErrInternalServer,
		},
		{
			name:    "should lock seats with valid input",
			request: LockSeatsRequest{ShowId: 1, SeatIds: []int{1, 2}, SessionId: "sess-1"},
			setupMocks: func() {
				s.engine.On("LockSeats", mock.Anything, 1, []int{1, 2}, "sess-1").
					Return(&domain.LockResult{ExpiresAt: expiresAt, LockedSeats: 2}, nil)
			},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()

			defer s.engine.AssertExpectations(s.T())

			if tt.setupMocks != nil {
				tt.setupMocks()
			}

			w := executeRequest(s.T(), s.app, http.MethodPost, "/seats/lock", tt.request)

			s.Equal(tt.wantStatus, w.Code)

			if tt.wantStatus == http.StatusOK {
				var resp LockSeatsResponse
				err := json.NewDecoder(w.Body).Decode(&resp)
				s.Require().NoError(err)

				s.Equal(2, resp.LockedSeats)
				s.True(expiresAt.Equal(resp.ExpiresAt))
			}

			checkErrorResponse(s.T(), w, tt.wantStatus, tt.wantErrMessage)
		})
	}
}

func (s *SeatsTestSuite) TestReleaseSeats() {
	tests := []struct {
		name           string
		request        any
		setupMocks     func()
		wantStatus     int
		wantErrMessage string
	}{
		{
			name:           "should fail when session ID is missing",
			request:        ReleaseSeatsRequest{},
			wantStatus:     http.StatusUnprocessableEntity,
			wantErrMessage: "is required",
		},
		{
			name:    "should succeed even when the session holds no locks",
			request: ReleaseSeatsRequest{SessionId: "sess-none"},
			setupMocks: func() {
				s.engine.On("ReleaseSeats", mock.Anything, "sess-none").Return(nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:    "should fail when engine returns unexpected error",
			request: ReleaseSeatsRequest{SessionId: "sess-1"},
			setupMocks: func() {
				s.engine.On("ReleaseSeats", mock.Anything, "sess-1").Return(fmt.Errorf("database error"))
			},
			wantStatus:     http.StatusInternalServerError,
			wantErrMessage: ErrInternalServer,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()

			defer s.engine.AssertExpectations(s.T())

			if tt.setupMocks != nil {
				tt.setupMocks()
			}

			w := executeRequest(s.T(), s.app, http.MethodPost, "/seats/release", tt.request)

			s.Equal(tt.wantStatus, w.Code)

			checkErrorResponse(s.T(), w, tt.wantStatus, tt.wantErrMessage)
		})
	}
}

func (s *SeatsTestSuite) TestGetSeatAvailability() {
	show := domain.Show{ID: 1, MovieID: 1, ScreenID: 2, Active: true}

	tests := []struct {
		name           string
		url            string
		setupMocks     func()
		wantStatus     int
		wantResponse   *SeatAvailabilityResponse
		wantErrMessage string
	}{
		{
			name:       "should fail when show ID is not a positive integer",
			url:        "/shows/abc/seats",
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "should fail when show does not exist",
			url:  "/shows/999/seats",
			setupMocks: func() {
				s.engine.On("GetAvailability", mock.Anything, 999).Return(nil, domain.ErrShowNotFound)
			},
			wantStatus:     http.StatusNotFound,
			wantErrMessage: ErrResourceNotFound,
		},
		{
			name: "should return seat statuses with booked taking precedence",
			url:  "/shows/1/seats",
			setupMocks: func() {
				s.engine.On("GetAvailability", mock.Anything, 1).Return(&domain.ShowAvailability{
					Show:       show,
					ScreenName: "Screen A",
					Seats: []domain.SeatAvailability{
						{Seat: domain.Seat{ID: 1, SeatNumber: "A1", Row: 1, Col: 1, Type: domain.SeatRegular}, Status: domain.SeatAvailable},
						{Seat: domain.Seat{ID: 2, SeatNumber: "A2", Row: 1, Col: 2, Type: domain.SeatRegular}, Status: domain.SeatLocked, LockedBy: "sess-2"},
						{Seat: domain.Seat{ID: 3, SeatNumber: "A3", Row: 1, Col: 3, Type: domain.SeatVIP}, Status: domain.SeatBooked},
					},
				}, nil)
			},
			wantStatus: http.StatusOK,
			wantResponse: &SeatAvailabilityResponse{
				ShowId:     1,
				ScreenName: "Screen A",
				Seats: []SeatResponse{
					{Id: 1, SeatNumber: "A1", Row: 1, Column: 1, Type: "REGULAR", Status: "available"},
					{Id: 2, SeatNumber: "A2", Row: 1, Column: 2, Type: "REGULAR", Status: "locked", LockedBy: "sess-2"},
					{Id: 3, SeatNumber: "A3", Row: 1, Column: 3, Type: "VIP", Status: "booked"},
				},
			},
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()

			defer s.engine.AssertExpectations(s.T())

			if tt.setupMocks != nil {
				tt.setupMocks()
			}

			w := executeRequest(s.T(), s.app, http.MethodGet, tt.url, nil)

			s.Equal(tt.wantStatus, w.Code)

			if tt.wantResponse != nil {
				var response SeatAvailabilityResponse
				err := json.NewDecoder(w.Body).Decode(&response)
				s.Require().NoError(err, "Failed to decode response")

				diff := cmp.Diff(tt.wantResponse, &response)
				s.Empty(diff, "Response mismatch (-want +got):\n%s", diff)
			}

			checkErrorResponse(s.T(), w, tt.wantStatus, tt.wantErrMessage)
		})
	}
}
