package integration_test

import (
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/movietix/booking-api/internal/app"
	"github.com/movietix/booking-api/internal/mocks"
	"github.com/movietix/booking-api/internal/repository"
	"github.com/movietix/booking-api/internal/reservation"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
)

// TestClock is a settable time source shared between the suite and the
// reservation engine. Moving it forward stands in for waiting out TTLs.
type TestClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewTestClock(now time.Time) *TestClock {
	return &TestClock{now: now}
}

func (c *TestClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *TestClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

func (c *TestClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type TestApp struct {
	App         *app.Application
	DB          *pgxpool.Pool
	RedisClient *redis.Client
	Mailer      *mocks.MockMailer
	Clock       *TestClock
}

func newTestConfig(dbDSN, redisURL string) app.Config {
	cfg := app.Config{
		Port: 3000,
		Env:  "test",
	}

	cfg.DB.DSN = dbDSN
	cfg.DB.MaxOpenConns = 25
	cfg.DB.MaxIdleTime = 2 * time.Minute

	cfg.Redis.URL = redisURL
	cfg.Redis.MaxOpenConns = 10
	cfg.Redis.MaxIdleConns = 10
	cfg.Redis.MaxIdleTime = 2 * time.Minute

	cfg.LockTTL = 5 * time.Minute
	cfg.BookingTTL = 5 * time.Minute

	return cfg
}

func newTestApp(cfg app.Config) (*TestApp, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	db, err := app.NewDatabasePool(cfg)
	if err != nil {
		return nil, err
	}

	redisClient, err := app.NewRedisClient(cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	clock := NewTestClock(time.Now())

	engine := reservation.NewEngine(db, logger, reservation.Config{
		LockTTL:    cfg.LockTTL,
		BookingTTL: cfg.BookingTTL,
	}).WithClock(clock)

	mailerMock := new(mocks.MockMailer)
	mailerMock.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	application := app.NewApp(
		cfg,
		logger,
		db,
		redisClient,
		mailerMock,
		engine,
		repository.NewShowStore(db),
	)

	return &TestApp{
		App:         application,
		DB:          db,
		RedisClient: redisClient,
		Mailer:      mailerMock,
		Clock:       clock,
	}, nil
}
