package reservation

import (
	"context"

	"github.com/movietix/booking-api/internal/domain"
)

// pickCode draws candidate booking codes until one is free, giving up
// after maxCodeAttempts. Generator uniqueness is only probabilistic;
// the bounded retry plus the store's unique constraint are what
// actually guarantee no two bookings share a code.
func pickCode(
	ctx context.Context,
	exists func(ctx context.Context, code string) (bool, error),
	generate func() string) (string, error) {

	for range maxCodeAttempts {
		code := generate()

		taken, err := exists(ctx, code)
		if err != nil {
			return "", err
		}

		if !taken {
			return code, nil
		}
	}

	return "", domain.ErrCodeGeneration
}
