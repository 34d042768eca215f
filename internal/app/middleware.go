package app

import (
	"fmt"
	"net"
	"net/http"
)

func (app *Application) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				w.Header().Set("Connection", "close")

				app.serverErrorResponse(w, r, fmt.Errorf("%s", err))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// rateLimit applies a fixed-window limit per client IP, backed by Redis so the
// counters are shared across instances. Redis failures let the request through.
func (app *Application) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !app.config.RateLimit.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}

		key := fmt.Sprintf("ratelimit:%s", ip)

		count, err := app.redis.Incr(r.Context(), key).Result()
		if err != nil {
			app.logger.Error("rate limiter unavailable", "error", err)

			next.ServeHTTP(w, r)
			return
		}

		if count == 1 {
			app.redis.Expire(r.Context(), key, app.config.RateLimit.Window)
		}

		if count > int64(app.config.RateLimit.Limit) {
			app.rateLimitExceededResponse(w, r)
			return
		}

		next.ServeHTTP(w, r)
	})
}
