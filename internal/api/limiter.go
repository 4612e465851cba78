package api

import (
	"net/http"

	"github.com/rs/zerolog"

	"shareit/internal/config"
	"shareit/internal/domain"
)

// writeLimiter caps mutating requests per user id. Reads and anonymous
// requests pass through.
type writeLimiter struct {
	cfg   config.RateLimitConfig
	store domain.RateLimitRepository
}

func newWriteLimiter(cfg config.RateLimitConfig, store domain.RateLimitRepository) *writeLimiter {
	return &writeLimiter{cfg: cfg, store: store}
}

func (l *writeLimiter) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.cfg.Enabled || l.store == nil || !isWrite(r.Method) {
			next.ServeHTTP(w, r)
			return
		}
		userID, err := sharerID(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		allowed, err := l.store.CheckRateLimit(r.Context(), userID, l.cfg.Requests, l.cfg.Window)
		if err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Int64("user_id", userID).Msg("rate limit check failed")
			allowed = true
		}
		if !allowed {
			writeJSON(w, http.StatusTooManyRequests, ErrorResponse{
				ErrorType: "TooManyRequests",
				Message:   "rate limit exceeded",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func isWrite(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
