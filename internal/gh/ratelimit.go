package gh

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/stargazerhq/stargazer/internal/constants"
)

// GitHub rate limit headers.
const (
	headerRateLimit     = "X-RateLimit-Limit"
	headerRateRemaining = "X-RateLimit-Remaining"
	headerRateReset     = "X-RateLimit-Reset"
	headerRetryAfter    = "Retry-After"
)

// RateLimitState tracks the primary quota for one client instance. It is
// refreshed from every response's headers (last response wins) and consulted
// before every request. Each client owns exactly one state; two clients with
// different credentials never share quota bookkeeping.
type RateLimitState struct {
	mu        sync.Mutex
	remaining int
	limit     int
	resetAt   time.Time
	updatedAt time.Time
	pacer     *rate.Limiter
}

// newRateLimitState assumes a full quota until the first response says
// otherwise. The pacer throttles proactively to stay clear of secondary
// (burst) rate limits; pacing <= 0 disables it.
func newRateLimitState(authenticated bool, pacing float64) *RateLimitState {
	quota := constants.UnauthenticatedQuota
	if authenticated {
		quota = constants.AuthenticatedQuota
	}
	limit := rate.Inf
	if pacing > 0 {
		limit = rate.Limit(pacing)
	}
	return &RateLimitState{
		remaining: quota,
		limit:     quota,
		pacer:     rate.NewLimiter(limit, 1),
	}
}

// Wait blocks until a request may be issued. When the quota is exhausted and
// the reset is in the future it either sleeps until the reset (waitForReset)
// or returns a *RateLimitError immediately. The sleep is cooperative: ctx
// cancellation interrupts it.
func (s *RateLimitState) Wait(ctx context.Context, waitForReset bool) error {
	if err := s.pacer.Wait(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	remaining := s.remaining
	limit := s.limit
	resetAt := s.resetAt
	s.mu.Unlock()

	if remaining > 0 || time.Now().After(resetAt) {
		return nil
	}

	if !waitForReset {
		return &RateLimitError{ResetAt: resetAt, Remaining: remaining, Limit: limit}
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(time.Until(resetAt)):
		return nil
	}
}

// UpdateFromResponse overwrites the tracked state from response headers.
// There is no merging: the last response wins unconditionally.
func (s *RateLimitState) UpdateFromResponse(resp *http.Response) {
	if resp == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	touched := false
	if v := resp.Header.Get(headerRateRemaining); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			s.remaining = n
			touched = true
		}
	}
	if v := resp.Header.Get(headerRateLimit); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			s.limit = n
			touched = true
		}
	}
	if v := resp.Header.Get(headerRateReset); v != "" {
		if unix, err := strconv.ParseInt(v, 10, 64); err == nil {
			s.resetAt = time.Unix(unix, 0)
			touched = true
		}
	}
	if touched {
		s.updatedAt = time.Now()
	}
}

// Snapshot returns the tracked quota values and when they were last refreshed.
func (s *RateLimitState) Snapshot() (remaining, limit int, resetAt, updatedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remaining, s.limit, s.resetAt, s.updatedAt
}

// Exhausted reports whether the quota is spent and the reset has not passed.
func (s *RateLimitState) Exhausted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remaining == 0 && time.Now().Before(s.resetAt)
}
