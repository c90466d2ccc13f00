package gh

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func TestRetryTransportRecoversFromServerErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	rt := &retryTransport{base: http.DefaultTransport, baseDelay: time.Millisecond}
	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)

	resp, err := rt.RoundTrip(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected eventual 200, got %d", resp.StatusCode)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
}

func TestRetryTransportGivesUpAfterMaxRetries(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	rt := &retryTransport{base: http.DefaultTransport, baseDelay: time.Millisecond}
	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)

	resp, err := rt.RoundTrip(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected the final 500 to surface, got %d", resp.StatusCode)
	}
	if calls != 3 {
		t.Errorf("expected exactly 3 attempts, got %d", calls)
	}
}

func TestRetryTransportDoesNotRetryNotFound(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	rt := &retryTransport{base: http.DefaultTransport, baseDelay: time.Millisecond}
	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)

	resp, err := rt.RoundTrip(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if calls != 1 {
		t.Errorf("expected a single attempt for 404, got %d", calls)
	}
}

func TestRetryTransportRetriesSecondaryLimitOnce(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set(headerRetryAfter, "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	rt := &retryTransport{base: http.DefaultTransport, baseDelay: time.Millisecond}
	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)

	resp, err := rt.RoundTrip(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 after the backoff, got %d", resp.StatusCode)
	}
	if calls != 2 {
		t.Errorf("expected 2 attempts, got %d", calls)
	}
}

func TestRetryTransportSecondaryLimitRetriesAtMostOnce(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set(headerRetryAfter, "1")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	rt := &retryTransport{base: http.DefaultTransport, baseDelay: time.Millisecond}
	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)

	resp, err := rt.RoundTrip(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("expected the second 429 to surface, got %d", resp.StatusCode)
	}
	if calls != 2 {
		t.Errorf("expected 2 attempts, got %d", calls)
	}
}

func TestIsSecondaryLimit(t *testing.T) {
	forbidden := func(remaining, retryAfter, body string) *http.Response {
		h := http.Header{}
		if remaining != "" {
			h.Set(headerRateRemaining, remaining)
		}
		if retryAfter != "" {
			h.Set(headerRetryAfter, retryAfter)
		}
		return &http.Response{
			StatusCode: http.StatusForbidden,
			Header:     h,
			Body:       io.NopCloser(strings.NewReader(body)),
		}
	}

	if !isSecondaryLimit(&http.Response{StatusCode: http.StatusTooManyRequests, Header: http.Header{}}) {
		t.Error("expected 429 to be treated as secondary limiting")
	}
	if !isSecondaryLimit(forbidden("42", "30", "")) {
		t.Error("expected 403 with quota remaining and Retry-After to be secondary")
	}
	if isSecondaryLimit(forbidden("0", "30", `{"message": "API rate limit exceeded"}`)) {
		t.Error("expected 403 with zero remaining to be primary quota exhaustion")
	}
	if !isSecondaryLimit(forbidden("42", "", `{"message": "You have exceeded a secondary rate limit. Please wait."}`)) {
		t.Error("expected the body message to mark a 403 secondary without Retry-After")
	}
	if isSecondaryLimit(forbidden("0", "", `{"message": "API rate limit exceeded for 1.2.3.4."}`)) {
		t.Error("expected a primary quota body not to be secondary")
	}
}

func TestIsSecondaryLimitPreservesBody(t *testing.T) {
	const body = `{"message": "API rate limit exceeded", "documentation_url": "https://docs.github.com"}`
	resp := &http.Response{
		StatusCode: http.StatusForbidden,
		Header:     http.Header{headerRateRemaining: []string{"0"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}

	if isSecondaryLimit(resp) {
		t.Fatal("expected a primary 403")
	}

	// The peek must not consume the body: go-github still parses it into an
	// ErrorResponse afterwards.
	got, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != body {
		t.Errorf("body not preserved after peek:\nwant %q\ngot  %q", body, got)
	}
}

func TestRetryTransportRetriesBodySignaledSecondaryLimit(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			// No Retry-After: GitHub often signals only through the body.
			w.Header().Set(headerRateRemaining, "42")
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprint(w, `{"message": "You have exceeded a secondary rate limit. Please wait."}`)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	rt := &retryTransport{base: http.DefaultTransport, baseDelay: time.Millisecond, secondaryDelay: time.Millisecond}
	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)

	resp, err := rt.RoundTrip(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 after the backoff, got %d", resp.StatusCode)
	}
	if calls != 2 {
		t.Errorf("expected 2 attempts, got %d", calls)
	}
}

func TestRateLimitTransportTracksHeaders(t *testing.T) {
	state := newRateLimitState(true, 0)
	reset := time.Now().Add(time.Hour)

	base := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		return headerResponse(1234, 5000, reset), nil
	})
	rt := &rateLimitTransport{base: base, state: state}
	req, _ := http.NewRequest(http.MethodGet, "https://api.github.com/repos/o/r", nil)

	if _, err := rt.RoundTrip(req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	remaining, limit, _, _ := state.Snapshot()
	if remaining != 1234 || limit != 5000 {
		t.Errorf("expected state 1234/5000, got %d/%d", remaining, limit)
	}
}

func TestRetryTransportAttemptDeadline(t *testing.T) {
	var calls int
	stuck := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		calls++
		<-req.Context().Done()
		return nil, req.Context().Err()
	})

	rt := &retryTransport{base: stuck, baseDelay: time.Millisecond, attemptTimeout: 20 * time.Millisecond}
	req, _ := http.NewRequest(http.MethodGet, "https://api.github.com/repos/o/r", nil)

	start := time.Now()
	_, err := rt.RoundTrip(req)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected a per-attempt deadline error, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected each attempt to get a fresh deadline (3 attempts), got %d", calls)
	}
	// The outer request context carries no deadline: only the per-attempt
	// ones fired.
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("attempts took too long: %v", elapsed)
	}
}

func TestRetryTransportBackoffOutlivesAttemptDeadline(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set(headerRetryAfter, "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	// The 1s Retry-After backoff exceeds the per-attempt deadline; it must
	// still complete because the sleep runs outside any attempt.
	rt := &retryTransport{base: http.DefaultTransport, baseDelay: time.Millisecond, attemptTimeout: 200 * time.Millisecond}
	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)

	resp, err := rt.RoundTrip(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 after the backoff, got %d", resp.StatusCode)
	}
	if calls != 2 {
		t.Errorf("expected 2 attempts, got %d", calls)
	}
}

func TestRetryAfterHint(t *testing.T) {
	rt := &retryTransport{}

	resp := &http.Response{Header: http.Header{}}
	resp.Header.Set(headerRetryAfter, strconv.Itoa(7))
	if got := rt.retryAfterHint(resp); got != 7*time.Second {
		t.Errorf("expected 7s from Retry-After header, got %v", got)
	}

	resp.Header.Del(headerRetryAfter)
	if got := rt.retryAfterHint(resp); got <= 0 {
		t.Errorf("expected a positive default backoff, got %v", got)
	}
}
