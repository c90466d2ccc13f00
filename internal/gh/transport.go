package gh

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/stargazerhq/stargazer/internal/constants"
	"github.com/stargazerhq/stargazer/internal/log"
)

// rateLimitTransport refreshes the tracked quota state from every response.
// The pre-request gate lives in Client.wait, not here: go-github fails
// rate-limited calls from its own cached Rate without ever invoking the
// transport, so a transport-level gate would never run.
type rateLimitTransport struct {
	base  http.RoundTripper
	state *RateLimitState
}

func (t *rateLimitTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return resp, err
	}

	t.state.UpdateFromResponse(resp)

	remaining, _, resetAt, _ := t.state.Snapshot()
	if remaining > 0 && remaining <= constants.RateLimitLowWatermark {
		log.Debug("rate limit low", "remaining", remaining, "resets_at", resetAt.Format(time.RFC3339))
	}

	return resp, nil
}

// retryTransport wraps an http.RoundTripper with a bounded retry loop:
// 5xx responses and network failures retry up to MaxRetries with exponential
// backoff; 403/429 secondary rate limits honor Retry-After and retry once;
// 401 and 404 never retry. Only GET requests pass through this client, so
// replaying a request is always safe.
//
// Each network attempt runs under its own deadline. The request's own context
// bounds the whole loop, so backoff sleeps between attempts are never charged
// against the per-attempt network deadline.
type retryTransport struct {
	base http.RoundTripper

	// baseDelay, attemptTimeout, and secondaryDelay override the defaults
	// when non-zero.
	baseDelay      time.Duration
	attemptTimeout time.Duration
	secondaryDelay time.Duration
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	var err error

	secondaryRetried := false
	delay := t.baseDelay
	if delay == 0 {
		delay = constants.RetryBaseDelay
	}

	for attempt := 1; ; attempt++ {
		resp, err = t.attempt(req)

		switch {
		case err != nil:
			// Network failure: retry within budget.
			if attempt >= constants.MaxRetries {
				return nil, err
			}
			log.Debug("request failed, retrying", "attempt", attempt, "error", err)

		case resp.StatusCode >= 500:
			if attempt >= constants.MaxRetries {
				return resp, nil
			}
			log.Debug("server error, retrying", "status", resp.StatusCode, "attempt", attempt)
			drain(resp)

		case isSecondaryLimit(resp):
			// Secondary (burst) limiting is distinct from the primary
			// quota: back off per the server's hint and retry once.
			if secondaryRetried {
				return resp, nil
			}
			secondaryRetried = true
			wait := t.retryAfterHint(resp)
			log.Debug("secondary rate limit, backing off", "wait", wait)
			drain(resp)
			if !sleep(req, wait) {
				return nil, req.Context().Err()
			}
			continue

		default:
			// Success, or a failure that retrying cannot help (401, 404,
			// primary 403): let the caller classify it.
			return resp, nil
		}

		if !sleep(req, delay) {
			return nil, req.Context().Err()
		}
		delay *= 2
	}
}

// attempt issues one try under its own deadline. The deadline covers the body
// read too, so the cancel is tied to Body.Close rather than released when the
// headers arrive.
func (t *retryTransport) attempt(req *http.Request) (*http.Response, error) {
	timeout := t.attemptTimeout
	if timeout == 0 {
		timeout = constants.RequestTimeout
	}

	ctx, cancel := context.WithTimeout(req.Context(), timeout)
	resp, err := t.base.RoundTrip(req.WithContext(ctx))
	if err != nil {
		cancel()
		return nil, err
	}
	resp.Body = &cancelBody{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

type cancelBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

// isSecondaryLimit reports whether the response is burst limiting rather than
// primary quota exhaustion. 429 is always secondary; a 403 is secondary when
// quota remains and a Retry-After hint is present, or when the body carries
// GitHub's secondary-limit message (Retry-After is often omitted).
func isSecondaryLimit(resp *http.Response) bool {
	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return true
	case http.StatusForbidden:
		if resp.Header.Get(headerRateRemaining) != "0" && resp.Header.Get(headerRetryAfter) != "" {
			return true
		}
		msg := strings.ToLower(string(peekBody(resp, 4096)))
		return strings.Contains(msg, "secondary rate limit") || strings.Contains(msg, "abuse detection")
	}
	return false
}

// peekBody reads up to n bytes of the body and reattaches them, so a caller
// that goes on to parse the response still sees the full body.
func peekBody(resp *http.Response, n int64) []byte {
	if resp.Body == nil {
		return nil
	}
	buf, _ := io.ReadAll(io.LimitReader(resp.Body, n))
	resp.Body = &replayBody{
		Reader: io.MultiReader(bytes.NewReader(buf), resp.Body),
		closer: resp.Body,
	}
	return buf
}

type replayBody struct {
	io.Reader
	closer io.ReadCloser
}

func (b *replayBody) Close() error { return b.closer.Close() }

func (t *retryTransport) retryAfterHint(resp *http.Response) time.Duration {
	if v := resp.Header.Get(headerRetryAfter); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	if t.secondaryDelay > 0 {
		return t.secondaryDelay
	}
	return constants.SecondaryLimitDelay
}

// drain consumes and closes a response body that will not be parsed, keeping
// the underlying connection reusable for the retry.
func drain(resp *http.Response) {
	if resp != nil && resp.Body != nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}
}

// sleep waits for d, returning false if the request's context is canceled
// first.
func sleep(req *http.Request, d time.Duration) bool {
	select {
	case <-req.Context().Done():
		return false
	case <-time.After(d):
		return true
	}
}
