// Package constants provides a centralized location for configuration
// values and magic numbers used throughout the stargazer application.
package constants

import "time"

// GitHub API constants
const (
	// DefaultPerPage is the page size used when the caller does not care.
	DefaultPerPage = 30

	// MaxPerPage is the largest page size GitHub list endpoints accept.
	// Pagination always requests this to minimize request count against
	// the shared quota.
	MaxPerPage = 100

	// RequestTimeout bounds a single HTTP request.
	RequestTimeout = 30 * time.Second
)

// Rate limiting constants
const (
	// RateLimitLowWatermark is the threshold below which rate limit
	// warnings are logged.
	RateLimitLowWatermark = 100

	// RateLimitStaleness is how long a header-derived rate limit snapshot
	// is trusted before a status query issues a dedicated /rate_limit call.
	RateLimitStaleness = 60 * time.Second

	// UnauthenticatedQuota is GitHub's hourly ceiling without a token.
	UnauthenticatedQuota = 60

	// AuthenticatedQuota is GitHub's hourly ceiling with a token.
	AuthenticatedQuota = 5000
)

// Retry constants
const (
	// MaxRetries is the attempt ceiling for 5xx and network failures.
	MaxRetries = 3

	// RetryBaseDelay is the initial backoff delay; it doubles per attempt.
	RetryBaseDelay = time.Second

	// SecondaryLimitDelay is the fallback backoff when a secondary rate
	// limit response carries no Retry-After hint.
	SecondaryLimitDelay = 30 * time.Second
)

// Email resolution constants
const (
	// ResolveBudget is the per-user request ceiling for email resolution.
	ResolveBudget = 8

	// AggressiveResolveBudget replaces ResolveBudget when aggressive
	// extraction is enabled.
	AggressiveResolveBudget = 16

	// ResolveRepoLimit is how many of a user's repositories the commit
	// strategy inspects, most-recently-pushed first.
	ResolveRepoLimit = 3

	// ResolveCommitLimit is how many commits per repository are scanned.
	ResolveCommitLimit = 10

	// ResolveEventPages is how many pages of the public event feed the
	// event strategy reads.
	ResolveEventPages = 2
)

// Cache constants
const (
	// UserCacheTTL is the maximum age of a cached user profile before it
	// is considered stale and re-fetched.
	UserCacheTTL = 24 * time.Hour
)
