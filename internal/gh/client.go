// Package gh provides the rate-limited GitHub REST client used by every
// other component. All quota tracking, retrying, and error classification
// happens here; callers see typed records and a small error taxonomy.
package gh

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gogithub "github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	"github.com/stargazerhq/stargazer/internal/constants"
	"github.com/stargazerhq/stargazer/internal/model"
)

// Client wraps the GitHub API client. One Client owns one RateLimitState;
// two Clients (e.g. under different credentials) are fully independent.
type Client struct {
	gh           *gogithub.Client
	state        *RateLimitState
	waitForReset bool
	// token is intentionally unexported. NEVER add String(), MarshalJSON(),
	// or any method that could expose this value in logs or serialized output.
	token string
}

// Option configures a Client at construction time.
type Option func(*clientConfig)

type clientConfig struct {
	waitForReset bool
	baseURL      string
	httpClient   *http.Client
	pacing       float64
}

// DefaultPacing is the proactive request rate (~1.2 req/sec) used to stay
// clear of GitHub's secondary rate limits.
const DefaultPacing = 1.2

// WithWaitForReset makes the client sleep until the quota reset instead of
// failing with a *RateLimitError. This is a client-level choice, not a
// per-call one.
func WithWaitForReset(wait bool) Option {
	return func(c *clientConfig) { c.waitForReset = wait }
}

// WithBaseURL points the client at a different API root, e.g. a GitHub
// Enterprise instance or a test server. The URL must end with a slash.
func WithBaseURL(u string) Option {
	return func(c *clientConfig) { c.baseURL = u }
}

// WithHTTPClient supplies a custom underlying http.Client. The rate limit
// and retry transports are still layered on top of it.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *clientConfig) { c.httpClient = hc }
}

// WithPacing overrides the proactive request rate in requests per second.
// Zero or negative disables proactive throttling, leaving only the
// header-driven quota tracking.
func WithPacing(requestsPerSecond float64) Option {
	return func(c *clientConfig) { c.pacing = requestsPerSecond }
}

// NewClient creates a GitHub client. The token may be empty, in which case
// requests are unauthenticated and subject to the 60/hour quota. The
// credential is resolved exactly once here and is immutable for the life of
// the client.
func NewClient(ctx context.Context, token string, opts ...Option) (*Client, error) {
	cfg := &clientConfig{pacing: DefaultPacing}
	for _, opt := range opts {
		opt(cfg)
	}

	httpClient := cfg.httpClient
	if httpClient == nil {
		if token != "" {
			ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
			httpClient = oauth2.NewClient(ctx, ts)
		} else {
			httpClient = &http.Client{}
		}
	}

	state := newRateLimitState(token != "", cfg.pacing)

	// No http.Client.Timeout here: it would bound the whole transport chain,
	// deadline-killing the retry backoff sleeps. retryTransport puts a
	// RequestTimeout deadline on each individual attempt instead.
	base := httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	httpClient.Transport = &rateLimitTransport{
		base:  &retryTransport{base: base},
		state: state,
	}

	client := gogithub.NewClient(httpClient)
	if cfg.baseURL != "" {
		u, err := url.Parse(cfg.baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid base URL %q: %w", cfg.baseURL, err)
		}
		if !strings.HasSuffix(u.Path, "/") {
			u.Path += "/"
		}
		client.BaseURL = u
	}

	return &Client{gh: client, state: state, waitForReset: cfg.waitForReset, token: token}, nil
}

// wait gates one API call on the tracked quota, sleeping until the reset or
// failing per the client's configuration. It must run here rather than in
// the transport: once go-github has seen a Remaining: 0 header it fails
// subsequent calls from its cached Rate without ever invoking the transport.
func (c *Client) wait(ctx context.Context) error {
	return c.state.Wait(ctx, c.waitForReset)
}

// Authenticated reports whether the client carries a credential.
func (c *Client) Authenticated() bool {
	return c.token != ""
}

// Repository fetches the metadata of one repository.
func (c *Client) Repository(ctx context.Context, owner, repo string) (*model.Repository, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	r, resp, err := c.gh.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return nil, c.wrapError(err, resp, "get repository")
	}
	return repositoryFromGitHub(r), nil
}

// Stargazers pages through the repository's stargazer list, returning at most
// maxItems users (0 means no cap). Only identity fields are populated.
func (c *Client) Stargazers(ctx context.Context, owner, repo string, maxItems int) ([]model.User, error) {
	gazers, err := CollectPages(ctx, func(ctx context.Context, page, perPage int) ([]*gogithub.Stargazer, *gogithub.Response, error) {
		if err := c.wait(ctx); err != nil {
			return nil, nil, err
		}
		opts := &gogithub.ListOptions{Page: page, PerPage: perPage}
		sg, resp, err := c.gh.Activity.ListStargazers(ctx, owner, repo, opts)
		if err != nil {
			return nil, resp, c.wrapError(err, resp, "list stargazers")
		}
		return sg, resp, nil
	}, maxItems)
	if err != nil {
		return nil, err
	}

	users := make([]model.User, 0, len(gazers))
	for _, sg := range gazers {
		if sg.User == nil {
			continue
		}
		users = append(users, identityFromGitHub(sg.User))
	}
	return users, nil
}

// Forkers pages through the repository's fork list and returns the owner of
// each fork, at most maxItems (0 means no cap).
func (c *Client) Forkers(ctx context.Context, owner, repo string, maxItems int) ([]model.User, error) {
	forks, err := CollectPages(ctx, func(ctx context.Context, page, perPage int) ([]*gogithub.Repository, *gogithub.Response, error) {
		if err := c.wait(ctx); err != nil {
			return nil, nil, err
		}
		opts := &gogithub.RepositoryListForksOptions{
			Sort:        "newest",
			ListOptions: gogithub.ListOptions{Page: page, PerPage: perPage},
		}
		fk, resp, err := c.gh.Repositories.ListForks(ctx, owner, repo, opts)
		if err != nil {
			return nil, resp, c.wrapError(err, resp, "list forks")
		}
		return fk, resp, nil
	}, maxItems)
	if err != nil {
		return nil, err
	}

	users := make([]model.User, 0, len(forks))
	for _, fork := range forks {
		if fork.Owner == nil {
			continue
		}
		users = append(users, identityFromGitHub(fork.Owner))
	}
	return users, nil
}

// User fetches the full profile of one user.
func (c *Client) User(ctx context.Context, login string) (*model.User, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	u, resp, err := c.gh.Users.Get(ctx, login)
	if err != nil {
		return nil, c.wrapError(err, resp, "get user")
	}
	return userFromGitHub(u), nil
}

// RecentRepos lists up to limit of the user's own public repositories,
// most-recently-pushed first.
func (c *Client) RecentRepos(ctx context.Context, login string, limit int) ([]*gogithub.Repository, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	opts := &gogithub.RepositoryListByUserOptions{
		Type:        "owner",
		Sort:        "pushed",
		Direction:   "desc",
		ListOptions: gogithub.ListOptions{PerPage: limit},
	}
	repos, resp, err := c.gh.Repositories.ListByUser(ctx, login, opts)
	if err != nil {
		return nil, c.wrapError(err, resp, "list user repositories")
	}
	if len(repos) > limit {
		repos = repos[:limit]
	}
	return repos, nil
}

// RepoCommits lists up to limit recent commits by author in one repository.
func (c *Client) RepoCommits(ctx context.Context, owner, repo, author string, limit int) ([]*gogithub.RepositoryCommit, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	opts := &gogithub.CommitsListOptions{
		Author:      author,
		ListOptions: gogithub.ListOptions{PerPage: limit},
	}
	commits, resp, err := c.gh.Repositories.ListCommits(ctx, owner, repo, opts)
	if err != nil {
		return nil, c.wrapError(err, resp, "list commits")
	}
	if len(commits) > limit {
		commits = commits[:limit]
	}
	return commits, nil
}

// PublicEvents fetches one page of the user's public event feed.
func (c *Client) PublicEvents(ctx context.Context, login string, page, perPage int) ([]*gogithub.Event, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	opts := &gogithub.ListOptions{Page: page, PerPage: perPage}
	events, resp, err := c.gh.Activity.ListEventsPerformedByUser(ctx, login, true, opts)
	if err != nil {
		return nil, c.wrapError(err, resp, "list public events")
	}
	return events, nil
}

// SearchCommits runs a commit search and returns up to limit results.
func (c *Client) SearchCommits(ctx context.Context, query string, limit int) ([]*gogithub.CommitResult, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	opts := &gogithub.SearchOptions{
		Sort:        "committer-date",
		Order:       "desc",
		ListOptions: gogithub.ListOptions{PerPage: limit},
	}
	result, resp, err := c.gh.Search.Commits(ctx, query, opts)
	if err != nil {
		return nil, c.wrapError(err, resp, "search commits")
	}
	commits := result.Commits
	if len(commits) > limit {
		commits = commits[:limit]
	}
	return commits, nil
}

// RateLimitStatus describes the primary quota at a point in time.
type RateLimitStatus struct {
	Remaining int       `json:"remaining" yaml:"remaining"`
	Limit     int       `json:"limit" yaml:"limit"`
	ResetAt   time.Time `json:"reset_at" yaml:"reset_at"`
}

// RateLimitStatus returns the tracked quota without issuing a request when
// the header-derived snapshot is recent; otherwise it performs a dedicated
// /rate_limit call, which does not itself count against the quota.
func (c *Client) RateLimitStatus(ctx context.Context) (RateLimitStatus, error) {
	remaining, limit, resetAt, updatedAt := c.state.Snapshot()
	if !updatedAt.IsZero() && time.Since(updatedAt) < constants.RateLimitStaleness {
		return RateLimitStatus{Remaining: remaining, Limit: limit, ResetAt: resetAt}, nil
	}

	limits, resp, err := c.gh.RateLimit.Get(ctx)
	if err != nil {
		return RateLimitStatus{}, c.wrapError(err, resp, "get rate limit")
	}
	core := limits.Core
	if core == nil {
		return RateLimitStatus{}, errors.New("github: rate limit response missing core quota")
	}
	return RateLimitStatus{
		Remaining: core.Remaining,
		Limit:     core.Limit,
		ResetAt:   core.Reset.Time,
	}, nil
}

// wrapError converts go-github and transport errors into the package error
// taxonomy.
func (c *Client) wrapError(err error, resp *gogithub.Response, operation string) error {
	if err == nil {
		return nil
	}

	// Transport-level rate limit failure (wait disabled) passes through.
	var rateErr *RateLimitError
	if errors.As(err, &rateErr) {
		return rateErr
	}

	var ghRateErr *gogithub.RateLimitError
	if errors.As(err, &ghRateErr) {
		return &RateLimitError{
			ResetAt:   ghRateErr.Rate.Reset.Time,
			Remaining: ghRateErr.Rate.Remaining,
			Limit:     ghRateErr.Rate.Limit,
		}
	}

	var abuseErr *gogithub.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		resetAt := time.Now()
		if abuseErr.RetryAfter != nil {
			resetAt = resetAt.Add(*abuseErr.RetryAfter)
		}
		return &RateLimitError{ResetAt: resetAt}
	}

	var ghErr *gogithub.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		apiErr := &APIError{
			StatusCode: ghErr.Response.StatusCode,
			Message:    ghErr.Message,
		}
		if ghErr.Response.Request != nil && ghErr.Response.Request.URL != nil {
			apiErr.URL = ghErr.Response.Request.URL.String()
		}
		return apiErr
	}

	return fmt.Errorf("%s: %w", operation, err)
}

func identityFromGitHub(u *gogithub.User) model.User {
	return model.User{
		Login:     u.GetLogin(),
		AvatarURL: u.GetAvatarURL(),
		HTMLURL:   u.GetHTMLURL(),
	}
}

func userFromGitHub(u *gogithub.User) *model.User {
	user := &model.User{
		Login:           u.GetLogin(),
		Name:            u.GetName(),
		Email:           u.GetEmail(),
		Location:        u.GetLocation(),
		Company:         u.GetCompany(),
		Bio:             u.GetBio(),
		Blog:            u.GetBlog(),
		TwitterUsername: u.GetTwitterUsername(),
		PublicRepos:     u.GetPublicRepos(),
		Followers:       u.GetFollowers(),
		Following:       u.GetFollowing(),
		AvatarURL:       u.GetAvatarURL(),
		HTMLURL:         u.GetHTMLURL(),
	}
	if u.CreatedAt != nil {
		t := u.CreatedAt.Time
		user.CreatedAt = &t
	}
	if u.UpdatedAt != nil {
		t := u.UpdatedAt.Time
		user.UpdatedAt = &t
	}
	return user
}

func repositoryFromGitHub(r *gogithub.Repository) *model.Repository {
	repo := &model.Repository{
		Name:            r.GetName(),
		FullName:        r.GetFullName(),
		Owner:           r.GetOwner().GetLogin(),
		Description:     r.GetDescription(),
		HTMLURL:         r.GetHTMLURL(),
		StargazersCount: r.GetStargazersCount(),
		ForksCount:      r.GetForksCount(),
		Language:        r.GetLanguage(),
	}
	if r.CreatedAt != nil {
		t := r.CreatedAt.Time
		repo.CreatedAt = &t
	}
	if r.UpdatedAt != nil {
		t := r.UpdatedAt.Time
		repo.UpdatedAt = &t
	}
	return repo
}
