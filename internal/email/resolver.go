// Package email recovers user email addresses that GitHub does not expose
// directly. An ordered list of probing strategies is run against the API,
// stopping at the first success; the absence of a discoverable email is an
// expected outcome, not an error.
package email

import (
	"context"
	"errors"

	gogithub "github.com/google/go-github/v57/github"

	"github.com/stargazerhq/stargazer/internal/constants"
	"github.com/stargazerhq/stargazer/internal/gh"
	"github.com/stargazerhq/stargazer/internal/log"
	"github.com/stargazerhq/stargazer/internal/model"
)

// Prober is the slice of the GitHub client the resolver needs. *gh.Client
// satisfies it; tests substitute a fake to count calls.
type Prober interface {
	User(ctx context.Context, login string) (*model.User, error)
	RecentRepos(ctx context.Context, login string, limit int) ([]*gogithub.Repository, error)
	RepoCommits(ctx context.Context, owner, repo, author string, limit int) ([]*gogithub.RepositoryCommit, error)
	PublicEvents(ctx context.Context, login string, page, perPage int) ([]*gogithub.Event, error)
	SearchCommits(ctx context.Context, query string, limit int) ([]*gogithub.CommitResult, error)
}

// budget caps the number of underlying requests one resolution may issue,
// bounding worst-case quota consumption per user.
type budget struct {
	remaining int
}

// take reserves one request, reporting false once the budget is spent.
func (b *budget) take() bool {
	if b.remaining <= 0 {
		return false
	}
	b.remaining--
	return true
}

// strategy is one independently fallible probe. An empty string with a nil
// error means the strategy exhausted its sources without finding an email.
type strategy interface {
	name() string
	resolve(ctx context.Context, p Prober, login string, b *budget) (string, error)
}

// Resolver runs the strategy list for one user at a time. It is stateless
// between calls and safe for concurrent use.
type Resolver struct {
	prober     Prober
	strategies []strategy
	budgetSize int
}

// NewResolver builds a resolver. Aggressive mode appends the commit-search
// fallback and raises the per-user request budget.
func NewResolver(p Prober, aggressive bool) *Resolver {
	strategies := []strategy{
		profileStrategy{},
		repoCommitsStrategy{},
		eventsStrategy{},
	}
	budgetSize := constants.ResolveBudget
	if aggressive {
		strategies = append(strategies, commitSearchStrategy{})
		budgetSize = constants.AggressiveResolveBudget
	}
	return &Resolver{prober: p, strategies: strategies, budgetSize: budgetSize}
}

// Resolve returns the first email any strategy discovers, or "" when every
// strategy exhausts. Strategies run in order and resolution stops at the
// first success, so a later, weaker strategy can never overwrite an earlier
// result. Per-strategy transient and not-found failures are swallowed; only
// credential failures and cancellation propagate, since further probing
// would fail identically.
func (r *Resolver) Resolve(ctx context.Context, login string) (string, error) {
	b := &budget{remaining: r.budgetSize}

	for _, s := range r.strategies {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		addr, err := s.resolve(ctx, r.prober, login, b)
		if err != nil {
			if gh.IsUnauthorized(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return "", err
			}
			log.Debug("email strategy failed", "strategy", s.name(), "login", login, "error", err)
			continue
		}
		if addr != "" {
			log.Debug("email resolved", "strategy", s.name(), "login", login)
			return addr, nil
		}
	}

	return "", nil
}
