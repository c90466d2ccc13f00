// Package extract orchestrates a repository extraction: metadata, stargazer
// and forker lists, and optional per-user enrichment and email resolution.
package extract

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/stargazerhq/stargazer/internal/cache"
	"github.com/stargazerhq/stargazer/internal/email"
	"github.com/stargazerhq/stargazer/internal/gh"
	"github.com/stargazerhq/stargazer/internal/log"
	"github.com/stargazerhq/stargazer/internal/model"
)

// Options controls one extraction call.
type Options struct {
	IncludeStargazers bool
	IncludeForkers    bool

	// MaxStargazers and MaxForkers cap how many users are fetched per list;
	// zero means no cap.
	MaxStargazers int
	MaxForkers    int

	// DetailedUserInfo fetches the full profile of every listed user
	// instead of keeping the bare identity fields from the list endpoint.
	DetailedUserInfo bool

	// ResolveEmails runs email resolution for every user whose email is
	// still unknown after the (optional) detail fetch.
	ResolveEmails bool

	// AggressiveEmailExtraction enables the commit-search fallback strategy
	// and raises the per-user request budget.
	AggressiveEmailExtraction bool

	// Workers bounds the per-user enrichment concurrency. Zero or one means
	// sequential. The pool must stay small: every worker draws on the same
	// quota and bursts trigger secondary rate limits.
	Workers int
}

// DefaultOptions mirrors the common case: both lists, identity fields only.
func DefaultOptions() Options {
	return Options{
		IncludeStargazers: true,
		IncludeForkers:    true,
		Workers:           1,
	}
}

// Extractor coordinates the client, the email resolver, and the user cache
// to produce one ExtractionResult per call.
type Extractor struct {
	client *gh.Client
	cache  *cache.Cache
}

// NewExtractor creates an extractor. The cache may be nil to disable
// profile caching.
func NewExtractor(client *gh.Client, c *cache.Cache) *Extractor {
	return &Extractor{client: client, cache: c}
}

// Extract fetches the repository identified by repoID and, per opts, its
// stargazers and forkers. Repository metadata failure aborts the call;
// failures on an individual user are logged and tolerated, keeping whatever
// fields were already populated. Cancellation is honored between page
// fetches and between per-user enrichment steps.
func (e *Extractor) Extract(ctx context.Context, repoID string, opts Options) (*model.ExtractionResult, error) {
	owner, name, err := ParseRepoID(repoID)
	if err != nil {
		return nil, err
	}

	log.Info("extracting repository", "repo", owner+"/"+name)

	repo, err := e.client.Repository(ctx, owner, name)
	if err != nil {
		return nil, err
	}
	log.Info("repository found", "stars", repo.StargazersCount, "forks", repo.ForksCount)

	result := &model.ExtractionResult{
		Repository:      *repo,
		TotalStargazers: repo.StargazersCount,
		TotalForkers:    repo.ForksCount,
	}

	if opts.IncludeStargazers {
		stargazers, err := e.client.Stargazers(ctx, owner, name, opts.MaxStargazers)
		if err != nil {
			if abortWorthy(err) {
				return nil, err
			}
			log.Warn("failed to list stargazers", "error", err)
		} else {
			result.Stargazers = stargazers
			log.Info("stargazers fetched", "count", len(stargazers))
		}
	}

	if opts.IncludeForkers {
		forkers, err := e.client.Forkers(ctx, owner, name, opts.MaxForkers)
		if err != nil {
			if abortWorthy(err) {
				return nil, err
			}
			log.Warn("failed to list forkers", "error", err)
		} else {
			result.Forkers = forkers
			log.Info("forkers fetched", "count", len(forkers))
		}
	}

	if opts.DetailedUserInfo || opts.ResolveEmails {
		if err := e.enrich(ctx, result.Stargazers, opts); err != nil {
			return nil, err
		}
		if err := e.enrich(ctx, result.Forkers, opts); err != nil {
			return nil, err
		}
	}

	result.ExtractedAt = time.Now()
	return result, nil
}

// enrich fills in profile details and resolved emails for each user record
// in place. Enrichment is best-effort per user, running on a bounded worker
// pool; the shared RateLimitState inside the client serializes quota
// decisions across workers.
func (e *Extractor) enrich(ctx context.Context, users []model.User, opts Options) error {
	if len(users) == 0 {
		return nil
	}

	var resolver *email.Resolver
	if opts.ResolveEmails {
		resolver = email.NewResolver(e.client, opts.AggressiveEmailExtraction)
	}

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	done := 0
	for i := range users {
		if err := ctx.Err(); err != nil {
			break
		}
		user := &users[i]
		g.Go(func() error {
			if err := e.enrichUser(ctx, user, opts, resolver); err != nil {
				// One bad user must not fail the batch, but a credential
				// failure would repeat identically for everyone left.
				if abortWorthy(err) {
					return err
				}
				log.Warn("failed to enrich user", "login", user.Login, "error", err)
			}
			return nil
		})
		done++
		log.Progress("enriching users: %d/%d", done, len(users))
	}

	err := g.Wait()
	log.ProgressDone()
	return err
}

func (e *Extractor) enrichUser(ctx context.Context, user *model.User, opts Options, resolver *email.Resolver) error {
	if opts.DetailedUserInfo {
		if cached, ok := e.cachedUser(user.Login); ok {
			user.Merge(cached)
		} else {
			detail, err := e.client.User(ctx, user.Login)
			if err != nil {
				return err
			}
			user.Merge(detail)
			e.cacheUser(user)
		}
	}

	// Resolution runs only when no email is known yet; a resolved email is
	// never overwritten.
	if resolver != nil && user.Email == "" {
		addr, err := resolver.Resolve(ctx, user.Login)
		if err != nil {
			return err
		}
		if addr != "" {
			user.Email = addr
			e.cacheUser(user)
		}
	}

	return nil
}

func (e *Extractor) cachedUser(login string) (*model.User, bool) {
	if e.cache == nil {
		return nil, false
	}
	return e.cache.Get(login)
}

func (e *Extractor) cacheUser(user *model.User) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Set(user); err != nil {
		log.Debug("failed to cache user", "login", user.Login, "error", err)
	}
}

// abortWorthy reports whether an error would repeat for every remaining
// request, making further best-effort work pointless.
func abortWorthy(err error) bool {
	return gh.IsUnauthorized(err) || gh.IsRateLimited(err) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
