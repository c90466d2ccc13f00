package email

import (
	"context"

	gogithub "github.com/google/go-github/v57/github"

	"github.com/stargazerhq/stargazer/internal/constants"
)

// profileStrategy checks the user's public profile. Cheapest probe (one
// request) and authoritative when the user chose to expose an email.
type profileStrategy struct{}

func (profileStrategy) name() string { return "profile" }

func (profileStrategy) resolve(ctx context.Context, p Prober, login string, b *budget) (string, error) {
	if !b.take() {
		return "", nil
	}
	user, err := p.User(ctx, login)
	if err != nil {
		return "", err
	}
	return user.Email, nil
}

// repoCommitsStrategy scans recent commits in the user's own repositories
// for an author or committer address that is not a no-reply placeholder.
type repoCommitsStrategy struct{}

func (repoCommitsStrategy) name() string { return "repo-commits" }

func (repoCommitsStrategy) resolve(ctx context.Context, p Prober, login string, b *budget) (string, error) {
	if !b.take() {
		return "", nil
	}
	repos, err := p.RecentRepos(ctx, login, constants.ResolveRepoLimit)
	if err != nil {
		return "", err
	}

	for _, repo := range repos {
		// Forked repos carry other people's commit history.
		if repo.GetFork() || repo.GetOwner().GetLogin() != login {
			continue
		}
		if !b.take() {
			return "", nil
		}
		commits, err := p.RepoCommits(ctx, login, repo.GetName(), login, constants.ResolveCommitLimit)
		if err != nil {
			continue
		}
		for _, rc := range commits {
			if addr := commitEmail(rc.GetCommit()); addr != "" {
				return addr, nil
			}
		}
	}
	return "", nil
}

// eventsStrategy inspects commit payloads embedded in the user's public
// push events.
type eventsStrategy struct{}

func (eventsStrategy) name() string { return "events" }

func (eventsStrategy) resolve(ctx context.Context, p Prober, login string, b *budget) (string, error) {
	for page := 1; page <= constants.ResolveEventPages; page++ {
		if !b.take() {
			return "", nil
		}
		events, err := p.PublicEvents(ctx, login, page, constants.DefaultPerPage)
		if err != nil {
			return "", err
		}

		for _, ev := range events {
			if ev.GetType() != "PushEvent" {
				continue
			}
			payload, err := ev.ParsePayload()
			if err != nil {
				continue
			}
			push, ok := payload.(*gogithub.PushEvent)
			if !ok {
				continue
			}
			for _, commit := range push.Commits {
				addr := commit.GetAuthor().GetEmail()
				if Usable(addr) {
					return addr, nil
				}
			}
		}

		if len(events) < constants.DefaultPerPage {
			break
		}
	}
	return "", nil
}

// commitSearchStrategy searches commits authored by the user across all of
// GitHub. Most expensive probe; only enabled in aggressive mode and only
// reached when everything else came up empty.
type commitSearchStrategy struct{}

func (commitSearchStrategy) name() string { return "commit-search" }

func (commitSearchStrategy) resolve(ctx context.Context, p Prober, login string, b *budget) (string, error) {
	if !b.take() {
		return "", nil
	}
	results, err := p.SearchCommits(ctx, "author:"+login, constants.DefaultPerPage)
	if err != nil {
		return "", err
	}
	for _, result := range results {
		// Guard against the search matching someone else's commits.
		if result.GetAuthor().GetLogin() != login {
			continue
		}
		if addr := commitEmail(result.GetCommit()); addr != "" {
			return addr, nil
		}
	}
	return "", nil
}

// commitEmail pulls the first usable address out of a commit's author or
// committer fields.
func commitEmail(commit *gogithub.Commit) string {
	if commit == nil {
		return ""
	}
	if addr := commit.GetAuthor().GetEmail(); Usable(addr) {
		return addr
	}
	if addr := commit.GetCommitter().GetEmail(); Usable(addr) {
		return addr
	}
	return ""
}
