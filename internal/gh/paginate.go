package gh

import (
	"context"

	gogithub "github.com/google/go-github/v57/github"

	"github.com/stargazerhq/stargazer/internal/constants"
)

// PageFunc fetches one page of a list endpoint.
type PageFunc[T any] func(ctx context.Context, page, perPage int) ([]T, *gogithub.Response, error)

// CollectPages walks a paginated endpoint from page 1 until exhaustion or
// until maxItems items have been gathered (0 means no cap). Each page is
// requested at the endpoint maximum page size to minimize request count
// against the shared quota; the final page is truncated client-side since
// the API is not byte-range addressable.
//
// A failure mid-traversal discards everything gathered so far: the caller
// gets either the full (possibly capped) list or an error, never a partial
// one. Cancellation is checked between page fetches.
func CollectPages[T any](ctx context.Context, fetch PageFunc[T], maxItems int) ([]T, error) {
	perPage := constants.MaxPerPage
	if maxItems > 0 && maxItems < perPage {
		perPage = maxItems
	}

	var items []T
	page := 1
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		batch, resp, err := fetch(ctx, page, perPage)
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			return items, nil
		}

		items = append(items, batch...)
		if maxItems > 0 && len(items) >= maxItems {
			return items[:maxItems], nil
		}

		if resp == nil || resp.NextPage == 0 {
			return items, nil
		}
		page = resp.NextPage
	}
}
