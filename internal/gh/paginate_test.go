package gh

import (
	"context"
	"errors"
	"testing"

	gogithub "github.com/google/go-github/v57/github"
)

// pagedFetch simulates a paginated endpoint backed by a fixed item list.
func pagedFetch(total int, failOnPage int) (PageFunc[int], *int) {
	calls := new(int)
	fetch := func(ctx context.Context, page, perPage int) ([]int, *gogithub.Response, error) {
		*calls++
		if failOnPage > 0 && page == failOnPage {
			return nil, nil, errors.New("page fetch failed")
		}
		start := (page - 1) * perPage
		if start >= total {
			return nil, &gogithub.Response{}, nil
		}
		end := start + perPage
		if end > total {
			end = total
		}
		items := make([]int, 0, end-start)
		for i := start; i < end; i++ {
			items = append(items, i)
		}
		resp := &gogithub.Response{}
		if end < total {
			resp.NextPage = page + 1
		}
		return items, resp, nil
	}
	return fetch, calls
}

func TestCollectPagesWalksToExhaustion(t *testing.T) {
	fetch, _ := pagedFetch(250, 0)

	items, err := CollectPages(context.Background(), fetch, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 250 {
		t.Fatalf("expected 250 items, got %d", len(items))
	}
	if items[0] != 0 || items[249] != 249 {
		t.Errorf("expected items in API order, got first=%d last=%d", items[0], items[249])
	}
}

func TestCollectPagesHonorsCap(t *testing.T) {
	fetch, calls := pagedFetch(1000, 0)

	items, err := CollectPages(context.Background(), fetch, 150)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 150 {
		t.Fatalf("expected exactly 150 items, got %d", len(items))
	}
	// 150 items at 100 per page is two fetches, not ten.
	if *calls != 2 {
		t.Errorf("expected 2 page fetches, got %d", *calls)
	}
}

func TestCollectPagesSmallCapShrinksPageSize(t *testing.T) {
	var seenPerPage int
	fetch := func(ctx context.Context, page, perPage int) ([]int, *gogithub.Response, error) {
		seenPerPage = perPage
		return []int{1, 2, 3}, &gogithub.Response{}, nil
	}

	items, err := CollectPages(context.Background(), fetch, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 3 {
		t.Errorf("expected 3 items, got %d", len(items))
	}
	if seenPerPage != 3 {
		t.Errorf("expected page size shrunk to the cap (3), got %d", seenPerPage)
	}
}

func TestCollectPagesDiscardsPartialResultsOnError(t *testing.T) {
	fetch, _ := pagedFetch(1000, 3)

	items, err := CollectPages(context.Background(), fetch, 0)
	if err == nil {
		t.Fatal("expected an error from the failing page")
	}
	if items != nil {
		t.Errorf("expected no partial results, got %d items", len(items))
	}
}

func TestCollectPagesStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetch, calls := pagedFetch(1000, 0)
	_, err := CollectPages(ctx, fetch, 0)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if *calls != 0 {
		t.Errorf("expected no fetches after cancellation, got %d", *calls)
	}
}

func TestCollectPagesEmptyList(t *testing.T) {
	fetch, _ := pagedFetch(0, 0)

	items, err := CollectPages(context.Background(), fetch, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected empty result, got %d items", len(items))
	}
}
