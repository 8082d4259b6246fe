package search

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lwatty24/fortniteshop.site/internal/domain"

	"github.com/benbjohnson/clock"
)

type fakeClient struct {
	calls   atomic.Int32
	results []domain.CatalogItem
	err     error
	block   chan struct{} // when set, SearchCosmetics waits for it or ctx
}

func (f *fakeClient) GetCurrentShop(ctx context.Context) (*domain.ShopSnapshot, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeClient) GetShopForDate(ctx context.Context, date string) (*domain.ShopSnapshot, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeClient) SearchCosmetics(ctx context.Context, query string, limit int) ([]domain.CatalogItem, error) {
	f.calls.Add(1)
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func newTestService(c *fakeClient, clk clock.Clock) *Service {
	return NewService(c, clk, 30*time.Minute, time.Second, 25)
}

func TestSearch_shortQuerySkipsNetwork(t *testing.T) {
	t.Parallel()

	fc := &fakeClient{}
	svc := newTestService(fc, clock.NewMock())

	for _, q := range []string{"", "r"} {
		if got := svc.Search(context.Background(), q); len(got) != 0 {
			t.Fatalf("query %q: got %d results, want 0", q, len(got))
		}
	}
	if n := fc.calls.Load(); n != 0 {
		t.Fatalf("short queries issued %d network calls", n)
	}
}

func TestSearch_cachesWithinTTLCaseInsensitively(t *testing.T) {
	t.Parallel()

	fc := &fakeClient{results: []domain.CatalogItem{{ID: "a"}}}
	svc := newTestService(fc, clock.NewMock())

	if got := svc.Search(context.Background(), "Renegade"); len(got) != 1 {
		t.Fatalf("got %d results, want 1", len(got))
	}
	if got := svc.Search(context.Background(), "renegade"); len(got) != 1 {
		t.Fatalf("got %d results, want 1", len(got))
	}
	if n := fc.calls.Load(); n != 1 {
		t.Fatalf("expected one upstream call, got %d", n)
	}
}

func TestSearch_expiredEntryRefetches(t *testing.T) {
	t.Parallel()

	mock := clock.NewMock()
	fc := &fakeClient{results: []domain.CatalogItem{{ID: "a"}}}
	svc := newTestService(fc, mock)

	svc.Search(context.Background(), "raider")
	mock.Add(31 * time.Minute)
	svc.Search(context.Background(), "raider")

	if n := fc.calls.Load(); n != 2 {
		t.Fatalf("expected refetch after expiry, got %d calls", n)
	}
}

func TestSearch_coalescesConcurrentIdenticalQueries(t *testing.T) {
	t.Parallel()

	fc := &fakeClient{
		results: []domain.CatalogItem{{ID: "a"}},
		block:   make(chan struct{}),
	}
	svc := newTestService(fc, clock.NewMock())

	const callers = 8
	var wg sync.WaitGroup
	results := make([][]domain.CatalogItem, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = svc.Search(context.Background(), "raider")
		}(i)
	}

	// Let every caller reach the shared in-flight fetch before releasing it.
	time.Sleep(50 * time.Millisecond)
	close(fc.block)
	wg.Wait()

	if n := fc.calls.Load(); n != 1 {
		t.Fatalf("expected one coalesced upstream call, got %d", n)
	}
	for i, r := range results {
		if len(r) != 1 {
			t.Fatalf("caller %d got %d results, want 1", i, len(r))
		}
	}
}

func TestSearch_timeoutResolvesToEmpty(t *testing.T) {
	t.Parallel()

	fc := &fakeClient{block: make(chan struct{})} // never released
	svc := NewService(fc, clock.NewMock(), 30*time.Minute, 20*time.Millisecond, 25)

	if got := svc.Search(context.Background(), "raider"); len(got) != 0 {
		t.Fatalf("timed-out search returned %d results, want 0", len(got))
	}
}

func TestSearch_cancellationResolvesToEmpty(t *testing.T) {
	t.Parallel()

	fc := &fakeClient{block: make(chan struct{})}
	svc := newTestService(fc, clock.NewMock())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan []domain.CatalogItem, 1)
	go func() { done <- svc.Search(ctx, "raider") }()
	cancel()

	if got := <-done; len(got) != 0 {
		t.Fatalf("cancelled search returned %d results, want 0", len(got))
	}
}

func TestSearch_failuresAreNotCached(t *testing.T) {
	t.Parallel()

	fc := &fakeClient{err: errors.New("upstream down")}
	svc := newTestService(fc, clock.NewMock())

	if got := svc.Search(context.Background(), "raider"); len(got) != 0 {
		t.Fatalf("failed search returned %d results", len(got))
	}

	fc.err = nil
	fc.results = []domain.CatalogItem{{ID: "a"}}
	if got := svc.Search(context.Background(), "raider"); len(got) != 1 {
		t.Fatalf("got %d results after recovery, want 1", len(got))
	}
	if n := fc.calls.Load(); n != 2 {
		t.Fatalf("expected the failure to not be cached, got %d calls", n)
	}
}
