package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/lwatty24/fortniteshop.site/internal/client"
	"github.com/lwatty24/fortniteshop.site/internal/domain"

	"github.com/benbjohnson/clock"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// minQueryLength gates queries that are too short to hit the network.
const minQueryLength = 2

type cacheEntry struct {
	results   []domain.CatalogItem
	fetchedAt time.Time
}

// Service resolves free-text queries against the upstream search endpoint,
// caching successful results for a fixed TTL and coalescing concurrent
// identical requests into one in-flight fetch. One instance per process,
// passed by reference to callers.
type Service struct {
	client     client.FortniteClient
	clock      clock.Clock
	ttl        time.Duration
	timeout    time.Duration
	maxResults int

	group singleflight.Group
	mu    sync.Mutex
	cache map[string]cacheEntry
}

func NewService(c client.FortniteClient, clk clock.Clock, ttl, timeout time.Duration, maxResults int) *Service {
	return &Service{
		client:     c,
		clock:      clk,
		ttl:        ttl,
		timeout:    timeout,
		maxResults: maxResults,
		cache:      make(map[string]cacheEntry),
	}
}

// Search resolves a sanitized query. Timeouts, cancellation and upstream
// failures all resolve to an empty result set so the caller stays responsive;
// only successful fetches populate the cache.
func (s *Service) Search(ctx context.Context, query string) []domain.CatalogItem {
	if len([]rune(query)) < minQueryLength {
		return []domain.CatalogItem{}
	}

	key := strings.ToLower(query)

	s.mu.Lock()
	entry, ok := s.cache[key]
	s.mu.Unlock()
	if ok && s.clock.Now().Sub(entry.fetchedAt) < s.ttl {
		return entry.results
	}

	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		results, err := s.client.SearchCosmetics(reqCtx, query, s.maxResults)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		s.cache[key] = cacheEntry{results: results, fetchedAt: s.clock.Now()}
		s.mu.Unlock()
		return results, nil
	})
	if err != nil {
		if ctx.Err() != nil {
			log.Debugf("Search %q cancelled", query)
		} else {
			log.Warnf("Search %q failed, returning empty results: %v", query, err)
		}
		return []domain.CatalogItem{}
	}

	return v.([]domain.CatalogItem)
}
