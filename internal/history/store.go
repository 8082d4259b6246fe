package history

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/lwatty24/fortniteshop.site/internal/domain"

	"github.com/benbjohnson/clock"
)

// Store keeps one shop snapshot per calendar day, bounded to the most recent
// days, and answers lookups by date.
type Store interface {
	// Record inserts the snapshot under its date. A same-day entry is only
	// overwritten when the snapshot content actually differs, so repeated
	// refreshes within one day stay write-free.
	Record(ctx context.Context, snapshot *domain.ShopSnapshot) error
	// Get returns the entry for a date or domain.ErrNotFound.
	Get(ctx context.Context, date string) (*domain.HistoryEntry, error)
	// ListDates returns all stored dates in ascending order.
	ListDates(ctx context.Context) ([]string, error)
}

// sameContent reports whether two snapshots serialize identically.
func sameContent(a, b *domain.ShopSnapshot) bool {
	aj, err := json.Marshal(a)
	if err != nil {
		return false
	}
	bj, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return string(aj) == string(bj)
}

// Adjacent returns the dates before and after current within the sorted date
// list. Stepping past either end is a no-op: the returned neighbor is empty.
func Adjacent(dates []string, current string) (prev, next string) {
	for i, d := range dates {
		if d != current {
			continue
		}
		if i > 0 {
			prev = dates[i-1]
		}
		if i < len(dates)-1 {
			next = dates[i+1]
		}
		return prev, next
	}
	return "", ""
}

// memoryStore is the in-process fallback used when no redis is configured,
// and the reference implementation for the store semantics.
type memoryStore struct {
	clock   clock.Clock
	maxDays int

	mu      sync.Mutex
	entries map[string]domain.HistoryEntry
}

func NewMemoryStore(clk clock.Clock, maxDays int) Store {
	return &memoryStore{
		clock:   clk,
		maxDays: maxDays,
		entries: make(map[string]domain.HistoryEntry),
	}
}

func (s *memoryStore) Record(ctx context.Context, snapshot *domain.ShopSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.entries[snapshot.Date]; ok && sameContent(&existing.Snapshot, snapshot) {
		return nil
	}

	s.entries[snapshot.Date] = domain.HistoryEntry{
		Date:        snapshot.Date,
		Snapshot:    *snapshot,
		LastUpdated: s.clock.Now().UTC().Format(time.RFC3339),
	}

	for len(s.entries) > s.maxDays {
		oldest := ""
		for date := range s.entries {
			if oldest == "" || date < oldest {
				oldest = date
			}
		}
		delete(s.entries, oldest)
	}
	return nil
}

func (s *memoryStore) Get(ctx context.Context, date string) (*domain.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[date]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &entry, nil
}

func (s *memoryStore) ListDates(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dates := make([]string, 0, len(s.entries))
	for date := range s.entries {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates, nil
}
