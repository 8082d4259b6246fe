package state

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/lwatty24/fortniteshop.site/internal/domain"
)

const (
	maxRecentSearches = 5
	minSearchLength   = 2
)

// StateManager owns the small per-user state: the wishlist, the recent
// search list and the alert email address. Reads and writes are
// read-modify-write on a single logical owner; no cross-user coordination.
type StateManager interface {
	AddToWishlist(ctx context.Context, userID string, item domain.CatalogItem) error
	RemoveFromWishlist(ctx context.Context, userID, itemID string) error
	Wishlist(ctx context.Context, userID string) ([]domain.CatalogItem, error)
	InWishlist(ctx context.Context, userID, itemID string) (bool, error)

	RecordSearch(ctx context.Context, userID, query string) error
	RecentSearches(ctx context.Context, userID string) ([]string, error)
	ClearRecentSearches(ctx context.Context, userID string) error

	// SetAlertEmail with an empty address clears the subscription state.
	SetAlertEmail(ctx context.Context, userID, email string) error
	AlertEmail(ctx context.Context, userID string) (string, error)
	// AlertEmails returns every user with an alert address, for fan-out.
	AlertEmails(ctx context.Context) (map[string]string, error)
}

// dedupeRecent prepends query to the list, dropping case-insensitive
// duplicates and clamping to the cap. Queries below the search minimum are
// never recorded.
func dedupeRecent(recent []string, query string) ([]string, bool) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < minSearchLength {
		return recent, false
	}

	updated := make([]string, 0, maxRecentSearches)
	updated = append(updated, query)
	for _, q := range recent {
		if strings.EqualFold(q, query) {
			continue
		}
		updated = append(updated, q)
		if len(updated) == maxRecentSearches {
			break
		}
	}
	return updated, true
}

type memoryState struct {
	mu          sync.Mutex
	wishlists   map[string]map[string]domain.CatalogItem
	recent      map[string][]string
	alertEmails map[string]string
}

// NewMemoryStateManager returns the in-process state manager used when no
// redis is configured.
func NewMemoryStateManager() StateManager {
	return &memoryState{
		wishlists:   make(map[string]map[string]domain.CatalogItem),
		recent:      make(map[string][]string),
		alertEmails: make(map[string]string),
	}
}

func (s *memoryState) AddToWishlist(ctx context.Context, userID string, item domain.CatalogItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.wishlists[userID] == nil {
		s.wishlists[userID] = make(map[string]domain.CatalogItem)
	}
	s.wishlists[userID][item.ID] = item
	return nil
}

func (s *memoryState) RemoveFromWishlist(ctx context.Context, userID, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.wishlists[userID], itemID)
	return nil
}

func (s *memoryState) Wishlist(ctx context.Context, userID string) ([]domain.CatalogItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]domain.CatalogItem, 0, len(s.wishlists[userID]))
	for _, item := range s.wishlists[userID] {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (s *memoryState) InWishlist(ctx context.Context, userID, itemID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.wishlists[userID][itemID]
	return ok, nil
}

func (s *memoryState) RecordSearch(ctx context.Context, userID, query string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if updated, ok := dedupeRecent(s.recent[userID], query); ok {
		s.recent[userID] = updated
	}
	return nil
}

func (s *memoryState) RecentSearches(ctx context.Context, userID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.recent[userID]...), nil
}

func (s *memoryState) ClearRecentSearches(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.recent, userID)
	return nil
}

func (s *memoryState) SetAlertEmail(ctx context.Context, userID, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if email == "" {
		delete(s.alertEmails, userID)
		return nil
	}
	s.alertEmails[userID] = email
	return nil
}

func (s *memoryState) AlertEmail(ctx context.Context, userID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.alertEmails[userID], nil
}

func (s *memoryState) AlertEmails(ctx context.Context) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	emails := make(map[string]string, len(s.alertEmails))
	for user, email := range s.alertEmails {
		emails[user] = email
	}
	return emails, nil
}
