package history

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/lwatty24/fortniteshop.site/internal/domain"

	"github.com/benbjohnson/clock"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// redisStore keeps history entries in one hash, field per date. Dates are
// ISO formatted so lexicographic order is chronological order.
type redisStore struct {
	redisClient *redis.Client
	clock       clock.Clock
	maxDays     int
	key         string
}

func NewRedisStore(redisClient *redis.Client, clk clock.Clock, maxDays int) Store {
	return &redisStore{
		redisClient: redisClient,
		clock:       clk,
		maxDays:     maxDays,
		key:         "itemshop:history",
	}
}

func (s *redisStore) Record(ctx context.Context, snapshot *domain.ShopSnapshot) error {
	existing, err := s.redisClient.HGet(ctx, s.key, snapshot.Date).Result()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("failed to read history entry for %s: %w", snapshot.Date, err)
	}
	if err == nil {
		var entry domain.HistoryEntry
		if unmarshalErr := json.Unmarshal([]byte(existing), &entry); unmarshalErr == nil && sameContent(&entry.Snapshot, snapshot) {
			log.Debugf("History entry for %s unchanged, skipping write", snapshot.Date)
			return nil
		}
	}

	entry := domain.HistoryEntry{
		Date:        snapshot.Date,
		Snapshot:    *snapshot,
		LastUpdated: s.clock.Now().UTC().Format(time.RFC3339),
	}
	value, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to serialize history entry for %s: %w", snapshot.Date, err)
	}

	if err := s.redisClient.HSet(ctx, s.key, snapshot.Date, value).Err(); err != nil {
		return fmt.Errorf("failed to save history entry for %s: %w", snapshot.Date, err)
	}

	return s.evict(ctx)
}

func (s *redisStore) evict(ctx context.Context) error {
	dates, err := s.redisClient.HKeys(ctx, s.key).Result()
	if err != nil {
		return fmt.Errorf("failed to list history dates: %w", err)
	}
	if len(dates) <= s.maxDays {
		return nil
	}

	sort.Strings(dates)
	stale := dates[:len(dates)-s.maxDays]
	if err := s.redisClient.HDel(ctx, s.key, stale...).Err(); err != nil {
		return fmt.Errorf("failed to evict %d history entries: %w", len(stale), err)
	}
	log.Debugf("Evicted %d history entries past the %d-day cap", len(stale), s.maxDays)
	return nil
}

func (s *redisStore) Get(ctx context.Context, date string) (*domain.HistoryEntry, error) {
	value, err := s.redisClient.HGet(ctx, s.key, date).Result()
	if err == redis.Nil {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read history entry for %s: %w", date, err)
	}

	var entry domain.HistoryEntry
	if err := json.Unmarshal([]byte(value), &entry); err != nil {
		return nil, fmt.Errorf("failed to decode history entry for %s: %w", date, err)
	}
	return &entry, nil
}

func (s *redisStore) ListDates(ctx context.Context) ([]string, error) {
	dates, err := s.redisClient.HKeys(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list history dates: %w", err)
	}
	sort.Strings(dates)
	return dates, nil
}
