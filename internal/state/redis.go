package state

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lwatty24/fortniteshop.site/internal/domain"

	"github.com/redis/go-redis/v9"
)

type redisState struct {
	redisClient *redis.Client
	keyPrefix   string
}

func NewRedisStateManager(redisClient *redis.Client) StateManager {
	return &redisState{
		redisClient: redisClient,
		keyPrefix:   "itemshop:",
	}
}

func (s *redisState) wishlistKey(userID string) string {
	return s.keyPrefix + "wishlist:" + userID
}

func (s *redisState) recentKey(userID string) string {
	return s.keyPrefix + "recent:" + userID
}

func (s *redisState) alertEmailsKey() string {
	return s.keyPrefix + "alert_emails"
}

func (s *redisState) AddToWishlist(ctx context.Context, userID string, item domain.CatalogItem) error {
	value, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to serialize wishlist item %s: %w", item.ID, err)
	}
	if err := s.redisClient.HSet(ctx, s.wishlistKey(userID), item.ID, value).Err(); err != nil {
		return fmt.Errorf("failed to add item %s to wishlist: %w", item.ID, err)
	}
	return nil
}

func (s *redisState) RemoveFromWishlist(ctx context.Context, userID, itemID string) error {
	if err := s.redisClient.HDel(ctx, s.wishlistKey(userID), itemID).Err(); err != nil {
		return fmt.Errorf("failed to remove item %s from wishlist: %w", itemID, err)
	}
	return nil
}

func (s *redisState) Wishlist(ctx context.Context, userID string) ([]domain.CatalogItem, error) {
	values, err := s.redisClient.HGetAll(ctx, s.wishlistKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read wishlist for %s: %w", userID, err)
	}

	items := make([]domain.CatalogItem, 0, len(values))
	for id, value := range values {
		var item domain.CatalogItem
		if err := json.Unmarshal([]byte(value), &item); err != nil {
			return nil, fmt.Errorf("failed to decode wishlist item %s: %w", id, err)
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *redisState) InWishlist(ctx context.Context, userID, itemID string) (bool, error) {
	ok, err := s.redisClient.HExists(ctx, s.wishlistKey(userID), itemID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check wishlist for %s: %w", userID, err)
	}
	return ok, nil
}

func (s *redisState) RecordSearch(ctx context.Context, userID, query string) error {
	recent, err := s.RecentSearches(ctx, userID)
	if err != nil {
		return err
	}

	updated, ok := dedupeRecent(recent, query)
	if !ok {
		return nil
	}

	pipe := s.redisClient.TxPipeline()
	pipe.Del(ctx, s.recentKey(userID))
	args := make([]interface{}, len(updated))
	for i, q := range updated {
		args[i] = q
	}
	pipe.RPush(ctx, s.recentKey(userID), args...)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record search for %s: %w", userID, err)
	}
	return nil
}

func (s *redisState) RecentSearches(ctx context.Context, userID string) ([]string, error) {
	recent, err := s.redisClient.LRange(ctx, s.recentKey(userID), 0, maxRecentSearches-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read recent searches for %s: %w", userID, err)
	}
	return recent, nil
}

func (s *redisState) ClearRecentSearches(ctx context.Context, userID string) error {
	if err := s.redisClient.Del(ctx, s.recentKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to clear recent searches for %s: %w", userID, err)
	}
	return nil
}

func (s *redisState) SetAlertEmail(ctx context.Context, userID, email string) error {
	if email == "" {
		if err := s.redisClient.HDel(ctx, s.alertEmailsKey(), userID).Err(); err != nil {
			return fmt.Errorf("failed to clear alert email for %s: %w", userID, err)
		}
		return nil
	}
	if err := s.redisClient.HSet(ctx, s.alertEmailsKey(), userID, email).Err(); err != nil {
		return fmt.Errorf("failed to set alert email for %s: %w", userID, err)
	}
	return nil
}

func (s *redisState) AlertEmail(ctx context.Context, userID string) (string, error) {
	email, err := s.redisClient.HGet(ctx, s.alertEmailsKey(), userID).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read alert email for %s: %w", userID, err)
	}
	return email, nil
}

func (s *redisState) AlertEmails(ctx context.Context) (map[string]string, error) {
	emails, err := s.redisClient.HGetAll(ctx, s.alertEmailsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list alert emails: %w", err)
	}
	return emails, nil
}
