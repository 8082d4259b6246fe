package domain

import "errors"

var (
	// ErrInvalidShopData marks an upstream payload missing its expected
	// structure. Fatal to the triggering fetch and surfaced to the caller.
	ErrInvalidShopData = errors.New("invalid shop data")

	// ErrSubscriptionConflict marks a duplicate email subscribe attempt.
	ErrSubscriptionConflict = errors.New("email already subscribed")

	// ErrNotFound marks a missing history entry, collection or profile.
	ErrNotFound = errors.New("not found")

	// ErrRateLimited marks a caller exceeding its request allowance.
	ErrRateLimited = errors.New("rate limited")
)
