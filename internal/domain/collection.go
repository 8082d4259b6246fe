package domain

import "time"

// Collection is a user-owned named group of items. Items are copied by value
// at add-time and live independently of any shop snapshot.
type Collection struct {
	ID          string        `json:"id"`
	UserID      string        `json:"user_id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Items       []CatalogItem `json:"items"`
	IsPublic    bool          `json:"is_public"`
	ShareID     string        `json:"share_id,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Profile is the per-user profile document.
type Profile struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}
