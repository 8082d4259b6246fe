package domain

// CatalogItem is one purchasable entry of a shop snapshot. Items are built
// fresh on every normalization pass; identity across passes is by ID only.
type CatalogItem struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Description   string         `json:"description,omitempty"`
	Rarity        string         `json:"rarity,omitempty"`
	Price         int            `json:"price,omitempty"`
	Type          string         `json:"type,omitempty"`
	Image         string         `json:"image,omitempty"`
	FeaturedImage string         `json:"featured_image,omitempty"` // falls back to Image
	Set           string         `json:"set,omitempty"`
	Series        string         `json:"series,omitempty"`
	Added         string         `json:"added,omitempty"` // ISO date the item first appeared upstream
	IsBundle      bool           `json:"is_bundle,omitempty"`
	BundleItems   []BundleMember `json:"bundle_items,omitempty"`
	IsMusicTrack  bool           `json:"is_music_track,omitempty"`
	PreviewAudio  string         `json:"preview_audio,omitempty"`
	FromSearch    bool           `json:"from_search,omitempty"`
	History       ItemHistory    `json:"history"`
}

// BundleMember is the lightweight shape of an item sold inside a bundle.
type BundleMember struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type,omitempty"`
	Rarity string `json:"rarity,omitempty"`
	Image  string `json:"image,omitempty"`
}

type ItemHistory struct {
	FirstSeen   string `json:"first_seen,omitempty"`
	LastSeen    string `json:"last_seen,omitempty"`
	Occurrences int    `json:"occurrences,omitempty"`
}
