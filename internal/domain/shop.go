package domain

// ShopSection is a named bucket of items sharing one category classification.
type ShopSection struct {
	Name  string        `json:"name"`
	Items []CatalogItem `json:"items"`
}

// ShopSnapshot is the normalized result of one shop fetch, tagged with the
// calendar date (YYYY-MM-DD) it represents. Immutable once produced.
type ShopSnapshot struct {
	Date     string        `json:"date"`
	Sections []ShopSection `json:"sections"`
}

// Section returns the named section of the snapshot, or nil.
func (s *ShopSnapshot) Section(name string) *ShopSection {
	for i := range s.Sections {
		if s.Sections[i].Name == name {
			return &s.Sections[i]
		}
	}
	return nil
}

// ItemIDs returns the set of item ids present anywhere in the snapshot,
// bundle members included.
func (s *ShopSnapshot) ItemIDs() map[string]struct{} {
	ids := make(map[string]struct{})
	for _, section := range s.Sections {
		for _, item := range section.Items {
			ids[item.ID] = struct{}{}
			for _, member := range item.BundleItems {
				ids[member.ID] = struct{}{}
			}
		}
	}
	return ids
}

// HistoryEntry is one persisted snapshot, keyed by its date.
type HistoryEntry struct {
	Date        string       `json:"date"`
	Snapshot    ShopSnapshot `json:"snapshot"`
	LastUpdated string       `json:"last_updated"` // RFC 3339 timestamp of the write
}
