package notify

import (
	"sort"
	"sync"

	"github.com/lwatty24/fortniteshop.site/internal/domain"
)

// Dispatcher tracks which item ids were present in the previously observed
// snapshot and reports Absent→Present transitions. The first snapshot of a
// session only seeds the baseline; it never produces transitions.
type Dispatcher struct {
	mu       sync.Mutex
	baseline map[string]struct{}
	seeded   bool
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Observe diffs the snapshot against the previous one and returns the items
// that just re-entered the shop, in stable id order. Bundle members count as
// present, so an item returning inside a bundle is still a return.
func (d *Dispatcher) Observe(snapshot *domain.ShopSnapshot) []domain.CatalogItem {
	present := itemsByID(snapshot)

	ids := make(map[string]struct{}, len(present))
	for id := range present {
		ids[id] = struct{}{}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.seeded {
		d.baseline = ids
		d.seeded = true
		return nil
	}

	var returnedIDs []string
	for id := range ids {
		if _, was := d.baseline[id]; !was {
			returnedIDs = append(returnedIDs, id)
		}
	}
	d.baseline = ids

	sort.Strings(returnedIDs)
	returned := make([]domain.CatalogItem, 0, len(returnedIDs))
	for _, id := range returnedIDs {
		returned = append(returned, present[id])
	}
	return returned
}

// FilterWishlisted keeps only the returned items whose id is wishlisted.
func FilterWishlisted(returned, wishlist []domain.CatalogItem) []domain.CatalogItem {
	wished := make(map[string]struct{}, len(wishlist))
	for _, item := range wishlist {
		wished[item.ID] = struct{}{}
	}

	var matched []domain.CatalogItem
	for _, item := range returned {
		if _, ok := wished[item.ID]; ok {
			matched = append(matched, item)
		}
	}
	return matched
}

func itemsByID(snapshot *domain.ShopSnapshot) map[string]domain.CatalogItem {
	present := make(map[string]domain.CatalogItem)
	for _, section := range snapshot.Sections {
		for _, item := range section.Items {
			present[item.ID] = item
			for _, member := range item.BundleItems {
				if _, ok := present[member.ID]; ok {
					continue
				}
				present[member.ID] = domain.CatalogItem{
					ID:     member.ID,
					Name:   member.Name,
					Type:   member.Type,
					Rarity: member.Rarity,
					Image:  member.Image,
				}
			}
		}
	}
	return present
}
