package notify

import (
	"testing"

	"github.com/lwatty24/fortniteshop.site/internal/domain"
)

func snapshotWith(itemIDs ...string) *domain.ShopSnapshot {
	items := make([]domain.CatalogItem, 0, len(itemIDs))
	for _, id := range itemIDs {
		items = append(items, domain.CatalogItem{ID: id, Name: "Item " + id})
	}
	return &domain.ShopSnapshot{
		Date:     "2024-03-01",
		Sections: []domain.ShopSection{{Name: "Outfit", Items: items}},
	}
}

func TestObserve_firstSnapshotOnlySeedsBaseline(t *testing.T) {
	t.Parallel()

	d := NewDispatcher()
	if returned := d.Observe(snapshotWith("a", "b")); len(returned) != 0 {
		t.Fatalf("first snapshot raised %d transitions", len(returned))
	}
}

func TestObserve_reportsExactlyOneTransitionPerReturn(t *testing.T) {
	t.Parallel()

	d := NewDispatcher()
	d.Observe(snapshotWith("a"))

	returned := d.Observe(snapshotWith("a", "x"))
	if len(returned) != 1 || returned[0].ID != "x" {
		t.Fatalf("got %+v, want single transition for x", returned)
	}

	// Still present: no further alert.
	if returned := d.Observe(snapshotWith("a", "x")); len(returned) != 0 {
		t.Fatalf("Present→Present raised %d transitions", len(returned))
	}
}

func TestObserve_absentToAbsentIsSilent(t *testing.T) {
	t.Parallel()

	d := NewDispatcher()
	d.Observe(snapshotWith("a"))
	if returned := d.Observe(snapshotWith("a")); len(returned) != 0 {
		t.Fatalf("got %d transitions, want 0", len(returned))
	}
}

func TestObserve_leavingAndReturningAlertsAgain(t *testing.T) {
	t.Parallel()

	d := NewDispatcher()
	d.Observe(snapshotWith("a", "x"))
	d.Observe(snapshotWith("a"))

	returned := d.Observe(snapshotWith("a", "x"))
	if len(returned) != 1 || returned[0].ID != "x" {
		t.Fatalf("expected a fresh transition after re-entry, got %+v", returned)
	}
}

func TestObserve_countsBundleMembersAsPresent(t *testing.T) {
	t.Parallel()

	d := NewDispatcher()
	d.Observe(snapshotWith("a"))

	bundle := &domain.ShopSnapshot{
		Date: "2024-03-02",
		Sections: []domain.ShopSection{{
			Name: "Bundle",
			Items: []domain.CatalogItem{{
				ID:       "offer-bundle",
				Name:     "Big Bundle",
				IsBundle: true,
				BundleItems: []domain.BundleMember{
					{ID: "x", Name: "Item x"},
				},
			}},
		}},
	}

	returned := d.Observe(bundle)
	ids := make(map[string]bool, len(returned))
	for _, item := range returned {
		ids[item.ID] = true
	}
	if !ids["x"] {
		t.Fatalf("bundle member return not detected: %+v", returned)
	}
}

func TestFilterWishlisted(t *testing.T) {
	t.Parallel()

	returned := []domain.CatalogItem{{ID: "x"}, {ID: "y"}}
	wishlist := []domain.CatalogItem{{ID: "y"}, {ID: "z"}}

	matched := FilterWishlisted(returned, wishlist)
	if len(matched) != 1 || matched[0].ID != "y" {
		t.Fatalf("got %+v, want only y", matched)
	}
}
