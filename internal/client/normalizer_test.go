package client

import (
	"errors"
	"reflect"
	"testing"

	"github.com/lwatty24/fortniteshop.site/internal/domain"
)

func outfit(id, name string) rawItem {
	return rawItem{
		ID:     id,
		Name:   name,
		Type:   &rawTypeInfo{Value: "outfit", DisplayValue: "Outfit"},
		Rarity: &rawTypeInfo{Value: "rare"},
		Images: &rawImages{Icon: "https://img/" + id + "/icon.png"},
		Added:  "2024-01-05",
	}
}

func entryOf(offerID string, price int, items ...rawItem) rawEntry {
	return rawEntry{OfferID: offerID, FinalPrice: price, Items: items}
}

func bundleOf(offerID string, price int, items ...rawItem) rawEntry {
	e := entryOf(offerID, price, items...)
	e.Bundle = &rawBundle{Name: "Bundle " + offerID}
	return e
}

func shopWith(entries ...rawEntry) *rawShopData {
	return &rawShopData{Featured: &rawGroup{Entries: entries}}
}

func TestNormalizeShop_suppressesBundleMembers(t *testing.T) {
	t.Parallel()

	a := outfit("item-a", "Item A")
	b := outfit("item-b", "Item B")
	data := shopWith(
		bundleOf("offer-bundle", 2000, a, b),
		entryOf("offer-a", 1200, a),
	)

	snapshot, err := newShopNormalizer().NormalizeShop(data, "2024-03-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bundleSection := snapshot.Section("Bundle")
	if bundleSection == nil || len(bundleSection.Items) != 1 {
		t.Fatalf("expected one bundle entry, got %+v", snapshot.Sections)
	}
	if got := len(bundleSection.Items[0].BundleItems); got != 2 {
		t.Fatalf("expected 2 bundle members, got %d", got)
	}

	for _, section := range snapshot.Sections {
		if section.Name == "Bundle" {
			continue
		}
		for _, item := range section.Items {
			if item.Name == "Item A" {
				t.Fatalf("bundle member listed standalone in section %q", section.Name)
			}
		}
	}
}

func TestNormalizeShop_alwaysEmitsJamTracksSection(t *testing.T) {
	t.Parallel()

	snapshot, err := newShopNormalizer().NormalizeShop(shopWith(entryOf("offer-a", 800, outfit("item-a", "Item A"))), "2024-03-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	section := snapshot.Section("Jam Tracks")
	if section == nil {
		t.Fatalf("missing Jam Tracks section: %+v", snapshot.Sections)
	}
	if len(section.Items) != 0 {
		t.Fatalf("expected empty Jam Tracks section, got %d items", len(section.Items))
	}
}

func TestNormalizeShop_classifiesMusicTypeCaseInsensitive(t *testing.T) {
	t.Parallel()

	track := outfit("track-1", "Track One")
	track.Type = &rawTypeInfo{Value: "sparks_song", DisplayValue: "MUSIC Pack"}
	track.Audio = "https://audio/track-1.ogg"

	snapshot, err := newShopNormalizer().NormalizeShop(shopWith(entryOf("offer-track", 500, track)), "2024-03-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	section := snapshot.Section("Jam Tracks")
	if section == nil || len(section.Items) != 1 {
		t.Fatalf("expected track in Jam Tracks, got %+v", snapshot.Sections)
	}
	item := section.Items[0]
	if !item.IsMusicTrack {
		t.Errorf("expected IsMusicTrack to be set")
	}
	if item.PreviewAudio != "https://audio/track-1.ogg" {
		t.Errorf("expected preview audio to carry over, got %q", item.PreviewAudio)
	}
}

func TestNormalizeShop_festivalTagWinsOverMusicType(t *testing.T) {
	t.Parallel()

	guitar := outfit("guitar-1", "Cloudburst Guitar")
	guitar.Type = &rawTypeInfo{Value: "music_instrument", DisplayValue: "Guitar"}
	guitar.GameplayTags = []string{"Cosmetics.Source.Festival.Season2"}

	snapshot, err := newShopNormalizer().NormalizeShop(shopWith(entryOf("offer-guitar", 900, guitar)), "2024-03-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	section := snapshot.Section("Festival Gear")
	if section == nil || len(section.Items) != 1 {
		t.Fatalf("expected guitar in Festival Gear, got %+v", snapshot.Sections)
	}
	if !section.Items[0].IsMusicTrack {
		t.Errorf("music flag should be independent of the chosen category")
	}
}

func TestNormalizeShop_bundleWinsOverEverything(t *testing.T) {
	t.Parallel()

	track := outfit("track-1", "Track One")
	track.Type = &rawTypeInfo{Value: "music", DisplayValue: "Music"}
	track.GameplayTags = []string{"rhythm.instrument"}

	snapshot, err := newShopNormalizer().NormalizeShop(shopWith(bundleOf("offer-b", 1500, track)), "2024-03-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if section := snapshot.Section("Bundle"); section == nil || len(section.Items) != 1 {
		t.Fatalf("expected bundle classification, got %+v", snapshot.Sections)
	}
}

func TestNormalizeShop_sectionOrderingIsStable(t *testing.T) {
	t.Parallel()

	glider := outfit("glider-1", "Glider One")
	glider.Type = &rawTypeInfo{Value: "glider", DisplayValue: "Glider"}
	wrap := outfit("wrap-1", "Wrap One")
	wrap.Type = &rawTypeInfo{Value: "wrap", DisplayValue: "Wrap"}
	track := outfit("track-1", "Track One")
	track.Type = &rawTypeInfo{Value: "music", DisplayValue: "Music"}

	forward := shopWith(
		entryOf("offer-glider", 800, glider),
		entryOf("offer-wrap", 500, wrap),
		entryOf("offer-track", 500, track),
		bundleOf("offer-bundle", 2000, outfit("item-a", "Item A")),
	)

	snapshot, err := newShopNormalizer().NormalizeShop(forward, "2024-03-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var names []string
	for _, s := range snapshot.Sections {
		names = append(names, s.Name)
	}
	want := []string{"Bundle", "Jam Tracks", "Glider", "Wrap"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("section order = %v, want %v", names, want)
	}

	// Unlisted categories keep first-seen order, so flipping the unlisted
	// entries flips only their relative slot.
	reversed := shopWith(
		bundleOf("offer-bundle", 2000, outfit("item-a", "Item A")),
		entryOf("offer-track", 500, track),
		entryOf("offer-wrap", 500, wrap),
		entryOf("offer-glider", 800, glider),
	)
	snapshot, err = newShopNormalizer().NormalizeShop(reversed, "2024-03-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	names = names[:0]
	for _, s := range snapshot.Sections {
		names = append(names, s.Name)
	}
	want = []string{"Bundle", "Jam Tracks", "Wrap", "Glider"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("section order = %v, want %v", names, want)
	}
}

func TestNormalizeShop_isIdempotent(t *testing.T) {
	t.Parallel()

	data := shopWith(
		bundleOf("offer-bundle", 2000, outfit("item-a", "Item A"), outfit("item-b", "Item B")),
		entryOf("offer-c", 1200, outfit("item-c", "Item C")),
	)

	n := newShopNormalizer()
	first, err := n.NormalizeShop(data, "2024-03-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := n.NormalizeShop(data, "2024-03-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("normalizing the same payload twice differs:\n%+v\n%+v", first, second)
	}
}

func TestNormalizeShop_entryWithoutItemsFails(t *testing.T) {
	t.Parallel()

	data := shopWith(rawEntry{OfferID: "offer-empty", FinalPrice: 100})

	_, err := newShopNormalizer().NormalizeShop(data, "2024-03-01")
	if !errors.Is(err, domain.ErrInvalidShopData) {
		t.Fatalf("got error %v, want ErrInvalidShopData", err)
	}
}

func TestNormalizeShop_nilDataFails(t *testing.T) {
	t.Parallel()

	_, err := newShopNormalizer().NormalizeShop(nil, "2024-03-01")
	if !errors.Is(err, domain.ErrInvalidShopData) {
		t.Fatalf("got error %v, want ErrInvalidShopData", err)
	}
}

func TestNormalizeShop_defaultsMissingNestedFields(t *testing.T) {
	t.Parallel()

	bare := rawItem{ID: "bare-1", Name: "Bare"}
	snapshot, err := newShopNormalizer().NormalizeShop(shopWith(entryOf("offer-bare", 300, bare)), "2024-03-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	section := snapshot.Section("Other")
	if section == nil || len(section.Items) != 1 {
		t.Fatalf("expected item without type label in Other, got %+v", snapshot.Sections)
	}

	item := section.Items[0]
	if item.Rarity != "" || item.Set != "" || item.Series != "" || item.Image != "" {
		t.Errorf("expected empty defaults for missing nested fields, got %+v", item)
	}
	if item.History.LastSeen != "2024-03-01" {
		t.Errorf("last seen = %q, want snapshot date", item.History.LastSeen)
	}
}

func TestNormalizeShop_featuredImageFallsBackToIcon(t *testing.T) {
	t.Parallel()

	plain := outfit("item-a", "Item A")
	fancy := outfit("item-b", "Item B")
	fancy.Images.Featured = "https://img/item-b/featured.png"

	snapshot, err := newShopNormalizer().NormalizeShop(shopWith(
		entryOf("offer-a", 800, plain),
		entryOf("offer-b", 800, fancy),
	), "2024-03-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	items := snapshot.Section("Outfit").Items
	if items[0].FeaturedImage != items[0].Image {
		t.Errorf("expected featured image fallback to icon, got %q", items[0].FeaturedImage)
	}
	if items[1].FeaturedImage != "https://img/item-b/featured.png" {
		t.Errorf("expected real featured image, got %q", items[1].FeaturedImage)
	}
}

func TestNormalizeSearchResults_shapesAndCaps(t *testing.T) {
	t.Parallel()

	items := make([]rawItem, 0, 40)
	for i := 0; i < 40; i++ {
		item := outfit("item", "Item")
		items = append(items, item)
	}
	items[0].ShopHistory = []string{"2024-01-10", "2024-02-20"}

	results := newShopNormalizer().NormalizeSearchResults(items, 25)
	if len(results) != 25 {
		t.Fatalf("got %d results, want 25", len(results))
	}

	first := results[0]
	if !first.FromSearch {
		t.Errorf("expected FromSearch flag")
	}
	if first.Price != 0 {
		t.Errorf("search results must not carry a price, got %d", first.Price)
	}
	if first.History.LastSeen != "2024-02-20" {
		t.Errorf("last seen = %q, want latest shop-history date", first.History.LastSeen)
	}
	if results[1].History.LastSeen != results[1].Added {
		t.Errorf("last seen should default to first-seen date, got %q", results[1].History.LastSeen)
	}
}
