package client

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lwatty24/fortniteshop.site/internal/domain"

	log "github.com/sirupsen/logrus"
)

const (
	categoryBundle       = "Bundle"
	categoryFestivalGear = "Festival Gear"
	categoryJamTracks    = "Jam Tracks"
	categoryOther        = "Other"
)

// sectionPriority fixes the order of the leading sections; categories not
// listed here keep their first-seen order after the listed ones.
var sectionPriority = []string{"Featured", "Daily", "Special", categoryBundle, categoryFestivalGear, categoryJamTracks}

// shopNormalizer reshapes the raw upstream shop payload into the internal
// snapshot model. Pure: the same payload and date always produce the same
// snapshot.
type shopNormalizer struct{}

func newShopNormalizer() *shopNormalizer {
	return &shopNormalizer{}
}

// NormalizeShop builds a ShopSnapshot for the given calendar date out of the
// raw payload. Standalone entries duplicating a bundle's contents are
// suppressed; the bundle listing itself is always kept.
func (n *shopNormalizer) NormalizeShop(data *rawShopData, date string) (*domain.ShopSnapshot, error) {
	if data == nil {
		return nil, fmt.Errorf("missing shop data container: %w", domain.ErrInvalidShopData)
	}

	groups := data.groups()

	// First pass: record every bundle member id so standalone duplicates of
	// bundle contents can be dropped.
	suppressed := make(map[string]struct{})
	for _, group := range groups {
		for _, entry := range group.Entries {
			if !entry.isBundle() {
				continue
			}
			for _, item := range entry.Items {
				suppressed[item.ID] = struct{}{}
			}
		}
	}

	var sections []domain.ShopSection
	sectionIndex := make(map[string]int)

	appendItem := func(category string, item domain.CatalogItem) {
		if idx, ok := sectionIndex[category]; ok {
			sections[idx].Items = append(sections[idx].Items, item)
			return
		}
		sectionIndex[category] = len(sections)
		sections = append(sections, domain.ShopSection{Name: category, Items: []domain.CatalogItem{item}})
	}

	for _, group := range groups {
		for i := range group.Entries {
			entry := &group.Entries[i]

			rep, err := entry.representativeItem()
			if err != nil {
				return nil, fmt.Errorf("%w: %v", domain.ErrInvalidShopData, err)
			}

			if !entry.isBundle() {
				if _, dup := suppressed[rep.ID]; dup {
					log.Debugf("Suppressing standalone listing %s (%s), already sold in a bundle", rep.ID, rep.Name)
					continue
				}
			}

			isMusic := isMusicType(rep)
			category := classify(entry, rep, isMusic)

			item := domain.CatalogItem{
				ID:            entry.OfferID,
				Name:          rep.Name,
				Description:   rep.Description,
				Rarity:        rep.rarityValue(),
				Price:         entry.FinalPrice,
				Type:          rep.typeValue(),
				Image:         rep.icon(),
				FeaturedImage: rep.featuredImage(),
				Set:           rep.setValue(),
				Series:        rep.seriesValue(),
				Added:         rep.Added,
				IsBundle:      entry.isBundle(),
				IsMusicTrack:  isMusic,
				PreviewAudio:  rep.Audio,
				History: domain.ItemHistory{
					FirstSeen:   rep.Added,
					LastSeen:    date,
					Occurrences: len(rep.ShopHistory),
				},
			}

			if entry.isBundle() {
				item.BundleItems = make([]domain.BundleMember, 0, len(entry.Items))
				for _, member := range entry.Items {
					item.BundleItems = append(item.BundleItems, domain.BundleMember{
						ID:     member.ID,
						Name:   member.Name,
						Type:   member.typeValue(),
						Rarity: member.rarityValue(),
						Image:  member.icon(),
					})
				}
			}

			appendItem(category, item)
		}
	}

	// Downstream assumes the Jam Tracks tab always exists.
	if _, ok := sectionIndex[categoryJamTracks]; !ok {
		sections = append(sections, domain.ShopSection{Name: categoryJamTracks, Items: []domain.CatalogItem{}})
	}

	sortSections(sections)

	return &domain.ShopSnapshot{Date: date, Sections: sections}, nil
}

// NormalizeSearchResults maps raw search matches into the catalog item shape.
// Search results are not shop offers, so they carry no price.
func (n *shopNormalizer) NormalizeSearchResults(items []rawItem, limit int) []domain.CatalogItem {
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	results := make([]domain.CatalogItem, 0, len(items))
	for i := range items {
		item := &items[i]
		results = append(results, domain.CatalogItem{
			ID:            item.ID,
			Name:          item.Name,
			Description:   item.Description,
			Rarity:        item.rarityValue(),
			Type:          item.typeValue(),
			Image:         item.icon(),
			FeaturedImage: item.featuredImage(),
			Added:         item.Added,
			IsMusicTrack:  isMusicType(item),
			FromSearch:    true,
			History: domain.ItemHistory{
				FirstSeen:   item.Added,
				LastSeen:    item.lastShopAppearance(),
				Occurrences: len(item.ShopHistory),
			},
		})
	}
	return results
}

// classify picks exactly one category for an entry. Precedence: bundles,
// festival instruments, music tracks, then the item's own display label.
func classify(entry *rawEntry, rep *rawItem, isMusic bool) string {
	switch {
	case entry.isBundle():
		return categoryBundle
	case isFestivalGear(rep):
		return categoryFestivalGear
	case isMusic:
		return categoryJamTracks
	}
	if label := rep.typeLabel(); label != "" {
		return label
	}
	return categoryOther
}

func isFestivalGear(item *rawItem) bool {
	for _, tag := range item.GameplayTags {
		lower := strings.ToLower(tag)
		if strings.Contains(lower, "festival") || strings.Contains(lower, "rhythm") {
			return true
		}
	}
	return false
}

func isMusicType(item *rawItem) bool {
	return strings.Contains(strings.ToLower(item.typeValue()), "music") ||
		strings.Contains(strings.ToLower(item.typeLabel()), "music")
}

// sortSections reorders sections by the fixed priority list; unlisted
// categories keep their relative order after the listed ones.
func sortSections(sections []domain.ShopSection) {
	rank := make(map[string]int, len(sectionPriority))
	for i, name := range sectionPriority {
		rank[name] = i
	}

	sort.SliceStable(sections, func(i, j int) bool {
		ri, ok := rank[sections[i].Name]
		if !ok {
			ri = len(sectionPriority)
		}
		rj, ok := rank[sections[j].Name]
		if !ok {
			rj = len(sectionPriority)
		}
		return ri < rj
	})
}
