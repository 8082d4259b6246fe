package client

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Raw upstream payload shapes. The schema is not contractually stable, so
// every nested field is optional and read through nil-safe accessors.

type shopResponse struct {
	Data *rawShopData `json:"data"`
}

type rawShopData struct {
	Featured        *rawGroup `json:"featured"`
	Daily           *rawGroup `json:"daily"`
	SpecialFeatured *rawGroup `json:"specialFeatured"`
}

// groups returns the present entry groups in upstream order.
func (d *rawShopData) groups() []*rawGroup {
	groups := make([]*rawGroup, 0, 3)
	for _, g := range []*rawGroup{d.Featured, d.Daily, d.SpecialFeatured} {
		if g != nil {
			groups = append(groups, g)
		}
	}
	return groups
}

type rawGroup struct {
	Entries []rawEntry `json:"entries"`
}

type rawEntry struct {
	OfferID    string     `json:"offerId"`
	FinalPrice int        `json:"finalPrice"`
	Bundle     *rawBundle `json:"bundle"`
	Items      []rawItem  `json:"items"`
}

func (e *rawEntry) isBundle() bool {
	return e.Bundle != nil
}

// representativeItem returns the first item of the entry, the one used for
// classification. Entries always carry at least one item upstream; a bare
// entry is an input-validation failure, not something to index past.
func (e *rawEntry) representativeItem() (*rawItem, error) {
	if len(e.Items) == 0 {
		return nil, fmt.Errorf("entry %q has no items", e.OfferID)
	}
	return &e.Items[0], nil
}

type rawBundle struct {
	Name  string `json:"name"`
	Info  string `json:"info"`
	Image string `json:"image"`
}

type rawItem struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	Type         *rawTypeInfo `json:"type"`
	Rarity       *rawTypeInfo `json:"rarity"`
	Series       *rawTypeInfo `json:"series"`
	Set          *rawTypeInfo `json:"set"`
	Images       *rawImages   `json:"images"`
	Added        string       `json:"added"`
	ShopHistory  []string     `json:"shopHistory"`
	GameplayTags []string     `json:"gameplayTags"`
	Audio        string       `json:"audio"`
}

type rawTypeInfo struct {
	Value        string `json:"value"`
	DisplayValue string `json:"displayValue"`
}

type rawImages struct {
	Icon     string `json:"icon"`
	Featured string `json:"featured"`
}

func (i *rawItem) typeValue() string {
	if i.Type == nil {
		return ""
	}
	return i.Type.Value
}

func (i *rawItem) typeLabel() string {
	if i.Type == nil {
		return ""
	}
	return i.Type.DisplayValue
}

func (i *rawItem) rarityValue() string {
	if i.Rarity == nil {
		return ""
	}
	return i.Rarity.Value
}

func (i *rawItem) seriesValue() string {
	if i.Series == nil {
		return ""
	}
	return i.Series.Value
}

func (i *rawItem) setValue() string {
	if i.Set == nil {
		return ""
	}
	return i.Set.Value
}

func (i *rawItem) icon() string {
	if i.Images == nil {
		return ""
	}
	return i.Images.Icon
}

// featuredImage falls back to the plain icon when no featured render exists.
func (i *rawItem) featuredImage() string {
	if i.Images != nil && i.Images.Featured != "" {
		return i.Images.Featured
	}
	return i.icon()
}

// lastShopAppearance is the most recent shop-history date, defaulting to the
// item's first-seen date.
func (i *rawItem) lastShopAppearance() string {
	if len(i.ShopHistory) > 0 {
		return i.ShopHistory[len(i.ShopHistory)-1]
	}
	return i.Added
}

type searchResponse struct {
	Data rawItemList `json:"data"`
}

// rawItemList decodes the search endpoint's response body, which is a single
// object for one match and an array for several.
type rawItemList []rawItem

func (l *rawItemList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*l = nil
		return nil
	}

	if trimmed[0] == '[' {
		var items []rawItem
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}
		*l = items
		return nil
	}

	var item rawItem
	if err := json.Unmarshal(trimmed, &item); err != nil {
		return err
	}
	*l = rawItemList{item}
	return nil
}
