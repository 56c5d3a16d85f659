package catalog

import (
	"slices"
	"strings"

	"harvestly/internal/models"
)

type SortKey string

const (
	SortName      SortKey = "name"
	SortPriceLow  SortKey = "price-low"
	SortPriceHigh SortKey = "price-high"
	SortNewest    SortKey = "newest"
	SortOldest    SortKey = "oldest"
)

func (k SortKey) Valid() bool {
	switch k {
	case SortName, SortPriceLow, SortPriceHigh, SortNewest, SortOldest:
		return true
	}
	return false
}

// SortProducts orders products in place by key. The sort is stable, so
// products with equal keys keep the order the API returned them in. An empty
// or unknown key leaves the slice untouched.
func SortProducts(products []models.Product, key SortKey) {
	var cmp func(a, b models.Product) int
	switch key {
	case SortName:
		cmp = func(a, b models.Product) int {
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		}
	case SortPriceLow:
		cmp = func(a, b models.Product) int { return a.Price.Cmp(b.Price) }
	case SortPriceHigh:
		cmp = func(a, b models.Product) int { return b.Price.Cmp(a.Price) }
	case SortNewest:
		cmp = func(a, b models.Product) int { return b.CreatedAt.Compare(a.CreatedAt) }
	case SortOldest:
		cmp = func(a, b models.Product) int { return a.CreatedAt.Compare(b.CreatedAt) }
	default:
		return
	}
	slices.SortStableFunc(products, cmp)
}
