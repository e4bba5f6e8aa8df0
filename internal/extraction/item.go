package extraction

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Category is a coarse food-group classification for a receipt item.
type Category string

const (
	CategoryFruits     Category = "fruits"
	CategoryVegetables Category = "vegetables"
	CategoryDairy      Category = "dairy"
	CategoryMeat       Category = "meat"
	CategoryBakery     Category = "bakery"
	CategoryBeverages  Category = "beverages"
	CategoryNuts       Category = "nuts"
	CategorySnacks     Category = "snacks"
	CategoryGeneral    Category = "general"
)

// Item is one parsed receipt line item.
type Item struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Category Category        `json:"category"`
}

// ParseCategory maps a free-form category label to the closed Category set.
// Anything unrecognized falls back to CategoryGeneral.
func ParseCategory(s string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	switch c {
	case CategoryFruits, CategoryVegetables, CategoryDairy, CategoryMeat,
		CategoryBakery, CategoryBeverages, CategoryNuts, CategorySnacks, CategoryGeneral:
		return c
	}
	return CategoryGeneral
}
