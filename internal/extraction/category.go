package extraction

import "strings"

// categoryKeywords is checked in a fixed order; the first category with a
// keyword match wins.
var categoryKeywords = []struct {
	category Category
	keywords []string
}{
	{CategoryFruits, []string{"banana", "apple", "orange", "grape", "berry", "mango", "pineapple", "lemon", "lime"}},
	{CategoryVegetables, []string{"spinach", "lettuce", "tomato", "onion", "carrot", "broccoli", "cucumber", "pepper"}},
	{CategoryDairy, []string{"milk", "cheese", "yogurt", "butter", "cream", "dairy"}},
	{CategoryMeat, []string{"chicken", "beef", "pork", "fish", "turkey", "lamb", "meat"}},
	{CategoryBakery, []string{"bread", "bagel", "muffin", "cake", "cookie", "pastry"}},
	{CategoryBeverages, []string{"juice", "soda", "water", "coffee", "tea", "drink"}},
	{CategoryNuts, []string{"almond", "walnut", "peanut", "cashew", "nut"}},
	{CategorySnacks, []string{"chips", "crackers", "popcorn", "snack"}},
}

// Categorize maps an item name to its food-group category. Matching is plain
// substring containment on the lowercased name, so short keywords can fire
// inside longer words ("grape" in "grapefruit", "nut" in "nutmeg"). That is
// acceptable for coarse grouping and keeps the table cheap to extend.
func Categorize(name string) Category {
	lower := strings.ToLower(name)
	for _, entry := range categoryKeywords {
		for _, keyword := range entry.keywords {
			if strings.Contains(lower, keyword) {
				return entry.category
			}
		}
	}
	return CategoryGeneral
}
