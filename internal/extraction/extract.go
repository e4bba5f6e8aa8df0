// Package extraction turns noisy receipt OCR text into structured, categorized
// line items. It is pure computation: no I/O, no retained state, deterministic
// for a given input.
package extraction

import "strings"

// maxItems caps how many items a single receipt contributes. Valid lines
// beyond the cap are silently dropped in source order.
const maxItems = 10

// ExtractItems splits raw receipt text into lines, parses each candidate line
// and attaches a category. It never fails: text without recognizable items
// yields an empty slice.
func ExtractItems(rawText string) []Item {
	items := make([]Item, 0, maxItems)
	for _, line := range strings.Split(rawText, "\n") {
		if len(items) == maxItems {
			break
		}
		name, price, quantity, ok := parseLine(line)
		if !ok {
			continue
		}
		items = append(items, Item{
			Name:     name,
			Price:    price,
			Quantity: quantity,
			Category: Categorize(name),
		})
	}
	return items
}
