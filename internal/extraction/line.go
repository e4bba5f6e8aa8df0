package extraction

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

var (
	// priceRe matches a price token: optional dollar sign, digits, a dot and
	// exactly two decimal places.
	priceRe = regexp.MustCompile(`\$?(\d+\.\d{2})`)
	// qtyRe matches a leading bare integer, optionally followed by "x".
	qtyRe    = regexp.MustCompile(`^(\d+)\s*x?\s*`)
	spacesRe = regexp.MustCompile(`\s+`)
)

// skipWords flag receipt metadata lines that never describe a purchasable item.
var skipWords = []string{"total", "subtotal", "tax", "discount", "change", "cash", "card"}

// parseLine extracts (name, price, quantity) from one receipt line. ok is
// false when the line is metadata, carries no price token, or the cleaned
// name is too short to be an item. Per-line rejection is a skip decision,
// never an error.
func parseLine(line string) (name string, price decimal.Decimal, quantity int, ok bool) {
	line = strings.TrimSpace(line)
	if line == "" || !strings.ContainsFunc(line, unicode.IsDigit) {
		return "", decimal.Decimal{}, 0, false
	}

	lower := strings.ToLower(line)
	for _, word := range skipWords {
		if strings.Contains(lower, word) {
			return "", decimal.Decimal{}, 0, false
		}
	}

	loc := priceRe.FindStringSubmatchIndex(line)
	if loc == nil {
		return "", decimal.Decimal{}, 0, false
	}
	price, err := decimal.NewFromString(line[loc[2]:loc[3]])
	if err != nil {
		// The pattern guarantees a parseable number.
		return "", decimal.Decimal{}, 0, false
	}

	// The name is everything before the price token, minus a leading
	// quantity prefix, with whitespace runs collapsed.
	name = line[:loc[0]]
	name = qtyRe.ReplaceAllString(name, "")
	name = strings.TrimSpace(spacesRe.ReplaceAllString(name, " "))
	if len(name) < 2 {
		return "", decimal.Decimal{}, 0, false
	}

	quantity = 1
	if m := qtyRe.FindStringSubmatch(line); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			quantity = n
		}
	}

	return name, price, quantity, true
}
