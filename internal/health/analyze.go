// Package health derives a rule-based health assessment from extracted
// receipt items: warnings, suggestions and a bounded numeric score. Like the
// extraction pipeline it is pure and stateless, so concurrent calls need no
// locking.
package health

import (
	"fmt"
	"strings"

	"github.com/aurahealth/aura-backend/internal/extraction"
)

// Scoring constants: each warning deducts points, each highlighted suggestion
// earns some back, and the result is clamped to [0,100].
const (
	baseScore           = 100
	warningDeduction    = 8
	suggestionBonus     = 5
	lowScoreThreshold   = 60
	greatScoreThreshold = 80
)

// Analysis is the aggregate health assessment for one receipt.
type Analysis struct {
	Score       int      `json:"health_score"`
	Warnings    []string `json:"warnings"`
	Suggestions []string `json:"suggestions"`
}

// Analyze evaluates the rule tables over the item list and aggregates the
// result into an Analysis. It is a pure function of the items and the static
// tables: calling it twice on the same input yields identical output, and an
// empty item list degrades to a perfect score rather than an error.
func Analyze(items []extraction.Item) Analysis {
	warnings, suggestions := evaluateRules(items)

	present := make(map[extraction.Category]bool, len(items))
	for _, item := range items {
		present[item.Category] = true
	}

	// Category-coverage nudges. Fruits/vegetables take precedence order:
	// both, fruits only, vegetables only, neither.
	switch {
	case present[extraction.CategoryFruits] && present[extraction.CategoryVegetables]:
		suggestions = append(suggestions, "🥗 Excellent! You're getting both fruits and vegetables")
	case present[extraction.CategoryFruits]:
		suggestions = append(suggestions, "🍎 Great fruit selection! Consider adding some vegetables too")
	case present[extraction.CategoryVegetables]:
		suggestions = append(suggestions, "🥕 Great vegetable selection! Consider adding some fruits too")
	default:
		suggestions = append(suggestions, "🥬 Consider adding more fruits and vegetables to your diet")
	}
	if present[extraction.CategoryDairy] {
		suggestions = append(suggestions, "🥛 Good dairy choices! Consider low-fat or plant-based alternatives if needed")
	}
	if present[extraction.CategoryNuts] {
		suggestions = append(suggestions, "🥜 Nuts are great for healthy fats! Just watch portion sizes")
	}

	// The score is computed after the coverage suggestions are appended, so a
	// coverage suggestion containing "Excellent" counts toward the bonus.
	score := scoreFor(warnings, suggestions)

	if score < lowScoreThreshold {
		suggestions = append(suggestions, "💡 Consider focusing on whole foods, fruits, and vegetables for better health")
	} else if score >= greatScoreThreshold {
		suggestions = append(suggestions, "🌟 Excellent food choices! You're making great health decisions")
	}

	return Analysis{Score: score, Warnings: warnings, Suggestions: suggestions}
}

// evaluateRules runs the fixed rule tables over each item in order, appending
// warnings and suggestions as rules fire. Output order follows item order,
// then table order within an item, so results are reproducible.
func evaluateRules(items []extraction.Item) (warnings, suggestions []string) {
	warnings = []string{}
	suggestions = []string{}

	for _, item := range items {
		name := strings.ToLower(item.Name)

		for _, rule := range allergenRules {
			if containsAny(name, rule.keywords) {
				warnings = append(warnings, fmt.Sprintf("⚠️ %s contains %s - check if you have %s allergies", item.Name, rule.allergen, rule.allergen))
			}
		}

		for _, rule := range interactionRules {
			if strings.Contains(name, rule.food) {
				warnings = append(warnings, fmt.Sprintf("💊 %s %s", item.Name, rule.interaction))
			}
		}

		if item.Category == extraction.CategoryMeat && containsAny(name, processedMeatKeywords) {
			warnings = append(warnings, fmt.Sprintf("🥓 %s is processed meat - consider lean, unprocessed alternatives", item.Name))
		}

		if containsAny(name, highSugarKeywords) {
			warnings = append(warnings, fmt.Sprintf("🍭 %s is high in sugar - consider healthier alternatives", item.Name))
		}

		if containsAny(name, highSodiumKeywords) {
			warnings = append(warnings, fmt.Sprintf("🧂 %s is high in sodium - consider low-sodium alternatives", item.Name))
		}

		if containsAny(name, positiveKeywords) {
			suggestions = append(suggestions, fmt.Sprintf("✅ Great choice: %s is a healthy option", item.Name))
		}
	}

	return warnings, suggestions
}

// scoreFor applies the scoring law: base minus a deduction per warning plus a
// bonus per highlighted suggestion, clamped to [0,100].
func scoreFor(warnings, suggestions []string) int {
	bonus := 0
	for _, s := range suggestions {
		if strings.Contains(s, "Great choice") || strings.Contains(s, "Excellent") {
			bonus++
		}
	}

	score := baseScore - warningDeduction*len(warnings) + suggestionBonus*bonus
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

func containsAny(name string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(name, keyword) {
			return true
		}
	}
	return false
}
