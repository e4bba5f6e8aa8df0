package health

// The rule tables below are process-wide static configuration: loaded once,
// never mutated at runtime. All matching is case-insensitive substring
// containment against the item name, and one item may fire several rules.

// allergenRule flags items whose name mentions a common allergen family.
type allergenRule struct {
	allergen string
	keywords []string
}

var allergenRules = []allergenRule{
	{"milk", []string{"milk", "dairy", "cheese", "yogurt", "butter", "cream", "lactose"}},
	{"wheat", []string{"wheat", "bread", "pasta", "flour", "gluten", "cereal"}},
	{"nuts", []string{"nuts", "almond", "walnut", "peanut", "cashew", "pistachio"}},
	{"soy", []string{"soy", "tofu", "soybean", "soy sauce"}},
	{"eggs", []string{"egg", "eggs", "mayonnaise", "custard"}},
	{"fish", []string{"fish", "salmon", "tuna", "cod", "seafood"}},
	{"shellfish", []string{"shrimp", "crab", "lobster", "shellfish"}},
}

// interactionRule flags foods with known drug-interaction concerns. The
// interaction text is illustrative guidance, not clinical knowledge.
type interactionRule struct {
	food        string
	interaction string
}

var interactionRules = []interactionRule{
	{"grapefruit", "may interact with statins, calcium channel blockers, and other medications"},
	{"cranberry", "may interact with warfarin and other blood thinners"},
	{"licorice", "may interact with blood pressure medications"},
	{"green tea", "may interact with blood thinners and stimulants"},
}

var (
	processedMeatKeywords = []string{"sausage", "bacon", "deli", "processed"}
	highSugarKeywords     = []string{"soda", "candy", "chocolate", "cake", "cookie", "sweet"}
	highSodiumKeywords    = []string{"soup", "broth", "sauce", "canned", "pickled", "cured"}
	positiveKeywords      = []string{"organic", "fresh", "whole", "lean", "low-fat", "sugar-free"}
)
