package extraction

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Categorize", func() {
	DescribeTable("keyword matching",
		func(name string, expected Category) {
			Expect(Categorize(name)).To(Equal(expected))
		},
		Entry("banana is a fruit", "Banana", CategoryFruits),
		Entry("spinach is a vegetable", "Baby Spinach", CategoryVegetables),
		Entry("milk is dairy", "Whole Milk", CategoryDairy),
		Entry("chicken is meat", "Chicken Breast", CategoryMeat),
		Entry("bread is bakery", "Sourdough Bread", CategoryBakery),
		Entry("coffee is a beverage", "Ground Coffee", CategoryBeverages),
		Entry("walnuts are nuts", "Walnut Halves", CategoryNuts),
		Entry("chips are a snack", "Tortilla Chips", CategorySnacks),
		Entry("unknown names fall back to general", "Paper Towels", CategoryGeneral),
	)

	When("multiple categories could match", func() {
		It("uses the first category in table order", func() {
			// "milk" (dairy) is checked before "almond" (nuts).
			Expect(Categorize("Almond Milk")).To(Equal(CategoryDairy))
		})

		It("matches fruits before beverages", func() {
			// "grape" fires before "juice" does.
			Expect(Categorize("Grapefruit Juice")).To(Equal(CategoryFruits))
		})
	})

	When("a keyword is a substring of a longer word", func() {
		It("still matches (known heuristic limitation)", func() {
			// "nut" is a literal substring of "nutmeg".
			Expect(Categorize("Ground Nutmeg")).To(Equal(CategoryNuts))
		})
	})

	It("is case-insensitive", func() {
		Expect(Categorize("BANANA BUNCH")).To(Equal(CategoryFruits))
	})
})

var _ = Describe("ParseCategory", func() {
	It("accepts known labels", func() {
		Expect(ParseCategory("fruits")).To(Equal(CategoryFruits))
		Expect(ParseCategory(" Dairy ")).To(Equal(CategoryDairy))
	})

	It("falls back to general for unknown labels", func() {
		Expect(ParseCategory("produce")).To(Equal(CategoryGeneral))
		Expect(ParseCategory("")).To(Equal(CategoryGeneral))
	})
})
