package extraction

import (
	"fmt"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ExtractItems", func() {
	var (
		rawText string
		items   []Item
	)

	JustBeforeEach(func() {
		items = ExtractItems(rawText)
	})

	When("the text holds an item line and a total line", func() {
		BeforeEach(func() {
			rawText = "2x Almond Milk 4.25\nTOTAL 4.25"
		})

		It("extracts only the item line", func() {
			Expect(items).To(HaveLen(1))
		})

		It("builds the full item", func() {
			Expect(items[0].Name).To(Equal("Almond Milk"))
			Expect(items[0].Price.StringFixed(2)).To(Equal("4.25"))
			Expect(items[0].Quantity).To(Equal(2))
			Expect(items[0].Category).To(Equal(CategoryDairy))
		})
	})

	When("the text holds more valid lines than the cap", func() {
		BeforeEach(func() {
			var lines []string
			for i := 0; i < 15; i++ {
				lines = append(lines, fmt.Sprintf("Pantry Item %c 1.00", 'A'+i))
			}
			rawText = strings.Join(lines, "\n")
		})

		It("never returns more than 10 items", func() {
			Expect(items).To(HaveLen(10))
		})

		It("keeps source-line order", func() {
			Expect(items[0].Name).To(Equal("Pantry Item A"))
			Expect(items[9].Name).To(Equal("Pantry Item J"))
		})
	})

	When("the text is empty", func() {
		BeforeEach(func() {
			rawText = ""
		})

		It("returns an empty slice", func() {
			Expect(items).To(BeEmpty())
		})
	})

	When("the text holds no recognizable items", func() {
		BeforeEach(func() {
			rawText = "SUPERMARKET GROCERY\nThank you for shopping\nCASH 20.00"
		})

		It("returns an empty slice", func() {
			Expect(items).To(BeEmpty())
		})
	})

	When("the text mixes items and metadata", func() {
		BeforeEach(func() {
			rawText = "Grapefruit Juice 3.99\nBanana 1.00\nSUBTOTAL 4.99\nTAX 0.40"
		})

		It("extracts the items in order", func() {
			Expect(items).To(HaveLen(2))
			Expect(items[0].Name).To(Equal("Grapefruit Juice"))
			Expect(items[1].Name).To(Equal("Banana"))
		})

		It("categorizes both as fruits", func() {
			Expect(items[0].Category).To(Equal(CategoryFruits))
			Expect(items[1].Category).To(Equal(CategoryFruits))
		})
	})
})
