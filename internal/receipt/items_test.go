package receipt

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/receipt-items/internal/document"
)

func priceOf(item LineItem) string {
	if !item.Price.Valid {
		return ""
	}
	return item.Price.Decimal.StringFixed(2)
}

var _ = Describe("Reconstruct", func() {
	var (
		heuristics Heuristics
		table      *document.Grid
		items      []LineItem
		stats      Stats
	)

	BeforeEach(func() {
		heuristics = DefaultHeuristics()
	})

	JustBeforeEach(func() {
		items, stats = heuristics.Reconstruct(table)
	})

	When("rows carry a flat price", func() {
		BeforeEach(func() {
			table = grid(
				[2]string{"Bread ", "1,99 "},
				[2]string{"Cheese ", "3.50 "},
			)
		})

		It("should return one item per row in order", func() {
			Expect(itemNames(items)).To(Equal([]string{"Bread", "Cheese"}))
			Expect(priceOf(items[0])).To(Equal("1.99"))
			Expect(priceOf(items[1])).To(Equal("3.50"))
			Expect(items[0].Unit).To(BeEmpty())
			Expect(stats.Rows).To(Equal(2))
		})
	})

	When("the name cell holds a per-unit price", func() {
		BeforeEach(func() {
			table = grid(
				[2]string{"Bananas 1.2 x 1.10 EUR/kg ", "1,32 "},
				[2]string{"Tomatoes 0,5 x 4,00 €/kg ", "2,00 "},
			)
		})

		It("should take the unit price and unit from the marker", func() {
			Expect(items).To(HaveLen(2))
			Expect(items[0].Name).To(Equal("Bananas"))
			Expect(priceOf(items[0])).To(Equal("1.10"))
			Expect(items[0].Unit).To(Equal("kg"))
			Expect(items[1].Name).To(Equal("Tomatoes"))
			Expect(priceOf(items[1])).To(Equal("4.00"))
			Expect(items[1].Unit).To(Equal("kg"))
		})
	})

	When("a row continues the previous one", func() {
		BeforeEach(func() {
			table = grid(
				[2]string{"Milk ", "2.50 "},
				[2]string{"2 x 1.25 EUR/kg ", ""},
			)
		})

		It("should correct the previous item instead of adding one", func() {
			Expect(items).To(HaveLen(1))
			Expect(items[0].Name).To(Equal("Milk"))
			Expect(priceOf(items[0])).To(Equal("1.25"))
			Expect(items[0].Unit).To(Equal("kg"))
			Expect(stats.Corrected).To(Equal(1))
		})
	})

	When("a continuation row has an unreadable price", func() {
		BeforeEach(func() {
			table = grid(
				[2]string{"Bread ", "1,99 "},
				[2]string{"Milk ", "2.50 "},
				[2]string{"2 x 1,2,5 EUR/kg ", ""},
			)
		})

		It("should discard the previous item", func() {
			Expect(itemNames(items)).To(Equal([]string{"Bread"}))
			Expect(stats.Discarded).To(Equal(1))
		})
	})

	When("a continuation row has no previous item", func() {
		BeforeEach(func() {
			table = grid(
				[2]string{"2 x 1.25 EUR/kg ", ""},
				[2]string{"Bread ", "1,99 "},
			)
		})

		It("should skip the row", func() {
			Expect(itemNames(items)).To(Equal([]string{"Bread"}))
			Expect(stats.Unparsable).To(Equal(1))
			Expect(stats.Corrected).To(BeZero())
		})
	})

	When("rows match the ignore list", func() {
		BeforeEach(func() {
			table = grid(
				[2]string{"YHTEENSÄ ", "10,00 "},
				[2]string{"Alennus ", "1,00 "},
				[2]string{"", "4,00 "},
				[2]string{"Bread ", "1,99 "},
			)
		})

		It("should skip them regardless of case", func() {
			Expect(itemNames(items)).To(Equal([]string{"Bread"}))
			Expect(stats.Ignored).To(Equal(3))
		})
	})

	When("a price cannot be parsed", func() {
		BeforeEach(func() {
			table = grid(
				[2]string{"Eggs ", "1,2,3 "},
				[2]string{"Refund ", "-1,00 "},
				[2]string{"Butter ", ""},
				[2]string{"Bread ", "1,99 "},
			)
		})

		It("should drop the row and keep going", func() {
			Expect(itemNames(items)).To(Equal([]string{"Bread"}))
			Expect(stats.Unparsable).To(Equal(3))
		})
	})

	When("the unit marker starts the name cell", func() {
		BeforeEach(func() {
			table = grid([2]string{"EUR/kg 1.10 ", "1,10 "})
		})

		It("should skip the row", func() {
			Expect(items).To(BeEmpty())
			Expect(stats.Unparsable).To(Equal(1))
		})
	})

	When("a per-unit row has no product name", func() {
		BeforeEach(func() {
			table = grid([2]string{"Loose 1.10 EUR/kg ", "1,10 "})
		})

		It("should skip the row", func() {
			Expect(items).To(BeEmpty())
			Expect(stats.Unparsable).To(Equal(1))
		})
	})

	When("a per-unit row has no unit marker", func() {
		BeforeEach(func() {
			table = grid([2]string{"Coffee 2 x 4,50 €", "9,00 "})
		})

		It("should skip the row", func() {
			Expect(items).To(BeEmpty())
			Expect(stats.Unparsable).To(Equal(1))
		})
	})

	Describe("row order", func() {
		BeforeEach(func() {
			table = document.NewGrid()
			for _, row := range []int{3, 1, 2} {
				table.Set(row, nameColumn, []string{"", "First", "Second", "Third"}[row])
				table.Set(row, priceColumn, "1,00")
			}
		})

		It("should follow the table by default", func() {
			Expect(itemNames(items)).To(Equal([]string{"Third", "First", "Second"}))
		})

		When("rows are sorted", func() {
			BeforeEach(func() {
				heuristics.SortRows = true
			})

			It("should follow the row index", func() {
				Expect(itemNames(items)).To(Equal([]string{"First", "Second", "Third"}))
			})
		})
	})
})

var _ = Describe("isQuantity", func() {
	DescribeTable("recognizing quantity tokens",
		func(token string, expected bool) {
			Expect(isQuantity(token)).To(Equal(expected))
		},
		Entry("integer", "2", true),
		Entry("one period", "1.5", true),
		Entry("two periods", "1.2.3", false),
		Entry("comma", "0,5", false),
		Entry("word", "Milk", false),
		Entry("bare period", ".", false),
	)
})
