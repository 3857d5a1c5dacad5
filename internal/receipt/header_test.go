package receipt

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/receipt-items/internal/document"
)

func lines(texts ...string) []*document.Block {
	blocks := make([]*document.Block, 0, len(texts))
	for _, text := range texts {
		blocks = append(blocks, &document.Block{BlockType: document.BlockTypeLine, Text: text})
	}
	return blocks
}

var _ = Describe("ExtractInfo", func() {
	var (
		heuristics Heuristics
		input      []*document.Block
		info       Info
	)

	BeforeEach(func() {
		heuristics = DefaultHeuristics()
	})

	JustBeforeEach(func() {
		info = heuristics.ExtractInfo(input)
	})

	When("the receipt has a store, date and time", func() {
		BeforeEach(func() {
			input = lines(
				"S-market Hervanta, Tampere",
				"Y-tunnus 1234567-8",
				"Bread 1,99",
				"14.3.2024 17:45",
			)
		})

		It("should extract all three", func() {
			Expect(info.Store).To(Equal("S-market Hervanta"))
			Expect(info.Date).To(Equal("14-3-2024"))
			Expect(info.Time).To(Equal("17:45"))
		})
	})

	When("several lines name a store", func() {
		BeforeEach(func() {
			input = lines("K-Citymarket Lielahti", "Prisma Kaleva")
		})

		It("should keep the first", func() {
			Expect(info.Store).To(Equal("K-Citymarket Lielahti"))
		})
	})

	When("several lines hold a date or time", func() {
		BeforeEach(func() {
			input = lines("1-2-2024 10:00", "Prisma", "2-2-2024 11:30")
		})

		It("should keep the last", func() {
			Expect(info.Date).To(Equal("2-2-2024"))
			Expect(info.Time).To(Equal("11:30"))
		})
	})

	When("the store line also carries the date", func() {
		BeforeEach(func() {
			input = lines("Sale Keskusta 5.1.2024")
		})

		It("should read both from the same line", func() {
			Expect(info.Store).To(Equal("Sale Keskusta 5.1.2024"))
			Expect(info.Date).To(Equal("5-1-2024"))
		})
	})

	When("nothing matches", func() {
		BeforeEach(func() {
			input = lines("Thank you", "Welcome back")
		})

		It("should leave the fields empty", func() {
			Expect(info).To(Equal(Info{}))
		})
	})

	When("custom stores are configured", func() {
		BeforeEach(func() {
			heuristics.Stores = []string{"lidl"}
			input = lines("Prisma", "LIDL Tampere, Finland")
		})

		It("should only match those stores", func() {
			Expect(info.Store).To(Equal("LIDL Tampere"))
		})
	})
})
