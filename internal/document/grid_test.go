package document

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Grid", func() {
	var grid *Grid

	BeforeEach(func() {
		grid = NewGrid()
		grid.Set(5, 1, "Bread ")
		grid.Set(2, 1, "Milk ")
		grid.Set(5, 2, "2,49 ")
		grid.Set(9, 2, "0,99 ")
	})

	Describe("Rows", func() {
		It("should return rows in insertion order", func() {
			Expect(grid.Rows()).To(Equal([]int{5, 2, 9}))
		})

		It("should not expose the internal order", func() {
			rows := grid.Rows()
			rows[0] = 100
			Expect(grid.Rows()[0]).To(Equal(5))
		})
	})

	Describe("SortedRows", func() {
		It("should return rows in numeric order", func() {
			Expect(grid.SortedRows()).To(Equal([]int{2, 5, 9}))
		})

		It("should leave the insertion order untouched", func() {
			grid.SortedRows()
			Expect(grid.Rows()).To(Equal([]int{5, 2, 9}))
		})
	})

	Describe("Cell", func() {
		When("the cell exists", func() {
			It("should return its text", func() {
				text, ok := grid.Cell(5, 2)
				Expect(ok).To(BeTrue())
				Expect(text).To(Equal("2,49 "))
			})
		})

		When("the row is sparse", func() {
			It("should report the missing column", func() {
				_, ok := grid.Cell(9, 1)
				Expect(ok).To(BeFalse())
			})
		})

		When("the row does not exist", func() {
			It("should report the missing row", func() {
				_, ok := grid.Cell(1, 1)
				Expect(ok).To(BeFalse())
			})
		})
	})

	Describe("Set", func() {
		It("should overwrite an existing cell without adding a row", func() {
			grid.Set(2, 1, "Oat milk ")
			text, _ := grid.Cell(2, 1)
			Expect(text).To(Equal("Oat milk "))
			Expect(grid.Len()).To(Equal(3))
		})
	})
})
