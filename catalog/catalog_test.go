package catalog_test

import (
	"github.com/marketsim/auction/auctiontypes"
	. "github.com/marketsim/auction/catalog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Catalog", func() {
	var c *Catalog

	BeforeEach(func() {
		c = New()
	})

	It("should start off empty", func() {
		Ω(c.IsEmpty()).Should(BeTrue())
		Ω(c.FirstItem()).Should(BeEmpty())
		Ω(c.InitialPrice("vase")).Should(BeZero())
	})

	Describe("Put", func() {
		BeforeEach(func() {
			Ω(c.Put("vase", 100)).Should(Succeed())
			Ω(c.Put("lamp", 50)).Should(Succeed())
		})

		It("should keep items in insertion order", func() {
			Ω(c.FirstItem()).Should(Equal("vase"))
			Ω(c.Items()).Should(Equal([]auctiontypes.Item{
				{Name: "vase", InitialPrice: 100},
				{Name: "lamp", InitialPrice: 50},
			}))
		})

		It("should update the price of an existing item in place", func() {
			Ω(c.Put("vase", 120)).Should(Succeed())
			Ω(c.Len()).Should(Equal(2))
			Ω(c.FirstItem()).Should(Equal("vase"))
			Ω(c.InitialPrice("vase")).Should(Equal(120))
		})

		It("should reject invalid items", func() {
			Ω(c.Put("", 10)).Should(MatchError(auctiontypes.ErrInvalidItem))
			Ω(c.Put("a,b", 10)).Should(MatchError(auctiontypes.ErrInvalidItem))
			Ω(c.Put("rug", -5)).Should(MatchError(auctiontypes.ErrInvalidItem))
			Ω(c.Len()).Should(Equal(2))
		})
	})

	Describe("Remove", func() {
		BeforeEach(func() {
			c.Put("vase", 100)
			c.Put("lamp", 50)
		})

		It("should return the price and advance the first item", func() {
			price, ok := c.Remove("vase")
			Ω(ok).Should(BeTrue())
			Ω(price).Should(Equal(100))
			Ω(c.FirstItem()).Should(Equal("lamp"))
		})

		It("should only remove an item once", func() {
			c.Remove("vase")
			_, ok := c.Remove("vase")
			Ω(ok).Should(BeFalse())
		})
	})
})
