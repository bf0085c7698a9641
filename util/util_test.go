package util_test

import (
	. "github.com/marketsim/auction/util"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Util", func() {
	Describe("NewGuid", func() {
		BeforeEach(func() {
			ResetGuids()
		})

		It("should count up per prefix", func() {
			Ω(NewGuid("bidder")).Should(Equal("bidder-1"))
			Ω(NewGuid("bidder")).Should(Equal("bidder-2"))
			Ω(NewGuid("auctioneer")).Should(Equal("auctioneer-1"))
		})
	})

	Describe("RandomIntIn", func() {
		It("should stay within the closed range", func() {
			src := NewRandSource(42)
			for i := 0; i < 1000; i++ {
				Ω(RandomIntIn(src, 10, 20)).Should(BeNumerically("~", 15, 5))
			}
		})

		It("should return the lower bound for an empty range", func() {
			Ω(RandomIntIn(NewRandSource(1), 7, 3)).Should(Equal(7))
		})

		It("should be reproducible for the same seed", func() {
			a, b := NewRandSource(7), NewRandSource(7)
			for i := 0; i < 10; i++ {
				Ω(RandomIntIn(a, 0, 1000)).Should(Equal(RandomIntIn(b, 0, 1000)))
			}
		})
	})
})
