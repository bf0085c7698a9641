package mailbox_test

import (
	"github.com/marketsim/auction/auctiontypes"
	. "github.com/marketsim/auction/communication/mailbox"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Mailbox", func() {
	var box *Mailbox

	BeforeEach(func() {
		box = New()
	})

	It("should start off empty", func() {
		_, ok := box.Receive(auctiontypes.MatchAll())
		Ω(ok).Should(BeFalse())
		Ω(box.HasMail()).ShouldNot(Receive())
	})

	It("should signal and hand out deliveries in order", func() {
		box.Deliver(auctiontypes.Message{Content: "1"})
		box.Deliver(auctiontypes.Message{Content: "2"})
		Ω(box.HasMail()).Should(Receive())

		first, ok := box.Receive(auctiontypes.MatchAll())
		Ω(ok).Should(BeTrue())
		Ω(first.Content).Should(Equal("1"))
		Ω(box.Len()).Should(Equal(1))
	})

	It("should leave unmatched messages queued", func() {
		box.Deliver(auctiontypes.Message{Performative: auctiontypes.Inform, Content: "ack"})
		box.Deliver(auctiontypes.Message{Performative: auctiontypes.Propose, Content: "120"})

		msg, ok := box.Receive(auctiontypes.MatchPerformative(auctiontypes.Propose))
		Ω(ok).Should(BeTrue())
		Ω(msg.Content).Should(Equal("120"))

		_, ok = box.Receive(auctiontypes.MatchPerformative(auctiontypes.Propose))
		Ω(ok).Should(BeFalse())
		Ω(box.Len()).Should(Equal(1))
	})
})
