package nats_mailbox_test

import (
	"os"

	"github.com/marketsim/auction/auctiontypes"
	. "github.com/marketsim/auction/communication/nats/nats_mailbox"
	"github.com/tedsuo/ifrit"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("NATSMailbox", func() {
	var auctioneer, a, b *NATSMailbox

	cfp := auctiontypes.Message{
		Performative:   auctiontypes.CFP,
		Sender:         "auctioneer",
		Receivers:      []string{"bidder-a", "bidder-b"},
		ConversationID: "blind-bid",
		ReplyWith:      "cfp-1",
		Content:        "vase,50,0",
	}

	BeforeEach(func() {
		auctioneer = New(natsConn, "auctioneer", workPool, logger)
		a = New(natsConn, "bidder-a", workPool, logger)
		b = New(natsConn, "bidder-b", workPool, logger)

		for _, box := range []*NATSMailbox{auctioneer, a, b} {
			Ω(box.Listen()).Should(Succeed())
		}
	})

	AfterEach(func() {
		for _, box := range []*NATSMailbox{auctioneer, a, b} {
			Ω(box.Shutdown()).Should(Succeed())
		}
	})

	It("should deliver a broadcast to every receiver's inbox", func() {
		Ω(auctioneer.Send(cfp)).Should(Succeed())

		for _, box := range []*NATSMailbox{a, b} {
			Eventually(box.HasMail()).Should(Receive())
			msg, ok := box.Receive(auctiontypes.MatchConversation("blind-bid"))
			Ω(ok).Should(BeTrue())
			Ω(msg).Should(Equal(cfp))
		}
	})

	It("should correlate replies to the solicitation", func() {
		auctioneer.Send(cfp)
		Eventually(a.HasMail()).Should(Receive())
		msg, _ := a.Receive(auctiontypes.MatchAll())

		Ω(a.Send(msg.Reply("bidder-a", auctiontypes.Propose, "80"))).Should(Succeed())

		Eventually(func() bool {
			reply, ok := auctioneer.Receive(auctiontypes.MatchInReplyTo("cfp-1"))
			return ok && reply.Content == "80"
		}).Should(BeTrue())
	})

	It("should drop payloads that are not messages", func() {
		Ω(natsConn.Publish("bidder-a.inbox", []byte("garbage"))).Should(Succeed())
		Ω(natsConn.Flush()).Should(Succeed())
		Consistently(a.HasMail()).ShouldNot(Receive())
	})

	Describe("Run", func() {
		It("should listen until signalled", func() {
			c := New(natsConn, "bidder-c", workPool, logger)
			process := ifrit.Invoke(c)

			msg := cfp
			msg.Receivers = []string{"bidder-c"}
			auctioneer.Send(msg)
			Eventually(c.HasMail()).Should(Receive())

			process.Signal(os.Interrupt)
			Eventually(process.Wait()).Should(Receive(BeNil()))
		})
	})
})
