package auctionrunner_test

import (
	"errors"
	"os"
	"strings"
	"sync"
	"time"

	"code.cloudfoundry.org/clock/fakeclock"
	"code.cloudfoundry.org/lager/v3/lagertest"
	. "github.com/marketsim/auction/auctionrunner"
	"github.com/marketsim/auction/auctiontypes"
	"github.com/marketsim/auction/auctiontypes/fakes"
	"github.com/marketsim/auction/catalog"
	"github.com/marketsim/auction/communication/inprocess"
	yellowpages "github.com/marketsim/auction/directory"
	"github.com/tedsuo/ifrit"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type recordingDelegate struct {
	lock    *sync.Mutex
	results []auctiontypes.AuctionResult
}

func newRecordingDelegate() *recordingDelegate {
	return &recordingDelegate{lock: &sync.Mutex{}}
}

func (d *recordingDelegate) AuctionCompleted(result auctiontypes.AuctionResult) {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.results = append(d.results, result)
}

func (d *recordingDelegate) Results() []auctiontypes.AuctionResult {
	d.lock.Lock()
	defer d.lock.Unlock()
	return append([]auctiontypes.AuctionResult{}, d.results...)
}

var _ = Describe("Coordinator", func() {
	var (
		items       *catalog.Catalog
		directory   *fakes.FakeDirectory
		channel     *fakes.FakeMessageChannel
		batch       *Batch
		delegate    *recordingDelegate
		clock       *fakeclock.FakeClock
		config      CoordinatorConfig
		coordinator *Coordinator
	)

	lastCFP := func() auctiontypes.Message {
		cfps := channel.SentWith(auctiontypes.CFP)
		Ω(cfps).ShouldNot(BeEmpty())
		return cfps[len(cfps)-1]
	}

	reply := func(from string, p auctiontypes.Performative, content string) auctiontypes.Message {
		return lastCFP().Reply(from, p, content)
	}

	logIndex := func(suffix string) int {
		for i, msg := range logger.(*lagertest.TestLogger).LogMessages() {
			if strings.HasSuffix(msg, suffix) {
				return i
			}
		}
		return -1
	}

	BeforeEach(func() {
		items = catalog.New()
		directory = fakes.NewFakeDirectory()
		channel = fakes.NewFakeMessageChannel()
		batch = NewBatch()
		delegate = newRecordingDelegate()
		clock = fakeclock.NewFakeClock(time.Now())
		config = CoordinatorConfig{
			PartyID:   "auctioneer",
			Mechanism: auctiontypes.English,
		}
	})

	JustBeforeEach(func() {
		coordinator = NewCoordinator(config, items, directory, channel, batch, delegate, clock, logger)
	})

	Context("when the catalog is empty", func() {
		It("should stay idle", func() {
			coordinator.Step()
			Ω(coordinator.Phase()).Should(Equal(Idle))
			Ω(directory.SearchCallCount()).Should(BeZero())
		})

		It("should pick up items submitted through the batch", func() {
			directory.Register("english-auction", "A")
			batch.AddItems([]auctiontypes.Item{{Name: "vase", InitialPrice: 100}})

			coordinator.Step()
			Ω(items.FirstItem()).Should(Equal("vase"))
			Ω(coordinator.Phase()).Should(Equal(CollectBids))
		})
	})

	Context("when there are no bidders", func() {
		BeforeEach(func() {
			items.Put("vase", 100)
		})

		It("should wait in discovery", func() {
			coordinator.Step()
			coordinator.Step()
			Ω(coordinator.Phase()).Should(Equal(DiscoverBidders))
			Ω(directory.SearchCallCount()).Should(Equal(2))
			Ω(channel.Sent()).Should(BeEmpty())
		})

		It("should retry after the directory fails", func() {
			directory.SetSearchError(errors.New("connection refused"))
			coordinator.Step()
			Ω(coordinator.Phase()).Should(Equal(DiscoverBidders))

			directory.SetSearchError(nil)
			directory.Register("english-auction", "A")
			coordinator.Step()
			Ω(coordinator.Phase()).Should(Equal(CollectBids))
		})
	})

	Describe("English auctions", func() {
		BeforeEach(func() {
			items.Put("vase", 100)
			directory.Register("english-auction", "A")
			directory.Register("english-auction", "B")
			directory.Register("english-auction", "C")
		})

		It("should solicit every discovered bidder", func() {
			coordinator.Step()

			cfp := lastCFP()
			Ω(cfp.Receivers).Should(Equal([]string{"A", "B", "C"}))
			Ω(cfp.ConversationID).Should(Equal("english-bid"))
			Ω(cfp.ReplyWith).Should(HavePrefix("cfp-"))
			Ω(cfp.Content).Should(Equal("vase,100,0"))
			Ω(coordinator.Phase()).Should(Equal(CollectBids))
		})

		It("should run rounds until the leader is unchallenged", func() {
			coordinator.Step()
			firstRound := lastCFP()

			channel.Deliver(
				reply("A", auctiontypes.Propose, "120"),
				reply("B", auctiontypes.Propose, "150"),
				reply("C", auctiontypes.Refuse, "not-interested"),
			)
			coordinator.Step()

			Ω(channel.SentWith(auctiontypes.Inform)).Should(HaveLen(2))

			secondRound := lastCFP()
			Ω(secondRound.ReplyWith).ShouldNot(Equal(firstRound.ReplyWith))
			Ω(secondRound.Content).Should(Equal("vase,100,150"))

			state, ok := coordinator.State()
			Ω(ok).Should(BeTrue())
			Ω(state.Round).Should(Equal(1))
			Ω(state.PreviousBidder).Should(Equal("B"))

			channel.Deliver(
				reply("A", auctiontypes.Refuse, "not-interested"),
				reply("B", auctiontypes.Refuse, "not-interested"),
				reply("C", auctiontypes.Refuse, "not-interested"),
			)
			coordinator.Step()

			accepts := channel.SentWith(auctiontypes.AcceptProposal)
			Ω(accepts).Should(HaveLen(1))
			Ω(accepts[0].Receivers).Should(Equal([]string{"B"}))
			Ω(accepts[0].Content).Should(Equal("vase,150"))

			Ω(items.IsEmpty()).Should(BeTrue())
			Ω(coordinator.Phase()).Should(Equal(Idle))

			results := delegate.Results()
			Ω(results).Should(HaveLen(1))
			Ω(results[0].Status).Should(Equal(auctiontypes.ResultSold))
			Ω(results[0].Winner).Should(Equal("B"))
			Ω(results[0].Price).Should(Equal(150))
			Ω(results[0].NumRounds).Should(Equal(2))
		})

		It("should withdraw the item when every bidder is priced out", func() {
			coordinator.Step()
			channel.Deliver(
				reply("A", auctiontypes.Cancel, "no-budget"),
				reply("B", auctiontypes.Cancel, "no-budget"),
				reply("C", auctiontypes.Cancel, "no-budget"),
			)
			coordinator.Step()

			Ω(items.IsEmpty()).Should(BeTrue())
			Ω(channel.SentWith(auctiontypes.AcceptProposal)).Should(BeEmpty())
			Ω(channel.SentWith(auctiontypes.Failure)).Should(BeEmpty())
			Ω(delegate.Results()[0].Status).Should(Equal(auctiontypes.ResultUnsold))
		})

		It("should stop soliciting bidders that left between rounds", func() {
			coordinator.Step()
			channel.Deliver(
				reply("A", auctiontypes.Propose, "120"),
				reply("B", auctiontypes.Propose, "150"),
				reply("C", auctiontypes.Propose, "110"),
			)

			directory.Deregister("C")
			coordinator.Step()

			Ω(lastCFP().Receivers).Should(Equal([]string{"A", "B"}))
			state, _ := coordinator.State()
			Ω(state.ExpectedReplyCount).Should(Equal(2))

			channel.Deliver(reply("C", auctiontypes.Propose, "900"))
			coordinator.Step()

			state, _ = coordinator.State()
			Ω(state.RepliesReceived).Should(BeZero())
		})

		It("should ignore replies from an earlier round", func() {
			coordinator.Step()
			stale := reply("A", auctiontypes.Propose, "120")
			channel.Deliver(
				stale,
				reply("B", auctiontypes.Propose, "150"),
				reply("C", auctiontypes.Refuse, "not-interested"),
			)
			coordinator.Step()

			channel.Deliver(stale)
			coordinator.Step()

			state, _ := coordinator.State()
			Ω(state.Round).Should(Equal(1))
			Ω(state.RepliesReceived).Should(BeZero())
			Ω(channel.Pending()).Should(BeZero())
		})

		It("should settle the current round before draining earlier replies", func() {
			coordinator.Step()
			stale := reply("A", auctiontypes.Propose, "900")
			channel.Deliver(
				reply("A", auctiontypes.Propose, "120"),
				reply("B", auctiontypes.Propose, "150"),
				reply("C", auctiontypes.Refuse, "not-interested"),
			)
			coordinator.Step()

			channel.Deliver(
				stale,
				reply("A", auctiontypes.Refuse, "not-interested"),
				reply("B", auctiontypes.Refuse, "not-interested"),
				reply("C", auctiontypes.Refuse, "not-interested"),
			)
			coordinator.Step()

			Ω(delegate.Results()).Should(HaveLen(1))
			Ω(delegate.Results()[0].Price).Should(Equal(150))
			Ω(logIndex("sell.sold")).Should(BeNumerically(">=", 0))
			Ω(logIndex("ignoring-stale-reply")).Should(BeNumerically(">", logIndex("sell.sold")))
			Ω(channel.Pending()).Should(BeZero())
		})

		Context("when some bidders cannot be reached", func() {
			BeforeEach(func() {
				channel.SetSendError(auctiontypes.UndeliverableError{Receivers: []string{"C"}})
			})

			It("should collect from the bidders that were reached", func() {
				coordinator.Step()
				Ω(coordinator.Phase()).Should(Equal(CollectBids))
				Ω(directory.SearchCallCount()).Should(Equal(1))

				state, _ := coordinator.State()
				Ω(state.Bidders).Should(Equal([]string{"A", "B"}))
				Ω(state.ExpectedReplyCount).Should(Equal(2))

				channel.SetSendError(nil)
				cfp := auctiontypes.Message{
					Sender:         "auctioneer",
					ConversationID: "english-bid",
					ReplyWith:      state.CorrelationID,
				}
				channel.Deliver(
					cfp.Reply("A", auctiontypes.Cancel, "no-budget"),
					cfp.Reply("B", auctiontypes.Propose, "130"),
				)
				coordinator.Step()

				accepts := channel.SentWith(auctiontypes.AcceptProposal)
				Ω(accepts).Should(HaveLen(1))
				Ω(accepts[0].Receivers).Should(Equal([]string{"B"}))
				Ω(accepts[0].Content).Should(Equal("vase,130"))
			})
		})

		Context("when no bidder can be reached", func() {
			It("should rediscover on the next step instead of resending", func() {
				channel.SetSendError(auctiontypes.UndeliverableError{Receivers: []string{"A", "B", "C"}})
				coordinator.Step()
				Ω(coordinator.Phase()).Should(Equal(DiscoverBidders))
				Ω(directory.SearchCallCount()).Should(Equal(1))

				channel.SetSendError(errors.New("connection refused"))
				coordinator.Step()
				Ω(coordinator.Phase()).Should(Equal(DiscoverBidders))
				Ω(directory.SearchCallCount()).Should(Equal(2))

				channel.SetSendError(nil)
				coordinator.Step()
				Ω(coordinator.Phase()).Should(Equal(CollectBids))
				Ω(channel.SentWith(auctiontypes.CFP)).Should(HaveLen(1))
			})
		})

		Context("when the item has gone by settlement time", func() {
			It("should tell the winner it is not available", func() {
				coordinator.Step()
				items.Remove("vase")

				channel.Deliver(
					reply("A", auctiontypes.Cancel, "no-budget"),
					reply("B", auctiontypes.Cancel, "no-budget"),
					reply("C", auctiontypes.Propose, "130"),
				)
				coordinator.Step()

				Ω(channel.SentWith(auctiontypes.AcceptProposal)).Should(BeEmpty())
				failures := channel.SentWith(auctiontypes.Failure)
				Ω(failures).Should(HaveLen(1))
				Ω(failures[0].Receivers).Should(Equal([]string{"C"}))
				Ω(failures[0].Content).Should(Equal(auctiontypes.NotAvailable))
				Ω(delegate.Results()[0].Status).Should(Equal(auctiontypes.ResultNotAvailable))
				Ω(logIndex("sell.item-not-available")).Should(BeNumerically(">=", 0))
				Ω(logIndex("sell.sold")).Should(Equal(-1))
			})
		})

		Context("when a bidder never answers", func() {
			deliverPartial := func() {
				coordinator.Step()
				channel.Deliver(
					reply("A", auctiontypes.Cancel, "no-budget"),
					reply("B", auctiontypes.Propose, "130"),
				)
				coordinator.Step()
			}

			It("should wait for it indefinitely by default", func() {
				deliverPartial()
				clock.Increment(time.Hour)
				coordinator.Step()
				Ω(coordinator.Phase()).Should(Equal(CollectBids))
			})

			Context("with a round timeout", func() {
				BeforeEach(func() {
					config.RoundTimeout = 5 * time.Second
				})

				It("should count the silent bidder as declining once the timeout elapses", func() {
					deliverPartial()
					clock.Increment(4 * time.Second)
					coordinator.Step()
					Ω(coordinator.Phase()).Should(Equal(CollectBids))

					clock.Increment(time.Second)
					coordinator.Step()

					state, _ := coordinator.State()
					Ω(state.Round).Should(Equal(1))
					Ω(state.PreviousBidder).Should(Equal("B"))
				})
			})
		})

		It("should move on to the next item in insertion order", func() {
			items.Put("lamp", 40)
			coordinator.Step()
			channel.Deliver(
				reply("A", auctiontypes.Cancel, "no-budget"),
				reply("B", auctiontypes.Cancel, "no-budget"),
				reply("C", auctiontypes.Cancel, "no-budget"),
			)
			coordinator.Step()

			state, ok := coordinator.State()
			Ω(ok).Should(BeTrue())
			Ω(state.Item).Should(Equal(auctiontypes.Item{Name: "lamp", InitialPrice: 40}))
			Ω(lastCFP().Content).Should(Equal("lamp,40,0"))
		})
	})

	Describe("second-price auctions", func() {
		BeforeEach(func() {
			config.Mechanism = auctiontypes.SecondPrice
			items.Put("vase", 50)
			directory.Register("blind-auction", "A")
			directory.Register("blind-auction", "B")
			directory.Register("blind-auction", "C")
		})

		It("should sell after a single round at the second price", func() {
			coordinator.Step()
			Ω(lastCFP().ConversationID).Should(Equal("blind-bid"))

			channel.Deliver(
				reply("A", auctiontypes.Propose, "80"),
				reply("B", auctiontypes.Propose, "120"),
				reply("C", auctiontypes.Propose, "120"),
			)
			coordinator.Step()

			accepts := channel.SentWith(auctiontypes.AcceptProposal)
			Ω(accepts).Should(HaveLen(1))
			Ω(accepts[0].Receivers).Should(Equal([]string{"B"}))
			Ω(accepts[0].Content).Should(Equal("vase,120"))
			Ω(channel.SentWith(auctiontypes.CFP)).Should(HaveLen(1))
		})

		It("should withdraw the item when nobody bids", func() {
			coordinator.Step()
			channel.Deliver(
				reply("A", auctiontypes.Refuse, "not-interested"),
				reply("B", auctiontypes.Refuse, "not-interested"),
				reply("C", auctiontypes.Refuse, "not-interested"),
			)
			coordinator.Step()

			Ω(items.IsEmpty()).Should(BeTrue())
			Ω(channel.SentWith(auctiontypes.AcceptProposal)).Should(BeEmpty())
		})
	})

	Describe("over the in-process transport", func() {
		var (
			registry *yellowpages.Registry
			bidder   *inprocess.Endpoint
		)

		BeforeEach(func() {
			items.Put("vase", 100)
			registry = yellowpages.NewRegistry()
			registry.Register("english-auction", "A")
			registry.Register("english-auction", "ghost")
		})

		JustBeforeEach(func() {
			office := inprocess.NewPostOffice(clock, logger)
			bidder = office.Connect("A")
			coordinator = NewCoordinator(config, items, registry, office.Connect("auctioneer"), batch, delegate, clock, logger)
		})

		It("should run the round with the parties that are connected", func() {
			coordinator.Step()
			Ω(coordinator.Phase()).Should(Equal(CollectBids))

			cfp, ok := bidder.Receive(auctiontypes.MatchPerformative(auctiontypes.CFP))
			Ω(ok).Should(BeTrue())
			Ω(cfp.Receivers).Should(Equal([]string{"A", "ghost"}))

			Ω(bidder.Send(cfp.Reply("A", auctiontypes.Cancel, "no-budget"))).Should(Succeed())
			for i := 0; i < 5; i++ {
				coordinator.Step()
			}

			Ω(coordinator.Phase()).Should(Equal(Idle))
			Ω(delegate.Results()).Should(HaveLen(1))
			Ω(delegate.Results()[0].Status).Should(Equal(auctiontypes.ResultUnsold))

			_, ok = bidder.Receive(auctiontypes.MatchPerformative(auctiontypes.CFP))
			Ω(ok).Should(BeFalse())
		})
	})

	Describe("Run", func() {
		var process ifrit.Process

		BeforeEach(func() {
			config.PollInterval = time.Second
			directory.Register("english-auction", "A")
		})

		JustBeforeEach(func() {
			process = ifrit.Invoke(coordinator)
		})

		AfterEach(func() {
			process.Signal(os.Interrupt)
			Eventually(process.Wait()).Should(Receive(BeNil()))
		})

		It("should start an auction when an item is submitted", func() {
			batch.AddItems([]auctiontypes.Item{{Name: "vase", InitialPrice: 100}})
			Eventually(func() int { return len(channel.SentWith(auctiontypes.CFP)) }).Should(Equal(1))
		})

		It("should settle once the replies arrive", func() {
			batch.AddItems([]auctiontypes.Item{{Name: "vase", InitialPrice: 100}})
			Eventually(func() int { return len(channel.SentWith(auctiontypes.CFP)) }).Should(Equal(1))

			channel.Deliver(reply("A", auctiontypes.Propose, "130"))
			Eventually(func() int { return len(channel.SentWith(auctiontypes.AcceptProposal)) }).Should(Equal(1))
			Eventually(delegate.Results).Should(HaveLen(1))
		})
	})
})
