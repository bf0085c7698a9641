package auctionrunner

import (
	"time"

	"github.com/marketsim/auction/auctiontypes"
)

// AuctionState is the negotiation record for the item under auction. It is
// created when an item is picked up and discarded once the item is sold or
// withdrawn.
type AuctionState struct {
	Item          auctiontypes.Item
	Round         int
	FloorPrice    int
	CorrelationID string
	Bidders       []string

	ExpectedReplyCount int
	RepliesReceived    int
	RefusalCount       int
	CancelCount        int

	BestPrice  int
	BestBidder string

	PreviousPrice  int
	PreviousBidder string

	Bids      auctiontypes.BidRecords
	Responded map[string]bool

	StartedAt      time.Time
	RoundStartedAt time.Time
}

func NewAuctionState(item auctiontypes.Item, now time.Time) *AuctionState {
	return &AuctionState{
		Item:      item,
		Bids:      auctiontypes.BidRecords{},
		Responded: map[string]bool{},
		StartedAt: now,
	}
}

// StartRound resets the per-round counters for a fresh solicitation.
func (s *AuctionState) StartRound(correlationID string, bidders []string, now time.Time) {
	s.CorrelationID = correlationID
	s.Bidders = bidders
	s.ExpectedReplyCount = len(bidders)
	s.RepliesReceived = 0
	s.RefusalCount = 0
	s.CancelCount = 0
	s.BestPrice = 0
	s.BestBidder = ""
	s.Responded = map[string]bool{}
	s.RoundStartedAt = now
}

// DropBidders removes parties the CFP could not reach from this round.
func (s *AuctionState) DropBidders(partyIDs []string) {
	dropped := map[string]bool{}
	for _, id := range partyIDs {
		dropped[id] = true
	}

	remaining := []string{}
	for _, bidder := range s.Bidders {
		if !dropped[bidder] {
			remaining = append(remaining, bidder)
		}
	}

	s.Bidders = remaining
	s.ExpectedReplyCount = len(remaining)
}

// Advance carries the round's best offer into the next round as its floor.
func (s *AuctionState) Advance(newFloor int, newBestBidder string) {
	s.Round++
	s.FloorPrice = newFloor
	s.PreviousPrice = newFloor
	s.PreviousBidder = newBestBidder
}

// ActiveCount is the number of solicited bidders that neither declined nor
// were priced out this round.
func (s AuctionState) ActiveCount() int {
	return s.ExpectedReplyCount - s.RefusalCount - s.CancelCount
}

func (s AuctionState) Complete() bool {
	return s.RepliesReceived >= s.ExpectedReplyCount
}

// AcceptanceThreshold is the smallest offer recorded this round.
func (s AuctionState) AcceptanceThreshold() int {
	if s.FloorPrice > s.Item.InitialPrice {
		return s.FloorPrice
	}
	return s.Item.InitialPrice
}

func (s AuctionState) Solicitation() auctiontypes.Solicitation {
	return auctiontypes.Solicitation{
		ItemName:      s.Item.Name,
		FloorPrice:    s.Item.InitialPrice,
		PreviousPrice: s.FloorPrice,
	}
}

// Solicited reports whether the party was sent this round's CFP and has
// not answered it yet.
func (s AuctionState) Solicited(partyID string) bool {
	if s.Responded[partyID] {
		return false
	}
	for _, bidder := range s.Bidders {
		if bidder == partyID {
			return true
		}
	}
	return false
}

// Unanswered lists the solicited bidders that have not replied this round.
func (s AuctionState) Unanswered() []string {
	out := []string{}
	for _, bidder := range s.Bidders {
		if !s.Responded[bidder] {
			out = append(out, bidder)
		}
	}
	return out
}
