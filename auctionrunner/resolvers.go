package auctionrunner

import (
	"github.com/marketsim/auction/auctiontypes"
)

// Resolver decides the outcome of a completed round. Implementations are
// pure functions of the state they are handed.
type Resolver interface {
	Resolve(state AuctionState) auctiontypes.Outcome
}

func ResolverFor(mechanism auctiontypes.Mechanism) Resolver {
	if mechanism == auctiontypes.SecondPrice {
		return SecondPriceResolver{}
	}
	return EnglishResolver{}
}

type EnglishResolver struct{}

func (EnglishResolver) Resolve(s AuctionState) auctiontypes.Outcome {
	switch {
	case s.BestPrice == 0 && s.PreviousPrice != 0:
		// nobody improved on the last round
		return auctiontypes.SellTo(s.PreviousBidder, s.PreviousPrice)

	case s.ActiveCount() == 1 && s.BestBidder != "" && s.BestBidder == s.PreviousBidder:
		return auctiontypes.SellTo(s.PreviousBidder, s.PreviousPrice)

	case s.CancelCount == s.ExpectedReplyCount-1 && s.BestPrice != 0:
		price := s.PreviousPrice
		if price == 0 {
			price = s.BestPrice
		}
		return auctiontypes.SellTo(s.BestBidder, price)

	case s.CancelCount == s.ExpectedReplyCount:
		return auctiontypes.NoSaleOutcome()
	}

	return auctiontypes.Continue(s.BestPrice, s.BestBidder)
}

// SecondPriceResolver settles a single sealed round at the second highest
// recorded offer.
type SecondPriceResolver struct{}

func (SecondPriceResolver) Resolve(s AuctionState) auctiontypes.Outcome {
	highest, ok := s.Bids.Highest()
	if !ok || highest.Amount < s.Item.InitialPrice {
		return auctiontypes.NoSaleOutcome()
	}

	price, _ := s.Bids.SecondHighestAmount()
	return auctiontypes.SellTo(highest.BidderID, price)
}
