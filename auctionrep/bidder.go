package auctionrep

import (
	"sync"

	"code.cloudfoundry.org/lager/v3"
	"github.com/marketsim/auction/auctiontypes"
	"github.com/marketsim/auction/util"
)

type DecisionKind int

const (
	Offer DecisionKind = iota
	Decline
	InsufficientFunds
)

func (k DecisionKind) String() string {
	switch k {
	case Offer:
		return "offer"
	case Decline:
		return "decline"
	case InsufficientFunds:
		return "insufficient-funds"
	}
	return "unknown"
}

type Decision struct {
	Kind   DecisionKind
	Amount int
	Reason string
}

const (
	ReasonNotJoining   = "Not joining this one..."
	ReasonNoAdmissible = "No affordable bid above the current price"
	ReasonNoBudget     = "Not enough budget for this item"
)

// Bidder holds one party's budget and decides how to answer solicitations.
type Bidder struct {
	id       string
	strategy Strategy
	odds     int
	rand     util.RandSource
	logger   lager.Logger

	lock           *sync.Mutex
	budget         int
	itemOfInterest string
	won            []auctiontypes.Settlement
}

func NewBidder(id string, budget int, strategy Strategy, participationOdds int, rand util.RandSource, logger lager.Logger) *Bidder {
	if budget < 0 {
		budget = 0
	}
	if participationOdds < 1 {
		participationOdds = 1
	}

	return &Bidder{
		id:       id,
		strategy: strategy,
		odds:     participationOdds,
		rand:     rand,
		logger:   logger.Session("bidder", lager.Data{"bidder-id": id, "strategy": strategy}),
		lock:     &sync.Mutex{},
		budget:   budget,
	}
}

func (b *Bidder) ID() string {
	return b.id
}

func (b *Bidder) Budget() int {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.budget
}

func (b *Bidder) Exhausted() bool {
	return b.Budget() == 0
}

func (b *Bidder) ItemOfInterest() string {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.itemOfInterest
}

// Won lists the settlements this bidder has paid for, in order.
func (b *Bidder) Won() []auctiontypes.Settlement {
	b.lock.Lock()
	defer b.lock.Unlock()
	return append([]auctiontypes.Settlement{}, b.won...)
}

func (b *Bidder) Evaluate(s auctiontypes.Solicitation) Decision {
	b.lock.Lock()
	defer b.lock.Unlock()

	if b.budget < s.FloorPrice || b.budget < s.PreviousPrice {
		return Decision{Kind: InsufficientFunds, Reason: ReasonNoBudget}
	}

	if b.odds > 1 && b.rand.Intn(b.odds) != 0 {
		return Decision{Kind: Decline, Reason: ReasonNotJoining}
	}

	span := b.strategy.span(s.FloorPrice, b.budget)
	if !span.admits(s.PreviousPrice, b.budget) {
		return Decision{Kind: Decline, Reason: ReasonNoAdmissible}
	}

	amount := span.draw(b.rand)
	for amount <= s.PreviousPrice || amount > b.budget {
		amount = span.draw(b.rand)
	}

	b.itemOfInterest = s.ItemName
	return Decision{Kind: Offer, Amount: amount}
}

// Settle pays for a won item. The payment never exceeds the remaining
// budget; the amount actually deducted is returned.
func (b *Bidder) Settle(s auctiontypes.Settlement) int {
	b.lock.Lock()
	defer b.lock.Unlock()

	paid := s.Price
	if paid > b.budget {
		b.logger.Info("clamped-settlement", lager.Data{"item": s.ItemName, "price": s.Price, "budget": b.budget})
		paid = b.budget
	}

	b.budget -= paid
	b.won = append(b.won, auctiontypes.Settlement{ItemName: s.ItemName, Price: paid})
	if b.itemOfInterest == s.ItemName {
		b.itemOfInterest = ""
	}

	b.logger.Info("settled", lager.Data{"item": s.ItemName, "paid": paid, "remaining-budget": b.budget})
	return paid
}
