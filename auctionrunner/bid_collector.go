package auctionrunner

import (
	"fmt"

	"code.cloudfoundry.org/lager/v3"
	"github.com/marketsim/auction/auctiontypes"
)

const BidReceived = "Your bid has been received!"

type BidCollector struct {
	partyID string
	logger  lager.Logger
}

func NewBidCollector(partyID string, logger lager.Logger) *BidCollector {
	return &BidCollector{
		partyID: partyID,
		logger:  logger.Session("bid-collector"),
	}
}

// Collect classifies one reply against the round held in state. Offers are
// acknowledged: the returned message, when non-nil, must be sent back to
// the bidder.
func (c *BidCollector) Collect(state *AuctionState, msg auctiontypes.Message) (*auctiontypes.Message, error) {
	if msg.InReplyTo != state.CorrelationID || !state.Solicited(msg.Sender) {
		return nil, fmt.Errorf("%w: %s from %s", auctiontypes.ErrStaleReply, msg.Performative, msg.Sender)
	}

	logger := c.logger.Session("collect", lager.Data{
		"item":   state.Item.Name,
		"round":  state.Round,
		"bidder": msg.Sender,
	})

	switch msg.Performative {
	case auctiontypes.Propose:
		state.Responded[msg.Sender] = true
		state.RepliesReceived++

		amount, err := auctiontypes.ParseOffer(msg.Content)
		if err != nil {
			state.RefusalCount++
			return nil, err
		}

		c.record(state, msg.Sender, amount, logger)

		ack := msg.Reply(c.partyID, auctiontypes.Inform, BidReceived)
		return &ack, nil

	case auctiontypes.Refuse:
		state.Responded[msg.Sender] = true
		state.RepliesReceived++
		state.RefusalCount++
		logger.Info("bidder-declined", lager.Data{"reason": msg.Content})
		return nil, nil

	case auctiontypes.Cancel:
		state.Responded[msg.Sender] = true
		state.RepliesReceived++
		state.CancelCount++
		logger.Info("bidder-priced-out", lager.Data{"reason": msg.Content})
		return nil, nil

	case auctiontypes.CFP, auctiontypes.Inform, auctiontypes.AcceptProposal, auctiontypes.Failure:
		return nil, fmt.Errorf("%w: %s is not a reply to a solicitation", auctiontypes.ErrStaleReply, msg.Performative)
	}

	return nil, fmt.Errorf("%w: unknown performative %d", auctiontypes.ErrMalformedContent, int(msg.Performative))
}

func (c *BidCollector) record(state *AuctionState, bidder string, amount int, logger lager.Logger) {
	if amount < state.AcceptanceThreshold() {
		logger.Info("offer-below-threshold", lager.Data{"amount": amount, "threshold": state.AcceptanceThreshold()})
		return
	}

	state.Bids = append(state.Bids, auctiontypes.BidRecord{
		BidderID: bidder,
		Amount:   amount,
		Round:    state.Round,
	})

	if amount <= state.FloorPrice {
		logger.Info("offer-does-not-raise-floor", lager.Data{"amount": amount, "floor": state.FloorPrice})
		return
	}

	if state.BestBidder == "" || amount > state.BestPrice {
		state.BestPrice = amount
		state.BestBidder = bidder
	}

	logger.Info("recorded-offer", lager.Data{"amount": amount, "best-price": state.BestPrice, "best-bidder": state.BestBidder})
}
