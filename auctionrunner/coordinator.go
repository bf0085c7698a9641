package auctionrunner

import (
	"errors"
	"os"
	"time"

	"code.cloudfoundry.org/clock"
	"code.cloudfoundry.org/lager/v3"
	"github.com/google/uuid"
	"github.com/marketsim/auction/auctiontypes"
)

const DefaultPollInterval = 10 * time.Second

type Phase int

const (
	Idle Phase = iota
	DiscoverBidders
	Broadcast
	CollectBids
	ResolveOutcome
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case DiscoverBidders:
		return "discover-bidders"
	case Broadcast:
		return "broadcast"
	case CollectBids:
		return "collect-bids"
	case ResolveOutcome:
		return "resolve-outcome"
	}
	return "unknown"
}

type CoordinatorConfig struct {
	PartyID   string
	Mechanism auctiontypes.Mechanism

	// RoundTimeout, when positive, counts bidders that have not answered
	// within the timeout as having declined. Zero waits forever.
	RoundTimeout time.Duration
	PollInterval time.Duration
}

// Coordinator sells the catalog's items one at a time. All of its state is
// owned by the goroutine calling Step or Run.
type Coordinator struct {
	config    CoordinatorConfig
	resolver  Resolver
	collector *BidCollector
	catalog   auctiontypes.Catalog
	directory auctiontypes.Directory
	channel   auctiontypes.MessageChannel
	batch     *Batch
	delegate  auctiontypes.AuctionRunnerDelegate
	clock     clock.Clock
	logger    lager.Logger

	phase Phase
	state *AuctionState
}

func NewCoordinator(
	config CoordinatorConfig,
	catalog auctiontypes.Catalog,
	directory auctiontypes.Directory,
	channel auctiontypes.MessageChannel,
	batch *Batch,
	delegate auctiontypes.AuctionRunnerDelegate,
	clock clock.Clock,
	logger lager.Logger,
) *Coordinator {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPollInterval
	}
	if batch == nil {
		batch = NewBatch()
	}

	logger = logger.Session("coordinator", lager.Data{
		"party-id":  config.PartyID,
		"mechanism": config.Mechanism,
	})

	return &Coordinator{
		config:    config,
		resolver:  ResolverFor(config.Mechanism),
		collector: NewBidCollector(config.PartyID, logger),
		catalog:   catalog,
		directory: directory,
		channel:   channel,
		batch:     batch,
		delegate:  delegate,
		clock:     clock,
		logger:    logger,
		phase:     Idle,
	}
}

func (c *Coordinator) Run(signals <-chan os.Signal, ready chan<- struct{}) error {
	ticker := c.clock.NewTicker(c.config.PollInterval)
	defer ticker.Stop()

	c.logger.Info("started")
	close(ready)

	c.Step()
	for {
		select {
		case sig := <-signals:
			c.logger.Info("stopping", lager.Data{"signal": sig.String(), "phase": c.phase.String()})
			return nil
		case <-ticker.C():
			c.Step()
		case <-c.channel.HasMail():
			c.Step()
		case <-c.batch.HasWork:
			c.Step()
		}
	}
}

// Step advances the auction until it has to wait for something outside the
// coordinator: an item, a bidder, or a reply.
func (c *Coordinator) Step() {
	c.drainIntake()
	for c.advance() {
	}
}

func (c *Coordinator) Phase() Phase {
	return c.phase
}

// State returns a copy of the current auction, or false when idle.
func (c *Coordinator) State() (AuctionState, bool) {
	if c.state == nil {
		return AuctionState{}, false
	}
	return *c.state, true
}

func (c *Coordinator) advance() bool {
	switch c.phase {
	case Idle:
		return c.pickItem()
	case DiscoverBidders:
		return c.discoverBidders()
	case Broadcast:
		return c.broadcast()
	case CollectBids:
		return c.collectBids()
	case ResolveOutcome:
		return c.resolveOutcome()
	}
	return false
}

func (c *Coordinator) drainIntake() {
	items := c.batch.DedupeAndDrain()
	for _, item := range items {
		err := c.catalog.Put(item.Name, item.InitialPrice)
		if err != nil {
			c.logger.Error("failed-to-add-item", err, lager.Data{"item": item.Name})
			continue
		}
		c.logger.Info("added-item", lager.Data{"item": item.Name, "initial-price": item.InitialPrice})
	}
}

func (c *Coordinator) pickItem() bool {
	c.discardStaleMail()

	if c.catalog.IsEmpty() {
		return false
	}

	name := c.catalog.FirstItem()
	item := auctiontypes.Item{Name: name, InitialPrice: c.catalog.InitialPrice(name)}
	c.state = NewAuctionState(item, c.clock.Now())
	c.phase = DiscoverBidders

	c.logger.Info("auction-started", lager.Data{"item": item.Name, "initial-price": item.InitialPrice})
	return true
}

func (c *Coordinator) discoverBidders() bool {
	c.discardStaleMail()

	kind := c.config.Mechanism.ServiceKind()
	bidders, err := c.directory.Search(kind)
	if err != nil {
		c.logger.Error("failed-to-discover-bidders", auctiontypes.DiscoveryError{ServiceKind: kind, Err: err})
		return false
	}

	if len(bidders) == 0 {
		c.logger.Debug("no-bidders-found", lager.Data{"service-kind": kind})
		return false
	}

	c.state.StartRound("cfp-"+uuid.NewString(), bidders, c.clock.Now())
	c.phase = Broadcast

	c.logger.Info("found-bidders", lager.Data{"item": c.state.Item.Name, "round": c.state.Round, "bidders": bidders})
	return true
}

func (c *Coordinator) broadcast() bool {
	s := c.state
	err := c.channel.Send(auctiontypes.Message{
		Performative:   auctiontypes.CFP,
		Sender:         c.config.PartyID,
		Receivers:      s.Bidders,
		ConversationID: c.config.Mechanism.ConversationID(),
		ReplyWith:      s.CorrelationID,
		Content:        s.Solicitation().Encode(),
	})
	var undeliverable auctiontypes.UndeliverableError
	switch {
	case errors.As(err, &undeliverable) && len(undeliverable.Receivers) < len(s.Bidders):
		s.DropBidders(undeliverable.Receivers)
		c.logger.Info("dropped-unreachable-bidders", lager.Data{"item": s.Item.Name, "round": s.Round, "unreachable": undeliverable.Receivers})
	case err != nil:
		c.logger.Error("failed-to-send-cfp", err, lager.Data{"item": s.Item.Name, "round": s.Round})
		c.phase = DiscoverBidders
		return false
	}

	c.phase = CollectBids
	return true
}

func (c *Coordinator) collectBids() bool {
	s := c.state
	if s.Complete() {
		c.phase = ResolveOutcome
		return true
	}

	conversation := auctiontypes.MatchConversation(c.config.Mechanism.ConversationID())
	msg, ok := c.channel.Receive(auctiontypes.MatchAnd(conversation, auctiontypes.MatchInReplyTo(s.CorrelationID)))
	if !ok {
		msg, ok = c.channel.Receive(conversation)
	}
	if !ok {
		if c.roundTimedOut() {
			c.expireRound()
			c.phase = ResolveOutcome
			return true
		}
		return false
	}

	if msg.Performative == auctiontypes.Inform {
		c.logger.Info("received-acknowledgement", lager.Data{"from": msg.Sender, "content": msg.Content})
		return true
	}

	ack, err := c.collector.Collect(s, msg)
	switch {
	case errors.Is(err, auctiontypes.ErrStaleReply):
		c.logger.Debug("ignoring-stale-reply", lager.Data{"from": msg.Sender, "performative": msg.Performative.String()})
	case err != nil:
		c.logger.Error("failed-to-collect-reply", err, lager.Data{"from": msg.Sender, "content": msg.Content})
	}

	if ack != nil {
		err := c.channel.Send(*ack)
		if err != nil {
			c.logger.Error("failed-to-acknowledge-offer", err, lager.Data{"to": msg.Sender})
		}
	}

	return true
}

func (c *Coordinator) roundTimedOut() bool {
	if c.config.RoundTimeout <= 0 {
		return false
	}
	return c.clock.Since(c.state.RoundStartedAt) >= c.config.RoundTimeout
}

func (c *Coordinator) expireRound() {
	s := c.state
	missing := s.Unanswered()
	for _, bidder := range missing {
		s.Responded[bidder] = true
		s.RepliesReceived++
		s.RefusalCount++
	}

	c.logger.Info("round-timed-out", lager.Data{"item": s.Item.Name, "round": s.Round, "missing": missing})
}

func (c *Coordinator) resolveOutcome() bool {
	outcome := c.resolver.Resolve(*c.state)

	switch outcome.Kind {
	case auctiontypes.Sell:
		c.sell(outcome)
	case auctiontypes.NoSale:
		c.withdraw()
	case auctiontypes.ContinueRound:
		roundBids := c.state.Bids.ForRound(c.state.Round).Len()
		c.state.Advance(outcome.NewFloor, outcome.NewBestBidder)
		c.phase = DiscoverBidders
		c.logger.Info("next-round", lager.Data{
			"item":            c.state.Item.Name,
			"round":           c.state.Round,
			"floor-price":     c.state.FloorPrice,
			"best-bidder":     c.state.PreviousBidder,
			"bids-last-round": roundBids,
		})
	}

	return true
}

func (c *Coordinator) sell(outcome auctiontypes.Outcome) {
	s := c.state
	logger := c.logger.Session("sell", lager.Data{
		"item":   s.Item.Name,
		"winner": outcome.Bidder,
		"price":  outcome.Price,
	})

	order := auctiontypes.Message{
		Performative:   auctiontypes.AcceptProposal,
		Sender:         c.config.PartyID,
		Receivers:      []string{outcome.Bidder},
		ConversationID: c.config.Mechanism.ConversationID(),
		ReplyWith:      "order-" + uuid.NewString(),
		Content:        auctiontypes.Settlement{ItemName: s.Item.Name, Price: outcome.Price}.Encode(),
	}

	status := auctiontypes.ResultSold
	if _, removed := c.catalog.Remove(s.Item.Name); !removed {
		order.Performative = auctiontypes.Failure
		order.Content = auctiontypes.NotAvailable
		status = auctiontypes.ResultNotAvailable
		logger.Info("item-not-available")
	}

	err := c.channel.Send(order)
	if err != nil {
		logger.Error("failed-to-send-settlement", err)
	}

	if status == auctiontypes.ResultSold {
		logger.Info("sold")
	}
	c.complete(status, outcome)
}

func (c *Coordinator) withdraw() {
	s := c.state
	c.catalog.Remove(s.Item.Name)
	c.logger.Info("no-sale", lager.Data{"item": s.Item.Name, "rounds": s.Round + 1})
	c.complete(auctiontypes.ResultUnsold, auctiontypes.NoSaleOutcome())
}

func (c *Coordinator) complete(status auctiontypes.ResultStatus, outcome auctiontypes.Outcome) {
	s := c.state
	result := auctiontypes.AuctionResult{
		Item:      s.Item,
		Mechanism: c.config.Mechanism,
		Status:    status,
		NumRounds: s.Round + 1,
		Bids:      s.Bids,
		Duration:  c.clock.Since(s.StartedAt),
	}
	if status == auctiontypes.ResultSold {
		result.Winner = outcome.Bidder
		result.Price = outcome.Price
	}

	c.state = nil
	c.phase = Idle

	if c.delegate != nil {
		c.delegate.AuctionCompleted(result)
	}
}

// discardStaleMail drops replies that arrive while no round is collecting.
func (c *Coordinator) discardStaleMail() {
	match := auctiontypes.MatchConversation(c.config.Mechanism.ConversationID())
	for {
		msg, ok := c.channel.Receive(match)
		if !ok {
			return
		}
		if msg.Performative == auctiontypes.Inform {
			c.logger.Info("received-acknowledgement", lager.Data{"from": msg.Sender, "content": msg.Content})
			continue
		}
		c.logger.Debug("ignoring-stale-reply", lager.Data{"from": msg.Sender, "performative": msg.Performative.String()})
	}
}
