package auctionrep

import (
	"os"

	"code.cloudfoundry.org/lager/v3"
	"github.com/marketsim/auction/auctiontypes"
)

const WinAcknowledgement = "Item received, thank you!"

// Agent runs a Bidder against the message transport. It registers with the
// directory on start and leaves silently once the budget is spent. Mail
// already delivered when it is signalled is still handled.
type Agent struct {
	bidder    *Bidder
	mechanism auctiontypes.Mechanism
	directory auctiontypes.Directory
	channel   auctiontypes.MessageChannel
	logger    lager.Logger
}

func NewAgent(
	bidder *Bidder,
	mechanism auctiontypes.Mechanism,
	directory auctiontypes.Directory,
	channel auctiontypes.MessageChannel,
	logger lager.Logger,
) *Agent {
	return &Agent{
		bidder:    bidder,
		mechanism: mechanism,
		directory: directory,
		channel:   channel,
		logger:    logger.Session("agent", lager.Data{"bidder-id": bidder.ID(), "mechanism": mechanism}),
	}
}

func (a *Agent) Bidder() *Bidder {
	return a.bidder
}

func (a *Agent) Run(signals <-chan os.Signal, ready chan<- struct{}) error {
	if a.bidder.Exhausted() {
		a.logger.Info("budget-exhausted")
		close(ready)
		return nil
	}

	err := a.directory.Register(a.mechanism.ServiceKind(), a.bidder.ID())
	if err != nil {
		a.logger.Error("failed-to-register", err)
		return err
	}
	defer a.deregister()

	a.logger.Info("registered", lager.Data{"budget": a.bidder.Budget()})
	close(ready)

	for {
		if a.bidder.Exhausted() {
			a.logger.Info("budget-exhausted")
			return nil
		}

		select {
		case <-signals:
			a.logger.Info("stopping")
			a.ProcessMail()
			return nil
		case <-a.channel.HasMail():
			a.ProcessMail()
		}
	}
}

// ProcessMail handles every queued message, stopping early once the budget
// is gone. Wins are settled ahead of solicitations so offers are made
// against the budget that is actually left. It reports whether the bidder
// is still live.
func (a *Agent) ProcessMail() bool {
	for {
		if a.bidder.Exhausted() {
			return false
		}

		msg, ok := a.channel.Receive(auctiontypes.MatchPerformative(auctiontypes.AcceptProposal))
		if !ok {
			msg, ok = a.channel.Receive(auctiontypes.MatchAll())
		}
		if !ok {
			return true
		}

		a.handle(msg)
	}
}

func (a *Agent) handle(msg auctiontypes.Message) {
	logger := a.logger.Session("handle", lager.Data{
		"from":         msg.Sender,
		"performative": msg.Performative.String(),
	})

	switch msg.Performative {
	case auctiontypes.CFP:
		a.answer(msg, logger)

	case auctiontypes.AcceptProposal:
		settlement, err := auctiontypes.ParseSettlement(msg.Content)
		if err != nil {
			logger.Error("failed-to-parse-settlement", err, lager.Data{"content": msg.Content})
			return
		}

		a.bidder.Settle(settlement)
		a.send(msg.Reply(a.bidder.ID(), auctiontypes.Inform, WinAcknowledgement), logger)

	case auctiontypes.Failure:
		logger.Info("settlement-failed", lager.Data{"reason": msg.Content})

	case auctiontypes.Inform:
		logger.Debug("received-acknowledgement", lager.Data{"content": msg.Content})

	case auctiontypes.Propose, auctiontypes.Refuse, auctiontypes.Cancel:
		logger.Info("ignoring-unexpected-message")

	default:
		logger.Info("ignoring-unknown-performative")
	}
}

func (a *Agent) answer(cfp auctiontypes.Message, logger lager.Logger) {
	solicitation, err := auctiontypes.ParseSolicitation(cfp.Content)
	if err != nil {
		logger.Error("failed-to-parse-solicitation", err, lager.Data{"content": cfp.Content})
		a.send(cfp.Reply(a.bidder.ID(), auctiontypes.Refuse, "malformed solicitation"), logger)
		return
	}

	decision := a.bidder.Evaluate(solicitation)
	logger.Info("evaluated", lager.Data{
		"item":     solicitation.ItemName,
		"previous": solicitation.PreviousPrice,
		"decision": decision.Kind.String(),
		"amount":   decision.Amount,
	})

	switch decision.Kind {
	case Offer:
		a.send(cfp.Reply(a.bidder.ID(), auctiontypes.Propose, auctiontypes.EncodeOffer(decision.Amount)), logger)
	case Decline:
		a.send(cfp.Reply(a.bidder.ID(), auctiontypes.Refuse, decision.Reason), logger)
	case InsufficientFunds:
		a.send(cfp.Reply(a.bidder.ID(), auctiontypes.Cancel, decision.Reason), logger)
	}
}

func (a *Agent) send(msg auctiontypes.Message, logger lager.Logger) {
	err := a.channel.Send(msg)
	if err != nil {
		logger.Error("failed-to-send", err, lager.Data{"performative": msg.Performative.String()})
	}
}

func (a *Agent) deregister() {
	err := a.directory.Deregister(a.bidder.ID())
	if err != nil {
		a.logger.Error("failed-to-deregister", err)
		return
	}
	a.logger.Info("deregistered")
}
