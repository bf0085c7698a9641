package inprocess

import (
	"sync"
	"time"

	"code.cloudfoundry.org/clock"
	"code.cloudfoundry.org/lager/v3"
	"github.com/marketsim/auction/auctiontypes"
	"github.com/marketsim/auction/communication/mailbox"
	"github.com/marketsim/auction/util"
)

// Latency delays each delivery by a uniform draw from [Min, Max].
type Latency struct {
	Min, Max time.Duration
}

// PostOffice routes messages between parties living in the same process.
type PostOffice struct {
	lock      *sync.RWMutex
	mailboxes map[string]*mailbox.Mailbox
	latency   Latency
	randLock  *sync.Mutex
	rand      util.RandSource
	clock     clock.Clock
	logger    lager.Logger
}

func NewPostOffice(clock clock.Clock, logger lager.Logger) *PostOffice {
	return &PostOffice{
		lock:      &sync.RWMutex{},
		mailboxes: map[string]*mailbox.Mailbox{},
		randLock:  &sync.Mutex{},
		clock:     clock,
		logger:    logger.Session("post-office"),
	}
}

// SetLatency makes every later delivery asynchronous.
func (p *PostOffice) SetLatency(latency Latency, rand util.RandSource) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.latency = latency
	p.rand = rand
}

// Connect opens the mailbox for a party and returns its endpoint.
func (p *PostOffice) Connect(partyID string) *Endpoint {
	p.lock.Lock()
	defer p.lock.Unlock()

	box, ok := p.mailboxes[partyID]
	if !ok {
		box = mailbox.New()
		p.mailboxes[partyID] = box
	}

	return &Endpoint{partyID: partyID, office: p, mailbox: box}
}

func (p *PostOffice) send(msg auctiontypes.Message) error {
	p.lock.RLock()
	latency := p.latency
	missing := []string{}
	boxes := make([]*mailbox.Mailbox, 0, len(msg.Receivers))
	for _, receiver := range msg.Receivers {
		box, ok := p.mailboxes[receiver]
		if !ok {
			missing = append(missing, receiver)
			continue
		}
		boxes = append(boxes, box)
	}
	p.lock.RUnlock()

	for _, box := range boxes {
		copied := msg
		copied.Receivers = append([]string{}, msg.Receivers...)
		if latency.Max > 0 {
			go p.deliverLater(box, copied, p.delay(latency))
		} else {
			box.Deliver(copied)
		}
	}

	if len(missing) > 0 {
		p.logger.Info("undeliverable", lager.Data{"sender": msg.Sender, "receivers": missing})
		return auctiontypes.UndeliverableError{Receivers: missing}
	}
	return nil
}

func (p *PostOffice) delay(latency Latency) time.Duration {
	p.randLock.Lock()
	defer p.randLock.Unlock()
	return time.Duration(util.RandomIntIn(p.rand, int(latency.Min), int(latency.Max)))
}

func (p *PostOffice) deliverLater(box *mailbox.Mailbox, msg auctiontypes.Message, delay time.Duration) {
	p.clock.Sleep(delay)
	box.Deliver(msg)
}

type Endpoint struct {
	partyID string
	office  *PostOffice
	mailbox *mailbox.Mailbox
}

func (e *Endpoint) PartyID() string {
	return e.partyID
}

func (e *Endpoint) Send(msg auctiontypes.Message) error {
	return e.office.send(msg)
}

func (e *Endpoint) Receive(match auctiontypes.Matcher) (auctiontypes.Message, bool) {
	return e.mailbox.Receive(match)
}

func (e *Endpoint) HasMail() <-chan struct{} {
	return e.mailbox.HasMail()
}

var _ auctiontypes.MessageChannel = (*Endpoint)(nil)
