package nats_mailbox

import (
	"encoding/json"
	"errors"
	"os"
	"sync"

	"code.cloudfoundry.org/lager/v3"
	"code.cloudfoundry.org/workpool"
	"github.com/marketsim/auction/auctiontypes"
	"github.com/marketsim/auction/communication/mailbox"
	auctionnats "github.com/marketsim/auction/communication/nats"
	"github.com/nats-io/nats.go"
)

// NATSMailbox is a MessageChannel backed by NATS. Incoming messages are
// queued locally so Receive stays non-blocking.
type NATSMailbox struct {
	partyID  string
	conn     *nats.Conn
	workPool *workpool.WorkPool
	mailbox  *mailbox.Mailbox
	logger   lager.Logger

	lock         *sync.Mutex
	subscription *nats.Subscription
}

func New(conn *nats.Conn, partyID string, workPool *workpool.WorkPool, logger lager.Logger) *NATSMailbox {
	return &NATSMailbox{
		partyID:  partyID,
		conn:     conn,
		workPool: workPool,
		mailbox:  mailbox.New(),
		logger:   logger.Session("nats-mailbox", lager.Data{"party-id": partyID}),
		lock:     &sync.Mutex{},
	}
}

func (m *NATSMailbox) Listen() error {
	m.lock.Lock()
	defer m.lock.Unlock()

	if m.subscription != nil {
		return nil
	}

	subject := auctionnats.NewSubjects(m.partyID).Inbox
	subscription, err := m.conn.Subscribe(subject, m.handle)
	if err != nil {
		m.logger.Error("failed-to-subscribe", err, lager.Data{"subject": subject})
		return err
	}

	err = m.conn.Flush()
	if err != nil {
		subscription.Unsubscribe()
		m.logger.Error("failed-to-flush", err)
		return err
	}

	m.subscription = subscription
	m.logger.Info("listening", lager.Data{"subject": subject})
	return nil
}

func (m *NATSMailbox) Shutdown() error {
	m.lock.Lock()
	defer m.lock.Unlock()

	if m.subscription == nil {
		return nil
	}

	err := m.subscription.Unsubscribe()
	m.subscription = nil
	return err
}

func (m *NATSMailbox) Run(signals <-chan os.Signal, ready chan<- struct{}) error {
	err := m.Listen()
	if err != nil {
		return err
	}
	defer m.Shutdown()

	close(ready)
	<-signals
	return nil
}

func (m *NATSMailbox) handle(msg *nats.Msg) {
	var message auctiontypes.Message
	err := json.Unmarshal(msg.Data, &message)
	if err != nil {
		m.logger.Error("failed-to-unmarshal", err, lager.Data{"subject": msg.Subject})
		return
	}

	m.mailbox.Deliver(message)
}

// Send publishes one copy of msg to each receiver's inbox.
func (m *NATSMailbox) Send(msg auctiontypes.Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	wg := &sync.WaitGroup{}
	wg.Add(len(msg.Receivers))

	lock := &sync.Mutex{}
	errs := []error{}

	for _, receiver := range msg.Receivers {
		receiver := receiver
		m.workPool.Submit(func() {
			defer wg.Done()
			err := m.conn.Publish(auctionnats.NewSubjects(receiver).Inbox, payload)
			if err != nil {
				m.logger.Error("failed-to-publish", err, lager.Data{"receiver": receiver})
				lock.Lock()
				errs = append(errs, err)
				lock.Unlock()
			}
		})
	}

	wg.Wait()
	return errors.Join(errs...)
}

func (m *NATSMailbox) Receive(match auctiontypes.Matcher) (auctiontypes.Message, bool) {
	return m.mailbox.Receive(match)
}

func (m *NATSMailbox) HasMail() <-chan struct{} {
	return m.mailbox.HasMail()
}

var _ auctiontypes.MessageChannel = (*NATSMailbox)(nil)
