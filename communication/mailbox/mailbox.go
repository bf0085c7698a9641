package mailbox

import (
	"sync"

	"github.com/marketsim/auction/auctiontypes"
)

// Mailbox is a party's queue of delivered messages. Receive scans in
// arrival order and never blocks.
type Mailbox struct {
	lock     *sync.Mutex
	messages []auctiontypes.Message
	hasMail  chan struct{}
}

func New() *Mailbox {
	return &Mailbox{
		lock:    &sync.Mutex{},
		hasMail: make(chan struct{}, 1),
	}
}

func (m *Mailbox) Deliver(msg auctiontypes.Message) {
	m.lock.Lock()
	m.messages = append(m.messages, msg)
	m.lock.Unlock()

	select {
	case m.hasMail <- struct{}{}:
	default:
	}
}

// Receive removes and returns the oldest message accepted by match.
func (m *Mailbox) Receive(match auctiontypes.Matcher) (auctiontypes.Message, bool) {
	m.lock.Lock()
	defer m.lock.Unlock()

	for i, msg := range m.messages {
		if match(msg) {
			m.messages = append(m.messages[:i:i], m.messages[i+1:]...)
			return msg, true
		}
	}
	return auctiontypes.Message{}, false
}

// HasMail fires at least once after each delivery.
func (m *Mailbox) HasMail() <-chan struct{} {
	return m.hasMail
}

func (m *Mailbox) Len() int {
	m.lock.Lock()
	defer m.lock.Unlock()
	return len(m.messages)
}
