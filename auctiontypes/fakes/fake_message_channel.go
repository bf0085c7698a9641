package fakes

import (
	"sync"

	"github.com/marketsim/auction/auctiontypes"
)

type FakeMessageChannel struct {
	lock      *sync.Mutex
	inbox     []auctiontypes.Message
	sent      []auctiontypes.Message
	sendError error
	hasMail   chan struct{}
}

func NewFakeMessageChannel() *FakeMessageChannel {
	return &FakeMessageChannel{
		lock:    &sync.Mutex{},
		hasMail: make(chan struct{}, 1),
	}
}

func (c *FakeMessageChannel) Send(msg auctiontypes.Message) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.sendError != nil {
		return c.sendError
	}
	c.sent = append(c.sent, msg)
	return nil
}

func (c *FakeMessageChannel) Receive(match auctiontypes.Matcher) (auctiontypes.Message, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	for i, msg := range c.inbox {
		if match(msg) {
			c.inbox = append(c.inbox[:i:i], c.inbox[i+1:]...)
			return msg, true
		}
	}
	return auctiontypes.Message{}, false
}

func (c *FakeMessageChannel) HasMail() <-chan struct{} {
	return c.hasMail
}

// Deliver queues messages as if they had arrived from the transport.
func (c *FakeMessageChannel) Deliver(msgs ...auctiontypes.Message) {
	c.lock.Lock()
	c.inbox = append(c.inbox, msgs...)
	c.lock.Unlock()

	select {
	case c.hasMail <- struct{}{}:
	default:
	}
}

func (c *FakeMessageChannel) SetSendError(err error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.sendError = err
}

func (c *FakeMessageChannel) Sent() []auctiontypes.Message {
	c.lock.Lock()
	defer c.lock.Unlock()
	return append([]auctiontypes.Message{}, c.sent...)
}

func (c *FakeMessageChannel) SentWith(p auctiontypes.Performative) []auctiontypes.Message {
	c.lock.Lock()
	defer c.lock.Unlock()
	out := []auctiontypes.Message{}
	for _, msg := range c.sent {
		if msg.Performative == p {
			out = append(out, msg)
		}
	}
	return out
}

func (c *FakeMessageChannel) Pending() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return len(c.inbox)
}

var _ auctiontypes.MessageChannel = (*FakeMessageChannel)(nil)
