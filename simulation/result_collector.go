package simulation

import (
	"sync"

	"github.com/marketsim/auction/auctiontypes"
)

// ResultCollector gathers completed auctions and signals Done once the
// expected number have arrived.
type ResultCollector struct {
	expected int
	lock     *sync.Mutex
	results  []auctiontypes.AuctionResult
	done     chan struct{}
}

func NewResultCollector(expected int) *ResultCollector {
	c := &ResultCollector{
		expected: expected,
		lock:     &sync.Mutex{},
		done:     make(chan struct{}),
	}
	if expected <= 0 {
		close(c.done)
	}
	return c
}

func (c *ResultCollector) AuctionCompleted(result auctiontypes.AuctionResult) {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.results = append(c.results, result)
	if len(c.results) == c.expected {
		close(c.done)
	}
}

func (c *ResultCollector) Results() []auctiontypes.AuctionResult {
	c.lock.Lock()
	defer c.lock.Unlock()

	return append([]auctiontypes.AuctionResult{}, c.results...)
}

func (c *ResultCollector) Done() <-chan struct{} {
	return c.done
}
