package auctionrunner

import (
	"sync"

	"github.com/marketsim/auction/auctiontypes"
)

// Batch queues items submitted from outside the coordinator until the
// coordinator drains them into its catalog.
type Batch struct {
	items   []auctiontypes.Item
	lock    *sync.Mutex
	HasWork chan struct{}
}

func NewBatch() *Batch {
	return &Batch{
		items:   []auctiontypes.Item{},
		lock:    &sync.Mutex{},
		HasWork: make(chan struct{}, 1),
	}
}

func (b *Batch) AddItems(items []auctiontypes.Item) {
	if len(items) == 0 {
		return
	}

	b.lock.Lock()
	b.items = append(b.items, items...)
	b.claimToHaveWork()
	b.lock.Unlock()
}

// DedupeAndDrain empties the batch. When a name was submitted more than
// once the last price wins and the first position is kept.
func (b *Batch) DedupeAndDrain() []auctiontypes.Item {
	b.lock.Lock()
	items := b.items
	b.items = []auctiontypes.Item{}
	select {
	case <-b.HasWork:
	default:
	}
	b.lock.Unlock()

	deduped := []auctiontypes.Item{}
	position := map[string]int{}
	for _, item := range items {
		if i, present := position[item.Name]; present {
			deduped[i].InitialPrice = item.InitialPrice
			continue
		}
		position[item.Name] = len(deduped)
		deduped = append(deduped, item)
	}

	return deduped
}

func (b *Batch) claimToHaveWork() {
	select {
	case b.HasWork <- struct{}{}:
	default:
	}
}
