package catalog

import (
	"sync"

	"github.com/marketsim/auction/auctiontypes"
)

// Catalog holds the items still for sale in insertion order. Re-adding an
// existing name updates its price and keeps its position.
type Catalog struct {
	lock  *sync.RWMutex
	order []string
	price map[string]int
}

func New() *Catalog {
	return &Catalog{
		lock:  &sync.RWMutex{},
		price: map[string]int{},
	}
}

func (c *Catalog) Put(name string, price int) error {
	item := auctiontypes.Item{Name: name, InitialPrice: price}
	if err := item.Validate(); err != nil {
		return err
	}

	c.lock.Lock()
	defer c.lock.Unlock()

	if _, present := c.price[name]; !present {
		c.order = append(c.order, name)
	}
	c.price[name] = price
	return nil
}

func (c *Catalog) Remove(name string) (int, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()

	price, present := c.price[name]
	if !present {
		return 0, false
	}

	delete(c.price, name)
	for i, n := range c.order {
		if n == name {
			c.order = append(c.order[:i:i], c.order[i+1:]...)
			break
		}
	}
	return price, true
}

func (c *Catalog) IsEmpty() bool {
	return c.Len() == 0
}

func (c *Catalog) Len() int {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return len(c.order)
}

// FirstItem returns the oldest item name, or "" when the catalog is empty.
func (c *Catalog) FirstItem() string {
	c.lock.RLock()
	defer c.lock.RUnlock()
	if len(c.order) == 0 {
		return ""
	}
	return c.order[0]
}

// InitialPrice returns 0 for unknown names.
func (c *Catalog) InitialPrice(name string) int {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.price[name]
}

func (c *Catalog) Items() []auctiontypes.Item {
	c.lock.RLock()
	defer c.lock.RUnlock()

	items := make([]auctiontypes.Item, 0, len(c.order))
	for _, name := range c.order {
		items = append(items, auctiontypes.Item{Name: name, InitialPrice: c.price[name]})
	}
	return items
}

var _ auctiontypes.Catalog = (*Catalog)(nil)
