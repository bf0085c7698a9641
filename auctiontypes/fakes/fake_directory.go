package fakes

import (
	"sync"

	"github.com/marketsim/auction/auctiontypes"
)

type FakeDirectory struct {
	lock         *sync.Mutex
	parties      map[string][]string
	searchError  error
	searchCalls  []string
	deregistered []string
}

func NewFakeDirectory() *FakeDirectory {
	return &FakeDirectory{
		lock:    &sync.Mutex{},
		parties: map[string][]string{},
	}
}

func (d *FakeDirectory) Register(serviceKind, partyID string) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.parties[serviceKind] = append(d.parties[serviceKind], partyID)
	return nil
}

func (d *FakeDirectory) Deregister(partyID string) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.deregistered = append(d.deregistered, partyID)
	for kind, ids := range d.parties {
		kept := []string{}
		for _, id := range ids {
			if id != partyID {
				kept = append(kept, id)
			}
		}
		d.parties[kind] = kept
	}
	return nil
}

func (d *FakeDirectory) Search(serviceKind string) ([]string, error) {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.searchCalls = append(d.searchCalls, serviceKind)
	if d.searchError != nil {
		return nil, d.searchError
	}
	return append([]string{}, d.parties[serviceKind]...), nil
}

func (d *FakeDirectory) SetSearchError(err error) {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.searchError = err
}

func (d *FakeDirectory) SearchCallCount() int {
	d.lock.Lock()
	defer d.lock.Unlock()
	return len(d.searchCalls)
}

func (d *FakeDirectory) Registered(serviceKind string) []string {
	d.lock.Lock()
	defer d.lock.Unlock()
	return append([]string{}, d.parties[serviceKind]...)
}

func (d *FakeDirectory) Deregistered() []string {
	d.lock.Lock()
	defer d.lock.Unlock()
	return append([]string{}, d.deregistered...)
}

var _ auctiontypes.Directory = (*FakeDirectory)(nil)
