package directory

import (
	"fmt"
	"sync"

	"github.com/marketsim/auction/auctiontypes"
)

// Registry is the in-memory yellow pages: party ids grouped by the service
// kind they registered under, in registration order.
type Registry struct {
	lock    *sync.RWMutex
	parties map[string][]string
}

func NewRegistry() *Registry {
	return &Registry{
		lock:    &sync.RWMutex{},
		parties: map[string][]string{},
	}
}

func (r *Registry) Register(serviceKind, partyID string) error {
	if serviceKind == "" || partyID == "" {
		return fmt.Errorf("register: service kind and party id are required")
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	for _, id := range r.parties[serviceKind] {
		if id == partyID {
			return nil
		}
	}
	r.parties[serviceKind] = append(r.parties[serviceKind], partyID)
	return nil
}

func (r *Registry) Deregister(partyID string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	found := false
	for kind, ids := range r.parties {
		kept := make([]string, 0, len(ids))
		for _, id := range ids {
			if id == partyID {
				found = true
				continue
			}
			kept = append(kept, id)
		}
		r.parties[kind] = kept
	}

	if !found {
		return fmt.Errorf("%w: %s", auctiontypes.ErrUnknownParty, partyID)
	}
	return nil
}

func (r *Registry) Search(serviceKind string) ([]string, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return append([]string{}, r.parties[serviceKind]...), nil
}

var _ auctiontypes.Directory = (*Registry)(nil)
