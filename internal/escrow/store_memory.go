// Package escrow owns transfer proposals and their resolution state machine.
package escrow

import (
	"context"
	"sync"

	"ledgerguard/pkg/platform/sentinel"
)

// InMemoryStore allocates proposal IDs sequentially from 0.
type InMemoryStore struct {
	mu        sync.RWMutex
	proposals []*Proposal
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// Create assigns the next ID to p and stores a copy.
func (s *InMemoryStore) Create(_ context.Context, p *Proposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = uint64(len(s.proposals))
	s.proposals = append(s.proposals, p.Clone())
	return nil
}

// FindByID returns sentinel.ErrNotFound for IDs that were never allocated.
func (s *InMemoryStore) FindByID(_ context.Context, id uint64) (*Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id >= uint64(len(s.proposals)) {
		return nil, sentinel.ErrNotFound
	}
	return s.proposals[id].Clone(), nil
}

// Update replaces the stored proposal with the same ID.
func (s *InMemoryStore) Update(_ context.Context, p *Proposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID >= uint64(len(s.proposals)) {
		return sentinel.ErrNotFound
	}
	s.proposals[p.ID] = p.Clone()
	return nil
}

// Count returns the number of allocated IDs.
func (s *InMemoryStore) Count(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.proposals)), nil
}

// ListByState returns proposals in the given state, in ID order.
func (s *InMemoryStore) ListByState(_ context.Context, state State) ([]*Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Proposal
	for _, p := range s.proposals {
		if p.State == state {
			out = append(out, p.Clone())
		}
	}
	return out, nil
}
