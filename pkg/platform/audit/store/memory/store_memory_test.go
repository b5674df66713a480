package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	audit "ledgerguard/pkg/platform/audit"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
	for _, e := range []audit.Event{
		{Action: string(audit.EventPaused), Subject: "0xa"},
		{Action: string(audit.EventMint), Subject: "0xb"},
		{Action: string(audit.EventUnpaused), Subject: "0xa"},
	} {
		s.Require().NoError(s.store.Append(s.ctx, e))
	}
}

func (s *InMemoryStoreSuite) TestListRecent() {
	events, err := s.store.ListRecent(s.ctx, 2)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(string(audit.EventUnpaused), events[0].Action)
	s.Equal(string(audit.EventMint), events[1].Action)
}

func (s *InMemoryStoreSuite) TestListBySubject() {
	events, err := s.store.ListBySubject(s.ctx, "0xa")
	s.Require().NoError(err)
	s.Len(events, 2)
}

func (s *InMemoryStoreSuite) TestListByActions() {
	events, err := s.store.ListByActions(s.ctx, []string{string(audit.EventPaused), string(audit.EventMint)}, 0)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(string(audit.EventMint), events[0].Action)
}

func (s *InMemoryStoreSuite) TestClear() {
	s.store.Clear()
	events, err := s.store.ListRecent(s.ctx, 10)
	s.Require().NoError(err)
	s.Empty(events)
}
