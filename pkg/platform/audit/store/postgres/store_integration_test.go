//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	audit "ledgerguard/pkg/platform/audit"
	"ledgerguard/pkg/platform/audit/store/postgres"
	"ledgerguard/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *postgres.Store
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = postgres.New(s.postgres.DB)
	s.Require().NoError(s.store.Migrate(context.Background()))
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "audit_events"))
}

func (s *PostgresStoreSuite) event(action audit.AuditEvent, subject string, at time.Time) audit.Event {
	return audit.Event{
		ID:        uuid.New(),
		Category:  action.Category(),
		Timestamp: at,
		Action:    string(action),
		Subject:   subject,
		ActorID:   "0x0000000000000000000000000000000000000001",
		Details:   map[string]string{"amount": "10"},
	}
}

func (s *PostgresStoreSuite) TestAppendIsIdempotent() {
	ctx := context.Background()
	e := s.event(audit.EventMint, "0xa", time.Now())

	s.Require().NoError(s.store.Append(ctx, e))
	s.Require().NoError(s.store.Append(ctx, e))

	events, err := s.store.ListBySubject(ctx, "0xa")
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(e.ID, events[0].ID)
	s.Equal("10", events[0].Details["amount"])
	s.Equal(audit.CategoryCompliance, events[0].Category)
}

func (s *PostgresStoreSuite) TestListByActions() {
	ctx := context.Background()
	base := time.Now().Add(-time.Minute)
	s.Require().NoError(s.store.Append(ctx, s.event(audit.EventPaused, "0xa", base)))
	s.Require().NoError(s.store.Append(ctx, s.event(audit.EventTransfer, "0xb", base.Add(time.Second))))
	s.Require().NoError(s.store.Append(ctx, s.event(audit.EventUnpaused, "0xa", base.Add(2*time.Second))))

	events, err := s.store.ListByActions(ctx, []string{string(audit.EventPaused), string(audit.EventUnpaused)}, 10)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(string(audit.EventUnpaused), events[0].Action)

	recent, err := s.store.ListRecent(ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(recent, 1)
	s.Equal(string(audit.EventUnpaused), recent[0].Action)
}
