package escrow

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/suite"

	dErrors "ledgerguard/pkg/domain-errors"
	"ledgerguard/pkg/platform/sentinel"
)

var (
	alice   = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob     = common.HexToAddress("0x00000000000000000000000000000000000000b0")
	spender = common.HexToAddress("0x00000000000000000000000000000000000000c5")
	admin   = common.HexToAddress("0x00000000000000000000000000000000000000ad")
)

type EscrowSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
	now   time.Time
}

func TestEscrowSuite(t *testing.T) {
	suite.Run(t, new(EscrowSuite))
}

func (s *EscrowSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
	s.now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
}

func (s *EscrowSuite) newProposal(creator common.Address) *Proposal {
	p, err := NewProposal(creator, alice, bob, big.NewInt(10), s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(s.ctx, p))
	return p
}

func (s *EscrowSuite) TestSequentialIDs() {
	for want := uint64(0); want < 3; want++ {
		p := s.newProposal(alice)
		s.Equal(want, p.ID)
	}
	count, err := s.store.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(uint64(3), count)

	_, err = s.store.FindByID(s.ctx, 3)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *EscrowSuite) TestTransitions() {
	s.Run("approve from pending", func() {
		p := s.newProposal(alice)
		s.Require().NoError(p.CanApprove())
		p.ApplyApproval(admin, s.now)
		s.Equal(StateApproved, p.State)
		s.Equal(admin, p.UpdatedBy)

		err := p.CanApprove()
		s.Require().Error(err)
		s.Equal(MsgNotValidAccept, err.Error())
		s.Equal(MsgNotValidReject, p.CanReject().Error())
		s.Equal(MsgNotValidCancel, p.CanCancel(alice).Error())
	})

	s.Run("reject from pending", func() {
		p := s.newProposal(alice)
		s.Require().NoError(p.CanReject())
		p.ApplyRejection(admin, s.now)
		s.True(p.State.IsTerminal())
		s.True(dErrors.HasCode(p.CanApprove(), dErrors.CodeInvariantViolation))
	})

	s.Run("cancel requires creator", func() {
		p := s.newProposal(spender)
		err := p.CanCancel(alice)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
		s.Equal(MsgNotValidCreator, err.Error())

		s.Require().NoError(p.CanCancel(spender))
		p.ApplyCancellation(spender, s.now)
		s.Equal(StateCanceled, p.State)
	})

	s.Run("creator check precedes state check", func() {
		p := s.newProposal(alice)
		p.ApplyApproval(admin, s.now)
		s.Equal(MsgNotValidCreator, p.CanCancel(bob).Error())
	})
}

func (s *EscrowSuite) TestStoreIsolation() {
	p := s.newProposal(alice)
	p.ApplyApproval(admin, s.now)
	p.Amount.SetInt64(999)

	stored, err := s.store.FindByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(StatePending, stored.State, "callers mutate copies until Update")
	s.Equal(int64(10), stored.Amount.Int64())

	s.Require().NoError(s.store.Update(s.ctx, p))
	pending, err := s.store.ListByState(s.ctx, StatePending)
	s.Require().NoError(err)
	s.Empty(pending)
}

func (s *EscrowSuite) TestNewProposalValidation() {
	_, err := NewProposal(alice, alice, common.Address{}, big.NewInt(1), s.now)
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	_, err = NewProposal(alice, alice, bob, big.NewInt(-1), s.now)
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}
