package ledger

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/suite"

	dErrors "ledgerguard/pkg/domain-errors"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob   = common.HexToAddress("0x00000000000000000000000000000000000000b0")
)

type LedgerSuite struct {
	suite.Suite
	ledger *Ledger
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(LedgerSuite))
}

func (s *LedgerSuite) SetupTest() {
	s.ledger = New()
	s.Require().NoError(s.ledger.Mint(alice, big.NewInt(100)))
}

func (s *LedgerSuite) assertBalance(addr common.Address, available, locked int64) {
	s.T().Helper()
	s.Zero(big.NewInt(available).Cmp(s.ledger.BalanceOf(addr)), "available of %s", addr.Hex())
	s.Zero(big.NewInt(locked).Cmp(s.ledger.LockedOf(addr)), "locked of %s", addr.Hex())
}

func (s *LedgerSuite) TestMintBurn() {
	s.assertBalance(alice, 100, 0)
	s.Equal(int64(100), s.ledger.TotalSupply().Int64())

	s.Require().NoError(s.ledger.Burn(alice, big.NewInt(40)))
	s.assertBalance(alice, 60, 0)
	s.Equal(int64(60), s.ledger.TotalSupply().Int64())

	err := s.ledger.Burn(alice, big.NewInt(61))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInsufficientFunds))
	s.assertBalance(alice, 60, 0)

	s.True(dErrors.HasCode(s.ledger.Mint(common.Address{}, big.NewInt(1)), dErrors.CodeOutOfRange))
}

func (s *LedgerSuite) TestMove() {
	s.Require().NoError(s.ledger.Move(alice, bob, big.NewInt(30)))
	s.assertBalance(alice, 70, 0)
	s.assertBalance(bob, 30, 0)

	err := s.ledger.Move(bob, alice, big.NewInt(31))
	s.Require().Error(err)
	s.Equal("ERC20: transfer amount exceeds balance", err.Error())
	s.assertBalance(bob, 30, 0)

	s.True(dErrors.HasCode(s.ledger.Move(alice, common.Address{}, big.NewInt(1)), dErrors.CodeOutOfRange))
}

func (s *LedgerSuite) TestAllowance() {
	s.Require().NoError(s.ledger.Approve(alice, bob, big.NewInt(50)))
	s.Equal(int64(50), s.ledger.Allowance(alice, bob).Int64())

	err := s.ledger.SpendAllowance(alice, bob, big.NewInt(51))
	s.Require().Error(err)
	s.Equal("ERC20: transfer amount exceeds allowance", err.Error())

	s.Require().NoError(s.ledger.SpendAllowance(alice, bob, big.NewInt(20)))
	s.Equal(int64(30), s.ledger.Allowance(alice, bob).Int64())
	s.Zero(s.ledger.Allowance(bob, alice).Sign())
}

func (s *LedgerSuite) TestEscrowLifecycle() {
	s.Run("lock moves funds out of available", func() {
		s.Require().NoError(s.ledger.Lock(alice, big.NewInt(25)))
		s.assertBalance(alice, 75, 25)
		s.Equal(int64(100), s.ledger.TotalSupply().Int64())
	})

	s.Run("locked funds cannot be spent", func() {
		err := s.ledger.Move(alice, bob, big.NewInt(76))
		s.True(dErrors.HasCode(err, dErrors.CodeInsufficientFunds))
	})

	s.Run("settle credits destination", func() {
		s.Require().NoError(s.ledger.Settle(alice, bob, big.NewInt(10)))
		s.assertBalance(alice, 75, 15)
		s.assertBalance(bob, 10, 0)
	})

	s.Run("unlock restores source", func() {
		s.Require().NoError(s.ledger.Unlock(alice, big.NewInt(15)))
		s.assertBalance(alice, 90, 0)
	})

	s.Run("releasing more than locked fails", func() {
		err := s.ledger.Unlock(alice, big.NewInt(1))
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}
