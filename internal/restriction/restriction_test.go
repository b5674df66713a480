package restriction

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"ledgerguard/internal/blacklist"
	"ledgerguard/internal/whitelist"
	dErrors "ledgerguard/pkg/domain-errors"
)

var (
	owner = common.HexToAddress("0x0000000000000000000000000000000000000001")
	alice = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob   = common.HexToAddress("0x00000000000000000000000000000000000000b0")
)

type EngineSuite struct {
	suite.Suite
	wl     *whitelist.Directory
	bl     *blacklist.Directory
	engine *Engine
	cfg    Config
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	s.wl = whitelist.NewDirectory(true)
	s.bl = blacklist.NewDirectory(true)
	s.engine = New(s.wl, s.bl, WithOwnerChecker(func(a common.Address) bool { return a == owner }))
	s.cfg = Config{RestrictionsEnabled: true, BlacklistEnabled: true, WhitelistEnabled: true}

	_, err := s.wl.Assign(alice, 1)
	s.Require().NoError(err)
	_, err = s.wl.Assign(bob, 2)
	s.Require().NoError(err)
	s.wl.SetOutbound(1, 2, true)
}

func (s *EngineSuite) eval(from, to common.Address) Code {
	return s.engine.Evaluate(s.cfg, from, to, big.NewInt(10))
}

func (s *EngineSuite) TestOrdering() {
	s.Run("routed pair succeeds", func() {
		s.Equal(Success, s.eval(alice, bob))
	})

	s.Run("reverse direction is not whitelisted", func() {
		s.Equal(NonWhitelist, s.eval(bob, alice))
	})

	s.Run("blacklist beats whitelist", func() {
		s.Require().NoError(s.bl.Add(alice))
		s.Equal(Blacklisted, s.eval(bob, alice))
		s.Equal(Blacklisted, s.eval(alice, bob))
	})

	s.Run("pause dominates every other check", func() {
		s.cfg.Paused = true
		s.Equal(Paused, s.eval(alice, bob))
		s.Equal(Paused, s.eval(owner, bob))
	})
}

func (s *EngineSuite) TestSwitches() {
	s.Run("whitelist disabled skips routing", func() {
		s.cfg.WhitelistEnabled = false
		s.Equal(Success, s.eval(bob, alice))
	})

	s.Run("blacklist disabled ignores flags", func() {
		s.Require().NoError(s.bl.Add(bob))
		s.cfg.BlacklistEnabled = false
		s.Equal(Success, s.eval(bob, alice))
	})

	s.Run("restrictions disabled skips list checks but not pause", func() {
		s.cfg.BlacklistEnabled = true
		s.cfg.WhitelistEnabled = true
		s.cfg.RestrictionsEnabled = false
		s.Equal(Success, s.eval(bob, alice))
		s.cfg.Paused = true
		s.Equal(Paused, s.eval(bob, alice))
	})
}

func (s *EngineSuite) TestOwnerExemption() {
	s.Equal(NonWhitelist, s.eval(owner, bob), "exemption is opt-in")
	s.cfg.ExemptOwners = true
	s.Equal(Success, s.eval(owner, bob))
	s.Equal(NonWhitelist, s.eval(bob, owner), "only the sender is exempt")
}

func (s *EngineSuite) TestAmountIsIgnored() {
	for _, amount := range []*big.Int{big.NewInt(0), big.NewInt(1), new(big.Int).Lsh(big.NewInt(1), 200)} {
		s.Equal(Success, s.engine.Evaluate(s.cfg, alice, bob, amount))
		s.Equal(NonWhitelist, s.engine.Evaluate(s.cfg, bob, alice, amount))
	}
}

func TestMessageFor(t *testing.T) {
	assert.Equal(t, "SUCCESS", MessageFor(Success))
	assert.Equal(t, "The transfer was restricted due to white list configuration.", MessageFor(NonWhitelist))
	assert.Equal(t, "The transfer was restricted due to the contract being paused.", MessageFor(Paused))
	assert.Equal(t, "Restricted due to blacklist", MessageFor(Blacklisted))
	assert.Equal(t, UnknownMessage, MessageFor(Code(200)))
}

func TestError(t *testing.T) {
	require.NoError(t, Error(Success))

	err := Error(Paused)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeRestricted))
	de, ok := dErrors.As(err)
	require.True(t, ok)
	assert.Equal(t, uint8(2), de.Fields["restriction_code"])
}
