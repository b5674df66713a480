package roles

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/suite"

	dErrors "ledgerguard/pkg/domain-errors"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob   = common.HexToAddress("0x00000000000000000000000000000000000000b0")
)

type RegistrySuite struct {
	suite.Suite
	registry *Registry
}

func (s *RegistrySuite) SetupTest() {
	s.registry = NewRegistry()
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) TestMembership() {
	s.Run("add then has", func() {
		s.Require().NoError(s.registry.Add(Pauser, alice))
		s.True(s.registry.Has(Pauser, alice))
		s.False(s.registry.Has(Minter, alice), "roles are independent")
	})

	s.Run("duplicate add is a conflict", func() {
		err := s.registry.Add(Pauser, alice)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("remove non-member is a conflict", func() {
		err := s.registry.Remove(Pauser, bob)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("zero address is out of range", func() {
		err := s.registry.Add(Minter, common.Address{})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeOutOfRange))
		s.Equal("Invalid 0x0 address", err.Error())
	})

	s.Run("remove clears membership", func() {
		s.Require().NoError(s.registry.Remove(Pauser, alice))
		s.False(s.registry.Has(Pauser, alice))
	})
}

func (s *RegistrySuite) TestAuthorize() {
	s.Require().NoError(s.registry.Add(Whitelister, alice))

	s.NoError(s.registry.Authorize(Whitelister, alice))

	err := s.registry.Authorize(Whitelister, bob)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	s.Equal("WhitelisterRole: caller does not have the Whitelister role", err.Error())
}

func (s *RegistrySuite) TestMembersAndRolesOf() {
	s.Require().NoError(s.registry.Add(Burner, bob))
	s.Require().NoError(s.registry.Add(Burner, alice))
	s.Require().NoError(s.registry.Add(Revoker, alice))

	s.Equal([]common.Address{alice, bob}, s.registry.Members(Burner))
	s.Equal([]Role{Burner, Revoker}, s.registry.RolesOf(alice))
}

func (s *RegistrySuite) TestParseRole() {
	r, err := ParseRole("blacklister")
	s.Require().NoError(err)
	s.Equal(Blacklister, r)

	_, err = ParseRole("superuser")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}
