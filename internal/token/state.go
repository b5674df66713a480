// Package token is the front door of the ledger: it serializes every
// operation, resolves the caller's roles, evaluates transfer restrictions and
// dispatches version-specific behavior to the active Logic implementation.
package token

import (
	"context"
	"math/big"

	"ledgerguard/internal/blacklist"
	"ledgerguard/internal/escrow"
	"ledgerguard/internal/ledger"
	"ledgerguard/internal/pause"
	"ledgerguard/internal/restriction"
	"ledgerguard/internal/roles"
	"ledgerguard/internal/whitelist"
	"ledgerguard/pkg/domain"
	dErrors "ledgerguard/pkg/domain-errors"
)

// ProposalStore persists escrow proposals.
type ProposalStore interface {
	Create(ctx context.Context, p *escrow.Proposal) error
	FindByID(ctx context.Context, id uint64) (*escrow.Proposal, error)
	Update(ctx context.Context, p *escrow.Proposal) error
	Count(ctx context.Context) (uint64, error)
	ListByState(ctx context.Context, state escrow.State) ([]*escrow.Proposal, error)
}

// State is the storage that survives logic upgrades. Only the Service
// touches it, and only while holding its lock.
type State struct {
	Ledger    *ledger.Ledger
	Roles     *roles.Registry
	Whitelist *whitelist.Directory
	Blacklist *blacklist.Directory
	Pause     *pause.State
	Proposals ProposalStore

	restrictionsEnabled bool
	logic               domain.Address
}

// Genesis seeds a new State.
type Genesis struct {
	Owner            domain.Address
	InitialSupply    *big.Int
	WhitelistEnabled bool
	BlacklistEnabled bool
	// Logic is the implementation address the front door starts on.
	Logic     domain.Address
	Proposals ProposalStore
}

// NewState grants Owner to the genesis owner and mints the initial supply to it.
func NewState(g Genesis) (*State, error) {
	if domain.IsZero(g.Logic) {
		return nil, dErrors.New(dErrors.CodeOutOfRange, "Contract Logic cannot be 0x0")
	}
	st := &State{
		Ledger:              ledger.New(),
		Roles:               roles.NewRegistry(),
		Whitelist:           whitelist.NewDirectory(g.WhitelistEnabled),
		Blacklist:           blacklist.NewDirectory(g.BlacklistEnabled),
		Pause:               &pause.State{},
		Proposals:           g.Proposals,
		restrictionsEnabled: true,
		logic:               g.Logic,
	}
	if st.Proposals == nil {
		st.Proposals = escrow.NewInMemoryStore()
	}
	if err := st.Roles.Add(roles.Owner, g.Owner); err != nil {
		return nil, err
	}
	if g.InitialSupply != nil && g.InitialSupply.Sign() > 0 {
		if err := st.Ledger.Mint(g.Owner, g.InitialSupply); err != nil {
			return nil, err
		}
	}
	return st, nil
}

// RestrictionsEnabled reports the master switch for list checks.
func (st *State) RestrictionsEnabled() bool {
	return st.restrictionsEnabled
}

// LogicAddress is the active implementation pointer.
func (st *State) LogicAddress() domain.Address {
	return st.logic
}

// RestrictionConfig snapshots the switches an evaluation runs against.
func (st *State) RestrictionConfig(exemptOwners bool) restriction.Config {
	return restriction.Config{
		Paused:              st.Pause.Paused(),
		RestrictionsEnabled: st.restrictionsEnabled,
		BlacklistEnabled:    st.Blacklist.Enabled(),
		WhitelistEnabled:    st.Whitelist.Enabled(),
		ExemptOwners:        exemptOwners,
	}
}
