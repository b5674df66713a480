package token

import (
	"context"
	"math/big"

	"ledgerguard/internal/escrow"
	"ledgerguard/internal/restriction"
	"ledgerguard/internal/roles"
	"ledgerguard/pkg/domain"
	dErrors "ledgerguard/pkg/domain-errors"
	audit "ledgerguard/pkg/platform/audit"
)

// Mint credits amount to to and grows the supply.
func (s *Service) Mint(ctx context.Context, to domain.Address, amount *big.Int) error {
	return s.execute(ctx, "mint", func(_ context.Context, call *Call) error {
		if err := s.state.Roles.Authorize(roles.Minter, call.Caller); err != nil {
			return err
		}
		if err := s.state.Ledger.Mint(to, amount); err != nil {
			return err
		}
		call.record(audit.EventMint, to, map[string]string{
			"minter": call.Caller.Hex(),
			"to":     to.Hex(),
			"amount": amountString(amount),
		})
		return nil
	})
}

// Burn destroys amount of from's available balance.
func (s *Service) Burn(ctx context.Context, from domain.Address, amount *big.Int) error {
	return s.execute(ctx, "burn", func(_ context.Context, call *Call) error {
		if err := s.state.Roles.Authorize(roles.Burner, call.Caller); err != nil {
			return err
		}
		if err := s.state.Ledger.Burn(from, amount); err != nil {
			return err
		}
		call.record(audit.EventBurn, from, map[string]string{
			"burner": call.Caller.Hex(),
			"from":   from.Hex(),
			"amount": amountString(amount),
		})
		return nil
	})
}

// Revoke moves amount from from to the calling Revoker.
func (s *Service) Revoke(ctx context.Context, from domain.Address, amount *big.Int) error {
	return s.execute(ctx, "revoke", func(_ context.Context, call *Call) error {
		if err := s.state.Roles.Authorize(roles.Revoker, call.Caller); err != nil {
			return err
		}
		if err := s.state.Ledger.Move(from, call.Caller, amount); err != nil {
			return err
		}
		call.record(audit.EventRevoke, from, map[string]string{
			"revoker": call.Caller.Hex(),
			"from":    from.Hex(),
			"amount":  amountString(amount),
		})
		return nil
	})
}

// Approve sets the caller's allowance for spender.
func (s *Service) Approve(ctx context.Context, spender domain.Address, amount *big.Int) error {
	return s.execute(ctx, "approve", func(_ context.Context, call *Call) error {
		if err := s.state.Ledger.Approve(call.Caller, spender, amount); err != nil {
			return err
		}
		call.record(audit.EventApproval, call.Caller, map[string]string{
			"owner":   call.Caller.Hex(),
			"spender": spender.Hex(),
			"amount":  amountString(amount),
		})
		return nil
	})
}

// Transfer sends amount from the caller to to through the active logic.
func (s *Service) Transfer(ctx context.Context, to domain.Address, amount *big.Int) error {
	return s.execute(ctx, "transfer", func(ctx context.Context, call *Call) error {
		if err := s.restrict(call.Caller, to, amount); err != nil {
			return err
		}
		impl, err := s.activeLogic()
		if err != nil {
			return err
		}
		if err := impl.Transfer(ctx, s.state, call, to, amount); err != nil {
			return err
		}
		s.countProposals(impl, escrow.StatePending)
		return nil
	})
}

// TransferFrom spends the caller's allowance on from to send amount to to.
func (s *Service) TransferFrom(ctx context.Context, from, to domain.Address, amount *big.Int) error {
	return s.execute(ctx, "transfer_from", func(ctx context.Context, call *Call) error {
		if err := s.restrict(from, to, amount); err != nil {
			return err
		}
		impl, err := s.activeLogic()
		if err != nil {
			return err
		}
		if err := impl.TransferFrom(ctx, s.state, call, from, to, amount); err != nil {
			return err
		}
		s.countProposals(impl, escrow.StatePending)
		return nil
	})
}

func (s *Service) ApproveTransferProposal(ctx context.Context, id uint64) error {
	return s.resolve(ctx, "approve_transfer_proposal", escrow.StateApproved, func(ctx context.Context, r EscrowResolver, call *Call) error {
		return r.ApproveProposal(ctx, s.state, call, id)
	})
}

func (s *Service) RejectTransferProposal(ctx context.Context, id uint64) error {
	return s.resolve(ctx, "reject_transfer_proposal", escrow.StateRejected, func(ctx context.Context, r EscrowResolver, call *Call) error {
		return r.RejectProposal(ctx, s.state, call, id)
	})
}

func (s *Service) CancelTransferProposal(ctx context.Context, id uint64) error {
	return s.resolve(ctx, "cancel_transfer_proposal", escrow.StateCanceled, func(ctx context.Context, r EscrowResolver, call *Call) error {
		return r.CancelProposal(ctx, s.state, call, id)
	})
}

func (s *Service) resolve(ctx context.Context, op string, target escrow.State, fn func(context.Context, EscrowResolver, *Call) error) error {
	return s.execute(ctx, op, func(ctx context.Context, call *Call) error {
		impl, err := s.activeLogic()
		if err != nil {
			return err
		}
		resolver, ok := impl.(EscrowResolver)
		if !ok {
			return dErrors.New(dErrors.CodeUnsupported, "transfer proposals are not supported by the active logic")
		}
		if err := fn(ctx, resolver, call); err != nil {
			return err
		}
		s.metrics.IncProposalTransition(target.String())
		return nil
	})
}

// restrict evaluates the engine and converts a non-success code to an error.
func (s *Service) restrict(from, to domain.Address, amount *big.Int) error {
	code := s.engine.Evaluate(s.state.RestrictionConfig(s.cfg.ExemptOwners), from, to, amount)
	s.metrics.IncRestrictionOutcome(code.String())
	return restriction.Error(code)
}

func (s *Service) countProposals(impl Logic, state escrow.State) {
	if _, ok := impl.(EscrowResolver); ok {
		s.metrics.IncProposalTransition(state.String())
	}
}

// Evaluate returns the restriction code a transfer would receive now.
func (s *Service) Evaluate(from, to domain.Address, amount *big.Int) restriction.Code {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.Evaluate(s.state.RestrictionConfig(s.cfg.ExemptOwners), from, to, amount)
}

// MessageFor returns the human-readable text of a restriction code.
func (s *Service) MessageFor(code restriction.Code) string {
	return restriction.MessageFor(code)
}

func (s *Service) BalanceOf(addr domain.Address) *big.Int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Ledger.BalanceOf(addr)
}

func (s *Service) LockedOf(addr domain.Address) *big.Int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Ledger.LockedOf(addr)
}

func (s *Service) Allowance(owner, spender domain.Address) *big.Int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Ledger.Allowance(owner, spender)
}

func (s *Service) TotalSupply() *big.Int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Ledger.TotalSupply()
}

// GetProposal returns a copy of proposal id.
func (s *Service) GetProposal(ctx context.Context, id uint64) (*escrow.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return loadProposal(ctx, s.state, id)
}

func (s *Service) ProposalCount(ctx context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, err := s.state.Proposals.Count(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count proposals")
	}
	return n, nil
}

// ListProposals returns the proposals in state, in ID order.
func (s *Service) ListProposals(ctx context.Context, state escrow.State) ([]*escrow.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ps, err := s.state.Proposals.ListByState(ctx, state)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list proposals")
	}
	return ps, nil
}
