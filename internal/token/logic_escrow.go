package token

import (
	"context"
	"errors"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"ledgerguard/internal/escrow"
	"ledgerguard/internal/roles"
	"ledgerguard/pkg/domain"
	dErrors "ledgerguard/pkg/domain-errors"
	audit "ledgerguard/pkg/platform/audit"
	"ledgerguard/pkg/platform/sentinel"
)

// EscrowLogic defers every transfer into a Pending proposal that an Admin
// approves or rejects, or that its creator cancels. The proposed amount is
// locked in the sender's balance until resolution. Restrictions are not
// re-evaluated at resolution time.
type EscrowLogic struct{}

func (EscrowLogic) Name() string { return "escrow" }

func (EscrowLogic) ProxiableUUID() (common.Hash, error) { return ProxiableMarker, nil }

func (l EscrowLogic) Transfer(ctx context.Context, st *State, call *Call, to domain.Address, amount *big.Int) error {
	return l.propose(ctx, st, call, call.Caller, to, amount, false)
}

func (l EscrowLogic) TransferFrom(ctx context.Context, st *State, call *Call, from, to domain.Address, amount *big.Int) error {
	return l.propose(ctx, st, call, from, to, amount, true)
}

func (EscrowLogic) propose(ctx context.Context, st *State, call *Call, from, to domain.Address, amount *big.Int, onBehalf bool) error {
	if err := st.Ledger.CanMove(from, to, amount); err != nil {
		return err
	}
	if onBehalf {
		if err := st.Ledger.CanSpendAllowance(from, call.Caller, amount); err != nil {
			return err
		}
	}
	p, err := escrow.NewProposal(call.Caller, from, to, amount, call.Now)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to build proposal")
	}

	prevAllowance := st.Ledger.Allowance(from, call.Caller)
	if onBehalf {
		if err := st.Ledger.SpendAllowance(from, call.Caller, amount); err != nil {
			return err
		}
	}
	if err := st.Ledger.Lock(from, amount); err != nil {
		if onBehalf {
			_ = st.Ledger.Approve(from, call.Caller, prevAllowance)
		}
		return err
	}

	if err := st.Proposals.Create(ctx, p); err != nil {
		_ = st.Ledger.Unlock(from, amount)
		if onBehalf {
			_ = st.Ledger.Approve(from, call.Caller, prevAllowance)
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store proposal")
	}
	recordProposal(call, p)
	return nil
}

func (EscrowLogic) ApproveProposal(ctx context.Context, st *State, call *Call, id uint64) error {
	if err := st.Roles.Authorize(roles.Admin, call.Caller); err != nil {
		return err
	}
	p, err := loadProposal(ctx, st, id)
	if err != nil {
		return err
	}
	if err := p.CanApprove(); err != nil {
		return asConflict(err)
	}
	if err := ensureLocked(st, p); err != nil {
		return err
	}
	if err := st.Ledger.Settle(p.From, p.To, p.Amount); err != nil {
		return err
	}
	p.ApplyApproval(call.Caller, call.Now)
	if err := st.Proposals.Update(ctx, p); err != nil {
		_ = st.Ledger.Move(p.To, p.From, p.Amount)
		_ = st.Ledger.Lock(p.From, p.Amount)
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update proposal")
	}
	recordProposal(call, p)
	recordTransfer(call, p.From, p.To, p.Amount)
	return nil
}

func (EscrowLogic) RejectProposal(ctx context.Context, st *State, call *Call, id uint64) error {
	if err := st.Roles.Authorize(roles.Admin, call.Caller); err != nil {
		return err
	}
	p, err := loadProposal(ctx, st, id)
	if err != nil {
		return err
	}
	if err := p.CanReject(); err != nil {
		return asConflict(err)
	}
	p.ApplyRejection(call.Caller, call.Now)
	return release(ctx, st, call, p)
}

// CancelProposal returns the funds to the sender. A spent allowance is not restored.
func (EscrowLogic) CancelProposal(ctx context.Context, st *State, call *Call, id uint64) error {
	p, err := loadProposal(ctx, st, id)
	if err != nil {
		return err
	}
	if err := p.CanCancel(call.Caller); err != nil {
		return asConflict(err)
	}
	p.ApplyCancellation(call.Caller, call.Now)
	return release(ctx, st, call, p)
}

// release unlocks a rejected or canceled proposal's funds, then persists it.
func release(ctx context.Context, st *State, call *Call, p *escrow.Proposal) error {
	if err := ensureLocked(st, p); err != nil {
		return err
	}
	if err := st.Ledger.Unlock(p.From, p.Amount); err != nil {
		return err
	}
	if err := st.Proposals.Update(ctx, p); err != nil {
		_ = st.Ledger.Lock(p.From, p.Amount)
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update proposal")
	}
	recordProposal(call, p)
	return nil
}

func loadProposal(ctx context.Context, st *State, id uint64) (*escrow.Proposal, error) {
	p, err := st.Proposals.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeOutOfRange, escrow.MsgNotValidRange)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load proposal")
	}
	return p, nil
}

func ensureLocked(st *State, p *escrow.Proposal) error {
	if st.Ledger.LockedOf(p.From).Cmp(p.Amount) < 0 {
		return dErrors.New(dErrors.CodeInternal, "escrowed balance does not cover proposal")
	}
	return nil
}

// asConflict maps model invariant violations onto the API's state-conflict code.
func asConflict(err error) error {
	if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
		de, _ := dErrors.As(err)
		return dErrors.New(dErrors.CodeConflict, de.Message)
	}
	return err
}

func recordProposal(call *Call, p *escrow.Proposal) {
	call.record(audit.EventTransferProposalUpdated, p.From, map[string]string{
		"request_id": strconv.FormatUint(p.ID, 10),
		"state":      p.State.String(),
		"updated_by": call.Caller.Hex(),
		"creator":    p.Creator.Hex(),
		"from":       p.From.Hex(),
		"to":         p.To.Hex(),
		"amount":     amountString(p.Amount),
	})
}
