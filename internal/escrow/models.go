package escrow

import (
	"math/big"
	"time"

	"ledgerguard/pkg/domain"
	dErrors "ledgerguard/pkg/domain-errors"
)

// State of a transfer proposal. Values are stable and externally visible.
type State uint8

const (
	StatePending  State = 0
	StateApproved State = 1
	StateRejected State = 2
	StateCanceled State = 3
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateApproved:
		return "approved"
	case StateRejected:
		return "rejected"
	case StateCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether no further transition is possible.
func (s State) IsTerminal() bool {
	return s != StatePending
}

const (
	MsgNotValidAccept  = "Request must be in Pending state to approve."
	MsgNotValidReject  = "Request must be in Pending state to reject."
	MsgNotValidCancel  = "Request must be in Pending state to cancel."
	MsgNotValidCreator = "Only the creator of a request can cancel it"
	MsgNotValidRange   = "Request ID is not in proper range"
)

// Proposal is a deferred transfer awaiting resolution.
//
// Invariants:
//   - Amount is held in From's locked balance while State is Pending
//   - Pending is the only non-terminal state
//   - Creator is the caller that requested the transfer (From for a direct
//     transfer, the spender for a transfer on behalf of From)
//   - ID, Creator, From, To and Amount never change after construction
type Proposal struct {
	ID        uint64
	Creator   domain.Address
	From      domain.Address
	To        domain.Address
	Amount    *big.Int
	State     State
	CreatedAt time.Time
	UpdatedAt time.Time
	// UpdatedBy is the address that made the last transition.
	UpdatedBy domain.Address
}

// NewProposal builds a Pending proposal. The store assigns the ID.
func NewProposal(creator, from, to domain.Address, amount *big.Int, now time.Time) (*Proposal, error) {
	if amount == nil || amount.Sign() < 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "proposal amount must not be negative")
	}
	if domain.IsZero(to) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "proposal destination cannot be the zero address")
	}
	return &Proposal{
		Creator:   creator,
		From:      from,
		To:        to,
		Amount:    new(big.Int).Set(amount),
		State:     StatePending,
		CreatedAt: now,
		UpdatedAt: now,
		UpdatedBy: creator,
	}, nil
}

// CanApprove checks the Pending -> Approved transition.
func (p *Proposal) CanApprove() error {
	if p.State != StatePending {
		return dErrors.New(dErrors.CodeInvariantViolation, MsgNotValidAccept)
	}
	return nil
}

// ApplyApproval transitions to Approved. Call CanApprove first.
func (p *Proposal) ApplyApproval(by domain.Address, now time.Time) {
	p.transition(StateApproved, by, now)
}

// CanReject checks the Pending -> Rejected transition.
func (p *Proposal) CanReject() error {
	if p.State != StatePending {
		return dErrors.New(dErrors.CodeInvariantViolation, MsgNotValidReject)
	}
	return nil
}

// ApplyRejection transitions to Rejected. Call CanReject first.
func (p *Proposal) ApplyRejection(by domain.Address, now time.Time) {
	p.transition(StateRejected, by, now)
}

// CanCancel checks that caller created the proposal and that it is Pending.
// The creator check runs first.
func (p *Proposal) CanCancel(caller domain.Address) error {
	if caller != p.Creator {
		return dErrors.New(dErrors.CodeForbidden, MsgNotValidCreator)
	}
	if p.State != StatePending {
		return dErrors.New(dErrors.CodeInvariantViolation, MsgNotValidCancel)
	}
	return nil
}

// ApplyCancellation transitions to Canceled. Call CanCancel first.
func (p *Proposal) ApplyCancellation(by domain.Address, now time.Time) {
	p.transition(StateCanceled, by, now)
}

func (p *Proposal) transition(to State, by domain.Address, now time.Time) {
	p.State = to
	p.UpdatedBy = by
	p.UpdatedAt = now
}

// Clone returns a deep copy.
func (p *Proposal) Clone() *Proposal {
	cp := *p
	cp.Amount = new(big.Int).Set(p.Amount)
	return &cp
}
