package token

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"ledgerguard/pkg/domain"
	audit "ledgerguard/pkg/platform/audit"
)

// DirectLogic moves funds immediately.
type DirectLogic struct{}

func (DirectLogic) Name() string { return "direct" }

func (DirectLogic) ProxiableUUID() (common.Hash, error) { return ProxiableMarker, nil }

func (DirectLogic) Transfer(_ context.Context, st *State, call *Call, to domain.Address, amount *big.Int) error {
	if err := st.Ledger.Move(call.Caller, to, amount); err != nil {
		return err
	}
	recordTransfer(call, call.Caller, to, amount)
	return nil
}

// TransferFrom checks the balance before the allowance.
func (DirectLogic) TransferFrom(_ context.Context, st *State, call *Call, from, to domain.Address, amount *big.Int) error {
	if err := st.Ledger.CanMove(from, to, amount); err != nil {
		return err
	}
	if err := st.Ledger.CanSpendAllowance(from, call.Caller, amount); err != nil {
		return err
	}
	if err := st.Ledger.SpendAllowance(from, call.Caller, amount); err != nil {
		return err
	}
	if err := st.Ledger.Move(from, to, amount); err != nil {
		return err
	}
	recordTransfer(call, from, to, amount)
	return nil
}

func recordTransfer(call *Call, from, to domain.Address, amount *big.Int) {
	call.record(audit.EventTransfer, from, map[string]string{
		"from":   from.Hex(),
		"to":     to.Hex(),
		"amount": amountString(amount),
	})
}
