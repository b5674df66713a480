// Package ledger keeps balances, allowances and total supply.
//
// Each account has an available balance (spendable, reported by BalanceOf)
// and a locked balance (held in escrow). Every mutating method validates
// before it writes, and every Can* method performs the same validation
// without writing so callers can check composite operations up front.
package ledger

import (
	"math/big"

	"ledgerguard/pkg/domain"
	dErrors "ledgerguard/pkg/domain-errors"
)

const (
	msgExceedsBalance   = "ERC20: transfer amount exceeds balance"
	msgExceedsAllowance = "ERC20: transfer amount exceeds allowance"
	msgBurnExceeds      = "ERC20: burn amount exceeds balance"
	msgExceedsLocked    = "locked amount exceeds escrowed balance"
)

// Ledger is not safe for concurrent use; the token service serializes access.
type Ledger struct {
	available  map[domain.Address]*big.Int
	locked     map[domain.Address]*big.Int
	allowances map[domain.Address]map[domain.Address]*big.Int
	supply     *big.Int
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{
		available:  make(map[domain.Address]*big.Int),
		locked:     make(map[domain.Address]*big.Int),
		allowances: make(map[domain.Address]map[domain.Address]*big.Int),
		supply:     new(big.Int),
	}
}

func get(m map[domain.Address]*big.Int, addr domain.Address) *big.Int {
	if v, ok := m[addr]; ok {
		return v
	}
	return new(big.Int)
}

func set(m map[domain.Address]*big.Int, addr domain.Address, v *big.Int) {
	if v.Sign() == 0 {
		delete(m, addr)
		return
	}
	m[addr] = v
}

func validAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "amount must not be negative")
	}
	return nil
}

// BalanceOf returns the spendable balance of addr.
func (l *Ledger) BalanceOf(addr domain.Address) *big.Int {
	return new(big.Int).Set(get(l.available, addr))
}

// LockedOf returns the amount of addr's funds held in escrow.
func (l *Ledger) LockedOf(addr domain.Address) *big.Int {
	return new(big.Int).Set(get(l.locked, addr))
}

// TotalSupply includes locked funds.
func (l *Ledger) TotalSupply() *big.Int {
	return new(big.Int).Set(l.supply)
}

// Allowance returns how much spender may still move on behalf of owner.
func (l *Ledger) Allowance(owner, spender domain.Address) *big.Int {
	if byOwner, ok := l.allowances[owner]; ok {
		if v, ok := byOwner[spender]; ok {
			return new(big.Int).Set(v)
		}
	}
	return new(big.Int)
}

func (l *Ledger) CanMint(to domain.Address, amount *big.Int) error {
	if err := validAmount(amount); err != nil {
		return err
	}
	if domain.IsZero(to) {
		return dErrors.New(dErrors.CodeOutOfRange, "ERC20: mint to the zero address")
	}
	return nil
}

// Mint creates amount and credits it to to.
func (l *Ledger) Mint(to domain.Address, amount *big.Int) error {
	if err := l.CanMint(to, amount); err != nil {
		return err
	}
	set(l.available, to, new(big.Int).Add(get(l.available, to), amount))
	l.supply.Add(l.supply, amount)
	return nil
}

func (l *Ledger) CanBurn(from domain.Address, amount *big.Int) error {
	if err := validAmount(amount); err != nil {
		return err
	}
	if get(l.available, from).Cmp(amount) < 0 {
		return dErrors.New(dErrors.CodeInsufficientFunds, msgBurnExceeds)
	}
	return nil
}

// Burn destroys amount of from's available balance.
func (l *Ledger) Burn(from domain.Address, amount *big.Int) error {
	if err := l.CanBurn(from, amount); err != nil {
		return err
	}
	set(l.available, from, new(big.Int).Sub(get(l.available, from), amount))
	l.supply.Sub(l.supply, amount)
	return nil
}

func (l *Ledger) CanMove(from, to domain.Address, amount *big.Int) error {
	if err := validAmount(amount); err != nil {
		return err
	}
	if domain.IsZero(to) {
		return dErrors.New(dErrors.CodeOutOfRange, "ERC20: transfer to the zero address")
	}
	if get(l.available, from).Cmp(amount) < 0 {
		return dErrors.New(dErrors.CodeInsufficientFunds, msgExceedsBalance)
	}
	return nil
}

// Move debits from and credits to.
func (l *Ledger) Move(from, to domain.Address, amount *big.Int) error {
	if err := l.CanMove(from, to, amount); err != nil {
		return err
	}
	set(l.available, from, new(big.Int).Sub(get(l.available, from), amount))
	set(l.available, to, new(big.Int).Add(get(l.available, to), amount))
	return nil
}

// Approve replaces owner's allowance for spender.
func (l *Ledger) Approve(owner, spender domain.Address, amount *big.Int) error {
	if err := validAmount(amount); err != nil {
		return err
	}
	if domain.IsZero(spender) {
		return dErrors.New(dErrors.CodeOutOfRange, "ERC20: approve to the zero address")
	}
	byOwner, ok := l.allowances[owner]
	if !ok {
		byOwner = make(map[domain.Address]*big.Int)
		l.allowances[owner] = byOwner
	}
	set(byOwner, spender, new(big.Int).Set(amount))
	return nil
}

func (l *Ledger) CanSpendAllowance(owner, spender domain.Address, amount *big.Int) error {
	if err := validAmount(amount); err != nil {
		return err
	}
	if l.Allowance(owner, spender).Cmp(amount) < 0 {
		return dErrors.New(dErrors.CodeInsufficientFunds, msgExceedsAllowance)
	}
	return nil
}

// SpendAllowance decrements owner's allowance for spender.
func (l *Ledger) SpendAllowance(owner, spender domain.Address, amount *big.Int) error {
	if err := l.CanSpendAllowance(owner, spender, amount); err != nil {
		return err
	}
	byOwner := l.allowances[owner]
	if byOwner == nil {
		return nil
	}
	set(byOwner, spender, new(big.Int).Sub(get(byOwner, spender), amount))
	return nil
}

func (l *Ledger) CanLock(from domain.Address, amount *big.Int) error {
	if err := validAmount(amount); err != nil {
		return err
	}
	if get(l.available, from).Cmp(amount) < 0 {
		return dErrors.New(dErrors.CodeInsufficientFunds, msgExceedsBalance)
	}
	return nil
}

// Lock moves amount from from's available balance into escrow.
func (l *Ledger) Lock(from domain.Address, amount *big.Int) error {
	if err := l.CanLock(from, amount); err != nil {
		return err
	}
	set(l.available, from, new(big.Int).Sub(get(l.available, from), amount))
	set(l.locked, from, new(big.Int).Add(get(l.locked, from), amount))
	return nil
}

func (l *Ledger) canRelease(from domain.Address, amount *big.Int) error {
	if err := validAmount(amount); err != nil {
		return err
	}
	if get(l.locked, from).Cmp(amount) < 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, msgExceedsLocked)
	}
	return nil
}

// Unlock returns escrowed funds to from's available balance.
func (l *Ledger) Unlock(from domain.Address, amount *big.Int) error {
	if err := l.canRelease(from, amount); err != nil {
		return err
	}
	set(l.locked, from, new(big.Int).Sub(get(l.locked, from), amount))
	set(l.available, from, new(big.Int).Add(get(l.available, from), amount))
	return nil
}

// Settle releases escrowed funds of from to to's available balance.
func (l *Ledger) Settle(from, to domain.Address, amount *big.Int) error {
	if err := l.canRelease(from, amount); err != nil {
		return err
	}
	set(l.locked, from, new(big.Int).Sub(get(l.locked, from), amount))
	set(l.available, to, new(big.Int).Add(get(l.available, to), amount))
	return nil
}
