package token

import (
	"sync"

	"ledgerguard/pkg/domain"
	dErrors "ledgerguard/pkg/domain-errors"
)

// Registry resolves implementation addresses to Logic values. It stands in
// for the code deployed at an address: UpdateCodeAddress can only point the
// front door at something registered here.
type Registry struct {
	mu    sync.RWMutex
	impls map[domain.Address]Logic
}

// NewRegistry returns a registry holding the direct and escrow built-ins.
func NewRegistry() *Registry {
	r := &Registry{impls: make(map[domain.Address]Logic)}
	r.impls[DirectLogicAddress] = DirectLogic{}
	r.impls[EscrowLogicAddress] = EscrowLogic{}
	return r
}

var (
	DirectLogicAddress = LogicAddress(DirectLogic{}.Name())
	EscrowLogicAddress = LogicAddress(EscrowLogic{}.Name())
)

// Register places impl at addr. An occupied address is a conflict.
func (r *Registry) Register(addr domain.Address, impl Logic) error {
	if domain.IsZero(addr) {
		return dErrors.New(dErrors.CodeOutOfRange, "Contract Logic cannot be 0x0")
	}
	if impl == nil {
		return dErrors.New(dErrors.CodeBadRequest, "implementation is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.impls[addr]; ok {
		return dErrors.New(dErrors.CodeConflict, "address already holds an implementation")
	}
	r.impls[addr] = impl
	return nil
}

// Lookup returns the implementation at addr.
func (r *Registry) Lookup(addr domain.Address) (Logic, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	impl, ok := r.impls[addr]
	return impl, ok
}

// AddressOf returns the registry address for a built-in name ("direct" or "escrow").
func AddressOf(name string) (domain.Address, error) {
	switch name {
	case DirectLogic{}.Name():
		return DirectLogicAddress, nil
	case EscrowLogic{}.Name():
		return EscrowLogicAddress, nil
	default:
		return domain.ZeroAddress, dErrors.New(dErrors.CodeInvalidInput, "unknown logic: "+name)
	}
}
