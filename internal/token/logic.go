package token

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"

	"ledgerguard/pkg/domain"
)

// ProxiableMarker is the value a compatible implementation returns from ProxiableUUID.
var ProxiableMarker = keccak256([]byte("PROXIABLE"))

func keccak256(data []byte) common.Hash {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return common.BytesToHash(h.Sum(nil))
}

// LogicAddress derives the registry address of a named implementation.
func LogicAddress(name string) domain.Address {
	return common.BytesToAddress(keccak256([]byte("ledgerguard.logic." + name)).Bytes())
}

// Logic is the swappable behavior behind the front door. Implementations read
// and write only through State and record events on the Call.
type Logic interface {
	Name() string
	Transfer(ctx context.Context, st *State, call *Call, to domain.Address, amount *big.Int) error
	TransferFrom(ctx context.Context, st *State, call *Call, from, to domain.Address, amount *big.Int) error
}

// Proxiable is the capability probe an upgrade candidate must pass.
type Proxiable interface {
	ProxiableUUID() (common.Hash, error)
}

// EscrowResolver is implemented by logic versions that defer transfers into proposals.
type EscrowResolver interface {
	ApproveProposal(ctx context.Context, st *State, call *Call, id uint64) error
	RejectProposal(ctx context.Context, st *State, call *Call, id uint64) error
	CancelProposal(ctx context.Context, st *State, call *Call, id uint64) error
}
