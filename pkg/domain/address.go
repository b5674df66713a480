// Package domain holds the identity and amount value types used at trust
// boundaries. Parsing functions reject malformed input with CodeInvalidInput so
// handlers can return them unchanged.
package domain

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	dErrors "ledgerguard/pkg/domain-errors"
)

// Address identifies an account, a role holder or a logic implementation.
type Address = common.Address

// ZeroAddress is never a valid target for role, list, mint or transfer operations.
var ZeroAddress = common.Address{}

// IsZero reports whether addr is the zero address.
func IsZero(addr Address) bool {
	return addr == ZeroAddress
}

// ParseAddress parses a 0x-prefixed 20-byte hex address.
// The zero address parses successfully; operations decide whether it is allowed.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Address{}, dErrors.New(dErrors.CodeInvalidInput, "address is required")
	}
	if !common.IsHexAddress(s) {
		return Address{}, dErrors.New(dErrors.CodeInvalidInput, "invalid address format")
	}
	return common.HexToAddress(s), nil
}

// MaxAmountBits bounds amounts to the uint256 range.
const MaxAmountBits = 256

// ParseAmount parses a non-negative base-10 integer amount below 2^256.
func ParseAmount(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "amount is required")
	}
	amount, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid amount format")
	}
	if amount.Sign() < 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "amount must not be negative")
	}
	if amount.BitLen() > MaxAmountBits {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "amount exceeds uint256")
	}
	return amount, nil
}
