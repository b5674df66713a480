package handler

import (
	"math/big"
	"strings"

	"ledgerguard/internal/token"
	"ledgerguard/internal/whitelist"
	"ledgerguard/pkg/domain"
	dErrors "ledgerguard/pkg/domain-errors"
)

func parseRequiredAddress(field, value string) (domain.Address, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return domain.ZeroAddress, dErrors.New(dErrors.CodeValidation, field+" is required")
	}
	return domain.ParseAddress(value)
}

func parseRequiredAmount(value string) (*big.Int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "amount is required")
	}
	return domain.ParseAmount(value)
}

// AddressRequest is the body of role grants and blacklist additions.
type AddressRequest struct {
	Address string `json:"address"`

	parsedAddress domain.Address
}

// Validate implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *AddressRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	addr, err := parseRequiredAddress("address", r.Address)
	if err != nil {
		return err
	}
	r.parsedAddress = addr
	return nil
}

func (r *AddressRequest) ParsedAddress() domain.Address { return r.parsedAddress }

// WhitelistRequest is the body of POST /whitelist.
type WhitelistRequest struct {
	Address   string `json:"address"`
	Whitelist uint8  `json:"whitelist"`

	parsedAddress domain.Address
}

// Validate parses the address. The group is checked by the directory so
// that group 0 reports the same range error as any other caller sees.
func (r *WhitelistRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	addr, err := parseRequiredAddress("address", r.Address)
	if err != nil {
		return err
	}
	r.parsedAddress = addr
	return nil
}

func (r *WhitelistRequest) ParsedAddress() domain.Address { return r.parsedAddress }

func (r *WhitelistRequest) Group() whitelist.GroupID { return whitelist.GroupID(r.Whitelist) }

// OutboundRequest is the body of PUT /whitelist/outbound.
type OutboundRequest struct {
	Source      uint8 `json:"source"`
	Destination uint8 `json:"destination"`
	Enabled     *bool `json:"enabled"`
}

func (r *OutboundRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Enabled == nil {
		return dErrors.New(dErrors.CodeValidation, "enabled is required")
	}
	return nil
}

// ToggleRequest is the body of the enable switches.
type ToggleRequest struct {
	Enabled *bool `json:"enabled"`
}

func (r *ToggleRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Enabled == nil {
		return dErrors.New(dErrors.CodeValidation, "enabled is required")
	}
	return nil
}

// AmountRequest is the body of mint, burn, revoke, approve and transfer.
// Account carries the counterparty: the recipient for mint and transfer,
// the holder for burn and revoke, the spender for approve.
type AmountRequest struct {
	Account string `json:"account"`
	Amount  string `json:"amount"`

	parsedAccount domain.Address
	parsedAmount  *big.Int
}

func (r *AmountRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	addr, err := parseRequiredAddress("account", r.Account)
	if err != nil {
		return err
	}
	amount, err := parseRequiredAmount(r.Amount)
	if err != nil {
		return err
	}
	r.parsedAccount = addr
	r.parsedAmount = amount
	return nil
}

func (r *AmountRequest) ParsedAccount() domain.Address { return r.parsedAccount }

func (r *AmountRequest) ParsedAmount() *big.Int { return r.parsedAmount }

// TransferFromRequest is the body of POST /transfer-from.
type TransferFromRequest struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`

	parsedFrom   domain.Address
	parsedTo     domain.Address
	parsedAmount *big.Int
}

func (r *TransferFromRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	from, err := parseRequiredAddress("from", r.From)
	if err != nil {
		return err
	}
	to, err := parseRequiredAddress("to", r.To)
	if err != nil {
		return err
	}
	amount, err := parseRequiredAmount(r.Amount)
	if err != nil {
		return err
	}
	r.parsedFrom, r.parsedTo, r.parsedAmount = from, to, amount
	return nil
}

func (r *TransferFromRequest) ParsedFrom() domain.Address { return r.parsedFrom }

func (r *TransferFromRequest) ParsedTo() domain.Address { return r.parsedTo }

func (r *TransferFromRequest) ParsedAmount() *big.Int { return r.parsedAmount }

// LogicRequest is the body of PUT /logic. Exactly one of Address or Name is
// set; Name resolves a built-in implementation.
type LogicRequest struct {
	Address string `json:"address"`
	Name    string `json:"name"`

	parsedAddress domain.Address
}

func (r *LogicRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Address = strings.TrimSpace(r.Address)
	r.Name = strings.TrimSpace(strings.ToLower(r.Name))
	switch {
	case r.Address != "" && r.Name != "":
		return dErrors.New(dErrors.CodeValidation, "address and name are mutually exclusive")
	case r.Name != "":
		addr, err := token.AddressOf(r.Name)
		if err != nil {
			return err
		}
		r.parsedAddress = addr
	case r.Address != "":
		addr, err := domain.ParseAddress(r.Address)
		if err != nil {
			return err
		}
		r.parsedAddress = addr
	default:
		return dErrors.New(dErrors.CodeValidation, "address or name is required")
	}
	return nil
}

func (r *LogicRequest) ParsedAddress() domain.Address { return r.parsedAddress }
