package handler

import (
	"math/big"
	"time"

	"ledgerguard/internal/escrow"
	"ledgerguard/internal/restriction"
	"ledgerguard/pkg/domain"
)

// EvaluationResponse reports the restriction code a transfer would receive.
type EvaluationResponse struct {
	Code    uint8  `json:"code"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

func FromCode(code restriction.Code) *EvaluationResponse {
	return &EvaluationResponse{
		Code:    uint8(code),
		Name:    code.String(),
		Message: restriction.MessageFor(code),
	}
}

// MessageResponse describes an arbitrary integer code. Values outside the
// recognized set carry restriction.UnknownMessage.
type MessageResponse struct {
	Code    *big.Int `json:"code"`
	Name    string   `json:"name"`
	Message string   `json:"message"`
}

// MessageFor maps any integer onto a MessageResponse; codes that do not fit a
// restriction.Code are unknown.
func MessageFor(code *big.Int) *MessageResponse {
	if code.Sign() >= 0 && code.BitLen() <= 8 {
		known := restriction.Code(code.Uint64())
		return &MessageResponse{Code: code, Name: known.String(), Message: restriction.MessageFor(known)}
	}
	return &MessageResponse{Code: code, Name: "unknown", Message: restriction.UnknownMessage}
}

type MessagesResponse struct {
	Messages []*EvaluationResponse `json:"messages"`
}

type StatusResponse struct {
	Paused              bool   `json:"paused"`
	RestrictionsEnabled bool   `json:"restrictions_enabled"`
	WhitelistEnabled    bool   `json:"whitelist_enabled"`
	BlacklistEnabled    bool   `json:"blacklist_enabled"`
	LogicAddress        string `json:"logic_address"`
	LogicName           string `json:"logic_name"`
	TotalSupply         string `json:"total_supply"`
}

type AllowedResponse struct {
	Allowed bool `json:"allowed"`
}

type WhitelistResponse struct {
	Address   string `json:"address"`
	Whitelist uint8  `json:"whitelist"`
}

type OutboundResponse struct {
	Source      uint8 `json:"source"`
	Destination uint8 `json:"destination"`
	Enabled     bool  `json:"enabled"`
}

type BlacklistResponse struct {
	Address     string `json:"address"`
	Blacklisted bool   `json:"blacklisted"`
}

type RoleResponse struct {
	Role    string `json:"role"`
	Address string `json:"address"`
	HasRole bool   `json:"has_role"`
}

type RoleMembersResponse struct {
	Role    string   `json:"role"`
	Members []string `json:"members"`
}

type LogicResponse struct {
	Address string `json:"address"`
	Name    string `json:"name"`
}

type AccountResponse struct {
	Address string   `json:"address"`
	Balance string   `json:"balance"`
	Locked  string   `json:"locked"`
	Roles   []string `json:"roles"`
}

type AllowanceResponse struct {
	Owner     string `json:"owner"`
	Spender   string `json:"spender"`
	Allowance string `json:"allowance"`
}

// ProposalResponse is the HTTP view of an escrow proposal.
type ProposalResponse struct {
	ID        uint64    `json:"id"`
	Creator   string    `json:"creator"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Amount    string    `json:"amount"`
	State     string    `json:"state"`
	StateCode uint8     `json:"state_code"`
	UpdatedBy string    `json:"updated_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func FromProposal(p *escrow.Proposal) *ProposalResponse {
	return &ProposalResponse{
		ID:        p.ID,
		Creator:   p.Creator.Hex(),
		From:      p.From.Hex(),
		To:        p.To.Hex(),
		Amount:    p.Amount.String(),
		State:     p.State.String(),
		StateCode: uint8(p.State),
		UpdatedBy: p.UpdatedBy.Hex(),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

type ProposalListResponse struct {
	Total     uint64              `json:"total"`
	Proposals []*ProposalResponse `json:"proposals"`
}

func hexList(addrs []domain.Address) []string {
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, a.Hex())
	}
	return out
}
