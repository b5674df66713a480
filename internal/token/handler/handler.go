package handler

import (
	"context"
	"log/slog"
	"math/big"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"ledgerguard/internal/escrow"
	"ledgerguard/internal/restriction"
	"ledgerguard/internal/roles"
	"ledgerguard/internal/whitelist"
	"ledgerguard/pkg/domain"
	dErrors "ledgerguard/pkg/domain-errors"
	"ledgerguard/pkg/platform/httputil"
	"ledgerguard/pkg/requestcontext"
)

// Service is the token front door as seen by the HTTP layer.
type Service interface {
	AddRole(ctx context.Context, role roles.Role, addr domain.Address) error
	RemoveRole(ctx context.Context, role roles.Role, addr domain.Address) error
	HasRole(role roles.Role, addr domain.Address) bool
	RoleMembers(role roles.Role) []domain.Address
	RolesOf(addr domain.Address) []roles.Role

	AddToWhitelist(ctx context.Context, addr domain.Address, group whitelist.GroupID) error
	RemoveFromWhitelist(ctx context.Context, addr domain.Address) error
	UpdateOutboundWhitelistEnabled(ctx context.Context, src, dst whitelist.GroupID, enabled bool) error
	SetWhitelistEnabled(ctx context.Context, enabled bool) error
	CheckWhitelistAllowed(from, to domain.Address) bool
	OutboundWhitelistsEnabled(src, dst whitelist.GroupID) bool
	AddressWhitelists(addr domain.Address) whitelist.GroupID
	WhitelistEnabled() bool

	AddToBlacklist(ctx context.Context, addr domain.Address) error
	RemoveFromBlacklist(ctx context.Context, addr domain.Address) error
	SetBlacklistEnabled(ctx context.Context, enabled bool) error
	CheckBlacklistAllowed(a, b domain.Address) bool
	AddressBlacklists(addr domain.Address) bool
	BlacklistEnabled() bool

	DisableRestrictions(ctx context.Context) error
	EnableRestrictions(ctx context.Context) error
	RestrictionsEnabled() bool
	Pause(ctx context.Context) error
	Unpause(ctx context.Context) error
	Paused() bool
	Evaluate(from, to domain.Address, amount *big.Int) restriction.Code

	Mint(ctx context.Context, to domain.Address, amount *big.Int) error
	Burn(ctx context.Context, from domain.Address, amount *big.Int) error
	Revoke(ctx context.Context, from domain.Address, amount *big.Int) error
	Approve(ctx context.Context, spender domain.Address, amount *big.Int) error
	Transfer(ctx context.Context, to domain.Address, amount *big.Int) error
	TransferFrom(ctx context.Context, from, to domain.Address, amount *big.Int) error
	BalanceOf(addr domain.Address) *big.Int
	LockedOf(addr domain.Address) *big.Int
	Allowance(owner, spender domain.Address) *big.Int
	TotalSupply() *big.Int

	ApproveTransferProposal(ctx context.Context, id uint64) error
	RejectTransferProposal(ctx context.Context, id uint64) error
	CancelTransferProposal(ctx context.Context, id uint64) error
	GetProposal(ctx context.Context, id uint64) (*escrow.Proposal, error)
	ProposalCount(ctx context.Context) (uint64, error)
	ListProposals(ctx context.Context, state escrow.State) ([]*escrow.Proposal, error)

	UpdateCodeAddress(ctx context.Context, newImpl domain.Address) error
	GetLogicAddress() domain.Address
	LogicName() string
}

// Handler wires ledger endpoints to the token service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the ledger endpoints on the router. Reads are public;
// writes need an authenticated caller.
func (h *Handler) Register(r chi.Router) {
	r.Get("/status", h.HandleStatus)
	r.Get("/restrictions/evaluate", h.HandleEvaluate)
	r.Get("/restrictions/messages", h.HandleMessages)
	r.Get("/restrictions/messages/{code}", h.HandleMessage)
	r.Post("/restrictions/disable", h.command("disable_restrictions", h.service.DisableRestrictions))
	r.Post("/restrictions/enable", h.command("enable_restrictions", h.service.EnableRestrictions))
	r.Post("/pause", h.command("pause", h.service.Pause))
	r.Post("/unpause", h.command("unpause", h.service.Unpause))

	r.Get("/whitelist/check", h.HandleWhitelistCheck)
	r.Get("/whitelist/outbound/{source}/{destination}", h.HandleOutbound)
	r.Get("/whitelist/{address}", h.HandleWhitelistLookup)
	r.Post("/whitelist", h.HandleAddToWhitelist)
	r.Delete("/whitelist/{address}", h.addressCommand("remove_from_whitelist", h.service.RemoveFromWhitelist))
	r.Put("/whitelist/outbound", h.HandleUpdateOutbound)
	r.Put("/whitelist/enabled", h.toggle("set_whitelist_enabled", h.service.SetWhitelistEnabled))

	r.Get("/blacklist/check", h.HandleBlacklistCheck)
	r.Get("/blacklist/{address}", h.HandleBlacklistLookup)
	r.Post("/blacklist", h.HandleAddToBlacklist)
	r.Delete("/blacklist/{address}", h.addressCommand("remove_from_blacklist", h.service.RemoveFromBlacklist))
	r.Put("/blacklist/enabled", h.toggle("set_blacklist_enabled", h.service.SetBlacklistEnabled))

	r.Get("/roles/{role}", h.HandleRoleMembers)
	r.Get("/roles/{role}/{address}", h.HandleHasRole)
	r.Post("/roles/{role}", h.HandleAddRole)
	r.Delete("/roles/{role}/{address}", h.HandleRemoveRole)

	r.Get("/accounts/{address}", h.HandleAccount)
	r.Get("/allowances/{owner}/{spender}", h.HandleAllowance)
	r.Post("/mint", h.amountCommand("mint", h.service.Mint))
	r.Post("/burn", h.amountCommand("burn", h.service.Burn))
	r.Post("/revoke", h.amountCommand("revoke", h.service.Revoke))
	r.Post("/approve", h.amountCommand("approve", h.service.Approve))
	r.Post("/transfer", h.amountCommand("transfer", h.service.Transfer))
	r.Post("/transfer-from", h.HandleTransferFrom)

	r.Get("/proposals", h.HandleListProposals)
	r.Get("/proposals/{id}", h.HandleGetProposal)
	r.Post("/proposals/{id}/approve", h.proposalCommand("approve_transfer_proposal", h.service.ApproveTransferProposal))
	r.Post("/proposals/{id}/reject", h.proposalCommand("reject_transfer_proposal", h.service.RejectTransferProposal))
	r.Post("/proposals/{id}/cancel", h.proposalCommand("cancel_transfer_proposal", h.service.CancelTransferProposal))

	r.Get("/logic", h.HandleGetLogic)
	r.Put("/logic", h.HandleUpdateLogic)
}

// =============================================================================
// Write plumbing
// =============================================================================

func (h *Handler) requireCaller(w http.ResponseWriter, r *http.Request) (domain.Address, bool) {
	caller := requestcontext.Caller(r.Context())
	if domain.IsZero(caller) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return domain.ZeroAddress, false
	}
	return caller, true
}

// finish logs the outcome of a write and renders either err or 204.
func (h *Handler) finish(w http.ResponseWriter, r *http.Request, op string, err error) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller := requestcontext.Caller(ctx)
	if err != nil {
		level := slog.LevelWarn
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			level = slog.LevelError
		}
		h.logger.Log(ctx, level, "operation failed",
			"operation", op,
			"request_id", requestID,
			"caller", caller.Hex(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "operation applied",
		"operation", op,
		"request_id", requestID,
		"caller", caller.Hex(),
	)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) command(op string, fn func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := h.requireCaller(w, r); !ok {
			return
		}
		h.finish(w, r, op, fn(r.Context()))
	}
}

func (h *Handler) addressCommand(op string, fn func(context.Context, domain.Address) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := h.requireCaller(w, r); !ok {
			return
		}
		addr, err := domain.ParseAddress(chi.URLParam(r, "address"))
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		h.finish(w, r, op, fn(r.Context(), addr))
	}
}

func (h *Handler) toggle(op string, fn func(context.Context, bool) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := h.requireCaller(w, r); !ok {
			return
		}
		ctx := r.Context()
		req, ok := httputil.DecodeAndPrepare[ToggleRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
		if !ok {
			return
		}
		h.finish(w, r, op, fn(ctx, *req.Enabled))
	}
}

func (h *Handler) amountCommand(op string, fn func(context.Context, domain.Address, *big.Int) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := h.requireCaller(w, r); !ok {
			return
		}
		ctx := r.Context()
		req, ok := httputil.DecodeAndPrepare[AmountRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
		if !ok {
			return
		}
		h.finish(w, r, op, fn(ctx, req.ParsedAccount(), req.ParsedAmount()))
	}
}

func (h *Handler) proposalCommand(op string, fn func(context.Context, uint64) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := h.requireCaller(w, r); !ok {
			return
		}
		id, err := parseProposalID(chi.URLParam(r, "id"))
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		h.finish(w, r, op, fn(r.Context(), id))
	}
}

// =============================================================================
// Writes with bespoke bodies
// =============================================================================

func (h *Handler) HandleAddToWhitelist(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireCaller(w, r); !ok {
		return
	}
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[WhitelistRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	h.finish(w, r, "add_to_whitelist", h.service.AddToWhitelist(ctx, req.ParsedAddress(), req.Group()))
}

func (h *Handler) HandleUpdateOutbound(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireCaller(w, r); !ok {
		return
	}
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[OutboundRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	err := h.service.UpdateOutboundWhitelistEnabled(ctx,
		whitelist.GroupID(req.Source), whitelist.GroupID(req.Destination), *req.Enabled)
	h.finish(w, r, "update_outbound_whitelist", err)
}

func (h *Handler) HandleAddToBlacklist(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireCaller(w, r); !ok {
		return
	}
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[AddressRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	h.finish(w, r, "add_to_blacklist", h.service.AddToBlacklist(ctx, req.ParsedAddress()))
}

func (h *Handler) HandleAddRole(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireCaller(w, r); !ok {
		return
	}
	role, err := roles.ParseRole(chi.URLParam(r, "role"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[AddressRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	h.finish(w, r, "add_role", h.service.AddRole(ctx, role, req.ParsedAddress()))
}

func (h *Handler) HandleRemoveRole(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireCaller(w, r); !ok {
		return
	}
	role, err := roles.ParseRole(chi.URLParam(r, "role"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	addr, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.finish(w, r, "remove_role", h.service.RemoveRole(r.Context(), role, addr))
}

func (h *Handler) HandleTransferFrom(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireCaller(w, r); !ok {
		return
	}
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[TransferFromRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	h.finish(w, r, "transfer_from", h.service.TransferFrom(ctx, req.ParsedFrom(), req.ParsedTo(), req.ParsedAmount()))
}

func (h *Handler) HandleUpdateLogic(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireCaller(w, r); !ok {
		return
	}
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[LogicRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	h.finish(w, r, "update_code_address", h.service.UpdateCodeAddress(ctx, req.ParsedAddress()))
}

// =============================================================================
// Reads
// =============================================================================

func (h *Handler) HandleStatus(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, &StatusResponse{
		Paused:              h.service.Paused(),
		RestrictionsEnabled: h.service.RestrictionsEnabled(),
		WhitelistEnabled:    h.service.WhitelistEnabled(),
		BlacklistEnabled:    h.service.BlacklistEnabled(),
		LogicAddress:        h.service.GetLogicAddress().Hex(),
		LogicName:           h.service.LogicName(),
		TotalSupply:         h.service.TotalSupply().String(),
	})
}

// HandleEvaluate handles GET /restrictions/evaluate?from=&to=&amount=.
func (h *Handler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := parseRequiredAddress("from", q.Get("from"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	to, err := parseRequiredAddress("to", q.Get("to"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	amount := new(big.Int)
	if raw := q.Get("amount"); raw != "" {
		if amount, err = domain.ParseAmount(raw); err != nil {
			httputil.WriteError(w, err)
			return
		}
	}
	httputil.WriteJSON(w, http.StatusOK, FromCode(h.service.Evaluate(from, to, amount)))
}

// HandleMessage handles GET /restrictions/messages/{code}. Any integer is
// accepted; unrecognized codes get the unknown message.
func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	code, ok := new(big.Int).SetString(chi.URLParam(r, "code"), 10)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "restriction code must be an integer"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, MessageFor(code))
}

// HandleMessages handles GET /restrictions/messages.
func (h *Handler) HandleMessages(w http.ResponseWriter, _ *http.Request) {
	known := restriction.Known()
	out := make([]*EvaluationResponse, 0, len(known))
	for _, code := range known {
		out = append(out, FromCode(code))
	}
	httputil.WriteJSON(w, http.StatusOK, &MessagesResponse{Messages: out})
}

func (h *Handler) HandleWhitelistCheck(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.addressPair(w, r, "from", "to")
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &AllowedResponse{Allowed: h.service.CheckWhitelistAllowed(from, to)})
}

func (h *Handler) HandleOutbound(w http.ResponseWriter, r *http.Request) {
	src, err := parseGroup(chi.URLParam(r, "source"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	dst, err := parseGroup(chi.URLParam(r, "destination"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &OutboundResponse{
		Source:      uint8(src),
		Destination: uint8(dst),
		Enabled:     h.service.OutboundWhitelistsEnabled(src, dst),
	})
}

func (h *Handler) HandleWhitelistLookup(w http.ResponseWriter, r *http.Request) {
	addr, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &WhitelistResponse{
		Address:   addr.Hex(),
		Whitelist: uint8(h.service.AddressWhitelists(addr)),
	})
}

func (h *Handler) HandleBlacklistCheck(w http.ResponseWriter, r *http.Request) {
	a, b, ok := h.addressPair(w, r, "a", "b")
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &AllowedResponse{Allowed: h.service.CheckBlacklistAllowed(a, b)})
}

func (h *Handler) HandleBlacklistLookup(w http.ResponseWriter, r *http.Request) {
	addr, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &BlacklistResponse{
		Address:     addr.Hex(),
		Blacklisted: h.service.AddressBlacklists(addr),
	})
}

func (h *Handler) HandleRoleMembers(w http.ResponseWriter, r *http.Request) {
	role, err := roles.ParseRole(chi.URLParam(r, "role"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &RoleMembersResponse{
		Role:    role.String(),
		Members: hexList(h.service.RoleMembers(role)),
	})
}

// HandleHasRole handles GET /roles/{role}/{address}, the isOwner..isRevoker reads.
func (h *Handler) HandleHasRole(w http.ResponseWriter, r *http.Request) {
	role, err := roles.ParseRole(chi.URLParam(r, "role"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	addr, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &RoleResponse{
		Role:    role.String(),
		Address: addr.Hex(),
		HasRole: h.service.HasRole(role, addr),
	})
}

func (h *Handler) HandleAccount(w http.ResponseWriter, r *http.Request) {
	addr, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	held := h.service.RolesOf(addr)
	names := make([]string, 0, len(held))
	for _, role := range held {
		names = append(names, role.String())
	}
	httputil.WriteJSON(w, http.StatusOK, &AccountResponse{
		Address: addr.Hex(),
		Balance: h.service.BalanceOf(addr).String(),
		Locked:  h.service.LockedOf(addr).String(),
		Roles:   names,
	})
}

func (h *Handler) HandleAllowance(w http.ResponseWriter, r *http.Request) {
	owner, err := domain.ParseAddress(chi.URLParam(r, "owner"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	spender, err := domain.ParseAddress(chi.URLParam(r, "spender"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &AllowanceResponse{
		Owner:     owner.Hex(),
		Spender:   spender.Hex(),
		Allowance: h.service.Allowance(owner, spender).String(),
	})
}

func (h *Handler) HandleGetProposal(w http.ResponseWriter, r *http.Request) {
	id, err := parseProposalID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	p, err := h.service.GetProposal(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromProposal(p))
}

// HandleListProposals handles GET /proposals?state=pending. State defaults to pending.
func (h *Handler) HandleListProposals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	state, err := parseProposalState(r.URL.Query().Get("state"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	total, err := h.service.ProposalCount(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	ps, err := h.service.ListProposals(ctx, state)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	resp := &ProposalListResponse{Total: total, Proposals: make([]*ProposalResponse, 0, len(ps))}
	for _, p := range ps {
		resp.Proposals = append(resp.Proposals, FromProposal(p))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleGetLogic(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, &LogicResponse{
		Address: h.service.GetLogicAddress().Hex(),
		Name:    h.service.LogicName(),
	})
}

// =============================================================================
// Parsing helpers
// =============================================================================

func (h *Handler) addressPair(w http.ResponseWriter, r *http.Request, first, second string) (domain.Address, domain.Address, bool) {
	q := r.URL.Query()
	a, err := parseRequiredAddress(first, q.Get(first))
	if err != nil {
		httputil.WriteError(w, err)
		return domain.ZeroAddress, domain.ZeroAddress, false
	}
	b, err := parseRequiredAddress(second, q.Get(second))
	if err != nil {
		httputil.WriteError(w, err)
		return domain.ZeroAddress, domain.ZeroAddress, false
	}
	return a, b, true
}

func parseGroup(raw string) (whitelist.GroupID, error) {
	v, err := strconv.ParseUint(raw, 10, 8)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "whitelist must be an integer between 0 and 255")
	}
	return whitelist.GroupID(v), nil
}

func parseProposalID(raw string) (uint64, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "proposal id must be a non-negative integer")
	}
	return id, nil
}

func parseProposalState(raw string) (escrow.State, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "pending":
		return escrow.StatePending, nil
	case "approved":
		return escrow.StateApproved, nil
	case "rejected":
		return escrow.StateRejected, nil
	case "canceled", "cancelled":
		return escrow.StateCanceled, nil
	default:
		return 0, dErrors.New(dErrors.CodeInvalidInput, "unknown proposal state: "+raw)
	}
}
