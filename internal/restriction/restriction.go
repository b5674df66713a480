// Package restriction decides whether a transfer may proceed.
//
// Evaluation is a pure function of the injected Config snapshot and the
// directory checkers. The order is fixed and short-circuits:
//
//  1. paused                         -> Paused
//  2. owner exemption (opt-in)       -> Success
//  3. blacklist, when enabled        -> Blacklisted
//  4. whitelist routing, when enabled -> NonWhitelist
//  5. otherwise                      -> Success
//
// The transfer amount never affects the outcome.
package restriction

import (
	"math/big"

	"ledgerguard/pkg/domain"
	dErrors "ledgerguard/pkg/domain-errors"
)

// Code is the outcome of an evaluation. Values are stable and externally visible.
type Code uint8

const (
	Success      Code = 0
	NonWhitelist Code = 1
	Paused       Code = 2
	Blacklisted  Code = 3
)

const UnknownMessage = "Unknown Error Code"

var messages = map[Code]string{
	Success:      "SUCCESS",
	NonWhitelist: "The transfer was restricted due to white list configuration.",
	Paused:       "The transfer was restricted due to the contract being paused.",
	Blacklisted:  "Restricted due to blacklist",
}

// MessageFor returns the fixed message for code, UnknownMessage for anything unrecognized.
func MessageFor(code Code) string {
	if msg, ok := messages[code]; ok {
		return msg
	}
	return UnknownMessage
}

// Known lists every recognized code in ascending order.
func Known() []Code {
	return []Code{Success, NonWhitelist, Paused, Blacklisted}
}

func (c Code) String() string {
	switch c {
	case Success:
		return "success"
	case NonWhitelist:
		return "non_whitelist"
	case Paused:
		return "paused"
	case Blacklisted:
		return "blacklisted"
	default:
		return "unknown"
	}
}

// Config is the switch snapshot an evaluation runs against.
type Config struct {
	Paused              bool
	RestrictionsEnabled bool
	BlacklistEnabled    bool
	WhitelistEnabled    bool
	// ExemptOwners lets Owner-held senders bypass list checks. Pause still applies.
	ExemptOwners bool
}

// WhitelistChecker answers group routing questions.
type WhitelistChecker interface {
	Allowed(from, to domain.Address) bool
}

// BlacklistChecker answers flag questions for both sides of a transfer.
type BlacklistChecker interface {
	Allowed(a, b domain.Address) bool
}

// OwnerChecker reports Owner membership for the exemption step.
type OwnerChecker func(addr domain.Address) bool

// Engine evaluates transfers against the directories it was built with.
type Engine struct {
	whitelist WhitelistChecker
	blacklist BlacklistChecker
	isOwner   OwnerChecker
}

type Option func(*Engine)

// WithOwnerChecker enables the owner exemption lookup.
func WithOwnerChecker(fn OwnerChecker) Option {
	return func(e *Engine) {
		e.isOwner = fn
	}
}

// New builds an Engine over the given directories.
func New(whitelist WhitelistChecker, blacklist BlacklistChecker, opts ...Option) *Engine {
	e := &Engine{whitelist: whitelist, blacklist: blacklist}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate returns the restriction code for a transfer of amount from -> to.
func (e *Engine) Evaluate(cfg Config, from, to domain.Address, _ *big.Int) Code {
	if cfg.Paused {
		return Paused
	}
	if cfg.ExemptOwners && e.isOwner != nil && e.isOwner(from) {
		return Success
	}
	if !cfg.RestrictionsEnabled {
		return Success
	}
	if cfg.BlacklistEnabled && !e.blacklist.Allowed(from, to) {
		return Blacklisted
	}
	if cfg.WhitelistEnabled && !e.whitelist.Allowed(from, to) {
		return NonWhitelist
	}
	return Success
}

// Error converts a non-success code into a coded transfer failure.
// It returns nil for Success.
func Error(code Code) error {
	if code == Success {
		return nil
	}
	return dErrors.New(dErrors.CodeRestricted, MessageFor(code)).
		WithField("restriction_code", uint8(code))
}
