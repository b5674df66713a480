package token

import (
	"context"
	"strconv"

	"ledgerguard/internal/roles"
	"ledgerguard/internal/whitelist"
	"ledgerguard/pkg/domain"
	dErrors "ledgerguard/pkg/domain-errors"
	audit "ledgerguard/pkg/platform/audit"
)

// AddRole grants role to addr. Only an Owner may grant roles.
func (s *Service) AddRole(ctx context.Context, role roles.Role, addr domain.Address) error {
	return s.execute(ctx, "add_role", func(_ context.Context, call *Call) error {
		if err := s.state.Roles.Authorize(roles.Owner, call.Caller); err != nil {
			return err
		}
		if err := s.state.Roles.Add(role, addr); err != nil {
			return err
		}
		call.record(audit.EventRoleAdded, addr, map[string]string{
			"role":     role.String(),
			"account":  addr.Hex(),
			"added_by": call.Caller.Hex(),
		})
		s.metrics.IncRoleChange(role.String(), "added")
		return nil
	})
}

// RemoveRole revokes role from addr. Only an Owner may revoke roles.
func (s *Service) RemoveRole(ctx context.Context, role roles.Role, addr domain.Address) error {
	return s.execute(ctx, "remove_role", func(_ context.Context, call *Call) error {
		if err := s.state.Roles.Authorize(roles.Owner, call.Caller); err != nil {
			return err
		}
		if role == roles.Owner && addr == call.Caller && !s.cfg.AllowOwnerSelfRemoval {
			return dErrors.New(dErrors.CodeConflict, "Owner cannot remove itself")
		}
		if err := s.state.Roles.Remove(role, addr); err != nil {
			return err
		}
		call.record(audit.EventRoleRemoved, addr, map[string]string{
			"role":       role.String(),
			"account":    addr.Hex(),
			"removed_by": call.Caller.Hex(),
		})
		s.metrics.IncRoleChange(role.String(), "removed")
		return nil
	})
}

// HasRole reports whether addr holds role.
func (s *Service) HasRole(role roles.Role, addr domain.Address) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Roles.Has(role, addr)
}

// RoleMembers lists the holders of role.
func (s *Service) RoleMembers(role roles.Role) []domain.Address {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Roles.Members(role)
}

// RolesOf lists every role addr holds.
func (s *Service) RolesOf(addr domain.Address) []roles.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Roles.RolesOf(addr)
}

// AddToWhitelist assigns addr to group. Moving an address between groups
// records the removal from the old group before the addition to the new one.
func (s *Service) AddToWhitelist(ctx context.Context, addr domain.Address, group whitelist.GroupID) error {
	return s.execute(ctx, "add_to_whitelist", func(_ context.Context, call *Call) error {
		if err := s.state.Roles.Authorize(roles.Whitelister, call.Caller); err != nil {
			return err
		}
		previous, err := s.state.Whitelist.Assign(addr, group)
		if err != nil {
			return err
		}
		if previous != whitelist.Unassigned && previous != group {
			call.record(audit.EventAddressRemovedFromWhitelist, addr, map[string]string{
				"account":    addr.Hex(),
				"whitelist":  groupString(previous),
				"removed_by": call.Caller.Hex(),
			})
		}
		call.record(audit.EventAddressAddedToWhitelist, addr, map[string]string{
			"account":   addr.Hex(),
			"whitelist": groupString(group),
			"added_by":  call.Caller.Hex(),
		})
		return nil
	})
}

func (s *Service) RemoveFromWhitelist(ctx context.Context, addr domain.Address) error {
	return s.execute(ctx, "remove_from_whitelist", func(_ context.Context, call *Call) error {
		if err := s.state.Roles.Authorize(roles.Whitelister, call.Caller); err != nil {
			return err
		}
		previous, err := s.state.Whitelist.Remove(addr)
		if err != nil {
			return err
		}
		call.record(audit.EventAddressRemovedFromWhitelist, addr, map[string]string{
			"account":    addr.Hex(),
			"whitelist":  groupString(previous),
			"removed_by": call.Caller.Hex(),
		})
		return nil
	})
}

// UpdateOutboundWhitelistEnabled sets whether group src may send to group dst.
// The event fires even when the value does not change.
func (s *Service) UpdateOutboundWhitelistEnabled(ctx context.Context, src, dst whitelist.GroupID, enabled bool) error {
	return s.execute(ctx, "update_outbound_whitelist", func(_ context.Context, call *Call) error {
		if err := s.state.Roles.Authorize(roles.Whitelister, call.Caller); err != nil {
			return err
		}
		previous := s.state.Whitelist.SetOutbound(src, dst, enabled)
		call.record(audit.EventOutboundWhitelistUpdated, domain.ZeroAddress, map[string]string{
			"source":      groupString(src),
			"destination": groupString(dst),
			"from":        strconv.FormatBool(previous),
			"to":          strconv.FormatBool(enabled),
			"updated_by":  call.Caller.Hex(),
		})
		return nil
	})
}

func (s *Service) SetWhitelistEnabled(ctx context.Context, enabled bool) error {
	return s.execute(ctx, "set_whitelist_enabled", func(_ context.Context, call *Call) error {
		if err := s.state.Roles.Authorize(roles.Owner, call.Caller); err != nil {
			return err
		}
		previous := s.state.Whitelist.SetEnabled(enabled)
		call.record(audit.EventWhitelistEnabledUpdated, domain.ZeroAddress, map[string]string{
			"previous":   strconv.FormatBool(previous),
			"enabled":    strconv.FormatBool(enabled),
			"updated_by": call.Caller.Hex(),
		})
		return nil
	})
}

func (s *Service) CheckWhitelistAllowed(from, to domain.Address) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Whitelist.Allowed(from, to)
}

func (s *Service) OutboundWhitelistsEnabled(src, dst whitelist.GroupID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Whitelist.Outbound(src, dst)
}

// AddressWhitelists returns the group of addr, or whitelist.Unassigned.
func (s *Service) AddressWhitelists(addr domain.Address) whitelist.GroupID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Whitelist.GroupOf(addr)
}

func (s *Service) WhitelistEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Whitelist.Enabled()
}

func (s *Service) AddToBlacklist(ctx context.Context, addr domain.Address) error {
	return s.execute(ctx, "add_to_blacklist", func(_ context.Context, call *Call) error {
		if err := s.state.Roles.Authorize(roles.Blacklister, call.Caller); err != nil {
			return err
		}
		if err := s.state.Blacklist.Add(addr); err != nil {
			return err
		}
		call.record(audit.EventAddressAddedToBlacklist, addr, map[string]string{
			"account":  addr.Hex(),
			"added_by": call.Caller.Hex(),
		})
		return nil
	})
}

func (s *Service) RemoveFromBlacklist(ctx context.Context, addr domain.Address) error {
	return s.execute(ctx, "remove_from_blacklist", func(_ context.Context, call *Call) error {
		if err := s.state.Roles.Authorize(roles.Blacklister, call.Caller); err != nil {
			return err
		}
		if err := s.state.Blacklist.Remove(addr); err != nil {
			return err
		}
		call.record(audit.EventAddressRemovedFromBlacklist, addr, map[string]string{
			"account":    addr.Hex(),
			"removed_by": call.Caller.Hex(),
		})
		return nil
	})
}

func (s *Service) SetBlacklistEnabled(ctx context.Context, enabled bool) error {
	return s.execute(ctx, "set_blacklist_enabled", func(_ context.Context, call *Call) error {
		if err := s.state.Roles.Authorize(roles.Owner, call.Caller); err != nil {
			return err
		}
		previous := s.state.Blacklist.SetEnabled(enabled)
		call.record(audit.EventBlacklistEnabledUpdated, domain.ZeroAddress, map[string]string{
			"previous":   strconv.FormatBool(previous),
			"enabled":    strconv.FormatBool(enabled),
			"updated_by": call.Caller.Hex(),
		})
		return nil
	})
}

// CheckBlacklistAllowed is false when either a or b is listed.
func (s *Service) CheckBlacklistAllowed(a, b domain.Address) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Blacklist.Allowed(a, b)
}

func (s *Service) AddressBlacklists(addr domain.Address) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Blacklist.IsListed(addr)
}

func (s *Service) BlacklistEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Blacklist.Enabled()
}

// DisableRestrictions turns off list checks. Pause still applies.
func (s *Service) DisableRestrictions(ctx context.Context) error {
	return s.setRestrictions(ctx, false)
}

func (s *Service) EnableRestrictions(ctx context.Context) error {
	return s.setRestrictions(ctx, true)
}

func (s *Service) setRestrictions(ctx context.Context, enabled bool) error {
	op, event, msg := "enable_restrictions", audit.EventRestrictionsEnabled, "Restrictions are already enabled."
	if !enabled {
		op, event, msg = "disable_restrictions", audit.EventRestrictionsDisabled, "Restrictions are already disabled."
	}
	return s.execute(ctx, op, func(_ context.Context, call *Call) error {
		if err := s.state.Roles.Authorize(roles.Owner, call.Caller); err != nil {
			return err
		}
		if s.state.restrictionsEnabled == enabled {
			return dErrors.New(dErrors.CodeConflict, msg)
		}
		s.state.restrictionsEnabled = enabled
		call.record(event, domain.ZeroAddress, map[string]string{
			"updated_by": call.Caller.Hex(),
		})
		return nil
	})
}

func (s *Service) RestrictionsEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.restrictionsEnabled
}

func (s *Service) Pause(ctx context.Context) error {
	return s.execute(ctx, "pause", func(_ context.Context, call *Call) error {
		if err := s.state.Roles.Authorize(roles.Pauser, call.Caller); err != nil {
			return err
		}
		if err := s.state.Pause.Pause(); err != nil {
			return err
		}
		call.record(audit.EventPaused, call.Caller, map[string]string{"account": call.Caller.Hex()})
		return nil
	})
}

func (s *Service) Unpause(ctx context.Context) error {
	return s.execute(ctx, "unpause", func(_ context.Context, call *Call) error {
		if err := s.state.Roles.Authorize(roles.Pauser, call.Caller); err != nil {
			return err
		}
		if err := s.state.Pause.Unpause(); err != nil {
			return err
		}
		call.record(audit.EventUnpaused, call.Caller, map[string]string{"account": call.Caller.Hex()})
		return nil
	})
}

func (s *Service) Paused() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Pause.Paused()
}

func groupString(g whitelist.GroupID) string {
	return strconv.FormatUint(uint64(g), 10)
}
