// Package whitelist assigns accounts to numbered groups and tracks which
// group pairs may transfer to each other.
//
// Invariants:
//   - group 0 means unassigned and is never a valid explicit group
//   - an account holds at most one non-zero group
//   - outbound pairs are directional and default to false, including (g, g)
package whitelist

import (
	"ledgerguard/pkg/domain"
	dErrors "ledgerguard/pkg/domain-errors"
)

// GroupID identifies a whitelist group.
type GroupID uint8

// Unassigned is the group of every account that was never added.
const Unassigned GroupID = 0

type pair struct {
	src GroupID
	dst GroupID
}

// Directory is not safe for concurrent use; the token service serializes access.
type Directory struct {
	enabled  bool
	groups   map[domain.Address]GroupID
	outbound map[pair]bool
}

// NewDirectory creates a directory with the whitelist check switched on or off.
func NewDirectory(enabled bool) *Directory {
	return &Directory{
		enabled:  enabled,
		groups:   make(map[domain.Address]GroupID),
		outbound: make(map[pair]bool),
	}
}

// Enabled reports whether the whitelist check participates in evaluation.
func (d *Directory) Enabled() bool { return d.enabled }

// SetEnabled flips the switch and returns the previous value.
func (d *Directory) SetEnabled(enabled bool) bool {
	prev := d.enabled
	d.enabled = enabled
	return prev
}

// GroupOf returns the account's group, Unassigned if none.
func (d *Directory) GroupOf(addr domain.Address) GroupID {
	return d.groups[addr]
}

// CanAssign validates an assignment without mutating.
func (d *Directory) CanAssign(addr domain.Address, group GroupID) error {
	if group == Unassigned {
		return dErrors.New(dErrors.CodeOutOfRange, "Invalid whitelist ID supplied")
	}
	if domain.IsZero(addr) {
		return dErrors.New(dErrors.CodeOutOfRange, "Cannot add address 0x0 to a whitelist.")
	}
	return nil
}

// Assign places addr in group and returns the group it held before.
// Reassigning to the same group is a re-assert and succeeds.
func (d *Directory) Assign(addr domain.Address, group GroupID) (GroupID, error) {
	if err := d.CanAssign(addr, group); err != nil {
		return Unassigned, err
	}
	prev := d.groups[addr]
	d.groups[addr] = group
	return prev, nil
}

// CanRemove validates a removal without mutating.
func (d *Directory) CanRemove(addr domain.Address) error {
	if domain.IsZero(addr) {
		return dErrors.New(dErrors.CodeOutOfRange, "Cannot remove address 0x0 from a whitelist.")
	}
	if d.groups[addr] == Unassigned {
		return dErrors.New(dErrors.CodeConflict, "Address cannot be removed from invalid whitelist.")
	}
	return nil
}

// Remove clears addr's group and returns the group it held.
func (d *Directory) Remove(addr domain.Address) (GroupID, error) {
	if err := d.CanRemove(addr); err != nil {
		return Unassigned, err
	}
	prev := d.groups[addr]
	delete(d.groups, addr)
	return prev, nil
}

// SetOutbound sets the directed permission src -> dst and returns the previous value.
func (d *Directory) SetOutbound(src, dst GroupID, enabled bool) bool {
	key := pair{src: src, dst: dst}
	prev := d.outbound[key]
	if enabled {
		d.outbound[key] = true
	} else {
		delete(d.outbound, key)
	}
	return prev
}

// Outbound reports whether src may send to dst.
func (d *Directory) Outbound(src, dst GroupID) bool {
	return d.outbound[pair{src: src, dst: dst}]
}

// Allowed reports whether from may send to to under group routing alone.
// Both accounts need a group and the pair must be enabled; the enable switch
// is not consulted here.
func (d *Directory) Allowed(from, to domain.Address) bool {
	src, dst := d.groups[from], d.groups[to]
	if src == Unassigned || dst == Unassigned {
		return false
	}
	return d.Outbound(src, dst)
}
