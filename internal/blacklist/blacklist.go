// Package blacklist flags accounts that may neither send nor receive while
// the blacklist check is enabled.
package blacklist

import (
	"ledgerguard/pkg/domain"
	dErrors "ledgerguard/pkg/domain-errors"
)

// Directory is not safe for concurrent use; the token service serializes access.
type Directory struct {
	enabled bool
	listed  map[domain.Address]struct{}
}

// NewDirectory creates an empty directory. The check starts disabled unless enabled is true.
func NewDirectory(enabled bool) *Directory {
	return &Directory{enabled: enabled, listed: make(map[domain.Address]struct{})}
}

// Enabled reports whether the blacklist check participates in evaluation.
func (d *Directory) Enabled() bool { return d.enabled }

// SetEnabled flips the switch and returns the previous value.
func (d *Directory) SetEnabled(enabled bool) bool {
	prev := d.enabled
	d.enabled = enabled
	return prev
}

// IsListed reports whether addr is flagged.
func (d *Directory) IsListed(addr domain.Address) bool {
	_, ok := d.listed[addr]
	return ok
}

func (d *Directory) CanAdd(addr domain.Address) error {
	if domain.IsZero(addr) {
		return dErrors.New(dErrors.CodeOutOfRange, "Cannot add 0x0")
	}
	if d.IsListed(addr) {
		return dErrors.New(dErrors.CodeConflict, "Already on list")
	}
	return nil
}

// Add flags addr. Adding a flagged address is a conflict.
func (d *Directory) Add(addr domain.Address) error {
	if err := d.CanAdd(addr); err != nil {
		return err
	}
	d.listed[addr] = struct{}{}
	return nil
}

func (d *Directory) CanRemove(addr domain.Address) error {
	if domain.IsZero(addr) {
		return dErrors.New(dErrors.CodeOutOfRange, "Cannot remove 0x0")
	}
	if !d.IsListed(addr) {
		return dErrors.New(dErrors.CodeConflict, "Not on list")
	}
	return nil
}

// Remove clears the flag. Removing an unflagged address is a conflict.
func (d *Directory) Remove(addr domain.Address) error {
	if err := d.CanRemove(addr); err != nil {
		return err
	}
	delete(d.listed, addr)
	return nil
}

// Allowed is true when neither side is flagged. The enable switch is not consulted.
func (d *Directory) Allowed(a, b domain.Address) bool {
	return !d.IsListed(a) && !d.IsListed(b)
}
