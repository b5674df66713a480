// Package roles owns role membership. Each Role is an independent set of
// addresses; there is no hierarchy between roles.
package roles

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"ledgerguard/pkg/domain"
	dErrors "ledgerguard/pkg/domain-errors"
)

// Role names a capability gate.
type Role uint8

const (
	Owner Role = iota
	Admin
	Whitelister
	Blacklister
	Pauser
	Minter
	Burner
	Revoker
)

var roleNames = [...]string{
	Owner:       "Owner",
	Admin:       "Admin",
	Whitelister: "Whitelister",
	Blacklister: "Blacklister",
	Pauser:      "Pauser",
	Minter:      "Minter",
	Burner:      "Burner",
	Revoker:     "Revoker",
}

// All lists every role in declaration order.
func All() []Role {
	return []Role{Owner, Admin, Whitelister, Blacklister, Pauser, Minter, Burner, Revoker}
}

func (r Role) String() string {
	if int(r) < len(roleNames) {
		return roleNames[r]
	}
	return fmt.Sprintf("Role(%d)", uint8(r))
}

// Valid reports whether r is a declared role.
func (r Role) Valid() bool {
	return int(r) < len(roleNames)
}

// ParseRole accepts a role name case-insensitively ("pauser", "Pauser").
func ParseRole(s string) (Role, error) {
	s = strings.TrimSpace(s)
	for _, r := range All() {
		if strings.EqualFold(r.String(), s) {
			return r, nil
		}
	}
	return 0, dErrors.New(dErrors.CodeInvalidInput, "unknown role: "+s)
}

// MissingRoleMessage is the authorization failure text for role.
func MissingRoleMessage(role Role) string {
	return fmt.Sprintf("%sRole: caller does not have the %s role", role, role)
}

// Registry holds one membership set per role.
// It is not safe for concurrent use; the token service serializes access.
type Registry struct {
	sets map[Role]map[domain.Address]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	sets := make(map[Role]map[domain.Address]struct{}, len(roleNames))
	for _, r := range All() {
		sets[r] = make(map[domain.Address]struct{})
	}
	return &Registry{sets: sets}
}

// Has reports whether addr holds role.
func (r *Registry) Has(role Role, addr domain.Address) bool {
	_, ok := r.sets[role][addr]
	return ok
}

// Authorize fails with CodeForbidden unless actor holds role.
func (r *Registry) Authorize(role Role, actor domain.Address) error {
	if !r.Has(role, actor) {
		return dErrors.New(dErrors.CodeForbidden, MissingRoleMessage(role))
	}
	return nil
}

// CanAdd validates adding addr to role without mutating.
func (r *Registry) CanAdd(role Role, addr domain.Address) error {
	if !role.Valid() {
		return dErrors.New(dErrors.CodeInvalidInput, "unknown role")
	}
	if domain.IsZero(addr) {
		return dErrors.New(dErrors.CodeOutOfRange, "Invalid 0x0 address")
	}
	if r.Has(role, addr) {
		return dErrors.New(dErrors.CodeConflict, fmt.Sprintf("address already has the %s role", role))
	}
	return nil
}

// Add grants role to addr.
func (r *Registry) Add(role Role, addr domain.Address) error {
	if err := r.CanAdd(role, addr); err != nil {
		return err
	}
	r.sets[role][addr] = struct{}{}
	return nil
}

// CanRemove validates removing addr from role without mutating.
func (r *Registry) CanRemove(role Role, addr domain.Address) error {
	if !role.Valid() {
		return dErrors.New(dErrors.CodeInvalidInput, "unknown role")
	}
	if domain.IsZero(addr) {
		return dErrors.New(dErrors.CodeOutOfRange, "Invalid 0x0 address")
	}
	if !r.Has(role, addr) {
		return dErrors.New(dErrors.CodeConflict, fmt.Sprintf("address does not have the %s role", role))
	}
	return nil
}

// Remove revokes role from addr.
func (r *Registry) Remove(role Role, addr domain.Address) error {
	if err := r.CanRemove(role, addr); err != nil {
		return err
	}
	delete(r.sets[role], addr)
	return nil
}

// Members returns the holders of role in address order.
func (r *Registry) Members(role Role) []domain.Address {
	out := make([]domain.Address, 0, len(r.sets[role]))
	for addr := range r.sets[role] {
		out = append(out, addr)
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i][:], out[j][:]) < 0
	})
	return out
}

// RolesOf lists every role addr holds.
func (r *Registry) RolesOf(addr domain.Address) []Role {
	var out []Role
	for _, role := range All() {
		if r.Has(role, addr) {
			out = append(out, role)
		}
	}
	return out
}
