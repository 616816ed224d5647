package rbac

import (
	"fmt"
	"sort"
	"strings"
)

// Role is an enumerated role label carried by a principal.
type Role string

const (
	// RoleAdmin is the highest-privilege role. For an internal principal it
	// grants tenant lifecycle control; for a tenant principal it marks the
	// tenant's administrative account.
	RoleAdmin Role = "Admin"
	// RoleTenantMember marks a principal belonging to a tenant organization.
	RoleTenantMember Role = "Client"
	// RoleViewer is the default low-privilege role for new principals.
	RoleViewer Role = "Viewer"
)

var knownRoles = map[Role]struct{}{
	RoleAdmin:        {},
	RoleTenantMember: {},
	RoleViewer:       {},
}

// ParseRole validates a role label.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if _, ok := knownRoles[r]; !ok {
		return "", fmt.Errorf("unknown role: %q", s)
	}
	return r, nil
}

// RoleSet is a set of roles. The zero value is empty and usable.
type RoleSet map[Role]struct{}

// NewRoleSet builds a set from the given roles.
func NewRoleSet(roles ...Role) RoleSet {
	rs := make(RoleSet, len(roles))
	for _, r := range roles {
		rs[r] = struct{}{}
	}
	return rs
}

// ParseRoleSet validates and collects role labels into a set.
// An empty input is rejected: every principal carries at least one role.
func ParseRoleSet(labels []string) (RoleSet, error) {
	if len(labels) == 0 {
		return nil, fmt.Errorf("at least one role is required")
	}
	rs := make(RoleSet, len(labels))
	for _, l := range labels {
		r, err := ParseRole(strings.TrimSpace(l))
		if err != nil {
			return nil, err
		}
		rs[r] = struct{}{}
	}
	return rs, nil
}

// Contains reports whether the set holds the given role.
func (rs RoleSet) Contains(r Role) bool {
	_, ok := rs[r]
	return ok
}

// ContainsAny reports whether the set holds any of the given roles.
func (rs RoleSet) ContainsAny(roles ...Role) bool {
	for _, r := range roles {
		if rs.Contains(r) {
			return true
		}
	}
	return false
}

// Strings returns the sorted role labels, for persistence and token claims.
func (rs RoleSet) Strings() []string {
	out := make([]string, 0, len(rs))
	for r := range rs {
		out = append(out, string(r))
	}
	sort.Strings(out)
	return out
}

func (rs RoleSet) String() string {
	return strings.Join(rs.Strings(), ",")
}
