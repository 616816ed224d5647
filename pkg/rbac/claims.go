package rbac

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// DomainClass tags which side of the house a principal belongs to:
// the operating organization itself, or one of its tenants.
type DomainClass string

const (
	// DomainInternal marks principals of the operating organization.
	DomainInternal DomainClass = "internal"
	// DomainTenant marks principals belonging to a tenant organization.
	DomainTenant DomainClass = "tenant"
)

// Claims is the identity payload carried by a session token. It is
// derived at login, never persisted, and immutable once issued.
type Claims struct {
	PrincipalID uuid.UUID   `json:"sub_id"`
	Email       string      `json:"email"`
	Roles       []string    `json:"roles"`
	TenantID    *uuid.UUID  `json:"tenant_id,omitempty"`
	DomainClass DomainClass `json:"domain_class"`
	Domain      string      `json:"domain"`
	ExpiresAt   time.Time   `json:"-"`
}

// RoleSet materializes the claim roles as a set. Unknown labels in a
// verified token are dropped rather than rejected: the signature already
// vouches for the payload, and older tokens may carry retired labels.
func (c Claims) RoleSet() RoleSet {
	rs := make(RoleSet, len(c.Roles))
	for _, l := range c.Roles {
		if r, err := ParseRole(l); err == nil {
			rs[r] = struct{}{}
		}
	}
	return rs
}

// IsInternal reports whether the claims belong to an operating-organization
// principal.
func (c Claims) IsInternal() bool {
	return c.DomainClass == DomainInternal
}

// IsTenant reports whether the claims are tenant-scoped with a resolved
// tenant reference.
func (c Claims) IsTenant() bool {
	return c.DomainClass == DomainTenant && c.TenantID != nil
}

// LogValue keeps tokens and emails out of unstructured logs.
func (c Claims) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("principal_id", c.PrincipalID.String()),
		slog.String("domain_class", string(c.DomainClass)),
		slog.Any("roles", c.Roles),
	)
}
