// Package resolver determines which side of the house a principal
// belongs to: the operating organization, or one of its tenants. It
// feeds the login decision with the tenant's lifecycle state and gates
// which tenant a newly provisioned principal may be assigned to.
package resolver

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/hubcrafter/tenant-idm/pkg/idmerr"
	"github.com/hubcrafter/tenant-idm/pkg/principal"
	"github.com/hubcrafter/tenant-idm/pkg/rbac"
	"github.com/hubcrafter/tenant-idm/pkg/tenant"
)

// Config carries the operating organization's reserved domain and the
// handling of login-time domain anomalies.
type Config struct {
	// InternalDomain is the reserved email domain of the operating
	// organization. Principals on it are never tenant-scoped.
	InternalDomain string
	// StrictDomainMatch rejects logins whose email domain does not match
	// the registered domain of their tenant. Off by default: such a
	// mismatch is recorded as an anomaly and the login proceeds.
	StrictDomainMatch bool
}

// Resolution is the tenant context of a principal at login time.
type Resolution struct {
	DomainClass  rbac.DomainClass
	TenantID     *uuid.UUID
	TenantStatus tenant.Status
	// Domain is the resolved domain string carried into the claim set:
	// the reserved domain for internal principals, the tenant's
	// registered domain otherwise.
	Domain string
}

// Resolver resolves principals to their tenant context.
type Resolver struct {
	cfg     Config
	tenants tenant.Repository
}

// New creates a Resolver.
func New(cfg Config, tenants tenant.Repository) *Resolver {
	return &Resolver{cfg: cfg, tenants: tenants}
}

// InternalDomain returns the reserved operating-organization domain.
func (r *Resolver) InternalDomain() string {
	return r.cfg.InternalDomain
}

// ResolveForLogin determines the domain class and tenant context of a
// principal attempting to log in.
func (r *Resolver) ResolveForLogin(ctx context.Context, p principal.Principal) (Resolution, error) {
	emailDomain := principal.EmailDomain(p.Email)

	if emailDomain == r.cfg.InternalDomain {
		return Resolution{
			DomainClass: rbac.DomainInternal,
			Domain:      r.cfg.InternalDomain,
		}, nil
	}

	if p.TenantID != nil {
		t, err := r.tenants.FindByID(ctx, *p.TenantID)
		if err != nil {
			if errors.Is(err, tenant.ErrNotFound) {
				// Dangling tenant reference is a data inconsistency. It
				// surfaces as a hard authorization failure, never a
				// silent default.
				slog.Error("principal references a missing tenant",
					"principal_id", p.ID, "tenant_id", *p.TenantID)
				return Resolution{}, idmerr.New(idmerr.ErrCodeTenantReferenceDangling,
					"associated tenant not found for this user")
			}
			return Resolution{}, idmerr.InternalWrap(err, "failed to load tenant")
		}

		if emailDomain != t.RegisterDomain {
			if r.cfg.StrictDomainMatch {
				return Resolution{}, idmerr.Newf(idmerr.ErrCodeDomainMismatch,
					"email domain does not match the tenant's registered domain")
			}
			slog.Warn("principal email domain does not match tenant registered domain",
				"principal_id", p.ID, "tenant_id", t.ID,
				"email_domain", emailDomain, "register_domain", t.RegisterDomain)
		}

		return Resolution{
			DomainClass:  rbac.DomainTenant,
			TenantID:     &t.ID,
			TenantStatus: t.Status,
			Domain:       t.RegisterDomain,
		}, nil
	}

	return Resolution{}, idmerr.New(idmerr.ErrCodeUnassignedPrincipal,
		"user is not assigned to a tenant or the operating organization")
}

// ResolveForProvisioning determines which tenant a newly provisioned
// principal is assigned to, given the requester's claims. Internal
// requesters choose the tenant explicitly and the target email's domain
// must match it exactly; tenant-scoped requesters are forced onto their
// own tenant.
func (r *Resolver) ResolveForProvisioning(ctx context.Context, requester rbac.Claims, targetEmail string, requestedTenantID *uuid.UUID) (*uuid.UUID, error) {
	targetDomain := principal.EmailDomain(targetEmail)
	if targetDomain == "" {
		return nil, idmerr.InvalidInput("email", "invalid format")
	}

	switch {
	case requester.IsInternal():
		if targetDomain == r.cfg.InternalDomain {
			if requestedTenantID != nil {
				return nil, idmerr.New(idmerr.ErrCodeInternalUserTenantBound,
					"internal users cannot be assigned to a tenant")
			}
			return nil, nil
		}
		if requestedTenantID == nil {
			return nil, idmerr.InvalidInput("tenant_id", "required for non-internal email domains")
		}
		t, err := r.tenants.FindByID(ctx, *requestedTenantID)
		if err != nil {
			if errors.Is(err, tenant.ErrNotFound) {
				return nil, idmerr.NotFound("tenant", requestedTenantID.String())
			}
			return nil, idmerr.InternalWrap(err, "failed to load tenant")
		}
		if t.RegisterDomain != targetDomain {
			return nil, idmerr.New(idmerr.ErrCodeDomainMismatch,
				"email domain does not match the registered domain of the selected tenant")
		}
		return &t.ID, nil

	case requester.IsTenant():
		if requestedTenantID != nil && *requestedTenantID != *requester.TenantID {
			return nil, idmerr.New(idmerr.ErrCodeCrossTenantDenied,
				"users can only be created for your own organization")
		}
		if targetDomain != requester.Domain {
			return nil, idmerr.New(idmerr.ErrCodeCrossTenantDenied,
				"users can only be created for your own organization")
		}
		tid := *requester.TenantID
		return &tid, nil

	default:
		return nil, idmerr.New(idmerr.ErrCodeProvisioningDenied,
			"not authorized to create users")
	}
}
