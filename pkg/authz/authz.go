// Package authz is the stateless authorization decision engine. Every
// function is pure over its inputs and returns an explicit allow/deny
// with a machine-readable reason; callers supply already-resolved
// context and none of these functions touch storage.
package authz

import (
	"github.com/hubcrafter/tenant-idm/pkg/idmerr"
	"github.com/hubcrafter/tenant-idm/pkg/rbac"
	"github.com/hubcrafter/tenant-idm/pkg/tenant"
)

// Decision is an allow/deny outcome with a machine-readable reason.
type Decision struct {
	Allowed bool
	Code    idmerr.ErrorCode
	Reason  string
}

// Allow is the positive decision.
var Allow = Decision{Allowed: true}

// Deny builds a negative decision.
func Deny(code idmerr.ErrorCode, reason string) Decision {
	return Decision{Code: code, Reason: reason}
}

// Err converts a denial into a structured error; it is nil for allows.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return idmerr.New(d.Code, d.Reason)
}

// CanLogin decides whether a login may complete given the resolved
// domain class and the tenant's lifecycle status. Internal principals
// always may; tenant principals only under an onboarded tenant.
func CanLogin(dc rbac.DomainClass, status tenant.Status) Decision {
	if dc == rbac.DomainInternal {
		return Allow
	}
	switch status {
	case tenant.StatusOnboarded:
		return Allow
	case tenant.StatusPendingReview, tenant.StatusApproved:
		return Deny(idmerr.ErrCodeTenantNotActive,
			"your tenant account is not active yet")
	default:
		return Deny(idmerr.ErrCodeTenantAccessDenied, "access denied")
	}
}

// CanProvisionUser decides whether the requester may create a principal
// with the requested roles. A tenant-scoped requester may never grant
// the Admin role; tenant placement itself is the resolver's concern.
func CanProvisionUser(requester rbac.Claims, requestedRoles rbac.RoleSet) Decision {
	switch {
	case requester.IsInternal():
		return Allow
	case requester.IsTenant():
		if requestedRoles.Contains(rbac.RoleAdmin) {
			return Deny(idmerr.ErrCodeRoleElevationDenied,
				"tenant administrators cannot assign the Admin role")
		}
		return Allow
	default:
		return Deny(idmerr.ErrCodeProvisioningDenied, "not authorized to create users")
	}
}

// CanChangeTenantStatus decides whether the requester may perform tenant
// lifecycle transitions. Only internal administrators may.
func CanChangeTenantStatus(requester rbac.Claims) Decision {
	if !requester.IsInternal() {
		return Deny(idmerr.ErrCodeInsufficientPermissions,
			"only operating-organization administrators may change tenant status")
	}
	if !requester.RoleSet().Contains(rbac.RoleAdmin) {
		return Deny(idmerr.ErrCodeInsufficientPermissions,
			"the Admin role is required to change tenant status")
	}
	return Allow
}
