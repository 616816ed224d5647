// Package provision creates principal accounts on behalf of authorized
// actors and bootstraps the administrative account of a newly onboarded
// tenant.
package provision

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/hubcrafter/tenant-idm/pkg/authz"
	"github.com/hubcrafter/tenant-idm/pkg/idmerr"
	"github.com/hubcrafter/tenant-idm/pkg/notification"
	"github.com/hubcrafter/tenant-idm/pkg/password"
	"github.com/hubcrafter/tenant-idm/pkg/principal"
	"github.com/hubcrafter/tenant-idm/pkg/rbac"
	"github.com/hubcrafter/tenant-idm/pkg/resolver"
	"github.com/hubcrafter/tenant-idm/pkg/tenant"
)

// TempPasswordLength is the length of generated bootstrap credentials.
const TempPasswordLength = 16

// Coordinator gates user creation and tenant lifecycle transitions, and
// ensures each onboarded tenant has exactly one administrative account.
type Coordinator struct {
	tenants    *tenant.Service
	principals principal.Repository
	resolver   *resolver.Resolver
	hasher     password.Hasher
	notifier   notification.Notifier
}

// NewCoordinator creates a provisioning coordinator. The notifier may be
// nil; delivery is then skipped.
func NewCoordinator(tenants *tenant.Service, principals principal.Repository, res *resolver.Resolver, hasher password.Hasher, notifier notification.Notifier) *Coordinator {
	return &Coordinator{
		tenants:    tenants,
		principals: principals,
		resolver:   res,
		hasher:     hasher,
		notifier:   notifier,
	}
}

// CreateUserParams carries the fields for provisioning a principal.
type CreateUserParams struct {
	Email    string
	Password string
	Roles    []string
	TenantID *uuid.UUID
}

// CreateUser provisions a principal on behalf of the requester. The
// authorization engine gates the role grant; the resolver decides the
// tenant assignment.
func (c *Coordinator) CreateUser(ctx context.Context, params CreateUserParams, requester rbac.Claims) (principal.Principal, error) {
	roles, err := rbac.ParseRoleSet(params.Roles)
	if err != nil {
		return principal.Principal{}, idmerr.InvalidInput("roles", err.Error())
	}

	if d := authz.CanProvisionUser(requester, roles); !d.Allowed {
		return principal.Principal{}, d.Err()
	}

	tenantID, err := c.resolver.ResolveForProvisioning(ctx, requester, params.Email, params.TenantID)
	if err != nil {
		return principal.Principal{}, err
	}

	var hash string
	if params.Password != "" {
		hash, err = c.hasher.Hash(params.Password)
		if err != nil {
			return principal.Principal{}, idmerr.InternalWrap(err, "failed to hash password")
		}
	}

	p, err := c.principals.Create(ctx, principal.CreateParams{
		Email:        params.Email,
		PasswordHash: hash,
		TenantID:     tenantID,
		Roles:        roles,
	})
	if err != nil {
		if errors.Is(err, principal.ErrDuplicate) {
			return principal.Principal{}, idmerr.New(idmerr.ErrCodeUserAlreadyExists,
				"a user with this email already exists")
		}
		return principal.Principal{}, idmerr.InternalWrap(err, "failed to create principal")
	}

	slog.Info("user provisioned",
		"principal_id", p.ID, "requester", requester, "tenant_id", tenantID)
	return p, nil
}

// SetTenantStatus performs an authorization-gated lifecycle transition.
// A transition into onboarded bootstraps the tenant's administrative
// account; the tenant contact is notified of every transition.
func (c *Coordinator) SetTenantStatus(ctx context.Context, tenantID uuid.UUID, newStatus tenant.Status, notes string, requester rbac.Claims) (tenant.Tenant, error) {
	if d := authz.CanChangeTenantStatus(requester); !d.Allowed {
		return tenant.Tenant{}, d.Err()
	}

	// Repeating the onboarded transition is an idempotent ack. The
	// bootstrap is re-run so a failure after the status write has a
	// recovery path.
	if newStatus == tenant.StatusOnboarded {
		current, err := c.tenants.GetByID(ctx, tenantID)
		if err != nil {
			return tenant.Tenant{}, err
		}
		if current.Status == tenant.StatusOnboarded {
			if err := c.EnsureAdminAccount(ctx, current); err != nil {
				return tenant.Tenant{}, err
			}
			return current, nil
		}
	}

	t, err := c.tenants.Transition(ctx, tenantID, newStatus, notes)
	if err != nil {
		return tenant.Tenant{}, err
	}

	if newStatus == tenant.StatusOnboarded {
		if err := c.EnsureAdminAccount(ctx, t); err != nil {
			return tenant.Tenant{}, err
		}
	} else {
		c.notify(notification.NoticeTenantStatusUpdate, notification.NotificationData{
			To:      t.AdminEmail,
			Subject: "Registration status update",
			Data: map[string]string{
				"CompanyName": t.CompanyName,
				"Status":      string(t.Status),
			},
		})
	}

	return t, nil
}

// EnsureAdminAccount idempotently creates the tenant's administrative
// principal: roles {Admin, TenantMember}, a generated credential, bound
// to the tenant. A concurrent duplicate creation loses the uniqueness
// race and is treated as already provisioned.
func (c *Coordinator) EnsureAdminAccount(ctx context.Context, t tenant.Tenant) error {
	_, err := c.principals.FindByEmailAndTenant(ctx, t.AdminEmail, t.ID)
	if err == nil {
		// Already provisioned; re-running the transition is a no-op.
		return nil
	}
	if !errors.Is(err, principal.ErrNotFound) {
		return idmerr.InternalWrap(err, "failed to check for existing admin account")
	}

	tempPassword, err := password.GenerateTempPassword(TempPasswordLength)
	if err != nil {
		return idmerr.InternalWrap(err, "failed to generate credential")
	}
	hash, err := c.hasher.Hash(tempPassword)
	if err != nil {
		return idmerr.InternalWrap(err, "failed to hash credential")
	}

	p, err := c.principals.Create(ctx, principal.CreateParams{
		Email:        t.AdminEmail,
		PasswordHash: hash,
		TenantID:     &t.ID,
		Roles:        rbac.NewRoleSet(rbac.RoleAdmin, rbac.RoleTenantMember),
	})
	if err != nil {
		if errors.Is(err, principal.ErrDuplicate) {
			slog.Info("tenant admin already provisioned", "tenant_id", t.ID)
			return nil
		}
		return idmerr.InternalWrap(err, "failed to create tenant admin account")
	}

	slog.Info("tenant admin account created", "tenant_id", t.ID, "principal_id", p.ID)

	c.notify(notification.NoticeTenantOnboarded, notification.NotificationData{
		To:      t.AdminEmail,
		Subject: "Your organization has been onboarded",
		Data: map[string]string{
			"CompanyName":  t.CompanyName,
			"TempPassword": tempPassword,
		},
	})
	return nil
}

// notify sends best effort; a delivery failure never fails the
// operation that triggered it.
func (c *Coordinator) notify(noticeType notification.NoticeType, data notification.NotificationData) {
	if c.notifier == nil {
		return
	}
	if err := c.notifier.Send(noticeType, data); err != nil {
		slog.Error("failed to send notification", "notice_type", noticeType, "err", err)
	}
}
