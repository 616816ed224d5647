package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/hubcrafter/tenant-idm/pkg/rbac"
	"github.com/hubcrafter/tenant-idm/pkg/token"
)

// Routes mounts the identity endpoints. Tenant registration and login
// are public; everything else requires a verified session, with tenant
// review gated on the Admin role.
func Routes(r chi.Router, h Handle, issuer token.Issuer) {
	r.Post("/auth/login", h.Login)
	r.Post("/tenants/register", h.RegisterTenant)

	r.Group(func(r chi.Router) {
		r.Use(Verifier(issuer))

		// The review surface is internal-only: a tenant's bootstrap admin
		// also carries the Admin role, so the role gate alone is not enough.
		r.Group(func(r chi.Router) {
			r.Use(RequireInternal())
			r.Use(RequireRoles(rbac.RoleAdmin))
			r.Get("/tenants/pending", h.ListPendingTenants)
			r.Patch("/tenants/{id}/status", h.UpdateTenantStatus)
		})

		r.With(RequireRoles(rbac.RoleAdmin)).Post("/users", h.CreateUser)
	})
}
