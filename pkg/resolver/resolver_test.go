package resolver

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubcrafter/tenant-idm/pkg/idmerr"
	"github.com/hubcrafter/tenant-idm/pkg/principal"
	"github.com/hubcrafter/tenant-idm/pkg/rbac"
	"github.com/hubcrafter/tenant-idm/pkg/tenant"
)

const internalDomain = "hubcrafter.com"

func setup(t *testing.T) (*Resolver, *tenant.InMemoryRepository) {
	t.Helper()
	repo := tenant.NewInMemoryRepository()
	return New(Config{InternalDomain: internalDomain}, repo), repo
}

func createTenant(t *testing.T, repo *tenant.InMemoryRepository, domain string, status tenant.Status) tenant.Tenant {
	t.Helper()
	created, err := repo.Create(context.Background(), tenant.Tenant{
		CompanyName:    "Acme Corp",
		RegisterDomain: domain,
		AdminEmail:     "owner@" + domain,
		Status:         status,
	})
	require.NoError(t, err)
	return created
}

func TestResolveForLoginInternalDomain(t *testing.T) {
	res, _ := setup(t)

	r, err := res.ResolveForLogin(context.Background(), principal.Principal{
		ID:    uuid.New(),
		Email: "staff@hubcrafter.com",
	})
	require.NoError(t, err)
	assert.Equal(t, rbac.DomainInternal, r.DomainClass)
	assert.Nil(t, r.TenantID)
	assert.Equal(t, internalDomain, r.Domain)
}

func TestResolveForLoginTenantPrincipal(t *testing.T) {
	res, repo := setup(t)
	acme := createTenant(t, repo, "acme.com", tenant.StatusOnboarded)

	r, err := res.ResolveForLogin(context.Background(), principal.Principal{
		ID:       uuid.New(),
		Email:    "user@acme.com",
		TenantID: &acme.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, rbac.DomainTenant, r.DomainClass)
	require.NotNil(t, r.TenantID)
	assert.Equal(t, acme.ID, *r.TenantID)
	assert.Equal(t, tenant.StatusOnboarded, r.TenantStatus)
	assert.Equal(t, "acme.com", r.Domain)
}

func TestResolveForLoginDanglingTenantReference(t *testing.T) {
	res, _ := setup(t)
	missing := uuid.New()

	_, err := res.ResolveForLogin(context.Background(), principal.Principal{
		ID:       uuid.New(),
		Email:    "user@acme.com",
		TenantID: &missing,
	})
	assert.True(t, idmerr.IsCode(err, idmerr.ErrCodeTenantReferenceDangling),
		"a dangling reference is a hard failure, never a silent default")
}

func TestResolveForLoginUnassignedPrincipal(t *testing.T) {
	res, _ := setup(t)

	_, err := res.ResolveForLogin(context.Background(), principal.Principal{
		ID:    uuid.New(),
		Email: "someone@elsewhere.com",
	})
	assert.True(t, idmerr.IsCode(err, idmerr.ErrCodeUnassignedPrincipal))
}

func TestResolveForLoginDomainMismatchWarnOnly(t *testing.T) {
	res, repo := setup(t)
	acme := createTenant(t, repo, "acme.com", tenant.StatusOnboarded)

	// Default behavior: the anomaly is logged, resolution proceeds with
	// the tenant's registered domain.
	r, err := res.ResolveForLogin(context.Background(), principal.Principal{
		ID:       uuid.New(),
		Email:    "user@other.com",
		TenantID: &acme.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, rbac.DomainTenant, r.DomainClass)
	assert.Equal(t, "acme.com", r.Domain)
}

func TestResolveForLoginDomainMismatchStrict(t *testing.T) {
	repo := tenant.NewInMemoryRepository()
	res := New(Config{InternalDomain: internalDomain, StrictDomainMatch: true}, repo)
	acme := createTenant(t, repo, "acme.com", tenant.StatusOnboarded)

	_, err := res.ResolveForLogin(context.Background(), principal.Principal{
		ID:       uuid.New(),
		Email:    "user@other.com",
		TenantID: &acme.ID,
	})
	assert.True(t, idmerr.IsCode(err, idmerr.ErrCodeDomainMismatch))
}

func internalClaims() rbac.Claims {
	return rbac.Claims{
		PrincipalID: uuid.New(),
		Email:       "staff@hubcrafter.com",
		Roles:       []string{"Admin"},
		DomainClass: rbac.DomainInternal,
		Domain:      internalDomain,
	}
}

func tenantClaims(tenantID uuid.UUID, domain string) rbac.Claims {
	return rbac.Claims{
		PrincipalID: uuid.New(),
		Email:       "owner@" + domain,
		Roles:       []string{"Admin", "Client"},
		TenantID:    &tenantID,
		DomainClass: rbac.DomainTenant,
		Domain:      domain,
	}
}

func TestResolveForProvisioningInternalTargetInternal(t *testing.T) {
	res, _ := setup(t)

	assigned, err := res.ResolveForProvisioning(context.Background(),
		internalClaims(), "newstaff@hubcrafter.com", nil)
	require.NoError(t, err)
	assert.Nil(t, assigned, "internal principals carry no tenant reference")
}

func TestResolveForProvisioningInternalTargetInternalWithTenantRef(t *testing.T) {
	res, repo := setup(t)
	acme := createTenant(t, repo, "acme.com", tenant.StatusOnboarded)

	_, err := res.ResolveForProvisioning(context.Background(),
		internalClaims(), "newstaff@hubcrafter.com", &acme.ID)
	assert.True(t, idmerr.IsCode(err, idmerr.ErrCodeInternalUserTenantBound))
}

func TestResolveForProvisioningInternalTenantRefRequired(t *testing.T) {
	res, _ := setup(t)

	_, err := res.ResolveForProvisioning(context.Background(),
		internalClaims(), "user@acme.com", nil)
	assert.True(t, idmerr.IsCode(err, idmerr.ErrCodeInvalidInput))
}

func TestResolveForProvisioningInternalDomainMismatch(t *testing.T) {
	res, repo := setup(t)
	// Registered domain beta.io, target email on beta.com.
	beta := createTenant(t, repo, "beta.io", tenant.StatusOnboarded)

	_, err := res.ResolveForProvisioning(context.Background(),
		internalClaims(), "bob@beta.com", &beta.ID)
	assert.True(t, idmerr.IsCode(err, idmerr.ErrCodeDomainMismatch))
}

func TestResolveForProvisioningInternalMatch(t *testing.T) {
	res, repo := setup(t)
	acme := createTenant(t, repo, "acme.com", tenant.StatusOnboarded)

	assigned, err := res.ResolveForProvisioning(context.Background(),
		internalClaims(), "user@acme.com", &acme.ID)
	require.NoError(t, err)
	require.NotNil(t, assigned)
	assert.Equal(t, acme.ID, *assigned)
}

func TestResolveForProvisioningInternalUnknownTenant(t *testing.T) {
	res, _ := setup(t)
	missing := uuid.New()

	_, err := res.ResolveForProvisioning(context.Background(),
		internalClaims(), "user@acme.com", &missing)
	assert.True(t, idmerr.IsCode(err, idmerr.ErrCodeNotFound))
}

func TestResolveForProvisioningTenantForcedOntoOwnTenant(t *testing.T) {
	res, repo := setup(t)
	acme := createTenant(t, repo, "acme.com", tenant.StatusOnboarded)

	assigned, err := res.ResolveForProvisioning(context.Background(),
		tenantClaims(acme.ID, "acme.com"), "newuser@acme.com", nil)
	require.NoError(t, err)
	require.NotNil(t, assigned)
	assert.Equal(t, acme.ID, *assigned)
}

func TestResolveForProvisioningTenantCrossTenantDenied(t *testing.T) {
	res, repo := setup(t)
	acme := createTenant(t, repo, "acme.com", tenant.StatusOnboarded)
	beta := createTenant(t, repo, "beta.io", tenant.StatusOnboarded)

	// Wrong target domain.
	_, err := res.ResolveForProvisioning(context.Background(),
		tenantClaims(acme.ID, "acme.com"), "user@beta.io", nil)
	assert.True(t, idmerr.IsCode(err, idmerr.ErrCodeCrossTenantDenied))

	// Explicit foreign tenant reference.
	_, err = res.ResolveForProvisioning(context.Background(),
		tenantClaims(acme.ID, "acme.com"), "user@acme.com", &beta.ID)
	assert.True(t, idmerr.IsCode(err, idmerr.ErrCodeCrossTenantDenied))
}

func TestResolveForProvisioningUnknownDomainClass(t *testing.T) {
	res, _ := setup(t)

	_, err := res.ResolveForProvisioning(context.Background(),
		rbac.Claims{DomainClass: "other"}, "user@acme.com", nil)
	assert.True(t, idmerr.IsCode(err, idmerr.ErrCodeProvisioningDenied))
}

func TestResolveForProvisioningInvalidEmail(t *testing.T) {
	res, _ := setup(t)

	_, err := res.ResolveForProvisioning(context.Background(),
		internalClaims(), "no-domain", nil)
	assert.True(t, idmerr.IsCode(err, idmerr.ErrCodeInvalidInput))
}
