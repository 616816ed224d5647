package provision

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubcrafter/tenant-idm/pkg/idmerr"
	"github.com/hubcrafter/tenant-idm/pkg/notification"
	"github.com/hubcrafter/tenant-idm/pkg/password"
	"github.com/hubcrafter/tenant-idm/pkg/principal"
	"github.com/hubcrafter/tenant-idm/pkg/rbac"
	"github.com/hubcrafter/tenant-idm/pkg/resolver"
	"github.com/hubcrafter/tenant-idm/pkg/tenant"
)

const internalDomain = "hubcrafter.com"

type fixture struct {
	coordinator *Coordinator
	tenantSvc   *tenant.Service
	principals  *principal.InMemoryRepository
	tenants     *tenant.InMemoryRepository
	notifier    *notification.MockNotifier
	hasher      *password.BcryptHasher
}

func setup(t *testing.T) fixture {
	t.Helper()

	principals := principal.NewInMemoryRepository()
	tenants := tenant.NewInMemoryRepository()
	notifier := &notification.MockNotifier{}
	hasher := &password.BcryptHasher{}

	tenantSvc := tenant.NewService(tenants)
	res := resolver.New(resolver.Config{InternalDomain: internalDomain}, tenants)

	return fixture{
		coordinator: NewCoordinator(tenantSvc, principals, res, hasher, notifier),
		tenantSvc:   tenantSvc,
		principals:  principals,
		tenants:     tenants,
		notifier:    notifier,
		hasher:      hasher,
	}
}

func (f fixture) registerTenant(t *testing.T, domain string) tenant.Tenant {
	t.Helper()
	created, err := f.tenantSvc.Register(context.Background(), tenant.RegisterParams{
		CompanyName:    "Acme Corp",
		RegisterDomain: domain,
		AdminEmail:     "owner@" + domain,
	})
	require.NoError(t, err)
	return created
}

func internalAdmin() rbac.Claims {
	return rbac.Claims{
		PrincipalID: uuid.New(),
		Email:       "staff@hubcrafter.com",
		Roles:       []string{"Admin"},
		DomainClass: rbac.DomainInternal,
		Domain:      internalDomain,
	}
}

func tenantAdmin(tenantID uuid.UUID, domain string) rbac.Claims {
	return rbac.Claims{
		PrincipalID: uuid.New(),
		Email:       "owner@" + domain,
		Roles:       []string{"Admin", "Client"},
		TenantID:    &tenantID,
		DomainClass: rbac.DomainTenant,
		Domain:      domain,
	}
}

func TestOnboardingCreatesExactlyOneAdmin(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	acme := f.registerTenant(t, "acme.com")

	_, err := f.coordinator.SetTenantStatus(ctx, acme.ID, tenant.StatusApproved, "", internalAdmin())
	require.NoError(t, err)
	_, err = f.coordinator.SetTenantStatus(ctx, acme.ID, tenant.StatusOnboarded, "signed", internalAdmin())
	require.NoError(t, err)

	admin, err := f.principals.FindByEmailAndTenant(ctx, "owner@acme.com", acme.ID)
	require.NoError(t, err)
	assert.True(t, admin.Roles.Contains(rbac.RoleAdmin))
	assert.True(t, admin.Roles.Contains(rbac.RoleTenantMember))
	require.NotNil(t, admin.TenantID)
	assert.Equal(t, acme.ID, *admin.TenantID)
	assert.True(t, admin.HasLocalCredential(), "bootstrap admin gets a generated credential")
}

func TestOnboardingIsIdempotent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	acme := f.registerTenant(t, "acme.com")

	_, err := f.coordinator.SetTenantStatus(ctx, acme.ID, tenant.StatusApproved, "", internalAdmin())
	require.NoError(t, err)
	_, err = f.coordinator.SetTenantStatus(ctx, acme.ID, tenant.StatusOnboarded, "", internalAdmin())
	require.NoError(t, err)

	first, err := f.principals.FindByEmailAndTenant(ctx, "owner@acme.com", acme.ID)
	require.NoError(t, err)

	// Running the same transition again acks without error: same
	// principal, no second account, no second credential email.
	repeated, err := f.coordinator.SetTenantStatus(ctx, acme.ID, tenant.StatusOnboarded, "", internalAdmin())
	require.NoError(t, err)
	assert.Equal(t, tenant.StatusOnboarded, repeated.Status)

	again, err := f.principals.FindByEmailAndTenant(ctx, "owner@acme.com", acme.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	var onboardedNotices int
	for _, sent := range f.notifier.Sent {
		if sent.Type == notification.NoticeTenantOnboarded {
			onboardedNotices++
		}
	}
	assert.Equal(t, 1, onboardedNotices)
}

func TestOnboardingDeliversTempCredential(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	acme := f.registerTenant(t, "acme.com")

	_, err := f.coordinator.SetTenantStatus(ctx, acme.ID, tenant.StatusApproved, "", internalAdmin())
	require.NoError(t, err)
	_, err = f.coordinator.SetTenantStatus(ctx, acme.ID, tenant.StatusOnboarded, "", internalAdmin())
	require.NoError(t, err)

	var notice *notification.SentNotification
	for i := range f.notifier.Sent {
		if f.notifier.Sent[i].Type == notification.NoticeTenantOnboarded {
			notice = &f.notifier.Sent[i]
		}
	}
	require.NotNil(t, notice)
	assert.Equal(t, "owner@acme.com", notice.Data.To)

	tempPassword := notice.Data.Data["TempPassword"]
	require.Len(t, tempPassword, TempPasswordLength)

	// The delivered credential matches the stored hash.
	admin, err := f.principals.FindByEmailAndTenant(ctx, "owner@acme.com", acme.ID)
	require.NoError(t, err)
	result, err := f.hasher.Verify(admin.PasswordHash, tempPassword)
	require.NoError(t, err)
	assert.Equal(t, password.Match, result)
}

func TestSetTenantStatusAuthorization(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	acme := f.registerTenant(t, "acme.com")

	_, err := f.coordinator.SetTenantStatus(ctx, acme.ID, tenant.StatusApproved, "",
		tenantAdmin(acme.ID, "acme.com"))
	assert.True(t, idmerr.IsCode(err, idmerr.ErrCodeInsufficientPermissions))

	viewer := internalAdmin()
	viewer.Roles = []string{"Viewer"}
	_, err = f.coordinator.SetTenantStatus(ctx, acme.ID, tenant.StatusApproved, "", viewer)
	assert.True(t, idmerr.IsCode(err, idmerr.ErrCodeInsufficientPermissions))
}

func TestSetTenantStatusSendsStatusNotice(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	acme := f.registerTenant(t, "acme.com")

	_, err := f.coordinator.SetTenantStatus(ctx, acme.ID, tenant.StatusRejected, "no fit", internalAdmin())
	require.NoError(t, err)

	require.Len(t, f.notifier.Sent, 1)
	assert.Equal(t, notification.NoticeTenantStatusUpdate, f.notifier.Sent[0].Type)
	assert.Equal(t, "owner@acme.com", f.notifier.Sent[0].Data.To)
	assert.Equal(t, string(tenant.StatusRejected), f.notifier.Sent[0].Data.Data["Status"])
}

func TestCreateUserByInternalAdmin(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	acme := f.registerTenant(t, "acme.com")

	p, err := f.coordinator.CreateUser(ctx, CreateUserParams{
		Email:    "User@Acme.com",
		Password: "initial-pass",
		Roles:    []string{"Client", "Viewer"},
		TenantID: &acme.ID,
	}, internalAdmin())
	require.NoError(t, err)
	assert.Equal(t, "user@acme.com", p.Email)
	require.NotNil(t, p.TenantID)
	assert.Equal(t, acme.ID, *p.TenantID)
	assert.True(t, p.Roles.Contains(rbac.RoleTenantMember))
}

func TestCreateUserDomainMismatchCreatesNothing(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	beta := f.registerTenant(t, "beta.io")

	_, err := f.coordinator.CreateUser(ctx, CreateUserParams{
		Email:    "bob@beta.com",
		Password: "initial-pass",
		Roles:    []string{"Client"},
		TenantID: &beta.ID,
	}, internalAdmin())
	assert.True(t, idmerr.IsCode(err, idmerr.ErrCodeDomainMismatch))

	_, err = f.principals.FindByEmail(ctx, "bob@beta.com")
	assert.ErrorIs(t, err, principal.ErrNotFound)
}

func TestCreateUserTenantAdminCannotGrantAdmin(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	acme := f.registerTenant(t, "acme.com")

	_, err := f.coordinator.CreateUser(ctx, CreateUserParams{
		Email: "user@acme.com",
		Roles: []string{"Admin", "Client"},
	}, tenantAdmin(acme.ID, "acme.com"))
	assert.True(t, idmerr.IsCode(err, idmerr.ErrCodeRoleElevationDenied))
}

func TestCreateUserTenantAdminWithinOwnTenant(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	acme := f.registerTenant(t, "acme.com")

	p, err := f.coordinator.CreateUser(ctx, CreateUserParams{
		Email: "colleague@acme.com",
		Roles: []string{"Client"},
	}, tenantAdmin(acme.ID, "acme.com"))
	require.NoError(t, err)
	require.NotNil(t, p.TenantID)
	assert.Equal(t, acme.ID, *p.TenantID)
	assert.False(t, p.HasLocalCredential(),
		"no password supplied leaves the account credential-less")
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.coordinator.CreateUser(ctx, CreateUserParams{
		Email:    "staff@hubcrafter.com",
		Password: "initial-pass",
		Roles:    []string{"Viewer"},
	}, internalAdmin())
	require.NoError(t, err)

	_, err = f.coordinator.CreateUser(ctx, CreateUserParams{
		Email:    "staff@hubcrafter.com",
		Password: "other-pass",
		Roles:    []string{"Viewer"},
	}, internalAdmin())
	assert.True(t, idmerr.IsCode(err, idmerr.ErrCodeUserAlreadyExists))
}

func TestCreateUserInvalidRoles(t *testing.T) {
	f := setup(t)

	_, err := f.coordinator.CreateUser(context.Background(), CreateUserParams{
		Email: "user@acme.com",
		Roles: []string{"Wizard"},
	}, internalAdmin())
	assert.True(t, idmerr.IsCode(err, idmerr.ErrCodeInvalidInput))

	_, err = f.coordinator.CreateUser(context.Background(), CreateUserParams{
		Email: "user@acme.com",
	}, internalAdmin())
	assert.True(t, idmerr.IsCode(err, idmerr.ErrCodeInvalidInput))
}

func TestConcurrentOnboardingLosesUniquenessRace(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	acme := f.registerTenant(t, "acme.com")

	// Another writer created the admin between the existence check and
	// the insert; the conflict is treated as already provisioned.
	_, err := f.principals.Create(ctx, principal.CreateParams{
		Email:        "owner@acme.com",
		PasswordHash: "already-set",
		TenantID:     &acme.ID,
		Roles:        rbac.NewRoleSet(rbac.RoleAdmin, rbac.RoleTenantMember),
	})
	require.NoError(t, err)

	onboarded := acme
	onboarded.Status = tenant.StatusOnboarded
	assert.NoError(t, f.coordinator.EnsureAdminAccount(ctx, onboarded))
}
