// Package login completes the password login flow: credential check,
// tenant resolution, authorization, and session issuance.
package login

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hubcrafter/tenant-idm/pkg/authz"
	"github.com/hubcrafter/tenant-idm/pkg/idmerr"
	"github.com/hubcrafter/tenant-idm/pkg/password"
	"github.com/hubcrafter/tenant-idm/pkg/principal"
	"github.com/hubcrafter/tenant-idm/pkg/rbac"
	"github.com/hubcrafter/tenant-idm/pkg/resolver"
	"github.com/hubcrafter/tenant-idm/pkg/token"
)

// Result is a completed login: the bearer token and the claims it
// carries.
type Result struct {
	Token     string
	ExpiresAt time.Time
	Claims    rbac.Claims
}

// Service orchestrates the login decision.
type Service struct {
	principals principal.Repository
	hasher     password.Hasher
	resolver   *resolver.Resolver
	issuer     token.Issuer
}

// NewService creates a login service.
func NewService(principals principal.Repository, hasher password.Hasher, res *resolver.Resolver, issuer token.Issuer) *Service {
	return &Service{
		principals: principals,
		hasher:     hasher,
		resolver:   res,
		issuer:     issuer,
	}
}

// Login authenticates the principal and issues a session token.
// Credential failures are reported generically so callers cannot tell
// an unknown email from a wrong password.
func (s *Service) Login(ctx context.Context, email, secret string) (Result, error) {
	p, err := s.principals.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, principal.ErrNotFound) {
			return Result{}, idmerr.New(idmerr.ErrCodeInvalidCredentials, "invalid credentials")
		}
		return Result{}, idmerr.InternalWrap(err, "failed to look up principal")
	}

	if !p.Active {
		return Result{}, idmerr.New(idmerr.ErrCodeUserDisabled, "account is disabled")
	}

	match, err := s.hasher.Verify(p.PasswordHash, secret)
	if err != nil {
		return Result{}, idmerr.InternalWrap(err, "failed to verify credential")
	}
	switch match {
	case password.NoLocalCredential:
		return Result{}, idmerr.New(idmerr.ErrCodeExternalAccount,
			"this account uses an external identity provider; sign in through it")
	case password.Mismatch:
		return Result{}, idmerr.New(idmerr.ErrCodeInvalidCredentials, "invalid credentials")
	}

	res, err := s.resolver.ResolveForLogin(ctx, p)
	if err != nil {
		return Result{}, err
	}

	if d := authz.CanLogin(res.DomainClass, res.TenantStatus); !d.Allowed {
		slog.Info("login denied",
			"principal_id", p.ID, "domain_class", res.DomainClass,
			"tenant_status", res.TenantStatus, "reason", d.Code)
		return Result{}, d.Err()
	}

	if err := s.principals.RecordLogin(ctx, p.ID); err != nil {
		return Result{}, idmerr.InternalWrap(err, "failed to record login")
	}

	claims := rbac.Claims{
		PrincipalID: p.ID,
		Email:       p.Email,
		Roles:       p.Roles.Strings(),
		TenantID:    res.TenantID,
		DomainClass: res.DomainClass,
		Domain:      res.Domain,
	}

	signed, expiresAt, err := s.issuer.Issue(claims)
	if err != nil {
		return Result{}, idmerr.InternalWrap(err, "failed to issue session token")
	}
	claims.ExpiresAt = expiresAt

	slog.Info("login succeeded", "claims", claims)
	return Result{Token: signed, ExpiresAt: expiresAt, Claims: claims}, nil
}
