package tenant

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"

	"github.com/hubcrafter/tenant-idm/pkg/idmerr"
	"github.com/hubcrafter/tenant-idm/pkg/principal"
)

// Service manages tenant registration and lifecycle transitions.
// Authorization of transitions belongs to the caller; the service
// enforces only the lifecycle graph itself.
type Service struct {
	repo Repository
}

// NewService creates a tenant service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Register submits a new tenant registration in pending_review.
func (s *Service) Register(ctx context.Context, params RegisterParams) (Tenant, error) {
	params.RegisterDomain = strings.ToLower(strings.TrimSpace(params.RegisterDomain))
	params.AdminEmail = principal.NormalizeEmail(params.AdminEmail)

	if params.CompanyName == "" || params.RegisterDomain == "" || params.AdminEmail == "" {
		return Tenant{}, idmerr.New(idmerr.ErrCodeInvalidInput,
			"company name, register domain and admin email are required")
	}
	if strings.Contains(params.RegisterDomain, "@") {
		return Tenant{}, idmerr.InvalidInput("register domain", "must be a bare domain, not an email address")
	}
	if !strings.Contains(params.AdminEmail, "@") {
		return Tenant{}, idmerr.InvalidInput("admin email", "invalid format")
	}

	var t Tenant
	if err := copier.Copy(&t, &params); err != nil {
		return Tenant{}, idmerr.InternalWrap(err, "failed to map registration params")
	}
	t.Status = StatusPendingReview

	created, err := s.repo.Create(ctx, t)
	if err != nil {
		if errors.Is(err, ErrDuplicateDomain) {
			return Tenant{}, idmerr.Newf(idmerr.ErrCodeDomainTaken,
				"domain %s is already registered", params.RegisterDomain)
		}
		return Tenant{}, idmerr.InternalWrap(err, "failed to create tenant")
	}

	slog.Info("tenant registration submitted",
		"tenant_id", created.ID, "domain", created.RegisterDomain)
	return created, nil
}

// GetByID loads a tenant.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (Tenant, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Tenant{}, idmerr.NotFound("tenant", id.String())
		}
		return Tenant{}, idmerr.InternalWrap(err, "failed to load tenant")
	}
	return t, nil
}

// ListPending returns registrations awaiting review.
func (s *Service) ListPending(ctx context.Context) ([]Tenant, error) {
	tenants, err := s.repo.ListByStatus(ctx, StatusPendingReview)
	if err != nil {
		return nil, idmerr.InternalWrap(err, "failed to list pending tenants")
	}
	return tenants, nil
}

// Transition moves a tenant through the lifecycle graph, recording the
// negotiation notes as an audit annotation.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, to Status, notes string) (Tenant, error) {
	t, err := s.GetByID(ctx, id)
	if err != nil {
		return Tenant{}, err
	}

	if !CanTransition(t.Status, to) {
		return Tenant{}, idmerr.Newf(idmerr.ErrCodeInvalidStatusTransition,
			"cannot transition tenant from %s to %s", t.Status, to)
	}

	updated, err := s.repo.UpdateStatus(ctx, id, t.Status, to, notes)
	if err != nil {
		if errors.Is(err, ErrStaleStatus) {
			return Tenant{}, idmerr.New(idmerr.ErrCodeConflict,
				"tenant status was changed concurrently")
		}
		return Tenant{}, idmerr.InternalWrap(err, "failed to update tenant status")
	}

	slog.Info("tenant status changed",
		"tenant_id", updated.ID, "domain", updated.RegisterDomain,
		"from", t.Status, "to", updated.Status)
	return updated, nil
}
