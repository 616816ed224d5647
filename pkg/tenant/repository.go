package tenant

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Repository errors. Duplicate registered domains surface as
// ErrDuplicateDomain via the uniqueness constraint.
var (
	ErrNotFound        = errors.New("tenant not found")
	ErrDuplicateDomain = errors.New("domain already registered")
	ErrStaleStatus     = errors.New("tenant status changed concurrently")
)

// Repository is the persistence contract for tenants.
type Repository interface {
	Create(ctx context.Context, t Tenant) (Tenant, error)
	FindByID(ctx context.Context, id uuid.UUID) (Tenant, error)
	FindByDomain(ctx context.Context, domain string) (Tenant, error)
	ListByStatus(ctx context.Context, status Status) ([]Tenant, error)
	// UpdateStatus writes the status and negotiation notes of one tenant,
	// guarded on the expected current status. ErrStaleStatus means a
	// concurrent transition won the write.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status, notes string) (Tenant, error)
}
