package principal

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Repository errors. Uniqueness violations surface as ErrDuplicate so
// concurrent duplicate creation resolves to a conflict, never a merge.
var (
	ErrNotFound  = errors.New("principal not found")
	ErrDuplicate = errors.New("principal already exists")
)

// Repository is the persistence contract for principals.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (Principal, error)
	FindByID(ctx context.Context, id uuid.UUID) (Principal, error)
	FindByEmail(ctx context.Context, email string) (Principal, error)
	FindByExternalID(ctx context.Context, provider, externalID string) (Principal, error)
	// FindByEmailAndTenant backs the idempotency check of tenant-admin
	// bootstrap.
	FindByEmailAndTenant(ctx context.Context, email string, tenantID uuid.UUID) (Principal, error)
	// RecordLogin stamps the last-authenticated timestamp.
	RecordLogin(ctx context.Context, id uuid.UUID) error
	// SetActive enables or disables a principal.
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}
