package principal

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryRepository implements Repository using in-memory storage. It
// enforces the same uniqueness constraints the database schema carries:
// email, and (provider, external id) for external identities.
type InMemoryRepository struct {
	mu         sync.RWMutex
	principals map[uuid.UUID]Principal
}

// NewInMemoryRepository creates a new in-memory principal repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		principals: make(map[uuid.UUID]Principal),
	}
}

// Create creates a new principal, rejecting duplicates.
func (r *InMemoryRepository) Create(ctx context.Context, params CreateParams) (Principal, error) {
	if err := params.Validate(); err != nil {
		return Principal{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.principals {
		if p.Email == params.Email {
			return Principal{}, ErrDuplicate
		}
		if params.ExternalProvider != "" &&
			p.ExternalProvider == params.ExternalProvider && p.ExternalID == params.ExternalID {
			return Principal{}, ErrDuplicate
		}
	}

	now := time.Now().UTC()
	p := Principal{
		ID:               uuid.New(),
		Email:            params.Email,
		PasswordHash:     params.PasswordHash,
		ExternalProvider: params.ExternalProvider,
		ExternalID:       params.ExternalID,
		TenantID:         params.TenantID,
		Roles:            params.Roles,
		Active:           true,
		CreatedAt:        now,
		LastModifiedAt:   now,
	}
	r.principals[p.ID] = p
	return p, nil
}

// FindByID looks up a principal by id.
func (r *InMemoryRepository) FindByID(ctx context.Context, id uuid.UUID) (Principal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.principals[id]
	if !ok {
		return Principal{}, ErrNotFound
	}
	return p, nil
}

// FindByEmail looks up a principal by normalized email.
func (r *InMemoryRepository) FindByEmail(ctx context.Context, email string) (Principal, error) {
	email = NormalizeEmail(email)

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.principals {
		if p.Email == email {
			return p, nil
		}
	}
	return Principal{}, ErrNotFound
}

// FindByExternalID looks up a principal by external identity.
func (r *InMemoryRepository) FindByExternalID(ctx context.Context, provider, externalID string) (Principal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.principals {
		if p.ExternalProvider == provider && p.ExternalID == externalID {
			return p, nil
		}
	}
	return Principal{}, ErrNotFound
}

// FindByEmailAndTenant looks up a principal by email bound to a tenant.
func (r *InMemoryRepository) FindByEmailAndTenant(ctx context.Context, email string, tenantID uuid.UUID) (Principal, error) {
	email = NormalizeEmail(email)

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.principals {
		if p.Email == email && p.TenantID != nil && *p.TenantID == tenantID {
			return p, nil
		}
	}
	return Principal{}, ErrNotFound
}

// RecordLogin stamps the last-authenticated timestamp.
func (r *InMemoryRepository) RecordLogin(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.principals[id]
	if !ok {
		return ErrNotFound
	}
	now := time.Now().UTC()
	p.LastLoginAt = &now
	p.LastModifiedAt = now
	r.principals[id] = p
	return nil
}

// SetActive enables or disables a principal.
func (r *InMemoryRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.principals[id]
	if !ok {
		return ErrNotFound
	}
	p.Active = active
	p.LastModifiedAt = time.Now().UTC()
	r.principals[id] = p
	return nil
}
