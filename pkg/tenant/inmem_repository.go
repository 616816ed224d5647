package tenant

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryRepository implements Repository using in-memory storage,
// enforcing the registered-domain uniqueness constraint.
type InMemoryRepository struct {
	mu      sync.RWMutex
	tenants map[uuid.UUID]Tenant
}

// NewInMemoryRepository creates a new in-memory tenant repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		tenants: make(map[uuid.UUID]Tenant),
	}
}

// Create creates a tenant, rejecting duplicate registered domains.
func (r *InMemoryRepository) Create(ctx context.Context, t Tenant) (Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	domain := strings.ToLower(strings.TrimSpace(t.RegisterDomain))
	for _, existing := range r.tenants {
		if existing.RegisterDomain == domain {
			return Tenant{}, ErrDuplicateDomain
		}
	}

	now := time.Now().UTC()
	t.ID = uuid.New()
	t.RegisterDomain = domain
	t.CreatedAt = now
	t.LastModifiedAt = now
	r.tenants[t.ID] = t
	return t, nil
}

// FindByID looks up a tenant by id.
func (r *InMemoryRepository) FindByID(ctx context.Context, id uuid.UUID) (Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tenants[id]
	if !ok {
		return Tenant{}, ErrNotFound
	}
	return t, nil
}

// FindByDomain looks up a tenant by registered domain, case-insensitively.
func (r *InMemoryRepository) FindByDomain(ctx context.Context, domain string) (Tenant, error) {
	domain = strings.ToLower(strings.TrimSpace(domain))

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, t := range r.tenants {
		if t.RegisterDomain == domain {
			return t, nil
		}
	}
	return Tenant{}, ErrNotFound
}

// ListByStatus returns tenants in the given lifecycle status, oldest first.
func (r *InMemoryRepository) ListByStatus(ctx context.Context, status Status) ([]Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Tenant
	for _, t := range r.tenants {
		if t.Status == status {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// UpdateStatus writes the status and negotiation notes of one tenant,
// guarded on the expected current status.
func (r *InMemoryRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status, notes string) (Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tenants[id]
	if !ok {
		return Tenant{}, ErrNotFound
	}
	if t.Status != from {
		return Tenant{}, ErrStaleStatus
	}
	t.Status = to
	t.NegotiationNotes = notes
	t.LastModifiedAt = time.Now().UTC()
	r.tenants[id] = t
	return t, nil
}
