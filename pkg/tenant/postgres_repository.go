package tenant

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements Repository backed by pgx. The unique
// index on register_domain is the tie-breaker for concurrent duplicate
// registrations.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a PostgreSQL-backed tenant repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const tenantColumns = `id, company_name, register_domain, admin_email, admin_phone,
	hosting_platform, applications_used, monthly_orders, monthly_returns,
	operational_cities, status, negotiation_notes, created_at, last_modified_at`

func scanTenant(row pgx.Row) (Tenant, error) {
	var t Tenant
	var status string
	err := row.Scan(&t.ID, &t.CompanyName, &t.RegisterDomain, &t.AdminEmail, &t.AdminPhone,
		&t.HostingPlatform, &t.ApplicationsUsed, &t.MonthlyOrders, &t.MonthlyReturns,
		&t.OperationalCities, &status, &t.NegotiationNotes, &t.CreatedAt, &t.LastModifiedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Tenant{}, ErrNotFound
		}
		return Tenant{}, err
	}
	t.Status = Status(status)
	return t, nil
}

// Create inserts a new tenant.
func (r *PostgresRepository) Create(ctx context.Context, t Tenant) (Tenant, error) {
	// TEXT[] columns are NOT NULL; a nil slice would encode as NULL.
	if t.ApplicationsUsed == nil {
		t.ApplicationsUsed = []string{}
	}
	if t.OperationalCities == nil {
		t.OperationalCities = []string{}
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO tenants (company_name, register_domain, admin_email, admin_phone,
			hosting_platform, applications_used, monthly_orders, monthly_returns,
			operational_cities, status, negotiation_notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+tenantColumns,
		t.CompanyName, strings.ToLower(strings.TrimSpace(t.RegisterDomain)),
		t.AdminEmail, t.AdminPhone, t.HostingPlatform, t.ApplicationsUsed,
		t.MonthlyOrders, t.MonthlyReturns, t.OperationalCities,
		string(t.Status), t.NegotiationNotes)

	created, err := scanTenant(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return Tenant{}, ErrDuplicateDomain
		}
		return Tenant{}, err
	}
	return created, nil
}

// FindByID looks up a tenant by id.
func (r *PostgresRepository) FindByID(ctx context.Context, id uuid.UUID) (Tenant, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id)
	return scanTenant(row)
}

// FindByDomain looks up a tenant by registered domain.
func (r *PostgresRepository) FindByDomain(ctx context.Context, domain string) (Tenant, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE register_domain = $1`,
		strings.ToLower(strings.TrimSpace(domain)))
	return scanTenant(row)
}

// ListByStatus returns tenants in the given lifecycle status, oldest first.
func (r *PostgresRepository) ListByStatus(ctx context.Context, status Status) ([]Tenant, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE status = $1 ORDER BY created_at`,
		string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// UpdateStatus writes the status and negotiation notes of one tenant.
// The status guard in the WHERE clause makes concurrent transitions out
// of the same state lose instead of last-write-wins.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status, notes string) (Tenant, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE tenants
		SET status = $3, negotiation_notes = $4, last_modified_at = now()
		WHERE id = $1 AND status = $2
		RETURNING `+tenantColumns, id, string(from), string(to), notes)

	t, err := scanTenant(row)
	if errors.Is(err, ErrNotFound) {
		var exists bool
		if qerr := r.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM tenants WHERE id = $1)`, id).Scan(&exists); qerr != nil {
			return Tenant{}, qerr
		}
		if exists {
			return Tenant{}, ErrStaleStatus
		}
		return Tenant{}, ErrNotFound
	}
	return t, err
}
