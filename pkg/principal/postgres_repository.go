package principal

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hubcrafter/tenant-idm/pkg/rbac"
)

// PostgresRepository implements Repository backed by pgx. Uniqueness of
// email and (external_provider, external_id) is enforced by the schema;
// unique violations map to ErrDuplicate.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a PostgreSQL-backed principal repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const principalColumns = `id, email, password_hash, external_provider, external_id,
	tenant_id, roles, is_active, last_login_at, created_at, last_modified_at`

func scanPrincipal(row pgx.Row) (Principal, error) {
	var p Principal
	var roles []string
	err := row.Scan(&p.ID, &p.Email, &p.PasswordHash, &p.ExternalProvider, &p.ExternalID,
		&p.TenantID, &roles, &p.Active, &p.LastLoginAt, &p.CreatedAt, &p.LastModifiedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Principal{}, ErrNotFound
		}
		return Principal{}, err
	}
	// The roles column is constrained non-empty; parse leniently anyway.
	p.Roles = make(rbac.RoleSet, len(roles))
	for _, l := range roles {
		if r, perr := rbac.ParseRole(l); perr == nil {
			p.Roles[r] = struct{}{}
		}
	}
	return p, nil
}

// Create inserts a new principal.
func (r *PostgresRepository) Create(ctx context.Context, params CreateParams) (Principal, error) {
	if err := params.Validate(); err != nil {
		return Principal{}, err
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO principals (email, password_hash, external_provider, external_id, tenant_id, roles)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+principalColumns,
		params.Email, params.PasswordHash, params.ExternalProvider, params.ExternalID,
		params.TenantID, params.Roles.Strings())

	p, err := scanPrincipal(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return Principal{}, ErrDuplicate
		}
		return Principal{}, err
	}
	return p, nil
}

// FindByID looks up a principal by id.
func (r *PostgresRepository) FindByID(ctx context.Context, id uuid.UUID) (Principal, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+principalColumns+` FROM principals WHERE id = $1`, id)
	return scanPrincipal(row)
}

// FindByEmail looks up a principal by normalized email.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (Principal, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+principalColumns+` FROM principals WHERE email = $1`, NormalizeEmail(email))
	return scanPrincipal(row)
}

// FindByExternalID looks up a principal by external identity.
func (r *PostgresRepository) FindByExternalID(ctx context.Context, provider, externalID string) (Principal, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+principalColumns+` FROM principals
		 WHERE external_provider = $1 AND external_id = $2`, provider, externalID)
	return scanPrincipal(row)
}

// FindByEmailAndTenant looks up a principal by email bound to a tenant.
func (r *PostgresRepository) FindByEmailAndTenant(ctx context.Context, email string, tenantID uuid.UUID) (Principal, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+principalColumns+` FROM principals
		 WHERE email = $1 AND tenant_id = $2`, NormalizeEmail(email), tenantID)
	return scanPrincipal(row)
}

// RecordLogin stamps the last-authenticated timestamp.
func (r *PostgresRepository) RecordLogin(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE principals
		SET last_login_at = now(), last_modified_at = now()
		WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetActive enables or disables a principal.
func (r *PostgresRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE principals
		SET is_active = $2, last_modified_at = now()
		WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
