// Package token issues and verifies signed session claim sets.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/hubcrafter/tenant-idm/pkg/rbac"
)

// DefaultSessionExpiry is applied when no expiry is configured.
const DefaultSessionExpiry = time.Hour

// ErrTokenInvalid is the single verification failure outcome. Bad
// signature, malformed payload, and expiry all collapse into it so
// callers cannot distinguish cryptographic detail.
var ErrTokenInvalid = errors.New("token invalid")

// Issuer signs and verifies session claim sets.
type Issuer interface {
	Issue(claims rbac.Claims) (string, time.Time, error)
	Verify(tokenStr string) (rbac.Claims, error)
}

type sessionClaims struct {
	PrincipalID string   `json:"sub_id"`
	Email       string   `json:"email"`
	Roles       []string `json:"roles"`
	TenantID    *string  `json:"tenant_id,omitempty"`
	DomainClass string   `json:"domain_class"`
	Domain      string   `json:"domain"`
	jwt.RegisteredClaims
}

// JwtIssuer implements Issuer with HS256-signed JWTs.
type JwtIssuer struct {
	secret []byte
	issuer string
	expiry time.Duration
}

// Option configures a JwtIssuer.
type Option func(*JwtIssuer)

// WithExpiry overrides the default session lifetime.
func WithExpiry(d time.Duration) Option {
	return func(i *JwtIssuer) {
		i.expiry = d
	}
}

// WithIssuerName sets the iss claim.
func WithIssuerName(name string) Option {
	return func(i *JwtIssuer) {
		i.issuer = name
	}
}

// NewJwtIssuer creates a JwtIssuer. The signing secret is required; its
// absence is a startup misconfiguration the caller must treat as fatal.
func NewJwtIssuer(secret string, options ...Option) (*JwtIssuer, error) {
	if secret == "" {
		return nil, errors.New("signing secret is required")
	}
	i := &JwtIssuer{
		secret: []byte(secret),
		issuer: "tenant-idm",
		expiry: DefaultSessionExpiry,
	}
	for _, opt := range options {
		opt(i)
	}
	return i, nil
}

// Issue signs a bounded-lifetime token for the given claim set. The
// expiry on the supplied claims is ignored; the issuer stamps its own.
func (i *JwtIssuer) Issue(claims rbac.Claims) (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(i.expiry)

	sc := sessionClaims{
		PrincipalID: claims.PrincipalID.String(),
		Email:       claims.Email,
		Roles:       claims.Roles,
		DomainClass: string(claims.DomainClass),
		Domain:      claims.Domain,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    i.issuer,
			Subject:   claims.PrincipalID.String(),
			ID:        uuid.New().String(),
		},
	}
	if claims.TenantID != nil {
		s := claims.TenantID.String()
		sc.TenantID = &s
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, sc)
	signed, err := tok.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify checks signature and expiry together and decodes the claim set.
// Any failure returns ErrTokenInvalid.
func (i *JwtIssuer) Verify(tokenStr string) (rbac.Claims, error) {
	var sc sessionClaims
	tok, err := jwt.ParseWithClaims(tokenStr, &sc, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return i.secret, nil
	})
	if err != nil || !tok.Valid {
		return rbac.Claims{}, ErrTokenInvalid
	}

	principalID, err := uuid.Parse(sc.PrincipalID)
	if err != nil {
		return rbac.Claims{}, ErrTokenInvalid
	}

	claims := rbac.Claims{
		PrincipalID: principalID,
		Email:       sc.Email,
		Roles:       sc.Roles,
		DomainClass: rbac.DomainClass(sc.DomainClass),
		Domain:      sc.Domain,
	}
	if sc.ExpiresAt != nil {
		claims.ExpiresAt = sc.ExpiresAt.Time
	}
	if sc.TenantID != nil {
		tid, err := uuid.Parse(*sc.TenantID)
		if err != nil {
			return rbac.Claims{}, ErrTokenInvalid
		}
		claims.TenantID = &tid
	}
	return claims, nil
}
