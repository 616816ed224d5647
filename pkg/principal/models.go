// Package principal holds the user aggregate and its persistence
// contracts. A principal optionally references a tenant; it never owns
// one. Principals with no tenant reference belong to the operating
// organization itself.
package principal

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hubcrafter/tenant-idm/pkg/rbac"
)

// Principal is a user account.
type Principal struct {
	ID uuid.UUID
	// Email is unique, stored lowercase and trimmed.
	Email string
	// PasswordHash is empty for externally-authenticated principals.
	PasswordHash string
	// ExternalProvider and ExternalID identify an external credential
	// source. Both are set or neither is.
	ExternalProvider string
	ExternalID       string
	// TenantID is nil for operating-organization principals.
	TenantID *uuid.UUID
	// Roles is non-empty; new principals default to the Viewer role.
	Roles          rbac.RoleSet
	Active         bool
	LastLoginAt    *time.Time
	CreatedAt      time.Time
	LastModifiedAt time.Time
}

// HasLocalCredential reports whether the principal can be checked
// against a password.
func (p Principal) HasLocalCredential() bool {
	return p.PasswordHash != ""
}

// CreateParams carries the fields for creating a principal.
type CreateParams struct {
	Email            string
	PasswordHash     string
	ExternalProvider string
	ExternalID       string
	TenantID         *uuid.UUID
	Roles            rbac.RoleSet
}

// Validate enforces the creation invariants: normalized non-empty email,
// local credential XOR external identity XOR neither, non-empty roles.
func (p *CreateParams) Validate() error {
	p.Email = NormalizeEmail(p.Email)
	if p.Email == "" || !strings.Contains(p.Email, "@") {
		return fmt.Errorf("a valid email is required")
	}
	if (p.ExternalProvider == "") != (p.ExternalID == "") {
		return fmt.Errorf("external provider and external id must be set together")
	}
	if p.PasswordHash != "" && p.ExternalProvider != "" {
		return fmt.Errorf("a principal cannot carry both a local credential and an external identity")
	}
	if len(p.Roles) == 0 {
		p.Roles = rbac.NewRoleSet(rbac.RoleViewer)
	}
	return nil
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EmailDomain returns the part after the last "@", lowercased, or ""
// when the address has no domain.
func EmailDomain(email string) string {
	email = NormalizeEmail(email)
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return email[at+1:]
}
