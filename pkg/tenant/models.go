// Package tenant holds the customer-organization aggregate: its record,
// its onboarding lifecycle, and its persistence contracts.
package tenant

import (
	"time"

	"github.com/google/uuid"
)

// Tenant is a customer organization identified by its registered email
// domain. The domain is globally unique, stored lowercase.
type Tenant struct {
	ID             uuid.UUID
	CompanyName    string
	RegisterDomain string
	// AdminEmail is the administrative contact; the tenant's bootstrap
	// admin account is created for this address on onboarding.
	AdminEmail string
	AdminPhone string

	// Advisory operational metadata. Stored as supplied, never
	// invariant-bearing.
	HostingPlatform   string
	ApplicationsUsed  []string
	MonthlyOrders     int
	MonthlyReturns    int
	OperationalCities []string

	Status           Status
	NegotiationNotes string
	CreatedAt        time.Time
	LastModifiedAt   time.Time
}

// RegisterParams carries the fields for registering a tenant.
type RegisterParams struct {
	CompanyName    string
	RegisterDomain string
	AdminEmail     string
	AdminPhone     string

	HostingPlatform   string
	ApplicationsUsed  []string
	MonthlyOrders     int
	MonthlyReturns    int
	OperationalCities []string
}
