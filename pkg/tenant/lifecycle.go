package tenant

import "fmt"

// Status is a tenant's onboarding lifecycle state.
type Status string

const (
	// StatusPendingReview is the initial state of every registration.
	StatusPendingReview Status = "pending_review"
	// StatusApproved means the registration passed review; the tenant is
	// not yet active.
	StatusApproved Status = "approved"
	// StatusOnboarded is the terminal active state. Only onboarded
	// tenants permit logins and user provisioning.
	StatusOnboarded Status = "onboarded"
	// StatusRejected is the terminal inactive state.
	StatusRejected Status = "rejected"
)

// ParseStatus validates a lifecycle status label.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPendingReview, StatusApproved, StatusOnboarded, StatusRejected:
		return Status(s), nil
	}
	return "", fmt.Errorf("invalid tenant status: %q", s)
}

// transitions is the lifecycle graph. Onboarded and rejected are
// terminal; there is no re-review path.
var transitions = map[Status][]Status{
	StatusPendingReview: {StatusApproved, StatusRejected},
	StatusApproved:      {StatusOnboarded},
}

// CanTransition reports whether the lifecycle permits moving from one
// status to another.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
