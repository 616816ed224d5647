// Package notification delivers onboarding and status-update messages
// to tenant contacts. Delivery is best effort: the identity core logs a
// failed send and proceeds, it never rolls back a transition over one.
package notification

// NoticeType identifies a message template.
type NoticeType string

const (
	// NoticeTenantStatusUpdate tells the tenant contact about a lifecycle
	// transition.
	NoticeTenantStatusUpdate NoticeType = "tenant_status_update"
	// NoticeTenantOnboarded delivers the generated bootstrap credential
	// to the tenant's administrative contact.
	NoticeTenantOnboarded NoticeType = "tenant_onboarded"
)

// NotificationData is a rendered message for one recipient. Data carries
// template fields such as the company name, new status, or the one-time
// credential.
type NotificationData struct {
	To      string
	Subject string
	Data    map[string]string
}

// Notifier sends a notification of the given type.
type Notifier interface {
	Send(noticeType NoticeType, notification NotificationData) error
}
