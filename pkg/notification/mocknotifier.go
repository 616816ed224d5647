package notification

// MockNotifier records sent notifications for tests.
type MockNotifier struct {
	Sent []SentNotification
}

// SentNotification pairs a notice type with its payload.
type SentNotification struct {
	Type NoticeType
	Data NotificationData
}

func (m *MockNotifier) Send(noticeType NoticeType, notification NotificationData) error {
	m.Sent = append(m.Sent, SentNotification{Type: noticeType, Data: notification})
	return nil
}
