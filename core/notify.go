package core

import "context"

type NotificationType string

const (
	NotificationBan     NotificationType = "ban"
	NotificationPayment NotificationType = "paiement"
)

// Notification is an alert addressed to the school administration.
type Notification struct {
	Type      NotificationType `json:"type"`
	StudentID string           `json:"student_id"`
	Message   string           `json:"message"`
}

// Notifier delivers admin notifications. Delivery is best-effort:
// callers log returned errors and carry on.
type Notifier interface {
	NotifyAdmin(ctx context.Context, n Notification) error
}
