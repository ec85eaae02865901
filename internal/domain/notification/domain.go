package notification

import (
	"context"
	"time"
)

const TypeExpiry = "expiry"

const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
)

const (
	TitleExpired      = "Serial License Expired"
	TitleExpiringSoon = "Serial License Expiring Soon"
)

// Notification is the persisted record the dashboard's notification UI
// reads. The notifier only ever creates rows of type "expiry".
type Notification struct {
	ID             int64     `json:"id"`
	Type           string    `json:"type"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
	LicenseID      int64     `json:"license_id"`
	SerialID       int64     `json:"serial_id"`
	UserID         int64     `json:"user_id"`
	Read           bool      `json:"read"`
	Priority       string    `json:"priority"`
	ActionRequired bool      `json:"action_required"`
	ActionURL      string    `json:"action_url"`
	CreatedAt      time.Time `json:"created_at"`
}

// EmailDispatchRequest is the ephemeral value handed to the mail gateway,
// one per notification actually persisted. It is never stored.
type EmailDispatchRequest struct {
	NotificationID int64  `json:"notification_id"`
	To             string `json:"to"`
	Subject        string `json:"subject"`
	HTML           string `json:"html"`
}

type EmailSender interface {
	Send(ctx context.Context, to, subject, html string) error
}

type Clock interface {
	Now() time.Time
}
