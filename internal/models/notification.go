// internal/models/notification.go
package models

// Notification event types emitted by the workflow engine after a committed
// state transition.
const (
	NotificationSubmitted = "application_submitted"
	NotificationApproved  = "application_approved"
	NotificationRejected  = "application_rejected"
)

// Notification delivery outcomes.
const (
	NotificationStatusSent     = "sent"
	NotificationStatusFailed   = "failed"
	NotificationStatusDisabled = "disabled"
)

// Notification is the record of one dispatch attempt.
type Notification struct {
	ID          string `json:"id"`
	RecipientID string `json:"recipientId"`
	Type        string `json:"type"`
	Channel     string `json:"channel"` // "email", "sms"
	Status      string `json:"status"`
	SentAt      string `json:"sentAt"`
}
