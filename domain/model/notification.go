package model

import "time"

// NotificationType classifies feed entries.
type NotificationType string

const (
	NotificationFollow  NotificationType = "follow"
	NotificationComment NotificationType = "comment"
)

// Notification is an append-only feed item for a single user.
// NotificationID is the sort-key suffix "<ts>#<uuid>"; callers hand it back
// unmodified to mark the entry read.
type Notification struct {
	NotificationID string           `json:"notificationId"`
	UserID         string           `json:"userId"`
	Type           NotificationType `json:"type"`
	ActorID        string           `json:"actorId"`
	ActorUsername  string           `json:"actorUsername"`
	TargetID       string           `json:"targetId,omitempty"`
	Message        string           `json:"message"`
	IsRead         bool             `json:"isRead"`
	CreatedAt      time.Time        `json:"createdAt"`
}
