package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType tags what produced the alert.
type NotificationType string

const (
	NotificationNewApplication  NotificationType = "new_application"
	NotificationNewMessage      NotificationType = "new_message"
	NotificationJobApproved     NotificationType = "job_approved"
	NotificationJobRejected     NotificationType = "job_rejected"
	NotificationCommentApproved NotificationType = "comment_approved"
	NotificationCommentRejected NotificationType = "comment_rejected"
	NotificationReportResolved  NotificationType = "report_resolved"
)

// Notification is a per-user alert row. Visible only to its owner; the read
// flag transitions false→true only.
type Notification struct {
	ID        uuid.UUID        `json:"id"`
	CreatedAt time.Time        `json:"created_at"`
	UserID    uuid.UUID        `json:"user_id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
	Link      string           `json:"link,omitempty"`
	Read      bool             `json:"read"`
}
