package models

import (
	"time"

	"github.com/google/uuid"
)

// ModerationStatus is the three-state moderation field on jobs, profile
// comments and reports. Only an admin transitions a record out of "pending".
type ModerationStatus string

const (
	StatusPending  ModerationStatus = "pending"
	StatusApproved ModerationStatus = "approved"
	StatusRejected ModerationStatus = "rejected"
)

// ValidModerationTransition reports whether from→to is an allowed status
// change. The only legal transitions are pending→approved and
// pending→rejected; approved/rejected records are final.
func ValidModerationTransition(from, to ModerationStatus) bool {
	if from != StatusPending {
		return false
	}
	return to == StatusApproved || to == StatusRejected
}

// ProfileComment is a public comment left on a user's profile. Hidden until
// an admin approves it.
type ProfileComment struct {
	ID            uuid.UUID        `json:"id"`
	CreatedAt     time.Time        `json:"created_at"`
	ProfileUserID uuid.UUID        `json:"profile_user_id"`
	AuthorID      uuid.UUID        `json:"author_id"`
	Content       string           `json:"content"`
	Status        ModerationStatus `json:"status"`
}

// Report is a user-filed complaint about another user. "approved" means the
// admin took action; "rejected" means it was dismissed.
type Report struct {
	ID             uuid.UUID        `json:"id"`
	CreatedAt      time.Time        `json:"created_at"`
	ReporterID     uuid.UUID        `json:"reporter_id"`
	ReportedUserID uuid.UUID        `json:"reported_user_id"`
	Reason         string           `json:"reason"`
	Details        string           `json:"details"`
	Status         ModerationStatus `json:"status"`
	ResolvedBy     *uuid.UUID       `json:"resolved_by,omitempty"`
}
