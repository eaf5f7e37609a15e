package models

import (
	"time"

	"github.com/google/uuid"
)

// Job is an employer's posting. New jobs enter the moderation queue as
// "pending" and become publicly listed only once approved.
type Job struct {
	ID          uuid.UUID        `json:"id"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	EmployerID  uuid.UUID        `json:"employer_id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Budget      int              `json:"budget"`
	Tags        []string         `json:"tags"`
	Status      ModerationStatus `json:"status"`
	IsOpen      bool             `json:"is_open"`
}

// JobApplication records one freelancer applying to one job, at most once.
type JobApplication struct {
	ID          uuid.UUID `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	JobID       uuid.UUID `json:"job_id"`
	ApplicantID uuid.UUID `json:"applicant_id"`
	CoverLetter string    `json:"cover_letter"`
}
